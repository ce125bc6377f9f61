package tracker

import (
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cobryan05/Yolo2Mqtt/internal/engine"
)

func TestEntityIDDerivation(t *testing.T) {
	t.Parallel()

	s := testSettings()
	s.HomeAssistant.EntityPrefix = "Tracker"
	em := NewEmitter(newFakeClient(), s, slog.New(slog.DiscardHandler))

	event := engine.Event{Name: "cat-feeding", Slots: []string{"cat", "food-bowl"}}
	// Dashes and underscores vanish from the name parts; slashes in the
	// event key become dashes.
	assert.Equal(t, "Tracker-backyard-catfeeding-cat-foodbowl", em.entityID("back_yard", event))
}

func TestDiscoveryConfigPublishedOnceBeforeState(t *testing.T) {
	t.Parallel()

	s := testSettings()
	s.HomeAssistant.DiscoveryEnabled = true
	s.HomeAssistant.DiscoveryPrefix = "homeassistant"
	s.HomeAssistant.EntityPrefix = "Tracker"
	s.HomeAssistant.DeviceName = "Object Tracker"

	client := newFakeClient()
	em := NewEmitter(client, s, slog.New(slog.DiscardHandler))
	event := engine.Event{Name: "cat-feeding", Slots: []string{"cat", "food-bowl"}}

	// Repeated activate/clear cycles must announce the identity once.
	for range 3 {
		require.NoError(t, em.Activated("kitchen", event))
		require.NoError(t, em.Cleared("kitchen", event))
	}

	entityID := "Tracker-kitchen-catfeeding-cat-foodbowl"
	configTopic := "homeassistant/binary_sensor/" + entityID + "/config"
	stateTopic := "homeassistant/binary_sensor/" + entityID + "/state"

	var configs, states []publication
	firstConfig, firstState := -1, -1
	for i, pub := range client.publications() {
		switch pub.topic {
		case configTopic:
			configs = append(configs, pub)
			if firstConfig == -1 {
				firstConfig = i
			}
		case stateTopic:
			states = append(states, pub)
			if firstState == -1 {
				firstState = i
			}
		}
	}

	require.Len(t, configs, 1, "discovery config must be announced exactly once")
	assert.True(t, configs[0].retain)
	assert.Contains(t, configs[0].payload, `"unique_id":"`+entityID+`"`)
	assert.Contains(t, configs[0].payload, `"state_topic":"`+stateTopic+`"`)
	// Sensors share a device entry named after the configured device name.
	assert.Contains(t, configs[0].payload, `"device":{"identifiers":["Tracker"],"name":"Object Tracker"}`)

	require.Len(t, states, 6, "each transition publishes a discovery state")
	assert.Less(t, firstConfig, firstState, "config must precede the first state message")
	for i, st := range states {
		assert.True(t, st.retain)
		if i%2 == 0 {
			assert.Equal(t, "ON", st.payload)
		} else {
			assert.Equal(t, "OFF", st.payload)
		}
	}
}

func TestDiscoveryDisabledPublishesOnlyEventTopic(t *testing.T) {
	t.Parallel()

	client := newFakeClient()
	em := NewEmitter(client, testSettings(), slog.New(slog.DiscardHandler))
	event := engine.Event{Name: "cat-feeding", Slots: []string{"cat", "food-bowl"}}

	require.NoError(t, em.Activated("kitchen", event))

	pubs := client.publications()
	require.Len(t, pubs, 1)
	assert.False(t, strings.Contains(pubs[0].topic, "binary_sensor"))
}
