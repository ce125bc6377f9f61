package tracker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/cobryan05/Yolo2Mqtt/internal/conf"
	"github.com/cobryan05/Yolo2Mqtt/internal/engine"
	"github.com/cobryan05/Yolo2Mqtt/internal/mqtt"
)

// statePayload is the JSON body published on event activation.
type statePayload struct {
	Name  string   `json:"name"`
	Slots []string `json:"slots"`
}

// discoveryPayload is the Home Assistant MQTT discovery config message.
type discoveryPayload struct {
	Name         string          `json:"name"`
	FriendlyName string          `json:"friendly_name"`
	UniqueID     string          `json:"unique_id"`
	StateTopic   string          `json:"state_topic"`
	Device       discoveryDevice `json:"device"`
}

// discoveryDevice groups every published sensor under one device entry in
// Home Assistant.
type discoveryDevice struct {
	Identifiers []string `json:"identifiers"`
	Name        string   `json:"name"`
}

// Emitter delivers engine transitions to MQTT: a state topic per event and,
// when enabled, Home Assistant discovery messages. The discovery config for
// an identity is published exactly once per process lifetime, before the
// first state message for that identity.
type Emitter struct {
	client mqtt.Client
	logger *slog.Logger

	prefix string
	events string
	ha     conf.HomeAssistantSettings

	mu         sync.Mutex
	discovered map[string]struct{}
}

// NewEmitter creates an MQTT-backed emitter for engine events.
func NewEmitter(client mqtt.Client, settings *conf.Settings, logger *slog.Logger) *Emitter {
	return &Emitter{
		client:     client,
		logger:     logger,
		prefix:     strings.TrimRight(settings.MQTT.Prefix, "/"),
		events:     settings.MQTT.Events,
		ha:         settings.HomeAssistant,
		discovered: make(map[string]struct{}),
	}
}

// Activated publishes the event state and, if enabled, the discovery ON
// state.
func (em *Emitter) Activated(contextName string, event engine.Event) error {
	payload, err := json.Marshal(statePayload{Name: event.Name, Slots: event.Slots})
	if err != nil {
		return fmt.Errorf("marshaling event payload: %w", err)
	}

	errs := []error{
		em.client.Publish(context.Background(), em.eventTopic(contextName, event), string(payload), false),
	}
	if em.ha.DiscoveryEnabled {
		errs = append(errs, em.publishDiscoveryState(contextName, event, "ON"))
	}
	return errors.Join(errs...)
}

// Cleared retracts the event state with an empty retained payload so late
// subscribers see the cleared state, and publishes the discovery OFF state.
func (em *Emitter) Cleared(contextName string, event engine.Event) error {
	errs := []error{
		em.client.Publish(context.Background(), em.eventTopic(contextName, event), "", true),
	}
	if em.ha.DiscoveryEnabled {
		errs = append(errs, em.publishDiscoveryState(contextName, event, "OFF"))
	}
	return errors.Join(errs...)
}

// eventTopic builds "{prefix}/{events}/{context}/{name}/{slot1}/{slot2}".
func (em *Emitter) eventTopic(contextName string, event engine.Event) string {
	return fmt.Sprintf("%s/%s/%s/%s", em.prefix, em.events, contextName, event.Key())
}

// publishDiscoveryState sends the retained ON/OFF state for the Home
// Assistant binary sensor, publishing the one-time config message first
// when the identity has not been announced yet.
func (em *Emitter) publishDiscoveryState(contextName string, event engine.Event, state string) error {
	entityID := em.entityID(contextName, event)
	configTopic := fmt.Sprintf("%s/binary_sensor/%s/config", em.ha.DiscoveryPrefix, entityID)
	stateTopic := fmt.Sprintf("%s/binary_sensor/%s/state", em.ha.DiscoveryPrefix, entityID)

	em.mu.Lock()
	_, announced := em.discovered[entityID]
	if !announced {
		em.discovered[entityID] = struct{}{}
	}
	em.mu.Unlock()

	if !announced {
		friendlyName := fmt.Sprintf("%s - [%s] [%s]",
			em.ha.EntityPrefix, strings.ReplaceAll(event.Key(), "/", "|"), contextName)
		config, err := json.Marshal(discoveryPayload{
			Name:         friendlyName,
			FriendlyName: friendlyName,
			UniqueID:     entityID,
			StateTopic:   stateTopic,
			Device: discoveryDevice{
				Identifiers: []string{em.ha.EntityPrefix},
				Name:        em.ha.DeviceName,
			},
		})
		if err != nil {
			return fmt.Errorf("marshaling discovery config: %w", err)
		}
		em.logger.Info("publishing discovery config", "entity_id", entityID)
		if err := em.client.Publish(context.Background(), configTopic, string(config), true); err != nil {
			return fmt.Errorf("publishing discovery config: %w", err)
		}
	}

	return em.client.Publish(context.Background(), stateTopic, state, true)
}

// entityID derives the stable Home Assistant entity id from the entity
// prefix, context name and event identity. Dashes and underscores are
// stripped from the name parts so the id's own separators stay unambiguous.
func (em *Emitter) entityID(contextName string, event engine.Event) string {
	sanitize := strings.NewReplacer("-", "", "_", "")
	eventName := strings.ReplaceAll(sanitize.Replace(event.Key()), "/", "-")
	return fmt.Sprintf("%s-%s-%s", em.ha.EntityPrefix, sanitize.Replace(contextName), eventName)
}
