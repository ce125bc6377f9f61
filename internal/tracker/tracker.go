// Package tracker wires the detection feed, the interaction engine and the
// MQTT emitter into the running service.
package tracker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"github.com/cobryan05/Yolo2Mqtt/internal/conf"
	"github.com/cobryan05/Yolo2Mqtt/internal/engine"
	"github.com/cobryan05/Yolo2Mqtt/internal/logging"
	"github.com/cobryan05/Yolo2Mqtt/internal/mqtt"
	"github.com/cobryan05/Yolo2Mqtt/internal/observability/metrics"
	"github.com/cobryan05/Yolo2Mqtt/internal/tracked"
)

// Tracker subscribes to the detection feed, maintains the interaction
// engine and publishes event transitions.
type Tracker struct {
	settings *conf.Settings
	client   mqtt.Client
	engine   *engine.Engine
	logger   *slog.Logger
	metrics  *metrics.TrackerMetrics
	topicRe  *regexp.Regexp
}

// New creates a tracker service. trackerMetrics may be nil when telemetry
// is disabled.
func New(settings *conf.Settings, client mqtt.Client, trackerMetrics *metrics.TrackerMetrics) (*Tracker, error) {
	logger := logging.ForService("tracker")

	emitter := NewEmitter(client, settings, logger)
	eng, err := engine.New(settings.Templates(), emitter, logger, trackerMetrics)
	if err != nil {
		return nil, fmt.Errorf("creating interaction engine: %w", err)
	}

	// Detection topics look like {prefix}/{detections}/{camera}/{objectId}.
	pattern := fmt.Sprintf("^%s/%s/(?P<camera>[^/]+)/(?P<objectId>.+)$",
		regexp.QuoteMeta(settings.MQTT.Prefix), regexp.QuoteMeta(settings.MQTT.Detections))
	topicRe, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("compiling detection topic pattern: %w", err)
	}

	return &Tracker{
		settings: settings,
		client:   client,
		engine:   eng,
		logger:   logger,
		metrics:  trackerMetrics,
		topicRe:  topicRe,
	}, nil
}

// Run connects to the broker, subscribes to the detection feed and drives
// the evaluation ticker until the context is canceled. The returned error
// is fatal.
func (t *Tracker) Run(ctx context.Context) error {
	t.logger.Info("connecting to MQTT broker", "broker", t.settings.MQTT.Broker)
	if err := t.client.Connect(ctx); err != nil {
		return fmt.Errorf("connecting to MQTT broker: %w", err)
	}
	defer t.client.Disconnect()

	feedTopic := fmt.Sprintf("%s/%s/#", t.settings.MQTT.Prefix, t.settings.MQTT.Detections)
	if err := t.client.Subscribe(feedTopic, t.onMessage); err != nil {
		return fmt.Errorf("subscribing to detection feed: %w", err)
	}
	t.logger.Info("subscribed to detection feed", "topic", feedTopic)

	interval := time.Duration(t.settings.Tracker.Interval) * time.Second
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			t.logger.Info("shutting down")
			return nil
		case <-ticker.C:
			if err := t.engine.Evaluate(); err != nil {
				// Only pathological slot configurations end up here;
				// there is nothing to retry.
				return fmt.Errorf("event evaluation failed: %w", err)
			}
		}
	}
}

// onMessage handles one detection feed message: a serialized entity record
// updates the object, an empty payload removes it. Malformed input is
// dropped, never propagated.
func (t *Tracker) onMessage(topic string, payload []byte) {
	m := t.topicRe.FindStringSubmatch(topic)
	if m == nil {
		t.logger.Debug("ignoring message on unexpected topic", "topic", topic)
		return
	}
	camera, objectID := m[1], m[2]

	if len(payload) == 0 {
		t.engine.RemoveEntity(camera, objectID)
		return
	}

	var rec tracked.Record
	if err := json.Unmarshal(payload, &rec); err != nil {
		t.logger.Warn("dropping malformed detection payload",
			"topic", topic, "error", err)
		if t.metrics != nil {
			t.metrics.IncrementMalformedPayloads()
		}
		return
	}

	t.engine.UpdateEntity(camera, objectID, rec)
}
