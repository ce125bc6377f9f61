package conf

import (
	"fmt"

	"github.com/cobryan05/Yolo2Mqtt/internal/matcher"
)

// ValidateSettings checks the loaded configuration for errors that would
// otherwise only surface at runtime.
func ValidateSettings(settings *Settings) error {
	if settings.MQTT.Broker == "" {
		return fmt.Errorf("mqtt.broker must not be empty")
	}
	if settings.MQTT.Prefix == "" {
		return fmt.Errorf("mqtt.prefix must not be empty")
	}
	if settings.Tracker.Interval < 1 {
		return fmt.Errorf("tracker.interval must be at least 1 second, got %d", settings.Tracker.Interval)
	}

	for name, ia := range settings.Interactions {
		if err := validateInteraction(name, ia); err != nil {
			return err
		}
	}
	return nil
}

func validateInteraction(name string, ia Interaction) error {
	if len(ia.Slots) == 0 {
		return fmt.Errorf("interaction %q: slots must not be empty", name)
	}
	if len(ia.Slots) > matcher.MaxSlotDepth {
		return fmt.Errorf("interaction %q: %d slots exceeds the maximum of %d",
			name, len(ia.Slots), matcher.MaxSlotDepth)
	}
	for i, slot := range ia.Slots {
		if len(slot) == 0 {
			return fmt.Errorf("interaction %q: slot %d accepts no labels", name, i)
		}
	}
	if ia.Threshold < 0.0 || ia.Threshold > 1.0 {
		return fmt.Errorf("interaction %q: threshold %v outside 0.0-1.0", name, ia.Threshold)
	}
	if ia.MinTime < 0 {
		return fmt.Errorf("interaction %q: mintime must not be negative", name)
	}
	if ia.ExpireTime < 0 {
		return fmt.Errorf("interaction %q: expiretime must not be negative", name)
	}
	return nil
}
