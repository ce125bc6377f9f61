// Package track implements the realtime interaction tracking command.
package track

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cobryan05/Yolo2Mqtt/internal/conf"
	"github.com/cobryan05/Yolo2Mqtt/internal/logging"
	"github.com/cobryan05/Yolo2Mqtt/internal/mqtt"
	"github.com/cobryan05/Yolo2Mqtt/internal/observability"
	"github.com/cobryan05/Yolo2Mqtt/internal/observability/metrics"
	"github.com/cobryan05/Yolo2Mqtt/internal/tracker"
)

// Command creates the command that runs the tracking service.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "track",
		Short: "Track object interactions in realtime",
		Long:  "Subscribe to the detection feed and publish debounced interaction events.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTracker(settings)
		},
	}

	if err := setupFlags(cmd, settings); err != nil {
		fmt.Printf("error setting up flags: %v\n", err)
		os.Exit(1)
	}

	return cmd
}

// setupFlags configures flags specific to the track command.
func setupFlags(cmd *cobra.Command, settings *conf.Settings) error {
	cmd.Flags().IntVar(&settings.Tracker.Interval, "interval", viper.GetInt("tracker.interval"), "Seconds between event evaluation passes")
	cmd.Flags().BoolVar(&settings.Telemetry.Enabled, "telemetry", viper.GetBool("telemetry.enabled"), "Enable Prometheus telemetry endpoint")
	cmd.Flags().StringVar(&settings.Telemetry.Listen, "listen", viper.GetString("telemetry.listen"), "Listen address and port of telemetry endpoint")
	cmd.Flags().BoolVar(&settings.HomeAssistant.DiscoveryEnabled, "discovery", viper.GetBool("homeassistant.discoveryenabled"), "Publish Home Assistant MQTT discovery messages")

	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("error binding flags: %w", err)
	}

	return nil
}

func runTracker(settings *conf.Settings) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := logging.ForService("track")

	var mqttMetrics *metrics.MQTTMetrics
	var trackerMetrics *metrics.TrackerMetrics
	if settings.Telemetry.Enabled {
		m, err := observability.NewMetrics()
		if err != nil {
			return fmt.Errorf("initializing metrics: %w", err)
		}
		mqttMetrics = m.MQTT
		trackerMetrics = m.Tracker

		go func() {
			if err := m.Serve(ctx, settings.Telemetry.Listen); err != nil {
				logger.Error("telemetry endpoint failed", "error", err)
			}
		}()
		logger.Info("telemetry endpoint enabled", "listen", settings.Telemetry.Listen)
	}

	client := mqtt.NewClient(settings, mqttMetrics)

	tr, err := tracker.New(settings, client, trackerMetrics)
	if err != nil {
		return err
	}

	return tr.Run(ctx)
}
