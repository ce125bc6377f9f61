package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	configcmd "github.com/cobryan05/Yolo2Mqtt/cmd/config"
	"github.com/cobryan05/Yolo2Mqtt/cmd/track"
	"github.com/cobryan05/Yolo2Mqtt/internal/conf"
	"github.com/cobryan05/Yolo2Mqtt/internal/logging"
)

// RootCommand creates and returns the root command.
func RootCommand(settings *conf.Settings) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "yolo2mqtt",
		Short: "Object interaction tracker for MQTT detection feeds",
	}

	if err := setupFlags(rootCmd, settings); err != nil {
		cobra.CheckErr(err)
	}

	rootCmd.AddCommand(track.Command(settings))
	rootCmd.AddCommand(configcmd.Command(settings))

	// Runs after flag parsing, so --debug from the command line takes
	// effect as well as the config file value.
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		level := slog.LevelInfo
		if settings.Debug {
			level = slog.LevelDebug
		}
		logging.SetLevel(level)
		return nil
	}

	return rootCmd
}

// setupFlags defines flags that are global to the command line interface.
func setupFlags(rootCmd *cobra.Command, settings *conf.Settings) error {
	rootCmd.PersistentFlags().BoolVarP(&settings.Debug, "debug", "d", viper.GetBool("debug"), "Enable debug output")
	rootCmd.PersistentFlags().StringVar(&settings.MQTT.Broker, "broker", viper.GetString("mqtt.broker"), "MQTT broker URL (tcp://host:port)")
	rootCmd.PersistentFlags().StringVar(&settings.MQTT.Prefix, "prefix", viper.GetString("mqtt.prefix"), "MQTT topic prefix shared with the detection feed")

	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		return fmt.Errorf("error binding flags: %w", err)
	}

	return nil
}
