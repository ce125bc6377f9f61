// Package config implements the command that writes the effective
// configuration to disk.
package config

import (
	"github.com/spf13/cobra"

	"github.com/cobryan05/Yolo2Mqtt/internal/conf"
	"github.com/cobryan05/Yolo2Mqtt/internal/logging"
)

// Command creates the command that saves the effective configuration.
func Command(settings *conf.Settings) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Write the effective configuration to a file",
		Long:  "Write the merged configuration, including command line overrides, as YAML.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := conf.SaveSettings(settings, out); err != nil {
				return err
			}
			logging.Info("wrote configuration", "path", out)
			return nil
		},
	}

	cmd.Flags().StringVar(&out, "out", "config.yaml", "Destination path for the configuration file")

	return cmd
}
