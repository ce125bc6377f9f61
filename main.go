package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/cobryan05/Yolo2Mqtt/cmd"
	"github.com/cobryan05/Yolo2Mqtt/internal/conf"
	"github.com/cobryan05/Yolo2Mqtt/internal/logging"
)

func main() {
	settings, err := conf.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error loading configuration: %v\n", err)
		os.Exit(1)
	}

	// The level is raised to debug by the root command once flags are
	// parsed, so --debug and the config file both take effect.
	logging.Init(slog.LevelInfo)

	rootCmd := cmd.RootCommand(settings)
	if err := rootCmd.Execute(); err != nil {
		logging.HumanReadable().Error("command failed", "error", err)
		os.Exit(1)
	}
}
