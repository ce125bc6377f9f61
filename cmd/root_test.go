package cmd

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/cobryan05/Yolo2Mqtt/internal/conf"
	"github.com/cobryan05/Yolo2Mqtt/internal/logging"
)

func testSettings() *conf.Settings {
	s := &conf.Settings{}
	s.Main.Name = "Yolo2Mqtt"
	s.MQTT.Broker = "tcp://localhost:1883"
	s.MQTT.Prefix = "myhome/ObjectTrackers"
	s.Tracker.Interval = 1
	return s
}

// The logging level is process global, so these tests do not run in
// parallel.

func TestDefaultLogLevelIsInfo(t *testing.T) {
	defer logging.SetLevel(slog.LevelInfo)

	settings := testSettings()
	root := RootCommand(settings)
	require.NoError(t, root.PersistentPreRunE(root, nil))
	assert.Equal(t, slog.LevelInfo, logging.CurrentLevel())
}

func TestDebugFlagRaisesLogLevel(t *testing.T) {
	defer logging.SetLevel(slog.LevelInfo)

	settings := testSettings()
	root := RootCommand(settings)
	require.NoError(t, root.PersistentFlags().Parse([]string{"--debug"}))
	require.True(t, settings.Debug)

	require.NoError(t, root.PersistentPreRunE(root, nil))
	assert.Equal(t, slog.LevelDebug, logging.CurrentLevel())
}

func TestConfigCommandWritesEffectiveSettings(t *testing.T) {
	defer logging.SetLevel(slog.LevelInfo)

	out := filepath.Join(t.TempDir(), "config.yaml")
	settings := testSettings()

	// Flag defaults come from viper, as they would from a loaded config.
	viper.Set("mqtt.prefix", "myhome/ObjectTrackers")

	root := RootCommand(settings)
	root.SetArgs([]string{"config", "--out", out, "--broker", "tcp://broker.lan:1883"})
	require.NoError(t, root.Execute())

	data, err := os.ReadFile(out)
	require.NoError(t, err)

	var saved conf.Settings
	require.NoError(t, yaml.Unmarshal(data, &saved))
	// The flag override is part of the saved configuration.
	assert.Equal(t, "tcp://broker.lan:1883", saved.MQTT.Broker)
	assert.Equal(t, "myhome/ObjectTrackers", saved.MQTT.Prefix)
}
