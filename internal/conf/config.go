// Package conf handles loading and validation of the tracker configuration.
package conf

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/cobryan05/Yolo2Mqtt/internal/matcher"
)

//go:embed config.yaml
var configFiles embed.FS

// Settings contains all runtime configuration for the application.
type Settings struct {
	Debug bool // true to enable debug logging

	Main struct {
		Name string // node name, used as MQTT client id base and HA device name
	}

	MQTT          MQTTSettings
	HomeAssistant HomeAssistantSettings
	Tracker       TrackerSettings
	Telemetry     TelemetrySettings

	// Interactions maps an interaction name to its template.
	Interactions map[string]Interaction
}

// MQTTSettings contains the broker connection and topic layout.
type MQTTSettings struct {
	Broker     string // broker URL (tcp://host:port)
	Username   string // MQTT username
	Password   string // MQTT password
	Prefix     string // topic prefix shared with the detection feed
	Events     string // events subtopic under the prefix
	Detections string // detections subtopic under the prefix
}

// HomeAssistantSettings contains the MQTT discovery configuration.
type HomeAssistantSettings struct {
	DiscoveryEnabled bool   // true to publish HA discovery config messages
	DiscoveryPrefix  string // HA discovery topic prefix
	EntityPrefix     string // prefix for generated entity ids
	DeviceName       string // display name for the HA device
}

// TrackerSettings contains the evaluation loop configuration.
type TrackerSettings struct {
	Interval int // seconds between evaluation passes
}

// TelemetrySettings contains settings for the Prometheus endpoint.
type TelemetrySettings struct {
	Enabled bool   // true to enable Prometheus compatible telemetry endpoint
	Listen  string // IP address and port to listen on
}

// Interaction is one configured relationship between co-located labels.
type Interaction struct {
	Slots      [][]string // acceptable labels per slot
	Threshold  float64    // minimum overlap ratio, 0.0-1.0
	MinTime    int        // seconds a match must sustain before publishing
	ExpireTime int        // seconds without a match before the event expires
}

// Templates converts the configured interactions into matcher templates,
// sorted by name for deterministic evaluation order.
func (s *Settings) Templates() []matcher.Template {
	names := make([]string, 0, len(s.Interactions))
	for name := range s.Interactions {
		names = append(names, name)
	}
	sort.Strings(names)

	templates := make([]matcher.Template, 0, len(names))
	for _, name := range names {
		ia := s.Interactions[name]
		templates = append(templates, matcher.Template{
			Name:        name,
			Slots:       ia.Slots,
			Threshold:   ia.Threshold,
			MinSustain:  time.Duration(ia.MinTime) * time.Second,
			ExpireAfter: time.Duration(ia.ExpireTime) * time.Second,
		})
	}
	return templates
}

var settingsMutex sync.Mutex

// Load reads the configuration file and environment variables into a
// Settings struct.
func Load() (*Settings, error) {
	settingsMutex.Lock()
	defer settingsMutex.Unlock()

	settings := &Settings{}

	if err := initViper(); err != nil {
		return nil, fmt.Errorf("error initializing viper: %w", err)
	}

	if err := viper.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("error unmarshaling config into struct: %w", err)
	}

	if err := ValidateSettings(settings); err != nil {
		return nil, fmt.Errorf("error validating settings: %w", err)
	}

	return settings, nil
}

// initViper initializes viper with default values and reads the
// configuration file.
func initViper() error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	configPaths, err := GetDefaultConfigPaths()
	if err != nil {
		return fmt.Errorf("error getting default config paths: %w", err)
	}
	for _, path := range configPaths {
		viper.AddConfigPath(path)
	}

	setDefaultConfig()

	if err := viper.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			// Config file not found, create one with defaults
			return createDefaultConfig()
		}
		return fmt.Errorf("fatal error reading config file: %w", err)
	}

	return nil
}

// GetDefaultConfigPaths returns the directories searched for config.yaml,
// most specific first.
func GetDefaultConfigPaths() ([]string, error) {
	paths := []string{"."}

	home, err := os.UserHomeDir()
	if err == nil {
		paths = append(paths, filepath.Join(home, ".config", "yolo2mqtt"))
	}
	paths = append(paths, "/etc/yolo2mqtt")

	return paths, nil
}

// createDefaultConfig writes the embedded default config file to the first
// default config path and points viper at it.
func createDefaultConfig() error {
	configPaths, err := GetDefaultConfigPaths()
	if err != nil {
		return fmt.Errorf("error getting default config paths: %w", err)
	}
	configPath := filepath.Join(configPaths[0], "config.yaml")

	defaultConfig, err := fs.ReadFile(configFiles, "config.yaml")
	if err != nil {
		return fmt.Errorf("error reading embedded default config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}
	if err := os.WriteFile(configPath, defaultConfig, 0o644); err != nil {
		return fmt.Errorf("error writing default config file: %w", err)
	}

	fmt.Println("Created default config file at:", configPath)
	return viper.ReadInConfig()
}

// SaveSettings writes the current settings as YAML to the given path.
func SaveSettings(settings *Settings, path string) error {
	settingsMutex.Lock()
	defer settingsMutex.Unlock()

	data, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("error marshaling settings to YAML: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("error writing settings to %s: %w", path, err)
	}
	return nil
}
