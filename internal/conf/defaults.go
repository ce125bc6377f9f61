package conf

import "github.com/spf13/viper"

// setDefaultConfig sets viper defaults for every configuration parameter.
func setDefaultConfig() {
	viper.SetDefault("debug", false)

	viper.SetDefault("main.name", "Yolo2Mqtt")

	viper.SetDefault("mqtt.broker", "tcp://localhost:1883")
	viper.SetDefault("mqtt.username", "")
	viper.SetDefault("mqtt.password", "")
	viper.SetDefault("mqtt.prefix", "myhome/ObjectTrackers")
	viper.SetDefault("mqtt.events", "events")
	viper.SetDefault("mqtt.detections", "detections")

	viper.SetDefault("homeassistant.discoveryenabled", false)
	viper.SetDefault("homeassistant.discoveryprefix", "homeassistant")
	viper.SetDefault("homeassistant.entityprefix", "Tracker")
	viper.SetDefault("homeassistant.devicename", "Yolo2Mqtt")

	viper.SetDefault("tracker.interval", 1)

	viper.SetDefault("telemetry.enabled", false)
	viper.SetDefault("telemetry.listen", "0.0.0.0:8090")
}
