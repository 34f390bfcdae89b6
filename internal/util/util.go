package util

import (
	"github.com/berfenger/fanlight2mqtt/internal/config"
	"github.com/berfenger/fanlight2mqtt/internal/core/domain"

	"go.uber.org/zap"
)

func LoadTestConfig() config.Config {
	return config.Config{
		LogLevel: zap.DebugLevel,
		Device: config.DeviceConfig{
			Host:          "-.-.-.-",
			Port:          80,
			Id:            "test_fan",
			Name:          "Test Fan",
			TimeoutMillis: 1000,
		},
		Entities: domain.EntityConfig{
			FanEnabled:             true,
			LightEnabled:           true,
			LowSpeedValue:          1,
			PollingIntervalSeconds: 0,
		},
		MQTT: config.MQTTConfig{
			Host:             "localhost",
			Port:             1883,
			BaseTopic:        "fanbridge",
			HADiscoveryTopic: "homeassistant",
		},
		Port: 8080,
	}
}
