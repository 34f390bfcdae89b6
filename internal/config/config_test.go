package config

import (
	"testing"

	"github.com/berfenger/fanlight2mqtt/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zapcore"
)

func validConfig() Config {
	return Config{
		Device: DeviceConfig{
			Host:          "192.168.1.40",
			Port:          80,
			TimeoutMillis: 3000,
		},
		Entities: domain.EntityConfig{FanEnabled: true, LightEnabled: true, LowSpeedValue: 1},
		MQTT: MQTTConfig{
			BaseTopic:        "FanBridge",
			HADiscoveryTopic: "homeassistant",
		},
	}
}

func TestValidate(t *testing.T) {

	assert := assert.New(t)

	cfg := validConfig()
	assert.NoError(cfg.Validate())
	assert.Equal("fanbridge", cfg.MQTT.BaseTopic)
	assert.Equal("192_168_1_40", cfg.Device.Id)

	cfg = validConfig()
	cfg.MQTT.BaseTopic = "fan/bridge"
	assert.Error(cfg.Validate())

	cfg = validConfig()
	cfg.Device.Host = ""
	assert.Error(cfg.Validate())

	cfg = validConfig()
	cfg.Device.TimeoutMillis = 100
	assert.Error(cfg.Validate())

	cfg = validConfig()
	cfg.Entities.LowSpeedValue = 3
	assert.Error(cfg.Validate())

	cfg = validConfig()
	cfg.Entities.PollingIntervalSeconds = -1
	assert.Error(cfg.Validate())
}

func TestCheckMQTTTopic(t *testing.T) {

	topic, err := CheckMQTTTopic("Living_Room_2")
	assert.NoError(t, err)
	assert.Equal(t, "living_room_2", topic)

	_, err = CheckMQTTTopic("")
	assert.Error(t, err)

	_, err = CheckMQTTTopic("a+b")
	assert.Error(t, err)
}

func TestParseLogLevelAndRedact(t *testing.T) {

	assert.Equal(t, zapcore.WarnLevel, ParseLogLevel("warn"))
	assert.Equal(t, zapcore.DebugLevel, ParseLogLevel("trace"))
	assert.Equal(t, zapcore.InfoLevel, ParseLogLevel("bogus"))

	cfg := validConfig()
	cfg.MQTT.Password = "secret"
	assert.Equal(t, "*redacted*", cfg.Redacted().MQTT.Password)
	assert.Equal(t, "secret", cfg.MQTT.Password)
}
