package config

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/berfenger/fanlight2mqtt/internal/core/domain"

	"go.uber.org/zap/zapcore"
)

const MIN_DEVICE_TIMEOUT_MILLIS = 500

type Config struct {
	LogLevel zapcore.Level
	Device   DeviceConfig        `mapstructure:"device"`
	Entities domain.EntityConfig `mapstructure:"entities"`
	MQTT     MQTTConfig          `mapstructure:"mqtt"`
	Port     uint                `mapstructure:"port"`
	HttpLog  bool                `mapstructure:"http_log"`
}

type DeviceConfig struct {
	Host          string
	Port          uint
	Id            string
	Name          string
	TimeoutMillis uint32 `mapstructure:"timeout_millis"`
}

func (c DeviceConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutMillis) * time.Millisecond
}

type MQTTConfig struct {
	Host             string
	Port             int
	Username         string
	Password         string
	BaseTopic        string `mapstructure:"base_topic"`
	HADiscoveryTopic string `mapstructure:"ha_discovery_topic"`
}

var topicRegexp = regexp.MustCompile("^[a-z0-9_]+$")

func CheckMQTTTopic(baseTopic string) (string, error) {
	// check and fix base topic
	lowerBaseTopic := strings.ToLower(baseTopic)
	if !topicRegexp.MatchString(lowerBaseTopic) {
		return "", errors.New("invalid topic. can only contain letters, numbers and underscores")
	}
	return lowerBaseTopic, nil
}

// Validate checks bounds and normalizes topics and the device id in place.
func (c *Config) Validate() error {

	baseTopic, err := CheckMQTTTopic(c.MQTT.BaseTopic)
	if err != nil {
		return errors.New("invalid base topic. can only contain letters, numbers and underscores")
	}
	c.MQTT.BaseTopic = baseTopic

	hadBaseTopic, err := CheckMQTTTopic(c.MQTT.HADiscoveryTopic)
	if err != nil {
		return errors.New("invalid homeassistant discovery topic. can only contain letters, numbers and underscores")
	}
	c.MQTT.HADiscoveryTopic = hadBaseTopic

	if c.Device.Host == "" {
		return errors.New("config param device.host is required")
	}
	if c.Device.TimeoutMillis < MIN_DEVICE_TIMEOUT_MILLIS {
		return fmt.Errorf("config param device.timeout_millis should be >= %d", MIN_DEVICE_TIMEOUT_MILLIS)
	}
	if c.Device.Id == "" {
		c.Device.Id = c.Device.Host
	}
	deviceId, err := CheckMQTTTopic(strings.NewReplacer(".", "_", "-", "_", ":", "_").Replace(c.Device.Id))
	if err != nil {
		return errors.New("invalid device id. can only contain letters, numbers and underscores")
	}
	c.Device.Id = deviceId

	if err := c.Entities.Validate(); err != nil {
		return fmt.Errorf("config param entities: %w", err)
	}
	return nil
}

func ParseLogLevel(level string) zapcore.Level {
	switch level {
	case "trace", "debug":
		return zapcore.DebugLevel
	case "info":
		return zapcore.InfoLevel
	case "error":
		return zapcore.ErrorLevel
	case "warn":
		return zapcore.WarnLevel
	case "fatal":
		return zapcore.FatalLevel
	}
	return zapcore.InfoLevel
}

// Redacted returns a copy safe to log.
func (c Config) Redacted() Config {
	c.MQTT.Username = "*redacted*"
	c.MQTT.Password = "*redacted*"
	return c
}
