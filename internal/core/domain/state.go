package domain

import (
	"fmt"

	"github.com/berfenger/fanlight2mqtt/pkg/fanclient"
)

type SwitchState string

const (
	SwitchOn  SwitchState = "on"
	SwitchOff SwitchState = "off"
)

func SwitchFromBool(on bool) SwitchState {
	if on {
		return SwitchOn
	}
	return SwitchOff
}

type Direction string

const (
	DirectionForward Direction = fanclient.DirectionForward
	DirectionReverse Direction = fanclient.DirectionReverse
)

func ParseDirection(value string) (Direction, error) {
	switch Direction(value) {
	case DirectionForward, DirectionReverse:
		return Direction(value), nil
	}
	return "", fmt.Errorf("invalid fan direction %q", value)
}

func (d Direction) Opposite() Direction {
	if d == DirectionReverse {
		return DirectionForward
	}
	return DirectionReverse
}

// LogicalFanState is what the host sees of the fan. Speed is off whenever
// Switch is off, even if the appliance still holds a running speed.
type LogicalFanState struct {
	Switch           SwitchState  `json:"switch"`
	Speed            LogicalSpeed `json:"speed"`
	LastRunningSpeed LogicalSpeed `json:"lastRunningSpeed,omitempty"`
	Direction        Direction    `json:"direction,omitempty"`
}

type LogicalLightState struct {
	Switch      SwitchState `json:"switch"`
	Level       int         `json:"level"`
	PresetLevel int         `json:"presetLevel"`
}

// EntityConfig holds the per-install settings that drive the engine.
type EntityConfig struct {
	FanEnabled             bool `mapstructure:"fan_enabled" json:"fanEnabled"`
	LightEnabled           bool `mapstructure:"light_enabled" json:"lightEnabled"`
	LowSpeedValue          int  `mapstructure:"low_speed_value" json:"lowSpeedValue"`
	TurnOnWithSetSpeed     bool `mapstructure:"turn_on_with_set_speed" json:"turnOnWithSetSpeed"`
	TurnOnWithSetLevel     bool `mapstructure:"turn_on_with_set_level" json:"turnOnWithSetLevel"`
	PollingIntervalSeconds int  `mapstructure:"polling_interval_seconds" json:"pollingIntervalSeconds"`
}

func (c EntityConfig) Enabled(role EntityRole) bool {
	switch role {
	case RoleFan:
		return c.FanEnabled
	case RoleLight:
		return c.LightEnabled
	case RoleDevice:
		return true
	}
	return false
}

func (c EntityConfig) Codec() SpeedCodec {
	return NewSpeedCodec(c.LowSpeedValue)
}

func (c EntityConfig) Validate() error {
	if c.LowSpeedValue != 1 && c.LowSpeedValue != 2 {
		return fmt.Errorf("low speed value must be 1 or 2, got %d", c.LowSpeedValue)
	}
	if c.PollingIntervalSeconds < 0 {
		return fmt.Errorf("polling interval must be >= 0, got %d", c.PollingIntervalSeconds)
	}
	return nil
}
