package domain

import "fmt"

// LogicalSpeed is the host-facing fan speed vocabulary.
type LogicalSpeed string

const (
	SpeedOff        LogicalSpeed = "off"
	SpeedLow        LogicalSpeed = "low"
	SpeedMediumLow  LogicalSpeed = "medium-low"
	SpeedMedium     LogicalSpeed = "medium"
	SpeedMediumHigh LogicalSpeed = "medium-high"
	SpeedHigh       LogicalSpeed = "high"

	// SpeedOn is only valid as a command argument, never as a state.
	SpeedOn LogicalSpeed = "on"

	MAX_PHYSICAL_SPEED = 6
)

var RunningSpeeds = []LogicalSpeed{SpeedLow, SpeedMediumLow, SpeedMedium, SpeedMediumHigh, SpeedHigh}

func (s LogicalSpeed) IsRunning() bool {
	switch s {
	case SpeedLow, SpeedMediumLow, SpeedMedium, SpeedMediumHigh, SpeedHigh:
		return true
	}
	return false
}

// ParseLogicalSpeed accepts every state speed plus the "on" command word.
func ParseLogicalSpeed(value string) (LogicalSpeed, error) {
	s := LogicalSpeed(value)
	if s == SpeedOff || s == SpeedOn || s.IsRunning() {
		return s, nil
	}
	return "", &InvalidSpeedError{Logical: value}
}

type InvalidSpeedError struct {
	Physical *int
	Logical  string
}

func (e *InvalidSpeedError) Error() string {
	if e.Physical != nil {
		return fmt.Sprintf("invalid physical fan speed %d", *e.Physical)
	}
	return fmt.Sprintf("invalid fan speed %q", e.Logical)
}

// SpeedCodec translates between the appliance's 0-6 speeds and LogicalSpeed.
// Physical speeds 1 and 2 both decode to low; LowValue picks which one low
// encodes to.
type SpeedCodec struct {
	LowValue int
}

func NewSpeedCodec(lowValue int) SpeedCodec {
	if lowValue != 2 {
		lowValue = 1
	}
	return SpeedCodec{LowValue: lowValue}
}

// ToLogical decodes a physical speed. nil and 0 are off.
func ToLogical(physical *int) (LogicalSpeed, error) {
	if physical == nil {
		return SpeedOff, nil
	}
	switch *physical {
	case 0:
		return SpeedOff, nil
	case 1, 2:
		return SpeedLow, nil
	case 3:
		return SpeedMediumLow, nil
	case 4:
		return SpeedMedium, nil
	case 5:
		return SpeedMediumHigh, nil
	case 6:
		return SpeedHigh, nil
	}
	v := *physical
	return "", &InvalidSpeedError{Physical: &v}
}

func (c SpeedCodec) ToPhysical(speed LogicalSpeed) (int, error) {
	switch speed {
	case SpeedOff:
		return 0, nil
	case SpeedLow:
		return c.LowValue, nil
	case SpeedMediumLow:
		return 3, nil
	case SpeedMedium:
		return 4, nil
	case SpeedMediumHigh:
		return 5, nil
	case SpeedHigh:
		return 6, nil
	}
	return 0, &InvalidSpeedError{Logical: string(speed)}
}

// NextCycle returns the physical speed following current, wrapping high to low.
func (c SpeedCodec) NextCycle(current LogicalSpeed) (int, error) {
	switch current {
	case SpeedLow:
		return 3, nil
	case SpeedMediumLow:
		return 4, nil
	case SpeedMedium:
		return 5, nil
	case SpeedMediumHigh:
		return 6, nil
	case SpeedHigh:
		return c.LowValue, nil
	}
	return 0, &InvalidSpeedError{Logical: string(current)}
}
