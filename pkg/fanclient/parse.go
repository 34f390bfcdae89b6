package fanclient

import (
	"math"
)

// ParseState extracts a PhysicalState from the appliance response.
func ParseState(resp Response) (*PhysicalState, error) {
	if resp == nil {
		return nil, &MalformedResponseError{Reason: "empty response"}
	}
	lightOn, err := boolField(resp, KEY_LIGHT_ON)
	if err != nil {
		return nil, err
	}
	brightness, err := intField(resp, KEY_LIGHT_BRIGHTNESS)
	if err != nil {
		return nil, err
	}
	if brightness < 0 || brightness > 100 {
		return nil, &MalformedResponseError{Field: KEY_LIGHT_BRIGHTNESS, Reason: "out of range 0-100"}
	}
	fanOn, err := boolField(resp, KEY_FAN_ON)
	if err != nil {
		return nil, err
	}
	// a null speed is legal, range checking belongs to the speed codec
	var fanSpeed *int
	raw, ok := resp[KEY_FAN_SPEED]
	if !ok {
		return nil, &MalformedResponseError{Field: KEY_FAN_SPEED, Reason: "missing"}
	}
	if raw != nil {
		speed, err := intField(resp, KEY_FAN_SPEED)
		if err != nil {
			return nil, err
		}
		fanSpeed = &speed
	}
	direction, ok := resp[KEY_FAN_DIRECTION].(string)
	if !ok {
		return nil, &MalformedResponseError{Field: KEY_FAN_DIRECTION, Reason: "missing or not a string"}
	}
	if direction != DirectionForward && direction != DirectionReverse {
		return nil, &MalformedResponseError{Field: KEY_FAN_DIRECTION, Reason: "unknown direction " + direction}
	}
	return &PhysicalState{
		LightOn:         lightOn,
		LightBrightness: brightness,
		FanOn:           fanOn,
		FanSpeed:        fanSpeed,
		FanDirection:    direction,
	}, nil
}

func boolField(resp Response, key string) (bool, error) {
	v, ok := resp[key].(bool)
	if !ok {
		return false, &MalformedResponseError{Field: key, Reason: "missing or not a boolean"}
	}
	return v, nil
}

func intField(resp Response, key string) (int, error) {
	switch v := resp[key].(type) {
	case float64:
		if v != math.Trunc(v) {
			return 0, &MalformedResponseError{Field: key, Reason: "not an integer"}
		}
		return int(v), nil
	case int:
		return v, nil
	default:
		return 0, &MalformedResponseError{Field: key, Reason: "missing or not a number"}
	}
}
