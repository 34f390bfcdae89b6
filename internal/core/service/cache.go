package service

import (
	"fmt"
	"strconv"

	"github.com/berfenger/fanlight2mqtt/internal/core/domain"
	"github.com/berfenger/fanlight2mqtt/internal/core/port"
)

// CachedStates reads the previous logical states back from the child
// entities. A nil state means the entity is absent or has never been updated.
func CachedStates(host port.Host) (*domain.LogicalFanState, *domain.LogicalLightState) {
	var fan *domain.LogicalFanState
	var light *domain.LogicalLightState
	if e, ok := host.GetChildEntity(domain.RoleFan); ok {
		fan = FanStateFromEntity(e)
	}
	if e, ok := host.GetChildEntity(domain.RoleLight); ok {
		light = LightStateFromEntity(e)
	}
	return fan, light
}

func FanStateFromEntity(e port.Entity) *domain.LogicalFanState {
	sw, ok := stringValue(e, domain.ATTR_SWITCH)
	if !ok {
		return nil
	}
	state := &domain.LogicalFanState{Switch: domain.SwitchState(sw)}
	if v, ok := stringValue(e, domain.ATTR_SPEED); ok {
		state.Speed = domain.LogicalSpeed(v)
	}
	if v, ok := stringValue(e, domain.ATTR_LAST_RUNNING_SPEED); ok {
		state.LastRunningSpeed = domain.LogicalSpeed(v)
	}
	if v, ok := stringValue(e, domain.ATTR_DIRECTION); ok {
		state.Direction = domain.Direction(v)
	}
	return state
}

func LightStateFromEntity(e port.Entity) *domain.LogicalLightState {
	sw, ok := stringValue(e, domain.ATTR_SWITCH)
	if !ok {
		return nil
	}
	state := &domain.LogicalLightState{Switch: domain.SwitchState(sw)}
	if v, ok := intValue(e, domain.ATTR_LEVEL); ok {
		state.Level = v
	}
	if v, ok := intValue(e, domain.ATTR_PRESET_LEVEL); ok {
		state.PresetLevel = v
	}
	return state
}

func stringValue(e port.Entity, name string) (string, bool) {
	v, ok := e.CurrentValue(name)
	if !ok || v == nil {
		return "", false
	}
	switch s := v.(type) {
	case string:
		return s, true
	case fmt.Stringer:
		return s.String(), true
	}
	return fmt.Sprint(v), true
}

func intValue(e port.Entity, name string) (int, bool) {
	v, ok := e.CurrentValue(name)
	if !ok || v == nil {
		return 0, false
	}
	switch n := v.(type) {
	case int:
		return n, true
	case float64:
		return int(n), true
	case string:
		i, err := strconv.Atoi(n)
		return i, err == nil
	}
	return 0, false
}
