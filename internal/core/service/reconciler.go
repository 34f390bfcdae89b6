package service

import (
	"fmt"

	"github.com/berfenger/fanlight2mqtt/internal/core/domain"
	"github.com/berfenger/fanlight2mqtt/pkg/fanclient"

	"go.uber.org/zap"
)

// FanDelta holds the fan attributes to emit. nil fields are unchanged.
type FanDelta struct {
	Switch           *domain.SwitchState
	Speed            *domain.LogicalSpeed
	LastRunningSpeed *domain.LogicalSpeed
	Direction        *domain.Direction
}

type LightDelta struct {
	Switch      *domain.SwitchState
	Level       *int
	PresetLevel *int
}

type StateReconciler struct {
	Logger *zap.Logger
}

// Reconcile computes the attribute changes that bring the cached entity
// state in line with a new appliance snapshot. A powered-off fan always
// reports speed off, while lastRunningSpeed tracks the retained physical speed.
func (r *StateReconciler) Reconcile(prevFan *domain.LogicalFanState, prevLight *domain.LogicalLightState,
	physical fanclient.PhysicalState, cfg domain.EntityConfig) (FanDelta, LightDelta) {

	var fan FanDelta
	var light LightDelta

	if cfg.FanEnabled {
		decoded, err := domain.ToLogical(physical.FanSpeed)
		if err != nil {
			// unknown speeds are treated as off
			r.Logger.Warn("reconciler: could not decode fan speed", zap.Error(err))
			decoded = domain.SpeedOff
		}

		if decoded.IsRunning() {
			fan.LastRunningSpeed = &decoded
		}

		effective := domain.SpeedOff
		if physical.FanOn {
			effective = decoded
		}
		switchState := domain.SwitchFromBool(physical.FanOn)

		if prevFan == nil || prevFan.Switch != switchState {
			fan.Switch = &switchState
		}
		if prevFan == nil || prevFan.Speed != effective {
			fan.Speed = &effective
		}
		direction := domain.Direction(physical.FanDirection)
		fan.Direction = &direction
	}

	if cfg.LightEnabled {
		switchState := domain.SwitchFromBool(physical.LightOn)
		if prevLight == nil || prevLight.Switch != switchState {
			light.Switch = &switchState
		}
		if prevLight == nil || prevLight.Level != physical.LightBrightness {
			level := physical.LightBrightness
			preset := physical.LightBrightness
			light.Level = &level
			light.PresetLevel = &preset
		}
	}

	return fan, light
}

// Apply returns prev with the delta applied.
func (d FanDelta) Apply(prev *domain.LogicalFanState) domain.LogicalFanState {
	var next domain.LogicalFanState
	if prev != nil {
		next = *prev
	}
	if d.Switch != nil {
		next.Switch = *d.Switch
	}
	if d.Speed != nil {
		next.Speed = *d.Speed
	}
	if d.LastRunningSpeed != nil {
		next.LastRunningSpeed = *d.LastRunningSpeed
	}
	if d.Direction != nil {
		next.Direction = *d.Direction
	}
	return next
}

func (d LightDelta) Apply(prev *domain.LogicalLightState) domain.LogicalLightState {
	var next domain.LogicalLightState
	if prev != nil {
		next = *prev
	}
	if d.Switch != nil {
		next.Switch = *d.Switch
	}
	if d.Level != nil {
		next.Level = *d.Level
	}
	if d.PresetLevel != nil {
		next.PresetLevel = *d.PresetLevel
	}
	return next
}

func (d FanDelta) Events() []domain.AttributeEvent {
	var events []domain.AttributeEvent
	if d.Switch != nil {
		events = append(events, domain.AttributeEvent{
			Name:        domain.ATTR_SWITCH,
			Value:       string(*d.Switch),
			Description: fmt.Sprintf("Fan is %s", *d.Switch),
		})
	}
	if d.Speed != nil {
		events = append(events, domain.AttributeEvent{
			Name:        domain.ATTR_SPEED,
			Value:       string(*d.Speed),
			Description: fmt.Sprintf("Fan speed is %s", *d.Speed),
		})
	}
	if d.LastRunningSpeed != nil {
		events = append(events, domain.AttributeEvent{
			Name:  domain.ATTR_LAST_RUNNING_SPEED,
			Value: string(*d.LastRunningSpeed),
		})
	}
	if d.Direction != nil {
		events = append(events, domain.AttributeEvent{
			Name:        domain.ATTR_DIRECTION,
			Value:       string(*d.Direction),
			Description: fmt.Sprintf("Fan direction is %s", *d.Direction),
		})
	}
	return events
}

func (d LightDelta) Events() []domain.AttributeEvent {
	var events []domain.AttributeEvent
	if d.Switch != nil {
		events = append(events, domain.AttributeEvent{
			Name:        domain.ATTR_SWITCH,
			Value:       string(*d.Switch),
			Description: fmt.Sprintf("Light is %s", *d.Switch),
		})
	}
	if d.Level != nil {
		events = append(events, domain.AttributeEvent{
			Name:        domain.ATTR_LEVEL,
			Value:       *d.Level,
			Description: fmt.Sprintf("Light level is %d%%", *d.Level),
			Unit:        "%",
		})
	}
	if d.PresetLevel != nil {
		events = append(events, domain.AttributeEvent{
			Name:  domain.ATTR_PRESET_LEVEL,
			Value: *d.PresetLevel,
			Unit:  "%",
		})
	}
	return events
}
