package service

import (
	"errors"
	"fmt"

	"github.com/berfenger/fanlight2mqtt/internal/core/domain"
	"github.com/berfenger/fanlight2mqtt/pkg/fanclient"

	"go.uber.org/zap"
)

var (
	ErrUnknownCurrentSpeed     = errors.New("current fan speed is unknown")
	ErrUnknownCurrentDirection = errors.New("current fan direction is unknown")
)

type CommandBuilder struct {
	Logger *zap.Logger
}

// Build turns an entity command into the appliance command body. fan and
// light are the cached logical states, used by cycle, toggle and preset level.
func (b *CommandBuilder) Build(cmd domain.EntityCommand, cfg domain.EntityConfig,
	fan *domain.LogicalFanState, light *domain.LogicalLightState) (fanclient.CommandBody, error) {

	role := cmd.TargetRole()
	if !cfg.Enabled(role) {
		return nil, &domain.UnknownChildEntityError{Role: role.String(), Reason: "entity is not enabled"}
	}
	if _, ok := cmd.(domain.RefreshCommand); ok {
		return fanclient.QueryCommand(), nil
	}

	switch role {
	case domain.RoleFan:
		return b.fanCommand(cmd, cfg, fan)
	case domain.RoleLight:
		return b.lightCommand(cmd, cfg, light)
	case domain.RoleDevice:
		if _, ok := cmd.(domain.RebootCommand); ok {
			return fanclient.RebootCommand(), nil
		}
	default:
		return nil, &domain.UnknownChildEntityError{Role: role.String()}
	}
	return nil, unsupported(cmd)
}

func (b *CommandBuilder) fanCommand(cmd domain.EntityCommand, cfg domain.EntityConfig, fan *domain.LogicalFanState) (fanclient.CommandBody, error) {
	codec := cfg.Codec()
	switch c := cmd.(type) {
	case domain.TurnOnCommand:
		return fanclient.CommandBody{fanclient.KEY_FAN_ON: true}, nil
	case domain.TurnOffCommand:
		return fanclient.CommandBody{fanclient.KEY_FAN_ON: false}, nil
	case domain.SetSpeedCommand:
		switch c.Speed {
		case domain.SpeedOff:
			return fanclient.CommandBody{fanclient.KEY_FAN_ON: false}, nil
		case domain.SpeedOn:
			return fanclient.CommandBody{fanclient.KEY_FAN_ON: true}, nil
		}
		physical, err := codec.ToPhysical(c.Speed)
		if err != nil {
			b.Logger.Warn("commands: falling back to low speed", zap.Error(err))
			physical = codec.LowValue
		}
		return b.speedBody(physical, cfg), nil
	case domain.CycleSpeedCommand:
		var current domain.LogicalSpeed
		if fan != nil {
			current = fan.LastRunningSpeed
			if fan.Speed.IsRunning() {
				current = fan.Speed
			}
		}
		if !current.IsRunning() {
			return nil, ErrUnknownCurrentSpeed
		}
		next, err := codec.NextCycle(current)
		if err != nil {
			return nil, err
		}
		return b.speedBody(next, cfg), nil
	case domain.SetDirectionCommand:
		direction := c.Direction
		if direction == "" {
			if fan == nil || fan.Direction == "" {
				return nil, ErrUnknownCurrentDirection
			}
			direction = fan.Direction.Opposite()
		}
		return fanclient.DirectionCommand(string(direction)), nil
	}
	return nil, unsupported(cmd)
}

func (b *CommandBuilder) speedBody(physical int, cfg domain.EntityConfig) fanclient.CommandBody {
	body := fanclient.CommandBody{fanclient.KEY_FAN_SPEED: physical}
	if cfg.TurnOnWithSetSpeed {
		body[fanclient.KEY_FAN_ON] = true
	}
	return body
}

func (b *CommandBuilder) lightCommand(cmd domain.EntityCommand, cfg domain.EntityConfig, light *domain.LogicalLightState) (fanclient.CommandBody, error) {
	switch c := cmd.(type) {
	case domain.TurnOnCommand:
		body := fanclient.CommandBody{fanclient.KEY_LIGHT_ON: true}
		if light != nil && light.PresetLevel > 0 {
			body[fanclient.KEY_LIGHT_BRIGHTNESS] = light.PresetLevel
		}
		return body, nil
	case domain.TurnOffCommand:
		return fanclient.CommandBody{fanclient.KEY_LIGHT_ON: false}, nil
	case domain.SetLevelCommand:
		level := min(max(c.Level, 0), 100)
		if level == 0 {
			return fanclient.CommandBody{fanclient.KEY_LIGHT_ON: false}, nil
		}
		body := fanclient.CommandBody{fanclient.KEY_LIGHT_BRIGHTNESS: level}
		if cfg.TurnOnWithSetLevel {
			body[fanclient.KEY_LIGHT_ON] = true
		}
		return body, nil
	}
	return nil, unsupported(cmd)
}

func unsupported(cmd domain.EntityCommand) error {
	return fmt.Errorf("%w: %s does not accept %q", domain.ErrInvalidCommand, cmd.TargetRole(), cmd.CommandName())
}
