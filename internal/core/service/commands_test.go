package service

import (
	"errors"
	"testing"

	"github.com/berfenger/fanlight2mqtt/internal/core/domain"
	"github.com/berfenger/fanlight2mqtt/pkg/fanclient"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var builder = &CommandBuilder{Logger: zap.Must(zap.NewDevelopment())}


var onFan = domain.EntityCommandMixIn{Role: domain.RoleFan}
var onLight = domain.EntityCommandMixIn{Role: domain.RoleLight}

func TestBuildFanCommands(t *testing.T) {

	assert := assert.New(t)

	body, err := builder.Build(domain.TurnOnCommand{EntityCommandMixIn: onFan}, bothEnabled, nil, nil)
	assert.NoError(err)
	assert.Equal(fanclient.CommandBody{fanclient.KEY_FAN_ON: true}, body)

	body, err = builder.Build(domain.SetSpeedCommand{EntityCommandMixIn: onFan, Speed: domain.SpeedOff}, bothEnabled, nil, nil)
	assert.NoError(err)
	assert.Equal(fanclient.CommandBody{fanclient.KEY_FAN_ON: false}, body)

	body, err = builder.Build(domain.SetSpeedCommand{EntityCommandMixIn: onFan, Speed: domain.SpeedOn}, bothEnabled, nil, nil)
	assert.NoError(err)
	assert.Equal(fanclient.CommandBody{fanclient.KEY_FAN_ON: true}, body)

	body, err = builder.Build(domain.SetSpeedCommand{EntityCommandMixIn: onFan, Speed: domain.SpeedLow}, bothEnabled, nil, nil)
	assert.NoError(err)
	assert.Equal(fanclient.CommandBody{fanclient.KEY_FAN_SPEED: 2}, body)

	cfg := bothEnabled
	cfg.TurnOnWithSetSpeed = true
	body, err = builder.Build(domain.SetSpeedCommand{EntityCommandMixIn: onFan, Speed: domain.SpeedHigh}, cfg, nil, nil)
	assert.NoError(err)
	assert.Equal(fanclient.CommandBody{fanclient.KEY_FAN_SPEED: 6, fanclient.KEY_FAN_ON: true}, body)

	body, err = builder.Build(domain.SetSpeedCommand{EntityCommandMixIn: onFan, Speed: "turbo"}, bothEnabled, nil, nil)
	assert.NoError(err)
	assert.Equal(fanclient.CommandBody{fanclient.KEY_FAN_SPEED: 2}, body, "unknown speed falls back to low value")
}

func TestBuildCycleSpeed(t *testing.T) {

	assert := assert.New(t)

	cycle := domain.CycleSpeedCommand{EntityCommandMixIn: onFan}

	_, err := builder.Build(cycle, bothEnabled, nil, nil)
	assert.ErrorIs(err, ErrUnknownCurrentSpeed)

	running := &domain.LogicalFanState{Switch: domain.SwitchOn, Speed: domain.SpeedMedium, LastRunningSpeed: domain.SpeedMedium}
	body, err := builder.Build(cycle, bothEnabled, running, nil)
	assert.NoError(err)
	assert.Equal(fanclient.CommandBody{fanclient.KEY_FAN_SPEED: 5}, body)

	off := &domain.LogicalFanState{Switch: domain.SwitchOff, Speed: domain.SpeedOff, LastRunningSpeed: domain.SpeedHigh}
	body, err = builder.Build(cycle, bothEnabled, off, nil)
	assert.NoError(err)
	assert.Equal(fanclient.CommandBody{fanclient.KEY_FAN_SPEED: 2}, body, "high wraps to the configured low value")
}

func TestBuildDirection(t *testing.T) {

	assert := assert.New(t)

	toggle := domain.SetDirectionCommand{EntityCommandMixIn: onFan}
	_, err := builder.Build(toggle, bothEnabled, nil, nil)
	assert.ErrorIs(err, ErrUnknownCurrentDirection)

	fan := &domain.LogicalFanState{Switch: domain.SwitchOn, Speed: domain.SpeedLow, Direction: domain.DirectionForward}
	body, err := builder.Build(toggle, bothEnabled, fan, nil)
	assert.NoError(err)
	assert.Equal(fanclient.CommandBody{fanclient.KEY_FAN_DIRECTION: "reverse"}, body)

	explicit := domain.SetDirectionCommand{EntityCommandMixIn: onFan, Direction: domain.DirectionForward}
	body, err = builder.Build(explicit, bothEnabled, fan, nil)
	assert.NoError(err)
	assert.Equal(fanclient.CommandBody{fanclient.KEY_FAN_DIRECTION: "forward"}, body)
}

func TestBuildLightCommands(t *testing.T) {

	assert := assert.New(t)

	body, err := builder.Build(domain.SetLevelCommand{EntityCommandMixIn: onLight, Level: 0}, bothEnabled, nil, nil)
	assert.NoError(err)
	assert.Equal(fanclient.CommandBody{fanclient.KEY_LIGHT_ON: false}, body, "level 0 is an off command")

	offBody, err := builder.Build(domain.TurnOffCommand{EntityCommandMixIn: onLight}, bothEnabled, nil, nil)
	assert.NoError(err)
	assert.Equal(offBody, body)

	body, err = builder.Build(domain.SetLevelCommand{EntityCommandMixIn: onLight, Level: 150}, bothEnabled, nil, nil)
	assert.NoError(err)
	assert.Equal(fanclient.CommandBody{fanclient.KEY_LIGHT_BRIGHTNESS: 100}, body)

	cfg := bothEnabled
	cfg.TurnOnWithSetLevel = true
	body, err = builder.Build(domain.SetLevelCommand{EntityCommandMixIn: onLight, Level: 35}, cfg, nil, nil)
	assert.NoError(err)
	assert.Equal(fanclient.CommandBody{fanclient.KEY_LIGHT_BRIGHTNESS: 35, fanclient.KEY_LIGHT_ON: true}, body)

	preset := &domain.LogicalLightState{Switch: domain.SwitchOff, Level: 60, PresetLevel: 60}
	body, err = builder.Build(domain.TurnOnCommand{EntityCommandMixIn: onLight}, bothEnabled, nil, preset)
	assert.NoError(err)
	assert.Equal(fanclient.CommandBody{fanclient.KEY_LIGHT_ON: true, fanclient.KEY_LIGHT_BRIGHTNESS: 60}, body)
}

func TestBuildRejectsUnknownEntities(t *testing.T) {

	assert := assert.New(t)

	lightOnly := domain.EntityConfig{LightEnabled: true, LowSpeedValue: 1}
	_, err := builder.Build(domain.TurnOnCommand{EntityCommandMixIn: onFan}, lightOnly, nil, nil)
	var unknown *domain.UnknownChildEntityError
	assert.True(errors.As(err, &unknown))

	_, err = builder.Build(domain.SetLevelCommand{EntityCommandMixIn: onFan, Level: 10}, bothEnabled, nil, nil)
	assert.ErrorIs(err, domain.ErrInvalidCommand)

	_, err = builder.Build(domain.CycleSpeedCommand{EntityCommandMixIn: onLight}, bothEnabled, nil, nil)
	assert.ErrorIs(err, domain.ErrInvalidCommand)
}

func TestBuildDeviceCommands(t *testing.T) {

	body, err := builder.Build(domain.RebootCommand{}, bothEnabled, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, fanclient.RebootCommand(), body)

	body, err = builder.Build(domain.RefreshCommand{EntityCommandMixIn: onLight}, bothEnabled, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, fanclient.QueryCommand(), body)
}
