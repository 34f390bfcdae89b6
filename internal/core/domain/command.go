package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const (
	CMD_ON        = "on"
	CMD_OFF       = "off"
	CMD_SWITCH    = "switch"
	CMD_SPEED     = "speed"
	CMD_LEVEL     = "level"
	CMD_CYCLE     = "cycle"
	CMD_DIRECTION = "direction"
	CMD_REFRESH   = "refresh"
	CMD_REBOOT    = "reboot"
)

var ErrInvalidCommand = errors.New("invalid command")

// EntityCommand

type EntityCommand interface {
	ActorRequest
	TargetRole() EntityRole
	CommandName() string
}

type EntityCommandMixIn struct {
	ActorRequestMixIn
	Role EntityRole
}

func (c EntityCommandMixIn) TargetRole() EntityRole {
	return c.Role
}

type EntityCommandResponse struct {
	ActorResponseMixIn
	Command string
}

// Entity commands

type TurnOnCommand struct {
	EntityCommandMixIn
}

func (TurnOnCommand) CommandName() string { return CMD_ON }

type TurnOffCommand struct {
	EntityCommandMixIn
}

func (TurnOffCommand) CommandName() string { return CMD_OFF }

type SetSpeedCommand struct {
	EntityCommandMixIn
	Speed LogicalSpeed
}

func (SetSpeedCommand) CommandName() string { return CMD_SPEED }

type SetLevelCommand struct {
	EntityCommandMixIn
	Level int
}

func (SetLevelCommand) CommandName() string { return CMD_LEVEL }

type CycleSpeedCommand struct {
	EntityCommandMixIn
}

func (CycleSpeedCommand) CommandName() string { return CMD_CYCLE }

// SetDirectionCommand flips the current direction when Direction is empty.
type SetDirectionCommand struct {
	EntityCommandMixIn
	Direction Direction
}

func (SetDirectionCommand) CommandName() string { return CMD_DIRECTION }

type RefreshCommand struct {
	EntityCommandMixIn
}

func (RefreshCommand) CommandName() string { return CMD_REFRESH }

type RebootCommand struct {
	EntityCommandMixIn
}

func (RebootCommand) CommandName() string { return CMD_REBOOT }

// ParseEntityCommand builds a command from the textual form used by the MQTT
// command topics and the REST API.
func ParseEntityCommand(role, command, payload string) (EntityCommand, error) {
	r, err := ParseEntityRole(role)
	if err != nil {
		return nil, err
	}
	mixIn := EntityCommandMixIn{Role: r}
	payload = strings.ToLower(strings.TrimSpace(payload))

	switch command {
	case CMD_ON:
		return TurnOnCommand{EntityCommandMixIn: mixIn}, nil
	case CMD_OFF:
		return TurnOffCommand{EntityCommandMixIn: mixIn}, nil
	case CMD_SWITCH:
		switch payload {
		case "on":
			return TurnOnCommand{EntityCommandMixIn: mixIn}, nil
		case "off":
			return TurnOffCommand{EntityCommandMixIn: mixIn}, nil
		}
		return nil, fmt.Errorf("%w: switch payload %q", ErrInvalidCommand, payload)
	case CMD_SPEED:
		speed, err := ParseLogicalSpeed(payload)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidCommand, err)
		}
		return SetSpeedCommand{EntityCommandMixIn: mixIn, Speed: speed}, nil
	case CMD_LEVEL:
		level, err := strconv.Atoi(payload)
		if err != nil {
			return nil, fmt.Errorf("%w: level %q", ErrInvalidCommand, payload)
		}
		return SetLevelCommand{EntityCommandMixIn: mixIn, Level: level}, nil
	case CMD_CYCLE:
		return CycleSpeedCommand{EntityCommandMixIn: mixIn}, nil
	case CMD_DIRECTION:
		if payload == "" || payload == "toggle" {
			return SetDirectionCommand{EntityCommandMixIn: mixIn}, nil
		}
		dir, err := ParseDirection(payload)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidCommand, err)
		}
		return SetDirectionCommand{EntityCommandMixIn: mixIn, Direction: dir}, nil
	case CMD_REFRESH:
		return RefreshCommand{EntityCommandMixIn: mixIn}, nil
	case CMD_REBOOT:
		return RebootCommand{EntityCommandMixIn: mixIn}, nil
	}
	return nil, fmt.Errorf("%w: unknown command %q", ErrInvalidCommand, command)
}

// ensure interface compliance
var _ EntityCommand = (*SetSpeedCommand)(nil)
