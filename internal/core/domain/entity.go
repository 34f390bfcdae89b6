package domain

import "fmt"

// EntityRole tags a child entity. RoleDevice addresses the parent appliance.
type EntityRole int

const (
	RoleDevice EntityRole = iota
	RoleFan
	RoleLight
)

const (
	ATTR_SWITCH             = "switch"
	ATTR_SPEED              = "speed"
	ATTR_LAST_RUNNING_SPEED = "lastRunningSpeed"
	ATTR_DIRECTION          = "direction"
	ATTR_LEVEL              = "level"
	ATTR_PRESET_LEVEL       = "presetLevel"
)

var ChildRoles = []EntityRole{RoleFan, RoleLight}

func (r EntityRole) String() string {
	switch r {
	case RoleDevice:
		return "device"
	case RoleFan:
		return "fan"
	case RoleLight:
		return "light"
	}
	return fmt.Sprintf("role(%d)", int(r))
}

func ParseEntityRole(value string) (EntityRole, error) {
	switch value {
	case "device":
		return RoleDevice, nil
	case "fan":
		return RoleFan, nil
	case "light":
		return RoleLight, nil
	}
	return 0, &UnknownChildEntityError{Role: value}
}

// ChildEntityKey is the stable identity of a child entity.
type ChildEntityKey struct {
	ParentId string
	Role     EntityRole
}

func (k ChildEntityKey) String() string {
	return fmt.Sprintf("%s-%s", k.ParentId, k.Role)
}

type AttributeEvent struct {
	Name        string
	Value       any
	Description string
	Unit        string
}

type UnknownChildEntityError struct {
	Role   string
	Reason string
}

func (e *UnknownChildEntityError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("unknown child entity %q: %s", e.Role, e.Reason)
	}
	return fmt.Sprintf("unknown child entity %q", e.Role)
}
