package port

import (
	"errors"

	"github.com/berfenger/fanlight2mqtt/internal/core/domain"
)

var ErrEntityNotFound = errors.New("child entity not found")

// Entity is a host-managed child entity. CurrentValue returns the last value
// sent for an attribute, which is the only memory used for change suppression.
type Entity interface {
	Key() domain.ChildEntityKey
	SendAttributeEvent(event domain.AttributeEvent) error
	CurrentValue(name string) (any, bool)
}

type Host interface {
	CreateChildEntity(role domain.EntityRole) (Entity, error)
	// DeleteChildEntity returns ErrEntityNotFound when no such entity exists.
	DeleteChildEntity(role domain.EntityRole) error
	GetChildEntity(role domain.EntityRole) (Entity, bool)
}
