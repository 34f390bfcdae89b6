package util

import (
	"sync"

	"github.com/berfenger/fanlight2mqtt/internal/core/domain"
	"github.com/berfenger/fanlight2mqtt/internal/core/port"
)

// MemoryHost is an in-memory port.Host that records every call.
type MemoryHost struct {
	mu       sync.Mutex
	parentId string
	entities map[domain.EntityRole]*MemoryEntity
	created  []domain.EntityRole
	deleted  []domain.EntityRole
}

type MemoryEntity struct {
	mu       sync.Mutex
	key      domain.ChildEntityKey
	values   map[string]any
	events   []domain.AttributeEvent
	failures []error
}

func NewMemoryHost(parentId string) *MemoryHost {
	return &MemoryHost{
		parentId: parentId,
		entities: map[domain.EntityRole]*MemoryEntity{},
	}
}

func (h *MemoryHost) CreateChildEntity(role domain.EntityRole) (port.Entity, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if e, ok := h.entities[role]; ok {
		return e, nil
	}
	e := &MemoryEntity{
		key:    domain.ChildEntityKey{ParentId: h.parentId, Role: role},
		values: map[string]any{},
	}
	h.entities[role] = e
	h.created = append(h.created, role)
	return e, nil
}

func (h *MemoryHost) DeleteChildEntity(role domain.EntityRole) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.entities[role]; !ok {
		return port.ErrEntityNotFound
	}
	delete(h.entities, role)
	h.deleted = append(h.deleted, role)
	return nil
}

func (h *MemoryHost) GetChildEntity(role domain.EntityRole) (port.Entity, bool) {
	e, ok := h.Entity(role)
	if !ok {
		return nil, false
	}
	return e, true
}

// Entity returns the concrete entity for inspection in tests.
func (h *MemoryHost) Entity(role domain.EntityRole) (*MemoryEntity, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	e, ok := h.entities[role]
	return e, ok
}

func (h *MemoryHost) Created() []domain.EntityRole {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]domain.EntityRole(nil), h.created...)
}

func (h *MemoryHost) Deleted() []domain.EntityRole {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]domain.EntityRole(nil), h.deleted...)
}

func (e *MemoryEntity) Key() domain.ChildEntityKey {
	return e.key
}

func (e *MemoryEntity) SendAttributeEvent(event domain.AttributeEvent) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.failures) > 0 {
		err := e.failures[0]
		e.failures = e.failures[1:]
		return err
	}
	e.values[event.Name] = event.Value
	e.events = append(e.events, event)
	return nil
}

// FailNext makes the next events fail with errs, one per event. Failed events
// are neither cached nor recorded.
func (e *MemoryEntity) FailNext(errs ...error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.failures = append(e.failures, errs...)
}

func (e *MemoryEntity) CurrentValue(name string) (any, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	v, ok := e.values[name]
	return v, ok
}

func (e *MemoryEntity) Events() []domain.AttributeEvent {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]domain.AttributeEvent(nil), e.events...)
}

// EventNames lists the attribute names sent so far, in order.
func (e *MemoryEntity) EventNames() []string {
	var names []string
	for _, ev := range e.Events() {
		names = append(names, ev.Name)
	}
	return names
}

func (e *MemoryEntity) ResetEvents() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = nil
}

// ensure interface compliance
var _ port.Host = (*MemoryHost)(nil)
