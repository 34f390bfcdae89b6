package mqtt

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/berfenger/fanlight2mqtt/internal/core/domain"
	"github.com/berfenger/fanlight2mqtt/internal/core/port"

	"go.uber.org/zap"
)

// bounds how long a stalled broker can hold up one reconcile cycle
const PUBLISH_TIMEOUT = 1 * time.Second

type Publisher interface {
	Publish(topic string, payload any, qos byte, retain bool, continuation func(error), timeout time.Duration)
	IsConnected() bool
}

// EntityHost exposes the fan and the light as Home Assistant entities. Every
// value is published retained; while the broker is unreachable values are
// only cached, and Republish pushes the cache once the connection is back.
type EntityHost struct {
	mu             sync.Mutex
	publisher      Publisher
	topics         Topics
	device         domain.Device
	entities       map[domain.EntityRole]*entity
	pendingDeletes map[domain.EntityRole]bool
	logger         *zap.Logger
}

type entity struct {
	host   *EntityHost
	key    domain.ChildEntityKey
	mu     sync.Mutex
	values map[string]any
}

func NewEntityHost(publisher Publisher, topics Topics, device domain.Device, logger *zap.Logger) *EntityHost {
	return &EntityHost{
		publisher:      publisher,
		topics:         topics,
		device:         device,
		entities:       map[domain.EntityRole]*entity{},
		pendingDeletes: map[domain.EntityRole]bool{},
		logger:         logger.With(zap.String("component", "host")),
	}
}

func (h *EntityHost) CreateChildEntity(role domain.EntityRole) (port.Entity, error) {
	payload, err := h.discoveryPayload(role)
	if err != nil {
		return nil, err
	}

	h.mu.Lock()
	if e, ok := h.entities[role]; ok {
		h.mu.Unlock()
		return e, nil
	}
	e := &entity{
		host:   h,
		key:    domain.ChildEntityKey{ParentId: h.device.Id, Role: role},
		values: map[string]any{},
	}
	h.entities[role] = e
	delete(h.pendingDeletes, role)
	h.mu.Unlock()

	h.logger.Info("host: created child entity", zap.Stringer("key", e.key))
	if err := h.publish(h.topics.DiscoveryConfigTopic(h.device.Id, role), payload); err != nil {
		return e, err
	}
	return e, nil
}

func (h *EntityHost) DeleteChildEntity(role domain.EntityRole) error {
	h.mu.Lock()
	e, ok := h.entities[role]
	if !ok {
		h.mu.Unlock()
		return port.ErrEntityNotFound
	}
	delete(h.entities, role)
	h.pendingDeletes[role] = true
	h.mu.Unlock()

	h.logger.Info("host: deleted child entity", zap.Stringer("key", e.key))
	// an empty retained config removes the entity from Home Assistant
	if err := h.publish(h.topics.DiscoveryConfigTopic(h.device.Id, role), ""); err != nil {
		return err
	}
	h.mu.Lock()
	if _, recreated := h.entities[role]; !recreated {
		delete(h.pendingDeletes, role)
	}
	h.mu.Unlock()
	return nil
}

func (h *EntityHost) GetChildEntity(role domain.EntityRole) (port.Entity, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	e, ok := h.entities[role]
	if !ok {
		return nil, false
	}
	return e, true
}

// Republish sends every discovery config, pending removal and cached
// attribute value again.
func (h *EntityHost) Republish() error {
	h.mu.Lock()
	entities := make([]*entity, 0, len(h.entities))
	for _, role := range domain.ChildRoles {
		if e, ok := h.entities[role]; ok {
			entities = append(entities, e)
		}
	}
	var deletes []domain.EntityRole
	for role := range h.pendingDeletes {
		deletes = append(deletes, role)
	}
	h.mu.Unlock()

	for _, role := range deletes {
		if err := h.publish(h.topics.DiscoveryConfigTopic(h.device.Id, role), ""); err != nil {
			return err
		}
		h.mu.Lock()
		delete(h.pendingDeletes, role)
		h.mu.Unlock()
	}
	for _, e := range entities {
		payload, err := h.discoveryPayload(e.key.Role)
		if err != nil {
			return err
		}
		if err := h.publish(h.topics.DiscoveryConfigTopic(h.device.Id, e.key.Role), payload); err != nil {
			return err
		}
		for name, value := range e.snapshot() {
			if err := h.publish(h.topics.AttributeStateTopic(e.key.Role, name), formatValue(value)); err != nil {
				return err
			}
		}
	}
	return nil
}

func (h *EntityHost) discoveryPayload(role domain.EntityRole) ([]byte, error) {
	var msg HADiscoveryConfig
	switch role {
	case domain.RoleFan:
		msg = GenericFanToHADiscoveryMessage(h.topics, domain.FanComponent(h.device))
	case domain.RoleLight:
		msg = GenericLightToHADiscoveryMessage(h.topics, domain.LightComponent(h.device))
	default:
		return nil, &domain.UnknownChildEntityError{Role: role.String(), Reason: "not a child entity role"}
	}
	return json.Marshal(msg)
}

// publish sends a retained message and waits for the broker. It is a no-op
// while disconnected.
func (h *EntityHost) publish(topic string, payload any) error {
	if !h.publisher.IsConnected() {
		h.logger.Debug("host: broker not connected, deferring publish", zap.String("topic", topic))
		return nil
	}
	errc := make(chan error, 1)
	h.publisher.Publish(topic, payload, 1, true, func(err error) {
		errc <- err
	}, PUBLISH_TIMEOUT)
	if err := <-errc; err != nil {
		h.logger.Error("host: publish failed", zap.String("topic", topic), zap.Error(err))
		return err
	}
	return nil
}

func (e *entity) Key() domain.ChildEntityKey {
	return e.key
}

func (e *entity) SendAttributeEvent(event domain.AttributeEvent) error {
	e.host.logger.Debug("host: attribute event", zap.Stringer("key", e.key),
		zap.String("name", event.Name), zap.Any("value", event.Value))
	if err := e.host.publish(e.host.topics.AttributeStateTopic(e.key.Role, event.Name), formatValue(event.Value)); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.values[event.Name] = event.Value
	return nil
}

func (e *entity) CurrentValue(name string) (any, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	v, ok := e.values[name]
	return v, ok
}

func (e *entity) snapshot() map[string]any {
	e.mu.Lock()
	defer e.mu.Unlock()
	values := make(map[string]any, len(e.values))
	for name, value := range e.values {
		values[name] = value
	}
	return values
}

func formatValue(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	}
	return fmt.Sprint(value)
}

// ensure interface compliance
var _ port.Host = (*EntityHost)(nil)
