package service

import (
	"errors"

	"github.com/berfenger/fanlight2mqtt/internal/core/domain"
	"github.com/berfenger/fanlight2mqtt/internal/core/port"

	"go.uber.org/zap"
)

type EntityLifecycleManager struct {
	Host   port.Host
	Logger *zap.Logger
}

// ReconcileEntities makes the set of child entities match the enablement
// flags. It is idempotent, and deleting an entity that is already gone is not
// an error.
func (m *EntityLifecycleManager) ReconcileEntities(cfg domain.EntityConfig) error {
	var errs []error
	for _, role := range domain.ChildRoles {
		_, exists := m.Host.GetChildEntity(role)
		enabled := cfg.Enabled(role)
		switch {
		case enabled && !exists:
			m.Logger.Info("lifecycle: creating child entity", zap.Stringer("role", role))
			if _, err := m.Host.CreateChildEntity(role); err != nil {
				m.Logger.Error("lifecycle: could not create child entity", zap.Stringer("role", role), zap.Error(err))
				errs = append(errs, err)
			}
		case !enabled && exists:
			m.Logger.Info("lifecycle: deleting child entity", zap.Stringer("role", role))
			if err := m.Host.DeleteChildEntity(role); err != nil && !errors.Is(err, port.ErrEntityNotFound) {
				m.Logger.Error("lifecycle: could not delete child entity", zap.Stringer("role", role), zap.Error(err))
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}
