package internal

import (
	"testing"

	"github.com/kcmvp/archunit"
)

func TestArchitecture(t *testing.T) {
	core := archunit.Packages("core", []string{".../internal/core/domain/...", ".../internal/core/port/...", ".../internal/core/service/..."})
	adapters := archunit.Packages("adapters", []string{".../internal/adapter/...", ".../internal/mqtt/...", ".../internal/server/..."})
	actors := archunit.Packages("actors", []string{".../internal/core/actor/..."})

	// the engine must not know about its transports
	if err := core.ShouldNotReferLayers(adapters); err != nil {
		t.Errorf("Architecture violation: core depends on adapters: %v", err)
	}
	if err := core.ShouldNotReferLayers(actors); err != nil {
		t.Errorf("Architecture violation: core depends on the actor tree: %v", err)
	}
}

func TestServicePackage(t *testing.T) {
	service := archunit.Packages("service", []string{".../internal/core/service"})
	if len(service.Packages()) == 0 {
		t.Error("No service package found in core")
	}
}
