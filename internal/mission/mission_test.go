package mission

import (
	"testing"
	"time"

	"github.com/hpungsan/starship/internal/errors"
	"github.com/hpungsan/starship/internal/registry"
)

func TestNewID(t *testing.T) {
	ts := time.Date(2026, 10, 14, 9, 30, 0, 123456000, time.Local)

	got := NewID(ts)
	if got != "20261014T093000123456" {
		t.Errorf("NewID() = %q, want %q", got, "20261014T093000123456")
	}
	if NewID(ts.Add(time.Microsecond)) == got {
		t.Error("NewID() should differ for timestamps 1µs apart")
	}
}

func TestRegistryStore_SaveGet(t *testing.T) {
	store := NewRegistryStore(registry.NewFileRegistry(t.TempDir()))

	m := &Mission{MissionID: "20261014T093000123456", Status: StatusActive, Projects: []string{"/p"}}
	if err := store.Save(m); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := store.Get(m.MissionID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Status != StatusActive || got.Steps == nil || len(got.Steps) != 0 {
		t.Errorf("Get() = %+v", got)
	}

	// Saving the same id again replaces the record.
	m.Description = "second"
	if err := store.Save(m); err != nil {
		t.Fatalf("Save() again error = %v", err)
	}
	got, _ = store.Get(m.MissionID)
	if got.Description != "second" {
		t.Errorf("Description = %q, want second", got.Description)
	}
}

func TestRegistryStore_RequiresID(t *testing.T) {
	store := NewRegistryStore(registry.NewFileRegistry(t.TempDir()))
	if err := store.Save(&Mission{}); !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("Save() error = %v, want INVALID_REQUEST", err)
	}
}
