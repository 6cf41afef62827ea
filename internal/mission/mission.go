// Package mission stores the base mission record created whenever a course
// is plotted.
package mission

import (
	"strings"
	"time"
	"unicode"

	"github.com/hpungsan/starship/internal/errors"
	"github.com/hpungsan/starship/internal/registry"
)

// StatusActive is the status of a freshly plotted mission.
const StatusActive = "active"

// Mission is the base mission record.
type Mission struct {
	MissionID   string   `json:"mission_id"`
	Status      string   `json:"status"`
	Projects    []string `json:"projects"`
	Description string   `json:"description"`
	Domain      string   `json:"domain"`
	Subdomain   string   `json:"subdomain,omitempty"`
	Process     string   `json:"process,omitempty"`
	Steps       []string `json:"steps"`
	CreatedAt   string   `json:"created_at"`
}

// Store persists missions.
type Store interface {
	Save(m *Mission) error
}

// RegistryStore keeps missions in the starlog_missions collection.
type RegistryStore struct {
	reg registry.Registry
}

// NewRegistryStore creates a mission store over reg.
func NewRegistryStore(reg registry.Registry) *RegistryStore {
	return &RegistryStore{reg: reg}
}

// Save adds the mission, or replaces it if the id is already taken.
func (s *RegistryStore) Save(m *Mission) error {
	if m.MissionID == "" {
		return errors.NewInvalidRequest("mission_id is required")
	}
	if m.Steps == nil {
		m.Steps = []string{}
	}
	err := s.reg.Add(registry.Missions, m.MissionID, m)
	if errors.Is(err, errors.ErrConflict) {
		return s.reg.Update(registry.Missions, m.MissionID, m)
	}
	return err
}

// Get loads a mission by id.
func (s *RegistryStore) Get(id string) (*Mission, error) {
	var m Mission
	if err := s.reg.Get(registry.Missions, id, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// IDLayout is formatted and stripped of separators to build mission ids.
const IDLayout = "2006-01-02T15:04:05.000000"

// NewID derives a mission id from t by dropping every non-alphanumeric rune
// of its timestamp, e.g. 2026-10-14T09:30:00.123456 → 20261014T093000123456.
func NewID(t time.Time) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return -1
	}, t.Format(IDLayout))
}
