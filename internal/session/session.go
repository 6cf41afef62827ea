// Package session is a file-backed stand-in for the STARLOG session log.
// A session is open iff it has no end timestamp, and at most one session
// is open per project.
package session

import (
	"crypto/rand"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/hpungsan/starship/internal/errors"
	"github.com/hpungsan/starship/internal/registry"
)

// Log resolves the open session of a project.
type Log interface {
	// ActiveSessionID returns the open session id, or "" if none is open.
	ActiveSessionID(project string) (string, error)
}

// Session is one STARLOG session record.
type Session struct {
	ID        string `json:"id"`
	Project   string `json:"project"`
	Goal      string `json:"goal,omitempty"`
	Summary   string `json:"summary,omitempty"`
	StartedAt string `json:"started_at"`
	EndedAt   string `json:"ended_at,omitempty"`
}

// Active reports whether the session is still open.
func (s Session) Active() bool { return s.EndedAt == "" }

// RegistryLog keeps sessions in the starlog_sessions collection.
type RegistryLog struct {
	reg registry.Registry
	now func() time.Time
}

// NewRegistryLog creates a session log over reg.
func NewRegistryLog(reg registry.Registry) *RegistryLog {
	return &RegistryLog{reg: reg, now: time.Now}
}

// ActiveSessionID implements Log.
func (l *RegistryLog) ActiveSessionID(project string) (string, error) {
	s, err := l.active(project)
	if err != nil || s == nil {
		return "", err
	}
	return s.ID, nil
}

func (l *RegistryLog) active(project string) (*Session, error) {
	if project == "" {
		return nil, nil
	}
	sessions, err := registry.GetAllDecoded[Session](l.reg, registry.Sessions)
	if err != nil {
		return nil, err
	}
	for i := range sessions {
		if sessions[i].Project == project && sessions[i].Active() {
			return &sessions[i], nil
		}
	}
	return nil, nil
}

// Start opens a session for project. Fails with CONFLICT if one is already open.
func (l *RegistryLog) Start(project, goal string) (*Session, error) {
	if project == "" {
		return nil, errors.NewInvalidRequest("project is required")
	}
	open, err := l.active(project)
	if err != nil {
		return nil, err
	}
	if open != nil {
		return nil, errors.NewConflict(fmt.Sprintf("session %s is already open for %s; end it first", open.ID, project))
	}

	id, err := newULID(l.now())
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	s := &Session{
		ID:        id,
		Project:   project,
		Goal:      goal,
		StartedAt: l.now().UTC().Format(time.RFC3339),
	}
	if err := l.reg.Add(registry.Sessions, s.ID, s); err != nil {
		return nil, err
	}
	return s, nil
}

// End closes the open session of project.
func (l *RegistryLog) End(project, summary string) (*Session, error) {
	open, err := l.active(project)
	if err != nil {
		return nil, err
	}
	if open == nil {
		return nil, errors.NewNoActiveSession(project)
	}
	open.Summary = summary
	open.EndedAt = l.now().UTC().Format(time.RFC3339)
	if err := l.reg.Update(registry.Sessions, open.ID, open); err != nil {
		return nil, err
	}
	return open, nil
}

// newULID generates a new ULID.
func newULID(t time.Time) (string, error) {
	entropy := ulid.Monotonic(rand.Reader, 0)
	id, err := ulid.New(ulid.Timestamp(t), entropy)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}
