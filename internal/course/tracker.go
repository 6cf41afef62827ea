package course

import (
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/hpungsan/starship/internal/errors"
	"github.com/hpungsan/starship/internal/mission"
)

// Tracker owns the course lifecycle. Every mutation runs a full
// load-modify-store cycle under lock.
type Tracker struct {
	repo     Repository
	history  History
	missions mission.Store
	lock     sync.Locker
	logger   *slog.Logger
	now      func() time.Time
}

// Deps are the collaborators of a Tracker. Lock and Logger are optional.
type Deps struct {
	Repo     Repository
	History  History
	Missions mission.Store
	Lock     sync.Locker
	Logger   *slog.Logger
}

// NewTracker creates a Tracker.
func NewTracker(d Deps) *Tracker {
	t := &Tracker{
		repo:     d.Repo,
		history:  d.History,
		missions: d.Missions,
		lock:     d.Lock,
		logger:   d.Logger,
		now:      time.Now,
	}
	if t.lock == nil {
		t.lock = &sync.Mutex{}
	}
	if t.logger == nil {
		t.logger = slog.Default()
	}
	return t
}

// PlotInput contains parameters for Plot.
type PlotInput struct {
	Projects    []string
	Description string
	Domain      string
	Subdomain   string
	Process     string
}

// Plot starts a new course, superseding any current one.
func (t *Tracker) Plot(input PlotInput) (*Course, error) {
	projects := NormalizeProjects(input.Projects)
	if len(projects) == 0 {
		return nil, errors.NewInvalidRequest("at least one project path is required")
	}
	domain := strings.TrimSpace(input.Domain)
	if domain == "" {
		domain = DefaultDomain
	}

	t.lock.Lock()
	defer t.lock.Unlock()

	now := t.now()
	missionID := mission.NewID(now)

	if err := t.missions.Save(&mission.Mission{
		MissionID:   missionID,
		Status:      mission.StatusActive,
		Projects:    projects,
		Description: input.Description,
		Domain:      domain,
		Subdomain:   input.Subdomain,
		Process:     input.Process,
		Steps:       []string{},
		CreatedAt:   now.UTC().Format(time.RFC3339),
	}); err != nil {
		return nil, errors.Wrap("saving mission", err)
	}

	c := &Course{
		CoursePlotted: true,
		Projects:      projects,
		Description:   input.Description,
		Domain:        domain,
		Subdomain:     strings.TrimSpace(input.Subdomain),
		Process:       strings.TrimSpace(input.Process),
		MissionID:     missionID,
	}
	if err := t.repo.Store(c); err != nil {
		return nil, err
	}

	// History is diagnostic only.
	if err := t.history.Append(HistoryEntry{
		Timestamp:   now.Format(time.RFC3339Nano),
		Projects:    projects,
		Description: input.Description,
		Ended:       false,
	}); err != nil {
		t.logger.Warn("course history append failed", "mission_id", missionID, "err", err)
	}

	t.logger.Info("course plotted", "mission_id", missionID, "projects", projects, "domain", domain)
	return c, nil
}

// State returns a snapshot of the course, or NotPlotted.
func (t *Tracker) State() (Snapshot, error) {
	c, err := t.repo.Load()
	if err != nil {
		return Snapshot{}, err
	}
	if c == nil {
		return NotPlotted, nil
	}
	return Snapshot{
		Plotted:          true,
		Mode:             c.Mode(),
		NeedsOrientation: c.CoursePlotted && !c.Oriented(),
		Course:           c,
	}, nil
}

// Current returns the course, or nil if none has been plotted.
func (t *Tracker) Current() (*Course, error) {
	return t.repo.Load()
}

// Continue resumes a plotted course after compaction. It clears the
// compaction flag and forgets the orientation, so the caller has to reload
// project context before other tools are usable.
func (t *Tracker) Continue() (*Course, error) {
	return t.mutate(func(c *Course) {
		c.WasCompacted = false
		c.LastOriented = nil
	})
}

// Orient records that project context was loaded.
func (t *Tracker) Orient() (*Course, error) {
	return t.mutate(func(c *Course) {
		ts := t.now().Format(time.RFC3339)
		c.LastOriented = &ts
	})
}

// MarkCompacted records that the operator's working context was interrupted.
func (t *Tracker) MarkCompacted() (*Course, error) {
	return t.mutate(func(c *Course) {
		c.WasCompacted = true
	})
}

// Touch applies fn to a plotted course. Without one it does nothing and
// returns nil; callers use it to toggle progress flags.
func (t *Tracker) Touch(fn func(c *Course)) (*Course, error) {
	c, err := t.mutate(fn)
	if errors.Is(err, errors.ErrNoActiveCourse) {
		return nil, nil
	}
	return c, err
}

func (t *Tracker) mutate(fn func(c *Course)) (*Course, error) {
	t.lock.Lock()
	defer t.lock.Unlock()

	c, err := t.repo.Load()
	if err != nil {
		return nil, err
	}
	if c == nil || !c.CoursePlotted {
		return nil, errors.NewNoActiveCourse()
	}
	fn(c)
	if err := t.repo.Store(c); err != nil {
		return nil, err
	}
	return c, nil
}
