// Package course tracks the single active course (mission context) and its
// append-only history.
//
// Lifecycle:
//
//	HOME --Plot--> JOURNEY(not oriented)
//	JOURNEY(not oriented) --Orient--> JOURNEY(oriented)
//	JOURNEY(oriented) --MarkCompacted--> JOURNEY(compacted)
//	JOURNEY(compacted) --Continue--> JOURNEY(not oriented)
//	JOURNEY(*) --Plot--> JOURNEY(not oriented)
package course

import "strings"

// DefaultDomain is used when Plot is given no domain.
const DefaultDomain = "HOME"

// Mode is the derived operating mode of the course.
type Mode string

const (
	ModeHome    Mode = "HOME"
	ModeJourney Mode = "JOURNEY"
)

// Course is the active mission context persisted in .course_state.
type Course struct {
	CoursePlotted  bool     `json:"course_plotted"`
	Projects       []string `json:"projects"`
	Description    string   `json:"description"`
	Domain         string   `json:"domain"`
	Subdomain      string   `json:"subdomain,omitempty"`
	Process        string   `json:"process,omitempty"`
	MissionID      string   `json:"mission_id"`
	FlyCalled      bool     `json:"fly_called"`
	FlightSelected bool     `json:"flight_selected"`
	SessionActive  bool     `json:"session_active"`
	MissionActive  bool     `json:"mission_active"`
	LastOriented   *string  `json:"last_oriented"`
	WasCompacted   bool     `json:"was_compacted"`

	// LegacyProject is the single-path field of older state files.
	// Load folds it into Projects and it is never written back.
	LegacyProject string `json:"project,omitempty"`
}

// Mode derives HOME or JOURNEY from the plotted flag.
func (c *Course) Mode() Mode {
	if c == nil || !c.CoursePlotted {
		return ModeHome
	}
	return ModeJourney
}

// Project returns the primary project path (first of Projects).
func (c *Course) Project() string {
	if c == nil || len(c.Projects) == 0 {
		return ""
	}
	return c.Projects[0]
}

// Oriented reports whether project context has been loaded since the last
// plot or continue.
func (c *Course) Oriented() bool {
	return c != nil && c.LastOriented != nil
}

// Category is the domain/subdomain/process path used for flight configs.
func Category(domain, subdomain, process string) string {
	return strings.Join([]string{domain, subdomain, process}, "/")
}

// normalizeLegacy folds the single-path field into Projects.
func (c *Course) normalizeLegacy() {
	if len(c.Projects) == 0 && c.LegacyProject != "" {
		c.Projects = []string{c.LegacyProject}
	}
	c.LegacyProject = ""
	if c.Domain == "" {
		c.Domain = DefaultDomain
	}
}

// NormalizeProjects trims entries and drops empty ones.
func NormalizeProjects(projects []string) []string {
	out := make([]string, 0, len(projects))
	for _, p := range projects {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Snapshot is the read model returned by State.
type Snapshot struct {
	// Plotted is false for the NotPlotted sentinel: no course file exists.
	Plotted          bool    `json:"plotted"`
	Mode             Mode    `json:"mode"`
	NeedsOrientation bool    `json:"needs_orientation"`
	Course           *Course `json:"course,omitempty"`
}

// NotPlotted is returned by State before the first Plot.
var NotPlotted = Snapshot{Plotted: false, Mode: ModeHome}

// HistoryEntry is one append-only line of the course history.
type HistoryEntry struct {
	Timestamp   string   `json:"timestamp"`
	Projects    []string `json:"projects"`
	Description string   `json:"description"`
	Ended       bool     `json:"ended"`
}
