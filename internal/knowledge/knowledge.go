// Package knowledge records reusable workflow knowledge captured during a
// session and reviews what a session produced.
//
// A capture turns ordered steps into a PayloadDiscovery document, registers
// it as a primitive flight config and links both to the active session.
package knowledge

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hpungsan/starship/internal/course"
	"github.com/hpungsan/starship/internal/errors"
	"github.com/hpungsan/starship/internal/flightconfig"
	"github.com/hpungsan/starship/internal/payload"
	"github.com/hpungsan/starship/internal/registry"
	"github.com/hpungsan/starship/internal/session"
)

// MaxNameStem bounds the title-derived part of a primitive config name.
const MaxNameStem = 30

// CourseSource yields the current course, or nil if none was plotted.
type CourseSource interface {
	Current() (*course.Course, error)
}

// Capture is the KnowledgeCapture record stored per capture.
type Capture struct {
	CaptureID        string `json:"capture_id"`
	SessionID        string `json:"session_id"`
	PDID             string `json:"pd_id"`
	FlightConfigName string `json:"flight_config_name"`
	Title            string `json:"title"`
	StepCount        int    `json:"step_count"`
	Domain           string `json:"domain"`
	Subdomain        string `json:"subdomain"`
	Process          string `json:"process"`
	Timestamp        string `json:"timestamp"`
}

// Category returns the capture's domain/subdomain/process path.
func (c Capture) Category() string {
	return course.Category(c.Domain, c.Subdomain, c.Process)
}

// Recorder captures and reviews session knowledge.
type Recorder struct {
	root     string
	courses  CourseSource
	sessions session.Log
	bridge   flightconfig.Bridge
	reg      registry.Registry
	logger   *slog.Logger
	now      func() time.Time
}

// Deps are the collaborators of a Recorder.
type Deps struct {
	Root     string
	Courses  CourseSource
	Sessions session.Log
	Bridge   flightconfig.Bridge
	Registry registry.Registry
	Logger   *slog.Logger
}

// NewRecorder creates a Recorder.
func NewRecorder(d Deps) *Recorder {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{
		root:     d.Root,
		courses:  d.Courses,
		sessions: d.Sessions,
		bridge:   d.Bridge,
		reg:      d.Registry,
		logger:   logger,
		now:      time.Now,
	}
}

// CaptureInput contains parameters for Capture.
type CaptureInput struct {
	Title     string         `json:"title"`
	Steps     []payload.Step `json:"steps"`
	Subdomain string         `json:"subdomain"`
	Process   string         `json:"process"`
	Context   string         `json:"context"`
}

// CaptureOutput is returned by Capture.
type CaptureOutput struct {
	CaptureID        string `json:"capture_id"`
	PDID             string `json:"pd_id"`
	FlightConfigName string `json:"flight_config_name"`
	PDPath           string `json:"pd_path"`
	StepCount        int    `json:"step_count"`
	Category         string `json:"category"`
}

// Capture records one piece of knowledge for the active session. Every call
// creates new ids, so repeated identical input yields distinct captures.
func (r *Recorder) Capture(input CaptureInput) (*CaptureOutput, error) {
	c, err := r.courses.Current()
	if err != nil {
		return nil, err
	}
	sessionID, err := r.sessions.ActiveSessionID(c.Project())
	if err != nil {
		return nil, err
	}
	if sessionID == "" {
		return nil, errors.NewNoActiveSession(c.Project())
	}
	if c == nil || !c.CoursePlotted {
		return nil, errors.NewNoActiveCourse()
	}

	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, errors.NewInvalidRequest("title is required")
	}
	description := strings.TrimSpace(input.Context)
	if description == "" {
		description = title
	}

	doc, err := payload.Build(payload.BuildInput{
		Domain:      fmt.Sprintf("%s_%s_%s", c.Domain, input.Subdomain, input.Process),
		Description: description,
		Steps:       input.Steps,
	})
	if err != nil {
		return nil, err
	}

	pdID := payload.NewID()
	pdPath := payload.ArtifactPath(r.root, pdID)
	if err := payload.Write(pdPath, doc); err != nil {
		return nil, err
	}
	if err := r.reg.Add(registry.PDRegistry, pdID, doc); err != nil {
		return nil, err
	}

	name := PrimitiveName(title, pdID)
	category := course.Category(c.Domain, input.Subdomain, input.Process)
	if _, err := r.bridge.Add(c.Project(), name, flightconfig.ConfigData{
		Description:      description,
		WorkLoopSubchain: pdPath,
	}, category); err != nil {
		// The document stays behind; a retry writes a new one under a new id.
		r.logger.Warn("primitive flight config rejected", "pd_id", pdID, "name", name, "err", err)
		if _, ok := errors.As(err); ok {
			return nil, err
		}
		return nil, errors.NewRegistration(name, err.Error())
	}

	record := Capture{
		CaptureID:        sessionID + "_" + payload.ShortHex(),
		SessionID:        sessionID,
		PDID:             pdID,
		FlightConfigName: name,
		Title:            title,
		StepCount:        len(doc.RootFiles),
		Domain:           c.Domain,
		Subdomain:        input.Subdomain,
		Process:          input.Process,
		Timestamp:        r.now().UTC().Format(time.RFC3339),
	}
	if err := r.reg.Add(registry.SessionKnowledge, record.CaptureID, record); err != nil {
		return nil, err
	}

	r.logger.Info("knowledge captured", "capture_id", record.CaptureID, "pd_id", pdID, "steps", record.StepCount)
	return &CaptureOutput{
		CaptureID:        record.CaptureID,
		PDID:             pdID,
		FlightConfigName: name,
		PDPath:           pdPath,
		StepCount:        record.StepCount,
		Category:         category,
	}, nil
}

// PrimitiveName derives the flight config name for a captured document.
func PrimitiveName(title, pdID string) string {
	stem := strings.ToLower(strings.TrimSpace(title))
	stem = strings.NewReplacer(" ", "_", "/", "_").Replace(stem)
	if runes := []rune(stem); len(runes) > MaxNameStem {
		stem = string(runes[:MaxNameStem])
	}
	return stem + "_" + pdID + flightconfig.PrimitiveSuffix
}

// SessionCaptures returns the captures of a session in insertion order.
func (r *Recorder) SessionCaptures(sessionID string) ([]Capture, error) {
	all, err := registry.GetAllDecoded[Capture](r.reg, registry.SessionKnowledge)
	if err != nil {
		return nil, err
	}
	var out []Capture
	for _, c := range all {
		if c.SessionID == sessionID {
			out = append(out, c)
		}
	}
	return out, nil
}
