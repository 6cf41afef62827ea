package knowledge

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/hpungsan/starship/internal/errors"
	"github.com/hpungsan/starship/internal/flightconfig"
)

// MandatoryNextStep closes every review.
const MandatoryNextStep = "⚠️ MANDATORY NEXT STEP: document this session with giint.respond() " +
	"(what was done, what was learned, what comes next) before calling end_session."

// CompactionNote is added when the review follows a context compaction.
const CompactionNote = "🔄 Context was compacted during this session. Call continue_course to " +
	"reload the course, then re-orient before resuming work."

// ReviewInput contains parameters for Review.
type ReviewInput struct {
	Context      string `json:"context"`
	WasCompacted bool   `json:"was_compacted"`
}

// Composition is the composite flight config drafted from a session's
// primitives, ready for add_flight_config or update_flight_config.
type Composition struct {
	Path       string                  `json:"path"`
	Name       string                  `json:"name"`
	ConfigData flightconfig.ConfigData `json:"config_data"`
	Category   string                  `json:"category"`
}

// ReviewOutput is returned by Review.
type ReviewOutput struct {
	SessionID   string       `json:"session_id"`
	MissionID   string       `json:"mission_id"`
	Captures    []Capture    `json:"captures"`
	Composition *Composition `json:"composition,omitempty"`
	Report      string       `json:"report"`
}

// Review summarizes the knowledge captured in the active session.
// A session without captures still yields a report.
func (r *Recorder) Review(input ReviewInput) (*ReviewOutput, error) {
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
	if c == nil || c.MissionID == "" {
		return nil, errors.NewNoActiveMission()
	}

	captures, err := r.SessionCaptures(sessionID)
	if err != nil {
		return nil, err
	}

	out := &ReviewOutput{
		SessionID: sessionID,
		MissionID: c.MissionID,
		Captures:  captures,
	}
	if out.Captures == nil {
		out.Captures = []Capture{}
	}
	if len(captures) > 0 {
		out.Composition = compose(c.Project(), sessionID, input.Context, captures)
	}

	report, err := renderReport(out, input)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	out.Report = report
	return out, nil
}

func compose(project, sessionID, context string, captures []Capture) *Composition {
	first := captures[0]
	names := make([]string, len(captures))
	for i, c := range captures {
		names[i] = c.FlightConfigName
	}

	description := strings.TrimSpace(context)
	if description == "" {
		description = fmt.Sprintf("Composite of %d primitives captured in session %s", len(captures), sessionID)
	}

	stem := strings.ToLower(strings.Join(nonEmpty(first.Domain, first.Subdomain, first.Process), "_"))
	stem = strings.NewReplacer(" ", "_", "/", "_").Replace(stem)
	return &Composition{
		Path: project,
		Name: stem + "_composite" + flightconfig.NameSuffix,
		ConfigData: flightconfig.ConfigData{
			Description: description,
			Sequence:    names,
		},
		Category: first.Category(),
	}
}

func nonEmpty(parts ...string) []string {
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func renderReport(out *ReviewOutput, input ReviewInput) (string, error) {
	var sb strings.Builder
	sb.WriteString("# 📋 Session Review\n\n")
	fmt.Fprintf(&sb, "- Session: `%s`\n- Mission: `%s`\n", out.SessionID, out.MissionID)
	if ctx := strings.TrimSpace(input.Context); ctx != "" {
		fmt.Fprintf(&sb, "- Context: %s\n", ctx)
	}
	sb.WriteString("\n")

	if len(out.Captures) == 0 {
		sb.WriteString("## No knowledge captured\n\n")
		sb.WriteString("No knowledge_update calls were recorded in this session. ")
		sb.WriteString("If the session produced a repeatable workflow, capture it with knowledge_update before ending.\n\n")
	} else {
		fmt.Fprintf(&sb, "## Captured knowledge (%d)\n\n", len(out.Captures))
		for i, c := range out.Captures {
			fmt.Fprintf(&sb, "%d. **%s** → `%s` (%d steps, %s)\n", i+1, c.Title, c.FlightConfigName, c.StepCount, c.Category())
		}

		snippet, err := json.MarshalIndent(out.Composition, "", "  ")
		if err != nil {
			return "", err
		}
		sb.WriteString("\n## Compose\n\n")
		sb.WriteString("Register the session's primitives as one composite flight config with add_flight_config ")
		sb.WriteString("(or update_flight_config if it already exists):\n\n")
		fmt.Fprintf(&sb, "```json\n%s\n```\n\n", snippet)
	}

	if input.WasCompacted {
		sb.WriteString(CompactionNote + "\n\n")
	}
	sb.WriteString(MandatoryNextStep + "\n")
	return sb.String(), nil
}

var (
	markdownOnce sync.Once
	markdown     goldmark.Markdown
)

// RenderHTML converts a Markdown review report to HTML.
func RenderHTML(report string) (string, error) {
	markdownOnce.Do(func() {
		markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))
	})
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(report), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}
