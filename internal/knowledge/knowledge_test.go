package knowledge

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hpungsan/starship/internal/course"
	"github.com/hpungsan/starship/internal/errors"
	"github.com/hpungsan/starship/internal/flightconfig"
	"github.com/hpungsan/starship/internal/payload"
	"github.com/hpungsan/starship/internal/registry"
)

type fakeCourses struct{ c *course.Course }

func (f *fakeCourses) Current() (*course.Course, error) { return f.c, nil }

type fakeSessions map[string]string

func (f fakeSessions) ActiveSessionID(project string) (string, error) { return f[project], nil }

type addCall struct {
	path, name, category string
	data                 flightconfig.ConfigData
}

type fakeBridge struct {
	adds   []addCall
	reject error
}

func (b *fakeBridge) Add(path, name string, data flightconfig.ConfigData, category string) (*flightconfig.Entry, error) {
	if b.reject != nil {
		return nil, b.reject
	}
	b.adds = append(b.adds, addCall{path: path, name: name, category: category, data: data})
	return &flightconfig.Entry{Name: name, Category: category}, nil
}

func (b *fakeBridge) Update(string, string, flightconfig.ConfigData) (*flightconfig.Entry, error) {
	return nil, nil
}

func (b *fakeBridge) Delete(string, string) (*flightconfig.Entry, error) { return nil, nil }

func (b *fakeBridge) Browse(flightconfig.BrowseInput) (*flightconfig.BrowseOutput, error) {
	return &flightconfig.BrowseOutput{}, nil
}

type fixture struct {
	root     string
	courses  *fakeCourses
	sessions fakeSessions
	bridge   *fakeBridge
	reg      registry.Registry
	rec      *Recorder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	root := t.TempDir()
	f := &fixture{
		root: root,
		courses: &fakeCourses{c: &course.Course{
			CoursePlotted: true,
			Projects:      []string{"/work/api"},
			Domain:        "WORK",
			MissionID:     "20261014T093000123456",
		}},
		sessions: fakeSessions{"/work/api": "01JSESSION"},
		bridge:   &fakeBridge{},
		reg:      registry.NewFileRegistry(root),
	}
	f.rec = NewRecorder(Deps{
		Root:     root,
		Courses:  f.courses,
		Sessions: f.sessions,
		Bridge:   f.bridge,
		Registry: f.reg,
		Logger:   slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)),
	})
	return f
}

func sampleInput() CaptureInput {
	return CaptureInput{
		Title:     "Flaky Test Triage",
		Subdomain: "go",
		Process:   "debug",
		Context:   "CI went red twice",
		Steps: []payload.Step{
			{Title: "Reproduce", Content: "go test -count=50 ./..."},
			{Title: "Bisect", Content: "git bisect run"},
			{Title: "Fix", Content: "remove the shared tempdir"},
		},
	}
}

func TestCapture(t *testing.T) {
	f := newFixture(t)

	out, err := f.rec.Capture(sampleInput())
	require.NoError(t, err)
	require.Regexp(t, `^pd_[0-9a-f]{8}$`, out.PDID)
	require.Regexp(t, `^01JSESSION_[0-9a-f]{8}$`, out.CaptureID)
	require.Equal(t, "flaky_test_triage_"+out.PDID+"_primitive_flight_config", out.FlightConfigName)
	require.Equal(t, "WORK/go/debug", out.Category)
	require.Equal(t, 3, out.StepCount)
	require.Equal(t, payload.ArtifactPath(f.root, out.PDID), out.PDPath)

	require.Len(t, f.bridge.adds, 1)
	add := f.bridge.adds[0]
	require.Equal(t, "/work/api", add.path)
	require.Equal(t, out.FlightConfigName, add.name)
	require.Equal(t, "WORK/go/debug", add.category)
	require.Equal(t, out.PDPath, add.data.WorkLoopSubchain)
	require.Equal(t, "CI went red twice", add.data.Description)

	var rec Capture
	require.NoError(t, f.reg.Get(registry.SessionKnowledge, out.CaptureID, &rec))
	require.Equal(t, "01JSESSION", rec.SessionID)
	require.Equal(t, out.PDID, rec.PDID)
	require.Equal(t, "Flaky Test Triage", rec.Title)
	require.Equal(t, "go", rec.Subdomain)

	var stored payload.Document
	require.NoError(t, f.reg.Get(registry.PDRegistry, out.PDID, &stored))
	require.Equal(t, "WORK_go_debug", stored.Domain)
}

func TestCapture_ArtifactRoundTrip(t *testing.T) {
	f := newFixture(t)
	in := sampleInput()

	out, err := f.rec.Capture(in)
	require.NoError(t, err)

	doc, err := payload.Read(out.PDPath)
	require.NoError(t, err)
	require.NoError(t, doc.Validate())
	require.Len(t, doc.RootFiles, len(in.Steps))
	for i, p := range doc.RootFiles {
		require.Equal(t, i, p.SequenceNumber)
		require.Equal(t, in.Steps[i].Title, p.Title)
		require.Equal(t, in.Steps[i].Content, p.Content)
		require.Equal(t, payload.PieceInstruction, p.PieceType)
		require.Empty(t, p.Dependencies)
	}
	require.Equal(t, "step_1", doc.EntryPoint)
	require.Equal(t, "CI went red twice", doc.Description)
}

func TestCapture_NotIdempotent(t *testing.T) {
	f := newFixture(t)

	a, err := f.rec.Capture(sampleInput())
	require.NoError(t, err)
	b, err := f.rec.Capture(sampleInput())
	require.NoError(t, err)

	require.NotEqual(t, a.CaptureID, b.CaptureID)
	require.NotEqual(t, a.FlightConfigName, b.FlightConfigName)
	require.NotEqual(t, a.PDID, b.PDID)

	captures, err := f.rec.SessionCaptures("01JSESSION")
	require.NoError(t, err)
	require.Len(t, captures, 2)
}

func TestCapture_NoSession(t *testing.T) {
	f := newFixture(t)
	delete(f.sessions, "/work/api")

	_, err := f.rec.Capture(sampleInput())
	require.True(t, errors.Is(err, errors.ErrNoActiveSession), "got %v", err)

	entries, err := f.reg.GetAll(registry.SessionKnowledge)
	require.NoError(t, err)
	require.Empty(t, entries)
	require.Empty(t, f.bridge.adds)
}

func TestCapture_NoCourse(t *testing.T) {
	f := newFixture(t)
	f.courses.c.CoursePlotted = false

	_, err := f.rec.Capture(sampleInput())
	require.True(t, errors.Is(err, errors.ErrNoActiveCourse), "got %v", err)
}

func TestCapture_Validation(t *testing.T) {
	tests := []struct {
		name  string
		input CaptureInput
	}{
		{"blank title", CaptureInput{Title: " ", Steps: []payload.Step{{Title: "a"}}}},
		{"no steps", CaptureInput{Title: "t"}},
		{"blank step title", CaptureInput{Title: "t", Steps: []payload.Step{{Title: "a"}, {Title: ""}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			_, err := f.rec.Capture(tt.input)
			require.True(t, errors.Is(err, errors.ErrInvalidRequest), "got %v", err)
		})
	}
}

func TestCapture_RegistrationRejectedKeepsDocument(t *testing.T) {
	f := newFixture(t)
	f.bridge.reject = errors.NewRegistration("x", "duplicate")

	_, err := f.rec.Capture(sampleInput())
	require.True(t, errors.Is(err, errors.ErrRegistration), "got %v", err)

	docs, err := f.reg.GetAll(registry.PDRegistry)
	require.NoError(t, err)
	require.Len(t, docs, 1)

	captures, err := f.reg.GetAll(registry.SessionKnowledge)
	require.NoError(t, err)
	require.Empty(t, captures)
}

func TestPrimitiveName(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{"Fix Bug", "fix_bug_pd_1_primitive_flight_config"},
		{"a/b c", "a_b_c_pd_1_primitive_flight_config"},
		{strings.Repeat("x", 40), strings.Repeat("x", 30) + "_pd_1_primitive_flight_config"},
		{"Ünïcödé Ünïcödé Ünïcödé Ünïcödé", "ünïcödé_ünïcödé_ünïcödé_ünïcöd_pd_1_primitive_flight_config"},
	}
	for _, tt := range tests {
		if got := PrimitiveName(tt.title, "pd_1"); got != tt.want {
			t.Errorf("PrimitiveName(%q) = %q, want %q", tt.title, got, tt.want)
		}
	}
}

func TestReview_NoCaptures(t *testing.T) {
	f := newFixture(t)

	out, err := f.rec.Review(ReviewInput{})
	require.NoError(t, err)
	require.Empty(t, out.Captures)
	require.Nil(t, out.Composition)
	require.Contains(t, out.Report, "No knowledge captured")
	require.Contains(t, out.Report, MandatoryNextStep)
	require.NotContains(t, out.Report, "continue_course")
}

func TestReview_WithCaptures(t *testing.T) {
	f := newFixture(t)
	first, err := f.rec.Capture(sampleInput())
	require.NoError(t, err)
	in := sampleInput()
	in.Title = "Release Checklist"
	in.Subdomain = "ops"
	second, err := f.rec.Capture(in)
	require.NoError(t, err)

	// A capture from another session stays out of the review.
	f.sessions["/work/api"] = "01JOTHER"
	_, err = f.rec.Capture(sampleInput())
	require.NoError(t, err)
	f.sessions["/work/api"] = "01JSESSION"

	out, err := f.rec.Review(ReviewInput{Context: "wrap up", WasCompacted: true})
	require.NoError(t, err)
	require.Equal(t, "20261014T093000123456", out.MissionID)
	require.Len(t, out.Captures, 2)
	require.Equal(t, first.CaptureID, out.Captures[0].CaptureID)
	require.Equal(t, second.CaptureID, out.Captures[1].CaptureID)

	comp := out.Composition
	require.NotNil(t, comp)
	require.Equal(t, "WORK/go/debug", comp.Category)
	require.Equal(t, "work_go_debug_composite_flight_config", comp.Name)
	require.Equal(t, []string{first.FlightConfigName, second.FlightConfigName}, comp.ConfigData.Sequence)
	require.NoError(t, flightconfig.ValidateName(comp.Name))

	require.Contains(t, out.Report, "**Flaky Test Triage** → `"+first.FlightConfigName+"` (3 steps, WORK/go/debug)")
	require.Contains(t, out.Report, "**Release Checklist**")
	require.Contains(t, out.Report, CompactionNote)
	require.True(t, strings.HasSuffix(out.Report, MandatoryNextStep+"\n"))

	// The snippet in the report is valid JSON for add_flight_config.
	start := strings.Index(out.Report, "```json\n") + len("```json\n")
	end := strings.Index(out.Report[start:], "\n```")
	var parsed Composition
	require.NoError(t, json.Unmarshal([]byte(out.Report[start:start+end]), &parsed))
	require.Equal(t, *comp, parsed)
}

func TestReview_Preconditions(t *testing.T) {
	f := newFixture(t)
	f.courses.c.MissionID = ""
	_, err := f.rec.Review(ReviewInput{})
	require.True(t, errors.Is(err, errors.ErrNoActiveMission), "got %v", err)

	delete(f.sessions, "/work/api")
	_, err = f.rec.Review(ReviewInput{})
	require.True(t, errors.Is(err, errors.ErrNoActiveSession), "got %v", err)

	f.courses.c = nil
	_, err = f.rec.Review(ReviewInput{})
	require.True(t, errors.Is(err, errors.ErrNoActiveSession), "got %v", err)
}

func TestRenderHTML(t *testing.T) {
	html, err := RenderHTML("# Session Review\n\n1. **a** → `b`\n")
	require.NoError(t, err)
	require.Contains(t, html, "<h1>Session Review</h1>")
	require.Contains(t, html, "<strong>a</strong>")
	require.Contains(t, html, "<code>b</code>")
}
