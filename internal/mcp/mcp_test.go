package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hpungsan/starship/internal/config"
	"github.com/hpungsan/starship/internal/errors"
	"github.com/hpungsan/starship/internal/knowledge"
)

// testSetup points the storage root at a temp dir and returns handlers
// logging into a buffer.
func testSetup(t *testing.T) (*Handlers, *bytes.Buffer) {
	t.Helper()
	t.Setenv(config.RootEnv, t.TempDir())
	logs := &bytes.Buffer{}
	return NewHandlers(slog.New(slog.NewTextHandler(logs, &slog.HandlerOptions{Level: slog.LevelDebug}))), logs
}

// makeRequest creates a CallToolRequest with the given arguments.
func makeRequest(name string, args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
}

func resultText(t *testing.T, r *mcp.CallToolResult) string {
	t.Helper()
	if len(r.Content) == 0 {
		t.Fatal("empty result content")
	}
	tc, ok := r.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("content is %T, want mcp.TextContent", r.Content[0])
	}
	return tc.Text
}

func decodeResult(t *testing.T, r *mcp.CallToolResult, out any) {
	t.Helper()
	if r.IsError {
		t.Fatalf("unexpected error result: %s", resultText(t, r))
	}
	if err := json.Unmarshal([]byte(resultText(t, r)), out); err != nil {
		t.Fatalf("failed to unmarshal result: %v", err)
	}
}

func errorCode(t *testing.T, r *mcp.CallToolResult) string {
	t.Helper()
	if !r.IsError {
		t.Fatalf("expected error result, got %s", resultText(t, r))
	}
	var payload map[string]any
	if err := json.Unmarshal([]byte(resultText(t, r)), &payload); err != nil {
		t.Fatalf("failed to unmarshal error payload: %v", err)
	}
	return payload["error"].(map[string]any)["code"].(string)
}

func invoke(t *testing.T, h *Handlers, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	entry, ok := toolRegistry[name]
	if !ok {
		t.Fatalf("unknown tool %q", name)
	}
	r, err := entry.handler(h)(context.Background(), makeRequest(name, args))
	if err != nil {
		t.Fatalf("%s returned error: %v", name, err)
	}
	return r
}

func TestAllTools_MissingRootIsConfigurationError(t *testing.T) {
	t.Setenv(config.RootEnv, "")
	h := NewHandlers(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))

	for _, name := range AllToolNames() {
		t.Run(name, func(t *testing.T) {
			r := invoke(t, h, name, map[string]any{"path": "/p"})
			if code := errorCode(t, r); code != string(errors.ErrConfiguration) {
				t.Errorf("code = %s, want %s", code, errors.ErrConfiguration)
			}
		})
	}
}

func TestMissionFlow(t *testing.T) {
	h, _ := testSetup(t)

	var plotted struct {
		MissionID string `json:"mission_id"`
		Mode      string `json:"mode"`
	}
	decodeResult(t, invoke(t, h, "plot_course", map[string]any{
		"projects":    "/work/api",
		"description": "stabilize CI",
		"domain":      "WORK",
	}), &plotted)
	if plotted.Mode != "JOURNEY" || plotted.MissionID == "" {
		t.Fatalf("plot_course = %+v", plotted)
	}

	var state struct {
		Mode             string `json:"mode"`
		NeedsOrientation bool   `json:"needs_orientation"`
		Course           struct {
			Projects []string `json:"projects"`
		} `json:"course"`
	}
	decodeResult(t, invoke(t, h, "get_course_state", nil), &state)
	if state.Mode != "JOURNEY" || !state.NeedsOrientation || len(state.Course.Projects) != 1 {
		t.Fatalf("get_course_state = %+v", state)
	}

	if r := invoke(t, h, "orient_course", nil); r.IsError {
		t.Fatalf("orient_course: %s", resultText(t, r))
	}
	if r := invoke(t, h, "start_session", map[string]any{"goal": "fix flakes"}); r.IsError {
		t.Fatalf("start_session: %s", resultText(t, r))
	}

	var captured knowledge.CaptureOutput
	decodeResult(t, invoke(t, h, "knowledge_update", map[string]any{
		"title":     "Flaky Triage",
		"subdomain": "ci",
		"process":   "debug",
		"steps": []any{
			map[string]any{"title": "Reproduce", "content": "loop it"},
			map[string]any{"title": "Fix", "content": "isolate"},
		},
	}), &captured)
	if captured.StepCount != 2 || !strings.HasSuffix(captured.FlightConfigName, "_primitive_flight_config") {
		t.Fatalf("knowledge_update = %+v", captured)
	}

	fly := resultText(t, invoke(t, h, "fly", map[string]any{"path": "/work/api", "category": "WORK/ci/debug"}))
	if !strings.Contains(fly, captured.FlightConfigName) {
		t.Errorf("fly output missing %s:\n%s", captured.FlightConfigName, fly)
	}

	var review knowledge.ReviewOutput
	decodeResult(t, invoke(t, h, "session_review", map[string]any{"was_compacted": true}), &review)
	if len(review.Captures) != 1 || review.Composition == nil {
		t.Fatalf("session_review = %+v", review)
	}
	if !strings.Contains(review.Report, "continue_course") {
		t.Error("review report missing compaction note")
	}

	if r := invoke(t, h, "end_session", map[string]any{"summary": "done"}); r.IsError {
		t.Fatalf("end_session: %s", resultText(t, r))
	}
	r := invoke(t, h, "knowledge_update", map[string]any{
		"title": "Late", "steps": []any{map[string]any{"title": "a"}},
	})
	if code := errorCode(t, r); code != string(errors.ErrNoActiveSession) {
		t.Errorf("code = %s, want %s", code, errors.ErrNoActiveSession)
	}
}

func TestPreconditionErrors(t *testing.T) {
	tests := []struct {
		tool string
		args map[string]any
		want errors.ErrorCode
	}{
		{"continue_course", nil, errors.ErrNoActiveCourse},
		{"orient_course", nil, errors.ErrNoActiveCourse},
		{"session_review", nil, errors.ErrNoActiveSession},
		{"knowledge_update", map[string]any{"title": "t", "steps": []any{map[string]any{"title": "a"}}}, errors.ErrNoActiveSession},
		{"plot_course", map[string]any{"projects": []any{}, "description": "d"}, errors.ErrInvalidRequest},
		{"plot_course", map[string]any{"projects": 7}, errors.ErrInvalidRequest},
		{"add_flight_config", map[string]any{"path": "/p", "name": "bad", "config_data": map[string]any{"work_loop_subchain": "/x"}}, errors.ErrRegistration},
		{"delete_flight_config", map[string]any{"path": "/p", "name": "nope_flight_config"}, errors.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s_%s", tt.tool, tt.want), func(t *testing.T) {
			h, _ := testSetup(t)
			if code := errorCode(t, invoke(t, h, tt.tool, tt.args)); code != string(tt.want) {
				t.Errorf("code = %s, want %s", code, tt.want)
			}
		})
	}
}

func TestNoActiveCourseCarriesRemediation(t *testing.T) {
	h, _ := testSetup(t)

	r := invoke(t, h, "continue_course", nil)
	var payload struct {
		Error struct {
			Details map[string]any `json:"details"`
		} `json:"error"`
	}
	if err := json.Unmarshal([]byte(resultText(t, r)), &payload); err != nil {
		t.Fatal(err)
	}
	if payload.Error.Details["remediation"] != "plot_course" {
		t.Errorf("details = %v, want remediation plot_course", payload.Error.Details)
	}
}

func TestTextTools(t *testing.T) {
	h, _ := testSetup(t)

	tests := []struct {
		tool string
		want string
	}{
		{"launch_routine", "STARSHIP LAUNCH SEQUENCE"},
		{"landing_routine", "STARSHIP LANDING SEQUENCE"},
		{"read_starlog_flight_config_instruction_manual", "FLIGHT CONFIG INSTRUCTION MANUAL"},
		{"populate_default_flight_configs", "Auto-populated 1"},
		{"fly", "meta (1)"},
	}
	for _, tt := range tests {
		r := invoke(t, h, tt.tool, map[string]any{"path": "/p"})
		if r.IsError {
			t.Fatalf("%s: %s", tt.tool, resultText(t, r))
		}
		if text := resultText(t, r); !strings.Contains(text, tt.want) {
			t.Errorf("%s output missing %q:\n%s", tt.tool, tt.want, text)
		}
	}
}

func TestAllToolNames(t *testing.T) {
	names := AllToolNames()

	if len(names) != 16 {
		t.Errorf("AllToolNames() returned %d names, want 16", len(names))
	}

	unknown := ValidateDisabledTools(names)
	if len(unknown) != 0 {
		t.Errorf("AllToolNames() returned invalid names: %v", unknown)
	}
	for name, entry := range toolRegistry {
		if entry.def.Name != name {
			t.Errorf("tool registered as %q is defined as %q", name, entry.def.Name)
		}
	}
}

func TestNewServer_WarnsUnknownDisabledTools(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.DisabledTools = []string{"fly", "warp_drive"}
	logs := &bytes.Buffer{}

	if s := NewServer(cfg, slog.New(slog.NewTextHandler(logs, nil)), "test"); s == nil {
		t.Fatal("NewServer returned nil")
	}
	if !strings.Contains(logs.String(), "tools=[warp_drive]") {
		t.Errorf("expected a warning naming only warp_drive, got %q", logs.String())
	}
}

func TestErrorResult_InternalDoesNotExposeDetails(t *testing.T) {
	h, logs := testSetup(t)
	r := h.errorResult(makeRequest("x", nil), errors.NewInternal(fmt.Errorf("open /tmp/secret.db: permission denied")))

	if code := errorCode(t, r); code != string(errors.ErrInternal) {
		t.Fatalf("code=%v, want %v", code, errors.ErrInternal)
	}
	if strings.Contains(resultText(t, r), "secret.db") {
		t.Fatal("internal error leaked its cause")
	}
	if !strings.Contains(logs.String(), "secret.db") {
		t.Error("internal error cause should be logged")
	}
}

func TestErrorResult_WrappedErrorPreservesCode(t *testing.T) {
	h, _ := testSetup(t)
	wrapped := fmt.Errorf("capture: %w", errors.NewNoActiveMission())

	if code := errorCode(t, h.errorResult(makeRequest("x", nil), wrapped)); code != string(errors.ErrNoActiveMission) {
		t.Errorf("code = %s, want %s", code, errors.ErrNoActiveMission)
	}
}
