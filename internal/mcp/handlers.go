package mcp

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hpungsan/starship/internal/errors"
	"github.com/hpungsan/starship/internal/knowledge"
	"github.com/hpungsan/starship/internal/ops"
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	logger *slog.Logger
	open   func() (*ops.Env, error)
}

// NewHandlers creates a new Handlers instance. Services are resolved from
// the environment on every call.
func NewHandlers(logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{
		logger: logger,
		open:   func() (*ops.Env, error) { return ops.Load(logger) },
	}
}

// noArgs is the request type of tools without arguments.
type noArgs struct{}

// call decodes the request into T, opens an Env and runs fn. A missing
// storage root fails before the arguments are looked at.
func call[T any](h *Handlers, req mcp.CallToolRequest, fn func(*ops.Env, T) (any, error)) *mcp.CallToolResult {
	env, err := h.open()
	if err != nil {
		return h.errorResult(req, err)
	}
	defer func() {
		if err := env.Close(); err != nil {
			h.logger.Warn("closing registry", "err", err)
		}
	}()

	input, err := decode[T](req)
	if err != nil {
		return h.errorResult(req, errors.NewInvalidRequest(err.Error()))
	}
	result, err := fn(env, input)
	if err != nil {
		return h.errorResult(req, err)
	}
	if text, ok := result.(*ops.TextOutput); ok {
		return mcp.NewToolResultText(text.Text)
	}
	res, err := successResult(result)
	if err != nil {
		return h.errorResult(req, errors.NewInternal(err))
	}
	return res
}

// HandleLaunch handles the launch_routine tool call.
func (h *Handlers) HandleLaunch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return call(h, req, func(env *ops.Env, in ops.RoutineInput) (any, error) {
		return ops.Launch(env, in), nil
	}), nil
}

// HandleLanding handles the landing_routine tool call.
func (h *Handlers) HandleLanding(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return call(h, req, func(env *ops.Env, in ops.RoutineInput) (any, error) {
		return ops.Landing(env, in), nil
	}), nil
}

// HandleFly handles the fly tool call. The result is the rendered listing.
func (h *Handlers) HandleFly(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return call(h, req, func(env *ops.Env, in ops.FlyInput) (any, error) {
		out, err := ops.Fly(env, in)
		if err != nil {
			return nil, err
		}
		return &ops.TextOutput{Text: out.Text}, nil
	}), nil
}

// HandleAddFlightConfig handles the add_flight_config tool call.
func (h *Handlers) HandleAddFlightConfig(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return call(h, req, func(env *ops.Env, in ops.FlightConfigInput) (any, error) {
		return ops.AddFlightConfig(env, in)
	}), nil
}

// HandleUpdateFlightConfig handles the update_flight_config tool call.
func (h *Handlers) HandleUpdateFlightConfig(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return call(h, req, func(env *ops.Env, in ops.FlightConfigInput) (any, error) {
		return ops.UpdateFlightConfig(env, in)
	}), nil
}

// HandleDeleteFlightConfig handles the delete_flight_config tool call.
func (h *Handlers) HandleDeleteFlightConfig(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return call(h, req, func(env *ops.Env, in ops.FlightConfigInput) (any, error) {
		return ops.DeleteFlightConfig(env, in)
	}), nil
}

// HandlePopulateDefaults handles the populate_default_flight_configs tool call.
func (h *Handlers) HandlePopulateDefaults(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return call(h, req, func(env *ops.Env, _ noArgs) (any, error) {
		out, err := ops.PopulateDefaults(env)
		if err != nil {
			return nil, err
		}
		return &ops.TextOutput{Text: out.Render()}, nil
	}), nil
}

// HandleManual handles the read_starlog_flight_config_instruction_manual tool call.
func (h *Handlers) HandleManual(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return call(h, req, func(*ops.Env, noArgs) (any, error) {
		return ops.InstructionManual(), nil
	}), nil
}

// HandlePlotCourse handles the plot_course tool call.
func (h *Handlers) HandlePlotCourse(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return call(h, req, func(env *ops.Env, in ops.PlotCourseInput) (any, error) {
		return ops.PlotCourse(env, in)
	}), nil
}

// HandleGetCourseState handles the get_course_state tool call.
func (h *Handlers) HandleGetCourseState(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return call(h, req, func(env *ops.Env, _ noArgs) (any, error) {
		return ops.GetCourseState(env)
	}), nil
}

// HandleContinueCourse handles the continue_course tool call.
func (h *Handlers) HandleContinueCourse(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return call(h, req, func(env *ops.Env, _ noArgs) (any, error) {
		return ops.ContinueCourse(env)
	}), nil
}

// HandleOrientCourse handles the orient_course tool call.
func (h *Handlers) HandleOrientCourse(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return call(h, req, func(env *ops.Env, _ noArgs) (any, error) {
		return ops.OrientCourse(env)
	}), nil
}

// HandleStartSession handles the start_session tool call.
func (h *Handlers) HandleStartSession(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return call(h, req, func(env *ops.Env, in ops.SessionInput) (any, error) {
		return ops.StartSession(env, in)
	}), nil
}

// HandleEndSession handles the end_session tool call.
func (h *Handlers) HandleEndSession(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return call(h, req, func(env *ops.Env, in ops.SessionInput) (any, error) {
		return ops.EndSession(env, in)
	}), nil
}

// HandleKnowledgeUpdate handles the knowledge_update tool call.
func (h *Handlers) HandleKnowledgeUpdate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return call(h, req, func(env *ops.Env, in knowledge.CaptureInput) (any, error) {
		return ops.KnowledgeUpdate(env, in)
	}), nil
}

// HandleSessionReview handles the session_review tool call.
func (h *Handlers) HandleSessionReview(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return call(h, req, func(env *ops.Env, in ops.SessionReviewInput) (any, error) {
		return ops.SessionReview(env, in)
	}), nil
}

// Result helpers

// errorResult creates an MCP error result from any error.
// Uses IsError: true so MCP clients recognize failures properly.
// Details of internal errors are not exposed.
func (h *Handlers) errorResult(req mcp.CallToolRequest, err error) *mcp.CallToolResult {
	var payload map[string]any

	if se, ok := errors.As(err); ok && se.Code != errors.ErrInternal {
		errorObj := map[string]any{
			"code":    se.Code,
			"message": se.Message,
			"status":  se.Status,
		}
		if se.Details != nil {
			errorObj["details"] = se.Details
		}
		payload = map[string]any{"error": errorObj}
		h.logger.Debug("tool failed", "tool", req.Params.Name, "code", se.Code, "err", err)
	} else {
		payload = map[string]any{
			"error": map[string]any{
				"code":    errors.ErrInternal,
				"message": "an internal error occurred",
				"status":  500,
			},
		}
		h.logger.Error("tool failed", "tool", req.Params.Name, "err", err)
	}

	content, _ := json.Marshal(payload)
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
