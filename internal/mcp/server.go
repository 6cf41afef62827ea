package mcp

import (
	"log/slog"
	"sort"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/hpungsan/starship/internal/config"
)

// toolEntry pairs a tool definition with a handler factory.
type toolEntry struct {
	def     mcp.Tool
	handler func(*Handlers) server.ToolHandlerFunc
}

// toolRegistry maps tool names to their definitions and handler factories.
var toolRegistry = map[string]toolEntry{
	"launch_routine": {
		def:     launchToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleLaunch },
	},
	"landing_routine": {
		def:     landingToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleLanding },
	},
	"fly": {
		def:     flyToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleFly },
	},
	"add_flight_config": {
		def:     addFlightConfigToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleAddFlightConfig },
	},
	"update_flight_config": {
		def:     updateFlightConfigToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleUpdateFlightConfig },
	},
	"delete_flight_config": {
		def:     deleteFlightConfigToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleDeleteFlightConfig },
	},
	"populate_default_flight_configs": {
		def:     populateDefaultsToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandlePopulateDefaults },
	},
	"read_starlog_flight_config_instruction_manual": {
		def:     manualToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleManual },
	},
	"plot_course": {
		def:     plotCourseToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandlePlotCourse },
	},
	"get_course_state": {
		def:     getCourseStateToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleGetCourseState },
	},
	"continue_course": {
		def:     continueCourseToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleContinueCourse },
	},
	"orient_course": {
		def:     orientCourseToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleOrientCourse },
	},
	"start_session": {
		def:     startSessionToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleStartSession },
	},
	"end_session": {
		def:     endSessionToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleEndSession },
	},
	"knowledge_update": {
		def:     knowledgeUpdateToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleKnowledgeUpdate },
	},
	"session_review": {
		def:     sessionReviewToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSessionReview },
	},
}

// AllToolNames returns every tool name, sorted.
func AllToolNames() []string {
	names := make([]string, 0, len(toolRegistry))
	for name := range toolRegistry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ValidateDisabledTools returns a list of unknown tool names from the given list.
func ValidateDisabledTools(names []string) []string {
	unknown := make([]string, 0)
	for _, name := range names {
		if _, ok := toolRegistry[name]; !ok {
			unknown = append(unknown, name)
		}
	}
	return unknown
}

// NewServer creates a new MCP server with STARSHIP tools registered.
// Tools listed in cfg.DisabledTools are excluded from registration.
func NewServer(cfg *config.Config, logger *slog.Logger, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"starship",
		version,
		server.WithToolCapabilities(true),
	)

	h := NewHandlers(logger)

	disabled := make(map[string]bool, len(cfg.DisabledTools))
	for _, name := range cfg.DisabledTools {
		disabled[name] = true
	}
	if unknown := ValidateDisabledTools(cfg.DisabledTools); len(unknown) > 0 {
		h.logger.Warn("unknown tools in disabled_tools", "tools", unknown)
	}

	for name, entry := range toolRegistry {
		if disabled[name] {
			continue
		}
		s.AddTool(entry.def, entry.handler(h))
	}

	return s
}

// Run starts the MCP server using stdio transport.
func Run(cfg *config.Config, logger *slog.Logger, version string) error {
	s := NewServer(cfg, logger, version)
	return server.ServeStdio(s)
}
