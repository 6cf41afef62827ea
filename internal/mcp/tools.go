package mcp

import "github.com/mark3labs/mcp-go/mcp"

var starlogPathOpt = mcp.WithString("starlog_path",
	mcp.Description("Optional STARLOG project path"),
)

var launchToolDef = mcp.NewTool("launch_routine",
	mcp.WithDescription("Start a STARSHIP mission: adopt the captain persona. "+
		"Populates missing default flight configs if the registry is initialized."),
	starlogPathOpt,
)

var landingToolDef = mcp.NewTool("landing_routine",
	mcp.WithDescription("Close a STARSHIP mission and return to base identity."),
	starlogPathOpt,
)

var flyToolDef = mcp.NewTool("fly",
	mcp.WithDescription("Browse flight configs. Without a category lists categories with counts; "+
		"with one lists that category's configs, paginated."),
	mcp.WithString("path", mcp.Required(), mcp.Description("Project path")),
	mcp.WithNumber("page", mcp.Description("1-based page within the category")),
	mcp.WithString("category", mcp.Description("Category to list")),
	mcp.WithBoolean("this_project_only", mcp.Description("Only configs registered from this path")),
)

var configDataOpt = mcp.WithObject("config_data",
	mcp.Required(),
	mcp.Description("Flight config body"),
	mcp.Properties(map[string]any{
		"description":        map[string]any{"type": "string"},
		"work_loop_subchain": map[string]any{"type": "string", "description": "Path to the PayloadDiscovery JSON"},
		"sequence": map[string]any{
			"type":        "array",
			"items":       map[string]any{"type": "string"},
			"description": "Ordered flight config names for a composite config",
		},
		"category": map[string]any{"type": "string"},
	}),
)

var addFlightConfigToolDef = mcp.NewTool("add_flight_config",
	mcp.WithDescription("Register a flight config. The name must end with _flight_config."),
	mcp.WithString("path", mcp.Required(), mcp.Description("Project path")),
	mcp.WithString("name", mcp.Required(), mcp.Description("Config name ending in _flight_config")),
	configDataOpt,
	mcp.WithString("category", mcp.Description("Category (default: general)")),
)

var updateFlightConfigToolDef = mcp.NewTool("update_flight_config",
	mcp.WithDescription("Merge config data into an existing flight config."),
	mcp.WithString("path", mcp.Required(), mcp.Description("Project path")),
	mcp.WithString("name", mcp.Required(), mcp.Description("Config name")),
	configDataOpt,
)

var deleteFlightConfigToolDef = mcp.NewTool("delete_flight_config",
	mcp.WithDescription("Delete a flight config by name."),
	mcp.WithString("path", mcp.Required(), mcp.Description("Project path")),
	mcp.WithString("name", mcp.Required(), mcp.Description("Config name")),
)

var populateDefaultsToolDef = mcp.NewTool("populate_default_flight_configs",
	mcp.WithDescription("Register the built-in flight configs that are not registered yet."),
)

var manualToolDef = mcp.NewTool("read_starlog_flight_config_instruction_manual",
	mcp.WithDescription("Read the flight config schema, naming rules and examples."),
)

var plotCourseToolDef = mcp.NewTool("plot_course",
	mcp.WithDescription("Plot a new course over one or more projects. Supersedes the current course "+
		"and creates a mission."),
	mcp.WithArray("projects",
		mcp.Required(),
		mcp.Description("Project paths (a single string is accepted)"),
		mcp.Items(map[string]any{"type": "string"}),
	),
	mcp.WithString("description", mcp.Required(), mcp.Description("What the course is for")),
	mcp.WithString("domain", mcp.Description("Domain (default: HOME)")),
	mcp.WithString("subdomain", mcp.Description("Subdomain")),
	mcp.WithString("process", mcp.Description("Process")),
)

var getCourseStateToolDef = mcp.NewTool("get_course_state",
	mcp.WithDescription("Read the current course. Mode is HOME until a course is plotted, then JOURNEY."),
)

var continueCourseToolDef = mcp.NewTool("continue_course",
	mcp.WithDescription("Resume the plotted course after a context compaction. Clears the compaction flag; "+
		"re-orient before using other tools."),
)

var orientCourseToolDef = mcp.NewTool("orient_course",
	mcp.WithDescription("Record that project context has been loaded for the plotted course."),
)

var startSessionToolDef = mcp.NewTool("start_session",
	mcp.WithDescription("Open a STARLOG session. Only one session may be open per project."),
	mcp.WithString("project", mcp.Description("Project path (default: the course's first project)")),
	mcp.WithString("goal", mcp.Description("Session goal")),
)

var endSessionToolDef = mcp.NewTool("end_session",
	mcp.WithDescription("Close the open STARLOG session."),
	mcp.WithString("project", mcp.Description("Project path (default: the course's first project)")),
	mcp.WithString("summary", mcp.Description("Session summary")),
)

var knowledgeUpdateToolDef = mcp.NewTool("knowledge_update",
	mcp.WithDescription("Capture a repeatable workflow from this session as a PayloadDiscovery document "+
		"and register it as a primitive flight config. Each call creates a new capture."),
	mcp.WithString("title", mcp.Required(), mcp.Description("Workflow title")),
	mcp.WithArray("steps",
		mcp.Required(),
		mcp.Description("Ordered steps"),
		mcp.Items(map[string]any{
			"type": "object",
			"properties": map[string]any{
				"title":   map[string]any{"type": "string"},
				"content": map[string]any{"type": "string"},
			},
			"required": []string{"title"},
		}),
	),
	mcp.WithString("subdomain", mcp.Description("Subdomain classification")),
	mcp.WithString("process", mcp.Description("Process classification")),
	mcp.WithString("context", mcp.Description("What the workflow is for (document description)")),
)

var sessionReviewToolDef = mcp.NewTool("session_review",
	mcp.WithDescription("Review the knowledge captured in the active session and draft a composite flight config."),
	mcp.WithString("context", mcp.Description("Review context")),
	mcp.WithBoolean("was_compacted", mcp.Description("Context was compacted during the session")),
	mcp.WithString("format", mcp.Description("markdown (default) or html")),
)
