package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/hpungsan/starship/internal/errors"
	"github.com/hpungsan/starship/internal/knowledge"
	"github.com/hpungsan/starship/internal/ops"
	"github.com/hpungsan/starship/internal/payload"
)

// opener resolves the services for one command.
type opener func() (*ops.Env, error)

// newCLIApp creates the CLI application with all commands.
func newCLIApp(open opener) *cli.App {
	app := &cli.App{
		Name:    "starship",
		Usage:   "Mission course tracking and session knowledge capture",
		Version: Version,
		Commands: []*cli.Command{
			launchCmd(open),
			landCmd(open),
			plotCmd(open),
			stateCmd(open),
			continueCmd(open),
			orientCmd(open),
			compactedCmd(open),
			sessionCmd(open),
			captureCmd(open),
			reviewCmd(open),
			flyCmd(open),
			populateDefaultsCmd(open),
			manualCmd(),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// withEnv opens an Env, runs fn and writes its result to stdout.
func withEnv(c *cli.Context, open opener, fn func(*ops.Env) (any, error)) error {
	env, err := open()
	if err != nil {
		return outputError(err)
	}
	defer env.Close()

	result, err := fn(env)
	if err != nil {
		return outputError(err)
	}
	if text, ok := result.(*ops.TextOutput); ok {
		_, err := fmt.Fprintln(c.App.Writer, text.Text)
		return err
	}
	return outputJSON(c.App.Writer, result)
}

func launchCmd(open opener) *cli.Command {
	return &cli.Command{
		Name:  "launch",
		Usage: "Run the launch routine",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "starlog-path", Usage: "STARLOG project path"},
		},
		Action: func(c *cli.Context) error {
			return withEnv(c, open, func(env *ops.Env) (any, error) {
				return ops.Launch(env, ops.RoutineInput{StarlogPath: c.String("starlog-path")}), nil
			})
		},
	}
}

func landCmd(open opener) *cli.Command {
	return &cli.Command{
		Name:  "land",
		Usage: "Run the landing routine",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "starlog-path", Usage: "STARLOG project path"},
		},
		Action: func(c *cli.Context) error {
			return withEnv(c, open, func(env *ops.Env) (any, error) {
				return ops.Landing(env, ops.RoutineInput{StarlogPath: c.String("starlog-path")}), nil
			})
		},
	}
}

// plotCmd creates the plot command.
func plotCmd(open opener) *cli.Command {
	return &cli.Command{
		Name:      "plot",
		Usage:     "Plot a new course (superseding the current one)",
		ArgsUsage: "<project>...",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "description", Aliases: []string{"d"}, Required: true, Usage: "What the course is for"},
			&cli.StringFlag{Name: "domain", Usage: "Domain (default: HOME)"},
			&cli.StringFlag{Name: "subdomain", Usage: "Subdomain"},
			&cli.StringFlag{Name: "process", Usage: "Process"},
		},
		Action: func(c *cli.Context) error {
			return withEnv(c, open, func(env *ops.Env) (any, error) {
				return ops.PlotCourse(env, ops.PlotCourseInput{
					Projects:    c.Args().Slice(),
					Description: c.String("description"),
					Domain:      c.String("domain"),
					Subdomain:   c.String("subdomain"),
					Process:     c.String("process"),
				})
			})
		},
	}
}

func stateCmd(open opener) *cli.Command {
	return &cli.Command{
		Name:  "state",
		Usage: "Show the current course",
		Action: func(c *cli.Context) error {
			return withEnv(c, open, func(env *ops.Env) (any, error) {
				return ops.GetCourseState(env)
			})
		},
	}
}

func continueCmd(open opener) *cli.Command {
	return &cli.Command{
		Name:  "continue",
		Usage: "Resume the course after a context compaction",
		Action: func(c *cli.Context) error {
			return withEnv(c, open, func(env *ops.Env) (any, error) {
				return ops.ContinueCourse(env)
			})
		},
	}
}

func orientCmd(open opener) *cli.Command {
	return &cli.Command{
		Name:  "orient",
		Usage: "Record that project context was loaded",
		Action: func(c *cli.Context) error {
			return withEnv(c, open, func(env *ops.Env) (any, error) {
				return ops.OrientCourse(env)
			})
		},
	}
}

func compactedCmd(open opener) *cli.Command {
	return &cli.Command{
		Name:  "compacted",
		Usage: "Flag the course as interrupted by a context compaction",
		Action: func(c *cli.Context) error {
			return withEnv(c, open, func(env *ops.Env) (any, error) {
				return ops.MarkCompacted(env)
			})
		},
	}
}

// sessionCmd creates the session command with start and end subcommands.
func sessionCmd(open opener) *cli.Command {
	projectFlag := func() cli.Flag {
		return &cli.StringFlag{Name: "project", Aliases: []string{"p"}, Usage: "Project path (default: the course's first project)"}
	}
	return &cli.Command{
		Name:  "session",
		Usage: "Open or close a STARLOG session",
		Subcommands: []*cli.Command{
			{
				Name:  "start",
				Usage: "Open a session",
				Flags: []cli.Flag{
					projectFlag(),
					&cli.StringFlag{Name: "goal", Aliases: []string{"g"}, Usage: "Session goal"},
				},
				Action: func(c *cli.Context) error {
					return withEnv(c, open, func(env *ops.Env) (any, error) {
						return ops.StartSession(env, ops.SessionInput{Project: c.String("project"), Goal: c.String("goal")})
					})
				},
			},
			{
				Name:  "end",
				Usage: "Close the open session",
				Flags: []cli.Flag{
					projectFlag(),
					&cli.StringFlag{Name: "summary", Aliases: []string{"s"}, Usage: "Session summary"},
				},
				Action: func(c *cli.Context) error {
					return withEnv(c, open, func(env *ops.Env) (any, error) {
						return ops.EndSession(env, ops.SessionInput{Project: c.String("project"), Summary: c.String("summary")})
					})
				},
			},
		},
	}
}

// captureCmd creates the capture command.
func captureCmd(open opener) *cli.Command {
	return &cli.Command{
		Name:  "capture",
		Usage: "Capture workflow knowledge (reads the steps JSON array from stdin)",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "title", Aliases: []string{"t"}, Required: true, Usage: "Workflow title"},
			&cli.StringFlag{Name: "subdomain", Usage: "Subdomain classification"},
			&cli.StringFlag{Name: "process", Usage: "Process classification"},
			&cli.StringFlag{Name: "context", Usage: "What the workflow is for"},
		},
		Action: func(c *cli.Context) error {
			steps, err := readSteps(c.App.Reader)
			if err != nil {
				return outputError(err)
			}
			return withEnv(c, open, func(env *ops.Env) (any, error) {
				return ops.KnowledgeUpdate(env, knowledge.CaptureInput{
					Title:     c.String("title"),
					Steps:     steps,
					Subdomain: c.String("subdomain"),
					Process:   c.String("process"),
					Context:   c.String("context"),
				})
			})
		},
	}
}

// reviewCmd creates the review command.
func reviewCmd(open opener) *cli.Command {
	return &cli.Command{
		Name:  "review",
		Usage: "Review the knowledge captured in the active session",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "context", Usage: "Review context"},
			&cli.BoolFlag{Name: "was-compacted", Usage: "Context was compacted during the session"},
			&cli.BoolFlag{Name: "html", Usage: "Render the report as HTML"},
			&cli.BoolFlag{Name: "json", Usage: "Print the full review as JSON"},
		},
		Action: func(c *cli.Context) error {
			input := ops.SessionReviewInput{
				Context:      c.String("context"),
				WasCompacted: c.Bool("was-compacted"),
			}
			if c.Bool("html") {
				input.Format = ops.FormatHTML
			}
			return withEnv(c, open, func(env *ops.Env) (any, error) {
				out, err := ops.SessionReview(env, input)
				if err != nil || c.Bool("json") {
					return out, err
				}
				return &ops.TextOutput{Text: out.Report}, nil
			})
		},
	}
}

// flyCmd creates the fly command.
func flyCmd(open opener) *cli.Command {
	return &cli.Command{
		Name:      "fly",
		Usage:     "Browse flight configs",
		ArgsUsage: "[category]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "path", Usage: "Project path (default: current directory)"},
			&cli.IntFlag{Name: "page", Usage: "1-based page within the category"},
			&cli.BoolFlag{Name: "this-project-only", Usage: "Only configs registered from this path"},
		},
		Action: func(c *cli.Context) error {
			path := c.String("path")
			if path == "" {
				wd, err := os.Getwd()
				if err != nil {
					return outputError(errors.NewInternal(err))
				}
				path = wd
			}
			return withEnv(c, open, func(env *ops.Env) (any, error) {
				out, err := ops.Fly(env, ops.FlyInput{
					Path:            path,
					Page:            c.Int("page"),
					Category:        c.Args().First(),
					ThisProjectOnly: c.Bool("this-project-only"),
				})
				if err != nil {
					return nil, err
				}
				return &ops.TextOutput{Text: out.Text}, nil
			})
		},
	}
}

func populateDefaultsCmd(open opener) *cli.Command {
	return &cli.Command{
		Name:  "populate-defaults",
		Usage: "Register the built-in flight configs",
		Action: func(c *cli.Context) error {
			return withEnv(c, open, func(env *ops.Env) (any, error) {
				out, err := ops.PopulateDefaults(env)
				if err != nil {
					return nil, err
				}
				return &ops.TextOutput{Text: out.Render()}, nil
			})
		},
	}
}

func manualCmd() *cli.Command {
	return &cli.Command{
		Name:  "manual",
		Usage: "Print the flight config instruction manual",
		Action: func(c *cli.Context) error {
			_, err := fmt.Fprintln(c.App.Writer, ops.InstructionManual().Text)
			return err
		},
	}
}

// Helper functions

// outputJSON marshals result to w as JSON.
func outputJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats err as a JSON error object and exits non-zero.
func outputError(err error) error {
	obj := map[string]any{"code": errors.ErrInternal, "message": err.Error()}
	if se, ok := errors.As(err); ok {
		obj = map[string]any{"code": se.Code, "message": se.Message}
		if se.Details != nil {
			obj["details"] = se.Details
		}
	}
	data, _ := json.Marshal(map[string]any{"error": obj})
	return cli.Exit(string(data), 1)
}

// readSteps decodes the ordered steps array from r.
func readSteps(r io.Reader) ([]payload.Step, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	if strings.TrimSpace(string(data)) == "" {
		return nil, errors.NewInvalidRequest("steps JSON must be piped via stdin")
	}
	var steps []payload.Step
	if err := json.Unmarshal(data, &steps); err != nil {
		return nil, errors.NewInvalidRequest(fmt.Sprintf("invalid steps JSON: %v", err))
	}
	return steps, nil
}
