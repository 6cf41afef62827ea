// Package ops implements the STARSHIP operations shared by the MCP server
// and the CLI. Each operation takes an Env and a typed input and returns a
// typed output or a *errors.StarshipError.
package ops

import (
	"log/slog"

	"github.com/hpungsan/starship/internal/config"
	"github.com/hpungsan/starship/internal/course"
	"github.com/hpungsan/starship/internal/flightconfig"
	"github.com/hpungsan/starship/internal/knowledge"
	"github.com/hpungsan/starship/internal/mission"
	"github.com/hpungsan/starship/internal/registry"
	"github.com/hpungsan/starship/internal/session"
)

// Env wires every service over one storage root.
type Env struct {
	Config   *config.Config
	Logger   *slog.Logger
	Registry registry.Registry
	Tracker  *course.Tracker
	Sessions *session.RegistryLog
	Bridge   *flightconfig.LocalBridge
	Recorder *knowledge.Recorder
}

// Open builds an Env for cfg. The caller must Close it.
func Open(cfg *config.Config, logger *slog.Logger) (*Env, error) {
	if logger == nil {
		logger = slog.Default()
	}
	reg, err := registry.Open(cfg)
	if err != nil {
		return nil, err
	}

	repo := course.NewFileRepository(cfg.Root)
	tracker := course.NewTracker(course.Deps{
		Repo:     repo,
		History:  course.NewFileHistory(cfg.Root),
		Missions: mission.NewRegistryStore(reg),
		Lock:     repo.Locker(),
		Logger:   logger,
	})
	sessions := session.NewRegistryLog(reg)
	bridge := flightconfig.NewLocalBridge(reg, flightconfig.Options{
		PageSize:        cfg.FlyPageSize,
		DefaultCategory: cfg.DefaultCategory,
	})

	return &Env{
		Config:   cfg,
		Logger:   logger,
		Registry: reg,
		Tracker:  tracker,
		Sessions: sessions,
		Bridge:   bridge,
		Recorder: knowledge.NewRecorder(knowledge.Deps{
			Root:     cfg.Root,
			Courses:  tracker,
			Sessions: sessions,
			Bridge:   bridge,
			Registry: reg,
			Logger:   logger,
		}),
	}, nil
}

// Load resolves the storage root and config from the environment and opens
// an Env. A missing root is a CONFIGURATION_ERROR.
func Load(logger *slog.Logger) (*Env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return Open(cfg, logger)
}

// Close releases the registry.
func (e *Env) Close() error {
	return e.Registry.Close()
}

// TextOutput wraps operations whose result is narrative text.
type TextOutput struct {
	Text string `json:"text"`
}
