package ops

import (
	"strings"

	"github.com/hpungsan/starship/internal/course"
	"github.com/hpungsan/starship/internal/errors"
	"github.com/hpungsan/starship/internal/flightconfig"
	"github.com/hpungsan/starship/internal/narrative"
	"github.com/hpungsan/starship/internal/registry"
)

// FlyInput contains parameters for Fly.
type FlyInput struct {
	Path            string `json:"path"`
	Page            int    `json:"page,omitempty"`
	Category        string `json:"category,omitempty"`
	ThisProjectOnly bool   `json:"this_project_only,omitempty"`
}

// FlyOutput is returned by Fly.
type FlyOutput struct {
	*flightconfig.BrowseOutput
	Text string `json:"text"`
}

// Fly browses flight configs and records the call on the plotted course.
// Browsing a category also marks a flight as selected.
func Fly(env *Env, input FlyInput) (*FlyOutput, error) {
	if strings.TrimSpace(input.Path) == "" {
		return nil, errors.NewInvalidRequest("path is required")
	}
	out, err := env.Bridge.Browse(flightconfig.BrowseInput{
		Path:            input.Path,
		Page:            input.Page,
		Category:        input.Category,
		ThisProjectOnly: input.ThisProjectOnly,
	})
	if err != nil {
		return nil, err
	}
	if _, err := env.Tracker.Touch(func(c *course.Course) {
		c.FlyCalled = true
		if out.Category != "" {
			c.FlightSelected = true
		}
	}); err != nil {
		return nil, err
	}
	return &FlyOutput{BrowseOutput: out, Text: out.Render()}, nil
}

// FlightConfigInput contains parameters for the add, update and delete
// flight config operations.
type FlightConfigInput struct {
	Path       string                  `json:"path"`
	Name       string                  `json:"name"`
	ConfigData flightconfig.ConfigData `json:"config_data"`
	Category   string                  `json:"category,omitempty"`
}

// FlightConfigOutput is returned by the add, update and delete operations.
type FlightConfigOutput struct {
	Entry   *flightconfig.Entry `json:"flight_config"`
	Message string              `json:"message"`
}

// AddFlightConfig registers a flight config.
func AddFlightConfig(env *Env, input FlightConfigInput) (*FlightConfigOutput, error) {
	e, err := env.Bridge.Add(input.Path, input.Name, input.ConfigData, input.Category)
	if err != nil {
		return nil, err
	}
	return &FlightConfigOutput{Entry: e, Message: "✅ Added flight config " + e.Name + " (" + e.Category + ")"}, nil
}

// UpdateFlightConfig merges config data into an existing flight config.
func UpdateFlightConfig(env *Env, input FlightConfigInput) (*FlightConfigOutput, error) {
	data := input.ConfigData
	if data.Category == "" {
		data.Category = input.Category
	}
	e, err := env.Bridge.Update(input.Path, input.Name, data)
	if err != nil {
		return nil, err
	}
	return &FlightConfigOutput{Entry: e, Message: "✅ Updated flight config " + e.Name}, nil
}

// DeleteFlightConfig removes a flight config by name.
func DeleteFlightConfig(env *Env, input FlightConfigInput) (*FlightConfigOutput, error) {
	e, err := env.Bridge.Delete(input.Path, input.Name)
	if err != nil {
		return nil, err
	}
	return &FlightConfigOutput{Entry: e, Message: "🗑️ Deleted flight config " + e.Name}, nil
}

// PopulateDefaults seeds the built-in flight configs.
func PopulateDefaults(env *Env) (*flightconfig.PopulateOutput, error) {
	return env.Bridge.PopulateDefaults(env.Config.Root)
}

// InstructionManual returns the flight config manual.
func InstructionManual() *TextOutput {
	return &TextOutput{Text: flightconfig.InstructionManual}
}

// RoutineInput contains parameters for Launch and Landing.
type RoutineInput struct {
	StarlogPath string `json:"starlog_path,omitempty"`
}

// Launch returns the launch narrative. If the flight config registry was
// already initialized, missing defaults are populated first; a failure
// there is logged and does not fail the launch.
func Launch(env *Env, input RoutineInput) *TextOutput {
	env.Logger.Info("launch routine", "starlog_path", input.StarlogPath)
	if ok, err := env.Registry.Exists(registry.FlightConfigs); err != nil {
		env.Logger.Warn("flight config registry check failed", "err", err)
	} else if ok {
		out, err := env.Bridge.PopulateDefaults(env.Config.Root)
		if err != nil {
			env.Logger.Warn("auto-populate flight configs failed", "err", err)
		} else {
			env.Logger.Info("auto-populate flight configs", "populated", out.Populated, "skipped", out.Skipped)
		}
	}
	return &TextOutput{Text: narrative.Launch}
}

// Landing returns the landing narrative.
func Landing(env *Env, input RoutineInput) *TextOutput {
	env.Logger.Info("landing routine", "starlog_path", input.StarlogPath)
	return &TextOutput{Text: narrative.Landing}
}
