package ops

import (
	"strings"

	"github.com/hpungsan/starship/internal/course"
	"github.com/hpungsan/starship/internal/errors"
	"github.com/hpungsan/starship/internal/session"
)

// SessionInput contains parameters for StartSession and EndSession.
// Project defaults to the course's primary project.
type SessionInput struct {
	Project string `json:"project,omitempty"`
	Goal    string `json:"goal,omitempty"`
	Summary string `json:"summary,omitempty"`
}

// SessionOutput is returned by StartSession and EndSession.
type SessionOutput struct {
	Session *session.Session `json:"session"`
	Course  *course.Course   `json:"course,omitempty"`
}

func resolveProject(env *Env, project string) (string, error) {
	if p := strings.TrimSpace(project); p != "" {
		return p, nil
	}
	c, err := env.Tracker.Current()
	if err != nil {
		return "", err
	}
	if c.Project() == "" {
		return "", errors.NewInvalidRequest("project is required when no course is plotted")
	}
	return c.Project(), nil
}

// StartSession opens a session and marks the session and mission active
// on the plotted course.
func StartSession(env *Env, input SessionInput) (*SessionOutput, error) {
	project, err := resolveProject(env, input.Project)
	if err != nil {
		return nil, err
	}
	s, err := env.Sessions.Start(project, input.Goal)
	if err != nil {
		return nil, err
	}
	c, err := env.Tracker.Touch(func(c *course.Course) {
		c.SessionActive = true
		c.MissionActive = true
	})
	if err != nil {
		return nil, err
	}
	env.Logger.Info("session started", "session_id", s.ID, "project", project)
	return &SessionOutput{Session: s, Course: c}, nil
}

// EndSession closes the open session of the project.
func EndSession(env *Env, input SessionInput) (*SessionOutput, error) {
	project, err := resolveProject(env, input.Project)
	if err != nil {
		return nil, err
	}
	s, err := env.Sessions.End(project, input.Summary)
	if err != nil {
		return nil, err
	}
	c, err := env.Tracker.Touch(func(c *course.Course) {
		c.SessionActive = false
		c.MissionActive = false
	})
	if err != nil {
		return nil, err
	}
	env.Logger.Info("session ended", "session_id", s.ID, "project", project)
	return &SessionOutput{Session: s, Course: c}, nil
}
