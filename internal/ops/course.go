package ops

import (
	"encoding/json"
	"fmt"

	"github.com/hpungsan/starship/internal/course"
)

// StringList decodes from either a JSON string or an array of strings.
type StringList []string

// UnmarshalJSON implements json.Unmarshaler.
func (l *StringList) UnmarshalJSON(data []byte) error {
	var one string
	if err := json.Unmarshal(data, &one); err == nil {
		*l = StringList{one}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return fmt.Errorf("expected a string or an array of strings")
	}
	*l = many
	return nil
}

// PlotCourseInput contains parameters for PlotCourse.
type PlotCourseInput struct {
	Projects    StringList `json:"projects"`
	Description string     `json:"description"`
	Domain      string     `json:"domain,omitempty"`
	Subdomain   string     `json:"subdomain,omitempty"`
	Process     string     `json:"process,omitempty"`
}

// PlotCourseOutput is returned by PlotCourse.
type PlotCourseOutput struct {
	MissionID string         `json:"mission_id"`
	Mode      course.Mode    `json:"mode"`
	Course    *course.Course `json:"course"`
	Next      string         `json:"next"`
}

// PlotCourse plots a new course, superseding any previous one.
func PlotCourse(env *Env, input PlotCourseInput) (*PlotCourseOutput, error) {
	c, err := env.Tracker.Plot(course.PlotInput{
		Projects:    input.Projects,
		Description: input.Description,
		Domain:      input.Domain,
		Subdomain:   input.Subdomain,
		Process:     input.Process,
	})
	if err != nil {
		return nil, err
	}
	return &PlotCourseOutput{
		MissionID: c.MissionID,
		Mode:      c.Mode(),
		Course:    c,
		Next:      "orient_course after loading project context, then start_session",
	}, nil
}

// GetCourseState returns the current course snapshot.
func GetCourseState(env *Env) (course.Snapshot, error) {
	return env.Tracker.State()
}

// ContinueCourse resumes the course after a context compaction.
func ContinueCourse(env *Env) (*course.Course, error) {
	return env.Tracker.Continue()
}

// OrientCourse records that project context was reloaded.
func OrientCourse(env *Env) (*course.Course, error) {
	return env.Tracker.Orient()
}

// MarkCompacted flags the course as interrupted by a context compaction.
func MarkCompacted(env *Env) (*course.Course, error) {
	return env.Tracker.MarkCompacted()
}
