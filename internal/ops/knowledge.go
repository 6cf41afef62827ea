package ops

import (
	"fmt"

	"github.com/hpungsan/starship/internal/errors"
	"github.com/hpungsan/starship/internal/knowledge"
)

// Review output formats.
const (
	FormatMarkdown = "markdown"
	FormatHTML     = "html"
)

// KnowledgeUpdate captures workflow knowledge for the active session.
func KnowledgeUpdate(env *Env, input knowledge.CaptureInput) (*knowledge.CaptureOutput, error) {
	return env.Recorder.Capture(input)
}

// SessionReviewInput contains parameters for SessionReview.
type SessionReviewInput struct {
	Context      string `json:"context,omitempty"`
	WasCompacted bool   `json:"was_compacted,omitempty"`
	Format       string `json:"format,omitempty"`
}

// SessionReview reviews the active session. Format selects Markdown
// (default) or HTML for the report.
func SessionReview(env *Env, input SessionReviewInput) (*knowledge.ReviewOutput, error) {
	format := input.Format
	if format == "" {
		format = FormatMarkdown
	}
	if format != FormatMarkdown && format != FormatHTML {
		return nil, errors.NewInvalidRequest(fmt.Sprintf("format must be %q or %q", FormatMarkdown, FormatHTML))
	}

	// A compaction flagged on the course counts even if the caller omits it.
	c, err := env.Tracker.Current()
	if err != nil {
		return nil, err
	}
	out, err := env.Recorder.Review(knowledge.ReviewInput{
		Context:      input.Context,
		WasCompacted: input.WasCompacted || (c != nil && c.WasCompacted),
	})
	if err != nil {
		return nil, err
	}
	if format == FormatHTML {
		html, err := knowledge.RenderHTML(out.Report)
		if err != nil {
			return nil, errors.NewInternal(err)
		}
		out.Report = html
	}
	return out, nil
}
