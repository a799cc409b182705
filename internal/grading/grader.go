package grading

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/No-bodyq/ACAD-AI-test/internal/model"
)

// TextGrader scores one free-text answer against its question. It is the
// narrow capability behind which the external semantic grader is isolated, so
// the orchestrator can be exercised with a deterministic stub. The call may
// block; implementations honor ctx cancellation and deadlines.
type TextGrader interface {
	GradeText(ctx context.Context, q model.Question, answer string) (score float64, feedback string, err error)
}

// RuleBased is the deterministic grading variant. Multiple-choice answers are
// scored by key match against the question's correct-key set. Free-text
// answers are scored by keyword density against the question's expected
// keywords; a question with no keywords scores zero. RuleBased is also the
// per-answer fallback when the delegated grader fails.
type RuleBased struct{}

// GradeChoice scores a multiple-choice answer. Full points when the selected
// key is in the correct-key set, zero otherwise. Key comparison ignores case
// and surrounding whitespace, matching how authors type answer keys.
func (RuleBased) GradeChoice(q model.Question, selected string) float64 {
	sel := strings.TrimSpace(selected)
	for _, key := range q.CorrectKeys {
		if strings.EqualFold(strings.TrimSpace(key), sel) {
			return q.Points
		}
	}
	return 0
}

// GradeText scores a free-text answer by keyword density: the fraction of
// expected keywords present in the answer, scaled by the question's points
// and rounded to four decimals. It never fails.
func (RuleBased) GradeText(_ context.Context, q model.Question, answer string) (float64, string, error) {
	if len(q.Keywords) == 0 {
		return 0, "No expected answer provided.", nil
	}

	lower := strings.ToLower(answer)
	matched := 0
	for _, kw := range q.Keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw != "" && strings.Contains(lower, kw) {
			matched++
		}
	}

	ratio := float64(matched) / float64(len(q.Keywords))
	awarded := round4(ratio * q.Points)
	feedback := fmt.Sprintf("Matched %d/%d keywords. Score: %.1f%%", matched, len(q.Keywords), ratio*100)
	return awarded, feedback, nil
}

func round4(x float64) float64 {
	return math.Round(x*10000) / 10000
}
