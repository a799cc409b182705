package grading

import (
	"math"

	"github.com/No-bodyq/ACAD-AI-test/internal/model"
)

// Aggregate folds per-answer outcomes into a GradedResult, preserving
// submission order. The total is the points-weighted sum; the percent grade
// is rounded to two decimals. The run is partially failed when any answer was
// degraded by an external-grader failure. Aggregation never fails.
func Aggregate(answers []model.GradedAnswer) *model.GradedResult {
	res := &model.GradedResult{
		Answers: answers,
		Status:  model.ResultComplete,
	}

	for _, a := range answers {
		res.TotalAwarded += a.Awarded
		res.TotalPossible += a.Possible
		if a.Degraded {
			res.Status = model.ResultPartiallyFailed
		}
	}

	if res.TotalPossible > 0 {
		res.Grade = round2(res.TotalAwarded / res.TotalPossible * 100)
	}
	return res
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
