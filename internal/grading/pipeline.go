package grading

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/No-bodyq/ACAD-AI-test/internal/model"
)

// Recognized grading strategy selectors.
const (
	// StrategyMock grades everything with the rule-based variant.
	StrategyMock = "mock"
	// StrategyDelegated grades free text via the external semantic grader;
	// multiple choice is always rule-based.
	StrategyDelegated = "delegated"
)

const (
	defaultTimeout       = 30 * time.Second
	defaultMaxConcurrent = 4
)

// Config selects and wires the grading strategy for a pipeline. The selection
// is made once per pipeline, not per answer.
type Config struct {
	// Strategy is the selector: StrategyMock or StrategyDelegated.
	Strategy string
	// TextGrader is the external semantic grader. Required for
	// StrategyDelegated, ignored otherwise.
	TextGrader TextGrader
	// Timeout bounds each external grading call. Zero means a 30s default.
	Timeout time.Duration
	// MaxConcurrent bounds parallel external grading calls within one run.
	// Zero means a default of 4.
	MaxConcurrent int
}

// Pipeline grades one submission at a time against an exam's question list.
// It holds no cross-run state and is safe for concurrent use.
type Pipeline struct {
	rule          RuleBased
	delegate      TextGrader
	timeout       time.Duration
	maxConcurrent int
}

// NewPipeline validates the strategy configuration and builds a pipeline.
// An unrecognized selector, or the delegated strategy without a usable text
// grader, is a configuration error: the caller must not start serving.
func NewPipeline(cfg Config) (*Pipeline, error) {
	p := &Pipeline{
		timeout:       cfg.Timeout,
		maxConcurrent: cfg.MaxConcurrent,
	}
	if p.timeout <= 0 {
		p.timeout = defaultTimeout
	}
	if p.maxConcurrent <= 0 {
		p.maxConcurrent = defaultMaxConcurrent
	}

	switch cfg.Strategy {
	case StrategyMock:
	case StrategyDelegated:
		if cfg.TextGrader == nil {
			return nil, ErrNoTextGrader
		}
		p.delegate = cfg.TextGrader
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, cfg.Strategy)
	}
	return p, nil
}

// GradeSubmission runs the full pipeline over one submission: resolve and
// validate every entry, grade each validated answer, aggregate. A submission
// with any malformed entry is rejected before grading starts; the returned
// error is then a ValidationErrors set covering every offending position.
// Delegated-grader failures never fail the run: the affected answer falls
// back to rule-based scoring and the result is marked partially failed.
func (p *Pipeline) GradeSubmission(ctx context.Context, exam *model.Exam, entries []model.AnswerEntry) (*model.GradedResult, error) {
	ix := newQuestionIndex(exam)

	resolved := resolveAll(ix, entries)
	var errs ValidationErrors
	for i := range resolved {
		ra := &resolved[i]
		if ra.kind == "" {
			ra.kind = validateAnswer(ra.question, ra.entry)
		}
		if ra.kind != "" {
			errs = append(errs, ValidationError{
				Index: ra.index,
				Kind:  ra.kind,
				Ref:   ra.entry.Question,
				Value: ra.entry.SelectedChoice,
			})
		}
	}
	if len(errs) > 0 {
		return nil, errs
	}

	answers := make([]model.GradedAnswer, len(resolved))
	var wg sync.WaitGroup
	sem := make(chan struct{}, p.maxConcurrent)

	for i := range resolved {
		ra := resolved[i]
		base := model.GradedAnswer{
			Question: *ra.question,
			Entry:    ra.entry,
			Possible: ra.question.Points,
		}

		// Multiple choice never suspends and is always rule-graded, so there
		// is nothing to delegate and no reason to spawn a worker.
		if ra.question.Type == model.QuestionMCQ {
			base.Awarded = p.rule.GradeChoice(*ra.question, ra.entry.SelectedChoice)
			base.Method = model.MethodRuleBased
			answers[i] = base
			continue
		}

		if p.delegate == nil {
			base.Awarded, base.Feedback, _ = p.rule.GradeText(ctx, *ra.question, ra.entry.AnswerText)
			base.Method = model.MethodRuleBased
			answers[i] = base
			continue
		}

		wg.Add(1)
		go func(slot int) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			answers[slot] = p.gradeDelegated(ctx, base)
		}(i)
	}
	wg.Wait()

	// A cancelled run returns no partial results.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return Aggregate(answers), nil
}

// gradeDelegated scores one free-text answer via the external grader, falling
// back to the rule-based policy for that answer alone when the call fails.
func (p *Pipeline) gradeDelegated(ctx context.Context, ans model.GradedAnswer) model.GradedAnswer {
	callCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	score, feedback, err := p.delegate.GradeText(callCtx, ans.Question, ans.Entry.AnswerText)
	if err == nil {
		ans.Awarded = clamp(score, 0, ans.Question.Points)
		ans.Feedback = feedback
		ans.Method = model.MethodDelegated
		return ans
	}

	slog.Warn("delegated grading failed, falling back to rule-based",
		"question_id", ans.Question.ID, "error", err)

	awarded, fb, _ := p.rule.GradeText(ctx, ans.Question, ans.Entry.AnswerText)
	ans.Awarded = awarded
	ans.Feedback = "Automatic grading unavailable. " + fb
	ans.Method = model.MethodRuleBased
	ans.Degraded = true
	return ans
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
