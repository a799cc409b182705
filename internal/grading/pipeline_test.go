package grading

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"sync"
	"testing"

	"github.com/No-bodyq/ACAD-AI-test/internal/model"
)

// stubTextGrader is a deterministic TextGrader for orchestration tests.
type stubTextGrader struct {
	mu    sync.Mutex
	calls int
	fn    func(q model.Question, answer string) (float64, string, error)
}

func (s *stubTextGrader) GradeText(_ context.Context, q model.Question, answer string) (float64, string, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	if s.fn == nil {
		return q.Points, "ok", nil
	}
	return s.fn(q, answer)
}

func (s *stubTextGrader) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func mockPipeline(t *testing.T) *Pipeline {
	t.Helper()
	p, err := NewPipeline(Config{Strategy: StrategyMock})
	if err != nil {
		t.Fatalf("NewPipeline: %v", err)
	}
	return p
}

func delegatedPipeline(t *testing.T, stub *stubTextGrader) *Pipeline {
	t.Helper()
	p, err := NewPipeline(Config{Strategy: StrategyDelegated, TextGrader: stub})
	if err != nil {
		t.Fatalf("NewPipeline: %v", err)
	}
	return p
}

func TestNewPipelineConfig(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr error
	}{
		{"mock", Config{Strategy: StrategyMock}, nil},
		{"delegated with grader", Config{Strategy: StrategyDelegated, TextGrader: &stubTextGrader{}}, nil},
		{"delegated without grader", Config{Strategy: StrategyDelegated}, ErrNoTextGrader},
		{"unknown selector", Config{Strategy: "hybrid"}, ErrUnknownStrategy},
		{"empty selector", Config{}, ErrUnknownStrategy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewPipeline(tt.cfg)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("NewPipeline error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestGradeSubmissionMock(t *testing.T) {
	p := mockPipeline(t)
	exam := twoQuestionExam()
	entries := []model.AnswerEntry{
		{Question: 1, SelectedChoice: "B"},
		{Question: 2, AnswerText: "a goroutine reads from a channel"},
	}

	res, err := p.GradeSubmission(context.Background(), exam, entries)
	if err != nil {
		t.Fatalf("GradeSubmission: %v", err)
	}

	if len(res.Answers) != len(entries) {
		t.Fatalf("len(Answers) = %d, want %d", len(res.Answers), len(entries))
	}
	if res.Answers[0].Question.ID != 10 || res.Answers[1].Question.ID != 20 {
		t.Error("answers out of submission order")
	}

	mcq := res.Answers[0]
	if mcq.Awarded != 1 || mcq.Method != model.MethodRuleBased {
		t.Errorf("mcq answer = %+v, want full points via rule_based", mcq)
	}
	if mcq.Feedback != "" {
		t.Errorf("mcq feedback = %q, want none", mcq.Feedback)
	}

	text := res.Answers[1]
	if text.Awarded != 2 {
		t.Errorf("text awarded = %v, want 2 (both keywords matched)", text.Awarded)
	}
	if res.Status != model.ResultComplete {
		t.Errorf("Status = %q, want complete", res.Status)
	}
	if res.TotalAwarded != 3 || res.TotalPossible != 3 || res.Grade != 100 {
		t.Errorf("totals = %v/%v grade %v, want 3/3 100", res.TotalAwarded, res.TotalPossible, res.Grade)
	}
}

func TestGradeSubmissionDeterministic(t *testing.T) {
	p := mockPipeline(t)
	exam := twoQuestionExam()
	entries := []model.AnswerEntry{
		{Question: 1, SelectedChoice: "A"},
		{Question: 2, AnswerText: "channels only"},
	}

	first, err := p.GradeSubmission(context.Background(), exam, entries)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	second, err := p.GradeSubmission(context.Background(), exam, entries)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("rule-based grading not idempotent:\nfirst:  %+v\nsecond: %+v", first, second)
	}
}

func TestGradeSubmissionPartialAllowed(t *testing.T) {
	p := mockPipeline(t)
	exam := twoQuestionExam()

	// Omitting an entry for the second question is fine.
	res, err := p.GradeSubmission(context.Background(), exam, []model.AnswerEntry{
		{Question: 1, SelectedChoice: "B"},
	})
	if err != nil {
		t.Fatalf("GradeSubmission: %v", err)
	}
	if len(res.Answers) != 1 || res.Answers[0].Question.ID != 10 {
		t.Errorf("Answers = %+v, want only question 10", res.Answers)
	}
}

func TestGradeSubmissionRejectsInvalidEntries(t *testing.T) {
	stub := &stubTextGrader{}
	p := delegatedPipeline(t, stub)
	exam := twoQuestionExam()

	entries := []model.AnswerEntry{
		{Question: 1, SelectedChoice: "Z"},
		{Question: 2, AnswerText: "fine"},
		{Question: 5, AnswerText: "no such question"},
		{Question: 2, AnswerText: "again"},
	}
	res, err := p.GradeSubmission(context.Background(), exam, entries)
	if res != nil {
		t.Fatal("invalid submission must not produce a result")
	}

	verrs, ok := AsValidationErrors(err)
	if !ok {
		t.Fatalf("error = %v, want ValidationErrors", err)
	}
	if len(verrs) != 3 {
		t.Fatalf("len(errors) = %d, want 3: %v", len(verrs), verrs)
	}

	want := map[int]ErrorKind{
		0: KindInvalidChoice,
		2: KindQuestionNotFound,
		3: KindDuplicateReference,
	}
	for _, ve := range verrs {
		if want[ve.Index] != ve.Kind {
			t.Errorf("position %d: kind = %q, want %q", ve.Index, ve.Kind, want[ve.Index])
		}
		delete(want, ve.Index)
	}
	if len(want) != 0 {
		t.Errorf("missing errors for positions %v", want)
	}

	// Grading never starts for an invalid submission.
	if stub.callCount() != 0 {
		t.Errorf("external grader called %d times before validation passed", stub.callCount())
	}
}

func TestValidationErrorAddressing(t *testing.T) {
	ve := ValidationError{Index: 2, Kind: KindMissingAnswerText}
	if ve.Field() != "answers[2]" {
		t.Errorf("Field() = %q, want answers[2]", ve.Field())
	}
	if !strings.Contains(ve.Error(), "answers[2]") {
		t.Errorf("Error() = %q, should address the position", ve.Error())
	}
}

func TestGradeSubmissionDelegated(t *testing.T) {
	stub := &stubTextGrader{fn: func(q model.Question, _ string) (float64, string, error) {
		return 1.5, "Good answer, missing the select case.", nil
	}}
	p := delegatedPipeline(t, stub)
	exam := twoQuestionExam()

	res, err := p.GradeSubmission(context.Background(), exam, []model.AnswerEntry{
		{Question: 1, SelectedChoice: "B"},
		{Question: 2, AnswerText: "goroutines and channels"},
	})
	if err != nil {
		t.Fatalf("GradeSubmission: %v", err)
	}

	// MCQ is always rule-graded, even under the delegated strategy.
	if res.Answers[0].Method != model.MethodRuleBased {
		t.Errorf("mcq method = %q, want rule_based", res.Answers[0].Method)
	}

	text := res.Answers[1]
	if text.Method != model.MethodDelegated {
		t.Errorf("text method = %q, want delegated", text.Method)
	}
	if text.Awarded != 1.5 {
		t.Errorf("text awarded = %v, want 1.5", text.Awarded)
	}
	if text.Feedback != "Good answer, missing the select case." {
		t.Errorf("text feedback = %q", text.Feedback)
	}
	if res.Status != model.ResultComplete {
		t.Errorf("Status = %q, want complete", res.Status)
	}
	if stub.callCount() != 1 {
		t.Errorf("external grader called %d times, want 1", stub.callCount())
	}
}

func TestGradeSubmissionClampsDelegatedScore(t *testing.T) {
	stub := &stubTextGrader{fn: func(q model.Question, _ string) (float64, string, error) {
		return 99, "generous", nil
	}}
	p := delegatedPipeline(t, stub)
	exam := twoQuestionExam()

	res, err := p.GradeSubmission(context.Background(), exam, []model.AnswerEntry{
		{Question: 2, AnswerText: "short"},
	})
	if err != nil {
		t.Fatalf("GradeSubmission: %v", err)
	}
	if got := res.Answers[0].Awarded; got != 2 {
		t.Errorf("awarded = %v, want clamped to 2", got)
	}
}

func TestGradeSubmissionFallbackOnDelegatedFailure(t *testing.T) {
	exam := &model.Exam{
		ID: 1,
		Questions: []model.Question{
			{ID: 10, Type: model.QuestionMCQ, Choices: []model.Choice{{Key: "A"}, {Key: "B"}}, CorrectKeys: []string{"B"}, Points: 1},
			{ID: 20, Type: model.QuestionText, Keywords: []string{"goroutine", "channel"}, Points: 2},
			{ID: 30, Type: model.QuestionText, Keywords: []string{"mutex"}, Points: 1},
		},
	}

	// Question 20 times out; question 30 grades fine.
	stub := &stubTextGrader{fn: func(q model.Question, _ string) (float64, string, error) {
		if q.ID == 20 {
			return 0, "", context.DeadlineExceeded
		}
		return 1, "solid", nil
	}}
	p := delegatedPipeline(t, stub)

	res, err := p.GradeSubmission(context.Background(), exam, []model.AnswerEntry{
		{Question: 1, SelectedChoice: "B"},
		{Question: 2, AnswerText: "a goroutine per connection"},
		{Question: 3, AnswerText: "guard it with a mutex"},
	})
	if err != nil {
		t.Fatalf("GradeSubmission: %v", err)
	}

	failed := res.Answers[1]
	if !failed.Degraded {
		t.Error("failed answer should be marked degraded")
	}
	if failed.Method != model.MethodRuleBased {
		t.Errorf("failed answer method = %q, want rule_based fallback", failed.Method)
	}
	// Fallback score is the deterministic keyword score: 1 of 2 keywords.
	if failed.Awarded != 1 {
		t.Errorf("failed answer awarded = %v, want 1", failed.Awarded)
	}
	if !strings.Contains(failed.Feedback, "Automatic grading unavailable") {
		t.Errorf("failed answer feedback = %q, should explain the degradation", failed.Feedback)
	}

	// The other answers are untouched.
	if res.Answers[0].Awarded != 1 || res.Answers[0].Degraded {
		t.Errorf("mcq answer affected by unrelated failure: %+v", res.Answers[0])
	}
	if res.Answers[2].Awarded != 1 || res.Answers[2].Method != model.MethodDelegated || res.Answers[2].Degraded {
		t.Errorf("healthy text answer affected: %+v", res.Answers[2])
	}

	if res.Status != model.ResultPartiallyFailed {
		t.Errorf("Status = %q, want partially_failed", res.Status)
	}
}

func TestGradeSubmissionCancelled(t *testing.T) {
	stub := &stubTextGrader{}
	p := delegatedPipeline(t, stub)
	exam := twoQuestionExam()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := p.GradeSubmission(ctx, exam, []model.AnswerEntry{
		{Question: 2, AnswerText: "whatever"},
	})
	if res != nil {
		t.Error("cancelled run must not return partial results")
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}
