package grading

import (
	"context"
	"strings"
	"testing"

	"github.com/No-bodyq/ACAD-AI-test/internal/model"
)

func TestGradeChoice(t *testing.T) {
	q := model.Question{
		Type:        model.QuestionMCQ,
		CorrectKeys: []string{"B"},
		Points:      1,
	}
	multi := model.Question{
		Type:        model.QuestionMCQ,
		CorrectKeys: []string{"A", "C"},
		Points:      2,
	}

	var rule RuleBased
	tests := []struct {
		name     string
		q        model.Question
		selected string
		want     float64
	}{
		{"correct", q, "B", 1},
		{"wrong", q, "A", 0},
		{"case-insensitive key compare", q, "b", 1},
		{"whitespace tolerated", q, " B ", 1},
		{"multi-key first", multi, "A", 2},
		{"multi-key second", multi, "C", 2},
		{"multi-key wrong", multi, "B", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := rule.GradeChoice(tt.q, tt.selected); got != tt.want {
				t.Errorf("GradeChoice(%q) = %v, want %v", tt.selected, got, tt.want)
			}
		})
	}
}

func TestGradeText(t *testing.T) {
	var rule RuleBased
	q := model.Question{
		Type:     model.QuestionText,
		Keywords: []string{"goroutine", "channel", "select"},
		Points:   3,
	}

	tests := []struct {
		name    string
		answer  string
		want    float64
		matched string
	}{
		{"all keywords", "a goroutine reads a channel inside select", 3, "3/3"},
		{"some keywords", "goroutines communicate via a channel", 2, "2/3"},
		{"no keywords", "processes use pipes", 0, "0/3"},
		{"case folded", "GOROUTINE and CHANNEL", 2, "2/3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, fb, err := rule.GradeText(context.Background(), q, tt.answer)
			if err != nil {
				t.Fatalf("GradeText: %v", err)
			}
			if got != tt.want {
				t.Errorf("score = %v, want %v", got, tt.want)
			}
			if !strings.Contains(fb, tt.matched) {
				t.Errorf("feedback %q should mention %s keywords", fb, tt.matched)
			}
		})
	}
}

func TestGradeTextNoKeywords(t *testing.T) {
	var rule RuleBased
	q := model.Question{Type: model.QuestionText, Points: 5}

	got, fb, err := rule.GradeText(context.Background(), q, "anything at all")
	if err != nil {
		t.Fatalf("GradeText: %v", err)
	}
	if got != 0 {
		t.Errorf("score = %v, want 0 for question without keywords", got)
	}
	if fb == "" {
		t.Error("expected explanatory feedback")
	}
}

func TestGradeTextRounding(t *testing.T) {
	var rule RuleBased
	q := model.Question{
		Type:     model.QuestionText,
		Keywords: []string{"a", "b", "c"},
		Points:   1,
	}

	got, _, _ := rule.GradeText(context.Background(), q, "only a here")
	if got != 0.3333 {
		t.Errorf("score = %v, want 0.3333", got)
	}
}
