package llm

import (
	"strings"
	"testing"

	"github.com/No-bodyq/ACAD-AI-test/internal/model"
)

func TestBuildGradingPrompt(t *testing.T) {
	q := model.Question{
		Text:     "Explain how goroutines communicate.",
		Keywords: []string{"channel", "select"},
		Points:   5,
	}

	prompt := buildGradingPrompt(q)
	if !strings.Contains(prompt, q.Text) {
		t.Error("prompt should contain question text")
	}
	if !strings.Contains(prompt, "channel, select") {
		t.Error("prompt should contain the expected keywords")
	}
	if !strings.Contains(prompt, "MAX POINTS: 5") {
		t.Error("prompt should state the point scale")
	}
	if !strings.Contains(prompt, `"score"`) || !strings.Contains(prompt, `"feedback"`) {
		t.Error("prompt should demand the JSON response shape")
	}
}

func TestBuildGradingPromptNoKeywords(t *testing.T) {
	q := model.Question{Text: "Open question", Points: 2}
	prompt := buildGradingPrompt(q)
	if strings.Contains(prompt, "EXPECTED ANSWER") {
		t.Error("prompt should omit the rubric section when there are no keywords")
	}
}

func TestParseGradeResponse(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		maxPoints float64
		wantScore float64
		wantFb    string
		wantErr   bool
	}{
		{"normal", `{"score": 3.5, "feedback": "Mostly right."}`, 5, 3.5, "Mostly right.", false},
		{"clamped high", `{"score": 12, "feedback": "x"}`, 5, 5, "x", false},
		{"clamped low", `{"score": -1, "feedback": "x"}`, 5, 0, "x", false},
		{"empty feedback", `{"score": 1}`, 5, 1, "", false},
		{"not json", `SCORE: 3`, 5, 0, "", true},
		{"truncated", `{"score": 3,`, 5, 0, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score, fb, err := parseGradeResponse(tt.raw, tt.maxPoints)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if score != tt.wantScore {
				t.Errorf("score = %v, want %v", score, tt.wantScore)
			}
			if fb != tt.wantFb {
				t.Errorf("feedback = %q, want %q", fb, tt.wantFb)
			}
		})
	}
}
