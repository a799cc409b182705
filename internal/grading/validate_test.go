package grading

import (
	"testing"

	"github.com/No-bodyq/ACAD-AI-test/internal/model"
)

func TestValidateAnswer(t *testing.T) {
	mcq := &model.Question{
		Type: model.QuestionMCQ,
		Choices: []model.Choice{
			{Key: "A"}, {Key: "B"}, {Key: "C"},
		},
	}
	text := &model.Question{Type: model.QuestionText}

	tests := []struct {
		name  string
		q     *model.Question
		entry model.AnswerEntry
		want  ErrorKind
	}{
		{"mcq valid", mcq, model.AnswerEntry{SelectedChoice: "B"}, ""},
		{"mcq missing choice", mcq, model.AnswerEntry{}, KindMissingSelectedChoice},
		{"mcq unknown key", mcq, model.AnswerEntry{SelectedChoice: "Z"}, KindInvalidChoice},
		{"mcq key match is case-sensitive", mcq, model.AnswerEntry{SelectedChoice: "b"}, KindInvalidChoice},
		{"mcq ignores answer_text", mcq, model.AnswerEntry{SelectedChoice: "A", AnswerText: "stray"}, ""},
		{"text valid", text, model.AnswerEntry{AnswerText: "an answer"}, ""},
		{"text missing", text, model.AnswerEntry{}, KindMissingAnswerText},
		{"text blank", text, model.AnswerEntry{AnswerText: "   \n\t"}, KindMissingAnswerText},
		{"text ignores selected_choice", text, model.AnswerEntry{AnswerText: "ok", SelectedChoice: "A"}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := validateAnswer(tt.q, tt.entry); got != tt.want {
				t.Errorf("validateAnswer() = %q, want %q", got, tt.want)
			}
		})
	}
}
