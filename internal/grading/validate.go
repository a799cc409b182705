package grading

import (
	"strings"

	"github.com/No-bodyq/ACAD-AI-test/internal/model"
)

// validateAnswer checks a resolved entry's payload against its question's
// type contract. It returns the empty kind when the payload is well-formed.
// Validation is pure; it never consults a grading strategy.
func validateAnswer(q *model.Question, entry model.AnswerEntry) ErrorKind {
	switch q.Type {
	case model.QuestionMCQ:
		// answer_text, if present, is ignored for choice questions.
		if entry.SelectedChoice == "" {
			return KindMissingSelectedChoice
		}
		for _, c := range q.Choices {
			if c.Key == entry.SelectedChoice {
				return ""
			}
		}
		return KindInvalidChoice
	default:
		if strings.TrimSpace(entry.AnswerText) == "" {
			return KindMissingAnswerText
		}
		return ""
	}
}
