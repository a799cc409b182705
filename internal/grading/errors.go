package grading

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies a per-answer validation failure.
type ErrorKind string

const (
	// KindQuestionNotFound means the reference matches no question in the exam.
	KindQuestionNotFound ErrorKind = "question_not_found"
	// KindDuplicateReference means an earlier entry already resolved to the
	// same question.
	KindDuplicateReference ErrorKind = "duplicate_reference"
	// KindMissingSelectedChoice means an MCQ entry carries no selected_choice.
	KindMissingSelectedChoice ErrorKind = "missing_selected_choice"
	// KindInvalidChoice means selected_choice is not a declared choice key.
	KindInvalidChoice ErrorKind = "invalid_choice"
	// KindMissingAnswerText means a free-text entry carries no answer_text.
	KindMissingAnswerText ErrorKind = "missing_answer_text"
)

// Construction errors. These abort a run before any grading occurs and are
// never downgraded.
var (
	ErrUnknownStrategy = errors.New("unknown grading strategy")
	ErrNoTextGrader    = errors.New("delegated strategy requires a text grader")
)

// ValidationError is one malformed answer, addressable by its position in the
// submitted answers list.
type ValidationError struct {
	Index int       `json:"index"`
	Kind  ErrorKind `json:"kind"`
	Ref   int       `json:"ref,omitempty"`
	Value string    `json:"value,omitempty"`
}

// Field returns the caller-side address of the offending entry.
func (e ValidationError) Field() string {
	return fmt.Sprintf("answers[%d]", e.Index)
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field(), e.Kind)
}

// ValidationErrors is the full positional error set for a rejected submission.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	msgs := make([]string, len(e))
	for i, ve := range e {
		msgs[i] = ve.Error()
	}
	return strings.Join(msgs, "; ")
}

// AsValidationErrors unwraps err into a ValidationErrors set, if it is one.
func AsValidationErrors(err error) (ValidationErrors, bool) {
	var ve ValidationErrors
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
