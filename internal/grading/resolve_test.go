package grading

import (
	"testing"

	"github.com/No-bodyq/ACAD-AI-test/internal/model"
)

func twoQuestionExam() *model.Exam {
	return &model.Exam{
		ID: 1,
		Questions: []model.Question{
			{
				ID:   10,
				Type: model.QuestionMCQ,
				Choices: []model.Choice{
					{Key: "A", Text: "red"},
					{Key: "B", Text: "green"},
					{Key: "C", Text: "blue"},
				},
				CorrectKeys: []string{"B"},
				Points:      1,
			},
			{
				ID:       20,
				Type:     model.QuestionText,
				Keywords: []string{"goroutine", "channel"},
				Points:   2,
			},
		},
	}
}

func TestResolveAll(t *testing.T) {
	ix := newQuestionIndex(twoQuestionExam())

	entries := []model.AnswerEntry{
		{Question: 1, SelectedChoice: "B"},
		{Question: 2, AnswerText: "goroutines talk over channels"},
	}
	got := resolveAll(ix, entries)

	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].kind != "" || got[0].question == nil || got[0].question.ID != 10 {
		t.Errorf("entry 0 resolved to %+v, want question 10", got[0])
	}
	if got[1].kind != "" || got[1].question == nil || got[1].question.ID != 20 {
		t.Errorf("entry 1 resolved to %+v, want question 20", got[1])
	}
}

func TestResolveAllNotFound(t *testing.T) {
	ix := newQuestionIndex(twoQuestionExam())

	got := resolveAll(ix, []model.AnswerEntry{{Question: 9, AnswerText: "x"}})
	if got[0].kind != KindQuestionNotFound {
		t.Errorf("kind = %q, want %q", got[0].kind, KindQuestionNotFound)
	}
	if got[0].question != nil {
		t.Error("failed entry should carry no question")
	}
}

func TestResolveAllDuplicateReference(t *testing.T) {
	ix := newQuestionIndex(twoQuestionExam())

	// The second reference to order position 1 is the duplicate, not the
	// first, and resolution continues past it.
	entries := []model.AnswerEntry{
		{Question: 1, SelectedChoice: "A"},
		{Question: 1, SelectedChoice: "B"},
		{Question: 2, AnswerText: "channels"},
	}
	got := resolveAll(ix, entries)

	if got[0].kind != "" {
		t.Errorf("entry 0 kind = %q, want resolved", got[0].kind)
	}
	if got[1].kind != KindDuplicateReference {
		t.Errorf("entry 1 kind = %q, want %q", got[1].kind, KindDuplicateReference)
	}
	if got[2].kind != "" || got[2].question == nil {
		t.Errorf("entry 2 should still resolve, got %+v", got[2])
	}
}

func TestResolveAllAttemptsEveryEntry(t *testing.T) {
	ix := newQuestionIndex(twoQuestionExam())

	entries := []model.AnswerEntry{
		{Question: 99},
		{Question: 1, SelectedChoice: "C"},
		{Question: 98},
	}
	got := resolveAll(ix, entries)

	if got[0].kind != KindQuestionNotFound || got[2].kind != KindQuestionNotFound {
		t.Error("both bad references should be tagged")
	}
	if got[1].kind != "" {
		t.Errorf("good entry tagged %q", got[1].kind)
	}
	for i, ra := range got {
		if ra.index != i {
			t.Errorf("entry %d carries index %d", i, ra.index)
		}
	}
}
