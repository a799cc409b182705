package grading

import (
	"testing"

	"github.com/No-bodyq/ACAD-AI-test/internal/model"
)

func TestQuestionIndexPositionalOrder(t *testing.T) {
	// No declared order: positions are assigned from list order, 1-based.
	exam := &model.Exam{Questions: []model.Question{
		{ID: 42, Text: "first"},
		{ID: 7, Text: "second"},
	}}
	ix := newQuestionIndex(exam)

	if ix.size() != 2 {
		t.Fatalf("size = %d, want 2", ix.size())
	}

	q, ok := ix.resolveOrder(1)
	if !ok || q.ID != 42 {
		t.Errorf("resolveOrder(1) = %v, %v; want question 42", q, ok)
	}
	q, ok = ix.resolveOrder(2)
	if !ok || q.ID != 7 {
		t.Errorf("resolveOrder(2) = %v, %v; want question 7", q, ok)
	}
	if _, ok := ix.resolveOrder(3); ok {
		t.Error("resolveOrder(3) should miss")
	}
	if _, ok := ix.resolveOrder(0); ok {
		t.Error("resolveOrder(0) should miss")
	}
}

func TestQuestionIndexDeclaredOrder(t *testing.T) {
	exam := &model.Exam{Questions: []model.Question{
		{ID: 1, Order: 2},
		{ID: 2, Order: 1},
	}}
	ix := newQuestionIndex(exam)

	q, ok := ix.resolveOrder(1)
	if !ok || q.ID != 2 {
		t.Errorf("resolveOrder(1) = %v, %v; want question 2", q, ok)
	}
	q, ok = ix.resolveOrder(2)
	if !ok || q.ID != 1 {
		t.Errorf("resolveOrder(2) = %v, %v; want question 1", q, ok)
	}
}

func TestQuestionIndexTwoReferenceSpaces(t *testing.T) {
	// Identifier 2 and order position 2 point at different questions; the
	// two lookup tables must stay distinct.
	exam := &model.Exam{Questions: []model.Question{
		{ID: 2, Text: "first"},
		{ID: 1, Text: "second"},
	}}
	ix := newQuestionIndex(exam)

	byOrder, _ := ix.resolveOrder(2)
	byID, ok := ix.resolveID(2)
	if !ok {
		t.Fatal("resolveID(2) should hit")
	}
	if byOrder.ID == byID.ID {
		t.Error("order position 2 and identifier 2 resolved to the same question")
	}
	if byID.Text != "first" {
		t.Errorf("resolveID(2) text = %q, want 'first'", byID.Text)
	}
}
