package grading

import "github.com/No-bodyq/ACAD-AI-test/internal/model"

// questionIndex is a read-only lookup over an exam's ordered question list.
// It maintains two distinct reference spaces: storage identifiers and 1-based
// order positions. Lookups never fail hard; callers translate a miss into a
// validation error.
type questionIndex struct {
	byID    map[int64]*model.Question
	byOrder map[int]*model.Question
}

// newQuestionIndex builds the index for one grading run. Questions with a
// declared positive order keep it; otherwise positions are assigned from the
// list order, starting at 1, matching the documented submission format.
func newQuestionIndex(exam *model.Exam) *questionIndex {
	ix := &questionIndex{
		byID:    make(map[int64]*model.Question, len(exam.Questions)),
		byOrder: make(map[int]*model.Question, len(exam.Questions)),
	}

	declared := false
	for i := range exam.Questions {
		if exam.Questions[i].Order > 0 {
			declared = true
			break
		}
	}

	for i := range exam.Questions {
		q := &exam.Questions[i]
		ix.byID[q.ID] = q
		if declared {
			ix.byOrder[q.Order] = q
		} else {
			ix.byOrder[i+1] = q
		}
	}
	return ix
}

// resolveOrder looks up a question by its 1-based order position.
func (ix *questionIndex) resolveOrder(pos int) (*model.Question, bool) {
	q, ok := ix.byOrder[pos]
	return q, ok
}

// resolveID looks up a question by its storage identifier.
func (ix *questionIndex) resolveID(id int64) (*model.Question, bool) {
	q, ok := ix.byID[id]
	return q, ok
}

func (ix *questionIndex) size() int {
	return len(ix.byOrder)
}
