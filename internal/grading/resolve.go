package grading

import "github.com/No-bodyq/ACAD-AI-test/internal/model"

// resolvedAnswer carries one entry through resolution and validation. A
// non-empty kind marks the entry as failed; the question pointer is only set
// for successful resolutions.
type resolvedAnswer struct {
	index    int
	entry    model.AnswerEntry
	question *model.Question
	kind     ErrorKind
}

// resolveAll maps each submitted entry to exactly one question by its 1-based
// order index. Every entry is attempted: failures are tagged and carried
// forward so the caller can report the complete positional error set, and a
// later entry referencing an already-resolved question is a duplicate, never
// a silent overwrite. Output order matches input order.
func resolveAll(ix *questionIndex, entries []model.AnswerEntry) []resolvedAnswer {
	out := make([]resolvedAnswer, len(entries))
	seen := make(map[int64]bool, len(entries))

	for i, entry := range entries {
		out[i] = resolvedAnswer{index: i, entry: entry}

		q, ok := ix.resolveOrder(entry.Question)
		if !ok {
			out[i].kind = KindQuestionNotFound
			continue
		}
		if seen[q.ID] {
			out[i].kind = KindDuplicateReference
			continue
		}
		seen[q.ID] = true
		out[i].question = q
	}
	return out
}
