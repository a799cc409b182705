package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/No-bodyq/ACAD-AI-test/internal/model"
)

// ErrDuplicateSubmission is returned when a student already has a submission
// for the exam. One submission per exam per non-privileged user is a storage
// invariant, backed by a unique index and enforced before grading runs.
var ErrDuplicateSubmission = errors.New("submission already exists for this exam")

// HasSubmission reports whether the student already submitted for the exam.
func (s *Store) HasSubmission(studentID, examID int64) (bool, error) {
	var count int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM submissions WHERE student_id = ? AND exam_id = ?`,
		studentID, examID,
	).Scan(&count)
	return count > 0, err
}

// CreateSubmission persists a graded result as a submission with its answers,
// in one transaction.
func (s *Store) CreateSubmission(studentID, examID int64, res *model.GradedResult) (*model.Submission, error) {
	exists, err := s.HasSubmission(studentID, examID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrDuplicateSubmission
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	now := time.Now()
	ins, err := tx.Exec(
		`INSERT INTO submissions (student_id, exam_id, submitted_at, status, grade, total_awarded, total_possible)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		studentID, examID, now, res.Status, res.Grade, res.TotalAwarded, res.TotalPossible,
	)
	if err != nil {
		return nil, fmt.Errorf("insert submission: %w", err)
	}
	subID, err := ins.LastInsertId()
	if err != nil {
		return nil, err
	}

	sub := &model.Submission{
		ID:            subID,
		StudentID:     studentID,
		ExamID:        examID,
		SubmittedAt:   now,
		Status:        res.Status,
		Grade:         res.Grade,
		TotalAwarded:  res.TotalAwarded,
		TotalPossible: res.TotalPossible,
	}

	for _, a := range res.Answers {
		ans, err := tx.Exec(
			`INSERT INTO answers (submission_id, question_id, selected_choice, answer_text,
			                      points_awarded, points_possible, feedback, method, degraded)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			subID, a.Question.ID, a.Entry.SelectedChoice, a.Entry.AnswerText,
			a.Awarded, a.Possible, a.Feedback, a.Method, a.Degraded,
		)
		if err != nil {
			return nil, fmt.Errorf("insert answer for question %d: %w", a.Question.ID, err)
		}
		ansID, err := ans.LastInsertId()
		if err != nil {
			return nil, err
		}
		sub.Answers = append(sub.Answers, model.SubmissionAnswer{
			ID:             ansID,
			SubmissionID:   subID,
			QuestionID:     a.Question.ID,
			SelectedChoice: a.Entry.SelectedChoice,
			AnswerText:     a.Entry.AnswerText,
			Awarded:        a.Awarded,
			Possible:       a.Possible,
			Feedback:       a.Feedback,
			Method:         a.Method,
			Degraded:       a.Degraded,
		})
	}

	return sub, tx.Commit()
}

// GetSubmission returns a submission with its answers, or nil when not found.
func (s *Store) GetSubmission(id int64) (*model.Submission, error) {
	var sub model.Submission
	err := s.db.QueryRow(
		`SELECT id, student_id, exam_id, submitted_at, status, grade, total_awarded, total_possible
		 FROM submissions WHERE id = ?`, id,
	).Scan(&sub.ID, &sub.StudentID, &sub.ExamID, &sub.SubmittedAt, &sub.Status,
		&sub.Grade, &sub.TotalAwarded, &sub.TotalPossible)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	sub.Answers, err = s.answersForSubmission(id)
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// ListSubmissions returns all submissions, newest first, without answers.
func (s *Store) ListSubmissions() ([]model.Submission, error) {
	return s.listSubmissions(`SELECT id, student_id, exam_id, submitted_at, status, grade, total_awarded, total_possible
		 FROM submissions ORDER BY id DESC`)
}

// ListSubmissionsByStudent returns one student's submissions, newest first.
func (s *Store) ListSubmissionsByStudent(studentID int64) ([]model.Submission, error) {
	return s.listSubmissions(`SELECT id, student_id, exam_id, submitted_at, status, grade, total_awarded, total_possible
		 FROM submissions WHERE student_id = ? ORDER BY id DESC`, studentID)
}

func (s *Store) listSubmissions(query string, args ...any) ([]model.Submission, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var subs []model.Submission
	for rows.Next() {
		var sub model.Submission
		if err := rows.Scan(&sub.ID, &sub.StudentID, &sub.ExamID, &sub.SubmittedAt, &sub.Status,
			&sub.Grade, &sub.TotalAwarded, &sub.TotalPossible); err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

func (s *Store) answersForSubmission(subID int64) ([]model.SubmissionAnswer, error) {
	rows, err := s.db.Query(
		`SELECT id, submission_id, question_id, selected_choice, answer_text,
		        points_awarded, points_possible, feedback, method, degraded
		 FROM answers WHERE submission_id = ? ORDER BY id`, subID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var answers []model.SubmissionAnswer
	for rows.Next() {
		var a model.SubmissionAnswer
		if err := rows.Scan(&a.ID, &a.SubmissionID, &a.QuestionID, &a.SelectedChoice, &a.AnswerText,
			&a.Awarded, &a.Possible, &a.Feedback, &a.Method, &a.Degraded); err != nil {
			return nil, err
		}
		answers = append(answers, a)
	}
	return answers, rows.Err()
}

// ExportAllSubmissions returns every submission with its answers, for the
// export command.
func (s *Store) ExportAllSubmissions() ([]model.Submission, error) {
	subs, err := s.ListSubmissions()
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	for i := range subs {
		subs[i].Answers, err = s.answersForSubmission(subs[i].ID)
		if err != nil {
			return nil, fmt.Errorf("answers for submission %d: %w", subs[i].ID, err)
		}
	}
	return subs, nil
}
