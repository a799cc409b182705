package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/No-bodyq/ACAD-AI-test/internal/model"

	_ "modernc.org/sqlite"
)

type Store struct {
	db *sql.DB
}

func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// SQLite allows one writer; a single pooled connection also keeps
	// in-memory databases coherent.
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT NOT NULL UNIQUE,
		display_name TEXT NOT NULL,
		password_hash TEXT NOT NULL,
		role TEXT NOT NULL DEFAULT 'student',
		active BOOLEAN NOT NULL DEFAULT 1,
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS auth_sessions (
		id TEXT PRIMARY KEY,
		user_id INTEGER NOT NULL,
		created_at DATETIME NOT NULL,
		expires_at DATETIME NOT NULL,
		FOREIGN KEY (user_id) REFERENCES users(id)
	);

	CREATE TABLE IF NOT EXISTS exams (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		title TEXT NOT NULL,
		course TEXT NOT NULL DEFAULT '',
		duration_minutes INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS questions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		exam_id INTEGER NOT NULL,
		ord INTEGER NOT NULL,
		text TEXT NOT NULL,
		question_type TEXT NOT NULL,
		choices TEXT NOT NULL DEFAULT '[]',
		correct_keys TEXT NOT NULL DEFAULT '[]',
		keywords TEXT NOT NULL DEFAULT '[]',
		points REAL NOT NULL DEFAULT 1,
		FOREIGN KEY (exam_id) REFERENCES exams(id),
		UNIQUE (exam_id, ord)
	);

	CREATE TABLE IF NOT EXISTS submissions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		student_id INTEGER NOT NULL,
		exam_id INTEGER NOT NULL,
		submitted_at DATETIME NOT NULL,
		status TEXT NOT NULL,
		grade REAL NOT NULL DEFAULT 0,
		total_awarded REAL NOT NULL DEFAULT 0,
		total_possible REAL NOT NULL DEFAULT 0,
		FOREIGN KEY (student_id) REFERENCES users(id),
		FOREIGN KEY (exam_id) REFERENCES exams(id),
		UNIQUE (student_id, exam_id)
	);

	CREATE TABLE IF NOT EXISTS answers (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		submission_id INTEGER NOT NULL,
		question_id INTEGER NOT NULL,
		selected_choice TEXT NOT NULL DEFAULT '',
		answer_text TEXT NOT NULL DEFAULT '',
		points_awarded REAL NOT NULL DEFAULT 0,
		points_possible REAL NOT NULL DEFAULT 0,
		feedback TEXT NOT NULL DEFAULT '',
		method TEXT NOT NULL DEFAULT '',
		degraded BOOLEAN NOT NULL DEFAULT 0,
		FOREIGN KEY (submission_id) REFERENCES submissions(id),
		FOREIGN KEY (question_id) REFERENCES questions(id),
		UNIQUE (submission_id, question_id)
	);

	CREATE TABLE IF NOT EXISTS import_hashes (
		path TEXT PRIMARY KEY,
		hash TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// CreateExam stores an exam with its questions in one transaction. Question
// order positions are assigned from list order, starting at 1.
func (s *Store) CreateExam(exam model.Exam) (int64, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	res, err := tx.Exec(
		`INSERT INTO exams (title, course, duration_minutes, created_at) VALUES (?, ?, ?, ?)`,
		exam.Title, exam.Course, exam.DurationMinutes, time.Now(),
	)
	if err != nil {
		return 0, err
	}
	examID, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	for i, q := range exam.Questions {
		choices, err := encodeJSON(q.Choices)
		if err != nil {
			return 0, err
		}
		keys, err := encodeJSON(q.CorrectKeys)
		if err != nil {
			return 0, err
		}
		keywords, err := encodeJSON(q.Keywords)
		if err != nil {
			return 0, err
		}
		points := q.Points
		if points <= 0 {
			points = 1
		}
		_, err = tx.Exec(
			`INSERT INTO questions (exam_id, ord, text, question_type, choices, correct_keys, keywords, points)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			examID, i+1, q.Text, q.Type, choices, keys, keywords, points,
		)
		if err != nil {
			return 0, err
		}
	}

	return examID, tx.Commit()
}

// GetExam returns an exam with its ordered questions, or nil when not found.
func (s *Store) GetExam(id int64) (*model.Exam, error) {
	var e model.Exam
	err := s.db.QueryRow(
		`SELECT id, title, course, duration_minutes, created_at FROM exams WHERE id = ?`, id,
	).Scan(&e.ID, &e.Title, &e.Course, &e.DurationMinutes, &e.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	e.Questions, err = s.questionsForExam(id)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// ListExams returns all exams, newest first, without their questions.
func (s *Store) ListExams() ([]model.Exam, error) {
	rows, err := s.db.Query(
		`SELECT id, title, course, duration_minutes, created_at FROM exams ORDER BY id DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var exams []model.Exam
	for rows.Next() {
		var e model.Exam
		if err := rows.Scan(&e.ID, &e.Title, &e.Course, &e.DurationMinutes, &e.CreatedAt); err != nil {
			return nil, err
		}
		exams = append(exams, e)
	}
	return exams, rows.Err()
}

// ExamCount returns the number of stored exams.
func (s *Store) ExamCount() (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM exams`).Scan(&count)
	return count, err
}

func (s *Store) questionsForExam(examID int64) ([]model.Question, error) {
	rows, err := s.db.Query(
		`SELECT id, exam_id, ord, text, question_type, choices, correct_keys, keywords, points
		 FROM questions WHERE exam_id = ? ORDER BY ord, id`, examID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var questions []model.Question
	for rows.Next() {
		var q model.Question
		var choices, keys, keywords string
		if err := rows.Scan(&q.ID, &q.ExamID, &q.Order, &q.Text, &q.Type, &choices, &keys, &keywords, &q.Points); err != nil {
			return nil, err
		}
		if err := decodeJSON(choices, &q.Choices); err != nil {
			return nil, fmt.Errorf("question %d choices: %w", q.ID, err)
		}
		if err := decodeJSON(keys, &q.CorrectKeys); err != nil {
			return nil, fmt.Errorf("question %d correct keys: %w", q.ID, err)
		}
		if err := decodeJSON(keywords, &q.Keywords); err != nil {
			return nil, fmt.Errorf("question %d keywords: %w", q.ID, err)
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

func encodeJSON(v any) (string, error) {
	if v == nil {
		return "[]", nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func decodeJSON(s string, v any) error {
	if s == "" || s == "[]" {
		return nil
	}
	return json.Unmarshal([]byte(s), v)
}
