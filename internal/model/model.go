package model

import (
	"context"
	"time"
)

// UserRole represents a user's access level.
type UserRole string

const (
	// UserRoleStudent is a regular learner account.
	UserRoleStudent UserRole = "student"
	// UserRoleAdmin can author exams and manage users.
	UserRoleAdmin UserRole = "admin"
)

// User represents a system user.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	DisplayName  string    `json:"display_name"`
	PasswordHash string    `json:"-"`
	Role         UserRole  `json:"role"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
}

// IsStaff reports whether the user may see answer keys and other users' data.
func (u *User) IsStaff() bool {
	return u != nil && u.Role == UserRoleAdmin
}

// AuthSession represents an authentication session.
type AuthSession struct {
	ID        string
	UserID    int64
	CreatedAt time.Time
	ExpiresAt time.Time
}

type userCtxKey struct{}

// ContextWithUser stores a user in the request context.
func ContextWithUser(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, userCtxKey{}, u)
}

// UserFromContext retrieves the authenticated user from context, or nil.
func UserFromContext(ctx context.Context) *User {
	u, _ := ctx.Value(userCtxKey{}).(*User)
	return u
}

// QuestionType distinguishes the two supported question kinds.
type QuestionType string

const (
	// QuestionMCQ is a multiple-choice question with a bounded choice set.
	QuestionMCQ QuestionType = "mcq"
	// QuestionText is an open-ended free-text question.
	QuestionText QuestionType = "text"
)

// Choice is one option of a multiple-choice question.
type Choice struct {
	Key  string `json:"key"`
	Text string `json:"text"`
}

// Question is an exam question. MCQ questions carry Choices and CorrectKeys;
// text questions carry Keywords, used by rule-based grading and as the rubric
// for delegated grading.
type Question struct {
	ID          int64        `json:"id"`
	ExamID      int64        `json:"exam_id"`
	Text        string       `json:"text"`
	Type        QuestionType `json:"question_type"`
	Choices     []Choice     `json:"choices,omitempty"`
	CorrectKeys []string     `json:"correct_keys,omitempty"`
	Keywords    []string     `json:"keywords,omitempty"`
	Points      float64      `json:"points"`
	Order       int          `json:"order"`
}

// Exam is a named ordered collection of questions.
type Exam struct {
	ID              int64      `json:"id"`
	Title           string     `json:"title"`
	Course          string     `json:"course,omitempty"`
	DurationMinutes int        `json:"duration_minutes,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	Questions       []Question `json:"questions,omitempty"`
}

// AnswerEntry is one submitted answer. Question is a 1-based order index into
// the exam's question list per the documented submission format.
type AnswerEntry struct {
	Question       int    `json:"question"`
	SelectedChoice string `json:"selected_choice,omitempty"`
	AnswerText     string `json:"answer_text,omitempty"`
}

// GradingMethod identifies which grading variant produced a score.
type GradingMethod string

const (
	// MethodRuleBased is deterministic rule matching.
	MethodRuleBased GradingMethod = "rule_based"
	// MethodDelegated is the external semantic grader.
	MethodDelegated GradingMethod = "delegated"
)

// ResultStatus is the pipeline-level outcome of a grading run.
type ResultStatus string

const (
	// ResultComplete means every answer was graded by the configured strategy.
	ResultComplete ResultStatus = "complete"
	// ResultPartiallyFailed means at least one answer fell back to rule-based
	// grading because the external grader was unavailable.
	ResultPartiallyFailed ResultStatus = "partially_failed"
)

// GradedAnswer is one scored answer within a grading run.
type GradedAnswer struct {
	Question Question      `json:"question"`
	Entry    AnswerEntry   `json:"entry"`
	Awarded  float64       `json:"points_awarded"`
	Possible float64       `json:"points_possible"`
	Feedback string        `json:"feedback,omitempty"`
	Method   GradingMethod `json:"method"`
	Degraded bool          `json:"degraded,omitempty"`
}

// GradedResult is the aggregated outcome of one grading run. Answers preserve
// submission order. Grade is the percent score rounded to two decimals.
type GradedResult struct {
	Answers       []GradedAnswer `json:"answers"`
	TotalAwarded  float64        `json:"total_awarded"`
	TotalPossible float64        `json:"total_possible"`
	Grade         float64        `json:"grade"`
	Status        ResultStatus   `json:"status"`
}

// Submission is a persisted graded submission.
type Submission struct {
	ID            int64              `json:"id"`
	StudentID     int64              `json:"student_id"`
	ExamID        int64              `json:"exam_id"`
	SubmittedAt   time.Time          `json:"submitted_at"`
	Status        ResultStatus       `json:"status"`
	Grade         float64            `json:"grade"`
	TotalAwarded  float64            `json:"total_awarded"`
	TotalPossible float64            `json:"total_possible"`
	Answers       []SubmissionAnswer `json:"answers,omitempty"`
}

// SubmissionAnswer is one persisted answer of a submission.
type SubmissionAnswer struct {
	ID             int64         `json:"id"`
	SubmissionID   int64         `json:"submission_id"`
	QuestionID     int64         `json:"question_id"`
	SelectedChoice string        `json:"selected_choice,omitempty"`
	AnswerText     string        `json:"answer_text,omitempty"`
	Awarded        float64       `json:"points_awarded"`
	Possible       float64       `json:"points_possible"`
	Feedback       string        `json:"feedback,omitempty"`
	Method         GradingMethod `json:"method"`
	Degraded       bool          `json:"degraded,omitempty"`
}

// QuestionImport is one question entry of an exam JSON file.
type QuestionImport struct {
	Text        string       `json:"text"`
	Type        QuestionType `json:"type"`
	Choices     []Choice     `json:"choices,omitempty"`
	CorrectKeys []string     `json:"correct_keys,omitempty"`
	Keywords    []string     `json:"keywords,omitempty"`
	Points      float64      `json:"points"`
}

// ExamImport is one exam entry of an exam JSON file.
type ExamImport struct {
	Title           string           `json:"title"`
	Course          string           `json:"course"`
	DurationMinutes int              `json:"duration_minutes"`
	Questions       []QuestionImport `json:"questions"`
}

// ServerConfig holds runtime parameters set via CLI flags.
type ServerConfig struct {
	Strategy      string // grading strategy selector (mock or delegated)
	Lang          string
	SecureCookies bool
}
