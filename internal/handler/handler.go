package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/No-bodyq/ACAD-AI-test/internal/grading"
	"github.com/No-bodyq/ACAD-AI-test/internal/model"
	"github.com/No-bodyq/ACAD-AI-test/internal/store"
)

// Handler holds shared dependencies for HTTP handlers.
type Handler struct {
	store    *store.Store
	pipeline *grading.Pipeline
	config   model.ServerConfig
}

// New creates a new Handler.
func New(s *store.Store, p *grading.Pipeline, cfg model.ServerConfig) *Handler {
	return &Handler{store: s, pipeline: p, config: cfg}
}

// Routes registers all HTTP routes.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/login", h.handleLogin)
	r.Post("/logout", h.handleLogout)

	r.Group(func(r chi.Router) {
		r.Use(h.requireAuth)

		r.Get("/exams", h.handleListExams)
		r.Get("/exams/{examID}", h.handleGetExam)
		r.Post("/exams/{examID}/submissions", h.handleSubmitExam)
		r.Get("/submissions", h.handleListSubmissions)
		r.Get("/submissions/{submissionID}", h.handleGetSubmission)

		r.Group(func(r chi.Router) {
			r.Use(requireRole(model.UserRoleAdmin))
			r.Post("/exams", h.handleCreateExam)
			r.Get("/users", h.handleListUsers)
			r.Post("/users", h.handleCreateUser)
			r.Post("/users/{userID}/active", h.handleSetUserActive)
		})
	})
}

func (h *Handler) handleListExams(w http.ResponseWriter, r *http.Request) {
	exams, err := h.store.ListExams()
	if err != nil {
		slog.Error("failed to list exams", "error", err)
		respondError(r.Context(), w, http.StatusInternalServerError, "ErrInternal")
		return
	}
	respondJSON(w, http.StatusOK, exams)
}

func (h *Handler) handleGetExam(w http.ResponseWriter, r *http.Request) {
	examID, err := strconv.ParseInt(chi.URLParam(r, "examID"), 10, 64)
	if err != nil {
		respondError(r.Context(), w, http.StatusBadRequest, "ErrInvalidRequest")
		return
	}

	exam, err := h.store.GetExam(examID)
	if err != nil {
		slog.Error("failed to get exam", "id", examID, "error", err)
		respondError(r.Context(), w, http.StatusInternalServerError, "ErrInternal")
		return
	}
	if exam == nil {
		respondError(r.Context(), w, http.StatusNotFound, "ErrExamNotFound")
		return
	}

	user := model.UserFromContext(r.Context())
	if !user.IsStaff() {
		hideAnswerKeys(exam)
	}
	respondJSON(w, http.StatusOK, exam)
}

// hideAnswerKeys strips grading material from an exam before it is shown to a
// student.
func hideAnswerKeys(exam *model.Exam) {
	for i := range exam.Questions {
		exam.Questions[i].CorrectKeys = nil
		exam.Questions[i].Keywords = nil
	}
}

type submitRequest struct {
	Answers []model.AnswerEntry `json:"answers"`
}

func (h *Handler) handleSubmitExam(w http.ResponseWriter, r *http.Request) {
	examID, err := strconv.ParseInt(chi.URLParam(r, "examID"), 10, 64)
	if err != nil {
		respondError(r.Context(), w, http.StatusBadRequest, "ErrInvalidRequest")
		return
	}

	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(r.Context(), w, http.StatusBadRequest, "ErrInvalidRequest")
		return
	}
	if len(req.Answers) == 0 {
		respondError(r.Context(), w, http.StatusBadRequest, "ErrAnswersRequired")
		return
	}

	exam, err := h.store.GetExam(examID)
	if err != nil {
		slog.Error("failed to get exam", "id", examID, "error", err)
		respondError(r.Context(), w, http.StatusInternalServerError, "ErrInternal")
		return
	}
	if exam == nil {
		respondError(r.Context(), w, http.StatusNotFound, "ErrExamNotFound")
		return
	}

	user := model.UserFromContext(r.Context())
	exists, err := h.store.HasSubmission(user.ID, examID)
	if err != nil {
		slog.Error("failed to check submission", "error", err)
		respondError(r.Context(), w, http.StatusInternalServerError, "ErrInternal")
		return
	}
	if exists {
		respondError(r.Context(), w, http.StatusConflict, "ErrDuplicateSubmission")
		return
	}

	result, err := h.pipeline.GradeSubmission(r.Context(), exam, req.Answers)
	if err != nil {
		if verrs, ok := grading.AsValidationErrors(err); ok {
			respondValidationErrors(r.Context(), w, verrs)
			return
		}
		slog.Error("grading failed", "exam_id", examID, "student_id", user.ID, "error", err)
		respondError(r.Context(), w, http.StatusInternalServerError, "ErrInternal")
		return
	}

	sub, err := h.store.CreateSubmission(user.ID, examID, result)
	if err != nil {
		if errors.Is(err, store.ErrDuplicateSubmission) {
			respondError(r.Context(), w, http.StatusConflict, "ErrDuplicateSubmission")
			return
		}
		slog.Error("failed to persist submission", "error", err)
		respondError(r.Context(), w, http.StatusInternalServerError, "ErrInternal")
		return
	}

	slog.Info("graded submission",
		"submission_id", sub.ID, "exam_id", examID, "student_id", user.ID,
		"grade", sub.Grade, "status", sub.Status)
	respondJSON(w, http.StatusCreated, sub)
}

func (h *Handler) handleListSubmissions(w http.ResponseWriter, r *http.Request) {
	user := model.UserFromContext(r.Context())

	var (
		subs []model.Submission
		err  error
	)
	if user.IsStaff() {
		subs, err = h.store.ListSubmissions()
	} else {
		subs, err = h.store.ListSubmissionsByStudent(user.ID)
	}
	if err != nil {
		slog.Error("failed to list submissions", "error", err)
		respondError(r.Context(), w, http.StatusInternalServerError, "ErrInternal")
		return
	}
	respondJSON(w, http.StatusOK, subs)
}

func (h *Handler) handleGetSubmission(w http.ResponseWriter, r *http.Request) {
	subID, err := strconv.ParseInt(chi.URLParam(r, "submissionID"), 10, 64)
	if err != nil {
		respondError(r.Context(), w, http.StatusBadRequest, "ErrInvalidRequest")
		return
	}

	sub, err := h.store.GetSubmission(subID)
	if err != nil {
		slog.Error("failed to get submission", "id", subID, "error", err)
		respondError(r.Context(), w, http.StatusInternalServerError, "ErrInternal")
		return
	}
	if sub == nil {
		respondError(r.Context(), w, http.StatusNotFound, "ErrSubmissionNotFound")
		return
	}

	user := model.UserFromContext(r.Context())
	if !user.IsStaff() && sub.StudentID != user.ID {
		respondError(r.Context(), w, http.StatusForbidden, "ErrForbidden")
		return
	}
	respondJSON(w, http.StatusOK, sub)
}
