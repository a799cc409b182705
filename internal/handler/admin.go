package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"golang.org/x/crypto/bcrypt"

	"github.com/go-chi/chi/v5"
	"github.com/No-bodyq/ACAD-AI-test/internal/model"
)

func (h *Handler) handleCreateExam(w http.ResponseWriter, r *http.Request) {
	var imp model.ExamImport
	if err := json.NewDecoder(r.Body).Decode(&imp); err != nil {
		respondError(r.Context(), w, http.StatusBadRequest, "ErrInvalidRequest")
		return
	}
	if imp.Title == "" || len(imp.Questions) == 0 {
		respondError(r.Context(), w, http.StatusBadRequest, "ErrInvalidRequest")
		return
	}

	exam := model.Exam{
		Title:           imp.Title,
		Course:          imp.Course,
		DurationMinutes: imp.DurationMinutes,
	}
	for _, qi := range imp.Questions {
		exam.Questions = append(exam.Questions, model.Question{
			Text:        qi.Text,
			Type:        qi.Type,
			Choices:     qi.Choices,
			CorrectKeys: qi.CorrectKeys,
			Keywords:    qi.Keywords,
			Points:      qi.Points,
		})
	}

	id, err := h.store.CreateExam(exam)
	if err != nil {
		slog.Error("failed to create exam", "title", imp.Title, "error", err)
		respondError(r.Context(), w, http.StatusInternalServerError, "ErrInternal")
		return
	}

	created, err := h.store.GetExam(id)
	if err != nil || created == nil {
		slog.Error("failed to load created exam", "id", id, "error", err)
		respondError(r.Context(), w, http.StatusInternalServerError, "ErrInternal")
		return
	}

	slog.Info("created exam via admin", "id", id, "title", created.Title, "questions", len(created.Questions))
	respondJSON(w, http.StatusCreated, created)
}

func (h *Handler) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.store.ListUsers()
	if err != nil {
		slog.Error("failed to list users", "error", err)
		respondError(r.Context(), w, http.StatusInternalServerError, "ErrInternal")
		return
	}
	respondJSON(w, http.StatusOK, users)
}

type createUserRequest struct {
	Username    string         `json:"username"`
	DisplayName string         `json:"display_name"`
	Password    string         `json:"password"`
	Role        model.UserRole `json:"role"`
}

func (h *Handler) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(r.Context(), w, http.StatusBadRequest, "ErrInvalidRequest")
		return
	}
	if req.Username == "" || req.Password == "" {
		respondError(r.Context(), w, http.StatusBadRequest, "ErrInvalidRequest")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		slog.Error("failed to hash password", "error", err)
		respondError(r.Context(), w, http.StatusInternalServerError, "ErrInternal")
		return
	}

	if req.DisplayName == "" {
		req.DisplayName = req.Username
	}
	role := req.Role
	if role == "" {
		role = model.UserRoleStudent
	}

	id, err := h.store.CreateUser(model.User{
		Username:     req.Username,
		DisplayName:  req.DisplayName,
		PasswordHash: string(hash),
		Role:         role,
		Active:       true,
	})
	if err != nil {
		slog.Error("failed to create user", "username", req.Username, "error", err)
		respondError(r.Context(), w, http.StatusInternalServerError, "ErrInternal")
		return
	}

	user, err := h.store.GetUserByID(id)
	if err != nil || user == nil {
		respondError(r.Context(), w, http.StatusInternalServerError, "ErrInternal")
		return
	}
	respondJSON(w, http.StatusCreated, user)
}

type setActiveRequest struct {
	Active bool `json:"active"`
}

func (h *Handler) handleSetUserActive(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil {
		respondError(r.Context(), w, http.StatusBadRequest, "ErrInvalidRequest")
		return
	}

	var req setActiveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(r.Context(), w, http.StatusBadRequest, "ErrInvalidRequest")
		return
	}

	if err := h.store.SetUserActive(id, req.Active); err != nil {
		slog.Error("failed to set user active", "id", id, "error", err)
		respondError(r.Context(), w, http.StatusInternalServerError, "ErrInternal")
		return
	}

	user, err := h.store.GetUserByID(id)
	if err != nil || user == nil {
		respondError(r.Context(), w, http.StatusInternalServerError, "ErrInternal")
		return
	}
	respondJSON(w, http.StatusOK, user)
}
