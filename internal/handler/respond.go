package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/No-bodyq/ACAD-AI-test/internal/grading"
	appI18n "github.com/No-bodyq/ACAD-AI-test/internal/i18n"
)

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}

// respondError writes a localized single-message error body.
func respondError(ctx context.Context, w http.ResponseWriter, status int, msgID string) {
	respondJSON(w, status, map[string]string{"error": appI18n.T(ctx, msgID)})
}

// respondValidationErrors writes the positional error map for a rejected
// submission, one localized message per offending answers[i] entry.
func respondValidationErrors(ctx context.Context, w http.ResponseWriter, errs grading.ValidationErrors) {
	fields := make(map[string]string, len(errs))
	for _, ve := range errs {
		fields[ve.Field()] = localizeValidationError(ctx, ve)
	}
	respondJSON(w, http.StatusBadRequest, map[string]any{"errors": fields})
}

func localizeValidationError(ctx context.Context, ve grading.ValidationError) string {
	data := map[string]any{"Ref": ve.Ref}
	switch ve.Kind {
	case grading.KindQuestionNotFound:
		return appI18n.Td(ctx, "ErrQuestionNotFound", data)
	case grading.KindDuplicateReference:
		return appI18n.Td(ctx, "ErrDuplicateReference", data)
	case grading.KindMissingSelectedChoice:
		return appI18n.Td(ctx, "ErrMissingSelectedChoice", data)
	case grading.KindInvalidChoice:
		data["Choice"] = ve.Value
		return appI18n.Td(ctx, "ErrInvalidChoice", data)
	case grading.KindMissingAnswerText:
		return appI18n.Td(ctx, "ErrMissingAnswerText", data)
	default:
		return string(ve.Kind)
	}
}
