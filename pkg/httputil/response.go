package httputil

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	apperrors "github.com/mattparisien/becoming-front/pkg/errors"
	"github.com/mattparisien/becoming-front/pkg/logger"
	"github.com/mattparisien/becoming-front/pkg/validator"
)

const internalCode = "INTERNAL_ERROR"

// ErrorResponse is the flat error body every storefront API route returns.
type ErrorResponse struct {
	Error   string            `json:"error"`
	Details any               `json:"details,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// WriteJSON writes v as JSON with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Headers are already sent; nothing meaningful can be done if encoding fails.
	_ = json.NewEncoder(w).Encode(v)
}

// WriteMessage writes {"error": message} with the given status code.
func WriteMessage(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, ErrorResponse{Error: message})
}

// WriteError writes an error body derived from err. AppErrors keep their status
// and message; anything else becomes a 500 with a generic message.
func WriteError(w http.ResponseWriter, r *http.Request, err error, fallback *slog.Logger) {
	WriteErrorMessage(w, r, err, fallback, "an internal error occurred")
}

// WriteErrorMessage is WriteError with a caller-chosen message for 500 responses.
func WriteErrorMessage(w http.ResponseWriter, r *http.Request, err error, fallback *slog.Logger, internalMessage string) {
	l := logger.FromContext(r.Context())
	if l == slog.Default() && fallback != nil {
		l = fallback
	}

	var appErr *apperrors.AppError
	if errors.As(err, &appErr) && appErr.Code != internalCode {
		if appErr.Status >= 500 {
			l.WarnContext(r.Context(), "upstream error",
				slog.String("error", err.Error()),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
			)
		}
		WriteMessage(w, appErr.Status, appErr.Message)
		return
	}

	status := apperrors.HTTPStatus(err)
	message := internalMessage

	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		message = "resource not found"
	case errors.Is(err, apperrors.ErrInvalidInput):
		message = err.Error()
	}

	if status == http.StatusInternalServerError {
		l.ErrorContext(r.Context(), "internal error",
			slog.String("error", err.Error()),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
		)
	}

	WriteMessage(w, status, message)
}

// WriteValidationError writes a 400 with the given message and, when err is a
// validator.ValidationError, the per-field messages.
func WriteValidationError(w http.ResponseWriter, err error, message string) {
	resp := ErrorResponse{Error: message}

	var valErr *validator.ValidationError
	if errors.As(err, &valErr) {
		resp.Fields = valErr.Fields()
	}

	WriteJSON(w, http.StatusBadRequest, resp)
}
