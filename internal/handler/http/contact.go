package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/mattparisien/becoming-front/internal/service"
	"github.com/mattparisien/becoming-front/pkg/httputil"
	"github.com/mattparisien/becoming-front/pkg/pagination"
	"github.com/mattparisien/becoming-front/pkg/validator"
)

// ContactHandler serves the contact form and its operator listing.
type ContactHandler struct {
	service *service.ContactService
	logger  *slog.Logger
}

// NewContactHandler creates a new contact HTTP handler.
func NewContactHandler(svc *service.ContactService, logger *slog.Logger) *ContactHandler {
	return &ContactHandler{service: svc, logger: logger}
}

// contactResponse is the {ok, ...} envelope the contact form expects.
type contactResponse struct {
	OK     bool              `json:"ok"`
	ID     string            `json:"id,omitempty"`
	Error  string            `json:"error,omitempty"`
	Fields map[string]string `json:"fields,omitempty"`
}

// Submit handles POST /api/contact.
func (h *ContactHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var in service.ContactInput
	if err := validator.DecodeAndValidate(r, &in); err != nil {
		resp := contactResponse{Error: "Missing required fields"}
		var decErr *validator.DecodeError
		var valErr *validator.ValidationError
		switch {
		case errors.As(err, &decErr):
			resp.Error = "Invalid JSON"
		case errors.As(err, &valErr):
			resp.Fields = valErr.Fields()
		}
		httputil.WriteJSON(w, http.StatusBadRequest, resp)
		return
	}

	sub, err := h.service.Submit(r.Context(), in)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to store contact submission",
			slog.String("error", err.Error()),
		)
		httputil.WriteJSON(w, http.StatusInternalServerError, contactResponse{Error: "Failed to submit message"})
		return
	}

	httputil.WriteJSON(w, http.StatusOK, contactResponse{OK: true, ID: sub.ID})
}

// List handles GET /api/admin/contact-submissions?page=&limit=.
func (h *ContactHandler) List(w http.ResponseWriter, r *http.Request) {
	page, err := h.service.List(r.Context(), pagination.FromRequest(r))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, page)
}
