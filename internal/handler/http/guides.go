package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mattparisien/becoming-front/internal/guides"
	"github.com/mattparisien/becoming-front/pkg/httputil"
	"github.com/mattparisien/becoming-front/pkg/slug"
	"github.com/mattparisien/becoming-front/pkg/validator"
)

// GuideHandler unlocks password-protected installation guides.
type GuideHandler struct {
	verifier *guides.Verifier
	sessions *guides.Sessions
	logger   *slog.Logger
}

// NewGuideHandler creates a new installation guide HTTP handler.
func NewGuideHandler(verifier *guides.Verifier, sessions *guides.Sessions, logger *slog.Logger) *GuideHandler {
	return &GuideHandler{
		verifier: verifier,
		sessions: sessions,
		logger:   logger,
	}
}

// GuideAuthRequest is the body of POST /api/installation-guides/auth.
type GuideAuthRequest struct {
	Password string `json:"password"`
	Slug     string `json:"slug"`
}

type sessionResponse struct {
	Authenticated bool `json:"authenticated"`
}

// Authenticate handles POST /api/installation-guides/auth.
func (h *GuideHandler) Authenticate(w http.ResponseWriter, r *http.Request) {
	var req GuideAuthRequest
	if err := validator.Decode(r, &req); err != nil {
		httputil.WriteMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Password == "" || req.Slug == "" {
		httputil.WriteMessage(w, http.StatusBadRequest, "Password and slug are required")
		return
	}
	if !slug.Valid(req.Slug) {
		httputil.WriteMessage(w, http.StatusBadRequest, "Invalid guide slug")
		return
	}

	ok, err := h.verifier.Verify(r.Context(), req.Slug, req.Password)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	if !ok {
		httputil.WriteMessage(w, http.StatusUnauthorized, "Incorrect password")
		return
	}

	cookie, err := h.sessions.Cookie(req.Slug)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to sign guide session",
			slog.String("slug", req.Slug),
			slog.String("error", err.Error()),
		)
		httputil.WriteMessage(w, http.StatusInternalServerError, "Authentication failed")
		return
	}

	http.SetCookie(w, cookie)
	httputil.WriteJSON(w, http.StatusOK, successResponse{Success: true})
}

// Session handles GET /api/installation-guides/{slug}/session.
func (h *GuideHandler) Session(w http.ResponseWriter, r *http.Request) {
	s := chi.URLParam(r, "slug")
	if !slug.Valid(s) {
		httputil.WriteMessage(w, http.StatusBadRequest, "Invalid guide slug")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, sessionResponse{Authenticated: h.sessions.Authenticated(r, s)})
}
