package http

import (
	"log/slog"
	"net/http"

	"github.com/mattparisien/becoming-front/internal/backend"
	"github.com/mattparisien/becoming-front/pkg/httputil"
	"github.com/mattparisien/becoming-front/pkg/validator"
)

const internalErrorMessage = "Internal server error"

// OrderHandler forwards pending order and domain registration requests to
// the backend API.
type OrderHandler struct {
	backend *backend.Client
	logger  *slog.Logger
}

// NewOrderHandler creates a new order HTTP handler.
func NewOrderHandler(client *backend.Client, logger *slog.Logger) *OrderHandler {
	return &OrderHandler{backend: client, logger: logger}
}

// CreatePendingOrder handles POST /api/orders/pending.
func (h *OrderHandler) CreatePendingOrder(w http.ResponseWriter, r *http.Request) {
	var in backend.PendingOrderInput
	if err := validator.Decode(r, &in); err != nil {
		httputil.WriteMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	body, err := h.backend.CreatePendingOrder(r.Context(), in)
	if err != nil {
		httputil.WriteErrorMessage(w, r, err, h.logger, internalErrorMessage)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, body)
}

// GetPendingOrder handles GET /api/orders/pending?customId=.
func (h *OrderHandler) GetPendingOrder(w http.ResponseWriter, r *http.Request) {
	body, err := h.backend.PendingOrder(r.Context(), r.URL.Query().Get("customId"))
	if err != nil {
		httputil.WriteErrorMessage(w, r, err, h.logger, internalErrorMessage)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, body)
}

// RegisterDomain handles POST /api/domains/register.
func (h *OrderHandler) RegisterDomain(w http.ResponseWriter, r *http.Request) {
	var in backend.DomainRegistration
	if err := validator.Decode(r, &in); err != nil {
		httputil.WriteMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	body, err := h.backend.RegisterDomain(r.Context(), in)
	if err != nil {
		httputil.WriteErrorMessage(w, r, err, h.logger, internalErrorMessage)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, body)
}
