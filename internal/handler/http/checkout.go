package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/mattparisien/becoming-front/internal/domain"
	"github.com/mattparisien/becoming-front/internal/service"
	"github.com/mattparisien/becoming-front/internal/shopify"
	"github.com/mattparisien/becoming-front/pkg/httputil"
	"github.com/mattparisien/becoming-front/pkg/validator"
)

// CheckoutHandler serves the direct checkout hand-off.
type CheckoutHandler struct {
	service *service.CartService
	logger  *slog.Logger
}

// NewCheckoutHandler creates a new checkout HTTP handler.
func NewCheckoutHandler(svc *service.CartService, logger *slog.Logger) *CheckoutHandler {
	return &CheckoutHandler{service: svc, logger: logger}
}

// CheckoutItem is one product variant to buy.
type CheckoutItem struct {
	VariantID string `json:"variantId" validate:"required"`
	Quantity  int    `json:"quantity" validate:"gte=1"`
}

// CheckoutRequest is the body of POST /api/shopify/checkout.
type CheckoutRequest struct {
	LineItems []CheckoutItem `json:"lineItems" validate:"dive"`
}

type checkoutResponse struct {
	URL string `json:"url"`
}

// CreateCheckout handles POST /api/shopify/checkout.
func (h *CheckoutHandler) CreateCheckout(w http.ResponseWriter, r *http.Request) {
	var req CheckoutRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		var decErr *validator.DecodeError
		if errors.As(err, &decErr) {
			httputil.WriteMessage(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		httputil.WriteValidationError(w, err, "Invalid line items")
		return
	}

	lines := make([]domain.LineInput, 0, len(req.LineItems))
	for _, item := range req.LineItems {
		lines = append(lines, domain.LineInput{MerchandiseID: item.VariantID, Quantity: item.Quantity})
	}

	url, err := h.service.Checkout(r.Context(), lines)
	if err != nil {
		var ue *shopify.UserError
		if errors.As(err, &ue) {
			h.logger.WarnContext(r.Context(), "checkout rejected",
				slog.String("error", ue.Error()),
			)
			httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
				Error:   "Failed to create cart",
				Details: ue.Errors,
			})
			return
		}
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, checkoutResponse{URL: url})
}
