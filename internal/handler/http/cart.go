package http

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/mattparisien/becoming-front/internal/domain"
	"github.com/mattparisien/becoming-front/internal/service"
	apperrors "github.com/mattparisien/becoming-front/pkg/errors"
	"github.com/mattparisien/becoming-front/pkg/httputil"
	"github.com/mattparisien/becoming-front/pkg/validator"
)

// CartCookie holds the upstream cart id between requests.
const CartCookie = "shopify_cart_id"

const cartCookieTTL = 30 * 24 * time.Hour

// CartHandler serves /api/cart.
type CartHandler struct {
	service *service.CartService
	buyer   *BuyerResolver
	secure  bool
	logger  *slog.Logger
}

// NewCartHandler creates a new cart HTTP handler. secure marks the cart
// cookie Secure.
func NewCartHandler(svc *service.CartService, buyer *BuyerResolver, secure bool, logger *slog.Logger) *CartHandler {
	return &CartHandler{
		service: svc,
		buyer:   buyer,
		secure:  secure,
		logger:  logger,
	}
}

// --- Request DTOs ---

// AddLinesRequest is the body of POST /api/cart.
type AddLinesRequest struct {
	Lines []domain.LineInput `json:"lines" validate:"dive"`
}

// UpdateLinesRequest is the body of PATCH /api/cart.
type UpdateLinesRequest struct {
	Lines []domain.LineUpdate `json:"lines" validate:"dive"`
}

// RemoveLinesRequest is the optional body of DELETE /api/cart.
type RemoveLinesRequest struct {
	LineIDs []string `json:"lineIds"`
}

type clearedResponse struct {
	Success bool              `json:"success"`
	Items   []domain.CartLine `json:"items"`
}

type successResponse struct {
	Success bool `json:"success"`
}

// --- Handlers ---

// GetCart handles GET /api/cart.
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	cart, err := h.service.Get(r.Context(), cartIDFrom(r), h.buyer.Resolve(r))
	if errors.Is(err, service.ErrCartExpired) {
		h.clearCookie(w)
		httputil.WriteJSON(w, http.StatusOK, domain.EmptyCart())
		return
	}
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to fetch cart",
			slog.String("error", err.Error()),
		)
		httputil.WriteMessage(w, http.StatusInternalServerError, "Failed to fetch cart")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, cart)
}

// AddLines handles POST /api/cart.
func (h *CartHandler) AddLines(w http.ResponseWriter, r *http.Request) {
	var req AddLinesRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		h.writeRequestError(w, err, "Invalid line items")
		return
	}

	cart, err := h.service.Add(r.Context(), cartIDFrom(r), req.Lines, h.buyer.Resolve(r))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	h.setCookie(w, cart.CartID())
	httputil.WriteJSON(w, http.StatusOK, cart)
}

// UpdateLines handles PATCH /api/cart.
func (h *CartHandler) UpdateLines(w http.ResponseWriter, r *http.Request) {
	cartID := cartIDFrom(r)
	if cartID == "" {
		httputil.WriteError(w, r, apperrors.NotFoundMessage("No cart found"), h.logger)
		return
	}

	var req UpdateLinesRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		h.writeRequestError(w, err, "Invalid line updates")
		return
	}

	cart, err := h.service.Update(r.Context(), cartID, req.Lines, h.buyer.Resolve(r))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, cart)
}

// RemoveLines handles DELETE /api/cart. Without lineIds the cart is
// forgotten: the cookie is cleared but the upstream cart is left alone.
func (h *CartHandler) RemoveLines(w http.ResponseWriter, r *http.Request) {
	cartID := cartIDFrom(r)
	if cartID == "" {
		httputil.WriteJSON(w, http.StatusOK, successResponse{Success: true})
		return
	}

	// An empty body means "clear"; a malformed one is rejected.
	var req RemoveLinesRequest
	if err := validator.Decode(r, &req); err != nil && !errors.Is(err, io.EOF) {
		h.writeRequestError(w, err, "Invalid line IDs")
		return
	}

	if len(req.LineIDs) == 0 {
		h.clearCookie(w)
		h.service.Forget(r.Context(), cartID)
		httputil.WriteJSON(w, http.StatusOK, clearedResponse{Success: true, Items: []domain.CartLine{}})
		return
	}

	cart, err := h.service.Remove(r.Context(), cartID, req.LineIDs, h.buyer.Resolve(r))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, cart)
}

// --- Helpers ---

func cartIDFrom(r *http.Request) string {
	c, err := r.Cookie(CartCookie)
	if err != nil {
		return ""
	}
	return c.Value
}

func (h *CartHandler) setCookie(w http.ResponseWriter, cartID string) {
	if cartID == "" {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CartCookie,
		Value:    cartID,
		Path:     "/",
		MaxAge:   int(cartCookieTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   h.secure,
	})
}

func (h *CartHandler) clearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CartCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   h.secure,
	})
}

// writeRequestError writes a 400 for a body that failed to decode or validate.
func (h *CartHandler) writeRequestError(w http.ResponseWriter, err error, message string) {
	var decErr *validator.DecodeError
	if errors.As(err, &decErr) {
		httputil.WriteMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	httputil.WriteValidationError(w, err, message)
}
