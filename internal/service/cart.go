package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/mattparisien/becoming-front/internal/domain"
	"github.com/mattparisien/becoming-front/internal/shopify"
	apperrors "github.com/mattparisien/becoming-front/pkg/errors"
)

// ErrCartExpired is returned by Get when the cart id no longer resolves
// upstream. Callers should forget the id.
var ErrCartExpired = errors.New("cart no longer exists")

// CartGateway is the commerce backend holding carts. *shopify.CartAPI
// implements it.
type CartGateway interface {
	CreateCart(ctx context.Context, lines []domain.LineInput, bc domain.BuyerContext) (*domain.Cart, error)
	AddLines(ctx context.Context, cartID string, lines []domain.LineInput, bc domain.BuyerContext) (*domain.Cart, error)
	UpdateLines(ctx context.Context, cartID string, lines []domain.LineUpdate, bc domain.BuyerContext) (*domain.Cart, error)
	RemoveLines(ctx context.Context, cartID string, lineIDs []string, bc domain.BuyerContext) (*domain.Cart, error)
	GetCart(ctx context.Context, cartID string, bc domain.BuyerContext) (*domain.Cart, error)
	CreateCheckout(ctx context.Context, lines []domain.LineInput) (string, error)
}

// CartEvents publishes cart events. *event.Producer implements it.
type CartEvents interface {
	PublishCartUpdated(ctx context.Context, cart *domain.Cart, bc domain.BuyerContext) error
	PublishCartForgotten(ctx context.Context, cartID string) error
}

// CartService implements the storefront cart operations on top of a gateway.
// It holds no state of its own; the cart id travels in the caller's cookie.
type CartService struct {
	gateway CartGateway
	events  CartEvents
	logger  *slog.Logger
}

// NewCartService creates a new cart service.
func NewCartService(gateway CartGateway, events CartEvents, logger *slog.Logger) *CartService {
	return &CartService{
		gateway: gateway,
		events:  events,
		logger:  logger,
	}
}

// Get returns the cart for cartID. An empty id yields the empty cart; an id
// the gateway no longer knows yields ErrCartExpired.
func (s *CartService) Get(ctx context.Context, cartID string, bc domain.BuyerContext) (*domain.Cart, error) {
	if cartID == "" {
		return domain.EmptyCart(), nil
	}

	cart, err := s.gateway.GetCart(ctx, cartID, bc)
	if err != nil {
		return nil, fmt.Errorf("get cart: %w", err)
	}
	if cart == nil {
		s.logger.InfoContext(ctx, "cart expired upstream",
			slog.String("cart_id", cartID),
		)
		return nil, ErrCartExpired
	}
	return cart, nil
}

// Add adds lines to the cart identified by cartID. When cartID is empty, or
// adding to it fails for any reason, a new cart holding lines is created
// instead. Callers must persist the returned cart's id.
func (s *CartService) Add(ctx context.Context, cartID string, lines []domain.LineInput, bc domain.BuyerContext) (*domain.Cart, error) {
	if len(lines) == 0 {
		return nil, apperrors.InvalidInput("At least one line item is required")
	}

	if cartID != "" {
		cart, err := s.gateway.AddLines(ctx, cartID, lines, bc)
		if err == nil && cart != nil {
			s.publishUpdated(ctx, cart, bc)
			return cart, nil
		}

		attrs := []any{slog.String("cart_id", cartID)}
		if err != nil {
			attrs = append(attrs, slog.String("error", err.Error()))
		}
		s.logger.WarnContext(ctx, "adding to existing cart failed, creating a new cart", attrs...)
	}

	cart, err := s.gateway.CreateCart(ctx, lines, bc)
	if err != nil {
		return nil, upstreamError(err)
	}
	if cart == nil {
		return nil, apperrors.Upstream(http.StatusInternalServerError, "Failed to create/update cart")
	}

	s.logger.InfoContext(ctx, "cart created",
		slog.String("cart_id", cart.CartID()),
		slog.Int("total_quantity", cart.TotalQuantity),
	)
	s.publishUpdated(ctx, cart, bc)
	return cart, nil
}

// Update sets line quantities. A nil lines slice is rejected; an empty one is
// forwarded as is. A quantity of 0 removes the line.
func (s *CartService) Update(ctx context.Context, cartID string, lines []domain.LineUpdate, bc domain.BuyerContext) (*domain.Cart, error) {
	if cartID == "" {
		return nil, apperrors.NotFoundMessage("No cart found")
	}
	if lines == nil {
		return nil, apperrors.InvalidInput("Lines array is required")
	}

	cart, err := s.gateway.UpdateLines(ctx, cartID, lines, bc)
	if err != nil {
		return nil, upstreamError(err)
	}
	if cart == nil {
		return nil, apperrors.Upstream(http.StatusInternalServerError, "Failed to update cart")
	}

	s.publishUpdated(ctx, cart, bc)
	return cart, nil
}

// Remove removes lines by id. A cart the gateway drops in the process yields
// the empty cart.
func (s *CartService) Remove(ctx context.Context, cartID string, lineIDs []string, bc domain.BuyerContext) (*domain.Cart, error) {
	cart, err := s.gateway.RemoveLines(ctx, cartID, lineIDs, bc)
	if err != nil {
		return nil, upstreamError(err)
	}
	if cart == nil {
		return domain.EmptyCart(), nil
	}

	s.publishUpdated(ctx, cart, bc)
	return cart, nil
}

// Forget records that the browser dropped its cart reference. The upstream
// cart is left untouched.
func (s *CartService) Forget(ctx context.Context, cartID string) {
	if err := s.events.PublishCartForgotten(ctx, cartID); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish cart.forgotten event",
			slog.String("cart_id", cartID),
			slog.String("error", err.Error()),
		)
	}
	s.logger.InfoContext(ctx, "cart forgotten",
		slog.String("cart_id", cartID),
	)
}

// Checkout creates a fresh cart for lines and returns its checkout URL.
// Rejections are returned as *shopify.UserError so callers can surface every
// field error.
func (s *CartService) Checkout(ctx context.Context, lines []domain.LineInput) (string, error) {
	if len(lines) == 0 {
		return "", apperrors.InvalidInput("At least one line item is required")
	}

	url, err := s.gateway.CreateCheckout(ctx, lines)
	switch {
	case err == nil:
		return url, nil
	case shopify.IsUserError(err):
		return "", err
	case errors.Is(err, shopify.ErrNoCheckoutURL):
		return "", apperrors.Upstream(http.StatusInternalServerError, "No checkout URL returned")
	default:
		return "", upstreamError(err)
	}
}

func (s *CartService) publishUpdated(ctx context.Context, cart *domain.Cart, bc domain.BuyerContext) {
	if err := s.events.PublishCartUpdated(ctx, cart, bc); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish cart.updated event",
			slog.String("cart_id", cart.CartID()),
			slog.String("error", err.Error()),
		)
	}
}

// upstreamError maps a gateway failure to the client-facing error: user
// errors become 400 with the first message, anything else a 500 carrying the
// error text.
func upstreamError(err error) error {
	var ue *shopify.UserError
	if errors.As(err, &ue) {
		return apperrors.InvalidInput(ue.Error())
	}
	return apperrors.Upstream(http.StatusInternalServerError, err.Error())
}
