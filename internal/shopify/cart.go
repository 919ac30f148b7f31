package shopify

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/mattparisien/becoming-front/internal/domain"
)

// ErrNoCheckoutURL is returned when cartCreate succeeds without a checkout URL.
var ErrNoCheckoutURL = errors.New("no checkout URL returned")

// CartAPI runs the Storefront cart operations. Every call is priced in the
// given buyer context.
type CartAPI struct {
	client *Client
	logger *slog.Logger
}

// NewCartAPI creates a CartAPI over a Storefront client.
func NewCartAPI(client *Client, logger *slog.Logger) *CartAPI {
	return &CartAPI{client: client, logger: logger}
}

type cartPayload struct {
	Cart       *cartNode    `json:"cart"`
	UserErrors []FieldError `json:"userErrors"`
}

func contextVars(bc domain.BuyerContext, vars map[string]any) map[string]any {
	vars["country"] = strings.ToUpper(bc.Country)
	vars["language"] = strings.ToUpper(bc.Language)
	return vars
}

// mutate runs a cart mutation whose payload field is named after operation. A
// nil cart without userErrors yields (nil, nil).
func (a *CartAPI) mutate(ctx context.Context, operation, query string, vars map[string]any) (*domain.Cart, error) {
	var data map[string]cartPayload
	if err := a.client.Do(ctx, operation, query, vars, &data); err != nil {
		return nil, err
	}

	payload := data[operation]
	if len(payload.UserErrors) > 0 {
		userErrorsTotal.WithLabelValues(operation).Inc()
		a.logger.WarnContext(ctx, "shopify user errors",
			slog.String("operation", operation),
			slog.String("error", payload.UserErrors[0].Message),
		)
		return nil, &UserError{Operation: operation, Errors: payload.UserErrors}
	}
	if payload.Cart == nil {
		return nil, nil
	}
	return toCart(payload.Cart)
}

// CreateCart creates a cart holding lines.
func (a *CartAPI) CreateCart(ctx context.Context, lines []domain.LineInput, bc domain.BuyerContext) (*domain.Cart, error) {
	return a.mutate(ctx, "cartCreate", cartCreateMutation, contextVars(bc, map[string]any{
		"input": map[string]any{"lines": lines},
	}))
}

// AddLines adds lines to an existing cart.
func (a *CartAPI) AddLines(ctx context.Context, cartID string, lines []domain.LineInput, bc domain.BuyerContext) (*domain.Cart, error) {
	return a.mutate(ctx, "cartLinesAdd", cartLinesAddMutation, contextVars(bc, map[string]any{
		"cartId": cartID,
		"lines":  lines,
	}))
}

// UpdateLines sets line quantities.
func (a *CartAPI) UpdateLines(ctx context.Context, cartID string, lines []domain.LineUpdate, bc domain.BuyerContext) (*domain.Cart, error) {
	return a.mutate(ctx, "cartLinesUpdate", cartLinesUpdateMutation, contextVars(bc, map[string]any{
		"cartId": cartID,
		"lines":  lines,
	}))
}

// RemoveLines removes lines by id.
func (a *CartAPI) RemoveLines(ctx context.Context, cartID string, lineIDs []string, bc domain.BuyerContext) (*domain.Cart, error) {
	return a.mutate(ctx, "cartLinesRemove", cartLinesRemoveMutation, contextVars(bc, map[string]any{
		"cartId":  cartID,
		"lineIds": lineIDs,
	}))
}

// GetCart fetches a cart. An expired or unknown id yields (nil, nil).
func (a *CartAPI) GetCart(ctx context.Context, cartID string, bc domain.BuyerContext) (*domain.Cart, error) {
	var data struct {
		Cart *cartNode `json:"cart"`
	}
	vars := contextVars(bc, map[string]any{"cartId": cartID})
	if err := a.client.Do(ctx, "getCart", getCartQuery, vars, &data); err != nil {
		return nil, err
	}
	if data.Cart == nil {
		return nil, nil
	}
	return toCart(data.Cart)
}

// CreateCheckout creates a cart for lines and returns its checkout URL.
func (a *CartAPI) CreateCheckout(ctx context.Context, lines []domain.LineInput) (string, error) {
	var data struct {
		CartCreate struct {
			Cart *struct {
				ID          string `json:"id"`
				CheckoutURL string `json:"checkoutUrl"`
			} `json:"cart"`
			UserErrors []FieldError `json:"userErrors"`
		} `json:"cartCreate"`
	}
	vars := map[string]any{"input": map[string]any{"lines": lines}}
	if err := a.client.Do(ctx, "cartCreate", checkoutCartMutation, vars, &data); err != nil {
		return "", err
	}

	p := data.CartCreate
	if len(p.UserErrors) > 0 {
		userErrorsTotal.WithLabelValues("cartCreate").Inc()
		return "", &UserError{Operation: "cartCreate", Errors: p.UserErrors}
	}
	if p.Cart == nil || p.Cart.CheckoutURL == "" {
		return "", ErrNoCheckoutURL
	}
	return p.Cart.CheckoutURL, nil
}
