package domain

import "github.com/shopspring/decimal"

// CartLine is one line of a cart as the storefront exposes it.
type CartLine struct {
	LineID          string          `json:"lineId"`
	Quantity        int             `json:"quantity"`
	VariantID       string          `json:"variantId"`
	VariantTitle    string          `json:"variantTitle"`
	ProductID       string          `json:"productId"`
	ProductTitle    string          `json:"productTitle"`
	ProductHandle   string          `json:"productHandle"`
	ProductType     string          `json:"productType"`
	Description     string          `json:"description"`
	DescriptionHTML string          `json:"descriptionHtml"`
	Price           decimal.Decimal `json:"price"`
	CurrencyCode    string          `json:"currencyCode"`
	Image           string          `json:"image"`
	ImageAlt        string          `json:"imageAlt"`
	MediaType       string          `json:"mediaType"`
	MimeType        string          `json:"mimeType"`
}

// Media types reported on a line.
const (
	MediaImage = "image"
	MediaVideo = "video"
)

// LineTotal is price times quantity.
func (l CartLine) LineTotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Cost holds cart totals.
type Cost struct {
	Total        decimal.Decimal `json:"total"`
	Subtotal     decimal.Decimal `json:"subtotal"`
	CurrencyCode string          `json:"currencyCode"`
}

// Cart is the full snapshot returned by every cart operation. A nil ID and
// CheckoutURL with no items is the empty cart.
type Cart struct {
	ID            *string    `json:"id"`
	CheckoutURL   *string    `json:"checkoutUrl"`
	Items         []CartLine `json:"items"`
	TotalQuantity int        `json:"totalQuantity"`
	Cost          *Cost      `json:"cost"`
}

// EmptyCart returns the shape served when no cart exists.
func EmptyCart() *Cart {
	return &Cart{Items: []CartLine{}}
}

// IsEmpty reports whether the cart has no identity.
func (c *Cart) IsEmpty() bool {
	return c == nil || c.ID == nil
}

// CartID returns the cart identifier or "".
func (c *Cart) CartID() string {
	if c == nil || c.ID == nil {
		return ""
	}
	return *c.ID
}

// TotalQuantity sums line quantities.
func TotalQuantity(lines []CartLine) int {
	n := 0
	for _, l := range lines {
		n += l.Quantity
	}
	return n
}

// Subtotal sums price times quantity over lines.
func Subtotal(lines []CartLine) decimal.Decimal {
	sum := decimal.Zero
	for _, l := range lines {
		sum = sum.Add(l.LineTotal())
	}
	return sum
}

// Recalculate drops lines with a non-positive quantity and recomputes the
// quantity and cost from what remains. Total is set equal to subtotal; the
// server snapshot that follows carries taxes and discounts. The currency is
// kept from the existing cost, else taken from the first line.
func (c *Cart) Recalculate() {
	kept := c.Items[:0]
	for _, l := range c.Items {
		if l.Quantity > 0 {
			kept = append(kept, l)
		}
	}
	c.Items = kept
	c.TotalQuantity = TotalQuantity(kept)

	currency := ""
	if c.Cost != nil {
		currency = c.Cost.CurrencyCode
	} else if len(kept) > 0 {
		currency = kept[0].CurrencyCode
	}
	sub := Subtotal(kept)
	c.Cost = &Cost{Total: sub, Subtotal: sub, CurrencyCode: currency}
}

// Clone returns a deep copy.
func (c *Cart) Clone() *Cart {
	if c == nil {
		return nil
	}
	out := &Cart{TotalQuantity: c.TotalQuantity}
	if c.ID != nil {
		id := *c.ID
		out.ID = &id
	}
	if c.CheckoutURL != nil {
		u := *c.CheckoutURL
		out.CheckoutURL = &u
	}
	out.Items = make([]CartLine, len(c.Items))
	copy(out.Items, c.Items)
	if c.Cost != nil {
		cost := *c.Cost
		out.Cost = &cost
	}
	return out
}

// LineInput adds merchandise to a cart.
type LineInput struct {
	MerchandiseID string `json:"merchandiseId" validate:"required"`
	Quantity      int    `json:"quantity" validate:"gte=1"`
}

// LineUpdate sets the quantity of an existing line.
type LineUpdate struct {
	ID       string `json:"id" validate:"required"`
	Quantity int    `json:"quantity" validate:"gte=0"`
}

// BuyerContext is the country and language a cart is priced in.
type BuyerContext struct {
	Country  string
	Language string
}
