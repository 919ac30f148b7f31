package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/mattparisien/becoming-front/internal/domain"
	pkgkafka "github.com/mattparisien/becoming-front/pkg/kafka"
	"github.com/mattparisien/becoming-front/pkg/logger"
)

// Kafka topics for cart events.
var (
	TopicCartUpdated   = pkgkafka.Topic("cart", "updated")
	TopicCartForgotten = pkgkafka.Topic("cart", "forgotten")
)

// SourceStorefront identifies events published by the storefront edge.
const SourceStorefront = "storefront"

// CartUpdatedData is the payload for a cart.updated event.
type CartUpdatedData struct {
	CartID        string           `json:"cart_id"`
	Items         []CartItemData   `json:"items"`
	TotalQuantity int              `json:"total_quantity"`
	Subtotal      decimal.Decimal  `json:"subtotal"`
	Total         decimal.Decimal  `json:"total"`
	Currency      string           `json:"currency"`
	Buyer         BuyerContextData `json:"buyer"`
}

// CartItemData is one line within a cart event.
type CartItemData struct {
	LineID    string          `json:"line_id"`
	VariantID string          `json:"variant_id"`
	ProductID string          `json:"product_id"`
	Title     string          `json:"title"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
}

// BuyerContextData records the market the cart was priced in.
type BuyerContextData struct {
	Country  string `json:"country"`
	Language string `json:"language"`
}

// CartForgottenData is the payload for a cart.forgotten event.
type CartForgottenData struct {
	CartID string `json:"cart_id"`
}

// Publisher is the subset of *pkgkafka.Producer the event producer needs.
type Publisher interface {
	Publish(ctx context.Context, topic string, event *pkgkafka.Event) error
}

// Producer publishes cart events.
type Producer struct {
	kafka  Publisher
	logger *slog.Logger
}

// NewProducer creates a cart event producer.
func NewProducer(kafka Publisher, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// PublishCartUpdated publishes a cart.updated event keyed by the cart id.
func (p *Producer) PublishCartUpdated(ctx context.Context, cart *domain.Cart, bc domain.BuyerContext) error {
	items := make([]CartItemData, len(cart.Items))
	for i, line := range cart.Items {
		items[i] = CartItemData{
			LineID:    line.LineID,
			VariantID: line.VariantID,
			ProductID: line.ProductID,
			Title:     line.ProductTitle,
			Price:     line.Price,
			Quantity:  line.Quantity,
		}
	}

	data := CartUpdatedData{
		CartID:        cart.CartID(),
		Items:         items,
		TotalQuantity: cart.TotalQuantity,
		Buyer:         BuyerContextData{Country: bc.Country, Language: bc.Language},
	}
	if cart.Cost != nil {
		data.Subtotal = cart.Cost.Subtotal
		data.Total = cart.Cost.Total
		data.Currency = cart.Cost.CurrencyCode
	}

	if err := p.publish(ctx, TopicCartUpdated, cart.CartID(), data); err != nil {
		return err
	}

	p.logger.DebugContext(ctx, "published cart.updated event",
		slog.String("cart_id", cart.CartID()),
		slog.Int("total_quantity", cart.TotalQuantity),
	)
	return nil
}

// PublishCartForgotten publishes a cart.forgotten event. The cart still
// exists upstream; only the browser dropped its reference.
func (p *Producer) PublishCartForgotten(ctx context.Context, cartID string) error {
	if err := p.publish(ctx, TopicCartForgotten, cartID, CartForgottenData{CartID: cartID}); err != nil {
		return err
	}

	p.logger.DebugContext(ctx, "published cart.forgotten event",
		slog.String("cart_id", cartID),
	)
	return nil
}

func (p *Producer) publish(ctx context.Context, topic, cartID string, data any) error {
	event, err := pkgkafka.NewEvent(topic, cartID, SourceStorefront, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}
	if id := logger.CorrelationIDFromContext(ctx); id != "" {
		event.WithCorrelationID(id)
	}

	if err := p.kafka.Publish(ctx, topic, event); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}
	return nil
}

// Discard is a Publisher that drops every event. It is used when Kafka is
// disabled.
type Discard struct{}

// Publish implements Publisher.
func (Discard) Publish(context.Context, string, *pkgkafka.Event) error {
	return nil
}
