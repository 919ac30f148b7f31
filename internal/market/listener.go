package market

import (
	"context"
	"log/slog"

	"github.com/mattparisien/becoming-front/pkg/kafka"
)

// TopicMarketsUpdated carries notifications that the backend's markets changed.
var TopicMarketsUpdated = kafka.Topic("markets", "updated")

// UpdatedData is the payload of a markets.updated event.
type UpdatedData struct {
	MarketHandle string `json:"marketHandle,omitempty"`
	Reason       string `json:"reason,omitempty"`
}

// InvalidationHandler returns a kafka.Handler that invalidates cache for every
// markets.updated event.
func InvalidationHandler(cache *Cache, logger *slog.Logger) kafka.Handler {
	return func(ctx context.Context, event *kafka.Event) error {
		var data UpdatedData
		if err := event.Decode(&data); err != nil {
			logger.WarnContext(ctx, "markets.updated payload unreadable, invalidating anyway",
				slog.String("event_id", event.ID),
				slog.String("error", err.Error()),
			)
		}

		logger.InfoContext(ctx, "markets updated upstream",
			slog.String("event_id", event.ID),
			slog.String("market", data.MarketHandle),
			slog.String("reason", data.Reason),
		)
		return cache.Invalidate(ctx)
	}
}
