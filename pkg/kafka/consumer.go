package kafka

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
)

// maxHandlerRetries bounds handler attempts per message before it is parked.
const maxHandlerRetries = 3

// Handler processes one event.
type Handler func(ctx context.Context, event *Event) error

// ConsumerConfig holds Kafka consumer configuration.
type ConsumerConfig struct {
	Brokers  []string
	GroupID  string
	Topic    string
	MinBytes int
	MaxBytes int
}

// messageReader is the subset of *kafka.Reader used by Consumer.
type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// deadLetterer receives messages whose handler kept failing.
type deadLetterer interface {
	Publish(ctx context.Context, msg kafka.Message, lastErr error, group string) error
}

// Consumer reads one topic in a consumer group and feeds a Handler.
type Consumer struct {
	reader    messageReader
	dlq       deadLetterer
	handler   Handler
	logger    *slog.Logger
	topic     string
	group     string
	backoff   time.Duration
	closeOnce sync.Once
}

// NewConsumer creates a consumer for cfg.Topic in cfg.GroupID.
func NewConsumer(cfg ConsumerConfig, handler Handler, logger *slog.Logger) *Consumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.Brokers,
		GroupID:  cfg.GroupID,
		Topic:    cfg.Topic,
		MinBytes: cfg.MinBytes,
		MaxBytes: cfg.MaxBytes,
	})
	return newConsumer(r, cfg.Topic, cfg.GroupID, handler, logger)
}

func newConsumer(r messageReader, topic, group string, handler Handler, logger *slog.Logger) *Consumer {
	return &Consumer{
		reader:  r,
		handler: handler,
		logger:  logger,
		topic:   topic,
		group:   group,
		backoff: 100 * time.Millisecond,
	}
}

// WithDLQ routes messages that exhaust their retries to dlq instead of
// dropping them.
func (c *Consumer) WithDLQ(dlq *DLQProducer) *Consumer {
	c.dlq = dlq
	return c
}

// Start consumes until ctx is canceled.
func (c *Consumer) Start(ctx context.Context) error {
	c.logger.Info("consumer started",
		slog.String("topic", c.topic),
		slog.String("group", c.group),
	)

	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				c.logger.Info("consumer stopping", slog.String("topic", c.topic))
				return c.Close()
			}
			c.logger.Error("failed to fetch message", slog.String("error", err.Error()))
			continue
		}

		if !c.process(ctx, msg) {
			return c.Close()
		}
	}
}

// process handles msg and commits it. It returns false when ctx ended
// during a retry backoff.
func (c *Consumer) process(ctx context.Context, msg kafka.Message) bool {
	ctx = extractTrace(ctx, msg)

	event, err := UnmarshalEvent(msg.Value)
	if err != nil {
		messagesConsumed.WithLabelValues(c.topic, c.group, "malformed").Inc()
		c.logger.ErrorContext(ctx, "failed to unmarshal event",
			slog.String("topic", msg.Topic),
			slog.Int64("offset", msg.Offset),
			slog.String("error", err.Error()),
		)
		c.commit(ctx, msg)
		return true
	}

	start := time.Now()
	var lastErr error
	for attempt := 1; attempt <= maxHandlerRetries; attempt++ {
		lastErr = c.handler(ctx, event)
		if lastErr == nil {
			break
		}

		c.logger.WarnContext(ctx, "handler failed, will retry",
			slog.String("event_type", event.Type),
			slog.String("subject", event.Subject),
			slog.Int("attempt", attempt),
			slog.String("error", lastErr.Error()),
		)

		if attempt < maxHandlerRetries {
			select {
			case <-ctx.Done():
				return false
			case <-time.After(time.Duration(attempt) * c.backoff):
			}
		}
	}
	handleDuration.WithLabelValues(c.topic, c.group).Observe(time.Since(start).Seconds())

	if lastErr != nil {
		messagesConsumed.WithLabelValues(c.topic, c.group, "failed").Inc()
		c.logger.ErrorContext(ctx, "handler failed after all retries",
			slog.String("event_type", event.Type),
			slog.String("subject", event.Subject),
			slog.Int64("offset", msg.Offset),
			slog.String("error", lastErr.Error()),
		)
		if c.dlq != nil {
			if err := c.dlq.Publish(ctx, msg, lastErr, c.group); err != nil {
				// Leave the message uncommitted so it is redelivered.
				return true
			}
		}
	} else {
		messagesConsumed.WithLabelValues(c.topic, c.group, "processed").Inc()
	}

	c.commit(ctx, msg)
	return true
}

func (c *Consumer) commit(ctx context.Context, msg kafka.Message) {
	if err := c.reader.CommitMessages(ctx, msg); err != nil {
		c.logger.ErrorContext(ctx, "failed to commit message",
			slog.Int64("offset", msg.Offset),
			slog.String("error", err.Error()),
		)
	}
}

// Close closes the reader. It is safe to call more than once.
func (c *Consumer) Close() error {
	var err error
	c.closeOnce.Do(func() {
		err = c.reader.Close()
	})
	return err
}
