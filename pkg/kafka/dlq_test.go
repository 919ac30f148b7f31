package kafka

import (
	"context"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDLQProducer_Publish(t *testing.T) {
	w := &fakeWriter{}
	d := &DLQProducer{writer: w, logger: testLogger()}

	original := kafka.Message{
		Topic:     "storefront.markets.updated",
		Partition: 2,
		Offset:    41,
		Key:       []byte("markets"),
		Value:     []byte(`{"id":"e1"}`),
		Headers:   []kafka.Header{{Key: "event_type", Value: []byte("market.updated")}},
	}

	require.NoError(t, d.Publish(context.Background(), original, errors.New("boom"), "storefront-markets"))
	require.Len(t, w.msgs, 1)

	msg := w.msgs[0]
	assert.Equal(t, "storefront.dlq.storefront.markets.updated", msg.Topic)
	assert.Equal(t, original.Value, msg.Value)

	carrier := headerCarrier{headers: &msg.Headers}
	assert.Equal(t, "market.updated", carrier.Get("event_type"))
	assert.Equal(t, "2", carrier.Get("dlq.original_partition"))
	assert.Equal(t, "41", carrier.Get("dlq.original_offset"))
	assert.Equal(t, "storefront-markets", carrier.Get("dlq.consumer_group"))
	assert.Equal(t, "boom", carrier.Get("dlq.error"))
}

func TestDLQHeaders_NoError(t *testing.T) {
	headers := dlqHeaders(kafka.Message{Topic: "t"}, nil, "g")
	carrier := headerCarrier{headers: &headers}
	assert.Empty(t, carrier.Get("dlq.error"))
	assert.Equal(t, "t", carrier.Get("dlq.original_topic"))
}
