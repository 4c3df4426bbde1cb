package broker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKafkaPublishesEnvelope(t *testing.T) {
	sp := mocks.NewSyncProducer(t, nil)
	var got Message
	sp.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		return json.Unmarshal(val, &got)
	})

	k := NewKafkaWithProducer(sp, "storefront.order.events")
	err := k.Publish(context.Background(), "order.placed", "order-42", map[string]interface{}{"invoice_number": "INV-20250101120000-42"})
	require.NoError(t, err)
	require.NoError(t, k.Close())

	assert.Equal(t, "order.placed", got.Type)
	assert.Equal(t, "order-42", got.Key)
	assert.Equal(t, "INV-20250101120000-42", got.Data.(map[string]interface{})["invoice_number"])
	assert.False(t, got.OccurredAt.IsZero())
}

func TestKafkaPublishError(t *testing.T) {
	sp := mocks.NewSyncProducer(t, nil)
	sp.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	k := NewKafkaWithProducer(sp, "topic")
	err := k.Publish(context.Background(), "payment.completed", "order-1", nil)
	assert.True(t, errors.Is(err, sarama.ErrOutOfBrokers))
	require.NoError(t, k.Close())
}

type recording struct{ events []string }

func (r *recording) Publish(_ context.Context, eventType, key string, _ interface{}) error {
	r.events = append(r.events, eventType+":"+key)
	return nil
}
func (r *recording) Close() error { return nil }

func TestPackagePublisherSwap(t *testing.T) {
	rec := &recording{}
	Use(rec)
	defer Use(nil)

	require.NoError(t, Publish(context.Background(), "order.status_changed", "order-7", nil))
	assert.Equal(t, []string{"order.status_changed:order-7"}, rec.events)
}
