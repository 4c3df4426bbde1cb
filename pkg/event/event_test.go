package event_test

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/shashiranjanraj/storefront/pkg/event"
)

func TestFireReachesEveryListener(t *testing.T) {
	event.Flush()
	defer event.Flush()

	var got []interface{}
	event.Listen("order.placed", func(_ context.Context, p interface{}) { got = append(got, p) })
	event.Listen("order.placed", func(_ context.Context, p interface{}) { got = append(got, p) })
	event.Listen("payment.completed", func(context.Context, interface{}) { t.Fatal("wrong event") })

	event.Fire(context.Background(), "order.placed", 12)
	assert.Equal(t, []interface{}{12, 12}, got)
}

func TestFireAsyncSurvivesPanicsAndCancellation(t *testing.T) {
	event.Flush()
	defer event.Flush()

	var calls atomic.Int32
	event.Listen("order.status_changed", func(context.Context, interface{}) { panic("boom") })
	event.Listen("order.status_changed", func(ctx context.Context, _ interface{}) {
		if ctx.Err() == nil {
			calls.Add(1)
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	event.FireAsync(ctx, "order.status_changed", nil)
	event.Wait()

	assert.Equal(t, int32(1), calls.Load())
}
