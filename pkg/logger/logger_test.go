package logger

import (
	"bytes"
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type fakeCollection struct {
	mu      sync.Mutex
	batches [][]interface{}
}

func (f *fakeCollection) InsertMany(_ context.Context, docs []interface{}, _ ...*options.InsertManyOptions) (*mongo.InsertManyResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batches = append(f.batches, docs)
	return &mongo.InsertManyResult{}, nil
}

func (f *fakeCollection) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, b := range f.batches {
		n += len(b)
	}
	return n
}

func TestToDocumentLiftsKnownKeys(t *testing.T) {
	r := slog.NewRecord(time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC), slog.LevelInfo, "order placed", 0)
	r.AddAttrs(slog.Int("order_id", 42), slog.String("invoice", "INV-1"), slog.Float64("total", 3200))

	doc := toDocument(r, []slog.Attr{slog.String("request_id", "req-1")}, "checkout.")
	assert.Equal(t, "INFO", doc.Level)
	assert.Equal(t, "req-1", doc.RequestID)
	assert.EqualValues(t, 42, doc.OrderID)
	assert.Equal(t, "INV-1", doc.Invoice)
	assert.Equal(t, 3200.0, doc.Attrs["checkout.total"])
}

func TestBatcherFlushesBySizeAndOnStop(t *testing.T) {
	col := &fakeCollection{}
	b := newBatcher(col, 16, 2, time.Hour)

	for i := 0; i < 3; i++ {
		b.add(LogDocument{Msg: "line"})
	}
	require.Eventually(t, func() bool { return col.total() >= 2 }, time.Second, 5*time.Millisecond)

	b.stop()
	b.stop()
	assert.Equal(t, 3, col.total())
}

func TestMongoHandlerGroupsAndAttrs(t *testing.T) {
	col := &fakeCollection{}
	h := &MongoHandler{level: slog.LevelInfo, out: newBatcher(col, 16, 10, time.Hour)}
	log := slog.New(h).With("request_id", "req-9").WithGroup("mpesa")

	log.Debug("ignored")
	log.Info("stk push sent", "checkout_request_id", "ws_CO_1")
	h.out.stop()

	require.Len(t, col.batches, 1)
	doc := col.batches[0][0].(LogDocument)
	assert.Equal(t, "req-9", doc.RequestID)
	assert.Equal(t, "ws_CO_1", doc.Attrs["mpesa.checkout_request_id"])
}

func TestFanoutRespectsLevels(t *testing.T) {
	var quiet, loud bytes.Buffer
	f := fanout{
		slog.NewTextHandler(&quiet, &slog.HandlerOptions{Level: slog.LevelWarn}),
		slog.NewTextHandler(&loud, &slog.HandlerOptions{Level: slog.LevelDebug}),
	}
	log := slog.New(f).With("component", "test")

	log.Info("cart updated")
	log.Warn("low stock")

	assert.NotContains(t, quiet.String(), "cart updated")
	assert.Contains(t, quiet.String(), "low stock")
	assert.Contains(t, loud.String(), "cart updated")
	assert.Contains(t, loud.String(), "component=test")
}

func TestWithCtx(t *testing.T) {
	assert.Same(t, L, WithCtx(context.Background()))

	scoped := L.With("request_id", "abc")
	assert.Same(t, scoped, WithCtx(InjectLogger(context.Background(), scoped)))
}
