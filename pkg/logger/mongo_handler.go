package logger

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// LogDocument is one log line as stored in MongoDB. Attributes support
// staff look for are lifted to top-level fields so they can be indexed.
type LogDocument struct {
	Time      time.Time `bson:"time"`
	Level     string    `bson:"level"`
	Msg       string    `bson:"msg"`
	RequestID string    `bson:"request_id,omitempty"`
	OrderID   any       `bson:"order_id,omitempty"`
	UserID    any       `bson:"user_id,omitempty"`
	Invoice   string    `bson:"invoice,omitempty"`
	Attrs     bson.M    `bson:"attrs,omitempty"`
}

func toDocument(r slog.Record, bound []slog.Attr, group string) LogDocument {
	doc := LogDocument{Time: r.Time.UTC(), Level: r.Level.String(), Msg: r.Message}
	put := func(a slog.Attr) {
		v := a.Value.Resolve()
		switch a.Key {
		case "request_id":
			doc.RequestID = v.String()
		case "order_id":
			doc.OrderID = v.Any()
		case "user_id":
			doc.UserID = v.Any()
		case "invoice":
			doc.Invoice = v.String()
		default:
			if doc.Attrs == nil {
				doc.Attrs = bson.M{}
			}
			doc.Attrs[group+a.Key] = v.Any()
		}
	}
	for _, a := range bound {
		put(a)
	}
	r.Attrs(func(a slog.Attr) bool {
		put(a)
		return true
	})
	return doc
}

type inserter interface {
	InsertMany(ctx context.Context, docs []interface{}, opts ...*options.InsertManyOptions) (*mongo.InsertManyResult, error)
}

// batcher queues documents and writes them from one goroutine, in batches
// of up to size or every tick. A full queue drops documents.
type batcher struct {
	col     inserter
	queue   chan LogDocument
	size    int
	tick    time.Duration
	stopped chan struct{}
	once    sync.Once
	wg      sync.WaitGroup
}

func newBatcher(col inserter, queueLen, size int, tick time.Duration) *batcher {
	b := &batcher{col: col, queue: make(chan LogDocument, queueLen), size: size, tick: tick, stopped: make(chan struct{})}
	b.wg.Add(1)
	go b.run()
	return b
}

func (b *batcher) add(doc LogDocument) {
	select {
	case b.queue <- doc:
	default:
	}
}

func (b *batcher) run() {
	defer b.wg.Done()
	ticker := time.NewTicker(b.tick)
	defer ticker.Stop()

	pending := make([]interface{}, 0, b.size)
	write := func() {
		if len(pending) == 0 {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_, _ = b.col.InsertMany(ctx, pending)
		cancel()
		pending = make([]interface{}, 0, b.size)
	}

	for {
		select {
		case doc := <-b.queue:
			if pending = append(pending, doc); len(pending) >= b.size {
				write()
			}
		case <-ticker.C:
			write()
		case <-b.stopped:
			for {
				select {
				case doc := <-b.queue:
					pending = append(pending, doc)
				default:
					write()
					return
				}
			}
		}
	}
}

// stop writes whatever is queued and waits for the writer to exit.
func (b *batcher) stop() {
	b.once.Do(func() { close(b.stopped) })
	b.wg.Wait()
}

// MongoHandler is a slog.Handler that ships records to a MongoDB
// collection without blocking the caller.
type MongoHandler struct {
	level  slog.Level
	out    *batcher
	client *mongo.Client
	attrs  []slog.Attr
	group  string
}

// NewMongoHandler connects to uri and writes to db.collection, creating
// the lookup indexes on first use.
func NewMongoHandler(uri, db, collection string, level slog.Level) (*MongoHandler, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri).
		SetServerSelectionTimeout(5*time.Second).
		SetMaxPoolSize(4))
	if err != nil {
		return nil, fmt.Errorf("mongo log sink: connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo log sink: ping: %w", err)
	}

	col := client.Database(db).Collection(collection)
	_, _ = col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "time", Value: -1}}},
		{Keys: bson.D{{Key: "request_id", Value: 1}}, Options: options.Index().SetSparse(true)},
		{Keys: bson.D{{Key: "order_id", Value: 1}}, Options: options.Index().SetSparse(true)},
		{Keys: bson.D{{Key: "invoice", Value: 1}}, Options: options.Index().SetSparse(true)},
	})

	return &MongoHandler{level: level, out: newBatcher(col, 4096, 50, 2*time.Second), client: client}, nil
}

func (h *MongoHandler) Enabled(_ context.Context, l slog.Level) bool { return l >= h.level }

func (h *MongoHandler) Handle(_ context.Context, r slog.Record) error {
	h.out.add(toDocument(r, h.attrs, h.group))
	return nil
}

func (h *MongoHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = append(append([]slog.Attr{}, h.attrs...), attrs...)
	return &clone
}

func (h *MongoHandler) WithGroup(name string) slog.Handler {
	clone := *h
	clone.group = strings.TrimPrefix(h.group+name+".", ".")
	return &clone
}

// Close flushes queued lines and disconnects. It may be called twice.
func (h *MongoHandler) Close() {
	h.out.stop()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = h.client.Disconnect(ctx)
}
