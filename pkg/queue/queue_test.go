package queue_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/storefront/pkg/queue"
)

var (
	echoCalls atomic.Int32
	failCalls atomic.Int32
)

type echoJob struct {
	OrderID uint `json:"order_id"`
}

func (echoJob) JobName() string { return "test.echo" }

func (j *echoJob) Handle(context.Context) error {
	if j.OrderID == 0 {
		return errors.New("missing order id")
	}
	echoCalls.Add(1)
	return nil
}

type failJob struct{}

func (failJob) JobName() string { return "test.fail" }

func (*failJob) Handle(context.Context) error {
	failCalls.Add(1)
	return errors.New("always fails")
}

func init() {
	queue.Register("test.echo", func() queue.Job { return &echoJob{} })
	queue.Register("test.fail", func() queue.Job { return &failJob{} })
	queue.SetBackoff(10 * time.Millisecond)
	queue.StartWorkers(context.Background(), 2)
}

func TestDispatchRoundTripsPayload(t *testing.T) {
	before := echoCalls.Load()
	require.NoError(t, queue.Dispatch(&echoJob{OrderID: 7}))

	assert.Eventually(t, func() bool {
		return echoCalls.Load() == before+1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestFailedJobIsRecordedAfterRetries(t *testing.T) {
	queue.SetMaxRetry(2)
	defer queue.SetMaxRetry(3)

	before := len(queue.FailedJobs())
	require.NoError(t, queue.Dispatch(&failJob{}))

	assert.Eventually(t, func() bool {
		return len(queue.FailedJobs()) > before
	}, 2*time.Second, 10*time.Millisecond)

	last := queue.FailedJobs()[len(queue.FailedJobs())-1]
	assert.Equal(t, "test.fail", last.Type)
	assert.Equal(t, 2, last.Attempts)
}

func TestDispatchAfterWaits(t *testing.T) {
	before := echoCalls.Load()
	require.NoError(t, queue.DispatchAfter(&echoJob{OrderID: 1}, 100*time.Millisecond))

	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, before, echoCalls.Load())

	assert.Eventually(t, func() bool {
		return echoCalls.Load() == before+1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestSyncModeRunsInline(t *testing.T) {
	queue.SetSync(true)
	defer queue.SetSync(false)

	before := echoCalls.Load()
	require.NoError(t, queue.Dispatch(&echoJob{OrderID: 3}))
	assert.Equal(t, before+1, echoCalls.Load())
}
