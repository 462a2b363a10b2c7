// internal/queue/queue_test.go
package queue

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestQueue(t *testing.T) (*Queue, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return New(client, ""), mr
}

func TestQueue_FIFO(t *testing.T) {
	q, _ := newTestQueue(t)
	ctx := context.Background()

	require.NoError(t, q.Enqueue(ctx, 1))
	require.NoError(t, q.Enqueue(ctx, 2))

	n, err := q.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	first, err := q.Dequeue(ctx, 100*time.Millisecond)
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.Equal(t, int64(1), first.TaskID)
	assert.NotEmpty(t, first.ID)
	assert.False(t, first.EnqueuedAt.IsZero())

	second, err := q.Dequeue(ctx, 100*time.Millisecond)
	require.NoError(t, err)
	require.NotNil(t, second)
	assert.Equal(t, int64(2), second.TaskID)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestQueue_DequeueTimeout(t *testing.T) {
	q, _ := newTestQueue(t)

	job, err := q.Dequeue(context.Background(), 50*time.Millisecond)

	require.NoError(t, err)
	assert.Nil(t, job)
}

func TestQueue_MalformedMessage(t *testing.T) {
	q, mr := newTestQueue(t)
	_, err := mr.Lpush(DefaultKey, "not json")
	require.NoError(t, err)

	_, err = q.Dequeue(context.Background(), 50*time.Millisecond)

	assert.ErrorContains(t, err, "malformed job")
}

func TestPool_ProcessesEveryJob(t *testing.T) {
	q, _ := newTestQueue(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	for id := int64(1); id <= 6; id++ {
		require.NoError(t, q.Enqueue(ctx, id))
	}

	var (
		mu   sync.Mutex
		seen []int64
	)
	done := make(chan struct{})
	handler := func(_ context.Context, job Job) error {
		mu.Lock()
		seen = append(seen, job.TaskID)
		if len(seen) == 6 {
			close(done)
		}
		mu.Unlock()

		switch job.TaskID {
		case 3:
			return errors.New("boom")
		case 4:
			panic("handler bug")
		}
		return nil
	}

	pool := NewPool(q, 3, handler, slog.New(slog.NewTextHandler(io.Discard, nil)))
	pool.wait = 20 * time.Millisecond

	runErr := make(chan error, 1)
	go func() { runErr <- pool.Run(ctx) }()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("pool did not drain the queue")
	}
	cancel()

	select {
	case err := <-runErr:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("pool did not stop")
	}

	mu.Lock()
	defer mu.Unlock()
	sort.Slice(seen, func(i, j int) bool { return seen[i] < seen[j] })
	assert.Equal(t, []int64{1, 2, 3, 4, 5, 6}, seen)
}
