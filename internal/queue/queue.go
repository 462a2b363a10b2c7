// internal/queue/queue.go

// Package queue dispatches mirror tasks to a bounded pool of workers through
// a Redis list. Messages carry only the task identifier; workers load the
// task record and credentials from the database.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// DefaultKey is the Redis list holding queued mirror jobs.
const DefaultKey = "mirror:queue"

// Job is the message enqueued for one task record.
type Job struct {
	ID         string    `json:"id"`
	TaskID     int64     `json:"task_id"`
	EnqueuedAt time.Time `json:"enqueued_at"`
}

// Queue is a FIFO work queue stored in a Redis list.
type Queue struct {
	client *redis.Client
	key    string
}

// New creates a queue on client using key (DefaultKey when empty).
func New(client *redis.Client, key string) *Queue {
	if key == "" {
		key = DefaultKey
	}
	return &Queue{client: client, key: key}
}

// Enqueue appends a job for taskID.
func (q *Queue) Enqueue(ctx context.Context, taskID int64) error {
	job := Job{
		ID:         uuid.NewString(),
		TaskID:     taskID,
		EnqueuedAt: time.Now().UTC(),
	}
	data, err := json.Marshal(job)
	if err != nil {
		return err
	}
	if err := q.client.LPush(ctx, q.key, data).Err(); err != nil {
		return fmt.Errorf("failed to enqueue task %d: %w", taskID, err)
	}
	return nil
}

// Dequeue blocks up to wait for the oldest job. It returns (nil, nil) when
// nothing arrived in time.
func (q *Queue) Dequeue(ctx context.Context, wait time.Duration) (*Job, error) {
	res, err := q.client.BRPop(ctx, wait, q.key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	// res is [key, value].
	var job Job
	if err := json.Unmarshal([]byte(res[1]), &job); err != nil {
		return nil, fmt.Errorf("malformed job %q: %w", res[1], err)
	}
	return &job, nil
}

// Len returns the number of queued jobs.
func (q *Queue) Len(ctx context.Context) (int64, error) {
	return q.client.LLen(ctx, q.key).Result()
}
