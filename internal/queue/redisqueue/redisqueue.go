// Package redisqueue implements internal/ports.Queue on a single Redis
// list: RPUSH on the producer side, BLPOP on the consumer side,
// matching the prototype's apps/orchestrator/queues.py and
// apps/worker/main.py.
package redisqueue

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/witto13/bess-crawler/internal/clerrors"
	"github.com/witto13/bess-crawler/internal/ports"
)

const popTimeout = 5 * time.Second

// Queue is a Redis-list-backed internal/ports.Queue adapter.
type Queue struct {
	client *redis.Client
	name   string
}

// New builds a Queue against an already-constructed redis.Client,
// letting tests point it at a miniredis instance.
func New(client *redis.Client, name string) *Queue {
	return &Queue{client: client, name: name}
}

// Open parses redisURL and connects, for cmd/ entrypoints.
func Open(redisURL, name string) (*Queue, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, clerrors.FailedToWithDetails("parse redis url", "queue", redisURL, err)
	}
	return New(redis.NewClient(opts), name), nil
}

func (q *Queue) Push(ctx context.Context, job ports.Job) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return clerrors.FailedTo("marshal job", err)
	}
	if err := q.client.RPush(ctx, q.name, payload).Err(); err != nil {
		return clerrors.FailedToWithDetails("push job", "queue", q.name, err)
	}
	return nil
}

// Pop blocks up to popTimeout waiting for a job, re-checking ctx each
// cycle so callers can cancel an otherwise-idle consumer loop.
func (q *Queue) Pop(ctx context.Context) (ports.Job, error) {
	for {
		select {
		case <-ctx.Done():
			return ports.Job{}, ctx.Err()
		default:
		}

		result, err := q.client.BLPop(ctx, popTimeout, q.name).Result()
		if err == redis.Nil {
			continue
		}
		if err != nil {
			return ports.Job{}, clerrors.FailedToWithDetails("pop job", "queue", q.name, err)
		}

		var job ports.Job
		if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
			return ports.Job{}, clerrors.FailedTo("unmarshal job", err)
		}
		return job, nil
	}
}

func (q *Queue) Len(ctx context.Context) (int, error) {
	n, err := q.client.LLen(ctx, q.name).Result()
	if err != nil {
		return 0, clerrors.FailedToWithDetails("length", "queue", q.name, err)
	}
	return int(n), nil
}
