// Package queue hands background jobs to a worker process over a Redis list.
// When Redis is not configured the dispatcher degrades to running jobs in
// process, so summaries still happen on single-node deployments.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// summarizeKey is the Redis list the worker blocks on.
const summarizeKey = "shiori:queue:summarize"

// Job asks the worker to refresh one conversation's summary and title.
type Job struct {
	ConversationID string `json:"conversation_id"`
}

// Queue enqueues jobs for asynchronous processing.
type Queue interface {
	Enqueue(ctx context.Context, job Job) error
}

// Redis is a Queue over a Redis list.
type Redis struct {
	rdb *redis.Client
}

// NewRedis connects to redisURL (redis://...) and verifies the connection.
func NewRedis(ctx context.Context, redisURL string) (*Redis, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &Redis{rdb: rdb}, nil
}

// Enqueue pushes one job onto the list.
func (r *Redis) Enqueue(ctx context.Context, job Job) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("encode job: %w", err)
	}
	if err := r.rdb.LPush(ctx, summarizeKey, payload).Err(); err != nil {
		return fmt.Errorf("enqueue job: %w", err)
	}
	return nil
}

// Run blocks on the list and hands each job to handler until ctx is
// canceled. Handler failures and malformed payloads are logged and skipped;
// the loop never dies on a single bad job.
func (r *Redis) Run(ctx context.Context, handler func(ctx context.Context, job Job) error) error {
	for {
		vals, err := r.rdb.BRPop(ctx, 5*time.Second, summarizeKey).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Warn().Err(err).Msg("queue poll failed; backing off")
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(2 * time.Second):
			}
			continue
		}
		if len(vals) != 2 {
			continue
		}
		var job Job
		if err := json.Unmarshal([]byte(vals[1]), &job); err != nil {
			log.Warn().Err(err).Str("payload", vals[1]).Msg("dropping malformed job")
			continue
		}
		if err := handler(ctx, job); err != nil {
			log.Warn().Err(err).Str("conversation_id", job.ConversationID).Msg("job failed")
		}
	}
}

// Close releases the Redis connection.
func (r *Redis) Close() error { return r.rdb.Close() }

// Dispatcher routes jobs to the queue, or runs them inline through Sync when
// no queue is configured. Dispatch never blocks the caller's request and
// never propagates failures.
type Dispatcher struct {
	// Queue may be nil.
	Queue Queue
	// Sync runs a job in process. Required when Queue is nil.
	Sync func(ctx context.Context, job Job) error
}

// Dispatch hands off one job. With a queue the enqueue happens on the
// caller's context; without one the job runs in a detached goroutine with
// its own timeout so the HTTP response is not held up.
func (d *Dispatcher) Dispatch(ctx context.Context, job Job) {
	if d.Queue != nil {
		if err := d.Queue.Enqueue(ctx, job); err != nil {
			log.Warn().Err(err).Str("conversation_id", job.ConversationID).Msg("enqueue failed; falling back to inline run")
		} else {
			return
		}
	}
	if d.Sync == nil {
		log.Warn().Str("conversation_id", job.ConversationID).Msg("no queue and no inline runner; job dropped")
		return
	}
	go func() {
		runCtx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		if err := d.Sync(runCtx, job); err != nil {
			log.Warn().Err(err).Str("conversation_id", job.ConversationID).Msg("inline job failed")
		}
	}()
}
