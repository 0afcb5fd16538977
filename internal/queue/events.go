/**
 * Redis Status Publisher for the lobbyscan worker
 *
 * Mirrors submission status transitions into Redis sets/hashes so the
 * enqueuing service can poll progress cheaply, and publishes an event on a
 * pub/sub channel for live streaming to clients.
 */

package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rankline/lobbyscan-worker/internal/logging"
)

// Publisher mirrors submission state into Redis.
type Publisher struct {
	client    *redis.Client
	queueName string
	logger    *logging.Logger
}

// NewPublisher connects to Redis and verifies the connection.
func NewPublisher(redisURL, queueName string, logger *logging.Logger) (*Publisher, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Publisher{client: client, queueName: queueName, logger: logger}, nil
}

// UpdateStatus moves a submission between the processing/completed/failed
// sets, records the result or error payload, and publishes an event. Mirror
// failures are logged, never propagated; Redis state is advisory.
func (p *Publisher) UpdateStatus(ctx context.Context, submissionID, status string, payload interface{}) {
	switch status {
	case "processing":
		p.client.SAdd(ctx, p.key("processing"), submissionID)
	case "completed":
		p.client.SRem(ctx, p.key("processing"), submissionID)
		p.client.SAdd(ctx, p.key("completed"), submissionID)
		if payload != nil {
			if data, err := json.Marshal(payload); err == nil {
				p.client.HSet(ctx, p.key("results"), submissionID, data)
			}
		}
	case "failed":
		p.client.SRem(ctx, p.key("processing"), submissionID)
		p.client.SAdd(ctx, p.key("failed"), submissionID)
		if payload != nil {
			if data, err := json.Marshal(payload); err == nil {
				p.client.HSet(ctx, p.key("errors"), submissionID, data)
			}
		}
	}

	event := map[string]interface{}{
		"event":        fmt.Sprintf("scan:%s", status),
		"submissionId": submissionID,
		"timestamp":    time.Now().Format(time.RFC3339),
	}
	eventData, _ := json.Marshal(event)
	if err := p.client.Publish(ctx, p.key("events"), eventData).Err(); err != nil {
		p.logger.Warn("failed to publish scan event",
			"submission_id", submissionID,
			"status", status,
			"error", err.Error(),
		)
	}
}

// Stats returns queue-side counters for the health loop.
func (p *Publisher) Stats(ctx context.Context) (map[string]int64, error) {
	processing, err := p.client.SCard(ctx, p.key("processing")).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read queue stats: %w", err)
	}
	completed, _ := p.client.SCard(ctx, p.key("completed")).Result()
	failed, _ := p.client.SCard(ctx, p.key("failed")).Result()

	return map[string]int64{
		"processing": processing,
		"completed":  completed,
		"failed":     failed,
	}, nil
}

// Close releases the Redis connection.
func (p *Publisher) Close() error {
	return p.client.Close()
}

func (p *Publisher) key(suffix string) string {
	return fmt.Sprintf("%s:%s", p.queueName, suffix)
}
