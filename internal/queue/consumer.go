/**
 * Queue Consumer for the lobbyscan worker
 *
 * Consumes screenshot scan tasks from a Redis-backed queue via Asynq, runs
 * them through the scan processor and mirrors status transitions for the
 * enqueuing service.
 */

package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/rankline/lobbyscan-worker/internal/errors"
	"github.com/rankline/lobbyscan-worker/internal/logging"
)

// TaskTypeScan is the registered task type for screenshot scans.
const TaskTypeScan = "scan:screenshot"

// ScanTaskPayload is the wire format of a scan task. ImageData is base64.
type ScanTaskPayload struct {
	SubmissionID string `json:"submissionId"`
	MatchID      string `json:"matchId,omitempty"`
	UploaderID   string `json:"uploaderId,omitempty"`
	Engine       string `json:"engine,omitempty"`
	ImageData    string `json:"imageData,omitempty"`
	ImageURL     string `json:"imageUrl,omitempty"`
}

// Consumer handles scan task consumption from the Redis queue.
type Consumer struct {
	server    *asynq.Server
	mux       *asynq.ServeMux
	scanner   *Scanner
	publisher *Publisher
	config    *ConsumerConfig
	logger    *logging.Logger
}

// ConsumerConfig holds consumer configuration.
type ConsumerConfig struct {
	RedisURL          string
	QueueName         string
	Concurrency       int
	ProcessingTimeout time.Duration
}

// NewConsumer creates a queue consumer bound to the given scanner.
func NewConsumer(cfg *ConsumerConfig, scanner *Scanner, publisher *Publisher, logger *logging.Logger) (*Consumer, error) {
	if cfg.RedisURL == "" {
		return nil, fmt.Errorf("RedisURL is required")
	}
	if cfg.QueueName == "" {
		return nil, fmt.Errorf("QueueName is required")
	}
	if scanner == nil {
		return nil, fmt.Errorf("scanner is required")
	}

	redisOpt, err := asynq.ParseRedisURI(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	server := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: cfg.Concurrency,
			Queues: map[string]int{
				cfg.QueueName: 10,
				"default":     1,
			},
			// Exponential backoff capped at one minute.
			RetryDelayFunc: func(n int, err error, task *asynq.Task) time.Duration {
				delay := time.Duration(5*(1<<uint(n))) * time.Second
				if delay > 60*time.Second {
					delay = 60 * time.Second
				}
				return delay
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				logger.Error("task processing error",
					"type", task.Type(),
					"error", err.Error(),
				)
			}),
		},
	)

	mux := asynq.NewServeMux()

	consumer := &Consumer{
		server:    server,
		mux:       mux,
		scanner:   scanner,
		publisher: publisher,
		config:    cfg,
		logger:    logger,
	}

	mux.HandleFunc(TaskTypeScan, consumer.handleScan)

	return consumer, nil
}

// Start starts the queue consumer. Run errors surface through the returned
// channel so the host can treat a dead consumer as fatal.
func (c *Consumer) Start() <-chan error {
	c.logger.Info("starting queue consumer",
		"concurrency", c.config.Concurrency,
		"queue", c.config.QueueName,
	)

	errCh := make(chan error, 1)
	go func() {
		if err := c.server.Run(c.mux); err != nil {
			errCh <- fmt.Errorf("queue consumer stopped: %w", err)
		}
		close(errCh)
	}()
	return errCh
}

// Stop stops the queue consumer gracefully, letting in-flight scans finish.
func (c *Consumer) Stop() {
	c.logger.Info("stopping queue consumer")
	c.server.Shutdown()
}

// handleScan processes one screenshot scan task.
func (c *Consumer) handleScan(ctx context.Context, task *asynq.Task) error {
	start := time.Now()

	var payload ScanTaskPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		// Malformed payloads never become valid on retry.
		return fmt.Errorf("%w: %v", asynq.SkipRetry, errors.NewInvalidPayloadError("", err))
	}

	imageData, err := decodeImageField(payload.ImageData)
	if err != nil {
		return fmt.Errorf("%w: %v", asynq.SkipRetry, errors.NewInvalidPayloadError(payload.SubmissionID, err))
	}

	// Tasks enqueued without an ID get one here so the scan is still
	// trackable in the status mirror and the database.
	if payload.SubmissionID == "" {
		payload.SubmissionID = uuid.NewString()
	}

	c.logger.Info("processing scan",
		"submission_id", payload.SubmissionID,
		"match_id", payload.MatchID,
		"engine", payload.Engine,
	)

	c.publisher.UpdateStatus(ctx, payload.SubmissionID, "processing", nil)

	timeout := c.config.ProcessingTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	scanCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req := &ScanRequest{
		SubmissionID: payload.SubmissionID,
		MatchID:      payload.MatchID,
		UploaderID:   payload.UploaderID,
		Engine:       payload.Engine,
		ImageData:    imageData,
		ImageURL:     payload.ImageURL,
	}

	result, err := c.scanner.Process(scanCtx, req)
	duration := time.Since(start)

	if err != nil {
		if scanCtx.Err() == context.DeadlineExceeded {
			c.logger.Warn("scan timed out",
				"submission_id", payload.SubmissionID,
				"duration", duration.String(),
				"timeout", timeout.String(),
			)
		}
		c.failScan(ctx, req, err)
		return fmt.Errorf("scan failed: %w", err)
	}

	c.publisher.UpdateStatus(ctx, payload.SubmissionID, "completed", result)
	c.logger.Info("scan completed",
		"submission_id", payload.SubmissionID,
		"duration_ms", duration.Milliseconds(),
		"placements", result.Placements,
		"anomalies", result.Anomalies,
		"needs_review", result.NeedsReview,
	)
	return nil
}

// failScan mirrors the failure to Redis, and persists it once the task is out
// of retries.
func (c *Consumer) failScan(ctx context.Context, req *ScanRequest, cause error) {
	var payload interface{} = map[string]interface{}{"error": cause.Error()}
	if scanErr, ok := cause.(*errors.ScanError); ok {
		payload = scanErr.ToMap()
	}
	c.publisher.UpdateStatus(ctx, req.SubmissionID, "failed", payload)

	retried, _ := asynq.GetRetryCount(ctx)
	maxRetry, _ := asynq.GetMaxRetry(ctx)
	if retried >= maxRetry {
		c.scanner.RecordFailure(ctx, req, cause)
	}
}
