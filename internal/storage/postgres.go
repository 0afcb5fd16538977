/**
 * PostgreSQL Submission Store for the lobbyscan worker
 *
 * Persists one row per processed screenshot: the structured placement mapping,
 * the validator's anomalies and the review flag that routes suspicious
 * results to a human.
 */

package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/rankline/lobbyscan-worker/internal/detect"
)

// SubmissionStore handles database operations
type SubmissionStore struct {
	db *sql.DB
}

// Submission is one processed screenshot's persisted result.
type Submission struct {
	ID          string
	MatchID     string
	UploaderID  string
	Engine      string
	Status      string // queued | processing | completed | failed
	Mapping     detect.PlacementMapping
	Anomalies   []detect.Anomaly
	NeedsReview bool
	ErrorCode   string
	ErrorMsg    string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewSubmissionStore connects and configures the pool.
func NewSubmissionStore(databaseURL string) (*SubmissionStore, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("database URL is required")
	}

	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(2 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &SubmissionStore{db: db}, nil
}

// SaveResult upserts a completed (or failed) submission. The worker may see a
// retry of the same submission; the latest attempt wins.
func (s *SubmissionStore) SaveResult(ctx context.Context, sub *Submission) error {
	if sub.ID == "" {
		return fmt.Errorf("submission ID is required")
	}
	if sub.Status == "" {
		return fmt.Errorf("status is required")
	}

	mappingJSON, err := json.Marshal(sub.Mapping)
	if err != nil {
		return fmt.Errorf("failed to marshal mapping: %w", err)
	}
	anomaliesJSON, err := json.Marshal(sub.Anomalies)
	if err != nil {
		return fmt.Errorf("failed to marshal anomalies: %w", err)
	}

	query := `
		INSERT INTO lobbyscan.submissions (
			id, match_id, uploader_id, engine, status,
			mapping, anomalies, needs_review,
			error_code, error_message,
			created_at, updated_at
		) VALUES (
			$1::uuid, $2, $3, $4, $5,
			$6::jsonb, $7::jsonb, $8,
			NULLIF($9, ''), NULLIF($10, ''),
			NOW(), NOW()
		)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			mapping = EXCLUDED.mapping,
			anomalies = EXCLUDED.anomalies,
			needs_review = EXCLUDED.needs_review,
			error_code = EXCLUDED.error_code,
			error_message = EXCLUDED.error_message,
			updated_at = NOW()
	`

	_, err = s.db.ExecContext(ctx, query,
		sub.ID, sub.MatchID, sub.UploaderID, sub.Engine, sub.Status,
		mappingJSON, anomaliesJSON, sub.NeedsReview,
		sub.ErrorCode, sub.ErrorMsg,
	)
	if err != nil {
		return fmt.Errorf("failed to save submission (id=%s, status=%s): %w", sub.ID, sub.Status, err)
	}
	return nil
}

// UpdateStatus transitions a submission without touching its result payload.
func (s *SubmissionStore) UpdateStatus(ctx context.Context, id, status string) error {
	const query = `
		INSERT INTO lobbyscan.submissions (id, status, created_at, updated_at)
		VALUES ($1::uuid, $2, NOW(), NOW())
		ON CONFLICT (id) DO UPDATE SET status = EXCLUDED.status, updated_at = NOW()
	`
	if _, err := s.db.ExecContext(ctx, query, id, status); err != nil {
		return fmt.Errorf("failed to update submission status (id=%s): %w", id, err)
	}
	return nil
}

// GetByID fetches one submission.
func (s *SubmissionStore) GetByID(ctx context.Context, id string) (*Submission, error) {
	const query = `
		SELECT id, coalesce(match_id,''), coalesce(uploader_id,''), coalesce(engine,''),
		       status, coalesce(mapping,'{}'), coalesce(anomalies,'[]'), needs_review,
		       coalesce(error_code,''), coalesce(error_message,''),
		       created_at, updated_at
		FROM lobbyscan.submissions
		WHERE id = $1::uuid
	`

	var (
		sub           Submission
		mappingJSON   []byte
		anomaliesJSON []byte
	)
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&sub.ID, &sub.MatchID, &sub.UploaderID, &sub.Engine,
		&sub.Status, &mappingJSON, &anomaliesJSON, &sub.NeedsReview,
		&sub.ErrorCode, &sub.ErrorMsg,
		&sub.CreatedAt, &sub.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("submission not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get submission: %w", err)
	}

	if err := json.Unmarshal(mappingJSON, &sub.Mapping); err != nil {
		return nil, fmt.Errorf("failed to unmarshal mapping: %w", err)
	}
	if err := json.Unmarshal(anomaliesJSON, &sub.Anomalies); err != nil {
		return nil, fmt.Errorf("failed to unmarshal anomalies: %w", err)
	}
	return &sub, nil
}

// ListPendingReview returns completed submissions flagged for manual review,
// oldest first.
func (s *SubmissionStore) ListPendingReview(ctx context.Context, limit int) ([]*Submission, error) {
	if limit <= 0 {
		limit = 50
	}
	const query = `
		SELECT id, coalesce(match_id,''), coalesce(uploader_id,''), coalesce(engine,''),
		       status, coalesce(mapping,'{}'), coalesce(anomalies,'[]'), needs_review,
		       coalesce(error_code,''), coalesce(error_message,''),
		       created_at, updated_at
		FROM lobbyscan.submissions
		WHERE needs_review = true AND status = 'completed'
		ORDER BY created_at ASC
		LIMIT $1
	`

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}
	defer rows.Close()

	var subs []*Submission
	for rows.Next() {
		var (
			sub           Submission
			mappingJSON   []byte
			anomaliesJSON []byte
		)
		if err := rows.Scan(
			&sub.ID, &sub.MatchID, &sub.UploaderID, &sub.Engine,
			&sub.Status, &mappingJSON, &anomaliesJSON, &sub.NeedsReview,
			&sub.ErrorCode, &sub.ErrorMsg,
			&sub.CreatedAt, &sub.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan submission: %w", err)
		}
		if err := json.Unmarshal(mappingJSON, &sub.Mapping); err != nil {
			return nil, fmt.Errorf("failed to unmarshal mapping: %w", err)
		}
		if err := json.Unmarshal(anomaliesJSON, &sub.Anomalies); err != nil {
			return nil, fmt.Errorf("failed to unmarshal anomalies: %w", err)
		}
		subs = append(subs, &sub)
	}
	return subs, rows.Err()
}

// MarkReviewed clears the review flag after a human accepted or corrected the
// mapping.
func (s *SubmissionStore) MarkReviewed(ctx context.Context, id string) error {
	const query = `UPDATE lobbyscan.submissions SET needs_review = false, updated_at = NOW() WHERE id = $1::uuid`
	res, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to mark submission reviewed: %w", err)
	}
	aff, _ := res.RowsAffected()
	if aff == 0 {
		return fmt.Errorf("submission not found: %s", id)
	}
	return nil
}

// Ping checks database connectivity
func (s *SubmissionStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection
func (s *SubmissionStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// GetStats returns connection pool statistics
func (s *SubmissionStore) GetStats() sql.DBStats {
	return s.db.Stats()
}
