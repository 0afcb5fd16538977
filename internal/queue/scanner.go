/**
 * Scan Processor for the lobbyscan worker
 *
 * Runs one screenshot end to end: fetch or decode the image, OCR it with the
 * selected engine, structure the detections through the pipeline and persist
 * the outcome.
 */

package queue

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rankline/lobbyscan-worker/internal/errors"
	"github.com/rankline/lobbyscan-worker/internal/logging"
	"github.com/rankline/lobbyscan-worker/internal/ocrengine"
	"github.com/rankline/lobbyscan-worker/internal/pipeline"
	"github.com/rankline/lobbyscan-worker/internal/storage"
)

// ScanRequest is one screenshot to process.
type ScanRequest struct {
	SubmissionID string
	MatchID      string
	UploaderID   string
	Engine       string // "local" | "cloud"; empty uses the default
	ImageData    []byte
	ImageURL     string
}

// ScanResult summarizes a completed scan for status reporting.
type ScanResult struct {
	SubmissionID     string `json:"submissionId"`
	Engine           string `json:"engine"`
	Placements       int    `json:"placements"`
	Anomalies        int    `json:"anomalies"`
	NeedsReview      bool   `json:"needsReview"`
	Detections       int    `json:"detections"`
	ProcessingTimeMs int64  `json:"processingTimeMs"`
}

// Scanner wires the OCR engines, the structuring pipeline and the store.
type Scanner struct {
	engines       map[string]ocrengine.Engine
	defaultEngine string
	pipe          *pipeline.Pipeline
	store         *storage.SubmissionStore
	maxImageSize  int64
	httpClient    *http.Client
	logger        *logging.Logger
}

// NewScanner creates a scan processor. engines is keyed by engine name
// ("local", "cloud") and must contain defaultEngine.
func NewScanner(engines map[string]ocrengine.Engine, defaultEngine string, pipe *pipeline.Pipeline, store *storage.SubmissionStore, maxImageSize int64, logger *logging.Logger) (*Scanner, error) {
	if len(engines) == 0 {
		return nil, fmt.Errorf("at least one OCR engine is required")
	}
	if _, ok := engines[defaultEngine]; !ok {
		return nil, fmt.Errorf("default engine %q is not registered", defaultEngine)
	}
	if pipe == nil {
		return nil, fmt.Errorf("pipeline is required")
	}
	if store == nil {
		return nil, fmt.Errorf("store is required")
	}
	return &Scanner{
		engines:       engines,
		defaultEngine: defaultEngine,
		pipe:          pipe,
		store:         store,
		maxImageSize:  maxImageSize,
		httpClient:    &http.Client{Timeout: 30 * time.Second},
		logger:        logger,
	}, nil
}

// Process runs one scan. OCR or storage failures return an error so the queue
// can retry; pipeline anomalies do not fail the scan, they flag it for review.
func (s *Scanner) Process(ctx context.Context, req *ScanRequest) (*ScanResult, error) {
	start := time.Now()

	if req.SubmissionID == "" {
		return nil, errors.NewInvalidPayloadError("", fmt.Errorf("submissionId is required"))
	}

	image, err := s.loadImage(ctx, req)
	if err != nil {
		return nil, err
	}

	engineName := req.Engine
	if engineName == "" {
		engineName = s.defaultEngine
	}
	engine, ok := s.engines[engineName]
	if !ok {
		return nil, errors.NewInvalidPayloadError(req.SubmissionID, fmt.Errorf("unknown engine %q", engineName))
	}

	detections, err := engine.Recognize(ctx, image)
	if err != nil {
		return nil, errors.NewOCRFailedError(req.SubmissionID, engineName, err)
	}
	s.logger.Debug("OCR complete",
		"submission_id", req.SubmissionID,
		"engine", engineName,
		"detections", len(detections),
	)

	result := s.pipe.Process(detections)

	sub := &storage.Submission{
		ID:          req.SubmissionID,
		MatchID:     req.MatchID,
		UploaderID:  req.UploaderID,
		Engine:      engineName,
		Status:      "completed",
		Mapping:     result.Mapping,
		Anomalies:   result.Anomalies,
		NeedsReview: result.NeedsReview(),
	}
	if err := s.store.SaveResult(ctx, sub); err != nil {
		return nil, errors.NewStorageFailedError(req.SubmissionID, err)
	}

	return &ScanResult{
		SubmissionID:     req.SubmissionID,
		Engine:           engineName,
		Placements:       len(result.Mapping.Entries),
		Anomalies:        len(result.Anomalies),
		NeedsReview:      result.NeedsReview(),
		Detections:       len(detections),
		ProcessingTimeMs: time.Since(start).Milliseconds(),
	}, nil
}

// RecordFailure persists a terminal failure so the submission is queryable
// even after the queue exhausts its retries.
func (s *Scanner) RecordFailure(ctx context.Context, req *ScanRequest, cause error) {
	sub := &storage.Submission{
		ID:         req.SubmissionID,
		MatchID:    req.MatchID,
		UploaderID: req.UploaderID,
		Engine:     req.Engine,
		Status:     "failed",
		ErrorMsg:   cause.Error(),
	}
	if scanErr, ok := cause.(*errors.ScanError); ok {
		sub.ErrorCode = string(scanErr.Code)
		sub.ErrorMsg = scanErr.Message
	}
	if err := s.store.SaveResult(ctx, sub); err != nil {
		s.logger.Warn("failed to record scan failure",
			"submission_id", req.SubmissionID,
			"error", err.Error(),
		)
	}
}

func (s *Scanner) loadImage(ctx context.Context, req *ScanRequest) ([]byte, error) {
	if len(req.ImageData) > 0 {
		if s.maxImageSize > 0 && int64(len(req.ImageData)) > s.maxImageSize {
			return nil, errors.NewInvalidPayloadError(req.SubmissionID,
				fmt.Errorf("image size %d exceeds limit %d", len(req.ImageData), s.maxImageSize))
		}
		return req.ImageData, nil
	}

	if req.ImageURL == "" {
		return nil, errors.NewInvalidPayloadError(req.SubmissionID,
			fmt.Errorf("either imageData or imageUrl is required"))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, req.ImageURL, nil)
	if err != nil {
		return nil, errors.NewInvalidPayloadError(req.SubmissionID, err)
	}
	resp, err := s.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch image: status %d", resp.StatusCode)
	}

	limit := s.maxImageSize
	if limit <= 0 {
		limit = 32 << 20
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read image body: %w", err)
	}
	if int64(len(body)) > limit {
		return nil, errors.NewInvalidPayloadError(req.SubmissionID,
			fmt.Errorf("image size exceeds limit %d", limit))
	}
	return body, nil
}

// decodeImageField accepts the base64 string form used by the enqueuing
// service.
func decodeImageField(s string) ([]byte, error) {
	if s == "" {
		return nil, nil
	}
	decoded, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("failed to decode base64 image data: %w", err)
	}
	return decoded, nil
}
