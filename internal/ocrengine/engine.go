/**
 * OCR Engines - Pluggable text detectors for lobby screenshots
 *
 * Two backends produce raw detections for the structuring pipeline: a local
 * Tesseract recognizer (fast, free, offline) and the Cloud Vision API
 * (higher accuracy, paid). Both normalize their native result shape into the
 * canonical detection sequence before returning.
 */

package ocrengine

import (
	"context"

	"github.com/rankline/lobbyscan-worker/internal/detect"
)

// Engine recognizes text in a screenshot and returns normalized detections.
// An empty detection slice is a valid outcome (blank or unreadable image);
// errors are reserved for backend failures.
type Engine interface {
	Recognize(ctx context.Context, image []byte) ([]detect.Detection, error)
	Name() string
}
