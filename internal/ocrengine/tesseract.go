package ocrengine

import (
	"context"
	"fmt"

	"github.com/otiai10/gosseract/v2"

	"github.com/rankline/lobbyscan-worker/internal/detect"
)

// Tesseract is the local OCR engine. It emits word-level detections with
// bounding boxes via the native recognizer's parallel-array result shape.
type Tesseract struct {
	lang string
}

// NewTesseract creates the local engine. lang defaults to English.
func NewTesseract(lang string) *Tesseract {
	if lang == "" {
		lang = "eng"
	}
	return &Tesseract{lang: lang}
}

func (t *Tesseract) Name() string { return string(detect.OriginLocal) }

// Recognize runs preprocessing and word-level OCR over the screenshot.
func (t *Tesseract) Recognize(ctx context.Context, image []byte) ([]detect.Detection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	processed, err := preprocess(image)
	if err != nil {
		return nil, err
	}

	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(t.lang); err != nil {
		return nil, fmt.Errorf("failed to set language: %w", err)
	}
	if err := client.SetImageFromBytes(processed); err != nil {
		return nil, fmt.Errorf("failed to set image: %w", err)
	}

	boxes, err := client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return nil, fmt.Errorf("tesseract OCR failed: %w", err)
	}

	result := detect.LocalResult{
		RecTexts:  make([]string, 0, len(boxes)),
		RecBoxes:  make([][4]float64, 0, len(boxes)),
		RecScores: make([]float64, 0, len(boxes)),
	}
	for _, box := range boxes {
		result.RecTexts = append(result.RecTexts, box.Word)
		result.RecBoxes = append(result.RecBoxes, [4]float64{
			float64(box.Box.Min.X),
			float64(box.Box.Min.Y),
			float64(box.Box.Max.X),
			float64(box.Box.Max.Y),
		})
		// Tesseract reports confidence on a 0-100 scale.
		result.RecScores = append(result.RecScores, box.Confidence/100)
	}

	return detect.NormalizeLocal(result), nil
}
