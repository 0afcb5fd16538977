package ocrengine

import (
	"bytes"
	"fmt"

	"github.com/disintegration/imaging"
)

// preprocess enhances a screenshot for local OCR: grayscale for contrast,
// contrast boost, sharpen. The cloud backend handles raw screenshots fine and
// skips this.
func preprocess(image []byte) ([]byte, error) {
	src, err := imaging.Decode(bytes.NewReader(image))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	img := imaging.Grayscale(src)
	img = imaging.AdjustContrast(img, 30)
	img = imaging.Sharpen(img, 1.5)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("failed to encode processed image: %w", err)
	}
	return buf.Bytes(), nil
}
