package ocrengine

import (
	"context"
	"encoding/base64"
	"fmt"

	"google.golang.org/api/option"
	vision "google.golang.org/api/vision/v1"

	"github.com/rankline/lobbyscan-worker/internal/detect"
)

// Vision is the cloud OCR engine backed by the Cloud Vision API's
// TEXT_DETECTION feature.
type Vision struct {
	service *vision.Service
}

// NewVision creates the cloud engine with API-key auth.
func NewVision(ctx context.Context, apiKey string) (*Vision, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("vision API key is required")
	}
	svc, err := vision.NewService(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create vision service: %w", err)
	}
	return &Vision{service: svc}, nil
}

func (v *Vision) Name() string { return string(detect.OriginCloud) }

// Recognize sends the screenshot to the annotation endpoint and normalizes
// the returned text annotations. The API's first annotation is the full-page
// aggregate; the normalizer drops it.
func (v *Vision) Recognize(ctx context.Context, image []byte) ([]detect.Detection, error) {
	req := &vision.BatchAnnotateImagesRequest{
		Requests: []*vision.AnnotateImageRequest{
			{
				Image:    &vision.Image{Content: base64.StdEncoding.EncodeToString(image)},
				Features: []*vision.Feature{{Type: "TEXT_DETECTION"}},
			},
		},
	}

	resp, err := v.service.Images.Annotate(req).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("vision annotate failed: %w", err)
	}
	if len(resp.Responses) == 0 {
		return nil, nil
	}
	annotated := resp.Responses[0]
	if annotated.Error != nil {
		return nil, fmt.Errorf("vision annotate failed: %s", annotated.Error.Message)
	}

	result := detect.CloudResult{
		Annotations: make([]detect.CloudAnnotation, 0, len(annotated.TextAnnotations)),
	}
	for _, ann := range annotated.TextAnnotations {
		ca := detect.CloudAnnotation{
			Description: ann.Description,
			Confidence:  ann.Confidence,
		}
		if ann.BoundingPoly != nil {
			for _, vert := range ann.BoundingPoly.Vertices {
				ca.Vertices = append(ca.Vertices, detect.Vertex{
					X: float64(vert.X),
					Y: float64(vert.Y),
				})
			}
		}
		result.Annotations = append(result.Annotations, ca)
	}

	return detect.NormalizeCloud(result), nil
}
