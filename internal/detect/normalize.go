/**
 * Detection Normalizer - Unifies backend result shapes
 *
 * Converts either OCR backend's native output into a canonical ordered
 * sequence of detections. Malformed or empty payloads normalize to an empty
 * sequence: absence of detections is a valid (degenerate) outcome that tells
 * the caller to rerun, not an error.
 */

package detect

// LocalResult is the local engine's native shape: parallel arrays of
// recognized strings, axis-aligned boxes [x1,y1,x2,y2] and scores in [0,1].
type LocalResult struct {
	RecTexts  []string     `json:"rec_texts"`
	RecBoxes  [][4]float64 `json:"rec_boxes"`
	RecScores []float64    `json:"rec_scores"`
}

// Vertex is one corner of a cloud bounding polygon.
type Vertex struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// CloudAnnotation is one entry of the cloud engine's annotation list.
type CloudAnnotation struct {
	Description string   `json:"description"`
	Vertices    []Vertex `json:"vertices"`
	Confidence  float64  `json:"confidence"`
}

// CloudResult is the cloud engine's native shape. By convention the first
// annotation is the full-page aggregate and is excluded during normalization.
type CloudResult struct {
	Annotations []CloudAnnotation `json:"annotations"`
}

// NormalizeLocal converts a local-engine result into detections. Entries with
// mismatched parallel arrays, empty text or degenerate boxes are skipped.
func NormalizeLocal(res LocalResult) []Detection {
	n := len(res.RecTexts)
	if len(res.RecBoxes) < n {
		n = len(res.RecBoxes)
	}
	if len(res.RecScores) < n {
		n = len(res.RecScores)
	}

	detections := make([]Detection, 0, n)
	for i := 0; i < n; i++ {
		box := res.RecBoxes[i]
		bbox := BBox{XMin: box[0], YMin: box[1], XMax: box[2], YMax: box[3]}
		if !validBBox(bbox) || res.RecTexts[i] == "" {
			continue
		}
		detections = append(detections, Detection{
			Text:       res.RecTexts[i],
			BBox:       bbox,
			Confidence: clampConfidence(res.RecScores[i]),
			Origin:     OriginLocal,
		})
	}
	return detections
}

// NormalizeCloud converts a cloud-engine result into detections. The leading
// full-page aggregate annotation is dropped, and each 4-vertex polygon is
// reduced to an axis-aligned box by taking min/max over the vertices.
func NormalizeCloud(res CloudResult) []Detection {
	if len(res.Annotations) <= 1 {
		return nil
	}

	detections := make([]Detection, 0, len(res.Annotations)-1)
	for _, ann := range res.Annotations[1:] {
		if ann.Description == "" || len(ann.Vertices) != 4 {
			continue
		}
		bbox := polygonToBBox(ann.Vertices)
		if !validBBox(bbox) {
			continue
		}
		conf := ann.Confidence
		if conf == 0 {
			// The cloud API frequently omits per-annotation confidence.
			conf = 1.0
		}
		detections = append(detections, Detection{
			Text:       ann.Description,
			BBox:       bbox,
			Confidence: clampConfidence(conf),
			Origin:     OriginCloud,
		})
	}
	return detections
}

func polygonToBBox(vertices []Vertex) BBox {
	b := BBox{XMin: vertices[0].X, YMin: vertices[0].Y, XMax: vertices[0].X, YMax: vertices[0].Y}
	for _, v := range vertices[1:] {
		if v.X < b.XMin {
			b.XMin = v.X
		}
		if v.X > b.XMax {
			b.XMax = v.X
		}
		if v.Y < b.YMin {
			b.YMin = v.Y
		}
		if v.Y > b.YMax {
			b.YMax = v.Y
		}
	}
	return b
}

// validBBox rejects boxes with negative coordinates or inverted edges.
func validBBox(b BBox) bool {
	return b.XMin >= 0 && b.YMin >= 0 && b.XMax >= b.XMin && b.YMax >= b.YMin
}

func clampConfidence(c float64) float64 {
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}
