/**
 * Detection Model - Shared data structures for OCR result structuring
 *
 * Common types flowing through the structuring pipeline: raw detections from
 * either OCR backend, classification tags, merged names, placement digits and
 * the final placement mapping.
 */

package detect

// Origin identifies which OCR backend produced a detection. Backend-specific
// filtering rules key off this.
type Origin string

const (
	OriginLocal Origin = "local_engine"
	OriginCloud Origin = "cloud_engine"
)

// BBox is an axis-aligned bounding box in image pixel coordinates.
type BBox struct {
	XMin float64
	YMin float64
	XMax float64
	YMax float64
}

// Width returns the horizontal extent of the box.
func (b BBox) Width() float64 { return b.XMax - b.XMin }

// Height returns the vertical extent of the box.
func (b BBox) Height() float64 { return b.YMax - b.YMin }

// CenterY returns the vertical center of the box.
func (b BBox) CenterY() float64 { return (b.YMin + b.YMax) / 2 }

// Union returns the smallest box containing both b and other.
func (b BBox) Union(other BBox) BBox {
	u := b
	if other.XMin < u.XMin {
		u.XMin = other.XMin
	}
	if other.YMin < u.YMin {
		u.YMin = other.YMin
	}
	if other.XMax > u.XMax {
		u.XMax = other.XMax
	}
	if other.YMax > u.YMax {
		u.YMax = other.YMax
	}
	return u
}

// Detection is one OCR-recognized text fragment with position and confidence.
type Detection struct {
	Text       string
	BBox       BBox
	Confidence float64 // in [0,1]
	Origin     Origin
}

// Label tags a detection as usable signal or noise.
type Label string

const (
	LabelSignal Label = "signal"
	LabelNoise  Label = "noise"
)

// NoiseReason explains why a detection was rejected.
type NoiseReason string

const (
	NoiseUIKeyword     NoiseReason = "ui_keyword"
	NoiseTimestamp     NoiseReason = "timestamp"
	NoiseScoreFragment NoiseReason = "score_fragment"
	NoiseLowConfidence NoiseReason = "low_confidence"
	NoiseLowAlphaRatio NoiseReason = "low_alpha_ratio"
	NoiseDuplicate     NoiseReason = "duplicate"
)

// Classification is the terminal tag attached to a detection by the
// classifier. CleanedText carries the text after stripping; for noise it is
// whatever remained when the detection was rejected.
type Classification struct {
	Label       Label
	NoiseReason NoiseReason
	CleanedText string
}

// ClassifiedDetection pairs a detection with its classification.
type ClassifiedDetection struct {
	Detection      Detection
	Classification Classification
}

// MergedName is one or more signal detections combined into a single logical
// player name. Confidence is the minimum of the sources (conservative).
type MergedName struct {
	Text              string
	BBox              BBox
	SourceConfidences []float64
}

// Confidence returns the minimum source confidence, or 0 for an empty merge.
func (m MergedName) Confidence() float64 {
	if len(m.SourceConfidences) == 0 {
		return 0
	}
	min := m.SourceConfidences[0]
	for _, c := range m.SourceConfidences[1:] {
		if c < min {
			min = c
		}
	}
	return min
}

// PlacementDigit is a detection whose trimmed raw text parses as a rank 1-8.
type PlacementDigit struct {
	Value     int
	Detection Detection
}

// PlacementEntry binds one final rank to one player name.
type PlacementEntry struct {
	Placement int    `json:"placement"`
	Name      string `json:"name"`
}

// PlacementMapping is the final artifact: resolved placement→name entries
// sorted by placement, plus whatever the associator could not pair. Unresolved
// data is carried, never dropped.
type PlacementMapping struct {
	Entries              []PlacementEntry `json:"entries"`
	UnresolvedPlacements []int            `json:"unresolved_placements,omitempty"`
	UnresolvedNames      []string         `json:"unresolved_names,omitempty"`
}

// AnomalyKind enumerates validator findings. All are advisory.
type AnomalyKind string

const (
	AnomalyIncompletePlacements AnomalyKind = "incomplete_placements"
	AnomalyInvalidName          AnomalyKind = "invalid_name"
	AnomalyDuplicateName        AnomalyKind = "duplicate_name"
	AnomalyUnknownName          AnomalyKind = "unknown_name"
)

// Anomaly is a non-fatal data-quality finding surfaced for manual review. The
// offending placement and name are included for downstream decisions.
type Anomaly struct {
	Kind      AnomalyKind `json:"kind"`
	Placement int         `json:"placement,omitempty"`
	Name      string      `json:"name,omitempty"`
	Detail    string      `json:"detail,omitempty"`
}
