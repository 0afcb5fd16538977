/**
 * Structuring Pipeline - Screenshot detections in, placement mapping out
 *
 * Orchestrates the stages left to right:
 * normalize → classify → merge → {extract placements, associate} → validate.
 * The pipeline is pure and reentrant: no shared mutable state, one
 * non-suspending unit of work per screenshot. Bad content never fails a
 * stage; only construction with invalid options returns an error.
 */

package pipeline

import (
	"github.com/rankline/lobbyscan-worker/internal/detect"
	"github.com/rankline/lobbyscan-worker/internal/errors"
	"github.com/rankline/lobbyscan-worker/internal/logging"
)

// DefaultUIKeywords are the known chrome strings of the result lobby.
var DefaultUIKeywords = []string{
	"GAME",
	"TEAM FIGHT TACTICS",
	"TEAMFIGHT TACTICS",
	"FINAL RESULTS",
	"RANKED",
	"NORMAL",
	"PLAY AGAIN",
	"EXIT",
	"CONTINUE",
}

// Options configures the pipeline. All fields are optional; zero values take
// the documented defaults.
type Options struct {
	// ConfidenceThreshold rejects detections below this backend confidence.
	ConfidenceThreshold float64
	// UIKeywords overrides the chrome keyword set.
	UIKeywords []string
	// TimestampPatternEnabled toggles the match-timer rejection rule.
	TimestampPatternEnabled *bool
	// MergeGapFactor scales average character width into the maximum
	// horizontal merge gap.
	MergeGapFactor float64
	// MaxVerticalDistanceFactor scales the detected row height into the
	// maximum digit↔name vertical distance.
	MaxVerticalDistanceFactor float64
	// Roster cross-validates recognized names when set.
	Roster RosterLookup
	// Logger receives diagnostics (duplicate names dropped, counts).
	Logger *logging.Logger
}

const (
	defaultConfidenceThreshold = 0.5
	defaultMergeGapFactor      = 1.5
	defaultVerticalFactor      = 0.75
)

// Result is the pipeline output: the best-effort mapping, advisory anomalies,
// and the per-detection classifications (including duplicate-digit
// reclassification) for diagnostics.
type Result struct {
	Mapping    detect.PlacementMapping
	Anomalies  []detect.Anomaly
	Classified []detect.ClassifiedDetection
}

// NeedsReview reports whether the result carries any anomaly.
func (r Result) NeedsReview() bool { return len(r.Anomalies) > 0 }

// Pipeline structures one screenshot's detections into a placement mapping.
type Pipeline struct {
	classifier *Classifier
	merger     *Merger
	roster     RosterLookup
	vFactor    float64
	logger     *logging.Logger
}

// New validates options and builds a pipeline. Invalid thresholds fail fast
// here; content problems later never do.
func New(opts Options) (*Pipeline, error) {
	if opts.ConfidenceThreshold == 0 {
		opts.ConfidenceThreshold = defaultConfidenceThreshold
	}
	if opts.ConfidenceThreshold < 0 || opts.ConfidenceThreshold > 1 {
		return nil, errors.NewConfigurationError("confidence_threshold", "must be within [0,1]")
	}
	if opts.MergeGapFactor == 0 {
		opts.MergeGapFactor = defaultMergeGapFactor
	}
	if opts.MergeGapFactor < 0 {
		return nil, errors.NewConfigurationError("merge_gap_factor", "must be positive")
	}
	if opts.MaxVerticalDistanceFactor == 0 {
		opts.MaxVerticalDistanceFactor = defaultVerticalFactor
	}
	if opts.MaxVerticalDistanceFactor < 0 {
		return nil, errors.NewConfigurationError("max_vertical_distance_factor", "must be positive")
	}
	if opts.UIKeywords == nil {
		opts.UIKeywords = DefaultUIKeywords
	}
	timestampEnabled := true
	if opts.TimestampPatternEnabled != nil {
		timestampEnabled = *opts.TimestampPatternEnabled
	}

	return &Pipeline{
		classifier: NewClassifier(opts.UIKeywords, opts.ConfidenceThreshold, timestampEnabled),
		merger:     NewMerger(opts.MergeGapFactor, opts.Logger),
		roster:     opts.Roster,
		vFactor:    opts.MaxVerticalDistanceFactor,
		logger:     opts.Logger,
	}, nil
}

// Process runs the full structuring pass over one screenshot's detections.
func (p *Pipeline) Process(detections []detect.Detection) Result {
	classified := p.classifier.Classify(detections)

	names := p.merger.Merge(classified)

	placements, duplicates := ExtractPlacements(detections)

	// Losing duplicate digits are reclassified so diagnostics show why a
	// detection was excluded from extraction.
	if len(duplicates) > 0 {
		reclassifyDuplicates(classified, duplicates)
	}

	maxDistance := p.vFactor * medianRowHeight(placements)
	mapping := Associate(placements, names, maxDistance)

	mapping, anomalies := Validate(mapping, p.roster)

	if p.logger != nil {
		p.logger.Info("screenshot structured",
			"detections", len(detections),
			"names", len(names),
			"placements", len(placements),
			"resolved", len(mapping.Entries),
			"anomalies", len(anomalies))
	}

	return Result{Mapping: mapping, Anomalies: anomalies, Classified: classified}
}

func reclassifyDuplicates(classified []detect.ClassifiedDetection, duplicates []detect.PlacementDigit) {
	for _, dup := range duplicates {
		for i := range classified {
			if classified[i].Detection == dup.Detection {
				classified[i].Classification = detect.Classification{
					Label:       detect.LabelNoise,
					NoiseReason: detect.NoiseDuplicate,
					CleanedText: classified[i].Classification.CleanedText,
				}
				break
			}
		}
	}
}
