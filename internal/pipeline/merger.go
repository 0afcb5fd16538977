/**
 * Fragment Merger - Rebuilds logical names from OCR fragments
 *
 * OCR backends split display names at inconsistent points ("Matt" / "Green").
 * Signal detections sharing a text row are chained back together when the
 * horizontal gap between them is small relative to their character width.
 * Fragments are always joined with a single space.
 */

package pipeline

import (
	"sort"
	"strings"

	"github.com/rankline/lobbyscan-worker/internal/detect"
	"github.com/rankline/lobbyscan-worker/internal/logging"
)

const rowOverlapRatio = 0.5

// Merger combines row-aligned signal fragments into merged names.
type Merger struct {
	gapFactor float64
	logger    *logging.Logger
}

// NewMerger builds a merger. gapFactor scales the average per-character width
// of a candidate pair into the maximum allowed horizontal gap in pixels.
func NewMerger(gapFactor float64, logger *logging.Logger) *Merger {
	return &Merger{gapFactor: gapFactor, logger: logger}
}

// fragment is a signal detection with its cleaned text.
type fragment struct {
	text string
	det  detect.Detection
}

// Merge combines adjacent same-row signal detections into merged names.
// Merging is transitive within a row; a detection with no candidate becomes a
// singleton. Case-insensitive duplicates collapse to the highest-confidence
// instance.
func (m *Merger) Merge(signals []detect.ClassifiedDetection) []detect.MergedName {
	fragments := make([]fragment, 0, len(signals))
	for _, cd := range signals {
		if cd.Classification.Label != detect.LabelSignal {
			continue
		}
		fragments = append(fragments, fragment{text: cd.Classification.CleanedText, det: cd.Detection})
	}
	if len(fragments) == 0 {
		return nil
	}

	// Left-to-right order so chains build across a row in reading order.
	sort.SliceStable(fragments, func(i, j int) bool {
		return fragments[i].det.BBox.XMin < fragments[j].det.BBox.XMin
	})

	merged := make([]detect.MergedName, 0, len(fragments))
	used := make([]bool, len(fragments))

	for i := range fragments {
		if used[i] {
			continue
		}
		used[i] = true
		chain := fragments[i]
		name := detect.MergedName{
			Text:              chain.text,
			BBox:              chain.det.BBox,
			SourceConfidences: []float64{chain.det.Confidence},
		}

		// Extend rightward while the next unused fragment continues the row.
		extended := true
		for extended {
			extended = false
			for j := range fragments {
				if used[j] {
					continue
				}
				if m.isMergeCandidate(chain.det, fragments[j].det) {
					used[j] = true
					name.Text = name.Text + " " + fragments[j].text
					name.BBox = name.BBox.Union(fragments[j].det.BBox)
					name.SourceConfidences = append(name.SourceConfidences, fragments[j].det.Confidence)
					chain = fragments[j]
					extended = true
					break
				}
			}
		}

		merged = append(merged, name)
	}

	return m.dedupe(merged)
}

// isMergeCandidate reports whether right continues left's text row: vertical
// bands overlap by at least half the shorter box's height and the horizontal
// gap stays below the character-width-proportional threshold.
func (m *Merger) isMergeCandidate(left, right detect.Detection) bool {
	overlap := verticalOverlap(left.BBox, right.BBox)
	shorter := left.BBox.Height()
	if right.BBox.Height() < shorter {
		shorter = right.BBox.Height()
	}
	if shorter <= 0 || overlap < rowOverlapRatio*shorter {
		return false
	}

	gap := right.BBox.XMin - left.BBox.XMax
	if gap < 0 {
		// Overlapping boxes on the same row are still one name.
		gap = 0
	}
	return gap <= m.gapFactor*avgCharWidth(left, right)
}

func verticalOverlap(a, b detect.BBox) float64 {
	top := a.YMin
	if b.YMin > top {
		top = b.YMin
	}
	bottom := a.YMax
	if b.YMax < bottom {
		bottom = b.YMax
	}
	if bottom <= top {
		return 0
	}
	return bottom - top
}

// avgCharWidth estimates the per-character pixel width averaged over the pair.
func avgCharWidth(a, b detect.Detection) float64 {
	return (charWidth(a) + charWidth(b)) / 2
}

func charWidth(d detect.Detection) float64 {
	n := len([]rune(strings.TrimSpace(d.Text)))
	if n == 0 {
		return d.BBox.Width()
	}
	return d.BBox.Width() / float64(n)
}

// dedupe collapses case-insensitive duplicate names, keeping the
// highest-confidence instance. Drops are logged, never errors.
func (m *Merger) dedupe(names []detect.MergedName) []detect.MergedName {
	best := make(map[string]int, len(names))
	out := make([]detect.MergedName, 0, len(names))

	for _, name := range names {
		key := strings.ToLower(name.Text)
		idx, seen := best[key]
		if !seen {
			best[key] = len(out)
			out = append(out, name)
			continue
		}
		if name.Confidence() > out[idx].Confidence() {
			if m.logger != nil {
				m.logger.Debug("dropping duplicate merged name", "text", out[idx].Text, "kept_confidence", name.Confidence())
			}
			out[idx] = name
		} else if m.logger != nil {
			m.logger.Debug("dropping duplicate merged name", "text", name.Text, "kept_confidence", out[idx].Confidence())
		}
	}
	return out
}
