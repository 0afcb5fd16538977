/**
 * Placement Extractor - Isolates rank digits 1-8
 *
 * Rank digits are short and routinely misclassified as noise upstream, so
 * extraction scans every detection's raw text regardless of its
 * classification. Duplicate rank claims resolve in favor of the
 * higher-confidence detection; losers are reclassified NOISE/duplicate.
 */

package pipeline

import (
	"sort"
	"strconv"
	"strings"

	"github.com/rankline/lobbyscan-worker/internal/detect"
)

// ExtractPlacements selects detections whose trimmed raw text parses as an
// integer in [1,8], resolving duplicate values by confidence. The second
// return value holds the losing duplicates so the caller can reclassify them.
// Fewer than 8 distinct values is not an error here; the validator reports it.
func ExtractPlacements(detections []detect.Detection) ([]detect.PlacementDigit, []detect.PlacementDigit) {
	byValue := make(map[int]detect.PlacementDigit, 8)
	var duplicates []detect.PlacementDigit

	for _, d := range detections {
		value, err := strconv.Atoi(strings.TrimSpace(d.Text))
		if err != nil || value < 1 || value > 8 {
			continue
		}
		digit := detect.PlacementDigit{Value: value, Detection: d}

		existing, claimed := byValue[value]
		if !claimed {
			byValue[value] = digit
			continue
		}
		if d.Confidence > existing.Detection.Confidence {
			byValue[value] = digit
			duplicates = append(duplicates, existing)
		} else {
			duplicates = append(duplicates, digit)
		}
	}

	placements := make([]detect.PlacementDigit, 0, len(byValue))
	for _, digit := range byValue {
		placements = append(placements, digit)
	}
	sort.Slice(placements, func(i, j int) bool { return placements[i].Value < placements[j].Value })

	return placements, duplicates
}

// medianRowHeight estimates the lobby's text row height from the placement
// digit boxes. Zero when no digits were found.
func medianRowHeight(placements []detect.PlacementDigit) float64 {
	if len(placements) == 0 {
		return 0
	}
	heights := make([]float64, len(placements))
	for i, p := range placements {
		heights[i] = p.Detection.BBox.Height()
	}
	sort.Float64s(heights)
	mid := len(heights) / 2
	if len(heights)%2 == 0 {
		return (heights[mid-1] + heights[mid]) / 2
	}
	return heights[mid]
}
