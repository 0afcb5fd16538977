/**
 * Placement Extractor Tests
 *
 * Placement digits are read from raw text over all detections, including ones
 * the classifier rejected, and duplicate rank claims resolve by confidence.
 */

package pipeline

import (
	"testing"

	"github.com/rankline/lobbyscan-worker/internal/detect"
)

func digitDetection(text string, yMin float64, confidence float64) detect.Detection {
	return detect.Detection{
		Text:       text,
		BBox:       detect.BBox{XMin: 40, YMin: yMin, XMax: 55, YMax: yMin + 22},
		Confidence: confidence,
		Origin:     detect.OriginLocal,
	}
}

func TestExtractPlacements(t *testing.T) {
	detections := []detect.Detection{
		digitDetection("1", 50, 0.95),
		digitDetection(" 2 ", 90, 0.93), // whitespace trimmed before parsing
		digitDetection("3", 130, 0.91),
		{Text: "mayxd", BBox: detect.BBox{XMin: 100, YMin: 50, XMax: 150, YMax: 70}, Confidence: 0.9},
		digitDetection("9", 170, 0.95),  // out of range
		digitDetection("0", 210, 0.95),  // out of range
		digitDetection("12", 250, 0.95), // parses but out of range
		{Text: "2b", BBox: detect.BBox{XMin: 40, YMin: 290, XMax: 60, YMax: 310}, Confidence: 0.9}, // not an integer
	}

	placements, duplicates := ExtractPlacements(detections)

	if len(duplicates) != 0 {
		t.Fatalf("expected no duplicates, got %d", len(duplicates))
	}
	expected := []int{1, 2, 3}
	if len(placements) != len(expected) {
		t.Fatalf("expected %d placements, got %d", len(expected), len(placements))
	}
	for i, value := range expected {
		if placements[i].Value != value {
			t.Errorf("placement %d: expected value %d, got %d", i, value, placements[i].Value)
		}
	}
}

func TestExtractPlacementsResolvesDuplicatesByConfidence(t *testing.T) {
	strong := digitDetection("3", 130, 0.9)
	weak := digitDetection("3", 450, 0.6)

	testCases := []struct {
		name  string
		order []detect.Detection
	}{
		{"strong first", []detect.Detection{strong, weak}},
		{"weak first", []detect.Detection{weak, strong}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			placements, duplicates := ExtractPlacements(tc.order)

			if len(placements) != 1 || placements[0].Detection != strong {
				t.Fatalf("expected the 0.9 detection to win, got %+v", placements)
			}
			if len(duplicates) != 1 || duplicates[0].Detection != weak {
				t.Fatalf("expected the 0.6 detection as losing duplicate, got %+v", duplicates)
			}
		})
	}
}

func TestExtractPlacementsTolerateMissingRanks(t *testing.T) {
	// Only 7 of 8 digits recognized. Extraction reports what it found; the
	// validator flags the gap later.
	var detections []detect.Detection
	for i := 1; i <= 8; i++ {
		if i == 5 {
			continue
		}
		detections = append(detections, digitDetection(string(rune('0'+i)), float64(30+40*i), 0.9))
	}

	placements, _ := ExtractPlacements(detections)
	if len(placements) != 7 {
		t.Fatalf("expected 7 placements, got %d", len(placements))
	}
	for _, p := range placements {
		if p.Value == 5 {
			t.Errorf("placement 5 was never detected but appears in output")
		}
	}
}

func TestMedianRowHeight(t *testing.T) {
	makeDigit := func(value int, height float64) detect.PlacementDigit {
		return detect.PlacementDigit{
			Value:     value,
			Detection: detect.Detection{BBox: detect.BBox{XMin: 0, YMin: 0, XMax: 10, YMax: height}},
		}
	}

	testCases := []struct {
		name     string
		heights  []float64
		expected float64
	}{
		{"odd count", []float64{20, 22, 40}, 22},
		{"even count averages middle pair", []float64{20, 24, 26, 40}, 25},
		{"single digit", []float64{22}, 22},
		{"no digits", nil, 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			digits := make([]detect.PlacementDigit, len(tc.heights))
			for i, h := range tc.heights {
				digits[i] = makeDigit(i+1, h)
			}
			if got := medianRowHeight(digits); got != tc.expected {
				t.Errorf("expected median %g, got %g", tc.expected, got)
			}
		})
	}
}
