/**
 * Fragment Merger Tests
 *
 * Verifies row detection (vertical band overlap), the character-width
 * proportional gap threshold, transitive chains and case-insensitive
 * deduplication.
 */

package pipeline

import (
	"testing"

	"github.com/rankline/lobbyscan-worker/internal/detect"
)

func signalFragment(text string, xMin, yMin, xMax, yMax, confidence float64) detect.ClassifiedDetection {
	return detect.ClassifiedDetection{
		Detection: detect.Detection{
			Text:       text,
			BBox:       detect.BBox{XMin: xMin, YMin: yMin, XMax: xMax, YMax: yMax},
			Confidence: confidence,
			Origin:     detect.OriginLocal,
		},
		Classification: detect.Classification{Label: detect.LabelSignal, CleanedText: text},
	}
}

func noiseFragment(text string, xMin, yMin, xMax, yMax float64) detect.ClassifiedDetection {
	cd := signalFragment(text, xMin, yMin, xMax, yMax, 0.9)
	cd.Classification = detect.Classification{Label: detect.LabelNoise, NoiseReason: detect.NoiseLowAlphaRatio, CleanedText: text}
	return cd
}

func mergedTexts(names []detect.MergedName) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = n.Text
	}
	return out
}

func TestMergeAdjacentFragments(t *testing.T) {
	merger := NewMerger(1.5, nil)

	// "Matt" and "Green" share a row with a 5px gap; per-char width is 10px,
	// so the gap is well within 1.5x.
	signals := []detect.ClassifiedDetection{
		signalFragment("Matt", 100, 50, 140, 70, 0.92),
		signalFragment("Green", 145, 48, 195, 72, 0.88),
	}

	names := merger.Merge(signals)
	if len(names) != 1 {
		t.Fatalf("expected 1 merged name, got %d: %v", len(names), mergedTexts(names))
	}
	if names[0].Text != "Matt Green" {
		t.Errorf("expected %q, got %q", "Matt Green", names[0].Text)
	}
	if got := names[0].Confidence(); got != 0.88 {
		t.Errorf("expected merged confidence to be the minimum 0.88, got %g", got)
	}
	expectedBox := detect.BBox{XMin: 100, YMin: 48, XMax: 195, YMax: 72}
	if names[0].BBox != expectedBox {
		t.Errorf("expected union box %+v, got %+v", expectedBox, names[0].BBox)
	}
}

func TestMergeRules(t *testing.T) {
	testCases := []struct {
		name      string
		gapFactor float64
		signals   []detect.ClassifiedDetection
		expected  []string
	}{
		{
			name:      "three-fragment chain",
			gapFactor: 1.5,
			signals: []detect.ClassifiedDetection{
				signalFragment("Big", 100, 50, 130, 70, 0.9),
				signalFragment("Bad", 136, 50, 166, 70, 0.9),
				signalFragment("Wolf", 172, 50, 212, 70, 0.9),
			},
			expected: []string{"Big Bad Wolf"},
		},
		{
			name:      "different rows stay separate",
			gapFactor: 1.5,
			signals: []detect.ClassifiedDetection{
				signalFragment("mayxd", 100, 50, 150, 70, 0.9),
				signalFragment("coco", 100, 90, 140, 110, 0.9),
			},
			expected: []string{"mayxd", "coco"},
		},
		{
			name:      "wide gap on the same row stays separate",
			gapFactor: 1.5,
			signals: []detect.ClassifiedDetection{
				signalFragment("left", 100, 50, 140, 70, 0.9),
				signalFragment("right", 400, 50, 450, 70, 0.9),
			},
			expected: []string{"left", "right"},
		},
		{
			name:      "insufficient vertical overlap stays separate",
			gapFactor: 1.5,
			signals: []detect.ClassifiedDetection{
				signalFragment("high", 100, 50, 140, 70, 0.9),
				signalFragment("lowz", 145, 66, 185, 86, 0.9),
			},
			expected: []string{"high", "lowz"},
		},
		{
			name:      "noise fragments excluded",
			gapFactor: 1.5,
			signals: []detect.ClassifiedDetection{
				signalFragment("mayxd", 100, 50, 150, 70, 0.9),
				noiseFragment("6-5", 155, 50, 185, 70),
			},
			expected: []string{"mayxd"},
		},
		{
			name:     "empty input",
			signals:  nil,
			expected: nil,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			merger := NewMerger(tc.gapFactor, nil)
			got := mergedTexts(merger.Merge(tc.signals))
			if len(got) != len(tc.expected) {
				t.Fatalf("expected %d names %v, got %d %v", len(tc.expected), tc.expected, len(got), got)
			}
			for i := range tc.expected {
				if got[i] != tc.expected[i] {
					t.Errorf("name %d: expected %q, got %q", i, tc.expected[i], got[i])
				}
			}
		})
	}
}

func TestMergeDeduplicatesCaseInsensitively(t *testing.T) {
	merger := NewMerger(1.5, nil)

	// Both backends contribute the same name on different rows; the higher
	// confidence instance survives.
	signals := []detect.ClassifiedDetection{
		signalFragment("Mayxd", 100, 50, 150, 70, 0.72),
		signalFragment("mayxd", 100, 300, 150, 320, 0.95),
	}

	names := merger.Merge(signals)
	if len(names) != 1 {
		t.Fatalf("expected 1 name after dedup, got %d: %v", len(names), mergedTexts(names))
	}
	if got := names[0].Confidence(); got != 0.95 {
		t.Errorf("expected the higher-confidence duplicate to survive, got confidence %g", got)
	}
}
