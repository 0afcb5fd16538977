/**
 * Validator Tests
 *
 * Completeness and uniqueness checks are advisory: anomalies are returned
 * alongside the mapping, never as errors, and roster hits canonicalize names
 * in place.
 */

package pipeline

import (
	"strings"
	"testing"

	"github.com/rankline/lobbyscan-worker/internal/detect"
)

func fullMapping(names ...string) detect.PlacementMapping {
	entries := make([]detect.PlacementEntry, len(names))
	for i, name := range names {
		entries[i] = detect.PlacementEntry{Placement: i + 1, Name: name}
	}
	return detect.PlacementMapping{Entries: entries}
}

func anomaliesOfKind(anomalies []detect.Anomaly, kind detect.AnomalyKind) []detect.Anomaly {
	var out []detect.Anomaly
	for _, a := range anomalies {
		if a.Kind == kind {
			out = append(out, a)
		}
	}
	return out
}

func TestValidateCleanMapping(t *testing.T) {
	mapping := fullMapping("mayxd", "coco", "kirito", "Sandwichpanda", "Matt Green", "velvet", "orbit", "zanzo")

	_, anomalies := Validate(mapping, nil)
	if len(anomalies) != 0 {
		t.Errorf("expected no anomalies for a clean full lobby, got %+v", anomalies)
	}
}

func TestValidateIncompletePlacements(t *testing.T) {
	mapping := fullMapping("mayxd", "coco", "kirito", "Sandwichpanda", "Matt Green", "velvet", "orbit")
	// Seven entries: placement 8 missing.

	_, anomalies := Validate(mapping, nil)
	incomplete := anomaliesOfKind(anomalies, detect.AnomalyIncompletePlacements)
	if len(incomplete) != 1 {
		t.Fatalf("expected 1 incomplete-placement anomaly, got %d: %+v", len(incomplete), anomalies)
	}
	if incomplete[0].Placement != 8 {
		t.Errorf("expected placement 8 flagged, got %d", incomplete[0].Placement)
	}
}

func TestValidateDuplicatePlacementValue(t *testing.T) {
	mapping := fullMapping("mayxd", "coco", "kirito", "Sandwichpanda", "Matt Green", "velvet", "orbit", "zanzo")
	mapping.Entries[7].Placement = 3 // two entries now claim rank 3, rank 8 missing

	_, anomalies := Validate(mapping, nil)
	incomplete := anomaliesOfKind(anomalies, detect.AnomalyIncompletePlacements)
	if len(incomplete) != 2 {
		t.Fatalf("expected anomalies for both the duplicate and the gap, got %+v", anomalies)
	}

	flagged := map[int]bool{}
	for _, a := range incomplete {
		flagged[a.Placement] = true
	}
	if !flagged[3] || !flagged[8] {
		t.Errorf("expected placements 3 and 8 flagged, got %+v", incomplete)
	}
}

func TestValidateInvalidName(t *testing.T) {
	testCases := []struct {
		name    string
		badName string
	}{
		{"empty name", ""},
		{"too few letters", "a1"},
		{"symbols only", "##"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			mapping := fullMapping("mayxd", "coco", "kirito", "Sandwichpanda", "Matt Green", "velvet", "orbit", tc.badName)

			_, anomalies := Validate(mapping, nil)
			invalid := anomaliesOfKind(anomalies, detect.AnomalyInvalidName)
			if len(invalid) != 1 {
				t.Fatalf("expected 1 invalid-name anomaly, got %+v", anomalies)
			}
			if invalid[0].Placement != 8 || invalid[0].Name != tc.badName {
				t.Errorf("expected placement 8 / name %q flagged, got %+v", tc.badName, invalid[0])
			}
		})
	}
}

func TestValidateDuplicateNameKeepsBothEntries(t *testing.T) {
	mapping := fullMapping("mayxd", "coco", "kirito", "Sandwichpanda", "Matt Green", "velvet", "orbit", "MAYXD")

	validated, anomalies := Validate(mapping, nil)
	dups := anomaliesOfKind(anomalies, detect.AnomalyDuplicateName)
	if len(dups) != 1 {
		t.Fatalf("expected 1 duplicate-name anomaly, got %+v", anomalies)
	}
	if dups[0].Placement != 8 {
		t.Errorf("expected the later entry flagged, got placement %d", dups[0].Placement)
	}
	if len(validated.Entries) != 8 {
		t.Errorf("duplicate names must not drop entries, got %d", len(validated.Entries))
	}
}

func TestValidateRosterCanonicalization(t *testing.T) {
	roster := map[string]string{
		"mayxd":         "MayXD",
		"coco":          "Coco",
		"kirito":        "Kirito",
		"sandwichpanda": "SandwichPanda",
		"matt green":    "Matt Green",
		"velvet":        "Velvet",
		"orbit":         "Orbit",
	}
	lookup := func(name string) (string, bool) {
		canonical, ok := roster[strings.ToLower(name)]
		return canonical, ok
	}

	mapping := fullMapping("mayxd", "coco", "kirito", "sandwichpanda", "matt green", "velvet", "orbit", "stranger")
	validated, anomalies := Validate(mapping, lookup)

	if got := validated.Entries[0].Name; got != "MayXD" {
		t.Errorf("expected roster hit to canonicalize to %q, got %q", "MayXD", got)
	}

	unknown := anomaliesOfKind(anomalies, detect.AnomalyUnknownName)
	if len(unknown) != 1 {
		t.Fatalf("expected 1 unknown-name anomaly, got %+v", anomalies)
	}
	if unknown[0].Name != "stranger" || unknown[0].Placement != 8 {
		t.Errorf("expected %q at placement 8 flagged, got %+v", "stranger", unknown[0])
	}
	if validated.Entries[7].Name != "stranger" {
		t.Errorf("unknown names must be kept verbatim, got %q", validated.Entries[7].Name)
	}
}
