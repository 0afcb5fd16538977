/**
 * Associator Tests
 *
 * Greedy nearest-vertical-center pairing: closest pairs consume each other
 * one-to-one, pairs beyond the distance cap never form, and whatever remains
 * unmatched is carried as unresolved.
 */

package pipeline

import (
	"testing"

	"github.com/rankline/lobbyscan-worker/internal/detect"
)

func rowDigit(value int, centerY float64) detect.PlacementDigit {
	return detect.PlacementDigit{
		Value: value,
		Detection: detect.Detection{
			Text:       "digit",
			BBox:       detect.BBox{XMin: 40, YMin: centerY - 11, XMax: 55, YMax: centerY + 11},
			Confidence: 0.9,
		},
	}
}

func rowName(text string, centerY float64) detect.MergedName {
	return detect.MergedName{
		Text:              text,
		BBox:              detect.BBox{XMin: 100, YMin: centerY - 10, XMax: 200, YMax: centerY + 10},
		SourceConfidences: []float64{0.9},
	}
}

func TestAssociateFullLobby(t *testing.T) {
	players := []string{"mayxd", "coco", "kirito", "Sandwichpanda", "Matt Green", "velvet", "orbit", "zanzo"}

	var digits []detect.PlacementDigit
	var names []detect.MergedName
	for i, player := range players {
		y := float64(60 + i*44)
		digits = append(digits, rowDigit(i+1, y+2)) // digit boxes sit slightly off the name center
		names = append(names, rowName(player, y))
	}

	mapping := Associate(digits, names, 16)

	if len(mapping.Entries) != 8 {
		t.Fatalf("expected 8 entries, got %d (unresolved placements %v, names %v)",
			len(mapping.Entries), mapping.UnresolvedPlacements, mapping.UnresolvedNames)
	}
	for i, e := range mapping.Entries {
		if e.Placement != i+1 {
			t.Errorf("entry %d: expected placement %d, got %d", i, i+1, e.Placement)
		}
		if e.Name != players[i] {
			t.Errorf("placement %d: expected name %q, got %q", e.Placement, players[i], e.Name)
		}
	}
	if len(mapping.UnresolvedPlacements) != 0 || len(mapping.UnresolvedNames) != 0 {
		t.Errorf("expected nothing unresolved, got placements %v names %v",
			mapping.UnresolvedPlacements, mapping.UnresolvedNames)
	}
}

func TestAssociateOneToOne(t *testing.T) {
	// Two digits compete for one name; the closer digit wins, the other is
	// carried as unresolved.
	digits := []detect.PlacementDigit{rowDigit(1, 100), rowDigit(2, 110)}
	names := []detect.MergedName{rowName("mayxd", 102)}

	mapping := Associate(digits, names, 20)

	if len(mapping.Entries) != 1 || mapping.Entries[0].Placement != 1 || mapping.Entries[0].Name != "mayxd" {
		t.Fatalf("expected placement 1 to win the name, got %+v", mapping.Entries)
	}
	if len(mapping.UnresolvedPlacements) != 1 || mapping.UnresolvedPlacements[0] != 2 {
		t.Errorf("expected placement 2 unresolved, got %v", mapping.UnresolvedPlacements)
	}
}

func TestAssociateRespectsDistanceCap(t *testing.T) {
	digits := []detect.PlacementDigit{rowDigit(4, 100)}
	names := []detect.MergedName{rowName("faraway", 200)}

	mapping := Associate(digits, names, 16)

	if len(mapping.Entries) != 0 {
		t.Fatalf("expected no entries beyond the distance cap, got %+v", mapping.Entries)
	}
	if len(mapping.UnresolvedPlacements) != 1 || mapping.UnresolvedPlacements[0] != 4 {
		t.Errorf("expected placement 4 unresolved, got %v", mapping.UnresolvedPlacements)
	}
	if len(mapping.UnresolvedNames) != 1 || mapping.UnresolvedNames[0] != "faraway" {
		t.Errorf("expected name %q unresolved, got %v", "faraway", mapping.UnresolvedNames)
	}
}

func TestAssociateEmptyInputs(t *testing.T) {
	mapping := Associate(nil, nil, 16)
	if len(mapping.Entries) != 0 || len(mapping.UnresolvedPlacements) != 0 || len(mapping.UnresolvedNames) != 0 {
		t.Errorf("expected empty mapping, got %+v", mapping)
	}

	mapping = Associate([]detect.PlacementDigit{rowDigit(1, 60)}, nil, 16)
	if len(mapping.UnresolvedPlacements) != 1 {
		t.Errorf("expected the lone digit unresolved, got %+v", mapping)
	}
}
