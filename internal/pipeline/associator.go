/**
 * Associator - Pairs rank digits with name detections by row proximity
 *
 * Greedy nearest-match over vertical centers: all (digit, name) pairs within
 * the distance cap are sorted by |Δy| and consumed one-to-one in ascending
 * order. Row alignment in a result lobby is locally unambiguous, so a full
 * bipartite assignment is deliberately not attempted.
 */

package pipeline

import (
	"math"
	"sort"

	"github.com/rankline/lobbyscan-worker/internal/detect"
)

type candidatePair struct {
	digitIdx int
	nameIdx  int
	distance float64
}

// Associate builds the placement mapping from extracted digits and merged
// names. maxVerticalDistance caps how far apart a digit and name may sit
// vertically and still count as one row. Unmatched digits and names are
// recorded as unresolved, never dropped.
func Associate(placements []detect.PlacementDigit, names []detect.MergedName, maxVerticalDistance float64) detect.PlacementMapping {
	pairs := make([]candidatePair, 0, len(placements)*len(names))
	for di, digit := range placements {
		yd := digit.Detection.BBox.CenterY()
		for ni, name := range names {
			dist := math.Abs(yd - name.BBox.CenterY())
			if dist <= maxVerticalDistance {
				pairs = append(pairs, candidatePair{digitIdx: di, nameIdx: ni, distance: dist})
			}
		}
	}

	sort.SliceStable(pairs, func(i, j int) bool { return pairs[i].distance < pairs[j].distance })

	usedDigit := make([]bool, len(placements))
	usedName := make([]bool, len(names))
	entries := make([]detect.PlacementEntry, 0, len(placements))

	for _, p := range pairs {
		if usedDigit[p.digitIdx] || usedName[p.nameIdx] {
			continue
		}
		usedDigit[p.digitIdx] = true
		usedName[p.nameIdx] = true
		entries = append(entries, detect.PlacementEntry{
			Placement: placements[p.digitIdx].Value,
			Name:      names[p.nameIdx].Text,
		})
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Placement < entries[j].Placement })

	mapping := detect.PlacementMapping{Entries: entries}
	for i, digit := range placements {
		if !usedDigit[i] {
			mapping.UnresolvedPlacements = append(mapping.UnresolvedPlacements, digit.Value)
		}
	}
	for i, name := range names {
		if !usedName[i] {
			mapping.UnresolvedNames = append(mapping.UnresolvedNames, name.Text)
		}
	}
	sort.Ints(mapping.UnresolvedPlacements)

	return mapping
}
