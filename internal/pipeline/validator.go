/**
 * Validator - Completeness and uniqueness checks on the final mapping
 *
 * Every finding is advisory and returned alongside the best-effort mapping
 * with the offending placement/name attached; callers decide whether an
 * anomaly blocks automated acceptance or routes to manual review. Nothing is
 * silently dropped.
 */

package pipeline

import (
	"fmt"
	"strings"

	"github.com/rankline/lobbyscan-worker/internal/detect"
)

const lobbySize = 8

// RosterLookup resolves a recognized display name against the known-player
// roster. It returns the canonical spelling when the name is known.
type RosterLookup func(name string) (canonical string, ok bool)

// Validate checks the mapping for completeness and uniqueness. When lookup is
// non-nil, recognized names are cross-validated against the roster: hits are
// canonicalized in place, misses yield an advisory unknown-name anomaly.
func Validate(mapping detect.PlacementMapping, lookup RosterLookup) (detect.PlacementMapping, []detect.Anomaly) {
	var anomalies []detect.Anomaly

	// (a) exactly 8 placements, each 1-8, each once.
	seen := make(map[int]int, lobbySize)
	for _, e := range mapping.Entries {
		seen[e.Placement]++
	}
	for value := 1; value <= lobbySize; value++ {
		switch {
		case seen[value] == 0:
			anomalies = append(anomalies, detect.Anomaly{
				Kind:      detect.AnomalyIncompletePlacements,
				Placement: value,
				Detail:    fmt.Sprintf("no name resolved for placement %d", value),
			})
		case seen[value] > 1:
			anomalies = append(anomalies, detect.Anomaly{
				Kind:      detect.AnomalyIncompletePlacements,
				Placement: value,
				Detail:    fmt.Sprintf("placement %d claimed %d times", value, seen[value]),
			})
		}
	}

	// (b) names must be plausible, (c) duplicates flagged but tolerated, and
	// optional roster cross-validation.
	namesSeen := make(map[string]int, len(mapping.Entries))
	for i, e := range mapping.Entries {
		if e.Name == "" || alphaCount(e.Name) < minAlphaCount {
			anomalies = append(anomalies, detect.Anomaly{
				Kind:      detect.AnomalyInvalidName,
				Placement: e.Placement,
				Name:      e.Name,
				Detail:    "name empty or shorter than 3 letters",
			})
			continue
		}

		key := strings.ToLower(e.Name)
		if prev, dup := namesSeen[key]; dup {
			// Identical display names can legitimately occur; flag for a
			// human, keep both entries.
			anomalies = append(anomalies, detect.Anomaly{
				Kind:      detect.AnomalyDuplicateName,
				Placement: e.Placement,
				Name:      e.Name,
				Detail:    fmt.Sprintf("same name at placements %d and %d", prev, e.Placement),
			})
		} else {
			namesSeen[key] = e.Placement
		}

		if lookup != nil {
			if canonical, ok := lookup(e.Name); ok {
				mapping.Entries[i].Name = canonical
			} else {
				anomalies = append(anomalies, detect.Anomaly{
					Kind:      detect.AnomalyUnknownName,
					Placement: e.Placement,
					Name:      e.Name,
					Detail:    "name not found in roster",
				})
			}
		}
	}

	return mapping, anomalies
}
