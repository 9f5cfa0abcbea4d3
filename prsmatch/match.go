package prsmatch

import "errors"

var (
	// ErrEmptyScoringDefinition indicates a definition with no data rows, for
	// which coverage is undefined.
	ErrEmptyScoringDefinition = errors.New("scoring definition has no entries")

	// ErrNoOverlap indicates that none of a definition's variants are present
	// in the reference panel, making the definition unscorable.
	ErrNoOverlap = errors.New("no scoring variants overlap the reference panel")
)

// MatchResult reports how a scoring definition intersects a reference
// panel's variant set. It is recomputed per definition and never persisted.
type MatchResult struct {
	MatchedIDs           map[string]struct{}
	CoveragePercent      float64
	TotalScoringVariants int
}

// Matched reports whether a canonical ID is part of the intersection.
func (m MatchResult) Matched(id string) bool {
	_, ok := m.MatchedIDs[id]
	return ok
}

// MatchedCount is the number of distinct panel variants the definition hit.
func (m MatchResult) MatchedCount() int {
	return len(m.MatchedIDs)
}

// Match intersects a definition's canonical IDs with the panel's variant ID
// set. Coverage is the share of the definition's rows whose canonical ID is
// present in the panel, as a percentage. The result's statistics are
// populated even when an error is returned, so callers can report them.
func Match(canonicalIDs []string, panelIDs map[string]struct{}) (MatchResult, error) {
	res := MatchResult{
		MatchedIDs:           make(map[string]struct{}),
		TotalScoringVariants: len(canonicalIDs),
	}

	if len(canonicalIDs) == 0 {
		return res, ErrEmptyScoringDefinition
	}

	for _, id := range canonicalIDs {
		if id == "" {
			continue
		}
		if _, ok := panelIDs[id]; ok {
			res.MatchedIDs[id] = struct{}{}
		}
	}

	res.CoveragePercent = float64(len(res.MatchedIDs)) / float64(res.TotalScoringVariants) * 100

	if len(res.MatchedIDs) == 0 {
		return res, ErrNoOverlap
	}

	return res, nil
}
