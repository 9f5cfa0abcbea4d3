// Package prsmatch reconciles scoring definition variants against a
// reference panel: it derives one canonical identifier per scoring entry,
// intersects those with the panel's variant IDs, and projects the matched
// entries into the weight table an external scorer consumes.
package prsmatch

import (
	"github.com/carbocation/prskit/chrpos"
	"github.com/carbocation/prskit/prsparser"
)

// CanonicalID resolves one scoring entry to the identifier used for matching
// against a reference panel. Entries that carry their own variant ID use it
// directly. Position-based entries first try the panel's position index so
// they can match panels that name the same locus differently; an unindexed
// locus degrades to its positional key, which still matches any panel that
// uses positional IDs itself. Entries with neither scheme resolve to the
// empty string and can never match.
func CanonicalID(p prsparser.PRS, idx *chrpos.Index) string {
	if p.HasRawID() {
		return p.RawID
	}

	if p.HasPosition() {
		if idx != nil {
			if id, ok := idx.Lookup(p.Chromosome, p.Position); ok {
				return id
			}
		}

		return chrpos.Key(p.Chromosome, p.Position)
	}

	return ""
}

// CanonicalIDs resolves every entry of a definition. The result is aligned
// index-for-index with the input entries.
func CanonicalIDs(entries []prsparser.PRS, idx *chrpos.Index) []string {
	out := make([]string, len(entries))
	for i, p := range entries {
		out[i] = CanonicalID(p, idx)
	}

	return out
}
