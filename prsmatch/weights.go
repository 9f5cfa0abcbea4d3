package prsmatch

import (
	"bufio"
	"fmt"
	"io"
	"strconv"

	"github.com/carbocation/pfx"
	"github.com/carbocation/prskit/prsparser"
)

// WeightRow is one line of the weight table handed to the external scorer.
type WeightRow struct {
	ID     string
	Allele prsparser.Allele
	Weight float64
}

// WeightTable is the scorer-ready projection of a matched definition.
// DuplicateLoci counts rows beyond the first for each canonical ID; such
// rows are emitted as-is rather than deduplicated, since collapsing them
// would silently change the score.
type WeightTable struct {
	Rows          []WeightRow
	DuplicateLoci int
}

// BuildWeightTable filters a definition's entries to those whose canonical
// ID matched the panel and projects each onto (id, allele, weight). Row
// order follows the source definition. canonicalIDs must be aligned
// index-for-index with entries, as produced by CanonicalIDs.
func BuildWeightTable(entries []prsparser.PRS, canonicalIDs []string, m MatchResult) WeightTable {
	t := WeightTable{}

	seen := make(map[string]int)
	for i, p := range entries {
		id := canonicalIDs[i]
		if id == "" || !m.Matched(id) {
			continue
		}

		if seen[id] > 0 {
			t.DuplicateLoci++
		}
		seen[id]++

		t.Rows = append(t.Rows, WeightRow{ID: id, Allele: p.EffectAllele, Weight: p.EffectWeight})
	}

	return t
}

// Write emits the table in the space-separated SNP/A1/WEIGHT form that the
// scorer's --score flag consumes.
func (t WeightTable) Write(w io.Writer) error {
	bw := bufio.NewWriter(w)

	if _, err := fmt.Fprintln(bw, "SNP A1 WEIGHT"); err != nil {
		return pfx.Err(err)
	}

	for _, r := range t.Rows {
		weight := strconv.FormatFloat(r.Weight, 'g', -1, 64)
		if _, err := fmt.Fprintf(bw, "%s %s %s\n", r.ID, r.Allele, weight); err != nil {
			return pfx.Err(err)
		}
	}

	if err := bw.Flush(); err != nil {
		return pfx.Err(err)
	}

	return nil
}
