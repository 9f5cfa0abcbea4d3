package prsparser

import (
	"encoding/csv"
	"fmt"
	"strconv"
)

type PRSParser struct {
	CSVReaderSettings *csv.Reader
	Layout            Layout
}

func NewWithLayout(layout Layout) *PRSParser {
	n := &PRSParser{}
	n.Layout = layout
	n.CSVReaderSettings = &csv.Reader{}
	n.CSVReaderSettings.Comma = layout.Delimiter
	n.CSVReaderSettings.Comment = layout.Comment
	n.CSVReaderSettings.LazyQuotes = true

	return n
}

// ParseRow converts one data row into a PRS according to the layout. Blank
// or malformed chromosome/position cells degrade that row to whatever
// identifier it does carry rather than failing, since such a row simply
// cannot match anything. A malformed effect weight is an error: it would
// poison the downstream score.
func (prsp *PRSParser) ParseRow(row []string) (PRS, error) {
	p := PRS{}

	if prsp.Layout.HasRSID() {
		p.RawID = field(row, prsp.Layout.ColRSID)
	}

	if prsp.Layout.HasPosition() {
		p.Chromosome = field(row, prsp.Layout.ColChromosome)
		if pos, err := strconv.Atoi(field(row, prsp.Layout.ColPosition)); err == nil {
			p.Position = pos
		}
	}

	p.EffectAllele = Allele(field(row, prsp.Layout.ColEffectAllele))

	weight := field(row, prsp.Layout.ColEffectWeight)
	score, err := strconv.ParseFloat(weight, 64)
	if err != nil {
		return p, fmt.Errorf("effect_weight %q is not numeric", weight)
	}
	p.EffectWeight = score

	return p, nil
}

// field fetches a cell by column, tolerating ragged rows that are shorter
// than the header.
func field(row []string, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}

	return row[col]
}
