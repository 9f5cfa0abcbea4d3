package prsparser

import (
	"errors"
	"fmt"
	"strings"
)

// Column names recognized in scoring definition headers. These follow the
// PGS Catalog harmonized format.
const (
	FieldRSID         = "rsID"
	FieldChromosome   = "chr_name"
	FieldPosition     = "chr_position"
	FieldEffectAllele = "effect_allele"
	FieldEffectWeight = "effect_weight"
)

var (
	// ErrMissingRequiredColumns indicates that a scoring definition header
	// lacks effect_allele or effect_weight, without which no variant can be
	// scored.
	ErrMissingRequiredColumns = errors.New("scoring definition is missing required columns")

	// ErrUnresolvableIdentifierScheme indicates that a scoring definition
	// header carries neither an rsID column nor a chr_name/chr_position
	// pair, so its variants cannot be identified at all.
	ErrUnresolvableIdentifierScheme = errors.New("scoring definition has no usable variant identifier columns")
)

// Layout maps the columns of one scoring definition file. Column indices are
// detected from the header; -1 marks a column the file does not have.
type Layout struct {
	Delimiter       rune
	Comment         rune
	ColRSID         int
	ColChromosome   int
	ColPosition     int
	ColEffectAllele int
	ColEffectWeight int
}

// HasRSID reports whether the file carries its own variant identifiers.
func (l Layout) HasRSID() bool {
	return l.ColRSID >= 0
}

// HasPosition reports whether the file carries chromosome/position columns.
func (l Layout) HasPosition() bool {
	return l.ColChromosome >= 0 && l.ColPosition >= 0
}

// Scheme names the identifier scheme the header advertises, for logs and
// manifests.
func (l Layout) Scheme() string {
	switch {
	case l.HasRSID() && l.HasPosition():
		return "rsID+positional"
	case l.HasRSID():
		return "rsID"
	case l.HasPosition():
		return "positional"
	}

	return "none"
}

// DetectLayout resolves column positions from a scoring definition header
// row. Column names must match exactly; a UTF-8 byte order mark on the first
// cell is tolerated. Files lacking effect_allele or effect_weight yield
// ErrMissingRequiredColumns; files with neither rsID nor a full
// chr_name/chr_position pair yield ErrUnresolvableIdentifierScheme.
func DetectLayout(header []string, delimiter rune) (Layout, error) {
	l := Layout{
		Delimiter:       delimiter,
		Comment:         '#',
		ColRSID:         -1,
		ColChromosome:   -1,
		ColPosition:     -1,
		ColEffectAllele: -1,
		ColEffectWeight: -1,
	}

	for i, name := range header {
		if i == 0 {
			name = strings.TrimPrefix(name, "\ufeff")
		}

		switch name {
		case FieldRSID:
			l.ColRSID = i
		case FieldChromosome:
			l.ColChromosome = i
		case FieldPosition:
			l.ColPosition = i
		case FieldEffectAllele:
			l.ColEffectAllele = i
		case FieldEffectWeight:
			l.ColEffectWeight = i
		}
	}

	var missing []string
	if l.ColEffectAllele < 0 {
		missing = append(missing, FieldEffectAllele)
	}
	if l.ColEffectWeight < 0 {
		missing = append(missing, FieldEffectWeight)
	}
	if len(missing) > 0 {
		return l, fmt.Errorf("%w: %s", ErrMissingRequiredColumns, strings.Join(missing, ", "))
	}

	if !l.HasRSID() && !l.HasPosition() {
		return l, fmt.Errorf("%w: need %s, or %s and %s", ErrUnresolvableIdentifierScheme,
			FieldRSID, FieldChromosome, FieldPosition)
	}

	return l, nil
}
