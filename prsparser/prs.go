package prsparser

type Allele string

// PRS is one entry of a scoring definition. RawID holds the file's own
// variant identifier when the file carries an rsID column; position-based
// files leave it empty and fill Chromosome/Position instead. Any given row
// may populate both or neither, regardless of which columns the header
// advertises.
type PRS struct {
	RawID        string
	Chromosome   string
	Position     int
	EffectAllele Allele
	EffectWeight float64
}

// HasRawID reports whether this row carries its own variant identifier.
func (p PRS) HasRawID() bool {
	return p.RawID != ""
}

// HasPosition reports whether this row carries a usable chromosome/position
// pair. Positions are 1-based, so zero means absent.
func (p PRS) HasPosition() bool {
	return p.Chromosome != "" && p.Position > 0
}
