package prskit

// Map columns in the BIM file to their positions
const (
	Chromosome int = iota
	VariantID
	Morgans
	Coordinate
	Allele1
	Allele2
)

type BIMRow struct {
	Chromosome string  `csv:"chr"`
	VariantID  string  `csv:"rsID"` // E.g., RSID
	Morgans    float64 `csv:"cm"`   // Genetic distance; zero in most panels
	Coordinate uint32  `csv:"pos"`  // Labeled "position" by most applications
	Allele1    string  `csv:"A1"`   // Can contain > 1 character
	Allele2    string  `csv:"A2"`   // Can contain > 1 character
}
