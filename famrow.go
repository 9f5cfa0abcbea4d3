package prskit

// Map columns in the FAM file to their positions
const (
	FamilyID int = iota
	IndividualID
	PaternalID
	MaternalID
	Sex
	Phenotype
)

// SampleKey identifies one sample across every per-sample table this engine
// touches: the pedigree, the scorer's per-sample output, and the recoded
// dosage table. Joins are always keyed, never positional.
type SampleKey struct {
	FID string
	IID string
}

func (k SampleKey) String() string {
	return k.FID + "_" + k.IID
}

type FAMRow struct {
	FID        string
	IID        string
	PaternalID string
	MaternalID string
	Sex        string
	Phenotype  float64 // Raw pedigree value; -9 and 0 conventionally mean unknown
}

func (r FAMRow) Key() SampleKey {
	return SampleKey{FID: r.FID, IID: r.IID}
}
