package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/carbocation/pfx"
	"github.com/kshedden/gonpy"
	"gonum.org/v1/gonum/mat"
	"gopkg.in/guregu/null.v3"

	prskit "github.com/carbocation/prskit"
)

// GenotypeMatrix is the extraction pipeline's output: a dense samples by
// variants additive dosage matrix, with phenotype labels joined from the
// pedigree. Missing genotype calls are NaN in the matrix and null in the
// written output.
type GenotypeMatrix struct {
	Keys []prskit.SampleKey

	// Columns holds the genotype column names exactly as the scorer spells
	// them ("<variantID>_<countedAllele>"), in panel order.
	Columns []string

	Dosages *mat.Dense
	Labels  []null.Float
}

// BuildGenotypeMatrix loads a recoded dosage table and joins phenotype
// labels by SampleKey. Labels are never joined positionally: the dosage
// table's row order is the scorer's to choose, not a contract.
func BuildGenotypeMatrix(rawPath string, ped *prskit.Pedigree) (*GenotypeMatrix, error) {
	raw, err := prskit.OpenRAW(rawPath)
	if err != nil {
		return nil, err
	}
	defer raw.Close()

	g := &GenotypeMatrix{Columns: raw.VariantColumns}
	if len(g.Columns) == 0 {
		return nil, fmt.Errorf("%s: dosage table has no genotype columns", rawPath)
	}

	var data []float64
	for {
		row := raw.Read()
		if row == nil {
			break
		}

		g.Keys = append(g.Keys, row.Key())
		for _, d := range row.Dosages {
			if d.Valid {
				data = append(data, d.Float64)
			} else {
				data = append(data, math.NaN())
			}
		}
	}
	if err := raw.Err(); err != nil {
		return nil, err
	}
	if len(g.Keys) == 0 {
		return nil, fmt.Errorf("%s: dosage table has no samples", rawPath)
	}

	g.Dosages = mat.NewDense(len(g.Keys), len(g.Columns), data)

	g.Labels = make([]null.Float, len(g.Keys))
	for i, k := range g.Keys {
		if v, ok := ped.Phenotype(k); ok {
			g.Labels[i] = null.FloatFrom(v)
		}
	}

	return g, nil
}

// VariantIDs recovers the panel variant ID behind each matrix column.
func (g *GenotypeMatrix) VariantIDs() []string {
	ids := make([]string, len(g.Columns))
	for i, col := range g.Columns {
		ids[i] = prskit.TrimAlleleSuffix(col)
	}

	return ids
}

func (g *GenotypeMatrix) SampleCount() int {
	return len(g.Keys)
}

func (g *GenotypeMatrix) VariantCount() int {
	return len(g.Columns)
}

// GenotypeCounts tallies the hard calls in one matrix column: samples
// carrying two, one, and zero copies of the counted allele. Missing and
// fractional dosages are left out of the tally.
func (g *GenotypeMatrix) GenotypeCounts(col int) (two, one, zero int64) {
	for row := 0; row < len(g.Keys); row++ {
		switch g.Dosages.At(row, col) {
		case 2:
			two++
		case 1:
			one++
		case 0:
			zero++
		}
	}

	return two, one, zero
}

func formatDosage(v float64) string {
	if math.IsNaN(v) {
		return ""
	}

	return strconv.FormatFloat(v, 'g', -1, 64)
}

// WriteCSV writes the combined dataset: FID, IID, one dosage column per
// variant, then the phenotype label.
func (g *GenotypeMatrix) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)

	header := append([]string{"FID", "IID"}, g.Columns...)
	header = append(header, "phenotype")
	if err := cw.Write(header); err != nil {
		return pfx.Err(err)
	}

	row := make([]string, 0, len(header))
	for i, k := range g.Keys {
		row = row[:0]
		row = append(row, k.FID, k.IID)
		for j := range g.Columns {
			row = append(row, formatDosage(g.Dosages.At(i, j)))
		}
		row = append(row, FormatNullFloat(g.Labels[i]))

		if err := cw.Write(row); err != nil {
			return pfx.Err(err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return pfx.Err(err)
	}

	return nil
}

// WriteFeaturesCSV writes only the dosage columns: the X a downstream model
// trains on.
func (g *GenotypeMatrix) WriteFeaturesCSV(w io.Writer) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(g.Columns); err != nil {
		return pfx.Err(err)
	}

	row := make([]string, 0, len(g.Columns))
	for i := range g.Keys {
		row = row[:0]
		for j := range g.Columns {
			row = append(row, formatDosage(g.Dosages.At(i, j)))
		}

		if err := cw.Write(row); err != nil {
			return pfx.Err(err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return pfx.Err(err)
	}

	return nil
}

// WriteLabelsCSV writes only the label column: the matching y.
func (g *GenotypeMatrix) WriteLabelsCSV(w io.Writer) error {
	cw := csv.NewWriter(w)

	if err := cw.Write([]string{"phenotype"}); err != nil {
		return pfx.Err(err)
	}
	for _, label := range g.Labels {
		if err := cw.Write([]string{FormatNullFloat(label)}); err != nil {
			return pfx.Err(err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return pfx.Err(err)
	}

	return nil
}

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }

// WriteNpy writes the dosage matrix as a NumPy array, rows in sample order
// and columns in panel order, for consumers that skip the CSV.
func (g *GenotypeMatrix) WriteNpy(w io.Writer) error {
	npw, err := gonpy.NewWriter(nopCloser{w})
	if err != nil {
		return pfx.Err(err)
	}
	npw.Shape = []int{len(g.Keys), len(g.Columns)}

	data := make([]float64, 0, len(g.Keys)*len(g.Columns))
	for i := range g.Keys {
		for j := range g.Columns {
			data = append(data, g.Dosages.At(i, j))
		}
	}

	if err := npw.WriteFloat64(data); err != nil {
		return pfx.Err(err)
	}

	return nil
}
