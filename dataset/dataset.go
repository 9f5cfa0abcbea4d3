package dataset

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/carbocation/pfx"
	"gopkg.in/guregu/null.v3"
)

// FormatNullFloat renders a nullable value for CSV output. Missing values
// become empty cells, never a sentinel number.
func FormatNullFloat(f null.Float) string {
	if !f.Valid {
		return ""
	}

	return strconv.FormatFloat(f.Float64, 'g', -1, 64)
}

// ColumnNames lists the score columns in output order.
func (a *Aggregated) ColumnNames() []string {
	names := make([]string, 0, len(a.Columns))
	for _, c := range a.Columns {
		names = append(names, c.Name)
	}

	return names
}

func (a *Aggregated) SampleCount() int {
	return len(a.Keys)
}

// WriteCSV writes one row per sample: FID, IID, one score column per
// definition in processing order, then the phenotype.
func (a *Aggregated) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)

	header := append([]string{"FID", "IID"}, a.ColumnNames()...)
	header = append(header, "phenotype")
	if err := cw.Write(header); err != nil {
		return pfx.Err(err)
	}

	row := make([]string, len(header))
	for i, k := range a.Keys {
		row = row[:0]
		row = append(row, k.FID, k.IID)
		for _, c := range a.Columns {
			row = append(row, strconv.FormatFloat(c.Scores[i], 'g', -1, 64))
		}
		row = append(row, FormatNullFloat(a.Phenotype[i]))

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
