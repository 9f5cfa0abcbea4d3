package prskit

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/carbocation/pfx"
	"gopkg.in/guregu/null.v3"
)

// The leading non-genotype columns of a plink --recode A table.
var rawFixedColumns = []string{"FID", "IID", "PAT", "MAT", "SEX", "PHENOTYPE"}

// RawRow is one sample's additive-coded genotypes: 0, 1, or 2 copies of the
// counted allele per variant, or null where the call is missing.
type RawRow struct {
	FID     string
	IID     string
	Dosages []null.Float
}

func (r RawRow) Key() SampleKey {
	return SampleKey{FID: r.FID, IID: r.IID}
}

// RAW streams a plink .raw table (the output of --recode A). The header's
// genotype columns are named "<variantID>_<countedAllele>"; every data row
// carries one dosage per genotype column.
type RAW struct {
	path    string
	file    *os.File
	scanner *bufio.Scanner
	err     error

	// VariantColumns holds the genotype column names exactly as the header
	// spells them, in file (panel) order.
	VariantColumns []string
}

func OpenRAW(path string) (*RAW, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, pfx.Err(err)
	}

	r := &RAW{
		path:    path,
		file:    file,
		scanner: bufio.NewScanner(file),
	}
	// Dosage rows can be very wide.
	r.scanner.Buffer(make([]byte, 0, 1024*1024), 64*1024*1024)

	if err := r.readHeader(); err != nil {
		file.Close()
		return nil, err
	}

	return r, nil
}

func (r *RAW) readHeader() error {
	if !r.scanner.Scan() {
		if err := r.scanner.Err(); err != nil {
			return pfx.Err(err)
		}
		return fmt.Errorf("%s: empty raw table", r.path)
	}

	cols := strings.Fields(r.scanner.Text())
	if len(cols) < len(rawFixedColumns) {
		return fmt.Errorf("%s: header has %d columns; expected at least %d", r.path, len(cols), len(rawFixedColumns))
	}
	for i, want := range rawFixedColumns {
		if cols[i] != want {
			return fmt.Errorf("%s: header column %d is %q; expected %q", r.path, i, cols[i], want)
		}
	}

	r.VariantColumns = cols[len(rawFixedColumns):]

	return nil
}

// VariantIDs strips the counted-allele suffix plink appends to each genotype
// column, recovering the panel's variant IDs in column order.
func (r *RAW) VariantIDs() []string {
	ids := make([]string, len(r.VariantColumns))
	for i, col := range r.VariantColumns {
		ids[i] = TrimAlleleSuffix(col)
	}

	return ids
}

// TrimAlleleSuffix removes the trailing "_<allele>" from a .raw genotype
// column name. Variant IDs may themselves contain underscores, so only the
// final segment is removed.
func TrimAlleleSuffix(column string) string {
	if i := strings.LastIndex(column, "_"); i > 0 {
		return column[:i]
	}

	return column
}

func (r *RAW) Close() error {
	return r.file.Close()
}

func (r *RAW) Err() error {
	if r.err != nil {
		return r.err
	}

	return r.scanner.Err()
}

// Read returns the next sample's dosages, or nil at the end of the file or on
// error. Check Err after the final Read.
func (r *RAW) Read() *RawRow {
	if !r.scanner.Scan() {
		return nil
	}

	cols := strings.Fields(r.scanner.Text())
	if len(cols) == 0 {
		return r.Read()
	}
	if want := len(rawFixedColumns) + len(r.VariantColumns); len(cols) != want {
		r.err = fmt.Errorf("%s: row with %d columns; expected %d", r.path, len(cols), want)
		return nil
	}

	row := &RawRow{
		FID:     cols[FamilyID],
		IID:     cols[IndividualID],
		Dosages: make([]null.Float, len(r.VariantColumns)),
	}

	for i, field := range cols[len(rawFixedColumns):] {
		if field == "NA" {
			continue // leaves the null.Float invalid
		}
		v, err := strconv.ParseFloat(field, 64)
		if err != nil {
			r.err = pfx.Err(err)
			return nil
		}
		row.Dosages[i] = null.FloatFrom(v)
	}

	return row
}
