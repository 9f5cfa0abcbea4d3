package prskit

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/carbocation/pfx"
)

// FAM streams the pedigree table of a plink fileset: one whitespace-delimited
// row per sample, no header.
type FAM struct {
	path    string
	file    *os.File
	scanner *bufio.Scanner
	err     error
}

func OpenFAM(path string) (*FAM, error) {
	fam := &FAM{
		path: path,
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, pfx.Err(err)
	}
	fam.file = file
	fam.scanner = bufio.NewScanner(file)

	return fam, nil
}

func (f *FAM) Close() error {
	return f.file.Close()
}

func (f *FAM) Err() error {
	if f.err != nil {
		return f.err
	}

	return f.scanner.Err()
}

// Read returns the next sample, or nil at the end of the file or on error.
// Check Err after the final Read.
func (f *FAM) Read() *FAMRow {
	if !f.scanner.Scan() {
		return nil
	}

	cols := strings.Fields(f.scanner.Text())
	if len(cols) < Phenotype+1 {
		f.err = fmt.Errorf("%s: row with %d columns; expected %d", f.path, len(cols), Phenotype+1)
		return nil
	}

	row := &FAMRow{
		FID:        cols[FamilyID],
		IID:        cols[IndividualID],
		PaternalID: cols[PaternalID],
		MaternalID: cols[MaternalID],
		Sex:        cols[Sex],
	}

	pheno, err := strconv.ParseFloat(cols[Phenotype], 64)
	if err != nil {
		f.err = pfx.Err(err)
		return nil
	}
	row.Phenotype = pheno

	return row
}

// Pedigree holds a fully read FAM file: sample order as it appears on disk,
// plus a phenotype lookup keyed by sample.
type Pedigree struct {
	Rows   []FAMRow
	byKey  map[SampleKey]float64
	source string
}

// ReadPedigree loads an entire FAM file.
func ReadPedigree(path string) (*Pedigree, error) {
	fam, err := OpenFAM(path)
	if err != nil {
		return nil, err
	}
	defer fam.Close()

	ped := &Pedigree{
		byKey:  make(map[SampleKey]float64),
		source: path,
	}
	for {
		row := fam.Read()
		if row == nil {
			break
		}
		ped.Rows = append(ped.Rows, *row)
		ped.byKey[row.Key()] = row.Phenotype
	}
	if err := fam.Err(); err != nil {
		return nil, err
	}

	return ped, nil
}

func (p *Pedigree) SampleCount() int {
	return len(p.Rows)
}

// Phenotype looks up the pedigree phenotype for a sample. The second return
// is false when the sample is absent from the pedigree.
func (p *Pedigree) Phenotype(key SampleKey) (float64, bool) {
	v, ok := p.byKey[key]
	return v, ok
}
