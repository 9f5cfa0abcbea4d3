package prskit

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/carbocation/pfx"
)

// BIM streams the variant-metadata table of a plink fileset: one
// whitespace-delimited row per variant, no header.
type BIM struct {
	path    string
	file    *os.File
	scanner *bufio.Scanner
	err     error
}

func OpenBIM(path string) (*BIM, error) {
	bim := &BIM{
		path: path,
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, pfx.Err(err)
	}
	bim.file = file
	bim.scanner = bufio.NewScanner(file)

	return bim, nil
}

func (b *BIM) Close() error {
	return b.file.Close()
}

func (b *BIM) Err() error {
	if b.err != nil {
		return b.err
	}

	return b.scanner.Err()
}

// Read returns the next variant, or nil at the end of the file or on error.
// Check Err after the final Read.
func (b *BIM) Read() *BIMRow {
	if !b.scanner.Scan() {
		return nil
	}

	cols := strings.Fields(b.scanner.Text())
	if len(cols) < Allele2+1 {
		b.err = fmt.Errorf("%s: row with %d columns; expected %d", b.path, len(cols), Allele2+1)
		return nil
	}

	row := &BIMRow{
		Chromosome: cols[Chromosome],
		VariantID:  cols[VariantID],
		Allele1:    cols[Allele1],
		Allele2:    cols[Allele2],
	}

	morgans, err := strconv.ParseFloat(cols[Morgans], 64)
	if err != nil {
		b.err = pfx.Err(err)
		return nil
	}
	row.Morgans = morgans

	coord64, err := strconv.ParseUint(cols[Coordinate], 10, 32)
	if err != nil {
		b.err = pfx.Err(err)
		return nil
	}
	row.Coordinate = uint32(coord64)

	return row
}
