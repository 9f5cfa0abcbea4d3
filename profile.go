package prskit

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/carbocation/pfx"
)

// ProfileRow is one sample's entry in a plink --score output table.
type ProfileRow struct {
	FID   string
	IID   string
	Score float64
}

func (r ProfileRow) Key() SampleKey {
	return SampleKey{FID: r.FID, IID: r.IID}
}

// Profile streams a plink .profile file: a whitespace-delimited table whose
// header names its columns. Column order is not assumed; FID, IID, and SCORE
// are located by name.
type Profile struct {
	path    string
	file    *os.File
	scanner *bufio.Scanner
	err     error

	colFID   int
	colIID   int
	colScore int
	maxCol   int
}

func OpenProfile(path string) (*Profile, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, pfx.Err(err)
	}

	p := &Profile{
		path:    path,
		file:    file,
		scanner: bufio.NewScanner(file),
	}

	if err := p.readHeader(); err != nil {
		file.Close()
		return nil, err
	}

	return p, nil
}

func (p *Profile) readHeader() error {
	if !p.scanner.Scan() {
		if err := p.scanner.Err(); err != nil {
			return pfx.Err(err)
		}
		return fmt.Errorf("%s: empty profile", p.path)
	}

	p.colFID, p.colIID, p.colScore = -1, -1, -1
	for col, name := range strings.Fields(p.scanner.Text()) {
		switch name {
		case "FID":
			p.colFID = col
		case "IID":
			p.colIID = col
		case "SCORE", "SCORESUM":
			p.colScore = col
		}
	}

	if p.colFID < 0 || p.colIID < 0 || p.colScore < 0 {
		return fmt.Errorf("%s: header does not name FID, IID, and SCORE columns", p.path)
	}

	p.maxCol = p.colFID
	for _, c := range []int{p.colIID, p.colScore} {
		if c > p.maxCol {
			p.maxCol = c
		}
	}

	return nil
}

func (p *Profile) Close() error {
	return p.file.Close()
}

func (p *Profile) Err() error {
	if p.err != nil {
		return p.err
	}

	return p.scanner.Err()
}

// Read returns the next sample's score, or nil at the end of the file or on
// error. Check Err after the final Read.
func (p *Profile) Read() *ProfileRow {
	if !p.scanner.Scan() {
		return nil
	}

	cols := strings.Fields(p.scanner.Text())
	if len(cols) == 0 {
		// Trailing blank line
		return p.Read()
	}
	if len(cols) < p.maxCol+1 {
		p.err = fmt.Errorf("%s: row with %d columns; expected at least %d", p.path, len(cols), p.maxCol+1)
		return nil
	}

	score, err := strconv.ParseFloat(cols[p.colScore], 64)
	if err != nil {
		p.err = pfx.Err(err)
		return nil
	}

	return &ProfileRow{
		FID:   cols[p.colFID],
		IID:   cols[p.colIID],
		Score: score,
	}
}
