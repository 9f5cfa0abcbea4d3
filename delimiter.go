package prskit

import (
	"bytes"
	"io"

	"github.com/csimplestring/go-csv/detector"
)

// DetermineDelimiter returns the single most likely rune that would delimit
// the values in the reader, assuming a CSV-like file. Scoring files are
// nominally tab-separated, so tab wins whenever the sample contains one.
func DetermineDelimiter(r io.Reader) rune {
	var buf bytes.Buffer
	tee := io.TeeReader(io.LimitReader(r, 64*1024), &buf)

	d := detector.New()
	delimiters := d.DetectDelimiter(tee, '"')

	if bytes.ContainsRune(buf.Bytes(), '\t') {
		return '\t'
	}

	if len(delimiters) > 0 {
		return rune(delimiters[0][0])
	}

	return '\t'
}
