package pipeline

import (
	"encoding/csv"
	"errors"
	"io"
	"math"

	"github.com/carbocation/pfx"
	"github.com/gocarina/gocsv"
	"github.com/montanaflynn/stats"

	"github.com/carbocation/prskit/dataset"
	"github.com/carbocation/prskit/plink"
	"github.com/carbocation/prskit/prsmatch"
	"github.com/carbocation/prskit/prsparser"
)

// Per-definition outcomes recorded in the run manifest.
const (
	StatusScored      = "scored"
	StatusMissingCols = "missing_columns"
	StatusNoScheme    = "no_identifier_scheme"
	StatusEmpty       = "empty"
	StatusNoOverlap   = "no_overlap"
	StatusScorerFail  = "scorer_failed"
	StatusKeyMismatch = "key_mismatch"
	StatusFailed      = "failed"
)

// Entry records the outcome of one scoring definition.
type Entry struct {
	Definition    string  `csv:"definition"`
	Status        string  `csv:"status"`
	Rows          int     `csv:"rows"`
	Matched       int     `csv:"matched"`
	CoveragePct   float64 `csv:"coverage_pct"`
	DuplicateLoci int     `csv:"duplicate_loci"`
	Detail        string  `csv:"detail"`
}

func (e *Entry) fail(err error) {
	e.Status = statusFor(err)
	e.Detail = err.Error()
}

// statusFor maps the error taxonomy onto manifest statuses. Errors outside
// the taxonomy report as plain failures.
func statusFor(err error) string {
	switch {
	case err == nil:
		return StatusScored
	case errors.Is(err, prsparser.ErrMissingRequiredColumns):
		return StatusMissingCols
	case errors.Is(err, prsparser.ErrUnresolvableIdentifierScheme):
		return StatusNoScheme
	case errors.Is(err, prsmatch.ErrEmptyScoringDefinition):
		return StatusEmpty
	case errors.Is(err, prsmatch.ErrNoOverlap):
		return StatusNoOverlap
	case errors.Is(err, plink.ErrScorerFailure):
		return StatusScorerFail
	case errors.Is(err, dataset.ErrSampleKeyMismatch):
		return StatusKeyMismatch
	}

	return StatusFailed
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Manifest collects one Entry per scoring definition encountered in a run.
// It is the machine-readable counterpart of the run's log output.
type Manifest struct {
	Entries []*Entry
}

func (m *Manifest) add(e *Entry) {
	m.Entries = append(m.Entries, e)
}

// markExcluded downgrades an already scored definition whose column was
// rejected during aggregation.
func (m *Manifest) markExcluded(definition string, err error) {
	for _, e := range m.Entries {
		if e.Definition == definition {
			e.fail(err)
			return
		}
	}
}

// ScoredCount is the number of definitions that contributed a column to the
// final dataset.
func (m *Manifest) ScoredCount() int {
	n := 0
	for _, e := range m.Entries {
		if e.Status == StatusScored {
			n++
		}
	}

	return n
}

// CoverageSummary reports the mean and median coverage across scored
// definitions. Both are zero when nothing scored.
func (m *Manifest) CoverageSummary() (mean, median float64) {
	var cov []float64
	for _, e := range m.Entries {
		if e.Status == StatusScored {
			cov = append(cov, e.CoveragePct)
		}
	}
	if len(cov) == 0 {
		return 0, 0
	}

	mean, _ = stats.Mean(cov)
	median, _ = stats.Median(cov)

	return mean, median
}

// WriteTSV writes the manifest as a tab-separated table with a header row.
func (m *Manifest) WriteTSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	cw.Comma = '\t'

	if err := gocsv.MarshalCSV(&m.Entries, gocsv.NewSafeCSVWriter(cw)); err != nil {
		return pfx.Err(err)
	}

	return nil
}
