// Package dataset assembles the engine's final outputs: per-definition score
// columns merged into one sample-keyed table joined with phenotypes, and the
// extraction variant's dense dosage matrix with aligned labels.
package dataset

import (
	"errors"
	"fmt"

	"gopkg.in/guregu/null.v3"

	prskit "github.com/carbocation/prskit"
)

var (
	// ErrNoScorableDefinitions indicates that not one scoring definition
	// produced a usable score table, so there is nothing to aggregate and no
	// output should be written.
	ErrNoScorableDefinitions = errors.New("no scoring definition produced a usable score table")

	// ErrSampleKeyMismatch indicates that a score table's samples cannot be
	// reconciled with the base sample ordering. The offending column is
	// excluded; the run continues.
	ErrSampleKeyMismatch = errors.New("score table samples do not match the base ordering")
)

// ScoreTable is one definition's per-sample score output, in the row order
// the scorer produced.
type ScoreTable struct {
	Name   string
	Keys   []prskit.SampleKey
	Scores []float64
}

// ReadScoreTable loads a scorer .profile file.
func ReadScoreTable(name, path string) (*ScoreTable, error) {
	profile, err := prskit.OpenProfile(path)
	if err != nil {
		return nil, err
	}
	defer profile.Close()

	t := &ScoreTable{Name: name}
	for {
		row := profile.Read()
		if row == nil {
			break
		}
		t.Keys = append(t.Keys, row.Key())
		t.Scores = append(t.Scores, row.Score)
	}
	if err := profile.Err(); err != nil {
		return nil, err
	}

	return t, nil
}

// ScoreColumn is one definition's column of the aggregated dataset, aligned
// to Aggregated.Keys.
type ScoreColumn struct {
	Name   string
	Scores []float64
}

// ColumnError records a definition whose score column was excluded during
// aggregation.
type ColumnError struct {
	Name string
	Err  error
}

// Aggregated is the final dataset: one row per sample of the base ordering,
// one column per surviving definition, plus a nullable phenotype.
type Aggregated struct {
	Keys      []prskit.SampleKey
	Columns   []ScoreColumn
	Phenotype []null.Float
}

// Aggregate merges score tables into one dataset. The first table fixes the
// sample ordering; every later table is joined to it by SampleKey rather
// than by row position, since the scorer's output ordering is not a
// contract. A table whose samples cannot be reconciled is excluded and
// reported in the returned column errors; the run only fails when no table
// is usable at all. Phenotypes are left-joined from the pedigree: samples
// missing there keep a null phenotype rather than being dropped.
func Aggregate(tables []*ScoreTable, ped *prskit.Pedigree) (*Aggregated, []ColumnError, error) {
	agg := &Aggregated{}

	var excluded []ColumnError
	var baseIndex map[prskit.SampleKey]int

	for _, table := range tables {
		if baseIndex == nil {
			baseIndex = make(map[prskit.SampleKey]int, len(table.Keys))
			for i, k := range table.Keys {
				baseIndex[k] = i
			}
			agg.Keys = table.Keys
			agg.Columns = append(agg.Columns, ScoreColumn{Name: table.Name, Scores: table.Scores})
			continue
		}

		col, err := alignColumn(table, baseIndex)
		if err != nil {
			excluded = append(excluded, ColumnError{Name: table.Name, Err: err})
			continue
		}
		agg.Columns = append(agg.Columns, col)
	}

	if baseIndex == nil {
		return nil, excluded, ErrNoScorableDefinitions
	}

	agg.Phenotype = make([]null.Float, len(agg.Keys))
	for i, k := range agg.Keys {
		if v, ok := ped.Phenotype(k); ok {
			agg.Phenotype[i] = null.FloatFrom(v)
		}
	}

	return agg, excluded, nil
}

// alignColumn reorders a score table onto the base sample ordering. The
// table must cover exactly the base samples: an unknown sample, a duplicate,
// or a missing one all reject the column.
func alignColumn(table *ScoreTable, baseIndex map[prskit.SampleKey]int) (ScoreColumn, error) {
	if len(table.Keys) != len(baseIndex) {
		return ScoreColumn{}, fmt.Errorf("%w: %s has %d samples, base has %d",
			ErrSampleKeyMismatch, table.Name, len(table.Keys), len(baseIndex))
	}

	scores := make([]float64, len(baseIndex))
	seen := make([]bool, len(baseIndex))
	for i, k := range table.Keys {
		idx, ok := baseIndex[k]
		if !ok {
			return ScoreColumn{}, fmt.Errorf("%w: sample %s in %s is absent from the base ordering",
				ErrSampleKeyMismatch, k, table.Name)
		}
		if seen[idx] {
			return ScoreColumn{}, fmt.Errorf("%w: sample %s appears twice in %s",
				ErrSampleKeyMismatch, k, table.Name)
		}
		seen[idx] = true
		scores[idx] = table.Scores[i]
	}

	return ScoreColumn{Name: table.Name, Scores: scores}, nil
}
