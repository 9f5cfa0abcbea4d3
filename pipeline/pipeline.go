// Package pipeline orchestrates a scoring run: it walks a directory of
// scoring definitions, reconciles each one against the reference panel,
// hands the matched weights to the external scorer, and aggregates the
// per-definition score outputs into one sample-keyed dataset.
//
// One definition is fully processed before the next begins. A definition
// that fails at any stage is recorded in the run manifest and skipped; only
// run-level conditions (missing panel files, nothing scorable at all) abort
// the run.
package pipeline

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/carbocation/pfx"
	"github.com/sirupsen/logrus"

	prskit "github.com/carbocation/prskit"
	"github.com/carbocation/prskit/chrpos"
	"github.com/carbocation/prskit/dataset"
	"github.com/carbocation/prskit/prsmatch"
	"github.com/carbocation/prskit/prsparser"
)

// Scorer computes per-sample scores for a weight table. plink.Runner is the
// real implementation; tests substitute their own.
type Scorer interface {
	Score(ctx context.Context, bfilePath, weightPath, outPrefix string) (profilePath string, err error)
}

// Config describes one scoring run.
type Config struct {
	// Panel is the reference panel fileset the scorer runs against.
	Panel prskit.Panel

	// ScoringDir holds the scoring definition files.
	ScoringDir string

	// ScratchDir receives weight tables and raw scorer outputs. It is
	// created if absent and, unless KeepScratch is set, emptied after a
	// successful run.
	ScratchDir string

	Scorer      Scorer
	KeepScratch bool

	// Log receives per-definition progress. Nil silences the run.
	Log logrus.FieldLogger
}

// Run executes the scoring pipeline. It returns the aggregated dataset
// together with a manifest describing the fate of every scoring definition.
// The manifest is returned even when Run fails, so callers can report what
// was attempted.
func Run(ctx context.Context, cfg Config) (*dataset.Aggregated, *Manifest, error) {
	log := cfg.Log
	if log == nil {
		silent := logrus.New()
		silent.SetOutput(io.Discard)
		log = silent
	}

	if cfg.Scorer == nil {
		return nil, nil, errors.New("pipeline: no scorer configured")
	}

	if err := cfg.Panel.Verify(); err != nil {
		return nil, nil, err
	}

	variants, err := cfg.Panel.Variants()
	if err != nil {
		return nil, nil, err
	}
	ped, err := cfg.Panel.Pedigree()
	if err != nil {
		return nil, nil, err
	}

	log.WithFields(logrus.Fields{
		"panel":    cfg.Panel.Name(),
		"variants": variants.Count(),
		"samples":  ped.SampleCount(),
	}).Info("reference panel loaded")

	if err := EnsureScratch(cfg.ScratchDir); err != nil {
		return nil, nil, err
	}

	files, err := ListScoringFiles(cfg.ScoringDir)
	if err != nil {
		return nil, nil, err
	}
	log.WithField("definitions", len(files)).Info("scoring definitions found")

	idx := variants.PositionIndex()
	panelIDs := variants.IDSet()

	manifest := &Manifest{}
	var tables []*dataset.ScoreTable

	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return nil, manifest, err
		}

		table, entry := processDefinition(ctx, cfg, log, path, idx, panelIDs)
		manifest.add(entry)

		if table != nil {
			tables = append(tables, table)
			log.WithFields(logrus.Fields{
				"definition": entry.Definition,
				"matched":    entry.Matched,
				"rows":       entry.Rows,
				"coverage":   entry.CoveragePct,
			}).Info("definition scored")
			continue
		}

		log.WithFields(logrus.Fields{
			"definition": entry.Definition,
			"status":     entry.Status,
			"detail":     entry.Detail,
		}).Warn("definition skipped")
	}

	agg, colErrs, err := dataset.Aggregate(tables, ped)
	if err != nil {
		return nil, manifest, err
	}
	for _, ce := range colErrs {
		manifest.markExcluded(ce.Name, ce.Err)
		log.WithFields(logrus.Fields{
			"definition": ce.Name,
			"detail":     ce.Err.Error(),
		}).Warn("score column excluded")
	}

	if !cfg.KeepScratch {
		CleanScratch(cfg.ScratchDir)
	}

	return agg, manifest, nil
}

// processDefinition runs one scoring definition through the full chain:
// load, reconcile, build weights, score, collect. Any failure is captured in
// the returned entry; the table is non-nil only on success.
func processDefinition(ctx context.Context, cfg Config, log logrus.FieldLogger, path string, idx *chrpos.Index, panelIDs map[string]struct{}) (*dataset.ScoreTable, *Entry) {
	name := prsparser.DefinitionName(path)
	entry := &Entry{Definition: name}

	def, err := prsparser.Load(path)
	if err != nil {
		entry.fail(err)
		return nil, entry
	}
	entry.Rows = len(def.Entries)

	if len(def.Warnings) > 0 {
		log.WithFields(logrus.Fields{
			"definition": name,
			"warnings":   len(def.Warnings),
		}).Warn("ragged rows tolerated")
	}

	ids := prsmatch.CanonicalIDs(def.Entries, idx)
	res, err := prsmatch.Match(ids, panelIDs)
	entry.Matched = res.MatchedCount()
	entry.CoveragePct = round2(res.CoveragePercent)
	if err != nil {
		entry.fail(err)
		return nil, entry
	}

	wt := prsmatch.BuildWeightTable(def.Entries, ids, res)
	entry.DuplicateLoci = wt.DuplicateLoci

	weightPath := filepath.Join(cfg.ScratchDir, name+"_weights.txt")
	if err := writeWeightTable(weightPath, wt); err != nil {
		entry.fail(err)
		return nil, entry
	}

	profilePath, err := cfg.Scorer.Score(ctx, cfg.Panel.BasePath, weightPath, filepath.Join(cfg.ScratchDir, name))
	if err != nil {
		entry.fail(err)
		return nil, entry
	}

	table, err := dataset.ReadScoreTable(name, profilePath)
	if err != nil {
		entry.fail(err)
		return nil, entry
	}

	entry.Status = StatusScored
	return table, entry
}

func writeWeightTable(path string, wt prsmatch.WeightTable) error {
	f, err := os.Create(path)
	if err != nil {
		return pfx.Err(err)
	}

	if err := wt.Write(f); err != nil {
		f.Close()
		return err
	}

	return pfx.Err(f.Close())
}

// scoringPatterns matches plain and compressed scoring definition files.
var scoringPatterns = []string{"*.txt", "*.txt.gz", "*.txt.bz2", "*.txt.xz", "*.txt.zip"}

// ListScoringFiles returns the scoring definition files under dir, sorted by
// name so runs are deterministic.
func ListScoringFiles(dir string) ([]string, error) {
	var files []string
	for _, pattern := range scoringPatterns {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, pfx.Err(err)
		}
		files = append(files, matches...)
	}
	sort.Strings(files)

	return files, nil
}
