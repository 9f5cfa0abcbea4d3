package pipeline

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/carbocation/pfx"
	"github.com/gocarina/gocsv"
	"github.com/sirupsen/logrus"

	prskit "github.com/carbocation/prskit"
	"github.com/carbocation/prskit/dataset"
	"github.com/carbocation/prskit/hwe"
	"github.com/carbocation/prskit/prsmatch"
	"github.com/carbocation/prskit/prsparser"
)

// Extractor subsets a panel to a variant list and recodes the subset as
// additive dosages. plink.Runner is the real implementation; tests
// substitute their own.
type Extractor interface {
	ExtractBED(ctx context.Context, bfilePath, snpListPath, outPrefix string) (string, error)
	RecodeAdditive(ctx context.Context, bfilePath, outPrefix string) (string, error)
}

// ExtractConfig describes one extraction run: a single scoring definition
// whose matched variants become per-sample dosage features.
type ExtractConfig struct {
	Panel prskit.Panel

	// DefinitionPath is the scoring definition file to extract.
	DefinitionPath string

	// OutputDir receives every artifact: the variant list, the subset
	// fileset, the dosage table, and whatever the caller writes from the
	// result. Created if absent.
	OutputDir string

	Extractor Extractor

	// Log receives progress. Nil silences the run.
	Log logrus.FieldLogger
}

// ExtractResult bundles the dosage matrix with the panel metadata of the
// variants behind its columns and the match statistics that selected them.
type ExtractResult struct {
	Definition string
	Match      prsmatch.MatchResult
	Variants   []prskit.BIMRow
	Matrix     *dataset.GenotypeMatrix

	// Prefix is the path prefix shared by the artifacts of this run.
	Prefix string
}

// Extract runs the extraction variant of the pipeline. Unlike Run it
// processes a single definition, so every failure ends the run: there is no
// batch to continue with.
func Extract(ctx context.Context, cfg ExtractConfig) (*ExtractResult, error) {
	log := cfg.Log
	if log == nil {
		silent := logrus.New()
		silent.SetOutput(io.Discard)
		log = silent
	}

	if cfg.Extractor == nil {
		return nil, errors.New("pipeline: no extractor configured")
	}

	if err := cfg.Panel.Verify(); err != nil {
		return nil, err
	}
	variants, err := cfg.Panel.Variants()
	if err != nil {
		return nil, err
	}
	ped, err := cfg.Panel.Pedigree()
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return nil, pfx.Err(err)
	}

	def, err := prsparser.Load(cfg.DefinitionPath)
	if err != nil {
		return nil, err
	}

	ids := prsmatch.CanonicalIDs(def.Entries, variants.PositionIndex())
	res, err := prsmatch.Match(ids, variants.IDSet())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", def.Name, err)
	}

	log.WithFields(logrus.Fields{
		"definition": def.Name,
		"matched":    res.MatchedCount(),
		"coverage":   round2(res.CoveragePercent),
	}).Info("variants matched")

	matchedRows := variants.Subset(res.MatchedIDs)

	prefix := filepath.Join(cfg.OutputDir, cfg.Panel.Name()+"_"+def.Name)

	snpList := prefix + "_snp_list.txt"
	if err := writeSNPList(snpList, matchedRows); err != nil {
		return nil, err
	}

	extracted, err := cfg.Extractor.ExtractBED(ctx, cfg.Panel.BasePath, snpList, prefix+"_extracted")
	if err != nil {
		return nil, err
	}
	rawPath, err := cfg.Extractor.RecodeAdditive(ctx, extracted, extracted)
	if err != nil {
		return nil, err
	}

	matrix, err := dataset.BuildGenotypeMatrix(rawPath, ped)
	if err != nil {
		return nil, err
	}

	log.WithFields(logrus.Fields{
		"samples":  matrix.SampleCount(),
		"variants": matrix.VariantCount(),
	}).Info("dosage matrix built")

	return &ExtractResult{
		Definition: def.Name,
		Match:      res,
		Variants:   matchedRows,
		Matrix:     matrix,
		Prefix:     prefix,
	}, nil
}

// writeSNPList writes one matched variant ID per line, in panel order, in
// the form the scorer's --extract flag consumes.
func writeSNPList(path string, rows []prskit.BIMRow) error {
	f, err := os.Create(path)
	if err != nil {
		return pfx.Err(err)
	}

	w := bufio.NewWriter(f)
	for _, row := range rows {
		fmt.Fprintln(w, row.VariantID)
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return pfx.Err(err)
	}

	return pfx.Err(f.Close())
}

// WriteSNPInfo writes the matched variants' panel metadata as CSV, one row
// per matrix column.
func (r *ExtractResult) WriteSNPInfo(w io.Writer) error {
	if err := gocsv.MarshalCSV(&r.Variants, gocsv.NewSafeCSVWriter(csv.NewWriter(w))); err != nil {
		return pfx.Err(err)
	}

	return nil
}

// Below this, the chi-square approximation of the equilibrium test hands off
// to the exact test.
const hweExactCutoff = 0.05

// HWE returns each matrix column's Hardy-Weinberg equilibrium P value,
// computed from the hard-call genotype tallies. Very small values usually
// mark genotyping artifacts rather than biology.
func (r *ExtractResult) HWE() []float64 {
	out := make([]float64, r.Matrix.VariantCount())
	for col := range out {
		two, one, zero := r.Matrix.GenotypeCounts(col)
		out[col] = hwe.PValue(two, one, zero, hweExactCutoff)
	}

	return out
}
