// prs2genotypes extracts the panel variants matched by a single scoring
// definition and materializes their per-sample dosages as a labeled dataset
// (CSV and optionally .npy), together with the panel metadata of the
// extracted variants.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"

	"github.com/carbocation/prskit"
	_ "github.com/carbocation/prskit/compileinfoprint"
	"github.com/carbocation/prskit/pipeline"
	"github.com/carbocation/prskit/plink"
)

func init() {
	if !isatty.IsTerminal(os.Stderr.Fd()) {
		logrus.StandardLogger().Formatter = &logrus.TextFormatter{DisableTimestamp: true}
	}
}

func main() {
	var (
		bfile         string
		scoreFile     string
		outDir        string
		plinkExec     string
		scorerTimeout time.Duration
		writeNpy      bool
		hweThreshold  float64
	)

	flag.StringVar(&bfile, "bfile", "", "Path prefix of the plink fileset (expects .bed, .bim, and .fam alongside)")
	flag.StringVar(&scoreFile, "score", "", "Scoring definition file whose variants will be extracted")
	flag.StringVar(&outDir, "outdir", "", "Directory for all extraction artifacts")
	flag.StringVar(&plinkExec, "plink", "plink", "Name or path of the plink executable")
	flag.DurationVar(&scorerTimeout, "scorer-timeout", time.Hour, "Maximum runtime for a single plink invocation")
	flag.BoolVar(&writeNpy, "npy", false, "Also write the dosage matrix as a .npy file")
	flag.Float64Var(&hweThreshold, "hwe", 0, "Warn about extracted variants whose Hardy-Weinberg P value is below this (0 disables)")
	flag.Parse()

	if bfile == "" {
		flag.PrintDefaults()
		log.Fatalln("Please provide -bfile")
	}

	if scoreFile == "" {
		flag.PrintDefaults()
		log.Fatalln("Please provide -score")
	}

	if outDir == "" {
		flag.PrintDefaults()
		log.Fatalln("Please provide -outdir")
	}

	mainLog := logrus.StandardLogger()

	cfg := pipeline.ExtractConfig{
		Panel:          prskit.Panel{BasePath: plink.ExpandHome(bfile)},
		DefinitionPath: plink.ExpandHome(scoreFile),
		OutputDir:      plink.ExpandHome(outDir),
		Extractor:      plink.NewRunner(plinkExec, scorerTimeout, mainLog),
		Log:            mainLog,
	}

	res, err := pipeline.Extract(context.Background(), cfg)
	if err != nil {
		log.Fatalln(err)
	}

	artifacts := []struct {
		suffix string
		write  func(io.Writer) error
	}{
		{"_dataset.csv", res.Matrix.WriteCSV},
		{"_X.csv", res.Matrix.WriteFeaturesCSV},
		{"_y.csv", res.Matrix.WriteLabelsCSV},
		{"_snp_info.csv", res.WriteSNPInfo},
	}
	if writeNpy {
		artifacts = append(artifacts, struct {
			suffix string
			write  func(io.Writer) error
		}{"_X.npy", res.Matrix.WriteNpy})
	}

	for _, artifact := range artifacts {
		if err := writeArtifact(res.Prefix+artifact.suffix, artifact.write); err != nil {
			log.Fatalln(err)
		}
	}

	if hweThreshold > 0 {
		ids := res.Matrix.VariantIDs()
		for col, p := range res.HWE() {
			if p < hweThreshold {
				mainLog.Warnf("%s deviates from Hardy-Weinberg equilibrium (P=%.3g)", ids[col], p)
			}
		}
	}

	mainLog.Printf("Matched %d of %d scoring variants (%.2f%% coverage)",
		res.Match.MatchedCount(), res.Match.TotalScoringVariants, res.Match.CoveragePercent)
	mainLog.Printf("Wrote %d samples x %d variants under %s", res.Matrix.SampleCount(), res.Matrix.VariantCount(), res.Prefix)
}

func writeArtifact(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	err = write(f)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	return nil
}
