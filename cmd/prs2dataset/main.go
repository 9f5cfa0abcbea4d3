// prs2dataset scores a plink reference panel against a directory of scoring
// definitions and aggregates the per-sample results into one labeled CSV.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aybabtme/uniplot/histogram"
	"github.com/klauspost/pgzip"
	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/stat"

	"github.com/carbocation/prskit"
	_ "github.com/carbocation/prskit/compileinfoprint"
	"github.com/carbocation/prskit/dataset"
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
		scoringDir    string
		output        string
		scratch       string
		plinkExec     string
		scorerTimeout time.Duration
		keepScratch   bool
		gzipOutput    bool
		verbose       bool
	)

	flag.StringVar(&bfile, "bfile", "", "Path prefix of the plink fileset (expects .bed, .bim, and .fam alongside)")
	flag.StringVar(&scoringDir, "scores", "", "Directory of scoring definition files (*.txt, optionally compressed)")
	flag.StringVar(&output, "out", "", "Path for the aggregated dataset CSV; the run manifest TSV is written next to it")
	flag.StringVar(&scratch, "scratch", "", "Scratch directory for weight tables and scorer output (default: temp_pgs next to -out)")
	flag.StringVar(&plinkExec, "plink", "plink", "Name or path of the plink executable")
	flag.DurationVar(&scorerTimeout, "scorer-timeout", time.Hour, "Maximum runtime for a single scorer invocation")
	flag.BoolVar(&keepScratch, "keep-scratch", false, "Keep intermediate files after a successful run")
	flag.BoolVar(&gzipOutput, "z", false, "gzip the dataset CSV (implied when -out ends in .gz)")
	flag.BoolVar(&verbose, "verbose", false, "Print a histogram and summary statistics for every score column")
	flag.Parse()

	if bfile == "" {
		flag.PrintDefaults()
		log.Fatalln("Please provide -bfile")
	}

	if scoringDir == "" {
		flag.PrintDefaults()
		log.Fatalln("Please provide -scores")
	}

	if output == "" {
		flag.PrintDefaults()
		log.Fatalln("Please provide -out")
	}

	bfile = plink.ExpandHome(bfile)
	scoringDir = plink.ExpandHome(scoringDir)
	output = plink.ExpandHome(output)

	if strings.HasSuffix(output, ".gz") {
		gzipOutput = true
	}

	if scratch == "" {
		scratch = filepath.Join(filepath.Dir(output), "temp_pgs")
	} else {
		scratch = plink.ExpandHome(scratch)
	}

	mainLog := logrus.StandardLogger()

	cfg := pipeline.Config{
		Panel:       prskit.Panel{BasePath: bfile},
		ScoringDir:  scoringDir,
		ScratchDir:  scratch,
		Scorer:      plink.NewRunner(plinkExec, scorerTimeout, mainLog),
		KeepScratch: keepScratch,
		Log:         mainLog,
	}

	agg, manifest, runErr := pipeline.Run(context.Background(), cfg)

	// The manifest is written even when the run fails, so that a partial
	// run still leaves a record of what happened to each definition.
	if manifest != nil {
		if err := writeManifest(manifestPath(output), manifest); err != nil {
			mainLog.Errorln(err)
		}
	}

	if runErr != nil {
		log.Fatalln(runErr)
	}

	if err := writeDataset(output, gzipOutput, agg); err != nil {
		log.Fatalln(err)
	}

	mean, median := manifest.CoverageSummary()
	mainLog.Printf("Scored %d of %d definitions (coverage mean %.2f%%, median %.2f%%)",
		manifest.ScoredCount(), len(manifest.Entries), mean, median)
	mainLog.Printf("Wrote %d samples x %d score columns to %s", agg.SampleCount(), len(agg.Columns), output)

	if verbose {
		printScoreSummaries(os.Stdout, agg)
	}
}

// manifestPath derives the manifest TSV path from the dataset path:
// pgs_dataset.csv(.gz) becomes pgs_dataset_manifest.tsv.
func manifestPath(output string) string {
	base := strings.TrimSuffix(output, ".gz")
	base = strings.TrimSuffix(base, filepath.Ext(base))

	return base + "_manifest.tsv"
}

func writeManifest(path string, manifest *pipeline.Manifest) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	err = manifest.WriteTSV(f)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}

	return err
}

func writeDataset(path string, gzipOutput bool, agg *dataset.Aggregated) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	bufw := bufio.NewWriter(f)

	if gzipOutput {
		gzw := pgzip.NewWriter(bufw)
		err = agg.WriteCSV(gzw)
		if closeErr := gzw.Close(); err == nil {
			err = closeErr
		}
	} else {
		err = agg.WriteCSV(bufw)
	}

	if flushErr := bufw.Flush(); err == nil {
		err = flushErr
	}
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}

	return err
}

func printScoreSummaries(w io.Writer, agg *dataset.Aggregated) {
	for _, col := range agg.Columns {
		mean, sd := stat.MeanStdDev(col.Scores, nil)
		fmt.Fprintf(w, "\n%s: n=%d mean=%.4g sd=%.4g\n", col.Name, len(col.Scores), mean, sd)

		hist := histogram.Hist(10, col.Scores)
		if err := histogram.Fprint(w, hist, histogram.Linear(40)); err != nil {
			log.Println(err)
		}
	}
}
