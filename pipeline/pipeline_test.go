package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	prskit "github.com/carbocation/prskit"
	"github.com/carbocation/prskit/dataset"
	"github.com/carbocation/prskit/plink"
)

const (
	defA = "rsID\teffect_allele\teffect_weight\n" +
		"rs1\tA\t0.5\n" +
		"rs2\tC\t0.25\n" +
		"rs9\tG\t0.1\n"
	defB = "chr_name\tchr_position\teffect_allele\teffect_weight\n" +
		"2\t500\tG\t1\n"
	defC = "# empty scoring file\nrsID\teffect_allele\teffect_weight\n"
	defD = "rsID\teffect_allele\teffect_weight\n" +
		"rs100\tA\t1\n"
)

// fakeScorer stands in for plink: it sums the weight table and writes a
// .profile whose scores are sum+rowIndex, so every sample and definition get
// distinct values.
type fakeScorer struct {
	samples [][2]string
	fail    map[string]error
	calls   []string
}

func (f *fakeScorer) Score(ctx context.Context, bfilePath, weightPath, outPrefix string) (string, error) {
	name := filepath.Base(outPrefix)
	if err := f.fail[name]; err != nil {
		return "", err
	}

	weights, err := os.ReadFile(weightPath)
	if err != nil {
		return "", err
	}
	f.calls = append(f.calls, weightPath)

	var sum float64
	for i, line := range strings.Split(strings.TrimSpace(string(weights)), "\n") {
		if i == 0 {
			continue
		}
		fields := strings.Fields(line)
		w, err := strconv.ParseFloat(fields[2], 64)
		if err != nil {
			return "", err
		}
		sum += w
	}

	var sb strings.Builder
	sb.WriteString(" FID  IID  PHENO  CNT  CNT2  SCORE\n")
	for i, s := range f.samples {
		fmt.Fprintf(&sb, "%s %s 0 1 1 %g\n", s[0], s[1], sum+float64(i))
	}

	profile := outPrefix + ".profile"
	if err := os.WriteFile(profile, []byte(sb.String()), 0o644); err != nil {
		return "", err
	}

	return profile, nil
}

func writePanel(t *testing.T, dir, fam string) prskit.Panel {
	t.Helper()

	base := filepath.Join(dir, "panel")
	bim := "1\trs1\t0\t1000\tA\tG\n" +
		"1\trs2\t0\t2000\tC\tT\n" +
		"2\trs3\t0\t500\tG\tA\n"

	for path, content := range map[string]string{
		base + ".bed": "l\x1b\x01",
		base + ".bim": bim,
		base + ".fam": fam,
	} {
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	return prskit.Panel{BasePath: base}
}

func writeScoringDir(t *testing.T, dir string, defs map[string]string) string {
	t.Helper()

	scoring := filepath.Join(dir, "scores")
	if err := os.MkdirAll(scoring, 0o755); err != nil {
		t.Fatal(err)
	}
	for name, content := range defs {
		if err := os.WriteFile(filepath.Join(scoring, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	return scoring
}

func TestRunScenario(t *testing.T) {
	dir := t.TempDir()
	panel := writePanel(t, dir, "F1 I1 0 0 1 2\nF2 I2 0 0 2 1\n")
	scoring := writeScoringDir(t, dir, map[string]string{
		"A.txt": defA,
		"B.txt": defB,
		"C.txt": defC,
		"D.txt": defD,
	})
	scorer := &fakeScorer{samples: [][2]string{{"F1", "I1"}, {"F2", "I2"}}}

	agg, manifest, err := Run(context.Background(), Config{
		Panel:      panel,
		ScoringDir: scoring,
		ScratchDir: filepath.Join(dir, "temp_pgs"),
		Scorer:     scorer,
	})
	if err != nil {
		t.Fatal(err)
	}

	if names := agg.ColumnNames(); len(names) != 2 || names[0] != "A" || names[1] != "B" {
		t.Errorf("expected columns A, B; got %v", names)
	}
	if agg.SampleCount() != 2 {
		t.Errorf("expected 2 samples, got %d", agg.SampleCount())
	}

	var buf bytes.Buffer
	if err := agg.WriteCSV(&buf); err != nil {
		t.Fatal(err)
	}
	want := "FID,IID,A,B,phenotype\n" +
		"F1,I1,0.75,1,2\n" +
		"F2,I2,1.75,2,1\n"
	if buf.String() != want {
		t.Errorf("got %q, want %q", buf.String(), want)
	}

	if len(manifest.Entries) != 4 {
		t.Fatalf("expected 4 manifest entries, got %d", len(manifest.Entries))
	}
	byName := make(map[string]*Entry)
	for _, e := range manifest.Entries {
		byName[e.Definition] = e
	}
	if e := byName["A"]; e.Status != StatusScored || e.Rows != 3 || e.Matched != 2 || e.CoveragePct != 66.67 {
		t.Errorf("unexpected entry for A: %+v", e)
	}
	if e := byName["B"]; e.Status != StatusScored || e.Matched != 1 || e.CoveragePct != 100 {
		t.Errorf("unexpected entry for B: %+v", e)
	}
	if e := byName["C"]; e.Status != StatusEmpty {
		t.Errorf("unexpected entry for C: %+v", e)
	}
	if e := byName["D"]; e.Status != StatusNoOverlap || e.Rows != 1 || e.Matched != 0 {
		t.Errorf("unexpected entry for D: %+v", e)
	}

	if manifest.ScoredCount() != 2 {
		t.Errorf("expected 2 scored, got %d", manifest.ScoredCount())
	}
}

func TestRunIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	panel := writePanel(t, dir, "F1 I1 0 0 1 2\nF2 I2 0 0 2 1\n")
	scoring := writeScoringDir(t, dir, map[string]string{"A.txt": defA, "B.txt": defB})

	run := func() string {
		scorer := &fakeScorer{samples: [][2]string{{"F1", "I1"}, {"F2", "I2"}}}
		agg, _, err := Run(context.Background(), Config{
			Panel:      panel,
			ScoringDir: scoring,
			ScratchDir: filepath.Join(dir, "temp_pgs"),
			Scorer:     scorer,
		})
		if err != nil {
			t.Fatal(err)
		}
		var buf bytes.Buffer
		if err := agg.WriteCSV(&buf); err != nil {
			t.Fatal(err)
		}
		return buf.String()
	}

	if first, second := run(), run(); first != second {
		t.Errorf("outputs differ between runs:\n%s\n%s", first, second)
	}
}

func TestRunNoScorableDefinitions(t *testing.T) {
	dir := t.TempDir()
	panel := writePanel(t, dir, "F1 I1 0 0 1 2\n")
	scoring := writeScoringDir(t, dir, map[string]string{"D.txt": defD})
	scorer := &fakeScorer{samples: [][2]string{{"F1", "I1"}}}

	agg, manifest, err := Run(context.Background(), Config{
		Panel:      panel,
		ScoringDir: scoring,
		ScratchDir: filepath.Join(dir, "temp_pgs"),
		Scorer:     scorer,
	})
	if !errors.Is(err, dataset.ErrNoScorableDefinitions) {
		t.Fatalf("expected ErrNoScorableDefinitions, got %v", err)
	}
	if agg != nil {
		t.Error("expected no dataset")
	}
	if len(manifest.Entries) != 1 || manifest.Entries[0].Status != StatusNoOverlap {
		t.Errorf("unexpected manifest: %+v", manifest.Entries)
	}
}

func TestRunScorerFailureIsolated(t *testing.T) {
	dir := t.TempDir()
	panel := writePanel(t, dir, "F1 I1 0 0 1 2\nF2 I2 0 0 2 1\n")
	scoring := writeScoringDir(t, dir, map[string]string{"A.txt": defA, "B.txt": defB})
	scorer := &fakeScorer{
		samples: [][2]string{{"F1", "I1"}, {"F2", "I2"}},
		fail:    map[string]error{"A": fmt.Errorf("%w: exit status 13", plink.ErrScorerFailure)},
	}

	agg, manifest, err := Run(context.Background(), Config{
		Panel:      panel,
		ScoringDir: scoring,
		ScratchDir: filepath.Join(dir, "temp_pgs"),
		Scorer:     scorer,
	})
	if err != nil {
		t.Fatal(err)
	}

	if names := agg.ColumnNames(); len(names) != 1 || names[0] != "B" {
		t.Errorf("expected only column B, got %v", names)
	}

	byName := make(map[string]*Entry)
	for _, e := range manifest.Entries {
		byName[e.Definition] = e
	}
	if byName["A"].Status != StatusScorerFail {
		t.Errorf("unexpected status for A: %+v", byName["A"])
	}
	if byName["B"].Status != StatusScored {
		t.Errorf("unexpected status for B: %+v", byName["B"])
	}
}

func TestRunNullPhenotypeForSampleMissingFromPedigree(t *testing.T) {
	dir := t.TempDir()
	panel := writePanel(t, dir, "F1 I1 0 0 1 2\n")
	scoring := writeScoringDir(t, dir, map[string]string{"A.txt": defA})
	// The scorer reports a sample the pedigree does not know.
	scorer := &fakeScorer{samples: [][2]string{{"F1", "I1"}, {"F3", "I3"}}}

	agg, _, err := Run(context.Background(), Config{
		Panel:      panel,
		ScoringDir: scoring,
		ScratchDir: filepath.Join(dir, "temp_pgs"),
		Scorer:     scorer,
	})
	if err != nil {
		t.Fatal(err)
	}

	if agg.SampleCount() != 2 {
		t.Fatalf("sample must not be dropped; got %d rows", agg.SampleCount())
	}
	if agg.Phenotype[0].Valid != true || agg.Phenotype[0].Float64 != 2 {
		t.Errorf("unexpected phenotype for known sample: %+v", agg.Phenotype[0])
	}
	if agg.Phenotype[1].Valid {
		t.Errorf("expected null phenotype for unknown sample, got %+v", agg.Phenotype[1])
	}
}

func TestRunMissingPanelFile(t *testing.T) {
	dir := t.TempDir()
	scoring := writeScoringDir(t, dir, map[string]string{"A.txt": defA})

	_, _, err := Run(context.Background(), Config{
		Panel:      prskit.Panel{BasePath: filepath.Join(dir, "no-such-panel")},
		ScoringDir: scoring,
		ScratchDir: filepath.Join(dir, "temp_pgs"),
		Scorer:     &fakeScorer{},
	})
	if !errors.Is(err, prskit.ErrReferenceFileMissing) {
		t.Fatalf("expected ErrReferenceFileMissing, got %v", err)
	}
}

func TestRunScratchCleanup(t *testing.T) {
	dir := t.TempDir()
	panel := writePanel(t, dir, "F1 I1 0 0 1 2\n")
	scoring := writeScoringDir(t, dir, map[string]string{"A.txt": defA})
	scratch := filepath.Join(dir, "temp_pgs")

	// KeepScratch leaves the intermediates in place.
	scorer := &fakeScorer{samples: [][2]string{{"F1", "I1"}}}
	_, _, err := Run(context.Background(), Config{
		Panel:       panel,
		ScoringDir:  scoring,
		ScratchDir:  scratch,
		Scorer:      scorer,
		KeepScratch: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(scratch, "A_weights.txt")); err != nil {
		t.Errorf("expected weight table kept: %v", err)
	}
	if _, err := os.Stat(filepath.Join(scratch, "A.profile")); err != nil {
		t.Errorf("expected profile kept: %v", err)
	}

	// The default empties the scratch directory but keeps it.
	scorer = &fakeScorer{samples: [][2]string{{"F1", "I1"}}}
	_, _, err = Run(context.Background(), Config{
		Panel:      panel,
		ScoringDir: scoring,
		ScratchDir: scratch,
		Scorer:     scorer,
	})
	if err != nil {
		t.Fatal(err)
	}
	entries, err := os.ReadDir(scratch)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("expected empty scratch, found %d entries", len(entries))
	}
}

func TestRunCanceledContext(t *testing.T) {
	dir := t.TempDir()
	panel := writePanel(t, dir, "F1 I1 0 0 1 2\n")
	scoring := writeScoringDir(t, dir, map[string]string{"A.txt": defA})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := Run(ctx, Config{
		Panel:      panel,
		ScoringDir: scoring,
		ScratchDir: filepath.Join(dir, "temp_pgs"),
		Scorer:     &fakeScorer{samples: [][2]string{{"F1", "I1"}}},
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestListScoringFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.txt", "a.txt", "c.txt.gz", "notes.md", "x.csv"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	files, err := ListScoringFiles(dir)
	if err != nil {
		t.Fatal(err)
	}

	var names []string
	for _, f := range files {
		names = append(names, filepath.Base(f))
	}
	if len(names) != 3 || names[0] != "a.txt" || names[1] != "b.txt" || names[2] != "c.txt.gz" {
		t.Errorf("unexpected files: %v", names)
	}
}
