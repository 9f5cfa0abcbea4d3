package prsparser

import (
	"compress/gzip"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeDefinition(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	return path
}

func TestLoadTabSeparated(t *testing.T) {
	content := "# PGS Catalog scoring file\n# genome_build=GRCh37\n" +
		"rsID\teffect_allele\teffect_weight\n" +
		"rs1\tA\t0.5\n" +
		"rs2\tC\t-1.25e-02\n"
	path := writeDefinition(t, "PGS000001.txt", content)

	def, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if def.Name != "PGS000001" {
		t.Errorf("expected name PGS000001, got %s", def.Name)
	}
	if len(def.Entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(def.Entries))
	}
	if def.Entries[0].RawID != "rs1" || def.Entries[0].EffectAllele != "A" || def.Entries[0].EffectWeight != 0.5 {
		t.Errorf("unexpected first entry: %+v", def.Entries[0])
	}
	if def.Entries[1].EffectWeight != -0.0125 {
		t.Errorf("unexpected second entry: %+v", def.Entries[1])
	}
}

func TestLoadCommaSeparatedPositional(t *testing.T) {
	content := "chr_name,chr_position,effect_allele,effect_weight\n" +
		"1,1000,A,0.1\n" +
		"chr2,2000,T,0.2\n"
	path := writeDefinition(t, "positional.csv", content)

	def, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if def.Layout.Scheme() != "positional" {
		t.Errorf("expected positional scheme, got %s", def.Layout.Scheme())
	}
	if len(def.Entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(def.Entries))
	}
	if def.Entries[0].Chromosome != "1" || def.Entries[0].Position != 1000 {
		t.Errorf("unexpected first entry: %+v", def.Entries[0])
	}
	if def.Entries[1].Chromosome != "chr2" {
		t.Errorf("unexpected second entry: %+v", def.Entries[1])
	}
}

func TestLoadGzipped(t *testing.T) {
	path := filepath.Join(t.TempDir(), "PGS000002.txt.gz")

	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	gz := gzip.NewWriter(f)
	content := "rsID\teffect_allele\teffect_weight\nrs7\tG\t2.5\n"
	if _, err := gz.Write([]byte(content)); err != nil {
		t.Fatal(err)
	}
	if err := gz.Close(); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}

	def, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if def.Name != "PGS000002" {
		t.Errorf("expected name PGS000002, got %s", def.Name)
	}
	if len(def.Entries) != 1 || def.Entries[0].RawID != "rs7" {
		t.Errorf("unexpected entries: %+v", def.Entries)
	}
}

func TestLoadMissingRequiredColumns(t *testing.T) {
	path := writeDefinition(t, "noweight.txt", "rsID\teffect_allele\nrs1\tA\n")

	_, err := Load(path)
	if !errors.Is(err, ErrMissingRequiredColumns) {
		t.Errorf("expected ErrMissingRequiredColumns, got %v", err)
	}
}

func TestLoadUnresolvableScheme(t *testing.T) {
	path := writeDefinition(t, "noid.txt", "effect_allele\teffect_weight\nA\t0.5\n")

	_, err := Load(path)
	if !errors.Is(err, ErrUnresolvableIdentifierScheme) {
		t.Errorf("expected ErrUnresolvableIdentifierScheme, got %v", err)
	}
}

func TestLoadBadWeightFailsDefinition(t *testing.T) {
	path := writeDefinition(t, "badweight.txt", "rsID\teffect_allele\teffect_weight\nrs1\tA\toops\n")

	if _, err := Load(path); err == nil {
		t.Error("expected an error for a non-numeric weight")
	}
}

func TestLoadEmptyDefinitionHasNoEntries(t *testing.T) {
	path := writeDefinition(t, "empty.txt", "# header only\nrsID\teffect_allele\teffect_weight\n")

	def, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(def.Entries) != 0 {
		t.Errorf("expected no entries, got %d", len(def.Entries))
	}
}

func TestDefinitionName(t *testing.T) {
	cases := []struct {
		path string
		want string
	}{
		{"PGS000001.txt.gz", "PGS000001"},
		{"/data/scores/height.tsv", "height"},
		{"weights.txt", "weights"},
		{"archive.zip", "archive"},
		{"plain", "plain"},
	}

	for _, c := range cases {
		if got := DefinitionName(c.path); got != c.want {
			t.Errorf("DefinitionName(%q) = %q, want %q", c.path, got, c.want)
		}
	}
}
