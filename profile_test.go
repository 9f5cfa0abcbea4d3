package prskit

import (
	"strings"
	"testing"
)

func TestProfileRead(t *testing.T) {
	path := writeTempFile(t, "scores.profile",
		" FID  IID  PHENO  CNT  CNT2  SCORE\n"+
			" F1   I1   2      4    4     0.75\n"+
			" F2   I2   1      4    4    -0.25\n"+
			"\n")

	p, err := OpenProfile(path)
	if err != nil {
		t.Fatal(err)
	}
	defer p.Close()

	var rows []ProfileRow
	for {
		row := p.Read()
		if row == nil {
			break
		}
		rows = append(rows, *row)
	}
	if err := p.Err(); err != nil {
		t.Fatal(err)
	}

	if len(rows) != 2 {
		t.Fatalf("read %d rows, want 2", len(rows))
	}

	if rows[0].Key() != (SampleKey{FID: "F1", IID: "I1"}) || rows[0].Score != 0.75 {
		t.Errorf("row 0 = %+v", rows[0])
	}
	if rows[1].Score != -0.25 {
		t.Errorf("row 1 score = %v, want -0.25", rows[1].Score)
	}
}

func TestProfileColumnsLocatedByName(t *testing.T) {
	// Column order differs across plink versions and flags; only the names
	// are contractual.
	path := writeTempFile(t, "scores.profile",
		"SCORE IID FID\n"+
			"1.5 I1 F1\n")

	p, err := OpenProfile(path)
	if err != nil {
		t.Fatal(err)
	}
	defer p.Close()

	row := p.Read()
	if row == nil {
		t.Fatal(p.Err())
	}
	if row.FID != "F1" || row.IID != "I1" || row.Score != 1.5 {
		t.Errorf("row = %+v", row)
	}
}

func TestProfileScoreSum(t *testing.T) {
	path := writeTempFile(t, "scores.profile",
		"FID IID SCORESUM\n"+
			"F1 I1 3\n")

	p, err := OpenProfile(path)
	if err != nil {
		t.Fatal(err)
	}
	defer p.Close()

	row := p.Read()
	if row == nil {
		t.Fatal(p.Err())
	}
	if row.Score != 3 {
		t.Errorf("score = %v, want 3", row.Score)
	}
}

func TestProfileMissingColumns(t *testing.T) {
	path := writeTempFile(t, "scores.profile", "FID IID PHENO\nF1 I1 2\n")

	if _, err := OpenProfile(path); err == nil {
		t.Error("expected an error for a header without SCORE")
	} else if !strings.Contains(err.Error(), "FID, IID, and SCORE") {
		t.Errorf("unhelpful error: %v", err)
	}
}

func TestProfileEmpty(t *testing.T) {
	path := writeTempFile(t, "scores.profile", "")

	if _, err := OpenProfile(path); err == nil {
		t.Error("expected an error for an empty profile")
	}
}

func TestProfileShortRow(t *testing.T) {
	path := writeTempFile(t, "scores.profile",
		"FID IID SCORE\n"+
			"F1 I1\n")

	p, err := OpenProfile(path)
	if err != nil {
		t.Fatal(err)
	}
	defer p.Close()

	if row := p.Read(); row != nil {
		t.Fatalf("Read returned %+v for a short row", row)
	}
	if p.Err() == nil {
		t.Error("expected an error for a row missing the score column")
	}
}
