package prskit

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/carbocation/prskit/chrpos"
)

// ErrReferenceFileMissing indicates that one of the three files of a plink
// reference panel does not exist. It is fatal to a run.
var ErrReferenceFileMissing = errors.New("reference panel file missing")

// Panel is a plink binary fileset identified by its extensionless base path:
// BasePath.bed (opaque genotypes, passed through to the external scorer),
// BasePath.bim (variant metadata), and BasePath.fam (pedigree).
type Panel struct {
	BasePath string
}

func (p Panel) BED() string { return p.BasePath + ".bed" }
func (p Panel) BIM() string { return p.BasePath + ".bim" }
func (p Panel) FAM() string { return p.BasePath + ".fam" }

// Name is the panel's base name without directories, used to label outputs.
func (p Panel) Name() string {
	return filepath.Base(p.BasePath)
}

// Verify confirms all three panel files exist before any work begins.
func (p Panel) Verify() error {
	for _, path := range []string{p.BED(), p.BIM(), p.FAM()} {
		if _, err := os.Stat(path); err != nil {
			return fmt.Errorf("%w: %s", ErrReferenceFileMissing, path)
		}
	}

	return nil
}

// PanelVariants is a fully loaded .bim table: rows in panel order, the set of
// variant IDs, and a positional index for resolving chromosome/position
// scoring entries to panel IDs. The index lives only for the duration of a
// run.
type PanelVariants struct {
	Rows  []BIMRow
	ids   map[string]struct{}
	index *chrpos.Index
}

// Variants reads the panel's .bim file once and derives the ID set and the
// positional index from it.
func (p Panel) Variants() (*PanelVariants, error) {
	bim, err := OpenBIM(p.BIM())
	if err != nil {
		return nil, err
	}
	defer bim.Close()

	v := &PanelVariants{
		ids:   make(map[string]struct{}),
		index: chrpos.NewIndex(),
	}
	for {
		row := bim.Read()
		if row == nil {
			break
		}
		v.Rows = append(v.Rows, *row)
		v.ids[row.VariantID] = struct{}{}
		v.index.Add(row.Chromosome, int(row.Coordinate), row.VariantID)
	}
	if err := bim.Err(); err != nil {
		return nil, err
	}

	return v, nil
}

// Pedigree reads the panel's .fam file.
func (p Panel) Pedigree() (*Pedigree, error) {
	return ReadPedigree(p.FAM())
}

func (v *PanelVariants) Count() int {
	return len(v.Rows)
}

func (v *PanelVariants) Contains(variantID string) bool {
	_, ok := v.ids[variantID]
	return ok
}

// IDSet exposes the panel's variant IDs for set intersection. Callers must
// not mutate it.
func (v *PanelVariants) IDSet() map[string]struct{} {
	return v.ids
}

// PositionIndex exposes the chromosome/position lookup built from the panel.
func (v *PanelVariants) PositionIndex() *chrpos.Index {
	return v.index
}

// Subset returns the panel rows whose variant ID is in keep, preserving panel
// order.
func (v *PanelVariants) Subset(keep map[string]struct{}) []BIMRow {
	out := make([]BIMRow, 0, len(keep))
	for _, row := range v.Rows {
		if _, ok := keep[row.VariantID]; ok {
			out = append(out, row)
		}
	}

	return out
}
