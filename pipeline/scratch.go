package pipeline

import (
	"os"
	"path/filepath"

	"github.com/carbocation/pfx"
)

// EnsureScratch creates the scratch directory. An existing directory is not
// an error: repeated runs share it.
func EnsureScratch(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return pfx.Err(err)
	}

	return nil
}

// CleanScratch empties the scratch directory, best effort: anything that
// cannot be removed is left behind without complaint. The directory itself
// is kept.
func CleanScratch(dir string) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}

	for _, e := range entries {
		_ = os.RemoveAll(filepath.Join(dir, e.Name()))
	}
}
