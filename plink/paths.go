package plink

import (
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/carbocation/pfx"
)

// ExpandHome expands a leading ~ to the user's home directory. Paths for the
// panel, the scoring files, and the outputs all pass through here before
// being handed to the scorer, which does no expansion of its own.
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}

	home, err := os.UserHomeDir()
	if err != nil {
		log.Fatalln(pfx.Err(err))
	}

	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
