package prsparser

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/carbocation/pfx"
	prskit "github.com/carbocation/prskit"
)

// Definition is one fully loaded scoring definition file.
type Definition struct {
	Name     string
	Path     string
	Layout   Layout
	Entries  []PRS
	Warnings []string
}

var compressedSuffixes = []string{".gz", ".bz2", ".xz", ".zip", ".z"}

// DefinitionName derives a definition's name from its file path: the base
// name with any compression suffix and one final extension removed, so
// PGS000001.txt.gz becomes PGS000001.
func DefinitionName(path string) string {
	base := filepath.Base(path)
	lower := strings.ToLower(base)
	for _, suffix := range compressedSuffixes {
		if strings.HasSuffix(lower, suffix) {
			base = base[:len(base)-len(suffix)]
			break
		}
	}

	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Load reads a scoring definition file, transparently decompressing it,
// sniffing its delimiter, and detecting its column layout from the header.
// Ragged rows are tolerated with a warning; a malformed effect weight fails
// the whole definition.
func Load(path string) (*Definition, error) {
	rc, err := prskit.OpenMaybeCompressed(path)
	if err != nil {
		return nil, pfx.Err(err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, pfx.Err(err)
	}

	delim := prskit.DetermineDelimiter(bytes.NewReader(uncommented(data)))

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = delim
	reader.Comment = '#'
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%s: empty file: %w", filepath.Base(path), ErrMissingRequiredColumns)
	}
	if err != nil {
		return nil, pfx.Err(err)
	}

	layout, err := DetectLayout(header, delim)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}

	parser := NewWithLayout(layout)

	def := &Definition{
		Name:   DefinitionName(path),
		Path:   path,
		Layout: layout,
	}

	for i := 1; ; i++ {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			if errors.Is(err, csv.ErrFieldCount) {
				def.Warnings = append(def.Warnings, fmt.Sprintf("row %d: field count differs from header", i))
			} else {
				return nil, pfx.Err(err)
			}
		}

		entry, err := parser.ParseRow(row)
		if err != nil {
			return nil, fmt.Errorf("%s row %d: %w", filepath.Base(path), i, err)
		}

		def.Entries = append(def.Entries, entry)
	}

	return def, nil
}

// uncommented extracts a sample of data lines for delimiter sniffing,
// skipping the metadata comment block that scoring files carry.
func uncommented(data []byte) []byte {
	var sample bytes.Buffer

	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 1024*1024), 1024*1024)

	lines := 0
	for scanner.Scan() && lines < 50 {
		line := scanner.Bytes()
		if len(bytes.TrimSpace(line)) == 0 || bytes.HasPrefix(line, []byte("#")) {
			continue
		}
		sample.Write(line)
		sample.WriteByte('\n')
		lines++
	}

	return sample.Bytes()
}
