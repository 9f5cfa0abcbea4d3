package chrpos

import (
	"fmt"
	"strconv"
	"strings"
)

// Canonical strips decorations that differ between scoring files and
// reference panels: a chrom_ or chr prefix, and leading zeroes on numeric
// chromosomes (BGENIX-style "01"). Sex chromosomes and other non-numeric
// names pass through unchanged.
func Canonical(chromosome string) string {
	c := strings.TrimPrefix(chromosome, "chrom_")
	c = strings.TrimPrefix(c, "chr")

	// If it cannot be parsed as an integer, then it is a sex chromosome (or
	// MT) and there is no leading zero to remove.
	chrInt, err := strconv.Atoi(c)
	if err != nil {
		return c
	}

	return strconv.Itoa(chrInt)
}

// Key renders a chromosome and 1-based position as the positional identifier
// used to reconcile position-based scoring entries with a reference panel,
// e.g. "chr1:751756". The same canonicalization is applied on both sides, so
// cosmetic differences in chromosome naming never break a match.
func Key(chromosome string, position int) string {
	return fmt.Sprintf("chr%s:%d", Canonical(chromosome), position)
}
