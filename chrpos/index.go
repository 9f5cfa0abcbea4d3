package chrpos

// Index maps positional keys (see Key) to the variant ID the reference panel
// uses at that locus. It is built once per panel and read-only afterwards.
type Index struct {
	byKey map[string]string
}

func NewIndex() *Index {
	return &Index{byKey: make(map[string]string)}
}

// Add records the panel's variant ID at a chromosome/position. If two panel
// variants share a locus, the last one wins; panels are assumed to carry one
// canonical ID per locus.
func (idx *Index) Add(chromosome string, position int, variantID string) {
	idx.byKey[Key(chromosome, position)] = variantID
}

// Lookup resolves a chromosome/position to the panel's variant ID.
func (idx *Index) Lookup(chromosome string, position int) (string, bool) {
	id, ok := idx.byKey[Key(chromosome, position)]
	return id, ok
}

func (idx *Index) Len() int {
	return len(idx.byKey)
}
