// Package vector provides the immutable embedding corpus and the brute-force
// similarity scan used to search it.
package vector

import (
	"fmt"
	"sort"

	"github.com/hyperjump/helpsearch/pkg/utils"
)

// Entry is a single corpus item: an identifier and its precomputed embedding.
type Entry struct {
	ID     string
	Vector []float32
}

// Corpus is an immutable set of equal-length vectors stored in one flat buffer.
// Entry i occupies data[i*dim : i*dim+dim]. A Corpus is safe for concurrent reads.
type Corpus struct {
	dim  int
	ids  []string
	data []float32
}

type corpusOptions struct {
	normalize bool
}

// CorpusOption configures corpus construction.
type CorpusOption func(*corpusOptions)

// WithNormalization L2-normalizes every vector as it is copied into the buffer.
// Zero vectors are left as zeros.
func WithNormalization() CorpusOption {
	return func(o *corpusOptions) { o.normalize = true }
}

// NewCorpus builds a corpus from entries, keeping their order as the scan order.
// The dimension is taken from the first entry; any entry of a different length
// fails the whole construction with a *DimensionMismatchError. An empty slice
// yields an empty corpus.
func NewCorpus(entries []Entry, opts ...CorpusOption) (*Corpus, error) {
	var o corpusOptions
	for _, opt := range opts {
		opt(&o)
	}
	if len(entries) == 0 {
		return &Corpus{}, nil
	}
	dim := len(entries[0].Vector)
	seen := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		if len(e.Vector) != dim {
			return nil, &DimensionMismatchError{ID: e.ID, Expected: dim, Got: len(e.Vector)}
		}
		if _, dup := seen[e.ID]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateID, e.ID)
		}
		seen[e.ID] = struct{}{}
	}

	c := &Corpus{
		dim:  dim,
		ids:  make([]string, len(entries)),
		data: make([]float32, len(entries)*dim),
	}
	for i, e := range entries {
		c.ids[i] = e.ID
		row := c.data[i*dim : i*dim+dim]
		copy(row, e.Vector)
		if o.normalize {
			utils.NormalizeL2(row)
		}
	}
	return c, nil
}

// NewCorpusFromMap builds a corpus from an id -> vector mapping. Map iteration
// order is random, so ids are sorted ascending to fix a deterministic scan order.
func NewCorpusFromMap(vectors map[string][]float32, opts ...CorpusOption) (*Corpus, error) {
	ids := make([]string, 0, len(vectors))
	for id := range vectors {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	entries := make([]Entry, len(ids))
	for i, id := range ids {
		entries[i] = Entry{ID: id, Vector: vectors[id]}
	}
	return NewCorpus(entries, opts...)
}

// Dimension returns the shared vector length, or 0 for an empty corpus.
func (c *Corpus) Dimension() int {
	return c.dim
}

// Count returns the number of entries.
func (c *Corpus) Count() int {
	return len(c.ids)
}

// ID returns the identifier at scan index i.
func (c *Corpus) ID(i int) string {
	return c.ids[i]
}

// IDs returns a copy of the identifiers in scan order.
func (c *Corpus) IDs() []string {
	return append([]string(nil), c.ids...)
}

// Vector returns a view of entry i's vector. The slice aliases the corpus
// buffer and must not be modified.
func (c *Corpus) Vector(i int) []float32 {
	return c.data[i*c.dim : i*c.dim+c.dim : i*c.dim+c.dim]
}
