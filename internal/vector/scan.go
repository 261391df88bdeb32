package vector

// Result is a single similarity hit. Score is the raw inner product, which is
// the cosine similarity when both vectors are unit length.
type Result struct {
	ID    string  `json:"id"`
	Score float64 `json:"score"`
}

// Nearest scores query against every entry and returns the top k by
// descending score, ties resolved in favour of the earlier entry. k is clamped
// to Count(); a clamped k of 0 returns an empty slice without scanning.
func (c *Corpus) Nearest(query []float32, k int) ([]Result, error) {
	if k > len(c.ids) {
		k = len(c.ids)
	}
	if k <= 0 {
		return []Result{}, nil
	}
	if len(query) != c.dim {
		return nil, &DimensionMismatchError{Expected: c.dim, Got: len(query)}
	}
	top := NewTopK(k)
	dim := c.dim
	for i, off := 0, 0; i < len(c.ids); i, off = i+1, off+dim {
		top.Push(i, Dot(query, c.data[off:off+dim]))
	}
	return top.Results(c), nil
}

// Scores returns the score of every entry in scan order. Used for diagnostics
// and tests; searches should call Nearest.
func (c *Corpus) Scores(query []float32) ([]float64, error) {
	if len(c.ids) > 0 && len(query) != c.dim {
		return nil, &DimensionMismatchError{Expected: c.dim, Got: len(query)}
	}
	out := make([]float64, len(c.ids))
	for i := range c.ids {
		out[i] = Dot(query, c.Vector(i))
	}
	return out, nil
}
