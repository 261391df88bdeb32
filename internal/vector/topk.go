package vector

import "sort"

type scored struct {
	index int
	score float64
}

// TopK retains the k highest scores offered to it, sorted descending.
// Among equal scores the one offered first stays ahead.
type TopK struct {
	k     int
	items []scored
}

// NewTopK returns a selector for at most k items. k must be positive.
func NewTopK(k int) *TopK {
	return &TopK{k: k, items: make([]scored, 0, k+1)}
}

// Push offers the score for scan index i.
func (t *TopK) Push(i int, score float64) {
	n := len(t.items)
	if n == t.k && score <= t.items[n-1].score {
		return
	}
	// First position holding a strictly lower score: equal scores stay in front.
	pos := sort.Search(n, func(j int) bool { return t.items[j].score < score })
	t.items = append(t.items, scored{})
	copy(t.items[pos+1:], t.items[pos:n])
	t.items[pos] = scored{index: i, score: score}
	if len(t.items) > t.k {
		t.items = t.items[:t.k]
	}
}

// Len returns the number of retained items.
func (t *TopK) Len() int {
	return len(t.items)
}

// Results maps retained indices to corpus ids in descending score order.
func (t *TopK) Results(c *Corpus) []Result {
	out := make([]Result, len(t.items))
	for i, it := range t.items {
		out[i] = Result{ID: c.ids[it.index], Score: it.score}
	}
	return out
}
