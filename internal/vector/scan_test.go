package vector

import (
	"math"
	"math/rand"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func randomUnit(r *rand.Rand, dim int) []float32 {
	v := make([]float32, dim)
	var sum float64
	for i := range v {
		v[i] = float32(r.NormFloat64())
		sum += float64(v[i]) * float64(v[i])
	}
	inv := float32(1 / math.Sqrt(sum))
	for i := range v {
		v[i] *= inv
	}
	return v
}

func TestDot_MatchesInnerProduct(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	for _, dim := range []int{1, 3, 15, 16, 17, 31, 32, 33, 64, 100, 384} {
		a := randomUnit(r, dim)
		b := randomUnit(r, dim)
		want := InnerProduct(a, b)
		got := Dot(a, b)
		assert.InDelta(t, want, got, 1e-5*math.Max(1, math.Abs(want)), "dim=%d", dim)
	}
}

func TestDot_Empty(t *testing.T) {
	assert.Equal(t, 0.0, Dot(nil, nil))
}

func TestNearest_OrderingExample(t *testing.T) {
	c, err := NewCorpusFromMap(map[string][]float32{
		"a": {1, 0, 0},
		"b": {0, 1, 0},
		"c": {-1, 0, 0},
		"d": {0.6, 0.8, 0},
	})
	require.NoError(t, err)

	got, err := c.Nearest([]float32{1, 0, 0}, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].ID)
	assert.InDelta(t, 1.0, got[0].Score, 1e-6)
	assert.Equal(t, "d", got[1].ID)
	assert.InDelta(t, 0.6, got[1].Score, 1e-6)
}

func TestNearest_TieBreakEarlierWins(t *testing.T) {
	c, err := NewCorpus([]Entry{
		{ID: "x", Vector: []float32{1, 0}},
		{ID: "y", Vector: []float32{1, 0}},
	})
	require.NoError(t, err)

	got, err := c.Nearest([]float32{1, 0}, 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "x", got[0].ID)
	assert.InDelta(t, 1.0, got[0].Score, 1e-6)

	got, err = c.Nearest([]float32{1, 0}, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "y"}, ids(got))
}

func TestNearest_ZeroAndEmpty(t *testing.T) {
	c, err := NewCorpus([]Entry{{ID: "a", Vector: []float32{1, 0}}})
	require.NoError(t, err)

	for _, k := range []int{0, -1, -100} {
		got, err := c.Nearest([]float32{1, 0}, k)
		require.NoError(t, err)
		assert.Empty(t, got, "k=%d", k)
	}

	empty, err := NewCorpus(nil)
	require.NoError(t, err)
	for _, k := range []int{0, 1, 10} {
		got, err := empty.Nearest([]float32{1, 2, 3}, k)
		require.NoError(t, err)
		assert.Empty(t, got, "k=%d", k)
	}
}

func TestNearest_QueryDimensionMismatch(t *testing.T) {
	c, err := NewCorpus([]Entry{{ID: "a", Vector: []float32{1, 0}}})
	require.NoError(t, err)
	_, err = c.Nearest([]float32{1, 0, 0}, 1)
	assert.True(t, IsDimensionMismatch(err))
}

func TestNearest_Saturation(t *testing.T) {
	r := rand.New(rand.NewSource(3))
	entries := make([]Entry, 20)
	for i := range entries {
		entries[i] = Entry{ID: string(rune('a' + i)), Vector: randomUnit(r, 8)}
	}
	c, err := NewCorpus(entries)
	require.NoError(t, err)

	for _, k := range []int{20, 21, 1000} {
		got, err := c.Nearest(randomUnit(r, 8), k)
		require.NoError(t, err)
		require.Len(t, got, 20)
		seen := make(map[string]bool)
		for i, res := range got {
			assert.False(t, seen[res.ID], "duplicate id %s", res.ID)
			seen[res.ID] = true
			if i > 0 {
				assert.GreaterOrEqual(t, got[i-1].Score, res.Score)
			}
		}
	}
}

func TestScores_MatchNaiveDot(t *testing.T) {
	r := rand.New(rand.NewSource(11))
	const n, dim = 50, 37
	entries := make([]Entry, n)
	for i := range entries {
		entries[i] = Entry{ID: string(rune(0x4e00 + i)), Vector: randomUnit(r, dim)}
	}
	c, err := NewCorpus(entries)
	require.NoError(t, err)

	q := randomUnit(r, dim)
	scores, err := c.Scores(q)
	require.NoError(t, err)
	require.Len(t, scores, n)
	for i, e := range entries {
		want := InnerProduct(q, e.Vector)
		assert.InDelta(t, want, scores[i], 1e-5*math.Max(1, math.Abs(want)))
	}
}

func TestNearest_ScaleTop1MatchesReference(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	const n, dim, queries = 500, 64, 100
	entries := make([]Entry, n)
	for i := range entries {
		entries[i] = Entry{ID: "doc-" + strconv.Itoa(i), Vector: randomUnit(r, dim)}
	}
	c, err := NewCorpus(entries)
	require.NoError(t, err)

	for q := 0; q < queries; q++ {
		query := randomUnit(r, dim)

		best := -1
		bestScore, secondScore := math.Inf(-1), math.Inf(-1)
		for i, e := range entries {
			s := InnerProduct(query, e.Vector)
			if s > bestScore {
				secondScore = bestScore
				best, bestScore = i, s
			} else if s > secondScore {
				secondScore = s
			}
		}

		got, err := c.Nearest(query, 1)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.InDelta(t, bestScore, got[0].Score, 1e-5)
		if bestScore-secondScore > 1e-5 {
			assert.Equal(t, entries[best].ID, got[0].ID, "query %d", q)
		}
	}
}

func TestNearest_Deterministic(t *testing.T) {
	r := rand.New(rand.NewSource(5))
	entries := make([]Entry, 100)
	for i := range entries {
		entries[i] = Entry{ID: strconv.Itoa(i), Vector: randomUnit(r, 16)}
	}
	c, err := NewCorpus(entries)
	require.NoError(t, err)
	q := randomUnit(r, 16)

	first, err := c.Nearest(q, 10)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := c.Nearest(q, 10)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func ids(rs []Result) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.ID
	}
	return out
}
