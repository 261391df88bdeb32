package embedding

import (
	"context"
	"errors"
	"testing"
)

func TestEmbeddingCache_GetSet(t *testing.T) {
	c := NewEmbeddingCache(2)
	if v, ok := c.Get("a"); ok || v != nil {
		t.Fatal("expected miss")
	}
	c.Set("a", []float32{1, 2, 3})
	v, ok := c.Get("a")
	if !ok || len(v) != 3 || v[0] != 1 {
		t.Errorf("Get: got %v, %v", v, ok)
	}
	c.Set("b", []float32{4, 5})
	c.Set("c", []float32{6}) // evicts a
	if _, ok := c.Get("a"); ok {
		t.Error("expected a to be evicted")
	}
	if _, ok := c.Get("b"); !ok {
		t.Error("expected b to remain")
	}
	if _, ok := c.Get("c"); !ok {
		t.Error("expected c to be present")
	}
	if c.Len() != 2 {
		t.Errorf("Len=%d, want 2", c.Len())
	}
}

func TestEmbeddingCache_GetRefreshesRecency(t *testing.T) {
	c := NewEmbeddingCache(2)
	c.Set("a", []float32{1})
	c.Set("b", []float32{2})
	c.Get("a")
	c.Set("c", []float32{3}) // evicts b, not a
	if _, ok := c.Get("a"); !ok {
		t.Error("recently read a should remain")
	}
	if _, ok := c.Get("b"); ok {
		t.Error("b should be evicted")
	}
}

func TestCachedEmbedder(t *testing.T) {
	ctx := context.Background()
	inner := &StaticEmbedder{Vectors: map[string][]float32{"q": {1, 0}}, Dim: 2}
	e := NewCachedEmbedder(inner, 10)

	first, err := e.Embed(ctx, "q")
	if err != nil {
		t.Fatal(err)
	}
	first[0] = 42 // callers may mutate their copy
	second, err := e.Embed(ctx, "q")
	if err != nil {
		t.Fatal(err)
	}
	if second[0] != 1 {
		t.Errorf("cached vector was mutated: %v", second)
	}
	if inner.Calls != 1 {
		t.Errorf("inner calls = %d, want 1", inner.Calls)
	}
	if e.Dimensions() != 2 {
		t.Errorf("Dimensions=%d", e.Dimensions())
	}
}

func TestCachedEmbedder_ErrorsNotCached(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("boom")
	inner := &StaticEmbedder{Err: boom}
	e := NewCachedEmbedder(inner, 10)
	for i := 0; i < 2; i++ {
		if _, err := e.Embed(ctx, "q"); !errors.Is(err, boom) {
			t.Fatalf("err = %v, want boom", err)
		}
	}
	if inner.Calls != 2 {
		t.Errorf("inner calls = %d, want 2", inner.Calls)
	}
}
