//go:build cgo
// +build cgo

package embedding

import (
	"context"
	"errors"
	"testing"
)

func TestNewONNXEmbedder_invalidShape(t *testing.T) {
	for _, tc := range []struct{ dims, tokens int }{{0, 256}, {384, 0}, {-1, -1}} {
		if _, err := NewONNXEmbedder("model.onnx", tc.dims, tc.tokens); err == nil {
			t.Errorf("NewONNXEmbedder(dims=%d, tokens=%d) should fail", tc.dims, tc.tokens)
		}
	}
}

func TestONNXEmbedder_closed(t *testing.T) {
	e := &ONNXEmbedder{dimensions: 4, maxTokens: 8, tokenizer: &SimpleTokenizer{}}
	if err := e.Close(); err != nil {
		t.Fatalf("Close on a closed embedder: %v", err)
	}
	if _, err := e.Embed(context.Background(), "text"); !errors.Is(err, errONNXClosed) {
		t.Errorf("Embed after Close: got %v, want errONNXClosed", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := e.Embed(ctx, "text"); !errors.Is(err, context.Canceled) {
		t.Errorf("Embed with canceled ctx: got %v", err)
	}
}
