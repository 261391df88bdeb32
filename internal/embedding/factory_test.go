package embedding

import (
	"testing"

	"github.com/hyperjump/helpsearch/internal/config"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name      string
		cfg       config.EmbeddingConfig
		wantErr   bool
		wantCache bool
	}{
		{"mock", config.EmbeddingConfig{Provider: config.ProviderMock, Dimensions: 8}, false, false},
		{"mock cached", config.EmbeddingConfig{Provider: config.ProviderMock, Dimensions: 8, CacheSize: 10}, false, true},
		{"http", config.EmbeddingConfig{Provider: config.ProviderHTTP, Endpoint: "http://localhost:1/v1/embeddings", Dimensions: 8}, false, false},
		{"http without endpoint", config.EmbeddingConfig{Provider: config.ProviderHTTP}, true, false},
		{"unknown", config.EmbeddingConfig{Provider: "magic"}, true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, err := New(&tt.cfg, nil)
			if (err != nil) != tt.wantErr {
				t.Fatalf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			defer e.Close()
			if e.Dimensions() != tt.cfg.Dimensions {
				t.Errorf("Dimensions() = %d, want %d", e.Dimensions(), tt.cfg.Dimensions)
			}
			if _, ok := e.(*CachedEmbedder); ok != tt.wantCache {
				t.Errorf("cached = %v, want %v", ok, tt.wantCache)
			}
		})
	}
}
