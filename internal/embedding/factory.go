package embedding

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/hyperjump/helpsearch/internal/config"
)

// New builds the embedder selected by cfg.Provider. When cfg.CacheSize is
// positive the result is wrapped in a CachedEmbedder.
func New(cfg *config.EmbeddingConfig, logger *zap.Logger) (Embedder, error) {
	var (
		e   Embedder
		err error
	)
	switch cfg.Provider {
	case config.ProviderMock, "":
		e = NewMockEmbedder(cfg.Dimensions)
	case config.ProviderHTTP:
		e, err = NewHTTPEmbedder(HTTPOptions{
			Endpoint:          cfg.Endpoint,
			APIKey:            cfg.APIKey,
			Model:             cfg.Model,
			Dimensions:        cfg.Dimensions,
			Timeout:           cfg.Timeout.Std(),
			MaxRetries:        cfg.MaxRetries,
			RequestsPerSecond: cfg.RequestsPerSecond,
		})
	case config.ProviderONNX:
		e, err = NewONNXEmbedder(cfg.ModelPath, cfg.Dimensions, cfg.MaxTokens)
	default:
		return nil, fmt.Errorf("unknown embedding provider: %s", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create %s embedder: %w", cfg.Provider, err)
	}

	if logger != nil {
		logger.Info("Embedder ready",
			zap.String("provider", cfg.Provider),
			zap.Int("dimensions", e.Dimensions()),
			zap.Int("cache_size", cfg.CacheSize))
	}
	if cfg.CacheSize > 0 {
		return NewCachedEmbedder(e, cfg.CacheSize), nil
	}
	return e, nil
}
