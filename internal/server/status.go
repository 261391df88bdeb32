package server

import (
	"context"
	"fmt"

	"github.com/hyperjump/helpsearch/internal/config"
	"github.com/hyperjump/helpsearch/internal/models"
	"github.com/hyperjump/helpsearch/internal/search"
	"github.com/hyperjump/helpsearch/internal/storage"
)

// BuildStatus collects entry counts, the served corpus shape and a config
// summary. Disk usage is omitted when it cannot be read.
func BuildStatus(ctx context.Context, engine *search.Engine, store storage.Storage, cfg *config.Config) (*models.Status, error) {
	count, err := store.CountEntries(ctx)
	if err != nil {
		return nil, fmt.Errorf("count entries: %w", err)
	}
	corpus := engine.Corpus()
	status := &models.Status{
		Entries:         count,
		CorpusEntries:   corpus.Count(),
		CorpusDimension: corpus.Dimension(),
		Config: &models.StatusConfig{
			EmbeddingProvider:   cfg.Embedding.Provider,
			EmbeddingModel:      cfg.Embedding.Model,
			EmbeddingDimensions: cfg.Embedding.Dimensions,
			DefaultK:            cfg.Search.DefaultK,
			MaxK:                cfg.Search.MaxK,
			NormalizeCorpus:     cfg.Search.NormalizeCorpus,
			DatabasePath:        cfg.Storage.DatabasePath,
			DocsDirectory:       cfg.Docs.Directory,
			DocsWatch:           cfg.Docs.WatchOrDefault(),
		},
	}
	if diskBytes, err := store.DiskUsageBytes(); err == nil {
		status.DiskUsageBytes = &diskBytes
	}
	return status, nil
}
