package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/hyperjump/helpsearch/internal/config"
	"github.com/hyperjump/helpsearch/internal/embedding"
	"github.com/hyperjump/helpsearch/internal/indexer"
	"github.com/hyperjump/helpsearch/internal/observability"
	"github.com/hyperjump/helpsearch/internal/search"
	"github.com/hyperjump/helpsearch/internal/storage"
)

// Components holds the wired services shared by the subcommands.
type Components struct {
	Storage  storage.Storage
	Embedder embedding.Embedder
	Engine   *search.Engine
	Indexer  *indexer.Indexer
	Tracing  *observability.TracerProvider
}

// Close releases storage and the embedder and flushes traces.
func (c *Components) Close() {
	if c.Storage != nil {
		_ = c.Storage.Close()
	}
	if c.Embedder != nil {
		_ = c.Embedder.Close()
	}
	if c.Tracing != nil {
		_ = c.Tracing.Shutdown(context.Background())
	}
}

// initializeComponents opens storage, builds the embedder and wires the
// engine and indexer. The engine starts with an empty corpus until the
// caller runs Indexer.Rebuild.
func initializeComponents(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Components, error) {
	tp, err := observability.InitTracing(ctx, &cfg.Tracing, version)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}
	c := &Components{Tracing: tp}

	store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	c.Storage = store

	embedder, err := embedding.New(&cfg.Embedding, logger)
	if err != nil {
		c.Close()
		return nil, err
	}
	c.Embedder = embedder

	c.Engine = search.NewEngine(embedder, nil,
		search.WithLogger(logger),
		search.WithEmbedTimeout(cfg.Search.EmbedTimeout.Std()))
	c.Indexer = indexer.NewIndexer(store, embedder,
		indexer.WithLogger(logger),
		indexer.WithEngine(c.Engine),
		indexer.WithCorpusNormalization(cfg.Search.NormalizeCorpus))
	return c, nil
}
