// Package search answers similarity queries over an in-memory embedding corpus.
package search

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/helpsearch/internal/embedding"
	"github.com/hyperjump/helpsearch/internal/observability"
	"github.com/hyperjump/helpsearch/internal/vector"
	"github.com/hyperjump/helpsearch/pkg/utils"
)

// EmbeddingError reports that the query text could not be embedded.
type EmbeddingError struct {
	Err error
}

func (e *EmbeddingError) Error() string {
	return fmt.Sprintf("embedding failed: %v", e.Err)
}

func (e *EmbeddingError) Unwrap() error {
	return e.Err
}

// Engine embeds query text and returns the closest corpus entries.
// It is safe for concurrent use; Swap replaces the corpus for later queries
// while in-flight queries finish against the snapshot they loaded.
type Engine struct {
	embedder     embedding.Embedder
	corpus       atomic.Pointer[vector.Corpus]
	embedTimeout time.Duration
	logger       *zap.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		e.logger = utils.OrNop(l)
	}
}

// WithEmbedTimeout bounds each query embedding call. Zero means no bound
// beyond the caller's context.
func WithEmbedTimeout(d time.Duration) Option {
	return func(e *Engine) {
		e.embedTimeout = d
	}
}

// NewEngine creates an engine over corpus. A nil corpus is treated as empty.
func NewEngine(embedder embedding.Embedder, corpus *vector.Corpus, opts ...Option) *Engine {
	e := &Engine{
		embedder: embedder,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.Swap(corpus)
	return e
}

// Corpus returns the current corpus snapshot.
func (e *Engine) Corpus() *vector.Corpus {
	return e.corpus.Load()
}

// Swap installs c for subsequent queries and returns the previous corpus.
func (e *Engine) Swap(c *vector.Corpus) *vector.Corpus {
	if c == nil {
		c = &vector.Corpus{}
	}
	old := e.corpus.Swap(c)
	e.logger.Debug("Corpus swapped",
		zap.Int("entries", c.Count()),
		zap.Int("dimension", c.Dimension()))
	return old
}

// Find returns the ids of the k entries most similar to queryText, best first.
func (e *Engine) Find(ctx context.Context, queryText string, k int) ([]string, error) {
	results, err := e.FindResults(ctx, queryText, k)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(results))
	for i, r := range results {
		ids[i] = r.ID
	}
	return ids, nil
}

// FindResults is Find with scores.
func (e *Engine) FindResults(ctx context.Context, queryText string, k int) ([]vector.Result, error) {
	if k <= 0 {
		return []vector.Result{}, nil
	}
	c := e.corpus.Load()

	ctx, span := observability.StartFindSpan(ctx, k, c.Count())
	defer span.End()

	start := time.Now()
	query, err := e.embed(ctx, queryText)
	if err != nil {
		observability.RecordError(span, err)
		e.logger.Warn("Query embedding failed", zap.Error(err))
		return nil, err
	}

	results, err := c.Nearest(query, k)
	if err != nil {
		observability.RecordError(span, err)
		e.logger.Error("Query dimension does not match corpus",
			zap.Int("query_dimension", len(query)),
			zap.Int("corpus_dimension", c.Dimension()),
			zap.Error(err))
		return nil, err
	}
	observability.RecordFindResult(span, len(results))
	e.logger.Debug("Find",
		zap.Int("k", k),
		zap.Int("results", len(results)),
		zap.Duration("elapsed", time.Since(start)))
	return results, nil
}

// FindNearest scans the current corpus for the k entries closest to query.
func (e *Engine) FindNearest(query []float32, k int) ([]vector.Result, error) {
	return e.corpus.Load().Nearest(query, k)
}

func (e *Engine) embed(ctx context.Context, text string) ([]float32, error) {
	if e.embedTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.embedTimeout)
		defer cancel()
	}
	query, err := e.embedder.Embed(ctx, text)
	if err != nil {
		return nil, &EmbeddingError{Err: err}
	}
	return query, nil
}
