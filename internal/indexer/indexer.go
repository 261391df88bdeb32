// Package indexer turns help entries and documentation files into stored
// embeddings and rebuilds the search corpus from storage.
package indexer

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hyperjump/helpsearch/internal/embedding"
	"github.com/hyperjump/helpsearch/internal/fileid"
	"github.com/hyperjump/helpsearch/internal/models"
	"github.com/hyperjump/helpsearch/internal/observability"
	"github.com/hyperjump/helpsearch/internal/search"
	"github.com/hyperjump/helpsearch/internal/storage"
	"github.com/hyperjump/helpsearch/internal/vector"
	"github.com/hyperjump/helpsearch/pkg/utils"
)

var (
	// ErrEmptyEntry is returned when an entry has neither title nor body.
	ErrEmptyEntry = errors.New("entry has no title or body")
	// ErrEmptyEmbedding is returned when the embedder yields a zero-length vector.
	ErrEmptyEmbedding = errors.New("embedder returned an empty vector")
)

// Indexer embeds entries into storage and rebuilds the engine's corpus.
type Indexer struct {
	storage   storage.Storage
	embedder  embedding.Embedder
	engine    *search.Engine
	normalize bool
	logger    *zap.Logger

	rebuildMu sync.Mutex
}

// IndexerOption configures an Indexer.
type IndexerOption func(*Indexer)

// WithLogger sets a logger for indexing events.
func WithLogger(l *zap.Logger) IndexerOption {
	return func(idx *Indexer) { idx.logger = utils.OrNop(l) }
}

// WithEngine makes Rebuild install the new corpus into e.
func WithEngine(e *search.Engine) IndexerOption {
	return func(idx *Indexer) { idx.engine = e }
}

// WithCorpusNormalization makes Rebuild L2-normalize stored vectors when
// building the corpus.
func WithCorpusNormalization(on bool) IndexerOption {
	return func(idx *Indexer) { idx.normalize = on }
}

// NewIndexer creates an indexer over store using embedder for new entries.
func NewIndexer(store storage.Storage, embedder embedding.Embedder, opts ...IndexerOption) *Indexer {
	idx := &Indexer{
		storage:  store,
		embedder: embedder,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(idx)
	}
	return idx
}

// IndexEntry embeds input and stores it. A missing ID is replaced by a new UUID,
// which is written back to input.
func (idx *Indexer) IndexEntry(ctx context.Context, input *models.EntryInput) (*models.HelpEntry, error) {
	if input.ID == "" {
		input.ID = uuid.New().String()
	}
	entry := &models.HelpEntry{
		ID:    input.ID,
		Title: strings.TrimSpace(input.Title),
		Body:  strings.TrimSpace(input.Body),
	}
	if err := idx.embedAndStore(ctx, entry); err != nil {
		return nil, err
	}
	idx.logger.Debug("Entry indexed", zap.String("id", entry.ID))
	return entry, nil
}

func (idx *Indexer) embedAndStore(ctx context.Context, entry *models.HelpEntry) error {
	text := embeddingInput(entry.Title, entry.Body)
	if text == "" {
		return fmt.Errorf("%w: %s", ErrEmptyEntry, entry.ID)
	}
	ctx, span := observability.StartEmbedSpan(ctx, 1)
	emb, err := idx.embedder.Embed(ctx, text)
	observability.RecordError(span, err)
	span.End()
	if err != nil {
		return fmt.Errorf("entry %s: %w", entry.ID, &search.EmbeddingError{Err: err})
	}
	if err := idx.checkDimension(entry.ID, emb); err != nil {
		return err
	}
	utils.NormalizeL2(emb)
	entry.Embedding = emb
	if err := idx.storage.UpsertEntry(ctx, entry); err != nil {
		return fmt.Errorf("failed to store entry: %w", err)
	}
	return nil
}

// checkDimension rejects vectors that would make the next Rebuild fail: empty
// ones, and ones whose length differs from the embedder's declared dimension or
// from the corpus being served.
func (idx *Indexer) checkDimension(id string, emb []float32) error {
	if len(emb) == 0 {
		return fmt.Errorf("entry %s: %w", id, &search.EmbeddingError{Err: ErrEmptyEmbedding})
	}
	if d := idx.embedder.Dimensions(); d > 0 && len(emb) != d {
		return &vector.DimensionMismatchError{ID: id, Expected: d, Got: len(emb)}
	}
	if idx.engine != nil {
		if d := idx.engine.Corpus().Dimension(); d > 0 && len(emb) != d {
			return &vector.DimensionMismatchError{ID: id, Expected: d, Got: len(emb)}
		}
	}
	return nil
}

// DeleteEntry removes an entry from storage. The corpus keeps serving it until
// the next Rebuild.
func (idx *Indexer) DeleteEntry(ctx context.Context, id string) error {
	if err := idx.storage.DeleteEntry(ctx, id); err != nil {
		return fmt.Errorf("failed to delete entry: %w", err)
	}
	idx.logger.Debug("Entry deleted", zap.String("id", id))
	return nil
}

// Supported reports whether path has a help file extension IndexFile reads.
func Supported(path string) bool {
	return supportedExts[strings.ToLower(filepath.Ext(path))]
}

// IndexFile indexes the help file at path. Entry IDs come from front matter or
// from the path relative to root. Files whose mtime matches the stored entry
// are skipped; the returned bool reports whether the entry was (re)written.
func (idx *Indexer) IndexFile(ctx context.Context, root, path string) (bool, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return false, fmt.Errorf("absolute path: %w", err)
	}
	if !Supported(absPath) {
		return false, fmt.Errorf("unsupported file type: %s", filepath.Ext(absPath))
	}
	info, err := os.Stat(absPath)
	if err != nil {
		return false, fmt.Errorf("stat file: %w", err)
	}
	if !info.Mode().IsRegular() {
		return false, fmt.Errorf("not a regular file: %s", absPath)
	}
	mtime := info.ModTime().UnixNano()

	prev, err := idx.storage.GetEntryBySourcePath(ctx, absPath)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return false, err
	}
	if prev != nil && prev.SourceMtime == mtime {
		idx.logger.Debug("Skipping unchanged file", zap.String("path", absPath))
		return false, nil
	}

	content, err := os.ReadFile(absPath)
	if err != nil {
		return false, fmt.Errorf("read file: %w", err)
	}
	doc, err := parseHelpFile(absPath, content)
	if err != nil {
		return false, err
	}
	if doc.ID == "" {
		doc.ID = fileid.EntryID(root, absPath)
	}
	if prev != nil && prev.ID != doc.ID {
		if _, err := idx.storage.DeleteBySourcePath(ctx, absPath); err != nil {
			return false, fmt.Errorf("failed to remove previous entry: %w", err)
		}
	}

	entry := &models.HelpEntry{
		ID:          doc.ID,
		Title:       doc.Title,
		Body:        doc.Body,
		SourcePath:  absPath,
		SourceMtime: mtime,
	}
	if err := idx.embedAndStore(ctx, entry); err != nil {
		return false, err
	}
	idx.logger.Debug("File indexed", zap.String("path", absPath), zap.String("id", entry.ID))
	return true, nil
}

// RemoveFile deletes the entries indexed from path.
func (idx *Indexer) RemoveFile(ctx context.Context, path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("absolute path: %w", err)
	}
	n, err := idx.storage.DeleteBySourcePath(ctx, absPath)
	if err != nil {
		return fmt.Errorf("failed to remove entries for %s: %w", absPath, err)
	}
	if n > 0 {
		idx.logger.Debug("File removed", zap.String("path", absPath), zap.Int64("entries", n))
	}
	return nil
}

// IndexStats summarizes an IndexDirectory run.
type IndexStats struct {
	Indexed int `json:"indexed"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
	Removed int `json:"removed"`
}

// Matches reports whether relPath (slash-separated, relative to the docs root)
// matches any of patterns.
func Matches(patterns []string, relPath string) bool {
	for _, pattern := range patterns {
		if ok, _ := doublestar.Match(pattern, relPath); ok {
			return true
		}
	}
	return false
}

// IndexDirectory indexes every supported file under root matching one of
// patterns, then removes stored entries for files under root that are gone or
// no longer match. Per-file failures are logged and counted, not returned.
func (idx *Indexer) IndexDirectory(ctx context.Context, root string, patterns []string, progress ProgressReporter) (IndexStats, error) {
	var stats IndexStats
	if progress == nil {
		progress = noProgress{}
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return stats, fmt.Errorf("absolute path: %w", err)
	}
	info, err := os.Stat(absRoot)
	if err != nil {
		return stats, fmt.Errorf("stat directory: %w", err)
	}
	if !info.IsDir() {
		return stats, fmt.Errorf("not a directory: %s", absRoot)
	}

	var files []string
	err = filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() || !Supported(path) {
			return nil
		}
		rel, relErr := filepath.Rel(absRoot, path)
		if relErr != nil {
			return nil
		}
		if len(patterns) > 0 && !Matches(patterns, filepath.ToSlash(rel)) {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return stats, fmt.Errorf("walk %s: %w", absRoot, err)
	}

	progress.Start(len(files))
	seen := make(map[string]bool, len(files))
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			progress.Finish()
			return stats, err
		}
		seen[path] = true
		changed, err := idx.IndexFile(ctx, absRoot, path)
		switch {
		case err != nil:
			stats.Failed++
			idx.logger.Warn("Failed to index file", zap.String("path", path), zap.Error(err))
		case changed:
			stats.Indexed++
		default:
			stats.Skipped++
		}
		progress.Increment()
	}
	progress.Finish()

	stored, err := idx.storage.ListSourcePaths(ctx)
	if err != nil {
		return stats, fmt.Errorf("list source paths: %w", err)
	}
	prefix := absRoot + string(filepath.Separator)
	for _, p := range stored {
		if seen[p] || !strings.HasPrefix(p, prefix) {
			continue
		}
		n, err := idx.storage.DeleteBySourcePath(ctx, p)
		if err != nil {
			return stats, fmt.Errorf("failed to remove entries for %s: %w", p, err)
		}
		stats.Removed += int(n)
	}

	idx.logger.Info("Directory indexed",
		zap.String("root", absRoot),
		zap.Int("indexed", stats.Indexed),
		zap.Int("skipped", stats.Skipped),
		zap.Int("failed", stats.Failed),
		zap.Int("removed", stats.Removed))
	return stats, nil
}

// Rebuild loads every stored vector into a new corpus and, when an engine is
// attached, swaps it in. Rebuilds are serialized.
func (idx *Indexer) Rebuild(ctx context.Context) (*vector.Corpus, error) {
	idx.rebuildMu.Lock()
	defer idx.rebuildMu.Unlock()

	ctx, span := observability.StartRebuildSpan(ctx)
	defer span.End()

	entries, err := idx.storage.LoadVectors(ctx)
	if err != nil {
		observability.RecordError(span, err)
		return nil, fmt.Errorf("failed to load vectors: %w", err)
	}
	var opts []vector.CorpusOption
	if idx.normalize {
		opts = append(opts, vector.WithNormalization())
	}
	corpus, err := vector.NewCorpus(entries, opts...)
	if err != nil {
		observability.RecordError(span, err)
		return nil, fmt.Errorf("failed to build corpus: %w", err)
	}
	observability.RecordRebuildResult(span, corpus.Count(), corpus.Dimension())

	if idx.engine != nil {
		idx.engine.Swap(corpus)
	}
	idx.logger.Info("Corpus rebuilt",
		zap.Int("entries", corpus.Count()),
		zap.Int("dimension", corpus.Dimension()))
	return corpus, nil
}
