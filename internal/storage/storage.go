// Package storage persists help entries and their embeddings.
package storage

import (
	"context"
	"errors"

	"github.com/hyperjump/helpsearch/internal/models"
	"github.com/hyperjump/helpsearch/internal/vector"
)

// ErrNotFound is returned when an entry does not exist.
var ErrNotFound = errors.New("entry not found")

// Storage defines help entry persistence operations.
type Storage interface {
	// Entry operations
	UpsertEntry(ctx context.Context, entry *models.HelpEntry) error
	GetEntry(ctx context.Context, id string) (*models.HelpEntry, error)
	GetEntryBySourcePath(ctx context.Context, path string) (*models.HelpEntry, error)
	DeleteEntry(ctx context.Context, id string) error
	DeleteBySourcePath(ctx context.Context, path string) (int64, error)
	ListEntries(ctx context.Context, offset, limit int) ([]*models.HelpEntry, error)
	ListSourcePaths(ctx context.Context) ([]string, error)

	// LoadVectors returns every stored embedding ordered by id ascending.
	LoadVectors(ctx context.Context) ([]vector.Entry, error)

	// Stats
	CountEntries(ctx context.Context) (int64, error)
	DiskUsageBytes() (int64, error)

	Close() error
}
