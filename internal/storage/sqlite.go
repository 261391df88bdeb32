package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hyperjump/helpsearch/internal/models"
	"github.com/hyperjump/helpsearch/internal/vector"
)

// SQLiteStorage implements Storage using SQLite.
type SQLiteStorage struct {
	db   *sql.DB
	path string
}

// NewSQLiteStorage opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist. ":memory:" opens a private
// in-memory database.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	inMemory := dbPath == ":memory:"
	if !inMemory {
		if dir := filepath.Dir(dbPath); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if inMemory {
		// Every connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	} else if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStorage{db: db, path: dbPath}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS help_entries (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL DEFAULT '',
		body TEXT NOT NULL,
		source_path TEXT NOT NULL DEFAULT '',
		source_mtime INTEGER NOT NULL DEFAULT 0,
		embedding BLOB,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_help_entries_source_path ON help_entries(source_path);
	CREATE INDEX IF NOT EXISTS idx_help_entries_created_at ON help_entries(created_at);
	`
	_, err := db.Exec(schema)
	return err
}

const entryColumns = `id, title, body, source_path, source_mtime, embedding, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (*models.HelpEntry, error) {
	var (
		e    models.HelpEntry
		blob []byte
	)
	if err := row.Scan(&e.ID, &e.Title, &e.Body, &e.SourcePath, &e.SourceMtime, &blob, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return nil, err
	}
	emb, err := decodeEmbedding(blob)
	if err != nil {
		return nil, fmt.Errorf("entry %s: %w", e.ID, err)
	}
	e.Embedding = emb
	return &e, nil
}

// UpsertEntry inserts entry or replaces the stored entry with the same id.
// The original created_at is kept on replace.
func (s *SQLiteStorage) UpsertEntry(ctx context.Context, entry *models.HelpEntry) error {
	now := time.Now()
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = now
	}
	entry.UpdatedAt = now

	var blob any
	if entry.Embedding != nil {
		blob = encodeEmbedding(entry.Embedding)
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO help_entries (id, title, body, source_path, source_mtime, embedding, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   title = excluded.title,
		   body = excluded.body,
		   source_path = excluded.source_path,
		   source_mtime = excluded.source_mtime,
		   embedding = excluded.embedding,
		   updated_at = excluded.updated_at`,
		entry.ID, entry.Title, entry.Body, entry.SourcePath, entry.SourceMtime,
		blob, entry.CreatedAt, entry.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert entry %s: %w", entry.ID, err)
	}
	return nil
}

// GetEntry returns an entry by ID.
func (s *SQLiteStorage) GetEntry(ctx context.Context, id string) (*models.HelpEntry, error) {
	e, err := scanEntry(s.db.QueryRowContext(ctx,
		`SELECT `+entryColumns+` FROM help_entries WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return e, err
}

// GetEntryBySourcePath returns the entry indexed from path.
func (s *SQLiteStorage) GetEntryBySourcePath(ctx context.Context, path string) (*models.HelpEntry, error) {
	e, err := scanEntry(s.db.QueryRowContext(ctx,
		`SELECT `+entryColumns+` FROM help_entries WHERE source_path = ? ORDER BY id LIMIT 1`, path))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: source %s", ErrNotFound, path)
	}
	return e, err
}

// DeleteEntry removes an entry by ID.
func (s *SQLiteStorage) DeleteEntry(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM help_entries WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

// DeleteBySourcePath removes the entries indexed from path and returns how many were removed.
func (s *SQLiteStorage) DeleteBySourcePath(ctx context.Context, path string) (int64, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM help_entries WHERE source_path = ?`, path)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// ListEntries returns entries ordered by id with offset and limit. Embeddings are not loaded.
func (s *SQLiteStorage) ListEntries(ctx context.Context, offset, limit int) ([]*models.HelpEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, body, source_path, source_mtime, NULL, created_at, updated_at
		 FROM help_entries ORDER BY id LIMIT ? OFFSET ?`,
		limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*models.HelpEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// ListSourcePaths returns the distinct non-empty source paths.
func (s *SQLiteStorage) ListSourcePaths(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT source_path FROM help_entries WHERE source_path != '' ORDER BY source_path`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var paths []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		paths = append(paths, p)
	}
	return paths, rows.Err()
}

// LoadVectors returns the id and embedding of every entry that has one, ordered by id.
func (s *SQLiteStorage) LoadVectors(ctx context.Context) ([]vector.Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, embedding FROM help_entries WHERE embedding IS NOT NULL ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []vector.Entry
	for rows.Next() {
		var (
			id   string
			blob []byte
		)
		if err := rows.Scan(&id, &blob); err != nil {
			return nil, err
		}
		v, err := decodeEmbedding(blob)
		if err != nil {
			return nil, fmt.Errorf("entry %s: %w", id, err)
		}
		entries = append(entries, vector.Entry{ID: id, Vector: v})
	}
	return entries, rows.Err()
}

// CountEntries returns the total number of entries.
func (s *SQLiteStorage) CountEntries(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM help_entries`).Scan(&count)
	return count, err
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
