// Package models defines core data structures for help entries, queries, and results.
package models

import "time"

// HelpEntry is a stored help-documentation entry with its precomputed embedding.
type HelpEntry struct {
	ID          string    `json:"id" db:"id"`
	Title       string    `json:"title" db:"title"`
	Body        string    `json:"body" db:"body"`
	SourcePath  string    `json:"source_path,omitempty" db:"source_path"`
	SourceMtime int64     `json:"-" db:"source_mtime"`
	Embedding   []float32 `json:"-" db:"embedding"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// EmbeddingText is the text the entry's embedding is computed from.
func (e *HelpEntry) EmbeddingText() string {
	if e.Title == "" {
		return e.Body
	}
	if e.Body == "" {
		return e.Title
	}
	return e.Title + "\n\n" + e.Body
}

// EntryInput is the input for creating or replacing a help entry.
type EntryInput struct {
	ID    string `json:"id,omitempty"`
	Title string `json:"title,omitempty"`
	Body  string `json:"body"`
}
