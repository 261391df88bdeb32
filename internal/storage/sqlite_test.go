package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/hyperjump/helpsearch/internal/models"
)

func newTestStorage(t *testing.T) *SQLiteStorage {
	t.Helper()
	store, err := NewSQLiteStorage(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteStorage_CRUD(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	entry := &models.HelpEntry{
		ID:        "reset-password",
		Title:     "Reset your password",
		Body:      "Open settings and choose Reset.",
		Embedding: []float32{0.6, 0.8, 0},
	}
	if err := store.UpsertEntry(ctx, entry); err != nil {
		t.Fatal(err)
	}
	if entry.CreatedAt.IsZero() || entry.UpdatedAt.IsZero() {
		t.Error("timestamps should be set")
	}

	got, err := store.GetEntry(ctx, "reset-password")
	if err != nil {
		t.Fatal(err)
	}
	if got.Title != entry.Title || got.Body != entry.Body {
		t.Errorf("got %+v", got)
	}
	if len(got.Embedding) != 3 || got.Embedding[0] != 0.6 || got.Embedding[1] != 0.8 {
		t.Errorf("embedding round trip: got %v", got.Embedding)
	}

	entry.Title = "Updated"
	if err := store.UpsertEntry(ctx, entry); err != nil {
		t.Fatal(err)
	}
	got, _ = store.GetEntry(ctx, "reset-password")
	if got.Title != "Updated" {
		t.Errorf("expected Updated, got %s", got.Title)
	}

	count, err := store.CountEntries(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("expected 1 entry after upsert, got %d", count)
	}

	if err := store.DeleteEntry(ctx, "reset-password"); err != nil {
		t.Fatal(err)
	}
	if _, err := store.GetEntry(ctx, "reset-password"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
	if err := store.DeleteEntry(ctx, "reset-password"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound deleting missing entry, got %v", err)
	}
}

func TestSQLiteStorage_ListEntries(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()
	for _, id := range []string{"c", "a", "b"} {
		if err := store.UpsertEntry(ctx, &models.HelpEntry{ID: id, Body: "body " + id, Embedding: []float32{1}}); err != nil {
			t.Fatal(err)
		}
	}

	list, err := store.ListEntries(ctx, 0, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 3 || list[0].ID != "a" || list[2].ID != "c" {
		t.Fatalf("unexpected list: %+v", list)
	}
	if list[0].Embedding != nil {
		t.Error("ListEntries should not load embeddings")
	}

	page, err := store.ListEntries(ctx, 1, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(page) != 1 || page[0].ID != "b" {
		t.Errorf("unexpected page: %+v", page)
	}
}

func TestSQLiteStorage_LoadVectors(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	entries := []*models.HelpEntry{
		{ID: "b", Body: "b", Embedding: []float32{0, 1}},
		{ID: "a", Body: "a", Embedding: []float32{1, 0}},
		{ID: "pending", Body: "no embedding yet"},
	}
	for _, e := range entries {
		if err := store.UpsertEntry(ctx, e); err != nil {
			t.Fatal(err)
		}
	}

	vecs, err := store.LoadVectors(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(vecs) != 2 {
		t.Fatalf("expected 2 vectors, got %d", len(vecs))
	}
	if vecs[0].ID != "a" || vecs[1].ID != "b" {
		t.Errorf("expected ascending id order, got %s, %s", vecs[0].ID, vecs[1].ID)
	}
	if vecs[0].Vector[0] != 1 || vecs[1].Vector[1] != 1 {
		t.Errorf("unexpected vectors: %+v", vecs)
	}
}

func TestSQLiteStorage_SourcePath(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	if err := store.UpsertEntry(ctx, &models.HelpEntry{
		ID: "guide", Body: "x", SourcePath: "/docs/guide.md", SourceMtime: 42, Embedding: []float32{1},
	}); err != nil {
		t.Fatal(err)
	}
	if err := store.UpsertEntry(ctx, &models.HelpEntry{ID: "manual", Body: "y", Embedding: []float32{1}}); err != nil {
		t.Fatal(err)
	}

	got, err := store.GetEntryBySourcePath(ctx, "/docs/guide.md")
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != "guide" || got.SourceMtime != 42 {
		t.Errorf("got %+v", got)
	}
	if _, err := store.GetEntryBySourcePath(ctx, "/docs/missing.md"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	paths, err := store.ListSourcePaths(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(paths) != 1 || paths[0] != "/docs/guide.md" {
		t.Errorf("unexpected source paths: %v", paths)
	}

	n, err := store.DeleteBySourcePath(ctx, "/docs/guide.md")
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("deleted %d, want 1", n)
	}
	if count, _ := store.CountEntries(ctx); count != 1 {
		t.Errorf("expected manual entry to remain, count=%d", count)
	}
}

func TestSQLiteStorage_InMemory(t *testing.T) {
	store, err := NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	ctx := context.Background()

	if err := store.UpsertEntry(ctx, &models.HelpEntry{ID: "a", Body: "a", Embedding: []float32{1}}); err != nil {
		t.Fatal(err)
	}
	if count, err := store.CountEntries(ctx); err != nil || count != 1 {
		t.Errorf("count=%d err=%v", count, err)
	}
	if n, err := store.DiskUsageBytes(); err != nil || n != 0 {
		t.Errorf("in-memory disk usage = %d, %v", n, err)
	}
}
