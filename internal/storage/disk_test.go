package storage

import (
	"context"
	"testing"

	"github.com/hyperjump/helpsearch/internal/models"
)

func TestDiskUsageBytes(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	before, err := store.DiskUsageBytes()
	if err != nil {
		t.Fatal(err)
	}
	if before <= 0 {
		t.Errorf("expected a non-empty database file, got %d bytes", before)
	}

	body := make([]byte, 64*1024)
	for i := range body {
		body[i] = 'x'
	}
	if err := store.UpsertEntry(ctx, &models.HelpEntry{ID: "big", Body: string(body)}); err != nil {
		t.Fatal(err)
	}
	after, err := store.DiskUsageBytes()
	if err != nil {
		t.Fatal(err)
	}
	if after <= before {
		t.Errorf("disk usage should grow: before=%d after=%d", before, after)
	}
}
