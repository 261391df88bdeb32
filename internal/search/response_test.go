package search

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperjump/helpsearch/internal/models"
	"github.com/hyperjump/helpsearch/internal/vector"
)

type mapLookup map[string]*models.HelpEntry

func (m mapLookup) GetEntry(_ context.Context, id string) (*models.HelpEntry, error) {
	if e, ok := m[id]; ok {
		return e, nil
	}
	return nil, fmt.Errorf("not found: %s", id)
}

func TestBuildResponse(t *testing.T) {
	lookup := mapLookup{
		"a": {ID: "a", Title: "Reset password", Body: "Open settings."},
	}
	results := []vector.Result{{ID: "a", Score: 0.9}, {ID: "gone", Score: 0.5}}

	resp := BuildResponse(context.Background(), "reset", results, lookup, 12*time.Millisecond)
	require.Len(t, resp.Results, 2)
	assert.Equal(t, "reset", resp.Query)
	assert.Equal(t, 2, resp.Total)
	assert.Equal(t, int64(12), resp.QueryTime)

	assert.Equal(t, &models.FindHit{ID: "a", Title: "Reset password", Snippet: "Open settings.", Score: 0.9, Rank: 1}, resp.Results[0])
	assert.Equal(t, &models.FindHit{ID: "gone", Score: 0.5, Rank: 2}, resp.Results[1])
}

func TestBuildResponse_Empty(t *testing.T) {
	resp := BuildResponse(context.Background(), "q", nil, nil, 0)
	assert.NotNil(t, resp.Results)
	assert.Empty(t, resp.Results)
	assert.Equal(t, 0, resp.Total)
}
