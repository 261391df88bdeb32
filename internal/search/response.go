package search

import (
	"context"
	"time"

	"github.com/hyperjump/helpsearch/internal/models"
	"github.com/hyperjump/helpsearch/internal/vector"
	"github.com/hyperjump/helpsearch/pkg/utils"
)

const snippetLength = 200

// EntryLookup resolves entry ids to stored entries.
type EntryLookup interface {
	GetEntry(ctx context.Context, id string) (*models.HelpEntry, error)
}

// BuildResponse turns ranked results into a FindResponse, attaching titles and
// snippets from lookup. Entries that can no longer be found keep only id and score.
func BuildResponse(ctx context.Context, query string, results []vector.Result, lookup EntryLookup, elapsed time.Duration) *models.FindResponse {
	resp := &models.FindResponse{
		Query:     query,
		Results:   make([]*models.FindHit, 0, len(results)),
		Total:     len(results),
		QueryTime: elapsed.Milliseconds(),
	}
	for i, r := range results {
		hit := &models.FindHit{ID: r.ID, Score: r.Score, Rank: i + 1}
		if lookup != nil {
			if entry, err := lookup.GetEntry(ctx, r.ID); err == nil {
				hit.Title = entry.Title
				hit.Snippet = utils.Truncate(entry.Body, snippetLength)
			}
		}
		resp.Results = append(resp.Results, hit)
	}
	return resp
}
