// Package cli provides output formatting and progress reporting for the helpsearch CLI.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/hyperjump/helpsearch/internal/models"
	"github.com/hyperjump/helpsearch/pkg/utils"
)

// OutputFormat selects how results are written.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputCompact prints one result per line.
	OutputCompact OutputFormat = "compact"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

const snippetWidth = 200

// ParseOutputFormat validates a --output flag value.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case OutputText, OutputCompact, OutputJSON:
		return f, nil
	case "":
		return OutputText, nil
	default:
		return "", fmt.Errorf("unknown output format %q; use text, compact, or json", s)
	}
}

// WriteFindResults writes a find response to w in the given format.
// Unknown formats are written as text.
func WriteFindResults(w io.Writer, response *models.FindResponse, format OutputFormat) error {
	switch format {
	case OutputJSON:
		return writeJSON(w, response)
	case OutputCompact:
		writeFindResultsCompact(w, response)
		return nil
	default:
		writeFindResultsText(w, response)
		return nil
	}
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeFindResultsText(w io.Writer, response *models.FindResponse) {
	fmt.Fprintf(w, "\nFound %d results for %q in %dms\n\n", response.Total, response.Query, response.QueryTime)
	for _, hit := range response.Results {
		fmt.Fprintf(w, "─────────────────────────────────────────────────────────\n")
		fmt.Fprintf(w, "Rank: %d | Score: %.4f\n", hit.Rank, hit.Score)
		fmt.Fprintf(w, "ID: %s\n", hit.ID)
		if hit.Title != "" {
			fmt.Fprintf(w, "Title: %s\n", hit.Title)
		}
		if hit.Snippet != "" {
			fmt.Fprintf(w, "\n%s\n", utils.Truncate(hit.Snippet, snippetWidth))
		}
		fmt.Fprintln(w)
	}
}

func writeFindResultsCompact(w io.Writer, response *models.FindResponse) {
	for _, hit := range response.Results {
		if hit.Title != "" {
			fmt.Fprintf(w, "%d\t%.4f\t%s\t%s\n", hit.Rank, hit.Score, hit.ID, hit.Title)
		} else {
			fmt.Fprintf(w, "%d\t%.4f\t%s\n", hit.Rank, hit.Score, hit.ID)
		}
	}
}

// WriteStatus writes status to w as text or JSON.
func WriteStatus(w io.Writer, status *models.Status, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, status)
	}
	fmt.Fprintf(w, "entries:            %d   # stored help entries\n", status.Entries)
	fmt.Fprintf(w, "corpus_entries:     %d   # entries served by the search engine\n", status.CorpusEntries)
	fmt.Fprintf(w, "corpus_dimension:   %d\n", status.CorpusDimension)
	if status.DiskUsageBytes != nil {
		fmt.Fprintf(w, "disk_usage_bytes:   %d\n", *status.DiskUsageBytes)
	}
	if c := status.Config; c != nil {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "# configuration")
		fmt.Fprintf(w, "embedding_provider: %s\n", c.EmbeddingProvider)
		if c.EmbeddingModel != "" {
			fmt.Fprintf(w, "embedding_model:    %s\n", c.EmbeddingModel)
		}
		if c.EmbeddingDimensions > 0 {
			fmt.Fprintf(w, "embedding_dims:     %d\n", c.EmbeddingDimensions)
		}
		fmt.Fprintf(w, "default_k:          %d\n", c.DefaultK)
		fmt.Fprintf(w, "max_k:              %d\n", c.MaxK)
		fmt.Fprintf(w, "normalize_corpus:   %t\n", c.NormalizeCorpus)
		if c.DatabasePath != "" {
			fmt.Fprintf(w, "database_path:      %s\n", c.DatabasePath)
		}
		if c.DocsDirectory != "" {
			fmt.Fprintf(w, "docs_directory:     %s\n", c.DocsDirectory)
		}
		fmt.Fprintf(w, "docs_watch:         %t\n", c.DocsWatch)
	}
	return nil
}
