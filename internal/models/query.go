package models

import "fmt"

// FindQuery is a similarity search request.
type FindQuery struct {
	Query string `json:"query"`
	K     int    `json:"k,omitempty"`
}

// Validate checks the query and fills defaults. K of 0 becomes defaultK; K above
// maxK is capped. Negative K is kept: it asks for nothing and yields no results.
func (q *FindQuery) Validate(defaultK, maxK int) error {
	if q.Query == "" {
		return fmt.Errorf("query cannot be empty")
	}
	if q.K == 0 {
		q.K = defaultK
	}
	if maxK > 0 && q.K > maxK {
		q.K = maxK
	}
	return nil
}

// FindHit is a single result of a find request.
type FindHit struct {
	ID      string  `json:"id"`
	Title   string  `json:"title,omitempty"`
	Snippet string  `json:"snippet,omitempty"`
	Score   float64 `json:"score"`
	Rank    int     `json:"rank"`
}

// FindResponse is the response for a find request. Results are ordered by
// descending score.
type FindResponse struct {
	Query     string     `json:"query"`
	Results   []*FindHit `json:"results"`
	Total     int        `json:"total"`
	QueryTime int64      `json:"query_time_ms"`
}
