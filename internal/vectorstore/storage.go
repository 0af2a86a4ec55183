// Package vectorstore queries and fills the nearest-neighbor product index.
package vectorstore

import (
	"context"
	"errors"
	"fmt"
)

// Include selects which payload fields a query returns.
type Include struct {
	Documents bool
	Metadatas bool
	Distances bool
}

// IncludeAll returns every payload field.
var IncludeAll = Include{Documents: true, Metadatas: true, Distances: true}

// Document is one indexed entry.
type Document struct {
	ID       string
	Text     string
	Metadata map[string]any
}

// Hit is one query result. Fields not requested through Include are left
// empty; Distance is nil when distances were not requested.
type Hit struct {
	ID       string
	Document string
	Metadata map[string]any
	Distance *float64
}

// Index is a nearest-neighbor index over product documents. Query returns
// at most limit hits ordered by ascending distance.
type Index interface {
	Query(ctx context.Context, text string, limit int, include Include) ([]Hit, error)
	Upsert(ctx context.Context, docs []Document) error
}

// ErrInvalidLimit is returned for a non-positive result bound.
var ErrInvalidLimit = errors.New("limit must be positive")

// QueryError reports a failed search for one phrase.
type QueryError struct {
	Phrase string
	Err    error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("vector query %q failed: %v", e.Phrase, e.Err)
}

func (e *QueryError) Unwrap() error { return e.Err }

// Client runs single-phrase searches against an Index.
type Client struct {
	index Index
}

// NewClient creates a new Client.
func NewClient(index Index) *Client {
	return &Client{index: index}
}

// Search returns up to n hits for phrase in the order the index reports
// them. Every failure is returned as a *QueryError.
func (c *Client) Search(ctx context.Context, phrase string, n int, include Include) ([]Hit, error) {
	if n <= 0 {
		return nil, &QueryError{Phrase: phrase, Err: ErrInvalidLimit}
	}
	hits, err := c.index.Query(ctx, phrase, n, include)
	if err != nil {
		return nil, &QueryError{Phrase: phrase, Err: err}
	}
	if len(hits) > n {
		hits = hits[:n]
	}
	return hits, nil
}

// Distance wraps d for Hit.Distance.
func Distance(d float64) *float64 {
	return &d
}
