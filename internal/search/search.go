// Package search provides full-text retrieval over archived messages. A
// Typesense backend is used when configured; callers fall back to Postgres
// full-text search otherwise.
package search

import (
	"context"

	"mnemos.app/archive/internal/model"
)

// Searcher indexes messages as they are persisted and resolves free-text
// queries to ranked message IDs.
type Searcher interface {
	IndexMessage(ctx context.Context, msg *model.Message) error
	// Search returns message IDs in relevance order.
	Search(ctx context.Context, query string, limit int) ([]int64, error)
}
