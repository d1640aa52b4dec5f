// Package lexical provides the full-text retrieval primitive over council
// records, implemented on Bleve.
package lexical

import (
	"context"

	"github.com/civiclens/hansard/internal/models"
)

// Index defines the lexical retrieval primitive consumed by hybrid search.
// Search returns rank-ordered item ids (1-indexed ranks); an empty result is
// not an error.
type Index interface {
	Index(ctx context.Context, item *models.SearchableItem) error
	Search(ctx context.Context, category models.Category, query, scopeID string, filters models.SearchFilters, limit int) ([]models.RankedID, error)
	Delete(ctx context.Context, id string) error
	Close() error
}
