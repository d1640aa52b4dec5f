// Package vector provides the semantic retrieval primitive: an in-memory
// metadata-filtered vector index over item embeddings.
package vector

import (
	"context"
	"time"

	"github.com/civiclens/hansard/internal/models"
)

// Meta is the filterable metadata stored alongside each vector.
type Meta struct {
	Category     models.Category
	ScopeID      string
	Participants []string
	MatterID     string
	DocType      string
	Date         time.Time
}

// MetaFor extracts the filterable metadata from a searchable item. Every
// named participant is kept so a filter on any dissenter matches.
func MetaFor(item *models.SearchableItem) Meta {
	var participants []string
	if item.Speaker != "" {
		participants = append(participants, item.Speaker)
	}
	participants = append(participants, item.Dissenters...)
	return Meta{
		Category:     item.Category,
		ScopeID:      item.ScopeID,
		Participants: participants,
		MatterID:     item.MatterID,
		DocType:      item.DocType,
		Date:         item.Date,
	}
}

// Index defines the semantic retrieval primitive consumed by hybrid search.
// Search returns rank-ordered item ids (1-indexed); empty results are not errors.
type Index interface {
	Add(ctx context.Context, id string, vec []float32, meta Meta) error
	Search(ctx context.Context, query []float32, category models.Category, scopeID string, filters models.SearchFilters, limit int) ([]models.RankedID, error)
	Remove(ctx context.Context, ids []string) error
	Size() int
}
