package lexical

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
	blevequery "github.com/blevesearch/bleve/v2/search/query"

	"github.com/civiclens/hansard/internal/models"
)

// indexedItem is the document shape stored in Bleve. Only fields needed for
// matching and filtering are indexed; hydration happens against the store.
type indexedItem struct {
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	Category    string    `json:"category"`
	Scope       string    `json:"scope"`
	Participant string    `json:"participant"`
	MatterID    string    `json:"matter_id"`
	DocType     string    `json:"doc_type"`
	Date        time.Time `json:"date"`
}

// BleveIndex implements Index using Bleve.
type BleveIndex struct {
	index bleve.Index
}

// NewBleveIndex creates or opens a Bleve index at path. An existing index is
// opened and reused; remove the directory to force a full re-index after a
// mapping change.
func NewBleveIndex(path string) (*BleveIndex, error) {
	if _, err := os.Stat(path); err == nil {
		index, openErr := bleve.Open(path)
		if openErr != nil {
			return nil, fmt.Errorf("failed to open Bleve index: %w", openErr)
		}
		return &BleveIndex{index: index}, nil
	}

	index, err := bleve.New(path, buildMapping())
	if err != nil {
		return nil, fmt.Errorf("failed to create Bleve index: %w", err)
	}
	return &BleveIndex{index: index}, nil
}

// NewMemoryBleveIndex creates an in-memory Bleve index, used in tests.
func NewMemoryBleveIndex() (*BleveIndex, error) {
	index, err := bleve.NewMemOnly(buildMapping())
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory Bleve index: %w", err)
	}
	return &BleveIndex{index: index}, nil
}

func buildMapping() *mapping.IndexMappingImpl {
	im := bleve.NewIndexMapping()

	docMapping := bleve.NewDocumentMapping()
	textFieldMapping := bleve.NewTextFieldMapping()
	// Standard analyzer (lowercase + tokenize, no stemming) so names and bylaw
	// numbers match exactly as written in the minutes.
	textFieldMapping.Analyzer = standard.Name
	docMapping.AddFieldMappingsAt("content", textFieldMapping)
	docMapping.AddFieldMappingsAt("title", textFieldMapping)

	keywordFieldMapping := bleve.NewKeywordFieldMapping()
	docMapping.AddFieldMappingsAt("category", keywordFieldMapping)
	docMapping.AddFieldMappingsAt("scope", keywordFieldMapping)
	docMapping.AddFieldMappingsAt("participant", keywordFieldMapping)
	docMapping.AddFieldMappingsAt("matter_id", keywordFieldMapping)
	docMapping.AddFieldMappingsAt("doc_type", keywordFieldMapping)

	dateFieldMapping := bleve.NewDateTimeFieldMapping()
	docMapping.AddFieldMappingsAt("date", dateFieldMapping)

	im.AddDocumentMapping("item", docMapping)
	im.DefaultType = "item"
	im.DefaultMapping = docMapping
	return im
}

// Index indexes one searchable item by id.
func (b *BleveIndex) Index(ctx context.Context, item *models.SearchableItem) error {
	names := make([]string, 0, 1+len(item.Dissenters))
	if item.Speaker != "" {
		names = append(names, item.Speaker)
	}
	names = append(names, item.Dissenters...)
	participant := strings.Join(names, " ")
	doc := indexedItem{
		Title:       item.Title,
		Content:     item.Body,
		Category:    string(item.Category),
		Scope:       item.ScopeID,
		Participant: participant,
		MatterID:    item.MatterID,
		DocType:     item.DocType,
		Date:        item.Date,
	}
	return b.index.Index(item.ID, doc)
}

// Search runs a filtered match query and returns up to limit rank-ordered ids.
// A query matching nothing (including all-stopword queries) returns an empty
// slice, never an error.
func (b *BleveIndex) Search(ctx context.Context, category models.Category, query, scopeID string, filters models.SearchFilters, limit int) ([]models.RankedID, error) {
	if strings.TrimSpace(query) == "" {
		return nil, nil
	}

	titleQuery := bleve.NewMatchQuery(query)
	titleQuery.SetField("title")
	contentQuery := bleve.NewMatchQuery(query)
	contentQuery.SetField("content")
	textQuery := bleve.NewDisjunctionQuery(titleQuery, contentQuery)

	conjuncts := []blevequery.Query{textQuery}
	conjuncts = append(conjuncts, termFilter("category", string(category)))
	conjuncts = append(conjuncts, termFilter("scope", scopeID))
	if filters.Participant != "" {
		pq := bleve.NewMatchQuery(filters.Participant)
		pq.SetField("participant")
		conjuncts = append(conjuncts, pq)
	}
	if filters.MatterID != "" {
		conjuncts = append(conjuncts, termFilter("matter_id", filters.MatterID))
	}
	if filters.DocType != "" {
		conjuncts = append(conjuncts, termFilter("doc_type", filters.DocType))
	}
	if filters.From != nil || filters.To != nil {
		dq := bleve.NewDateRangeQuery(orZero(filters.From), orFar(filters.To))
		dq.SetField("date")
		conjuncts = append(conjuncts, dq)
	}

	req := bleve.NewSearchRequest(bleve.NewConjunctionQuery(conjuncts...))
	req.Size = limit
	results, err := b.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("Bleve search failed: %w", err)
	}

	out := make([]models.RankedID, len(results.Hits))
	for i, hit := range results.Hits {
		out[i] = models.RankedID{ID: hit.ID, Rank: i + 1}
	}
	return out, nil
}

// Delete removes an item from the index.
func (b *BleveIndex) Delete(ctx context.Context, id string) error {
	return b.index.Delete(id)
}

// Close closes the underlying index.
func (b *BleveIndex) Close() error {
	return b.index.Close()
}

func termFilter(field, value string) blevequery.Query {
	q := bleve.NewTermQuery(value)
	q.SetField(field)
	return q
}

func orZero(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}

func orFar(t *time.Time) time.Time {
	if t == nil {
		// Bleve date ranges need a concrete upper bound, and it must be
		// representable as UnixNano (bleve rejects dates past ~2262).
		return time.Date(2262, 1, 1, 0, 0, 0, 0, time.UTC)
	}
	return *t
}
