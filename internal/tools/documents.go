package tools

import (
	"context"
	"fmt"

	"github.com/civiclens/hansard/internal/models"
	"github.com/civiclens/hansard/internal/search"
	"github.com/civiclens/hansard/internal/store"
)

// SearchDocuments retrieves sections of published records (agendas, minutes,
// staff reports), optionally narrowed to a document type.
type SearchDocuments struct {
	engine *search.Engine
	store  store.Store
}

func (t *SearchDocuments) Name() string { return NameSearchDocuments }

func (t *SearchDocuments) Run(ctx context.Context, args Args, q *models.QueryAnalysis, scopeID string) (*Result, error) {
	filters, err := args.filters(q)
	if err != nil {
		return nil, err
	}
	records, err := hybridSearch(ctx, t.engine, t.store, t.Name(),
		models.CategoryDocumentSection, args, q, scopeID, filters)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		what := "document sections"
		if args.DocType != "" {
			what = fmt.Sprintf("%s sections", args.DocType)
		}
		return emptyResult(what), nil
	}
	return &Result{
		Evidence: records,
		Summary:  fmt.Sprintf("Found %d document sections.", len(records)),
	}, nil
}
