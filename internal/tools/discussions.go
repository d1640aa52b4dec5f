package tools

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/civiclens/hansard/internal/models"
	"github.com/civiclens/hansard/internal/search"
	"github.com/civiclens/hansard/internal/store"
)

// statementParents is how many top discussion hits get their linked key
// statements pulled in alongside.
const statementParents = 3

// FindDiscussions retrieves debate and deliberation segments, enriched with
// the key statements extracted from the top hits.
type FindDiscussions struct {
	engine *search.Engine
	store  store.Store
	logger *zap.Logger
}

func (t *FindDiscussions) Name() string { return NameFindDiscussions }

func (t *FindDiscussions) Run(ctx context.Context, args Args, q *models.QueryAnalysis, scopeID string) (*Result, error) {
	filters, err := args.filters(q)
	if err != nil {
		return nil, err
	}
	records, err := hybridSearch(ctx, t.engine, t.store, t.Name(),
		models.CategoryDiscussion, args, q, scopeID, filters)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return emptyResult("discussions"), nil
	}

	parents := make([]string, 0, statementParents)
	for i := 0; i < len(records) && i < statementParents; i++ {
		parents = append(parents, records[i].SourceID)
	}
	statements, err := t.store.KeyStatementsFor(ctx, parents)
	if err != nil {
		t.logger.Debug("key statement lookup failed", zap.Error(err))
	}
	for _, s := range statements {
		records = append(records, Render(s, 0, t.Name()))
	}

	return &Result{
		Evidence: records,
		Summary:  fmt.Sprintf("Found %d discussions and %d key statements.", len(records)-len(statements), len(statements)),
	}, nil
}
