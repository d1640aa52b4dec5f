package tools

import (
	"context"
	"fmt"
	"sort"

	"github.com/civiclens/hansard/internal/models"
	"github.com/civiclens/hansard/internal/search"
	"github.com/civiclens/hansard/internal/store"
)

// TopicTimeline retrieves discussions and decisions about one matter or topic
// and orders them chronologically rather than by relevance.
type TopicTimeline struct {
	engine *search.Engine
	store  store.Store
}

func (t *TopicTimeline) Name() string { return NameTopicTimeline }

func (t *TopicTimeline) Run(ctx context.Context, args Args, q *models.QueryAnalysis, scopeID string) (*Result, error) {
	filters, err := args.filters(q)
	if err != nil {
		return nil, err
	}
	if filters.MatterID == "" && q.MatterID != "" {
		filters.MatterID = q.MatterID
	}

	var records []models.EvidenceRecord
	for _, category := range []models.Category{models.CategoryDiscussion, models.CategoryDecision} {
		found, err := hybridSearch(ctx, t.engine, t.store, t.Name(), category, args, q, scopeID, filters)
		if err != nil {
			return nil, err
		}
		records = append(records, found...)
	}
	if len(records) == 0 {
		return emptyResult("timeline entries"), nil
	}

	sort.SliceStable(records, func(i, j int) bool {
		if !records[i].Date.Equal(records[j].Date) {
			return records[i].Date.Before(records[j].Date)
		}
		return records[i].SourceID < records[j].SourceID
	})

	first := records[0].Date.Format("2006-01-02")
	last := records[len(records)-1].Date.Format("2006-01-02")
	return &Result{
		Evidence: records,
		Summary:  fmt.Sprintf("Timeline with %d entries from %s to %s.", len(records), first, last),
	}, nil
}
