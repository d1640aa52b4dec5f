package tools

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/civiclens/hansard/internal/models"
	"github.com/civiclens/hansard/internal/search"
	"github.com/civiclens/hansard/internal/store"
)

// contextParents is how many top decisions get their originating discussion
// pulled in from the same meeting.
const contextParents = 3

// FindDecisions retrieves motions and resolutions, including vote breakdowns
// and the discussion context that led to each of the top results.
type FindDecisions struct {
	engine *search.Engine
	store  store.Store
	logger *zap.Logger
}

func (t *FindDecisions) Name() string { return NameFindDecisions }

func (t *FindDecisions) Run(ctx context.Context, args Args, q *models.QueryAnalysis, scopeID string) (*Result, error) {
	filters, err := args.filters(q)
	if err != nil {
		return nil, err
	}
	records, err := hybridSearch(ctx, t.engine, t.store, t.Name(),
		models.CategoryDecision, args, q, scopeID, filters)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return emptyResult("decisions"), nil
	}

	decisions := len(records)
	records = append(records, t.discussionContext(ctx, scopeID, records)...)

	return &Result{
		Evidence: records,
		Summary:  fmt.Sprintf("Found %d decisions with vote records.", decisions),
	}, nil
}

// discussionContext fetches discussion items from the same meeting and matter
// as the top decisions, so the synthesizer sees how each motion arose.
func (t *FindDecisions) discussionContext(ctx context.Context, scopeID string, decisions []models.EvidenceRecord) []models.EvidenceRecord {
	seen := make(map[string]bool)
	var out []models.EvidenceRecord
	for i := 0; i < len(decisions) && i < contextParents; i++ {
		item, err := t.fetchOne(ctx, decisions[i].SourceID)
		if err != nil || item == nil || item.MeetingID == "" || item.MatterID == "" {
			continue
		}
		siblings, err := t.store.ItemsForMeeting(ctx, scopeID, item.MeetingID)
		if err != nil {
			t.logger.Debug("meeting context lookup failed", zap.Error(err))
			continue
		}
		for _, sib := range siblings {
			if sib.Category != models.CategoryDiscussion || sib.MatterID != item.MatterID || seen[sib.ID] {
				continue
			}
			seen[sib.ID] = true
			out = append(out, Render(sib, 0, t.Name()))
		}
	}
	return out
}

func (t *FindDecisions) fetchOne(ctx context.Context, id string) (*models.SearchableItem, error) {
	items, err := t.store.FetchByIDs(ctx, models.CategoryDecision, []string{id})
	if err != nil || len(items) == 0 {
		return nil, err
	}
	return items[0], nil
}
