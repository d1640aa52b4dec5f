package tools

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/civiclens/hansard/internal/models"
	"github.com/civiclens/hansard/internal/search"
	"github.com/civiclens/hansard/internal/store"
)

// PersonActivity retrieves the discussions a person participated in and the
// decisions they moved or opposed.
type PersonActivity struct {
	engine *search.Engine
	store  store.Store
	logger *zap.Logger
}

func (t *PersonActivity) Name() string { return NamePersonActivity }

func (t *PersonActivity) Run(ctx context.Context, args Args, q *models.QueryAnalysis, scopeID string) (*Result, error) {
	// The indexes store participant names, so an id must be resolved back to
	// the recorded name before it can filter anything.
	person, err := t.participantName(ctx, args, q, scopeID)
	if err != nil {
		return nil, err
	}
	if person == "" {
		if args.PersonID != "" || q.PersonID != "" {
			return emptyResult("activity records for that person"), nil
		}
		return nil, errors.New("person_activity requires a person name or id")
	}

	filters, err := args.filters(q)
	if err != nil {
		return nil, err
	}
	filters.Participant = person

	var records []models.EvidenceRecord
	for _, category := range []models.Category{models.CategoryDiscussion, models.CategoryDecision} {
		found, err := hybridSearch(ctx, t.engine, t.store, t.Name(), category, args, q, scopeID, filters)
		if err != nil {
			return nil, err
		}
		records = append(records, found...)
	}
	if len(records) == 0 {
		return emptyResult(fmt.Sprintf("activity records for %q", person)), nil
	}
	sort.SliceStable(records, func(i, j int) bool { return records[i].Score > records[j].Score })

	return &Result{
		Evidence: records,
		Summary:  fmt.Sprintf("Found %d activity records for %s.", len(records), person),
	}, nil
}

// participantName picks the name to filter by: an explicit name argument, then
// an explicit id resolved against the store, then the extracted entity name,
// then the analysis's pre-resolved id. Returns "" when an id resolves to no
// known person.
func (t *PersonActivity) participantName(ctx context.Context, args Args, q *models.QueryAnalysis, scopeID string) (string, error) {
	if args.Person != "" {
		return args.Person, nil
	}
	if args.PersonID != "" {
		return t.store.PersonName(ctx, scopeID, args.PersonID)
	}
	if len(q.Entities.People) > 0 {
		return q.Entities.People[0], nil
	}
	if q.PersonID != "" {
		return t.store.PersonName(ctx, scopeID, q.PersonID)
	}
	return "", nil
}
