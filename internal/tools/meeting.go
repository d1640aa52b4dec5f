package tools

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/civiclens/hansard/internal/models"
	"github.com/civiclens/hansard/internal/store"
)

// meetingItemCap bounds how many meeting items become evidence.
const meetingItemCap = 10

// MeetingContext retrieves everything about one meeting directly from the
// store, bypassing search entirely.
type MeetingContext struct {
	store store.Store
}

func (t *MeetingContext) Name() string { return NameMeetingContext }

func (t *MeetingContext) Run(ctx context.Context, args Args, q *models.QueryAnalysis, scopeID string) (*Result, error) {
	meeting, err := t.lookup(ctx, args, scopeID)
	if err != nil {
		return nil, err
	}
	if meeting == nil {
		return emptyResult("meetings"), nil
	}

	items, err := t.store.ItemsForMeeting(ctx, scopeID, meeting.ID)
	if err != nil {
		return nil, fmt.Errorf("meeting items: %w", err)
	}
	// Decisions first, then discussions, then the rest; agenda order within.
	sort.SliceStable(items, func(i, j int) bool {
		return categoryWeight(items[i].Category) < categoryWeight(items[j].Category)
	})
	if len(items) > meetingItemCap {
		items = items[:meetingItemCap]
	}

	records := make([]models.EvidenceRecord, 0, len(items))
	for _, item := range items {
		records = append(records, Render(item, 0, t.Name()))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Meeting %s on %s", meeting.Title, meeting.Date.Format("2006-01-02"))
	if len(meeting.AgendaItems) > 0 {
		fmt.Fprintf(&b, ". Agenda: %s", strings.Join(meeting.AgendaItems, "; "))
	}
	fmt.Fprintf(&b, ". %d items on record.", len(records))

	return &Result{Evidence: records, Summary: b.String()}, nil
}

func (t *MeetingContext) lookup(ctx context.Context, args Args, scopeID string) (*models.Meeting, error) {
	if args.MeetingID != "" {
		return t.store.GetMeetingByID(ctx, scopeID, args.MeetingID)
	}
	if args.MeetingDate != "" {
		date, err := time.Parse("2006-01-02", args.MeetingDate)
		if err != nil {
			return nil, fmt.Errorf("invalid meeting_date %q: %w", args.MeetingDate, err)
		}
		return t.store.GetMeetingByDate(ctx, scopeID, date)
	}
	return nil, errors.New("meeting_context requires meeting_id or meeting_date")
}

func categoryWeight(c models.Category) int {
	switch c {
	case models.CategoryDecision:
		return 0
	case models.CategoryDiscussion:
		return 1
	default:
		return 2
	}
}
