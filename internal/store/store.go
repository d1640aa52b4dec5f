// Package store defines and implements the read interface over council
// records consumed by retrieval. The store is populated externally by the
// ingestion pipeline; this core only reads (writes exist for seeding and tests).
package store

import (
	"context"
	"time"

	"github.com/civiclens/hansard/internal/models"
)

// Store is the content-store read interface.
type Store interface {
	// FetchByIDs hydrates items by id, preserving the given id order.
	// Unknown ids are skipped, not errors.
	FetchByIDs(ctx context.Context, category models.Category, ids []string) ([]*models.SearchableItem, error)

	// ResolvePerson returns the person id when name matches exactly one known
	// person in scope, or "" when there is no match or the match is ambiguous.
	ResolvePerson(ctx context.Context, scopeID, name string) (string, error)

	// ResolveMatter returns the matter id when topic matches exactly one known
	// matter in scope, or "" otherwise.
	ResolveMatter(ctx context.Context, scopeID, topic string) (string, error)

	// PersonName returns the recorded name for a person id, or "" when the id
	// is unknown in scope.
	PersonName(ctx context.Context, scopeID, id string) (string, error)

	// GetMeetingByID returns the meeting with its agenda, or nil when no
	// such meeting exists.
	GetMeetingByID(ctx context.Context, scopeID, meetingID string) (*models.Meeting, error)

	// GetMeetingByDate returns the meeting held on the given date, or nil
	// when none was held.
	GetMeetingByDate(ctx context.Context, scopeID string, date time.Time) (*models.Meeting, error)

	// ItemsForMeeting lists all items belonging to a meeting.
	ItemsForMeeting(ctx context.Context, scopeID, meetingID string) ([]*models.SearchableItem, error)

	// KeyStatementsFor returns key-statement items linked to the given
	// discussion ids.
	KeyStatementsFor(ctx context.Context, discussionIDs []string) ([]*models.SearchableItem, error)

	// Write path, used by seeding and tests. The serving path never calls these.
	PutItem(ctx context.Context, item *models.SearchableItem) error
	PutPerson(ctx context.Context, id, scopeID, name string) error
	PutMatter(ctx context.Context, id, scopeID, title string) error
	PutMeeting(ctx context.Context, meeting *models.Meeting) error

	Close() error
}
