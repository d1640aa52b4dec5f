// Package models defines core data structures for searchable council records,
// query analysis, evidence, and answers.
package models

import "time"

// Category identifies the content type of a searchable item.
type Category string

const (
	CategoryDiscussion      Category = "discussion"
	CategoryDecision        Category = "decision"
	CategoryDocumentSection Category = "document_section"
	CategoryKeyStatement    Category = "key_statement"
)

// Categories lists every valid content category.
var Categories = []Category{
	CategoryDiscussion,
	CategoryDecision,
	CategoryDocumentSection,
	CategoryKeyStatement,
}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	for _, k := range Categories {
		if c == k {
			return true
		}
	}
	return false
}

// SearchableItem is a retrievable content unit: a discussion transcript for one
// agenda item, a decision record, a document section, or an extracted key statement.
// Every item belongs to exactly one category and one scope.
type SearchableItem struct {
	ID       string   `json:"id" db:"id"`
	ScopeID  string   `json:"scope_id" db:"scope_id"`
	Category Category `json:"category" db:"category"`
	Title    string   `json:"title" db:"title"`
	Body     string   `json:"body" db:"body"`

	// Provenance
	MeetingID string    `json:"meeting_id,omitempty" db:"meeting_id"`
	Date      time.Time `json:"date" db:"date"`
	Speaker   string    `json:"speaker,omitempty" db:"speaker"`
	// Locator is a page/section/timestamp reference within the source record,
	// e.g. "p.12", "item 7.2", "01:14:30".
	Locator string `json:"locator,omitempty" db:"locator"`

	// MatterID links the item to a council matter (motion/bylaw/project) when known.
	MatterID string `json:"matter_id,omitempty" db:"matter_id"`
	// ParentID links a key statement to its originating discussion.
	ParentID string `json:"parent_id,omitempty" db:"parent_id"`
	// DocType is set for document sections (e.g. "staff_report", "bylaw", "minutes").
	DocType string `json:"doc_type,omitempty" db:"doc_type"`

	// Decision fields, populated only for CategoryDecision.
	Outcome    string   `json:"outcome,omitempty" db:"outcome"`
	Dissenters []string `json:"dissenters,omitempty" db:"dissenters"`
	Movers     []string `json:"movers,omitempty" db:"movers"`
}

// Meeting is a council meeting with its agenda, used for direct lookup by the
// meeting_context tool (no fused search involved).
type Meeting struct {
	ID          string    `json:"id"`
	ScopeID     string    `json:"scope_id"`
	Date        time.Time `json:"date"`
	Title       string    `json:"title"`
	AgendaItems []string  `json:"agenda_items"`
}

// SearchFilters narrows a retrieval call. The zero value means unfiltered
// (within the mandatory scope, which is passed separately).
type SearchFilters struct {
	From        *time.Time
	To          *time.Time
	Participant string
	MatterID    string
	DocType     string
}

// RankedID is one entry of a single-signal retrieval: an item id with its
// 1-indexed rank position.
type RankedID struct {
	ID   string
	Rank int
}

// FusedEntry is one entry of a FusedRanking.
type FusedEntry struct {
	ID    string
	Score float64
	// LexicalRank and SemanticRank are 1-indexed positions in the respective
	// candidate lists, 0 when the item was absent from that list.
	LexicalRank  int
	SemanticRank int
}

// FusedRanking is the ordered output of one hybrid search call,
// descending by fused score.
type FusedRanking []FusedEntry

// IDs returns the item ids in ranking order.
func (r FusedRanking) IDs() []string {
	ids := make([]string, len(r))
	for i, e := range r {
		ids[i] = e.ID
	}
	return ids
}
