package models

import (
	"fmt"
	"time"
	"unicode/utf8"
)

// MaxQuestionLength bounds inbound question length; longer questions are truncated.
const MaxQuestionLength = 2000

// TruncateQuestion caps s at MaxQuestionLength bytes without splitting a
// multi-byte rune at the boundary.
func TruncateQuestion(s string) string {
	if len(s) <= MaxQuestionLength {
		return s
	}
	cut := MaxQuestionLength
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

// AskRequest is the inbound request contract from the API layer.
type AskRequest struct {
	Question  string `json:"question"`
	ScopeID   string `json:"scope_id"`
	SessionID string `json:"session_id,omitempty"`
	// DateFrom/DateTo are optional explicit date-range filters (RFC 3339 dates).
	DateFrom string `json:"date_from,omitempty"`
	DateTo   string `json:"date_to,omitempty"`
}

// Validate checks required fields and normalizes the question. Questions longer
// than MaxQuestionLength are truncated rather than rejected.
func (r *AskRequest) Validate() error {
	if r.Question == "" {
		return fmt.Errorf("question cannot be empty")
	}
	if r.ScopeID == "" {
		return fmt.Errorf("scope_id is required")
	}
	r.Question = TruncateQuestion(r.Question)
	if _, err := r.DateBounds(); err != nil {
		return err
	}
	return nil
}

// DateBounds parses the optional explicit date-range filter.
func (r *AskRequest) DateBounds() (*SearchFilters, error) {
	f := &SearchFilters{}
	if r.DateFrom != "" {
		t, err := time.Parse("2006-01-02", r.DateFrom)
		if err != nil {
			return nil, fmt.Errorf("invalid date_from %q: %w", r.DateFrom, err)
		}
		f.From = &t
	}
	if r.DateTo != "" {
		t, err := time.Parse("2006-01-02", r.DateTo)
		if err != nil {
			return nil, fmt.Errorf("invalid date_to %q: %w", r.DateTo, err)
		}
		f.To = &t
	}
	return f, nil
}

// AskResponse is the outbound response contract.
type AskResponse struct {
	Answer       string        `json:"answer"`
	Citations    []Citation    `json:"citations"`
	Confidence   Confidence    `json:"confidence"`
	FollowUps    []string      `json:"follow_ups,omitempty"`
	Trace        []ToolTrace   `json:"trace,omitempty"`
	Degradations []Degradation `json:"degradations,omitempty"`
	QueryTimeMS  int64         `json:"query_time_ms"`
	ShareID      string        `json:"share_id,omitempty"`
}
