// Package session keeps short-lived conversation state for follow-up
// questions. State is in-memory only and loss is harmless: a missing turn just
// means a follow-up is answered without pronoun context.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/civiclens/hansard/internal/config"
	"github.com/civiclens/hansard/internal/models"
)

// Store holds recent conversation turns per session id, bounded by TTL and a
// per-session turn cap. Expired sessions are pruned lazily on access.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*entry
	ttl      time.Duration
	maxTurns int
	now      func() time.Time
}

type entry struct {
	turns   []*models.ConversationTurn
	touched time.Time
}

// NewStore creates a session store from config.
func NewStore(cfg *config.SessionConfig) *Store {
	return &Store{
		sessions: make(map[string]*entry),
		ttl:      time.Duration(cfg.TTLMinutes) * time.Minute,
		maxTurns: cfg.MaxTurns,
		now:      time.Now,
	}
}

// Latest returns the most recent turn for the session, or nil when the
// session is unknown or expired.
func (s *Store) Latest(sessionID string) *models.ConversationTurn {
	if sessionID == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prune()
	e, ok := s.sessions[sessionID]
	if !ok || len(e.turns) == 0 {
		return nil
	}
	e.touched = s.now()
	return e.turns[len(e.turns)-1]
}

// Append records a completed turn. Cancelled requests must not leave partial
// state behind, so the write is skipped when ctx is already done.
func (s *Store) Append(ctx context.Context, sessionID string, turn *models.ConversationTurn) {
	if sessionID == "" || turn == nil || ctx.Err() != nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prune()
	e, ok := s.sessions[sessionID]
	if !ok {
		e = &entry{}
		s.sessions[sessionID] = e
	}
	e.turns = append(e.turns, turn)
	if len(e.turns) > s.maxTurns {
		e.turns = e.turns[len(e.turns)-s.maxTurns:]
	}
	e.touched = s.now()
}

// Len reports how many live sessions are held.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prune()
	return len(s.sessions)
}

// prune drops expired sessions. Caller holds the lock.
func (s *Store) prune() {
	cutoff := s.now().Add(-s.ttl)
	for id, e := range s.sessions {
		if e.touched.Before(cutoff) {
			delete(s.sessions, id)
		}
	}
}
