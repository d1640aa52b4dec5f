package session

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/civiclens/hansard/internal/config"
	"github.com/civiclens/hansard/internal/models"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	return NewStore(&cfg.Session)
}

func turn(q string) *models.ConversationTurn {
	return &models.ConversationTurn{Question: q, CreatedAt: time.Now()}
}

func TestLatestReturnsMostRecentTurn(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	s.Append(ctx, "sess1", turn("first"))
	s.Append(ctx, "sess1", turn("second"))

	got := s.Latest("sess1")
	if got == nil || got.Question != "second" {
		t.Fatalf("expected the second turn, got %+v", got)
	}
	if s.Latest("other") != nil {
		t.Error("unknown session should have no turns")
	}
	if s.Latest("") != nil {
		t.Error("empty session id should have no turns")
	}
}

func TestTurnCap(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	for i := 0; i < 10; i++ {
		s.Append(ctx, "sess1", turn(fmt.Sprintf("q%d", i)))
	}
	s.mu.Lock()
	n := len(s.sessions["sess1"].turns)
	s.mu.Unlock()
	if n != s.maxTurns {
		t.Fatalf("expected %d retained turns, got %d", s.maxTurns, n)
	}
	if got := s.Latest("sess1"); got.Question != "q9" {
		t.Errorf("cap should keep the newest turns, got %s", got.Question)
	}
}

func TestTTLExpiry(t *testing.T) {
	s := testStore(t)
	now := time.Now()
	s.now = func() time.Time { return now }

	s.Append(context.Background(), "sess1", turn("old"))
	now = now.Add(s.ttl + time.Minute)

	if s.Latest("sess1") != nil {
		t.Error("expired session should be gone")
	}
	if s.Len() != 0 {
		t.Errorf("expired sessions should be pruned, %d left", s.Len())
	}
}

func TestCancelledWriteIsDropped(t *testing.T) {
	s := testStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s.Append(ctx, "sess1", turn("should not persist"))
	if s.Latest("sess1") != nil {
		t.Error("a cancelled request must not leave partial session state")
	}
}
