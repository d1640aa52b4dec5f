package cache

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/civiclens/hansard/internal/models"
)

func testCache(t *testing.T) *AnswerCache {
	t.Helper()
	c, err := New(filepath.Join(t.TempDir(), "answers.db"), 30)
	if err != nil {
		t.Fatalf("create cache: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestPutGetRoundTrip(t *testing.T) {
	c := testCache(t)
	ctx := context.Background()

	id, err := c.Put(ctx, &models.AskResponse{
		Answer:     "The motion carried 5-2.",
		Confidence: models.ConfidenceHigh,
		Citations: []models.Citation{{
			Category: models.CategoryDecision, SourceID: "dec1", Excerpt: "CARRIED 5-2",
		}},
	})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if len(id) != shortIDLen {
		t.Errorf("expected %d-char share id, got %q", shortIDLen, id)
	}

	resp, err := c.Get(ctx, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if resp.Answer != "The motion carried 5-2." {
		t.Errorf("answer lost: %s", resp.Answer)
	}
	if resp.ShareID != id {
		t.Errorf("stored response should carry its share id, got %q", resp.ShareID)
	}
	if len(resp.Citations) != 1 || resp.Citations[0].SourceID != "dec1" {
		t.Errorf("citations lost: %+v", resp.Citations)
	}
}

func TestGetUnknownID(t *testing.T) {
	c := testCache(t)
	if _, err := c.Get(context.Background(), "nope1234"); !errors.Is(err, models.ErrAnswerNotFound) {
		t.Fatalf("expected ErrAnswerNotFound, got %v", err)
	}
}

func TestRetentionExpiry(t *testing.T) {
	c := testCache(t)
	ctx := context.Background()

	id, err := c.Put(ctx, &models.AskResponse{Answer: "old"})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	c.now = func() time.Time { return time.Now().Add(31 * 24 * time.Hour) }

	if _, err := c.Get(ctx, id); !errors.Is(err, models.ErrAnswerNotFound) {
		t.Fatalf("expired answer should be not-found, got %v", err)
	}
}

func TestSweepRemovesExpiredRows(t *testing.T) {
	c := testCache(t)
	ctx := context.Background()

	oldID, err := c.Put(ctx, &models.AskResponse{Answer: "old"})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	c.now = func() time.Time { return time.Now().Add(31 * 24 * time.Hour) }
	if _, err := c.Put(ctx, &models.AskResponse{Answer: "new"}); err != nil {
		t.Fatalf("put: %v", err)
	}

	var n int
	if err := c.db.QueryRow(`SELECT COUNT(*) FROM answers WHERE short_id = ?`, oldID).Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 0 {
		t.Error("sweep should remove expired rows")
	}
}
