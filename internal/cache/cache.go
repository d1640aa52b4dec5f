// Package cache persists answered responses under short shareable ids so an
// answer can be revisited without re-running retrieval and synthesis.
package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/civiclens/hansard/internal/models"
)

// shortIDLen is the length of a share id.
const shortIDLen = 8

// NewShareID returns a fresh short share id.
func NewShareID() string {
	return uuid.New().String()[:shortIDLen]
}

// AnswerCache stores finished responses in SQLite keyed by short id.
type AnswerCache struct {
	db        *sql.DB
	retention time.Duration
	now       func() time.Time
}

// New opens (or creates) the answer cache at path.
func New(path string, retentionDays int) (*AnswerCache, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open answer cache: %w", err)
	}
	c := &AnswerCache{
		db:        db,
		retention: time.Duration(retentionDays) * 24 * time.Hour,
		now:       time.Now,
	}
	if err := c.initSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return c, nil
}

func (c *AnswerCache) initSchema() error {
	_, err := c.db.Exec(`
		CREATE TABLE IF NOT EXISTS answers (
			short_id   TEXT PRIMARY KEY,
			payload    TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_answers_created ON answers(created_at);
	`)
	if err != nil {
		return fmt.Errorf("failed to init answer cache schema: %w", err)
	}
	return nil
}

// Put stores a response under its share id, assigning one when unset, and
// returns the id.
func (c *AnswerCache) Put(ctx context.Context, resp *models.AskResponse) (string, error) {
	shortID := resp.ShareID
	if shortID == "" {
		shortID = NewShareID()
	}
	stored := *resp
	stored.ShareID = shortID
	payload, err := json.Marshal(&stored)
	if err != nil {
		return "", fmt.Errorf("failed to marshal response: %w", err)
	}
	_, err = c.db.ExecContext(ctx,
		`INSERT INTO answers (short_id, payload, created_at) VALUES (?, ?, ?)`,
		shortID, string(payload), c.now())
	if err != nil {
		return "", fmt.Errorf("failed to store answer: %w", err)
	}
	c.sweep(ctx)
	return shortID, nil
}

// Get returns the response stored under shortID. Missing and expired entries
// both surface as models.ErrAnswerNotFound.
func (c *AnswerCache) Get(ctx context.Context, shortID string) (*models.AskResponse, error) {
	var payload string
	var createdAt time.Time
	err := c.db.QueryRowContext(ctx,
		`SELECT payload, created_at FROM answers WHERE short_id = ?`, shortID).
		Scan(&payload, &createdAt)
	if err == sql.ErrNoRows {
		return nil, models.ErrAnswerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read answer: %w", err)
	}
	if c.now().Sub(createdAt) > c.retention {
		return nil, models.ErrAnswerNotFound
	}
	var resp models.AskResponse
	if err := json.Unmarshal([]byte(payload), &resp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal answer: %w", err)
	}
	return &resp, nil
}

// sweep deletes entries past retention. Best effort.
func (c *AnswerCache) sweep(ctx context.Context) {
	_, _ = c.db.ExecContext(ctx,
		`DELETE FROM answers WHERE created_at < ?`, c.now().Add(-c.retention))
}

// Close closes the underlying database.
func (c *AnswerCache) Close() error {
	return c.db.Close()
}
