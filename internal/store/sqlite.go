package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/civiclens/hansard/internal/models"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates a SQLite database at dbPath and initializes
// the schema. Parent directories are created if they do not exist.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS items (
		id TEXT PRIMARY KEY,
		scope_id TEXT NOT NULL,
		category TEXT NOT NULL,
		title TEXT,
		body TEXT NOT NULL,
		meeting_id TEXT,
		date TIMESTAMP,
		speaker TEXT,
		locator TEXT,
		matter_id TEXT,
		parent_id TEXT,
		doc_type TEXT,
		outcome TEXT,
		dissenters TEXT,
		movers TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_items_scope_category ON items(scope_id, category);
	CREATE INDEX IF NOT EXISTS idx_items_meeting ON items(meeting_id);
	CREATE INDEX IF NOT EXISTS idx_items_parent ON items(parent_id);

	CREATE TABLE IF NOT EXISTS persons (
		id TEXT PRIMARY KEY,
		scope_id TEXT NOT NULL,
		name TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_persons_scope_name ON persons(scope_id, name);

	CREATE TABLE IF NOT EXISTS matters (
		id TEXT PRIMARY KEY,
		scope_id TEXT NOT NULL,
		title TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS meetings (
		id TEXT PRIMARY KEY,
		scope_id TEXT NOT NULL,
		date TIMESTAMP NOT NULL,
		title TEXT,
		agenda TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_meetings_scope_date ON meetings(scope_id, date);
	`
	_, err := db.Exec(schema)
	return err
}

const itemColumns = "id, scope_id, category, title, body, meeting_id, date, speaker, locator, matter_id, parent_id, doc_type, outcome, dissenters, movers"

// PutItem inserts or replaces an item.
func (s *SQLiteStore) PutItem(ctx context.Context, item *models.SearchableItem) error {
	dissenters, err := json.Marshal(item.Dissenters)
	if err != nil {
		return fmt.Errorf("failed to marshal dissenters: %w", err)
	}
	movers, err := json.Marshal(item.Movers)
	if err != nil {
		return fmt.Errorf("failed to marshal movers: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO items (`+itemColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		item.ID, item.ScopeID, string(item.Category), item.Title, item.Body,
		item.MeetingID, item.Date, item.Speaker, item.Locator, item.MatterID,
		item.ParentID, item.DocType, item.Outcome, string(dissenters), string(movers),
	)
	if err != nil {
		return fmt.Errorf("failed to insert item: %w", err)
	}
	return nil
}

func scanItem(rows *sql.Rows) (*models.SearchableItem, error) {
	var item models.SearchableItem
	var category string
	var title, meetingID, speaker, locator, matterID, parentID, docType, outcome sql.NullString
	var dissenters, movers sql.NullString
	var date sql.NullTime
	if err := rows.Scan(&item.ID, &item.ScopeID, &category, &title, &item.Body,
		&meetingID, &date, &speaker, &locator, &matterID, &parentID, &docType,
		&outcome, &dissenters, &movers); err != nil {
		return nil, fmt.Errorf("failed to scan item: %w", err)
	}
	item.Category = models.Category(category)
	item.Title = title.String
	item.MeetingID = meetingID.String
	item.Speaker = speaker.String
	item.Locator = locator.String
	item.MatterID = matterID.String
	item.ParentID = parentID.String
	item.DocType = docType.String
	item.Outcome = outcome.String
	if date.Valid {
		item.Date = date.Time
	}
	if dissenters.Valid && dissenters.String != "" {
		if err := json.Unmarshal([]byte(dissenters.String), &item.Dissenters); err != nil {
			return nil, fmt.Errorf("failed to unmarshal dissenters: %w", err)
		}
	}
	if movers.Valid && movers.String != "" {
		if err := json.Unmarshal([]byte(movers.String), &item.Movers); err != nil {
			return nil, fmt.Errorf("failed to unmarshal movers: %w", err)
		}
	}
	return &item, nil
}

// FetchByIDs hydrates items in the given id order. Unknown ids are skipped.
func (s *SQLiteStore) FetchByIDs(ctx context.Context, category models.Category, ids []string) ([]*models.SearchableItem, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	placeholders := strings.Repeat("?,", len(ids))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]interface{}, 0, len(ids)+1)
	args = append(args, string(category))
	for _, id := range ids {
		args = append(args, id)
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+itemColumns+` FROM items WHERE category = ? AND id IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch items: %w", err)
	}
	defer rows.Close()

	byID := make(map[string]*models.SearchableItem, len(ids))
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		byID[item.ID] = item
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate items: %w", err)
	}

	out := make([]*models.SearchableItem, 0, len(byID))
	for _, id := range ids {
		if item, ok := byID[id]; ok {
			out = append(out, item)
		}
	}
	return out, nil
}

// ResolvePerson returns the person id for name in scope if the match is unique.
// Matching is case-insensitive on the full name or a contained token.
func (s *SQLiteStore) ResolvePerson(ctx context.Context, scopeID, name string) (string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id FROM persons WHERE scope_id = ? AND LOWER(name) LIKE '%' || LOWER(?) || '%' LIMIT 2`,
		scopeID, name)
	if err != nil {
		return "", fmt.Errorf("failed to resolve person: %w", err)
	}
	defer rows.Close()
	return uniqueID(rows)
}

// PersonName returns the recorded name for a person id in scope, or "" when
// the id is unknown.
func (s *SQLiteStore) PersonName(ctx context.Context, scopeID, id string) (string, error) {
	var name string
	err := s.db.QueryRowContext(ctx,
		`SELECT name FROM persons WHERE scope_id = ? AND id = ?`, scopeID, id).Scan(&name)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to look up person name: %w", err)
	}
	return name, nil
}

// ResolveMatter returns the matter id for topic in scope if the match is unique.
func (s *SQLiteStore) ResolveMatter(ctx context.Context, scopeID, topic string) (string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id FROM matters WHERE scope_id = ? AND LOWER(title) LIKE '%' || LOWER(?) || '%' LIMIT 2`,
		scopeID, topic)
	if err != nil {
		return "", fmt.Errorf("failed to resolve matter: %w", err)
	}
	defer rows.Close()
	return uniqueID(rows)
}

// uniqueID returns the single id from rows, or "" when there are zero or
// multiple matches.
func uniqueID(rows *sql.Rows) (string, error) {
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return "", fmt.Errorf("failed to scan id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return "", err
	}
	if len(ids) == 1 {
		return ids[0], nil
	}
	return "", nil
}

// GetMeetingByID returns the meeting with its agenda.
func (s *SQLiteStore) GetMeetingByID(ctx context.Context, scopeID, meetingID string) (*models.Meeting, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, scope_id, date, title, agenda FROM meetings WHERE scope_id = ? AND id = ?`,
		scopeID, meetingID)
	return scanMeeting(row)
}

// GetMeetingByDate returns the meeting held on the given calendar date.
func (s *SQLiteStore) GetMeetingByDate(ctx context.Context, scopeID string, date time.Time) (*models.Meeting, error) {
	dayStart := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	dayEnd := dayStart.Add(24 * time.Hour)
	row := s.db.QueryRowContext(ctx,
		`SELECT id, scope_id, date, title, agenda FROM meetings
		 WHERE scope_id = ? AND date >= ? AND date < ? ORDER BY date LIMIT 1`,
		scopeID, dayStart, dayEnd)
	return scanMeeting(row)
}

func scanMeeting(row *sql.Row) (*models.Meeting, error) {
	var m models.Meeting
	var title, agenda sql.NullString
	if err := row.Scan(&m.ID, &m.ScopeID, &m.Date, &title, &agenda); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan meeting: %w", err)
	}
	m.Title = title.String
	if agenda.Valid && agenda.String != "" {
		if err := json.Unmarshal([]byte(agenda.String), &m.AgendaItems); err != nil {
			return nil, fmt.Errorf("failed to unmarshal agenda: %w", err)
		}
	}
	return &m, nil
}

// ItemsForMeeting lists all items belonging to a meeting, agenda order first.
func (s *SQLiteStore) ItemsForMeeting(ctx context.Context, scopeID, meetingID string) ([]*models.SearchableItem, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+itemColumns+` FROM items WHERE scope_id = ? AND meeting_id = ? ORDER BY locator, id`,
		scopeID, meetingID)
	if err != nil {
		return nil, fmt.Errorf("failed to list meeting items: %w", err)
	}
	defer rows.Close()
	return collectItems(rows)
}

// KeyStatementsFor returns key statements linked to the given discussions.
func (s *SQLiteStore) KeyStatementsFor(ctx context.Context, discussionIDs []string) ([]*models.SearchableItem, error) {
	if len(discussionIDs) == 0 {
		return nil, nil
	}
	placeholders := strings.Repeat("?,", len(discussionIDs))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]interface{}, 0, len(discussionIDs)+1)
	args = append(args, string(models.CategoryKeyStatement))
	for _, id := range discussionIDs {
		args = append(args, id)
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+itemColumns+` FROM items WHERE category = ? AND parent_id IN (`+placeholders+`) ORDER BY parent_id, id`,
		args...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch key statements: %w", err)
	}
	defer rows.Close()
	return collectItems(rows)
}

func collectItems(rows *sql.Rows) ([]*models.SearchableItem, error) {
	var out []*models.SearchableItem
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate items: %w", err)
	}
	return out, nil
}

// PutPerson inserts or replaces a person record.
func (s *SQLiteStore) PutPerson(ctx context.Context, id, scopeID, name string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO persons (id, scope_id, name) VALUES (?, ?, ?)`, id, scopeID, name)
	if err != nil {
		return fmt.Errorf("failed to insert person: %w", err)
	}
	return nil
}

// PutMatter inserts or replaces a matter record.
func (s *SQLiteStore) PutMatter(ctx context.Context, id, scopeID, title string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO matters (id, scope_id, title) VALUES (?, ?, ?)`, id, scopeID, title)
	if err != nil {
		return fmt.Errorf("failed to insert matter: %w", err)
	}
	return nil
}

// PutMeeting inserts or replaces a meeting record.
func (s *SQLiteStore) PutMeeting(ctx context.Context, meeting *models.Meeting) error {
	agenda, err := json.Marshal(meeting.AgendaItems)
	if err != nil {
		return fmt.Errorf("failed to marshal agenda: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO meetings (id, scope_id, date, title, agenda) VALUES (?, ?, ?, ?, ?)`,
		meeting.ID, meeting.ScopeID, meeting.Date, meeting.Title, string(agenda))
	if err != nil {
		return fmt.Errorf("failed to insert meeting: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
