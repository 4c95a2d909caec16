// Package store persists conversations and messages in SQLite.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// ErrNotFound marks lookups of conversations that do not exist.
var ErrNotFound = errors.New("conversation not found")

// Conversation is one chat thread.
type Conversation struct {
	ID        string
	Title     string
	Summary   string
	Pinned    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Message is one turn inside a conversation.
type Message struct {
	ID             int64
	ConversationID string
	Role           string
	Content        string
	CreatedAt      time.Time
}

// Store is a SQLite-backed conversation store.
type Store struct {
	db *sql.DB
}

// Open opens (and creates if needed) the database at path and applies the
// schema. WAL mode keeps readers unblocked during background writes.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create data directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	s := &Store{db: db}
	if err := s.init(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return s, nil
}

func (s *Store) init() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS conversations (
			id          TEXT PRIMARY KEY,
			title       TEXT NOT NULL DEFAULT '',
			summary     TEXT NOT NULL DEFAULT '',
			pinned      INTEGER NOT NULL DEFAULT 0,
			created_at  TEXT NOT NULL,
			updated_at  TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS messages (
			id               INTEGER PRIMARY KEY AUTOINCREMENT,
			conversation_id  TEXT NOT NULL,
			role             TEXT NOT NULL,
			content          TEXT NOT NULL,
			created_at       TEXT NOT NULL,
			FOREIGN KEY (conversation_id) REFERENCES conversations(id) ON DELETE CASCADE
		);

		CREATE INDEX IF NOT EXISTS idx_messages_conversation ON messages(conversation_id);
		CREATE INDEX IF NOT EXISTS idx_conversations_updated ON conversations(updated_at);
	`)
	return err
}

// Close releases the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }

const timeLayout = time.RFC3339Nano

// CreateConversation inserts a new empty conversation and returns it.
func (s *Store) CreateConversation(ctx context.Context, title string) (*Conversation, error) {
	now := time.Now().UTC()
	c := &Conversation{
		ID:        uuid.NewString(),
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO conversations (id, title, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		c.ID, c.Title, now.Format(timeLayout), now.Format(timeLayout))
	if err != nil {
		return nil, fmt.Errorf("create conversation: %w", err)
	}
	return c, nil
}

// GetConversation returns one conversation by id.
func (s *Store) GetConversation(ctx context.Context, id string) (*Conversation, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, title, summary, pinned, created_at, updated_at FROM conversations WHERE id = ?`, id)
	c, err := scanConversation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return c, err
}

// ListConversations returns all conversations, pinned first, most recently
// updated within each group.
func (s *Store) ListConversations(ctx context.Context) ([]Conversation, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, summary, pinned, created_at, updated_at
		 FROM conversations ORDER BY pinned DESC, updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	defer rows.Close()
	var out []Conversation
	for rows.Next() {
		c, err := scanConversation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

// RenameConversation sets a conversation's title.
func (s *Store) RenameConversation(ctx context.Context, id, title string) error {
	return s.updateConversation(ctx,
		`UPDATE conversations SET title = ?, updated_at = ? WHERE id = ?`,
		title, time.Now().UTC().Format(timeLayout), id)
}

// SetPinned pins or unpins a conversation.
func (s *Store) SetPinned(ctx context.Context, id string, pinned bool) error {
	return s.updateConversation(ctx,
		`UPDATE conversations SET pinned = ? WHERE id = ?`, boolToInt(pinned), id)
}

// UpdateSummary stores the background-generated summary and title. An empty
// title leaves the existing one in place.
func (s *Store) UpdateSummary(ctx context.Context, id, title, summary string) error {
	if title == "" {
		return s.updateConversation(ctx,
			`UPDATE conversations SET summary = ? WHERE id = ?`, summary, id)
	}
	return s.updateConversation(ctx,
		`UPDATE conversations SET summary = ?, title = ? WHERE id = ?`, summary, title, id)
}

// DeleteConversation removes a conversation and its messages.
func (s *Store) DeleteConversation(ctx context.Context, id string) error {
	return s.updateConversation(ctx, `DELETE FROM conversations WHERE id = ?`, id)
}

func (s *Store) updateConversation(ctx context.Context, query string, args ...any) error {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update conversation: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// AppendMessage adds one message and bumps the conversation's updated_at.
func (s *Store) AppendMessage(ctx context.Context, conversationID, role, content string) (*Message, error) {
	now := time.Now().UTC()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("append message: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO messages (conversation_id, role, content, created_at) VALUES (?, ?, ?, ?)`,
		conversationID, role, content, now.Format(timeLayout))
	if err != nil {
		return nil, fmt.Errorf("append message: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE conversations SET updated_at = ? WHERE id = ?`,
		now.Format(timeLayout), conversationID); err != nil {
		return nil, fmt.Errorf("bump conversation: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &Message{
		ID:             id,
		ConversationID: conversationID,
		Role:           role,
		Content:        content,
		CreatedAt:      now,
	}, nil
}

// History returns the last limit messages of a conversation in chronological
// order. limit <= 0 returns everything.
func (s *Store) History(ctx context.Context, conversationID string, limit int) ([]Message, error) {
	query := `SELECT id, conversation_id, role, content, created_at
	          FROM messages WHERE conversation_id = ? ORDER BY id DESC`
	args := []any{conversationID}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	defer rows.Close()
	var out []Message
	for rows.Next() {
		var m Message
		var created string
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.Role, &m.Content, &created); err != nil {
			return nil, err
		}
		m.CreatedAt, _ = time.Parse(timeLayout, created)
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	// Query returned newest-first; flip to chronological.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanConversation(row rowScanner) (*Conversation, error) {
	var c Conversation
	var pinned int
	var created, updated string
	if err := row.Scan(&c.ID, &c.Title, &c.Summary, &pinned, &created, &updated); err != nil {
		return nil, err
	}
	c.Pinned = pinned != 0
	c.CreatedAt, _ = time.Parse(timeLayout, created)
	c.UpdatedAt, _ = time.Parse(timeLayout, updated)
	return &c, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
