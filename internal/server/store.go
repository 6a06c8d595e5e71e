package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// ErrChatNotFound is returned when a chat id has no row.
var ErrChatNotFound = errors.New("chat not found")

// User is an authenticated caller. Credential handling beyond the API-key
// lookup lives outside this service.
type User struct {
	ID       int64
	Username string
}

// ChatMessage is one transcript row, ordered by creation time.
type ChatMessage struct {
	ID        int64     `json:"id"`
	ChatID    string    `json:"chat_id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// ChatStore keeps the chat catalog: users, chats and their display
// transcripts. The authoritative conversation state for the model lives in
// the state repository; these rows back the HTTP read surface.
type ChatStore struct {
	db *sql.DB
}

// NewChatStore opens (creating if needed) the sqlite catalog at path.
func NewChatStore(path string) (*ChatStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open chat database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping chat database: %w", err)
	}

	store := &ChatStore{db: db}
	if err := store.initialize(); err != nil {
		return nil, fmt.Errorf("initialize chat database: %w", err)
	}
	return store, nil
}

func (s *ChatStore) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY,
		username TEXT NOT NULL UNIQUE,
		api_key TEXT NOT NULL UNIQUE
	);
	CREATE TABLE IF NOT EXISTS chats (
		id TEXT PRIMARY KEY,
		owner_id INTEGER NOT NULL REFERENCES users(id),
		title TEXT NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL
	);
	CREATE TABLE IF NOT EXISTS messages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		chat_id TEXT NOT NULL REFERENCES chats(id),
		role TEXT NOT NULL,
		content TEXT NOT NULL,
		created_at DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_messages_chat ON messages(chat_id, created_at);
	CREATE INDEX IF NOT EXISTS idx_chats_owner ON chats(owner_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Bootstrap upserts a user credential. Used for local development seeding and
// tests; real account management is out of scope here.
func (s *ChatStore) Bootstrap(ctx context.Context, username, apiKey string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (username, api_key) VALUES (?, ?)
		 ON CONFLICT(username) DO UPDATE SET api_key = excluded.api_key`,
		username, apiKey,
	)
	return err
}

// UserByAPIKey resolves the caller for the auth middleware.
func (s *ChatStore) UserByAPIKey(ctx context.Context, apiKey string) (*User, error) {
	var u User
	err := s.db.QueryRowContext(ctx,
		`SELECT id, username FROM users WHERE api_key = ?`, apiKey,
	).Scan(&u.ID, &u.Username)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// CreateChat registers a new chat owned by the user.
func (s *ChatStore) CreateChat(ctx context.Context, chatID string, ownerID int64) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO chats (id, owner_id, created_at) VALUES (?, ?, ?)`,
		chatID, ownerID, time.Now().UTC(),
	)
	return err
}

// ChatOwner returns the owning user id, or ErrChatNotFound.
func (s *ChatStore) ChatOwner(ctx context.Context, chatID string) (int64, error) {
	var ownerID int64
	err := s.db.QueryRowContext(ctx,
		`SELECT owner_id FROM chats WHERE id = ?`, chatID,
	).Scan(&ownerID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrChatNotFound
	}
	if err != nil {
		return 0, err
	}
	return ownerID, nil
}

// SetTitle stores the generated display name for a chat.
func (s *ChatStore) SetTitle(ctx context.Context, chatID, title string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE chats SET title = ? WHERE id = ?`, title, chatID,
	)
	return err
}

// Transcript returns the chat's messages in conversation order.
func (s *ChatStore) Transcript(ctx context.Context, chatID string) ([]ChatMessage, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, chat_id, role, content, created_at
		 FROM messages WHERE chat_id = ? ORDER BY created_at, id`, chatID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	msgs := []ChatMessage{}
	for rows.Next() {
		var m ChatMessage
		if err := rows.Scan(&m.ID, &m.ChatID, &m.Role, &m.Content, &m.CreatedAt); err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

// MessageCount returns the number of transcript rows for a chat.
func (s *ChatStore) MessageCount(ctx context.Context, chatID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM messages WHERE chat_id = ?`, chatID,
	).Scan(&n)
	return n, err
}

// AppendExchange records one completed turn: the user query and the final
// assistant reply, in a single transaction.
func (s *ChatStore) AppendExchange(ctx context.Context, chatID, userQuery, answer string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO messages (chat_id, role, content, created_at) VALUES (?, ?, ?, ?)`,
		chatID, "human", userQuery, now,
	); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO messages (chat_id, role, content, created_at) VALUES (?, ?, ?, ?)`,
		chatID, "ai", answer, now,
	); err != nil {
		return err
	}
	return tx.Commit()
}

// DeleteChat removes the chat row and its transcript.
func (s *ChatStore) DeleteChat(ctx context.Context, chatID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM messages WHERE chat_id = ?`, chatID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM chats WHERE id = ?`, chatID); err != nil {
		return err
	}
	return tx.Commit()
}

// ChatIDs lists the user's chats, most recent first.
func (s *ChatStore) ChatIDs(ctx context.Context, ownerID int64) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id FROM chats WHERE owner_id = ? ORDER BY created_at DESC`, ownerID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Close releases the database handle.
func (s *ChatStore) Close() error {
	return s.db.Close()
}
