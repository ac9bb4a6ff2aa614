package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"github.com/slatechat/slate-server/internal/store"
)

// schema is applied on open. CREATE IF NOT EXISTS keeps reopening a
// populated database cheap.
const schema = `
CREATE TABLE IF NOT EXISTS users (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	tenant_id    INTEGER NOT NULL,
	role         TEXT NOT NULL DEFAULT 'student',
	display_name TEXT NOT NULL,
	avatar       TEXT NOT NULL DEFAULT '',
	public_key   TEXT NOT NULL DEFAULT '',
	created_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS messages (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	chat_id      TEXT NOT NULL,
	sender_id    INTEGER NOT NULL,
	recipient_id INTEGER NOT NULL DEFAULT 0,
	tenant_id    INTEGER NOT NULL,
	body         TEXT NOT NULL,
	created_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	FOREIGN KEY (sender_id) REFERENCES users(id)
);

CREATE TABLE IF NOT EXISTS attachments (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	message_id INTEGER NOT NULL,
	name       TEXT NOT NULL,
	url        TEXT NOT NULL,
	mime_type  TEXT NOT NULL DEFAULT '',
	size       INTEGER NOT NULL DEFAULT 0,
	FOREIGN KEY (message_id) REFERENCES messages(id)
);

CREATE INDEX IF NOT EXISTS idx_messages_chat ON messages(chat_id, id DESC);
CREATE INDEX IF NOT EXISTS idx_users_tenant ON users(tenant_id);
CREATE INDEX IF NOT EXISTS idx_attachments_message ON attachments(message_id);
`

// SQLiteStore implements store.Store for SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// New creates a new SQLite store and applies the schema.
// dbPath is the path to the SQLite database file.
func New(dbPath string) (*SQLiteStore, error) {
	return NewWithSetup(dbPath, func(db *sql.DB) error {
		_, err := db.Exec(schema)
		return err
	})
}

// NewWithSetup creates a new SQLite store and runs a setup function.
// Useful for tests to apply a custom schema.
func NewWithSetup(dbPath string, setup func(*sql.DB) error) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// SQLite works best with a single connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if setup != nil {
		if err := setup(db); err != nil {
			db.Close()
			return nil, fmt.Errorf("setup: %w", err)
		}
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ==== UserStore implementation ====

// CreateUser inserts a user and returns it with the assigned ID.
func (s *SQLiteStore) CreateUser(ctx context.Context, u *store.User) (*store.User, error) {
	query := `
		INSERT INTO users (tenant_id, role, display_name, avatar, public_key)
		VALUES (?, ?, ?, ?, ?)
	`
	result, err := s.db.ExecContext(ctx, query, u.TenantID, u.Role, u.DisplayName, u.Avatar, u.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("get last insert id: %w", err)
	}

	return s.GetUserByID(ctx, id)
}

// GetUserByID retrieves a user by ID.
func (s *SQLiteStore) GetUserByID(ctx context.Context, id int64) (*store.User, error) {
	query := `
		SELECT id, tenant_id, role, display_name, avatar, public_key, created_at
		FROM users
		WHERE id = ?
	`
	var user store.User
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&user.ID,
		&user.TenantID,
		&user.Role,
		&user.DisplayName,
		&user.Avatar,
		&user.PublicKey,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user not found: %w", err)
		}
		return nil, fmt.Errorf("query user: %w", err)
	}

	return &user, nil
}

// ListUsersByTenant lists users belonging to a tenant.
func (s *SQLiteStore) ListUsersByTenant(ctx context.Context, tenantID int64) ([]*store.User, error) {
	query := `
		SELECT id, tenant_id, role, display_name, avatar, public_key, created_at
		FROM users
		WHERE tenant_id = ?
		ORDER BY id ASC
	`
	rows, err := s.db.QueryContext(ctx, query, tenantID)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	var users []*store.User
	for rows.Next() {
		var user store.User
		if err := rows.Scan(
			&user.ID,
			&user.TenantID,
			&user.Role,
			&user.DisplayName,
			&user.Avatar,
			&user.PublicKey,
			&user.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, &user)
	}

	return users, rows.Err()
}

// ==== MessageStore implementation ====

// SaveMessage persists a message and its attachment rows in one transaction.
func (s *SQLiteStore) SaveMessage(ctx context.Context, msg *store.Message) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query := `
		INSERT INTO messages (chat_id, sender_id, recipient_id, tenant_id, body, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	result, err := tx.ExecContext(ctx, query,
		msg.ChatID, msg.SenderID, msg.RecipientID, msg.TenantID, msg.Body, msg.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get last insert id: %w", err)
	}

	attachmentQuery := `
		INSERT INTO attachments (message_id, name, url, mime_type, size)
		VALUES (?, ?, ?, ?, ?)
	`
	for i := range msg.Attachments {
		a := &msg.Attachments[i]
		res, err := tx.ExecContext(ctx, attachmentQuery, id, a.Name, a.URL, a.MimeType, a.Size)
		if err != nil {
			return fmt.Errorf("insert attachment: %w", err)
		}
		if a.ID, err = res.LastInsertId(); err != nil {
			return fmt.Errorf("get attachment id: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	msg.ID = id
	return nil
}

// ListMessages retrieves messages from a chat, newest first.
func (s *SQLiteStore) ListMessages(ctx context.Context, chatID string, limit int, beforeID *int64) ([]*store.Message, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, chat_id, sender_id, recipient_id, tenant_id, body, created_at
		FROM messages
		WHERE chat_id = ?
	`
	args := []any{chatID}
	if beforeID != nil {
		query += " AND id < ?"
		args = append(args, *beforeID)
	}
	query += " ORDER BY id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	var messages []*store.Message
	for rows.Next() {
		var msg store.Message
		if err := rows.Scan(
			&msg.ID,
			&msg.ChatID,
			&msg.SenderID,
			&msg.RecipientID,
			&msg.TenantID,
			&msg.Body,
			&msg.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		messages = append(messages, &msg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, msg := range messages {
		if err := s.loadAttachments(ctx, msg); err != nil {
			return nil, err
		}
	}

	return messages, nil
}

func (s *SQLiteStore) loadAttachments(ctx context.Context, msg *store.Message) error {
	query := `
		SELECT id, name, url, mime_type, size
		FROM attachments
		WHERE message_id = ?
		ORDER BY id ASC
	`
	rows, err := s.db.QueryContext(ctx, query, msg.ID)
	if err != nil {
		return fmt.Errorf("query attachments: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var a store.Attachment
		if err := rows.Scan(&a.ID, &a.Name, &a.URL, &a.MimeType, &a.Size); err != nil {
			return fmt.Errorf("scan attachment: %w", err)
		}
		msg.Attachments = append(msg.Attachments, a)
	}

	return rows.Err()
}
