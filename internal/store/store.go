package store

import (
	"context"
	"time"
)

// User represents a tenant member. Its profile fields back the identity
// record the auth gate hands to the connection gateway.
type User struct {
	ID          int64
	TenantID    int64
	Role        string
	DisplayName string
	Avatar      string
	PublicKey   string
	CreatedAt   time.Time
}

// Roles recognized by the product. The delivery core treats them as opaque
// strings; they only matter for the handshake's claimed-role check.
const (
	RoleAdmin   = "admin"
	RoleTeacher = "teacher"
	RoleStudent = "student"
)

// Message is a row in the durable message log.
type Message struct {
	ID          int64
	ChatID      string
	SenderID    int64
	RecipientID int64
	TenantID    int64
	Body        string
	Attachments []Attachment
	CreatedAt   time.Time
}

// Attachment is a blob reference carried alongside a message. The blob itself
// lives in external storage; only the pointer is persisted here.
type Attachment struct {
	ID       int64
	Name     string
	URL      string
	MimeType string
	Size     int64
}

// UserStore handles user persistence.
type UserStore interface {
	// CreateUser inserts a user and returns it with the assigned ID.
	CreateUser(ctx context.Context, u *User) (*User, error)

	// GetUserByID retrieves a user by ID.
	GetUserByID(ctx context.Context, id int64) (*User, error)

	// ListUsersByTenant lists users belonging to a tenant.
	ListUsersByTenant(ctx context.Context, tenantID int64) ([]*User, error)
}

// MessageStore handles durable message-log persistence.
type MessageStore interface {
	// SaveMessage persists a message together with its attachment rows.
	// The message's ID is set on success.
	SaveMessage(ctx context.Context, msg *Message) error

	// ListMessages retrieves messages from a chat, newest first.
	// If beforeID is provided, returns messages older than that ID.
	// Limit determines max number of messages to return.
	ListMessages(ctx context.Context, chatID string, limit int, beforeID *int64) ([]*Message, error)
}

// Store aggregates all storage interfaces.
type Store interface {
	UserStore
	MessageStore

	// Close closes the underlying database connection.
	Close() error
}
