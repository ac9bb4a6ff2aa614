package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/slatechat/slate-server/internal/store"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	s, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })

	return s
}

func TestUserRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	created, err := s.CreateUser(ctx, &store.User{
		TenantID:    1,
		Role:        store.RoleTeacher,
		DisplayName: "Alice Carter",
		Avatar:      "https://cdn.example.com/a/alice.png",
		PublicKey:   "pk-alice",
	})
	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	if created.ID == 0 {
		t.Fatal("expected assigned user ID")
	}

	got, err := s.GetUserByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetUserByID failed: %v", err)
	}
	if got.TenantID != 1 || got.Role != store.RoleTeacher || got.DisplayName != "Alice Carter" {
		t.Fatalf("unexpected user: %+v", got)
	}
	if got.PublicKey != "pk-alice" {
		t.Fatalf("expected public key to round-trip, got %q", got.PublicKey)
	}
}

func TestGetUserByID_NotFound(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.GetUserByID(context.Background(), 999); err == nil {
		t.Fatal("expected error for missing user")
	}
}

func TestListUsersByTenant(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for i, tenant := range []int64{1, 1, 2} {
		_, err := s.CreateUser(ctx, &store.User{
			TenantID:    tenant,
			Role:        store.RoleStudent,
			DisplayName: "user",
		})
		if err != nil {
			t.Fatalf("create user %d: %v", i, err)
		}
	}

	users, err := s.ListUsersByTenant(ctx, 1)
	if err != nil {
		t.Fatalf("ListUsersByTenant failed: %v", err)
	}
	if len(users) != 2 {
		t.Fatalf("expected 2 users in tenant 1, got %d", len(users))
	}
	for _, u := range users {
		if u.TenantID != 1 {
			t.Fatalf("user %d leaked from tenant %d", u.ID, u.TenantID)
		}
	}
}

func TestSaveMessageWithAttachments(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	msg := &store.Message{
		ChatID:      "chat-42",
		SenderID:    7,
		RecipientID: 8,
		TenantID:    1,
		Body:        "ciphertext",
		CreatedAt:   time.Now().UTC(),
		Attachments: []store.Attachment{
			{Name: "notes.pdf", URL: "https://blobs.example.com/notes.pdf", MimeType: "application/pdf", Size: 1024},
			{Name: "pic.png", URL: "https://blobs.example.com/pic.png", MimeType: "image/png", Size: 2048},
		},
	}

	if err := s.SaveMessage(ctx, msg); err != nil {
		t.Fatalf("SaveMessage failed: %v", err)
	}
	if msg.ID == 0 {
		t.Fatal("expected assigned message ID")
	}

	got, err := s.ListMessages(ctx, "chat-42", 10, nil)
	if err != nil {
		t.Fatalf("ListMessages failed: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 message, got %d", len(got))
	}
	if got[0].Body != "ciphertext" || got[0].SenderID != 7 {
		t.Fatalf("unexpected message: %+v", got[0])
	}
	if len(got[0].Attachments) != 2 {
		t.Fatalf("expected 2 attachments, got %d", len(got[0].Attachments))
	}
	if got[0].Attachments[0].Name != "notes.pdf" {
		t.Fatalf("unexpected attachment order: %+v", got[0].Attachments)
	}
}

func TestListMessagesPagination(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		msg := &store.Message{
			ChatID:    "chat-1",
			SenderID:  1,
			TenantID:  1,
			Body:      "m",
			CreatedAt: time.Now().UTC(),
		}
		if err := s.SaveMessage(ctx, msg); err != nil {
			t.Fatalf("save message %d: %v", i, err)
		}
	}

	page, err := s.ListMessages(ctx, "chat-1", 2, nil)
	if err != nil {
		t.Fatalf("ListMessages failed: %v", err)
	}
	if len(page) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(page))
	}
	// Newest first.
	if page[0].ID <= page[1].ID {
		t.Fatalf("expected descending IDs, got %d then %d", page[0].ID, page[1].ID)
	}

	before := page[1].ID
	older, err := s.ListMessages(ctx, "chat-1", 10, &before)
	if err != nil {
		t.Fatalf("ListMessages with beforeID failed: %v", err)
	}
	if len(older) != 3 {
		t.Fatalf("expected 3 older messages, got %d", len(older))
	}
	for _, m := range older {
		if m.ID >= before {
			t.Fatalf("message %d not older than %d", m.ID, before)
		}
	}
}
