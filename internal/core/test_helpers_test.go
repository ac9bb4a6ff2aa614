package core

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/slatechat/slate-server/internal/store"
)

func testLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

func newTestHub(t *testing.T, st store.MessageStore, opts HubOptions) *Hub {
	t.Helper()

	hub := NewHub(st, opts, testLogger())
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)

	return hub
}

// activeSession builds a session as the gateway would after a successful
// handshake.
func activeSession(userID, tenantID int64, name string) *Session {
	s := NewSession()
	s.bind(&Identity{
		UserID:      userID,
		TenantID:    tenantID,
		Role:        store.RoleStudent,
		DisplayName: name,
		Avatar:      "https://cdn.example.com/" + name + ".png",
		PublicKey:   "pk-" + name,
	})
	s.setState(StateActive)
	return s
}

func mustEvent(t *testing.T, ch <-chan *Event, kind EventKind) *Event {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		select {
		case ev := <-ch:
			if ev == nil {
				continue
			}
			if ev.Kind == kind {
				return ev
			}
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}
	t.Fatalf("expected event kind %v not received", kind)
	return nil
}

// mustNoEvent asserts that no event of the given kind arrives within the
// grace window.
func mustNoEvent(t *testing.T, ch <-chan *Event, kind EventKind) {
	t.Helper()

	deadline := time.Now().Add(200 * time.Millisecond)
	for time.Now().Before(deadline) {
		select {
		case ev := <-ch:
			if ev == nil {
				return
			}
			if ev.Kind == kind {
				t.Fatalf("unexpected event: %+v", ev)
			}
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}
}

// recordingStore counts SaveMessage calls and can fail the first N.
type recordingStore struct {
	mu       sync.Mutex
	failures int
	calls    int
	saved    []*store.Message
}

func (r *recordingStore) SaveMessage(_ context.Context, msg *store.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.calls++
	if r.calls <= r.failures {
		return errors.New("store down")
	}
	cp := *msg
	r.saved = append(r.saved, &cp)
	msg.ID = int64(len(r.saved))
	return nil
}

func (r *recordingStore) ListMessages(context.Context, string, int, *int64) ([]*store.Message, error) {
	return nil, nil
}

func (r *recordingStore) savedCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.saved)
}

// blockingStore parks SaveMessage until released, to hold a persist
// in flight while the test races teardown against it.
type blockingStore struct {
	entered chan struct{}
	release chan struct{}
}

func newBlockingStore() *blockingStore {
	return &blockingStore{
		entered: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
}

func (b *blockingStore) SaveMessage(ctx context.Context, _ *store.Message) error {
	select {
	case b.entered <- struct{}{}:
	default:
	}
	select {
	case <-b.release:
		return errors.New("store down")
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (b *blockingStore) ListMessages(context.Context, string, int, *int64) ([]*store.Message, error) {
	return nil, nil
}

// capturedDelivery is one Deliver call observed by capturePublisher.
type capturedDelivery struct {
	chat string
	ev   *Event
}

// capturePublisher records Deliver calls for direct engine tests.
type capturePublisher struct {
	deliveries []capturedDelivery
}

func (c *capturePublisher) Deliver(chat string, ev *Event) {
	c.deliveries = append(c.deliveries, capturedDelivery{chat: chat, ev: ev})
}

func (c *capturePublisher) byKind(kind EventKind) []capturedDelivery {
	var out []capturedDelivery
	for _, d := range c.deliveries {
		if d.ev.Kind == kind {
			out = append(out, d)
		}
	}
	return out
}
