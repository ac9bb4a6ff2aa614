package core

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// SessionState tracks a connection through its lifecycle.
type SessionState int32

const (
	// StateConnecting is the initial state after transport accept.
	StateConnecting SessionState = iota
	// StateAuthenticating means the handshake credential is being verified.
	StateAuthenticating
	// StateActive means the session is registered and may issue commands.
	StateActive
	// StateDisconnected is terminal; reached via disconnect or eviction.
	StateDisconnected
	// StateRejected is terminal; the handshake failed before Active.
	StateRejected
)

// Session is one authenticated live connection and its in-memory state.
// It is owned by the gateway that created it; room subscriptions are
// mutated only by the hub goroutine.
type Session struct {
	ID          string
	UserID      int64
	TenantID    int64
	Role        string
	DisplayName string
	Avatar      string
	PublicKey   string

	Commands chan *Command
	Events   chan *Event

	// rooms is the set of subscribed room ids, touched only by the hub.
	rooms map[string]struct{}

	state    atomic.Int32
	done     chan struct{}
	stopOnce sync.Once
}

// NewSession constructs an unauthenticated session in Connecting state.
func NewSession() *Session {
	return &Session{
		ID:       uuid.NewString(),
		Commands: make(chan *Command, 8),
		Events:   make(chan *Event, 32),
		rooms:    make(map[string]struct{}),
		done:     make(chan struct{}),
	}
}

// bind copies the verified identity record onto the session.
func (s *Session) bind(id *Identity) {
	s.UserID = id.UserID
	s.TenantID = id.TenantID
	s.Role = id.Role
	s.DisplayName = id.DisplayName
	s.Avatar = id.Avatar
	s.PublicKey = id.PublicKey
}

// State returns the current lifecycle state.
func (s *Session) State() SessionState {
	return SessionState(s.state.Load())
}

func (s *Session) setState(st SessionState) {
	s.state.Store(int32(st))
}

// send queues an event without blocking. Slow consumers are dropped.
func (s *Session) send(ev *Event) {
	select {
	case s.Events <- ev:
	default:
	}
}

// Done is closed when the session has been torn down.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

func (s *Session) stop() {
	s.stopOnce.Do(func() { close(s.done) })
}

// snapshot captures the sender profile embedded in broadcast messages.
func (s *Session) snapshot() Sender {
	return Sender{
		ID:        s.UserID,
		Name:      s.DisplayName,
		Avatar:    s.Avatar,
		Role:      s.Role,
		PublicKey: s.PublicKey,
	}
}
