package core

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/slatechat/slate-server/internal/store"
)

// opKind tags internal hub operations.
type opKind int

const (
	opRegister opKind = iota
	opUnregister
	opCommand
	opDeliver
	opSnapshot
)

// hubOp is one unit of work for the hub goroutine. All mutation of the
// presence registry and the room table flows through these.
type hubOp struct {
	kind   opKind
	sess   *Session
	cmd    *Command
	chat   string
	event  *Event
	tenant int64
	reply  chan []int64
}

// HubOptions configure the hub's delivery core.
type HubOptions struct {
	Fanout FanoutOptions
	// SingleSessionPerUser closes a superseded session when the same user
	// connects again. When false the old transport is left alone and only
	// the presence mapping moves to the new session.
	SingleSessionPerUser bool
}

// DefaultHubOptions returns the production defaults.
func DefaultHubOptions() HubOptions {
	return HubOptions{
		Fanout:               DefaultFanoutOptions(),
		SingleSessionPerUser: true,
	}
}

// Hub is the delivery core. One goroutine (Run) owns the presence
// registry, the room table, and the live-session set; everything else
// talks to it through the ops channel. Per-session command pumps run
// persistence I/O outside the hub goroutine, so a hung store call stalls
// only the issuing connection.
type Hub struct {
	engine   *FanoutEngine
	registry *presenceRegistry
	router   *router
	sessions map[*Session]struct{}

	ops     chan hubOp
	opts    HubOptions
	log     *zerolog.Logger
	stopped chan struct{}

	runCtx context.Context
}

// NewHub creates the delivery core over the given message store.
func NewHub(st store.MessageStore, opts HubOptions, logger *zerolog.Logger) *Hub {
	h := &Hub{
		registry: newPresenceRegistry(),
		router:   newRouter(),
		sessions: make(map[*Session]struct{}),
		ops:      make(chan hubOp, 1024),
		opts:     opts,
		log:      logger,
		stopped:  make(chan struct{}),
	}
	h.engine = NewFanoutEngine(st, h, opts.Fanout, logger)
	return h
}

// Run processes hub operations until the context is cancelled.
func (h *Hub) Run(ctx context.Context) {
	h.runCtx = ctx
	defer close(h.stopped)
	for {
		select {
		case <-ctx.Done():
			return
		case op := <-h.ops:
			h.handleOp(op)
		}
	}
}

// RegisterSession registers an established session with the delivery core.
// Called by the gateway after a successful handshake.
func (h *Hub) RegisterSession(sess *Session) {
	select {
	case h.ops <- hubOp{kind: opRegister, sess: sess}:
	case <-h.stopped:
	}
}

// UnregisterSession tears a session down after transport closure. Safe to
// call for sessions that were already evicted.
func (h *Hub) UnregisterSession(sess *Session) {
	select {
	case h.ops <- hubOp{kind: opUnregister, sess: sess}:
	case <-h.stopped:
	}
}

// Deliver routes an event to a room's current subscribers. Implements
// Publisher; sequential calls from one goroutine are delivered in order.
func (h *Hub) Deliver(chat string, ev *Event) {
	select {
	case h.ops <- hubOp{kind: opDeliver, chat: chat, event: ev}:
	case <-h.stopped:
	}
}

// OnlineUsers returns the presence snapshot for one tenant. Used by the
// REST presence endpoint.
func (h *Hub) OnlineUsers(ctx context.Context, tenantID int64) ([]int64, error) {
	reply := make(chan []int64, 1)
	select {
	case h.ops <- hubOp{kind: opSnapshot, tenant: tenantID, reply: reply}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	select {
	case ids := <-reply:
		return ids, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (h *Hub) handleOp(op hubOp) {
	switch op.kind {
	case opRegister:
		h.handleRegister(op.sess)
	case opUnregister:
		h.handleUnregister(op.sess)
	case opCommand:
		h.handleCommand(op.sess, op.cmd)
	case opDeliver:
		h.router.publish(op.chat, op.event)
	case opSnapshot:
		op.reply <- h.registry.snapshot(op.tenant)
	}
}

func (h *Hub) handleRegister(sess *Session) {
	prior := h.registry.register(sess)
	if prior != nil && h.opts.SingleSessionPerUser {
		h.evict(prior)
	}

	h.sessions[sess] = struct{}{}
	h.broadcastPresence(&Event{Kind: EventUserOnline, UserID: sess.UserID}, sess)

	go h.pump(h.runCtx, sess)
}

// handleUnregister is the disconnect handler: leave all rooms, drop the
// presence entry, tell tenant peers the user went offline.
func (h *Hub) handleUnregister(sess *Session) {
	if _, ok := h.sessions[sess]; !ok {
		return
	}
	delete(h.sessions, sess)
	h.router.leaveAll(sess)

	removed := h.registry.unregister(sess)
	if removed {
		h.broadcastPresence(&Event{Kind: EventUserOffline, UserID: sess.UserID}, sess)
	}

	// Events stays open: the pump or an in-flight fan-out may still send
	// into it. The transport exits on Done instead.
	sess.setState(StateDisconnected)
	sess.stop()

	h.log.Debug().
		Str("session_id", sess.ID).
		Int64("user_id", sess.UserID).
		Msg("session unregistered")
}

// evict closes a superseded session without an offline broadcast; the
// user is still online through the replacing session.
func (h *Hub) evict(prior *Session) {
	if _, ok := h.sessions[prior]; !ok {
		return
	}
	delete(h.sessions, prior)
	h.router.leaveAll(prior)

	prior.send(&Event{Kind: EventSessionReplaced, Error: coreError(ErrCodeSessionReplaced, "signed in from another connection")})
	prior.setState(StateDisconnected)
	prior.stop()

	h.log.Info().
		Str("session_id", prior.ID).
		Int64("user_id", prior.UserID).
		Msg("session superseded by newer connection")
}

func (h *Hub) handleCommand(sess *Session, cmd *Command) {
	// A command can be queued behind the unregister op that tears its
	// session down; acting on it would re-insert a ghost subscriber.
	if _, ok := h.sessions[sess]; !ok {
		return
	}

	switch cmd.Kind {
	case CommandJoinRooms:
		for _, roomID := range cmd.Rooms {
			if cerr := h.router.join(sess, roomID); cerr != nil {
				sess.send(&Event{Kind: EventError, Chat: roomID, Error: cerr})
			}
		}
	case CommandStartTyping:
		h.relayTyping(sess, EventTypingStarted, cmd.Typing)
	case CommandStopTyping:
		h.relayTyping(sess, EventTypingStopped, cmd.Typing)
	case CommandGetOnlineUsers:
		sess.send(&Event{Kind: EventOnlineUsers, UserIDs: h.registry.snapshot(sess.TenantID)})
	default:
		sess.send(&Event{Kind: EventError, Error: coreError(ErrCodeBadRequest, "unknown command")})
	}
}

// relayTyping broadcasts a typing indicator to the room, originator
// excluded. Never persisted, never membership-checked.
func (h *Hub) relayTyping(sess *Session, kind EventKind, info *TypingInfo) {
	if info == nil {
		return
	}
	h.router.publishExcept(info.Chat, &Event{Kind: kind, Chat: info.Chat, Typing: info}, sess)
}

// broadcastPresence notifies all other live sessions of the same tenant.
func (h *Hub) broadcastPresence(ev *Event, subject *Session) {
	for s := range h.sessions {
		if s == subject || s.TenantID != subject.TenantID {
			continue
		}
		s.send(ev)
	}
}

// pump drains one session's commands in arrival order. Fan-out runs here,
// not in the hub goroutine, so the persistence call suspends only this
// connection; each command runs to completion before the next begins.
func (h *Hub) pump(ctx context.Context, sess *Session) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-sess.Done():
			return
		case cmd, ok := <-sess.Commands:
			if !ok {
				return
			}
			h.dispatch(ctx, sess, cmd)
		}
	}
}

func (h *Hub) dispatch(ctx context.Context, sess *Session, cmd *Command) {
	if sess.State() != StateActive {
		sess.send(&Event{Kind: EventError, Error: coreError(ErrCodeNotActive, "session is not active")})
		return
	}

	switch cmd.Kind {
	case CommandSendMessage:
		h.engine.FanOutSingle(ctx, sess, cmd)
	case CommandSendBatch:
		if err := h.engine.FanOutBatch(ctx, sess, cmd.Batch); err != nil {
			sess.send(&Event{Kind: EventError, Error: coreError(ErrCodeMalformedBatch, err.Error())})
		}
	default:
		select {
		case h.ops <- hubOp{kind: opCommand, sess: sess, cmd: cmd}:
		case <-ctx.Done():
		}
	}
}
