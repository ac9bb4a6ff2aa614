package core

// Room groups sessions subscribed to the same conversation. Rooms have no
// persisted existence; they are created on first join and vanish when the
// last subscriber leaves. TenantID is fixed at creation so delivery can
// never cross tenant boundaries.
type Room struct {
	ID       string
	TenantID int64
	sessions map[*Session]struct{}
}

// NewRoom constructs a room with no subscribers.
func NewRoom(id string, tenantID int64) *Room {
	return &Room{
		ID:       id,
		TenantID: tenantID,
		sessions: make(map[*Session]struct{}),
	}
}

// AddSession inserts a session into the room. Returns true if newly added.
func (r *Room) AddSession(s *Session) bool {
	if _, exists := r.sessions[s]; exists {
		return false
	}
	r.sessions[s] = struct{}{}
	return true
}

// RemoveSession deletes a session from the room. Returns true if removed.
func (r *Room) RemoveSession(s *Session) bool {
	if _, exists := r.sessions[s]; !exists {
		return false
	}
	delete(r.sessions, s)
	return true
}

// Broadcast sends an event to all subscribers, sender included.
func (r *Room) Broadcast(ev *Event) {
	for s := range r.sessions {
		s.send(ev)
	}
}

// BroadcastExcept sends an event to all subscribers but one.
func (r *Room) BroadcastExcept(ev *Event, except *Session) {
	for s := range r.sessions {
		if s == except {
			continue
		}
		s.send(ev)
	}
}

// Empty returns true if no sessions are subscribed.
func (r *Room) Empty() bool {
	return len(r.sessions) == 0
}

// router maps conversation ids to rooms. Owned by the hub goroutine; no
// locking because mutation and iteration are serialized there.
type router struct {
	rooms map[string]*Room
}

func newRouter() *router {
	return &router{rooms: make(map[string]*Room)}
}

// join subscribes the session to a room, creating it on first use.
// Re-joining is a no-op. Joining a room owned by another tenant fails.
func (rt *router) join(sess *Session, roomID string) *CoreError {
	room, ok := rt.rooms[roomID]
	if !ok {
		room = NewRoom(roomID, sess.TenantID)
		rt.rooms[roomID] = room
	}
	if room.TenantID != sess.TenantID {
		return coreError(ErrCodeTenantForbidden, "room belongs to another tenant")
	}
	room.AddSession(sess)
	sess.rooms[roomID] = struct{}{}
	return nil
}

// publish delivers the event to every current subscriber of the room.
func (rt *router) publish(roomID string, ev *Event) {
	if room, ok := rt.rooms[roomID]; ok {
		room.Broadcast(ev)
	}
}

// publishExcept delivers to every subscriber but the originator.
func (rt *router) publishExcept(roomID string, ev *Event, except *Session) {
	if room, ok := rt.rooms[roomID]; ok {
		room.BroadcastExcept(ev, except)
	}
}

// leaveAll removes the session from every room it subscribed to, deleting
// rooms that become empty.
func (rt *router) leaveAll(sess *Session) {
	for roomID := range sess.rooms {
		room, ok := rt.rooms[roomID]
		if !ok {
			continue
		}
		room.RemoveSession(sess)
		if room.Empty() {
			delete(rt.rooms, roomID)
		}
	}
	sess.rooms = make(map[string]struct{})
}
