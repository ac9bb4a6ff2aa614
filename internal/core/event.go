package core

// EventKind is a notification the core emits to clients.
type EventKind int

const (
	// EventUserOnline notifies tenant peers that a user connected.
	EventUserOnline EventKind = iota
	// EventUserOffline notifies tenant peers that a user disconnected.
	EventUserOffline
	// EventNewMessage delivers a broadcast message to room subscribers.
	EventNewMessage
	// EventMessageAlert nudges a room that it has new messages.
	EventMessageAlert
	// EventTypingStarted relays a typing-started indicator.
	EventTypingStarted
	// EventTypingStopped relays a typing-stopped indicator.
	EventTypingStopped
	// EventOnlineUsers answers a presence snapshot request.
	EventOnlineUsers
	// EventSessionReplaced tells a superseded session it is being closed.
	EventSessionReplaced
	// EventError notifies a client about a domain error.
	EventError
)

// Event is sent to clients to describe what happened in the system.
type Event struct {
	Kind    EventKind
	Chat    string
	UserID  int64
	Message *MessageView
	Typing  *TypingInfo
	UserIDs []int64
	Error   *CoreError
}
