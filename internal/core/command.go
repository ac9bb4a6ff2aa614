package core

// CommandKind describes what the client wants to do.
type CommandKind int

const (
	// CommandJoinRooms subscribes the session to one or more rooms.
	CommandJoinRooms CommandKind = iota
	// CommandSendMessage fans a single message out to a room.
	CommandSendMessage
	// CommandSendBatch fans an ordered batch of messages out.
	CommandSendBatch
	// CommandStartTyping relays a typing-started indicator to a room.
	CommandStartTyping
	// CommandStopTyping relays a typing-stopped indicator to a room.
	CommandStopTyping
	// CommandGetOnlineUsers requests the presence snapshot.
	CommandGetOnlineUsers
)

// TypingInfo is the relayed payload of a typing indicator.
type TypingInfo struct {
	Chat       string
	SenderID   int64
	SenderName string
}

// Command represents an action requested by a client. Kind selects which
// fields are meaningful; the transport mapper validates shape before a
// command is ever constructed.
type Command struct {
	Kind        CommandKind
	Rooms       []string
	Chat        string
	Content     string
	Receiver    int64
	Attachments []Attachment
	Batch       []MessageDescriptor
	Typing      *TypingInfo
}
