package proto

import "encoding/json"

// Inbound is the envelope for messages coming from the client.
type Inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

const (
	InboundTypeJoinRooms       = "join_rooms"
	InboundTypeNewMessage      = "new_message"
	InboundTypeNewGroupMessage = "new_group_message"
	InboundTypeStartTyping     = "start_typing"
	InboundTypeStopTyping      = "stop_typing"
	InboundTypeGetOnlineUsers  = "get_online_users"

	OutboundTypeUserOnline      = "user_online"
	OutboundTypeUserOffline     = "user_offline"
	OutboundTypeNewMessage      = "new_message"
	OutboundTypeMessageAlert    = "message_alert"
	OutboundTypeStartTyping     = "start_typing"
	OutboundTypeStopTyping      = "stop_typing"
	OutboundTypeOnlineUsers     = "online_users"
	OutboundTypeSessionReplaced = "session_replaced"
	OutboundTypeError           = "error"
)

// JoinRoomsData subscribes the connection to a set of conversations.
type JoinRoomsData struct {
	Rooms []string `json:"rooms"`
}

// MessageBody is the content of a single-message send.
type MessageBody struct {
	Content  string `json:"content"`
	Receiver int64  `json:"receiver,omitempty"`
}

// NewMessageData is a single chat message from the client.
type NewMessageData struct {
	Chat        string       `json:"chat"`
	Message     MessageBody  `json:"message"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

// GroupMessageDescriptor is one element of a batched send.
type GroupMessageDescriptor struct {
	EncryptedContent string       `json:"encrypted_content"`
	SenderID         int64        `json:"sender_id"`
	Chat             string       `json:"chat"`
	RecipientID      int64        `json:"recipient_id,omitempty"`
	TenantID         int64        `json:"tenant_id"`
	Attachments      []Attachment `json:"attachments,omitempty"`
}

// NewGroupMessageData is an ordered batch of messages.
type NewGroupMessageData struct {
	Messages []GroupMessageDescriptor `json:"messages"`
}

// TypingData is a typing indicator relayed to a conversation.
type TypingData struct {
	Chat       string `json:"chat"`
	SenderID   int64  `json:"sender_id"`
	SenderName string `json:"sender_name"`
}

// Attachment is a blob reference as it appears on the wire.
type Attachment struct {
	Name     string `json:"name"`
	URL      string `json:"url"`
	MimeType string `json:"mime_type,omitempty"`
	Size     int64  `json:"size,omitempty"`
}

// Outbound is the envelope for messages sent to the client.
type Outbound struct {
	Type  string `json:"type"`
	Data  any    `json:"data,omitempty"`
	Error *Error `json:"error,omitempty"`
}

// EventPresence notifies that a user came online or went offline.
type EventPresence struct {
	UserID int64 `json:"user_id"`
}

// SenderSnapshot is the profile embedded in a broadcast message.
type SenderSnapshot struct {
	ID        int64  `json:"id"`
	Name      string `json:"name,omitempty"`
	Avatar    string `json:"avatar,omitempty"`
	Role      string `json:"role,omitempty"`
	PublicKey string `json:"public_key,omitempty"`
}

// EventNewMessage delivers a broadcast message view.
type EventNewMessage struct {
	Chat        string         `json:"chat"`
	Content     string         `json:"content"`
	Sender      SenderSnapshot `json:"sender"`
	CreatedAt   int64          `json:"created_at"`
	Attachments []Attachment   `json:"attachments,omitempty"`
	Receiver    int64          `json:"receiver,omitempty"`
}

// EventMessageAlert nudges a conversation that it has new messages.
type EventMessageAlert struct {
	Chat string `json:"chat"`
}

// EventOnlineUsers answers a presence snapshot request.
type EventOnlineUsers struct {
	UserIDs []int64 `json:"user_ids"`
}

// Error describes a protocol-level error response.
type Error struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}
