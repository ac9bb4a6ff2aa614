package core

import "time"

// MessageDescriptor is one inbound message of a batched send. It is
// consumed once by the fan-out engine.
type MessageDescriptor struct {
	EncryptedContent string
	SenderID         int64
	ChatID           string
	RecipientID      int64
	TenantID         int64
	Attachments      []Attachment
}

// Attachment is a blob reference as it appears on the wire. Deliberately
// decoupled from the store's attachment row.
type Attachment struct {
	Name     string
	URL      string
	MimeType string
	Size     int64
}

// Sender is the profile snapshot embedded in a broadcast message.
type Sender struct {
	ID        int64
	Name      string
	Avatar    string
	Role      string
	PublicKey string
}

// MessageView is the transient broadcast shape of a message. CreatedAt is
// the wall-clock time of delivery, not the store's timestamp; the view is
// decoupled from whatever the message log persists.
type MessageView struct {
	Content     string
	Sender      Sender
	Chat        string
	CreatedAt   time.Time
	Attachments []Attachment
	Receiver    int64
}
