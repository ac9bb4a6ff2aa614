package core

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/slatechat/slate-server/internal/store"
)

// AlertMode controls how the batched path emits delivery alerts.
type AlertMode string

const (
	// AlertFirstChat emits exactly one alert to the first descriptor's
	// chat, regardless of how many distinct chats the batch touched.
	// This matches the product's historical behavior and is the default.
	AlertFirstChat AlertMode = "first"
	// AlertPerChat emits one alert per distinct chat id in the batch,
	// in order of first appearance.
	AlertPerChat AlertMode = "per-chat"
)

// Publisher accepts events for delivery to a room's current subscribers.
// The hub implements it by routing through its serializing goroutine, so
// two sequential Deliver calls from one goroutine arrive in order.
type Publisher interface {
	Deliver(chat string, ev *Event)
}

// FanoutOptions tune persistence and alert behavior.
type FanoutOptions struct {
	PersistTimeout time.Duration
	PersistRetries int
	// BroadcastOnStoreFailure keeps delivery available when the durable
	// log is down. When false, a failed persist suppresses the broadcast.
	BroadcastOnStoreFailure bool
	AlertMode               AlertMode
}

// DefaultFanoutOptions returns the production defaults.
func DefaultFanoutOptions() FanoutOptions {
	return FanoutOptions{
		PersistTimeout:          5 * time.Second,
		PersistRetries:          2,
		BroadcastOnStoreFailure: true,
		AlertMode:               AlertFirstChat,
	}
}

// FanoutEngine persists inbound messages and multicasts their transient
// views to room subscribers. Delivery is attempted at most once; there is
// no recipient acknowledgment.
type FanoutEngine struct {
	store store.MessageStore
	pub   Publisher
	opts  FanoutOptions
	log   *zerolog.Logger
}

// NewFanoutEngine builds an engine over the given message store.
func NewFanoutEngine(st store.MessageStore, pub Publisher, opts FanoutOptions, logger *zerolog.Logger) *FanoutEngine {
	if opts.AlertMode == "" {
		opts.AlertMode = AlertFirstChat
	}
	if opts.PersistTimeout <= 0 {
		opts.PersistTimeout = 5 * time.Second
	}
	return &FanoutEngine{store: st, pub: pub, opts: opts, log: logger}
}

// FanOutSingle handles one message from an active session. The view embeds
// a full sender snapshot taken from the session; no extra lookup happens.
func (e *FanoutEngine) FanOutSingle(ctx context.Context, sess *Session, cmd *Command) {
	now := time.Now()
	view := &MessageView{
		Content:     cmd.Content,
		Sender:      sess.snapshot(),
		Chat:        cmd.Chat,
		CreatedAt:   now,
		Attachments: cmd.Attachments,
		Receiver:    cmd.Receiver,
	}

	record := &store.Message{
		ChatID:      cmd.Chat,
		SenderID:    sess.UserID,
		RecipientID: cmd.Receiver,
		TenantID:    sess.TenantID,
		Body:        cmd.Content,
		Attachments: toStoreAttachments(cmd.Attachments),
		CreatedAt:   now,
	}

	if err := e.persist(ctx, record); err != nil {
		e.log.Error().Err(err).
			Str("chat", cmd.Chat).
			Int64("sender", sess.UserID).
			Msg("persist message failed")
		if !e.opts.BroadcastOnStoreFailure {
			sess.send(&Event{Kind: EventError, Error: coreError(ErrCodeBadRequest, "message not stored")})
			return
		}
	}

	e.pub.Deliver(cmd.Chat, &Event{Kind: EventNewMessage, Chat: cmd.Chat, Message: view})
	e.pub.Deliver(cmd.Chat, &Event{Kind: EventMessageAlert, Chat: cmd.Chat})
}

// FanOutBatch handles an ordered batch of message descriptors. Each
// descriptor is persisted and broadcast in sequence; a persistence failure
// is logged and never aborts the rest of the batch. The view on this path
// carries a sender id placeholder only.
func (e *FanoutEngine) FanOutBatch(ctx context.Context, sess *Session, batch []MessageDescriptor) error {
	if len(batch) == 0 {
		return ErrMalformedBatch
	}

	var alertChats []string
	seen := make(map[string]struct{}, len(batch))

	for i := range batch {
		d := &batch[i]
		now := time.Now()

		record := &store.Message{
			ChatID:      d.ChatID,
			SenderID:    d.SenderID,
			RecipientID: d.RecipientID,
			TenantID:    sess.TenantID,
			Body:        d.EncryptedContent,
			Attachments: toStoreAttachments(d.Attachments),
			CreatedAt:   now,
		}
		if err := e.persist(ctx, record); err != nil {
			e.log.Error().Err(err).
				Str("chat", d.ChatID).
				Int64("sender", d.SenderID).
				Int("batch_index", i).
				Msg("persist batched message failed, continuing")
		}

		view := &MessageView{
			Content:     d.EncryptedContent,
			Sender:      Sender{ID: d.SenderID},
			Chat:        d.ChatID,
			CreatedAt:   now,
			Attachments: d.Attachments,
			Receiver:    d.RecipientID,
		}
		e.pub.Deliver(d.ChatID, &Event{Kind: EventNewMessage, Chat: d.ChatID, Message: view})

		if _, ok := seen[d.ChatID]; !ok {
			seen[d.ChatID] = struct{}{}
			alertChats = append(alertChats, d.ChatID)
		}
	}

	if e.opts.AlertMode == AlertFirstChat {
		alertChats = alertChats[:1]
	}
	for _, chat := range alertChats {
		e.pub.Deliver(chat, &Event{Kind: EventMessageAlert, Chat: chat})
	}

	return nil
}

// persist writes to the durable log with a per-attempt timeout and a
// bounded retry budget.
func (e *FanoutEngine) persist(ctx context.Context, msg *store.Message) error {
	if e.store == nil {
		return nil
	}
	var err error
	for attempt := 0; attempt <= e.opts.PersistRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(time.Duration(attempt) * 50 * time.Millisecond):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		attemptCtx, cancel := context.WithTimeout(ctx, e.opts.PersistTimeout)
		err = e.store.SaveMessage(attemptCtx, msg)
		cancel()
		if err == nil {
			return nil
		}
	}
	return err
}

func toStoreAttachments(in []Attachment) []store.Attachment {
	if len(in) == 0 {
		return nil
	}
	out := make([]store.Attachment, len(in))
	for i, a := range in {
		out[i] = store.Attachment{
			Name:     a.Name,
			URL:      a.URL,
			MimeType: a.MimeType,
			Size:     a.Size,
		}
	}
	return out
}
