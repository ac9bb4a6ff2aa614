package http

import (
	"encoding/json"

	"github.com/slatechat/slate-server/internal/core"
	"github.com/slatechat/slate-server/internal/proto"
)

// inboundToCommand validates an inbound envelope and converts it to a core
// command. Shape errors come back as protocol errors; only a broken
// envelope is a hard error.
func inboundToCommand(inbound proto.Inbound) (*core.Command, *proto.Error, error) {
	switch inbound.Type {
	case proto.InboundTypeJoinRooms:
		var join proto.JoinRoomsData
		if err := json.Unmarshal(inbound.Data, &join); err != nil {
			return nil, nil, err
		}
		if len(join.Rooms) == 0 {
			return nil, &proto.Error{Code: core.ErrCodeBadRequest, Msg: "rooms are required"}, nil
		}
		for _, room := range join.Rooms {
			if room == "" {
				return nil, &proto.Error{Code: core.ErrCodeBadRequest, Msg: "room id must not be empty"}, nil
			}
		}
		return &core.Command{
			Kind:  core.CommandJoinRooms,
			Rooms: join.Rooms,
		}, nil, nil

	case proto.InboundTypeNewMessage:
		var msg proto.NewMessageData
		if err := json.Unmarshal(inbound.Data, &msg); err != nil {
			return nil, nil, err
		}
		if msg.Chat == "" {
			return nil, &proto.Error{Code: core.ErrCodeBadRequest, Msg: "chat is required"}, nil
		}
		return &core.Command{
			Kind:        core.CommandSendMessage,
			Chat:        msg.Chat,
			Content:     msg.Message.Content,
			Receiver:    msg.Message.Receiver,
			Attachments: toCoreAttachments(msg.Attachments),
		}, nil, nil

	case proto.InboundTypeNewGroupMessage:
		var batch proto.NewGroupMessageData
		if err := json.Unmarshal(inbound.Data, &batch); err != nil {
			return nil, nil, err
		}
		// An empty batch has no first chat id to alert for; reject it
		// here instead of letting the fan-out engine fault.
		if len(batch.Messages) == 0 {
			return nil, &proto.Error{Code: core.ErrCodeMalformedBatch, Msg: "batch must contain at least one message"}, nil
		}
		descriptors := make([]core.MessageDescriptor, 0, len(batch.Messages))
		for _, m := range batch.Messages {
			if m.Chat == "" {
				return nil, &proto.Error{Code: core.ErrCodeBadRequest, Msg: "chat is required for every message"}, nil
			}
			descriptors = append(descriptors, core.MessageDescriptor{
				EncryptedContent: m.EncryptedContent,
				SenderID:         m.SenderID,
				ChatID:           m.Chat,
				RecipientID:      m.RecipientID,
				TenantID:         m.TenantID,
				Attachments:      toCoreAttachments(m.Attachments),
			})
		}
		return &core.Command{
			Kind:  core.CommandSendBatch,
			Batch: descriptors,
		}, nil, nil

	case proto.InboundTypeStartTyping, proto.InboundTypeStopTyping:
		var typing proto.TypingData
		if err := json.Unmarshal(inbound.Data, &typing); err != nil {
			return nil, nil, err
		}
		if typing.Chat == "" {
			return nil, &proto.Error{Code: core.ErrCodeBadRequest, Msg: "chat is required"}, nil
		}
		kind := core.CommandStartTyping
		if inbound.Type == proto.InboundTypeStopTyping {
			kind = core.CommandStopTyping
		}
		return &core.Command{
			Kind: kind,
			Typing: &core.TypingInfo{
				Chat:       typing.Chat,
				SenderID:   typing.SenderID,
				SenderName: typing.SenderName,
			},
		}, nil, nil

	case proto.InboundTypeGetOnlineUsers:
		return &core.Command{Kind: core.CommandGetOnlineUsers}, nil, nil

	default:
		return nil, &proto.Error{Code: "invalid_message", Msg: "unknown message type"}, nil
	}
}

// outboundFromEvent converts a core event to its wire envelope.
func outboundFromEvent(ev *core.Event) proto.Outbound {
	switch ev.Kind {
	case core.EventUserOnline:
		return proto.Outbound{Type: proto.OutboundTypeUserOnline, Data: proto.EventPresence{UserID: ev.UserID}}
	case core.EventUserOffline:
		return proto.Outbound{Type: proto.OutboundTypeUserOffline, Data: proto.EventPresence{UserID: ev.UserID}}
	case core.EventNewMessage:
		return proto.Outbound{Type: proto.OutboundTypeNewMessage, Data: messageViewToWire(ev.Message)}
	case core.EventMessageAlert:
		return proto.Outbound{Type: proto.OutboundTypeMessageAlert, Data: proto.EventMessageAlert{Chat: ev.Chat}}
	case core.EventTypingStarted:
		return proto.Outbound{Type: proto.OutboundTypeStartTyping, Data: typingToWire(ev.Typing)}
	case core.EventTypingStopped:
		return proto.Outbound{Type: proto.OutboundTypeStopTyping, Data: typingToWire(ev.Typing)}
	case core.EventOnlineUsers:
		return proto.Outbound{Type: proto.OutboundTypeOnlineUsers, Data: proto.EventOnlineUsers{UserIDs: ev.UserIDs}}
	case core.EventSessionReplaced:
		return proto.Outbound{Type: proto.OutboundTypeSessionReplaced, Error: coreErrorToWire(ev.Error)}
	case core.EventError:
		return proto.Outbound{Type: proto.OutboundTypeError, Error: coreErrorToWire(ev.Error)}
	default:
		return proto.Outbound{Type: proto.OutboundTypeError, Error: &proto.Error{Code: core.ErrCodeBadRequest, Msg: "unknown event"}}
	}
}

func messageViewToWire(view *core.MessageView) proto.EventNewMessage {
	if view == nil {
		return proto.EventNewMessage{}
	}
	return proto.EventNewMessage{
		Chat:    view.Chat,
		Content: view.Content,
		Sender: proto.SenderSnapshot{
			ID:        view.Sender.ID,
			Name:      view.Sender.Name,
			Avatar:    view.Sender.Avatar,
			Role:      view.Sender.Role,
			PublicKey: view.Sender.PublicKey,
		},
		CreatedAt:   view.CreatedAt.UnixMilli(),
		Attachments: toWireAttachments(view.Attachments),
		Receiver:    view.Receiver,
	}
}

func typingToWire(info *core.TypingInfo) proto.TypingData {
	if info == nil {
		return proto.TypingData{}
	}
	return proto.TypingData{
		Chat:       info.Chat,
		SenderID:   info.SenderID,
		SenderName: info.SenderName,
	}
}

func coreErrorToWire(cerr *core.CoreError) *proto.Error {
	if cerr == nil {
		return nil
	}
	return &proto.Error{Code: cerr.Code, Msg: cerr.Message}
}

func toCoreAttachments(in []proto.Attachment) []core.Attachment {
	if len(in) == 0 {
		return nil
	}
	out := make([]core.Attachment, len(in))
	for i, a := range in {
		out[i] = core.Attachment{Name: a.Name, URL: a.URL, MimeType: a.MimeType, Size: a.Size}
	}
	return out
}

func toWireAttachments(in []core.Attachment) []proto.Attachment {
	if len(in) == 0 {
		return nil
	}
	out := make([]proto.Attachment, len(in))
	for i, a := range in {
		out[i] = proto.Attachment{Name: a.Name, URL: a.URL, MimeType: a.MimeType, Size: a.Size}
	}
	return out
}
