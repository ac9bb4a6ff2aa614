package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/slatechat/slate-server/internal/proto"
)

func main() {
	if err := run(); err != nil {
		log.Printf("ws_smoke: %v", err)
		os.Exit(1)
	}
}

func run() error {
	addr := flag.String("addr", "ws://localhost:8080/ws", "WebSocket address")
	token := flag.String("token", "", "bearer token (mint one with `slate-server token`)")
	tenant := flag.Int64("tenant", 1, "tenant id the token belongs to")
	role := flag.String("role", "student", "role the token carries")
	chat := flag.String("chat", "chat-1", "chat id to join")
	text := flag.String("text", "hello from smoke test", "message text to send")
	timeout := flag.Duration("timeout", 5*time.Second, "total timeout for the run")
	flag.Parse()

	if *token == "" {
		return fmt.Errorf("a -token is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	url := fmt.Sprintf("%s?token=%s&tenant=%d&role=%s", *addr, *token, *tenant, *role)
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	send := func(typ string, data any) error {
		payload, err := json.Marshal(data)
		if err != nil {
			return fmt.Errorf("marshal %s: %w", typ, err)
		}
		if err := wsjson.Write(ctx, conn, proto.Inbound{Type: typ, Data: payload}); err != nil {
			return fmt.Errorf("send %s: %w", typ, err)
		}
		return nil
	}

	if err := send(proto.InboundTypeJoinRooms, proto.JoinRoomsData{Rooms: []string{*chat}}); err != nil {
		return err
	}
	if err := send(proto.InboundTypeNewMessage, proto.NewMessageData{
		Chat:    *chat,
		Message: proto.MessageBody{Content: *text},
	}); err != nil {
		return err
	}

	for {
		var outbound struct {
			Type  string          `json:"type"`
			Data  json.RawMessage `json:"data"`
			Error *proto.Error    `json:"error,omitempty"`
		}
		if err := wsjson.Read(ctx, conn, &outbound); err != nil {
			return fmt.Errorf("read: %w", err)
		}

		fmt.Printf("Received outbound: type=%s\n", outbound.Type)
		if outbound.Error != nil {
			fmt.Printf("Error: %s (%s)\n", outbound.Error.Msg, outbound.Error.Code)
		}

		switch outbound.Type {
		case proto.OutboundTypeNewMessage:
			var evt proto.EventNewMessage
			if err := json.Unmarshal(outbound.Data, &evt); err != nil {
				fmt.Printf("Raw data: %s\n", string(outbound.Data))
				return fmt.Errorf("unmarshal new_message: %w", err)
			}
			fmt.Printf("Message: chat=%s sender=%d content=%q\n", evt.Chat, evt.Sender.ID, evt.Content)
		case proto.OutboundTypeMessageAlert:
			var evt proto.EventMessageAlert
			if err := json.Unmarshal(outbound.Data, &evt); err == nil {
				fmt.Printf("Alert: chat=%s\n", evt.Chat)
			}
			return nil
		case proto.OutboundTypeUserOnline, proto.OutboundTypeUserOffline:
			var evt proto.EventPresence
			if err := json.Unmarshal(outbound.Data, &evt); err == nil {
				fmt.Printf("Presence: type=%s user=%d\n", outbound.Type, evt.UserID)
			}
		default:
			// keep looping until the alert closes the run
		}
	}
}
