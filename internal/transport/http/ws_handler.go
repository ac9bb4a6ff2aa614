package http

import (
	"context"
	"errors"
	"io"
	stdhttp "net/http"
	"strconv"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"

	"github.com/slatechat/slate-server/internal/core"
	"github.com/slatechat/slate-server/internal/proto"
)

// WSHandler upgrades HTTP connections, runs the handshake through the
// gateway, and bridges the socket to a core.Session.
type WSHandler struct {
	gateway   *core.Gateway
	hub       *core.Hub
	rateLimit int
	log       *zerolog.Logger
}

// NewWSHandler builds a new WebSocket handler.
func NewWSHandler(gateway *core.Gateway, hub *core.Hub, rateLimit int, logger *zerolog.Logger) stdhttp.Handler {
	return &WSHandler{gateway: gateway, hub: hub, rateLimit: rateLimit, log: logger}
}

func (h *WSHandler) ServeHTTP(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	ctx := r.Context()

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("ws accept error")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "internal error")

	credential := bearerCredential(r)
	claimedTenant, _ := strconv.ParseInt(r.URL.Query().Get("tenant"), 10, 64)
	claimedRole := r.URL.Query().Get("role")

	sess, err := h.gateway.Establish(ctx, credential, claimedTenant, claimedRole)
	if err != nil {
		var authErr *core.AuthError
		reason := "handshake rejected"
		if errors.As(err, &authErr) {
			reason = authErr.Code
		}
		h.log.Debug().Err(err).Str("remote", r.RemoteAddr).Msg("ws handshake rejected")
		conn.Close(websocket.StatusPolicyViolation, reason)
		return
	}
	defer h.hub.UnregisterSession(sess)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 2)
	go func() {
		errCh <- h.readLoop(ctx, conn, sess)
	}()
	go func() {
		errCh <- h.writeLoop(ctx, conn, sess)
	}()

	err = <-errCh
	cancel() // stop the other goroutine
	<-errCh

	status := websocket.StatusNormalClosure
	reason := "closing"
	if err != nil && !errors.Is(err, context.Canceled) {
		if errors.Is(err, io.EOF) {
			err = nil
		}
		if s := websocket.CloseStatus(err); s != 0 {
			status = s
		}
		if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
			err = nil
		}
		if err != nil {
			if status == websocket.StatusNormalClosure {
				status = websocket.StatusInternalError
			}
			reason = err.Error()
			h.log.Warn().Err(err).Msg("ws connection closed with error")
		}
	}

	conn.Close(status, reason)
}

// bearerCredential extracts the token from the Authorization header, the
// "token" cookie, or the "token" query parameter, in that order. Browser
// WebSocket clients cannot set headers, hence the fallbacks.
func bearerCredential(r *stdhttp.Request) string {
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		const prefix = "Bearer "
		if len(authHeader) > len(prefix) && authHeader[:len(prefix)] == prefix {
			return authHeader[len(prefix):]
		}
		return ""
	}
	if cookie, err := r.Cookie("token"); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	return r.URL.Query().Get("token")
}

func (h *WSHandler) readLoop(ctx context.Context, conn *websocket.Conn, sess *core.Session) error {
	limiter := newRateLimiter(h.rateLimit)
	limiter.startReset(ctx.Done())

	for {
		var inbound proto.Inbound
		if err := wsjson.Read(ctx, conn, &inbound); err != nil {
			return err
		}

		if !limiter.allow() {
			if writeErr := wsjson.Write(ctx, conn, proto.Outbound{
				Type:  proto.OutboundTypeError,
				Error: &proto.Error{Code: "rate_limited", Msg: "too many messages"},
			}); writeErr != nil {
				return writeErr
			}
			continue
		}

		cmd, protoErr, err := inboundToCommand(inbound)
		if err != nil {
			h.log.Warn().Err(err).Str("session_id", sess.ID).Msg("failed to map inbound")
			return err
		}
		if protoErr != nil {
			if writeErr := wsjson.Write(ctx, conn, proto.Outbound{
				Type:  proto.OutboundTypeError,
				Error: protoErr,
			}); writeErr != nil {
				return writeErr
			}
			continue
		}
		if cmd != nil {
			select {
			case sess.Commands <- cmd:
			case <-sess.Done():
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}

func (h *WSHandler) writeLoop(ctx context.Context, conn *websocket.Conn, sess *core.Session) error {
	for {
		select {
		case event := <-sess.Events:
			if err := wsjson.Write(ctx, conn, outboundFromEvent(event)); err != nil {
				h.log.Error().Err(err).Str("session_id", sess.ID).Msg("write ws event")
				return err
			}
		case <-sess.Done():
			// Teardown or eviction. The Events channel is never closed;
			// flush what was queued before the stop (the replacement
			// notice on eviction) and exit.
			for {
				select {
				case event := <-sess.Events:
					if err := wsjson.Write(ctx, conn, outboundFromEvent(event)); err != nil {
						return err
					}
				default:
					return nil
				}
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
