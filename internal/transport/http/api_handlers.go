package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/slatechat/slate-server/internal/core"
	"github.com/slatechat/slate-server/internal/store"
)

// APIHandlers provides HTTP handlers for REST API endpoints.
type APIHandlers struct {
	hub      *core.Hub
	messages store.MessageStore
	log      *zerolog.Logger
}

// NewAPIHandlers creates a new API handlers instance.
func NewAPIHandlers(hub *core.Hub, messages store.MessageStore, logger *zerolog.Logger) *APIHandlers {
	return &APIHandlers{
		hub:      hub,
		messages: messages,
		log:      logger,
	}
}

// ErrorResponse represents an error response body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// OnlineResponse lists the caller's tenant peers that are currently online.
type OnlineResponse struct {
	UserIDs []int64 `json:"user_ids"`
}

// MessageRecord is one persisted message as returned by the history API.
type MessageRecord struct {
	ID        int64  `json:"id"`
	Chat      string `json:"chat"`
	SenderID  int64  `json:"sender_id"`
	Content   string `json:"content"`
	CreatedAt int64  `json:"created_at"`
}

// MessagesResponse is a page of message history, newest first.
type MessagesResponse struct {
	Messages []MessageRecord `json:"messages"`
}

// Online returns the presence snapshot for the caller's tenant.
// GET /api/online
func (h *APIHandlers) Online(c *gin.Context) {
	tenantID := c.GetInt64(ContextKeyTenantID)

	userIDs, err := h.hub.OnlineUsers(c.Request.Context(), tenantID)
	if err != nil {
		h.log.Error().Err(err).Int64("tenant_id", tenantID).Msg("failed to snapshot presence")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	c.JSON(http.StatusOK, OnlineResponse{UserIDs: userIDs})
}

// Messages returns a page of persisted history for one conversation.
// GET /api/messages?chat=<id>&limit=<n>&before=<message id>
func (h *APIHandlers) Messages(c *gin.Context) {
	chat := c.Query("chat")
	if chat == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "chat is required"})
		return
	}

	limit := 50
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > 200 {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid limit"})
			return
		}
		limit = n
	}

	var beforeID *int64
	if raw := c.Query("before"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid before cursor"})
			return
		}
		beforeID = &n
	}

	msgs, err := h.messages.ListMessages(c.Request.Context(), chat, limit, beforeID)
	if err != nil {
		h.log.Error().Err(err).Str("chat", chat).Msg("failed to list messages")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	tenantID := c.GetInt64(ContextKeyTenantID)
	records := make([]MessageRecord, 0, len(msgs))
	for _, m := range msgs {
		// History rows from another tenant never leave the server.
		if m.TenantID != 0 && m.TenantID != tenantID {
			continue
		}
		records = append(records, MessageRecord{
			ID:        m.ID,
			Chat:      m.ChatID,
			SenderID:  m.SenderID,
			Content:   m.Body,
			CreatedAt: m.CreatedAt.UnixMilli(),
		})
	}

	c.JSON(http.StatusOK, MessagesResponse{Messages: records})
}
