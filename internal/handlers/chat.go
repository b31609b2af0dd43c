package handlers

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"study-cache/internal/cache"
	"study-cache/internal/models"
	"study-cache/internal/remote"
	"study-cache/internal/telemetry"
	"study-cache/internal/ws"
)

// identitySource exposes the cached profile used to stamp local writes.
type identitySource interface {
	Profile(ctx context.Context) (models.UserProfile, bool)
}

// ChatHandler serves the group chat cache to the UI shell.
type ChatHandler struct {
	chats    cache.ChatCache
	identity identitySource
	api      remote.API
	hub      *ws.Hub
	audit    *telemetry.AuditEmitter
}

// NewChatHandler constructs a ChatHandler.
func NewChatHandler(chats cache.ChatCache, identity identitySource, api remote.API, hub *ws.Hub, audit *telemetry.AuditEmitter) *ChatHandler {
	return &ChatHandler{chats: chats, identity: identity, api: api, hub: hub, audit: audit}
}

// GetGroupChat handles GET /groups/:group_id/chat.
func (h *ChatHandler) GetGroupChat(c *gin.Context) {
	groupID := c.Param("group_id")
	chat := h.chats.Chat(c.Request.Context(), groupID)

	profile, _ := h.identity.Profile(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{
		"group_id":     chat.GroupID,
		"messages":     chat.Messages,
		"last_read_at": chat.LastReadAt,
		"unread_count": chat.UnreadFor(profile.ID),
	})
}

// PostMessage handles POST /groups/:group_id/messages: the optimistic
// local append happens first, then the remote send. A failed send leaves
// the local message in place and is reported as undelivered.
func (h *ChatHandler) PostMessage(c *gin.Context) {
	groupID := c.Param("group_id")

	var req struct {
		Body     string             `json:"body"`
		Kind     models.MessageKind `json:"kind"`
		MediaRef string             `json:"media_ref"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.emitAudit(c, "ERROR", "invalid request payload", "")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Kind == "" {
		req.Kind = models.MessageText
	}
	if req.Body == "" && req.MediaRef == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "empty message"})
		return
	}

	profile, ok := h.identity.Profile(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "no profile stored"})
		return
	}

	msg := models.ChatMessage{
		ID:         uuid.NewString(),
		GroupID:    groupID,
		SenderID:   profile.ID,
		SenderName: profile.Name,
		Body:       req.Body,
		Kind:       req.Kind,
		MediaRef:   req.MediaRef,
		CreatedAt:  time.Now().UTC(),
	}

	if err := h.chats.Append(c.Request.Context(), groupID, msg); err != nil {
		h.emitAudit(c, "ERROR", "internal error", profile.ID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store message"})
		return
	}
	h.broadcast(groupID, models.ChatEvent{Type: "message", GroupID: groupID, Message: &msg})

	delivered := true
	if err := h.api.SendMessage(c.Request.Context(), groupID, msg.Body, msg.Kind); err != nil {
		delivered = false
		log.Printf("send message to backend failed: %v", err)
	}

	h.emitAudit(c, "INFO", "Group message sent", profile.ID)
	c.JSON(http.StatusCreated, gin.H{"message": msg, "delivered": delivered})
}

// ToggleReaction handles POST /groups/:group_id/messages/:message_id/reactions.
func (h *ChatHandler) ToggleReaction(c *gin.Context) {
	groupID := c.Param("group_id")
	messageID := c.Param("message_id")

	var req struct {
		Emoji string `json:"emoji" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	profile, ok := h.identity.Profile(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "no profile stored"})
		return
	}

	if err := h.chats.ToggleReaction(c.Request.Context(), groupID, messageID, profile.ID, profile.Name, req.Emoji); err != nil {
		h.emitAudit(c, "ERROR", "internal error", profile.ID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store reaction"})
		return
	}
	h.broadcast(groupID, models.ChatEvent{Type: "reaction", GroupID: groupID, MessageID: messageID})

	if err := h.api.ToggleReaction(c.Request.Context(), groupID, messageID, req.Emoji); err != nil {
		log.Printf("toggle reaction on backend failed: %v", err)
	}

	c.Status(http.StatusNoContent)
}

// MarkRead handles POST /groups/:group_id/read.
func (h *ChatHandler) MarkRead(c *gin.Context) {
	groupID := c.Param("group_id")

	if err := h.chats.MarkRead(c.Request.Context(), groupID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to mark read"})
		return
	}
	h.broadcast(groupID, models.ChatEvent{Type: "read", GroupID: groupID})
	c.Status(http.StatusNoContent)
}

func (h *ChatHandler) broadcast(groupID string, event models.ChatEvent) {
	if h.hub != nil {
		h.hub.Broadcast(groupID, event)
	}
}

func (h *ChatHandler) emitAudit(c *gin.Context, level, text, userID string) {
	if h.audit == nil {
		return
	}
	h.audit.Emit(c.Request.Context(), level, text, requestIDFromContext(c), userIDPointer(userID))
}
