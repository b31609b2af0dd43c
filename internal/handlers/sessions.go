package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"study-cache/internal/cache"
	"study-cache/internal/models"
	"study-cache/internal/telemetry"
	"study-cache/internal/ws"
)

// SessionHandler serves study sessions and orchestrates the companion
// announcement message the session registry itself stays unaware of.
type SessionHandler struct {
	sessions cache.SessionRegistry
	chats    cache.ChatCache
	identity identitySource
	hub      *ws.Hub
	audit    *telemetry.AuditEmitter
}

// NewSessionHandler constructs a SessionHandler.
func NewSessionHandler(sessions cache.SessionRegistry, chats cache.ChatCache, identity identitySource, hub *ws.Hub, audit *telemetry.AuditEmitter) *SessionHandler {
	return &SessionHandler{sessions: sessions, chats: chats, identity: identity, hub: hub, audit: audit}
}

// CreateSession handles POST /groups/:group_id/sessions.
func (h *SessionHandler) CreateSession(c *gin.Context) {
	groupID := c.Param("group_id")

	var req struct {
		Title         string   `json:"title" binding:"required"`
		ScheduledTime string   `json:"scheduled_time" binding:"required"`
		Location      string   `json:"location"`
		Attendees     []string `json:"attendees"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.emitAudit(c, "ERROR", "invalid request payload", "")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	profile, ok := h.identity.Profile(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "no profile stored"})
		return
	}

	session := models.StudySession{
		ID:            uuid.NewString(),
		GroupID:       groupID,
		Title:         req.Title,
		ScheduledTime: req.ScheduledTime,
		Location:      req.Location,
		Attendees:     req.Attendees,
		CreatedBy:     profile.ID,
	}

	if err := h.sessions.Create(c.Request.Context(), session); err != nil {
		h.emitAudit(c, "ERROR", "internal error", profile.ID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store session"})
		return
	}

	announcement := models.ChatMessage{
		ID:         uuid.NewString(),
		GroupID:    groupID,
		SenderID:   profile.ID,
		SenderName: profile.Name,
		Body:       fmt.Sprintf("New study session: %s on %s at %s", session.Title, session.ScheduledTime, session.Location),
		Kind:       models.MessageAnnouncement,
		CreatedAt:  time.Now().UTC(),
	}
	if err := h.chats.Append(c.Request.Context(), groupID, announcement); err != nil {
		// The session itself is stored; a missing announcement is tolerable.
		h.emitAudit(c, "ERROR", "announcement append failed", profile.ID)
	} else if h.hub != nil {
		h.hub.Broadcast(groupID, models.ChatEvent{Type: "session", GroupID: groupID, Message: &announcement, Session: &session})
	}

	h.emitAudit(c, "INFO", "Study session created", profile.ID)
	c.JSON(http.StatusCreated, gin.H{"session": session})
}

// ListSessions handles GET /groups/:group_id/sessions.
func (h *SessionHandler) ListSessions(c *gin.Context) {
	groupID := c.Param("group_id")
	sessions := h.sessions.ForGroup(c.Request.Context(), groupID)
	if sessions == nil {
		sessions = []models.StudySession{}
	}
	c.JSON(http.StatusOK, gin.H{"sessions": sessions})
}

func (h *SessionHandler) emitAudit(c *gin.Context, level, text, userID string) {
	if h.audit == nil {
		return
	}
	h.audit.Emit(c.Request.Context(), level, text, requestIDFromContext(c), userIDPointer(userID))
}
