package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"study-cache/internal/cache"
	"study-cache/internal/remote"
	"study-cache/internal/telemetry"
)

// NotificationHandler serves the notification feed and proxies the
// request actions that notifications carry.
type NotificationHandler struct {
	feed  cache.NotificationFeed
	api   remote.API
	audit *telemetry.AuditEmitter
}

// NewNotificationHandler constructs a NotificationHandler.
func NewNotificationHandler(feed cache.NotificationFeed, api remote.API, audit *telemetry.AuditEmitter) *NotificationHandler {
	return &NotificationHandler{feed: feed, api: api, audit: audit}
}

// GetNotifications handles GET /notifications. With ?refresh=1 it polls
// the backend first; a failed poll still answers 200 with the last cached
// list and a non-fatal error field.
func (h *NotificationHandler) GetNotifications(c *gin.Context) {
	if c.Query("refresh") == "1" {
		result, err := h.feed.Refresh(c.Request.Context())
		body := gin.H{
			"notifications": result.Notifications,
			"unread_count":  result.UnreadCount,
		}
		if err != nil {
			log.Printf("notification refresh failed: %v", err)
			body["error"] = "refresh failed, showing cached notifications"
		}
		c.JSON(http.StatusOK, body)
		return
	}

	result := h.feed.Notifications(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{
		"notifications": result.Notifications,
		"unread_count":  result.UnreadCount,
	})
}

// MarkRead handles POST /notifications/:notification_id/read.
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	notificationID := c.Param("notification_id")
	if err := h.feed.MarkRead(c.Request.Context(), notificationID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to mark read"})
		return
	}
	c.Status(http.StatusNoContent)
}

// ResolveJoinRequest handles POST /groups/:group_id/requests/:requester_id/:action.
func (h *NotificationHandler) ResolveJoinRequest(c *gin.Context) {
	groupID := c.Param("group_id")
	requesterID := c.Param("requester_id")

	var err error
	switch action := c.Param("action"); action {
	case "approve":
		err = h.api.ApproveJoinRequest(c.Request.Context(), groupID, requesterID)
	case "reject":
		err = h.api.RejectJoinRequest(c.Request.Context(), groupID, requesterID)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown action"})
		return
	}
	if err != nil {
		h.emitAudit(c, "ERROR", "join request action failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	h.refreshAfterAction(c)
	h.emitAudit(c, "INFO", "Join request resolved")
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// ResolveFriendRequest handles POST /friends/requests/:request_id/:action.
func (h *NotificationHandler) ResolveFriendRequest(c *gin.Context) {
	requestID := c.Param("request_id")

	var err error
	switch action := c.Param("action"); action {
	case "accept":
		err = h.api.AcceptFriendRequest(c.Request.Context(), requestID)
	case "reject":
		err = h.api.RejectFriendRequest(c.Request.Context(), requestID)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown action"})
		return
	}
	if err != nil {
		h.emitAudit(c, "ERROR", "friend request action failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	h.refreshAfterAction(c)
	h.emitAudit(c, "INFO", "Friend request resolved")
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// refreshAfterAction re-polls so the acted-on notification disappears from
// the next snapshot. Best-effort: the periodic poll catches up anyway.
func (h *NotificationHandler) refreshAfterAction(c *gin.Context) {
	if _, err := h.feed.Refresh(c.Request.Context()); err != nil {
		log.Printf("post-action notification refresh failed: %v", err)
	}
}

func (h *NotificationHandler) emitAudit(c *gin.Context, level, text string) {
	if h.audit == nil {
		return
	}
	h.audit.Emit(c.Request.Context(), level, text, requestIDFromContext(c), nil)
}
