// Package remote is the network boundary to the study-group backend.
package remote

import (
	"context"
	"errors"

	"study-cache/internal/models"
)

// ErrNotAuthenticated is returned when no bearer credential is stored.
// Callers treat it as a soft failure and degrade to empty results.
var ErrNotAuthenticated = errors.New("not authenticated")

// NotificationsResult is the backend's notification listing.
type NotificationsResult struct {
	Notifications []models.Notification `json:"notifications"`
	UnreadCount   int                   `json:"unread_count"`
}

// API defines the remote operations the cache components consume. Every
// call requires a bearer credential supplied by the client's TokenSource.
type API interface {
	SendMessage(ctx context.Context, groupID, content string, kind models.MessageKind) error
	ListMessages(ctx context.Context, groupID string) ([]models.ChatMessage, error)
	ToggleReaction(ctx context.Context, groupID, messageID, emoji string) error
	GetNotifications(ctx context.Context) (NotificationsResult, error)
	MarkNotificationRead(ctx context.Context, notificationID string) error
	ApproveJoinRequest(ctx context.Context, groupID, requesterID string) error
	RejectJoinRequest(ctx context.Context, groupID, requesterID string) error
	AcceptFriendRequest(ctx context.Context, requestID string) error
	RejectFriendRequest(ctx context.Context, requestID string) error
	ListGroups(ctx context.Context) ([]models.Group, error)
}
