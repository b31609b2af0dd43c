package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"study-cache/internal/cache"
	"study-cache/internal/models"
	"study-cache/internal/remote"
)

type ChatCacheMock struct {
	mock.Mock
}

func (m *ChatCacheMock) Chat(ctx context.Context, groupID string) models.GroupChat {
	args := m.Called(ctx, groupID)
	var chat models.GroupChat
	if val := args.Get(0); val != nil {
		chat = val.(models.GroupChat)
	}
	return chat
}

func (m *ChatCacheMock) Append(ctx context.Context, groupID string, msg models.ChatMessage) error {
	args := m.Called(ctx, groupID, msg)
	return args.Error(0)
}

func (m *ChatCacheMock) ToggleReaction(ctx context.Context, groupID, messageID, userID, userName, emoji string) error {
	args := m.Called(ctx, groupID, messageID, userID, userName, emoji)
	return args.Error(0)
}

func (m *ChatCacheMock) MarkRead(ctx context.Context, groupID string) error {
	args := m.Called(ctx, groupID)
	return args.Error(0)
}

func (m *ChatCacheMock) ReplaceMessages(ctx context.Context, groupID string, remoteMsgs []models.ChatMessage) error {
	args := m.Called(ctx, groupID, remoteMsgs)
	return args.Error(0)
}

func (m *ChatCacheMock) ClearAll(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

type SessionRegistryMock struct {
	mock.Mock
}

func (m *SessionRegistryMock) Create(ctx context.Context, session models.StudySession) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

func (m *SessionRegistryMock) ForGroup(ctx context.Context, groupID string) []models.StudySession {
	args := m.Called(ctx, groupID)
	var sessions []models.StudySession
	if val := args.Get(0); val != nil {
		sessions = val.([]models.StudySession)
	}
	return sessions
}

func (m *SessionRegistryMock) ClearAll(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

type NotificationFeedMock struct {
	mock.Mock
}

func (m *NotificationFeedMock) Refresh(ctx context.Context) (cache.FeedResult, error) {
	args := m.Called(ctx)
	var result cache.FeedResult
	if val := args.Get(0); val != nil {
		result = val.(cache.FeedResult)
	}
	return result, args.Error(1)
}

func (m *NotificationFeedMock) Notifications(ctx context.Context) cache.FeedResult {
	args := m.Called(ctx)
	var result cache.FeedResult
	if val := args.Get(0); val != nil {
		result = val.(cache.FeedResult)
	}
	return result
}

func (m *NotificationFeedMock) MarkRead(ctx context.Context, notificationID string) error {
	args := m.Called(ctx, notificationID)
	return args.Error(0)
}

func (m *NotificationFeedMock) ClearAll(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

type RemoteAPIMock struct {
	mock.Mock
}

func (m *RemoteAPIMock) SendMessage(ctx context.Context, groupID, content string, kind models.MessageKind) error {
	args := m.Called(ctx, groupID, content, kind)
	return args.Error(0)
}

func (m *RemoteAPIMock) ListMessages(ctx context.Context, groupID string) ([]models.ChatMessage, error) {
	args := m.Called(ctx, groupID)
	var msgs []models.ChatMessage
	if val := args.Get(0); val != nil {
		msgs = val.([]models.ChatMessage)
	}
	return msgs, args.Error(1)
}

func (m *RemoteAPIMock) ToggleReaction(ctx context.Context, groupID, messageID, emoji string) error {
	args := m.Called(ctx, groupID, messageID, emoji)
	return args.Error(0)
}

func (m *RemoteAPIMock) GetNotifications(ctx context.Context) (remote.NotificationsResult, error) {
	args := m.Called(ctx)
	var result remote.NotificationsResult
	if val := args.Get(0); val != nil {
		result = val.(remote.NotificationsResult)
	}
	return result, args.Error(1)
}

func (m *RemoteAPIMock) MarkNotificationRead(ctx context.Context, notificationID string) error {
	args := m.Called(ctx, notificationID)
	return args.Error(0)
}

func (m *RemoteAPIMock) ApproveJoinRequest(ctx context.Context, groupID, requesterID string) error {
	args := m.Called(ctx, groupID, requesterID)
	return args.Error(0)
}

func (m *RemoteAPIMock) RejectJoinRequest(ctx context.Context, groupID, requesterID string) error {
	args := m.Called(ctx, groupID, requesterID)
	return args.Error(0)
}

func (m *RemoteAPIMock) AcceptFriendRequest(ctx context.Context, requestID string) error {
	args := m.Called(ctx, requestID)
	return args.Error(0)
}

func (m *RemoteAPIMock) RejectFriendRequest(ctx context.Context, requestID string) error {
	args := m.Called(ctx, requestID)
	return args.Error(0)
}

func (m *RemoteAPIMock) ListGroups(ctx context.Context) ([]models.Group, error) {
	args := m.Called(ctx)
	var groups []models.Group
	if val := args.Get(0); val != nil {
		groups = val.([]models.Group)
	}
	return groups, args.Error(1)
}

var _ cache.ChatCache = (*ChatCacheMock)(nil)
var _ cache.SessionRegistry = (*SessionRegistryMock)(nil)
var _ cache.NotificationFeed = (*NotificationFeedMock)(nil)
var _ remote.API = (*RemoteAPIMock)(nil)
