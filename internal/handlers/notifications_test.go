package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"study-cache/internal/cache"
	"study-cache/internal/mocks"
	"study-cache/internal/models"
)

func setupNotificationRouter(h *NotificationHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/notifications", h.GetNotifications)
	router.POST("/notifications/:notification_id/read", h.MarkRead)
	router.POST("/groups/:group_id/requests/:requester_id/:action", h.ResolveJoinRequest)
	router.POST("/friends/requests/:request_id/:action", h.ResolveFriendRequest)
	return router
}

func feedResult(unread int) cache.FeedResult {
	return cache.FeedResult{
		Notifications: []models.Notification{{ID: "n1", Type: models.NotificationFriendRequest, Read: unread == 0}},
		UnreadCount:   unread,
	}
}

func TestGetNotificationsServesCachedSnapshot(t *testing.T) {
	feed := new(mocks.NotificationFeedMock)
	api := new(mocks.RemoteAPIMock)
	feed.On("Notifications", mock.Anything).Return(feedResult(1))

	router := setupNotificationRouter(NewNotificationHandler(feed, api, nil))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/notifications", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Notifications []models.Notification `json:"notifications"`
		UnreadCount   int                   `json:"unread_count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, 1, body.UnreadCount)
	feed.AssertNotCalled(t, "Refresh", mock.Anything)
}

func TestGetNotificationsWithRefresh(t *testing.T) {
	feed := new(mocks.NotificationFeedMock)
	api := new(mocks.RemoteAPIMock)
	feed.On("Refresh", mock.Anything).Return(feedResult(1), nil)

	router := setupNotificationRouter(NewNotificationHandler(feed, api, nil))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/notifications?refresh=1", nil))

	require.Equal(t, http.StatusOK, w.Code)
	require.NotContains(t, w.Body.String(), "refresh failed")
	feed.AssertExpectations(t)
}

func TestGetNotificationsRefreshFailureIsSoft(t *testing.T) {
	feed := new(mocks.NotificationFeedMock)
	api := new(mocks.RemoteAPIMock)
	feed.On("Refresh", mock.Anything).Return(feedResult(1), errors.New("backend down"))

	router := setupNotificationRouter(NewNotificationHandler(feed, api, nil))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/notifications?refresh=1", nil))

	// Stale data with a warning beats a hard failure for a badge endpoint.
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Notifications []models.Notification `json:"notifications"`
		Error         string                `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Notifications, 1)
	require.Contains(t, body.Error, "refresh failed")
}

func TestMarkNotificationRead(t *testing.T) {
	feed := new(mocks.NotificationFeedMock)
	api := new(mocks.RemoteAPIMock)
	feed.On("MarkRead", mock.Anything, "n1").Return(nil)

	router := setupNotificationRouter(NewNotificationHandler(feed, api, nil))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/notifications/n1/read", nil))

	require.Equal(t, http.StatusNoContent, w.Code)
	feed.AssertExpectations(t)
}

func TestResolveJoinRequestApprove(t *testing.T) {
	feed := new(mocks.NotificationFeedMock)
	api := new(mocks.RemoteAPIMock)
	api.On("ApproveJoinRequest", mock.Anything, "g1", "u9").Return(nil)
	feed.On("Refresh", mock.Anything).Return(cache.FeedResult{}, nil)

	router := setupNotificationRouter(NewNotificationHandler(feed, api, nil))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/groups/g1/requests/u9/approve", nil))

	require.Equal(t, http.StatusOK, w.Code)
	api.AssertExpectations(t)
	feed.AssertExpectations(t)
}

func TestResolveJoinRequestRejectsUnknownAction(t *testing.T) {
	feed := new(mocks.NotificationFeedMock)
	api := new(mocks.RemoteAPIMock)

	router := setupNotificationRouter(NewNotificationHandler(feed, api, nil))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/groups/g1/requests/u9/ignore", nil))

	require.Equal(t, http.StatusBadRequest, w.Code)
	api.AssertNotCalled(t, "ApproveJoinRequest", mock.Anything, mock.Anything, mock.Anything)
	api.AssertNotCalled(t, "RejectJoinRequest", mock.Anything, mock.Anything, mock.Anything)
}

func TestResolveJoinRequestBackendFailure(t *testing.T) {
	feed := new(mocks.NotificationFeedMock)
	api := new(mocks.RemoteAPIMock)
	api.On("RejectJoinRequest", mock.Anything, "g1", "u9").Return(errors.New("forbidden"))

	router := setupNotificationRouter(NewNotificationHandler(feed, api, nil))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/groups/g1/requests/u9/reject", nil))

	require.Equal(t, http.StatusBadGateway, w.Code)
	feed.AssertNotCalled(t, "Refresh", mock.Anything)
}

func TestResolveFriendRequestAccept(t *testing.T) {
	feed := new(mocks.NotificationFeedMock)
	api := new(mocks.RemoteAPIMock)
	api.On("AcceptFriendRequest", mock.Anything, "fr1").Return(nil)
	feed.On("Refresh", mock.Anything).Return(cache.FeedResult{}, nil)

	router := setupNotificationRouter(NewNotificationHandler(feed, api, nil))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/friends/requests/fr1/accept", nil))

	require.Equal(t, http.StatusOK, w.Code)
	api.AssertExpectations(t)
}
