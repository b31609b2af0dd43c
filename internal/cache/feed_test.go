package cache

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"study-cache/internal/devicestore"
	"study-cache/internal/models"
	"study-cache/internal/remote"
)

// apiStub implements remote.API for feed tests; only the notification
// endpoints are exercised here.
type apiStub struct {
	getNotifications func(ctx context.Context) (remote.NotificationsResult, error)
	markRead         func(ctx context.Context, id string) error
	listMessages     func(ctx context.Context, groupID string) ([]models.ChatMessage, error)

	mu        sync.Mutex
	getCalls  int
	readCalls []string
}

func (s *apiStub) GetNotifications(ctx context.Context) (remote.NotificationsResult, error) {
	s.mu.Lock()
	s.getCalls++
	s.mu.Unlock()
	if s.getNotifications == nil {
		return remote.NotificationsResult{}, nil
	}
	return s.getNotifications(ctx)
}

func (s *apiStub) MarkNotificationRead(ctx context.Context, id string) error {
	s.mu.Lock()
	s.readCalls = append(s.readCalls, id)
	s.mu.Unlock()
	if s.markRead == nil {
		return nil
	}
	return s.markRead(ctx, id)
}

func (s *apiStub) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getCalls
}

func (s *apiStub) SendMessage(ctx context.Context, groupID, content string, kind models.MessageKind) error {
	return nil
}

func (s *apiStub) ListMessages(ctx context.Context, groupID string) ([]models.ChatMessage, error) {
	if s.listMessages == nil {
		return nil, nil
	}
	return s.listMessages(ctx, groupID)
}

func (s *apiStub) ToggleReaction(ctx context.Context, groupID, messageID, emoji string) error {
	return nil
}

func (s *apiStub) ApproveJoinRequest(ctx context.Context, groupID, requesterID string) error {
	return nil
}

func (s *apiStub) RejectJoinRequest(ctx context.Context, groupID, requesterID string) error {
	return nil
}

func (s *apiStub) AcceptFriendRequest(ctx context.Context, requestID string) error { return nil }
func (s *apiStub) RejectFriendRequest(ctx context.Context, requestID string) error { return nil }

func (s *apiStub) ListGroups(ctx context.Context) ([]models.Group, error) { return nil, nil }

var _ remote.API = (*apiStub)(nil)

func notif(id string, read bool) models.Notification {
	return models.Notification{
		ID:        id,
		Type:      models.NotificationFriendRequest,
		Read:      read,
		CreatedAt: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		Data:      json.RawMessage(`{}`),
	}
}

func TestFeedRefreshReplacesCache(t *testing.T) {
	api := &apiStub{
		getNotifications: func(ctx context.Context) (remote.NotificationsResult, error) {
			return remote.NotificationsResult{
				Notifications: []models.Notification{notif("n1", false), notif("n2", true)},
			}, nil
		},
	}
	feed := NewFeed(devicestore.NewMemoryStore(), api, time.Hour)

	result, err := feed.Refresh(context.Background())
	require.NoError(t, err)
	require.Len(t, result.Notifications, 2)
	require.Equal(t, 1, result.UnreadCount)

	cached := feed.Notifications(context.Background())
	require.Equal(t, result, cached)
}

func TestFeedRefreshUnauthenticatedSkipsNetwork(t *testing.T) {
	store := devicestore.NewMemoryStore()
	tokens := remote.NewStoreTokenSource(store)
	client := remote.NewClient("http://localhost:5000", tokens, nil)
	feed := NewFeed(store, client, time.Hour)

	// No stored credential: the client bails before dialing anything, so
	// this passes even with nothing listening on the backend address.
	result, err := feed.Refresh(context.Background())
	require.NoError(t, err)
	require.Empty(t, result.Notifications)
	require.Zero(t, result.UnreadCount)
}

func TestFeedRefreshFailureKeepsCachedList(t *testing.T) {
	fail := false
	api := &apiStub{
		getNotifications: func(ctx context.Context) (remote.NotificationsResult, error) {
			if fail {
				return remote.NotificationsResult{}, errors.New("backend down")
			}
			return remote.NotificationsResult{
				Notifications: []models.Notification{notif("n1", false)},
			}, nil
		},
	}
	feed := NewFeed(devicestore.NewMemoryStore(), api, time.Hour)
	ctx := context.Background()

	_, err := feed.Refresh(ctx)
	require.NoError(t, err)

	fail = true
	result, err := feed.Refresh(ctx)
	require.Error(t, err)
	require.Len(t, result.Notifications, 1)
	require.Equal(t, "n1", result.Notifications[0].ID)
}

func TestFeedMarkReadSurvivesStaleReplace(t *testing.T) {
	api := &apiStub{
		getNotifications: func(ctx context.Context) (remote.NotificationsResult, error) {
			// The server keeps reporting n1 as unread.
			return remote.NotificationsResult{
				Notifications: []models.Notification{notif("n1", false)},
			}, nil
		},
	}
	feed := NewFeed(devicestore.NewMemoryStore(), api, time.Hour)
	ctx := context.Background()

	_, err := feed.Refresh(ctx)
	require.NoError(t, err)

	require.NoError(t, feed.MarkRead(ctx, "n1"))
	require.Equal(t, []string{"n1"}, api.readCalls)

	result, err := feed.Refresh(ctx)
	require.NoError(t, err)
	require.True(t, result.Notifications[0].Read)
	require.Zero(t, result.UnreadCount)
}

func TestFeedOverrideDroppedOnceServerConfirms(t *testing.T) {
	read := false
	api := &apiStub{
		getNotifications: func(ctx context.Context) (remote.NotificationsResult, error) {
			return remote.NotificationsResult{
				Notifications: []models.Notification{notif("n1", read)},
			}, nil
		},
	}
	feed := NewFeed(devicestore.NewMemoryStore(), api, time.Hour)
	ctx := context.Background()

	_, err := feed.Refresh(ctx)
	require.NoError(t, err)
	require.NoError(t, feed.MarkRead(ctx, "n1"))

	read = true
	_, err = feed.Refresh(ctx)
	require.NoError(t, err)

	feed.mu.Lock()
	_, overridden := feed.readOverrides["n1"]
	feed.mu.Unlock()
	require.False(t, overridden)
}

func TestFeedColdReadExpiresAfterTTL(t *testing.T) {
	api := &apiStub{
		getNotifications: func(ctx context.Context) (remote.NotificationsResult, error) {
			return remote.NotificationsResult{
				Notifications: []models.Notification{notif("n1", false)},
			}, nil
		},
	}
	feed := NewFeed(devicestore.NewMemoryStore(), api, time.Hour)
	ctx := context.Background()

	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	feed.clock = func() time.Time { return now }

	_, err := feed.Refresh(ctx)
	require.NoError(t, err)
	require.Len(t, feed.Notifications(ctx).Notifications, 1)

	now = now.Add(time.Hour + time.Minute)
	require.Empty(t, feed.Notifications(ctx).Notifications)
}

func TestFeedConcurrentRefreshSharesOneFetch(t *testing.T) {
	release := make(chan struct{})
	api := &apiStub{
		getNotifications: func(ctx context.Context) (remote.NotificationsResult, error) {
			<-release
			return remote.NotificationsResult{
				Notifications: []models.Notification{notif("n1", false)},
			}, nil
		},
	}
	feed := NewFeed(devicestore.NewMemoryStore(), api, time.Hour)
	ctx := context.Background()

	var wg sync.WaitGroup
	results := make([]FeedResult, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			result, err := feed.Refresh(ctx)
			require.NoError(t, err)
			results[i] = result
		}(i)
	}

	// Let both goroutines reach the refresh path before releasing the fetch.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	require.Equal(t, 1, api.calls())
	require.Equal(t, results[0], results[1])
}

func TestFeedSurvivesReload(t *testing.T) {
	store := devicestore.NewMemoryStore()
	api := &apiStub{
		getNotifications: func(ctx context.Context) (remote.NotificationsResult, error) {
			return remote.NotificationsResult{
				Notifications: []models.Notification{notif("n1", false)},
			}, nil
		},
	}
	ctx := context.Background()

	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	first := NewFeed(store, api, time.Hour)
	first.clock = func() time.Time { return now }
	_, err := first.Refresh(ctx)
	require.NoError(t, err)

	second := NewFeed(store, api, time.Hour)
	second.clock = func() time.Time { return now.Add(time.Minute) }
	require.Len(t, second.Notifications(ctx).Notifications, 1)
}
