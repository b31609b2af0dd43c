package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"sync"
	"time"

	"study-cache/internal/devicestore"
	"study-cache/internal/models"
	"study-cache/internal/observability"
	"study-cache/internal/remote"
)

const notificationsKey = "notification_cache"

// DefaultNotificationTTL is the freshness window after which cached
// notifications are treated as absent rather than served.
const DefaultNotificationTTL = time.Hour

// FeedResult is a snapshot of the notification list with its derived
// unread count.
type FeedResult struct {
	Notifications []models.Notification `json:"notifications"`
	UnreadCount   int                   `json:"unread_count"`
}

// NotificationFeed owns the unread-badge state surfaced across screens.
type NotificationFeed interface {
	Refresh(ctx context.Context) (FeedResult, error)
	Notifications(ctx context.Context) FeedResult
	MarkRead(ctx context.Context, notificationID string) error
	ClearAll(ctx context.Context) error
}

type cachedFeed struct {
	Notifications []models.Notification `json:"notifications"`
	FetchedAt     time.Time             `json:"fetched_at"`
}

// Feed polls the backend for notifications and caches them wholesale; the
// server is authoritative, nothing is created client-side. Read flags are
// flipped optimistically and re-applied across server replaces until the
// server confirms them.
type Feed struct {
	store devicestore.Store
	api   remote.API
	ttl   time.Duration
	clock func() time.Time

	mu            sync.Mutex
	loaded        bool
	cached        cachedFeed
	readOverrides map[string]struct{}

	// inflight dedupes overlapping refreshes: a second caller waits for
	// the first network round trip instead of issuing its own.
	inflight   chan struct{}
	lastResult FeedResult
	lastErr    error
}

// NewFeed constructs a Feed with the given freshness window. A zero ttl
// means DefaultNotificationTTL.
func NewFeed(store devicestore.Store, api remote.API, ttl time.Duration) *Feed {
	if ttl <= 0 {
		ttl = DefaultNotificationTTL
	}
	return &Feed{
		store:         store,
		api:           api,
		ttl:           ttl,
		clock:         time.Now,
		readOverrides: make(map[string]struct{}),
	}
}

func (f *Feed) load(ctx context.Context) {
	if f.loaded {
		return
	}
	f.loaded = true

	raw, err := f.store.Get(ctx, notificationsKey)
	if err != nil {
		observability.IncStoreError("get")
		log.Printf("notification cache read failed, starting empty: %v", err)
		return
	}
	if raw == "" {
		return
	}
	if err := json.Unmarshal([]byte(raw), &f.cached); err != nil {
		log.Printf("notification cache corrupted, starting empty: %v", err)
		f.cached = cachedFeed{}
	}
}

func (f *Feed) persist(ctx context.Context) error {
	raw, err := json.Marshal(f.cached)
	if err != nil {
		return err
	}
	if err := f.store.Set(ctx, notificationsKey, string(raw)); err != nil {
		observability.IncStoreError("set")
		return err
	}
	return nil
}

func (f *Feed) fresh() bool {
	return !f.cached.FetchedAt.IsZero() && f.clock().Sub(f.cached.FetchedAt) <= f.ttl
}

// snapshot builds a result from the cached list. The unread count is always
// recomputed from the read flags, never stored independently.
func (f *Feed) snapshot() FeedResult {
	out := FeedResult{
		Notifications: append([]models.Notification(nil), f.cached.Notifications...),
	}
	for _, n := range out.Notifications {
		if !n.Read {
			out.UnreadCount++
		}
	}
	return out
}

// Notifications is the cold read: cached data older than the freshness
// window is reported as empty rather than served stale.
func (f *Feed) Notifications(ctx context.Context) FeedResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.load(ctx)
	if !f.fresh() {
		return FeedResult{Notifications: []models.Notification{}}
	}
	return f.snapshot()
}

// Refresh fetches the list from the backend and replaces the cache on
// success. On failure the last cached list is returned unchanged together
// with the error, as a soft failure. Without a stored credential it returns
// an empty result and performs no network I/O. Concurrent calls share one
// network round trip.
func (f *Feed) Refresh(ctx context.Context) (FeedResult, error) {
	f.mu.Lock()
	if f.inflight != nil {
		wait := f.inflight
		f.mu.Unlock()
		<-wait
		f.mu.Lock()
		defer f.mu.Unlock()
		return f.lastResult, f.lastErr
	}
	done := make(chan struct{})
	f.inflight = done
	f.mu.Unlock()

	result, err := f.refresh(ctx)

	f.mu.Lock()
	f.lastResult, f.lastErr = result, err
	f.inflight = nil
	f.mu.Unlock()
	close(done)
	return result, err
}

func (f *Feed) refresh(ctx context.Context) (FeedResult, error) {
	fetched, err := f.api.GetNotifications(ctx)
	if errors.Is(err, remote.ErrNotAuthenticated) {
		observability.IncSyncRun("notifications", "skipped")
		return FeedResult{Notifications: []models.Notification{}}, nil
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.load(ctx)

	if err != nil {
		observability.IncSyncRun("notifications", "failure")
		return f.snapshot(), err
	}

	notifications := append([]models.Notification(nil), fetched.Notifications...)
	for i := range notifications {
		id := notifications[i].ID
		if _, overridden := f.readOverrides[id]; !overridden {
			continue
		}
		if notifications[i].Read {
			// Server caught up; the local override is no longer needed.
			delete(f.readOverrides, id)
		} else {
			notifications[i].Read = true
		}
	}

	f.cached = cachedFeed{Notifications: notifications, FetchedAt: f.clock()}
	if err := f.persist(ctx); err != nil {
		log.Printf("notification cache persist failed: %v", err)
	}

	observability.IncSyncRun("notifications", "success")
	return f.snapshot(), nil
}

// MarkRead flips the local read flag immediately for UI responsiveness and
// then confirms with the backend. A failed confirmation is logged but not
// rolled back; the override keeps the flag set across later polls until the
// server reports the notification as read.
func (f *Feed) MarkRead(ctx context.Context, notificationID string) error {
	f.mu.Lock()
	f.load(ctx)
	for i := range f.cached.Notifications {
		if f.cached.Notifications[i].ID == notificationID {
			f.cached.Notifications[i].Read = true
			break
		}
	}
	f.readOverrides[notificationID] = struct{}{}
	if err := f.persist(ctx); err != nil {
		log.Printf("notification cache persist failed: %v", err)
	}
	f.mu.Unlock()

	observability.IncCacheOp("notifications", "mark_read")
	if err := f.api.MarkNotificationRead(ctx, notificationID); err != nil {
		log.Printf("mark notification %s read failed: %v", notificationID, err)
	}
	return nil
}

// ClearAll wipes the cached feed, for logout.
func (f *Feed) ClearAll(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cached = cachedFeed{}
	f.readOverrides = make(map[string]struct{})
	f.loaded = true
	return f.store.Remove(ctx, notificationsKey)
}

var _ NotificationFeed = (*Feed)(nil)
