package cache

import (
	"context"
	"errors"

	"study-cache/internal/models"
	"study-cache/internal/observability"
	"study-cache/internal/remote"
)

// ChatRefresher pulls a group's messages from the backend and merges them
// into the chat cache. It backs the per-group poll loop that runs while a
// chat screen is subscribed.
type ChatRefresher struct {
	chats  ChatCache
	api    remote.API
	notify func(groupID string, chat models.GroupChat)
}

// NewChatRefresher constructs a ChatRefresher. notify, when non-nil, is
// invoked with the merged chat after every successful refresh.
func NewChatRefresher(chats ChatCache, api remote.API, notify func(groupID string, chat models.GroupChat)) *ChatRefresher {
	return &ChatRefresher{chats: chats, api: api, notify: notify}
}

// Refresh fetches and merges one group. Without a credential it is a
// silent no-op; the poll loop keeps running until login completes.
func (r *ChatRefresher) Refresh(ctx context.Context, groupID string) error {
	msgs, err := r.api.ListMessages(ctx, groupID)
	if errors.Is(err, remote.ErrNotAuthenticated) {
		observability.IncSyncRun("chat", "skipped")
		return nil
	}
	if err != nil {
		observability.IncSyncRun("chat", "failure")
		return err
	}

	if err := r.chats.ReplaceMessages(ctx, groupID, msgs); err != nil {
		observability.IncSyncRun("chat", "failure")
		return err
	}

	observability.IncSyncRun("chat", "success")
	if r.notify != nil {
		r.notify(groupID, r.chats.Chat(ctx, groupID))
	}
	return nil
}
