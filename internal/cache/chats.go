// Package cache owns the on-device representation of group chats, study
// sessions and notifications, backed exclusively by the device store.
package cache

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"study-cache/internal/devicestore"
	"study-cache/internal/models"
	"study-cache/internal/observability"
)

const chatsKey = "group_chats"

// ChatCache defines the operations on the local group chat ledger.
type ChatCache interface {
	Chat(ctx context.Context, groupID string) models.GroupChat
	Append(ctx context.Context, groupID string, msg models.ChatMessage) error
	ToggleReaction(ctx context.Context, groupID, messageID, userID, userName, emoji string) error
	MarkRead(ctx context.Context, groupID string) error
	ReplaceMessages(ctx context.Context, groupID string, remote []models.ChatMessage) error
	ClearAll(ctx context.Context) error
}

// Chats is the device-store-backed ChatCache. All chats live in a single
// JSON blob keyed by group id; every mutation rewrites the blob. The mutex
// keeps each read-modify-write cycle atomic, so concurrent toggles or
// merges never interleave mid-cycle.
type Chats struct {
	store devicestore.Store
	clock func() time.Time

	mu     sync.Mutex
	loaded bool
	chats  map[string]models.GroupChat
}

// NewChats constructs a Chats cache over the given store.
func NewChats(store devicestore.Store) *Chats {
	return &Chats{store: store, clock: time.Now}
}

// load populates the in-memory view from the store once per process
// lifetime. Corrupted or missing data degrades to an empty ledger rather
// than failing; a broken cache means "no history", never a crash.
func (c *Chats) load(ctx context.Context) {
	if c.loaded {
		return
	}
	c.chats = make(map[string]models.GroupChat)
	c.loaded = true

	raw, err := c.store.Get(ctx, chatsKey)
	if err != nil {
		observability.IncStoreError("get")
		log.Printf("chat cache read failed, starting empty: %v", err)
		return
	}
	if raw == "" {
		return
	}
	if err := json.Unmarshal([]byte(raw), &c.chats); err != nil {
		log.Printf("chat cache corrupted, starting empty: %v", err)
		c.chats = make(map[string]models.GroupChat)
	}
}

func (c *Chats) persist(ctx context.Context) error {
	raw, err := json.Marshal(c.chats)
	if err != nil {
		return err
	}
	if err := c.store.Set(ctx, chatsKey, string(raw)); err != nil {
		observability.IncStoreError("set")
		return err
	}
	return nil
}

// Chat returns the cached chat for the group, messages in (created_at, id)
// order. Unknown groups yield an empty chat; this never fails.
func (c *Chats) Chat(ctx context.Context, groupID string) models.GroupChat {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.load(ctx)

	chat, ok := c.chats[groupID]
	if !ok {
		return models.GroupChat{GroupID: groupID}
	}

	out := chat
	out.Messages = append([]models.ChatMessage(nil), chat.Messages...)
	sortMessages(out.Messages)
	return out
}

// Append inserts an optimistic local message and persists. The caller
// supplies a fully populated message including its client-generated id.
func (c *Chats) Append(ctx context.Context, groupID string, msg models.ChatMessage) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.load(ctx)

	chat, ok := c.chats[groupID]
	if !ok {
		chat = models.GroupChat{GroupID: groupID}
	}
	for _, existing := range chat.Messages {
		if existing.ID == msg.ID {
			return nil
		}
	}
	chat.Messages = append(chat.Messages, msg)
	c.chats[groupID] = chat

	observability.IncCacheOp("chats", "append")
	return c.persist(ctx)
}

// ToggleReaction adds the (user, emoji) reaction to the message, or removes
// it when the identical reaction already exists. A missing message is a
// silent no-op: the UI may race ahead of a not-yet-synced message.
func (c *Chats) ToggleReaction(ctx context.Context, groupID, messageID, userID, userName, emoji string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.load(ctx)

	chat, ok := c.chats[groupID]
	if !ok {
		return nil
	}

	found := false
	for i := range chat.Messages {
		if chat.Messages[i].ID != messageID {
			continue
		}
		found = true
		chat.Messages[i].Reactions = toggleReaction(chat.Messages[i].Reactions, models.Reaction{
			UserID:   userID,
			UserName: userName,
			Emoji:    emoji,
		})
		break
	}
	if !found {
		return nil
	}
	c.chats[groupID] = chat

	observability.IncCacheOp("chats", "toggle_reaction")
	return c.persist(ctx)
}

func toggleReaction(reactions []models.Reaction, r models.Reaction) []models.Reaction {
	for i, existing := range reactions {
		if existing.UserID == r.UserID && existing.Emoji == r.Emoji {
			return append(reactions[:i:i], reactions[i+1:]...)
		}
	}
	return append(reactions, r)
}

// MarkRead moves the read watermark to now; the unread count drops to zero
// immediately for any computation that starts after this returns.
func (c *Chats) MarkRead(ctx context.Context, groupID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.load(ctx)

	chat, ok := c.chats[groupID]
	if !ok {
		chat = models.GroupChat{GroupID: groupID}
	}
	chat.LastReadAt = c.clock()
	c.chats[groupID] = chat

	observability.IncCacheOp("chats", "mark_read")
	return c.persist(ctx)
}

// ReplaceMessages merges a freshly fetched remote list into the group's
// chat using MergeMessages and persists the result.
func (c *Chats) ReplaceMessages(ctx context.Context, groupID string, remote []models.ChatMessage) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.load(ctx)

	chat, ok := c.chats[groupID]
	if !ok {
		chat = models.GroupChat{GroupID: groupID}
	}
	merged := MergeMessages(chat.Messages, remote)
	observability.AddMergePreserved(len(merged) - len(remote))
	chat.Messages = merged
	c.chats[groupID] = chat

	observability.IncCacheOp("chats", "replace")
	return c.persist(ctx)
}

// ClearAll wipes every cached chat, for logout.
func (c *Chats) ClearAll(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.chats = make(map[string]models.GroupChat)
	c.loaded = true
	return c.store.Remove(ctx, chatsKey)
}

var _ ChatCache = (*Chats)(nil)
