package models

import "time"

// MessageKind enumerates the supported chat message types.
type MessageKind string

const (
	MessageText         MessageKind = "text"
	MessageImage        MessageKind = "image"
	MessageFile         MessageKind = "file"
	MessageAnnouncement MessageKind = "announcement"
)

// Reaction is a single emoji reaction by one user. At most one reaction
// exists per (message, user, emoji); applying the same one again removes it.
type Reaction struct {
	UserID   string `json:"user_id"`
	UserName string `json:"user_name"`
	Emoji    string `json:"emoji"`
}

// ChatMessage represents one message in a group chat. IDs are generated
// client-side at creation time and never change.
type ChatMessage struct {
	ID         string      `json:"id"`
	GroupID    string      `json:"group_id"`
	SenderID   string      `json:"sender_id"`
	SenderName string      `json:"sender_name"`
	Body       string      `json:"body"`
	Kind       MessageKind `json:"kind"`
	MediaRef   string      `json:"media_ref,omitempty"`
	CreatedAt  time.Time   `json:"created_at"`
	Reactions  []Reaction  `json:"reactions,omitempty"`
}

// Before reports whether m sorts ahead of other. Ordering is by creation
// time ascending with the id string as a deterministic tiebreak.
func (m ChatMessage) Before(other ChatMessage) bool {
	if !m.CreatedAt.Equal(other.CreatedAt) {
		return m.CreatedAt.Before(other.CreatedAt)
	}
	return m.ID < other.ID
}

// GroupChat is the cached chat for one group: an append-only message
// sequence plus the caller's read watermark.
type GroupChat struct {
	GroupID    string        `json:"group_id"`
	Messages   []ChatMessage `json:"messages"`
	LastReadAt time.Time     `json:"last_read_at"`
}

// UnreadFor counts messages newer than the read watermark that were sent
// by somebody else.
func (g GroupChat) UnreadFor(userID string) int {
	count := 0
	for _, m := range g.Messages {
		if m.CreatedAt.After(g.LastReadAt) && m.SenderID != userID {
			count++
		}
	}
	return count
}

// ChatEvent is broadcast over websocket connections when the cache changes.
type ChatEvent struct {
	Type      string        `json:"type"`
	GroupID   string        `json:"group_id"`
	Message   *ChatMessage  `json:"message,omitempty"`
	MessageID string        `json:"message_id,omitempty"`
	Session   *StudySession `json:"session,omitempty"`
}
