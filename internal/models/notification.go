package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// NotificationType tags the shape of a notification's payload.
type NotificationType string

const (
	NotificationFriendRequest         NotificationType = "friend_request"
	NotificationFriendRequestAccepted NotificationType = "friend_request_accepted"
	NotificationJoinRequest           NotificationType = "join_request"
	NotificationRequestApproved       NotificationType = "request_approved"
	NotificationDirectMessage         NotificationType = "direct_message"
)

// Notification is created server-side and fetched by polling. The only
// local mutation is flipping Read to true.
type Notification struct {
	ID        string           `json:"id"`
	Type      NotificationType `json:"type"`
	Read      bool             `json:"read"`
	CreatedAt time.Time        `json:"created_at"`
	Data      json.RawMessage  `json:"data,omitempty"`
}

// FriendRequestData accompanies friend_request notifications.
type FriendRequestData struct {
	RequestID     string `json:"request_id"`
	RequesterID   string `json:"requester_id"`
	RequesterName string `json:"requester_name"`
}

// FriendRequestAcceptedData accompanies friend_request_accepted notifications.
type FriendRequestAcceptedData struct {
	FriendID   string `json:"friend_id"`
	FriendName string `json:"friend_name"`
}

// JoinRequestData accompanies join_request notifications sent to group owners.
type JoinRequestData struct {
	GroupID       string `json:"group_id"`
	RequesterID   string `json:"requester_id"`
	RequesterName string `json:"requester_name"`
}

// RequestApprovedData accompanies request_approved notifications.
type RequestApprovedData struct {
	GroupID   string `json:"group_id"`
	GroupName string `json:"group_name"`
}

// DirectMessageData accompanies direct_message notifications.
type DirectMessageData struct {
	SenderID   string `json:"sender_id"`
	SenderName string `json:"sender_name"`
}

// DecodePayload unmarshals the data bag into the concrete type for the
// notification's tag so handlers can switch exhaustively.
func (n Notification) DecodePayload() (any, error) {
	decode := func(out any) (any, error) {
		if len(n.Data) == 0 {
			return out, nil
		}
		if err := json.Unmarshal(n.Data, out); err != nil {
			return nil, fmt.Errorf("decode %s payload: %w", n.Type, err)
		}
		return out, nil
	}

	switch n.Type {
	case NotificationFriendRequest:
		return decode(&FriendRequestData{})
	case NotificationFriendRequestAccepted:
		return decode(&FriendRequestAcceptedData{})
	case NotificationJoinRequest:
		return decode(&JoinRequestData{})
	case NotificationRequestApproved:
		return decode(&RequestApprovedData{})
	case NotificationDirectMessage:
		return decode(&DirectMessageData{})
	default:
		return nil, fmt.Errorf("unknown notification type %q", n.Type)
	}
}
