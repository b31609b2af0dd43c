package models

import "time"

// Group is the cached membership record for one of the user's study groups.
// It is replaced wholesale from the backend and served offline.
type Group struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Subject   string    `json:"subject,omitempty"`
	OwnerID   string    `json:"owner_id"`
	MemberIDs []string  `json:"member_ids,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// UserProfile is the minimal identity the cache needs: who stamps
// optimistic sends and whose messages count as "own" for unread math.
type UserProfile struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
