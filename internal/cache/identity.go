package cache

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"study-cache/internal/devicestore"
	"study-cache/internal/models"
	"study-cache/internal/observability"
)

const (
	profileKey = "user_profile"
	groupsKey  = "user_groups"
)

// Identity caches the signed-in user's minimal profile and group
// memberships so the facade can stamp optimistic sends and serve the
// groups screen offline.
type Identity struct {
	store devicestore.Store
	mu    sync.Mutex
}

// NewIdentity constructs an Identity over the given store.
func NewIdentity(store devicestore.Store) *Identity {
	return &Identity{store: store}
}

// Profile returns the cached profile and whether one is stored.
func (i *Identity) Profile(ctx context.Context) (models.UserProfile, bool) {
	i.mu.Lock()
	defer i.mu.Unlock()

	raw, err := i.store.Get(ctx, profileKey)
	if err != nil || raw == "" {
		if err != nil {
			observability.IncStoreError("get")
		}
		return models.UserProfile{}, false
	}
	var profile models.UserProfile
	if err := json.Unmarshal([]byte(raw), &profile); err != nil {
		log.Printf("profile cache corrupted: %v", err)
		return models.UserProfile{}, false
	}
	return profile, profile.ID != ""
}

// SaveProfile stores the profile the login flow produced.
func (i *Identity) SaveProfile(ctx context.Context, profile models.UserProfile) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	raw, err := json.Marshal(profile)
	if err != nil {
		return err
	}
	if err := i.store.Set(ctx, profileKey, string(raw)); err != nil {
		observability.IncStoreError("set")
		return err
	}
	return nil
}

// Groups returns the cached membership list, empty when none is stored or
// the blob is unreadable.
func (i *Identity) Groups(ctx context.Context) []models.Group {
	i.mu.Lock()
	defer i.mu.Unlock()

	raw, err := i.store.Get(ctx, groupsKey)
	if err != nil || raw == "" {
		if err != nil {
			observability.IncStoreError("get")
		}
		return nil
	}
	var groups []models.Group
	if err := json.Unmarshal([]byte(raw), &groups); err != nil {
		log.Printf("group cache corrupted: %v", err)
		return nil
	}
	return groups
}

// SaveGroups replaces the cached membership list wholesale.
func (i *Identity) SaveGroups(ctx context.Context, groups []models.Group) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	raw, err := json.Marshal(groups)
	if err != nil {
		return err
	}
	if err := i.store.Set(ctx, groupsKey, string(raw)); err != nil {
		observability.IncStoreError("set")
		return err
	}
	return nil
}

// ClearAll removes the profile and group caches, for logout.
func (i *Identity) ClearAll(ctx context.Context) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.store.MultiRemove(ctx, []string{profileKey, groupsKey})
}
