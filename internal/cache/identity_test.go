package cache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"study-cache/internal/devicestore"
	"study-cache/internal/models"
)

func TestIdentityProfileRoundtrip(t *testing.T) {
	identity := NewIdentity(devicestore.NewMemoryStore())
	ctx := context.Background()

	_, ok := identity.Profile(ctx)
	require.False(t, ok)

	require.NoError(t, identity.SaveProfile(ctx, models.UserProfile{ID: "u1", Name: "Avery"}))

	profile, ok := identity.Profile(ctx)
	require.True(t, ok)
	require.Equal(t, "Avery", profile.Name)
}

func TestIdentityGroupsRoundtrip(t *testing.T) {
	identity := NewIdentity(devicestore.NewMemoryStore())
	ctx := context.Background()

	require.Nil(t, identity.Groups(ctx))

	groups := []models.Group{{ID: "g1", Name: "Calc II", Subject: "Math"}}
	require.NoError(t, identity.SaveGroups(ctx, groups))
	require.Equal(t, groups, identity.Groups(ctx))
}

func TestIdentityCorruptedProfileReportsMissing(t *testing.T) {
	store := devicestore.NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, profileKey, "{broken"))

	identity := NewIdentity(store)
	_, ok := identity.Profile(ctx)
	require.False(t, ok)
}

func TestIdentityClearAll(t *testing.T) {
	identity := NewIdentity(devicestore.NewMemoryStore())
	ctx := context.Background()

	require.NoError(t, identity.SaveProfile(ctx, models.UserProfile{ID: "u1"}))
	require.NoError(t, identity.SaveGroups(ctx, []models.Group{{ID: "g1"}}))
	require.NoError(t, identity.ClearAll(ctx))

	_, ok := identity.Profile(ctx)
	require.False(t, ok)
	require.Nil(t, identity.Groups(ctx))
}
