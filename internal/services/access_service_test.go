package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"famshare/internal/models"
)

// grant inserts a single directional row: owner lets viewer see at role.
func grant(friendships *fakeFriendshipRepo, ownerID, viewerID uuid.UUID, role models.FriendRole) {
	row := &models.Friendship{
		Base:     models.Base{ID: uuid.New()},
		UserID:   ownerID,
		FriendID: viewerID,
		Role:     role,
	}
	friendships.rows[row.ID] = row
}

func addProfile(profiles *fakeProfileRepo, ownerID uuid.UUID, name string) models.Profile {
	profile := models.Profile{
		Base:    models.Base{ID: uuid.New()},
		OwnerID: ownerID,
		Name:    name,
	}
	profiles.profiles = append(profiles.profiles, profile)
	return profile
}

func TestGrantsForSnapshotRoles(t *testing.T) {
	friendships := newFakeFriendshipRepo()
	service := NewAccessService(friendships, &fakeProfileRepo{})

	viewer := uuid.New()
	viewerGrantor := uuid.New()
	adminGrantor := uuid.New()
	chatOnly := uuid.New()
	stranger := uuid.New()

	grant(friendships, viewerGrantor, viewer, models.RoleViewer)
	grant(friendships, adminGrantor, viewer, models.RoleAdministrator)
	grant(friendships, chatOnly, viewer, models.RoleNone)
	// The reverse direction must not leak into the viewer's snapshot.
	grant(friendships, viewer, stranger, models.RoleAdministrator)

	snap, err := service.GrantsFor(context.Background(), viewer)
	require.NoError(t, err)

	assert.Equal(t, viewer, snap.ViewerID())
	assert.Len(t, snap.Owners(), 3)

	assert.Equal(t, models.RoleViewer, snap.RoleFor(viewerGrantor))
	assert.True(t, snap.CanView(viewerGrantor))
	assert.False(t, snap.CanAdminister(viewerGrantor))

	assert.Equal(t, models.RoleAdministrator, snap.RoleFor(adminGrantor))
	assert.True(t, snap.CanView(adminGrantor))
	assert.True(t, snap.CanAdminister(adminGrantor))

	assert.Equal(t, models.RoleNone, snap.RoleFor(chatOnly))
	assert.False(t, snap.CanView(chatOnly))

	assert.Equal(t, models.RoleNone, snap.RoleFor(stranger))
	assert.False(t, snap.CanView(stranger))
}

func TestVisibleProfiles(t *testing.T) {
	friendships := newFakeFriendshipRepo()
	profiles := &fakeProfileRepo{}
	service := NewAccessService(friendships, profiles)

	viewer := uuid.New()
	sharer := uuid.New()
	chatOnly := uuid.New()

	grant(friendships, sharer, viewer, models.RoleViewer)
	grant(friendships, chatOnly, viewer, models.RoleNone)

	own := addProfile(profiles, viewer, "Me")
	shared := addProfile(profiles, sharer, "Kid A")
	addProfile(profiles, chatOnly, "Hidden")
	addProfile(profiles, uuid.New(), "Stranger")

	snap, err := service.GrantsFor(context.Background(), viewer)
	require.NoError(t, err)

	views, err := service.VisibleProfiles(context.Background(), viewer, snap)
	require.NoError(t, err)
	require.Len(t, views, 2)

	byID := make(map[uuid.UUID]models.ProfileView, len(views))
	for _, v := range views {
		byID[v.ID] = v
	}

	require.Contains(t, byID, own.ID)
	assert.True(t, byID[own.ID].IsOwn)
	assert.Equal(t, models.RoleNone, byID[own.ID].Role)

	require.Contains(t, byID, shared.ID)
	assert.False(t, byID[shared.ID].IsOwn)
	assert.Equal(t, models.RoleViewer, byID[shared.ID].Role)
}

func TestVisibleEventsWindow(t *testing.T) {
	friendships := newFakeFriendshipRepo()
	profiles := &fakeProfileRepo{}
	service := NewAccessService(friendships, profiles)

	viewer := uuid.New()
	sharer := uuid.New()
	grant(friendships, sharer, viewer, models.RoleViewer)

	shared := addProfile(profiles, sharer, "Kid A")
	hidden := addProfile(profiles, uuid.New(), "Stranger")

	now := time.Now()
	inWindow := models.CalendarEvent{
		Base:      models.Base{ID: uuid.New()},
		ProfileID: shared.ID,
		Title:     "Soccer practice",
		StartsAt:  now.Add(time.Hour),
		EndsAt:    now.Add(2 * time.Hour),
	}
	outOfWindow := models.CalendarEvent{
		Base:      models.Base{ID: uuid.New()},
		ProfileID: shared.ID,
		Title:     "Next month",
		StartsAt:  now.Add(40 * 24 * time.Hour),
		EndsAt:    now.Add(41 * 24 * time.Hour),
	}
	invisible := models.CalendarEvent{
		Base:      models.Base{ID: uuid.New()},
		ProfileID: hidden.ID,
		Title:     "Private",
		StartsAt:  now.Add(time.Hour),
		EndsAt:    now.Add(2 * time.Hour),
	}
	profiles.events = append(profiles.events, inWindow, outOfWindow, invisible)

	snap, err := service.GrantsFor(context.Background(), viewer)
	require.NoError(t, err)

	events, err := service.VisibleEvents(context.Background(), viewer, snap, now, now.Add(7*24*time.Hour))
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, inWindow.ID, events[0].ID)
}
