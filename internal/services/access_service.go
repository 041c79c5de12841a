package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"famshare/internal/models"
	"famshare/internal/storage"
)

// AccessSnapshot is an immutable view of what other users have granted one
// viewer, taken at a single point in time. Callers that mutate the friendship
// graph must take a fresh snapshot and pass it by value into the next
// dependent read; snapshots are never updated in place, so a stale one can
// simply be dropped and replaced.
type AccessSnapshot struct {
	viewerID uuid.UUID
	grants   map[uuid.UUID]models.FriendRole
	takenAt  time.Time
}

// ViewerID returns the viewer this snapshot was computed for.
func (s AccessSnapshot) ViewerID() uuid.UUID { return s.viewerID }

// TakenAt returns when the snapshot was computed.
func (s AccessSnapshot) TakenAt() time.Time { return s.takenAt }

// RoleFor returns the role ownerID granted the viewer (RoleNone when no grant
// exists).
func (s AccessSnapshot) RoleFor(ownerID uuid.UUID) models.FriendRole {
	role, ok := s.grants[ownerID]
	if !ok {
		return models.RoleNone
	}
	return role
}

// CanView reports whether the viewer may see ownerID's profiles and events.
func (s AccessSnapshot) CanView(ownerID uuid.UUID) bool {
	return s.RoleFor(ownerID).CanView()
}

// CanAdminister reports whether the viewer may manage ownerID's data.
func (s AccessSnapshot) CanAdminister(ownerID uuid.UUID) bool {
	return s.RoleFor(ownerID).CanAdminister()
}

// Owners returns the IDs of all users that granted the viewer anything,
// including RoleNone grants (chat-only friends).
func (s AccessSnapshot) Owners() []uuid.UUID {
	owners := make([]uuid.UUID, 0, len(s.grants))
	for id := range s.grants {
		owners = append(owners, id)
	}
	return owners
}

// visibleOwners filters the grant set down to owners whose data the viewer
// may actually read.
func (s AccessSnapshot) visibleOwners() []uuid.UUID {
	owners := make([]uuid.UUID, 0, len(s.grants))
	for id, role := range s.grants {
		if role.CanView() {
			owners = append(owners, id)
		}
	}
	return owners
}

// AccessService turns friendship grants into visibility decisions. It holds
// no cache: every GrantsFor call reads the store, and the returned snapshot
// is the unit callers thread through dependent queries.
type AccessService interface {
	// GrantsFor computes a fresh snapshot of everything granted to viewerID.
	GrantsFor(ctx context.Context, viewerID uuid.UUID) (AccessSnapshot, error)

	// VisibleProfiles returns the viewer's own profiles plus every profile
	// whose owner granted the viewer at least viewer role, using the
	// supplied snapshot for the access decision.
	VisibleProfiles(ctx context.Context, viewerID uuid.UUID, snap AccessSnapshot) ([]models.ProfileView, error)

	// VisibleEvents returns calendar events in [from, to) on profiles the
	// snapshot makes visible, own profiles included.
	VisibleEvents(ctx context.Context, viewerID uuid.UUID, snap AccessSnapshot, from, to time.Time) ([]models.CalendarEvent, error)
}

type accessService struct {
	friendshipRepo storage.FriendshipRepository
	profileRepo    storage.ProfileRepository
}

// NewAccessService creates a new AccessService instance.
func NewAccessService(friendshipRepo storage.FriendshipRepository, profileRepo storage.ProfileRepository) AccessService {
	return &accessService{friendshipRepo: friendshipRepo, profileRepo: profileRepo}
}

func (s *accessService) GrantsFor(ctx context.Context, viewerID uuid.UUID) (AccessSnapshot, error) {
	rows, err := s.friendshipRepo.GrantsTo(ctx, viewerID)
	if err != nil {
		return AccessSnapshot{}, fmt.Errorf("loading grants for viewer %s: %w", viewerID, err)
	}
	grants := make(map[uuid.UUID]models.FriendRole, len(rows))
	for _, row := range rows {
		grants[row.UserID] = row.Role
	}
	return AccessSnapshot{viewerID: viewerID, grants: grants, takenAt: time.Now()}, nil
}

func (s *accessService) VisibleProfiles(ctx context.Context, viewerID uuid.UUID, snap AccessSnapshot) ([]models.ProfileView, error) {
	owners := append(snap.visibleOwners(), viewerID)
	profiles, err := s.profileRepo.ListByOwners(ctx, owners)
	if err != nil {
		return nil, fmt.Errorf("loading visible profiles: %w", err)
	}
	views := make([]models.ProfileView, 0, len(profiles))
	for _, p := range profiles {
		views = append(views, models.ProfileView{
			Profile: p,
			IsOwn:   p.OwnerID == viewerID,
			Role:    snap.RoleFor(p.OwnerID),
		})
	}
	return views, nil
}

func (s *accessService) VisibleEvents(ctx context.Context, viewerID uuid.UUID, snap AccessSnapshot, from, to time.Time) ([]models.CalendarEvent, error) {
	owners := append(snap.visibleOwners(), viewerID)
	events, err := s.profileRepo.ListEventsByOwners(ctx, owners, from, to)
	if err != nil {
		return nil, fmt.Errorf("loading visible events: %w", err)
	}
	return events, nil
}
