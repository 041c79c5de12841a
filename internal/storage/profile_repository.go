package storage

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"famshare/internal/models"
)

// ProfileRepository reads profile and calendar event rows owned by the
// calendar subsystem. This package never writes them.
type ProfileRepository interface {
	ListByOwners(ctx context.Context, ownerIDs []uuid.UUID) ([]models.Profile, error)
	ListEventsByOwners(ctx context.Context, ownerIDs []uuid.UUID, from, to time.Time) ([]models.CalendarEvent, error)
}

type gormProfileRepository struct {
	db *gorm.DB
}

// NewGormProfileRepository creates a new GORM-backed ProfileRepository.
func NewGormProfileRepository(db *gorm.DB) ProfileRepository {
	return &gormProfileRepository{db: db}
}

func (r *gormProfileRepository) ListByOwners(ctx context.Context, ownerIDs []uuid.UUID) ([]models.Profile, error) {
	if len(ownerIDs) == 0 {
		return []models.Profile{}, nil
	}
	var profiles []models.Profile
	err := r.db.WithContext(ctx).
		Where("owner_id IN ?", ownerIDs).
		Order("name ASC").
		Find(&profiles).Error
	return profiles, err
}

func (r *gormProfileRepository) ListEventsByOwners(ctx context.Context, ownerIDs []uuid.UUID, from, to time.Time) ([]models.CalendarEvent, error) {
	if len(ownerIDs) == 0 {
		return []models.CalendarEvent{}, nil
	}
	var events []models.CalendarEvent
	err := r.db.WithContext(ctx).
		Joins("JOIN profiles ON profiles.id = calendar_events.profile_id").
		Where("profiles.owner_id IN ?", ownerIDs).
		Where("calendar_events.starts_at < ? AND calendar_events.ends_at > ?", to, from).
		Order("calendar_events.starts_at ASC").
		Find(&events).Error
	return events, err
}
