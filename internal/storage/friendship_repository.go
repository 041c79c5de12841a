package storage

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"famshare/internal/models"
)

// FriendshipRepository defines the interface for friendship grant data
// operations. Every friendship exists as two directional rows; callers that
// need both (accept, unfriend) go through the transactional helpers.
type FriendshipRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Friendship, error)
	// GetPair returns the grant row (user_id=ownerID, friend_id=friendID),
	// or nil, nil when none exists.
	GetPair(ctx context.Context, ownerID, friendID uuid.UUID) (*models.Friendship, error)
	// GrantsTo returns all rows where friend_id = viewerID: what others have
	// granted the viewer.
	GrantsTo(ctx context.Context, viewerID uuid.UUID) ([]models.Friendship, error)
	// GrantsBy returns all rows where user_id = ownerID: what the owner has
	// granted others.
	GrantsBy(ctx context.Context, ownerID uuid.UUID) ([]models.Friendship, error)
	AreFriends(ctx context.Context, userA, userB uuid.UUID) (bool, error)
	UpdateRole(ctx context.Context, id uuid.UUID, role models.FriendRole) error
	// CreateBoth inserts the two directional rows of a new friendship as a
	// single atomic unit.
	CreateBoth(ctx context.Context, a, b *models.Friendship) error
	// DeleteBoth removes both directional rows between two users atomically.
	DeleteBoth(ctx context.Context, userA, userB uuid.UUID) error
	FriendIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
}

type gormFriendshipRepository struct {
	db *gorm.DB
}

// NewGormFriendshipRepository creates a new GORM-backed FriendshipRepository.
func NewGormFriendshipRepository(db *gorm.DB) FriendshipRepository {
	return &gormFriendshipRepository{db: db}
}

func (r *gormFriendshipRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Friendship, error) {
	var friendship models.Friendship
	if err := r.db.WithContext(ctx).First(&friendship, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &friendship, nil
}

func (r *gormFriendshipRepository) GetPair(ctx context.Context, ownerID, friendID uuid.UUID) (*models.Friendship, error) {
	var friendship models.Friendship
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND friend_id = ?", ownerID, friendID).
		First(&friendship).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &friendship, nil
}

func (r *gormFriendshipRepository) GrantsTo(ctx context.Context, viewerID uuid.UUID) ([]models.Friendship, error) {
	var grants []models.Friendship
	err := r.db.WithContext(ctx).Where("friend_id = ?", viewerID).Find(&grants).Error
	return grants, err
}

func (r *gormFriendshipRepository) GrantsBy(ctx context.Context, ownerID uuid.UUID) ([]models.Friendship, error) {
	var grants []models.Friendship
	err := r.db.WithContext(ctx).Where("user_id = ?", ownerID).Find(&grants).Error
	return grants, err
}

func (r *gormFriendshipRepository) AreFriends(ctx context.Context, userA, userB uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Friendship{}).
		Where("user_id = ? AND friend_id = ?", userA, userB).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *gormFriendshipRepository) UpdateRole(ctx context.Context, id uuid.UUID, role models.FriendRole) error {
	return r.db.WithContext(ctx).Model(&models.Friendship{}).
		Where("id = ?", id).
		Update("role", role).Error
}

func (r *gormFriendshipRepository) CreateBoth(ctx context.Context, a, b *models.Friendship) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(a).Error; err != nil {
			return err
		}
		return tx.Create(b).Error
	})
}

func (r *gormFriendshipRepository) DeleteBoth(ctx context.Context, userA, userB uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.
			Where("(user_id = ? AND friend_id = ?) OR (user_id = ? AND friend_id = ?)", userA, userB, userB, userA).
			Delete(&models.Friendship{}).Error
	})
}

func (r *gormFriendshipRepository) FriendIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).Model(&models.Friendship{}).
		Where("user_id = ?", userID).
		Pluck("friend_id", &ids).Error
	return ids, err
}
