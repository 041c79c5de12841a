package storage

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"famshare/internal/models"
)

// FriendRequestRepository defines the interface for friend request data operations.
type FriendRequestRepository interface {
	Create(ctx context.Context, request *models.FriendRequest) error
	GetByID(ctx context.Context, requestID uuid.UUID) (*models.FriendRequest, error)
	// FindPendingBetween looks for a pending request between two users in
	// either direction. Returns nil, nil when none exists.
	FindPendingBetween(ctx context.Context, userA, userB uuid.UUID) (*models.FriendRequest, error)
	// UpdateStatus transitions a request out of pending. The WHERE clause is
	// scoped to status='pending' so terminal states are never overwritten;
	// returns the number of rows changed.
	UpdateStatus(ctx context.Context, requestID uuid.UUID, status models.FriendRequestStatus) (int64, error)
	Delete(ctx context.Context, requestID uuid.UUID) error
	ListPendingFor(ctx context.Context, requestedID uuid.UUID) ([]models.FriendRequest, error)
	// Accept transitions the request to accepted and inserts both directional
	// friendship grants as a single atomic unit. Either everything commits or
	// nothing is visible. Fails with ErrRequestNotPending when the request
	// has already left the pending state.
	Accept(ctx context.Context, requestID uuid.UUID, grantA, grantB *models.Friendship) error
}

// ErrRequestNotPending is returned by Accept when the request is no longer
// pending (the transition already happened or the request was declined).
var ErrRequestNotPending = errors.New("friend request is not pending")

type gormFriendRequestRepository struct {
	db *gorm.DB
}

// NewGormFriendRequestRepository creates a new GORM-backed FriendRequestRepository.
func NewGormFriendRequestRepository(db *gorm.DB) FriendRequestRepository {
	return &gormFriendRequestRepository{db: db}
}

func (r *gormFriendRequestRepository) Create(ctx context.Context, request *models.FriendRequest) error {
	return r.db.WithContext(ctx).Create(request).Error
}

func (r *gormFriendRequestRepository) GetByID(ctx context.Context, requestID uuid.UUID) (*models.FriendRequest, error) {
	var request models.FriendRequest
	if err := r.db.WithContext(ctx).First(&request, "id = ?", requestID).Error; err != nil {
		return nil, err
	}
	return &request, nil
}

func (r *gormFriendRequestRepository) FindPendingBetween(ctx context.Context, userA, userB uuid.UUID) (*models.FriendRequest, error) {
	var request models.FriendRequest
	err := r.db.WithContext(ctx).
		Where("(requester_id = ? AND requested_id = ?) OR (requester_id = ? AND requested_id = ?)", userA, userB, userB, userA).
		Where("status = ?", models.FriendRequestStatusPending).
		First(&request).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &request, nil
}

func (r *gormFriendRequestRepository) UpdateStatus(ctx context.Context, requestID uuid.UUID, status models.FriendRequestStatus) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.FriendRequest{}).
		Where("id = ? AND status = ?", requestID, models.FriendRequestStatusPending).
		Update("status", status)
	return res.RowsAffected, res.Error
}

func (r *gormFriendRequestRepository) Delete(ctx context.Context, requestID uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.FriendRequest{}, "id = ?", requestID).Error
}

func (r *gormFriendRequestRepository) Accept(ctx context.Context, requestID uuid.UUID, grantA, grantB *models.Friendship) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.FriendRequest{}).
			Where("id = ? AND status = ?", requestID, models.FriendRequestStatusPending).
			Update("status", models.FriendRequestStatusAccepted)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrRequestNotPending
		}
		if err := tx.Create(grantA).Error; err != nil {
			return err
		}
		return tx.Create(grantB).Error
	})
}

func (r *gormFriendRequestRepository) ListPendingFor(ctx context.Context, requestedID uuid.UUID) ([]models.FriendRequest, error) {
	var requests []models.FriendRequest
	err := r.db.WithContext(ctx).
		Where("requested_id = ? AND status = ?", requestedID, models.FriendRequestStatusPending).
		Order("created_at ASC").
		Find(&requests).Error
	return requests, err
}
