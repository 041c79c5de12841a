package storage

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"famshare/internal/models"
)

// ConversationRepository defines the interface for conversation data
// operations. The (participant_low_id, participant_high_id) unique index is
// the source of truth for pair uniqueness; FindByPair/Insert expect already
// canonicalized IDs.
type ConversationRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Conversation, error)
	// FindByPair returns the conversation for a canonicalized (low, high)
	// pair, or nil, nil when none exists.
	FindByPair(ctx context.Context, lowID, highID uuid.UUID) (*models.Conversation, error)
	// Insert attempts to create the row for a canonicalized pair. Returns
	// created=false without error when a concurrent creator won the race
	// (ON CONFLICT DO NOTHING).
	Insert(ctx context.Context, conversation *models.Conversation) (created bool, err error)
	ListForUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*models.Conversation, error)
}

type gormConversationRepository struct {
	db *gorm.DB
}

// NewGormConversationRepository creates a new GORM-backed ConversationRepository.
func NewGormConversationRepository(db *gorm.DB) ConversationRepository {
	return &gormConversationRepository{db: db}
}

func (r *gormConversationRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Conversation, error) {
	var conversation models.Conversation
	if err := r.db.WithContext(ctx).First(&conversation, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &conversation, nil
}

func (r *gormConversationRepository) FindByPair(ctx context.Context, lowID, highID uuid.UUID) (*models.Conversation, error) {
	var conversation models.Conversation
	err := r.db.WithContext(ctx).
		Where("participant_low_id = ? AND participant_high_id = ?", lowID, highID).
		First(&conversation).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &conversation, nil
}

func (r *gormConversationRepository) Insert(ctx context.Context, conversation *models.Conversation) (bool, error) {
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "participant_low_id"},
			{Name: "participant_high_id"},
		},
		DoNothing: true,
	}).Create(conversation)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *gormConversationRepository) ListForUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*models.Conversation, error) {
	var conversations []*models.Conversation
	query := r.db.WithContext(ctx).
		Where("participant_low_id = ? OR participant_high_id = ?", userID, userID).
		Order("last_message_at DESC NULLS LAST")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	err := query.Find(&conversations).Error
	return conversations, err
}
