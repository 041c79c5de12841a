package storage

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"famshare/internal/models"
)

// MessageRepository defines the interface for message data operations.
type MessageRepository interface {
	// CreateInConversation inserts the message and assigns it the next
	// per-conversation sequence number, bumping the conversation's LastSeq
	// and LastMessageAt in the same transaction.
	CreateInConversation(ctx context.Context, message *models.Message) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Message, error)
	ListByConversation(ctx context.Context, conversationID uuid.UUID, limit, offset int) ([]*models.Message, error)
	// MarkConversationRead flips read=true on every unread message in the
	// conversation not sent by readerID, in one statement. Rows inserted
	// after the statement starts are untouched; read never reverts.
	MarkConversationRead(ctx context.Context, conversationID, readerID uuid.UUID) (int64, error)
	// MarkMessageRead flips read=true on a single message, guarded so the
	// reader cannot mark their own message.
	MarkMessageRead(ctx context.Context, messageID, readerID uuid.UUID) (int64, error)
	CountUnread(ctx context.Context, conversationID, viewerID uuid.UUID) (int64, error)
}

type gormMessageRepository struct {
	db *gorm.DB
}

// NewGormMessageRepository creates a new GORM-backed MessageRepository.
func NewGormMessageRepository(db *gorm.DB) MessageRepository {
	return &gormMessageRepository{db: db}
}

func (r *gormMessageRepository) CreateInConversation(ctx context.Context, message *models.Message) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var conversation models.Conversation
		// Row lock serializes sequence allocation per conversation.
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&conversation, "id = ?", message.ConversationID).Error; err != nil {
			return err
		}

		message.Seq = conversation.LastSeq + 1
		if err := tx.Create(message).Error; err != nil {
			return err
		}

		now := time.Now()
		return tx.Model(&models.Conversation{}).
			Where("id = ?", conversation.ID).
			Updates(map[string]interface{}{
				"last_seq":        message.Seq,
				"last_message_at": now,
			}).Error
	})
}

func (r *gormMessageRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Message, error) {
	var message models.Message
	if err := r.db.WithContext(ctx).First(&message, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &message, nil
}

func (r *gormMessageRepository) ListByConversation(ctx context.Context, conversationID uuid.UUID, limit, offset int) ([]*models.Message, error) {
	var messages []*models.Message
	query := r.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("seq ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	err := query.Find(&messages).Error
	return messages, err
}

func (r *gormMessageRepository) MarkConversationRead(ctx context.Context, conversationID, readerID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.Message{}).
		Where("conversation_id = ? AND sender_id <> ? AND read = ?", conversationID, readerID, false).
		Update("read", true)
	return res.RowsAffected, res.Error
}

func (r *gormMessageRepository) MarkMessageRead(ctx context.Context, messageID, readerID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.Message{}).
		Where("id = ? AND sender_id <> ? AND read = ?", messageID, readerID, false).
		Update("read", true)
	return res.RowsAffected, res.Error
}

func (r *gormMessageRepository) CountUnread(ctx context.Context, conversationID, viewerID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Message{}).
		Where("conversation_id = ? AND sender_id <> ? AND read = ?", conversationID, viewerID, false).
		Count(&count).Error
	return count, err
}
