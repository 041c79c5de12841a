package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"famshare/internal/models"
	"famshare/internal/storage"
)

// ConversationService maps an unordered pair of users to exactly one
// conversation, creating it lazily on first use. Conversations are never
// deleted, even when the friendship ends.
type ConversationService interface {
	// GetOrCreate returns the unique conversation for the pair, creating it
	// if needed. Safe under concurrent callers: the losing inserter re-reads
	// the winner's row. Both users must be friends.
	GetOrCreate(ctx context.Context, userA, userB uuid.UUID) (*models.Conversation, error)

	// GetForUser fetches a conversation, verifying the caller participates.
	GetForUser(ctx context.Context, conversationID, userID uuid.UUID) (*models.Conversation, error)

	ListForUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*models.Conversation, error)
}

type conversationService struct {
	convoRepo      storage.ConversationRepository
	friendshipRepo storage.FriendshipRepository
}

// NewConversationService creates a new ConversationService instance.
func NewConversationService(convoRepo storage.ConversationRepository, friendshipRepo storage.FriendshipRepository) ConversationService {
	return &conversationService{convoRepo: convoRepo, friendshipRepo: friendshipRepo}
}

func (s *conversationService) GetOrCreate(ctx context.Context, userA, userB uuid.UUID) (*models.Conversation, error) {
	if userA == userB {
		return nil, ErrNotParticipant
	}

	areFriends, err := s.friendshipRepo.AreFriends(ctx, userA, userB)
	if err != nil {
		return nil, fmt.Errorf("checking friendship: %w", err)
	}
	if !areFriends {
		return nil, ErrNotAuthorized
	}

	low, high := models.CanonicalPair(userA, userB)

	existing, err := s.convoRepo.FindByPair(ctx, low, high)
	if err != nil {
		return nil, fmt.Errorf("looking up conversation: %w", err)
	}
	if existing != nil {
		return existing, nil
	}

	conversation := &models.Conversation{
		ParticipantLowID:  low,
		ParticipantHighID: high,
	}
	created, err := s.convoRepo.Insert(ctx, conversation)
	if err != nil {
		return nil, fmt.Errorf("creating conversation: %w", err)
	}
	if created {
		return conversation, nil
	}

	// A concurrent caller won the insert; their row must be visible now.
	existing, err = s.convoRepo.FindByPair(ctx, low, high)
	if err != nil {
		return nil, fmt.Errorf("re-fetching conversation after conflict: %w", err)
	}
	if existing == nil {
		// Unique index exists but the winner's row is absent: storage fault.
		return nil, ErrConversationCreation
	}
	return existing, nil
}

func (s *conversationService) GetForUser(ctx context.Context, conversationID, userID uuid.UUID) (*models.Conversation, error) {
	conversation, err := s.convoRepo.GetByID(ctx, conversationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrConversationNotFound
		}
		return nil, fmt.Errorf("retrieving conversation: %w", err)
	}
	if !conversation.HasParticipant(userID) {
		return nil, ErrNotParticipant
	}
	return conversation, nil
}

func (s *conversationService) ListForUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*models.Conversation, error) {
	return s.convoRepo.ListForUser(ctx, userID, limit, offset)
}
