package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"famshare/internal/models"
	"famshare/internal/storage"
)

// FriendGraphService owns the friend-request state machine and the
// friendship grants derived from it. All mutations of friend_requests and
// friendships rows go through here.
type FriendGraphService interface {
	// SendRequest creates a pending request proposing the given role grant.
	// Fails with ErrDuplicateRequest when a pending request already exists
	// between the pair in either direction, ErrAlreadyFriends when grants
	// already exist, ErrSelfRequest for self-adds.
	SendRequest(ctx context.Context, requesterID, requestedID uuid.UUID, role models.FriendRole, message string) (*models.FriendRequest, error)

	// RespondToRequest accepts or declines a pending request. Only the
	// requested user may respond. Accepting creates both directional grants
	// (role=none each way) atomically with the status flip.
	RespondToRequest(ctx context.Context, responderID, requestID uuid.UUID, accept bool) error

	// UpdateFriendshipRole changes the role on a single grant row. Only the
	// grantor (the row's UserID) may do this; the reverse grant is untouched.
	UpdateFriendshipRole(ctx context.Context, callerID, friendshipID uuid.UUID, role models.FriendRole) (*models.Friendship, error)

	// CancelRequest deletes a still-pending request. Requester only.
	CancelRequest(ctx context.Context, callerID, requestID uuid.UUID) error

	// RemoveFriendship resolves the counter-party from either grant row and
	// deletes both directional rows atomically. Caller must be a party.
	RemoveFriendship(ctx context.Context, callerID, friendshipID uuid.UUID) error

	ListFriends(ctx context.Context, userID uuid.UUID) ([]models.FriendWithUser, error)
	ListPendingRequests(ctx context.Context, userID uuid.UUID) ([]models.FriendRequestWithRequester, error)
}

type friendGraphService struct {
	userRepo       storage.UserRepository
	requestRepo    storage.FriendRequestRepository
	friendshipRepo storage.FriendshipRepository
}

// NewFriendGraphService creates a new FriendGraphService instance.
func NewFriendGraphService(
	userRepo storage.UserRepository,
	requestRepo storage.FriendRequestRepository,
	friendshipRepo storage.FriendshipRepository,
) FriendGraphService {
	return &friendGraphService{
		userRepo:       userRepo,
		requestRepo:    requestRepo,
		friendshipRepo: friendshipRepo,
	}
}

func (s *friendGraphService) SendRequest(ctx context.Context, requesterID, requestedID uuid.UUID, role models.FriendRole, message string) (*models.FriendRequest, error) {
	if requesterID == requestedID {
		return nil, ErrSelfRequest
	}
	if !role.Valid() {
		return nil, ErrInvalidRole
	}

	if _, err := s.userRepo.GetByID(ctx, requestedID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("checking requested user: %w", err)
	}

	areFriends, err := s.friendshipRepo.AreFriends(ctx, requesterID, requestedID)
	if err != nil {
		return nil, fmt.Errorf("checking existing friendship: %w", err)
	}
	if areFriends {
		return nil, ErrAlreadyFriends
	}

	// Either-direction check: simultaneous mutual requests collapse to one.
	existing, err := s.requestRepo.FindPendingBetween(ctx, requesterID, requestedID)
	if err != nil {
		return nil, fmt.Errorf("checking pending requests: %w", err)
	}
	if existing != nil {
		return nil, ErrDuplicateRequest
	}

	request := &models.FriendRequest{
		RequesterID: requesterID,
		RequestedID: requestedID,
		Status:      models.FriendRequestStatusPending,
		Role:        role,
		Message:     message,
	}
	if err := s.requestRepo.Create(ctx, request); err != nil {
		// The partial unique index catches the race where two identical
		// requests are inserted between check and create.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateRequest
		}
		return nil, fmt.Errorf("creating friend request: %w", err)
	}
	return request, nil
}

func (s *friendGraphService) RespondToRequest(ctx context.Context, responderID, requestID uuid.UUID, accept bool) error {
	request, err := s.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrRequestNotFound
		}
		return fmt.Errorf("retrieving friend request: %w", err)
	}

	if request.RequestedID != responderID {
		return ErrNotAuthorized
	}
	if request.Status.Terminal() {
		return ErrRequestNotPending
	}

	if !accept {
		changed, err := s.requestRepo.UpdateStatus(ctx, requestID, models.FriendRequestStatusDeclined)
		if err != nil {
			return fmt.Errorf("declining friend request: %w", err)
		}
		if changed == 0 {
			return ErrRequestNotPending
		}
		return nil
	}

	// Both grants start at role none: accepting enables chat, not visibility.
	// The role proposed on the request stays recorded there; each grantor
	// upgrades their own row explicitly via UpdateFriendshipRole.
	grantFromRequester := &models.Friendship{
		UserID:   request.RequesterID,
		FriendID: request.RequestedID,
		Role:     models.RoleNone,
	}
	grantFromRequested := &models.Friendship{
		UserID:   request.RequestedID,
		FriendID: request.RequesterID,
		Role:     models.RoleNone,
	}

	if err := s.requestRepo.Accept(ctx, requestID, grantFromRequester, grantFromRequested); err != nil {
		if errors.Is(err, storage.ErrRequestNotPending) {
			return ErrRequestNotPending
		}
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrConstraintViolation
		}
		return fmt.Errorf("accepting friend request: %w", err)
	}
	log.Printf("friend request %s accepted: grants created for %s <-> %s",
		requestID, request.RequesterID, request.RequestedID)
	return nil
}

func (s *friendGraphService) UpdateFriendshipRole(ctx context.Context, callerID, friendshipID uuid.UUID, role models.FriendRole) (*models.Friendship, error) {
	if !role.Valid() {
		return nil, ErrInvalidRole
	}

	friendship, err := s.friendshipRepo.GetByID(ctx, friendshipID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrFriendshipNotFound
		}
		return nil, fmt.Errorf("retrieving friendship: %w", err)
	}

	// Only the grantor may change what they granted.
	if friendship.UserID != callerID {
		return nil, ErrNotAuthorized
	}

	if err := s.friendshipRepo.UpdateRole(ctx, friendshipID, role); err != nil {
		return nil, fmt.Errorf("updating friendship role: %w", err)
	}
	friendship.Role = role
	return friendship, nil
}

func (s *friendGraphService) CancelRequest(ctx context.Context, callerID, requestID uuid.UUID) error {
	request, err := s.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrRequestNotFound
		}
		return fmt.Errorf("retrieving friend request: %w", err)
	}
	if request.RequesterID != callerID {
		return ErrNotAuthorized
	}
	if request.Status.Terminal() {
		return ErrRequestNotPending
	}
	return s.requestRepo.Delete(ctx, requestID)
}

func (s *friendGraphService) RemoveFriendship(ctx context.Context, callerID, friendshipID uuid.UUID) error {
	friendship, err := s.friendshipRepo.GetByID(ctx, friendshipID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrFriendshipNotFound
		}
		return fmt.Errorf("retrieving friendship: %w", err)
	}
	if friendship.UserID != callerID && friendship.FriendID != callerID {
		return ErrNotAuthorized
	}
	if err := s.friendshipRepo.DeleteBoth(ctx, friendship.UserID, friendship.FriendID); err != nil {
		return fmt.Errorf("removing friendship: %w", err)
	}
	log.Printf("friendship removed between %s and %s", friendship.UserID, friendship.FriendID)
	return nil
}

func (s *friendGraphService) ListFriends(ctx context.Context, userID uuid.UUID) ([]models.FriendWithUser, error) {
	grants, err := s.friendshipRepo.GrantsBy(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing friendships: %w", err)
	}
	result := make([]models.FriendWithUser, 0, len(grants))
	for _, grant := range grants {
		info, err := s.userRepo.GetBasicInfoByID(ctx, grant.FriendID)
		if err != nil {
			log.Printf("skipping friend %s of %s: %v", grant.FriendID, userID, err)
			continue
		}
		result = append(result, models.FriendWithUser{Friendship: grant, Friend: info})
	}
	return result, nil
}

func (s *friendGraphService) ListPendingRequests(ctx context.Context, userID uuid.UUID) ([]models.FriendRequestWithRequester, error) {
	pending, err := s.requestRepo.ListPendingFor(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing pending requests: %w", err)
	}
	result := make([]models.FriendRequestWithRequester, 0, len(pending))
	for _, req := range pending {
		requester, err := s.userRepo.GetBasicInfoByID(ctx, req.RequesterID)
		if err != nil {
			log.Printf("skipping pending request %s: requester lookup failed: %v", req.ID, err)
			continue
		}
		result = append(result, models.FriendRequestWithRequester{FriendRequest: req, Requester: requester})
	}
	return result, nil
}
