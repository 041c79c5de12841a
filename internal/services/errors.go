package services

import "errors"

// Sentinel errors surfaced by the sharing and messaging services. Handlers
// match these with errors.Is to pick response codes; nothing is swallowed
// locally.
var (
	// ErrDuplicateRequest: a pending friend request already exists between
	// the two users (in either direction).
	ErrDuplicateRequest = errors.New("a pending friend request already exists between these users")

	// ErrNotAuthorized: the caller is not the party allowed to perform this
	// mutation (e.g. a role change by someone other than the grantor).
	ErrNotAuthorized = errors.New("caller is not authorized to perform this operation")

	// ErrConversationCreation: the insert lost the uniqueness race and the
	// follow-up fetch still found nothing. Infrastructure fault, not a user
	// error.
	ErrConversationCreation = errors.New("conversation could not be created or retrieved")

	// ErrAuthenticationRequired: no authenticated session on a call that
	// needs one.
	ErrAuthenticationRequired = errors.New("authentication required")

	// ErrConstraintViolation: a backend uniqueness or foreign-key conflict
	// not handled by a more specific error.
	ErrConstraintViolation = errors.New("storage constraint violation")

	ErrSelfRequest          = errors.New("cannot send a friend request to yourself")
	ErrAlreadyFriends       = errors.New("users are already friends")
	ErrRequestNotFound      = errors.New("friend request not found")
	ErrRequestNotPending    = errors.New("friend request is not pending")
	ErrFriendshipNotFound   = errors.New("friendship not found")
	ErrInvalidRole          = errors.New("invalid friendship role")
	ErrUserNotFound         = errors.New("user not found")
	ErrNotParticipant       = errors.New("user is not a participant of this conversation")
	ErrConversationNotFound = errors.New("conversation not found")
	ErrMessageNotFound      = errors.New("message not found")
	ErrEmptyMessage         = errors.New("message content must not be empty")
)
