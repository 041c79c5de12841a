package models

import "github.com/google/uuid"

// FriendRequestStatus is the lifecycle state of a friend request.
// A pending request moves to accepted or declined; both are terminal.
type FriendRequestStatus string

const (
	FriendRequestStatusPending  FriendRequestStatus = "pending"
	FriendRequestStatusAccepted FriendRequestStatus = "accepted"
	FriendRequestStatusDeclined FriendRequestStatus = "declined"
)

// Terminal reports whether no further transition is allowed out of s.
func (s FriendRequestStatus) Terminal() bool {
	return s == FriendRequestStatusAccepted || s == FriendRequestStatusDeclined
}

// FriendRequest records one user asking another to become friends, carrying
// the role the requester proposes to grant over their own calendar data.
// At most one pending request may exist between a pair of users; the partial
// unique index below enforces the requester->requested direction and the
// service checks the reverse direction before insert.
type FriendRequest struct {
	Base
	RequesterID uuid.UUID           `gorm:"type:uuid;not null;index:idx_friend_request_pair,unique,where:status = 'pending'" json:"requesterId"`
	RequestedID uuid.UUID           `gorm:"type:uuid;not null;index:idx_friend_request_pair,unique,where:status = 'pending'" json:"requestedId"`
	Status      FriendRequestStatus `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	Role        FriendRole          `gorm:"type:varchar(20);not null;default:'none'" json:"role"`
	Message     string              `gorm:"type:text" json:"message,omitempty"`
}

// TableName specifies the table name for the FriendRequest model.
func (FriendRequest) TableName() string {
	return "friend_requests"
}

// FriendRequestWithRequester bundles a pending request with basic info about
// the user who sent it, for API responses listing pending requests.
type FriendRequestWithRequester struct {
	FriendRequest
	Requester *UserBasicInfo `json:"requester"`
}
