package models

import "github.com/google/uuid"

// FriendRole is the capability level one user grants another over their own
// calendar data. "none" still allows chat; "viewer" adds read-only visibility;
// "administrator" adds full management.
type FriendRole string

const (
	RoleNone          FriendRole = "none"
	RoleViewer        FriendRole = "viewer"
	RoleAdministrator FriendRole = "administrator"
)

// Valid reports whether r is one of the defined roles.
func (r FriendRole) Valid() bool {
	switch r {
	case RoleNone, RoleViewer, RoleAdministrator:
		return true
	}
	return false
}

// CanView reports whether the role carries read visibility.
func (r FriendRole) CanView() bool {
	return r == RoleViewer || r == RoleAdministrator
}

// CanAdminister reports whether the role carries management rights.
func (r FriendRole) CanAdminister() bool {
	return r == RoleAdministrator
}

// Friendship is a directional grant: the row (UserID=O, FriendID=V, Role=R)
// means O grants V capability R over O's own data. Accepting a request always
// creates two rows, one per direction, so the relation is symmetric in
// existence but independent in role value. Unfriending removes both rows.
type Friendship struct {
	Base
	UserID   uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_friendship_pair" json:"userId"`
	FriendID uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_friendship_pair" json:"friendId"`
	Role     FriendRole `gorm:"type:varchar(20);not null;default:'none'" json:"role"`
}

// TableName specifies the table name for the Friendship model.
func (Friendship) TableName() string {
	return "friendships"
}

// FriendWithUser bundles a grant with basic info about the counter-party.
type FriendWithUser struct {
	Friendship
	Friend *UserBasicInfo `json:"friend"`
}
