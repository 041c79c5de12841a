package models

import "time"

// User represents an account in the system. Calendar data hangs off the
// user's profiles; the user row itself only carries identity and display
// fields.
type User struct {
	Base
	Username     string     `gorm:"type:varchar(100);uniqueIndex;not null" json:"username"`
	PasswordHash string     `gorm:"type:varchar(255);not null" json:"-"`
	Email        string     `gorm:"type:varchar(100);uniqueIndex" json:"email,omitempty"`
	DisplayName  string     `gorm:"type:varchar(100)" json:"displayName,omitempty"`
	AvatarURL    string     `gorm:"type:varchar(255)" json:"avatarUrl,omitempty"`
	LastSeenAt   *time.Time `json:"lastSeenAt,omitempty"`
}

// UserBasicInfo holds the minimal public information about a user, used when
// listing friends or enriching pending friend requests.
type UserBasicInfo struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"displayName,omitempty"`
	AvatarURL   string `json:"avatarUrl,omitempty"`
}

// BasicInfo projects the user onto its public fields.
func (u *User) BasicInfo() *UserBasicInfo {
	return &UserBasicInfo{
		ID:          u.ID.String(),
		Username:    u.Username,
		DisplayName: u.DisplayName,
		AvatarURL:   u.AvatarURL,
	}
}

// TableName specifies the table name for the User model.
func (User) TableName() string {
	return "users"
}
