package models

import (
	"time"

	"github.com/google/uuid"
)

// Profile is a family member profile owned by a user. Profiles and their
// calendar events are owned by the calendar subsystem; this package only
// reads them to answer visibility queries for friends.
type Profile struct {
	Base
	OwnerID  uuid.UUID `gorm:"type:uuid;not null;index" json:"ownerId"`
	Name     string    `gorm:"type:varchar(100);not null" json:"name"`
	Color    string    `gorm:"type:varchar(20)" json:"color,omitempty"`
	PhotoURL string    `gorm:"type:varchar(255)" json:"photoUrl,omitempty"`
}

// TableName specifies the table name for the Profile model.
func (Profile) TableName() string {
	return "profiles"
}

// ProfileView is a profile as seen by a viewer, tagged with whether the
// viewer owns it and what the owner granted.
type ProfileView struct {
	Profile
	IsOwn bool       `json:"isOwn"`
	Role  FriendRole `json:"role"`
}

// CalendarEvent is a scheduled event on a profile's calendar, read-only from
// this subsystem's point of view.
type CalendarEvent struct {
	Base
	ProfileID uuid.UUID `gorm:"type:uuid;not null;index" json:"profileId"`
	Title     string    `gorm:"type:varchar(255);not null" json:"title"`
	Location  string    `gorm:"type:varchar(255)" json:"location,omitempty"`
	StartsAt  time.Time `gorm:"not null;index" json:"startsAt"`
	EndsAt    time.Time `gorm:"not null" json:"endsAt"`
}

// TableName specifies the table name for the CalendarEvent model.
func (CalendarEvent) TableName() string {
	return "calendar_events"
}
