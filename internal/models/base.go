package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base defines the common fields for all models: a UUID primary key generated
// by the database, plus creation and update timestamps.
type Base struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// BeforeCreate assigns an ID client-side when the row is created outside the
// database default (keeps inserts usable against stores without gen_random_uuid).
func (b *Base) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}
