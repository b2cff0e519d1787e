package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Admin accounts are created out-of-band via cmd/create-admin.
type Admin struct {
	ID           uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	Email        string    `gorm:"uniqueIndex;not null" json:"email"`
	Name         string    `gorm:"not null" json:"name"`
	PasswordHash string    `gorm:"not null" json:"-"`

	Posts []Post `gorm:"foreignKey:AuthorID" json:"posts,omitempty"`

	gorm.Model
}

func (a *Admin) BeforeCreate(tx *gorm.DB) (err error) {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return
}
