package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Staff members are registered by admins, never self-registered.
type Staff struct {
	ID           uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	Email        string    `gorm:"uniqueIndex;not null" json:"email"`
	Name         string    `gorm:"not null" json:"name"`
	Phone        string    `json:"phone"`
	PasswordHash string    `gorm:"not null" json:"-"`

	AssignedLeads []Lead `gorm:"foreignKey:AssignedStaffID" json:"assignedLeads,omitempty"`

	gorm.Model
}

func (s *Staff) BeforeCreate(tx *gorm.DB) (err error) {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return
}
