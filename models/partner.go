package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Partner mobile numbers are stored in "+91XXXXXXXXXX" form.
type Partner struct {
	ID     uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	Mobile string    `gorm:"uniqueIndex;not null" json:"mobile"`
	Name   string    `gorm:"default:'New Partner'" json:"name"`

	gorm.Model
}

func (p *Partner) BeforeCreate(tx *gorm.DB) (err error) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return
}
