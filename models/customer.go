package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Customer is created lazily on first OTP verification or lead submission,
// keyed by normalized mobile number (digits only).
type Customer struct {
	ID     uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	Mobile string    `gorm:"uniqueIndex;not null" json:"mobile"`

	Leads       []Lead       `gorm:"foreignKey:CustomerID" json:"leads,omitempty"`
	AmcRequests []AmcRequest `gorm:"foreignKey:CustomerID" json:"amcRequests,omitempty"`

	gorm.Model
}

func (c *Customer) BeforeCreate(tx *gorm.DB) (err error) {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return
}
