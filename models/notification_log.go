package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// NotificationLog records SMS nudges sent by the AMC reminder job.
type NotificationLog struct {
	ID           uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	AmcRequestID uuid.UUID `gorm:"type:uuid;index;not null" json:"amcRequestId"`
	CustomerID   uuid.UUID `gorm:"type:uuid;index;not null" json:"customerId"`

	Message      string    `gorm:"type:text" json:"message"`
	Status       string    `gorm:"type:varchar(20)" json:"status"` // sent, failed
	ErrorMessage string    `gorm:"type:text" json:"errorMessage"`
	SentAt       time.Time `json:"sentAt"`

	gorm.Model
}

func (n *NotificationLog) BeforeCreate(tx *gorm.DB) (err error) {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return
}
