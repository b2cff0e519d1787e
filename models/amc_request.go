package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	AmcStatusPending    = "pending"
	AmcStatusInProgress = "in_progress"
	AmcStatusResolved   = "resolved"
	AmcStatusRejected   = "rejected"
)

// AmcRequest is an annual maintenance contract service request.
// At most one non-resolved request is kept live per (lead, customer) pair.
type AmcRequest struct {
	ID         uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	LeadID     uuid.UUID `gorm:"type:uuid;index;not null" json:"leadId"`
	CustomerID uuid.UUID `gorm:"type:uuid;index;not null" json:"customerId"`

	Status     string     `gorm:"type:varchar(20);default:'pending'" json:"status"`
	Note       *string    `json:"note"`
	ResolvedAt *time.Time `json:"resolvedAt"`

	Lead     *Lead     `gorm:"foreignKey:LeadID" json:"lead,omitempty"`
	Customer *Customer `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`

	gorm.Model
}

func (r *AmcRequest) BeforeCreate(tx *gorm.DB) (err error) {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return
}

// ValidAmcStatus reports whether s is one of the accepted status values.
func ValidAmcStatus(s string) bool {
	switch s {
	case AmcStatusPending, AmcStatusInProgress, AmcStatusResolved, AmcStatusRejected:
		return true
	}
	return false
}
