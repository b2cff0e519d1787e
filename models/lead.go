package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Lead is one submitted solar-project inquiry and its tracked fulfillment.
type Lead struct {
	ID         uuid.UUID  `gorm:"type:uuid;primary_key" json:"id"`
	CustomerID *uuid.UUID `gorm:"type:uuid;index" json:"customerId"`

	ProjectType string  `gorm:"not null" json:"projectType"`
	SizedKW     float64 `gorm:"not null" json:"sizedKW"`
	MonthlyBill float64 `gorm:"not null" json:"monthlyBill"`
	Pincode     string  `gorm:"not null" json:"pincode"`
	WithSubsidy bool    `gorm:"default:true" json:"withSubsidy"`

	EstimateINR     float64  `gorm:"not null" json:"estimateINR"`
	TotalInvestment float64  `json:"totalInvestment"`
	WP              *float64 `json:"wp"`
	Plates          *float64 `json:"plates"`

	// Finance (receipt) inputs
	RatePerKW            *float64 `json:"ratePerKW"`
	NetworkChargePerUnit *float64 `json:"networkChargePerUnit"`
	AnnualGenPerKW       *float64 `json:"annualGenPerKW"`
	ModuleDegradationPct *float64 `json:"moduleDegradationPct"`
	OMPerKWYear          *float64 `json:"omPerKWYear"`
	OMEscalationPct      *float64 `json:"omEscalationPct"`
	TariffINR            *float64 `json:"tariffINR"`
	TariffEscalationPct  *float64 `json:"tariffEscalationPct"`
	LifeYears            *int     `json:"lifeYears"`
	GSTPct               float64  `gorm:"default:8.9" json:"gstPct"`
	GSTAmount            float64  `json:"gstAmount"`

	FullName string  `gorm:"not null" json:"fullName"`
	Phone    string  `gorm:"not null" json:"phone"`
	Email    *string `json:"email"`
	Address  string  `gorm:"not null" json:"address"`
	Street   string  `gorm:"not null" json:"street"`
	State    string  `gorm:"not null" json:"state"`
	City     string  `gorm:"not null" json:"city"`
	Country  string  `gorm:"not null" json:"country"`
	Zip      string  `gorm:"not null" json:"zip"`

	BillingCycleMonths int      `gorm:"default:1" json:"billingCycleMonths"`
	BudgetINR          *float64 `json:"budgetINR"`
	Provider           *string  `json:"provider"`

	// Installation progress
	Percent         int        `gorm:"default:0" json:"percent"`
	AssignedStaffID *uuid.UUID `gorm:"type:uuid;index" json:"assignedStaffId"`
	Assigned        bool       `gorm:"default:false" json:"assigned"`

	CertificateURL         *string    `json:"certificateUrl"`
	CertificateGeneratedAt *time.Time `json:"certificateGeneratedAt"`

	Customer      *Customer  `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	AssignedStaff *Staff     `gorm:"foreignKey:AssignedStaffID" json:"assignedStaff,omitempty"`
	Steps         []LeadStep `gorm:"foreignKey:LeadID" json:"steps,omitempty"`

	gorm.Model
}

func (l *Lead) BeforeCreate(tx *gorm.DB) (err error) {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return
}

// LeadStep is one ordered stage of installation work for a lead.
// Order is 1-based and unique per lead.
type LeadStep struct {
	ID     uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	LeadID uuid.UUID `gorm:"type:uuid;index;uniqueIndex:idx_lead_step_order,priority:1;not null" json:"leadId"`

	Name            string     `gorm:"not null" json:"name"`
	Order           int        `gorm:"column:step_order;uniqueIndex:idx_lead_step_order,priority:2;not null" json:"order"`
	Completed       bool       `gorm:"default:false" json:"completed"`
	CompletedAt     *time.Time `json:"completedAt"`
	CompletionNotes *string    `json:"completionNotes"`

	gorm.Model
}

func (s *LeadStep) BeforeCreate(tx *gorm.DB) (err error) {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return
}
