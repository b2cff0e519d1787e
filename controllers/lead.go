package controllers

import (
	"errors"
	"log"
	"math"
	"net/http"

	"klord-backend/config"
	"klord-backend/models"
	"klord-backend/services"
	"klord-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// LeadInput is the submission payload from the estimate flow (5/5 page).
type LeadInput struct {
	ProjectType string   `json:"projectType" binding:"required"`
	SizedKW     *float64 `json:"sizedKW" binding:"required"`
	MonthlyBill *float64 `json:"monthlyBill" binding:"required"`
	Pincode     string   `json:"pincode" binding:"required"`
	EstimateINR *float64 `json:"estimateINR" binding:"required"`

	FullName string  `json:"fullName" binding:"required"`
	Phone    string  `json:"phone" binding:"required"`
	Email    *string `json:"email"`
	Address  string  `json:"address" binding:"required"`
	Street   string  `json:"street" binding:"required"`
	State    string  `json:"state" binding:"required"`
	City     string  `json:"city" binding:"required"`
	Country  string  `json:"country" binding:"required"`
	Zip      string  `json:"zip" binding:"required"`

	WithSubsidy     *bool    `json:"withSubsidy"`
	TotalInvestment *float64 `json:"totalInvestment"`
	WP              *float64 `json:"wp"`
	Plates          *float64 `json:"plates"`

	RatePerKW            *float64 `json:"ratePerKW"`
	NetworkChargePerUnit *float64 `json:"networkChargePerUnit"`
	AnnualGenPerKW       *float64 `json:"annualGenPerKW"`
	ModuleDegradationPct *float64 `json:"moduleDegradationPct"`
	OMPerKWYear          *float64 `json:"omPerKWYear"`
	OMEscalationPct      *float64 `json:"omEscalationPct"`
	TariffINR            *float64 `json:"tariffINR"`
	TariffEscalationPct  *float64 `json:"tariffEscalationPct"`
	LifeYears            *int     `json:"lifeYears"`
	GSTPct               *float64 `json:"gstPct"`
	GSTAmount            *float64 `json:"gstAmount"`

	BillingCycleMonths *int     `json:"billingCycleMonths"`
	BillingCycle       *string  `json:"billingCycle"`
	Budget             *float64 `json:"budget"`
	BudgetINR          *float64 `json:"budgetINR"`
	Provider           *string  `json:"provider"`

	// Alternate phone key accepted on the public route.
	Mobile *string `json:"mobile"`
}

const defaultGSTPct = 8.9

// buildLead applies the finance defaults shared by both create routes.
func buildLead(input *LeadInput) models.Lead {
	gstPct := defaultGSTPct
	if input.GSTPct != nil {
		gstPct = *input.GSTPct
	}
	totalInvestment := *input.EstimateINR
	if input.TotalInvestment != nil {
		totalInvestment = *input.TotalInvestment
	}
	gstAmount := math.Round(totalInvestment * gstPct / 100)
	if input.GSTAmount != nil {
		gstAmount = *input.GSTAmount
	}
	withSubsidy := true
	if input.WithSubsidy != nil {
		withSubsidy = *input.WithSubsidy
	}
	billingCycleMonths := 1
	if input.BillingCycleMonths != nil {
		billingCycleMonths = *input.BillingCycleMonths
	} else if input.BillingCycle != nil && *input.BillingCycle == "2m" {
		billingCycleMonths = 2
	}
	budget := input.Budget
	if budget == nil {
		budget = input.BudgetINR
	}

	return models.Lead{
		ProjectType:          input.ProjectType,
		SizedKW:              *input.SizedKW,
		MonthlyBill:          *input.MonthlyBill,
		Pincode:              input.Pincode,
		WithSubsidy:          withSubsidy,
		EstimateINR:          *input.EstimateINR,
		TotalInvestment:      totalInvestment,
		WP:                   input.WP,
		Plates:               input.Plates,
		RatePerKW:            input.RatePerKW,
		NetworkChargePerUnit: input.NetworkChargePerUnit,
		AnnualGenPerKW:       input.AnnualGenPerKW,
		ModuleDegradationPct: input.ModuleDegradationPct,
		OMPerKWYear:          input.OMPerKWYear,
		OMEscalationPct:      input.OMEscalationPct,
		TariffINR:            input.TariffINR,
		TariffEscalationPct:  input.TariffEscalationPct,
		LifeYears:            input.LifeYears,
		GSTPct:               gstPct,
		GSTAmount:            gstAmount,
		FullName:             input.FullName,
		Phone:                input.Phone,
		Email:                input.Email,
		Address:              input.Address,
		Street:               input.Street,
		State:                input.State,
		City:                 input.City,
		Country:              input.Country,
		Zip:                  input.Zip,
		BillingCycleMonths:   billingCycleMonths,
		BudgetINR:            budget,
		Provider:             input.Provider,
	}
}

// CreateLead creates a lead owned by the authenticated customer.
func CreateLead(c *gin.Context) {
	customerID, err := uuid.Parse(c.GetString("userId"))
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Invalid customer ID format")
		return
	}

	var input LeadInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	lead := buildLead(&input)
	lead.CustomerID = &customerID

	if err := config.DB.Create(&lead).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to create lead")
		return
	}

	c.JSON(http.StatusCreated, lead)
}

// CreateLeadPublic accepts anonymous submissions from the mobile app. A
// valid customer bearer token associates the lead; otherwise the submitted
// phone is used to look up or lazily create a customer. Association
// problems never fail the submission.
func CreateLeadPublic(c *gin.Context) {
	var input LeadInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	lead := buildLead(&input)

	if customerID := publicLeadCustomer(c, &input); customerID != nil {
		lead.CustomerID = customerID
	}

	if err := config.DB.Create(&lead).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to create lead")
		return
	}

	c.JSON(http.StatusCreated, lead)
}

func publicLeadCustomer(c *gin.Context, input *LeadInput) *uuid.UUID {
	if token := utils.BearerToken(c.GetHeader("Authorization")); token != "" {
		if claims, err := utils.ParseToken(token); err == nil && claims.Type == utils.TypeCustomer {
			if id, err := uuid.Parse(claims.Subject); err == nil {
				return &id
			}
		}
	}

	rawPhone := input.Phone
	if rawPhone == "" && input.Mobile != nil {
		rawPhone = *input.Mobile
	}
	normalized := utils.DigitsOnly(rawPhone)
	if len(normalized) < 8 || len(normalized) > 15 {
		return nil
	}

	customer, err := findOrCreateCustomer(normalized)
	if err != nil {
		log.Printf("[leads-public] customer association by phone skipped: %v", err)
		return nil
	}
	return &customer.ID
}

// ListCustomerLeads returns the authenticated customer's leads, newest
// first, with certificate URLs signed.
func ListCustomerLeads(c *gin.Context) {
	var leads []models.Lead
	err := config.DB.Where("customer_id = ?", c.GetString("userId")).
		Order("created_at desc").Find(&leads).Error
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve leads")
		return
	}

	for i := range leads {
		signCertificateURL(c, &leads[i])
	}
	c.JSON(http.StatusOK, leads)
}

// GetCustomerLead returns one lead owned by the authenticated customer.
func GetCustomerLead(c *gin.Context) {
	var lead models.Lead
	err := config.DB.Where("id = ? AND customer_id = ?", c.Param("id"), c.GetString("userId")).
		First(&lead).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Lead not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return
	}

	signCertificateURL(c, &lead)
	c.JSON(http.StatusOK, lead)
}

// GetCustomerLeadSteps lists the checklist for a lead the customer owns,
// creating the default steps on first read.
func GetCustomerLeadSteps(c *gin.Context) {
	var lead models.Lead
	err := config.DB.Where("id = ? AND customer_id = ?", c.Param("id"), c.GetString("userId")).
		First(&lead).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Lead not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return
	}

	steps, err := services.EnsureSteps(config.DB, lead.ID)
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to load steps")
		return
	}
	c.JSON(http.StatusOK, steps)
}

func signCertificateURL(c *gin.Context, lead *models.Lead) {
	if lead.CertificateURL != nil {
		signed := services.Blobs.SignIfOwned(c.Request.Context(), *lead.CertificateURL)
		lead.CertificateURL = &signed
	}
}
