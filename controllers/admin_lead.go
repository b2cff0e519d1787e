package controllers

import (
	"errors"
	"log"
	"net/http"
	"time"

	"klord-backend/config"
	"klord-backend/models"
	"klord-backend/services"
	"klord-backend/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// ListAdminLeads returns every lead with customer, steps and assigned staff.
func ListAdminLeads(c *gin.Context) {
	var leads []models.Lead
	err := config.DB.Preload("Customer").Preload("Steps", func(db *gorm.DB) *gorm.DB {
		return db.Order("step_order asc")
	}).Preload("AssignedStaff").Order("created_at desc").Find(&leads).Error
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve leads")
		return
	}

	for i := range leads {
		signCertificateURL(c, &leads[i])
	}
	c.JSON(http.StatusOK, leads)
}

// GetAdminLead returns one lead by id with its relations.
func GetAdminLead(c *gin.Context) {
	var lead models.Lead
	err := config.DB.Preload("Customer").Preload("Steps", func(db *gorm.DB) *gorm.DB {
		return db.Order("step_order asc")
	}).Preload("AssignedStaff").First(&lead, "id = ?", c.Param("id")).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return
	}

	signCertificateURL(c, &lead)
	c.JSON(http.StatusOK, lead)
}

type AssignStaffInput struct {
	StaffID string `json:"staffId" binding:"required"`
}

// AssignStaff attaches a staff member to a lead.
func AssignStaff(c *gin.Context) {
	var input AssignStaffInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Staff ID is required")
		return
	}

	var staff models.Staff
	if err := config.DB.First(&staff, "id = ?", input.StaffID).Error; err != nil {
		utils.RespondWithError(c, http.StatusNotFound, "Staff member not found")
		return
	}

	var lead models.Lead
	if err := config.DB.First(&lead, "id = ?", c.Param("id")).Error; err != nil {
		utils.RespondWithError(c, http.StatusNotFound, "Lead not found")
		return
	}

	err := config.DB.Model(&lead).Updates(map[string]interface{}{
		"assigned_staff_id": staff.ID,
		"assigned":          true,
	}).Error
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to assign staff")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"assignedStaff": gin.H{"id": staff.ID, "name": staff.Name, "email": staff.Email},
	})
}

// UnassignStaff clears a lead's staff assignment.
func UnassignStaff(c *gin.Context) {
	var lead models.Lead
	if err := config.DB.First(&lead, "id = ?", c.Param("id")).Error; err != nil {
		utils.RespondWithError(c, http.StatusNotFound, "Lead not found")
		return
	}

	err := config.DB.Model(&lead).Updates(map[string]interface{}{
		"assigned_staff_id": nil,
		"assigned":          false,
	}).Error
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to unassign staff")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Staff assignment removed successfully"})
}

// GetAdminLeadSteps lists the checklist for a lead, creating the default
// steps on first read.
func GetAdminLeadSteps(c *gin.Context) {
	var lead models.Lead
	if err := config.DB.First(&lead, "id = ?", c.Param("id")).Error; err != nil {
		utils.RespondWithError(c, http.StatusNotFound, "Lead not found")
		return
	}

	steps, err := services.EnsureSteps(config.DB, lead.ID)
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to load steps")
		return
	}
	c.JSON(http.StatusOK, steps)
}

type UpdateStepInput struct {
	Completed *bool `json:"completed" binding:"required"`
}

// UpdateAdminLeadStep marks a step complete or undoes it. A completion may
// trigger automatic certificate generation; certificate failures never roll
// back the step update.
func UpdateAdminLeadStep(c *gin.Context) {
	var input UpdateStepInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "completed is required")
		return
	}

	var step models.LeadStep
	err := config.DB.Where("id = ? AND lead_id = ?", c.Param("stepId"), c.Param("id")).
		First(&step).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Step not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return
	}

	updates := map[string]interface{}{"completed": *input.Completed}
	if *input.Completed {
		updates["completed_at"] = time.Now()
	} else {
		updates["completed_at"] = nil
	}
	if err := config.DB.Model(&step).Updates(updates).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to update step")
		return
	}

	if _, _, _, err := services.RecomputePercent(config.DB, step.LeadID); err != nil {
		log.Printf("[leads] failed to recompute percent for lead %s: %v", step.LeadID, err)
	}

	if *input.Completed {
		services.MaybeGenerateCertificate(c.Request.Context(), step.LeadID)
	}

	if err := config.DB.First(&step, "id = ?", step.ID).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		return
	}
	c.JSON(http.StatusOK, step)
}

// RegenerateCertificate force-renders the certificate for a lead regardless
// of step state.
func RegenerateCertificate(c *gin.Context) {
	var lead models.Lead
	if err := config.DB.First(&lead, "id = ?", c.Param("id")).Error; err != nil {
		utils.RespondWithError(c, http.StatusNotFound, "Lead not found")
		return
	}

	var steps []models.LeadStep
	if err := config.DB.Where("lead_id = ?", lead.ID).Order("step_order asc").Find(&steps).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		return
	}

	_, publicURL, err := services.GenerateForLead(c.Request.Context(), &lead, steps)
	if err != nil {
		config.RecordCertificate("failed")
		log.Printf("[certificate] force regenerate failed for lead %s: %v", lead.ID, err)
		utils.RespondWithError(c, http.StatusInternalServerError, "Internal Server Error")
		return
	}
	config.RecordCertificate("generated")

	err = config.DB.Model(&lead).Updates(map[string]interface{}{
		"certificate_url":          publicURL,
		"certificate_generated_at": time.Now(),
	}).Error
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to persist certificate")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"ok":             true,
		"certificateUrl": services.Blobs.SignIfOwned(c.Request.Context(), publicURL),
	})
}

// ListCustomerPhones returns a minimal id+mobile listing for admin tooling.
func ListCustomerPhones(c *gin.Context) {
	var customers []models.Customer
	if err := config.DB.Order("created_at desc").Find(&customers).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve customers")
		return
	}

	shaped := make([]gin.H, 0, len(customers))
	for _, cust := range customers {
		// No name field on customers; mobile doubles as the display name.
		shaped = append(shaped, gin.H{"id": cust.ID, "mobile": cust.Mobile, "name": cust.Mobile})
	}
	c.JSON(http.StatusOK, shaped)
}

// SampleCertificate renders a certificate from canned data, for quick
// testing of the template and renderer.
func SampleCertificate(c *gin.Context) {
	now := time.Now()
	_, publicURL, err := services.Certificates.Generate(c.Request.Context(), services.CertificateData{
		LeadID:        "SAMPLE-LEAD",
		CustomerName:  "Sample Customer",
		ProjectType:   "Solar Rooftop",
		SizedKW:       5.2,
		InstallDate:   services.FormatInstallDate(now),
		Location:      "Patna, Bihar, India",
		CertificateID: services.CertificateID("SAMPLE", now),
	})
	if err != nil {
		log.Printf("[certificate] sample generation failed: %v", err)
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to generate sample")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"ok":             true,
		"certificateUrl": services.Blobs.SignIfOwned(c.Request.Context(), publicURL),
	})
}
