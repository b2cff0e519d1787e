package controllers

import (
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"klord-backend/config"
	"klord-backend/models"
	"klord-backend/services"
	"klord-backend/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// ListMyLeads returns the leads assigned to the acting staff member.
func ListMyLeads(c *gin.Context) {
	var leads []models.Lead
	err := config.DB.Preload("Steps", func(db *gorm.DB) *gorm.DB {
		return db.Order("step_order asc")
	}).Where("assigned_staff_id = ?", c.GetString("userId")).
		Order("updated_at desc").Find(&leads).Error
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve leads")
		return
	}
	c.JSON(http.StatusOK, leads)
}

// GetMyLead returns one assigned lead with customer and steps.
func GetMyLead(c *gin.Context) {
	var lead models.Lead
	err := config.DB.Preload("Customer").Preload("Steps", func(db *gorm.DB) *gorm.DB {
		return db.Order("step_order asc")
	}).Where("id = ? AND assigned_staff_id = ?", c.Param("id"), c.GetString("userId")).
		First(&lead).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Lead not found or not assigned to you")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return
	}
	c.JSON(http.StatusOK, lead)
}

type CompleteStepInput struct {
	Notes string `json:"notes"`
}

// CompleteStep marks a step done with mandatory completion notes. The step
// must belong to a lead assigned to the acting staff member.
func CompleteStep(c *gin.Context) {
	var input CompleteStepInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input")
		return
	}
	notes := strings.TrimSpace(input.Notes)
	if notes == "" {
		utils.RespondWithError(c, http.StatusBadRequest, "Completion notes are required")
		return
	}

	var step models.LeadStep
	if err := config.DB.First(&step, "id = ?", c.Param("stepId")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Step not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return
	}

	var lead models.Lead
	if err := config.DB.First(&lead, "id = ?", step.LeadID).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		return
	}
	if lead.AssignedStaffID == nil || lead.AssignedStaffID.String() != c.GetString("userId") {
		utils.RespondWithError(c, http.StatusForbidden, "You are not assigned to this lead")
		return
	}

	if step.Completed {
		utils.RespondWithError(c, http.StatusBadRequest, "Step is already completed")
		return
	}

	err := config.DB.Model(&step).Updates(map[string]interface{}{
		"completed":        true,
		"completed_at":     time.Now(),
		"completion_notes": notes,
	}).Error
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to update step")
		return
	}

	completed, total, percent, err := services.RecomputePercent(config.DB, step.LeadID)
	if err != nil {
		log.Printf("[leads] failed to recompute percent for lead %s: %v", step.LeadID, err)
	}

	services.MaybeGenerateCertificate(c.Request.Context(), step.LeadID)

	if err := config.DB.First(&step, "id = ?", step.ID).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"step":     step,
		"progress": gin.H{"completed": completed, "total": total, "percent": percent},
	})
}
