package controllers

import (
	"errors"
	"net/http"
	"time"

	"klord-backend/config"
	"klord-backend/models"
	"klord-backend/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type CreateAmcRequestInput struct {
	LeadID string  `json:"leadId" binding:"required"`
	Note   *string `json:"note"`
}

// CreateAmcRequest submits a maintenance request for a lead the customer
// owns. Resubmission against a live (non-resolved) request updates the note
// instead of creating a duplicate.
func CreateAmcRequest(c *gin.Context) {
	var input CreateAmcRequestInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "leadId is required")
		return
	}

	var lead models.Lead
	err := config.DB.Where("id = ? AND customer_id = ?", input.LeadID, c.GetString("userId")).
		First(&lead).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Lead not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return
	}

	var existing models.AmcRequest
	err = config.DB.Where("lead_id = ? AND customer_id = ? AND status <> ?",
		lead.ID, c.GetString("userId"), models.AmcStatusResolved).
		First(&existing).Error
	if err == nil {
		if input.Note != nil {
			if err := config.DB.Model(&existing).Update("note", *input.Note).Error; err != nil {
				utils.RespondWithError(c, http.StatusInternalServerError, "Failed to update request")
				return
			}
			existing.Note = input.Note
		}
		c.JSON(http.StatusOK, existing)
		return
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		return
	}

	request := models.AmcRequest{
		LeadID:     lead.ID,
		CustomerID: *lead.CustomerID,
		Status:     models.AmcStatusPending,
		Note:       input.Note,
	}
	if err := config.DB.Create(&request).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to create request")
		return
	}

	c.JSON(http.StatusCreated, request)
}

// GetCustomerAmcRequest returns the latest request for a lead, or null.
func GetCustomerAmcRequest(c *gin.Context) {
	leadID := c.Query("leadId")
	if leadID == "" {
		utils.RespondWithError(c, http.StatusBadRequest, "leadId query is required")
		return
	}

	var lead models.Lead
	err := config.DB.Where("id = ? AND customer_id = ?", leadID, c.GetString("userId")).
		First(&lead).Error
	if err != nil {
		c.JSON(http.StatusOK, nil)
		return
	}

	var request models.AmcRequest
	err = config.DB.Where("lead_id = ? AND customer_id = ?", leadID, c.GetString("userId")).
		Order("created_at desc").First(&request).Error
	if err != nil {
		c.JSON(http.StatusOK, nil)
		return
	}
	c.JSON(http.StatusOK, request)
}

// GetCustomerAmcHistory returns all requests for a lead, newest first.
func GetCustomerAmcHistory(c *gin.Context) {
	leadID := c.Query("leadId")
	if leadID == "" {
		utils.RespondWithError(c, http.StatusBadRequest, "leadId query is required")
		return
	}

	var lead models.Lead
	err := config.DB.Where("id = ? AND customer_id = ?", leadID, c.GetString("userId")).
		First(&lead).Error
	if err != nil {
		c.JSON(http.StatusOK, []models.AmcRequest{})
		return
	}

	var requests []models.AmcRequest
	err = config.DB.Where("lead_id = ? AND customer_id = ?", leadID, c.GetString("userId")).
		Order("created_at desc").Find(&requests).Error
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		return
	}
	c.JSON(http.StatusOK, requests)
}

// ListAmcRequests returns every request with customer and lead, for admins.
func ListAmcRequests(c *gin.Context) {
	var requests []models.AmcRequest
	err := config.DB.Preload("Customer").Preload("Lead").
		Order("created_at desc").Find(&requests).Error
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve requests")
		return
	}
	c.JSON(http.StatusOK, requests)
}

type UpdateAmcRequestInput struct {
	Status string `json:"status" binding:"required"`
}

// UpdateAmcRequest changes a request's status. ResolvedAt is set only while
// the status is resolved.
func UpdateAmcRequest(c *gin.Context) {
	var input UpdateAmcRequestInput
	if err := c.ShouldBindJSON(&input); err != nil || !models.ValidAmcStatus(input.Status) {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid status")
		return
	}

	var request models.AmcRequest
	if err := config.DB.First(&request, "id = ?", c.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Request not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return
	}

	updates := map[string]interface{}{"status": input.Status}
	if input.Status == models.AmcStatusResolved {
		updates["resolved_at"] = time.Now()
	} else {
		updates["resolved_at"] = nil
	}
	if err := config.DB.Model(&request).Updates(updates).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to update request")
		return
	}

	if err := config.DB.First(&request, "id = ?", request.ID).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		return
	}
	c.JSON(http.StatusOK, request)
}
