package controllers

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"klord-backend/config"
	"klord-backend/models"
	"klord-backend/services"
	"klord-backend/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type RequestOtpInput struct {
	Mobile string `json:"mobile" binding:"required"`
}

type VerifyOtpInput struct {
	Mobile string `json:"mobile" binding:"required"`
	Otp    string `json:"otp" binding:"required"`
}

type LoginInput struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RequestOtp issues a login code for a customer mobile number. Without an
// SMS provider the code is returned in the response (development behavior).
func RequestOtp(c *gin.Context) {
	var input RequestOtpInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "mobile is required")
		return
	}

	normalized, ok := utils.NormalizeMobile(input.Mobile)
	if !ok {
		utils.RespondWithError(c, http.StatusBadRequest, "invalid mobile format")
		return
	}

	code := services.OTP.Request(normalized)
	config.RecordOTPIssued()

	if services.SMSEnabled() {
		if err := services.SendOTP(normalized, code); err != nil {
			log.Printf("[otp] failed to send code to %s: %v", normalized, err)
			utils.RespondWithError(c, http.StatusInternalServerError, "Failed to send OTP")
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "mobile": normalized, "ttlMs": services.OTPTTL.Milliseconds(), "via": "sms"})
		return
	}

	log.Printf("[request-otp][DEV] OTP for %s is %s", normalized, code)
	c.JSON(http.StatusOK, gin.H{"success": true, "mobile": normalized, "otp": code, "ttlMs": services.OTPTTL.Milliseconds(), "via": "dev"})
}

// VerifyOtp consumes a pending code, lazily creates the customer record for
// that mobile and issues a session token.
func VerifyOtp(c *gin.Context) {
	var input VerifyOtpInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "mobile and otp are required")
		return
	}

	normalized, ok := utils.NormalizeMobile(input.Mobile)
	if !ok {
		utils.RespondWithError(c, http.StatusBadRequest, "invalid mobile format")
		return
	}

	if err := services.OTP.Verify(normalized, strings.TrimSpace(input.Otp)); err != nil {
		respondOtpError(c, err)
		return
	}
	config.RecordOTPVerified("success")

	customer, err := findOrCreateCustomer(normalized)
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to resolve customer")
		return
	}

	token, err := utils.GenerateToken(customer.ID.String(), utils.TypeCustomer, customer.Mobile, "", utils.CustomerTokenTTL)
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to generate token")
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token, "user": customer})
}

// PartnerRequestOtp issues a code for a partner. Partner numbers are a bare
// 10-digit input normalized to the fixed +91 prefix.
func PartnerRequestOtp(c *gin.Context) {
	var input RequestOtpInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "A valid 10-digit mobile number is required")
		return
	}

	normalized, ok := utils.NormalizePartnerMobile(input.Mobile)
	if !ok {
		utils.RespondWithError(c, http.StatusBadRequest, "A valid 10-digit mobile number is required")
		return
	}

	code := services.OTP.Request(normalized)
	config.RecordOTPIssued()

	if services.SMSEnabled() {
		if err := services.SendOTP(normalized, code); err != nil {
			log.Printf("[otp] failed to send partner code to %s: %v", normalized, err)
			utils.RespondWithError(c, http.StatusInternalServerError, "Failed to send OTP")
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "OTP sent", "ttlMs": services.OTPTTL.Milliseconds()})
		return
	}

	log.Printf("[request-otp-partner][DEV] OTP for %s is %s", normalized, code)
	c.JSON(http.StatusOK, gin.H{"message": "OTP sent (DEV)", "otp": code, "ttlMs": services.OTPTTL.Milliseconds()})
}

// PartnerVerifyOtp consumes a pending partner code and issues a token,
// lazily creating the partner record.
func PartnerVerifyOtp(c *gin.Context) {
	var input VerifyOtpInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Mobile and OTP are required")
		return
	}

	normalized, ok := utils.NormalizePartnerMobile(input.Mobile)
	if !ok {
		utils.RespondWithError(c, http.StatusBadRequest, "A valid 10-digit mobile number is required")
		return
	}

	if err := services.OTP.Verify(normalized, strings.TrimSpace(input.Otp)); err != nil {
		respondOtpError(c, err)
		return
	}
	config.RecordOTPVerified("success")

	var partner models.Partner
	err := config.DB.Where("mobile = ?", normalized).First(&partner).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		partner = models.Partner{Mobile: normalized, Name: "New Partner"}
		err = config.DB.Create(&partner).Error
	}
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to resolve partner")
		return
	}

	token, err := utils.GenerateToken(partner.ID.String(), utils.TypePartner, partner.Mobile, "", utils.PartnerTokenTTL)
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to generate token")
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token, "user": partner})
}

// AdminLogin checks email/password credentials. The error message never
// reveals whether the email exists.
func AdminLogin(c *gin.Context) {
	var input LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Email and password are required")
		return
	}

	var admin models.Admin
	if err := config.DB.Where("email = ?", input.Email).First(&admin).Error; err != nil {
		utils.RespondWithError(c, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	if !utils.CheckPasswordHash(input.Password, admin.PasswordHash) {
		utils.RespondWithError(c, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	token, err := utils.GenerateToken(admin.ID.String(), utils.TypeAdmin, "", admin.Email, utils.AdminTokenTTL)
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to generate token")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user":  gin.H{"id": admin.ID, "email": admin.Email, "name": admin.Name, "type": utils.TypeAdmin},
	})
}

// StaffLogin checks staff credentials and issues a 7-day token.
func StaffLogin(c *gin.Context) {
	var input LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Email and password are required")
		return
	}

	var staff models.Staff
	if err := config.DB.Where("email = ?", input.Email).First(&staff).Error; err != nil {
		utils.RespondWithError(c, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	if !utils.CheckPasswordHash(input.Password, staff.PasswordHash) {
		utils.RespondWithError(c, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	token, err := utils.GenerateToken(staff.ID.String(), utils.TypeStaff, "", staff.Email, utils.StaffTokenTTL)
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to generate token")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user":  gin.H{"id": staff.ID, "email": staff.Email, "name": staff.Name, "type": utils.TypeStaff},
	})
}

type RegisterStaffInput struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	Phone    string `json:"phone" binding:"required"`
}

// RegisterStaff lets an admin create a staff account.
func RegisterStaff(c *gin.Context) {
	var input RegisterStaffInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Name, email, password, and phone are required")
		return
	}

	email := strings.ToLower(strings.TrimSpace(input.Email))
	if !utils.ValidateEmail(email) {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid email format")
		return
	}
	if len(input.Password) < 6 {
		utils.RespondWithError(c, http.StatusBadRequest, "Password must be at least 6 characters long")
		return
	}

	var existing models.Staff
	err := config.DB.Where("email = ?", email).First(&existing).Error
	if err == nil {
		utils.RespondWithError(c, http.StatusConflict, "Staff member with this email already exists")
		return
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		return
	}

	hash, err := utils.HashPassword(input.Password, 12)
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to hash password")
		return
	}

	staff := models.Staff{
		Name:         strings.TrimSpace(input.Name),
		Email:        email,
		Phone:        strings.TrimSpace(input.Phone),
		PasswordHash: hash,
	}
	if err := config.DB.Create(&staff).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to create staff member")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"id":        staff.ID,
		"name":      staff.Name,
		"email":     staff.Email,
		"phone":     staff.Phone,
		"createdAt": staff.CreatedAt,
	})
}

// ListStaff returns all staff members, newest first.
func ListStaff(c *gin.Context) {
	var staff []models.Staff
	if err := config.DB.Order("created_at desc").Find(&staff).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve staff")
		return
	}
	c.JSON(http.StatusOK, staff)
}

func respondOtpError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrOTPNotFound):
		config.RecordOTPVerified("not_found")
		utils.RespondWithError(c, http.StatusBadRequest, "OTP not requested or has expired")
	case errors.Is(err, services.ErrOTPExpired):
		config.RecordOTPVerified("expired")
		utils.RespondWithError(c, http.StatusBadRequest, "OTP has expired. Please request a new one.")
	case errors.Is(err, services.ErrOTPTooManyAttempts):
		config.RecordOTPVerified("too_many_attempts")
		utils.RespondWithError(c, http.StatusForbidden, "Too many attempts. Please request a new OTP.")
	default:
		config.RecordOTPVerified("invalid")
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid OTP")
	}
}

// findOrCreateCustomer resolves a customer by normalized mobile,
// idempotently creating the record on first sight.
func findOrCreateCustomer(mobile string) (*models.Customer, error) {
	var customer models.Customer
	err := config.DB.Where("mobile = ?", mobile).First(&customer).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		customer = models.Customer{Mobile: mobile}
		err = config.DB.Create(&customer).Error
	}
	if err != nil {
		return nil, err
	}
	return &customer, nil
}
