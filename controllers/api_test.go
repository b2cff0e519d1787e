package controllers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"klord-backend/config"
	"klord-backend/models"
	"klord-backend/routes"
	"klord-backend/services"
	"klord-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

type stubRenderer struct {
	calls int
}

func (s *stubRenderer) RenderPDF(ctx context.Context, html string) ([]byte, error) {
	s.calls++
	return []byte("%PDF-1.4 stub"), nil
}

const stubTemplate = `<html><body>{{customerName}} {{sizedKW}} {{installDate}} {{certificateId}}</body></html>`

// setupAPI wires a fresh in-memory database and stubbed services behind the
// real router.
func setupAPI(t *testing.T) *gin.Engine {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Customer{},
		&models.Partner{},
		&models.Admin{},
		&models.Staff{},
		&models.Lead{},
		&models.LeadStep{},
		&models.AmcRequest{},
		&models.Post{},
		&models.NotificationLog{},
	))
	config.DB = db

	tmplPath := filepath.Join(t.TempDir(), "certificate.html")
	require.NoError(t, os.WriteFile(tmplPath, []byte(stubTemplate), 0644))

	services.Blobs = &services.Storage{}
	services.Certificates = &services.CertificateGenerator{
		TemplatePath:  tmplPath,
		UploadsDir:    t.TempDir(),
		Renderer:      &stubRenderer{},
		RenderTimeout: 5 * time.Second,
	}
	services.SMS = nil

	return routes.SetupRouter()
}

func doJSON(t *testing.T, r http.Handler, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func decodeList(t *testing.T, w *httptest.ResponseRecorder) []map[string]interface{} {
	t.Helper()
	var out []map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func leadPayload() map[string]interface{} {
	return map[string]interface{}{
		"projectType": "Residential",
		"sizedKW":     5.2,
		"monthlyBill": 3200,
		"pincode":     "800001",
		"estimateINR": 260000,
		"fullName":    "Asha Verma",
		"phone":       "98765 43210",
		"address":     "12 Gandhi Maidan",
		"street":      "Fraser Road",
		"state":       "Bihar",
		"city":        "Patna",
		"country":     "India",
		"zip":         "800001",
	}
}

// customerToken walks the full OTP flow for the mobile and returns the token.
func customerToken(t *testing.T, r http.Handler, mobile string) string {
	t.Helper()

	w := doJSON(t, r, http.MethodPost, "/api/auth/request-otp", gin.H{"mobile": mobile}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	otp, _ := decode(t, w)["otp"].(string)
	require.NotEmpty(t, otp, "dev mode should echo the otp")

	w = doJSON(t, r, http.MethodPost, "/api/auth/verify-otp", gin.H{"mobile": mobile, "otp": otp}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	token, _ := decode(t, w)["token"].(string)
	require.NotEmpty(t, token)
	return token
}

func adminToken(t *testing.T, r http.Handler) string {
	t.Helper()

	hash, err := utils.HashPassword("admin-pass", 4)
	require.NoError(t, err)
	require.NoError(t, config.DB.Create(&models.Admin{
		Email:        "admin@example.com",
		Name:         "Admin",
		PasswordHash: hash,
	}).Error)

	w := doJSON(t, r, http.MethodPost, "/api/auth/admin/login",
		gin.H{"email": "admin@example.com", "password": "admin-pass"}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	token, _ := decode(t, w)["token"].(string)
	require.NotEmpty(t, token)
	return token
}

func TestHealth(t *testing.T) {
	r := setupAPI(t)
	w := doJSON(t, r, http.MethodGet, "/api/health", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuthGuards(t *testing.T) {
	r := setupAPI(t)

	w := doJSON(t, r, http.MethodGet, "/api/admin/leads", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(t, r, http.MethodGet, "/api/admin/leads", nil, "garbage.token.here")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// A customer token is not enough for admin routes.
	token := customerToken(t, r, "9876543210")
	w = doJSON(t, r, http.MethodGet, "/api/admin/leads", nil, token)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRequestOtp_InvalidMobile(t *testing.T) {
	r := setupAPI(t)

	for _, mobile := range []string{"", "1234567", "+919876543210", "abc"} {
		w := doJSON(t, r, http.MethodPost, "/api/auth/request-otp", gin.H{"mobile": mobile}, "")
		assert.Equal(t, http.StatusBadRequest, w.Code, mobile)
	}
}

func TestVerifyOtp_WrongCode(t *testing.T) {
	r := setupAPI(t)

	w := doJSON(t, r, http.MethodPost, "/api/auth/request-otp", gin.H{"mobile": "9876543210"}, "")
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodPost, "/api/auth/verify-otp",
		gin.H{"mobile": "9876543210", "otp": "000000"}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestVerifyOtp_IdempotentCustomer(t *testing.T) {
	r := setupAPI(t)

	customerToken(t, r, "9876543210")
	customerToken(t, r, "9876543210")

	var count int64
	require.NoError(t, config.DB.Model(&models.Customer{}).
		Where("mobile = ?", "9876543210").Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestPartnerOtpFlow(t *testing.T) {
	r := setupAPI(t)

	w := doJSON(t, r, http.MethodPost, "/api/auth/partner/request-otp", gin.H{"mobile": "9876543210"}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	otp, _ := decode(t, w)["otp"].(string)
	require.NotEmpty(t, otp)

	w = doJSON(t, r, http.MethodPost, "/api/auth/partner/verify-otp",
		gin.H{"mobile": "9876543210", "otp": otp}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	user, _ := decode(t, w)["user"].(map[string]interface{})
	require.NotNil(t, user)
	assert.Equal(t, "+919876543210", user["mobile"])
}

func TestPartnerRequestOtp_RejectsNonTenDigit(t *testing.T) {
	r := setupAPI(t)

	w := doJSON(t, r, http.MethodPost, "/api/auth/partner/request-otp", gin.H{"mobile": "987654321"}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAdminLogin_BadCredentials(t *testing.T) {
	r := setupAPI(t)
	adminToken(t, r)

	w := doJSON(t, r, http.MethodPost, "/api/auth/admin/login",
		gin.H{"email": "admin@example.com", "password": "wrong"}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Unknown email yields the same message.
	w = doJSON(t, r, http.MethodPost, "/api/auth/admin/login",
		gin.H{"email": "nobody@example.com", "password": "admin-pass"}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid credentials")
}

func TestRegisterStaff(t *testing.T) {
	r := setupAPI(t)
	token := adminToken(t, r)

	payload := gin.H{
		"name":     "Field Tech",
		"email":    "Tech@Example.com",
		"password": "secret123",
		"phone":    "9123456789",
	}
	w := doJSON(t, r, http.MethodPost, "/api/admin/staff/register", payload, token)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "tech@example.com", decode(t, w)["email"])

	// Same email again conflicts.
	w = doJSON(t, r, http.MethodPost, "/api/admin/staff/register", payload, token)
	assert.Equal(t, http.StatusConflict, w.Code)

	// Short passwords are rejected.
	payload["email"] = "other@example.com"
	payload["password"] = "short"
	w = doJSON(t, r, http.MethodPost, "/api/admin/staff/register", payload, token)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, r, http.MethodGet, "/api/admin/staff", nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeList(t, w), 1)
}
