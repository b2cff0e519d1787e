package controllers_test

import (
	"net/http"
	"strings"
	"testing"

	"klord-backend/config"
	"klord-backend/models"
	"klord-backend/services"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateLeadPublic_AssociatesCustomerByPhone(t *testing.T) {
	r := setupAPI(t)

	w := doJSON(t, r, http.MethodPost, "/api/leads/public", leadPayload(), "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	lead := decode(t, w)
	assert.NotEmpty(t, lead["id"])
	require.NotNil(t, lead["customerId"], "phone digits should resolve a customer")

	// The customer record was lazily created with the digits-only phone.
	var customer models.Customer
	require.NoError(t, config.DB.Where("mobile = ?", "9876543210").First(&customer).Error)
	assert.Equal(t, customer.ID.String(), lead["customerId"])

	// Finance defaults applied.
	assert.Equal(t, 260000.0, lead["totalInvestment"])
	assert.Equal(t, 8.9, lead["gstPct"])
	assert.Equal(t, 23140.0, lead["gstAmount"])
	assert.Equal(t, true, lead["withSubsidy"])
	assert.Equal(t, 1.0, lead["billingCycleMonths"])
}

func TestCreateLeadPublic_MissingRequiredField(t *testing.T) {
	r := setupAPI(t)

	payload := leadPayload()
	delete(payload, "fullName")
	w := doJSON(t, r, http.MethodPost, "/api/leads/public", payload, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateLeadPublic_UnresolvablePhoneStillCreates(t *testing.T) {
	r := setupAPI(t)

	payload := leadPayload()
	payload["phone"] = "12"
	w := doJSON(t, r, http.MethodPost, "/api/leads/public", payload, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Nil(t, decode(t, w)["customerId"])
}

func TestCreateLeadPublic_BillingCycleAlias(t *testing.T) {
	r := setupAPI(t)

	payload := leadPayload()
	payload["billingCycle"] = "2m"
	w := doJSON(t, r, http.MethodPost, "/api/leads/public", payload, "")
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, 2.0, decode(t, w)["billingCycleMonths"])
}

func TestCustomerLeadListing(t *testing.T) {
	r := setupAPI(t)

	w := doJSON(t, r, http.MethodPost, "/api/leads/public", leadPayload(), "")
	require.Equal(t, http.StatusCreated, w.Code)
	leadID := decode(t, w)["id"].(string)

	token := customerToken(t, r, "9876543210")

	w = doJSON(t, r, http.MethodGet, "/api/customer/leads", nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	leads := decodeList(t, w)
	require.Len(t, leads, 1)
	assert.Equal(t, leadID, leads[0]["id"])

	w = doJSON(t, r, http.MethodGet, "/api/customer/leads/"+leadID, nil, token)
	assert.Equal(t, http.StatusOK, w.Code)

	// Another customer cannot see it.
	other := customerToken(t, r, "9123456789")
	w = doJSON(t, r, http.MethodGet, "/api/customer/leads/"+leadID, nil, other)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCustomerLeadSteps_InitializedOnFirstRead(t *testing.T) {
	r := setupAPI(t)

	w := doJSON(t, r, http.MethodPost, "/api/leads/public", leadPayload(), "")
	require.Equal(t, http.StatusCreated, w.Code)
	leadID := decode(t, w)["id"].(string)

	token := customerToken(t, r, "9876543210")
	w = doJSON(t, r, http.MethodGet, "/api/customer/leads/"+leadID+"/steps", nil, token)
	require.Equal(t, http.StatusOK, w.Code)

	steps := decodeList(t, w)
	require.Len(t, steps, len(services.DefaultStepNames))
	for i, step := range steps {
		assert.Equal(t, services.DefaultStepNames[i], step["name"])
		assert.Equal(t, float64(i+1), step["order"])
	}
}

// adminLeadSteps fetches (and lazily creates) the checklist via the admin API.
func adminLeadSteps(t *testing.T, r *gin.Engine, token, leadID string) []map[string]interface{} {
	t.Helper()
	w := doJSON(t, r, http.MethodGet, "/api/admin/leads/"+leadID+"/steps", nil, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return decodeList(t, w)
}

func TestAdminStepCompletion_GeneratesCertificate(t *testing.T) {
	r := setupAPI(t)

	w := doJSON(t, r, http.MethodPost, "/api/leads/public", leadPayload(), "")
	require.Equal(t, http.StatusCreated, w.Code)
	leadID := decode(t, w)["id"].(string)

	token := adminToken(t, r)
	steps := adminLeadSteps(t, r, token, leadID)

	for _, step := range steps {
		if step["name"] == services.CertificateStepName {
			continue
		}
		w = doJSON(t, r, http.MethodPatch,
			"/api/admin/leads/"+leadID+"/steps/"+step["id"].(string),
			gin.H{"completed": true}, token)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	}

	w = doJSON(t, r, http.MethodGet, "/api/admin/leads/"+leadID, nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	lead := decode(t, w)

	url, _ := lead["certificateUrl"].(string)
	require.NotEmpty(t, url, "completing the last installation step should produce a certificate")
	assert.True(t, strings.HasPrefix(url, "/uploads/"))
	assert.NotNil(t, lead["certificateGeneratedAt"])
	assert.Equal(t, 100.0, lead["percent"])

	// The certificate step itself was auto-completed.
	for _, step := range adminLeadSteps(t, r, token, leadID) {
		assert.Equal(t, true, step["completed"], step["name"])
	}
}

func TestAdminStepUndo_RecomputesPercent(t *testing.T) {
	r := setupAPI(t)

	w := doJSON(t, r, http.MethodPost, "/api/leads/public", leadPayload(), "")
	require.Equal(t, http.StatusCreated, w.Code)
	leadID := decode(t, w)["id"].(string)

	token := adminToken(t, r)
	steps := adminLeadSteps(t, r, token, leadID)
	stepID := steps[0]["id"].(string)

	w = doJSON(t, r, http.MethodPatch, "/api/admin/leads/"+leadID+"/steps/"+stepID,
		gin.H{"completed": true}, token)
	require.Equal(t, http.StatusOK, w.Code)

	var lead models.Lead
	require.NoError(t, config.DB.First(&lead, "id = ?", leadID).Error)
	assert.Equal(t, 8, lead.Percent) // round(100*1/12)

	w = doJSON(t, r, http.MethodPatch, "/api/admin/leads/"+leadID+"/steps/"+stepID,
		gin.H{"completed": false}, token)
	require.Equal(t, http.StatusOK, w.Code)
	step := decode(t, w)
	assert.Equal(t, false, step["completed"])
	assert.Nil(t, step["completedAt"])

	require.NoError(t, config.DB.First(&lead, "id = ?", leadID).Error)
	assert.Equal(t, 0, lead.Percent)
}

func TestAdminRegenerateCertificate(t *testing.T) {
	r := setupAPI(t)

	w := doJSON(t, r, http.MethodPost, "/api/leads/public", leadPayload(), "")
	require.Equal(t, http.StatusCreated, w.Code)
	leadID := decode(t, w)["id"].(string)

	token := adminToken(t, r)
	w = doJSON(t, r, http.MethodPost, "/api/admin/leads/"+leadID+"/certificate/regenerate", nil, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	out := decode(t, w)
	assert.Equal(t, true, out["ok"])
	url, _ := out["certificateUrl"].(string)
	assert.True(t, strings.HasPrefix(url, "/uploads/"))
}

func TestStaffAssignmentAndStepCompletion(t *testing.T) {
	r := setupAPI(t)

	w := doJSON(t, r, http.MethodPost, "/api/leads/public", leadPayload(), "")
	require.Equal(t, http.StatusCreated, w.Code)
	leadID := decode(t, w)["id"].(string)

	admin := adminToken(t, r)

	w = doJSON(t, r, http.MethodPost, "/api/admin/staff/register", gin.H{
		"name": "Field Tech", "email": "tech@example.com",
		"password": "secret123", "phone": "9123456789",
	}, admin)
	require.Equal(t, http.StatusCreated, w.Code)
	staffID := decode(t, w)["id"].(string)

	w = doJSON(t, r, http.MethodPost, "/api/auth/staff/login",
		gin.H{"email": "tech@example.com", "password": "secret123"}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	staffToken, _ := decode(t, w)["token"].(string)
	require.NotEmpty(t, staffToken)

	steps := adminLeadSteps(t, r, admin, leadID)
	stepID := steps[0]["id"].(string)

	// Unassigned staff cannot complete a step.
	w = doJSON(t, r, http.MethodPost, "/api/staff/steps/"+stepID+"/complete",
		gin.H{"notes": "done"}, staffToken)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doJSON(t, r, http.MethodPost, "/api/admin/leads/"+leadID+"/assign",
		gin.H{"staffId": staffID}, admin)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// The lead now shows up in the staff worklist.
	w = doJSON(t, r, http.MethodGet, "/api/staff/my-leads", nil, staffToken)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, decodeList(t, w), 1)

	// Notes are mandatory.
	w = doJSON(t, r, http.MethodPost, "/api/staff/steps/"+stepID+"/complete",
		gin.H{"notes": "  "}, staffToken)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, r, http.MethodPost, "/api/staff/steps/"+stepID+"/complete",
		gin.H{"notes": "site meeting held"}, staffToken)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	out := decode(t, w)
	assert.Equal(t, true, out["success"])
	progress, _ := out["progress"].(map[string]interface{})
	require.NotNil(t, progress)
	assert.Equal(t, 1.0, progress["completed"])
	assert.Equal(t, 12.0, progress["total"])
	assert.Equal(t, 8.0, progress["percent"])

	step, _ := out["step"].(map[string]interface{})
	require.NotNil(t, step)
	assert.Equal(t, "site meeting held", step["completionNotes"])

	// Completing the same step twice fails.
	w = doJSON(t, r, http.MethodPost, "/api/staff/steps/"+stepID+"/complete",
		gin.H{"notes": "again"}, staffToken)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Unassign revokes access.
	w = doJSON(t, r, http.MethodPost, "/api/admin/leads/"+leadID+"/unassign", nil, admin)
	require.Equal(t, http.StatusOK, w.Code)
	w = doJSON(t, r, http.MethodGet, "/api/staff/my-leads/"+leadID, nil, staffToken)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAmcRequestLifecycle(t *testing.T) {
	r := setupAPI(t)

	w := doJSON(t, r, http.MethodPost, "/api/leads/public", leadPayload(), "")
	require.Equal(t, http.StatusCreated, w.Code)
	leadID := decode(t, w)["id"].(string)

	token := customerToken(t, r, "9876543210")

	w = doJSON(t, r, http.MethodPost, "/api/customer/amc-requests",
		gin.H{"leadId": leadID, "note": "inverter fault"}, token)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	request := decode(t, w)
	assert.Equal(t, models.AmcStatusPending, request["status"])
	requestID := request["id"].(string)

	// Resubmission against the live request updates the note in place.
	w = doJSON(t, r, http.MethodPost, "/api/customer/amc-requests",
		gin.H{"leadId": leadID, "note": "inverter fault, panel 3"}, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, requestID, decode(t, w)["id"])

	w = doJSON(t, r, http.MethodGet, "/api/customer/amc-requests?leadId="+leadID, nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "inverter fault, panel 3", decode(t, w)["note"])

	admin := adminToken(t, r)

	w = doJSON(t, r, http.MethodGet, "/api/admin/amc-requests", nil, admin)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, decodeList(t, w), 1)

	w = doJSON(t, r, http.MethodPatch, "/api/admin/amc-requests/"+requestID,
		gin.H{"status": "bogus"}, admin)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, r, http.MethodPatch, "/api/admin/amc-requests/"+requestID,
		gin.H{"status": models.AmcStatusResolved}, admin)
	require.Equal(t, http.StatusOK, w.Code)
	resolved := decode(t, w)
	assert.Equal(t, models.AmcStatusResolved, resolved["status"])
	assert.NotNil(t, resolved["resolvedAt"])

	// With the prior request resolved a new submission opens a fresh one.
	w = doJSON(t, r, http.MethodPost, "/api/customer/amc-requests",
		gin.H{"leadId": leadID, "note": "cleaning due"}, token)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.NotEqual(t, requestID, decode(t, w)["id"])

	w = doJSON(t, r, http.MethodGet, "/api/customer/amc-requests/history?leadId="+leadID, nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeList(t, w), 2)
}

func TestAmcRequest_ForeignLead(t *testing.T) {
	r := setupAPI(t)

	w := doJSON(t, r, http.MethodPost, "/api/leads/public", leadPayload(), "")
	require.Equal(t, http.StatusCreated, w.Code)
	leadID := decode(t, w)["id"].(string)

	other := customerToken(t, r, "9123456789")
	w = doJSON(t, r, http.MethodPost, "/api/customer/amc-requests",
		gin.H{"leadId": leadID, "note": "x"}, other)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPosts_PublicFeedAndLikes(t *testing.T) {
	r := setupAPI(t)

	post := models.Post{Caption: "Commissioned a 10kW rooftop today", ImageURL: "/uploads/p1.jpg"}
	require.NoError(t, config.DB.Create(&post).Error)

	w := doJSON(t, r, http.MethodGet, "/api/posts", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	feed := decodeList(t, w)
	require.Len(t, feed, 1)
	assert.Equal(t, "Commissioned a 10kW rooftop today", feed[0]["caption"])

	w = doJSON(t, r, http.MethodPost, "/api/posts/"+post.ID.String()+"/like", nil, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var reloaded models.Post
	require.NoError(t, config.DB.First(&reloaded, "id = ?", post.ID).Error)
	assert.Equal(t, 1, reloaded.Likes)
}

func TestLikePost_UnknownID(t *testing.T) {
	r := setupAPI(t)

	w := doJSON(t, r, http.MethodPost, "/api/posts/does-not-exist/like", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreatePost_RequiresCaption(t *testing.T) {
	r := setupAPI(t)
	admin := adminToken(t, r)

	w := doJSON(t, r, http.MethodPost, "/api/admin/posts", gin.H{}, admin)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeletePost(t *testing.T) {
	r := setupAPI(t)
	admin := adminToken(t, r)

	post := models.Post{Caption: "old post", ImageURL: "/uploads/gone.jpg"}
	require.NoError(t, config.DB.Create(&post).Error)

	w := doJSON(t, r, http.MethodDelete, "/api/admin/posts/"+post.ID.String(), nil, admin)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	err := config.DB.First(&models.Post{}, "id = ?", post.ID).Error
	assert.Error(t, err)

	w = doJSON(t, r, http.MethodDelete, "/api/admin/posts/"+post.ID.String(), nil, admin)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
