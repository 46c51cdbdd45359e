package router

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/javajoker/lease-backend/internal/clock"
	"github.com/javajoker/lease-backend/internal/config"
	"github.com/javajoker/lease-backend/internal/database"
	"github.com/javajoker/lease-backend/internal/i18n"
	"github.com/javajoker/lease-backend/internal/middleware"
	"github.com/javajoker/lease-backend/internal/models"
	"github.com/javajoker/lease-backend/internal/services"
	"github.com/javajoker/lease-backend/internal/testutil"
	"github.com/javajoker/lease-backend/internal/utils"
)

const adminPassword = "Admin123!"

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type RouterTestSuite struct {
	suite.Suite
	db     *gorm.DB
	router *gin.Engine
	admin  string
}

func (suite *RouterTestSuite) SetupSuite() {
	gin.SetMode(gin.TestMode)
	utils.SetJWTSecret("router-test-secret")
	require.NoError(suite.T(), i18n.Initialize())
}

func (suite *RouterTestSuite) SetupTest() {
	t := suite.T()
	suite.db = testutil.NewDB(t)
	require.NoError(t, database.SeedInitialData(suite.db, adminPassword))

	cfg := &config.Config{
		JWT:     config.JWTConfig{SecretKey: "router-test-secret", AccessTokenTTL: 1},
		Redis:   config.RedisConfig{StatsTTL: 60},
		Storage: config.StorageConfig{MaxFileSize: 1 << 20},
		CORS:    config.CORSConfig{AllowOrigins: []string{"*"}},
	}
	svc := NewServices(suite.db, cfg, Dependencies{
		Clock: clock.Fixed{Day: clock.Date(2024, 6, 1)},
		Store: services.NewLocalStore(t.TempDir(), "/files"),
	})
	suite.router = Initialize(svc, cfg, middleware.Unlimited())
	suite.admin = suite.login("admin", adminPassword)
}

func (suite *RouterTestSuite) do(method, path, token string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(suite.T(), err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, path, reader)
	require.NoError(suite.T(), err)
	req.Header.Set("Content-Type", "application/json")
	return suite.serve(req, token)
}

func (suite *RouterTestSuite) serve(req *http.Request, token string) (*httptest.ResponseRecorder, envelope) {
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	var env envelope
	if w.Header().Get("Content-Type") == "application/json; charset=utf-8" {
		require.NoError(suite.T(), json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w, env
}

func (suite *RouterTestSuite) login(username, password string) string {
	w, env := suite.do(http.MethodPost, "/api/auth/login", "", gin.H{"username": username, "password": password})
	require.Equal(suite.T(), http.StatusOK, w.Code, w.Body.String())

	var auth services.AuthResponse
	require.NoError(suite.T(), json.Unmarshal(env.Data, &auth))
	return auth.AccessToken
}

func (suite *RouterTestSuite) register(username, role string) string {
	w, _ := suite.do(http.MethodPost, "/api/auth/register", "", gin.H{
		"username": username,
		"email":    username + "@example.com",
		"password": "Passw0rd!",
		"role":     role,
	})
	require.Equal(suite.T(), http.StatusCreated, w.Code, w.Body.String())
	return suite.login(username, "Passw0rd!")
}

func (suite *RouterTestSuite) createID(path, token string, body interface{}) uint {
	w, env := suite.do(http.MethodPost, path, token, body)
	require.Equal(suite.T(), http.StatusCreated, w.Code, w.Body.String())

	var created struct {
		ID uint `json:"id"`
	}
	require.NoError(suite.T(), json.Unmarshal(env.Data, &created))
	require.NotZero(suite.T(), created.ID)
	return created.ID
}

func (suite *RouterTestSuite) createLease(token, agreement string) uint {
	landlordID := suite.createID("/api/landlords", token, gin.H{"full_name": "Jane Doe " + agreement})
	siteID := suite.createID("/api/sites", token, gin.H{"site_name": "Site " + agreement})
	return suite.createID("/api/leases", token, gin.H{
		"agreement_number":      agreement,
		"landlord_id":           landlordID,
		"site_id":               siteID,
		"commencement_date":     "2024-01-01",
		"expiry_date":           "2025-01-01",
		"rental_type":           "MONTHLY",
		"rental_value":          "1500",
		"commencement_amount":   "1000",
		"lease_type":            "LONG_TERM",
		"operational_status":    "OPERATIONAL",
		"auto_renewal_option":   true,
		"renewal_period_months": 12,
		"lease_category":        "Rooftop",
	})
}

func (suite *RouterTestSuite) TestHealth() {
	w, _ := suite.do(http.MethodGet, "/health", "", nil)
	assert.Equal(suite.T(), http.StatusOK, w.Code)
	assert.Contains(suite.T(), w.Body.String(), "healthy")
}

func (suite *RouterTestSuite) TestAuthenticationRequired() {
	w, env := suite.do(http.MethodGet, "/api/leases", "", nil)
	assert.Equal(suite.T(), http.StatusUnauthorized, w.Code)
	assert.False(suite.T(), env.Success)
	assert.Equal(suite.T(), "UNAUTHORIZED", env.Error.Code)

	w, env = suite.do(http.MethodPost, "/api/auth/login", "", gin.H{"username": "admin", "password": "wrong"})
	assert.Equal(suite.T(), http.StatusUnauthorized, w.Code)
	assert.Equal(suite.T(), "Invalid username or password", env.Error.Message)
}

func (suite *RouterTestSuite) TestProfile() {
	w, env := suite.do(http.MethodGet, "/api/auth/me", suite.admin, nil)
	require.Equal(suite.T(), http.StatusOK, w.Code)
	assert.Contains(suite.T(), string(env.Data), `"username":"admin"`)
}

func (suite *RouterTestSuite) TestLeaseLifecycle() {
	t := suite.T()
	user := suite.register("analyst", "USER")

	leaseID := suite.createLease(user, "AGR-100")
	path := fmt.Sprintf("/api/leases/%d", leaseID)

	w, env := suite.do(http.MethodGet, path, user, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), `"status":"PENDING_APPROVAL"`)
	assert.Contains(t, string(env.Data), `"created_by":"analyst"`)

	// Duplicate agreement number.
	w, env = suite.do(http.MethodPost, "/api/leases", user, gin.H{
		"agreement_number":  "AGR-100",
		"landlord_id":       1,
		"site_id":           1,
		"commencement_date": "2024-01-01",
		"expiry_date":       "2025-01-01",
		"rental_type":       "NONE",
	})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "A lease with this agreement number already exists.", env.Error.Message)

	// Only ADMIN approves.
	w, _ = suite.do(http.MethodPost, path+"/approve", user, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, env = suite.do(http.MethodPost, path+"/approve", suite.admin, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, string(env.Data), `"status":"APPROVED"`)

	w, env = suite.do(http.MethodPost, path+"/approve", suite.admin, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "Lease is not in pending approval status.", env.Error.Message)

	w, env = suite.do(http.MethodGet, "/api/leases/count/status/approved", user, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"count":1}`, string(env.Data))

	w, _ = suite.do(http.MethodGet, "/api/leases/status/bogus", user, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func (suite *RouterTestSuite) TestRejectWithReason() {
	leaseID := suite.createLease(suite.admin, "AGR-200")

	w, env := suite.do(http.MethodPost, fmt.Sprintf("/api/leases/%d/reject", leaseID), suite.admin, gin.H{"reason": "missing permit"})
	require.Equal(suite.T(), http.StatusOK, w.Code, w.Body.String())
	assert.Equal(suite.T(), "Lease rejected successfully. Reason: missing permit", env.Message)
	assert.Contains(suite.T(), string(env.Data), `"status":"REJECTED"`)
	assert.Contains(suite.T(), string(env.Data), `"can_attach_documents":false`)
	assert.Contains(suite.T(), string(env.Data), `"is_expiring_soon":false`)

	var audited, notified int64
	require.NoError(suite.T(), suite.db.Model(&models.AuditLog{}).
		Where("action = ? AND entity_id = ?", services.AuditLeaseRejected, leaseID).Count(&audited).Error)
	assert.Equal(suite.T(), int64(1), audited)
	require.NoError(suite.T(), suite.db.Model(&models.AuditLog{}).
		Where("details LIKE ?", "%missing permit%").Count(&audited).Error)
	assert.Zero(suite.T(), audited)
	require.NoError(suite.T(), suite.db.Model(&models.Notification{}).
		Where("message LIKE ?", "%missing permit%").Count(&notified).Error)
	assert.Zero(suite.T(), notified)
	require.NoError(suite.T(), suite.db.Model(&models.Notification{}).
		Where("type = ? AND lease_id = ?", "lease_rejected", leaseID).Count(&notified).Error)
	assert.Equal(suite.T(), int64(1), notified)
}

func (suite *RouterTestSuite) TestLeaseDocuments() {
	t := suite.T()
	leaseID := suite.createLease(suite.admin, "AGR-300")
	docsPath := fmt.Sprintf("/api/leases/%d/documents", leaseID)

	upload := func() (*httptest.ResponseRecorder, envelope) {
		body := &bytes.Buffer{}
		mw := multipart.NewWriter(body)
		header := textproto.MIMEHeader{}
		header.Set("Content-Disposition", `form-data; name="files"; filename="lease.pdf"`)
		header.Set("Content-Type", "application/pdf")
		part, err := mw.CreatePart(header)
		require.NoError(t, err)
		_, err = part.Write([]byte("%PDF-1.4 lease"))
		require.NoError(t, err)
		require.NoError(t, mw.WriteField("documents", `[{"document_type":"AGREEMENT","category":"Legal"}]`))
		require.NoError(t, mw.Close())

		req, err := http.NewRequest(http.MethodPost, docsPath, body)
		require.NoError(t, err)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		return suite.serve(req, suite.admin)
	}

	// Pending leases refuse documents.
	w, env := upload()
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "Documents can only be attached to approved leases. Current status: PENDING_APPROVAL", env.Error.Message)

	w, _ = suite.do(http.MethodPost, fmt.Sprintf("/api/leases/%d/approve", leaseID), suite.admin, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w, env = upload()
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "1 document(s) added to lease successfully.", env.Message)

	var docs []struct {
		ID uint `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &docs))
	require.Len(t, docs, 1)

	req, err := http.NewRequest(http.MethodGet, fmt.Sprintf("/api/documents/%d/file", docs[0].ID), nil)
	require.NoError(t, err)
	w, _ = suite.serve(req, suite.admin)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "%PDF-1.4 lease", w.Body.String())

	w, env = suite.do(http.MethodDelete, fmt.Sprintf("/api/leases/%d", leaseID), suite.admin, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "Cannot delete lease with attached documents. Please delete documents first.", env.Error.Message)
}

func (suite *RouterTestSuite) TestReportsRoleMatrix() {
	t := suite.T()
	field := suite.register("fieldtech", "SITE_ACQUISITION")
	suite.createLease(suite.admin, "AGR-400")

	w, _ := suite.do(http.MethodGet, "/api/reports/category-summary", field, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// Site acquisition staff still work with leases.
	w, _ = suite.do(http.MethodGet, "/api/leases", field, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, env := suite.do(http.MethodPost, "/api/reports/generate", suite.admin, gin.H{
		"report_name": "Register",
		"report_type": "consolidated_lease_register",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.NotEmpty(t, env.Message)

	w, _ = suite.do(http.MethodGet, "/api/reports/export?reportType=CATEGORY_SUMMARY", suite.admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", w.Header().Get("Content-Type"))
	assert.NotZero(t, w.Body.Len())

	w, env = suite.do(http.MethodGet, "/api/reports/upcoming?startDate=2024-12-01&endDate=2024-01-01", suite.admin, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Start date cannot be after end date", env.Error.Message)
}

func (suite *RouterTestSuite) TestAdminOnlyUserManagement() {
	user := suite.register("analyst", "USER")

	w, _ := suite.do(http.MethodGet, "/api/users", user, nil)
	assert.Equal(suite.T(), http.StatusForbidden, w.Code)

	w, _ = suite.do(http.MethodGet, "/api/users", suite.admin, nil)
	assert.Equal(suite.T(), http.StatusOK, w.Code)
	assert.Equal(suite.T(), "2", w.Header().Get("X-Total-Count"))

	w, env := suite.do(http.MethodPost, "/api/auth/register", "", gin.H{
		"username": "sneaky",
		"email":    "sneaky@example.com",
		"password": "Passw0rd!",
		"role":     "ADMIN",
	})
	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
	assert.Equal(suite.T(), "Role ADMIN cannot be self-assigned.", env.Error.Message)
}

func TestRouterSuite(t *testing.T) {
	suite.Run(t, new(RouterTestSuite))
}
