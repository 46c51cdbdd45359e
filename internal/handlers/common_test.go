package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/javajoker/lease-backend/internal/services"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestRespondErrorStatusMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{&services.ServiceError{Kind: services.ErrNotFound, Message: "Lease not found with ID: 9"}, http.StatusNotFound, "NOT_FOUND"},
		{&services.ServiceError{Kind: services.ErrConflict, Message: "dup"}, http.StatusConflict, "CONFLICT"},
		{&services.ServiceError{Kind: services.ErrStaleVersion, Message: "stale"}, http.StatusConflict, "STALE_VERSION"},
		{&services.ServiceError{Kind: services.ErrValidation, Message: "bad"}, http.StatusBadRequest, "BAD_REQUEST"},
		{&services.ServiceError{Kind: services.ErrPrecondition, Message: "not now"}, http.StatusUnprocessableEntity, "PRECONDITION_FAILED"},
		{services.ErrInvalidCredentials, http.StatusUnauthorized, "UNAUTHORIZED"},
		{errors.New("connection reset"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tc := range cases {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/api/leases/9", nil)

		respondError(c, tc.err)

		assert.Equal(t, tc.status, w.Code, tc.code)
		assert.Contains(t, w.Body.String(), `"code":"`+tc.code+`"`)
	}
}

func TestInternalErrorsAreHidden(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/leases", nil)

	respondError(c, errors.New("pq: password authentication failed"))

	assert.NotContains(t, w.Body.String(), "password authentication")
}

func TestQueryParsers(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/?startDate=2024-02-29&landlordId=7&flag=true", nil)

	d, ok := queryDate(c, "startDate")
	assert.True(t, ok)
	assert.Equal(t, "2024-02-29", d.String())

	missing, ok := queryDate(c, "endDate")
	assert.True(t, ok)
	assert.Nil(t, missing)

	id, ok := queryID(c, "landlordId")
	assert.True(t, ok)
	assert.Equal(t, uint(7), id)

	flag, ok := queryBool(c, "flag")
	assert.True(t, ok)
	assert.True(t, *flag)

	s, ok := leaseStatusParam(c, "auto_renewed")
	assert.True(t, ok)
	assert.Equal(t, "AUTO_RENEWED", string(s))

	bad := httptest.NewRecorder()
	c, _ = gin.CreateTestContext(bad)
	c.Request = httptest.NewRequest(http.MethodGet, "/?startDate=2024-13-01", nil)
	_, ok = queryDate(c, "startDate")
	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, bad.Code)
}
