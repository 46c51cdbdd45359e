package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMiddlewareCountsRequests(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Middleware())
	r.GET("/api/leases/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	before := testutil.ToFloat64(RequestCounter.WithLabelValues("GET", "/api/leases/:id", "200"))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/leases/7", nil))

	after := testutil.ToFloat64(RequestCounter.WithLabelValues("GET", "/api/leases/:id", "200"))
	assert.Equal(t, before+1, after)
}

func TestObserveSweep(t *testing.T) {
	before := testutil.ToFloat64(RenewalOutcomes.WithLabelValues("renewed"))
	ObserveSweep(time.Now(), 2, 1, 0)
	assert.Equal(t, before+2, testutil.ToFloat64(RenewalOutcomes.WithLabelValues("renewed")))
}

func TestHandlerExposesMetrics(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/metrics", Handler())
	LeaseTransitions.WithLabelValues("APPROVED").Inc()

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "lease_status_transitions_total"))
}
