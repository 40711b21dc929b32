package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	before := testutil.ToFloat64(ticketsIssued.WithLabelValues("evt-metrics"))
	Transaction("evt-metrics", 3)
	assert.Equal(t, before+3, testutil.ToFloat64(ticketsIssued.WithLabelValues("evt-metrics")))

	Navigation("checkout", true)
	assert.GreaterOrEqual(t, testutil.ToFloat64(navigations.WithLabelValues("checkout", "true")), 1.0)

	exp := testutil.ToFloat64(sessionsExpired)
	SessionOpened()
	SessionClosed(true)
	assert.Equal(t, exp+1, testutil.ToFloat64(sessionsExpired))
}

func TestHandler(t *testing.T) {
	Export("done", 20*time.Millisecond)
	Coupon("applied")

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "storefront_ticket_exports_total")
	assert.Contains(t, body, "storefront_coupon_attempts_total")
}
