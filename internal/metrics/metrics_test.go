package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveRegistration(t *testing.T) {
	before := testutil.ToFloat64(registrations.WithLabelValues(OutcomeClosed))
	ObserveRegistration(OutcomeClosed)
	ObserveRegistration(OutcomeClosed)
	assert.Equal(t, before+2, testutil.ToFloat64(registrations.WithLabelValues(OutcomeClosed)))
}

func TestHandlerExposesCounters(t *testing.T) {
	ObserveEventMutation("create")

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `event_mutations_total{op="create"}`)
}
