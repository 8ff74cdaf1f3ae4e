package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.EventProcessed("invoice.paid", "processed")
	m.EventProcessed("invoice.paid", "processed")
	m.EventProcessed("invoice.paid", "duplicate")
	m.HandlerRun("invoice_paid", "ok")
	m.CreditMutation("debit", "insufficient")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.WebhookEventsTotal.WithLabelValues("invoice.paid", "processed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.WebhookEventsTotal.WithLabelValues("invoice.paid", "duplicate")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.WebhookHandlerRunsTotal.WithLabelValues("invoice_paid", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CreditMutationsTotal.WithLabelValues("debit", "insufficient")))
}

func TestMetrics_ObserveRequest(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.ObserveRequest(http.MethodGet, "/billing", http.StatusOK, 20*time.Millisecond)
	m.ObserveRequest(http.MethodGet, "/billing", http.StatusOK, 30*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/billing", "200")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.HTTPRequestDuration))
}

func TestMetrics_Handler(t *testing.T) {
	m := NewMetrics(nil)
	m.CreditMutation("credit", "applied")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), `tollgate_credit_mutations_total{direction="credit",outcome="applied"} 1`))
	assert.True(t, strings.Contains(string(body), "go_goroutines"))
}
