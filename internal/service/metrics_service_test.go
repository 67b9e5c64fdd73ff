package service

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// counterValue sums the counter samples of family name whose labels include want.
func counterValue(t *testing.T, m *MetricsService, name string, want map[string]string) float64 {
	t.Helper()
	families, err := m.Registry().Gather()
	require.NoError(t, err)
	var total float64
	for _, family := range families {
		if family.GetName() != name {
			continue
		}
		for _, metric := range family.GetMetric() {
			labels := map[string]string{}
			for _, pair := range metric.GetLabel() {
				labels[pair.GetName()] = pair.GetValue()
			}
			matched := true
			for k, v := range want {
				if labels[k] != v {
					matched = false
					break
				}
			}
			if matched {
				total += metric.GetCounter().GetValue()
			}
		}
	}
	return total
}

func TestMetricsServiceRecordsReviewActivity(t *testing.T) {
	m := NewMetricsService()
	m.ObserveReview("document_review", "ok", 10*time.Millisecond)
	m.ObserveReview("document_review", "CONCURRENCY_CONFLICT", 10*time.Millisecond)
	m.RecordReviewRetry("document_review")
	m.RecordReviewRetry("document_review")
	m.RecordFolderEvent("COMPLETED")
	m.RecordNotification("queued")
	m.RecordCacheOperation(true, time.Millisecond)
	m.RecordCacheOperation(false, time.Millisecond)

	assert.Equal(t, 1.0, counterValue(t, m, "review_actions_total", map[string]string{"action": "document_review", "outcome": "ok"}))
	assert.Equal(t, 2.0, counterValue(t, m, "review_actions_total", map[string]string{"action": "document_review"}))
	assert.Equal(t, 2.0, counterValue(t, m, "review_tx_retries_total", nil))
	assert.Equal(t, 1.0, counterValue(t, m, "folder_status_events_total", map[string]string{"event": "COMPLETED"}))
	assert.Equal(t, 1.0, counterValue(t, m, "notifications_total", map[string]string{"result": "queued"}))
	assert.Equal(t, 1.0, counterValue(t, m, "cache_hits_total", nil))
	assert.Equal(t, 1.0, counterValue(t, m, "cache_misses_total", nil))
}

func TestMetricsServiceNilSafe(t *testing.T) {
	var m *MetricsService
	assert.NotPanics(t, func() {
		m.ObserveHTTPRequest("GET", "/", 200, time.Millisecond)
		m.ObserveReview("folder_review", "ok", time.Millisecond)
		m.RecordReviewRetry("folder_review")
		m.RecordFolderEvent("REOPENED")
		m.RecordNotification("sent")
		m.RecordCacheOperation(true, time.Millisecond)
	})
	assert.Nil(t, m.Registry())

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMetricsHandlerExposesCollectors(t *testing.T) {
	m := NewMetricsService()
	m.ObserveHTTPRequest("POST", "/api/v1/documents/:id/review", 200, time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "http_requests_total")
	assert.Contains(t, rec.Body.String(), "goroutines_total")
}
