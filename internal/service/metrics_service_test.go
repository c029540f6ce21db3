package service

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsServiceRecordsCounters(t *testing.T) {
	metrics := NewMetricsService()

	metrics.ObserveUpstream("course_detail", http.StatusOK, 20*time.Millisecond)
	metrics.ObserveUpstream("course_detail", 0, time.Second)
	metrics.RecordAggregation(AggregationOutcomeOK)
	metrics.RecordAggregation(AggregationOutcomeOK)
	metrics.RecordFeedLookup(false)

	rec := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `directory_requests_total{resource="course_detail",status="0"} 1`)
	assert.Contains(t, body, `course_aggregations_total{outcome="ok"} 2`)
	assert.Contains(t, body, `notification_feed_lookups_total{result="miss"} 1`)
}

func TestNilMetricsServiceIsSafe(t *testing.T) {
	var metrics *MetricsService
	metrics.ObserveHTTPRequest("GET", "/", http.StatusOK, time.Millisecond)
	metrics.ObserveUpstream("x", http.StatusOK, time.Millisecond)
	metrics.RecordAggregation(AggregationOutcomeFailed)
	metrics.RecordFeedLookup(true)
	assert.Nil(t, metrics.Registry())

	rec := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
