package service

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gatheredValue(t *testing.T, metrics *MetricsService, name string, labels map[string]string) float64 {
	t.Helper()
	families, err := metrics.Registry().Gather()
	require.NoError(t, err)
	for _, family := range families {
		if family.GetName() != name {
			continue
		}
	next:
		for _, metric := range family.GetMetric() {
			for _, pair := range metric.GetLabel() {
				if labels[pair.GetName()] != pair.GetValue() {
					continue next
				}
			}
			return metric.GetCounter().GetValue()
		}
	}
	return 0
}

func TestMetricsServiceRecordsWorkflowCounters(t *testing.T) {
	metrics := NewMetricsService()
	metrics.RecordTransition("enrollment", "enrolled", "committed")
	metrics.RecordTransition("enrollment", "enrolled", "committed")
	metrics.RecordBulk("transition", 8, 2, time.Second)

	assert.Equal(t, 2.0, gatheredValue(t, metrics, "workflow_transitions_total", map[string]string{"kind": "enrollment", "to": "enrolled", "outcome": "committed"}))
	assert.Equal(t, 8.0, gatheredValue(t, metrics, "workflow_bulk_items_total", map[string]string{"operation": "transition", "outcome": "success"}))
	assert.Equal(t, 2.0, gatheredValue(t, metrics, "workflow_bulk_items_total", map[string]string{"operation": "transition", "outcome": "failed"}))

	rec := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	assert.True(t, strings.Contains(rec.Body.String(), "workflow_transitions_total"))
}

func TestMetricsServiceNilSafe(t *testing.T) {
	var metrics *MetricsService
	metrics.RecordTransition("grade", "approved", "committed")
	metrics.RecordFinalizeJob(true)

	rec := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	assert.Equal(t, 503, rec.Code)
}
