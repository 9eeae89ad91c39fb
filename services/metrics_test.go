package services

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func newRegistry() *prometheus.Registry {
	return prometheus.NewRegistry()
}

func TestMetricsRecord(t *testing.T) {
	m := NewMetrics(newRegistry())

	m.RecordLikeToggle(true)
	m.RecordLikeToggle(true)
	m.RecordLikeToggle(false)
	m.RecordMediaUpload("imagekit", nil)
	m.RecordMediaUpload("imagekit", errors.New("boom"))
	m.RecordReconcileRun(nil)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.LikeToggles.WithLabelValues("liked")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.LikeToggles.WithLabelValues("unliked")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.MediaUploads.WithLabelValues("imagekit", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ReconcileRuns.WithLabelValues("ok")))
}

func TestNilMetricsRecordNothing(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordHTTPRequest("GET", "/health", "200", 0.01)
		m.RecordLikeToggle(true)
		m.RecordProjectCreated()
		m.RecordCommentCreated()
		m.RecordMessageSent()
		m.RecordMediaUpload("s3", nil)
		m.RecordStoreError("list projects")
		m.RecordConsistencyWarning("like_count")
		m.RecordReconcileRun(nil)
	})
}
