package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors for the feed, chat and HTTP layers.
// A nil *Metrics records nothing.
type Metrics struct {
	HTTPRequests *prometheus.CounterVec
	HTTPLatency  *prometheus.HistogramVec

	LikeToggles         *prometheus.CounterVec
	CommentsCreated     prometheus.Counter
	ProjectsCreated     prometheus.Counter
	MessagesSent        prometheus.Counter
	MediaUploads        *prometheus.CounterVec
	StoreErrors         *prometheus.CounterVec
	ConsistencyWarnings *prometheus.CounterVec
	ReconcileRuns       *prometheus.CounterVec
}

// NewMetrics registers every collector with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "campus_http_requests_total",
			Help: "Total number of HTTP requests by route and status",
		}, []string{"method", "route", "status"}),

		HTTPLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "campus_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"method", "route"}),

		LikeToggles: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "campus_like_toggles_total",
			Help: "Total number of like toggles by resulting state",
		}, []string{"state"}), // state: "liked" or "unliked"

		CommentsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "campus_comments_created_total",
			Help: "Total number of comments created",
		}),

		ProjectsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "campus_projects_created_total",
			Help: "Total number of projects created",
		}),

		MessagesSent: factory.NewCounter(prometheus.CounterOpts{
			Name: "campus_messages_sent_total",
			Help: "Total number of direct messages sent",
		}),

		MediaUploads: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "campus_media_uploads_total",
			Help: "Total number of media uploads by provider and outcome",
		}, []string{"provider", "outcome"}),

		StoreErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "campus_store_errors_total",
			Help: "Total number of store failures surfaced as upstream errors",
		}, []string{"operation"}),

		ConsistencyWarnings: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "campus_consistency_warnings_total",
			Help: "Total number of detected divergences between denormalized and authoritative state",
		}, []string{"kind"}),

		ReconcileRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "campus_reconcile_runs_total",
			Help: "Total number of reconciler runs by outcome",
		}, []string{"outcome"}),
	}
}

func (m *Metrics) RecordHTTPRequest(method, route, status string, seconds float64) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, route, status).Inc()
	m.HTTPLatency.WithLabelValues(method, route).Observe(seconds)
}

func (m *Metrics) RecordLikeToggle(liked bool) {
	if m == nil {
		return
	}
	state := "unliked"
	if liked {
		state = "liked"
	}
	m.LikeToggles.WithLabelValues(state).Inc()
}

func (m *Metrics) RecordProjectCreated() {
	if m == nil {
		return
	}
	m.ProjectsCreated.Inc()
}

func (m *Metrics) RecordCommentCreated() {
	if m == nil {
		return
	}
	m.CommentsCreated.Inc()
}

func (m *Metrics) RecordMessageSent() {
	if m == nil {
		return
	}
	m.MessagesSent.Inc()
}

func (m *Metrics) RecordMediaUpload(provider string, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.MediaUploads.WithLabelValues(provider, outcome).Inc()
}

func (m *Metrics) RecordStoreError(operation string) {
	if m == nil {
		return
	}
	m.StoreErrors.WithLabelValues(operation).Inc()
}

func (m *Metrics) RecordConsistencyWarning(kind string) {
	if m == nil {
		return
	}
	m.ConsistencyWarnings.WithLabelValues(kind).Inc()
}

func (m *Metrics) RecordReconcileRun(err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.ReconcileRuns.WithLabelValues(outcome).Inc()
}
