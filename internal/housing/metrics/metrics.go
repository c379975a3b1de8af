// Package metrics exposes Prometheus counters for the housing workflow.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the housing domain counters. A nil *Metrics is valid and
// records nothing, so tests can run services without a registry.
type Metrics struct {
	ApplicationsLoaded    prometheus.Counter
	ApplicationsSaved     prometheus.Counter
	ApplicationsSubmitted prometheus.Counter
	ApplicationsDeleted   prometheus.Counter
	EditorTransfers       prometheus.Counter
	ValidationRejections  *prometheus.CounterVec
	Notices               *prometheus.CounterVec
}

// New creates and registers all housing metrics on the default registerer.
func New() *Metrics {
	return &Metrics{
		ApplicationsLoaded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "resportal_applications_loaded_total",
			Help: "Total housing applications loaded or initialized",
		}),
		ApplicationsSaved: promauto.NewCounter(prometheus.CounterOpts{
			Name: "resportal_applications_saved_total",
			Help: "Total successful application saves",
		}),
		ApplicationsSubmitted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "resportal_applications_submitted_total",
			Help: "Total successful application submissions",
		}),
		ApplicationsDeleted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "resportal_applications_deleted_total",
			Help: "Total application deletions",
		}),
		EditorTransfers: promauto.NewCounter(prometheus.CounterOpts{
			Name: "resportal_editor_transfers_total",
			Help: "Total confirmed editor transfers",
		}),
		ValidationRejections: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "resportal_validation_rejections_total",
			Help: "Applicant and hall mutations rejected by validation rules",
		}, []string{"reason"}),
		Notices: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "resportal_notices_total",
			Help: "User-facing notices emitted by the workflow",
		}, []string{"severity"}),
	}
}

func (m *Metrics) IncLoaded() {
	if m != nil {
		m.ApplicationsLoaded.Inc()
	}
}

func (m *Metrics) IncSaved() {
	if m != nil {
		m.ApplicationsSaved.Inc()
	}
}

func (m *Metrics) IncSubmitted() {
	if m != nil {
		m.ApplicationsSubmitted.Inc()
	}
}

func (m *Metrics) IncDeleted() {
	if m != nil {
		m.ApplicationsDeleted.Inc()
	}
}

func (m *Metrics) IncEditorTransfers() {
	if m != nil {
		m.EditorTransfers.Inc()
	}
}

func (m *Metrics) IncRejection(reason string) {
	if m != nil && reason != "" {
		m.ValidationRejections.WithLabelValues(reason).Inc()
	}
}

func (m *Metrics) IncNotice(severity string) {
	if m != nil {
		m.Notices.WithLabelValues(severity).Inc()
	}
}
