// Package metrics exposes Prometheus collectors for relay invocations.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/dmitrymomot/docrelay/pkg/relay"
)

// Relay holds the collectors updated after every invocation.
// It implements relay.Recorder.
type Relay struct {
	InvocationsTotal *prometheus.CounterVec
	ArchiveBytes     prometheus.Counter
	Duration         *prometheus.HistogramVec
	UploadStatus     *prometheus.CounterVec
}

// New registers the collectors on reg. Passing a fresh prometheus.NewRegistry
// keeps tests isolated from the default registry.
func New(reg prometheus.Registerer) *Relay {
	f := promauto.With(reg)
	return &Relay{
		InvocationsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "docrelay",
			Subsystem: "relay",
			Name:      "invocations_total",
			Help:      "Total number of relay invocations by outcome.",
		}, []string{"outcome"}), // outcome: succeeded, rejected, failed, aborted, fatal
		ArchiveBytes: f.NewCounter(prometheus.CounterOpts{
			Namespace: "docrelay",
			Subsystem: "relay",
			Name:      "archive_bytes_total",
			Help:      "Total number of archive bytes uploaded successfully.",
		}),
		Duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "docrelay",
			Subsystem: "relay",
			Name:      "invocation_duration_seconds",
			Help:      "Wall time of relay invocations by outcome.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}, []string{"outcome"}),
		UploadStatus: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "docrelay",
			Subsystem: "relay",
			Name:      "upload_status_total",
			Help:      "Microsoft Graph upload responses by HTTP status code.",
		}, []string{"code"}),
	}
}

// Record updates the collectors from a finished invocation.
func (m *Relay) Record(res relay.Result) {
	outcome := string(res.Outcome)
	m.InvocationsTotal.WithLabelValues(outcome).Inc()
	m.Duration.WithLabelValues(outcome).Observe(res.Duration.Seconds())

	if res.StatusCode != 0 {
		m.UploadStatus.WithLabelValues(strconv.Itoa(res.StatusCode)).Inc()
	}
	if res.Outcome == relay.OutcomeSucceeded {
		m.ArchiveBytes.Add(float64(res.ArchiveSize))
	}
}

var _ relay.Recorder = (*Relay)(nil)
