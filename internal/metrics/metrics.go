// Package metrics exposes pipeline counters in Prometheus format.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "outreach"

// Metrics is safe to use through a nil pointer; every recorder is then a no-op.
type Metrics struct {
	leadsCollected  *prometheus.CounterVec
	draftsGenerated *prometheus.CounterVec
	emailsSent      prometheus.Counter
	emailsFailed    *prometheus.CounterVec
	repliesDetected prometheus.Counter
	jobsProcessed   *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		leadsCollected: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "leads_collected_total",
			Help:      "Leads collected, by data source.",
		}, []string{"source"}),
		draftsGenerated: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "drafts_generated_total",
			Help:      "Email drafts written to the sheet, by whether canned fallback text was used.",
		}, []string{"fallback"}),
		emailsSent: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "emails_sent_total",
			Help:      "Emails accepted by the SMTP server.",
		}),
		emailsFailed: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "emails_failed_total",
			Help:      "Emails that could not be sent, by failure kind.",
		}, []string{"kind"}),
		repliesDetected: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "replies_detected_total",
			Help:      "Rows moved to Replied.",
		}),
		jobsProcessed: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jobs_processed_total",
			Help:      "Background jobs finished, by kind and final status.",
		}, []string{"kind", "status"}),
	}
}

// Handler serves the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

func (m *Metrics) LeadsCollected(source string, n int) {
	if m == nil {
		return
	}
	m.leadsCollected.WithLabelValues(source).Add(float64(n))
}

func (m *Metrics) DraftGenerated(fallback bool) {
	if m == nil {
		return
	}
	m.draftsGenerated.WithLabelValues(strconv.FormatBool(fallback)).Inc()
}

func (m *Metrics) EmailSent() {
	if m == nil {
		return
	}
	m.emailsSent.Inc()
}

func (m *Metrics) EmailFailed(kind string) {
	if m == nil {
		return
	}
	m.emailsFailed.WithLabelValues(kind).Inc()
}

func (m *Metrics) ReplyDetected() {
	if m == nil {
		return
	}
	m.repliesDetected.Inc()
}

func (m *Metrics) JobProcessed(kind, status string) {
	if m == nil {
		return
	}
	m.jobsProcessed.WithLabelValues(kind, status).Inc()
}
