package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the triage pipeline
type Metrics struct {
	PullCount         prometheus.Counter
	MessagesProcessed prometheus.Counter
	TicketsCreated    prometheus.Counter
	RepliesAdded      prometheus.Counter
	JunkFiltered      prometheus.Counter
	DuplicatesSkipped prometheus.Counter
	PipelineErrors    prometheus.Counter
	ProcessingTime    prometheus.Histogram
}

// NewMetrics creates new Prometheus metrics
func NewMetrics() *Metrics {
	return &Metrics{
		PullCount: promauto.NewCounter(prometheus.CounterOpts{
			Name: "helpdesk_triage_pull_count",
			Help: "Total number of mailbox fetch operations",
		}),
		MessagesProcessed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "helpdesk_triage_messages_processed",
			Help: "Total number of inbound messages processed",
		}),
		TicketsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "helpdesk_triage_tickets_created",
			Help: "Total number of tickets created from inbound email",
		}),
		RepliesAdded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "helpdesk_triage_replies_added",
			Help: "Total number of replies appended to existing tickets as notes",
		}),
		JunkFiltered: promauto.NewCounter(prometheus.CounterOpts{
			Name: "helpdesk_triage_junk_filtered",
			Help: "Total number of messages filtered as junk",
		}),
		DuplicatesSkipped: promauto.NewCounter(prometheus.CounterOpts{
			Name: "helpdesk_triage_duplicates_skipped",
			Help: "Total number of already-processed messages skipped",
		}),
		PipelineErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "helpdesk_triage_pipeline_errors",
			Help: "Total number of per-message processing failures",
		}),
		ProcessingTime: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "helpdesk_triage_processing_duration_seconds",
			Help:    "Time spent running the ingestion pipeline",
			Buckets: prometheus.DefBuckets,
		}),
	}
}
