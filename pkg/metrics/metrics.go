package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all application metrics
type Metrics struct {
	// Inbox pipeline metrics
	InboxEntriesReceived   prometheus.Counter
	InboxEntriesProcessed  prometheus.Counter
	InboxEntriesFailed     prometheus.Counter
	InboxProcessingLatency prometheus.Histogram
	InboxDuplicateRejects  prometheus.Counter

	// Endorsement metrics
	EndorsementsCreated *prometheus.CounterVec
	RepliesCreated      *prometheus.CounterVec
	RequestsSent        prometheus.Counter
	RequestSendFailures prometheus.Counter

	// Database metrics
	DatabaseOperations *prometheus.CounterVec
}

// NewMetrics creates and registers all application metrics
func NewMetrics(namespace, subsystem string) *Metrics {
	return &Metrics{
		InboxEntriesReceived: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "inbox_entries_received_total",
			Help:      "Total number of notifications accepted into the inbox",
		}),
		InboxEntriesProcessed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "inbox_entries_processed_total",
			Help:      "Total number of inbox entries processed to a terminal outcome",
		}),
		InboxEntriesFailed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "inbox_entries_failed_total",
			Help:      "Total number of inbox entries that ended in a terminal failure",
		}),
		InboxProcessingLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "inbox_processing_duration_seconds",
			Help:      "Time spent processing a single inbox entry",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}),
		InboxDuplicateRejects: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "inbox_duplicate_rejects_total",
			Help:      "Total number of notifications rejected for a duplicate notification id",
		}),
		EndorsementsCreated: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "endorsements_created_total",
			Help:      "Total number of endorsement records created",
		}, []string{"review_type"}),
		RepliesCreated: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "endorsement_replies_created_total",
			Help:      "Total number of endorsement replies correlated to requests",
		}, []string{"status"}),
		RequestsSent: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "endorsement_requests_sent_total",
			Help:      "Total number of outbound endorsement requests delivered",
		}),
		RequestSendFailures: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "endorsement_request_send_failures_total",
			Help:      "Total number of outbound endorsement requests that failed delivery",
		}),
		DatabaseOperations: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "database_operations_total",
			Help:      "Total number of database operations",
		}, []string{"operation", "status"}),
	}
}

// New creates metrics with an unregistered collector set, for tests and tools
// that must not touch the default registry.
func New(namespace string) *Metrics {
	return &Metrics{
		InboxEntriesReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "inbox_entries_received_total",
			Help:      "Total number of notifications accepted into the inbox",
		}),
		InboxEntriesProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "inbox_entries_processed_total",
			Help:      "Total number of inbox entries processed to a terminal outcome",
		}),
		InboxEntriesFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "inbox_entries_failed_total",
			Help:      "Total number of inbox entries that ended in a terminal failure",
		}),
		InboxProcessingLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "inbox_processing_duration_seconds",
			Help:      "Time spent processing a single inbox entry",
		}),
		InboxDuplicateRejects: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "inbox_duplicate_rejects_total",
			Help:      "Total number of notifications rejected for a duplicate notification id",
		}),
		EndorsementsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "endorsements_created_total",
			Help:      "Total number of endorsement records created",
		}, []string{"review_type"}),
		RepliesCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "endorsement_replies_created_total",
			Help:      "Total number of endorsement replies correlated to requests",
		}, []string{"status"}),
		RequestsSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "endorsement_requests_sent_total",
			Help:      "Total number of outbound endorsement requests delivered",
		}),
		RequestSendFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "endorsement_request_send_failures_total",
			Help:      "Total number of outbound endorsement requests that failed delivery",
		}),
		DatabaseOperations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "database_operations_total",
			Help:      "Total number of database operations",
		}, []string{"operation", "status"}),
	}
}
