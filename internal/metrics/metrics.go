package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const namespace = "medassist"

var (
	HTTPRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "HTTP requests by route and status.",
	}, []string{"method", "route", "status"})

	HTTPLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by route.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})

	IngestBatches = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "ingest_batches_total",
		Help:      "Vector index batches by outcome.",
	}, []string{"outcome"})

	IngestChunks = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "ingest_chunks_total",
		Help:      "Chunks written to the vector index.",
	})

	RetrievalLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "retrieval_duration_seconds",
		Help:      "Vector search latency including query embedding.",
		Buckets:   prometheus.DefBuckets,
	})

	Generations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "generations_total",
		Help:      "Answer generation attempts by outcome.",
	}, []string{"outcome"})

	RemindersSent = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "reminders_total",
		Help:      "Reminder deliveries by outcome.",
	}, []string{"outcome"})

	EmbedCacheLookups = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "embed_cache_lookups_total",
		Help:      "Embedding cache lookups by layer and result.",
	}, []string{"layer", "result"})

	JobRuns = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "job_runs_total",
		Help:      "Scheduled job runs by job and outcome.",
	}, []string{"job", "outcome"})
)

// Registry holds every collector above plus the Go runtime collectors.
var Registry = newRegistry()

func newRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		HTTPRequests,
		HTTPLatency,
		IngestBatches,
		IngestChunks,
		RetrievalLatency,
		Generations,
		RemindersSent,
		EmbedCacheLookups,
		JobRuns,
	)
	return reg
}
