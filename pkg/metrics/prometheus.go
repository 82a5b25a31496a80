package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	submissions      *prometheus.CounterVec
	jobsFinalized    *prometheus.CounterVec
	tickersProcessed *prometheus.CounterVec
	jobDuration      prometheus.Histogram
	lastScore        *prometheus.GaugeVec
	lastPrice        *prometheus.GaugeVec
	errorsTotal      *prometheus.CounterVec
	latency          *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		submissions: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "signalbatch_submissions_total",
				Help: "Job submissions by outcome (created, duplicate, rejected)",
			},
			[]string{"result"},
		),
		jobsFinalized: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "signalbatch_jobs_finalized_total",
				Help: "Jobs reaching a terminal status",
			},
			[]string{"status"},
		),
		tickersProcessed: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "signalbatch_tickers_processed_total",
				Help: "Per-ticker analysis outcomes",
			},
			[]string{"outcome"},
		),
		jobDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "signalbatch_job_duration_seconds",
				Help:    "Wall time from job start to terminal status",
				Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
			},
		),
		lastScore: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "signalbatch_last_score",
				Help: "Last aggregated score for a symbol",
			},
			[]string{"symbol"},
		),
		lastPrice: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "signalbatch_last_price",
				Help: "Last recorded price for a symbol",
			},
			[]string{"symbol"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "signalbatch_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "signalbatch_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordSubmission records a submission outcome.
func (r *Recorder) RecordSubmission(result string) {
	r.submissions.WithLabelValues(result).Inc()
}

// RecordJobFinalized records a job reaching a terminal status.
func (r *Recorder) RecordJobFinalized(status string) {
	r.jobsFinalized.WithLabelValues(status).Inc()
}

// RecordTickerProcessed records one ticker's analysis outcome.
func (r *Recorder) RecordTickerProcessed(outcome string) {
	r.tickersProcessed.WithLabelValues(outcome).Inc()
}

// RecordJobDuration records how long a job ran.
func (r *Recorder) RecordJobDuration(seconds float64) {
	r.jobDuration.Observe(seconds)
}

// RecordLastScore records the last aggregated score for a symbol.
func (r *Recorder) RecordLastScore(symbol string, score float64) {
	r.lastScore.WithLabelValues(symbol).Set(score)
}

// RecordLastPrice records the last price for a symbol.
func (r *Recorder) RecordLastPrice(symbol string, price float64) {
	r.lastPrice.WithLabelValues(symbol).Set(price)
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
