package repository

import (
	"context"
	"time"

	"SignalBatch/internal/domain/models"
)

// ActiveStatuses is the status set used for duplicate detection: a job in
// one of these states is still in flight for its ticker set.
var ActiveStatuses = []models.JobStatus{models.StatusQueued, models.StatusProcessing}

// JobStore is the durable projection of job state, queryable by id and by
// ticker-set fingerprint. Implementations must provide atomic
// create-if-absent on the primary key; per-record updates are only ever
// issued by the job's own worker, so no further locking is required of
// the backend.
type JobStore interface {
	// Create persists a fresh record atomically. Returns
	// models.ErrJobExists when the job id is already taken or when an
	// active job with the same fingerprint exists.
	Create(ctx context.Context, rec *models.JobRecord) error

	// GetByID returns the record or models.ErrJobNotFound.
	GetByID(ctx context.Context, jobID string) (*models.JobRecord, error)

	// FindActiveByFingerprint returns the most recent record whose
	// fingerprint matches and whose status is in the given set, or
	// models.ErrJobNotFound when none is in flight.
	FindActiveByFingerprint(ctx context.Context, fingerprint string, statuses []models.JobStatus) (*models.JobRecord, error)

	// UpdateProgress overwrites status, counters and the error log.
	UpdateProgress(ctx context.Context, rec *models.JobRecord) error

	// Finalize moves a record to a terminal status.
	Finalize(ctx context.Context, rec *models.JobRecord) error

	// RequestCancel flips the cooperative cancellation flag. Returns false
	// when the job is unknown or already terminal.
	RequestCancel(ctx context.Context, jobID string) (bool, error)

	// CancelRequested reads the cooperative cancellation flag.
	CancelRequested(ctx context.Context, jobID string) (bool, error)

	Close() error
}

// MarketData fetches a price-history window for one ticker. Retries,
// timeouts and fallbacks are the provider's own business; the analysis
// core treats any error as a per-ticker failure.
type MarketData interface {
	GetCandles(ctx context.Context, ticker models.Ticker, bars int) (models.PriceSeries, error)
}

// VerdictSink receives finished verdicts for durable history. Optional:
// a nil sink is skipped.
type VerdictSink interface {
	StoreBatch(ctx context.Context, jobID string, verdicts []models.Verdict) error
	Close() error
}

// VerdictHistory reads back stored verdicts.
type VerdictHistory interface {
	Query(ctx context.Context, symbol string, from, to time.Time, limit int) ([]models.VerdictRecord, error)
}

// EventPublisher broadcasts job lifecycle changes. Optional: a nil
// publisher is skipped.
type EventPublisher interface {
	PublishJobEvent(ctx context.Context, rec *models.JobRecord) error
	Close() error
}

// Metrics records operational counters for the analysis pipeline.
type Metrics interface {
	RecordSubmission(result string) // created | duplicate | rejected
	RecordJobFinalized(status string)
	RecordTickerProcessed(outcome string) // success | failure
	RecordJobDuration(seconds float64)
	RecordLastScore(symbol string, score float64)
	RecordLastPrice(symbol string, price float64)
	RecordLatency(op string, seconds float64)
	RecordError(kind string)
}
