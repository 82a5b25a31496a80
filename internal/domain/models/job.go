package models

import (
	"fmt"
	"time"
)

// Batch size limits enforced at submission.
const (
	MinJobTickers = 1
	MaxJobTickers = 100
)

// JobError records one per-ticker failure inside a job.
type JobError struct {
	Ticker    string    `json:"ticker"`
	Message   string    `json:"error"`
	Timestamp time.Time `json:"timestamp"`
}

// JobConfig is the analysis configuration a job was submitted with.
type JobConfig struct {
	Capital    float64  `json:"capital"`
	Indicators []string `json:"indicators,omitempty"` // empty = all registered
	StrategyID string   `json:"strategy_id,omitempty"`
	DemoData   bool     `json:"demo_data,omitempty"`
}

// Job is the aggregate root for one batch analysis request. It is mutated
// only by its own worker after submission; concurrent readers go through
// the job store projection instead.
type Job struct {
	ID          string
	Tickers     []Ticker
	Config      JobConfig
	Fingerprint string

	Status     JobStatus
	Completed  int
	Successful int
	Errors     []JobError

	CreatedAt   time.Time
	StartedAt   time.Time
	CompletedAt time.Time
}

// NewJob builds a job in StatusCreated over an already-validated ordered
// unique ticker set.
func NewJob(id string, tickers []Ticker, cfg JobConfig, fingerprint string) (*Job, error) {
	if len(tickers) < MinJobTickers || len(tickers) > MaxJobTickers {
		return nil, NewValidationError("tickers", fmt.Sprintf("ticker count must be between %d and %d, got %d", MinJobTickers, MaxJobTickers, len(tickers)))
	}
	if cfg.Capital <= 0 {
		return nil, NewValidationError("capital", "capital must be positive")
	}
	return &Job{
		ID:          id,
		Tickers:     tickers,
		Config:      cfg,
		Fingerprint: fingerprint,
		Status:      StatusCreated,
		CreatedAt:   time.Now().UTC(),
	}, nil
}

// Total returns the number of tickers in the batch.
func (j *Job) Total() int { return len(j.Tickers) }

// Apply transitions the job through the state machine, maintaining the
// lifecycle timestamps. EventRetry resets counters, errors and timestamps
// so the job can run again from queued.
func (j *Job) Apply(ev JobEvent) error {
	next, err := NextStatus(j.Status, ev)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	switch ev {
	case EventStart:
		j.StartedAt = now
	case EventComplete, EventFail, EventCancel:
		j.CompletedAt = now
	case EventRetry:
		j.Completed = 0
		j.Successful = 0
		j.Errors = nil
		j.StartedAt = time.Time{}
		j.CompletedAt = time.Time{}
	}

	j.Status = next
	return nil
}

// RecordSuccess counts one processed ticker that produced a verdict.
func (j *Job) RecordSuccess() error {
	return j.advance(true)
}

// RecordFailure counts one processed ticker that failed, appending its
// error to the job log. The batch keeps going; per-ticker failures never
// abort a job.
func (j *Job) RecordFailure(ticker Ticker, err error) error {
	if aerr := j.advance(false); aerr != nil {
		return aerr
	}
	j.Errors = append(j.Errors, JobError{
		Ticker:    ticker.Symbol(),
		Message:   err.Error(),
		Timestamp: time.Now().UTC(),
	})
	return nil
}

func (j *Job) advance(success bool) error {
	if j.Status.IsTerminal() {
		return fmt.Errorf("job %s is terminal (%s), counters are immutable", j.ID, j.Status)
	}
	if j.Completed >= j.Total() {
		return fmt.Errorf("job %s completed count would exceed total %d", j.ID, j.Total())
	}
	j.Completed++
	if success {
		j.Successful++
	}
	return nil
}

// Progress returns completion as a rounded percentage.
func (j *Job) Progress() int {
	return ProgressPercent(j.Completed, j.Total())
}

// ProgressPercent computes round(completed/total*100), with a zero total
// reported as 0.
func ProgressPercent(completed, total int) int {
	if total <= 0 {
		return 0
	}
	return int(float64(completed)/float64(total)*100 + 0.5)
}
