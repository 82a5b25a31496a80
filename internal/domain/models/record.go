package models

import "time"

// JobRecord is the durable projection of a job kept in the job store.
// It is what status queries read and what survives restarts when a
// persistent backend is configured.
type JobRecord struct {
	JobID       string     `json:"job_id"`
	Status      JobStatus  `json:"status"`
	Total       int        `json:"total"`
	Completed   int        `json:"completed"`
	Successful  int        `json:"successful"`
	Errors      []JobError `json:"errors,omitempty"`
	Fingerprint string     `json:"tickers_fingerprint"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	StartedAt   time.Time  `json:"started_at,omitempty"`
	CompletedAt time.Time  `json:"completed_at,omitempty"`
}

// Progress returns completion as a rounded percentage.
func (r *JobRecord) Progress() int {
	return ProgressPercent(r.Completed, r.Total)
}

// RecordFromJob projects a job aggregate into its durable record.
func RecordFromJob(j *Job) *JobRecord {
	errs := make([]JobError, len(j.Errors))
	copy(errs, j.Errors)
	return &JobRecord{
		JobID:       j.ID,
		Status:      j.Status,
		Total:       j.Total(),
		Completed:   j.Completed,
		Successful:  j.Successful,
		Errors:      errs,
		Fingerprint: j.Fingerprint,
		CreatedAt:   j.CreatedAt,
		UpdatedAt:   time.Now().UTC(),
		StartedAt:   j.StartedAt,
		CompletedAt: j.CompletedAt,
	}
}
