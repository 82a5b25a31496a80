package models

// Requests and responses for the jobs HTTP endpoints. Defined in domain
// for consistency and reuse (the Kafka submissions intake decodes into the
// same request shape).

type SubmitJobRequest struct {
	Tickers    []string `json:"tickers" validate:"required,min=1,max=100"`
	Capital    float64  `json:"capital" validate:"required,gt=0"`
	Indicators []string `json:"indicators,omitempty" validate:"omitempty,dive,min=1"`
	StrategyID string   `json:"strategy_id" default:"default"`
	Demo       bool     `json:"demo"`
}

type SubmitJobResponse struct {
	JobID       string    `json:"job_id"`
	Status      JobStatus `json:"status"`
	IsDuplicate bool      `json:"is_duplicate"`
}

type JobStatusResponse struct {
	JobID           string     `json:"job_id"`
	Status          JobStatus  `json:"status"`
	ProgressPercent int        `json:"progress_percent"`
	Total           int        `json:"total"`
	Completed       int        `json:"completed"`
	Successful      int        `json:"successful"`
	ErrorCount      int        `json:"error_count"`
	Errors          []JobError `json:"errors,omitempty"`
}

type CancelJobResponse struct {
	JobID    string `json:"job_id"`
	Accepted bool   `json:"accepted"`
}

// StatusFromRecord builds the status payload served to callers.
func StatusFromRecord(r *JobRecord) *JobStatusResponse {
	return &JobStatusResponse{
		JobID:           r.JobID,
		Status:          r.Status,
		ProgressPercent: r.Progress(),
		Total:           r.Total,
		Completed:       r.Completed,
		Successful:      r.Successful,
		ErrorCount:      len(r.Errors),
		Errors:          r.Errors,
	}
}
