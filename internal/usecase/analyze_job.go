package usecase

import (
	"context"
	"fmt"

	"SignalBatch/internal/domain/models"
	"SignalBatch/pkg/queue"
)

// AnalyzeJobType is the queue message type for batch analysis jobs.
const AnalyzeJobType = "analysis.job"

// analyzePayload is the queue wire form of a job: enough to reconstruct
// the aggregate on whichever worker picks it up.
type analyzePayload struct {
	JobID      string   `json:"job_id"`
	Tickers    []string `json:"tickers"`
	Capital    float64  `json:"capital"`
	Indicators []string `json:"indicators,omitempty"`
	StrategyID string   `json:"strategy_id"`
	Demo       bool     `json:"demo"`
}

// QueueDispatcher hands accepted jobs to the shared queue instead of an
// in-process goroutine, so horizontally-scaled workers can pick them up.
// It requires the durable (redis) job store so progress written by the
// worker is visible to the node that accepted the submission; config
// validation rejects queue dispatch over the in-memory store.
type QueueDispatcher struct {
	q queue.QueueService
}

// NewQueueDispatcher builds a dispatcher over a queue publisher.
func NewQueueDispatcher(q queue.QueueService) *QueueDispatcher {
	return &QueueDispatcher{q: q}
}

func (d *QueueDispatcher) Dispatch(ctx context.Context, job *models.Job) error {
	return d.q.PublishMessage(ctx, AnalyzeJobType, analyzePayload{
		JobID:      job.ID,
		Tickers:    models.Symbols(job.Tickers),
		Capital:    job.Config.Capital,
		Indicators: job.Config.Indicators,
		StrategyID: job.Config.StrategyID,
		Demo:       job.Config.DemoData,
	})
}

// AnalyzeJob is the consumer side: it reconstructs the job aggregate from
// the payload and runs it through the orchestrator's execute path.
type AnalyzeJob struct {
	orch *Orchestrator
}

// NewAnalyzeJob builds the queue handler for analysis jobs.
func NewAnalyzeJob(orch *Orchestrator) *AnalyzeJob {
	return &AnalyzeJob{orch: orch}
}

func (j *AnalyzeJob) Name() string { return "analyze-batch" }
func (j *AnalyzeJob) Type() string { return AnalyzeJobType }

func (j *AnalyzeJob) Handle(ctx context.Context, payload interface{}) error {
	p, err := queue.ParsePayload[analyzePayload](payload)
	if err != nil {
		return fmt.Errorf("analyze payload: %w", err)
	}

	job, err := rebuildJob(p)
	if err != nil {
		return fmt.Errorf("rebuild job %s: %w", p.JobID, err)
	}

	j.orch.Execute(ctx, job)
	return nil
}

// rebuildJob reconstitutes a queued job aggregate from its wire form.
// The payload was validated at submission; a failure here means the
// message was corrupted in transit.
func rebuildJob(p *analyzePayload) (*models.Job, error) {
	tickers, err := models.ParseTickers(p.Tickers)
	if err != nil {
		return nil, err
	}
	job, err := models.NewJob(p.JobID, tickers, models.JobConfig{
		Capital:    p.Capital,
		Indicators: p.Indicators,
		StrategyID: p.StrategyID,
		DemoData:   p.Demo,
	}, models.TickerFingerprint(tickers))
	if err != nil {
		return nil, err
	}
	if err := job.Apply(models.EventQueue); err != nil {
		return nil, err
	}
	return job, nil
}
