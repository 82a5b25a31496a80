package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"SignalBatch/internal/domain/models"
	domrepo "SignalBatch/internal/domain/repository"
	"SignalBatch/internal/indicator"
	"SignalBatch/internal/signal"
	applogger "SignalBatch/pkg/logger"
)

// Dispatcher hands an accepted job to a worker off the request path.
type Dispatcher interface {
	Dispatch(ctx context.Context, job *models.Job) error
}

// Orchestrator accepts batch submissions, deduplicates them by ticker-set
// fingerprint, and drives per-ticker analysis to a terminal job state.
type Orchestrator struct {
	store    domrepo.JobStore
	market   domrepo.MarketData
	demo     domrepo.MarketData
	sink     domrepo.VerdictSink
	events   domrepo.EventPublisher
	metrics  domrepo.Metrics
	registry *indicator.Registry
	logger   *applogger.Logger
	retry    *RetryPolicy

	dispatch      Dispatcher
	window        int // bars fetched per ticker
	progressEvery int // persist counters every N tickers

	wg sync.WaitGroup
}

// OrchestratorOption configures an Orchestrator.
type OrchestratorOption func(*Orchestrator)

// WithDispatcher replaces the default goroutine dispatcher.
func WithDispatcher(d Dispatcher) OrchestratorOption {
	return func(o *Orchestrator) { o.dispatch = d }
}

// WithRetryPolicy replaces the default create-retry policy.
func WithRetryPolicy(p *RetryPolicy) OrchestratorOption {
	return func(o *Orchestrator) { o.retry = p }
}

// WithWindow sets how many bars are fetched per ticker.
func WithWindow(bars int) OrchestratorOption {
	return func(o *Orchestrator) {
		if bars > 0 {
			o.window = bars
		}
	}
}

// WithProgressEvery persists counters every n processed tickers instead
// of after each one, bounding store-write volume on big batches.
func WithProgressEvery(n int) OrchestratorOption {
	return func(o *Orchestrator) {
		if n > 0 {
			o.progressEvery = n
		}
	}
}

// WithDemoData sets the provider used for demo-flagged submissions.
func WithDemoData(m domrepo.MarketData) OrchestratorOption {
	return func(o *Orchestrator) { o.demo = m }
}

// WithVerdictSink attaches an optional verdict history sink.
func WithVerdictSink(s domrepo.VerdictSink) OrchestratorOption {
	return func(o *Orchestrator) { o.sink = s }
}

// WithEventPublisher attaches an optional lifecycle event publisher.
func WithEventPublisher(p domrepo.EventPublisher) OrchestratorOption {
	return func(o *Orchestrator) { o.events = p }
}

// NewOrchestrator wires the orchestration core. Store, market data,
// metrics, registry and logger are required; sinks and publishers are
// optional.
func NewOrchestrator(
	store domrepo.JobStore,
	market domrepo.MarketData,
	metrics domrepo.Metrics,
	registry *indicator.Registry,
	lgr *applogger.Logger,
	opts ...OrchestratorOption,
) *Orchestrator {
	o := &Orchestrator{
		store:         store,
		market:        market,
		metrics:       metrics,
		registry:      registry,
		logger:        lgr,
		retry:         DefaultRetryPolicy(),
		window:        200,
		progressEvery: 1,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.dispatch == nil {
		o.dispatch = goDispatcher{o}
	}
	return o
}

// goDispatcher runs each job on its own goroutine, tracked for shutdown.
type goDispatcher struct{ o *Orchestrator }

func (d goDispatcher) Dispatch(_ context.Context, job *models.Job) error {
	d.o.wg.Add(1)
	go func() {
		defer d.o.wg.Done()
		d.o.Execute(context.Background(), job)
	}()
	return nil
}

// Submit validates a submission, creates the job atomically, and hands it
// to a worker. It returns immediately; processing happens off the request
// path. A detected creation race folds into the already-active job for
// the same ticker set instead of erroring.
func (o *Orchestrator) Submit(ctx context.Context, req *models.SubmitJobRequest) (*models.SubmitJobResponse, error) {
	job, err := o.buildJob(req)
	if err != nil {
		o.metrics.RecordSubmission("rejected")
		return nil, err
	}

	createErr := o.retry.Do(ctx, func() error {
		return o.store.Create(ctx, models.RecordFromJob(job))
	}, func(err error) bool {
		// A fingerprint conflict will not clear by waiting; go straight to
		// the duplicate lookup. Everything else is treated as transient.
		return !errors.Is(err, models.ErrJobExists)
	})

	if createErr != nil {
		if existing, lookupErr := o.store.FindActiveByFingerprint(ctx, job.Fingerprint, domrepo.ActiveStatuses); lookupErr == nil {
			o.metrics.RecordSubmission("duplicate")
			o.logger.Info("submission folded into active job",
				applogger.String("job_id", existing.JobID),
				applogger.String("fingerprint", job.Fingerprint))
			return &models.SubmitJobResponse{JobID: existing.JobID, Status: existing.Status, IsDuplicate: true}, nil
		}
		o.metrics.RecordSubmission("rejected")
		return nil, &models.CreationError{Attempts: o.retry.MaxAttempts, Err: createErr}
	}

	// Snapshot while the aggregate is still exclusively ours; once Dispatch
	// returns, the worker owns the job and Submit must not touch it again.
	rec := models.RecordFromJob(job)
	cfg := job.Config
	resp := &models.SubmitJobResponse{JobID: job.ID, Status: job.Status, IsDuplicate: false}

	if err := o.dispatch.Dispatch(ctx, job); err != nil {
		// The record exists but nobody will run it; fail it rather than
		// leaving a queued ghost. A failed Dispatch never started a worker,
		// so the aggregate is still ours to finalize.
		_ = job.Apply(models.EventFail)
		failed := models.RecordFromJob(job)
		failed.Errors = append(failed.Errors, models.JobError{Message: fmt.Sprintf("dispatch: %v", err), Timestamp: time.Now().UTC()})
		_ = o.store.Finalize(ctx, failed)
		o.metrics.RecordSubmission("rejected")
		return nil, &models.CreationError{Attempts: 1, Err: err}
	}

	o.metrics.RecordSubmission("created")
	o.publishEvent(ctx, rec)
	o.logger.Info("job submitted",
		applogger.String("job_id", rec.JobID),
		applogger.Int("tickers", rec.Total),
		applogger.String("strategy", cfg.StrategyID),
		applogger.Bool("demo", cfg.DemoData))
	return resp, nil
}

// buildJob validates the request and produces a queued job aggregate.
// No record is written here; a validation failure leaves no trace.
func (o *Orchestrator) buildJob(req *models.SubmitJobRequest) (*models.Job, error) {
	tickers, err := models.ParseTickers(req.Tickers)
	if err != nil {
		var terr *models.InvalidTickerError
		if errors.As(err, &terr) {
			return nil, &models.ValidationError{Field: "tickers", Message: terr.Error(), Err: err}
		}
		return nil, &models.ValidationError{Field: "tickers", Message: err.Error(), Err: err}
	}

	if _, err := o.registry.Select(req.Indicators); err != nil {
		return nil, &models.ValidationError{Field: "indicators", Message: err.Error(), Err: err}
	}

	strategyID := req.StrategyID
	if strategyID == "" {
		strategyID = signal.DefaultStrategyID
	}
	if !signal.KnownStrategy(strategyID) {
		return nil, models.NewValidationError("strategy_id", fmt.Sprintf("unknown strategy %q", strategyID))
	}

	cfg := models.JobConfig{
		Capital:    req.Capital,
		Indicators: req.Indicators,
		StrategyID: strategyID,
		DemoData:   req.Demo,
	}

	job, err := models.NewJob(uuid.NewString(), tickers, cfg, models.TickerFingerprint(tickers))
	if err != nil {
		return nil, err
	}
	if err := job.Apply(models.EventQueue); err != nil {
		return nil, err
	}
	return job, nil
}

// Execute runs one job to a terminal state. Per-ticker failures are
// recorded and skipped; only a bug escaping the per-ticker boundary or a
// store contract violation fails the job outright.
func (o *Orchestrator) Execute(ctx context.Context, job *models.Job) {
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("job worker panic", applogger.String("job_id", job.ID), applogger.Any("panic", r))
			o.failJob(ctx, job, fmt.Errorf("worker panic: %v", r))
		}
	}()

	if o.checkCancelled(ctx, job) {
		return
	}

	if err := job.Apply(models.EventStart); err != nil {
		o.failJob(ctx, job, err)
		return
	}
	if err := o.store.UpdateProgress(ctx, models.RecordFromJob(job)); err != nil {
		o.failJob(ctx, job, fmt.Errorf("persist start: %w", err))
		return
	}
	o.publishEvent(ctx, models.RecordFromJob(job))

	caps, err := o.registry.Select(job.Config.Indicators)
	if err != nil {
		// Validated at submission; a miss here means registry wiring changed
		// under a queued job.
		o.failJob(ctx, job, err)
		return
	}
	profile := signal.ProfileFor(job.Config.StrategyID)
	provider := o.providerFor(job)

	verdicts := make([]models.Verdict, 0, job.Total())
	for _, ticker := range job.Tickers {
		if o.checkCancelled(ctx, job) {
			o.flushVerdicts(ctx, job, verdicts)
			return
		}

		fetchStart := time.Now()
		series, err := provider.GetCandles(ctx, ticker, o.window)
		o.metrics.RecordLatency("fetch_candles", time.Since(fetchStart).Seconds())
		if err != nil {
			o.recordTickerFailure(ctx, job, ticker, err)
			continue
		}

		results := indicator.EvaluateAll(caps, series)
		verdict := signal.Aggregate(ticker, results, profile)
		verdict.Timestamp = time.Now().UTC()
		verdicts = append(verdicts, verdict)

		if err := job.RecordSuccess(); err != nil {
			o.failJob(ctx, job, err)
			return
		}
		o.metrics.RecordTickerProcessed("success")
		o.metrics.RecordLastScore(ticker.Symbol(), verdict.Score)
		o.persistProgress(ctx, job)
	}

	o.flushVerdicts(ctx, job, verdicts)

	if err := job.Apply(models.EventComplete); err != nil {
		o.failJob(ctx, job, err)
		return
	}
	if err := o.store.Finalize(ctx, models.RecordFromJob(job)); err != nil {
		o.logger.Error("finalize failed", applogger.String("job_id", job.ID), applogger.Error(err))
	}
	o.publishEvent(ctx, models.RecordFromJob(job))
	o.metrics.RecordJobFinalized(string(job.Status))
	o.metrics.RecordJobDuration(time.Since(start).Seconds())
	o.logger.Info("job completed",
		applogger.String("job_id", job.ID),
		applogger.Int("completed", job.Completed),
		applogger.Int("successful", job.Successful),
		applogger.Int("errors", len(job.Errors)),
		applogger.Duration("elapsed", time.Since(start)))
}

// GetStatus reads the durable projection for a job.
func (o *Orchestrator) GetStatus(ctx context.Context, jobID string) (*models.JobStatusResponse, error) {
	rec, err := o.store.GetByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	return models.StatusFromRecord(rec), nil
}

// Cancel requests cooperative cancellation. Terminal jobs report
// accepted=false; anything in flight stops at its next per-ticker
// checkpoint with partial results retained.
func (o *Orchestrator) Cancel(ctx context.Context, jobID string) (*models.CancelJobResponse, error) {
	accepted, err := o.store.RequestCancel(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if accepted {
		o.logger.Info("cancellation requested", applogger.String("job_id", jobID))
	}
	return &models.CancelJobResponse{JobID: jobID, Accepted: accepted}, nil
}

// Indicators lists registered indicator names for discovery endpoints.
func (o *Orchestrator) Indicators() []string { return o.registry.Names() }

// Wait blocks until all in-process job workers finish. Used on shutdown.
func (o *Orchestrator) Wait() { o.wg.Wait() }

func (o *Orchestrator) providerFor(job *models.Job) domrepo.MarketData {
	if job.Config.DemoData && o.demo != nil {
		return o.demo
	}
	return o.market
}

func (o *Orchestrator) recordTickerFailure(ctx context.Context, job *models.Job, ticker models.Ticker, err error) {
	o.logger.Warn("ticker analysis failed",
		applogger.String("job_id", job.ID),
		applogger.String("ticker", ticker.Symbol()),
		applogger.Error(err))
	if rerr := job.RecordFailure(ticker, err); rerr != nil {
		o.logger.Error("counter update rejected", applogger.String("job_id", job.ID), applogger.Error(rerr))
		return
	}
	o.metrics.RecordTickerProcessed("failure")
	o.persistProgress(ctx, job)
}

// persistProgress writes counters every progressEvery tickers and always
// on the final one, so completed/total stays fresh without hammering the
// store on large batches.
func (o *Orchestrator) persistProgress(ctx context.Context, job *models.Job) {
	if job.Completed%o.progressEvery != 0 && job.Completed != job.Total() {
		return
	}
	if err := o.store.UpdateProgress(ctx, models.RecordFromJob(job)); err != nil {
		o.logger.Error("progress update failed", applogger.String("job_id", job.ID), applogger.Error(err))
	}
}

// checkCancelled observes the cooperative cancellation flag and, when
// set, finalizes the job as cancelled with partial counters retained.
func (o *Orchestrator) checkCancelled(ctx context.Context, job *models.Job) bool {
	requested, err := o.store.CancelRequested(ctx, job.ID)
	if err != nil {
		o.logger.Warn("cancel flag read failed", applogger.String("job_id", job.ID), applogger.Error(err))
		return false
	}
	if !requested {
		return false
	}
	if err := job.Apply(models.EventCancel); err != nil {
		o.logger.Error("cancel transition rejected", applogger.String("job_id", job.ID), applogger.Error(err))
		return false
	}
	if err := o.store.Finalize(ctx, models.RecordFromJob(job)); err != nil {
		o.logger.Error("finalize failed", applogger.String("job_id", job.ID), applogger.Error(err))
	}
	o.publishEvent(ctx, models.RecordFromJob(job))
	o.metrics.RecordJobFinalized(string(models.StatusCancelled))
	o.logger.Info("job cancelled",
		applogger.String("job_id", job.ID),
		applogger.Int("completed", job.Completed),
		applogger.Int("total", job.Total()))
	return true
}

func (o *Orchestrator) failJob(ctx context.Context, job *models.Job, cause error) {
	if job.Status.IsTerminal() {
		return
	}
	if err := job.Apply(models.EventFail); err != nil {
		o.logger.Error("fail transition rejected", applogger.String("job_id", job.ID), applogger.Error(err))
		return
	}
	rec := models.RecordFromJob(job)
	rec.Errors = append(rec.Errors, models.JobError{Message: cause.Error(), Timestamp: time.Now().UTC()})
	if err := o.store.Finalize(ctx, rec); err != nil {
		o.logger.Error("finalize failed", applogger.String("job_id", job.ID), applogger.Error(err))
	}
	o.publishEvent(ctx, rec)
	o.metrics.RecordJobFinalized(string(models.StatusFailed))
	o.logger.Error("job failed", applogger.String("job_id", job.ID), applogger.Error(cause))
}

func (o *Orchestrator) flushVerdicts(ctx context.Context, job *models.Job, verdicts []models.Verdict) {
	if o.sink == nil || len(verdicts) == 0 {
		return
	}
	if err := o.sink.StoreBatch(ctx, job.ID, verdicts); err != nil {
		// History is best-effort; losing it must not change the job outcome.
		o.metrics.RecordError("verdict_sink")
		o.logger.Warn("verdict sink write failed", applogger.String("job_id", job.ID), applogger.Error(err))
	}
}

func (o *Orchestrator) publishEvent(ctx context.Context, rec *models.JobRecord) {
	if o.events == nil {
		return
	}
	if err := o.events.PublishJobEvent(ctx, rec); err != nil {
		o.metrics.RecordError("event_publish")
		o.logger.Warn("job event publish failed", applogger.String("job_id", rec.JobID), applogger.Error(err))
	}
}
