package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"SignalBatch/internal/domain/models"
	domrepo "SignalBatch/internal/domain/repository"
	"SignalBatch/internal/indicator"
	"SignalBatch/internal/repository"
	"SignalBatch/internal/service/marketdata"
	applogger "SignalBatch/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// noopMetrics satisfies the metrics contract without a registry.
type noopMetrics struct{}

func (noopMetrics) RecordSubmission(string)         {}
func (noopMetrics) RecordJobFinalized(string)       {}
func (noopMetrics) RecordTickerProcessed(string)    {}
func (noopMetrics) RecordJobDuration(float64)       {}
func (noopMetrics) RecordLastScore(string, float64) {}
func (noopMetrics) RecordLastPrice(string, float64) {}
func (noopMetrics) RecordLatency(string, float64)   {}
func (noopMetrics) RecordError(string)              {}

// captureDispatcher records jobs instead of running them, so tests drive
// Execute synchronously.
type captureDispatcher struct {
	jobs []*models.Job
	err  error
}

func (d *captureDispatcher) Dispatch(_ context.Context, job *models.Job) error {
	if d.err != nil {
		return d.err
	}
	d.jobs = append(d.jobs, job)
	return nil
}

// inlineDispatcher runs the worker synchronously inside Dispatch, so the
// job reaches a terminal state before Submit resumes.
type inlineDispatcher struct {
	o *Orchestrator
}

func (d *inlineDispatcher) Dispatch(ctx context.Context, job *models.Job) error {
	d.o.Execute(ctx, job)
	return nil
}

// captureEvents records the status carried by each published lifecycle
// event.
type captureEvents struct {
	mu       sync.Mutex
	statuses []models.JobStatus
}

func (p *captureEvents) PublishJobEvent(_ context.Context, rec *models.JobRecord) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.statuses = append(p.statuses, rec.Status)
	return nil
}

func (p *captureEvents) Close() error { return nil }

// faultyMarket wraps the demo provider and misbehaves for chosen symbols.
type faultyMarket struct {
	inner   *marketdata.DemoProvider
	failing map[string]bool
	panics  map[string]bool
}

func (m *faultyMarket) GetCandles(ctx context.Context, ticker models.Ticker, bars int) (models.PriceSeries, error) {
	sym := ticker.Symbol()
	if m.panics[sym] {
		panic("provider bug for " + sym)
	}
	if m.failing[sym] {
		return models.PriceSeries{}, errors.New("upstream unavailable")
	}
	return m.inner.GetCandles(ctx, ticker, bars)
}

func testLogger(t *testing.T) *applogger.Logger {
	t.Helper()
	lgr, err := applogger.New(&applogger.Config{Level: "error", Format: "console", Output: "stderr"})
	require.NoError(t, err)
	return lgr
}

func newTestOrchestrator(t *testing.T, opts ...OrchestratorOption) (*Orchestrator, *repository.MemoryJobStore) {
	t.Helper()
	store := repository.NewMemoryJobStore()
	base := []OrchestratorOption{
		WithWindow(120),
		WithRetryPolicy(NewRetryPolicy(3, time.Millisecond)),
	}
	o := NewOrchestrator(
		store,
		marketdata.NewDemoProvider(),
		noopMetrics{},
		indicator.DefaultRegistry(),
		testLogger(t),
		append(base, opts...)...,
	)
	return o, store
}

func submitRequest(tickers ...string) *models.SubmitJobRequest {
	return &models.SubmitJobRequest{Tickers: tickers, Capital: 10000}
}

func TestSubmitRunsJobToCompletion(t *testing.T) {
	o, _ := newTestOrchestrator(t)

	resp, err := o.Submit(context.Background(), submitRequest("AAPL", "MSFT", "googl"))
	require.NoError(t, err)
	assert.False(t, resp.IsDuplicate)
	assert.NotEmpty(t, resp.JobID)

	o.Wait()

	status, err := o.GetStatus(context.Background(), resp.JobID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, status.Status)
	assert.Equal(t, 3, status.Total)
	assert.Equal(t, 3, status.Completed)
	assert.Equal(t, 3, status.Successful)
	assert.Equal(t, 100, status.ProgressPercent)
	assert.Zero(t, status.ErrorCount)
}

func TestSubmitReportsQueuedSnapshot(t *testing.T) {
	// Once dispatched, the worker owns the aggregate; the response and the
	// submission event must come from the pre-dispatch snapshot, not from
	// whatever state the worker has already advanced the job into.
	disp := &inlineDispatcher{}
	events := &captureEvents{}
	o, _ := newTestOrchestrator(t, WithDispatcher(disp), WithEventPublisher(events))
	disp.o = o

	resp, err := o.Submit(context.Background(), submitRequest("AAPL", "MSFT"))
	require.NoError(t, err)
	assert.Equal(t, models.StatusQueued, resp.Status)

	status, err := o.GetStatus(context.Background(), resp.JobID)
	require.NoError(t, err)
	require.Equal(t, models.StatusCompleted, status.Status, "inline worker should have finished")

	events.mu.Lock()
	defer events.mu.Unlock()
	require.NotEmpty(t, events.statuses)
	assert.Equal(t, models.StatusQueued, events.statuses[len(events.statuses)-1],
		"submission event publishes after the worker events here, and must still carry the queued snapshot")
}

func TestSubmitRejectsBadInput(t *testing.T) {
	o, _ := newTestOrchestrator(t, WithDispatcher(&captureDispatcher{}))

	cases := []struct {
		name string
		req  *models.SubmitJobRequest
	}{
		{"invalid ticker", submitRequest("AAPL", "BAD TICKER!")},
		{"unknown indicator", &models.SubmitJobRequest{Tickers: []string{"AAPL"}, Capital: 1, Indicators: []string{"astrology"}}},
		{"unknown strategy", &models.SubmitJobRequest{Tickers: []string{"AAPL"}, Capital: 1, StrategyID: "yolo"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := o.Submit(context.Background(), tc.req)
			var verr *models.ValidationError
			assert.ErrorAs(t, err, &verr)
		})
	}
}

func TestSubmitFoldsDuplicateIntoActiveJob(t *testing.T) {
	disp := &captureDispatcher{}
	o, _ := newTestOrchestrator(t, WithDispatcher(disp))
	ctx := context.Background()

	first, err := o.Submit(ctx, submitRequest("AAPL", "MSFT"))
	require.NoError(t, err)
	require.Len(t, disp.jobs, 1)

	// Same set in different order and case maps to the same fingerprint.
	second, err := o.Submit(ctx, submitRequest("msft", "aapl"))
	require.NoError(t, err)
	assert.True(t, second.IsDuplicate)
	assert.Equal(t, first.JobID, second.JobID)
	assert.Len(t, disp.jobs, 1, "duplicate must not dispatch a second worker")
}

func TestSubmitAllowsResubmitAfterCompletion(t *testing.T) {
	o, _ := newTestOrchestrator(t)
	ctx := context.Background()

	first, err := o.Submit(ctx, submitRequest("AAPL"))
	require.NoError(t, err)
	o.Wait()

	second, err := o.Submit(ctx, submitRequest("AAPL"))
	require.NoError(t, err)
	assert.False(t, second.IsDuplicate)
	assert.NotEqual(t, first.JobID, second.JobID)
	o.Wait()
}

func TestSubmitFailsJobWhenDispatchFails(t *testing.T) {
	disp := &captureDispatcher{err: errors.New("queue down")}
	o, store := newTestOrchestrator(t, WithDispatcher(disp))

	_, err := o.Submit(context.Background(), submitRequest("AAPL"))
	var cerr *models.CreationError
	require.ErrorAs(t, err, &cerr)

	// The orphaned record must be failed, not left queued, so the next
	// submission for the same tickers is free to proceed.
	tickers, err := models.ParseTickers([]string{"AAPL"})
	require.NoError(t, err)
	_, err = store.FindActiveByFingerprint(context.Background(), models.TickerFingerprint(tickers), domrepo.ActiveStatuses)
	assert.ErrorIs(t, err, models.ErrJobNotFound)
}

func TestExecuteIsolatesTickerFailures(t *testing.T) {
	disp := &captureDispatcher{}
	market := &faultyMarket{
		inner:   marketdata.NewDemoProvider(),
		failing: map[string]bool{"MSFT": true},
	}
	store := repository.NewMemoryJobStore()
	o := NewOrchestrator(store, market, noopMetrics{}, indicator.DefaultRegistry(), testLogger(t),
		WithDispatcher(disp), WithWindow(120))
	ctx := context.Background()

	resp, err := o.Submit(ctx, submitRequest("AAPL", "MSFT", "GOOGL"))
	require.NoError(t, err)
	require.Len(t, disp.jobs, 1)

	o.Execute(ctx, disp.jobs[0])

	status, err := o.GetStatus(ctx, resp.JobID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, status.Status, "one bad ticker must not fail the batch")
	assert.Equal(t, 3, status.Completed)
	assert.Equal(t, 2, status.Successful)
	require.Len(t, status.Errors, 1)
	assert.Equal(t, "MSFT", status.Errors[0].Ticker)
	assert.Contains(t, status.Errors[0].Message, "upstream unavailable")
}

func TestExecuteHonorsCancellation(t *testing.T) {
	disp := &captureDispatcher{}
	o, _ := newTestOrchestrator(t, WithDispatcher(disp))
	ctx := context.Background()

	resp, err := o.Submit(ctx, submitRequest("AAPL", "MSFT"))
	require.NoError(t, err)

	cancel, err := o.Cancel(ctx, resp.JobID)
	require.NoError(t, err)
	assert.True(t, cancel.Accepted)

	o.Execute(ctx, disp.jobs[0])

	status, err := o.GetStatus(ctx, resp.JobID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, status.Status)
	assert.Zero(t, status.Completed, "cancellation before start retains no partial work")

	// A second cancel against the now-terminal job is refused.
	cancel, err = o.Cancel(ctx, resp.JobID)
	require.NoError(t, err)
	assert.False(t, cancel.Accepted)
}

func TestCancelUnknownJob(t *testing.T) {
	o, _ := newTestOrchestrator(t)

	resp, err := o.Cancel(context.Background(), "no-such-job")
	require.NoError(t, err)
	assert.False(t, resp.Accepted)
}

func TestExecuteRecoversProviderPanic(t *testing.T) {
	disp := &captureDispatcher{}
	market := &faultyMarket{
		inner:  marketdata.NewDemoProvider(),
		panics: map[string]bool{"MSFT": true},
	}
	store := repository.NewMemoryJobStore()
	o := NewOrchestrator(store, market, noopMetrics{}, indicator.DefaultRegistry(), testLogger(t),
		WithDispatcher(disp), WithWindow(120))
	ctx := context.Background()

	resp, err := o.Submit(ctx, submitRequest("AAPL", "MSFT"))
	require.NoError(t, err)

	o.Execute(ctx, disp.jobs[0])

	status, err := o.GetStatus(ctx, resp.JobID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusFailed, status.Status)
	require.NotEmpty(t, status.Errors)
	assert.Contains(t, status.Errors[len(status.Errors)-1].Message, "worker panic")
}

func TestGetStatusUnknownJob(t *testing.T) {
	o, _ := newTestOrchestrator(t)
	_, err := o.GetStatus(context.Background(), "ghost")
	assert.ErrorIs(t, err, models.ErrJobNotFound)
}
