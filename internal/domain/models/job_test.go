package models

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestJob(t *testing.T, symbols ...string) *Job {
	t.Helper()
	tickers := mustTickers(t, symbols...)
	job, err := NewJob("job-1", tickers, JobConfig{Capital: 1000}, TickerFingerprint(tickers))
	require.NoError(t, err)
	return job
}

func TestStateMachineTransitions(t *testing.T) {
	cases := []struct {
		from JobStatus
		ev   JobEvent
		to   JobStatus
		ok   bool
	}{
		{StatusCreated, EventQueue, StatusQueued, true},
		{StatusQueued, EventStart, StatusProcessing, true},
		{StatusQueued, EventCancel, StatusCancelled, true},
		{StatusQueued, EventFail, StatusFailed, true},
		{StatusProcessing, EventComplete, StatusCompleted, true},
		{StatusProcessing, EventPause, StatusPaused, true},
		{StatusProcessing, EventCancel, StatusCancelled, true},
		{StatusProcessing, EventFail, StatusFailed, true},
		{StatusPaused, EventResume, StatusProcessing, true},
		{StatusPaused, EventCancel, StatusCancelled, true},
		{StatusFailed, EventRetry, StatusQueued, true},

		{StatusCreated, EventStart, StatusCreated, false},
		{StatusCompleted, EventStart, StatusCompleted, false},
		{StatusCompleted, EventRetry, StatusCompleted, false},
		{StatusCancelled, EventRetry, StatusCancelled, false},
		{StatusProcessing, EventQueue, StatusProcessing, false},
	}

	for _, tc := range cases {
		t.Run(fmt.Sprintf("%s_%s", tc.from, tc.ev), func(t *testing.T) {
			next, err := NextStatus(tc.from, tc.ev)
			if tc.ok {
				require.NoError(t, err)
				assert.Equal(t, tc.to, next)
				assert.True(t, CanTransition(tc.from, tc.ev))
				return
			}
			var terr *IllegalTransitionError
			require.ErrorAs(t, err, &terr)
			assert.Equal(t, tc.from, next, "state must not move on rejection")
			assert.False(t, CanTransition(tc.from, tc.ev))
		})
	}
}

func TestIsTerminal(t *testing.T) {
	assert.True(t, StatusCompleted.IsTerminal())
	assert.True(t, StatusFailed.IsTerminal())
	assert.True(t, StatusCancelled.IsTerminal())
	assert.False(t, StatusCreated.IsTerminal())
	assert.False(t, StatusQueued.IsTerminal())
	assert.False(t, StatusProcessing.IsTerminal())
	assert.False(t, StatusPaused.IsTerminal())
}

func TestApplyMaintainsTimestamps(t *testing.T) {
	job := newTestJob(t, "AAPL", "MSFT")
	require.NoError(t, job.Apply(EventQueue))
	assert.True(t, job.StartedAt.IsZero())

	require.NoError(t, job.Apply(EventStart))
	assert.False(t, job.StartedAt.IsZero())
	assert.True(t, job.CompletedAt.IsZero())

	require.NoError(t, job.Apply(EventComplete))
	assert.False(t, job.CompletedAt.IsZero())
}

func TestRetryResetsCounters(t *testing.T) {
	job := newTestJob(t, "AAPL", "MSFT")
	require.NoError(t, job.Apply(EventQueue))
	require.NoError(t, job.Apply(EventStart))
	require.NoError(t, job.RecordSuccess())
	require.NoError(t, job.RecordFailure(job.Tickers[1], errors.New("boom")))
	require.NoError(t, job.Apply(EventFail))

	require.NoError(t, job.Apply(EventRetry))
	assert.Equal(t, StatusQueued, job.Status)
	assert.Zero(t, job.Completed)
	assert.Zero(t, job.Successful)
	assert.Empty(t, job.Errors)
	assert.True(t, job.StartedAt.IsZero())
	assert.True(t, job.CompletedAt.IsZero())
}

func TestCountersImmutableAfterTerminal(t *testing.T) {
	job := newTestJob(t, "AAPL", "MSFT")
	require.NoError(t, job.Apply(EventQueue))
	require.NoError(t, job.Apply(EventStart))
	require.NoError(t, job.RecordSuccess())
	require.NoError(t, job.Apply(EventCancel))

	assert.Error(t, job.RecordSuccess())
	assert.Error(t, job.RecordFailure(job.Tickers[1], errors.New("late")))
	assert.Equal(t, 1, job.Completed)
}

func TestCompletedNeverExceedsTotal(t *testing.T) {
	job := newTestJob(t, "AAPL")
	require.NoError(t, job.Apply(EventQueue))
	require.NoError(t, job.Apply(EventStart))
	require.NoError(t, job.RecordSuccess())
	assert.Error(t, job.RecordSuccess())
	assert.Equal(t, 1, job.Completed)
}

func TestNewJobValidation(t *testing.T) {
	tickers := mustTickers(t, "AAPL")

	_, err := NewJob("j", tickers, JobConfig{Capital: 0}, "fp")
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "capital", verr.Field)

	_, err = NewJob("j", nil, JobConfig{Capital: 100}, "fp")
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "tickers", verr.Field)
}

func TestProgressPercent(t *testing.T) {
	assert.Equal(t, 0, ProgressPercent(0, 0))
	assert.Equal(t, 0, ProgressPercent(0, 10))
	assert.Equal(t, 33, ProgressPercent(1, 3))
	assert.Equal(t, 67, ProgressPercent(2, 3))
	assert.Equal(t, 100, ProgressPercent(3, 3))
}
