package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"SignalBatch/internal/domain/models"
	domainrepo "SignalBatch/internal/domain/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func record(id, fingerprint string, status models.JobStatus) *models.JobRecord {
	return &models.JobRecord{
		JobID:       id,
		Status:      status,
		Total:       2,
		Fingerprint: fingerprint,
	}
}

func TestMemoryStoreCreateAndGet(t *testing.T) {
	s := NewMemoryJobStore()
	ctx := context.Background()

	require.NoError(t, s.Create(ctx, record("a", "fp1", models.StatusQueued)))

	got, err := s.GetByID(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "a", got.JobID)

	_, err = s.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, models.ErrJobNotFound)
}

func TestMemoryStoreConflictsOnDuplicateID(t *testing.T) {
	s := NewMemoryJobStore()
	ctx := context.Background()

	require.NoError(t, s.Create(ctx, record("a", "fp1", models.StatusQueued)))
	err := s.Create(ctx, record("a", "fp2", models.StatusQueued))
	assert.ErrorIs(t, err, models.ErrJobExists)
}

func TestMemoryStoreConflictsOnActiveFingerprint(t *testing.T) {
	s := NewMemoryJobStore()
	ctx := context.Background()

	require.NoError(t, s.Create(ctx, record("a", "fp1", models.StatusQueued)))
	err := s.Create(ctx, record("b", "fp1", models.StatusQueued))
	assert.ErrorIs(t, err, models.ErrJobExists)

	// Finishing the first job frees the fingerprint.
	require.NoError(t, s.Finalize(ctx, record("a", "fp1", models.StatusCompleted)))
	assert.NoError(t, s.Create(ctx, record("b", "fp1", models.StatusQueued)))
}

func TestMemoryStoreConcurrentCreateRace(t *testing.T) {
	s := NewMemoryJobStore()
	ctx := context.Background()

	const racers = 32
	var wg sync.WaitGroup
	created := make(chan string, racers)

	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			if err := s.Create(ctx, record(id, "shared-fp", models.StatusQueued)); err == nil {
				created <- id
			} else if !errors.Is(err, models.ErrJobExists) {
				t.Errorf("unexpected error: %v", err)
			}
		}(fmt.Sprintf("racer-%d", i))
	}
	wg.Wait()
	close(created)

	winners := 0
	for range created {
		winners++
	}
	assert.Equal(t, 1, winners, "exactly one create may win for a shared fingerprint")

	// Losers must be able to find the winner.
	rec, err := s.FindActiveByFingerprint(ctx, "shared-fp", domainrepo.ActiveStatuses)
	require.NoError(t, err)
	assert.Equal(t, models.StatusQueued, rec.Status)
}

func TestMemoryStoreFindActiveByFingerprint(t *testing.T) {
	s := NewMemoryJobStore()
	ctx := context.Background()

	require.NoError(t, s.Create(ctx, record("a", "fp1", models.StatusQueued)))
	require.NoError(t, s.Finalize(ctx, record("a", "fp1", models.StatusFailed)))
	require.NoError(t, s.Create(ctx, record("b", "fp1", models.StatusProcessing)))

	rec, err := s.FindActiveByFingerprint(ctx, "fp1", domainrepo.ActiveStatuses)
	require.NoError(t, err)
	assert.Equal(t, "b", rec.JobID, "most recent active job wins")

	_, err = s.FindActiveByFingerprint(ctx, "fp404", domainrepo.ActiveStatuses)
	assert.ErrorIs(t, err, models.ErrJobNotFound)
}

func TestMemoryStoreCancelFlag(t *testing.T) {
	s := NewMemoryJobStore()
	ctx := context.Background()

	require.NoError(t, s.Create(ctx, record("a", "fp1", models.StatusProcessing)))

	flag, err := s.CancelRequested(ctx, "a")
	require.NoError(t, err)
	assert.False(t, flag)

	accepted, err := s.RequestCancel(ctx, "a")
	require.NoError(t, err)
	assert.True(t, accepted)

	flag, err = s.CancelRequested(ctx, "a")
	require.NoError(t, err)
	assert.True(t, flag)

	// Unknown and terminal jobs refuse cancellation.
	accepted, err = s.RequestCancel(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, accepted)

	require.NoError(t, s.Finalize(ctx, record("a", "fp1", models.StatusCancelled)))
	accepted, err = s.RequestCancel(ctx, "a")
	require.NoError(t, err)
	assert.False(t, accepted)
}

func TestMemoryStoreUpdateUnknownJob(t *testing.T) {
	s := NewMemoryJobStore()
	err := s.UpdateProgress(context.Background(), record("ghost", "fp", models.StatusProcessing))
	assert.ErrorIs(t, err, models.ErrJobNotFound)
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	s := NewMemoryJobStore()
	ctx := context.Background()

	rec := record("a", "fp1", models.StatusQueued)
	rec.Errors = []models.JobError{{Ticker: "AAPL", Message: "x"}}
	require.NoError(t, s.Create(ctx, rec))

	got, err := s.GetByID(ctx, "a")
	require.NoError(t, err)
	got.Errors[0].Message = "mutated"
	got.Completed = 99

	fresh, err := s.GetByID(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "x", fresh.Errors[0].Message)
	assert.Zero(t, fresh.Completed)
}
