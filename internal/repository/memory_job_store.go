package repository

import (
	"context"
	"sync"

	"SignalBatch/internal/domain/models"
	domainrepo "SignalBatch/internal/domain/repository"
)

// MemoryJobStore is the in-process JobStore used by single-node
// deployments and tests. A secondary index from fingerprint to job ids
// backs duplicate detection without scanning the whole table.
type MemoryJobStore struct {
	mu        sync.RWMutex
	jobs      map[string]*models.JobRecord
	byPrint   map[string][]string // fingerprint -> job ids, insertion order
	cancelled map[string]bool
}

var _ domainrepo.JobStore = (*MemoryJobStore)(nil)

func NewMemoryJobStore() *MemoryJobStore {
	return &MemoryJobStore{
		jobs:      make(map[string]*models.JobRecord),
		byPrint:   make(map[string][]string),
		cancelled: make(map[string]bool),
	}
}

func (s *MemoryJobStore) Create(_ context.Context, rec *models.JobRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.jobs[rec.JobID]; ok {
		return models.ErrJobExists
	}
	for _, id := range s.byPrint[rec.Fingerprint] {
		if existing, ok := s.jobs[id]; ok && !existing.Status.IsTerminal() {
			return models.ErrJobExists
		}
	}

	s.jobs[rec.JobID] = cloneRecord(rec)
	s.byPrint[rec.Fingerprint] = append(s.byPrint[rec.Fingerprint], rec.JobID)
	return nil
}

func (s *MemoryJobStore) GetByID(_ context.Context, jobID string) (*models.JobRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.jobs[jobID]
	if !ok {
		return nil, models.ErrJobNotFound
	}
	return cloneRecord(rec), nil
}

func (s *MemoryJobStore) FindActiveByFingerprint(_ context.Context, fingerprint string, statuses []models.JobStatus) (*models.JobRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.byPrint[fingerprint]
	for i := len(ids) - 1; i >= 0; i-- {
		rec, ok := s.jobs[ids[i]]
		if !ok {
			continue
		}
		for _, st := range statuses {
			if rec.Status == st {
				return cloneRecord(rec), nil
			}
		}
	}
	return nil, models.ErrJobNotFound
}

func (s *MemoryJobStore) UpdateProgress(_ context.Context, rec *models.JobRecord) error {
	return s.overwrite(rec)
}

func (s *MemoryJobStore) Finalize(_ context.Context, rec *models.JobRecord) error {
	return s.overwrite(rec)
}

func (s *MemoryJobStore) overwrite(rec *models.JobRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.jobs[rec.JobID]; !ok {
		return models.ErrJobNotFound
	}
	s.jobs[rec.JobID] = cloneRecord(rec)
	return nil
}

func (s *MemoryJobStore) RequestCancel(_ context.Context, jobID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.jobs[jobID]
	if !ok || rec.Status.IsTerminal() {
		return false, nil
	}
	s.cancelled[jobID] = true
	return true, nil
}

func (s *MemoryJobStore) CancelRequested(_ context.Context, jobID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cancelled[jobID], nil
}

func (s *MemoryJobStore) Close() error { return nil }

func cloneRecord(rec *models.JobRecord) *models.JobRecord {
	out := *rec
	out.Errors = make([]models.JobError, len(rec.Errors))
	copy(out.Errors, rec.Errors)
	return &out
}
