package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"SignalBatch/internal/domain/models"
	domainrepo "SignalBatch/internal/domain/repository"
	"SignalBatch/pkg/logger"

	"github.com/redis/go-redis/v9"
)

// releaseFingerprintScript deletes the fingerprint claim only when it is
// still held by the finishing job, so a newer job's claim is never
// clobbered by a stale finalize.
var releaseFingerprintScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
    return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisJobStore is the shared JobStore for multi-node deployments. Atomic
// create is built on SETNX: one key per job record and one claim key per
// active fingerprint.
type RedisJobStore struct {
	logger    *logger.Logger
	client    *redis.Client
	keyPrefix string
	retention time.Duration
}

var _ domainrepo.JobStore = (*RedisJobStore)(nil)

// RedisJobStoreOption configures RedisJobStore.
type RedisJobStoreOption func(*RedisJobStore)

// WithJobKeyPrefix sets a custom key prefix.
func WithJobKeyPrefix(prefix string) RedisJobStoreOption {
	return func(s *RedisJobStore) {
		s.keyPrefix = prefix
	}
}

// WithRetention sets how long finished records are kept. Zero keeps them
// forever.
func WithRetention(d time.Duration) RedisJobStoreOption {
	return func(s *RedisJobStore) {
		s.retention = d
	}
}

// NewRedisJobStore creates a job store backed by Redis.
func NewRedisJobStore(lgr *logger.Logger, client *redis.Client, opts ...RedisJobStoreOption) *RedisJobStore {
	s := &RedisJobStore{
		logger:    lgr,
		client:    client,
		keyPrefix: "signalbatch:jobs",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisJobStore) Create(ctx context.Context, rec *models.JobRecord) error {
	claimed, err := s.claimFingerprint(ctx, rec)
	if err != nil {
		return err
	}
	if !claimed {
		return models.ErrJobExists
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal job record: %w", err)
	}

	ok, err := s.client.SetNX(ctx, s.jobKey(rec.JobID), data, 0).Result()
	if err != nil {
		s.releaseFingerprint(ctx, rec.Fingerprint, rec.JobID)
		return fmt.Errorf("setnx job: %w", err)
	}
	if !ok {
		s.releaseFingerprint(ctx, rec.Fingerprint, rec.JobID)
		return models.ErrJobExists
	}
	return nil
}

// claimFingerprint takes the fingerprint key for the new job. A claim
// pointing at a terminal or vanished record is stale and gets replaced.
func (s *RedisJobStore) claimFingerprint(ctx context.Context, rec *models.JobRecord) (bool, error) {
	fpKey := s.fingerprintKey(rec.Fingerprint)

	ok, err := s.client.SetNX(ctx, fpKey, rec.JobID, 0).Result()
	if err != nil {
		return false, fmt.Errorf("setnx fingerprint: %w", err)
	}
	if ok {
		return true, nil
	}

	holder, err := s.client.Get(ctx, fpKey).Result()
	if errors.Is(err, redis.Nil) {
		// Claim released between SETNX and GET; retry once.
		ok, err = s.client.SetNX(ctx, fpKey, rec.JobID, 0).Result()
		if err != nil {
			return false, fmt.Errorf("setnx fingerprint: %w", err)
		}
		return ok, nil
	}
	if err != nil {
		return false, fmt.Errorf("get fingerprint: %w", err)
	}

	existing, err := s.GetByID(ctx, holder)
	if err != nil && !errors.Is(err, models.ErrJobNotFound) {
		return false, err
	}
	if err == nil && !existing.Status.IsTerminal() {
		return false, nil
	}

	// Stale claim: take it over.
	if err := s.client.Set(ctx, fpKey, rec.JobID, 0).Err(); err != nil {
		return false, fmt.Errorf("set fingerprint: %w", err)
	}
	return true, nil
}

func (s *RedisJobStore) releaseFingerprint(ctx context.Context, fingerprint, jobID string) {
	if err := releaseFingerprintScript.Run(ctx, s.client,
		[]string{s.fingerprintKey(fingerprint)}, jobID).Err(); err != nil && !errors.Is(err, redis.Nil) {
		s.logger.Error("release fingerprint claim",
			logger.String("job_id", jobID),
			logger.Error(err))
	}
}

func (s *RedisJobStore) GetByID(ctx context.Context, jobID string) (*models.JobRecord, error) {
	data, err := s.client.Get(ctx, s.jobKey(jobID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, models.ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}

	var rec models.JobRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal job record: %w", err)
	}
	return &rec, nil
}

func (s *RedisJobStore) FindActiveByFingerprint(ctx context.Context, fingerprint string, statuses []models.JobStatus) (*models.JobRecord, error) {
	holder, err := s.client.Get(ctx, s.fingerprintKey(fingerprint)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, models.ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get fingerprint: %w", err)
	}

	rec, err := s.GetByID(ctx, holder)
	if err != nil {
		return nil, err
	}
	for _, st := range statuses {
		if rec.Status == st {
			return rec, nil
		}
	}
	return nil, models.ErrJobNotFound
}

func (s *RedisJobStore) UpdateProgress(ctx context.Context, rec *models.JobRecord) error {
	return s.overwrite(ctx, rec)
}

func (s *RedisJobStore) Finalize(ctx context.Context, rec *models.JobRecord) error {
	if err := s.overwrite(ctx, rec); err != nil {
		return err
	}

	s.releaseFingerprint(ctx, rec.Fingerprint, rec.JobID)

	if s.retention > 0 {
		pipe := s.client.TxPipeline()
		pipe.Expire(ctx, s.jobKey(rec.JobID), s.retention)
		pipe.Expire(ctx, s.cancelKey(rec.JobID), s.retention)
		if _, err := pipe.Exec(ctx); err != nil {
			s.logger.Error("set record retention",
				logger.String("job_id", rec.JobID),
				logger.Error(err))
		}
	}
	return nil
}

func (s *RedisJobStore) overwrite(ctx context.Context, rec *models.JobRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal job record: %w", err)
	}

	ok, err := s.client.SetXX(ctx, s.jobKey(rec.JobID), data, redis.KeepTTL).Result()
	if err != nil {
		return fmt.Errorf("setxx job: %w", err)
	}
	if !ok {
		return models.ErrJobNotFound
	}
	return nil
}

func (s *RedisJobStore) RequestCancel(ctx context.Context, jobID string) (bool, error) {
	rec, err := s.GetByID(ctx, jobID)
	if errors.Is(err, models.ErrJobNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if rec.Status.IsTerminal() {
		return false, nil
	}

	if err := s.client.Set(ctx, s.cancelKey(jobID), "1", 0).Err(); err != nil {
		return false, fmt.Errorf("set cancel flag: %w", err)
	}
	return true, nil
}

func (s *RedisJobStore) CancelRequested(ctx context.Context, jobID string) (bool, error) {
	n, err := s.client.Exists(ctx, s.cancelKey(jobID)).Result()
	if err != nil {
		return false, fmt.Errorf("exists cancel flag: %w", err)
	}
	return n > 0, nil
}

func (s *RedisJobStore) Close() error { return nil }

func (s *RedisJobStore) jobKey(jobID string) string {
	return fmt.Sprintf("%s:rec:%s", s.keyPrefix, jobID)
}

func (s *RedisJobStore) fingerprintKey(fp string) string {
	return fmt.Sprintf("%s:fp:%s", s.keyPrefix, fp)
}

func (s *RedisJobStore) cancelKey(jobID string) string {
	return fmt.Sprintf("%s:cancel:%s", s.keyPrefix, jobID)
}
