package repository

import (
	"context"

	"SignalBatch/internal/domain/models"
	domainrepo "SignalBatch/internal/domain/repository"
	pkgkafka "SignalBatch/pkg/kafka"
)

// KafkaEventPublisher broadcasts job lifecycle transitions, keyed by job
// id so one job's events stay in order on a single partition.
type KafkaEventPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

var _ domainrepo.EventPublisher = (*KafkaEventPublisher)(nil)

// NewKafkaEventPublisher creates a lifecycle event publisher.
func NewKafkaEventPublisher(producer *pkgkafka.Producer, topic string) *KafkaEventPublisher {
	return &KafkaEventPublisher{producer: producer, topic: topic}
}

func (p *KafkaEventPublisher) PublishJobEvent(ctx context.Context, rec *models.JobRecord) error {
	return p.producer.Publish(ctx, p.topic, []byte(rec.JobID), map[string]interface{}{
		"job_id":     rec.JobID,
		"status":     string(rec.Status),
		"total":      rec.Total,
		"completed":  rec.Completed,
		"successful": rec.Successful,
		"progress":   rec.Progress(),
		"updated_at": rec.UpdatedAt,
	})
}

func (p *KafkaEventPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}
