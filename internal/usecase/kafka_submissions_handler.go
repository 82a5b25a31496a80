package usecase

import (
	"context"
	"encoding/json"
	"errors"

	"SignalBatch/internal/domain/models"
	"SignalBatch/pkg/kafka"
	"SignalBatch/pkg/logger"
)

// KafkaSubmissionsHandler accepts job submissions from a Kafka topic, so
// upstream schedulers can enqueue analysis batches without going through
// the HTTP API. Each message is one submission in the same shape as the
// HTTP request body.
type KafkaSubmissionsHandler struct {
	logger *logger.Logger
	topic  string
	orch   *Orchestrator
}

var _ kafka.MessageHandler = (*KafkaSubmissionsHandler)(nil)

func NewKafkaSubmissionsHandler(lgr *logger.Logger, topic string, orch *Orchestrator) *KafkaSubmissionsHandler {
	return &KafkaSubmissionsHandler{logger: lgr, topic: topic, orch: orch}
}

func (h *KafkaSubmissionsHandler) Topic() string { return h.topic }

func (h *KafkaSubmissionsHandler) Handle(ctx context.Context, b []byte) error {
	var req models.SubmitJobRequest
	if err := json.Unmarshal(b, &req); err != nil {
		return err
	}

	res, err := h.orch.Submit(ctx, &req)
	if err != nil {
		// Malformed submissions are logged and dropped rather than
		// retried: replaying them can never succeed.
		var verr *models.ValidationError
		if errors.As(err, &verr) {
			h.logger.Warn("kafka submission rejected",
				logger.String("field", verr.Field),
				logger.Error(err))
			return nil
		}
		return err
	}

	h.logger.Info("kafka submission accepted",
		logger.String("job_id", res.JobID),
		logger.Bool("duplicate", res.IsDuplicate))
	return nil
}
