package consumer

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/segmentio/kafka-go"
	"github.com/wyfcoding/almrisk/internal/valuation/application"
)

// 与领域事件 EventName 对应的主题
const (
	TopicRunCompleted = "valuation.run_completed"
	TopicRunFailed    = "valuation.run_failed"
)

// ProjectionHandler 消费任务生命周期事件，刷新 Redis 读模型
type ProjectionHandler struct {
	projector *application.ProjectionService
	logger    *slog.Logger
}

func NewProjectionHandler(projector *application.ProjectionService, logger *slog.Logger) *ProjectionHandler {
	return &ProjectionHandler{projector: projector, logger: logger}
}

func (h *ProjectionHandler) Handle(ctx context.Context, msg kafka.Message) error {
	switch msg.Topic {
	case TopicRunCompleted, TopicRunFailed:
		var payload struct {
			RunID string `json:"run_id"`
		}
		if err := json.Unmarshal(msg.Value, &payload); err != nil {
			h.logger.ErrorContext(ctx, "failed to unmarshal run event", "topic", msg.Topic, "error", err)
			return err
		}
		return h.projector.RefreshRunSummary(ctx, payload.RunID)
	default:
		h.logger.WarnContext(ctx, "unknown valuation event topic", "topic", msg.Topic)
		return nil
	}
}
