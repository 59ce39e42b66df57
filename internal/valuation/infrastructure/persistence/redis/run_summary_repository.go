package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/wyfcoding/almrisk/internal/valuation/domain"
)

// RunSummaryRedisRepository 组合最新估值概览的 Redis 读模型仓储
type RunSummaryRedisRepository struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewRunSummaryRedisRepository 创建读模型仓储
func NewRunSummaryRedisRepository(client redis.UniversalClient) *RunSummaryRedisRepository {
	return &RunSummaryRedisRepository{
		client: client,
		prefix: "valuation:latest:",
		ttl:    24 * time.Hour,
	}
}

func (r *RunSummaryRedisRepository) SetLatest(ctx context.Context, portfolio string, summary *domain.RunSummary) error {
	if summary == nil {
		return nil
	}
	data, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("failed to marshal run summary: %w", err)
	}
	return r.client.Set(ctx, r.prefix+portfolio, data, r.ttl).Err()
}

func (r *RunSummaryRedisRepository) GetLatest(ctx context.Context, portfolio string) (*domain.RunSummary, error) {
	data, err := r.client.Get(ctx, r.prefix+portfolio).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get run summary from redis: %w", err)
	}
	var summary domain.RunSummary
	if err := json.Unmarshal(data, &summary); err != nil {
		return nil, fmt.Errorf("failed to unmarshal run summary: %w", err)
	}
	return &summary, nil
}
