package application

import (
	"context"
	"log/slog"

	"github.com/wyfcoding/almrisk/internal/valuation/domain"
)

// ProjectionService 读模型投影服务：消费任务生命周期事件，
// 刷新组合维度的最新任务概览
type ProjectionService struct {
	runRepo  domain.ValuationRunRepository
	readRepo domain.RunSummaryReadRepository
	logger   *slog.Logger
}

// NewProjectionService 创建投影服务
func NewProjectionService(
	runRepo domain.ValuationRunRepository,
	readRepo domain.RunSummaryReadRepository,
	logger *slog.Logger,
) *ProjectionService {
	return &ProjectionService{
		runRepo:  runRepo,
		readRepo: readRepo,
		logger:   logger,
	}
}

// RefreshRunSummary 以数据库中的任务为准刷新读模型
func (s *ProjectionService) RefreshRunSummary(ctx context.Context, runID string) error {
	run, err := s.runRepo.GetByRunID(ctx, runID)
	if err != nil {
		return err
	}

	summary := &domain.RunSummary{
		RunID:        run.RunID,
		Portfolio:    run.Portfolio,
		Status:       string(run.Status),
		BaselinePV:   run.BaselinePV.String(),
		NumScenarios: run.NumScenarios,
		FailedCells:  run.FailedCells,
		CompletedAt:  run.UpdatedAt.Unix(),
	}
	if err := s.readRepo.SetLatest(ctx, run.Portfolio, summary); err != nil {
		s.logger.WarnContext(ctx, "failed to update run summary cache", "error", err, "run_id", runID)
		return err
	}
	return nil
}
