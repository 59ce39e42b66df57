// Package mysql 估值服务的 MySQL 仓储层，基于 GORM。
package mysql

import (
	"context"
	"fmt"

	"github.com/wyfcoding/almrisk/internal/valuation/domain"
	"gorm.io/gorm"
)

// scenarioResultBatchSize 情景结果批量插入大小，蒙特卡洛任务一次可达上万行
const scenarioResultBatchSize = 500

// valuationRunRepository GORM 估值任务仓储实现
type valuationRunRepository struct {
	db *gorm.DB
}

// NewValuationRunRepository 创建估值任务仓储
func NewValuationRunRepository(db *gorm.DB) domain.ValuationRunRepository {
	return &valuationRunRepository{db: db}
}

// Save 保存估值任务聚合根
func (r *valuationRunRepository) Save(ctx context.Context, run *domain.ValuationRun) error {
	return r.db.WithContext(ctx).Create(run).Error
}

// Update 更新估值任务聚合根
func (r *valuationRunRepository) Update(ctx context.Context, run *domain.ValuationRun) error {
	return r.db.WithContext(ctx).Save(run).Error
}

// GetByRunID 根据业务 ID 获取估值任务
func (r *valuationRunRepository) GetByRunID(ctx context.Context, runID string) (*domain.ValuationRun, error) {
	var run domain.ValuationRun
	if err := r.db.WithContext(ctx).Where("run_id = ?", runID).First(&run).Error; err != nil {
		return nil, fmt.Errorf("valuation run not found: %w", err)
	}
	return &run, nil
}

// ListByPortfolio 按组合分页获取估值任务，最新在前
func (r *valuationRunRepository) ListByPortfolio(ctx context.Context, portfolio string, offset, limit int) ([]*domain.ValuationRun, int64, error) {
	var total int64
	query := r.db.WithContext(ctx).Model(&domain.ValuationRun{}).Where("portfolio = ?", portfolio)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var runs []*domain.ValuationRun
	if limit > 0 {
		query = query.Offset(offset).Limit(limit)
	}
	if err := query.Order("id DESC").Find(&runs).Error; err != nil {
		return nil, 0, err
	}
	return runs, total, nil
}

// SaveScenarioResults 批量保存情景估值结果
func (r *valuationRunRepository) SaveScenarioResults(ctx context.Context, results []*domain.ScenarioResult) error {
	if len(results) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).CreateInBatches(results, scenarioResultBatchSize).Error
}

// ListScenarioResults 分页获取情景估值结果，limit <= 0 表示整表返回
func (r *valuationRunRepository) ListScenarioResults(ctx context.Context, runID string, offset, limit int) ([]*domain.ScenarioResult, int64, error) {
	var total int64
	query := r.db.WithContext(ctx).Model(&domain.ScenarioResult{}).Where("run_id = ?", runID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var results []*domain.ScenarioResult
	if limit > 0 {
		query = query.Offset(offset).Limit(limit)
	}
	if err := query.Order("scenario_id ASC").Find(&results).Error; err != nil {
		return nil, 0, err
	}
	return results, total, nil
}
