// Package mysql 工具上下文的 MySQL 仓储层，基于 GORM。
package mysql

import (
	"context"
	"fmt"

	"github.com/wyfcoding/almrisk/internal/instrument/domain"
	"gorm.io/gorm"
)

// instrumentDefinitionRepository GORM 工具定义仓储实现
type instrumentDefinitionRepository struct {
	db *gorm.DB
}

// NewInstrumentDefinitionRepository 创建工具定义仓储
func NewInstrumentDefinitionRepository(db *gorm.DB) domain.InstrumentDefinitionRepository {
	return &instrumentDefinitionRepository{db: db}
}

// Save 保存工具定义聚合根
func (r *instrumentDefinitionRepository) Save(ctx context.Context, def *domain.InstrumentDefinition) error {
	return r.db.WithContext(ctx).Save(def).Error
}

// GetByInstrumentID 根据业务 ID 获取工具定义
func (r *instrumentDefinitionRepository) GetByInstrumentID(ctx context.Context, instrumentID string) (*domain.InstrumentDefinition, error) {
	var def domain.InstrumentDefinition
	if err := r.db.WithContext(ctx).Where("instrument_id = ?", instrumentID).First(&def).Error; err != nil {
		return nil, fmt.Errorf("instrument definition not found: %w", err)
	}
	return &def, nil
}

// ListByPortfolio 获取组合下的工具定义
func (r *instrumentDefinitionRepository) ListByPortfolio(ctx context.Context, portfolio string, activeOnly bool) ([]*domain.InstrumentDefinition, error) {
	query := r.db.WithContext(ctx).Where("portfolio = ?", portfolio)
	if activeOnly {
		query = query.Where("status = ?", domain.DefinitionStatusActive)
	}
	var defs []*domain.InstrumentDefinition
	if err := query.Order("instrument_id ASC").Find(&defs).Error; err != nil {
		return nil, err
	}
	return defs, nil
}

// ListByIDs 按 ID 集合获取工具定义
func (r *instrumentDefinitionRepository) ListByIDs(ctx context.Context, instrumentIDs []string) ([]*domain.InstrumentDefinition, error) {
	if len(instrumentIDs) == 0 {
		return nil, nil
	}
	var defs []*domain.InstrumentDefinition
	if err := r.db.WithContext(ctx).Where("instrument_id IN ?", instrumentIDs).Order("instrument_id ASC").Find(&defs).Error; err != nil {
		return nil, err
	}
	return defs, nil
}
