// Package domain 工具上下文仓储接口
package domain

import "context"

type InstrumentDefinitionRepository interface {
	Save(ctx context.Context, def *InstrumentDefinition) error
	GetByInstrumentID(ctx context.Context, instrumentID string) (*InstrumentDefinition, error)
	ListByPortfolio(ctx context.Context, portfolio string, activeOnly bool) ([]*InstrumentDefinition, error)
	ListByIDs(ctx context.Context, instrumentIDs []string) ([]*InstrumentDefinition, error)
}
