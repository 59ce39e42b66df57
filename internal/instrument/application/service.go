// Package application 工具上下文应用层
package application

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"
	"github.com/wyfcoding/almrisk/internal/instrument/domain"
	"github.com/wyfcoding/pkg/idgen"
	"github.com/wyfcoding/pkg/messagequeue"
)

// Service 工具定义的命令与查询服务
type Service struct {
	repo           domain.InstrumentDefinitionRepository
	eventPublisher messagequeue.EventPublisher
	logger         *slog.Logger
}

// NewService 创建工具服务
func NewService(
	repo domain.InstrumentDefinitionRepository,
	eventPublisher messagequeue.EventPublisher,
	logger *slog.Logger,
) *Service {
	return &Service{
		repo:           repo,
		eventPublisher: eventPublisher,
		logger:         logger,
	}
}

// RegisterInstrumentCommand 注册工具命令
type RegisterInstrumentCommand struct {
	Portfolio  string
	Kind       string
	Desk       string
	Currency   string
	Notional   decimal.Decimal
	ParamsJSON string
}

// RegisterInstrument 注册工具定义
func (s *Service) RegisterInstrument(ctx context.Context, cmd RegisterInstrumentCommand) (string, error) {
	instrumentID := fmt.Sprintf("INST-%d", idgen.GenID())

	def, err := domain.NewInstrumentDefinition(
		instrumentID, cmd.Portfolio, cmd.Kind, cmd.Desk, cmd.Currency,
		cmd.Notional, cmd.ParamsJSON,
	)
	if err != nil {
		return "", err
	}
	if err := s.repo.Save(ctx, def); err != nil {
		return "", err
	}

	s.publishEvents(ctx, def.GetDomainEvents())
	def.ClearDomainEvents()

	s.logger.InfoContext(ctx, "instrument registered",
		"instrument_id", instrumentID, "portfolio", cmd.Portfolio, "kind", cmd.Kind)
	return instrumentID, nil
}

// UpdateInstrument 更新工具参数
func (s *Service) UpdateInstrument(ctx context.Context, instrumentID string, notional decimal.Decimal, paramsJSON string) error {
	def, err := s.repo.GetByInstrumentID(ctx, instrumentID)
	if err != nil {
		return err
	}
	if err := def.UpdateParams(notional, paramsJSON); err != nil {
		return err
	}
	if err := s.repo.Save(ctx, def); err != nil {
		return err
	}

	s.publishEvents(ctx, def.GetDomainEvents())
	def.ClearDomainEvents()
	return nil
}

// RetireInstrument 下线工具
func (s *Service) RetireInstrument(ctx context.Context, instrumentID string) error {
	def, err := s.repo.GetByInstrumentID(ctx, instrumentID)
	if err != nil {
		return err
	}
	if err := def.Retire(); err != nil {
		return err
	}
	if err := s.repo.Save(ctx, def); err != nil {
		return err
	}

	s.publishEvents(ctx, def.GetDomainEvents())
	def.ClearDomainEvents()

	s.logger.InfoContext(ctx, "instrument retired", "instrument_id", instrumentID)
	return nil
}

// GetInstrument 获取工具定义
func (s *Service) GetInstrument(ctx context.Context, instrumentID string) (*domain.InstrumentDefinition, error) {
	return s.repo.GetByInstrumentID(ctx, instrumentID)
}

// ListPortfolio 获取组合下的工具定义
func (s *Service) ListPortfolio(ctx context.Context, portfolio string, activeOnly bool) ([]*domain.InstrumentDefinition, error) {
	return s.repo.ListByPortfolio(ctx, portfolio, activeOnly)
}

// ListByIDs 按 ID 集合获取工具定义
func (s *Service) ListByIDs(ctx context.Context, instrumentIDs []string) ([]*domain.InstrumentDefinition, error) {
	return s.repo.ListByIDs(ctx, instrumentIDs)
}

// publishEvents 发布领域事件
func (s *Service) publishEvents(ctx context.Context, events []domain.DomainEvent) {
	for _, event := range events {
		if err := s.eventPublisher.Publish(ctx, event.EventName(), "", event); err != nil {
			s.logger.ErrorContext(ctx, "failed to publish event",
				"event", event.EventName(),
				"error", err)
		}
	}
}
