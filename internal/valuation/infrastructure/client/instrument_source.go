// Package client 估值上下文对外部上下文的适配器
package client

import (
	"context"
	"fmt"

	instrumentapp "github.com/wyfcoding/almrisk/internal/instrument/application"
	"github.com/wyfcoding/almrisk/internal/instrument/domain"
	"github.com/wyfcoding/almrisk/internal/valuation/application"
)

// InstrumentServiceSource 经工具上下文应用服务实现的工具定义来源。
// 两个上下文同进程部署时直接走进程内调用，拆分部署时替换为 gRPC 客户端适配器。
type InstrumentServiceSource struct {
	service *instrumentapp.Service
}

// NewInstrumentServiceSource 创建适配器
func NewInstrumentServiceSource(service *instrumentapp.Service) *InstrumentServiceSource {
	return &InstrumentServiceSource{service: service}
}

// FetchSpecs 获取工具定义快照。instrumentIDs 为空时取组合下全部在用工具；
// 指定 ID 集合时逐一校验存在且在用。
func (s *InstrumentServiceSource) FetchSpecs(ctx context.Context, portfolio string, instrumentIDs []string) ([]application.InstrumentSpec, error) {
	var (
		defs []*domain.InstrumentDefinition
		err  error
	)
	if len(instrumentIDs) == 0 {
		defs, err = s.service.ListPortfolio(ctx, portfolio, true)
	} else {
		defs, err = s.service.ListByIDs(ctx, instrumentIDs)
	}
	if err != nil {
		return nil, err
	}

	if len(instrumentIDs) > 0 && len(defs) != len(instrumentIDs) {
		return nil, fmt.Errorf("instrument specs incomplete: requested %d, found %d", len(instrumentIDs), len(defs))
	}

	specs := make([]application.InstrumentSpec, 0, len(defs))
	for _, def := range defs {
		if def.Status != domain.DefinitionStatusActive {
			return nil, fmt.Errorf("instrument %s is retired", def.InstrumentID)
		}
		notional, _ := def.Notional.Float64()
		specs = append(specs, application.InstrumentSpec{
			InstrumentID: def.InstrumentID,
			Kind:         def.Kind,
			Desk:         def.Desk,
			Currency:     def.Currency,
			Notional:     notional,
			ParamsJSON:   def.ParamsJSON,
		})
	}
	return specs, nil
}
