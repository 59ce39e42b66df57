package application

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"

	"github.com/shopspring/decimal"
	"github.com/wyfcoding/almrisk/internal/valuation/domain"
	"github.com/wyfcoding/pkg/idgen"
	"github.com/wyfcoding/pkg/messagequeue"
)

// CommandService 估值命令服务
type CommandService struct {
	runRepo          domain.ValuationRunRepository
	instrumentSource InstrumentSource
	engine           *domain.ValuationEngine
	eventPublisher   messagequeue.EventPublisher
	varAlertRatio    float64
	logger           *slog.Logger
}

// NewCommandService 创建命令服务。varAlertRatio 为 VaR 占基准现值比例的告警阈值，
// 非正值表示不启用告警。
func NewCommandService(
	runRepo domain.ValuationRunRepository,
	instrumentSource InstrumentSource,
	engine *domain.ValuationEngine,
	eventPublisher messagequeue.EventPublisher,
	varAlertRatio float64,
	logger *slog.Logger,
) *CommandService {
	return &CommandService{
		runRepo:          runRepo,
		instrumentSource: instrumentSource,
		engine:           engine,
		eventPublisher:   eventPublisher,
		varAlertRatio:    varAlertRatio,
		logger:           logger,
	}
}

// RunValuationCommand 提交估值任务命令
type RunValuationCommand struct {
	Portfolio     string
	InstrumentIDs []string
	AsOfYears     float64

	CurveTenors        []float64
	CurveZeroRates     []float64
	CurveInterpolation string

	MeanReversion float64
	Sigma         float64

	ShiftsBps       []float64
	TwistsBps       []float64
	TwistPivotYears float64
	NumPaths        int
	NumSteps        int
	HorizonYears    float64
	Seed            uint64

	Confidences []float64
}

// RunValuation 同步执行一次估值任务：
// 固化任务定义快照、全量重估、计算默认风险概览、落库并发布领域事件。
func (s *CommandService) RunValuation(ctx context.Context, cmd RunValuationCommand) (*RunResultDTO, error) {
	specs, err := s.instrumentSource.FetchSpecs(ctx, cmd.Portfolio, cmd.InstrumentIDs)
	if err != nil {
		return nil, fmt.Errorf("fetch instrument specs: %w", err)
	}

	cfg := &RunConfig{Portfolio: cmd.Portfolio, AsOfYears: cmd.AsOfYears, Confidences: cmd.Confidences, Instruments: specs}
	cfg.Curve.Tenors = cmd.CurveTenors
	cfg.Curve.ZeroRates = cmd.CurveZeroRates
	cfg.Curve.Interpolation = cmd.CurveInterpolation
	cfg.Model.MeanReversion = cmd.MeanReversion
	cfg.Model.Sigma = cmd.Sigma
	cfg.Scenarios.ShiftsBps = cmd.ShiftsBps
	cfg.Scenarios.TwistsBps = cmd.TwistsBps
	cfg.Scenarios.TwistPivotYears = cmd.TwistPivotYears
	cfg.Scenarios.NumPaths = cmd.NumPaths
	cfg.Scenarios.NumSteps = cmd.NumSteps
	cfg.Scenarios.HorizonYears = cmd.HorizonYears
	cfg.Scenarios.Seed = cmd.Seed

	cfgJSON, err := json.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("marshal run config: %w", err)
	}

	runID := fmt.Sprintf("VR-%d", idgen.GenID())
	run := domain.NewValuationRun(runID, cmd.Portfolio, cmd.AsOfYears, string(cfgJSON))
	if err := s.runRepo.Save(ctx, run); err != nil {
		return nil, fmt.Errorf("save valuation run: %w", err)
	}

	result, runErr := s.execute(ctx, run, cfg)
	if runErr != nil {
		run.Fail(runErr.Error())
		if err := s.runRepo.Update(ctx, run); err != nil {
			s.logger.ErrorContext(ctx, "failed to persist failed run", "run_id", runID, "error", err)
		}
		s.publishEvents(ctx, run.GetDomainEvents())
		run.ClearDomainEvents()
		return nil, runErr
	}

	if err := s.runRepo.Update(ctx, run); err != nil {
		return nil, fmt.Errorf("persist run result: %w", err)
	}
	s.publishEvents(ctx, run.GetDomainEvents())
	run.ClearDomainEvents()

	s.logger.InfoContext(ctx, "valuation run completed",
		"run_id", runID,
		"portfolio", cmd.Portfolio,
		"scenarios", run.NumScenarios,
		"instruments", run.NumInstruments,
		"failed_cells", run.FailedCells)
	return result, nil
}

// execute 运行引擎并将结果写入聚合根与情景结果表
func (s *CommandService) execute(ctx context.Context, run *domain.ValuationRun, cfg *RunConfig) (*RunResultDTO, error) {
	set, instruments, err := assembleRun(cfg)
	if err != nil {
		return nil, err
	}

	matrix, err := s.engine.Value(ctx, set, instruments, cfg.AsOfYears)
	if err != nil {
		return nil, err
	}

	baselinePV, err := matrix.RowTotal(0)
	if err != nil {
		return nil, fmt.Errorf("baseline scenario failed: %w", err)
	}

	dist, err := domain.NewLossDistribution(matrix, 0)
	if err != nil {
		return nil, err
	}
	confidences := cfg.Confidences
	if len(confidences) == 0 {
		confidences = []float64{0.95, 0.99}
	}
	profile, err := dist.Profile(confidences)
	if err != nil {
		return nil, err
	}
	summary, err := dist.Summary()
	if err != nil {
		return nil, err
	}
	profileJSON, err := json.Marshal(profile)
	if err != nil {
		return nil, fmt.Errorf("marshal risk profile: %w", err)
	}

	results := make([]*domain.ScenarioResult, 0, set.Len())
	for _, sc := range set.Scenarios() {
		r := &domain.ScenarioResult{
			RunID:        run.RunID,
			ScenarioID:   sc.ID(),
			ScenarioName: sc.Name(),
			Kind:         string(sc.Kind()),
			Weight:       sc.Weight(),
			Valid:        matrix.RowValid(sc.ID()),
		}
		if r.Valid {
			pv, _ := matrix.RowTotal(sc.ID())
			r.PortfolioPV = decimal.NewFromFloat(pv)
			r.Loss = decimal.NewFromFloat(baselinePV - pv)
		}
		results = append(results, r)
	}
	if err := s.runRepo.SaveScenarioResults(ctx, results); err != nil {
		return nil, fmt.Errorf("save scenario results: %w", err)
	}

	basePV := decimal.NewFromFloat(baselinePV)
	run.Complete(basePV, set.Len(), len(instruments), len(matrix.Failures()), string(profileJSON))

	s.checkThresholds(run, baselinePV, profile)

	failedCells := make([]string, 0, len(matrix.Failures()))
	for _, f := range matrix.Failures() {
		failedCells = append(failedCells, f.Error())
	}

	return &RunResultDTO{
		RunID:       run.RunID,
		Status:      string(run.Status),
		BaselinePV:  basePV.String(),
		RiskProfile: profile,
		Summary:     summary,
		FailedCells: failedCells,
	}, nil
}

// checkThresholds 检查各置信度 VaR 是否突破告警阈值
func (s *CommandService) checkThresholds(run *domain.ValuationRun, baselinePV float64, profile []domain.RiskPoint) {
	if s.varAlertRatio <= 0 || baselinePV == 0 {
		return
	}
	for _, p := range profile {
		ratio := p.VaR / math.Abs(baselinePV)
		if ratio > s.varAlertRatio {
			run.RecordThresholdBreach(p.Confidence, decimal.NewFromFloat(p.VaR), ratio, s.varAlertRatio)
		}
	}
}

// publishEvents 发布领域事件
func (s *CommandService) publishEvents(ctx context.Context, events []domain.DomainEvent) {
	for _, event := range events {
		if err := s.eventPublisher.Publish(ctx, event.EventName(), "", event); err != nil {
			s.logger.ErrorContext(ctx, "failed to publish event",
				"event", event.EventName(),
				"error", err)
		}
	}
}
