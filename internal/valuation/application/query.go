package application

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"time"

	"github.com/allegro/bigcache/v3"
	"github.com/wyfcoding/almrisk/internal/valuation/domain"
)

// QueryService 估值查询服务。
// 风险查询不依赖落库的概览：从任务定义快照确定性复算损失分布，
// 支持任意置信度、任意情景类别子集；复算结果按查询键在本地缓存。
type QueryService struct {
	runRepo  domain.ValuationRunRepository
	readRepo domain.RunSummaryReadRepository
	cache    *bigcache.BigCache
	logger   *slog.Logger
}

// NewQueryService 创建查询服务，cache 可为 nil（不启用本地缓存）
func NewQueryService(
	runRepo domain.ValuationRunRepository,
	readRepo domain.RunSummaryReadRepository,
	cache *bigcache.BigCache,
	logger *slog.Logger,
) *QueryService {
	return &QueryService{
		runRepo:  runRepo,
		readRepo: readRepo,
		cache:    cache,
		logger:   logger,
	}
}

// GetRun 获取估值任务
func (s *QueryService) GetRun(ctx context.Context, runID string) (*RunDTO, error) {
	run, err := s.runRepo.GetByRunID(ctx, runID)
	if err != nil {
		return nil, err
	}
	return toRunDTO(run), nil
}

// ListRuns 分页获取组合的估值任务
func (s *QueryService) ListRuns(ctx context.Context, portfolio string, offset, limit int) ([]*RunDTO, int64, error) {
	runs, total, err := s.runRepo.ListByPortfolio(ctx, portfolio, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	dtos := make([]*RunDTO, 0, len(runs))
	for _, run := range runs {
		dtos = append(dtos, toRunDTO(run))
	}
	return dtos, total, nil
}

// ListScenarioResults 分页获取任务的情景估值分布
func (s *QueryService) ListScenarioResults(ctx context.Context, runID string, offset, limit int) ([]*ScenarioResultDTO, int64, error) {
	results, total, err := s.runRepo.ListScenarioResults(ctx, runID, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	dtos := make([]*ScenarioResultDTO, 0, len(results))
	for _, r := range results {
		dtos = append(dtos, toScenarioResultDTO(r))
	}
	return dtos, total, nil
}

// GetLatestSummary 获取组合最新一次完成任务的读模型
func (s *QueryService) GetLatestSummary(ctx context.Context, portfolio string) (*domain.RunSummary, error) {
	return s.readRepo.GetLatest(ctx, portfolio)
}

// RiskProfile 按需风险查询：给定置信度与情景类别子集复算 VaR/ES
func (s *QueryService) RiskProfile(ctx context.Context, runID string, confidences []float64, kinds []string) (*RiskProfileDTO, error) {
	key := riskCacheKey("profile", runID, confidences, kinds, "")
	if cached, ok := s.fromCache(key); ok {
		var dto RiskProfileDTO
		if err := json.Unmarshal(cached, &dto); err == nil {
			return &dto, nil
		}
	}

	run, dist, err := s.rebuildDistribution(ctx, runID, kinds)
	if err != nil {
		return nil, err
	}
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

	dto := &RiskProfileDTO{
		RunID:      runID,
		Kinds:      kinds,
		Profile:    profile,
		Summary:    summary,
		BaselinePV: run.BaselinePV.String(),
		ComputedAt: time.Now(),
	}
	s.toCache(key, dto)
	return dto, nil
}

// TailContributions 尾部贡献查询，groupBy 为空时仅返回逐工具明细
func (s *QueryService) TailContributions(ctx context.Context, runID string, confidence float64, groupBy string) (*ContributionsDTO, error) {
	key := riskCacheKey("contrib", runID, []float64{confidence}, nil, groupBy)
	if cached, ok := s.fromCache(key); ok {
		var dto ContributionsDTO
		if err := json.Unmarshal(cached, &dto); err == nil {
			return &dto, nil
		}
	}

	_, dist, err := s.rebuildDistribution(ctx, runID, nil)
	if err != nil {
		return nil, err
	}
	perInstrument, err := dist.TailContributions(confidence)
	if err != nil {
		return nil, err
	}
	dto := &ContributionsDTO{
		RunID:         runID,
		Confidence:    confidence,
		PerInstrument: perInstrument,
		GroupBy:       groupBy,
	}
	if groupBy != "" {
		grouped, err := dist.GroupedTailContributions(confidence, domain.GroupBy(groupBy))
		if err != nil {
			return nil, err
		}
		dto.Grouped = grouped
	}
	s.toCache(key, dto)
	return dto, nil
}

// ExportScenarioCSV 导出任务的情景估值分布
func (s *QueryService) ExportScenarioCSV(ctx context.Context, runID string) ([]byte, error) {
	// 一次估值的情景数有限，整表导出
	results, _, err := s.runRepo.ListScenarioResults(ctx, runID, 0, 0)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{"scenario_id", "scenario_name", "kind", "weight", "portfolio_pv", "loss", "valid"}); err != nil {
		return nil, err
	}
	for _, r := range results {
		record := []string{
			strconv.Itoa(r.ScenarioID),
			r.ScenarioName,
			r.Kind,
			strconv.FormatFloat(r.Weight, 'g', -1, 64),
			r.PortfolioPV.String(),
			r.Loss.String(),
			strconv.FormatBool(r.Valid),
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// rebuildDistribution 从任务定义快照复算损失分布
func (s *QueryService) rebuildDistribution(ctx context.Context, runID string, kinds []string) (*domain.ValuationRun, *domain.LossDistribution, error) {
	run, err := s.runRepo.GetByRunID(ctx, runID)
	if err != nil {
		return nil, nil, err
	}
	if run.Status != domain.RunStatusCompleted {
		return nil, nil, fmt.Errorf("%w: run %s is %s, risk queries require a completed run", domain.ErrRiskQuery, runID, run.Status)
	}

	var cfg RunConfig
	if err := json.Unmarshal([]byte(run.ConfigJSON), &cfg); err != nil {
		return nil, nil, fmt.Errorf("unmarshal run config: %w", err)
	}
	set, instruments, err := assembleRun(&cfg)
	if err != nil {
		return nil, nil, err
	}
	matrix, err := domain.NewValuationEngine(0).Value(ctx, set, instruments, cfg.AsOfYears)
	if err != nil {
		return nil, nil, err
	}

	scenarioKinds := make([]domain.ScenarioKind, 0, len(kinds))
	for _, k := range kinds {
		scenarioKinds = append(scenarioKinds, domain.ScenarioKind(k))
	}
	dist, err := domain.NewLossDistribution(matrix, 0, scenarioKinds...)
	if err != nil {
		return nil, nil, err
	}
	return run, dist, nil
}

func riskCacheKey(prefix, runID string, confidences []float64, kinds []string, groupBy string) string {
	sorted := append([]string(nil), kinds...)
	sort.Strings(sorted)
	return fmt.Sprintf("%s:%s:%v:%v:%s", prefix, runID, confidences, sorted, groupBy)
}

func (s *QueryService) fromCache(key string) ([]byte, bool) {
	if s.cache == nil {
		return nil, false
	}
	data, err := s.cache.Get(key)
	if err != nil {
		return nil, false
	}
	return data, true
}

func (s *QueryService) toCache(key string, v any) {
	if s.cache == nil {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := s.cache.Set(key, data); err != nil {
		s.logger.Warn("failed to cache risk query result", "key", key, "error", err)
	}
}
