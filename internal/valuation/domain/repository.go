// Package domain 估值服务仓储接口
package domain

import "context"

type ValuationRunRepository interface {
	Save(ctx context.Context, run *ValuationRun) error
	Update(ctx context.Context, run *ValuationRun) error
	GetByRunID(ctx context.Context, runID string) (*ValuationRun, error)
	ListByPortfolio(ctx context.Context, portfolio string, offset, limit int) ([]*ValuationRun, int64, error)

	SaveScenarioResults(ctx context.Context, results []*ScenarioResult) error
	ListScenarioResults(ctx context.Context, runID string, offset, limit int) ([]*ScenarioResult, int64, error)
}

// RunSummary 组合最新一次估值的读模型，由投影消费者写入 Redis
type RunSummary struct {
	RunID        string `json:"run_id"`
	Portfolio    string `json:"portfolio"`
	Status       string `json:"status"`
	BaselinePV   string `json:"baseline_pv"`
	NumScenarios int    `json:"num_scenarios"`
	FailedCells  int    `json:"failed_cells"`
	CompletedAt  int64  `json:"completed_at"`
}

type RunSummaryReadRepository interface {
	SetLatest(ctx context.Context, portfolio string, summary *RunSummary) error
	GetLatest(ctx context.Context, portfolio string) (*RunSummary, error)
}
