package application

import (
	"time"

	"github.com/wyfcoding/almrisk/internal/valuation/domain"
)

// RunDTO 估值任务 DTO
type RunDTO struct {
	RunID          string    `json:"run_id"`
	Portfolio      string    `json:"portfolio"`
	Status         string    `json:"status"`
	AsOfYears      float64   `json:"as_of_years"`
	BaselinePV     string    `json:"baseline_pv"`
	NumScenarios   int       `json:"num_scenarios"`
	NumInstruments int       `json:"num_instruments"`
	FailedCells    int       `json:"failed_cells"`
	RiskProfile    string    `json:"risk_profile,omitempty"`
	FailureReason  string    `json:"failure_reason,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// ScenarioResultDTO 单情景估值结果 DTO
type ScenarioResultDTO struct {
	ScenarioID   int     `json:"scenario_id"`
	ScenarioName string  `json:"scenario_name"`
	Kind         string  `json:"kind"`
	Weight       float64 `json:"weight"`
	PortfolioPV  string  `json:"portfolio_pv"`
	Loss         string  `json:"loss"`
	Valid        bool    `json:"valid"`
}

// RunResultDTO 任务提交的同步返回
type RunResultDTO struct {
	RunID       string             `json:"run_id"`
	Status      string             `json:"status"`
	BaselinePV  string             `json:"baseline_pv"`
	RiskProfile []domain.RiskPoint `json:"risk_profile"`
	Summary     domain.LossSummary `json:"summary"`
	FailedCells []string           `json:"failed_cells,omitempty"`
}

// RiskProfileDTO 按需风险查询结果
type RiskProfileDTO struct {
	RunID       string             `json:"run_id"`
	Kinds       []string           `json:"kinds,omitempty"`
	Profile     []domain.RiskPoint `json:"profile"`
	Summary     domain.LossSummary `json:"summary"`
	BaselinePV  string             `json:"baseline_pv"`
	ComputedAt  time.Time          `json:"computed_at"`
}

// ContributionsDTO 尾部贡献查询结果
type ContributionsDTO struct {
	RunID         string                          `json:"run_id"`
	Confidence    float64                         `json:"confidence"`
	PerInstrument []domain.InstrumentContribution `json:"per_instrument"`
	Grouped       map[string]float64              `json:"grouped,omitempty"`
	GroupBy       string                          `json:"group_by,omitempty"`
}

func toRunDTO(run *domain.ValuationRun) *RunDTO {
	return &RunDTO{
		RunID:          run.RunID,
		Portfolio:      run.Portfolio,
		Status:         string(run.Status),
		AsOfYears:      run.AsOfYears,
		BaselinePV:     run.BaselinePV.String(),
		NumScenarios:   run.NumScenarios,
		NumInstruments: run.NumInstruments,
		FailedCells:    run.FailedCells,
		RiskProfile:    run.RiskProfileJSON,
		FailureReason:  run.FailureReason,
		CreatedAt:      run.CreatedAt,
	}
}

func toScenarioResultDTO(r *domain.ScenarioResult) *ScenarioResultDTO {
	return &ScenarioResultDTO{
		ScenarioID:   r.ScenarioID,
		ScenarioName: r.ScenarioName,
		Kind:         r.Kind,
		Weight:       r.Weight,
		PortfolioPV:  r.PortfolioPV.String(),
		Loss:         r.Loss.String(),
		Valid:        r.Valid,
	}
}
