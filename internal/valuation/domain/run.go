package domain

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// RunStatus 估值任务状态
type RunStatus string

const (
	RunStatusPending   RunStatus = "PENDING"
	RunStatusCompleted RunStatus = "COMPLETED"
	RunStatusFailed    RunStatus = "FAILED"
)

// ValuationRun 估值任务聚合根。ConfigJSON 保存完整的任务定义快照
// （曲线节点、模型参数、情景配置、工具参数），风险查询据此确定性复算，
// 同一 RunID 任何时刻复算结果一致。
type ValuationRun struct {
	gorm.Model
	RunID     string    `gorm:"column:run_id;type:varchar(32);uniqueIndex;not null"`
	Portfolio string    `gorm:"column:portfolio;type:varchar(64);index;not null"`
	Status    RunStatus `gorm:"column:status;type:varchar(16);not null;default:'PENDING'"`
	AsOfYears float64   `gorm:"column:as_of_years;not null;default:0"`

	ConfigJSON string `gorm:"column:config_json;type:json"`

	BaselinePV     decimal.Decimal `gorm:"column:baseline_pv;type:decimal(38,10)"`
	NumScenarios   int             `gorm:"column:num_scenarios;not null;default:0"`
	NumInstruments int             `gorm:"column:num_instruments;not null;default:0"`
	FailedCells    int             `gorm:"column:failed_cells;not null;default:0"`

	// 默认置信度下的风险概览，JSON 存 []RiskPoint
	RiskProfileJSON string `gorm:"column:risk_profile_json;type:json"`
	FailureReason   string `gorm:"column:failure_reason;type:varchar(512)"`

	domainEvents []DomainEvent `gorm:"-"`
}

// TableName 表名
func (ValuationRun) TableName() string {
	return "valuation_runs"
}

// NewValuationRun 创建估值任务
func NewValuationRun(runID, portfolio string, asOfYears float64, configJSON string) *ValuationRun {
	return &ValuationRun{
		RunID:      runID,
		Portfolio:  portfolio,
		Status:     RunStatusPending,
		AsOfYears:  asOfYears,
		ConfigJSON: configJSON,
	}
}

// Complete 标记任务完成并记录结果概要
func (r *ValuationRun) Complete(baselinePV decimal.Decimal, numScenarios, numInstruments, failedCells int, riskProfileJSON string) {
	r.Status = RunStatusCompleted
	r.BaselinePV = baselinePV
	r.NumScenarios = numScenarios
	r.NumInstruments = numInstruments
	r.FailedCells = failedCells
	r.RiskProfileJSON = riskProfileJSON

	r.addEvent(&ValuationRunCompletedEvent{
		RunID:        r.RunID,
		Portfolio:    r.Portfolio,
		BaselinePV:   baselinePV.String(),
		NumScenarios: numScenarios,
		FailedCells:  failedCells,
		Timestamp:    time.Now(),
	})
}

// Fail 标记任务失败
func (r *ValuationRun) Fail(reason string) {
	r.Status = RunStatusFailed
	r.FailureReason = reason

	r.addEvent(&ValuationRunFailedEvent{
		RunID:     r.RunID,
		Portfolio: r.Portfolio,
		Reason:    reason,
		Timestamp: time.Now(),
	})
}

// RecordThresholdBreach 记录风险阈值突破事件
func (r *ValuationRun) RecordThresholdBreach(confidence float64, v decimal.Decimal, ratio, threshold float64) {
	r.addEvent(&RiskThresholdBreachedEvent{
		RunID:      r.RunID,
		Portfolio:  r.Portfolio,
		Confidence: confidence,
		VaR:        v.String(),
		Ratio:      ratio,
		Threshold:  threshold,
		Timestamp:  time.Now(),
	})
}

func (r *ValuationRun) addEvent(event DomainEvent) {
	r.domainEvents = append(r.domainEvents, event)
}

func (r *ValuationRun) GetDomainEvents() []DomainEvent {
	return r.domainEvents
}

func (r *ValuationRun) ClearDomainEvents() {
	r.domainEvents = nil
}

// ScenarioResult 单个情景的组合估值落库记录
type ScenarioResult struct {
	gorm.Model
	RunID        string          `gorm:"column:run_id;type:varchar(32);index;not null"`
	ScenarioID   int             `gorm:"column:scenario_id;not null"`
	ScenarioName string          `gorm:"column:scenario_name;type:varchar(64);not null"`
	Kind         string          `gorm:"column:kind;type:varchar(32);not null"`
	Weight       float64         `gorm:"column:weight;not null;default:0"`
	PortfolioPV  decimal.Decimal `gorm:"column:portfolio_pv;type:decimal(38,10)"`
	Loss         decimal.Decimal `gorm:"column:loss;type:decimal(38,10)"`
	Valid        bool            `gorm:"column:valid;not null;default:true"`
}

// TableName 表名
func (ScenarioResult) TableName() string {
	return "scenario_results"
}
