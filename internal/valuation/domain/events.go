package domain

import "time"

type DomainEvent interface {
	EventName() string
	OccurredAt() time.Time
}

// ValuationRunCompletedEvent 估值任务完成事件
type ValuationRunCompletedEvent struct {
	RunID        string    `json:"run_id"`
	Portfolio    string    `json:"portfolio"`
	BaselinePV   string    `json:"baseline_pv"`
	NumScenarios int       `json:"num_scenarios"`
	FailedCells  int       `json:"failed_cells"`
	Timestamp    time.Time `json:"timestamp"`
}

func (e *ValuationRunCompletedEvent) EventName() string     { return "valuation.run_completed" }
func (e *ValuationRunCompletedEvent) OccurredAt() time.Time { return e.Timestamp }

// ValuationRunFailedEvent 估值任务失败事件
type ValuationRunFailedEvent struct {
	RunID     string    `json:"run_id"`
	Portfolio string    `json:"portfolio"`
	Reason    string    `json:"reason"`
	Timestamp time.Time `json:"timestamp"`
}

func (e *ValuationRunFailedEvent) EventName() string     { return "valuation.run_failed" }
func (e *ValuationRunFailedEvent) OccurredAt() time.Time { return e.Timestamp }

// RiskThresholdBreachedEvent 风险阈值突破事件：
// 某置信度下 VaR 占基准现值比例超过告警阈值时发布
type RiskThresholdBreachedEvent struct {
	RunID      string    `json:"run_id"`
	Portfolio  string    `json:"portfolio"`
	Confidence float64   `json:"confidence"`
	VaR        string    `json:"var"`
	Ratio      float64   `json:"ratio"`
	Threshold  float64   `json:"threshold"`
	Timestamp  time.Time `json:"timestamp"`
}

func (e *RiskThresholdBreachedEvent) EventName() string     { return "valuation.risk_threshold_breached" }
func (e *RiskThresholdBreachedEvent) OccurredAt() time.Time { return e.Timestamp }
