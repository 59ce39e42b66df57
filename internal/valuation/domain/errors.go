package domain

import (
	"errors"
	"fmt"
)

// 错误分类哨兵，调用方用 errors.Is 判定故障类别。
var (
	// ErrConfiguration 配置类错误：非法曲线节点、非法模型参数、非法路径/步数，
	// 在任何估值开始前暴露
	ErrConfiguration = errors.New("configuration error")
	// ErrSimulation 模拟类错误：路径生成或闭式定价产生非有限值，只影响单个单元格
	ErrSimulation = errors.New("simulation error")
	// ErrAggregation 聚合类错误：空情景集或空工具集，整个估值任务失败
	ErrAggregation = errors.New("aggregation error")
	// ErrRiskQuery 风险查询类错误：置信度越界或对空分布查询，只影响该次查询
	ErrRiskQuery = errors.New("risk query error")
)

// CellError 单元格级别的估值失败，定位到 (情景, 工具, 阶段)。
// 其余单元格不受影响，继续估值。
type CellError struct {
	ScenarioID   int
	InstrumentID string
	Stage        string
	Cause        error
}

func (e *CellError) Error() string {
	return fmt.Sprintf("valuation cell failed: scenario=%d instrument=%s stage=%s: %v",
		e.ScenarioID, e.InstrumentID, e.Stage, e.Cause)
}

func (e *CellError) Unwrap() error { return e.Cause }

// Is 使 errors.Is(err, ErrSimulation) 成立
func (e *CellError) Is(target error) bool { return target == ErrSimulation }
