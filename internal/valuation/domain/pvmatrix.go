package domain

import (
	"fmt"
	"sort"
)

// GroupBy 聚合维度
type GroupBy string

const (
	GroupByKind     GroupBy = "kind"
	GroupByDesk     GroupBy = "desk"
	GroupByCurrency GroupBy = "currency"
)

func groupKey(inst Instrument, by GroupBy) (string, error) {
	switch by {
	case GroupByKind:
		return inst.Kind(), nil
	case GroupByDesk:
		return inst.Desk(), nil
	case GroupByCurrency:
		return inst.Currency(), nil
	default:
		return "", fmt.Errorf("%w: unknown group dimension %q", ErrRiskQuery, by)
	}
}

// PVMatrix 全重估结果矩阵：行对应情景（按编号），列对应工具（按入参顺序）。
// 单元格失败不污染同行其他单元格；任何依赖失败单元格的聚合显式报错而非给出部分和。
// 构造完成后只读。
type PVMatrix struct {
	scenarios   *ScenarioSet
	instruments []Instrument
	values      [][]float64
	valid       [][]bool
	failures    []*CellError
}

// NumScenarios 行数
func (m *PVMatrix) NumScenarios() int { return len(m.values) }

// NumInstruments 列数
func (m *PVMatrix) NumInstruments() int { return len(m.instruments) }

// Scenarios 情景集
func (m *PVMatrix) Scenarios() *ScenarioSet { return m.scenarios }

// Instruments 工具列表（只读约定）
func (m *PVMatrix) Instruments() []Instrument { return m.instruments }

// Value 返回 (情景, 工具) 单元格的现值与有效标志
func (m *PVMatrix) Value(scenarioID, instrumentIdx int) (float64, bool) {
	if scenarioID < 0 || scenarioID >= len(m.values) || instrumentIdx < 0 || instrumentIdx >= len(m.instruments) {
		return 0, false
	}
	return m.values[scenarioID][instrumentIdx], m.valid[scenarioID][instrumentIdx]
}

// RowValid 该情景行是否全部有效
func (m *PVMatrix) RowValid(scenarioID int) bool {
	if scenarioID < 0 || scenarioID >= len(m.valid) {
		return false
	}
	for _, ok := range m.valid[scenarioID] {
		if !ok {
			return false
		}
	}
	return true
}

// RowTotal 该情景下的组合总现值。行内存在失败单元格时返回聚合错误，不给出部分和。
func (m *PVMatrix) RowTotal(scenarioID int) (float64, error) {
	if scenarioID < 0 || scenarioID >= len(m.values) {
		return 0, fmt.Errorf("%w: scenario %d out of range", ErrAggregation, scenarioID)
	}
	total := 0.0
	for i, v := range m.values[scenarioID] {
		if !m.valid[scenarioID][i] {
			return 0, fmt.Errorf("%w: scenario %d has failed cells, portfolio total unavailable", ErrAggregation, scenarioID)
		}
		total += v
	}
	return total, nil
}

// GroupTotals 该情景下按维度分组的现值小计，键升序。分组小计之和等于 RowTotal。
func (m *PVMatrix) GroupTotals(scenarioID int, by GroupBy) (map[string]float64, error) {
	if scenarioID < 0 || scenarioID >= len(m.values) {
		return nil, fmt.Errorf("%w: scenario %d out of range", ErrAggregation, scenarioID)
	}
	totals := make(map[string]float64)
	for i, inst := range m.instruments {
		if !m.valid[scenarioID][i] {
			return nil, fmt.Errorf("%w: scenario %d has failed cells, group totals unavailable", ErrAggregation, scenarioID)
		}
		key, err := groupKey(inst, by)
		if err != nil {
			return nil, err
		}
		totals[key] += m.values[scenarioID][i]
	}
	return totals, nil
}

// GroupKeys 返回某维度下出现的全部分组键，升序
func (m *PVMatrix) GroupKeys(by GroupBy) ([]string, error) {
	seen := make(map[string]struct{})
	for _, inst := range m.instruments {
		key, err := groupKey(inst, by)
		if err != nil {
			return nil, err
		}
		seen[key] = struct{}{}
	}
	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

// Failures 返回全部单元格失败记录的副本，按 (情景, 工具) 顺序
func (m *PVMatrix) Failures() []*CellError {
	out := make([]*CellError, len(m.failures))
	copy(out, m.failures)
	return out
}

// Complete 矩阵是否不含失败单元格
func (m *PVMatrix) Complete() bool { return len(m.failures) == 0 }

// Each 按 (情景, 工具) 顺序只读遍历全部单元格，供导出与落库
func (m *PVMatrix) Each(fn func(scenarioID int, inst Instrument, pv float64, ok bool)) {
	for s := range m.values {
		for i, inst := range m.instruments {
			fn(s, inst, m.values[s][i], m.valid[s][i])
		}
	}
}
