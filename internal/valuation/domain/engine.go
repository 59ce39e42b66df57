package domain

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"
)

// ValuationEngine 情景级并行的全重估引擎。
// 每个情景一行，行内逐工具定价；单元格失败被捕获记录，不中断其余单元格。
type ValuationEngine struct {
	parallelism int
}

// NewValuationEngine 构造引擎，parallelism <= 0 时取 CPU 数
func NewValuationEngine(parallelism int) *ValuationEngine {
	if parallelism <= 0 {
		parallelism = runtime.NumCPU()
	}
	return &ValuationEngine{parallelism: parallelism}
}

// Value 对 (情景 × 工具) 全量重估，返回现值矩阵。
// 空情景集或空工具集返回聚合错误。上下文取消时提前终止，
// 返回已完成部分的矩阵与一个聚合错误，未完成单元格在矩阵中标记为无效。
// 结果与并行度、调度顺序无关：单元格只写各自下标，失败列表最终按下标排序。
func (e *ValuationEngine) Value(ctx context.Context, set *ScenarioSet, instruments []Instrument, asOf float64) (*PVMatrix, error) {
	if set == nil || set.Len() == 0 {
		return nil, fmt.Errorf("%w: empty scenario set", ErrAggregation)
	}
	if len(instruments) == 0 {
		return nil, fmt.Errorf("%w: empty instrument list", ErrAggregation)
	}
	if asOf < 0 || math.IsNaN(asOf) {
		return nil, fmt.Errorf("%w: asOf must be non-negative, got %v", ErrConfiguration, asOf)
	}

	scenarios := set.Scenarios()
	values := make([][]float64, len(scenarios))
	valid := make([][]bool, len(scenarios))
	for s := range scenarios {
		values[s] = make([]float64, len(instruments))
		valid[s] = make([]bool, len(instruments))
	}

	var mu sync.Mutex
	var failures []*CellError

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.parallelism)

	for s, sc := range scenarios {
		g.Go(func() error {
			var rowFailures []*CellError
			for i, inst := range instruments {
				if err := gctx.Err(); err != nil {
					return err
				}
				pv := inst.PresentValue(sc, asOf)
				if math.IsNaN(pv) || math.IsInf(pv, 0) {
					rowFailures = append(rowFailures, &CellError{
						ScenarioID:   sc.ID(),
						InstrumentID: inst.InstrumentID(),
						Stage:        "pricing",
						Cause:        fmt.Errorf("present value is not finite: %v", pv),
					})
					continue
				}
				values[s][i] = pv
				valid[s][i] = true
			}
			if len(rowFailures) > 0 {
				mu.Lock()
				failures = append(failures, rowFailures...)
				mu.Unlock()
			}
			return nil
		})
	}

	waitErr := g.Wait()

	sort.Slice(failures, func(a, b int) bool {
		if failures[a].ScenarioID != failures[b].ScenarioID {
			return failures[a].ScenarioID < failures[b].ScenarioID
		}
		return failures[a].InstrumentID < failures[b].InstrumentID
	})

	matrix := &PVMatrix{
		scenarios:   set,
		instruments: instruments,
		values:      values,
		valid:       valid,
		failures:    failures,
	}

	if waitErr != nil {
		// 未完成 = 无效单元格中未被记录为定价失败的部分
		invalid := 0
		for s := range valid {
			for i := range valid[s] {
				if !valid[s][i] {
					invalid++
				}
			}
		}
		incomplete := invalid - len(failures)
		return matrix, fmt.Errorf("%w: valuation aborted (%v), %d cells incomplete", ErrAggregation, waitErr, incomplete)
	}
	return matrix, nil
}
