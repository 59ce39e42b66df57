package domain

import (
	"fmt"
	"math"
	"sort"

	"github.com/montanaflynn/stats"
)

// LossPoint 单个情景的损失观测：损失 = 基准现值 - 情景现值，正值为亏损
type LossPoint struct {
	ScenarioID int
	Loss       float64
	Weight     float64
}

// RiskPoint 某一置信度下的在险价值与预期短缺
type RiskPoint struct {
	Confidence float64 `json:"confidence"`
	VaR        float64 `json:"var"`
	ES         float64 `json:"es"`
}

// LossSummary 损失分布的描述性统计
type LossSummary struct {
	Count       int     `json:"count"`
	Excluded    int     `json:"excluded"`
	Mean        float64 `json:"mean"`
	Min         float64 `json:"min"`
	Max         float64 `json:"max"`
	StdDev      float64 `json:"std_dev"`
	TotalWeight float64 `json:"total_weight"`
}

// InstrumentContribution 尾部情景下单个工具的平均损失贡献
type InstrumentContribution struct {
	InstrumentID string  `json:"instrument_id"`
	Kind         string  `json:"kind"`
	Desk         string  `json:"desk"`
	Currency     string  `json:"currency"`
	Loss         float64 `json:"loss"`
}

// LossDistribution 由现值矩阵与基准情景导出的加权损失分布。
// 行失败的情景被剔除并计数；权重按入选情景的总权重归一化，
// 因此同一分布上的全部查询自洽。构造后只读，同一实例可服务任意多次置信度查询。
type LossDistribution struct {
	matrix      *PVMatrix
	baselineID  int
	points      []LossPoint
	totalWeight float64
	excluded    int
}

// NewLossDistribution 构造损失分布。基准行必须全部有效；kinds 指定参与分布的
// 情景类别，缺省为基准外的全部类别。基准情景自身不进入分布。
func NewLossDistribution(m *PVMatrix, baselineID int, kinds ...ScenarioKind) (*LossDistribution, error) {
	if m == nil {
		return nil, fmt.Errorf("%w: nil pv matrix", ErrRiskQuery)
	}
	basePV, err := m.RowTotal(baselineID)
	if err != nil {
		return nil, fmt.Errorf("%w: baseline scenario %d unusable: %v", ErrRiskQuery, baselineID, err)
	}

	include := func(k ScenarioKind) bool { return k != ScenarioKindBase }
	if len(kinds) > 0 {
		set := make(map[ScenarioKind]struct{}, len(kinds))
		for _, k := range kinds {
			set[k] = struct{}{}
		}
		include = func(k ScenarioKind) bool {
			_, ok := set[k]
			return ok
		}
	}

	d := &LossDistribution{matrix: m, baselineID: baselineID}
	for _, sc := range m.Scenarios().Scenarios() {
		if sc.ID() == baselineID || !include(sc.Kind()) {
			continue
		}
		if !m.RowValid(sc.ID()) {
			d.excluded++
			continue
		}
		pv, err := m.RowTotal(sc.ID())
		if err != nil {
			d.excluded++
			continue
		}
		d.points = append(d.points, LossPoint{ScenarioID: sc.ID(), Loss: basePV - pv, Weight: sc.Weight()})
		d.totalWeight += sc.Weight()
	}

	if len(d.points) == 0 {
		return nil, fmt.Errorf("%w: loss distribution is empty (%d scenarios excluded)", ErrRiskQuery, d.excluded)
	}
	if d.totalWeight <= 0 {
		return nil, fmt.Errorf("%w: total scenario weight must be positive, got %v", ErrRiskQuery, d.totalWeight)
	}

	// 损失升序，同损失按情景编号升序，保证分位点结果确定
	sort.Slice(d.points, func(a, b int) bool {
		if d.points[a].Loss != d.points[b].Loss {
			return d.points[a].Loss < d.points[b].Loss
		}
		return d.points[a].ScenarioID < d.points[b].ScenarioID
	})
	return d, nil
}

// Points 返回排序后损失观测的副本
func (d *LossDistribution) Points() []LossPoint {
	out := make([]LossPoint, len(d.points))
	copy(out, d.points)
	return out
}

// Excluded 因行失败被剔除的情景数
func (d *LossDistribution) Excluded() int { return d.excluded }

// VaR 加权经验分位数：升序累计权重占比首次达到置信度的那个损失观测。
// 置信度必须落在 (0, 1) 开区间。
func (d *LossDistribution) VaR(confidence float64) (float64, error) {
	if !(confidence > 0 && confidence < 1) {
		return 0, fmt.Errorf("%w: confidence must be in (0, 1), got %v", ErrRiskQuery, confidence)
	}
	cum := 0.0
	for _, p := range d.points {
		cum += p.Weight
		if cum/d.totalWeight >= confidence {
			return p.Loss, nil
		}
	}
	return d.points[len(d.points)-1].Loss, nil
}

// ES 预期短缺：严格超过 VaR 的损失的加权均值；尾部为空时退化为 VaR。
func (d *LossDistribution) ES(confidence float64) (float64, error) {
	v, err := d.VaR(confidence)
	if err != nil {
		return 0, err
	}
	var sum, w float64
	for _, p := range d.points {
		if p.Loss > v {
			sum += p.Loss * p.Weight
			w += p.Weight
		}
	}
	if w == 0 {
		return v, nil
	}
	return sum / w, nil
}

// Profile 在同一分布实例上计算多个置信度的 VaR/ES，置信度保持入参顺序
func (d *LossDistribution) Profile(confidences []float64) ([]RiskPoint, error) {
	if len(confidences) == 0 {
		return nil, fmt.Errorf("%w: at least one confidence level is required", ErrRiskQuery)
	}
	out := make([]RiskPoint, 0, len(confidences))
	for _, c := range confidences {
		v, err := d.VaR(c)
		if err != nil {
			return nil, err
		}
		es, err := d.ES(c)
		if err != nil {
			return nil, err
		}
		out = append(out, RiskPoint{Confidence: c, VaR: v, ES: es})
	}
	return out, nil
}

// Summary 损失分布的描述性统计（未加权）
func (d *LossDistribution) Summary() (LossSummary, error) {
	losses := make([]float64, len(d.points))
	for i, p := range d.points {
		losses[i] = p.Loss
	}
	mean, err := stats.Mean(losses)
	if err != nil {
		return LossSummary{}, fmt.Errorf("%w: %v", ErrRiskQuery, err)
	}
	lo, err := stats.Min(losses)
	if err != nil {
		return LossSummary{}, fmt.Errorf("%w: %v", ErrRiskQuery, err)
	}
	hi, err := stats.Max(losses)
	if err != nil {
		return LossSummary{}, fmt.Errorf("%w: %v", ErrRiskQuery, err)
	}
	sd, err := stats.StandardDeviation(losses)
	if err != nil {
		return LossSummary{}, fmt.Errorf("%w: %v", ErrRiskQuery, err)
	}
	return LossSummary{
		Count:       len(d.points),
		Excluded:    d.excluded,
		Mean:        mean,
		Min:         lo,
		Max:         hi,
		StdDev:      sd,
		TotalWeight: d.totalWeight,
	}, nil
}

// tail 返回构成尾部的损失观测：严格超过 VaR 的观测；尾部为空时
// 退化为恰好落在 VaR 上的观测。
func (d *LossDistribution) tail(confidence float64) ([]LossPoint, error) {
	v, err := d.VaR(confidence)
	if err != nil {
		return nil, err
	}
	var tail []LossPoint
	for _, p := range d.points {
		if p.Loss > v {
			tail = append(tail, p)
		}
	}
	if len(tail) == 0 {
		for _, p := range d.points {
			if p.Loss == v {
				tail = append(tail, p)
			}
		}
	}
	return tail, nil
}

// TailContributions 尾部情景下各工具的加权平均损失贡献，降序。
// 各工具贡献之和等于该置信度的 ES（行和可按工具分解）。
func (d *LossDistribution) TailContributions(confidence float64) ([]InstrumentContribution, error) {
	tail, err := d.tail(confidence)
	if err != nil {
		return nil, err
	}

	instruments := d.matrix.Instruments()
	contrib := make([]float64, len(instruments))
	var totalW float64
	for _, p := range tail {
		totalW += p.Weight
	}
	for _, p := range tail {
		for i := range instruments {
			base, _ := d.matrix.Value(d.baselineID, i)
			scen, _ := d.matrix.Value(p.ScenarioID, i)
			contrib[i] += (base - scen) * p.Weight / totalW
		}
	}

	out := make([]InstrumentContribution, len(instruments))
	for i, inst := range instruments {
		out[i] = InstrumentContribution{
			InstrumentID: inst.InstrumentID(),
			Kind:         inst.Kind(),
			Desk:         inst.Desk(),
			Currency:     inst.Currency(),
			Loss:         contrib[i],
		}
	}
	sort.Slice(out, func(a, b int) bool {
		if out[a].Loss != out[b].Loss {
			return out[a].Loss > out[b].Loss
		}
		return out[a].InstrumentID < out[b].InstrumentID
	})
	return out, nil
}

// GroupedTailContributions 按维度汇总的尾部损失贡献，各组之和仍等于 ES
func (d *LossDistribution) GroupedTailContributions(confidence float64, by GroupBy) (map[string]float64, error) {
	perInstrument, err := d.TailContributions(confidence)
	if err != nil {
		return nil, err
	}
	totals := make(map[string]float64)
	for _, c := range perInstrument {
		switch by {
		case GroupByKind:
			totals[c.Kind] += c.Loss
		case GroupByDesk:
			totals[c.Desk] += c.Loss
		case GroupByCurrency:
			totals[c.Currency] += c.Loss
		default:
			return nil, fmt.Errorf("%w: unknown group dimension %q", ErrRiskQuery, by)
		}
	}
	return totals, nil
}

// WeightedMeanLoss 分布的加权平均损失
func (d *LossDistribution) WeightedMeanLoss() float64 {
	var sum float64
	for _, p := range d.points {
		sum += p.Loss * p.Weight
	}
	if d.totalWeight == 0 || math.IsNaN(sum) {
		return math.NaN()
	}
	return sum / d.totalWeight
}
