package domain

import (
	"fmt"
	"math"
)

// ScenarioKind 情景类别，决定贴现方式与风险查询时的权重归一化分组
type ScenarioKind string

const (
	// ScenarioKindBase 未扰动的基准情景，恒为 0 号
	ScenarioKindBase ScenarioKind = "base"
	// ScenarioKindShift 零息利率平行位移情景
	ScenarioKindShift ScenarioKind = "deterministic-shift"
	// ScenarioKindTwist 绕支点旋转情景
	ScenarioKindTwist ScenarioKind = "deterministic-twist"
	// ScenarioKindMonteCarlo Hull-White 蒙特卡洛路径情景
	ScenarioKindMonteCarlo ScenarioKind = "monte-carlo-path"
)

// Scenario 单个利率情景。确定性情景持有一条派生曲线；
// 蒙特卡洛情景持有一条已实现的短端利率路径，贴现因子沿路径用闭式零息债价格链乘得到。
// 构造后只读，可被估值引擎并发使用。
type Scenario struct {
	id     int
	name   string
	kind   ScenarioKind
	weight float64

	curve *DiscountCurve

	model *HullWhiteModel
	times []float64
	rates []float64
}

// ID 情景编号，0 号恒为基准情景
func (s *Scenario) ID() int { return s.id }

// Name 人读标签，如 parallel_shift_+50bps、hw_mc_path_0001
func (s *Scenario) Name() string { return s.name }

// Kind 情景类别
func (s *Scenario) Kind() ScenarioKind { return s.kind }

// Weight 情景权重。确定性情景为 1（仅供参考），蒙特卡洛情景为 1/N
func (s *Scenario) Weight() float64 { return s.weight }

// DiscountFactor 返回该情景下 0 到 T 的贴现因子。
// 蒙特卡洛情景沿路径网格链乘 ZCBPrice(t_i, t_{i+1}, r_i)，到最后一个不超过 T 的
// 网格点后再用 ZCBPrice(t_k, T, r_k) 补齐；sigma = 0 时链乘逐项消去，
// 逐比特还原基准曲线的贴现因子。T 超出路径视界或为负返回 NaN。
func (s *Scenario) DiscountFactor(T float64) float64 {
	if T < 0 || math.IsNaN(T) {
		return math.NaN()
	}
	if s.curve != nil {
		return s.curve.DiscountFactor(T)
	}

	horizon := s.times[len(s.times)-1]
	if T > horizon {
		return math.NaN()
	}

	df := 1.0
	k := 0
	for k+1 < len(s.times) && s.times[k+1] <= T {
		df *= s.model.ZCBPrice(s.times[k], s.times[k+1], s.rates[k])
		k++
	}
	if s.times[k] < T {
		df *= s.model.ZCBPrice(s.times[k], T, s.rates[k])
	}
	return df
}

// ForwardRate 返回该情景下 [t1, t2] 的连续复利远期利率
func (s *Scenario) ForwardRate(t1, t2 float64) float64 {
	if t1 < 0 || t2 <= t1 {
		return math.NaN()
	}
	df1 := s.DiscountFactor(t1)
	df2 := s.DiscountFactor(t2)
	return math.Log(df1/df2) / (t2 - t1)
}

// Horizon 蒙特卡洛情景返回路径视界，确定性情景返回 +Inf
func (s *Scenario) Horizon() float64 {
	if s.curve != nil {
		return math.Inf(1)
	}
	return s.times[len(s.times)-1]
}

// ScenarioSet 一次估值任务的全部情景，0 号基准在首位，编号连续
type ScenarioSet struct {
	scenarios []*Scenario
}

// Scenarios 返回内部切片（只读约定），供引擎按下标遍历
func (ss *ScenarioSet) Scenarios() []*Scenario { return ss.scenarios }

// Len 情景数量
func (ss *ScenarioSet) Len() int { return len(ss.scenarios) }

// Baseline 返回 0 号基准情景
func (ss *ScenarioSet) Baseline() *Scenario { return ss.scenarios[0] }

// ByID 按编号取情景，越界返回 nil
func (ss *ScenarioSet) ByID(id int) *Scenario {
	if id < 0 || id >= len(ss.scenarios) {
		return nil
	}
	return ss.scenarios[id]
}

// ScenarioConfig 情景生成参数。三类情景均可为空，但合计必须至少产生基准外的一个情景。
type ScenarioConfig struct {
	// ShiftsBps 平行位移幅度，基点
	ShiftsBps []float64
	// TwistsBps 旋转幅度（长端方向），基点；TwistPivot 为支点期限（年）
	TwistsBps  []float64
	TwistPivot float64
	// 蒙特卡洛参数；NumPaths = 0 表示不生成路径情景
	NumPaths int
	NumSteps int
	Horizon  float64
	Seed     uint64
}

// ScenarioGenerator 从基准曲线与模型生成编号确定的情景集：
// 0 号基准，随后按配置顺序依次为平行位移、旋转、蒙特卡洛路径。
type ScenarioGenerator struct {
	curve *DiscountCurve
	model *HullWhiteModel
}

// NewScenarioGenerator 构造生成器；蒙特卡洛配置非空时 model 不可为 nil。
func NewScenarioGenerator(curve *DiscountCurve, model *HullWhiteModel) (*ScenarioGenerator, error) {
	if curve == nil {
		return nil, fmt.Errorf("%w: scenario generator requires a base curve", ErrConfiguration)
	}
	return &ScenarioGenerator{curve: curve, model: model}, nil
}

// Generate 生成情景集。同一配置两次调用产生完全相同的集合（编号、名称、路径）。
func (g *ScenarioGenerator) Generate(cfg ScenarioConfig) (*ScenarioSet, error) {
	scenarios := []*Scenario{{
		id:     0,
		name:   "base",
		kind:   ScenarioKindBase,
		weight: 1,
		curve:  g.curve,
	}}

	for _, bps := range cfg.ShiftsBps {
		shifted, err := g.curve.ParallelShift(bps / 10000)
		if err != nil {
			return nil, fmt.Errorf("parallel shift %+gbps: %w", bps, err)
		}
		scenarios = append(scenarios, &Scenario{
			id:     len(scenarios),
			name:   fmt.Sprintf("parallel_shift_%+gbps", bps),
			kind:   ScenarioKindShift,
			weight: 1,
			curve:  shifted,
		})
	}

	for _, bps := range cfg.TwistsBps {
		twisted, err := g.curve.Twist(cfg.TwistPivot, bps/10000)
		if err != nil {
			return nil, fmt.Errorf("twist %+gbps: %w", bps, err)
		}
		scenarios = append(scenarios, &Scenario{
			id:     len(scenarios),
			name:   fmt.Sprintf("twist_%+gbps_pivot_%gy", bps, cfg.TwistPivot),
			kind:   ScenarioKindTwist,
			weight: 1,
			curve:  twisted,
		})
	}

	if cfg.NumPaths > 0 {
		if g.model == nil {
			return nil, fmt.Errorf("%w: monte carlo scenarios require a hull-white model", ErrConfiguration)
		}
		paths, err := g.model.SimulatePaths(cfg.NumPaths, cfg.NumSteps, cfg.Horizon, cfg.Seed)
		if err != nil {
			return nil, err
		}
		w := 1 / float64(cfg.NumPaths)
		for p, rates := range paths.Rates {
			scenarios = append(scenarios, &Scenario{
				id:     len(scenarios),
				name:   fmt.Sprintf("hw_mc_path_%04d", p),
				kind:   ScenarioKindMonteCarlo,
				weight: w,
				model:  g.model,
				times:  paths.Times,
				rates:  rates,
			})
		}
	}

	if len(scenarios) == 1 {
		return nil, fmt.Errorf("%w: scenario config produces no scenarios beyond the base", ErrConfiguration)
	}
	return &ScenarioSet{scenarios: scenarios}, nil
}
