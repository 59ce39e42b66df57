// Package domain 估值与利率风险服务的领域层：
// 贴现曲线、Hull-White 单因子短端利率模型、情景生成、组合全重估与风险度量。
package domain

import (
	"fmt"
	"math"
)

// InterpolationPolicy 曲线节点插值方式，构造时固定，之后不可变
type InterpolationPolicy string

const (
	// InterpLogLinearDF 对贴现因子做对数线性插值（分段常数瞬时远期）
	InterpLogLinearDF InterpolationPolicy = "loglinear-df"
	// InterpLinearZero 对零息利率做线性插值
	InterpLinearZero InterpolationPolicy = "linear-zero"
)

// shortRateEps 瞬时远期利率的数值极限步长
const shortRateEps = 1e-4

// CurveNode 曲线节点：期限（年）与贴现因子
type CurveNode struct {
	Tenor float64 `json:"tenor"`
	DF    float64 `json:"df"`
}

// DiscountCurve 不可变贴现曲线。
// 节点期限严格递增，首节点固定为 (0, 1)，贴现因子严格递减且为正。
// 末节点之外按末段零息利率平推外插。
type DiscountCurve struct {
	nodes  []CurveNode
	policy InterpolationPolicy
}

// NewDiscountCurve 从 (期限, 贴现因子) 节点构造曲线。
// 节点无需包含 0 期限点，构造时自动补上 (0, 1)；若显式给出则贴现因子必须为 1。
func NewDiscountCurve(nodes []CurveNode, policy InterpolationPolicy) (*DiscountCurve, error) {
	if policy != InterpLogLinearDF && policy != InterpLinearZero {
		return nil, fmt.Errorf("%w: unknown interpolation policy %q", ErrConfiguration, policy)
	}
	if len(nodes) == 0 {
		return nil, fmt.Errorf("%w: curve requires at least one node", ErrConfiguration)
	}

	owned := make([]CurveNode, 0, len(nodes)+1)
	if nodes[0].Tenor != 0 {
		owned = append(owned, CurveNode{Tenor: 0, DF: 1})
	} else if nodes[0].DF != 1 {
		return nil, fmt.Errorf("%w: discount factor at tenor 0 must be 1, got %v", ErrConfiguration, nodes[0].DF)
	}
	owned = append(owned, nodes...)

	for i, n := range owned {
		if math.IsNaN(n.Tenor) || math.IsInf(n.Tenor, 0) || n.Tenor < 0 {
			return nil, fmt.Errorf("%w: invalid tenor %v", ErrConfiguration, n.Tenor)
		}
		if n.DF <= 0 || n.DF > 1 || math.IsNaN(n.DF) {
			return nil, fmt.Errorf("%w: discount factor must be in (0, 1], got %v at tenor %v", ErrConfiguration, n.DF, n.Tenor)
		}
		if i > 0 {
			if n.Tenor <= owned[i-1].Tenor {
				return nil, fmt.Errorf("%w: tenors must be strictly increasing, got %v after %v", ErrConfiguration, n.Tenor, owned[i-1].Tenor)
			}
			if n.DF >= owned[i-1].DF {
				return nil, fmt.Errorf("%w: discount factors must be strictly decreasing, got %v after %v", ErrConfiguration, n.DF, owned[i-1].DF)
			}
		}
	}

	return &DiscountCurve{nodes: owned, policy: policy}, nil
}

// NewDiscountCurveFromZeroRates 从连续复利零息利率构造曲线，df = exp(-r*t)。
func NewDiscountCurveFromZeroRates(tenors, zeroRates []float64, policy InterpolationPolicy) (*DiscountCurve, error) {
	if len(tenors) != len(zeroRates) {
		return nil, fmt.Errorf("%w: tenors and zero rates must have equal length, got %d and %d", ErrConfiguration, len(tenors), len(zeroRates))
	}
	nodes := make([]CurveNode, 0, len(tenors))
	for i, t := range tenors {
		if t <= 0 {
			return nil, fmt.Errorf("%w: zero rate tenors must be positive, got %v", ErrConfiguration, t)
		}
		nodes = append(nodes, CurveNode{Tenor: t, DF: math.Exp(-zeroRates[i] * t)})
	}
	return NewDiscountCurve(nodes, policy)
}

// Nodes 返回节点副本，供导出与落库
func (c *DiscountCurve) Nodes() []CurveNode {
	out := make([]CurveNode, len(c.nodes))
	copy(out, c.nodes)
	return out
}

// Policy 返回构造时固定的插值方式
func (c *DiscountCurve) Policy() InterpolationPolicy { return c.policy }

// DiscountFactor 返回 t 时刻的贴现因子，t >= 0 时取值于 (0, 1]。
// t < 0 返回 NaN，由估值引擎捕获为单元格级模拟错误。
func (c *DiscountCurve) DiscountFactor(t float64) float64 {
	if t < 0 || math.IsNaN(t) {
		return math.NaN()
	}
	if t == 0 {
		return 1
	}

	last := c.nodes[len(c.nodes)-1]
	if t >= last.Tenor {
		// 末段零息利率平推
		z := -math.Log(last.DF) / last.Tenor
		return math.Exp(-z * t)
	}

	// 定位 t 所在分段 [i, i+1)
	i := 0
	for c.nodes[i+1].Tenor <= t {
		i++
	}
	lo, hi := c.nodes[i], c.nodes[i+1]
	w := (t - lo.Tenor) / (hi.Tenor - lo.Tenor)

	switch c.policy {
	case InterpLinearZero:
		// 首段零息利率无定义，取首个正期限节点的利率
		zLo := c.zeroRateAt(i)
		zHi := c.zeroRateAt(i + 1)
		z := zLo + w*(zHi-zLo)
		return math.Exp(-z * t)
	default: // InterpLogLinearDF
		lnDF := math.Log(lo.DF) + w*(math.Log(hi.DF)-math.Log(lo.DF))
		return math.Exp(lnDF)
	}
}

func (c *DiscountCurve) zeroRateAt(i int) float64 {
	if c.nodes[i].Tenor == 0 {
		// 0 期限极限：沿用首个正期限节点的零息利率
		n := c.nodes[1]
		return -math.Log(n.DF) / n.Tenor
	}
	n := c.nodes[i]
	return -math.Log(n.DF) / n.Tenor
}

// ForwardRate 返回 [t1, t2] 区间的连续复利远期利率。
// 要求 0 <= t1 < t2，否则返回 NaN。
func (c *DiscountCurve) ForwardRate(t1, t2 float64) float64 {
	if t1 < 0 || t2 <= t1 {
		return math.NaN()
	}
	df1 := c.DiscountFactor(t1)
	df2 := c.DiscountFactor(t2)
	return math.Log(df1/df2) / (t2 - t1)
}

// ShortRate 返回 t 时刻的瞬时远期利率（ForwardRate 在区间长度趋零时的极限）
func (c *DiscountCurve) ShortRate(t float64) float64 {
	if t < 0 {
		return math.NaN()
	}
	return c.ForwardRate(t, t+shortRateEps)
}

// ParallelShift 返回零息利率整体平移 delta 后的新曲线，原曲线不变
func (c *DiscountCurve) ParallelShift(delta float64) (*DiscountCurve, error) {
	shifted := make([]CurveNode, 0, len(c.nodes)-1)
	for _, n := range c.nodes[1:] {
		shifted = append(shifted, CurveNode{Tenor: n.Tenor, DF: n.DF * math.Exp(-delta*n.Tenor)})
	}
	return NewDiscountCurve(shifted, c.policy)
}

// Twist 返回绕 pivot 期限旋转后的新曲线：短端与长端零息利率反向移动，
// 幅度按节点到支点的距离线性放缩并截断到 [-magnitude, +magnitude]。
func (c *DiscountCurve) Twist(pivot, magnitude float64) (*DiscountCurve, error) {
	if pivot <= 0 {
		return nil, fmt.Errorf("%w: twist pivot must be positive, got %v", ErrConfiguration, pivot)
	}

	maxSpan := 1e-8
	for _, n := range c.nodes[1:] {
		if span := math.Abs(n.Tenor - pivot); span > maxSpan {
			maxSpan = span
		}
	}

	twisted := make([]CurveNode, 0, len(c.nodes)-1)
	for _, n := range c.nodes[1:] {
		profile := (n.Tenor - pivot) / maxSpan
		profile = math.Max(-1, math.Min(1, profile))
		delta := magnitude * profile
		twisted = append(twisted, CurveNode{Tenor: n.Tenor, DF: n.DF * math.Exp(-delta*n.Tenor)})
	}
	return NewDiscountCurve(twisted, c.policy)
}
