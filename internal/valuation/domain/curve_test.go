package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func flatCurve(t *testing.T, rate float64) *DiscountCurve {
	t.Helper()
	c, err := NewDiscountCurveFromZeroRates(
		[]float64{0.5, 1, 2, 5, 10, 30},
		[]float64{rate, rate, rate, rate, rate, rate},
		InterpLogLinearDF,
	)
	require.NoError(t, err)
	return c
}

func TestNewDiscountCurveValidation(t *testing.T) {
	tests := []struct {
		name  string
		nodes []CurveNode
	}{
		{"空节点", nil},
		{"期限非递增", []CurveNode{{1, 0.97}, {1, 0.95}}},
		{"贴现因子超过1", []CurveNode{{1, 1.02}}},
		{"贴现因子非正", []CurveNode{{1, 0}}},
		{"贴现因子非递减", []CurveNode{{1, 0.95}, {2, 0.96}}},
		{"零期限贴现因子非1", []CurveNode{{0, 0.99}, {1, 0.95}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewDiscountCurve(tt.nodes, InterpLogLinearDF)
			require.ErrorIs(t, err, ErrConfiguration)
		})
	}

	_, err := NewDiscountCurve([]CurveNode{{1, 0.97}}, InterpolationPolicy("cubic"))
	require.ErrorIs(t, err, ErrConfiguration)
}

func TestDiscountFactorFlatCurve(t *testing.T) {
	c := flatCurve(t, 0.03)

	assert.Equal(t, 1.0, c.DiscountFactor(0))
	assert.InDelta(t, math.Exp(-0.03*5), c.DiscountFactor(5), 1e-12)
	assert.InDelta(t, math.Exp(-0.03*3.7), c.DiscountFactor(3.7), 1e-12)
	// 末节点之外按末段零息利率平推
	assert.InDelta(t, math.Exp(-0.03*40), c.DiscountFactor(40), 1e-12)

	assert.True(t, math.IsNaN(c.DiscountFactor(-1)))
}

func TestInterpolationPolicies(t *testing.T) {
	nodes := []CurveNode{
		{Tenor: 1, DF: math.Exp(-0.03)},
		{Tenor: 2, DF: math.Exp(-0.08)},
	}

	logLinear, err := NewDiscountCurve(nodes, InterpLogLinearDF)
	require.NoError(t, err)
	linearZero, err := NewDiscountCurve(nodes, InterpLinearZero)
	require.NoError(t, err)

	// 对数线性：lnDF 中点为两端均值
	assert.InDelta(t, math.Exp(-(0.03+0.08)/2), logLinear.DiscountFactor(1.5), 1e-12)
	// 零息线性：z(1)=3%, z(2)=4%, z(1.5)=3.5%
	assert.InDelta(t, math.Exp(-0.035*1.5), linearZero.DiscountFactor(1.5), 1e-12)
	// 节点处两种方式一致
	assert.InDelta(t, logLinear.DiscountFactor(2), linearZero.DiscountFactor(2), 1e-12)
}

func TestForwardRate(t *testing.T) {
	nodes := []CurveNode{
		{Tenor: 1, DF: math.Exp(-0.03)},
		{Tenor: 2, DF: math.Exp(-0.08)},
	}
	c, err := NewDiscountCurve(nodes, InterpLogLinearDF)
	require.NoError(t, err)

	// f(1,2) = (0.08 - 0.03) / 1
	assert.InDelta(t, 0.05, c.ForwardRate(1, 2), 1e-12)

	assert.True(t, math.IsNaN(c.ForwardRate(2, 1)))
	assert.True(t, math.IsNaN(c.ForwardRate(-1, 1)))
	assert.True(t, math.IsNaN(c.ForwardRate(1, 1)))

	// 平坦曲线的瞬时远期等于零息利率
	flat := flatCurve(t, 0.025)
	assert.InDelta(t, 0.025, flat.ShortRate(3), 1e-9)
}

func TestParallelShift(t *testing.T) {
	c := flatCurve(t, 0.03)
	shifted, err := c.ParallelShift(0.01)
	require.NoError(t, err)

	assert.InDelta(t, math.Exp(-0.04*5), shifted.DiscountFactor(5), 1e-12)
	// 原曲线不受影响
	assert.InDelta(t, math.Exp(-0.03*5), c.DiscountFactor(5), 1e-12)

	// 下移后利率为负导致贴现因子超过 1，构造校验拒绝
	_, err = c.ParallelShift(-0.05)
	require.ErrorIs(t, err, ErrConfiguration)
}

func TestTwist(t *testing.T) {
	c := flatCurve(t, 0.03)

	twisted, err := c.Twist(5, 0.0025)
	require.NoError(t, err)

	// 支点处利率不变
	assert.InDelta(t, c.DiscountFactor(5), twisted.DiscountFactor(5), 1e-12)
	// 长端上移：贴现因子变小
	assert.Less(t, twisted.DiscountFactor(30), c.DiscountFactor(30))
	// 短端下移：贴现因子变大
	assert.Greater(t, twisted.DiscountFactor(1), c.DiscountFactor(1))
	// 最远节点拿满全部幅度：span = 30 - 5 = 25 为最大
	assert.InDelta(t, math.Exp(-(0.03+0.0025)*30), twisted.DiscountFactor(30), 1e-12)

	_, err = c.Twist(0, 0.0025)
	require.ErrorIs(t, err, ErrConfiguration)
	_, err = c.Twist(-1, 0.0025)
	require.ErrorIs(t, err, ErrConfiguration)
}

func TestNodesReturnsCopy(t *testing.T) {
	c := flatCurve(t, 0.03)
	nodes := c.Nodes()
	nodes[1].DF = 0.5
	assert.NotEqual(t, 0.5, c.Nodes()[1].DF)
}
