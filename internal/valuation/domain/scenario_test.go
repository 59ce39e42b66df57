package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestScenarioSet(t *testing.T, cfg ScenarioConfig) *ScenarioSet {
	t.Helper()
	curve := flatCurve(t, 0.03)
	model, err := NewHullWhiteModel(0.1, 0.01, curve)
	require.NoError(t, err)
	gen, err := NewScenarioGenerator(curve, model)
	require.NoError(t, err)
	set, err := gen.Generate(cfg)
	require.NoError(t, err)
	return set
}

func TestGenerateDeterministicScenarios(t *testing.T) {
	set := newTestScenarioSet(t, ScenarioConfig{
		ShiftsBps:  []float64{-100, -50, 50, 100},
		TwistsBps:  []float64{-25, 25},
		TwistPivot: 5,
	})

	require.Equal(t, 7, set.Len())

	base := set.Baseline()
	assert.Equal(t, 0, base.ID())
	assert.Equal(t, "base", base.Name())
	assert.Equal(t, ScenarioKindBase, base.Kind())

	scs := set.Scenarios()
	assert.Equal(t, "parallel_shift_-100bps", scs[1].Name())
	assert.Equal(t, "parallel_shift_+50bps", scs[3].Name())
	assert.Equal(t, ScenarioKindShift, scs[1].Kind())
	assert.Equal(t, "twist_-25bps_pivot_5y", scs[5].Name())
	assert.Equal(t, "twist_+25bps_pivot_5y", scs[6].Name())
	assert.Equal(t, ScenarioKindTwist, scs[6].Kind())

	for i, sc := range scs {
		assert.Equal(t, i, sc.ID())
		assert.Equal(t, 1.0, sc.Weight())
	}

	// +50bps 平移情景的贴现因子
	assert.InDelta(t, math.Exp(-0.035*5), scs[3].DiscountFactor(5), 1e-12)
	// 基准情景不受派生影响
	assert.InDelta(t, math.Exp(-0.03*5), base.DiscountFactor(5), 1e-12)
}

func TestZeroShiftReproducesBase(t *testing.T) {
	set := newTestScenarioSet(t, ScenarioConfig{ShiftsBps: []float64{0, 100}})

	base := set.Baseline()
	zero := set.ByID(1)
	require.Equal(t, "parallel_shift_+0bps", zero.Name())
	for _, T := range []float64{0.25, 1, 2.5, 5, 10, 30} {
		assert.Equal(t, base.DiscountFactor(T), zero.DiscountFactor(T), "T=%v", T)
	}
}

func TestGenerateMonteCarloScenarios(t *testing.T) {
	set := newTestScenarioSet(t, ScenarioConfig{
		NumPaths: 16,
		NumSteps: 40,
		Horizon:  10,
		Seed:     7,
	})

	require.Equal(t, 17, set.Len())
	scs := set.Scenarios()
	assert.Equal(t, "hw_mc_path_0000", scs[1].Name())
	assert.Equal(t, "hw_mc_path_0015", scs[16].Name())
	for _, sc := range scs[1:] {
		assert.Equal(t, ScenarioKindMonteCarlo, sc.Kind())
		assert.InDelta(t, 1.0/16, sc.Weight(), 1e-15)
		assert.InDelta(t, 10.0, sc.Horizon(), 1e-12)
	}

	mc := scs[1]
	// 视界内贴现因子有限且为正
	for _, T := range []float64{1, 3, 5, 8, 10} {
		df := mc.DiscountFactor(T)
		require.False(t, math.IsNaN(df))
		assert.Positive(t, df)
	}
	// 视界外与负期限无定义
	assert.True(t, math.IsNaN(mc.DiscountFactor(10.5)))
	assert.True(t, math.IsNaN(mc.DiscountFactor(-1)))
}

func TestMonteCarloZeroVolatilityMatchesCurve(t *testing.T) {
	// sigma = 0 时路径贴现因子链乘逐项消去，还原基准曲线
	curve := flatCurve(t, 0.03)
	model, err := NewHullWhiteModel(0.1, 0, curve)
	require.NoError(t, err)
	gen, err := NewScenarioGenerator(curve, model)
	require.NoError(t, err)
	set, err := gen.Generate(ScenarioConfig{NumPaths: 3, NumSteps: 20, Horizon: 10, Seed: 1})
	require.NoError(t, err)

	for _, sc := range set.Scenarios()[1:] {
		for _, T := range []float64{0.5, 1, 2.3, 5, 7.75, 10} {
			assert.InDelta(t, curve.DiscountFactor(T), sc.DiscountFactor(T), 1e-12, "T=%v", T)
		}
	}
}

func TestGenerateReproducible(t *testing.T) {
	cfg := ScenarioConfig{
		ShiftsBps: []float64{100},
		NumPaths:  8, NumSteps: 20, Horizon: 5, Seed: 99,
	}
	a := newTestScenarioSet(t, cfg)
	b := newTestScenarioSet(t, cfg)

	require.Equal(t, a.Len(), b.Len())
	for i := range a.Scenarios() {
		sa, sb := a.ByID(i), b.ByID(i)
		assert.Equal(t, sa.Name(), sb.Name())
		assert.Equal(t, sa.DiscountFactor(3), sb.DiscountFactor(3))
	}
}

func TestGenerateConfigErrors(t *testing.T) {
	curve := flatCurve(t, 0.03)
	gen, err := NewScenarioGenerator(curve, nil)
	require.NoError(t, err)

	// 基准之外没有任何情景
	_, err = gen.Generate(ScenarioConfig{})
	require.ErrorIs(t, err, ErrConfiguration)

	// 蒙特卡洛情景要求模型
	_, err = gen.Generate(ScenarioConfig{NumPaths: 4, NumSteps: 10, Horizon: 5})
	require.ErrorIs(t, err, ErrConfiguration)

	_, err = NewScenarioGenerator(nil, nil)
	require.ErrorIs(t, err, ErrConfiguration)
}
