package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// baseScenario 构造一个基准情景（平坦 3% 曲线），供产品定价测试使用
func baseScenario(t *testing.T) *Scenario {
	t.Helper()
	set := newTestScenarioSet(t, ScenarioConfig{ShiftsBps: []float64{100}})
	return set.Baseline()
}

func testMeta(id, kind string) InstrumentMeta {
	return InstrumentMeta{ID: id, Class: kind, Book: "treasury", CCY: "CNY"}
}

func TestZeroCouponBond(t *testing.T) {
	sc := baseScenario(t)

	bond, err := NewZeroCouponBond(testMeta("ZCB-5Y", "zero_coupon_bond"), 100, 5)
	require.NoError(t, err)

	// 面值 100、5 年期、3% 连续复利：100 * exp(-0.15) ≈ 86.0708
	assert.InDelta(t, 100*math.Exp(-0.15), bond.PresentValue(sc, 0), 1e-9)
	assert.InDelta(t, 86.0708, bond.PresentValue(sc, 0), 1e-4)

	cfs := bond.Cashflows(sc, 0)
	require.Len(t, cfs, 1)
	assert.Equal(t, Cashflow{Time: 5, Amount: 100}, cfs[0])

	// asOf 晚于到期则无现金流
	assert.Empty(t, bond.Cashflows(sc, 5))
	assert.Equal(t, 0.0, bond.PresentValue(sc, 5))

	_, err = NewZeroCouponBond(testMeta("X", "zero_coupon_bond"), 100, -1)
	require.ErrorIs(t, err, ErrConfiguration)
}

func TestFixedRateBond(t *testing.T) {
	sc := baseScenario(t)

	bond, err := NewFixedRateBond(testMeta("FRB-5Y", "fixed_rate_bond"), 100, 0.04, 2, 5)
	require.NoError(t, err)

	cfs := bond.Cashflows(sc, 0)
	require.Len(t, cfs, 10)
	assert.InDelta(t, 0.5, cfs[0].Time, 1e-12)
	assert.InDelta(t, 2.0, cfs[0].Amount, 1e-12) // 100 * 4% / 2
	assert.InDelta(t, 5.0, cfs[9].Time, 1e-12)
	assert.InDelta(t, 102.0, cfs[9].Amount, 1e-12) // 末期含本金

	// 现值等于现金流逐笔贴现之和
	want := 0.0
	for _, cf := range cfs {
		want += cf.Amount * sc.DiscountFactor(cf.Time)
	}
	assert.InDelta(t, want, bond.PresentValue(sc, 0), 1e-9)

	// asOf = 2.5 时 2.5 年（含）之前的现金流被剔除
	later := bond.Cashflows(sc, 2.5)
	require.Len(t, later, 5)
	assert.InDelta(t, 3.0, later[0].Time, 1e-12)

	_, err = NewFixedRateBond(testMeta("X", "fixed_rate_bond"), 100, 0.04, 0, 5)
	require.ErrorIs(t, err, ErrConfiguration)
	_, err = NewFixedRateBond(testMeta("X", "fixed_rate_bond"), 100, -0.01, 2, 5)
	require.ErrorIs(t, err, ErrConfiguration)
}

func TestFixedFloatSwap(t *testing.T) {
	sc := baseScenario(t)

	// 固定利率为零的付固定互换只剩浮动腿，贴现后价值
	// 由复制关系逐项消去为 notional * (1 - DF(maturity))
	floatOnly, err := NewFixedFloatSwap(testMeta("SWP-FLT", "swap"), 1000, 0, 2, 5, true)
	require.NoError(t, err)
	assert.InDelta(t, 1000*(1-sc.DiscountFactor(5)), floatOnly.PresentValue(sc, 0), 1e-9)

	payer, err := NewFixedFloatSwap(testMeta("SWP-P", "swap"), 1000, 0.03, 2, 5, true)
	require.NoError(t, err)
	receiver, err := NewFixedFloatSwap(testMeta("SWP-R", "swap"), 1000, 0.03, 2, 5, false)
	require.NoError(t, err)

	// 同参数的付固定与收固定互为镜像
	assert.InDelta(t, -receiver.PresentValue(sc, 0), payer.PresentValue(sc, 0), 1e-9)

	// 利率上移时付固定方获益
	shifted := newTestScenarioSet(t, ScenarioConfig{ShiftsBps: []float64{200}}).ByID(1)
	assert.Greater(t, payer.PresentValue(shifted, 0), payer.PresentValue(sc, 0))

	_, err = NewFixedFloatSwap(testMeta("X", "swap"), 1000, 0.03, 2, -5, true)
	require.ErrorIs(t, err, ErrConfiguration)
}

func TestAnnuityMortgageScheduleWithoutPrepayment(t *testing.T) {
	sc := baseScenario(t)

	mort, err := NewAnnuityMortgage(testMeta("MTG-10Y", "mortgage"), 500000, 0.045, 10, 0, 0, 0)
	require.NoError(t, err)

	cfs := mort.Cashflows(sc, 0)
	require.Len(t, cfs, 120)

	// 等额本息：每期现金流相同，总额为月供 * 期数
	rm := 0.045 / 12
	payment := 500000 * rm / (1 - math.Pow(1+rm, -120))
	total := 0.0
	for _, cf := range cfs {
		assert.InDelta(t, payment, cf.Amount, 1e-6)
		total += cf.Amount
	}
	assert.InDelta(t, payment*120, total, 1e-4)

	pv := mort.PresentValue(sc, 0)
	assert.Positive(t, pv)
	assert.Less(t, pv, total)
}

func TestAnnuityMortgagePrepayment(t *testing.T) {
	sc := baseScenario(t)

	noPrepay, err := NewAnnuityMortgage(testMeta("MTG-A", "mortgage"), 500000, 0.045, 10, 0, 0, 0)
	require.NoError(t, err)
	withPrepay, err := NewAnnuityMortgage(testMeta("MTG-B", "mortgage"), 500000, 0.045, 10, 0.10, 0, 0)
	require.NoError(t, err)

	sum := func(cfs []Cashflow) float64 {
		s := 0.0
		for _, cf := range cfs {
			s += cf.Amount
		}
		return s
	}
	// 提前偿付缩短余额存续，未贴现现金流总额（本金+利息）下降
	assert.Less(t, sum(withPrepay.Cashflows(sc, 0)), sum(noPrepay.Cashflows(sc, 0)))

	// 再融资激励：利率下移 200bps 时提前偿付加快，现金流总额进一步下降
	incentive, err := NewAnnuityMortgage(testMeta("MTG-C", "mortgage"), 500000, 0.045, 10, 0.05, 2.0, 0)
	require.NoError(t, err)
	down := newTestScenarioSet(t, ScenarioConfig{ShiftsBps: []float64{-200}}).ByID(1)
	assert.Less(t, sum(incentive.Cashflows(down, 0)), sum(incentive.Cashflows(sc, 0)))

	_, err = NewAnnuityMortgage(testMeta("X", "mortgage"), 0, 0.045, 10, 0, 0, 0)
	require.ErrorIs(t, err, ErrConfiguration)
	_, err = NewAnnuityMortgage(testMeta("X", "mortgage"), 500000, 0.045, 10, 1.5, 0, 0)
	require.ErrorIs(t, err, ErrConfiguration)
}
