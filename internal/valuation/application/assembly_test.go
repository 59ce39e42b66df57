package application

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wyfcoding/almrisk/internal/valuation/domain"
)

func newTestRunConfig() *RunConfig {
	cfg := &RunConfig{
		Portfolio: "ALM-BOOK",
		AsOfYears: 0,
	}
	cfg.Curve.Tenors = []float64{0.5, 1, 2, 5, 10, 30}
	cfg.Curve.ZeroRates = []float64{0.03, 0.03, 0.03, 0.03, 0.03, 0.03}
	cfg.Curve.Interpolation = string(domain.InterpLogLinearDF)
	cfg.Scenarios.ShiftsBps = []float64{-100, 100}
	cfg.Instruments = []InstrumentSpec{
		{
			InstrumentID: "INST-1",
			Kind:         "zero_coupon_bond",
			Desk:         "treasury",
			Currency:     "EUR",
			Notional:     100,
			ParamsJSON:   `{"maturity_years": 5}`,
		},
	}
	return cfg
}

func TestBuildInstrument(t *testing.T) {
	testCases := []struct {
		name    string
		spec    InstrumentSpec
		kind    string
		wantErr bool
	}{
		{
			name: "零息债券",
			spec: InstrumentSpec{
				InstrumentID: "INST-1", Kind: "zero_coupon_bond", Desk: "treasury", Currency: "EUR",
				Notional: 100, ParamsJSON: `{"maturity_years": 5}`,
			},
			kind: "zero_coupon_bond",
		},
		{
			name: "固息债券",
			spec: InstrumentSpec{
				InstrumentID: "INST-2", Kind: "fixed_rate_bond", Desk: "banking", Currency: "EUR",
				Notional: 1000, ParamsJSON: `{"coupon": 0.04, "frequency": 2, "maturity_years": 10}`,
			},
			kind: "fixed_rate_bond",
		},
		{
			name: "利率互换",
			spec: InstrumentSpec{
				InstrumentID: "INST-3", Kind: "fixed_float_swap", Desk: "treasury", Currency: "EUR",
				Notional: 5000, ParamsJSON: `{"fixed_rate": 0.03, "frequency": 2, "maturity_years": 5, "pay_fixed": true}`,
			},
			kind: "fixed_float_swap",
		},
		{
			name: "年金按揭",
			spec: InstrumentSpec{
				InstrumentID: "INST-4", Kind: "annuity_mortgage", Desk: "banking", Currency: "EUR",
				Notional: 200000, ParamsJSON: `{"rate": 0.035, "term_years": 30, "base_cpr": 0.06, "incentive_slope": 2.0, "age_ramp_years": 2.5}`,
			},
			kind: "annuity_mortgage",
		},
		{
			name: "未知工具类型",
			spec: InstrumentSpec{
				InstrumentID: "INST-5", Kind: "callable_bond", Desk: "treasury", Currency: "EUR",
				Notional: 100, ParamsJSON: `{}`,
			},
			wantErr: true,
		},
		{
			name: "参数 JSON 非法",
			spec: InstrumentSpec{
				InstrumentID: "INST-6", Kind: "zero_coupon_bond", Desk: "treasury", Currency: "EUR",
				Notional: 100, ParamsJSON: `{maturity`,
			},
			wantErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			inst, err := buildInstrument(tc.spec)
			if tc.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, domain.ErrConfiguration)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.spec.InstrumentID, inst.InstrumentID())
			assert.Equal(t, tc.kind, inst.Kind())
			assert.Equal(t, tc.spec.Desk, inst.Desk())
			assert.Equal(t, tc.spec.Currency, inst.Currency())
		})
	}
}

func TestAssembleRun(t *testing.T) {
	t.Run("确定性情景集", func(t *testing.T) {
		cfg := newTestRunConfig()

		set, instruments, err := assembleRun(cfg)
		require.NoError(t, err)
		require.Len(t, instruments, 1)
		// 基准 + 两个平移情景
		require.Equal(t, 3, set.Len())
		assert.Equal(t, domain.ScenarioKindBase, set.Baseline().Kind())
	})

	t.Run("蒙特卡洛情景需要模型参数", func(t *testing.T) {
		cfg := newTestRunConfig()
		cfg.Scenarios.NumPaths = 16
		cfg.Scenarios.NumSteps = 12
		cfg.Scenarios.HorizonYears = 5
		cfg.Scenarios.Seed = 42
		cfg.Model.MeanReversion = 0.05
		cfg.Model.Sigma = 0.01

		set, _, err := assembleRun(cfg)
		require.NoError(t, err)
		assert.Equal(t, 3+16, set.Len())
	})

	t.Run("模型参数非法", func(t *testing.T) {
		cfg := newTestRunConfig()
		cfg.Scenarios.NumPaths = 16
		cfg.Scenarios.NumSteps = 12
		cfg.Scenarios.HorizonYears = 5
		cfg.Model.MeanReversion = -0.1

		_, _, err := assembleRun(cfg)
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrConfiguration)
	})

	t.Run("缺少工具", func(t *testing.T) {
		cfg := newTestRunConfig()
		cfg.Instruments = nil

		_, _, err := assembleRun(cfg)
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrAggregation)
	})

	t.Run("同一配置两次装配结果一致", func(t *testing.T) {
		cfg := newTestRunConfig()
		cfg.Scenarios.NumPaths = 32
		cfg.Scenarios.NumSteps = 24
		cfg.Scenarios.HorizonYears = 10
		cfg.Scenarios.Seed = 7
		cfg.Model.MeanReversion = 0.05
		cfg.Model.Sigma = 0.008

		setA, _, err := assembleRun(cfg)
		require.NoError(t, err)
		setB, _, err := assembleRun(cfg)
		require.NoError(t, err)

		require.Equal(t, setA.Len(), setB.Len())
		for i, sc := range setA.Scenarios() {
			other := setB.Scenarios()[i]
			assert.Equal(t, sc.Name(), other.Name())
			assert.Equal(t, sc.DiscountFactor(7.5), other.DiscountFactor(7.5))
		}
	})
}
