// Package application 估值服务应用层
package application

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/wyfcoding/almrisk/internal/valuation/domain"
)

// InstrumentSpec 工具定义快照，来自工具上下文，随估值任务一并落库，
// 保证任意时刻按 RunID 复算得到相同结果
type InstrumentSpec struct {
	InstrumentID string  `json:"instrument_id"`
	Kind         string  `json:"kind"`
	Desk         string  `json:"desk"`
	Currency     string  `json:"currency"`
	Notional     float64 `json:"notional"`
	ParamsJSON   string  `json:"params_json"`
}

// InstrumentSource 工具定义来源端口，由基础设施层适配工具上下文实现
type InstrumentSource interface {
	FetchSpecs(ctx context.Context, portfolio string, instrumentIDs []string) ([]InstrumentSpec, error)
}

// RunConfig 估值任务的完整定义快照，JSON 序列化后存入 ValuationRun.ConfigJSON
type RunConfig struct {
	Portfolio string  `json:"portfolio"`
	AsOfYears float64 `json:"as_of_years"`

	Curve struct {
		Tenors        []float64 `json:"tenors"`
		ZeroRates     []float64 `json:"zero_rates"`
		Interpolation string    `json:"interpolation"`
	} `json:"curve"`

	Model struct {
		MeanReversion float64 `json:"mean_reversion"`
		Sigma         float64 `json:"sigma"`
	} `json:"model"`

	Scenarios struct {
		ShiftsBps       []float64 `json:"shifts_bps"`
		TwistsBps       []float64 `json:"twists_bps"`
		TwistPivotYears float64   `json:"twist_pivot_years"`
		NumPaths        int       `json:"num_paths"`
		NumSteps        int       `json:"num_steps"`
		HorizonYears    float64   `json:"horizon_years"`
		Seed            uint64    `json:"seed"`
	} `json:"scenarios"`

	Confidences []float64        `json:"confidences"`
	Instruments []InstrumentSpec `json:"instruments"`
}

// zeroCouponParams 等各参数结构对应 InstrumentSpec.ParamsJSON
type zeroCouponParams struct {
	MaturityYears float64 `json:"maturity_years"`
}

type fixedRateBondParams struct {
	Coupon        float64 `json:"coupon"`
	Frequency     int     `json:"frequency"`
	MaturityYears float64 `json:"maturity_years"`
}

type fixedFloatSwapParams struct {
	FixedRate     float64 `json:"fixed_rate"`
	Frequency     int     `json:"frequency"`
	MaturityYears float64 `json:"maturity_years"`
	PayFixed      bool    `json:"pay_fixed"`
}

type annuityMortgageParams struct {
	Rate           float64 `json:"rate"`
	TermYears      float64 `json:"term_years"`
	BaseCPR        float64 `json:"base_cpr"`
	IncentiveSlope float64 `json:"incentive_slope"`
	AgeRampYears   float64 `json:"age_ramp_years"`
}

// buildInstrument 由定义快照构造可估值工具
func buildInstrument(spec InstrumentSpec) (domain.Instrument, error) {
	meta := domain.InstrumentMeta{
		ID:    spec.InstrumentID,
		Class: spec.Kind,
		Book:  spec.Desk,
		CCY:   spec.Currency,
	}

	switch spec.Kind {
	case "zero_coupon_bond":
		var p zeroCouponParams
		if err := json.Unmarshal([]byte(spec.ParamsJSON), &p); err != nil {
			return nil, fmt.Errorf("%w: instrument %s params: %v", domain.ErrConfiguration, spec.InstrumentID, err)
		}
		return domain.NewZeroCouponBond(meta, spec.Notional, p.MaturityYears)
	case "fixed_rate_bond":
		var p fixedRateBondParams
		if err := json.Unmarshal([]byte(spec.ParamsJSON), &p); err != nil {
			return nil, fmt.Errorf("%w: instrument %s params: %v", domain.ErrConfiguration, spec.InstrumentID, err)
		}
		return domain.NewFixedRateBond(meta, spec.Notional, p.Coupon, p.Frequency, p.MaturityYears)
	case "fixed_float_swap":
		var p fixedFloatSwapParams
		if err := json.Unmarshal([]byte(spec.ParamsJSON), &p); err != nil {
			return nil, fmt.Errorf("%w: instrument %s params: %v", domain.ErrConfiguration, spec.InstrumentID, err)
		}
		return domain.NewFixedFloatSwap(meta, spec.Notional, p.FixedRate, p.Frequency, p.MaturityYears, p.PayFixed)
	case "annuity_mortgage":
		var p annuityMortgageParams
		if err := json.Unmarshal([]byte(spec.ParamsJSON), &p); err != nil {
			return nil, fmt.Errorf("%w: instrument %s params: %v", domain.ErrConfiguration, spec.InstrumentID, err)
		}
		return domain.NewAnnuityMortgage(meta, spec.Notional, p.Rate, p.TermYears, p.BaseCPR, p.IncentiveSlope, p.AgeRampYears)
	default:
		return nil, fmt.Errorf("%w: unknown instrument kind %q", domain.ErrConfiguration, spec.Kind)
	}
}

// assembleRun 由任务定义快照确定性地构造情景集与工具列表。
// 任务提交与事后风险查询走同一条装配路径，两边结果必然一致。
func assembleRun(cfg *RunConfig) (*domain.ScenarioSet, []domain.Instrument, error) {
	curve, err := domain.NewDiscountCurveFromZeroRates(
		cfg.Curve.Tenors, cfg.Curve.ZeroRates,
		domain.InterpolationPolicy(cfg.Curve.Interpolation),
	)
	if err != nil {
		return nil, nil, err
	}

	var model *domain.HullWhiteModel
	if cfg.Scenarios.NumPaths > 0 {
		model, err = domain.NewHullWhiteModel(cfg.Model.MeanReversion, cfg.Model.Sigma, curve)
		if err != nil {
			return nil, nil, err
		}
	}

	gen, err := domain.NewScenarioGenerator(curve, model)
	if err != nil {
		return nil, nil, err
	}
	set, err := gen.Generate(domain.ScenarioConfig{
		ShiftsBps:  cfg.Scenarios.ShiftsBps,
		TwistsBps:  cfg.Scenarios.TwistsBps,
		TwistPivot: cfg.Scenarios.TwistPivotYears,
		NumPaths:   cfg.Scenarios.NumPaths,
		NumSteps:   cfg.Scenarios.NumSteps,
		Horizon:    cfg.Scenarios.HorizonYears,
		Seed:       cfg.Scenarios.Seed,
	})
	if err != nil {
		return nil, nil, err
	}

	if len(cfg.Instruments) == 0 {
		return nil, nil, fmt.Errorf("%w: run config carries no instruments", domain.ErrAggregation)
	}
	instruments := make([]domain.Instrument, 0, len(cfg.Instruments))
	for _, spec := range cfg.Instruments {
		inst, err := buildInstrument(spec)
		if err != nil {
			return nil, nil, err
		}
		instruments = append(instruments, inst)
	}
	return set, instruments, nil
}
