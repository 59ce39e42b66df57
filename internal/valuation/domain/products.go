package domain

import (
	"fmt"
	"math"
)

// pvFromCashflows 以 asOf 为估值时点贴现一组现金流：PV = Σ amount * DF(T)/DF(asOf)。
// 任一贴现因子非法时 NaN 按链路传播，由引擎捕获为单元格错误。
func pvFromCashflows(sc *Scenario, asOf float64, cfs []Cashflow) float64 {
	dfAsOf := sc.DiscountFactor(asOf)
	pv := 0.0
	for _, cf := range cfs {
		pv += cf.Amount * sc.DiscountFactor(cf.Time) / dfAsOf
	}
	return pv
}

// ZeroCouponBond 零息债：到期一次性偿付面值
type ZeroCouponBond struct {
	InstrumentMeta
	Notional float64
	Maturity float64
}

// NewZeroCouponBond 构造零息债，要求到期 > 0
func NewZeroCouponBond(meta InstrumentMeta, notional, maturity float64) (*ZeroCouponBond, error) {
	if maturity <= 0 {
		return nil, fmt.Errorf("%w: zero coupon bond maturity must be positive, got %v", ErrConfiguration, maturity)
	}
	return &ZeroCouponBond{InstrumentMeta: meta, Notional: notional, Maturity: maturity}, nil
}

func (b *ZeroCouponBond) Cashflows(_ *Scenario, asOf float64) []Cashflow {
	if b.Maturity <= asOf {
		return nil
	}
	return []Cashflow{{Time: b.Maturity, Amount: b.Notional}}
}

func (b *ZeroCouponBond) PresentValue(sc *Scenario, asOf float64) float64 {
	return pvFromCashflows(sc, asOf, b.Cashflows(sc, asOf))
}

// FixedRateBond 固息债：按年付息频率支付票息，到期偿付面值
type FixedRateBond struct {
	InstrumentMeta
	Notional  float64
	Coupon    float64
	Frequency int
	Maturity  float64
}

// NewFixedRateBond 构造固息债，频率为每年付息次数
func NewFixedRateBond(meta InstrumentMeta, notional, coupon float64, frequency int, maturity float64) (*FixedRateBond, error) {
	if maturity <= 0 {
		return nil, fmt.Errorf("%w: bond maturity must be positive, got %v", ErrConfiguration, maturity)
	}
	if frequency <= 0 {
		return nil, fmt.Errorf("%w: coupon frequency must be positive, got %d", ErrConfiguration, frequency)
	}
	if coupon < 0 {
		return nil, fmt.Errorf("%w: coupon must be non-negative, got %v", ErrConfiguration, coupon)
	}
	return &FixedRateBond{InstrumentMeta: meta, Notional: notional, Coupon: coupon, Frequency: frequency, Maturity: maturity}, nil
}

func (b *FixedRateBond) Cashflows(_ *Scenario, asOf float64) []Cashflow {
	tau := 1 / float64(b.Frequency)
	n := int(math.Round(b.Maturity * float64(b.Frequency)))
	if n < 1 {
		n = 1
	}
	coupon := b.Notional * b.Coupon * tau

	cfs := make([]Cashflow, 0, n)
	for k := 1; k <= n; k++ {
		t := float64(k) * tau
		if t > b.Maturity {
			t = b.Maturity
		}
		if t <= asOf {
			continue
		}
		amount := coupon
		if k == n {
			amount += b.Notional
		}
		cfs = append(cfs, Cashflow{Time: t, Amount: amount})
	}
	return cfs
}

func (b *FixedRateBond) PresentValue(sc *Scenario, asOf float64) float64 {
	return pvFromCashflows(sc, asOf, b.Cashflows(sc, asOf))
}

// FixedFloatSwap 固定对浮动利率互换，现金流为两腿轧差后的净额。
// 浮动腿按各期初观察的情景远期利率以复制关系折算：notional * (DF(start)/DF(end) - 1)。
type FixedFloatSwap struct {
	InstrumentMeta
	Notional  float64
	FixedRate float64
	Frequency int
	Maturity  float64
	// PayFixed 为真表示支付固定、收取浮动
	PayFixed bool
}

// NewFixedFloatSwap 构造利率互换
func NewFixedFloatSwap(meta InstrumentMeta, notional, fixedRate float64, frequency int, maturity float64, payFixed bool) (*FixedFloatSwap, error) {
	if maturity <= 0 {
		return nil, fmt.Errorf("%w: swap maturity must be positive, got %v", ErrConfiguration, maturity)
	}
	if frequency <= 0 {
		return nil, fmt.Errorf("%w: swap frequency must be positive, got %d", ErrConfiguration, frequency)
	}
	return &FixedFloatSwap{InstrumentMeta: meta, Notional: notional, FixedRate: fixedRate, Frequency: frequency, Maturity: maturity, PayFixed: payFixed}, nil
}

func (s *FixedFloatSwap) Cashflows(sc *Scenario, asOf float64) []Cashflow {
	tau := 1 / float64(s.Frequency)
	n := int(math.Round(s.Maturity * float64(s.Frequency)))
	if n < 1 {
		n = 1
	}
	fixed := s.Notional * s.FixedRate * tau
	sign := 1.0
	if !s.PayFixed {
		sign = -1
	}

	cfs := make([]Cashflow, 0, n)
	for k := 1; k <= n; k++ {
		start := float64(k-1) * tau
		end := float64(k) * tau
		if end > s.Maturity {
			end = s.Maturity
		}
		if end <= asOf {
			continue
		}
		floating := s.Notional * (sc.DiscountFactor(start)/sc.DiscountFactor(end) - 1)
		cfs = append(cfs, Cashflow{Time: end, Amount: sign * (floating - fixed)})
	}
	return cfs
}

func (s *FixedFloatSwap) PresentValue(sc *Scenario, asOf float64) float64 {
	return pvFromCashflows(sc, asOf, s.Cashflows(sc, asOf))
}

// 按月摊还的提前偿付网格
const mortgageStepsPerYear = 12

// AnnuityMortgage 等额本息按揭，带行为性提前偿付模型。
// 年化提前偿付率 CPR 由基础水平、再融资激励（合同利率减情景一年远期利率）
// 与账龄爬坡三部分组成，逐月折算为 SMM = 1 - (1-CPR)^(1/12)。
type AnnuityMortgage struct {
	InstrumentMeta
	Principal float64
	Rate      float64
	TermYears float64

	BaseCPR        float64
	IncentiveSlope float64
	AgeRampYears   float64
}

// NewAnnuityMortgage 构造按揭，要求本金与期限为正、合同利率非负
func NewAnnuityMortgage(meta InstrumentMeta, principal, rate, termYears, baseCPR, incentiveSlope, ageRampYears float64) (*AnnuityMortgage, error) {
	if principal <= 0 {
		return nil, fmt.Errorf("%w: mortgage principal must be positive, got %v", ErrConfiguration, principal)
	}
	if termYears <= 0 {
		return nil, fmt.Errorf("%w: mortgage term must be positive, got %v", ErrConfiguration, termYears)
	}
	if rate < 0 {
		return nil, fmt.Errorf("%w: mortgage rate must be non-negative, got %v", ErrConfiguration, rate)
	}
	if baseCPR < 0 || baseCPR >= 1 {
		return nil, fmt.Errorf("%w: base CPR must be in [0, 1), got %v", ErrConfiguration, baseCPR)
	}
	return &AnnuityMortgage{
		InstrumentMeta: meta,
		Principal:      principal,
		Rate:           rate,
		TermYears:      termYears,
		BaseCPR:        baseCPR,
		IncentiveSlope: incentiveSlope,
		AgeRampYears:   ageRampYears,
	}, nil
}

// cpr 返回 t 时刻的年化提前偿付率，截断到 [0, 0.99]
func (m *AnnuityMortgage) cpr(sc *Scenario, t float64) float64 {
	c := m.BaseCPR
	if m.IncentiveSlope != 0 {
		refi := sc.ForwardRate(t, t+1)
		if !math.IsNaN(refi) {
			c += m.IncentiveSlope * (m.Rate - refi)
		}
	}
	if m.AgeRampYears > 0 {
		c *= math.Min(t/m.AgeRampYears, 1)
	}
	return math.Max(0, math.Min(c, 0.99))
}

func (m *AnnuityMortgage) Cashflows(sc *Scenario, asOf float64) []Cashflow {
	dt := 1.0 / mortgageStepsPerYear
	n := int(math.Round(m.TermYears * mortgageStepsPerYear))
	rm := m.Rate / mortgageStepsPerYear

	// 等额本息月供
	var payment float64
	if rm == 0 {
		payment = m.Principal / float64(n)
	} else {
		payment = m.Principal * rm / (1 - math.Pow(1+rm, -float64(n)))
	}

	cfs := make([]Cashflow, 0, n)
	balance := m.Principal
	for k := 1; k <= n && balance > 1e-10; k++ {
		t := float64(k) * dt
		interest := balance * rm
		scheduled := math.Min(payment-interest, balance)

		smm := 1 - math.Pow(1-m.cpr(sc, t-dt), dt)
		prepay := (balance - scheduled) * smm

		if t > asOf {
			cfs = append(cfs, Cashflow{Time: t, Amount: interest + scheduled + prepay})
		}
		balance -= scheduled + prepay
	}
	return cfs
}

func (m *AnnuityMortgage) PresentValue(sc *Scenario, asOf float64) float64 {
	return pvFromCashflows(sc, asOf, m.Cashflows(sc, asOf))
}
