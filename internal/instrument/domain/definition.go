// Package domain 工具上下文领域层：资产负债表工具的定义与生命周期。
// 工具参数以 JSON 形态存储，估值上下文按需装配为可定价产品。
package domain

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DefinitionStatus 工具定义状态
type DefinitionStatus string

const (
	DefinitionStatusActive  DefinitionStatus = "ACTIVE"
	DefinitionStatusRetired DefinitionStatus = "RETIRED"
)

// 支持的产品类别
const (
	KindZeroCouponBond  = "zero_coupon_bond"
	KindFixedRateBond   = "fixed_rate_bond"
	KindFixedFloatSwap  = "fixed_float_swap"
	KindAnnuityMortgage = "annuity_mortgage"
)

var supportedKinds = map[string]struct{}{
	KindZeroCouponBond:  {},
	KindFixedRateBond:   {},
	KindFixedFloatSwap:  {},
	KindAnnuityMortgage: {},
}

// InstrumentDefinition 工具定义聚合根
type InstrumentDefinition struct {
	gorm.Model
	InstrumentID string           `gorm:"column:instrument_id;type:varchar(32);uniqueIndex;not null"`
	Portfolio    string           `gorm:"column:portfolio;type:varchar(64);index;not null"`
	Kind         string           `gorm:"column:kind;type:varchar(32);not null"`
	Desk         string           `gorm:"column:desk;type:varchar(64);not null"`
	Currency     string           `gorm:"column:currency;type:varchar(8);not null"`
	Notional     decimal.Decimal  `gorm:"column:notional;type:decimal(38,10)"`
	ParamsJSON   string           `gorm:"column:params_json;type:json"`
	Status       DefinitionStatus `gorm:"column:status;type:varchar(16);not null;default:'ACTIVE'"`

	domainEvents []DomainEvent `gorm:"-"`
}

// TableName 表名
func (InstrumentDefinition) TableName() string {
	return "instrument_definitions"
}

// NewInstrumentDefinition 创建工具定义
func NewInstrumentDefinition(instrumentID, portfolio, kind, desk, currency string, notional decimal.Decimal, paramsJSON string) (*InstrumentDefinition, error) {
	if _, ok := supportedKinds[kind]; !ok {
		return nil, errors.New("unsupported instrument kind: " + kind)
	}
	if instrumentID == "" || portfolio == "" {
		return nil, errors.New("instrument id and portfolio are required")
	}
	def := &InstrumentDefinition{
		InstrumentID: instrumentID,
		Portfolio:    portfolio,
		Kind:         kind,
		Desk:         desk,
		Currency:     currency,
		Notional:     notional,
		ParamsJSON:   paramsJSON,
		Status:       DefinitionStatusActive,
	}
	def.addEvent(&InstrumentRegisteredEvent{
		InstrumentID: instrumentID,
		Portfolio:    portfolio,
		Kind:         kind,
		Timestamp:    time.Now(),
	})
	return def, nil
}

// UpdateParams 更新工具参数
func (d *InstrumentDefinition) UpdateParams(notional decimal.Decimal, paramsJSON string) error {
	if d.Status != DefinitionStatusActive {
		return errors.New("cannot update a retired instrument")
	}
	d.Notional = notional
	d.ParamsJSON = paramsJSON

	d.addEvent(&InstrumentUpdatedEvent{
		InstrumentID: d.InstrumentID,
		Portfolio:    d.Portfolio,
		Timestamp:    time.Now(),
	})
	return nil
}

// Retire 下线工具，不再参与后续估值
func (d *InstrumentDefinition) Retire() error {
	if d.Status == DefinitionStatusRetired {
		return errors.New("instrument already retired")
	}
	d.Status = DefinitionStatusRetired

	d.addEvent(&InstrumentRetiredEvent{
		InstrumentID: d.InstrumentID,
		Portfolio:    d.Portfolio,
		Timestamp:    time.Now(),
	})
	return nil
}

func (d *InstrumentDefinition) addEvent(event DomainEvent) {
	d.domainEvents = append(d.domainEvents, event)
}

func (d *InstrumentDefinition) GetDomainEvents() []DomainEvent {
	return d.domainEvents
}

func (d *InstrumentDefinition) ClearDomainEvents() {
	d.domainEvents = nil
}
