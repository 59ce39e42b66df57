// Package domain 工具上下文领域事件
package domain

import "time"

type DomainEvent interface {
	EventName() string
	OccurredAt() time.Time
}

// InstrumentRegisteredEvent 工具注册事件
type InstrumentRegisteredEvent struct {
	InstrumentID string    `json:"instrument_id"`
	Portfolio    string    `json:"portfolio"`
	Kind         string    `json:"kind"`
	Timestamp    time.Time `json:"timestamp"`
}

func (e *InstrumentRegisteredEvent) EventName() string     { return "instrument.registered" }
func (e *InstrumentRegisteredEvent) OccurredAt() time.Time { return e.Timestamp }

// InstrumentUpdatedEvent 工具参数更新事件
type InstrumentUpdatedEvent struct {
	InstrumentID string    `json:"instrument_id"`
	Portfolio    string    `json:"portfolio"`
	Timestamp    time.Time `json:"timestamp"`
}

func (e *InstrumentUpdatedEvent) EventName() string     { return "instrument.updated" }
func (e *InstrumentUpdatedEvent) OccurredAt() time.Time { return e.Timestamp }

// InstrumentRetiredEvent 工具下线事件
type InstrumentRetiredEvent struct {
	InstrumentID string    `json:"instrument_id"`
	Portfolio    string    `json:"portfolio"`
	Timestamp    time.Time `json:"timestamp"`
}

func (e *InstrumentRetiredEvent) EventName() string     { return "instrument.retired" }
func (e *InstrumentRetiredEvent) OccurredAt() time.Time { return e.Timestamp }
