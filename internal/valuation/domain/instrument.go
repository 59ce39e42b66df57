package domain

// Cashflow 一笔未来现金流：发生时间（年，相对曲线起点）与金额（正收负付）
type Cashflow struct {
	Time   float64 `json:"time"`
	Amount float64 `json:"amount"`
}

// Instrument 可估值工具的能力契约。实现必须无状态地响应任意情景：
// 同一 (情景, asOf) 输入返回相同现金流与现值，便于引擎并发全重估。
// asOf 为估值时点（年），早于等于 asOf 的现金流不参与估值。
type Instrument interface {
	InstrumentID() string
	Kind() string
	Desk() string
	Currency() string
	// Cashflows 返回该情景下 asOf 之后的现金流，按时间升序
	Cashflows(sc *Scenario, asOf float64) []Cashflow
	// PresentValue 返回 asOf 时点的现值；情景无法覆盖某笔现金流时返回 NaN
	PresentValue(sc *Scenario, asOf float64) float64
}

// InstrumentMeta 工具标识与分组维度，嵌入各产品实现提供契约的四个取值方法
type InstrumentMeta struct {
	ID    string
	Class string
	Book  string
	CCY   string
}

// InstrumentID 工具唯一标识
func (m InstrumentMeta) InstrumentID() string { return m.ID }

// Kind 产品类别，用于按类别聚合
func (m InstrumentMeta) Kind() string { return m.Class }

// Desk 所属业务台，用于按台聚合
func (m InstrumentMeta) Desk() string { return m.Book }

// Currency 币种
func (m InstrumentMeta) Currency() string { return m.CCY }
