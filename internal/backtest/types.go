package backtest

import (
	"encoding/json"
	"time"

	"quantlab/internal/market"
)

// TradeKind 表示成交方向。
type TradeKind string

const (
	TradeBuy  TradeKind = "BUY"
	TradeSell TradeKind = "SELL"
)

// TradeEvent 为不可变成交记录，序列化为 [date, kind, price, quantity]。
type TradeEvent struct {
	Date     time.Time
	Kind     TradeKind
	Price    float64
	Quantity int64
}

// MarshalJSON 输出 [date, kind, price, quantity] 元组。
func (t TradeEvent) MarshalJSON() ([]byte, error) {
	return json.Marshal([]interface{}{market.DayKey(t.Date), string(t.Kind), t.Price, t.Quantity})
}

// NAVPoint 为某日收盘后的净值，序列化为 [date, nav]。
type NAVPoint struct {
	Date time.Time
	NAV  float64
}

// MarshalJSON 输出 [date, nav] 元组。
func (p NAVPoint) MarshalJSON() ([]byte, error) {
	return json.Marshal([]interface{}{market.DayKey(p.Date), p.NAV})
}

// Result 汇总一次回测，构建后不再修改。
type Result struct {
	InitialCash float64      `json:"initial_cash"`
	FinalNAV    float64      `json:"final_nav"`
	PnL         float64      `json:"pnl"`
	History     []TradeEvent `json:"history"`
	NAVHistory  []NAVPoint   `json:"nav_history"`
	Metrics     Metrics      `json:"metrics"`
	Diagnostics Diagnostics  `json:"diagnostics"`
}

// Trades 返回成交次数。
func (r Result) Trades() int {
	return len(r.History)
}
