package backtest

import (
	"math"

	"quantlab/internal/market"
)

// Diagnostics 统计信号对齐过程中被默认处理的条目。
type Diagnostics struct {
	Missing   int `json:"missing"`   // 有价格但无信号的日期，按持有处理
	Coerced   int `json:"coerced"`   // 取值不是 -1/0/1 而被强制转换的信号
	Unmatched int `json:"unmatched"` // 没有对应价格的信号日期，被忽略
}

// AlignSignals 将信号按日期对齐到价格序列。缺失日期视为持有，
// 重复日期以最后一个值为准。不修改输入。
func AlignSignals(prices market.PriceSeries, signals market.SignalSeries) ([]market.Signal, Diagnostics) {
	var diag Diagnostics

	byDay := make(map[string]float64, len(signals))
	for _, s := range signals {
		byDay[market.DayKey(s.Date)] = s.Value
	}

	aligned := make([]market.Signal, len(prices))
	seen := make(map[string]struct{}, len(prices))
	for i, p := range prices {
		key := market.DayKey(p.Date)
		seen[key] = struct{}{}

		raw, ok := byDay[key]
		if !ok {
			diag.Missing++
			aligned[i] = market.SignalHold
			continue
		}
		sig, coerced := CoerceSignal(raw)
		if coerced {
			diag.Coerced++
		}
		aligned[i] = sig
	}

	for key := range byDay {
		if _, ok := seen[key]; !ok {
			diag.Unmatched++
		}
	}

	return aligned, diag
}

// CoerceSignal 将原始信号截断为整数；NaN、无穷或截断后不在 {-1,0,1} 内的值视为持有。
// 第二个返回值表示原始值是否被改写。
func CoerceSignal(v float64) (market.Signal, bool) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return market.SignalHold, true
	}
	t := math.Trunc(v)
	switch t {
	case -1, 0, 1:
		return market.Signal(t), t != v
	default:
		return market.SignalHold, true
	}
}
