package market

import (
	"fmt"
	"math"
	"time"
)

// DateLayout 为日级别时间戳的统一格式。
const DateLayout = "2006-01-02"

// Signal 表示离散交易指令。
type Signal int

const (
	SignalSell Signal = -1
	SignalHold Signal = 0
	SignalBuy  Signal = 1
)

// Point 为单个交易日的价格。
type Point struct {
	Date  time.Time
	Price float64
}

// PriceSeries 按日期升序排列的价格序列。
type PriceSeries []Point

// SignalPoint 为外部生成的原始信号值，允许出现 NaN 或越界值。
type SignalPoint struct {
	Date  time.Time
	Value float64
}

// SignalSeries 与价格序列对齐的信号序列。
type SignalSeries []SignalPoint

// Day 将时间截断到 UTC 日期。
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DayKey 返回日期键，用于对齐价格与信号。
func DayKey(t time.Time) string {
	return t.UTC().Format(DateLayout)
}

// NewPriceSeries 将日期与价格组合为序列。
func NewPriceSeries(dates []time.Time, prices []float64) (PriceSeries, error) {
	if len(dates) != len(prices) {
		return nil, fmt.Errorf("market: 日期数量 %d 与价格数量 %d 不一致: %w", len(dates), len(prices), ErrInvalidInput)
	}
	series := make(PriceSeries, len(prices))
	for i := range prices {
		series[i] = Point{Date: Day(dates[i]), Price: prices[i]}
	}
	return series, nil
}

// Len 返回序列长度。
func (s PriceSeries) Len() int {
	return len(s)
}

// Prices 返回价格副本。
func (s PriceSeries) Prices() []float64 {
	out := make([]float64, len(s))
	for i, p := range s {
		out[i] = p.Price
	}
	return out
}

// Dates 返回日期副本。
func (s PriceSeries) Dates() []time.Time {
	out := make([]time.Time, len(s))
	for i, p := range s {
		out[i] = p.Date
	}
	return out
}

// Clone 返回深拷贝。
func (s PriceSeries) Clone() PriceSeries {
	if s == nil {
		return nil
	}
	return append(PriceSeries(nil), s...)
}

// Validate 校验交易日严格递增且价格为有限正数，同一天的多个时间点视为重复。
func (s PriceSeries) Validate() error {
	for i, p := range s {
		if !ValidPrice(p.Price) {
			return fmt.Errorf("market: %s 价格 %v 非法: %w", DayKey(p.Date), p.Price, ErrInvalidInput)
		}
		if i > 0 && !Day(p.Date).After(Day(s[i-1].Date)) {
			return fmt.Errorf("market: 日期 %s 未严格递增: %w", DayKey(p.Date), ErrInvalidInput)
		}
	}
	return nil
}

// LogReturns 计算相邻价格的对数收益率。
func (s PriceSeries) LogReturns() []float64 {
	if len(s) < 2 {
		return nil
	}
	out := make([]float64, len(s)-1)
	for i := 1; i < len(s); i++ {
		out[i-1] = math.Log(s[i].Price) - math.Log(s[i-1].Price)
	}
	return out
}

// ValidPrice 判断价格是否为有限正数。
func ValidPrice(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}

// NewSignalSeries 以整数信号构建信号序列。
func NewSignalSeries(dates []time.Time, values []Signal) SignalSeries {
	n := min(len(dates), len(values))
	series := make(SignalSeries, n)
	for i := 0; i < n; i++ {
		series[i] = SignalPoint{Date: Day(dates[i]), Value: float64(values[i])}
	}
	return series
}
