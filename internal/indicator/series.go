package indicator

import (
	"time"

	"quantlab/internal/market"
)

// Series 将价格序列拆分为便于指标计算的数组。
type Series struct {
	Timestamps []time.Time
	Close      []float64
}

// NewSeries 从价格序列创建 Series，保持原有顺序。
func NewSeries(prices market.PriceSeries) Series {
	return Series{
		Timestamps: prices.Dates(),
		Close:      prices.Prices(),
	}
}

// Len 返回序列长度。
func (s Series) Len() int {
	return len(s.Close)
}
