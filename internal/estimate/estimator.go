// Package estimate 从已实现价格中估计单步漂移与波动率。
package estimate

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"quantlab/internal/market"
)

// Estimate 为对数收益率的样本均值与无偏标准差。
type Estimate struct {
	Drift      float64 `json:"drift"`
	Volatility float64 `json:"volatility"`
	Samples    int     `json:"samples"`
}

// FromSeries 由价格序列估计参数。
func FromSeries(series market.PriceSeries) (Estimate, error) {
	return FromPrices(series.Prices())
}

// FromPrices 由价格数组估计参数，至少需要两个价格。
// 仅有一个收益率时波动率为0。
func FromPrices(prices []float64) (Estimate, error) {
	if len(prices) < 2 {
		return Estimate{}, fmt.Errorf("estimate: 至少需要2个价格，实际 %d: %w", len(prices), market.ErrInsufficientData)
	}
	for i, p := range prices {
		if !market.ValidPrice(p) {
			return Estimate{}, fmt.Errorf("estimate: 第 %d 个价格 %v 非法: %w", i, p, market.ErrInvalidInput)
		}
	}

	returns := make([]float64, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		returns[i-1] = math.Log(prices[i]) - math.Log(prices[i-1])
	}

	if len(returns) == 1 {
		return Estimate{Drift: returns[0], Volatility: 0, Samples: 1}, nil
	}

	mean, std := stat.MeanStdDev(returns, nil)
	return Estimate{Drift: mean, Volatility: std, Samples: len(returns)}, nil
}
