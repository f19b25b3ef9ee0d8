package backtest

import (
	"errors"

	"quantlab/internal/market"
)

// SignalSource 根据价格序列生成外部交易信号。
type SignalSource interface {
	Signals(prices market.PriceSeries) (market.SignalSeries, error)
}

// SignalSourceFunc 允许使用函数作为信号源。
type SignalSourceFunc func(prices market.PriceSeries) (market.SignalSeries, error)

func (f SignalSourceFunc) Signals(prices market.PriceSeries) (market.SignalSeries, error) {
	if f == nil {
		return nil, errors.New("backtest: 信号函数未实现")
	}
	return f(prices)
}
