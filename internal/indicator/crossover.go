// Package indicator 基于技术指标生成离散交易信号。
package indicator

import (
	"fmt"
	"strings"

	talib "github.com/markcheno/go-talib"

	"quantlab/internal/market"
)

// AverageKind 指定均线类型。
type AverageKind string

const (
	AverageSMA AverageKind = "sma"
	AverageEMA AverageKind = "ema"
)

// MovingAverageCross 价格高于均线时买入、低于均线时卖出，均线未形成前持有。
type MovingAverageCross struct {
	window int
	kind   AverageKind
}

// NewMovingAverageCross 创建均线穿越信号源。
func NewMovingAverageCross(window int, kind AverageKind) (*MovingAverageCross, error) {
	if window < 2 {
		return nil, fmt.Errorf("indicator: 均线窗口必须不小于2，实际 %d: %w", window, market.ErrInvalidParameter)
	}
	switch AverageKind(strings.ToLower(string(kind))) {
	case AverageSMA, "":
		kind = AverageSMA
	case AverageEMA:
		kind = AverageEMA
	default:
		return nil, fmt.Errorf("indicator: 未知均线类型 %q: %w", kind, market.ErrInvalidParameter)
	}
	return &MovingAverageCross{window: window, kind: kind}, nil
}

// Signals 为每个交易日生成信号。
func (m *MovingAverageCross) Signals(prices market.PriceSeries) (market.SignalSeries, error) {
	series := NewSeries(prices)
	values := make([]market.Signal, series.Len())

	if series.Len() >= m.window {
		avg := m.average(series.Close)
		for i := m.window - 1; i < series.Len(); i++ {
			switch price := series.Close[i]; {
			case price > avg[i]:
				values[i] = market.SignalBuy
			case price < avg[i]:
				values[i] = market.SignalSell
			}
		}
	}

	return market.NewSignalSeries(series.Timestamps, values), nil
}

func (m *MovingAverageCross) average(closes []float64) []float64 {
	if m.kind == AverageEMA {
		return talib.Ema(closes, m.window)
	}
	return talib.Sma(closes, m.window)
}
