// Package backtest 将离散交易信号转换为现金、持仓与净值轨迹。
package backtest

import (
	"fmt"
	"math"

	"go.uber.org/zap"

	"quantlab/internal/market"
)

// Engine 为无杠杆、不做空的单标的回测引擎。
type Engine struct {
	cfg    Config
	logger *zap.Logger
}

// NewEngine 构建回测引擎。
func NewEngine(cfg Config, logger *zap.Logger) (*Engine, error) {
	cfg = cfg.normalize()
	if cfg.InitialCash < 0 || math.IsNaN(cfg.InitialCash) || math.IsInf(cfg.InitialCash, 0) {
		return nil, fmt.Errorf("backtest: initial_cash 必须为有限非负数，实际 %v: %w", cfg.InitialCash, market.ErrInvalidParameter)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Engine{
		cfg:    cfg,
		logger: logger,
	}, nil
}

// InitialCash 返回回测初始现金。
func (e *Engine) InitialCash() float64 {
	return e.cfg.InitialCash
}

// Run 按日期升序逐日执行状态机。价格非法时整体失败，不返回部分结果；
// 信号缺失或取值非法时按持有处理。
func (e *Engine) Run(prices market.PriceSeries, signals market.SignalSeries) (Result, error) {
	if err := prices.Validate(); err != nil {
		return Result{}, fmt.Errorf("backtest: %w", err)
	}

	series := prices.Clone()
	aligned, diag := AlignSignals(series, signals)
	if diag.Coerced > 0 || diag.Unmatched > 0 {
		e.logger.Warn("信号已按持有处理",
			zap.String("symbol", e.cfg.Symbol),
			zap.Int("coerced", diag.Coerced),
			zap.Int("unmatched", diag.Unmatched),
			zap.Int("missing", diag.Missing),
		)
	}

	book := newPortfolio(e.cfg.InitialCash)
	history := make([]TradeEvent, 0)
	navHistory := make([]NAVPoint, 0, len(series))

	for i, point := range series {
		price := point.Price

		switch {
		case aligned[i] == market.SignalBuy && book.state() == stateFlat:
			if qty := book.buy(price); qty > 0 {
				history = append(history, TradeEvent{Date: point.Date, Kind: TradeBuy, Price: price, Quantity: qty})
				e.logger.Debug("买入",
					zap.String("date", market.DayKey(point.Date)),
					zap.Float64("price", price),
					zap.Int64("quantity", qty),
					zap.Float64("cash", book.cash),
				)
			}
		case aligned[i] == market.SignalSell && book.state() == stateLong:
			qty := book.sell(price)
			history = append(history, TradeEvent{Date: point.Date, Kind: TradeSell, Price: price, Quantity: qty})
			e.logger.Debug("卖出",
				zap.String("date", market.DayKey(point.Date)),
				zap.Float64("price", price),
				zap.Int64("quantity", qty),
				zap.Float64("cash", book.cash),
			)
		}

		navHistory = append(navHistory, NAVPoint{Date: point.Date, NAV: book.nav(price)})
	}

	finalNAV := e.cfg.InitialCash
	if len(navHistory) > 0 {
		finalNAV = navHistory[len(navHistory)-1].NAV
	}

	result := Result{
		InitialCash: e.cfg.InitialCash,
		FinalNAV:    finalNAV,
		PnL:         finalNAV - e.cfg.InitialCash,
		History:     history,
		NAVHistory:  navHistory,
		Metrics:     calculateMetrics(e.cfg.InitialCash, navHistory),
		Diagnostics: diag,
	}

	e.logger.Info("回测完成",
		zap.String("symbol", e.cfg.Symbol),
		zap.Int("days", len(series)),
		zap.Int("trades", len(history)),
		zap.Float64("final_nav", result.FinalNAV),
		zap.Float64("pnl", result.PnL),
	)
	return result, nil
}
