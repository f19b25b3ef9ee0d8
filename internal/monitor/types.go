package monitor

import (
	"time"

	"quantlab/internal/backtest"
	"quantlab/internal/estimate"
	"quantlab/internal/montecarlo"
	"quantlab/internal/regime"
)

// EventType 表示监控事件类型。
type EventType string

const (
	EventSeriesGenerated EventType = "series_generated"
	EventEstimate        EventType = "estimate"
	EventRegime          EventType = "regime"
	EventMonteCarlo      EventType = "monte_carlo"
	EventBacktest        EventType = "backtest"
	EventError           EventType = "error"
)

// Event 封装通用监控事件。
type Event struct {
	Type      EventType   `json:"type"`
	RunID     string      `json:"run_id,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// SeriesPayload 记录生成的价格序列概况。
type SeriesPayload struct {
	Model     string  `json:"model"`
	Days      int     `json:"days"`
	FirstDate string  `json:"first_date"`
	LastDate  string  `json:"last_date"`
	First     float64 `json:"first"`
	Last      float64 `json:"last"`
}

// EstimatePayload 记录参数估计结果。
type EstimatePayload struct {
	Estimate estimate.Estimate `json:"estimate"`
}

// RegimePayload 记录状态划分摘要。
type RegimePayload struct {
	Summary regime.Summary `json:"summary"`
}

// MonteCarloPayload 记录路径模拟的终值统计，不含逐步分位带。
type MonteCarloPayload struct {
	Seed           uint64  `json:"seed"`
	Paths          int     `json:"paths"`
	Steps          int     `json:"steps"`
	TerminalMean   float64 `json:"terminal_mean"`
	TerminalStd    float64 `json:"terminal_std"`
	ProbBelowStart float64 `json:"prob_below_start"`
}

// BacktestPayload 记录回测摘要。
type BacktestPayload struct {
	InitialCash float64              `json:"initial_cash"`
	FinalNAV    float64              `json:"final_nav"`
	PnL         float64              `json:"pnl"`
	Trades      int                  `json:"trades"`
	Metrics     backtest.Metrics     `json:"metrics"`
	Diagnostics backtest.Diagnostics `json:"diagnostics"`
}

// ErrorPayload 记录异常。
type ErrorPayload struct {
	Message string                 `json:"message"`
	Error   string                 `json:"error"`
	Context map[string]interface{} `json:"context,omitempty"`
}

// NewMonteCarloPayload 从模拟摘要构建事件内容。
func NewMonteCarloPayload(seed uint64, s montecarlo.Summary) MonteCarloPayload {
	return MonteCarloPayload{
		Seed:           seed,
		Paths:          s.Paths,
		Steps:          s.Steps,
		TerminalMean:   s.TerminalMean,
		TerminalStd:    s.TerminalStd,
		ProbBelowStart: s.ProbBelowStart,
	}
}

// NewBacktestPayload 从回测结果构建事件内容。
func NewBacktestPayload(r backtest.Result) BacktestPayload {
	return BacktestPayload{
		InitialCash: r.InitialCash,
		FinalNAV:    r.FinalNAV,
		PnL:         r.PnL,
		Trades:      r.Trades(),
		Metrics:     r.Metrics,
		Diagnostics: r.Diagnostics,
	}
}
