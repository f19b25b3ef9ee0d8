package montecarlo

import (
	"slices"

	"gonum.org/v1/gonum/stat"
)

// PathEnsemble 为二维价格表，行为路径，列为时间步。
type PathEnsemble struct {
	Seed  uint64      `json:"seed"`
	Paths [][]float64 `json:"paths"`
}

// Band 为单个时间步的横截面统计。
type Band struct {
	Step int     `json:"step"`
	Mean float64 `json:"mean"`
	P05  float64 `json:"p05"`
	P50  float64 `json:"p50"`
	P95  float64 `json:"p95"`
}

// Summary 汇总路径集合的分布特征。
type Summary struct {
	Paths          int     `json:"paths"`
	Steps          int     `json:"steps"`
	Bands          []Band  `json:"bands"`
	TerminalMean   float64 `json:"terminal_mean"`
	TerminalStd    float64 `json:"terminal_std"`
	ProbBelowStart float64 `json:"prob_below_start"`
}

// Rows 返回路径数量。
func (e PathEnsemble) Rows() int {
	return len(e.Paths)
}

// Steps 返回每条路径的长度。
func (e PathEnsemble) Steps() int {
	if len(e.Paths) == 0 {
		return 0
	}
	return len(e.Paths[0])
}

// Column 返回某一时间步上所有路径的价格。
func (e PathEnsemble) Column(step int) []float64 {
	if step < 0 || step >= e.Steps() {
		return nil
	}
	out := make([]float64, len(e.Paths))
	for i, path := range e.Paths {
		out[i] = path[step]
	}
	return out
}

// Terminal 返回每条路径的最后价格。
func (e PathEnsemble) Terminal() []float64 {
	return e.Column(e.Steps() - 1)
}

// Summarize 计算逐步分位带与终值统计。
func (e PathEnsemble) Summarize() Summary {
	steps := e.Steps()
	summary := Summary{Paths: e.Rows(), Steps: steps}
	if steps == 0 {
		return summary
	}

	summary.Bands = make([]Band, steps)
	for step := 0; step < steps; step++ {
		col := e.Column(step)
		slices.Sort(col)
		summary.Bands[step] = Band{
			Step: step,
			Mean: stat.Mean(col, nil),
			P05:  stat.Quantile(0.05, stat.Empirical, col, nil),
			P50:  stat.Quantile(0.50, stat.Empirical, col, nil),
			P95:  stat.Quantile(0.95, stat.Empirical, col, nil),
		}
	}

	terminal := e.Terminal()
	summary.TerminalMean = stat.Mean(terminal, nil)
	if len(terminal) > 1 {
		summary.TerminalStd = stat.StdDev(terminal, nil)
	}

	start := e.Paths[0][0]
	below := 0
	for _, v := range terminal {
		if v < start {
			below++
		}
	}
	summary.ProbBelowStart = float64(below) / float64(len(terminal))
	return summary
}
