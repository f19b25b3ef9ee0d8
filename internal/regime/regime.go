// Package regime 对收益率序列进行状态划分并汇总各状态的持续情况。
package regime

import (
	"encoding/json"
	"fmt"
	"slices"

	"gonum.org/v1/gonum/stat"

	"quantlab/internal/market"
)

// Classifier 将收益率序列映射为整数状态标签，长度与输入一致。
type Classifier interface {
	Classify(returns []float64) ([]int, error)
}

// VolatilityClassifier 以滚动标准差是否高于其中位数划分平稳(0)与动荡(1)两种状态。
type VolatilityClassifier struct {
	Window int
}

// Classify 实现 Classifier。窗口尚未填满的前几天沿用第一个完整窗口的状态。
func (c VolatilityClassifier) Classify(returns []float64) ([]int, error) {
	if c.Window < 2 {
		return nil, fmt.Errorf("regime: 窗口必须不小于2，实际 %d: %w", c.Window, market.ErrInvalidParameter)
	}
	if len(returns) < c.Window {
		return nil, fmt.Errorf("regime: 收益率数量 %d 少于窗口 %d: %w", len(returns), c.Window, market.ErrInsufficientData)
	}

	vols := make([]float64, len(returns)-c.Window+1)
	for i := range vols {
		vols[i] = stat.StdDev(returns[i:i+c.Window], nil)
	}

	sorted := slices.Clone(vols)
	slices.Sort(sorted)
	median := stat.Quantile(0.5, stat.Empirical, sorted, nil)

	states := make([]int, len(returns))
	for i := range states {
		j := max(i-c.Window+1, 0)
		if vols[j] > median {
			states[i] = 1
		}
	}
	return states, nil
}

// Summary 汇总各状态的天数与平均连续天数。
type Summary struct {
	TotalDays int
	Days      map[int]int
	AvgRun    map[int]float64
}

// Summarize 统计状态序列。
func Summarize(states []int) Summary {
	summary := Summary{
		TotalDays: len(states),
		Days:      make(map[int]int),
		AvgRun:    make(map[int]float64),
	}
	if len(states) == 0 {
		return summary
	}

	runs := make(map[int][]int)
	current, length := states[0], 1
	summary.Days[current]++
	for _, s := range states[1:] {
		summary.Days[s]++
		if s == current {
			length++
			continue
		}
		runs[current] = append(runs[current], length)
		current, length = s, 1
	}
	runs[current] = append(runs[current], length)

	for state, lens := range runs {
		total := 0
		for _, l := range lens {
			total += l
		}
		summary.AvgRun[state] = float64(total) / float64(len(lens))
	}
	return summary
}

// MarshalJSON 输出扁平结构：total_days、state_<n>_days、state_<n>_avg_run。
func (s Summary) MarshalJSON() ([]byte, error) {
	out := map[string]interface{}{"total_days": s.TotalDays}
	for state, days := range s.Days {
		out[fmt.Sprintf("state_%d_days", state)] = days
	}
	for state, avg := range s.AvgRun {
		out[fmt.Sprintf("state_%d_avg_run", state)] = avg
	}
	return json.Marshal(out)
}
