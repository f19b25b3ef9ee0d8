// Package process 根据随机过程合成价格序列。
package process

import (
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"quantlab/internal/market"
	"quantlab/internal/rng"
)

// Generator 生成带工作日日历的合成价格序列。
type Generator struct {
	startDate time.Time
	logger    *zap.Logger
}

// NewGenerator 创建生成器，序列首个工作日不早于 startDate。
func NewGenerator(startDate time.Time, logger *zap.Logger) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{
		startDate: market.Day(startDate),
		logger:    logger,
	}
}

// Generate 生成 numSteps 个交易日的价格序列，首个价格为 StartPrice。
// stream 为 nil 时使用随机种子。
func (g *Generator) Generate(model Model, params Params, numSteps int, stream *rng.Stream) (market.PriceSeries, error) {
	if stream == nil {
		stream = rng.NewRandom()
		g.logger.Debug("未指定随机种子，使用随机流", zap.Uint64("seed", stream.Seed()))
	}

	prices, err := Prices(model, params, numSteps, stream)
	if err != nil {
		return nil, err
	}

	series, err := market.NewPriceSeries(market.BusinessDays(g.startDate, numSteps), prices)
	if err != nil {
		return nil, err
	}

	g.logger.Debug("已生成价格序列",
		zap.String("model", string(model)),
		zap.Int("steps", numSteps),
		zap.Float64("first", prices[0]),
		zap.Float64("last", prices[len(prices)-1]),
	)
	return series, nil
}

// Prices 生成不带日期的价格数组，校验失败时不消耗任何随机数。
func Prices(model Model, params Params, numSteps int, stream *rng.Stream) ([]float64, error) {
	if numSteps <= 0 {
		return nil, fmt.Errorf("process: num_steps 必须大于0，实际 %d: %w", numSteps, market.ErrInvalidParameter)
	}
	if err := params.Validate(model); err != nil {
		return nil, err
	}
	if stream == nil {
		return nil, fmt.Errorf("process: 随机流不能为空: %w", market.ErrInvalidParameter)
	}

	switch model {
	case ModelJumpDiffusion:
		return jumpDiffusion(params, numSteps, stream), nil
	default:
		return GBMPath(params.StartPrice, params.Drift, params.Volatility, numSteps, stream), nil
	}
}

// GBMPath 生成纯扩散路径：对数价格为 log(start) 加上逐步增量的累加和。
// 调用方负责参数校验。
func GBMPath(start, drift, volatility float64, numSteps int, stream *rng.Stream) []float64 {
	prices := make([]float64, numSteps)
	if numSteps == 0 {
		return prices
	}
	prices[0] = start

	mu := drift - 0.5*volatility*volatility
	logPrice := math.Log(start)
	for t := 1; t < numSteps; t++ {
		logPrice += mu + volatility*stream.Normal()
		prices[t] = math.Exp(logPrice)
	}
	return prices
}

// jumpDiffusion 为逐步乘法折叠：每步依次抽取冲击、跳跃是否发生、跳跃幅度。
// 跳跃强度为0时不抽取跳跃随机数，冲击序列与 GBM 一致。
func jumpDiffusion(p Params, numSteps int, stream *rng.Stream) []float64 {
	prices := make([]float64, numSteps)
	prices[0] = p.StartPrice

	mu := p.Drift - 0.5*p.Volatility*p.Volatility
	price := p.StartPrice
	for t := 1; t < numSteps; t++ {
		shock := stream.Normal()
		jump := 0.0
		if p.JumpIntensity > 0 && stream.Uniform() < p.JumpIntensity {
			jump = stream.NormalWith(p.JumpMean, p.JumpVolatility)
		}
		price *= math.Exp(mu + p.Volatility*shock + jump)
		prices[t] = price
	}
	return prices
}
