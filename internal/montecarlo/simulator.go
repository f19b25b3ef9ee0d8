// Package montecarlo 使用相互独立的 GBM 路径投射未来价格。
package montecarlo

import (
	"context"
	"fmt"
	"runtime"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"quantlab/internal/market"
	"quantlab/internal/process"
	"quantlab/internal/rng"
)

// Request 描述一次蒙特卡洛模拟。
type Request struct {
	StartPrice float64
	Drift      float64
	Volatility float64
	NumSteps   int
	NumPaths   int
	// Seed 为空时使用随机种子，实际种子记录在结果中。
	Seed *uint64
}

// Simulator 将路径分配到固定数量的 worker 上并行计算。
type Simulator struct {
	workers int
	logger  *zap.Logger
}

// NewSimulator 创建模拟器，workers<=0 时取 GOMAXPROCS。
func NewSimulator(workers int, logger *zap.Logger) *Simulator {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Simulator{
		workers: workers,
		logger:  logger,
	}
}

// Simulate 生成路径集合。每条路径使用由 (seed, 路径序号) 派生的独立随机流，
// 结果与 worker 数量无关。
func (s *Simulator) Simulate(ctx context.Context, req Request) (PathEnsemble, error) {
	if req.NumPaths <= 0 {
		return PathEnsemble{}, fmt.Errorf("montecarlo: num_paths 必须大于0，实际 %d: %w", req.NumPaths, market.ErrInvalidParameter)
	}
	if req.NumSteps <= 1 {
		return PathEnsemble{}, fmt.Errorf("montecarlo: num_steps 必须大于1，实际 %d: %w", req.NumSteps, market.ErrInvalidParameter)
	}
	params := process.Params{StartPrice: req.StartPrice, Drift: req.Drift, Volatility: req.Volatility}
	if err := params.Validate(process.ModelGBM); err != nil {
		return PathEnsemble{}, fmt.Errorf("montecarlo: %w", err)
	}

	seed := rng.RandomSeed()
	if req.Seed != nil {
		seed = *req.Seed
	}

	paths := make([][]float64, req.NumPaths)
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(s.workers)

	for i := range paths {
		group.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				return err
			}
			paths[i] = process.GBMPath(req.StartPrice, req.Drift, req.Volatility, req.NumSteps, rng.Derive(seed, i))
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return PathEnsemble{}, fmt.Errorf("montecarlo: 模拟中断: %w", err)
	}

	s.logger.Debug("蒙特卡洛模拟完成",
		zap.Int("paths", req.NumPaths),
		zap.Int("steps", req.NumSteps),
		zap.Int("workers", s.workers),
		zap.Uint64("seed", seed),
	)

	return PathEnsemble{Seed: seed, Paths: paths}, nil
}
