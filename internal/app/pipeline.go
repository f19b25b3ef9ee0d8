package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"quantlab/internal/backtest"
	"quantlab/internal/config"
	"quantlab/internal/estimate"
	"quantlab/internal/indicator"
	"quantlab/internal/market"
	"quantlab/internal/monitor"
	"quantlab/internal/montecarlo"
	"quantlab/internal/process"
	"quantlab/internal/regime"
	"quantlab/internal/rng"
	"quantlab/internal/sizing"
	"quantlab/internal/store"
)

const (
	gbmSeriesFile     = "sample_gbm.csv"
	jumpSeriesFile    = "sample_jumpdiff.csv"
	regimeSummaryFile = "regime_summary.json"
	mcPathsFile       = "mc_paths.parquet"
	mcSummaryFile     = "mc_summary.json"
	backtestFile      = "backtest_summary.json"
	historyFile       = "backtest_history.csv"
	eoqFile           = "eoq_trade_size.json"
)

// Report 汇总一次流水线运行的主要结果。
type Report struct {
	RunID      string
	Seed       uint64
	Estimate   estimate.Estimate
	Regime     regime.Summary
	MonteCarlo montecarlo.Summary
	Backtest   backtest.Result
	EOQ        float64
	Artifacts  []string
}

type pipeline struct {
	cfg        *config.Config
	runs       *store.Runs
	monitor    *monitor.Service
	generator  *process.Generator
	simulator  *montecarlo.Simulator
	classifier regime.Classifier
	signals    backtest.SignalSource
	logger     *zap.Logger
}

func newPipeline(cfg *config.Config, runs *store.Runs, monitorSvc *monitor.Service, logger *zap.Logger) (*pipeline, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	cross, err := indicator.NewMovingAverageCross(cfg.Signal.Window, indicator.AverageKind(strings.ToLower(cfg.Signal.Kind)))
	if err != nil {
		return nil, fmt.Errorf("初始化信号失败: %w", err)
	}
	return &pipeline{
		cfg:        cfg,
		runs:       runs,
		monitor:    monitorSvc,
		generator:  process.NewGenerator(cfg.Generator.StartDate, logger),
		simulator:  montecarlo.NewSimulator(cfg.MonteCarlo.Workers, logger),
		classifier: regime.VolatilityClassifier{Window: cfg.Regime.Window},
		signals:    cross,
		logger:     logger,
	}, nil
}

// Execute 依次完成生成、估计、状态划分、模拟、回测与持久化。
func (p *pipeline) Execute(ctx context.Context) (Report, error) {
	var report Report

	seed := rng.RandomSeed()
	if p.cfg.App.Seed != nil {
		seed = *p.cfg.App.Seed
		p.logger.Info("使用固定随机种子", zap.Uint64("seed", seed))
	} else {
		p.logger.Info("未配置随机种子，本次运行结果不可复现", zap.Uint64("seed", seed))
	}
	report.Seed = seed

	for _, dir := range []string{p.cfg.Output.Dir, p.cfg.Output.DataDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return Report{}, fmt.Errorf("创建目录 %q 失败: %w", dir, err)
		}
	}

	// 1) 合成价格并写入 CSV
	base := process.Params{
		StartPrice:     p.cfg.Generator.StartPrice,
		Drift:          p.cfg.Generator.Drift,
		Volatility:     p.cfg.Generator.Volatility,
		JumpIntensity:  p.cfg.Jump.Intensity,
		JumpMean:       p.cfg.Jump.Mean,
		JumpVolatility: p.cfg.Jump.Volatility,
	}
	gbmPath := filepath.Join(p.cfg.Output.DataDir, gbmSeriesFile)
	gbm, err := p.generate(process.ModelGBM, base, seed, gbmPath)
	if err != nil {
		return Report{}, err
	}
	jumpPath := filepath.Join(p.cfg.Output.DataDir, jumpSeriesFile)
	jump, err := p.generate(process.ModelJumpDiffusion, base, seed, jumpPath)
	if err != nil {
		return Report{}, err
	}
	report.Artifacts = append(report.Artifacts, gbmPath, jumpPath)

	// 2) 从 CSV 读回 GBM 序列作为后续分析的输入
	series, err := readSeries(gbmPath)
	if err != nil {
		return Report{}, err
	}

	// 3) 参数估计
	est, err := estimate.FromSeries(series)
	if err != nil {
		return Report{}, fmt.Errorf("参数估计失败: %w", err)
	}
	report.Estimate = est
	p.logger.Info("参数估计完成",
		zap.Float64("drift", est.Drift),
		zap.Float64("volatility", est.Volatility),
		zap.Int("samples", est.Samples),
	)

	// 4) 收益率状态划分
	states, err := p.classifier.Classify(series.LogReturns())
	if err != nil {
		return Report{}, fmt.Errorf("状态划分失败: %w", err)
	}
	report.Regime = regime.Summarize(states)
	regimePath := filepath.Join(p.cfg.Output.Dir, regimeSummaryFile)
	if err := writeJSON(regimePath, report.Regime); err != nil {
		return Report{}, err
	}
	report.Artifacts = append(report.Artifacts, regimePath)

	// 5) 蒙特卡洛路径
	ensemble, err := p.simulator.Simulate(ctx, montecarlo.Request{
		StartPrice: series[0].Price,
		Drift:      est.Drift,
		Volatility: est.Volatility,
		NumSteps:   p.cfg.MonteCarlo.Steps,
		NumPaths:   p.cfg.MonteCarlo.Paths,
		Seed:       &seed,
	})
	if err != nil {
		return Report{}, fmt.Errorf("蒙特卡洛模拟失败: %w", err)
	}
	report.MonteCarlo = ensemble.Summarize()
	pathsPath := filepath.Join(p.cfg.Output.Dir, mcPathsFile)
	if err := store.WritePaths(pathsPath, ensemble); err != nil {
		return Report{}, err
	}
	mcPath := filepath.Join(p.cfg.Output.Dir, mcSummaryFile)
	if err := writeJSON(mcPath, report.MonteCarlo); err != nil {
		return Report{}, err
	}
	report.Artifacts = append(report.Artifacts, pathsPath, mcPath)

	// 6) 均线信号回测
	result, err := p.backtest(series)
	if err != nil {
		return Report{}, err
	}
	report.Backtest = result
	summaryPath := filepath.Join(p.cfg.Output.Dir, backtestFile)
	if err := writeJSON(summaryPath, backtestSummary{
		Initial:  result.InitialCash,
		FinalNAV: result.FinalNAV,
		PnL:      result.PnL,
		Metrics:  result.Metrics,
	}); err != nil {
		return Report{}, err
	}
	historyPath := filepath.Join(p.cfg.Output.Dir, historyFile)
	if err := writeHistoryCSV(historyPath, result.History); err != nil {
		return Report{}, err
	}
	report.Artifacts = append(report.Artifacts, summaryPath, historyPath)

	// 7) EOQ 交易规模
	q, err := sizing.EOQ(p.cfg.Sizing.ExpectedVolume, p.cfg.Sizing.TransactionCost, p.cfg.Sizing.HoldingCost)
	if err != nil {
		return Report{}, fmt.Errorf("计算 EOQ 失败: %w", err)
	}
	report.EOQ = q
	eoqPath := filepath.Join(p.cfg.Output.Dir, eoqFile)
	if err := writeJSON(eoqPath, map[string]float64{"eoq_trade_size": q}); err != nil {
		return Report{}, err
	}
	report.Artifacts = append(report.Artifacts, eoqPath)

	// 8) 持久化运行记录与监控事件
	rec := &store.RunRecord{
		Seed:     &seed,
		Estimate: est,
		EOQ:      q,
		Backtest: result,
	}
	if err := p.runs.Save(ctx, rec); err != nil {
		return Report{}, err
	}
	report.RunID = rec.ID

	p.monitor.RecordSeries(ctx, rec.ID, string(process.ModelGBM), gbm)
	p.monitor.RecordSeries(ctx, rec.ID, string(process.ModelJumpDiffusion), jump)
	p.monitor.RecordEstimate(ctx, rec.ID, est)
	p.monitor.RecordRegime(ctx, rec.ID, report.Regime)
	p.monitor.RecordMonteCarlo(ctx, rec.ID, ensemble.Seed, report.MonteCarlo)
	p.monitor.RecordBacktest(ctx, rec.ID, result)

	return report, nil
}

func (p *pipeline) generate(model process.Model, params process.Params, seed uint64, path string) (market.PriceSeries, error) {
	series, err := p.generator.Generate(model, params, p.cfg.Generator.Days, rng.New(seed))
	if err != nil {
		return nil, fmt.Errorf("生成 %s 序列失败: %w", model, err)
	}
	if err := writeSeries(path, series); err != nil {
		return nil, err
	}
	p.logger.Info("价格序列已保存",
		zap.String("model", string(model)),
		zap.String("path", path),
		zap.Int("days", series.Len()),
	)
	return series, nil
}

func (p *pipeline) backtest(series market.PriceSeries) (backtest.Result, error) {
	signals, err := p.signals.Signals(series)
	if err != nil {
		return backtest.Result{}, fmt.Errorf("生成信号失败: %w", err)
	}

	engine, err := backtest.NewEngine(backtest.Config{
		Symbol:      p.cfg.Backtest.Symbol,
		InitialCash: p.cfg.Backtest.InitialCash,
	}, p.logger)
	if err != nil {
		return backtest.Result{}, err
	}
	result, err := engine.Run(series, signals)
	if err != nil {
		return backtest.Result{}, fmt.Errorf("回测失败: %w", err)
	}
	return result, nil
}
