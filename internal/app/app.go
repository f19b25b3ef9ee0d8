package app

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"quantlab/internal/config"
	"quantlab/internal/monitor"
	"quantlab/internal/store"
)

// App 聚合核心依赖并驱动系统生命周期。
type App struct {
	cfg    *config.Config
	logger *zap.Logger
	store  *store.Store
}

// New 创建 App 实例。
func New(cfg *config.Config, logger *zap.Logger, store *store.Store) *App {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &App{
		cfg:    cfg,
		logger: logger,
		store:  store,
	}
}

// Run 执行一次完整流水线。serve 为 true 且配置了监控端口时，
// 流水线结束后保持监控接口直到 ctx 取消。
func (a *App) Run(ctx context.Context, serve bool) error {
	a.logger.Info("系统已初始化",
		zap.String("environment", a.cfg.App.Environment),
		zap.String("output_dir", a.cfg.Output.Dir),
	)

	monitorSvc, err := monitor.NewService(a.store, a.logger)
	if err != nil {
		return fmt.Errorf("初始化监控服务失败: %w", err)
	}
	runs, err := store.NewRuns(a.store)
	if err != nil {
		return fmt.Errorf("初始化运行记录失败: %w", err)
	}

	p, err := newPipeline(a.cfg, runs, monitorSvc, a.logger)
	if err != nil {
		return err
	}
	report, err := p.Execute(ctx)
	if err != nil {
		monitorSvc.RecordError(ctx, "", "流水线执行失败", err, nil)
		return err
	}

	a.logger.Info("流水线执行完成",
		zap.String("run_id", report.RunID),
		zap.Uint64("seed", report.Seed),
		zap.Float64("final_nav", report.Backtest.FinalNAV),
		zap.Float64("pnl", report.Backtest.PnL),
		zap.Strings("artifacts", report.Artifacts),
	)

	if !serve {
		return nil
	}
	if a.cfg.Monitor.Port <= 0 {
		a.logger.Warn("未配置监控端口，跳过监控接口")
		return nil
	}

	if err := startMonitorServer(ctx, monitorSvc, runs, a.cfg.Monitor.Port, a.logger); err != nil {
		return err
	}

	<-ctx.Done()
	if err := ctx.Err(); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("系统异常退出: %w", err)
	}
	a.logger.Info("系统收到退出信号，正在停止")
	return nil
}
