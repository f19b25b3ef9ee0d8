package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/multierr"
)

// Config 聚合了系统运行所需的全部配置项。
type Config struct {
	App        AppConfig        `mapstructure:"app"`
	Generator  GeneratorConfig  `mapstructure:"generator"`
	Jump       JumpConfig       `mapstructure:"jump"`
	MonteCarlo MonteCarloConfig `mapstructure:"monte_carlo"`
	Backtest   BacktestConfig   `mapstructure:"backtest"`
	Signal     SignalConfig     `mapstructure:"signal"`
	Regime     RegimeConfig     `mapstructure:"regime"`
	Sizing     SizingConfig     `mapstructure:"sizing"`
	Output     OutputConfig     `mapstructure:"output"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Monitor    MonitorConfig    `mapstructure:"monitor"`
}

// AppConfig 控制应用级参数。
type AppConfig struct {
	Environment string `mapstructure:"environment"`
	// Seed 为空时每次运行使用随机种子。
	Seed *uint64 `mapstructure:"seed"`
}

// GeneratorConfig 描述合成价格序列的 GBM 参数，漂移与波动率为日尺度。
type GeneratorConfig struct {
	StartPrice float64   `mapstructure:"start_price"`
	Drift      float64   `mapstructure:"drift"`
	Volatility float64   `mapstructure:"volatility"`
	Days       int       `mapstructure:"days"`
	StartDate  time.Time `mapstructure:"start_date"`
}

// JumpConfig 描述跳跃扩散模型的跳跃部分。
type JumpConfig struct {
	Intensity  float64 `mapstructure:"intensity"`
	Mean       float64 `mapstructure:"mean"`
	Volatility float64 `mapstructure:"volatility"`
}

// MonteCarloConfig 控制路径模拟规模。
type MonteCarloConfig struct {
	Paths   int `mapstructure:"paths"`
	Steps   int `mapstructure:"steps"`
	Workers int `mapstructure:"workers"`
}

// BacktestConfig 控制回测账户。
type BacktestConfig struct {
	Symbol      string  `mapstructure:"symbol"`
	InitialCash float64 `mapstructure:"initial_cash"`
}

// SignalConfig 控制均线信号。
type SignalConfig struct {
	Window int    `mapstructure:"window"`
	Kind   string `mapstructure:"kind"`
}

// RegimeConfig 控制波动率状态划分。
type RegimeConfig struct {
	Window int `mapstructure:"window"`
}

// SizingConfig 为 EOQ 交易规模输入。
type SizingConfig struct {
	ExpectedVolume  float64 `mapstructure:"expected_volume"`
	TransactionCost float64 `mapstructure:"transaction_cost"`
	HoldingCost     float64 `mapstructure:"holding_cost"`
}

// OutputConfig 指定产出文件目录。
type OutputConfig struct {
	Dir     string `mapstructure:"dir"`
	DataDir string `mapstructure:"data_dir"`
}

// DatabaseConfig 管理数据库连接。
type DatabaseConfig struct {
	Path            string        `mapstructure:"path"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	InMemory        bool          `mapstructure:"in_memory"`
}

// LoggingConfig 控制日志输出。
type LoggingConfig struct {
	Level            string   `mapstructure:"level"`
	Encoding         string   `mapstructure:"encoding"`
	Development      bool     `mapstructure:"development"`
	OutputPaths      []string `mapstructure:"output_paths"`
	ErrorOutputPaths []string `mapstructure:"error_output_paths"`
}

// MonitorConfig 控制监控接口，端口为0时不启动。
type MonitorConfig struct {
	Port int `mapstructure:"port"`
}

// Validate 对配置进行基本校验。
func (c *Config) Validate() error {
	var err error

	if c.App.Environment == "" {
		err = multierr.Append(err, errors.New("app.environment 不能为空"))
	}
	if c.Generator.StartPrice <= 0 {
		err = multierr.Append(err, errors.New("generator.start_price 必须大于0"))
	}
	if c.Generator.Volatility < 0 {
		err = multierr.Append(err, errors.New("generator.volatility 不能为负"))
	}
	if c.Generator.Days < 2 {
		err = multierr.Append(err, errors.New("generator.days 必须不小于2"))
	}
	if c.Generator.StartDate.IsZero() {
		err = multierr.Append(err, errors.New("generator.start_date 不能为空"))
	}
	if c.Jump.Intensity < 0 || c.Jump.Intensity > 1 {
		err = multierr.Append(err, errors.New("jump.intensity 必须位于[0,1]"))
	}
	if c.Jump.Volatility < 0 {
		err = multierr.Append(err, errors.New("jump.volatility 不能为负"))
	}
	if c.MonteCarlo.Paths <= 0 {
		err = multierr.Append(err, errors.New("monte_carlo.paths 必须大于0"))
	}
	if c.MonteCarlo.Steps <= 1 {
		err = multierr.Append(err, errors.New("monte_carlo.steps 必须大于1"))
	}
	if c.MonteCarlo.Workers < 0 {
		err = multierr.Append(err, errors.New("monte_carlo.workers 不能为负"))
	}
	if c.Backtest.InitialCash < 0 {
		err = multierr.Append(err, errors.New("backtest.initial_cash 不能为负"))
	}
	if c.Signal.Window < 2 {
		err = multierr.Append(err, errors.New("signal.window 必须不小于2"))
	}
	switch strings.ToLower(c.Signal.Kind) {
	case "sma", "ema":
	default:
		err = multierr.Append(err, fmt.Errorf("signal.kind 仅支持 sma/ema，实际 %q", c.Signal.Kind))
	}
	if c.Regime.Window < 2 {
		err = multierr.Append(err, errors.New("regime.window 必须不小于2"))
	}
	if c.Sizing.HoldingCost <= 0 {
		err = multierr.Append(err, errors.New("sizing.holding_cost 必须大于0"))
	}
	if c.Sizing.ExpectedVolume < 0 || c.Sizing.TransactionCost < 0 {
		err = multierr.Append(err, errors.New("sizing.expected_volume 与 transaction_cost 不能为负"))
	}
	if c.Output.Dir == "" {
		err = multierr.Append(err, errors.New("output.dir 不能为空"))
	}
	if c.Output.DataDir == "" {
		err = multierr.Append(err, errors.New("output.data_dir 不能为空"))
	}
	if c.Database.Path == "" && !c.Database.InMemory {
		err = multierr.Append(err, errors.New("database.path 不能为空"))
	}
	if c.Database.MaxOpenConns <= 0 {
		err = multierr.Append(err, errors.New("database.max_open_conns 必须大于0"))
	}
	if c.Database.MaxIdleConns < 0 {
		err = multierr.Append(err, errors.New("database.max_idle_conns 不能为负"))
	}
	if c.Database.ConnMaxLifetime < 0 {
		err = multierr.Append(err, errors.New("database.conn_max_lifetime 不能为负"))
	}
	if c.Logging.Level == "" {
		err = multierr.Append(err, errors.New("logging.level 不能为空"))
	}
	if c.Logging.Encoding == "" {
		err = multierr.Append(err, errors.New("logging.encoding 不能为空"))
	}
	if len(c.Logging.OutputPaths) == 0 {
		err = multierr.Append(err, errors.New("logging.output_paths 至少包含一个输出目标"))
	}
	if len(c.Logging.ErrorOutputPaths) == 0 {
		err = multierr.Append(err, errors.New("logging.error_output_paths 至少包含一个输出目标"))
	}
	if c.Monitor.Port < 0 || c.Monitor.Port > 65535 {
		err = multierr.Append(err, errors.New("monitor.port 必须位于[0,65535]"))
	}

	if err != nil {
		return fmt.Errorf("配置校验失败: %w", err)
	}

	return nil
}
