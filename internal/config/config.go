package config

import (
	"errors"
	"fmt"
	"strings"

	mapstructure "github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

const (
	defaultConfigPath = "configs/config.yaml"
	envPrefix         = "quantlab"
	dateLayout        = "2006-01-02"
)

// Load 读取配置文件并结合环境变量返回 Config。
func Load(path string) (*Config, error) {
	v := viper.New()

	if path == "" {
		path = defaultConfigPath
	}

	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetEnvPrefix(envPrefix)
	replacer := strings.NewReplacer(".", "_")
	v.SetEnvKeyReplacer(replacer)
	v.AutomaticEnv()

	setDefaults(v)
	// seed 没有默认值，需要显式绑定才能从环境变量读取
	if err := v.BindEnv("app.seed"); err != nil {
		return nil, fmt.Errorf("绑定环境变量失败: %w", err)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil, fmt.Errorf("未找到配置文件 %q: %w", path, err)
		}
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, decodeHook()); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.environment", "development")

	v.SetDefault("generator.start_price", 100.0)
	v.SetDefault("generator.drift", 0.0008)
	v.SetDefault("generator.volatility", 0.015)
	v.SetDefault("generator.days", 252)
	v.SetDefault("generator.start_date", "2022-01-01")

	v.SetDefault("jump.intensity", 0.02)
	v.SetDefault("jump.mean", -0.03)
	v.SetDefault("jump.volatility", 0.07)

	v.SetDefault("monte_carlo.paths", 100)
	v.SetDefault("monte_carlo.steps", 252)
	v.SetDefault("monte_carlo.workers", 0)

	v.SetDefault("backtest.symbol", "SYNTH")
	v.SetDefault("backtest.initial_cash", 100000.0)

	v.SetDefault("signal.window", 20)
	v.SetDefault("signal.kind", "sma")

	v.SetDefault("regime.window", 20)

	v.SetDefault("sizing.expected_volume", 10000.0)
	v.SetDefault("sizing.transaction_cost", 10.0)
	v.SetDefault("sizing.holding_cost", 0.1)

	v.SetDefault("output.dir", "results")
	v.SetDefault("output.data_dir", "data")

	v.SetDefault("database.path", "data/quantlab.db")
	v.SetDefault("database.max_open_conns", 4)
	v.SetDefault("database.max_idle_conns", 4)
	v.SetDefault("database.conn_max_lifetime", "1h")
	v.SetDefault("database.in_memory", false)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.encoding", "console")
	v.SetDefault("logging.development", true)
	v.SetDefault("logging.output_paths", []string{"stdout"})
	v.SetDefault("logging.error_output_paths", []string{"stderr"})

	v.SetDefault("monitor.port", 0)
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToTimeHookFunc(dateLayout),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}
