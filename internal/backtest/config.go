package backtest

// Config 定义回测参数。
type Config struct {
	Symbol      string  // 标的名称，仅用于日志
	InitialCash float64 // 初始现金，允许为0
}

func (c *Config) normalize() Config {
	cfg := *c
	if cfg.Symbol == "" {
		cfg.Symbol = "SYNTH"
	}
	return cfg
}
