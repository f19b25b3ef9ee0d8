package process

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"go.uber.org/multierr"

	"quantlab/internal/market"
)

// Model 标识价格过程类型。
type Model string

const (
	ModelGBM           Model = "gbm"
	ModelJumpDiffusion Model = "jump_diffusion"
)

// ParseModel 解析模型名称，大小写不敏感。
func ParseModel(name string) (Model, error) {
	switch Model(strings.ToLower(strings.TrimSpace(name))) {
	case ModelGBM:
		return ModelGBM, nil
	case ModelJumpDiffusion, "jump", "merton":
		return ModelJumpDiffusion, nil
	default:
		return "", fmt.Errorf("process: 未知模型 %q: %w", name, market.ErrInvalidParameter)
	}
}

// Params 为价格过程参数，漂移与波动率均为单步对数收益率尺度。
type Params struct {
	StartPrice     float64 `json:"start_price"`
	Drift          float64 `json:"drift"`
	Volatility     float64 `json:"volatility"`
	JumpIntensity  float64 `json:"jump_intensity"`
	JumpMean       float64 `json:"jump_mean"`
	JumpVolatility float64 `json:"jump_volatility"`
}

// Validate 校验参数，跳跃相关字段仅在跳跃扩散模型下检查。
func (p Params) Validate(model Model) error {
	var err error

	if !market.ValidPrice(p.StartPrice) {
		err = multierr.Append(err, fmt.Errorf("start_price 必须为有限正数，实际 %v", p.StartPrice))
	}
	if !finite(p.Drift) {
		err = multierr.Append(err, errors.New("drift 必须为有限值"))
	}
	if !finite(p.Volatility) || p.Volatility < 0 {
		err = multierr.Append(err, fmt.Errorf("volatility 不能为负，实际 %v", p.Volatility))
	}

	switch model {
	case ModelGBM:
	case ModelJumpDiffusion:
		if !finite(p.JumpIntensity) || p.JumpIntensity < 0 || p.JumpIntensity > 1 {
			err = multierr.Append(err, fmt.Errorf("jump_intensity 必须位于[0,1]，实际 %v", p.JumpIntensity))
		}
		if !finite(p.JumpMean) {
			err = multierr.Append(err, errors.New("jump_mean 必须为有限值"))
		}
		if !finite(p.JumpVolatility) || p.JumpVolatility < 0 {
			err = multierr.Append(err, fmt.Errorf("jump_volatility 不能为负，实际 %v", p.JumpVolatility))
		}
	default:
		err = multierr.Append(err, fmt.Errorf("未知模型 %q", model))
	}

	if err != nil {
		return fmt.Errorf("process: %w: %w", market.ErrInvalidParameter, err)
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
