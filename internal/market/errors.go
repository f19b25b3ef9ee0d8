package market

import "errors"

var (
	// ErrInvalidParameter 表示模型或运行参数非法，在任何计算开始前返回。
	ErrInvalidParameter = errors.New("invalid parameter")
	// ErrInsufficientData 表示序列长度不足以计算收益率。
	ErrInsufficientData = errors.New("insufficient data")
	// ErrInvalidInput 表示输入序列中存在非法价格或日期。
	ErrInvalidInput = errors.New("invalid input")
)
