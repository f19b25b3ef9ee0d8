package backtest

import "math"

// positionState 为仓位状态机的两个状态。
type positionState int

const (
	stateFlat positionState = iota
	stateLong
)

// portfolio 为单次回测私有的账户状态。
type portfolio struct {
	cash     float64
	quantity int64
}

func newPortfolio(cash float64) *portfolio {
	return &portfolio{cash: cash}
}

func (p *portfolio) state() positionState {
	if p.quantity > 0 {
		return stateLong
	}
	return stateFlat
}

// buy 以全部现金买入最大整数股，买不起一股时返回0且不改变状态。
func (p *portfolio) buy(price float64) int64 {
	qty := int64(math.Floor(p.cash / price))
	// 浮点除法可能向上舍入，保证不超支
	for qty > 0 && float64(qty)*price > p.cash {
		qty--
	}
	if qty <= 0 {
		return 0
	}
	p.cash -= float64(qty) * price
	p.quantity = qty
	return qty
}

// sell 卖出全部持仓并返回卖出数量。
func (p *portfolio) sell(price float64) int64 {
	qty := p.quantity
	p.cash += float64(qty) * price
	p.quantity = 0
	return qty
}

func (p *portfolio) nav(price float64) float64 {
	return p.cash + float64(p.quantity)*price
}
