// Package sizing 计算交易规模。
package sizing

import (
	"fmt"
	"math"

	"quantlab/internal/market"
)

// EOQ 返回经济订货批量 sqrt(2·D·S/H)：D 为单期预期成交量，S 为单笔交易成本，
// H 为单位持有成本。
func EOQ(expectedVolume, transactionCost, holdingCost float64) (float64, error) {
	if !(holdingCost > 0) || math.IsInf(holdingCost, 0) {
		return 0, fmt.Errorf("sizing: holding_cost 必须大于0，实际 %v: %w", holdingCost, market.ErrInvalidParameter)
	}
	if !(expectedVolume >= 0) || !(transactionCost >= 0) {
		return 0, fmt.Errorf("sizing: expected_volume 与 transaction_cost 不能为负: %w", market.ErrInvalidParameter)
	}
	return math.Sqrt(2 * expectedVolume * transactionCost / holdingCost), nil
}
