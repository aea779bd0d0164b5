package chain

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

// TokenDecimals 结算代币与以太币的精度
const TokenDecimals = 18

var baseUnitScale = decimal.New(1, TokenDecimals)

// ToBaseUnits 将代币单位金额转换为最小单位（wei）
func ToBaseUnits(amount decimal.Decimal) (*big.Int, error) {
	scaled := amount.Mul(baseUnitScale)
	if !scaled.Equal(scaled.Truncate(0)) {
		return nil, fmt.Errorf("amount %s has more than %d decimal places", amount.String(), TokenDecimals)
	}
	return scaled.BigInt(), nil
}

// FromBaseUnits 将最小单位转换为代币单位金额
func FromBaseUnits(value *big.Int) decimal.Decimal {
	if value == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(value, -TokenDecimals)
}
