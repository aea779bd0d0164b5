package model

import (
	"github.com/shopspring/decimal"
)

// SubscriptionPlan 订阅套餐
type SubscriptionPlan struct {
	ID        int64           `json:"id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`    // 结算代币单位
	Duration  int64           `json:"duration"` // 秒
	Active    bool            `json:"active"`
	CreatedAt int64           `json:"createdAt"`
}
