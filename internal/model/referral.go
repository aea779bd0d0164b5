package model

import (
	"github.com/shopspring/decimal"
)

// Referral 推荐关系（不可变）
type Referral struct {
	ID             int64  `json:"id"`
	ReferrerWallet string `json:"referrerWallet"`
	ReferredWallet string `json:"referredWallet"`
	ReferredName   string `json:"referredName"`
	Code           string `json:"code"`
	PointsAwarded  int64  `json:"pointsAwarded"`
	CompletedAt    int64  `json:"completedAt"`
}

// ReferralTransactionType 积分流水类型
type ReferralTransactionType string

const (
	ReferralTransactionEarned    ReferralTransactionType = "earned"    // 推荐获得
	ReferralTransactionConverted ReferralTransactionType = "converted" // 兑换为代币
)

// ReferralTransaction 积分流水（只追加）
type ReferralTransaction struct {
	ID             int64                   `json:"id"`
	Type           ReferralTransactionType `json:"type"`
	Wallet         string                  `json:"wallet"`
	Points         int64                   `json:"points"`
	CtsiAmount     decimal.NullDecimal     `json:"ctsiAmount"`
	ConversionRate decimal.NullDecimal     `json:"conversionRate"`
	ReferralID     int64                   `json:"referralId,omitempty"`
	Timestamp      int64                   `json:"timestamp"`
}
