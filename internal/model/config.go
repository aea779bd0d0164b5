package model

import (
	"github.com/shopspring/decimal"
)

// Config 全局账本配置（单例）
type Config struct {
	Admins               []string          `json:"admins"`
	CartesiTokenAddress  string            `json:"cartesiTokenAddress"`
	VaultContractAddress string            `json:"vaultContractAddress"`
	ServerAddress        string            `json:"serverAddress"`
	RelayerAddress       string            `json:"relayerAddress"`
	DappAddress          string            `json:"dappAddress"`
	NFTContracts         map[string]string `json:"nftContracts"`

	// 分配比例（0-100）
	ArtistPercentage int `json:"artistPercentage"`
	PoolPercentage   int `json:"poolPercentage"`
	FeePercentage    int `json:"feePercentage"`

	// 资金池
	VaultBalance                decimal.Decimal `json:"vaultBalance"`
	LastVaultBalanceDistributed decimal.Decimal `json:"lastVaultBalanceDistributed"`
	FeeBalance                  decimal.Decimal `json:"feeBalance"`
	PoolBalance                 decimal.Decimal `json:"poolBalance"`

	// 积分与兑换
	ReferralPoints     int64           `json:"referralPoints"`
	ConversionRate     decimal.Decimal `json:"conversionRate"`
	MinConversion      int64           `json:"minConversion"`
	MaxDailyConversion int64           `json:"maxDailyConversion"`

	CreatedAt int64 `json:"createdAt"`
	UpdatedAt int64 `json:"updatedAt"`
}

// Undistributed 尚未分配的金库余额
func (c *Config) Undistributed() decimal.Decimal {
	return c.VaultBalance.Sub(c.LastVaultBalanceDistributed)
}

// Clone 深拷贝，用于只读查询
func (c *Config) Clone() *Config {
	if c == nil {
		return nil
	}
	cp := *c
	cp.Admins = append([]string(nil), c.Admins...)
	cp.NFTContracts = make(map[string]string, len(c.NFTContracts))
	for k, v := range c.NFTContracts {
		cp.NFTContracts[k] = v
	}
	return &cp
}
