package model

import (
	"math/big"
)

// AssetKind 资产类型
type AssetKind string

const (
	AssetEther   AssetKind = "ether"
	AssetERC20   AssetKind = "erc20"
	AssetERC721  AssetKind = "erc721"
	AssetERC1155 AssetKind = "erc1155"
)

// Deposit portal 存入记录
type Deposit struct {
	ID        int64     `json:"id"`
	Kind      AssetKind `json:"kind"`
	Wallet    string    `json:"wallet"`
	Token     string    `json:"token,omitempty"`
	TokenIDs  []string  `json:"tokenIds,omitempty"`
	Amounts   []string  `json:"amounts,omitempty"` // 最小单位
	Timestamp int64     `json:"timestamp"`
}

// WithdrawalRecord 提现审计记录
type WithdrawalRecord struct {
	ID        int64     `json:"id"`
	Kind      AssetKind `json:"kind"`
	Wallet    string    `json:"wallet"`
	Token     string    `json:"token,omitempty"`
	Amount    string    `json:"amount,omitempty"` // 代币单位
	TokenID   string    `json:"tokenId,omitempty"`
	Timestamp int64     `json:"timestamp"`
}

// WalletBalance 钱包在 portal 资产上的余额（最小单位）
type WalletBalance struct {
	Ether   *big.Int                       `json:"ether"`
	ERC20   map[string]*big.Int            `json:"erc20"`
	ERC721  map[string]map[string]bool     `json:"erc721"`  // token -> tokenId -> owned
	ERC1155 map[string]map[string]*big.Int `json:"erc1155"` // token -> tokenId -> amount
}

// NewWalletBalance 创建空余额
func NewWalletBalance() *WalletBalance {
	return &WalletBalance{
		Ether:   new(big.Int),
		ERC20:   make(map[string]*big.Int),
		ERC721:  make(map[string]map[string]bool),
		ERC1155: make(map[string]map[string]*big.Int),
	}
}

// Clone 深拷贝
func (w *WalletBalance) Clone() *WalletBalance {
	cp := NewWalletBalance()
	if w == nil {
		return cp
	}
	cp.Ether.Set(w.Ether)
	for token, v := range w.ERC20 {
		cp.ERC20[token] = new(big.Int).Set(v)
	}
	for token, ids := range w.ERC721 {
		cp.ERC721[token] = make(map[string]bool, len(ids))
		for id, owned := range ids {
			cp.ERC721[token][id] = owned
		}
	}
	for token, ids := range w.ERC1155 {
		cp.ERC1155[token] = make(map[string]*big.Int, len(ids))
		for id, v := range ids {
			cp.ERC1155[token][id] = new(big.Int).Set(v)
		}
	}
	return cp
}
