package logic

import (
	"math/big"

	"github.com/Timilehin-bello/melodious-sub000/internal/chain"
	"github.com/Timilehin-bello/melodious-sub000/internal/logger"
	"github.com/Timilehin-bello/melodious-sub000/internal/model"
	"github.com/Timilehin-bello/melodious-sub000/internal/portal"
	"github.com/Timilehin-bello/melodious-sub000/internal/store"
	"github.com/shopspring/decimal"
)

// DepositTarget ERC20 存入的记账去向
type DepositTarget string

const (
	DepositToVault  DepositTarget = "vault"
	DepositToUser   DepositTarget = "user"
	DepositToWallet DepositTarget = "wallet"
)

// ERC20Credit ERC20 存入的记账结果
type ERC20Credit struct {
	Deposit *model.Deposit  `json:"deposit"`
	Target  DepositTarget   `json:"target"`
	Amount  decimal.Decimal `json:"amount"`
}

// DepositLogic portal 存入记账
type DepositLogic struct {
	store *store.Store
}

// NewDepositLogic 创建存入业务逻辑
func NewDepositLogic(s *store.Store) *DepositLogic {
	return &DepositLogic{store: s}
}

// CreditEther 以太币存入计入钱包余额
func (l *DepositLogic) CreditEther(d *portal.EtherDeposit, timestamp int64) *model.Deposit {
	w := l.store.MutableWallet(d.Sender)
	w.Ether.Add(w.Ether, d.Value)

	rec := l.store.AddDeposit(&model.Deposit{
		Kind:      model.AssetEther,
		Wallet:    d.Sender,
		Amounts:   []string{d.Value.String()},
		Timestamp: timestamp,
	})
	logger.Info("Ether deposit %d: %s wei from %s", rec.ID, d.Value.String(), rec.Wallet)
	return copyDeposit(rec)
}

// CreditERC20 ERC20 存入：金库合约存入结算代币计入金库，注册用户存入结算代币计入 CtsiBalance，其余计入钱包
func (l *DepositLogic) CreditERC20(d *portal.ERC20Deposit, timestamp int64) (*ERC20Credit, error) {
	if !d.Success {
		return nil, Domainf("erc20 deposit from %s of token %s reported failure", d.Sender, d.Token)
	}

	token := chain.NormalizeAddress(d.Token)
	amount := chain.FromBaseUnits(d.Amount)
	target := DepositToWallet

	cfg := l.store.MutableConfig()
	if cfg != nil && chain.SameAddress(cfg.CartesiTokenAddress, token) {
		if chain.SameAddress(cfg.VaultContractAddress, d.Sender) {
			target = DepositToVault
		} else if l.store.MutableUser(d.Sender) != nil {
			target = DepositToUser
		}
	}

	switch target {
	case DepositToVault:
		cfg.VaultBalance = cfg.VaultBalance.Add(amount)
		cfg.UpdatedAt = timestamp
	case DepositToUser:
		user := l.store.MutableUser(d.Sender)
		user.CtsiBalance = user.CtsiBalance.Add(amount)
		user.UpdatedAt = timestamp
	default:
		w := l.store.MutableWallet(d.Sender)
		if w.ERC20[token] == nil {
			w.ERC20[token] = new(big.Int)
		}
		w.ERC20[token].Add(w.ERC20[token], d.Amount)
	}

	rec := l.store.AddDeposit(&model.Deposit{
		Kind:      model.AssetERC20,
		Wallet:    d.Sender,
		Token:     token,
		Amounts:   []string{d.Amount.String()},
		Timestamp: timestamp,
	})
	logger.Info("ERC20 deposit %d: %s of %s from %s credited to %s", rec.ID, amount.String(), token, rec.Wallet, target)
	return &ERC20Credit{Deposit: copyDeposit(rec), Target: target, Amount: amount}, nil
}

// CreditERC721 记录 NFT 归属
func (l *DepositLogic) CreditERC721(d *portal.ERC721Deposit, timestamp int64) *model.Deposit {
	token := chain.NormalizeAddress(d.Token)
	w := l.store.MutableWallet(d.Sender)
	if w.ERC721[token] == nil {
		w.ERC721[token] = make(map[string]bool)
	}
	w.ERC721[token][d.TokenID.String()] = true

	rec := l.store.AddDeposit(&model.Deposit{
		Kind:      model.AssetERC721,
		Wallet:    d.Sender,
		Token:     token,
		TokenIDs:  []string{d.TokenID.String()},
		Timestamp: timestamp,
	})
	logger.Info("ERC721 deposit %d: token %s #%s from %s", rec.ID, token, d.TokenID.String(), rec.Wallet)
	return copyDeposit(rec)
}

// CreditERC1155 ERC1155 单笔或批量存入
func (l *DepositLogic) CreditERC1155(d *portal.ERC1155Deposit, timestamp int64) (*model.Deposit, error) {
	if len(d.TokenIDs) != len(d.Values) {
		return nil, Validationf("erc1155 deposit has %d ids but %d values", len(d.TokenIDs), len(d.Values))
	}

	token := chain.NormalizeAddress(d.Token)
	w := l.store.MutableWallet(d.Sender)
	if w.ERC1155[token] == nil {
		w.ERC1155[token] = make(map[string]*big.Int)
	}

	ids := make([]string, len(d.TokenIDs))
	amounts := make([]string, len(d.Values))
	for i, id := range d.TokenIDs {
		key := id.String()
		if w.ERC1155[token][key] == nil {
			w.ERC1155[token][key] = new(big.Int)
		}
		w.ERC1155[token][key].Add(w.ERC1155[token][key], d.Values[i])
		ids[i] = key
		amounts[i] = d.Values[i].String()
	}

	rec := l.store.AddDeposit(&model.Deposit{
		Kind:      model.AssetERC1155,
		Wallet:    d.Sender,
		Token:     token,
		TokenIDs:  ids,
		Amounts:   amounts,
		Timestamp: timestamp,
	})
	logger.Info("ERC1155 deposit %d: %d ids of %s from %s", rec.ID, len(ids), token, rec.Wallet)
	return copyDeposit(rec), nil
}

// SetDappAddress 记录应用自身地址，仅首次生效；返回是否为首次设置
func (l *DepositLogic) SetDappAddress(addr string, timestamp int64) bool {
	if l.store.DappAddress() != "" {
		logger.Warn("Dapp address already set to %s, ignoring relay of %s", l.store.DappAddress(), addr)
		return false
	}
	addr = chain.NormalizeAddress(addr)
	l.store.SetDappAddress(addr)
	if cfg := l.store.MutableConfig(); cfg != nil && cfg.DappAddress == "" {
		cfg.DappAddress = addr
		cfg.UpdatedAt = timestamp
	}
	logger.Info("Dapp address set to %s", addr)
	return true
}

func copyDeposit(d *model.Deposit) *model.Deposit {
	cp := *d
	cp.TokenIDs = append([]string(nil), d.TokenIDs...)
	cp.Amounts = append([]string(nil), d.Amounts...)
	return &cp
}
