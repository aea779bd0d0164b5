package logic

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"

	"github.com/Timilehin-bello/melodious-sub000/internal/chain"
	"github.com/Timilehin-bello/melodious-sub000/internal/logger"
	"github.com/Timilehin-bello/melodious-sub000/internal/model"
	"github.com/Timilehin-bello/melodious-sub000/internal/output"
	"github.com/Timilehin-bello/melodious-sub000/internal/store"
	"github.com/shopspring/decimal"
)

// WithdrawInput 提现参数；Ether 不需要 Token，ERC721 使用 TokenID
type WithdrawInput struct {
	Token   string          `json:"token"`
	Amount  decimal.Decimal `json:"amount"`
	TokenID *big.Int        `json:"-"`
}

// UnmarshalJSON tokenId 可为 JSON 数字或十进制/0x 十六进制字符串
func (in *WithdrawInput) UnmarshalJSON(data []byte) error {
	type plain WithdrawInput
	aux := struct {
		*plain
		TokenID json.RawMessage `json:"tokenId"`
	}{plain: (*plain)(in)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	in.TokenID = nil

	raw := bytes.TrimSpace(aux.TokenID)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}
	text := string(raw)
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &text); err != nil {
			return err
		}
		text = strings.TrimSpace(text)
	}
	id, ok := parseTokenID(text)
	if !ok {
		return fmt.Errorf("invalid tokenId %s", string(raw))
	}
	in.TokenID = id
	return nil
}

func parseTokenID(text string) (*big.Int, bool) {
	if hex, ok := strings.CutPrefix(strings.ToLower(text), "0x"); ok {
		if hex == "" {
			return nil, false
		}
		return new(big.Int).SetString(hex, 16)
	}
	return new(big.Int).SetString(text, 10)
}

// Withdrawal 提现结果：待执行的 voucher 与审计记录
type Withdrawal struct {
	Voucher output.Output
	Record  *model.WithdrawalRecord
}

// WithdrawalLogic 提现与 voucher 编码
type WithdrawalLogic struct {
	store *store.Store
}

// NewWithdrawalLogic 创建提现业务逻辑
func NewWithdrawalLogic(s *store.Store) *WithdrawalLogic {
	return &WithdrawalLogic{store: s}
}

// WithdrawEther 提取以太币：voucher 目标为钱包本身，payload 为空，value 为 wei
func (l *WithdrawalLogic) WithdrawEther(wallet string, in WithdrawInput, timestamp int64) (*Withdrawal, error) {
	if !chain.IsAddress(wallet) {
		return nil, Validationf("invalid wallet address: %s", wallet)
	}
	wei, err := positiveBaseUnits(in.Amount)
	if err != nil {
		return nil, err
	}

	balance := l.store.WalletBalance(wallet)
	if balance.Ether.Cmp(wei) < 0 {
		return nil, Domainf("insufficient ether balance: have %s, need %s",
			chain.FromBaseUnits(balance.Ether).String(), in.Amount.String())
	}

	w := l.store.MutableWallet(wallet)
	w.Ether.Sub(w.Ether, wei)
	record := l.store.AddWithdrawal(&model.WithdrawalRecord{
		Kind:      model.AssetEther,
		Wallet:    wallet,
		Amount:    in.Amount.String(),
		Timestamp: timestamp,
	})

	logger.Info("Ether withdrawal %d: %s wei to %s", record.ID, wei.String(), record.Wallet)
	return &Withdrawal{
		Voucher: output.Voucher(record.Wallet, []byte{}, wei),
		Record:  copyRecord(record),
	}, nil
}

// WithdrawERC20 提取 ERC20：结算代币优先从用户 CtsiBalance 扣减，其余从钱包余额扣减
func (l *WithdrawalLogic) WithdrawERC20(wallet string, in WithdrawInput, timestamp int64) (*Withdrawal, error) {
	if !chain.IsAddress(wallet) {
		return nil, Validationf("invalid wallet address: %s", wallet)
	}
	if !chain.IsAddress(in.Token) {
		return nil, Validationf("invalid token address: %s", in.Token)
	}
	amount, err := positiveBaseUnits(in.Amount)
	if err != nil {
		return nil, err
	}
	payload, err := chain.EncodeERC20Transfer(chain.ToCommon(wallet), amount)
	if err != nil {
		return nil, err
	}

	token := chain.NormalizeAddress(in.Token)
	cfg := l.store.MutableConfig()
	user := l.store.MutableUser(wallet)
	settlement := cfg != nil && user != nil && chain.SameAddress(cfg.CartesiTokenAddress, token)

	if settlement {
		// 注册前存入的结算代币仍在钱包余额中，CtsiBalance 不足部分从钱包补足
		held := l.store.WalletBalance(wallet).ERC20[token]
		available := user.CtsiBalance.Add(chain.FromBaseUnits(held))
		if available.LessThan(in.Amount) {
			return nil, Domainf("insufficient CTSI balance: have %s, need %s",
				available.String(), in.Amount.String())
		}
		fromCtsi := decimal.Min(user.CtsiBalance, in.Amount)
		rest, err := chain.ToBaseUnits(in.Amount.Sub(fromCtsi))
		if err != nil {
			return nil, Validationf("invalid amount: %v", err)
		}
		user.CtsiBalance = user.CtsiBalance.Sub(fromCtsi)
		user.UpdatedAt = timestamp
		if rest.Sign() > 0 {
			w := l.store.MutableWallet(wallet)
			w.ERC20[token].Sub(w.ERC20[token], rest)
		}
	} else {
		held := l.store.WalletBalance(wallet).ERC20[token]
		if held == nil || held.Cmp(amount) < 0 {
			return nil, Domainf("insufficient balance of token %s: have %s, need %s",
				token, chain.FromBaseUnits(held).String(), in.Amount.String())
		}
		w := l.store.MutableWallet(wallet)
		w.ERC20[token].Sub(w.ERC20[token], amount)
	}

	record := l.store.AddWithdrawal(&model.WithdrawalRecord{
		Kind:      model.AssetERC20,
		Wallet:    wallet,
		Token:     token,
		Amount:    in.Amount.String(),
		Timestamp: timestamp,
	})

	logger.Info("ERC20 withdrawal %d: %s of %s to %s", record.ID, in.Amount.String(), token, record.Wallet)
	return &Withdrawal{
		Voucher: output.Voucher(token, payload, new(big.Int)),
		Record:  copyRecord(record),
	}, nil
}

// WithdrawERC721 提取 NFT：需要已知应用自身地址作为 from
func (l *WithdrawalLogic) WithdrawERC721(wallet string, in WithdrawInput, timestamp int64) (*Withdrawal, error) {
	if !chain.IsAddress(wallet) {
		return nil, Validationf("invalid wallet address: %s", wallet)
	}
	if !chain.IsAddress(in.Token) {
		return nil, Validationf("invalid token address: %s", in.Token)
	}
	if in.TokenID == nil || in.TokenID.Sign() < 0 {
		return nil, Validationf("tokenId must be a non-negative integer")
	}

	dapp := l.store.DappAddress()
	if dapp == "" {
		return nil, Domainf("dapp address not set: relay the application address first")
	}

	token := chain.NormalizeAddress(in.Token)
	id := in.TokenID.String()
	if !l.store.WalletBalance(wallet).ERC721[token][id] {
		return nil, Domainf("wallet %s does not own token %s of %s", chain.NormalizeAddress(wallet), id, token)
	}

	payload, err := chain.EncodeERC721TransferFrom(chain.ToCommon(dapp), chain.ToCommon(wallet), in.TokenID)
	if err != nil {
		return nil, err
	}

	delete(l.store.MutableWallet(wallet).ERC721[token], id)
	record := l.store.AddWithdrawal(&model.WithdrawalRecord{
		Kind:      model.AssetERC721,
		Wallet:    wallet,
		Token:     token,
		TokenID:   id,
		Timestamp: timestamp,
	})

	logger.Info("ERC721 withdrawal %d: token %s #%s to %s", record.ID, token, id, record.Wallet)
	return &Withdrawal{
		Voucher: output.Voucher(token, payload, new(big.Int)),
		Record:  copyRecord(record),
	}, nil
}

func positiveBaseUnits(amount decimal.Decimal) (*big.Int, error) {
	if !amount.IsPositive() {
		return nil, Validationf("amount must be greater than 0")
	}
	value, err := chain.ToBaseUnits(amount)
	if err != nil {
		return nil, Validationf("invalid amount: %v", err)
	}
	return value, nil
}

func copyRecord(r *model.WithdrawalRecord) *model.WithdrawalRecord {
	cp := *r
	return &cp
}
