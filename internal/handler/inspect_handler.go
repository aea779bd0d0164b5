package handler

import (
	"strconv"

	"github.com/Timilehin-bello/melodious-sub000/internal/chain"
	"github.com/Timilehin-bello/melodious-sub000/internal/logic"
	"github.com/Timilehin-bello/melodious-sub000/internal/model"
	"github.com/Timilehin-bello/melodious-sub000/internal/output"
	"github.com/Timilehin-bello/melodious-sub000/internal/store"
	"github.com/shopspring/decimal"
)

// InspectConfig 当前配置
func InspectConfig(r store.Reader, _ string) ([]output.Output, error) {
	cfg, ok := r.Config()
	if !ok {
		return nil, logic.NotFoundf("config not initialized")
	}
	return report(cfg)
}

// InspectUsers 全部用户
func InspectUsers(r store.Reader, _ string) ([]output.Output, error) {
	return report(r.Users())
}

// InspectUser 按钱包查用户
func InspectUser(r store.Reader, wallet string) ([]output.Output, error) {
	if !chain.IsAddress(wallet) {
		return nil, logic.Validationf("invalid wallet address: %s", wallet)
	}
	u, ok := r.UserByWallet(wallet)
	if !ok {
		return nil, logic.NotFoundf("user %s not found", wallet)
	}
	return report(u)
}

// InspectUserByID 按ID查用户
func InspectUserByID(r store.Reader, arg string) ([]output.Output, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return nil, logic.Validationf("invalid user id: %s", arg)
	}
	u, ok := r.UserByID(id)
	if !ok {
		return nil, logic.NotFoundf("user %d not found", id)
	}
	return report(u)
}

// InspectUserByUsername 按用户名查用户
func InspectUserByUsername(r store.Reader, username string) ([]output.Output, error) {
	u, ok := r.UserByUsername(username)
	if !ok {
		return nil, logic.NotFoundf("user %s not found", username)
	}
	return report(u)
}

// InspectArtists 全部艺术家
func InspectArtists(r store.Reader, _ string) ([]output.Output, error) {
	return report(r.Artists())
}

// InspectReferrals 钱包相关的推荐记录
func InspectReferrals(r store.Reader, wallet string) ([]output.Output, error) {
	if !chain.IsAddress(wallet) {
		return nil, logic.Validationf("invalid wallet address: %s", wallet)
	}
	return report(r.ReferralsByWallet(wallet))
}

// InspectReferralTransactions 钱包的积分流水
func InspectReferralTransactions(r store.Reader, wallet string) ([]output.Output, error) {
	if !chain.IsAddress(wallet) {
		return nil, logic.Validationf("invalid wallet address: %s", wallet)
	}
	return report(r.ReferralTransactions(wallet))
}

// BalanceView 钱包余额视图
type BalanceView struct {
	Wallet     string               `json:"wallet"`
	MeloPoints int64                `json:"meloPoints"`
	Ctsi       decimal.Decimal      `json:"ctsiBalance"`
	Portal     *model.WalletBalance `json:"portal"`
}

// InspectBalance 钱包余额：积分、结算代币与 portal 资产
func InspectBalance(r store.Reader, wallet string) ([]output.Output, error) {
	if !chain.IsAddress(wallet) {
		return nil, logic.Validationf("invalid wallet address: %s", wallet)
	}
	view := BalanceView{
		Wallet: chain.NormalizeAddress(wallet),
		Ctsi:   decimal.Zero,
		Portal: r.WalletBalance(wallet),
	}
	if u, ok := r.UserByWallet(wallet); ok {
		view.MeloPoints = u.MeloPoints
		view.Ctsi = u.CtsiBalance
	}
	return report(view)
}

// InspectWithdrawals 钱包的提现记录
func InspectWithdrawals(r store.Reader, wallet string) ([]output.Output, error) {
	if !chain.IsAddress(wallet) {
		return nil, logic.Validationf("invalid wallet address: %s", wallet)
	}
	return report(r.Withdrawals(wallet))
}

// InspectSubscriptionPlans 全部套餐
func InspectSubscriptionPlans(r store.Reader, _ string) ([]output.Output, error) {
	return report(r.SubscriptionPlans())
}

// InspectDappAddress 应用自身地址
func InspectDappAddress(r store.Reader, _ string) ([]output.Output, error) {
	return report(DappAddressData{DappAddress: r.DappAddress()})
}

// InspectStats 账本统计
func InspectStats(r store.Reader, _ string) ([]output.Output, error) {
	return report(r.Stats())
}
