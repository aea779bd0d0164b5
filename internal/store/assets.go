package store

import (
	"sort"

	"github.com/Timilehin-bello/melodious-sub000/internal/model"
)

// WalletBalance 钱包 portal 资产余额（副本）
func (s *Store) WalletBalance(wallet string) *model.WalletBalance {
	return s.wallets[walletKey(wallet)].Clone()
}

// MutableWallet 返回可修改的钱包余额，不存在时创建
func (s *Store) MutableWallet(wallet string) *model.WalletBalance {
	key := walletKey(wallet)
	w, ok := s.wallets[key]
	if !ok {
		w = model.NewWalletBalance()
		s.wallets[key] = w
	}
	return w
}

// AddDeposit 追加存入记录
func (s *Store) AddDeposit(d *model.Deposit) *model.Deposit {
	d.ID = s.nextID("deposit")
	d.Wallet = walletKey(d.Wallet)
	s.deposits = append(s.deposits, d)
	return d
}

// AddWithdrawal 追加提现审计记录
func (s *Store) AddWithdrawal(w *model.WithdrawalRecord) *model.WithdrawalRecord {
	w.ID = s.nextID("withdrawal")
	w.Wallet = walletKey(w.Wallet)
	s.withdrawals = append(s.withdrawals, w)
	return w
}

// Withdrawals 钱包的提现记录
func (s *Store) Withdrawals(wallet string) []*model.WithdrawalRecord {
	key := walletKey(wallet)
	result := make([]*model.WithdrawalRecord, 0)
	for _, w := range s.withdrawals {
		if w.Wallet == key {
			cp := *w
			result = append(result, &cp)
		}
	}
	return result
}

// AddSubscriptionPlan 新增订阅套餐
func (s *Store) AddSubscriptionPlan(p *model.SubscriptionPlan) *model.SubscriptionPlan {
	p.ID = s.nextID("subscription_plan")
	s.plans[p.ID] = p
	return p
}

// SubscriptionPlan 按ID查找套餐
func (s *Store) SubscriptionPlan(id int64) (*model.SubscriptionPlan, bool) {
	p, ok := s.plans[id]
	return p, ok
}

// SubscriptionPlans 全部套餐，按ID排序
func (s *Store) SubscriptionPlans() []*model.SubscriptionPlan {
	plans := make([]*model.SubscriptionPlan, 0, len(s.plans))
	for _, p := range s.plans {
		cp := *p
		plans = append(plans, &cp)
	}
	sort.Slice(plans, func(i, j int) bool { return plans[i].ID < plans[j].ID })
	return plans
}
