package store

import (
	"github.com/Timilehin-bello/melodious-sub000/internal/model"
)

// IsReferred 钱包是否已作为被推荐方出现过
func (s *Store) IsReferred(wallet string) bool {
	_, ok := s.referredWallets[walletKey(wallet)]
	return ok
}

// AddReferral 追加推荐关系
func (s *Store) AddReferral(r *model.Referral) *model.Referral {
	r.ID = s.nextID("referral")
	r.ReferrerWallet = walletKey(r.ReferrerWallet)
	r.ReferredWallet = walletKey(r.ReferredWallet)
	s.referrals = append(s.referrals, r)
	s.referredWallets[r.ReferredWallet] = r.ID
	return r
}

// AddReferralTransaction 追加积分流水
func (s *Store) AddReferralTransaction(tx *model.ReferralTransaction) *model.ReferralTransaction {
	tx.ID = s.nextID("referral_transaction")
	tx.Wallet = walletKey(tx.Wallet)
	s.referralTxs = append(s.referralTxs, tx)
	return tx
}

// ReferralsByWallet 钱包作为推荐方或被推荐方的全部记录
func (s *Store) ReferralsByWallet(wallet string) []*model.Referral {
	key := walletKey(wallet)
	result := make([]*model.Referral, 0)
	for _, r := range s.referrals {
		if r.ReferrerWallet == key || r.ReferredWallet == key {
			cp := *r
			result = append(result, &cp)
		}
	}
	return result
}

// ReferralTransactions 钱包的积分流水
func (s *Store) ReferralTransactions(wallet string) []*model.ReferralTransaction {
	key := walletKey(wallet)
	result := make([]*model.ReferralTransaction, 0)
	for _, tx := range s.referralTxs {
		if tx.Wallet == key {
			cp := *tx
			result = append(result, &cp)
		}
	}
	return result
}
