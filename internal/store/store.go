package store

import (
	"sort"
	"strings"
	"sync"

	"github.com/Timilehin-bello/melodious-sub000/internal/model"
	"github.com/shopspring/decimal"
)

// Reader 只读视图，inspect 请求只能拿到这个接口
type Reader interface {
	Config() (*model.Config, bool)
	DappAddress() string
	UserByWallet(wallet string) (*model.User, bool)
	UserByID(id int64) (*model.User, bool)
	UserByUsername(username string) (*model.User, bool)
	Users() []*model.User
	Artists() []*model.User
	ReferralsByWallet(wallet string) []*model.Referral
	ReferralTransactions(wallet string) []*model.ReferralTransaction
	WalletBalance(wallet string) *model.WalletBalance
	Withdrawals(wallet string) []*model.WithdrawalRecord
	SubscriptionPlans() []*model.SubscriptionPlan
	Stats() Stats
}

// Stats 账本统计
type Stats struct {
	Users                int             `json:"users"`
	Artists              int             `json:"artists"`
	Listeners            int             `json:"listeners"`
	Referrals            int             `json:"referrals"`
	ReferralTransactions int             `json:"referralTransactions"`
	Deposits             int             `json:"deposits"`
	Withdrawals          int             `json:"withdrawals"`
	SubscriptionPlans    int             `json:"subscriptionPlans"`
	VaultBalance         decimal.Decimal `json:"vaultBalance"`
	FeeBalance           decimal.Decimal `json:"feeBalance"`
}

// Store 进程内账本，生命周期等于进程运行时间。
// 所有方法都要求调用方持有锁（Lock/View），一次持有覆盖一个完整请求。
type Store struct {
	mu sync.Mutex

	config      *model.Config
	dappAddress string

	users         map[int64]*model.User
	usersByWallet map[string]int64
	usersByName   map[string]int64
	usersByCode   map[string]int64

	referrals       []*model.Referral
	referredWallets map[string]int64
	referralTxs     []*model.ReferralTransaction

	plans map[int64]*model.SubscriptionPlan

	wallets     map[string]*model.WalletBalance
	deposits    []*model.Deposit
	withdrawals []*model.WithdrawalRecord

	seq map[string]int64
}

// New 创建空账本
func New() *Store {
	s := &Store{seq: make(map[string]int64)}
	s.resetUsers()
	s.referredWallets = make(map[string]int64)
	s.plans = make(map[int64]*model.SubscriptionPlan)
	s.wallets = make(map[string]*model.WalletBalance)
	return s
}

// resetUsers 清空用户及其索引；推荐记录与推荐流水只追加，不随用户删除
func (s *Store) resetUsers() {
	s.users = make(map[int64]*model.User)
	s.usersByWallet = make(map[string]int64)
	s.usersByName = make(map[string]int64)
	s.usersByCode = make(map[string]int64)
}

// Lock 获取全局锁
func (s *Store) Lock() {
	s.mu.Lock()
}

// Unlock 释放全局锁
func (s *Store) Unlock() {
	s.mu.Unlock()
}

// View 在锁内执行只读操作
func (s *Store) View(fn func(r Reader)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s)
}

// nextID 生成集合内自增ID
func (s *Store) nextID(collection string) int64 {
	s.seq[collection]++
	return s.seq[collection]
}

func walletKey(wallet string) string {
	return strings.ToLower(strings.TrimSpace(wallet))
}

func nameKey(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

func codeKey(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Stats 账本统计
func (s *Store) Stats() Stats {
	stats := Stats{
		Users:                len(s.users),
		Referrals:            len(s.referrals),
		ReferralTransactions: len(s.referralTxs),
		Deposits:             len(s.deposits),
		Withdrawals:          len(s.withdrawals),
		SubscriptionPlans:    len(s.plans),
	}
	for _, u := range s.users {
		if u.Artist != nil {
			stats.Artists++
		}
		if u.Listener != nil {
			stats.Listeners++
		}
	}
	if s.config != nil {
		stats.VaultBalance = s.config.VaultBalance
		stats.FeeBalance = s.config.FeeBalance
	}
	return stats
}

func sortUsers(users []*model.User) {
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
}
