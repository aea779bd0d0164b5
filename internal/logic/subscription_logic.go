package logic

import (
	"strings"

	"github.com/Timilehin-bello/melodious-sub000/internal/logger"
	"github.com/Timilehin-bello/melodious-sub000/internal/model"
	"github.com/Timilehin-bello/melodious-sub000/internal/store"
	"github.com/shopspring/decimal"
)

// CreatePlanInput 新建套餐参数
type CreatePlanInput struct {
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Duration int64           `json:"duration"`
}

// SubscribeInput 订阅参数
type SubscribeInput struct {
	PlanID int64 `json:"planId"`
}

// Subscription 订阅结果
type Subscription struct {
	Wallet       string          `json:"wallet"`
	PlanID       int64           `json:"planId"`
	Price        decimal.Decimal `json:"price"`
	ExpiresAt    int64           `json:"expiresAt"`
	CtsiBalance  decimal.Decimal `json:"ctsiBalance"`
	VaultBalance decimal.Decimal `json:"vaultBalance"`
}

// SubscriptionLogic 订阅套餐业务逻辑
type SubscriptionLogic struct {
	store *store.Store
}

// NewSubscriptionLogic 创建订阅业务逻辑
func NewSubscriptionLogic(s *store.Store) *SubscriptionLogic {
	return &SubscriptionLogic{store: s}
}

// CreatePlan 管理员新增套餐
func (l *SubscriptionLogic) CreatePlan(signer string, in CreatePlanInput, timestamp int64) (*model.SubscriptionPlan, error) {
	if _, err := requireAdmin(l.store, signer); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, Validationf("plan name is required")
	}
	if in.Price.IsNegative() {
		return nil, Validationf("plan price must not be negative")
	}
	if in.Duration <= 0 {
		return nil, Validationf("plan duration must be greater than 0")
	}

	plan := l.store.AddSubscriptionPlan(&model.SubscriptionPlan{
		Name:      name,
		Price:     in.Price,
		Duration:  in.Duration,
		Active:    true,
		CreatedAt: timestamp,
	})
	logger.Info("Subscription plan %d (%s) created at price %s", plan.ID, plan.Name, plan.Price.String())

	cp := *plan
	return &cp, nil
}

// Subscribe 听众用 CtsiBalance 支付套餐，款项进入金库；未过期时顺延
func (l *SubscriptionLogic) Subscribe(wallet string, in SubscribeInput, timestamp int64) (*Subscription, error) {
	cfg, err := requireConfig(l.store)
	if err != nil {
		return nil, err
	}
	user := l.store.MutableUser(wallet)
	if user == nil {
		return nil, NotFoundf("user %s not found", wallet)
	}
	if user.Listener == nil {
		return nil, Domainf("only listeners can subscribe")
	}
	plan, ok := l.store.SubscriptionPlan(in.PlanID)
	if !ok {
		return nil, NotFoundf("subscription plan %d not found", in.PlanID)
	}
	if !plan.Active {
		return nil, Domainf("subscription plan %d is not active", plan.ID)
	}
	if user.CtsiBalance.LessThan(plan.Price) {
		return nil, Domainf("insufficient CTSI balance: have %s, need %s",
			user.CtsiBalance.String(), plan.Price.String())
	}

	start := timestamp
	if user.Listener.SubscriptionExpiresAt > timestamp {
		start = user.Listener.SubscriptionExpiresAt
	}

	user.CtsiBalance = user.CtsiBalance.Sub(plan.Price)
	user.Listener.SubscriptionPlanID = plan.ID
	user.Listener.SubscriptionExpiresAt = start + plan.Duration
	user.UpdatedAt = timestamp
	cfg.VaultBalance = cfg.VaultBalance.Add(plan.Price)
	cfg.UpdatedAt = timestamp

	logger.Info("User %s subscribed to plan %d until %d", user.WalletAddress, plan.ID, user.Listener.SubscriptionExpiresAt)
	return &Subscription{
		Wallet:       user.WalletAddress,
		PlanID:       plan.ID,
		Price:        plan.Price,
		ExpiresAt:    user.Listener.SubscriptionExpiresAt,
		CtsiBalance:  user.CtsiBalance,
		VaultBalance: cfg.VaultBalance,
	}, nil
}
