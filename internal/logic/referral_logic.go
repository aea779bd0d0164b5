package logic

import (
	"strings"

	"github.com/Timilehin-bello/melodious-sub000/internal/chain"
	"github.com/Timilehin-bello/melodious-sub000/internal/logger"
	"github.com/Timilehin-bello/melodious-sub000/internal/model"
	"github.com/Timilehin-bello/melodious-sub000/internal/store"
	"github.com/shopspring/decimal"
)

// tokenPrecision 代币金额保留的小数位
const tokenPrecision = 18

// ConversionResult 积分兑换结果
type ConversionResult struct {
	Wallet         string                     `json:"wallet"`
	Points         int64                      `json:"points"`
	CtsiAmount     decimal.Decimal            `json:"ctsiAmount"`
	ConversionRate decimal.Decimal            `json:"conversionRate"`
	MeloPoints     int64                      `json:"meloPoints"`
	CtsiBalance    decimal.Decimal            `json:"ctsiBalance"`
	Transaction    *model.ReferralTransaction `json:"transaction"`
}

// ReferralLogic 推荐与积分兑换业务逻辑
type ReferralLogic struct {
	store *store.Store
}

// NewReferralLogic 创建推荐业务逻辑
func NewReferralLogic(s *store.Store) *ReferralLogic {
	return &ReferralLogic{store: s}
}

// ProcessReferral 校验推荐码并记录推荐关系，推荐人获得积分
func (l *ReferralLogic) ProcessReferral(code, newWallet, newName string, timestamp int64) (*model.Referral, error) {
	referrer, err := l.checkReferral(code, newWallet)
	if err != nil {
		return nil, err
	}
	return l.applyReferral(referrer, code, newWallet, newName, timestamp), nil
}

// checkReferral 只校验不修改
func (l *ReferralLogic) checkReferral(code, newWallet string) (*model.User, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, Validationf("referral code is required")
	}
	if !chain.IsAddress(newWallet) {
		return nil, Validationf("invalid wallet address: %s", newWallet)
	}
	if _, err := requireConfig(l.store); err != nil {
		return nil, err
	}

	referrer := l.store.MutableUserByReferralCode(code)
	if referrer == nil {
		return nil, NotFoundf("referral code %s not found", code)
	}
	if chain.SameAddress(referrer.WalletAddress, newWallet) {
		return nil, Domainf("self-referral is not allowed")
	}
	if l.store.IsReferred(newWallet) {
		return nil, Domainf("wallet %s has already been referred", chain.NormalizeAddress(newWallet))
	}
	return referrer, nil
}

// applyReferral 写入推荐关系、积分与流水，调用前必须通过 checkReferral
func (l *ReferralLogic) applyReferral(referrer *model.User, code, newWallet, newName string, timestamp int64) *model.Referral {
	points := l.store.MutableConfig().ReferralPoints

	referral := l.store.AddReferral(&model.Referral{
		ReferrerWallet: referrer.WalletAddress,
		ReferredWallet: newWallet,
		ReferredName:   newName,
		Code:           referrer.ReferralCode,
		PointsAwarded:  points,
		CompletedAt:    timestamp,
	})

	referrer.MeloPoints += points
	referrer.ReferralCount++
	referrer.UpdatedAt = timestamp

	l.store.AddReferralTransaction(&model.ReferralTransaction{
		Type:       model.ReferralTransactionEarned,
		Wallet:     referrer.WalletAddress,
		Points:     points,
		ReferralID: referral.ID,
		Timestamp:  timestamp,
	})

	logger.Info("Referral %d: %s referred %s via %s (+%d points)",
		referral.ID, referrer.WalletAddress, referral.ReferredWallet, code, points)

	cp := *referral
	return &cp
}

// ConvertMeloToCtsi 按当前兑换率把积分兑换为结算代币
func (l *ReferralLogic) ConvertMeloToCtsi(wallet string, points int64, timestamp int64) (*ConversionResult, error) {
	if points <= 0 {
		return nil, Validationf("points must be greater than 0")
	}
	cfg, err := requireConfig(l.store)
	if err != nil {
		return nil, err
	}
	user := l.store.MutableUser(wallet)
	if user == nil {
		return nil, NotFoundf("user %s not found", wallet)
	}

	if points < cfg.MinConversion {
		return nil, Domainf("minimum conversion is %d points", cfg.MinConversion)
	}
	if points > cfg.MaxDailyConversion {
		return nil, Domainf("maximum daily conversion is %d points", cfg.MaxDailyConversion)
	}
	if points > user.MeloPoints {
		return nil, Domainf("insufficient melo points: have %d, need %d", user.MeloPoints, points)
	}
	rate := cfg.ConversionRate
	ctsi, _ := decimal.NewFromInt(points).QuoRem(rate, tokenPrecision)

	user.MeloPoints -= points
	user.CtsiBalance = user.CtsiBalance.Add(ctsi)
	user.UpdatedAt = timestamp

	tx := l.store.AddReferralTransaction(&model.ReferralTransaction{
		Type:           model.ReferralTransactionConverted,
		Wallet:         user.WalletAddress,
		Points:         points,
		CtsiAmount:     decimal.NewNullDecimal(ctsi),
		ConversionRate: decimal.NewNullDecimal(rate),
		Timestamp:      timestamp,
	})

	logger.Info("User %s converted %d points to %s CTSI at rate %s", user.WalletAddress, points, ctsi.String(), rate.String())

	txCopy := *tx
	return &ConversionResult{
		Wallet:         user.WalletAddress,
		Points:         points,
		CtsiAmount:     ctsi,
		ConversionRate: rate,
		MeloPoints:     user.MeloPoints,
		CtsiBalance:    user.CtsiBalance,
		Transaction:    &txCopy,
	}, nil
}
