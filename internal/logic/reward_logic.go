package logic

import (
	"math"

	"github.com/Timilehin-bello/melodious-sub000/internal/chain"
	"github.com/Timilehin-bello/melodious-sub000/internal/logger"
	"github.com/Timilehin-bello/melodious-sub000/internal/model"
	"github.com/Timilehin-bello/melodious-sub000/internal/store"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// ListeningEntry 单个艺人的收听时长
type ListeningEntry struct {
	Wallet  string `json:"wallet"`
	Seconds int64  `json:"listeningTime"`
}

// Payout 单个艺人的分配结果
type Payout struct {
	Wallet  string          `json:"wallet"`
	UserID  int64           `json:"userId"`
	Seconds int64           `json:"listeningTime"`
	Share   decimal.Decimal `json:"share"`
	Fee     decimal.Decimal `json:"fee"`
	Net     decimal.Decimal `json:"net"`
}

// DistributionResult 一轮分配的汇总
type DistributionResult struct {
	Distributable decimal.Decimal `json:"distributable"`
	ArtistPool    decimal.Decimal `json:"artistPool"`
	PoolShare     decimal.Decimal `json:"poolShare"`
	TotalFee      decimal.Decimal `json:"totalFee"`
	Dust          decimal.Decimal `json:"dust"`
	TotalSeconds  int64           `json:"totalListeningTime"`
	Payouts       []Payout        `json:"payouts"`
	Skipped       []string        `json:"skipped"`
	Watermark     decimal.Decimal `json:"lastVaultBalanceDistributed"`
}

// RewardLogic 收听时长奖励分配
type RewardLogic struct {
	store *store.Store
}

// NewRewardLogic 创建奖励分配业务逻辑
func NewRewardLogic(s *store.Store) *RewardLogic {
	return &RewardLogic{store: s}
}

// Distribute 按收听时长比例把未分配的金库余额分给艺人。
// 先计算全部结果，再一次性写入；水位线推进到当前金库余额。
func (l *RewardLogic) Distribute(caller string, entries []ListeningEntry) (*DistributionResult, error) {
	cfg, err := requireAdmin(l.store, caller)
	if err != nil {
		return nil, err
	}
	if !cfg.VaultBalance.GreaterThan(cfg.LastVaultBalanceDistributed) {
		return nil, Domainf("no new funds to distribute")
	}

	var totalSeconds int64
	for i, e := range entries {
		if !chain.IsAddress(e.Wallet) {
			return nil, Validationf("invalid wallet address at index %d: %s", i, e.Wallet)
		}
		if e.Seconds < 0 {
			return nil, Validationf("listening time at index %d must not be negative", i)
		}
		if e.Seconds > math.MaxInt64-totalSeconds {
			return nil, Validationf("total listening time overflows at index %d", i)
		}
		totalSeconds += e.Seconds
	}
	if totalSeconds <= 0 {
		return nil, Domainf("total listening time cannot be zero")
	}

	distributable := cfg.Undistributed()
	artistPool, _ := distributable.Mul(decimal.NewFromInt(int64(cfg.ArtistPercentage))).QuoRem(hundred, tokenPrecision)
	total := decimal.NewFromInt(totalSeconds)
	feePct := decimal.NewFromInt(int64(cfg.FeePercentage))

	result := &DistributionResult{
		Distributable: distributable,
		ArtistPool:    artistPool,
		PoolShare:     distributable.Sub(artistPool),
		TotalFee:      decimal.Zero,
		TotalSeconds:  totalSeconds,
		Payouts:       make([]Payout, 0, len(entries)),
		Skipped:       make([]string, 0),
	}

	type credit struct {
		user   *model.User
		payout Payout
	}
	credits := make([]credit, 0, len(entries))
	allocated := decimal.Zero
	// 同一艺人可能出现多次，按累计值检查
	pending := make(map[int64]int64, len(entries))

	for _, e := range entries {
		user := l.store.MutableUser(e.Wallet)
		if user == nil || user.Artist == nil {
			logger.Warn("Skip distribution entry for %s: not a registered artist", e.Wallet)
			result.Skipped = append(result.Skipped, chain.NormalizeAddress(e.Wallet))
			continue
		}

		if user.Artist.TotalListeningTime+pending[user.ID] > math.MaxInt64-e.Seconds {
			return nil, Validationf("total listening time of %s overflows", user.WalletAddress)
		}
		pending[user.ID] += e.Seconds

		share, _ := artistPool.Mul(decimal.NewFromInt(e.Seconds)).QuoRem(total, tokenPrecision)
		fee, _ := share.Mul(feePct).QuoRem(hundred, tokenPrecision)
		p := Payout{
			Wallet:  user.WalletAddress,
			UserID:  user.ID,
			Seconds: e.Seconds,
			Share:   share,
			Fee:     fee,
			Net:     share.Sub(fee),
		}
		credits = append(credits, credit{user: user, payout: p})
		allocated = allocated.Add(share)
		result.TotalFee = result.TotalFee.Add(fee)
	}
	result.Dust = artistPool.Sub(allocated)

	for _, c := range credits {
		c.user.Artist.TotalListeningTime += c.payout.Seconds
		c.user.CtsiBalance = c.user.CtsiBalance.Add(c.payout.Net)
		result.Payouts = append(result.Payouts, c.payout)
	}
	cfg.FeeBalance = cfg.FeeBalance.Add(result.TotalFee)
	cfg.PoolBalance = cfg.PoolBalance.Add(result.PoolShare).Add(result.Dust)
	cfg.LastVaultBalanceDistributed = cfg.VaultBalance
	result.Watermark = cfg.LastVaultBalanceDistributed

	logger.Info("Distributed %s (artist pool %s, fee %s, dust %s) across %d artists, %d skipped",
		distributable.String(), artistPool.String(), result.TotalFee.String(), result.Dust.String(),
		len(result.Payouts), len(result.Skipped))
	return result, nil
}
