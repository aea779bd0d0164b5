package logic

import (
	"fmt"
	"sort"

	"github.com/Timilehin-bello/melodious-sub000/internal/chain"
	"github.com/Timilehin-bello/melodious-sub000/internal/config"
	"github.com/Timilehin-bello/melodious-sub000/internal/logger"
	"github.com/Timilehin-bello/melodious-sub000/internal/model"
	"github.com/Timilehin-bello/melodious-sub000/internal/store"
	"github.com/shopspring/decimal"
)

// ConfigInput 配置的创建/更新参数，nil 字段表示不修改
type ConfigInput struct {
	Admins               []string          `json:"admins"`
	CartesiTokenAddress  *string           `json:"cartesiTokenAddress"`
	VaultContractAddress *string           `json:"vaultContractAddress"`
	ServerAddress        *string           `json:"serverAddress"`
	RelayerAddress       *string           `json:"relayerAddress"`
	DappAddress          *string           `json:"dappAddress"`
	NFTContracts         map[string]string `json:"nftContracts"`
	ArtistPercentage     *int              `json:"artistPercentage"`
	PoolPercentage       *int              `json:"poolPercentage"`
	FeePercentage        *int              `json:"feePercentage"`
	ReferralPoints       *int64            `json:"referralPoints"`
	ConversionRate       *decimal.Decimal  `json:"conversionRate"`
	MinConversion        *int64            `json:"minConversion"`
	MaxDailyConversion   *int64            `json:"maxDailyConversion"`
}

// ConfigLogic 配置业务逻辑
type ConfigLogic struct {
	store *store.Store
}

// NewConfigLogic 创建配置业务逻辑
func NewConfigLogic(s *store.Store) *ConfigLogic {
	return &ConfigLogic{store: s}
}

// IsAdmin 大小写不敏感判断管理员
func IsAdmin(cfg *model.Config, addr string) bool {
	if cfg == nil {
		return false
	}
	for _, admin := range cfg.Admins {
		if chain.SameAddress(admin, addr) {
			return true
		}
	}
	return false
}

// requireAdmin 需要已初始化的配置且调用方为管理员
func requireAdmin(s *store.Store, caller string) (*model.Config, error) {
	cfg := s.MutableConfig()
	if cfg == nil {
		return nil, NotFoundf("config not initialized")
	}
	if !IsAdmin(cfg, caller) {
		return nil, Unauthorizedf("caller %s is not an admin", caller)
	}
	return cfg, nil
}

// requireConfig 需要已初始化的配置
func requireConfig(s *store.Store) (*model.Config, error) {
	cfg := s.MutableConfig()
	if cfg == nil {
		return nil, NotFoundf("config not initialized")
	}
	return cfg, nil
}

// CreateConfig 创建配置，仅允许一次，创建者自动成为管理员
func (l *ConfigLogic) CreateConfig(signer string, in ConfigInput, timestamp int64) (*model.Config, error) {
	if l.store.MutableConfig() != nil {
		return nil, Domainf("config already exists")
	}
	if !chain.IsAddress(signer) {
		return nil, Validationf("invalid signer address: %s", signer)
	}

	cfg := &model.Config{
		NFTContracts:   make(map[string]string),
		ConversionRate: decimal.NewFromInt(1),
		CreatedAt:      timestamp,
	}
	in.Admins = append(in.Admins, signer)
	candidate, err := applyConfigInput(cfg, in)
	if err != nil {
		return nil, err
	}
	candidate.UpdatedAt = timestamp

	if dapp := l.store.DappAddress(); dapp != "" && candidate.DappAddress == "" {
		candidate.DappAddress = dapp
	}
	l.store.SetConfig(candidate)

	logger.Info("Config created by %s with %d admins", signer, len(candidate.Admins))
	return candidate.Clone(), nil
}

// UpdateConfig 管理员更新配置
func (l *ConfigLogic) UpdateConfig(signer string, in ConfigInput, timestamp int64) (*model.Config, error) {
	cfg, err := requireAdmin(l.store, signer)
	if err != nil {
		return nil, err
	}

	candidate, err := applyConfigInput(cfg.Clone(), in)
	if err != nil {
		return nil, err
	}
	candidate.UpdatedAt = timestamp

	// 校验通过后整体替换，资金字段保持原值
	candidate.VaultBalance = cfg.VaultBalance
	candidate.LastVaultBalanceDistributed = cfg.LastVaultBalanceDistributed
	candidate.FeeBalance = cfg.FeeBalance
	candidate.PoolBalance = cfg.PoolBalance
	*cfg = *candidate

	logger.Info("Config updated by %s", signer)
	return cfg.Clone(), nil
}

// NewConfigFromGenesis 由部署配置构建初始账本配置
func NewConfigFromGenesis(g config.GenesisConfig) (*model.Config, error) {
	rate, err := decimal.NewFromString(g.ConversionRate)
	if err != nil {
		return nil, fmt.Errorf("invalid genesis conversion rate %q: %w", g.ConversionRate, err)
	}

	str := func(v string) *string { return &v }
	in := ConfigInput{
		Admins:               g.Admins,
		CartesiTokenAddress:  str(g.CartesiTokenAddress),
		VaultContractAddress: str(g.VaultContractAddress),
		ServerAddress:        str(g.ServerAddress),
		RelayerAddress:       str(g.RelayerAddress),
		NFTContracts:         g.NFTContracts,
		ArtistPercentage:     &g.ArtistPercentage,
		PoolPercentage:       &g.PoolPercentage,
		FeePercentage:        &g.FeePercentage,
		ReferralPoints:       &g.ReferralPoints,
		ConversionRate:       &rate,
		MinConversion:        &g.MinConversion,
		MaxDailyConversion:   &g.MaxDailyConversion,
	}
	if g.DappAddress != "" {
		in.DappAddress = str(g.DappAddress)
	}

	cfg, err := applyConfigInput(&model.Config{NFTContracts: make(map[string]string)}, in)
	if err != nil {
		return nil, fmt.Errorf("invalid genesis config: %w", err)
	}
	return cfg, nil
}

// Bootstrap 启动时写入 genesis 配置；账本已有配置时不做任何修改
func (l *ConfigLogic) Bootstrap(g config.GenesisConfig) (bool, error) {
	if !g.Enabled {
		return false, nil
	}
	l.store.Lock()
	defer l.store.Unlock()

	if _, exists := l.store.Config(); exists {
		return false, nil
	}
	cfg, err := NewConfigFromGenesis(g)
	if err != nil {
		return false, err
	}
	l.store.SetConfig(cfg)
	if cfg.DappAddress != "" {
		l.store.SetDappAddress(cfg.DappAddress)
	}
	logger.Info("Genesis config applied with %d admins", len(cfg.Admins))
	return true, nil
}

// applyConfigInput 在副本上应用参数并整体校验
func applyConfigInput(cfg *model.Config, in ConfigInput) (*model.Config, error) {
	setAddr := func(dst *string, src *string) {
		if src != nil {
			*dst = chain.NormalizeAddress(*src)
		}
	}

	if in.Admins != nil {
		admins := make([]string, 0, len(in.Admins))
		seen := make(map[string]bool)
		for _, a := range in.Admins {
			a = chain.NormalizeAddress(a)
			if seen[a] {
				continue
			}
			seen[a] = true
			admins = append(admins, a)
		}
		cfg.Admins = admins
	}
	setAddr(&cfg.CartesiTokenAddress, in.CartesiTokenAddress)
	setAddr(&cfg.VaultContractAddress, in.VaultContractAddress)
	setAddr(&cfg.ServerAddress, in.ServerAddress)
	setAddr(&cfg.RelayerAddress, in.RelayerAddress)
	setAddr(&cfg.DappAddress, in.DappAddress)
	for asset, addr := range in.NFTContracts {
		cfg.NFTContracts[asset] = chain.NormalizeAddress(addr)
	}
	if in.ArtistPercentage != nil {
		cfg.ArtistPercentage = *in.ArtistPercentage
	}
	if in.PoolPercentage != nil {
		cfg.PoolPercentage = *in.PoolPercentage
	}
	if in.FeePercentage != nil {
		cfg.FeePercentage = *in.FeePercentage
	}
	if in.ReferralPoints != nil {
		cfg.ReferralPoints = *in.ReferralPoints
	}
	if in.ConversionRate != nil {
		cfg.ConversionRate = *in.ConversionRate
	}
	if in.MinConversion != nil {
		cfg.MinConversion = *in.MinConversion
	}
	if in.MaxDailyConversion != nil {
		cfg.MaxDailyConversion = *in.MaxDailyConversion
	}

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validateConfig 校验配置不变量
func validateConfig(cfg *model.Config) error {
	if len(cfg.Admins) == 0 {
		return Validationf("config requires at least one admin")
	}
	for _, a := range cfg.Admins {
		if !chain.IsAddress(a) {
			return Validationf("invalid admin address: %s", a)
		}
	}

	required := []struct {
		field string
		value string
	}{
		{"cartesiTokenAddress", cfg.CartesiTokenAddress},
		{"vaultContractAddress", cfg.VaultContractAddress},
		{"serverAddress", cfg.ServerAddress},
		{"relayerAddress", cfg.RelayerAddress},
	}
	for _, r := range required {
		if !chain.IsAddress(r.value) {
			return Validationf("invalid %s: %q", r.field, r.value)
		}
	}
	if cfg.DappAddress != "" && !chain.IsAddress(cfg.DappAddress) {
		return Validationf("invalid dappAddress: %q", cfg.DappAddress)
	}
	assets := make([]string, 0, len(cfg.NFTContracts))
	for asset := range cfg.NFTContracts {
		assets = append(assets, asset)
	}
	sort.Strings(assets)
	for _, asset := range assets {
		if addr := cfg.NFTContracts[asset]; !chain.IsAddress(addr) {
			return Validationf("invalid nft contract address for %s: %q", asset, addr)
		}
	}

	percentages := []struct {
		name  string
		value int
	}{
		{"artistPercentage", cfg.ArtistPercentage},
		{"poolPercentage", cfg.PoolPercentage},
		{"feePercentage", cfg.FeePercentage},
	}
	for _, pct := range percentages {
		if pct.value < 0 || pct.value > 100 {
			return Validationf("%s must be between 0 and 100, got %d", pct.name, pct.value)
		}
	}
	if cfg.ArtistPercentage+cfg.PoolPercentage > 100 {
		return Validationf("artistPercentage + poolPercentage must not exceed 100")
	}

	if cfg.ReferralPoints < 0 {
		return Validationf("referralPoints must not be negative")
	}
	if !cfg.ConversionRate.IsPositive() {
		return Validationf("conversionRate must be greater than 0")
	}
	if cfg.MinConversion < 0 || cfg.MaxDailyConversion < 0 {
		return Validationf("conversion bounds must not be negative")
	}
	if cfg.MinConversion > cfg.MaxDailyConversion {
		return Validationf("minConversion must not exceed maxDailyConversion")
	}
	return nil
}
