package logic

import (
	"testing"

	"github.com/Timilehin-bello/melodious-sub000/internal/model"
	"github.com/Timilehin-bello/melodious-sub000/internal/store"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	adminWallet   = "0xA000000000000000000000000000000000000001"
	tokenAddress  = "0x00000000000000000000000000000000000000c0"
	vaultAddress  = "0x00000000000000000000000000000000000000c1"
	serverAddress = "0x00000000000000000000000000000000000000c2"
	relayAddress  = "0x00000000000000000000000000000000000000c3"
	dappAddress   = "0x00000000000000000000000000000000000000d0"
	nftAddress    = "0x00000000000000000000000000000000000000e0"

	artist1  = "0x1000000000000000000000000000000000000001"
	artist2  = "0x1000000000000000000000000000000000000002"
	listener = "0x2000000000000000000000000000000000000001"
	stranger = "0x9000000000000000000000000000000000000009"
)

// engines 一组共享同一账本的业务逻辑
type engines struct {
	store        *store.Store
	config       *ConfigLogic
	users        *UserLogic
	referral     *ReferralLogic
	reward       *RewardLogic
	withdrawal   *WithdrawalLogic
	deposit      *DepositLogic
	subscription *SubscriptionLogic
}

func newEngines() *engines {
	s := store.New()
	referral := NewReferralLogic(s)
	return &engines{
		store:        s,
		config:       NewConfigLogic(s),
		users:        NewUserLogic(s, referral),
		referral:     referral,
		reward:       NewRewardLogic(s),
		withdrawal:   NewWithdrawalLogic(s),
		deposit:      NewDepositLogic(s),
		subscription: NewSubscriptionLogic(s),
	}
}

func ptr[T any](v T) *T {
	return &v
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.Truef(t, dec(want).Equal(got), "want %s, got %s", want, got.String())
}

func baseConfigInput() ConfigInput {
	return ConfigInput{
		CartesiTokenAddress:  ptr(tokenAddress),
		VaultContractAddress: ptr(vaultAddress),
		ServerAddress:        ptr(serverAddress),
		RelayerAddress:       ptr(relayAddress),
		ArtistPercentage:     ptr(70),
		PoolPercentage:       ptr(30),
		FeePercentage:        ptr(2),
		ReferralPoints:       ptr(int64(100)),
		ConversionRate:       ptr(dec("100")),
		MinConversion:        ptr(int64(50)),
		MaxDailyConversion:   ptr(int64(1000)),
	}
}

// withConfig 创建默认配置的账本
func withConfig(t *testing.T) *engines {
	t.Helper()
	e := newEngines()
	_, err := e.config.CreateConfig(adminWallet, baseConfigInput(), 1)
	require.NoError(t, err)
	return e
}

func mustCreateUser(t *testing.T, e *engines, wallet, name string, role model.UserRole) *model.User {
	t.Helper()
	u, _, err := e.users.CreateUser(CreateUserInput{Wallet: wallet, Username: name, Role: role}, 10)
	require.NoError(t, err)
	return u
}

func requireKind(t *testing.T, err error, kind ErrorKind) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, kind, KindOf(err), err.Error())
}
