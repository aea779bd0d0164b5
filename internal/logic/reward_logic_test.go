package logic

import (
	"math"
	"testing"

	"github.com/Timilehin-bello/melodious-sub000/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withArtists(t *testing.T, vault string) *engines {
	t.Helper()
	e := withConfig(t)
	mustCreateUser(t, e, artist1, "artist1", model.UserRoleArtist)
	mustCreateUser(t, e, artist2, "artist2", model.UserRoleArtist)
	e.store.MutableConfig().VaultBalance = dec(vault)
	return e
}

func TestDistributeScenario(t *testing.T) {
	e := withArtists(t, "1000")

	res, err := e.reward.Distribute(adminWallet, []ListeningEntry{
		{Wallet: artist1, Seconds: 60},
		{Wallet: artist2, Seconds: 40},
	})
	require.NoError(t, err)

	assertDecimal(t, "1000", res.Distributable)
	assertDecimal(t, "700", res.ArtistPool)
	assertDecimal(t, "14", res.TotalFee)
	require.Len(t, res.Payouts, 2)
	assertDecimal(t, "411.6", res.Payouts[0].Net)
	assertDecimal(t, "274.4", res.Payouts[1].Net)

	a1, _ := e.store.UserByWallet(artist1)
	a2, _ := e.store.UserByWallet(artist2)
	assertDecimal(t, "411.6", a1.CtsiBalance)
	assertDecimal(t, "274.4", a2.CtsiBalance)
	assert.Equal(t, int64(60), a1.Artist.TotalListeningTime)
	assert.Equal(t, int64(40), a2.Artist.TotalListeningTime)

	cfg, _ := e.store.Config()
	assertDecimal(t, "14", cfg.FeeBalance)
	assertDecimal(t, "300", cfg.PoolBalance)
	assertDecimal(t, "1000", cfg.LastVaultBalanceDistributed)
}

func TestDistributeIsIdempotent(t *testing.T) {
	e := withArtists(t, "1000")
	entries := []ListeningEntry{{Wallet: artist1, Seconds: 60}, {Wallet: artist2, Seconds: 40}}

	_, err := e.reward.Distribute(adminWallet, entries)
	require.NoError(t, err)

	_, err = e.reward.Distribute(adminWallet, entries)
	requireKind(t, err, KindDomain)
	assert.Equal(t, "no new funds to distribute", err.Error())

	a1, _ := e.store.UserByWallet(artist1)
	assertDecimal(t, "411.6", a1.CtsiBalance)

	// 新资金进入后只分配增量
	e.store.MutableConfig().VaultBalance = dec("1100")
	res, err := e.reward.Distribute(adminWallet, entries)
	require.NoError(t, err)
	assertDecimal(t, "100", res.Distributable)
}

func TestDistributeRejectsNonAdminFirst(t *testing.T) {
	e := withArtists(t, "0")

	// 无新资金、时长为零、参数非法，非管理员仍然先被拒绝
	_, err := e.reward.Distribute(stranger, []ListeningEntry{{Wallet: "bad", Seconds: -1}})
	requireKind(t, err, KindAuthorization)

	e.store.MutableConfig().VaultBalance = dec("1000")
	_, err = e.reward.Distribute(artist1, []ListeningEntry{{Wallet: artist1, Seconds: 10}})
	requireKind(t, err, KindAuthorization)
}

func TestDistributePreconditionOrder(t *testing.T) {
	e := withArtists(t, "0")
	_, err := e.reward.Distribute(adminWallet, nil)
	assert.Equal(t, "no new funds to distribute", err.Error())

	e.store.MutableConfig().VaultBalance = dec("10")
	_, err = e.reward.Distribute(adminWallet, []ListeningEntry{{Wallet: artist1, Seconds: 0}})
	requireKind(t, err, KindDomain)
	assert.Equal(t, "total listening time cannot be zero", err.Error())

	_, err = e.reward.Distribute(adminWallet, []ListeningEntry{{Wallet: artist1, Seconds: -5}, {Wallet: artist2, Seconds: 10}})
	requireKind(t, err, KindValidation)

	cfg, _ := e.store.Config()
	assert.True(t, cfg.LastVaultBalanceDistributed.IsZero())
}

func TestDistributeSkipsUnknownWallets(t *testing.T) {
	e := withArtists(t, "100")
	mustCreateUser(t, e, listener, "listener", model.UserRoleListener)

	res, err := e.reward.Distribute(adminWallet, []ListeningEntry{
		{Wallet: artist1, Seconds: 50},
		{Wallet: stranger, Seconds: 25},
		{Wallet: listener, Seconds: 25},
	})
	require.NoError(t, err)
	require.Len(t, res.Payouts, 1)
	assert.Equal(t, []string{stranger, listener}, res.Skipped)
	assertDecimal(t, "35", res.Payouts[0].Share)
	assertDecimal(t, "35", res.Dust)

	cfg, _ := e.store.Config()
	assertDecimal(t, "65", cfg.PoolBalance)
}

func TestDistributeConservesFunds(t *testing.T) {
	tests := []struct {
		name    string
		vault   string
		seconds []int64
	}{
		{"even split", "1000", []int64{60, 40}},
		{"thirds", "100", []int64{1, 1, 1}},
		{"uneven", "123.456789", []int64{7, 13, 29}},
		{"tiny", "0.000000000000000007", []int64{3, 5}},
		{"near int64 limit", "1000", []int64{math.MaxInt64 / 2, math.MaxInt64 / 2}},
	}

	wallets := []string{artist1, artist2, "0x1000000000000000000000000000000000000003"}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := withArtists(t, tt.vault)
			mustCreateUser(t, e, wallets[2], "artist3", model.UserRoleArtist)

			entries := make([]ListeningEntry, len(tt.seconds))
			for i, s := range tt.seconds {
				entries[i] = ListeningEntry{Wallet: wallets[i], Seconds: s}
			}
			res, err := e.reward.Distribute(adminWallet, entries)
			require.NoError(t, err)

			net := decimal.Zero
			for _, p := range res.Payouts {
				assert.True(t, p.Net.Add(p.Fee).Equal(p.Share))
				net = net.Add(p.Net)
			}
			assert.True(t, net.Add(res.TotalFee).Add(res.Dust).Equal(res.ArtistPool))
			assert.True(t, res.ArtistPool.Add(res.PoolShare).Equal(res.Distributable))
			assert.False(t, res.Dust.IsNegative())

			cfg, _ := e.store.Config()
			total := net.Add(cfg.FeeBalance).Add(cfg.PoolBalance)
			assert.Truef(t, total.Equal(dec(tt.vault)), "total %s", total.String())
		})
	}
}

func TestDistributeRejectsListeningTimeOverflow(t *testing.T) {
	e := withArtists(t, "1000")
	mustCreateUser(t, e, "0x1000000000000000000000000000000000000003", "artist3", model.UserRoleArtist)

	_, err := e.reward.Distribute(adminWallet, []ListeningEntry{
		{Wallet: artist1, Seconds: math.MaxInt64},
		{Wallet: artist2, Seconds: math.MaxInt64},
		{Wallet: "0x1000000000000000000000000000000000000003", Seconds: math.MaxInt64},
	})
	requireKind(t, err, KindValidation)

	cfg, _ := e.store.Config()
	assert.True(t, cfg.LastVaultBalanceDistributed.IsZero())
	assert.True(t, cfg.PoolBalance.IsZero())
	assert.True(t, cfg.FeeBalance.IsZero())
}

func TestDistributeRejectsArtistTotalOverflow(t *testing.T) {
	e := withArtists(t, "1000")
	e.store.MutableUser(artist1).Artist.TotalListeningTime = math.MaxInt64 - 5

	// 单次 3 秒不溢出，但同一艺人累计 6 秒会溢出
	_, err := e.reward.Distribute(adminWallet, []ListeningEntry{
		{Wallet: artist1, Seconds: 3},
		{Wallet: artist2, Seconds: 10},
		{Wallet: artist1, Seconds: 3},
	})
	requireKind(t, err, KindValidation)

	u, _ := e.store.UserByWallet(artist1)
	assert.Equal(t, int64(math.MaxInt64-5), u.Artist.TotalListeningTime)
	assert.True(t, u.CtsiBalance.IsZero())
	cfg, _ := e.store.Config()
	assert.True(t, cfg.LastVaultBalanceDistributed.IsZero())
}
