package store

import (
	"testing"

	"github.com/Timilehin-bello/melodious-sub000/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newArtist(wallet, name, code string) *model.User {
	return &model.User{
		WalletAddress: wallet,
		Username:      name,
		Role:          model.UserRoleArtist,
		ReferralCode:  code,
		Artist:        &model.Artist{},
	}
}

func TestCreateUserIndexes(t *testing.T) {
	s := New()
	u := s.CreateUser(newArtist("0xABCDEF0000000000000000000000000000000001", "Alice", "ABC123"))

	assert.Equal(t, int64(1), u.ID)
	assert.Equal(t, int64(1), u.Artist.ID)
	assert.Equal(t, u.ID, u.Artist.UserID)
	assert.Equal(t, "0xabcdef0000000000000000000000000000000001", u.WalletAddress)

	got, ok := s.UserByWallet("0xabcdef0000000000000000000000000000000001")
	require.True(t, ok)
	assert.Equal(t, "Alice", got.Username)

	_, ok = s.UserByUsername("alice")
	assert.True(t, ok)
	assert.True(t, s.UsernameTaken("ALICE"))
	assert.True(t, s.ReferralCodeTaken("abc123"))
	assert.NotNil(t, s.MutableUserByReferralCode("abc123"))

	// 返回的是副本
	got.MeloPoints = 99
	again, _ := s.UserByID(1)
	assert.Equal(t, int64(0), again.MeloPoints)
}

func TestRenameAndReset(t *testing.T) {
	s := New()
	u := s.CreateUser(newArtist("0x0000000000000000000000000000000000000001", "bob", "C1"))
	s.RenameUser(u, "robert")

	assert.False(t, s.UsernameTaken("bob"))
	assert.True(t, s.UsernameTaken("Robert"))

	s.AddReferral(&model.Referral{ReferrerWallet: u.WalletAddress, ReferredWallet: "0x0000000000000000000000000000000000000002"})
	assert.True(t, s.IsReferred("0x0000000000000000000000000000000000000002"))

	assert.Equal(t, 1, s.DeleteAllUsers())
	assert.Empty(t, s.Users())
	assert.True(t, s.IsReferred("0x0000000000000000000000000000000000000002"))
	assert.Len(t, s.ReferralsByWallet("0x0000000000000000000000000000000000000002"), 1)

	// ID 序列在重置后继续递增
	next := s.CreateUser(newArtist("0x0000000000000000000000000000000000000003", "carol", "C3"))
	assert.Equal(t, int64(2), next.ID)
}

func TestWalletBalanceIsolation(t *testing.T) {
	s := New()
	w := s.MutableWallet("0xAA00000000000000000000000000000000000000")
	w.Ether.SetInt64(10)

	view := s.WalletBalance("0xaa00000000000000000000000000000000000000")
	assert.Equal(t, int64(10), view.Ether.Int64())
	view.Ether.SetInt64(0)
	assert.Equal(t, int64(10), s.MutableWallet("0xaa00000000000000000000000000000000000000").Ether.Int64())

	empty := s.WalletBalance("0xbb00000000000000000000000000000000000000")
	assert.Equal(t, int64(0), empty.Ether.Int64())
}

func TestStats(t *testing.T) {
	s := New()
	s.CreateUser(newArtist("0x0000000000000000000000000000000000000001", "a", "A"))
	s.CreateUser(&model.User{
		WalletAddress: "0x0000000000000000000000000000000000000002",
		Username:      "l",
		Role:          model.UserRoleListener,
		ReferralCode:  "L",
		Listener:      &model.Listener{},
	})
	s.AddSubscriptionPlan(&model.SubscriptionPlan{Name: "basic"})

	var stats Stats
	s.View(func(r Reader) { stats = r.Stats() })
	assert.Equal(t, 2, stats.Users)
	assert.Equal(t, 1, stats.Artists)
	assert.Equal(t, 1, stats.Listeners)
	assert.Equal(t, 1, stats.SubscriptionPlans)
	assert.Len(t, s.Artists(), 1)
}
