package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Timilehin-bello/melodious-sub000/internal/model"
	"github.com/Timilehin-bello/melodious-sub000/internal/store"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type gaugeSpy struct {
	mu    sync.Mutex
	calls []store.Stats
}

func (g *gaugeSpy) UpdateLedger(stats store.Stats) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = append(g.calls, stats)
}

func (g *gaugeSpy) count() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.calls)
}

type prunerSpy struct {
	retention time.Duration
	err       error
	calls     int
}

func (p *prunerSpy) Prune(_ context.Context, retention time.Duration) (int64, error) {
	p.calls++
	p.retention = retention
	return 3, p.err
}

func seededStore() *store.Store {
	s := store.New()
	s.Lock()
	defer s.Unlock()
	s.SetConfig(&model.Config{VaultBalance: decimal.NewFromInt(250)})
	s.CreateUser(&model.User{
		WalletAddress: "0x1111111111111111111111111111111111111111",
		Username:      "alice",
		Role:          model.UserRoleListener,
		ReferralCode:  "MELOAAAA",
		Listener:      &model.Listener{},
	})
	return s
}

func TestStatsJobReadsLedger(t *testing.T) {
	gauges := &gaugeSpy{}
	job := NewStatsJob(seededStore(), gauges, time.Minute)
	assert.Equal(t, "ledger_stats", job.GetName())

	job.Execute()

	require.Len(t, gauges.calls, 1)
	assert.Equal(t, 1, gauges.calls[0].Users)
	assert.Equal(t, 1, gauges.calls[0].Listeners)
	assert.True(t, decimal.NewFromInt(250).Equal(gauges.calls[0].VaultBalance))
}

func TestPruneJob(t *testing.T) {
	p := &prunerSpy{}
	job := NewPruneJob(p, 48*time.Hour, time.Hour)
	job.Execute()
	assert.Equal(t, 1, p.calls)
	assert.Equal(t, 48*time.Hour, p.retention)

	// 失败只记录日志
	p.err = errors.New("db down")
	job.Execute()
	assert.Equal(t, 2, p.calls)
}

func TestManagerRunsJobs(t *testing.T) {
	gauges := &gaugeSpy{}
	m, err := NewManager(NewStatsJob(seededStore(), gauges, 20*time.Millisecond))
	require.NoError(t, err)
	require.NoError(t, m.Start())
	defer m.Stop()

	assert.Eventually(t, func() bool { return gauges.count() > 0 }, 2*time.Second, 10*time.Millisecond)
}
