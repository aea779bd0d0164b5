package scheduler

import (
	"context"
	"time"

	"github.com/Timilehin-bello/melodious-sub000/internal/logger"
	"github.com/Timilehin-bello/melodious-sub000/internal/store"
	"github.com/go-co-op/gocron/v2"
)

// Job 定时任务
type Job interface {
	GetName() string
	GetSchedule() gocron.JobDefinition
	Execute()
}

// LedgerGauges 接收账本统计（指标）
type LedgerGauges interface {
	UpdateLedger(stats store.Stats)
}

// Pruner 清理过期记录（输出日志）
type Pruner interface {
	Prune(ctx context.Context, retention time.Duration) (int64, error)
}

// StatsJob 周期性刷新账本统计指标，只读
type StatsJob struct {
	store    *store.Store
	gauges   LedgerGauges
	interval time.Duration
}

// NewStatsJob 创建统计任务
func NewStatsJob(s *store.Store, gauges LedgerGauges, interval time.Duration) *StatsJob {
	return &StatsJob{store: s, gauges: gauges, interval: interval}
}

// GetName 获取任务名称
func (j *StatsJob) GetName() string {
	return "ledger_stats"
}

// GetSchedule 获取调度配置
func (j *StatsJob) GetSchedule() gocron.JobDefinition {
	return gocron.DurationJob(j.interval)
}

// Execute 执行任务
func (j *StatsJob) Execute() {
	var stats store.Stats
	j.store.View(func(r store.Reader) {
		stats = r.Stats()
	})
	j.gauges.UpdateLedger(stats)
	logger.Debug("Ledger stats refreshed: users=%d vault=%s", stats.Users, stats.VaultBalance)
}

// PruneJob 删除超过保留期的输出日志
type PruneJob struct {
	pruner    Pruner
	retention time.Duration
	interval  time.Duration
}

// NewPruneJob 创建清理任务
func NewPruneJob(p Pruner, retention, interval time.Duration) *PruneJob {
	return &PruneJob{pruner: p, retention: retention, interval: interval}
}

// GetName 获取任务名称
func (j *PruneJob) GetName() string {
	return "journal_prune"
}

// GetSchedule 获取调度配置
func (j *PruneJob) GetSchedule() gocron.JobDefinition {
	return gocron.DurationJob(j.interval)
}

// Execute 执行任务
func (j *PruneJob) Execute() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	removed, err := j.pruner.Prune(ctx, j.retention)
	if err != nil {
		logger.Error("Journal prune failed: %v", err)
		return
	}
	if removed > 0 {
		logger.Info("Pruned %d journal records older than %s", removed, j.retention)
	}
}
