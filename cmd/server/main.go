package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Timilehin-bello/melodious-sub000/internal/config"
	"github.com/Timilehin-bello/melodious-sub000/internal/dispatcher"
	"github.com/Timilehin-bello/melodious-sub000/internal/handler"
	"github.com/Timilehin-bello/melodious-sub000/internal/logger"
	"github.com/Timilehin-bello/melodious-sub000/internal/logic"
	"github.com/Timilehin-bello/melodious-sub000/internal/monitor"
	"github.com/Timilehin-bello/melodious-sub000/internal/output"
	"github.com/Timilehin-bello/melodious-sub000/internal/portal"
	"github.com/Timilehin-bello/melodious-sub000/internal/repository"
	"github.com/Timilehin-bello/melodious-sub000/internal/rollup"
	"github.com/Timilehin-bello/melodious-sub000/internal/router"
	"github.com/Timilehin-bello/melodious-sub000/internal/scheduler"
	"github.com/Timilehin-bello/melodious-sub000/internal/store"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func main() {
	// 加载配置
	cfg := config.Load()

	if err := logger.Init(cfg.Log); err != nil {
		logger.Fatal("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	sessionID := uuid.NewString()
	logger.Info("Starting melodious session %s", sessionID)

	// 账本与 genesis 配置
	ledger := store.New()
	if applied, err := logic.NewConfigLogic(ledger).Bootstrap(cfg.Genesis); err != nil {
		logger.Fatal("Failed to apply genesis config: %v", err)
	} else if applied {
		logger.Info("Ledger bootstrapped from genesis")
	}

	metrics := monitor.NewMetrics()
	observers := []output.Observer{metrics.ObserveOutput}

	// 输出日志库（可选）
	var journal *repository.Journal
	if cfg.Journal.Enabled {
		db, err := repository.Init(cfg.Journal)
		if err != nil {
			logger.Fatal("Failed to initialize journal database: %v", err)
		}
		journal, err = repository.NewJournal(db, cfg.Journal.Workers, sessionID)
		if err != nil {
			logger.Fatal("Failed to initialize journal: %v", err)
		}
		defer journal.Close()
		observers = append(observers, journal.Observe)
	}

	// 分发器与处理器
	d := dispatcher.New(ledger, portal.NewClassifier(cfg.Portals), output.NewEmitter(observers...))
	d.SetRecorder(metrics)
	handlers := handler.NewHandlers(ledger)
	handlers.OnDistribution(metrics.DistributionCompleted)
	handlers.RegisterAll(d)

	// 启动定时任务
	jobs := []scheduler.Job{
		scheduler.NewStatsJob(ledger, metrics, time.Duration(cfg.Task.StatsInterval)*time.Second),
	}
	if journal != nil {
		jobs = append(jobs, scheduler.NewPruneJob(journal,
			time.Duration(cfg.Journal.RetentionHours)*time.Hour,
			time.Duration(cfg.Task.PruneInterval)*time.Second))
	}
	tasks, err := scheduler.NewManager(jobs...)
	if err != nil {
		logger.Fatal("Failed to create task manager: %v", err)
	}
	if err := tasks.Start(); err != nil {
		logger.Fatal("Failed to start task manager: %v", err)
	}
	defer tasks.Stop()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 调试 HTTP 服务
	var srv *http.Server
	if cfg.Server.Enabled {
		if cfg.Server.Mode == "release" {
			gin.SetMode(gin.ReleaseMode)
		}
		srv = &http.Server{
			Addr:    ":" + cfg.Server.Port,
			Handler: router.Setup(d, metrics.Handler(), sessionID),
		}
		go func() {
			logger.Info("Debug server starting on port %s", cfg.Server.Port)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("Debug server failed: %v", err)
			}
		}()
	}

	// rollup 主循环
	runner := rollup.NewRunner(
		rollup.NewClient(cfg.Rollup),
		d,
		time.Duration(cfg.Rollup.PollInterval)*time.Millisecond,
	)
	if journal != nil {
		runner.Track(journal)
	}
	if err := runner.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Rollup loop exited: %v", err)
	}

	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Failed to shutdown debug server: %v", err)
		}
	}
	logger.Info("Melodious session %s stopped", sessionID)
}
