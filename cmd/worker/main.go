package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jwalitptl/clinic-api/internal/config"
	"github.com/jwalitptl/clinic-api/internal/handler/health"
	"github.com/jwalitptl/clinic-api/internal/repository/postgres"
	commissionService "github.com/jwalitptl/clinic-api/internal/service/commission"
	settingsService "github.com/jwalitptl/clinic-api/internal/service/settings"
	internalWorker "github.com/jwalitptl/clinic-api/internal/worker"
	"github.com/jwalitptl/clinic-api/pkg/logger"
	"github.com/jwalitptl/clinic-api/pkg/messaging/redis"
	"github.com/jwalitptl/clinic-api/pkg/metrics"
	"github.com/jwalitptl/clinic-api/pkg/validator"
	"github.com/jwalitptl/clinic-api/pkg/worker"
)

const healthAddr = ":8081"

func setupHealthCheck(deps map[string]health.Pinger, reg *prometheus.Registry, log *logger.Logger) *http.Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	health.NewHandler(deps).RegisterRoutes(engine)
	engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	srv := &http.Server{Addr: healthAddr, Handler: engine, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err, "Health check server failed")
		}
	}()
	return srv
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	log := logger.Setup(cfg.Log.Level, cfg.Log.Format).WithFields(map[string]interface{}{"component": "worker"})

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal(err, "Failed to connect to database")
	}
	defer db.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	broker, err := redis.NewRedisBroker(ctx, cfg.ToBrokerConfig(), log.ZL)
	if err != nil {
		log.Fatal(err, "Failed to create Redis broker")
	}
	defer broker.Close()

	store := postgres.NewStore(db)
	reg := prometheus.NewRegistry()
	m := metrics.New(cfg.Server.MetricsPrefix+"_worker", reg)

	processor, err := worker.NewOutboxProcessor(store, broker, cfg.ToWorkerConfig(), log, m)
	if err != nil {
		log.Fatal(err, "Invalid outbox configuration")
	}
	cleanup := worker.NewOutboxCleanupWorker(store.Outbox(), cfg.Outbox.Retention, cfg.Outbox.CleanupInterval, log)

	sp := settingsService.NewService(store.Settings(), cfg.DefaultSettings(), cfg.Settings.CacheTTL)
	commissions := commissionService.NewService(store, sp, validator.New(), m)
	payroll := internalWorker.NewPayrollScheduler(commissions, sp, cfg.Payroll.Schedule, log)

	healthSrv := setupHealthCheck(map[string]health.Pinger{
		"database": db,
		"redis":    health.PingFunc(broker.Ping),
	}, reg, log)

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Info("Shutting down...")
		cancel()
	}()

	var wg sync.WaitGroup
	run := func(name string, fn func(context.Context)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			log.Info("Starting " + name)
			fn(ctx)
			log.Info("Stopped " + name)
		}()
	}

	run("outbox processor", processor.Start)
	run("outbox cleanup", cleanup.Start)
	if cfg.Payroll.Enabled {
		run("payroll scheduler", func(ctx context.Context) {
			if err := payroll.Start(ctx); err != nil {
				log.Error(err, "Payroll scheduler stopped")
			}
		})
	}

	wg.Wait()

	shutdownCtx, stop := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer stop()
	if err := healthSrv.Shutdown(shutdownCtx); err != nil {
		log.Error(err, "Health server shutdown failed")
	}
}
