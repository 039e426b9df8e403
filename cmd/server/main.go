package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/mamadbah2/kitledger/internal/config"
	"github.com/mamadbah2/kitledger/internal/domain/catalog"
	"github.com/mamadbah2/kitledger/internal/metrics"
	"github.com/mamadbah2/kitledger/internal/repository/driver"
	"github.com/mamadbah2/kitledger/internal/scheduler"
	"github.com/mamadbah2/kitledger/internal/server/handlers"
	"github.com/mamadbah2/kitledger/internal/server/router"
	commandsvc "github.com/mamadbah2/kitledger/internal/service/commands"
	"github.com/mamadbah2/kitledger/internal/service/ledger"
	reportingsvc "github.com/mamadbah2/kitledger/internal/service/reporting"
	"github.com/mamadbah2/kitledger/internal/service/usage"
	"github.com/mamadbah2/kitledger/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New(cfg.Log.Level))
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	backend, err := driver.Open(context.Background(), cfg, baseLogger)
	if err != nil {
		baseLogger.Fatal("failed to init storage backend", zap.String("driver", cfg.Storage.Driver), zap.Error(err))
	}
	defer func() {
		if err := backend.Close(); err != nil {
			baseLogger.Error("failed to close storage backend", zap.Error(err))
		}
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	recorder := metrics.NewRecorder(registry)

	cat := catalog.Default()
	ledgerSvc := ledger.NewService(backend, cat, recorder, baseLogger.Named("svc.ledger"))
	usageSvc := usage.NewService(backend, recorder, baseLogger.Named("svc.usage"))

	alerts := commandsvc.NewAlertPolicy(cfg.Alerts)
	if alerts != nil {
		baseLogger.Info("low stock alerts enabled", zap.Int("threshold", alerts.Threshold))
	}

	commandDispatcher := commandsvc.NewService(ledgerSvc, usageSvc, alerts, recorder, baseLogger.Named("svc.commands"))
	reportingSvc := reportingsvc.NewService(commandDispatcher, baseLogger.Named("svc.reporting"))

	inventoryHandler := handlers.NewInventoryHandler(commandDispatcher, reportingSvc, cat, baseLogger.Named("handlers.inventory"))
	engine := router.New(inventoryHandler, registry, baseLogger.Named("router"))

	if cfg.Reporting.CronSchedule != "" {
		sched, err := scheduler.NewScheduler(cfg.Reporting, reportingSvc, cat.Equipments(), baseLogger.Named("scheduler"))
		if err != nil {
			baseLogger.Fatal("failed to init scheduler", zap.Error(err))
		}
		if err := sched.Start(); err != nil {
			baseLogger.Fatal("failed to start scheduler", zap.Error(err))
		}
		defer sched.Stop()
	} else {
		baseLogger.Info("report archive disabled, REPORT_CRON_SCHEDULE is empty")
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		baseLogger.Info("server starting", zap.String("port", cfg.Server.Port), zap.String("storage", cfg.Storage.Driver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Fatal("http server crashed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	baseLogger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("graceful shutdown failed", zap.Error(err))
	}
}
