package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"go.uber.org/zap"

	"github.com/mamadbah2/kitledger/internal/config"
	"github.com/mamadbah2/kitledger/internal/domain/catalog"
	"github.com/mamadbah2/kitledger/internal/repository/driver"
	commandsvc "github.com/mamadbah2/kitledger/internal/service/commands"
	"github.com/mamadbah2/kitledger/internal/service/ledger"
	reportingsvc "github.com/mamadbah2/kitledger/internal/service/reporting"
	"github.com/mamadbah2/kitledger/internal/service/usage"
	"github.com/mamadbah2/kitledger/pkg/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(os.Getenv("KITLEDGER_ENV_FILE"))
	if err != nil {
		return err
	}

	baseLogger, err := logger.NewConsole(os.Getenv("LOG_LEVEL"))
	if err != nil {
		return err
	}
	defer func() { _ = baseLogger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	backend, err := driver.Open(ctx, cfg, baseLogger)
	if err != nil {
		return fmt.Errorf("open %s backend: %w", cfg.Storage.Driver, err)
	}
	defer func() {
		if err := backend.Close(); err != nil {
			baseLogger.Error("failed to close backend", zap.Error(err))
		}
	}()

	cat := catalog.Default()
	dispatcher := commandsvc.NewService(
		ledger.NewService(backend, cat, nil, baseLogger.Named("svc.ledger")),
		usage.NewService(backend, nil, baseLogger.Named("svc.usage")),
		commandsvc.NewAlertPolicy(cfg.Alerts),
		nil,
		baseLogger.Named("svc.commands"))

	root := newRootCommand(&app{
		commands: dispatcher,
		reports:  reportingsvc.NewService(dispatcher, baseLogger.Named("svc.reporting")),
		catalog:  cat,
	})
	return root.ExecuteContext(ctx)
}
