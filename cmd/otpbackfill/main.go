package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"designden/internal/commons"
	"designden/internal/domain"
	"designden/internal/infrastructure/logger"
	"designden/internal/infrastructure/mysql"
	orderrepo "designden/internal/order/repository"
	"designden/internal/order/service"
	"designden/internal/order/usecase"
)

// noopNotifier discards events; a backfill does not change status.
type noopNotifier struct{}

func (noopNotifier) Notify(context.Context, domain.StatusChangedEvent) {}

func main() {
	configPath := flag.String("config", "internal/config/config.yaml", "path to the YAML config file")
	flag.Parse()

	cfg, err := commons.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	zapLogger, err := logger.New(cfg.Log.Level, "designden-otpbackfill")
	if err != nil {
		log.Fatalf("creating logger: %v", err)
	}
	defer zapLogger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := mysql.NewConnection(ctx, cfg.Database)
	if err != nil {
		zapLogger.Fatal("connecting to database", zap.Error(err))
	}
	defer db.Close()

	repo := orderrepo.NewMySQLOrderRepository(db)
	svc := service.NewTransitionService(repo, service.RandomOTPGenerator{}, noopNotifier{}, nil, zapLogger)

	result, err := usecase.NewBackfillUseCase(repo, svc, zapLogger).Run(ctx)
	if err != nil {
		zapLogger.Fatal("otp backfill aborted", zap.Error(err), zap.Int("updated", result.Updated))
	}
	if len(result.Failed) > 0 {
		zapLogger.Error("some orders were not backfilled", zap.Strings("orderIds", result.Failed))
		os.Exit(1)
	}
}
