package order

import (
	"database/sql"

	"go.uber.org/zap"

	"designden/internal/config"
	"designden/internal/infrastructure/metrics"
	"designden/internal/order/controller"
	orderrepo "designden/internal/order/repository"
	"designden/internal/order/service"
	"designden/internal/order/usecase"
)

type Module struct {
	Controller *controller.OrderController
}

func NewModule(
	db *sql.DB,
	cfg *config.Config,
	pricer usecase.Pricer,
	notifier service.Notifier,
	orderMetrics *metrics.OrderMetrics,
	logger *zap.Logger,
) *Module {
	orderRepo := orderrepo.NewMySQLOrderRepository(db)

	transitionSvc := service.NewTransitionService(
		orderRepo,
		service.RandomOTPGenerator{},
		notifier,
		orderMetrics,
		logger,
	)

	transitions := usecase.NewTransitionUseCase(
		transitionSvc,
		logger,
		cfg.Order.TxTimeout,
		cfg.Order.MaxRetryAttempts,
	)
	queries := usecase.NewQueryUseCase(orderRepo, logger)
	checkout := usecase.NewCheckoutUseCase(pricer, orderRepo, logger)

	return &Module{
		Controller: controller.NewOrderController(transitions, queries, checkout, logger),
	}
}
