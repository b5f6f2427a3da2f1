package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/contrib/instrumentation/runtime"
	"go.uber.org/zap"

	"designden/internal/catalog"
	"designden/internal/commons"
	"designden/internal/config"
	"designden/internal/infrastructure/kafka"
	"designden/internal/infrastructure/logger"
	"designden/internal/infrastructure/metrics"
	"designden/internal/infrastructure/mysql"
	"designden/internal/infrastructure/rabbitmq"
	"designden/internal/infrastructure/telemetry"
	"designden/internal/order"
	"designden/internal/order/notification"
	"designden/internal/server"
)

func main() {
	cfg, err := commons.LoadConfig(configPath())
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	zapLogger, err := logger.New(cfg.Log.Level, cfg.Service.Name)
	if err != nil {
		log.Fatalf("creating logger: %v", err)
	}
	defer zapLogger.Sync()

	ctx := context.Background()

	telemetry.InstallPropagators()
	if cfg.Telemetry.TracingEnabled {
		shutdownTracer, err := telemetry.InitTracerProvider(ctx, cfg.Telemetry.OTLPEndpoint, cfg.Service.Name, cfg.Service.Version)
		if err != nil {
			zapLogger.Fatal("initializing tracer provider", zap.Error(err))
		}
		defer shutdownTracer(context.Background())
	}

	shutdownMeter, err := telemetry.InitMeterProvider(cfg.Service.Name, cfg.Service.Version)
	if err != nil {
		zapLogger.Fatal("initializing meter provider", zap.Error(err))
	}
	defer shutdownMeter(context.Background())

	if err := runtime.Start(); err != nil {
		zapLogger.Warn("starting runtime metrics", zap.Error(err))
	}

	db, err := mysql.NewConnection(ctx, cfg.Database)
	if err != nil {
		zapLogger.Fatal("connecting to database", zap.Error(err))
	}
	defer db.Close()
	zapLogger.Info("database connected")

	orderMetrics := metrics.NewOrderMetrics(prometheus.DefaultRegisterer)

	publisher, closePublisher, err := newPublisher(cfg, zapLogger)
	if err != nil {
		zapLogger.Fatal("creating notification publisher", zap.Error(err))
	}
	zapLogger.Info("notifier ready", zap.String("driver", cfg.Notifier.Driver))

	dispatcher := notification.NewDispatcher(publisher, cfg.Notifier.BufferSize, cfg.Notifier.PublishTimeout, orderMetrics, zapLogger)
	dispatcher.Start()

	catalogModule := catalog.NewModule(db, zapLogger)
	orderModule := order.NewModule(db, cfg, catalogModule.Service, dispatcher, orderMetrics, zapLogger)

	router := server.NewRouter(catalogModule.Controller, orderModule.Controller, zapLogger)
	srv := server.New(cfg.Server, router, zapLogger)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := srv.Start(); err != nil {
			zapLogger.Fatal("server error", zap.Error(err))
		}
	}()

	<-quit
	zapLogger.Info("received shutdown signal")

	if err := srv.Shutdown(context.Background()); err != nil {
		zapLogger.Error("server shutdown failed", zap.Error(err))
	}

	drainCtx, cancel := context.WithTimeout(context.Background(), cfg.Notifier.PublishTimeout+5*time.Second)
	defer cancel()
	if err := dispatcher.Close(drainCtx); err != nil {
		zapLogger.Warn("notification buffer not drained", zap.Error(err))
	}
	if err := closePublisher(); err != nil {
		zapLogger.Warn("closing publisher", zap.Error(err))
	}

	zapLogger.Info("server stopped gracefully")
}

func configPath() string {
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		return p
	}
	return "internal/config/config.yaml"
}

func newPublisher(cfg *config.Config, zapLogger *zap.Logger) (notification.Publisher, func() error, error) {
	switch cfg.Notifier.Driver {
	case "kafka":
		p := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		return p, p.Close, nil
	case "rabbitmq":
		p, err := rabbitmq.Connect(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange, notification.RoutingKey)
		if err != nil {
			return nil, nil, err
		}
		return p, p.Close, nil
	case "log", "":
		return notification.NewLogPublisher(zapLogger), func() error { return nil }, nil
	default:
		return nil, nil, fmt.Errorf("unknown notifier driver %q", cfg.Notifier.Driver)
	}
}
