package main

import (
	"errors"
	"flag"
	"log"
	"os"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/mysql"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"go.uber.org/zap"

	"designden/internal/commons"
	"designden/internal/infrastructure/logger"
	"designden/internal/infrastructure/mysql"
)

func main() {
	configPath := flag.String("config", "internal/config/config.yaml", "path to the YAML config file")
	flag.Parse()
	args := flag.Args()

	cfg, err := commons.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	zapLogger, err := logger.New(cfg.Log.Level, "designden-migrate")
	if err != nil {
		log.Fatalf("creating logger: %v", err)
	}
	defer zapLogger.Sync()

	if len(args) < 1 {
		zapLogger.Error("usage: migrate [-config path] <up|down|version>")
		os.Exit(1)
	}

	m, err := migrate.New(cfg.Database.MigrationsPath, mysql.MigrateURL(cfg.Database))
	if err != nil {
		zapLogger.Fatal("failed to create migrate instance", zap.Error(err))
	}
	defer func() { _, _ = m.Close() }()

	switch command := args[0]; command {
	case "up":
		err = m.Up()
		if errors.Is(err, migrate.ErrNoChange) {
			zapLogger.Info("no pending migrations")
			return
		}
		if err != nil {
			zapLogger.Fatal("migration up failed", zap.Error(err))
		}
		zapLogger.Info("migrations applied successfully")

	case "down":
		err = m.Steps(-1)
		if errors.Is(err, migrate.ErrNoChange) {
			zapLogger.Info("no migrations to rollback")
			return
		}
		if err != nil {
			zapLogger.Fatal("migration down failed", zap.Error(err))
		}
		zapLogger.Info("migration rolled back successfully")

	case "version":
		version, dirty, err := m.Version()
		if errors.Is(err, migrate.ErrNilVersion) {
			zapLogger.Info("no migrations applied yet")
			return
		}
		if err != nil {
			zapLogger.Fatal("failed to get version", zap.Error(err))
		}
		zapLogger.Info("current migration version", zap.Uint("version", version), zap.Bool("dirty", dirty))

	default:
		zapLogger.Fatal("unknown command", zap.String("command", command))
	}
}
