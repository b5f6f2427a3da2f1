// Package testutil provides a migrated MySQL database for integration tests.
// TEST_MYSQL_DSN points the tests at an existing server; otherwise a
// throwaway container is started. Tests skip when neither is available.
package testutil

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/mysql"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/go-sql-driver/mysql"
	"github.com/testcontainers/testcontainers-go"
	tcmysql "github.com/testcontainers/testcontainers-go/modules/mysql"
)

var (
	setupOnce sync.Once
	sharedDSN string
	setupErr  error
)

// SetupTestDB returns a connection to a database with every migration
// applied. The schema is shared across tests in the process.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	if os.Getenv("TEST_MYSQL_DSN") == "" {
		testcontainers.SkipIfProviderIsNotHealthy(t)
	}

	setupOnce.Do(func() {
		sharedDSN, setupErr = provisionDatabase(context.Background())
	})
	if setupErr != nil {
		t.Skipf("test database not available: %v", setupErr)
	}

	db, err := sql.Open("mysql", sharedDSN)
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := db.Ping(); err != nil {
		t.Skipf("test database not available: %v", err)
	}

	return db
}

// CleanupTestDB empties every table and closes db.
func CleanupTestDB(t *testing.T, db *sql.DB) {
	if db == nil {
		return
	}

	tables := []string{"order_timeline", "order_items", "orders", "designs", "products"}
	for _, table := range tables {
		_, err := db.Exec(fmt.Sprintf("DELETE FROM %s", table))
		if err != nil {
			t.Logf("failed to clean table %s: %v", table, err)
		}
	}

	db.Close()
}

func provisionDatabase(ctx context.Context) (string, error) {
	dsn := os.Getenv("TEST_MYSQL_DSN")
	if dsn == "" {
		var err error
		dsn, err = recoverStart(func() (string, error) { return startContainer(ctx) })
		if err != nil {
			return "", err
		}
	}

	if err := runMigrations(dsn); err != nil {
		return "", err
	}
	return dsn, nil
}

// recoverStart turns a panic raised while locating a container runtime into
// an error so callers skip instead of aborting the test binary.
func recoverStart(start func() (string, error)) (dsn string, err error) {
	defer func() {
		if r := recover(); r != nil {
			dsn, err = "", fmt.Errorf("container runtime unavailable: %v", r)
		}
	}()
	return start()
}

// startContainer leaves termination to the testcontainers reaper at process
// exit.
func startContainer(ctx context.Context) (string, error) {
	container, err := tcmysql.Run(ctx,
		"mysql:8.4",
		tcmysql.WithDatabase("designden_test"),
		tcmysql.WithUsername("designden"),
		tcmysql.WithPassword("designden"),
		testcontainers.WithEnv(map[string]string{"TZ": "UTC"}),
	)
	if err != nil {
		return "", fmt.Errorf("starting mysql container: %w", err)
	}

	dsn, err := container.ConnectionString(ctx, "parseTime=true", "loc=UTC")
	if err != nil {
		_ = container.Terminate(ctx)
		return "", fmt.Errorf("getting connection string: %w", err)
	}
	return dsn, nil
}

func runMigrations(dsn string) error {
	m, err := migrate.New(migrationsPath(), "mysql://"+withParam(dsn, "multiStatements=true"))
	if err != nil {
		return fmt.Errorf("creating migrate instance: %w", err)
	}
	defer func() { _, _ = m.Close() }()

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("running migrations: %w", err)
	}
	return nil
}

func withParam(dsn, param string) string {
	if strings.Contains(dsn, "?") {
		return dsn + "&" + param
	}
	return dsn + "?" + param
}

func migrationsPath() string {
	_, filename, _, _ := runtime.Caller(0)
	root := filepath.Join(filepath.Dir(filename), "..", "..")
	return "file://" + filepath.Join(root, "migrations")
}
