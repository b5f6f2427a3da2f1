package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 5*time.Minute, cfg.Database.ConnMaxLifetime)
	assert.Equal(t, 3, cfg.Order.MaxRetryAttempts)
	assert.Equal(t, "log", cfg.Notifier.Driver)
	assert.Equal(t, []string{"localhost:9092"}, cfg.Kafka.Brokers)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("DB_CONN_MAX_LIFETIME", "90s")
	t.Setenv("NOTIFIER_DRIVER", "Kafka")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092")
	t.Setenv("OTEL_TRACING_ENABLED", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 90*time.Second, cfg.Database.ConnMaxLifetime)
	assert.Equal(t, "kafka", cfg.Notifier.Driver)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.True(t, cfg.Telemetry.TracingEnabled)
}

func TestLoad_InvalidDuration(t *testing.T) {
	t.Setenv("ORDER_TX_TIMEOUT", "soon")

	_, err := Load()
	assert.Error(t, err)
}

func TestApplyEnv_KeepsExistingValuesAsDefaults(t *testing.T) {
	cfg := Defaults()
	cfg.Database.Name = "from_file"
	cfg.Order.TxTimeout = 2 * time.Second

	require.NoError(t, ApplyEnv(cfg))

	assert.Equal(t, "from_file", cfg.Database.Name)
	assert.Equal(t, 2*time.Second, cfg.Order.TxTimeout)
}
