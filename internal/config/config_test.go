package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaults(t *testing.T) {
	cfg, err := New()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, cfg.Database.WriterDSN, cfg.Database.ReaderDSN)
	assert.Equal(t, "service-orders.events", cfg.Messaging.Kafka.Topic)
	assert.Equal(t, 50, cfg.Orders.DefaultListLimit)
	assert.Equal(t, 200, cfg.Orders.MaxListLimit)
	assert.Equal(t, "oficina", cfg.Observability.ServiceName)
}

func TestNewDisabledBackendsFallBackToNoop(t *testing.T) {
	t.Setenv("CACHE_ENABLED", "false")
	t.Setenv("MESSAGING_ENABLED", "false")

	cfg, err := New()
	require.NoError(t, err)
	assert.Equal(t, "noop", cfg.Cache.Driver)
	assert.Equal(t, "noop", cfg.Messaging.Driver)
}

func TestNewNormalisesObservability(t *testing.T) {
	t.Setenv("OBS_LOG_LEVEL", "  DEBUG ")
	t.Setenv("OBS_PROMETHEUS_PATH", "metrics")

	cfg, err := New()
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Observability.LogLevel)
	assert.Equal(t, "/metrics", cfg.Observability.PrometheusPath)
}

func TestNewRejectsInvalidValues(t *testing.T) {
	tests := map[string]map[string]string{
		"port":     {"HTTP_PORT": "0"},
		"cache":    {"CACHE_DRIVER": "memcached"},
		"database": {"DB_DRIVER": "oracle"},
		"limits":   {"ORDERS_MAX_LIST_LIMIT": "-1"},
		"dsn":      {"DB_WRITER_DSN": ""},
		"ratio":    {"OBS_TRACE_SAMPLE_RATIO": "1.5"},
	}
	for name, env := range tests {
		t.Run(name, func(t *testing.T) {
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := New()
			assert.Error(t, err)
		})
	}
}

func TestNewClampsDefaultListLimit(t *testing.T) {
	t.Setenv("ORDERS_DEFAULT_LIST_LIMIT", "500")
	t.Setenv("ORDERS_MAX_LIST_LIMIT", "100")

	cfg, err := New()
	require.NoError(t, err)
	assert.Equal(t, 100, cfg.Orders.DefaultListLimit)
}

func TestEnvHelpers(t *testing.T) {
	t.Setenv("X_INT", "nope")
	t.Setenv("X_DUR", "3s")
	t.Setenv("X_LIST", " a, ,b ")
	t.Setenv("X_FLOAT", " 0.25 ")

	assert.Equal(t, 9, getEnvAsInt("X_INT", 9))
	assert.Equal(t, 3*time.Second, getEnvAsDuration("X_DUR", time.Second))
	assert.Equal(t, []string{"a", "b"}, getEnvAsStringSlice("X_LIST", nil))
	assert.True(t, getEnvAsBool("X_MISSING", true))
	assert.Equal(t, 0.25, getEnvAsFloat("X_FLOAT", 1))
	assert.Equal(t, []string{"x"}, getEnvAsStringSlice("X_MISSING", []string{"x"}))
}
