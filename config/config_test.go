package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.Equal(t, ":8080", cfg.HTTP.Addr())
	assert.Empty(t, cfg.DB.Path)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.False(t, cfg.Kafka.Enabled())
	assert.Equal(t, "user_admin", cfg.Auth.DefaultUser)
	assert.True(t, cfg.Seed.Demo)
	assert.Equal(t, time.Hour, cfg.Reconcile.Interval)
}

func TestLoad_Environment(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("FRONTDESK_HTTP_PORT", "9090")
	t.Setenv("FRONTDESK_DB_PATH", "hotel.db")
	t.Setenv("FRONTDESK_KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092")
	t.Setenv("FRONTDESK_SEED_DEMO", "false")
	t.Setenv("FRONTDESK_RECONCILE_INTERVAL", "15m")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.HTTP.Port)
	assert.Equal(t, "hotel.db", cfg.DB.Path)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Kafka.Brokers)
	assert.True(t, cfg.Kafka.Enabled())
	assert.False(t, cfg.Seed.Demo)
	assert.Equal(t, 15*time.Minute, cfg.Reconcile.Interval)
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
http:
  port: 7000
  cors_origins:
    - https://desk.example
log:
  level: debug
auth:
  default_user: user_frontdesk
`), 0o600))

	// GIVEN a file and an env override for one of its keys
	t.Setenv("FRONTDESK_LOG_LEVEL", "warn")

	cfg, err := Load(path)
	require.NoError(t, err)

	// THEN the file sets what env does not, and env wins where both do
	assert.Equal(t, 7000, cfg.HTTP.Port)
	assert.Equal(t, []string{"https://desk.example"}, cfg.HTTP.CORSOrigins)
	assert.Equal(t, "user_frontdesk", cfg.Auth.DefaultUser)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	chdir(t, t.TempDir())
	_, err := Load("does-not-exist.yaml")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	base := Config{HTTP: HTTPConfig{Port: 8080}}
	assert.NoError(t, base.Validate())

	bad := base
	bad.HTTP.Port = 0
	assert.Error(t, bad.Validate())

	bad = base
	bad.Kafka = KafkaConfig{Brokers: []string{"localhost:9092"}}
	assert.Error(t, bad.Validate())
}

// chdir mirrors testing.T.Chdir (Go 1.24+) for older toolchains.
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(old) })
}
