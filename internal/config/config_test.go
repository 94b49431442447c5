package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"postboard/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	config, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, config.Server.Port)
	assert.Equal(t, models.StorageTypeMemory, config.Storage.Type)
	assert.True(t, config.Security.EnableAuth)

	assert.True(t, config.Admission.Enabled)
	assert.Equal(t, 3, config.Admission.RequestsPerPeriod)
	assert.Equal(t, 20*time.Second, config.Admission.TimePeriod)
	assert.Equal(t, 100*time.Second, config.Admission.CooldownPeriod)
	assert.False(t, config.Admission.FailOpen, "default must be fail closed")
	assert.False(t, config.Admission.CountDenied)

	assert.Equal(t, models.RateStoreTypeMemory, config.RateStore.Type)
}

func TestLoad_WithValidConfigFile(t *testing.T) {
	tempDir := t.TempDir()
	configFile := filepath.Join(tempDir, "test_config.yaml")

	configContent := `
server:
  port: 9999
  host: "localhost"

storage:
  type: "sqlite"
  database:
    dsn: "./test.db"

admission:
  requests_per_period: 10
  time_period: 60s
  cooldown_period: 300s
  fail_open: true

rate_store:
  type: "redis"
  redis:
    addr: "redis.internal:6379"
    key_prefix: "test:rate"

logging:
  level: "debug"
  format: "text"
  output: "stdout"
`

	require.NoError(t, os.WriteFile(configFile, []byte(configContent), 0644))

	config, err := Load(configFile)
	require.NoError(t, err)

	assert.Equal(t, 9999, config.Server.Port)
	assert.Equal(t, "localhost", config.Server.Host)
	assert.Equal(t, models.StorageTypeSQLite, config.Storage.Type)
	assert.Equal(t, "./test.db", config.Storage.Database.DSN)

	assert.Equal(t, 10, config.Admission.RequestsPerPeriod)
	assert.Equal(t, time.Minute, config.Admission.TimePeriod)
	assert.Equal(t, 5*time.Minute, config.Admission.CooldownPeriod)
	assert.True(t, config.Admission.FailOpen)

	assert.Equal(t, models.RateStoreTypeRedis, config.RateStore.Type)
	assert.Equal(t, "redis.internal:6379", config.RateStore.Redis.Addr)
	assert.Equal(t, "test:rate", config.RateStore.Redis.KeyPrefix)

	assert.Equal(t, "debug", config.Logging.Level)
}

func TestLoad_MissingConfigFile(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	assert.Error(t, err)
}

func TestLoad_InvalidYAML(t *testing.T) {
	tempDir := t.TempDir()
	configFile := filepath.Join(tempDir, "bad.yaml")
	require.NoError(t, os.WriteFile(configFile, []byte("server: [not a map"), 0644))

	_, err := Load(configFile)
	assert.Error(t, err)
}

func TestLoad_AdmissionEnvironmentOverrides(t *testing.T) {
	t.Setenv("REQUESTS_PER_PERIOD", "5")
	t.Setenv("TIME_PERIOD", "30")
	t.Setenv("COOLDOWN_PERIOD", "600")

	config, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 5, config.Admission.RequestsPerPeriod)
	assert.Equal(t, 30*time.Second, config.Admission.TimePeriod, "bare TIME_PERIOD is integer seconds")
	assert.Equal(t, 600*time.Second, config.Admission.CooldownPeriod)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("POSTBOARD_PORT", "7070")
	t.Setenv("POSTBOARD_ENABLE_AUTH", "false")
	t.Setenv("POSTBOARD_RATE_STORE_TYPE", "redis")
	t.Setenv("POSTBOARD_REDIS_ADDR", "env-redis:6379")
	t.Setenv("POSTBOARD_ADMISSION_FAIL_OPEN", "true")
	t.Setenv("POSTBOARD_UPSTREAM_BASE_URL", "https://directory.example.com")

	config, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 7070, config.Server.Port)
	assert.False(t, config.Security.EnableAuth)
	assert.Equal(t, models.RateStoreTypeRedis, config.RateStore.Type)
	assert.Equal(t, "env-redis:6379", config.RateStore.Redis.Addr)
	assert.True(t, config.Admission.FailOpen)
	assert.Equal(t, "https://directory.example.com", config.Upstream.BaseURL)
}

func TestLoad_EnvironmentOverridesFile(t *testing.T) {
	tempDir := t.TempDir()
	configFile := filepath.Join(tempDir, "config.yaml")
	require.NoError(t, os.WriteFile(configFile, []byte("server:\n  port: 9000\n"), 0644))

	t.Setenv("POSTBOARD_PORT", "9001")

	config, err := Load(configFile)
	require.NoError(t, err)
	assert.Equal(t, 9001, config.Server.Port, "environment wins over file")
}

func TestLoad_InvalidAdmissionConfig(t *testing.T) {
	t.Setenv("REQUESTS_PER_PERIOD", "0")

	_, err := Load("")
	assert.Error(t, err)
}

func TestSaveExample(t *testing.T) {
	tempDir := t.TempDir()
	examplePath := filepath.Join(tempDir, "example", "config.yaml")

	require.NoError(t, SaveExample(examplePath))

	loaded, err := Load(examplePath)
	require.NoError(t, err)
	assert.Equal(t, models.StorageTypeSQLite, loaded.Storage.Type)
	assert.Equal(t, models.RateStoreTypeRedis, loaded.RateStore.Type)
}
