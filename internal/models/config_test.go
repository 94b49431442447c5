package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultConfigIsValid(t *testing.T) {
	cfg := NewDefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, StorageTypeMemory, cfg.Storage.Type)
	assert.Equal(t, RateStoreTypeMemory, cfg.RateStore.Type)
	assert.True(t, cfg.Security.EnableAuth)

	// Default admission policy: 3 requests per 20s, 100s cooldown, fail closed.
	assert.True(t, cfg.Admission.Enabled)
	assert.Equal(t, 3, cfg.Admission.RequestsPerPeriod)
	assert.Equal(t, 20*time.Second, cfg.Admission.TimePeriod)
	assert.Equal(t, 100*time.Second, cfg.Admission.CooldownPeriod)
	assert.False(t, cfg.Admission.FailOpen)
	assert.False(t, cfg.Admission.CountDenied)
}

func TestServerConfigValidate(t *testing.T) {
	base := NewDefaultConfig().Server

	t.Run("invalid port", func(t *testing.T) {
		cfg := base
		cfg.Port = 0
		assert.Error(t, cfg.Validate())
	})

	t.Run("empty host", func(t *testing.T) {
		cfg := base
		cfg.Host = ""
		assert.Error(t, cfg.Validate())
	})

	t.Run("tls without cert", func(t *testing.T) {
		cfg := base
		cfg.TLSEnabled = true
		cfg.TLSKeyFile = "key.pem"
		assert.Error(t, cfg.Validate())
	})
}

func TestStorageConfigValidate(t *testing.T) {
	assert.NoError(t, (&StorageConfig{Type: StorageTypeMemory}).Validate())
	assert.Error(t, (&StorageConfig{Type: StorageTypeSQLite}).Validate())
	assert.NoError(t, (&StorageConfig{
		Type:     StorageTypeSQLite,
		Database: DatabaseConfig{DSN: "file:posts.db"},
	}).Validate())
	assert.Error(t, (&StorageConfig{Type: "cassandra"}).Validate())
}

func TestAdmissionConfigValidate(t *testing.T) {
	valid := AdmissionConfig{
		Enabled:           true,
		RequestsPerPeriod: 3,
		TimePeriod:        20 * time.Second,
		CooldownPeriod:    100 * time.Second,
	}
	assert.NoError(t, valid.Validate())

	t.Run("disabled skips checks", func(t *testing.T) {
		cfg := AdmissionConfig{Enabled: false}
		assert.NoError(t, cfg.Validate())
	})

	t.Run("zero requests", func(t *testing.T) {
		cfg := valid
		cfg.RequestsPerPeriod = 0
		assert.Error(t, cfg.Validate())
	})

	t.Run("zero period", func(t *testing.T) {
		cfg := valid
		cfg.TimePeriod = 0
		assert.Error(t, cfg.Validate())
	})

	t.Run("zero cooldown", func(t *testing.T) {
		cfg := valid
		cfg.CooldownPeriod = 0
		assert.Error(t, cfg.Validate())
	})
}

func TestRateStoreConfigValidate(t *testing.T) {
	assert.NoError(t, (&RateStoreConfig{Type: RateStoreTypeMemory}).Validate())
	assert.Error(t, (&RateStoreConfig{Type: RateStoreTypeRedis}).Validate())
	assert.NoError(t, (&RateStoreConfig{
		Type:  RateStoreTypeRedis,
		Redis: RedisConfig{Addr: "localhost:6379"},
	}).Validate())
	assert.Error(t, (&RateStoreConfig{
		Type:      RateStoreTypeMemory,
		OpTimeout: -time.Second,
	}).Validate())
}
