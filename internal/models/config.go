// Package models - Service configuration and operational settings.
// This file defines the configuration structures for all service components.
//
// Configuration Philosophy:
// - Hierarchical configuration with logical grouping (server, storage, admission, etc.)
// - Environment-friendly defaults that work out of the box
// - Comprehensive validation to catch misconfigurations early
// - Security-first approach with safe defaults
package models

import (
	"errors"
	"fmt"
	"time"
)

// Storage type constants
const (
	StorageTypeMemory   = "memory"
	StorageTypePostgres = "postgres"
	StorageTypeSQLite   = "sqlite"
)

// Rate store type constants
const (
	RateStoreTypeMemory = "memory"
	RateStoreTypeRedis  = "redis"
)

// Config is the root configuration structure containing all service settings.
type Config struct {
	Server        ServerConfig        `yaml:"server" json:"server"`               // HTTP server configuration
	Storage       StorageConfig       `yaml:"storage" json:"storage"`             // Posts/members persistence
	Security      SecurityConfig      `yaml:"security" json:"security"`           // Authentication settings
	Admission     AdmissionConfig     `yaml:"admission" json:"admission"`         // Rate limiting and cooldown policy
	RateStore     RateStoreConfig     `yaml:"rate_store" json:"rate_store"`       // Shared rate counter store
	Upstream      UpstreamConfig      `yaml:"upstream" json:"upstream"`           // Remote posts directory
	Logging       LoggingConfig       `yaml:"logging" json:"logging"`             // Logging and output configuration
	Metrics       MetricsConfig       `yaml:"metrics" json:"metrics"`             // Monitoring and metrics
	Observability ObservabilityConfig `yaml:"observability" json:"observability"` // Tracing and service identity
}

type ServerConfig struct {
	Port         int           `yaml:"port" json:"port"`
	Host         string        `yaml:"host" json:"host"`
	ReadTimeout  time.Duration `yaml:"read_timeout" json:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout" json:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout" json:"idle_timeout"`
	TLSEnabled   bool          `yaml:"tls_enabled" json:"tls_enabled"`
	TLSCertFile  string        `yaml:"tls_cert_file" json:"tls_cert_file"`
	TLSKeyFile   string        `yaml:"tls_key_file" json:"tls_key_file"`
}

type StorageConfig struct {
	Type     string         `yaml:"type" json:"type"`
	Database DatabaseConfig `yaml:"database" json:"database"`
}

type DatabaseConfig struct {
	DSN             string        `yaml:"dsn" json:"dsn"`
	MaxOpenConns    int           `yaml:"max_open_conns" json:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns" json:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" json:"conn_max_lifetime"`
}

type SecurityConfig struct {
	// EnableAuth gates the privileged routes. When false the service runs in
	// dev mode and member/admin routes accept any request.
	EnableAuth bool `yaml:"enable_auth" json:"enable_auth"`

	// BootstrapToken, when set, is seeded into storage as an admin member on
	// startup. Intended for first deployment; prefer cmd/mintmember afterwards.
	BootstrapToken string `yaml:"bootstrap_token" json:"-"`
}

// AdmissionConfig holds the request admission policy: how many requests each
// identity may make per rolling window, and the penalty once the limit trips.
type AdmissionConfig struct {
	Enabled           bool          `yaml:"enabled" json:"enabled"`
	RequestsPerPeriod int           `yaml:"requests_per_period" json:"requests_per_period"`
	TimePeriod        time.Duration `yaml:"time_period" json:"time_period"`
	CooldownPeriod    time.Duration `yaml:"cooldown_period" json:"cooldown_period"`

	// FailOpen controls behaviour when the rate counter store is unreachable.
	// Default false: reject with 503 rather than admit unbounded traffic.
	FailOpen bool `yaml:"fail_open" json:"fail_open"`

	// CountDenied, when true, runs admission before the privilege check so
	// that forbidden requests still consume rate budget.
	CountDenied bool `yaml:"count_denied" json:"count_denied"`
}

type RateStoreConfig struct {
	Type  string      `yaml:"type" json:"type"`
	Redis RedisConfig `yaml:"redis" json:"redis"`

	// OpTimeout bounds each round trip to the shared store.
	OpTimeout time.Duration `yaml:"op_timeout" json:"op_timeout"`
}

type RedisConfig struct {
	Addr      string `yaml:"addr" json:"addr"`
	Password  string `yaml:"password" json:"-"`
	DB        int    `yaml:"db" json:"db"`
	PoolSize  int    `yaml:"pool_size" json:"pool_size"`
	KeyPrefix string `yaml:"key_prefix" json:"key_prefix"`
}

// UpstreamConfig describes the remote posts directory used to validate author
// ids and to backfill posts that are not present locally.
type UpstreamConfig struct {
	Enabled bool          `yaml:"enabled" json:"enabled"`
	BaseURL string        `yaml:"base_url" json:"base_url"`
	Timeout time.Duration `yaml:"timeout" json:"timeout"`

	// RequestsPerSecond and Burst throttle outbound calls to the directory.
	RequestsPerSecond float64 `yaml:"requests_per_second" json:"requests_per_second"`
	Burst             int     `yaml:"burst" json:"burst"`
}

type LoggingConfig struct {
	Level    string `yaml:"level" json:"level"`
	Format   string `yaml:"format" json:"format"`
	Output   string `yaml:"output" json:"output"`
	FilePath string `yaml:"file_path" json:"file_path"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Path    string `yaml:"path" json:"path"`
	Port    int    `yaml:"port" json:"port"`
}

type ObservabilityConfig struct {
	ServiceName string        `yaml:"service_name" json:"service_name"`
	Tracing     TracingConfig `yaml:"tracing" json:"tracing"`
}

type TracingConfig struct {
	Enabled      bool    `yaml:"enabled" json:"enabled"`
	Exporter     string  `yaml:"exporter" json:"exporter"`
	OTLPEndpoint string  `yaml:"otlp_endpoint" json:"otlp_endpoint"`
	SampleRate   float64 `yaml:"sample_rate" json:"sample_rate"`
}

// NewDefaultConfig creates a configuration with production-ready defaults.
//
// Default Values Rationale:
// - Port 8080: standard non-privileged HTTP port
// - 30-second timeouts: balance between user experience and resource protection
// - Memory storage and rate store: run out of the box without external services
// - Admission defaults 3 requests / 20s window / 100s cooldown, fail-closed
// - Structured JSON logging: better for log aggregation and analysis
func NewDefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         8080,
			Host:         "0.0.0.0",
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
			TLSEnabled:   false,
		},
		Storage: StorageConfig{
			Type: StorageTypeMemory,
			Database: DatabaseConfig{
				MaxOpenConns:    25,
				MaxIdleConns:    5,
				ConnMaxLifetime: 5 * time.Minute,
			},
		},
		Security: SecurityConfig{
			EnableAuth: true,
		},
		Admission: AdmissionConfig{
			Enabled:           true,
			RequestsPerPeriod: 3,
			TimePeriod:        20 * time.Second,
			CooldownPeriod:    100 * time.Second,
			FailOpen:          false,
			CountDenied:       false,
		},
		RateStore: RateStoreConfig{
			Type:      RateStoreTypeMemory,
			OpTimeout: 2 * time.Second,
			Redis: RedisConfig{
				Addr:      "localhost:6379",
				DB:        0,
				PoolSize:  10,
				KeyPrefix: "postboard:rate",
			},
		},
		Upstream: UpstreamConfig{
			Enabled:           true,
			BaseURL:           "https://jsonplaceholder.typicode.com",
			Timeout:           10 * time.Second,
			RequestsPerSecond: 5,
			Burst:             10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
			Port:    9090,
		},
		Observability: ObservabilityConfig{
			ServiceName: "postboard",
			Tracing: TracingConfig{
				Enabled:    false,
				Exporter:   "stdout",
				SampleRate: 1.0,
			},
		},
	}
}

func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("invalid server config: %w", err)
	}

	if err := c.Storage.Validate(); err != nil {
		return fmt.Errorf("invalid storage config: %w", err)
	}

	if err := c.Admission.Validate(); err != nil {
		return fmt.Errorf("invalid admission config: %w", err)
	}

	if err := c.RateStore.Validate(); err != nil {
		return fmt.Errorf("invalid rate store config: %w", err)
	}

	if err := c.Upstream.Validate(); err != nil {
		return fmt.Errorf("invalid upstream config: %w", err)
	}

	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("invalid logging config: %w", err)
	}

	if err := c.Metrics.Validate(); err != nil {
		return fmt.Errorf("invalid metrics config: %w", err)
	}

	return nil
}

func (sc *ServerConfig) Validate() error {
	if sc.Port <= 0 || sc.Port > 65535 {
		return errors.New("port must be between 1 and 65535")
	}

	if sc.Host == "" {
		return errors.New("host cannot be empty")
	}

	if sc.ReadTimeout < 0 {
		return errors.New("read timeout cannot be negative")
	}

	if sc.WriteTimeout < 0 {
		return errors.New("write timeout cannot be negative")
	}

	if sc.IdleTimeout < 0 {
		return errors.New("idle timeout cannot be negative")
	}

	if sc.TLSEnabled {
		if sc.TLSCertFile == "" {
			return errors.New("TLS cert file is required when TLS is enabled")
		}
		if sc.TLSKeyFile == "" {
			return errors.New("TLS key file is required when TLS is enabled")
		}
	}

	return nil
}

func (stc *StorageConfig) Validate() error {
	switch stc.Type {
	case StorageTypeMemory:
		// Memory storage requires no additional configuration
	case StorageTypePostgres, StorageTypeSQLite:
		if stc.Database.DSN == "" {
			return fmt.Errorf("database DSN is required for %s storage", stc.Type)
		}
	default:
		return fmt.Errorf("invalid storage type: %s", stc.Type)
	}

	return nil
}

func (ac *AdmissionConfig) Validate() error {
	if !ac.Enabled {
		return nil
	}

	if ac.RequestsPerPeriod <= 0 {
		return errors.New("requests per period must be positive")
	}
	if ac.TimePeriod <= 0 {
		return errors.New("time period must be positive")
	}
	if ac.CooldownPeriod <= 0 {
		return errors.New("cooldown period must be positive")
	}

	return nil
}

func (rc *RateStoreConfig) Validate() error {
	switch rc.Type {
	case RateStoreTypeMemory:
		// No external connection required
	case RateStoreTypeRedis:
		if rc.Redis.Addr == "" {
			return errors.New("redis address is required when rate store type is redis")
		}
	default:
		return fmt.Errorf("invalid rate store type: %s", rc.Type)
	}

	if rc.OpTimeout < 0 {
		return errors.New("op timeout cannot be negative")
	}

	return nil
}

func (uc *UpstreamConfig) Validate() error {
	if !uc.Enabled {
		return nil
	}

	if uc.BaseURL == "" {
		return errors.New("base URL is required when upstream lookup is enabled")
	}
	if uc.Timeout <= 0 {
		return errors.New("upstream timeout must be positive")
	}
	if uc.RequestsPerSecond <= 0 {
		return errors.New("upstream requests per second must be positive")
	}
	if uc.Burst <= 0 {
		return errors.New("upstream burst must be positive")
	}

	return nil
}

func (lc *LoggingConfig) Validate() error {
	validLevels := []string{"debug", "info", "warn", "error"}
	found := false
	for _, vl := range validLevels {
		if lc.Level == vl {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("invalid log level: %s", lc.Level)
	}

	validFormats := []string{"json", "text"}
	found = false
	for _, vf := range validFormats {
		if lc.Format == vf {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("invalid log format: %s", lc.Format)
	}

	validOutputs := []string{"stdout", "stderr", "file"}
	found = false
	for _, vo := range validOutputs {
		if lc.Output == vo {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("invalid log output: %s", lc.Output)
	}

	if lc.Output == "file" && lc.FilePath == "" {
		return errors.New("file path is required when output is file")
	}

	return nil
}

func (mc *MetricsConfig) Validate() error {
	if !mc.Enabled {
		return nil
	}

	if mc.Path == "" {
		return errors.New("metrics path cannot be empty")
	}

	if mc.Port <= 0 || mc.Port > 65535 {
		return errors.New("metrics port must be between 1 and 65535")
	}

	return nil
}
