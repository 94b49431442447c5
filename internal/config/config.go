package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"postboard/internal/models"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Load builds the configuration in four layers: defaults, a .env file in the
// working directory, an optional YAML file, then environment variables. The
// result is validated before it is returned.
func Load(configPath string) (*models.Config, error) {
	// Populate the process environment from .env first so the env layer
	// below sees those values. A missing file is not an error.
	_ = godotenv.Load()

	config := models.NewDefaultConfig()

	if configPath != "" {
		if err := loadFromFile(config, configPath); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	loadFromEnvironment(config)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// loadFromFile loads configuration from a YAML file
func loadFromFile(config *models.Config, filePath string) error {
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return fmt.Errorf("config file not found: %s", filePath)
	}
	data, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, config); err != nil {
		return fmt.Errorf("failed to parse YAML config: %w", err)
	}
	return nil
}

// loadFromEnvironment loads configuration from environment variables
func loadFromEnvironment(config *models.Config) {
	// Server configuration
	if port := os.Getenv("POSTBOARD_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}

	if host := os.Getenv("POSTBOARD_HOST"); host != "" {
		config.Server.Host = host
	}

	if timeout := os.Getenv("POSTBOARD_READ_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil {
			config.Server.ReadTimeout = d
		}
	}

	if timeout := os.Getenv("POSTBOARD_WRITE_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil {
			config.Server.WriteTimeout = d
		}
	}

	if timeout := os.Getenv("POSTBOARD_IDLE_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil {
			config.Server.IdleTimeout = d
		}
	}

	if tls := os.Getenv("POSTBOARD_TLS_ENABLED"); tls != "" {
		config.Server.TLSEnabled = strings.ToLower(tls) == "true"
	}

	if certFile := os.Getenv("POSTBOARD_TLS_CERT_FILE"); certFile != "" {
		config.Server.TLSCertFile = certFile
	}

	if keyFile := os.Getenv("POSTBOARD_TLS_KEY_FILE"); keyFile != "" {
		config.Server.TLSKeyFile = keyFile
	}

	// Storage configuration
	if storageType := os.Getenv("POSTBOARD_STORAGE_TYPE"); storageType != "" {
		config.Storage.Type = storageType
	}

	if dsn := os.Getenv("POSTBOARD_DATABASE_DSN"); dsn != "" {
		config.Storage.Database.DSN = dsn
	}

	if maxOpen := os.Getenv("POSTBOARD_DATABASE_MAX_OPEN_CONNS"); maxOpen != "" {
		if conns, err := strconv.Atoi(maxOpen); err == nil {
			config.Storage.Database.MaxOpenConns = conns
		}
	}

	// Security configuration
	if auth := os.Getenv("POSTBOARD_ENABLE_AUTH"); auth != "" {
		config.Security.EnableAuth = strings.ToLower(auth) == "true"
	}

	if bt := os.Getenv("POSTBOARD_BOOTSTRAP_TOKEN"); bt != "" {
		config.Security.BootstrapToken = bt
	}

	// Admission policy. The three core knobs use bare names shared with
	// other deployments of this limiter: plain integers interpreted as
	// counts and seconds.
	if v := os.Getenv("REQUESTS_PER_PERIOD"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.Admission.RequestsPerPeriod = n
		}
	}

	if v := os.Getenv("TIME_PERIOD"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil {
			config.Admission.TimePeriod = time.Duration(secs) * time.Second
		}
	}

	if v := os.Getenv("COOLDOWN_PERIOD"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil {
			config.Admission.CooldownPeriod = time.Duration(secs) * time.Second
		}
	}

	if enabled := os.Getenv("POSTBOARD_ADMISSION_ENABLED"); enabled != "" {
		config.Admission.Enabled = strings.ToLower(enabled) == "true"
	}

	if failOpen := os.Getenv("POSTBOARD_ADMISSION_FAIL_OPEN"); failOpen != "" {
		config.Admission.FailOpen = strings.ToLower(failOpen) == "true"
	}

	if countDenied := os.Getenv("POSTBOARD_ADMISSION_COUNT_DENIED"); countDenied != "" {
		config.Admission.CountDenied = strings.ToLower(countDenied) == "true"
	}

	// Rate store configuration
	if storeType := os.Getenv("POSTBOARD_RATE_STORE_TYPE"); storeType != "" {
		config.RateStore.Type = storeType
	}

	if timeout := os.Getenv("POSTBOARD_RATE_STORE_OP_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil {
			config.RateStore.OpTimeout = d
		}
	}

	if addr := os.Getenv("POSTBOARD_REDIS_ADDR"); addr != "" {
		config.RateStore.Redis.Addr = addr
	}

	if password := os.Getenv("POSTBOARD_REDIS_PASSWORD"); password != "" {
		config.RateStore.Redis.Password = password
	}

	if db := os.Getenv("POSTBOARD_REDIS_DB"); db != "" {
		if dbNum, err := strconv.Atoi(db); err == nil {
			config.RateStore.Redis.DB = dbNum
		}
	}

	if poolSize := os.Getenv("POSTBOARD_REDIS_POOL_SIZE"); poolSize != "" {
		if size, err := strconv.Atoi(poolSize); err == nil {
			config.RateStore.Redis.PoolSize = size
		}
	}

	if prefix := os.Getenv("POSTBOARD_REDIS_KEY_PREFIX"); prefix != "" {
		config.RateStore.Redis.KeyPrefix = prefix
	}

	// Upstream directory configuration
	if enabled := os.Getenv("POSTBOARD_UPSTREAM_ENABLED"); enabled != "" {
		config.Upstream.Enabled = strings.ToLower(enabled) == "true"
	}

	if baseURL := os.Getenv("POSTBOARD_UPSTREAM_BASE_URL"); baseURL != "" {
		config.Upstream.BaseURL = baseURL
	}

	if timeout := os.Getenv("POSTBOARD_UPSTREAM_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil {
			config.Upstream.Timeout = d
		}
	}

	// Logging configuration
	if level := os.Getenv("POSTBOARD_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	if format := os.Getenv("POSTBOARD_LOG_FORMAT"); format != "" {
		config.Logging.Format = format
	}

	if output := os.Getenv("POSTBOARD_LOG_OUTPUT"); output != "" {
		config.Logging.Output = output
	}

	if filePath := os.Getenv("POSTBOARD_LOG_FILE_PATH"); filePath != "" {
		config.Logging.FilePath = filePath
	}

	// Metrics configuration
	if metrics := os.Getenv("POSTBOARD_METRICS_ENABLED"); metrics != "" {
		config.Metrics.Enabled = strings.ToLower(metrics) == "true"
	}

	if path := os.Getenv("POSTBOARD_METRICS_PATH"); path != "" {
		config.Metrics.Path = path
	}

	if port := os.Getenv("POSTBOARD_METRICS_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Metrics.Port = p
		}
	}

	// Tracing configuration
	if tracing := os.Getenv("POSTBOARD_TRACING_ENABLED"); tracing != "" {
		config.Observability.Tracing.Enabled = strings.ToLower(tracing) == "true"
	}

	if exporter := os.Getenv("POSTBOARD_TRACING_EXPORTER"); exporter != "" {
		config.Observability.Tracing.Exporter = exporter
	}

	if endpoint := os.Getenv("POSTBOARD_OTLP_ENDPOINT"); endpoint != "" {
		config.Observability.Tracing.OTLPEndpoint = endpoint
	}
}

// SaveExample saves an example configuration file
func SaveExample(filePath string) error {
	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	config := models.NewDefaultConfig()
	config.Security.BootstrapToken = "pb_your-bootstrap-token-here"
	config.Storage.Type = models.StorageTypeSQLite
	config.Storage.Database.DSN = "./data/postboard.db"
	config.RateStore.Type = models.RateStoreTypeRedis

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
