package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds all configuration for the fair deal service.
type Config struct {
	// Server configuration
	HTTPPort int    `env:"FAIRDEAL_HTTP_PORT" envDefault:"8080"`
	GRPCPort int    `env:"FAIRDEAL_GRPC_PORT" envDefault:"9090"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// Oracle configuration
	Oracle OracleConfig

	// Session lifecycle configuration
	Sessions SessionConfig

	// Artifact upload configuration
	Uploader UploaderConfig

	// Proof worker configuration
	Workers WorkerConfig

	// Events configuration
	Events EventsConfig

	// Redis configuration
	Redis RedisConfig

	// Timeouts
	Timeouts TimeoutConfig
}

// OracleConfig holds the randomness oracle configuration.
type OracleConfig struct {
	// Backend selects the oracle client: "ethrpc" or "memory".
	Backend         string        `env:"FAIRDEAL_ORACLE_BACKEND" envDefault:"memory"`
	RPCURL          string        `env:"FAIRDEAL_ORACLE_RPC_URL"`
	WSURL           string        `env:"FAIRDEAL_ORACLE_WS_URL"`
	ContractAddress string        `env:"FAIRDEAL_ORACLE_CONTRACT_ADDRESS"`
	RequestTimeout  time.Duration `env:"FAIRDEAL_ORACLE_REQUEST_TIMEOUT" envDefault:"30s"`

	// CheckInterval is the scheduler tick for sessions awaiting randomness.
	CheckInterval   time.Duration `env:"FAIRDEAL_ORACLE_CHECK_INTERVAL" envDefault:"5s"`
	// AttemptTimeout bounds a single fulfillment attempt. It must stay
	// below CheckInterval so attempts cannot pile up across ticks.
	AttemptTimeout  time.Duration `env:"FAIRDEAL_ORACLE_ATTEMPT_TIMEOUT" envDefault:"4s"`
	PollInterval    time.Duration `env:"FAIRDEAL_ORACLE_POLL_INTERVAL" envDefault:"1s"`
	PollMaxAttempts int           `env:"FAIRDEAL_ORACLE_POLL_MAX_ATTEMPTS" envDefault:"3"`

	// AutoFulfillDelay makes the memory backend answer its own requests,
	// for development without a reachable oracle. Zero disables it.
	AutoFulfillDelay time.Duration `env:"FAIRDEAL_ORACLE_AUTO_FULFILL_DELAY" envDefault:"2s"`
}

// SessionConfig holds session lifecycle configuration.
type SessionConfig struct {
	TTL                  time.Duration `env:"FAIRDEAL_SESSION_TTL" envDefault:"600s"`
	SweepInterval        time.Duration `env:"FAIRDEAL_SESSION_SWEEP_INTERVAL" envDefault:"300s"`
	EstimatedWaitSeconds int           `env:"FAIRDEAL_SESSION_ESTIMATED_WAIT" envDefault:"60"`
}

// UploaderConfig holds proof artifact archival configuration.
type UploaderConfig struct {
	// Provider selects the artifact store: "pinata", "redis" or "memory".
	Provider        string        `env:"FAIRDEAL_UPLOAD_PROVIDER" envDefault:"memory"`
	PinataAPIKey    string        `env:"FAIRDEAL_PINATA_API_KEY"`
	PinataAPISecret string        `env:"FAIRDEAL_PINATA_API_SECRET"`
	MaxRetries      int           `env:"FAIRDEAL_UPLOAD_MAX_RETRIES" envDefault:"3"`
	RetryDelay      time.Duration `env:"FAIRDEAL_UPLOAD_RETRY_DELAY" envDefault:"2s"`
	RequestTimeout  time.Duration `env:"FAIRDEAL_UPLOAD_REQUEST_TIMEOUT" envDefault:"30s"`
}

// WorkerConfig holds proof worker pool configuration.
type WorkerConfig struct {
	PoolSize            int           `env:"FAIRDEAL_WORKER_POOL_SIZE" envDefault:"5"`
	HealthCheckInterval time.Duration `env:"FAIRDEAL_WORKER_HEALTH_CHECK_INTERVAL" envDefault:"30s"`
}

// EventsConfig holds event bus configuration.
type EventsConfig struct {
	// Backend selects the event bus: "redis" or "memory".
	Backend       string `env:"FAIRDEAL_EVENTS_BACKEND" envDefault:"memory"`
	ConsumerGroup string `env:"FAIRDEAL_EVENTS_CONSUMER_GROUP" envDefault:"fairdeal"`
	ConsumerName  string `env:"FAIRDEAL_EVENTS_CONSUMER_NAME" envDefault:"fairdeal-1"`
}

// RedisConfig holds Redis connection configuration.
type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	Password string `env:"REDIS_PASS"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`

	// Connection pool settings
	PoolSize     int           `env:"REDIS_POOL_SIZE" envDefault:"10"`
	MinIdleConns int           `env:"REDIS_MIN_IDLE_CONNS" envDefault:"2"`
	MaxRetries   int           `env:"REDIS_MAX_RETRIES" envDefault:"3"`
	DialTimeout  time.Duration `env:"REDIS_DIAL_TIMEOUT" envDefault:"5s"`
	ReadTimeout  time.Duration `env:"REDIS_READ_TIMEOUT" envDefault:"3s"`
	WriteTimeout time.Duration `env:"REDIS_WRITE_TIMEOUT" envDefault:"3s"`
}

// TimeoutConfig holds process-level timeout configuration.
type TimeoutConfig struct {
	ShutdownTimeout time.Duration `env:"TIMEOUT_SHUTDOWN" envDefault:"30s"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	if c.GRPCPort < 1 || c.GRPCPort > 65535 {
		return fmt.Errorf("invalid gRPC port: %d", c.GRPCPort)
	}

	switch c.Oracle.Backend {
	case "memory":
	case "ethrpc":
		if c.Oracle.RPCURL == "" {
			return fmt.Errorf("oracle RPC URL is required for the ethrpc backend")
		}
		if c.Oracle.WSURL == "" {
			return fmt.Errorf("oracle websocket URL is required for the ethrpc backend")
		}
		if c.Oracle.ContractAddress == "" {
			return fmt.Errorf("oracle contract address is required for the ethrpc backend")
		}
	default:
		return fmt.Errorf("unsupported oracle backend: %s (must be ethrpc or memory)", c.Oracle.Backend)
	}

	if c.Oracle.CheckInterval <= 0 {
		return fmt.Errorf("oracle check interval must be positive")
	}
	if c.Oracle.AttemptTimeout <= 0 || c.Oracle.AttemptTimeout >= c.Oracle.CheckInterval {
		return fmt.Errorf("oracle attempt timeout must be positive and below the check interval")
	}
	if c.Oracle.PollInterval <= 0 {
		return fmt.Errorf("oracle poll interval must be positive")
	}
	if c.Oracle.PollMaxAttempts < 1 {
		return fmt.Errorf("oracle poll max attempts must be at least 1")
	}

	if c.Sessions.TTL <= 0 {
		return fmt.Errorf("session TTL must be positive")
	}
	if c.Sessions.SweepInterval <= 0 {
		return fmt.Errorf("session sweep interval must be positive")
	}

	switch c.Uploader.Provider {
	case "memory":
	case "pinata":
		if c.Uploader.PinataAPIKey == "" || c.Uploader.PinataAPISecret == "" {
			return fmt.Errorf("pinata API key and secret are required for the pinata provider")
		}
	case "redis":
		if c.Redis.Addr == "" {
			return fmt.Errorf("redis address is required for the redis upload provider")
		}
	default:
		return fmt.Errorf("unsupported upload provider: %s (must be pinata, redis or memory)", c.Uploader.Provider)
	}
	if c.Uploader.MaxRetries < 0 {
		return fmt.Errorf("upload max retries must not be negative")
	}

	if c.Workers.PoolSize < 1 {
		return fmt.Errorf("worker pool size must be at least 1")
	}

	switch c.Events.Backend {
	case "memory":
	case "redis":
		if c.Redis.Addr == "" {
			return fmt.Errorf("redis address is required for the redis events backend")
		}
	default:
		return fmt.Errorf("unsupported events backend: %s (must be redis or memory)", c.Events.Backend)
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.LogLevel)
	}

	return nil
}

// NeedsRedis reports whether any configured backend requires a Redis
// connection.
func (c *Config) NeedsRedis() bool {
	return c.Uploader.Provider == "redis" || c.Events.Backend == "redis"
}

// GetHTTPAddr returns the HTTP server address.
func (c *Config) GetHTTPAddr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

// GetGRPCAddr returns the gRPC server address.
func (c *Config) GetGRPCAddr() string {
	return fmt.Sprintf(":%d", c.GRPCPort)
}
