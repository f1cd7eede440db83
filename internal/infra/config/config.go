package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env"
	"github.com/slavakukuyev/elevator-go/internal/domain"
	"github.com/slavakukuyev/elevator-go/internal/sim"
)

// Config represents the application configuration with comprehensive options
type Config struct {
	// Environment and basic settings
	Environment string `env:"ENV" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"INFO"`

	// Server configuration
	Port            int           `env:"PORT" envDefault:"6660"`
	ReadTimeout     time.Duration `env:"SERVER_READ_TIMEOUT" envDefault:"30s"`
	WriteTimeout    time.Duration `env:"SERVER_WRITE_TIMEOUT" envDefault:"30s"`
	IdleTimeout     time.Duration `env:"SERVER_IDLE_TIMEOUT" envDefault:"120s"`
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" envDefault:"30s"`
	ShutdownGrace   time.Duration `env:"SERVER_SHUTDOWN_GRACE" envDefault:"2s"`

	// Simulation engine configuration — mirrors sim.Config one-to-one so
	// InitConfig().SimConfig() is the engine's only construction path.
	FloorCount             int     `env:"SIM_FLOOR_COUNT" envDefault:"14"`
	CabinCount             int     `env:"SIM_CABIN_COUNT" envDefault:"4"`
	Capacity               int     `env:"SIM_CABIN_CAPACITY" envDefault:"12"`
	FloorTravelTime        float64 `env:"SIM_FLOOR_TRAVEL_SECONDS" envDefault:"5.0"`
	DoorTime               float64 `env:"SIM_DOOR_SECONDS" envDefault:"1.0"`
	MaxIdleTime            float64 `env:"SIM_MAX_IDLE_SECONDS" envDefault:"10.0"`
	MaxWaitTime            float64 `env:"SIM_MAX_WAIT_SECONDS" envDefault:"120.0"`
	HomeFloor              int     `env:"SIM_HOME_FLOOR" envDefault:"1"`
	MaxRequestsPerFloor    int     `env:"SIM_MAX_REQUESTS_PER_FLOOR" envDefault:"2"`
	MaxTotalInflight       int     `env:"SIM_MAX_TOTAL_INFLIGHT" envDefault:"20"`
	MaxPerCabinAssignments int     `env:"SIM_MAX_PER_CABIN_ASSIGNMENTS" envDefault:"8"`
	Strategy               string  `env:"SIM_STRATEGY" envDefault:"load-aware"`

	// TickInterval is the wall-clock period between background Tick calls;
	// TickDelta is the simulated seconds each Tick advances. Decoupling the
	// two lets a deployment run the simulation faster or slower than real
	// time without touching FloorTravelTime/DoorTime.
	TickInterval time.Duration `env:"SIM_TICK_INTERVAL" envDefault:"1s"`
	TickDelta    float64       `env:"SIM_TICK_DELTA_SECONDS" envDefault:"1.0"`

	EngineOperationTimeout time.Duration `env:"ENGINE_OPERATION_TIMEOUT" envDefault:"30s"`
	HealthCheckTimeout     time.Duration `env:"HEALTH_CHECK_TIMEOUT" envDefault:"2s"`

	// HTTP Configuration
	RateLimitRPM       int           `env:"RATE_LIMIT_RPM" envDefault:"100"`
	RateLimitWindow    time.Duration `env:"RATE_LIMIT_WINDOW" envDefault:"1m"`
	RateLimitCleanup   time.Duration `env:"RATE_LIMIT_CLEANUP" envDefault:"5m"`
	MaxRequestSize     int64         `env:"MAX_REQUEST_SIZE" envDefault:"1048576"`
	RequestTimeoutHTTP time.Duration `env:"HTTP_REQUEST_TIMEOUT" envDefault:"30s"`
	CORSEnabled        bool          `env:"CORS_ENABLED" envDefault:"true"`
	CORSMaxAge         time.Duration `env:"CORS_MAX_AGE" envDefault:"12h"`
	CORSAllowedOrigins string        `env:"CORS_ALLOWED_ORIGINS" envDefault:"*"`

	// Monitoring
	MetricsEnabled      bool   `env:"METRICS_ENABLED" envDefault:"true"`
	MetricsPath         string `env:"METRICS_PATH" envDefault:"/metrics"`
	HealthEnabled       bool   `env:"HEALTH_ENABLED" envDefault:"true"`
	HealthPath          string `env:"HEALTH_PATH" envDefault:"/health"`
	StructuredLogging   bool   `env:"STRUCTURED_LOGGING" envDefault:"true"`
	LogRequestDetails   bool   `env:"LOG_REQUEST_DETAILS" envDefault:"false"`
	CorrelationIDHeader string `env:"CORRELATION_ID_HEADER" envDefault:"X-Request-ID"`

	// WebSocket
	WebSocketEnabled           bool          `env:"WEBSOCKET_ENABLED" envDefault:"true"`
	WebSocketPath              string        `env:"WEBSOCKET_PATH" envDefault:"/ws/status"`
	WebSocketConnectionTimeout time.Duration `env:"WEBSOCKET_CONNECTION_TIMEOUT" envDefault:"10m"`
	WebSocketWriteTimeout      time.Duration `env:"WEBSOCKET_WRITE_TIMEOUT" envDefault:"5s"`
	WebSocketReadTimeout       time.Duration `env:"WEBSOCKET_READ_TIMEOUT" envDefault:"60s"`
	WebSocketPingInterval      time.Duration `env:"WEBSOCKET_PING_INTERVAL" envDefault:"30s"`
	WebSocketMaxConnections    int           `env:"WEBSOCKET_MAX_CONNECTIONS" envDefault:"1000"`
	WebSocketBufferSize        int           `env:"WEBSOCKET_BUFFER_SIZE" envDefault:"1024"`
}

// InitConfig initializes the configuration from environment variables with
// comprehensive validation.
func InitConfig() (*Config, error) {
	cfg := Config{}
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment variables: %w", err)
	}

	applyEnvironmentDefaults(&cfg)

	if err := validateConfiguration(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// SimConfig projects the ambient Config down to the engine's own immutable
// tunables, the only shape sim.NewEngine accepts.
func (c *Config) SimConfig() sim.Config {
	return sim.Config{
		FloorCount:             c.FloorCount,
		CabinCount:             c.CabinCount,
		Capacity:               c.Capacity,
		FloorTravelTime:        c.FloorTravelTime,
		DoorTime:               c.DoorTime,
		MaxIdleTime:            c.MaxIdleTime,
		MaxWaitTime:            c.MaxWaitTime,
		HomeFloor:              c.HomeFloor,
		MaxRequestsPerFloor:    c.MaxRequestsPerFloor,
		MaxTotalInflight:       c.MaxTotalInflight,
		MaxPerCabinAssignments: c.MaxPerCabinAssignments,
		Strategy:               sim.Strategy(c.Strategy),
	}
}

// applyEnvironmentDefaults applies environment-specific default values
func applyEnvironmentDefaults(cfg *Config) {
	switch cfg.Environment {
	case "development", "dev":
		applyDevelopmentDefaults(cfg)
	case "testing", "test":
		applyTestingDefaults(cfg)
	case "production", "prod":
		applyProductionDefaults(cfg)
	}
}

// applyDevelopmentDefaults applies minimal changes for development (mostly
// defaults + debug).
func applyDevelopmentDefaults(cfg *Config) {
	if cfg.LogLevel == "INFO" {
		cfg.LogLevel = "DEBUG"
	}
	cfg.LogRequestDetails = true
}

// applyTestingDefaults speeds up simulated time and tightens timeouts so
// test suites converge quickly and catch timing issues early.
func applyTestingDefaults(cfg *Config) {
	cfg.LogLevel = "WARN"

	cfg.TickInterval = 10 * time.Millisecond
	cfg.EngineOperationTimeout = 500 * time.Millisecond
	cfg.HealthCheckTimeout = 200 * time.Millisecond

	cfg.ReadTimeout = 2 * time.Second
	cfg.WriteTimeout = 2 * time.Second
	cfg.IdleTimeout = 10 * time.Second
	cfg.RequestTimeoutHTTP = 1 * time.Second

	cfg.MetricsEnabled = false
	cfg.WebSocketEnabled = false
	cfg.LogRequestDetails = false

	cfg.RateLimitRPM = 1000
	cfg.MaxRequestSize = 256 * 1024
}

// applyProductionDefaults applies high-performance and strict settings for
// production.
func applyProductionDefaults(cfg *Config) {
	cfg.LogLevel = "WARN"
	cfg.LogRequestDetails = false

	cfg.RateLimitRPM = 30

	cfg.ReadTimeout = 15 * time.Second
	cfg.WriteTimeout = 15 * time.Second
	cfg.IdleTimeout = 60 * time.Second
	cfg.RequestTimeoutHTTP = 10 * time.Second

	cfg.EngineOperationTimeout = 15 * time.Second
	cfg.HealthCheckTimeout = 1 * time.Second

	cfg.WebSocketConnectionTimeout = 10 * time.Minute
	cfg.WebSocketMaxConnections = 5000
	cfg.WebSocketWriteTimeout = 2 * time.Second
	cfg.WebSocketReadTimeout = 30 * time.Second
	cfg.WebSocketPingInterval = 15 * time.Second

	cfg.CORSAllowedOrigins = "https://app.example.com"
	cfg.MaxRequestSize = 512 * 1024
}

// validateConfiguration performs comprehensive configuration validation.
func validateConfiguration(cfg *Config) error {
	if err := cfg.SimConfig().Validate(); err != nil {
		return domain.NewValidationError("invalid simulation configuration", err)
	}

	if cfg.Port <= 0 || cfg.Port > 65535 {
		return domain.NewValidationError("port must be between 1 and 65535", nil).
			WithContext("port", cfg.Port)
	}

	if cfg.TickInterval <= 0 {
		return domain.NewValidationError("tick interval must be positive", nil).
			WithContext("tick_interval", cfg.TickInterval)
	}

	if cfg.TickDelta <= 0 {
		return domain.NewValidationError("tick delta must be positive", nil).
			WithContext("tick_delta", cfg.TickDelta)
	}

	if err := validateEnvironmentSpecificConfig(cfg); err != nil {
		return err
	}

	return nil
}

// validateEnvironmentSpecificConfig validates environment-specific
// configuration issues.
func validateEnvironmentSpecificConfig(cfg *Config) error {
	if cfg.IsProduction() {
		if cfg.CORSAllowedOrigins == "*" {
			return domain.NewValidationError("CORS wildcard not allowed in production", nil).
				WithContext("environment", cfg.Environment)
		}
		if cfg.LogRequestDetails {
			return domain.NewValidationError("request logging should be disabled in production for performance", nil).
				WithContext("environment", cfg.Environment)
		}
		if cfg.RateLimitRPM > 100 {
			return domain.NewValidationError("rate limit too high for production", nil).
				WithContext("environment", cfg.Environment).
				WithContext("rate_limit", cfg.RateLimitRPM)
		}
	}

	if cfg.IsTesting() {
		if cfg.WebSocketEnabled {
			return domain.NewValidationError("WebSocket should be disabled in testing environment", nil).
				WithContext("environment", cfg.Environment)
		}
		if cfg.MetricsEnabled {
			return domain.NewValidationError("Metrics should be disabled in testing environment", nil).
				WithContext("environment", cfg.Environment)
		}
	}

	return nil
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	return c.Environment == "production" || c.Environment == "prod"
}

// IsDevelopment returns true if running in development environment
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development" || c.Environment == "dev"
}

// IsTesting returns true if running in testing environment
func (c *Config) IsTesting() bool {
	return c.Environment == "testing" || c.Environment == "test"
}

// GetEnvironmentInfo returns environment information for logging/debugging
func (c *Config) GetEnvironmentInfo() map[string]interface{} {
	return map[string]interface{}{
		"environment":       c.Environment,
		"log_level":         c.LogLevel,
		"port":              c.Port,
		"metrics_enabled":   c.MetricsEnabled,
		"websocket_enabled": c.WebSocketEnabled,
		"strategy":          c.Strategy,
	}
}
