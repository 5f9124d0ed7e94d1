// internal/config/config.go
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Security  SecurityConfig  `mapstructure:"security"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Printer   PrinterConfig   `mapstructure:"printer"`
	Discovery DiscoveryConfig `mapstructure:"discovery"`
	Orders    OrdersConfig    `mapstructure:"orders"`
	App       AppConfig       `mapstructure:"app"`
}

// ServerConfig represents HTTP server configuration
type ServerConfig struct {
	Host         string        `mapstructure:"host" validate:"required"`
	Port         string        `mapstructure:"port" validate:"required"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

// DatabaseConfig represents database configuration
type DatabaseConfig struct {
	Host         string        `mapstructure:"host" validate:"required"`
	Port         int           `mapstructure:"port" validate:"required"`
	User         string        `mapstructure:"user" validate:"required"`
	Password     string        `mapstructure:"password" validate:"required"`
	DBName       string        `mapstructure:"dbname" validate:"required"`
	SSLMode      string        `mapstructure:"sslmode"`
	MaxOpenConns int           `mapstructure:"max_open_conns"`
	MaxIdleConns int           `mapstructure:"max_idle_conns"`
	MaxLifetime  time.Duration `mapstructure:"max_lifetime"`
}

// SecurityConfig represents security configuration
type SecurityConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level      string `mapstructure:"level" validate:"required"`
	Format     string `mapstructure:"format"`
	Output     string `mapstructure:"output"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
	Compress   bool   `mapstructure:"compress"`
}

// PrinterConfig represents printer transport and receipt configuration
type PrinterConfig struct {
	DefaultPort          int           `mapstructure:"default_port"`
	ConnectTimeout       time.Duration `mapstructure:"connect_timeout"`
	SendTimeout          time.Duration `mapstructure:"send_timeout"`
	SettleDelay          time.Duration `mapstructure:"settle_delay"`
	DelayAfterDisconnect time.Duration `mapstructure:"delay_after_disconnect"`
	HealthCheckInterval  time.Duration `mapstructure:"health_check_interval"`
	ReceiptBrand         string        `mapstructure:"receipt_brand"`
	FoldDiacritics       bool          `mapstructure:"fold_diacritics"`
}

// DiscoveryConfig represents network scan configuration
type DiscoveryConfig struct {
	PingTimeout          time.Duration `mapstructure:"ping_timeout"`
	ProbeTimeout         time.Duration `mapstructure:"probe_timeout"`
	ProbeDelay           time.Duration `mapstructure:"probe_delay"`
	Workers              int           `mapstructure:"workers"`
	ScanSpeed            string        `mapstructure:"scan_speed"`
	IncludeExtendedPorts bool          `mapstructure:"include_extended_ports"`
}

// OrdersConfig represents upstream order system configuration
type OrdersConfig struct {
	BaseURL        string        `mapstructure:"base_url" validate:"required"`
	StreamPath     string        `mapstructure:"stream_path"`
	PollInterval   time.Duration `mapstructure:"poll_interval"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	MaxRetries     int           `mapstructure:"max_retries"`
	RetryBaseDelay time.Duration `mapstructure:"retry_base_delay"`
	RetryMaxDelay  time.Duration `mapstructure:"retry_max_delay"`
	LongInterval   time.Duration `mapstructure:"long_interval"`
	HealthWindow   time.Duration `mapstructure:"health_window"`
}

// AppConfig represents application metadata
type AppConfig struct {
	Name        string `mapstructure:"name" validate:"required"`
	Version     string `mapstructure:"version" validate:"required"`
	Environment string `mapstructure:"environment" validate:"required"`
	Debug       bool   `mapstructure:"debug"`
}

// Load loads configuration from file and environment variables
func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("../../internal/config")

	// Environment variable support
	viper.SetEnvPrefix("PRINTER_SERVICE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Set defaults
	setDefaults()

	// Read config file, defaults apply when none exists
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Validate configuration
	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults() {
	// Server defaults
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", "8086")
	viper.SetDefault("server.read_timeout", "30s")
	viper.SetDefault("server.write_timeout", "30s")
	viper.SetDefault("server.idle_timeout", "120s")

	// Database defaults
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.user", "postgres")
	viper.SetDefault("database.password", "postgres")
	viper.SetDefault("database.dbname", "printer_service")
	viper.SetDefault("database.sslmode", "disable")
	viper.SetDefault("database.max_open_conns", 25)
	viper.SetDefault("database.max_idle_conns", 5)
	viper.SetDefault("database.max_lifetime", "5m")

	// Security defaults
	viper.SetDefault("security.allowed_origins", []string{"*"})

	// Logging defaults
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
	viper.SetDefault("logging.output", "stdout")
	viper.SetDefault("logging.max_size", 100)
	viper.SetDefault("logging.max_backups", 3)
	viper.SetDefault("logging.max_age", 28)
	viper.SetDefault("logging.compress", true)

	// Printer defaults
	viper.SetDefault("printer.default_port", 9100)
	viper.SetDefault("printer.connect_timeout", "5s")
	viper.SetDefault("printer.send_timeout", "10s")
	viper.SetDefault("printer.settle_delay", "500ms")
	viper.SetDefault("printer.delay_after_disconnect", "300ms")
	viper.SetDefault("printer.health_check_interval", "60s")
	viper.SetDefault("printer.receipt_brand", "goeasy.menu")
	viper.SetDefault("printer.fold_diacritics", false)

	// Discovery defaults
	viper.SetDefault("discovery.ping_timeout", "800ms")
	viper.SetDefault("discovery.probe_timeout", "2s")
	viper.SetDefault("discovery.probe_delay", "300ms")
	viper.SetDefault("discovery.workers", 16)
	viper.SetDefault("discovery.scan_speed", "normal")
	viper.SetDefault("discovery.include_extended_ports", false)

	// Orders defaults
	viper.SetDefault("orders.base_url", "http://localhost:3000")
	viper.SetDefault("orders.stream_path", "/ws/orders")
	viper.SetDefault("orders.poll_interval", "10s")
	viper.SetDefault("orders.request_timeout", "15s")
	viper.SetDefault("orders.max_retries", 5)
	viper.SetDefault("orders.retry_base_delay", "2s")
	viper.SetDefault("orders.retry_max_delay", "60s")
	viper.SetDefault("orders.long_interval", "5m")
	viper.SetDefault("orders.health_window", "30s")

	// App defaults
	viper.SetDefault("app.name", "printer-service")
	viper.SetDefault("app.version", "1.0.0")
	viper.SetDefault("app.environment", "development")
	viper.SetDefault("app.debug", false)
}

// validate validates the configuration
func validate(config *Config) error {
	// Basic validation
	if config.Server.Host == "" {
		return fmt.Errorf("server.host is required")
	}
	if config.Server.Port == "" {
		return fmt.Errorf("server.port is required")
	}
	if config.Database.Host == "" {
		return fmt.Errorf("database.host is required")
	}
	if config.Orders.BaseURL == "" {
		return fmt.Errorf("orders.base_url is required")
	}
	if config.Printer.DefaultPort <= 0 || config.Printer.DefaultPort > 65535 {
		return fmt.Errorf("printer.default_port must be a valid TCP port")
	}

	// Validate environment
	validEnvs := []string{"development", "staging", "production", "test"}
	isValidEnv := false
	for _, env := range validEnvs {
		if config.App.Environment == env {
			isValidEnv = true
			break
		}
	}
	if !isValidEnv {
		return fmt.Errorf("app.environment must be one of: %v", validEnvs)
	}

	// Validate logging level
	validLevels := []string{"debug", "info", "warn", "error", "fatal"}
	isValidLevel := false
	for _, level := range validLevels {
		if config.Logging.Level == level {
			isValidLevel = true
			break
		}
	}
	if !isValidLevel {
		return fmt.Errorf("logging.level must be one of: %v", validLevels)
	}

	// Validate scan speed
	switch config.Discovery.ScanSpeed {
	case "fast", "normal", "thorough":
	default:
		return fmt.Errorf("discovery.scan_speed must be one of: fast, normal, thorough")
	}

	return nil
}

// GetDatabaseDSN returns the database connection string
func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host, c.Database.Port, c.Database.User,
		c.Database.Password, c.Database.DBName, c.Database.SSLMode)
}

// GetServerAddr returns the server address
func (c *Config) GetServerAddr() string {
	return fmt.Sprintf("%s:%s", c.Server.Host, c.Server.Port)
}

// IsProduction checks if the environment is production
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// IsDevelopment checks if the environment is development
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// IsDebugEnabled checks if debug mode is enabled
func (c *Config) IsDebugEnabled() bool {
	return c.App.Debug || c.IsDevelopment()
}
