// Package config loads storefront settings from an optional .env file and
// the environment.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	App      AppConfig
	Server   ServerConfig
	Database DatabaseConfig
	Session  SessionConfig
	Payment  PaymentConfig
	Coupon   CouponConfig
	Export   ExportConfig
}

// AppConfig holds application-level settings.
type AppConfig struct {
	Name        string
	Environment string // development, production
	LogLevel    string
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	AllowedOrigin   string
}

// DatabaseConfig holds PostgreSQL connection settings. When Enabled is false
// the built-in sample catalog is served instead.
type DatabaseConfig struct {
	Enabled         bool
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxConns        int32
	MinConns        int32
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	ConnectAttempts int
	RetryDelay      time.Duration
	Migrate         bool
}

// DSN builds a libpq-compatible connection string.
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

// SessionConfig controls storefront session lifetime.
type SessionConfig struct {
	TTL           time.Duration
	SweepInterval time.Duration
}

// PaymentConfig controls the simulated payment step.
type PaymentConfig struct {
	Delay time.Duration
}

// CouponConfig describes the single percentage coupon on offer.
type CouponConfig struct {
	Code    string
	Percent decimal.Decimal
}

// ExportConfig holds ticket document branding.
type ExportConfig struct {
	BrandName   string
	Site        string
	Organizer   string
	Company     string
	Tagline     string
	Compression bool
}

// Load reads .env when present, then lets environment variables override.
func Load() (*Config, error) {
	return load(".env", false)
}

// LoadWithPath loads configuration from a specific env file, which must exist.
func LoadWithPath(path string) (*Config, error) {
	return load(path, true)
}

func load(path string, required bool) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("env")

	if err := v.ReadInConfig(); err != nil && required {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	cfg := &Config{}
	if err := bindConfig(v, cfg); err != nil {
		return nil, fmt.Errorf("bind config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_NAME", "ticket-storefront")
	v.SetDefault("APP_ENVIRONMENT", "development")
	v.SetDefault("LOG_LEVEL", "info")

	v.SetDefault("PORT", 8080)
	v.SetDefault("SERVER_READ_TIMEOUT", "15s")
	v.SetDefault("SERVER_WRITE_TIMEOUT", "60s")
	v.SetDefault("SERVER_IDLE_TIMEOUT", "60s")
	v.SetDefault("SERVER_SHUTDOWN_TIMEOUT", "10s")
	v.SetDefault("CORS_ALLOWED_ORIGIN", "*")

	v.SetDefault("DB_ENABLED", false)
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "storefront")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 2)
	v.SetDefault("DB_CONN_MAX_LIFETIME", "30m")
	v.SetDefault("DB_CONN_MAX_IDLE_TIME", "5m")
	v.SetDefault("DB_CONNECT_ATTEMPTS", 5)
	v.SetDefault("DB_RETRY_DELAY", "2s")
	v.SetDefault("DB_MIGRATE", true)

	v.SetDefault("SESSION_TTL", "30m")
	v.SetDefault("SESSION_SWEEP_INTERVAL", "1m")

	v.SetDefault("PAYMENT_DELAY", "3s")

	v.SetDefault("COUPON_CODE", "DISKON10")
	v.SetDefault("COUPON_PERCENT", "10")

	v.SetDefault("EXPORT_BRAND_NAME", "Hegra")
	v.SetDefault("EXPORT_SITE", "www.hegra.com")
	v.SetDefault("EXPORT_ORGANIZER", "Hegra Events Official")
	v.SetDefault("EXPORT_COMPANY", "PT Hegra Digital Nusantara")
	v.SetDefault("EXPORT_TAGLINE", "Rencanakan atau Temukan Event Impianmu Berikutnya di Hegra!")
	v.SetDefault("EXPORT_COMPRESSION", true)
}

func bindConfig(v *viper.Viper, cfg *Config) error {
	cfg.App.Name = v.GetString("APP_NAME")
	cfg.App.Environment = v.GetString("APP_ENVIRONMENT")
	cfg.App.LogLevel = v.GetString("LOG_LEVEL")

	cfg.Server.Port = v.GetInt("PORT")
	cfg.Server.ReadTimeout = v.GetDuration("SERVER_READ_TIMEOUT")
	cfg.Server.WriteTimeout = v.GetDuration("SERVER_WRITE_TIMEOUT")
	cfg.Server.IdleTimeout = v.GetDuration("SERVER_IDLE_TIMEOUT")
	cfg.Server.ShutdownTimeout = v.GetDuration("SERVER_SHUTDOWN_TIMEOUT")
	cfg.Server.AllowedOrigin = v.GetString("CORS_ALLOWED_ORIGIN")

	cfg.Database.Enabled = v.GetBool("DB_ENABLED")
	cfg.Database.Host = v.GetString("DB_HOST")
	cfg.Database.Port = v.GetInt("DB_PORT")
	cfg.Database.User = v.GetString("DB_USER")
	cfg.Database.Password = v.GetString("DB_PASSWORD")
	cfg.Database.DBName = v.GetString("DB_NAME")
	cfg.Database.SSLMode = v.GetString("DB_SSLMODE")
	cfg.Database.MaxConns = v.GetInt32("DB_MAX_CONNS")
	cfg.Database.MinConns = v.GetInt32("DB_MIN_CONNS")
	cfg.Database.ConnMaxLifetime = v.GetDuration("DB_CONN_MAX_LIFETIME")
	cfg.Database.ConnMaxIdleTime = v.GetDuration("DB_CONN_MAX_IDLE_TIME")
	cfg.Database.ConnectAttempts = v.GetInt("DB_CONNECT_ATTEMPTS")
	cfg.Database.RetryDelay = v.GetDuration("DB_RETRY_DELAY")
	cfg.Database.Migrate = v.GetBool("DB_MIGRATE")

	cfg.Session.TTL = v.GetDuration("SESSION_TTL")
	cfg.Session.SweepInterval = v.GetDuration("SESSION_SWEEP_INTERVAL")

	cfg.Payment.Delay = v.GetDuration("PAYMENT_DELAY")

	cfg.Coupon.Code = strings.TrimSpace(v.GetString("COUPON_CODE"))
	pct, err := decimal.NewFromString(strings.TrimSpace(v.GetString("COUPON_PERCENT")))
	if err != nil {
		return fmt.Errorf("COUPON_PERCENT: %w", err)
	}
	cfg.Coupon.Percent = pct

	cfg.Export.BrandName = v.GetString("EXPORT_BRAND_NAME")
	cfg.Export.Site = v.GetString("EXPORT_SITE")
	cfg.Export.Organizer = v.GetString("EXPORT_ORGANIZER")
	cfg.Export.Company = v.GetString("EXPORT_COMPANY")
	cfg.Export.Tagline = v.GetString("EXPORT_TAGLINE")
	cfg.Export.Compression = v.GetBool("EXPORT_COMPRESSION")
	return nil
}

// IsProduction reports whether the app runs in production mode.
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// Validate checks the loaded configuration.
func (c *Config) Validate() error {
	if c.App.Name == "" {
		return fmt.Errorf("app name is required")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Session.TTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive")
	}
	if c.Session.SweepInterval <= 0 {
		return fmt.Errorf("SESSION_SWEEP_INTERVAL must be positive")
	}
	if c.Payment.Delay < 0 {
		return fmt.Errorf("PAYMENT_DELAY cannot be negative")
	}
	if c.Coupon.Code != "" {
		if c.Coupon.Percent.LessThanOrEqual(decimal.Zero) || c.Coupon.Percent.GreaterThan(decimal.NewFromInt(100)) {
			return fmt.Errorf("COUPON_PERCENT must be in (0, 100], got %s", c.Coupon.Percent)
		}
	}
	if c.Export.BrandName == "" {
		return fmt.Errorf("EXPORT_BRAND_NAME is required")
	}
	if c.Database.Enabled {
		if c.Database.Host == "" || c.Database.DBName == "" {
			return fmt.Errorf("DB_HOST and DB_NAME are required when DB_ENABLED is set")
		}
		if c.Database.ConnectAttempts < 1 {
			return fmt.Errorf("DB_CONNECT_ATTEMPTS must be at least 1")
		}
	}
	return nil
}
