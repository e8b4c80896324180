package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type (
	// APIServerConfig is the top-level configuration for the BellaPrep API server.
	APIServerConfig struct {
		Server     ServerConfig     `yaml:"server"`
		Database   DatabaseConfig   `yaml:"database"`
		Logger     LoggerConfig     `yaml:"logger"`
		JWT        JWTConfig        `yaml:"jwt"`
		RateLimit  RateLimitConfig  `yaml:"rate_limit"`
		Bella      BellaConfig      `yaml:"bella"`
		Crypto     CryptoConfig     `yaml:"crypto"`
		Scheduler  SchedulerConfig  `yaml:"scheduler"`
		SuperAdmin SuperAdminConfig `yaml:"super_admin"`
	}

	ServerConfig struct {
		Port int `yaml:"port"`
	}

	DatabaseConfig struct {
		Type     string `yaml:"type"`     // postgres, mysql, sqlite
		Host     string `yaml:"host"`     // localhost
		Port     int    `yaml:"port"`     // 5432 (postgres), 3306 (mysql)
		User     string `yaml:"user"`     // postgres (postgres), root (mysql)
		Password string `yaml:"password"` // password
		DBName   string `yaml:"dbname"`   // database name, or file path for sqlite
		SSLMode  string `yaml:"sslmode"`  // disable (postgres only)
	}

	// LoggerConfig represents the logger configuration
	LoggerConfig struct {
		Level      string `yaml:"level"`       // debug, info, warn, error
		Format     string `yaml:"format"`      // json, console
		Output     string `yaml:"output"`      // stdout, file
		FilePath   string `yaml:"file_path"`   // path to log file when output is file
		MaxSize    int    `yaml:"max_size"`    // max size of log file in MB
		MaxBackups int    `yaml:"max_backups"` // max number of backup files
		MaxAge     int    `yaml:"max_age"`     // max age of backup files in days
		Compress   bool   `yaml:"compress"`    // whether to compress backup files
		Color      bool   `yaml:"color"`       // whether to use color in console output
		Stacktrace bool   `yaml:"stacktrace"`  // whether to include stacktrace in error logs
		TimeZone   string `yaml:"time_zone"`   // time zone for log timestamps, default is local
		TimeFormat string `yaml:"time_format"` // time format, default is "2006-01-02 15:04:05"
	}

	JWTConfig struct {
		SecretKey string        `yaml:"secret_key"`
		Duration  time.Duration `yaml:"duration"`
	}

	// RateLimitConfig configures the fixed-window request budget guard.
	RateLimitConfig struct {
		Store    string        `yaml:"store"`  // memory or redis
		Points   int           `yaml:"points"` // requests per window, default 100
		Window   time.Duration `yaml:"window"` // window length, default 60s
		Redis    RedisConfig   `yaml:"redis"`
		BellaPts int           `yaml:"bella_points"` // tighter budget for AI routes
	}

	RedisConfig struct {
		Addr     string `yaml:"addr"`
		Username string `yaml:"username"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		Prefix   string `yaml:"prefix"`
	}

	// BellaConfig configures the AI assistant boundary.
	BellaConfig struct {
		APIKey  string        `yaml:"api_key"`
		Model   string        `yaml:"model"`
		BaseURL string        `yaml:"base_url"`
		Timeout time.Duration `yaml:"timeout"`
	}

	// CryptoConfig holds the server-wide master key used to seal
	// per-tenant integration secrets.
	CryptoConfig struct {
		MasterKey string `yaml:"master_key"`
	}

	SchedulerConfig struct {
		QRSweepInterval    time.Duration `yaml:"qr_sweep_interval"`    // default 1h
		AuditSweepInterval time.Duration `yaml:"audit_sweep_interval"` // default 24h
		AuditRetention     time.Duration `yaml:"audit_retention"`      // default 90 days
	}

	// SuperAdminConfig seeds the platform super admin on first boot.
	SuperAdminConfig struct {
		Email    string `yaml:"email"`
		Password string `yaml:"password"`
	}
)

var (
	ErrMissingJWTSecret = errors.New("jwt secret key is required")
	ErrMissingMasterKey = errors.New("crypto master key is required")
)

// GetDSN returns the database connection string
func (c *DatabaseConfig) GetDSN() string {
	switch c.Type {
	case "postgres":
		return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
			c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode)
	case "mysql":
		return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
			c.User, c.Password, c.Host, c.Port, c.DBName)
	case "sqlite":
		if dir := filepath.Dir(c.DBName); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0755); err != nil {
				panic(fmt.Errorf("failed to create directory for sqlite database: %w", err))
			}
		}
		return c.DBName // for sqlite, DBName is the file path
	default:
		return ""
	}
}

// LoadConfig loads configuration from a YAML file with environment variable support
func LoadConfig(path string) (*APIServerConfig, error) {
	// Load .env file if exists
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Resolve environment variables
	data = resolveEnv(data)
	var cfg APIServerConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	cfg.setDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *APIServerConfig) setDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 5300
	}
	if c.JWT.Duration == 0 {
		c.JWT.Duration = 24 * time.Hour
	}
	if c.RateLimit.Store == "" {
		c.RateLimit.Store = "memory"
	}
	if c.RateLimit.Points == 0 {
		c.RateLimit.Points = 100
	}
	if c.RateLimit.Window == 0 {
		c.RateLimit.Window = time.Minute
	}
	if c.RateLimit.BellaPts == 0 {
		c.RateLimit.BellaPts = 20
	}
	if c.Bella.Timeout == 0 {
		c.Bella.Timeout = 30 * time.Second
	}
	if c.Scheduler.QRSweepInterval == 0 {
		c.Scheduler.QRSweepInterval = time.Hour
	}
	if c.Scheduler.AuditSweepInterval == 0 {
		c.Scheduler.AuditSweepInterval = 24 * time.Hour
	}
	if c.Scheduler.AuditRetention == 0 {
		c.Scheduler.AuditRetention = 90 * 24 * time.Hour
	}
}

func (c *APIServerConfig) validate() error {
	if c.JWT.SecretKey == "" {
		return ErrMissingJWTSecret
	}
	if c.Crypto.MasterKey == "" {
		return ErrMissingMasterKey
	}
	return nil
}

// resolveEnv replaces environment variable placeholders in YAML content
func resolveEnv(content []byte) []byte {
	regex := regexp.MustCompile(`\$\{(\w+)(?::([^}]*))?\}`)

	return regex.ReplaceAllFunc(content, func(match []byte) []byte {
		matches := regex.FindSubmatch(match)
		envKey := string(matches[1])
		var defaultValue string

		if len(matches) > 2 {
			defaultValue = string(matches[2])
		}

		if value, exists := os.LookupEnv(envKey); exists {
			return []byte(value)
		}
		return []byte(defaultValue)
	})
}
