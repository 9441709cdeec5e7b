package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server ServerConfig

	// Database configuration
	Database DatabaseConfig

	// Admin authentication
	Auth AuthConfig

	// Public response cache
	Cache CacheConfig

	// Image storage
	Storage StorageConfig

	// Bulk import configuration
	Import ImportConfig

	// Logging configuration
	Log LogConfig
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	MigrationsPath  string
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host         string
	Port         string
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  time.Duration

	// ConnectAttempts bounds the start-up ping loop
	ConnectAttempts int
}

// AuthConfig decides who counts as an administrator.
type AuthConfig struct {
	AdminEmail string
	JWTSecret  string
	DevMode    bool
}

// CacheConfig holds Redis settings for cached public reads
type CacheConfig struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// StorageConfig holds image storage settings
type StorageConfig struct {
	ImageDir     string
	MaxImageSize int64 // in bytes
}

// ImportConfig holds bulk import settings
type ImportConfig struct {
	MaxUploadSize int64 // in bytes
}

// LogConfig holds logging settings
type LogConfig struct {
	Level  string
	Format string // "json" or "pretty"
}

var defaults = map[string]interface{}{
	"port":                    "8080",
	"server_read_timeout":     "30s",
	"server_write_timeout":    "60s",
	"server_shutdown_timeout": "30s",
	"migrations_path":         "./migrations",

	"db_host":           "localhost",
	"db_port":           "5432",
	"db_user":           "postgres",
	"db_password":       "postgres",
	"db_name":           "news",
	"db_sslmode":        "disable",
	"db_max_open_conns": 25,
	"db_max_idle_conns": 5,
	"db_max_lifetime":   "5m",

	"db_connect_attempts": 5,

	"admin_email": "",
	"jwt_secret":  "",
	"dev_mode":    false,

	"cache_enabled":  false,
	"redis_addr":     "localhost:6379",
	"redis_password": "",
	"redis_db":       0,
	"cache_ttl":      "30s",

	"image_dir":      "./data/images",
	"max_image_size": 5 * 1024 * 1024, // 5MB

	"max_upload_size": 50 * 1024 * 1024, // 50MB

	"log_level":  "info",
	"log_format": "json",
}

// Load reads configuration from environment variables and, when
// CONFIG_FILE is set, from that file. Environment wins over the file.
func Load() (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path := v.GetString("config_file"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	cfg := FromViper(v)

	// Validate required configuration
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// FromViper builds a Config from an already populated viper instance.
func FromViper(v *viper.Viper) *Config {
	return &Config{
		Server: ServerConfig{
			Port:            v.GetString("port"),
			ReadTimeout:     v.GetDuration("server_read_timeout"),
			WriteTimeout:    v.GetDuration("server_write_timeout"),
			ShutdownTimeout: v.GetDuration("server_shutdown_timeout"),
			MigrationsPath:  v.GetString("migrations_path"),
		},
		Database: DatabaseConfig{
			Host:         v.GetString("db_host"),
			Port:         v.GetString("db_port"),
			User:         v.GetString("db_user"),
			Password:     v.GetString("db_password"),
			Name:         v.GetString("db_name"),
			SSLMode:      v.GetString("db_sslmode"),
			MaxOpenConns: v.GetInt("db_max_open_conns"),
			MaxIdleConns: v.GetInt("db_max_idle_conns"),
			MaxLifetime:  v.GetDuration("db_max_lifetime"),

			ConnectAttempts: v.GetInt("db_connect_attempts"),
		},
		Auth: AuthConfig{
			AdminEmail: strings.TrimSpace(v.GetString("admin_email")),
			JWTSecret:  v.GetString("jwt_secret"),
			DevMode:    v.GetBool("dev_mode"),
		},
		Cache: CacheConfig{
			Enabled:  v.GetBool("cache_enabled"),
			Addr:     v.GetString("redis_addr"),
			Password: v.GetString("redis_password"),
			DB:       v.GetInt("redis_db"),
			TTL:      v.GetDuration("cache_ttl"),
		},
		Storage: StorageConfig{
			ImageDir:     v.GetString("image_dir"),
			MaxImageSize: v.GetInt64("max_image_size"),
		},
		Import: ImportConfig{
			MaxUploadSize: v.GetInt64("max_upload_size"),
		},
		Log: LogConfig{
			Level:  v.GetString("log_level"),
			Format: v.GetString("log_format"),
		},
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Database.Host == "" {
		return fmt.Errorf("DB_HOST is required")
	}
	if c.Database.Name == "" {
		return fmt.Errorf("DB_NAME is required")
	}
	if !c.Auth.DevMode && c.Auth.AdminEmail == "" {
		return fmt.Errorf("ADMIN_EMAIL is required unless DEV_MODE is enabled")
	}
	if c.Cache.Enabled && c.Cache.Addr == "" {
		return fmt.Errorf("REDIS_ADDR is required when CACHE_ENABLED is set")
	}
	if c.Storage.MaxImageSize <= 0 {
		return fmt.Errorf("MAX_IMAGE_SIZE must be positive")
	}
	return nil
}

// GetDSN returns the PostgreSQL connection string
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}
