package config

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

func init() {
	// Load .env file if it exists (silent fail if not)
	_ = godotenv.Load()
}

// Config holds all application configuration loaded from environment variables.
type Config struct {
	Server  ServerConfig
	App     AppConfig
	Storage StorageConfig
	Cache   CacheConfig
	Scan    ScanConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `envconfig:"SERVER_HOST" default:"0.0.0.0"`
	Port            int           `envconfig:"SERVER_PORT" default:"8080"`
	ReadTimeout     time.Duration `envconfig:"SERVER_READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `envconfig:"SERVER_WRITE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `envconfig:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`
}

// AppConfig holds application-level settings.
type AppConfig struct {
	Name        string `envconfig:"APP_NAME" default:"shelflife-api"`
	Environment string `envconfig:"APP_ENV" default:"development"`
	Debug       bool   `envconfig:"APP_DEBUG" default:"false"`
	Version     string `envconfig:"APP_VERSION" default:"1.0.0"`
	APIKey      string `envconfig:"API_KEY" default:""` // empty disables auth
}

// StorageConfig holds the on-disk layout: the live SQLite file, the managed
// image directory and the scratch/backup areas used by the backup engine.
type StorageConfig struct {
	DataDir string `envconfig:"DATA_DIR" default:"./data"`
	DBName  string `envconfig:"DB_NAME" default:"product_expiry.db"`
}

// CacheConfig holds listing-cache settings.
type CacheConfig struct {
	Type string        `envconfig:"CACHE_TYPE" default:"memory"` // memory or redis
	TTL  time.Duration `envconfig:"CACHE_TTL" default:"5m"`

	RedisHost     string `envconfig:"REDIS_HOST" default:"localhost"`
	RedisPort     int    `envconfig:"REDIS_PORT" default:"6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD" default:""`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`
}

// ScanConfig holds expiry-scanner settings.
type ScanConfig struct {
	Enabled      bool          `envconfig:"SCAN_ENABLED" default:"true"`
	Interval     time.Duration `envconfig:"SCAN_INTERVAL" default:"6h"`
	InitialDelay time.Duration `envconfig:"SCAN_INITIAL_DELAY" default:"1m"`
}

// DBPath returns the path of the live SQLite database file.
func (s *StorageConfig) DBPath() string {
	return filepath.Join(s.DataDir, s.DBName)
}

// ImagesDir returns the managed image directory. Product photos must live
// here for full backups to capture them.
func (s *StorageConfig) ImagesDir() string {
	return filepath.Join(s.DataDir, "images", "master")
}

// BackupDir returns the directory exported backups are shared into.
func (s *StorageConfig) BackupDir() string {
	return filepath.Join(s.DataDir, "backups")
}

// ScratchDir returns the staging area for export/import work.
func (s *StorageConfig) ScratchDir() string {
	return filepath.Join(s.DataDir, "tmp")
}

// Address returns the server address in host:port format.
func (s *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// RedisAddress returns the Redis address in host:port format.
func (c *CacheConfig) RedisAddress() string {
	return fmt.Sprintf("%s:%d", c.RedisHost, c.RedisPort)
}

// IsDevelopment returns true if running in development mode.
func (a *AppConfig) IsDevelopment() bool {
	return a.Environment == "development"
}

// IsProduction returns true if running in production mode.
func (a *AppConfig) IsProduction() bool {
	return a.Environment == "production"
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return &cfg, nil
}

// MustLoad loads configuration or panics on error.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}
