package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Database DatabaseConfig
	JWT      JWTConfig
	App      AppConfig
	Device   DeviceConfig
	Sync     SyncConfig
	Broker   BrokerConfig
	Catalog  CatalogConfig
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
	// URL overrides the individual fields when set.
	URL string
}

// JWTConfig holds device token configuration
type JWTConfig struct {
	Secret                string
	DeviceTokenExpiration string
}

// AppConfig holds application configuration
type AppConfig struct {
	Name           string
	Version        string
	Port           int
	Env            string
	LogLevel       string
	AllowedOrigins []string
	AdminKey       string
	// ReconcileDelay holds a day open after midnight UTC before it is reconciled.
	ReconcileDelay time.Duration
}

// DeviceConfig holds the capture device settings.
type DeviceConfig struct {
	ID                   string
	Secret               string
	SQLitePath           string
	BufferMaxRecords     int
	MaxPages             int
	RecognitionThreshold float64
	CaptureCooldown      time.Duration
	Port                 int
}

// SyncConfig controls delivery from a device to the central store.
type SyncConfig struct {
	CentralURL     string
	Interval       time.Duration
	BatchSize      int
	BackoffInitial time.Duration
	BackoffMax     time.Duration
	RosterRefresh  time.Duration
	RequestTimeout time.Duration
}

type BrokerConfig struct {
	URL      string
	Exchange string
}

type CatalogConfig struct {
	File string
}

func Load() (*Config, error) {
	// A missing .env is fine, the environment may already be populated.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	config := &Config{}

	// Database configuration
	dbPort, err := getEnvInt("DB_PORT", 5432)
	if err != nil {
		return nil, err
	}

	config.Database = DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     dbPort,
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", "attendance"),
		SSLMode:  getEnv("DB_SSL_MODE", "disable"),
		URL:      getEnv("DATABASE_URL", ""),
	}

	// Application configuration
	appPort, err := getEnvInt("APP_PORT", 8080)
	if err != nil {
		return nil, err
	}

	config.App = AppConfig{
		Name:           getEnv("APP_NAME", "attendance-sync"),
		Version:        getEnv("APP_VERSION", "dev"),
		Port:           appPort,
		Env:            getEnv("APP_ENV", "development"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		AllowedOrigins: getEnvSlice("CORS_ALLOWED_ORIGINS"),
		AdminKey:       getEnv("ADMIN_API_KEY", ""),
	}
	if config.App.ReconcileDelay, err = getEnvDuration("RECONCILE_DELAY", 15*time.Hour); err != nil {
		return nil, err
	}
	if len(config.App.AllowedOrigins) == 0 {
		config.App.AllowedOrigins = []string{"http://localhost:3000"}
	}

	// JWT configuration
	config.JWT = JWTConfig{
		Secret:                getEnv("JWT_SECRET_KEY", ""),
		DeviceTokenExpiration: getEnv("JWT_DEVICE_EXPIRATION_TIME", "24h"),
	}

	// Device configuration
	device := DeviceConfig{
		ID:         getEnv("DEVICE_ID", ""),
		Secret:     getEnv("DEVICE_SECRET", ""),
		SQLitePath: getEnv("DEVICE_SQLITE_PATH", "attendance.db"),
	}
	if device.BufferMaxRecords, err = getEnvInt("BUFFER_MAX_RECORDS", 0); err != nil {
		return nil, err
	}
	if device.MaxPages, err = getEnvInt("SQLITE_MAX_PAGES", 0); err != nil {
		return nil, err
	}
	if device.RecognitionThreshold, err = getEnvFloat("RECOGNITION_THRESHOLD", 0.6); err != nil {
		return nil, err
	}
	if device.CaptureCooldown, err = getEnvDuration("CAPTURE_COOLDOWN", 5*time.Second); err != nil {
		return nil, err
	}
	if device.Port, err = getEnvInt("DEVICE_PORT", 8090); err != nil {
		return nil, err
	}
	config.Device = device

	// Sync configuration
	sync := SyncConfig{
		CentralURL: getEnv("CENTRAL_URL", "http://localhost:8080"),
	}
	if sync.Interval, err = getEnvDuration("SYNC_INTERVAL", 30*time.Second); err != nil {
		return nil, err
	}
	if sync.BatchSize, err = getEnvInt("SYNC_BATCH_SIZE", 100); err != nil {
		return nil, err
	}
	if sync.BackoffInitial, err = getEnvDuration("SYNC_BACKOFF_INITIAL", 5*time.Second); err != nil {
		return nil, err
	}
	if sync.BackoffMax, err = getEnvDuration("SYNC_BACKOFF_MAX", 10*time.Minute); err != nil {
		return nil, err
	}
	if sync.RosterRefresh, err = getEnvDuration("ROSTER_REFRESH_INTERVAL", 15*time.Minute); err != nil {
		return nil, err
	}
	if sync.RequestTimeout, err = getEnvDuration("SYNC_REQUEST_TIMEOUT", 15*time.Second); err != nil {
		return nil, err
	}
	config.Sync = sync

	config.Broker = BrokerConfig{
		URL:      getEnv("RABBITMQ_URL", ""),
		Exchange: getEnv("RABBITMQ_EXCHANGE", "attendance"),
	}

	config.Catalog = CatalogConfig{
		File: getEnv("SHIFT_CATALOG_FILE", ""),
	}

	return config, nil
}

// ValidateAPI checks the settings the central server needs.
func (c *Config) ValidateAPI() error {
	if c.Database.URL == "" && c.Database.Password == "" {
		return fmt.Errorf("DATABASE_URL or DB_PASSWORD is required")
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET_KEY is required")
	}
	if _, err := time.ParseDuration(c.JWT.DeviceTokenExpiration); err != nil {
		return fmt.Errorf("invalid JWT_DEVICE_EXPIRATION_TIME: %w", err)
	}
	if c.App.ReconcileDelay < 0 {
		return fmt.Errorf("RECONCILE_DELAY must not be negative")
	}
	return nil
}

// ValidateDevice checks the settings a capture device needs.
func (c *Config) ValidateDevice() error {
	if c.Device.ID == "" {
		return fmt.Errorf("DEVICE_ID is required")
	}
	if c.Device.SQLitePath == "" {
		return fmt.Errorf("DEVICE_SQLITE_PATH is required")
	}
	if c.Device.RecognitionThreshold < 0 || c.Device.RecognitionThreshold > 1 {
		return fmt.Errorf("RECOGNITION_THRESHOLD must be between 0 and 1")
	}
	if c.Device.BufferMaxRecords < 0 {
		return fmt.Errorf("BUFFER_MAX_RECORDS must not be negative")
	}
	if c.Sync.Interval <= 0 {
		return fmt.Errorf("SYNC_INTERVAL must be positive")
	}
	if c.Sync.BackoffMax < c.Sync.BackoffInitial {
		return fmt.Errorf("SYNC_BACKOFF_MAX must not be lower than SYNC_BACKOFF_INITIAL")
	}
	return nil
}

// DatabaseURL returns the PostgreSQL connection string
func (c *Config) DatabaseURL() string {
	if c.Database.URL != "" {
		return c.Database.URL
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// LogLevel maps LOG_LEVEL to a slog level, defaulting to info.
func (c *Config) LogLevel() slog.Level {
	switch strings.ToLower(c.App.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getEnvFloat(key string, fallback float64) (float64, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return f, nil
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func getEnvSlice(env string) []string {
	value := getEnv(env, "")
	if value == "" {
		return []string{}
	}
	var result []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			result = append(result, part)
		}
	}
	return result
}
