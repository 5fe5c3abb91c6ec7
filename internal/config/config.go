package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	AppMode  string
	Port     string
	Database DatabaseConfig
	JWT      JWTConfig
	Queue    QueueConfig
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Driver   string // mysql or postgres
	URL      string // postgres connection URL, overrides the fields below
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
}

// JWTConfig holds operator access token configuration
type JWTConfig struct {
	Secret          string
	AccessTokenMins int
}

// QueueConfig holds queue runtime settings. Timing rules are fixed in the
// engine and are not configurable here.
type QueueConfig struct {
	Timezone      string
	SweepSchedule string
	WebhookURL    string
	WebhookToken  string
	SeedFile      string
}

// Global config instance
var AppConfig *Config

// Load reads configuration from the given env files (or .env) and
// environment variables
func Load(envFiles ...string) (*Config, error) {
	// Load .env file (ignore error if file doesn't exist in production)
	if err := godotenv.Load(envFiles...); err != nil {
		log.Println("⚠️ .env file not found, using environment variables")
	}

	// Get APP_MODE (default to "dev") - trim spaces for Windows compatibility
	appMode := strings.TrimSpace(getEnv("APP_MODE", "dev"))
	if appMode != "dev" && appMode != "prod" {
		return nil, fmt.Errorf("invalid APP_MODE: '%s' (must be 'dev' or 'prod')", appMode)
	}

	config := &Config{
		AppMode:  appMode,
		Port:     getEnv("PORT", "3000"),
		Database: loadDatabaseConfig(appMode),
		JWT:      loadJWTConfig(appMode),
		Queue:    loadQueueConfig(),
	}

	if d := config.Database.Driver; d != "mysql" && d != "postgres" {
		return nil, fmt.Errorf("invalid DB_DRIVER: '%s' (must be 'mysql' or 'postgres')", d)
	}

	if _, err := config.Location(); err != nil {
		return nil, fmt.Errorf("invalid QUEUE_TIMEZONE: %w", err)
	}

	// Set global config
	AppConfig = config

	log.Printf("✅ Configuration loaded successfully [MODE: %s]", appMode)
	return config, nil
}

// loadDatabaseConfig loads database config based on mode
func loadDatabaseConfig(mode string) DatabaseConfig {
	prefix := modePrefix(mode)

	return DatabaseConfig{
		Driver:   strings.ToLower(getEnv(prefix+"DB_DRIVER", "mysql")),
		URL:      getEnv("DATABASE_URL", ""),
		Host:     getEnv(prefix+"DB_HOST", "localhost"),
		Port:     getEnv(prefix+"DB_PORT", "3306"),
		User:     getEnv(prefix+"DB_USER", "root"),
		Password: getEnv(prefix+"DB_PASS", ""),
		DBName:   getEnv(prefix+"DB_NAME", "queueflow"),
	}
}

// loadJWTConfig loads JWT config based on mode
func loadJWTConfig(mode string) JWTConfig {
	prefix := modePrefix(mode)

	accessMins, err := strconv.Atoi(getEnv("ACCESS_TOKEN_MINUTES", "480"))
	if err != nil || accessMins <= 0 {
		accessMins = 480
	}

	return JWTConfig{
		Secret:          getEnv(prefix+"JWT_SECRET", "default_secret"),
		AccessTokenMins: accessMins,
	}
}

// loadQueueConfig loads queue runtime settings
func loadQueueConfig() QueueConfig {
	return QueueConfig{
		Timezone:      getEnv("QUEUE_TIMEZONE", "UTC"),
		SweepSchedule: getEnv("SWEEP_SCHEDULE", "@every 1m"),
		WebhookURL:    getEnv("NOTIFY_WEBHOOK_URL", ""),
		WebhookToken:  getEnv("NOTIFY_WEBHOOK_TOKEN", ""),
		SeedFile:      getEnv("SEED_CENTERS_FILE", ""),
	}
}

func modePrefix(mode string) string {
	if mode == "prod" {
		return "PROD_"
	}
	return "DEV_"
}

// getEnv gets environment variable with default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// IsDev returns true if running in development mode
func (c *Config) IsDev() bool {
	return c.AppMode == "dev"
}

// IsProd returns true if running in production mode
func (c *Config) IsProd() bool {
	return c.AppMode == "prod"
}

// Location returns the presentation timezone used for labels and payloads
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Queue.Timezone)
}

// GetAllowedOrigins returns allowed origins for CORS
func (c *Config) GetAllowedOrigins() string {
	origins := getEnv("ALLOWED_ORIGINS", "")
	if origins == "" {
		if c.IsDev() {
			return "*"
		}
		return "https://queueflow.example.com"
	}
	return origins
}
