package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/cragcast/cragcast/internal/mail"
)

type AppConfig struct {
	// DB_URI connection string. Empty means the in-memory store is used.
	DBURI string

	WeatherAPIKey string

	Mail mail.SMTPConfig

	// CheckInterval controls how often the alert scan runs.
	CheckInterval time.Duration

	// CatalogDir holds originCities.json and the distances/ datasets.
	CatalogDir string

	// HTTPTimeout applies to outbound provider calls.
	HTTPTimeout time.Duration

	Port string
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}

	cfg := &AppConfig{}

	cfg.DBURI = os.Getenv("DB_URI")
	cfg.WeatherAPIKey = os.Getenv("WEATHER_API_KEY")

	cfg.Mail = mail.SMTPConfig{
		Host:     os.Getenv("MAIL_SERVER"),
		Port:     getenvInt("MAIL_PORT", 587),
		Username: os.Getenv("MAIL_USERNAME"),
		Password: os.Getenv("MAIL_PASSWORD"),
		From:     os.Getenv("MAIL_DEFAULT_SENDER"),
	}

	intervalStr := getenvDefault("CHECK_INTERVAL", "24h")
	interval, err := time.ParseDuration(intervalStr)
	if err != nil {
		return nil, fmt.Errorf("invalid CHECK_INTERVAL: %w", err)
	}
	cfg.CheckInterval = interval

	timeoutStr := getenvDefault("HTTP_TIMEOUT", "30s")
	timeout, err := time.ParseDuration(timeoutStr)
	if err != nil {
		return nil, fmt.Errorf("invalid HTTP_TIMEOUT: %w", err)
	}
	cfg.HTTPTimeout = timeout

	cfg.CatalogDir = getenvDefault("CATALOG_DIR", "data")
	cfg.Port = getenvDefault("PORT", "8080")

	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}
