// Package config reads the application settings from the environment,
// optionally seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every recognized setting.
type Config struct {
	Port      string
	SecretKey string

	TwilioAccountSID string
	TwilioAuthToken  string
	TwilioFromPhone  string

	TesseractCmd   string
	TessdataPrefix string

	GeoEndpoint string
	IPInfoToken string
	GeoTimeout  time.Duration

	ScanTimeout   time.Duration
	UploadLimitMB int

	RateLimitRPS   float64
	RateLimitBurst int

	LogLevel string
	LogFile  string
}

const defaultSecretKey = "dev_secret_key"

// Load reads the .env files (missing ones are ignored) and then the
// environment. Already-set environment variables win over .env entries.
func Load(files ...string) (*Config, error) {
	if err := loadDotEnv(files...); err != nil {
		return nil, err
	}
	return FromEnv()
}

func loadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return nil
}

// FromEnv builds a Config from environment variables only.
func FromEnv() (*Config, error) {
	cfg := &Config{
		Port:             getEnv("APP_PORT", "5000"),
		SecretKey:        firstEnv(defaultSecretKey, "APP_SECRET_KEY", "FLASK_SECRET_KEY"),
		TwilioAccountSID: getEnv("TWILIO_ACCOUNT_SID", ""),
		TwilioAuthToken:  getEnv("TWILIO_AUTH_TOKEN", ""),
		TwilioFromPhone:  getEnv("TWILIO_FROM_PHONE", ""),
		TesseractCmd:     getEnv("TESSERACT_CMD", ""),
		TessdataPrefix:   getEnv("TESSDATA_PREFIX", ""),
		GeoEndpoint:      getEnv("GEO_ENDPOINT", "https://ipinfo.io/json"),
		IPInfoToken:      getEnv("IPINFO_TOKEN", ""),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		LogFile:          getEnv("LOG_FILE", ""),
	}

	var errs []error
	cfg.GeoTimeout = parseDuration("GEO_TIMEOUT", "5s", &errs)
	cfg.ScanTimeout = parseDuration("SCAN_TIMEOUT", "60s", &errs)
	cfg.UploadLimitMB = parsePositiveInt("UPLOAD_LIMIT_MB", "16", &errs)
	cfg.RateLimitBurst = parsePositiveInt("RATE_LIMIT_BURST", "5", &errs)

	rps, err := strconv.ParseFloat(getEnv("RATE_LIMIT_RPS", "2"), 64)
	if err != nil || rps <= 0 {
		errs = append(errs, fmt.Errorf("RATE_LIMIT_RPS: must be a positive number"))
	}
	cfg.RateLimitRPS = rps

	if len(errs) > 0 {
		return nil, fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return cfg, nil
}

// UploadLimitBytes is the request body limit.
func (c *Config) UploadLimitBytes() int {
	return c.UploadLimitMB * 1024 * 1024
}

// UsingDefaultSecret reports whether the development secret is in use.
func (c *Config) UsingDefaultSecret() bool {
	return c.SecretKey == defaultSecretKey
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return strings.TrimSpace(value)
	}
	return fallback
}

func firstEnv(fallback string, keys ...string) string {
	for _, key := range keys {
		if value := getEnv(key, ""); value != "" {
			return value
		}
	}
	return fallback
}

func parseDuration(key, fallback string, errs *[]error) time.Duration {
	d, err := time.ParseDuration(getEnv(key, fallback))
	if err != nil || d <= 0 {
		*errs = append(*errs, fmt.Errorf("%s: must be a positive duration", key))
		return 0
	}
	return d
}

func parsePositiveInt(key, fallback string, errs *[]error) int {
	n, err := strconv.Atoi(getEnv(key, fallback))
	if err != nil || n <= 0 {
		*errs = append(*errs, fmt.Errorf("%s: must be a positive integer", key))
		return 0
	}
	return n
}
