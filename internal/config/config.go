package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	// Embedded zone database so TIMEZONE resolves on minimal images.
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

// Config represents the full application configuration surface.
type Config struct {
	Server    ServerConfig
	Log       LogConfig
	Shop      ShopConfig
	Reporting ReportingConfig
	WhatsApp  WhatsAppConfig
	Sheets    SheetsConfig
	MongoDB   MongoDBConfig
}

// ServerConfig holds HTTP server related options.
type ServerConfig struct {
	Port           string
	MetricsEnabled bool
}

// LogConfig selects the logger level and encoder.
type LogConfig struct {
	Level       string
	Development bool
}

// ShopConfig holds shop-wide policies.
type ShopConfig struct {
	AllowOversell bool
}

// ReportingConfig holds scheduler-related settings.
type ReportingConfig struct {
	CronSchedule string
	Timezone     string
}

// WhatsAppConfig contains credentials and options for the Meta WhatsApp Cloud API.
type WhatsAppConfig struct {
	AccessToken   string
	PhoneNumberID string
	VerifyToken   string
	BaseURL       string
	APIVersion    string
	OwnerNumber   string
}

// Enabled reports whether any WhatsApp credential was supplied.
func (w WhatsAppConfig) Enabled() bool {
	return w.AccessToken != "" || w.PhoneNumberID != "" || w.VerifyToken != ""
}

// SheetsConfig contains configuration required to read the catalog from Google Sheets.
type SheetsConfig struct {
	CredentialsPath string
	SpreadsheetID   string
	CatalogRange    string
}

// Enabled reports whether a catalog sheet was configured.
func (s SheetsConfig) Enabled() bool {
	return s.CredentialsPath != "" || s.SpreadsheetID != ""
}

// MongoDBConfig holds settings for the daily report archive.
type MongoDBConfig struct {
	URI    string
	DBName string
}

// Enabled reports whether the report archive is configured.
func (m MongoDBConfig) Enabled() bool {
	return m.URI != ""
}

// Load reads environment variables (optionally from the provided file) and
// materializes a Config instance.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed loading env file %s: %w", envFile, err)
			}
		}
	} else {
		// Missing .env files are fine when configuration comes from the environment.
		_ = godotenv.Load()
	}

	metricsEnabled, err := getenvBool("METRICS_ENABLED", true)
	if err != nil {
		return nil, err
	}
	logDevelopment, err := getenvBool("LOG_DEVELOPMENT", false)
	if err != nil {
		return nil, err
	}
	allowOversell, err := getenvBool("ALLOW_OVERSELL", false)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:           getenvWithDefault("APP_PORT", "8080"),
			MetricsEnabled: metricsEnabled,
		},
		Log: LogConfig{
			Level:       getenvWithDefault("LOG_LEVEL", "info"),
			Development: logDevelopment,
		},
		Shop: ShopConfig{
			AllowOversell: allowOversell,
		},
		Reporting: ReportingConfig{
			CronSchedule: getenvWithDefault("REPORT_CRON_SCHEDULE", "0 20 * * *"),
			Timezone:     getenvWithDefault("TIMEZONE", "Asia/Kolkata"),
		},
		WhatsApp: WhatsAppConfig{
			AccessToken:   os.Getenv("WHATSAPP_TOKEN"),
			PhoneNumberID: os.Getenv("WHATSAPP_PHONE_NUMBER_ID"),
			VerifyToken:   os.Getenv("META_VERIFY_TOKEN"),
			BaseURL:       getenvWithDefault("WHATSAPP_BASE_URL", "https://graph.facebook.com"),
			APIVersion:    getenvWithDefault("WHATSAPP_API_VERSION", "v20.0"),
			OwnerNumber:   os.Getenv("WHATSAPP_OWNER_NUMBER"),
		},
		Sheets: SheetsConfig{
			CredentialsPath: os.Getenv("GOOGLE_SHEETS_CREDENTIALS_PATH"),
			SpreadsheetID:   os.Getenv("GOOGLE_SHEET_DATABASE_ID"),
			CatalogRange:    getenvWithDefault("CATALOG_SHEET_RANGE", "Catalog!A2:G"),
		},
		MongoDB: MongoDBConfig{
			URI:    os.Getenv("MONGODB_URI"),
			DBName: getenvWithDefault("MONGODB_DB_NAME", "stockbook"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures that required configuration fields are populated and that
// optional integrations are either fully configured or absent.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}

	if c.Server.Port == "" {
		return errors.New("APP_PORT must be provided")
	}

	if c.Reporting.Timezone == "" {
		return errors.New("TIMEZONE must be provided")
	}
	if _, err := time.LoadLocation(c.Reporting.Timezone); err != nil {
		return fmt.Errorf("TIMEZONE %q is invalid: %w", c.Reporting.Timezone, err)
	}

	if c.Reporting.CronSchedule == "" {
		return errors.New("REPORT_CRON_SCHEDULE must be provided")
	}
	if _, err := cron.ParseStandard(c.Reporting.CronSchedule); err != nil {
		return fmt.Errorf("REPORT_CRON_SCHEDULE %q is invalid: %w", c.Reporting.CronSchedule, err)
	}

	if c.WhatsApp.Enabled() {
		switch {
		case c.WhatsApp.AccessToken == "":
			return errors.New("WHATSAPP_TOKEN must be provided")
		case c.WhatsApp.PhoneNumberID == "":
			return errors.New("WHATSAPP_PHONE_NUMBER_ID must be provided")
		case c.WhatsApp.VerifyToken == "":
			return errors.New("META_VERIFY_TOKEN must be provided")
		case c.WhatsApp.BaseURL == "":
			return errors.New("WHATSAPP_BASE_URL must not be empty")
		case c.WhatsApp.APIVersion == "":
			return errors.New("WHATSAPP_API_VERSION must not be empty")
		}
	} else if c.WhatsApp.OwnerNumber != "" {
		return errors.New("WHATSAPP_OWNER_NUMBER requires WHATSAPP_TOKEN")
	}

	if c.Sheets.Enabled() {
		switch {
		case c.Sheets.CredentialsPath == "":
			return errors.New("GOOGLE_SHEETS_CREDENTIALS_PATH must be provided")
		case c.Sheets.SpreadsheetID == "":
			return errors.New("GOOGLE_SHEET_DATABASE_ID must be provided")
		case strings.TrimSpace(c.Sheets.CatalogRange) == "":
			return errors.New("CATALOG_SHEET_RANGE must not be empty")
		}
	}

	if c.MongoDB.Enabled() && c.MongoDB.DBName == "" {
		return errors.New("MONGODB_DB_NAME must not be empty")
	}

	return nil
}

// Location resolves the configured shop timezone.
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Reporting.Timezone)
}

func getenvWithDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getenvBool(key string, fallback bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("%s must be a boolean: %w", key, err)
	}
	return parsed, nil
}
