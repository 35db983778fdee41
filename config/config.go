package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

type Config struct {
	AppName string
	AppEnv  string
	AppPort int `validate:"gt=0,lte=65535"`

	LogLevel string

	// Scraping proxy + target page.
	ScraperAPIKey string
	ScraperAPIURL string `validate:"url"`
	FundaURL      string
	CountryCode   string
	DeviceType    string

	// SQLite file store (default backend).
	SQLitePath string

	// Postgres (optional; enabled only when DBHost + DBName are set).
	DBUser     string
	DBPassword string
	DBHost     string
	DBPort     int `validate:"gt=0,lte=65535"`
	DBName     string

	// Outbound SMTP.
	SMTPHost     string
	SMTPPort     int `validate:"gt=0,lte=65535"`
	SMTPPassword string
	FromEmail    string `validate:"omitempty,email"`
	ToEmail      string `validate:"omitempty,email"`
}

func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("APP_NAME", "funda-listing-notifier")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("APP_PORT", 8080)
	v.SetDefault("LOG_LEVEL", "info")

	v.SetDefault("SCRAPER_API_URL", "https://api.scraperapi.com/")
	v.SetDefault("SCRAPE_COUNTRY_CODE", "eu")
	v.SetDefault("SCRAPE_DEVICE_TYPE", "desktop")

	v.SetDefault("SQLITE_PATH", "listings.db")

	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("SMTP_PORT", 587)

	return v
}

func NewConfig(v *viper.Viper) (Config, error) {
	cfg := Config{
		AppName: v.GetString("APP_NAME"),
		AppEnv:  v.GetString("APP_ENV"),
		AppPort: v.GetInt("APP_PORT"),

		LogLevel: v.GetString("LOG_LEVEL"),

		ScraperAPIKey: v.GetString("SCRAPER_API_KEY"),
		ScraperAPIURL: v.GetString("SCRAPER_API_URL"),
		FundaURL:      v.GetString("FUNDA_URL"),
		CountryCode:   v.GetString("SCRAPE_COUNTRY_CODE"),
		DeviceType:    v.GetString("SCRAPE_DEVICE_TYPE"),

		SQLitePath: v.GetString("SQLITE_PATH"),

		DBUser:     v.GetString("DB_USER"),
		DBPassword: v.GetString("DB_PASSWORD"),
		DBHost:     v.GetString("DB_HOST"),
		DBPort:     v.GetInt("DB_PORT"),
		DBName:     v.GetString("DB_NAME"),

		SMTPHost:     v.GetString("SMTP_HOST"),
		SMTPPort:     v.GetInt("SMTP_PORT"),
		SMTPPassword: v.GetString("SMTP_PASSWORD"),
		FromEmail:    v.GetString("FROM_EMAIL"),
		ToEmail:      v.GetString("TO_EMAIL"),
	}

	if err := validator.New().Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// ValidateScrape checks the fields a scrape cycle cannot run without.
// Serve-only processes never need them, so NewConfig leaves them
// optional. The target page is resolved by the pipeline, which accepts
// a CLI override for it.
func (c Config) ValidateScrape() error {
	if strings.TrimSpace(c.ScraperAPIKey) == "" {
		return fmt.Errorf("missing SCRAPER_API_KEY")
	}
	return nil
}

// ValidateSMTP checks the fields an email send cannot run without.
func (c Config) ValidateSMTP() error {
	if strings.TrimSpace(c.SMTPHost) == "" {
		return fmt.Errorf("missing SMTP_HOST")
	}
	if strings.TrimSpace(c.FromEmail) == "" {
		return fmt.Errorf("missing FROM_EMAIL")
	}
	if strings.TrimSpace(c.ToEmail) == "" {
		return fmt.Errorf("missing TO_EMAIL")
	}
	return nil
}
