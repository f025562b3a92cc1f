package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Default locators for the RepSpark portal. The site exposes the export
// action under different selectors depending on the build, sometimes inside
// an iframe, so these are starting candidates rather than guarantees.
const (
	DefaultPortalURL = "https://app.repspark.com/_511"

	DefaultProductsXPath = "/html/body/div[2]/div[1]/div/div[1]/div[2]/div[2]/div/ul/li[1]/a"
	DefaultExportIDXPath = "//*[@id='ctl00_ctl00_cphB_filterMenu_btnExportToExcelFull']"
	DefaultExportFBXPath = "/html/body/form/div[3]/div[1]/div[3]/div[1]/div/nav/div/div[2]/div/a/span"
)

type Config struct {
	Portal   PortalConfig
	Browser  BrowserConfig
	Sheets   SheetsConfig
	Server   ServerConfig
	Database DatabaseConfig
	Events   EventsConfig
	Logging  LoggingConfig
}

type PortalConfig struct {
	URL              string
	Email            string
	Password         string
	ProductsXPath    string
	ExportIDXPath    string
	ExportFBXPath    string
	DownloadDir      string
	NavTimeout       time.Duration
	IdleTimeout      time.Duration
	ClickTimeout     time.Duration
	DownloadTimeout  time.Duration
	ExportRetries    int
	ExportRetryPause time.Duration
}

type BrowserConfig struct {
	Headless       bool
	ViewportWidth  int
	ViewportHeight int
}

type SheetsConfig struct {
	SpreadsheetID      string
	Tab                string
	ServiceAccountJSON string
	ServiceAccountFile string
}

type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

type DatabaseConfig struct {
	URL string
}

type EventsConfig struct {
	RedisAddr string
	Stream    string
}

type LoggingConfig struct {
	Level string
}

// Load reads the full configuration from the environment. A .env file in the
// working directory is honored when present. Missing required variables are
// an error; nothing else in the program reads the environment.
func Load() (*Config, error) {
	godotenv.Load()

	cfg := &Config{
		Portal: PortalConfig{
			URL:              getEnvOrDefault("REPSPARK_URL", DefaultPortalURL),
			Email:            os.Getenv("REPSPARK_EMAIL"),
			Password:         os.Getenv("REPSPARK_PASSWORD"),
			ProductsXPath:    getEnvOrDefault("PRODUCTS_XPATH", DefaultProductsXPath),
			ExportIDXPath:    getEnvOrDefault("EXPORT_BTN_ID_XPATH", DefaultExportIDXPath),
			ExportFBXPath:    getEnvOrDefault("EXPORT_FALLBACK_XPATH", DefaultExportFBXPath),
			DownloadDir:      getEnvOrDefault("DOWNLOAD_DIR", "downloads"),
			NavTimeout:       getDurationOrDefault("NAV_TIMEOUT", 120*time.Second),
			IdleTimeout:      getDurationOrDefault("IDLE_TIMEOUT", 60*time.Second),
			ClickTimeout:     getDurationOrDefault("CLICK_TIMEOUT", 20*time.Second),
			DownloadTimeout:  getDurationOrDefault("DOWNLOAD_TIMEOUT", 180*time.Second),
			ExportRetries:    getIntOrDefault("EXPORT_RETRIES", 3),
			ExportRetryPause: getDurationOrDefault("EXPORT_RETRY_PAUSE", 1500*time.Millisecond),
		},
		Browser: BrowserConfig{
			Headless:       getBoolOrDefault("BROWSER_HEADLESS", true),
			ViewportWidth:  getIntOrDefault("BROWSER_VIEWPORT_WIDTH", 1400),
			ViewportHeight: getIntOrDefault("BROWSER_VIEWPORT_HEIGHT", 900),
		},
		Sheets: SheetsConfig{
			SpreadsheetID:      os.Getenv("GSHEET_ID"),
			Tab:                getEnvOrDefault("GSHEET_TAB", "BASE"),
			ServiceAccountJSON: os.Getenv("GCP_SA_JSON"),
			ServiceAccountFile: getEnvOrDefault("SA_FILE", "sa.json"),
		},
		Server: ServerConfig{
			Host:            getEnvOrDefault("SERVER_HOST", "0.0.0.0"),
			Port:            getEnvOrDefault("SERVER_PORT", "8080"),
			ReadTimeout:     getDurationOrDefault("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    getDurationOrDefault("SERVER_WRITE_TIMEOUT", 30*time.Second),
			ShutdownTimeout: getDurationOrDefault("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Database: DatabaseConfig{
			URL: os.Getenv("DATABASE_URL"),
		},
		Events: EventsConfig{
			RedisAddr: os.Getenv("REDIS_ADDR"),
			Stream:    getEnvOrDefault("EVENTS_STREAM", "repspark:runs"),
		},
		Logging: LoggingConfig{
			Level: getEnvOrDefault("LOG_LEVEL", "info"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	required := []struct {
		name  string
		value string
	}{
		{"REPSPARK_EMAIL", c.Portal.Email},
		{"REPSPARK_PASSWORD", c.Portal.Password},
		{"GSHEET_ID", c.Sheets.SpreadsheetID},
		{"GCP_SA_JSON", c.Sheets.ServiceAccountJSON},
	}

	for _, r := range required {
		if r.value == "" {
			return fmt.Errorf("required environment variable %s is not set", r.name)
		}
	}

	if c.Portal.ExportRetries < 1 {
		return fmt.Errorf("EXPORT_RETRIES must be at least 1")
	}

	return nil
}

// HistoryEnabled reports whether the run-history store is configured.
func (c *Config) HistoryEnabled() bool {
	return c.Database.URL != ""
}

// EventsEnabled reports whether run-lifecycle events are configured.
func (c *Config) EventsEnabled() bool {
	return c.Events.RedisAddr != ""
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
