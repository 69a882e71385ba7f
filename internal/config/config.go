package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Rate sources accepted in RATE_SOURCE.
const (
	RateSourceStatic = "static"
	RateSourceLive   = "live"
)

// Listing sources accepted in LISTING_SOURCE.
const (
	ListingSourceStatic     = "static"
	ListingSourceAutoTrader = "autotrader"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	DatabaseURL string
	HTTPPort    string
	AdminAPIKey string

	MMRURL            string
	MMRUsername       string
	MMRPassword       string
	MMRRetryMax       int
	MMRRetryBaseDelay time.Duration

	RateURL            string
	RateSource         string
	RateRetryMax       int
	RateRetryBaseDelay time.Duration
	RateMaxAge         time.Duration
	RateWorkerInterval time.Duration

	ListingSource      string
	AutoTraderURL      string
	ScanWorkerInterval time.Duration
	Concurrency        int
	LookupTimeout      time.Duration
	VINCacheTTL        time.Duration
	PipelineConfigPath string

	XLSXPath              string
	SheetsSpreadsheetID   string
	GoogleCredentialsJSON string
}

// Load reads an optional .env file, then configuration from environment
// variables with sensible defaults. Variables already set in the
// environment win over the .env file.
func Load() Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("failed to read .env file", "error", err)
	}

	return Config{
		DatabaseURL: envOrDefault("DATABASE_URL", ""),
		HTTPPort:    envOrDefault("HTTP_PORT", "8080"),
		AdminAPIKey: envOrDefault("ADMIN_API_KEY", ""),

		MMRURL:            envOrDefault("MMR_URL", ""),
		MMRUsername:       envOrDefault("MMR_USERNAME", ""),
		MMRPassword:       envOrDefault("MMR_PASSWORD", ""),
		MMRRetryMax:       envOrDefaultInt("MMR_RETRY_MAX", 3),
		MMRRetryBaseDelay: envOrDefaultDuration("MMR_RETRY_BASE_DELAY", time.Second),

		RateURL:            envOrDefault("RATE_URL", "https://www.bankofcanada.ca/valet"),
		RateSource:         envOrDefaultChoice("RATE_SOURCE", RateSourceStatic, RateSourceStatic, RateSourceLive),
		RateRetryMax:       envOrDefaultInt("RATE_RETRY_MAX", 5),
		RateRetryBaseDelay: envOrDefaultDuration("RATE_RETRY_BASE_DELAY", 2*time.Second),
		RateMaxAge:         envOrDefaultDuration("RATE_MAX_AGE", 72*time.Hour),
		RateWorkerInterval: envOrDefaultDuration("RATE_WORKER_INTERVAL", 6*time.Hour),

		ListingSource:      envOrDefaultChoice("LISTING_SOURCE", ListingSourceStatic, ListingSourceStatic, ListingSourceAutoTrader),
		AutoTraderURL:      envOrDefault("AUTOTRADER_URL", "https://www.autotrader.ca/cars/on/toronto/?rcp=15&srt=35&prx=100&prv=Ontario&loc=Toronto"),
		ScanWorkerInterval: envOrDefaultDuration("SCAN_WORKER_INTERVAL", 6*time.Hour),
		Concurrency:        envOrDefaultInt("CONCURRENCY", 4),
		LookupTimeout:      envOrDefaultDuration("LOOKUP_TIMEOUT", 10*time.Second),
		VINCacheTTL:        envOrDefaultDuration("VIN_CACHE_TTL", 24*time.Hour),
		PipelineConfigPath: envOrDefault("PIPELINE_CONFIG", "carfinder.json5"),

		XLSXPath:              envOrDefault("XLSX_PATH", ""),
		SheetsSpreadsheetID:   envOrDefault("SHEETS_SPREADSHEET_ID", ""),
		GoogleCredentialsJSON: envOrDefault("GOOGLE_CREDENTIALS_JSON", ""),
	}
}

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envOrDefaultChoice(key, defaultVal string, allowed ...string) string {
	v := envOrDefault(key, defaultVal)
	for _, a := range allowed {
		if v == a {
			return v
		}
	}
	slog.Warn("unsupported env var value, using default", "key", key, "value", v, "default", defaultVal)
	return defaultVal
}

func envOrDefaultInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			slog.Warn("invalid integer env var, using default", "key", key, "value", v, "default", defaultVal)
			return defaultVal
		}
		return n
	}
	return defaultVal
}

func envOrDefaultDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			slog.Warn("invalid duration env var, using default", "key", key, "value", v, "default", defaultVal)
			return defaultVal
		}
		return d
	}
	return defaultVal
}
