package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"wallet/internal/core"
)

// Storage backends selectable with DATA_BACKEND and MIRROR_BACKEND.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
	BackendSheets = "sheets"
)

var validBackends = []string{BackendMemory, BackendSheets, BackendSQLite}

type Config struct {
	// HTTP Server
	Port            string
	RateLimitRPM    int
	SummaryCacheTTL time.Duration
	ShutdownTimeout time.Duration

	// Wallet
	InitialBalance string
	Currency       string

	// Backend selection
	DataBackend  string
	SQLiteDBPath string

	// AMQP, disabled when AMQPURL is empty
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets
	GoogleSpreadsheetID      string
	GoogleWalletSheet        string
	GoogleTransactionsSheet  string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string

	// Mirror worker
	MirrorBackend      string
	MirrorSQLiteDBPath string

	// Observability
	LogLevel       string
	MetricsEnabled bool
}

func Load() *Config {
	cfg := &Config{
		Port:            getEnv("PORT", "8081"),
		RateLimitRPM:    getEnvInt("RATE_LIMIT_RPM", 60),
		SummaryCacheTTL: getEnvDuration("SUMMARY_CACHE_TTL", 5*time.Minute),
		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 30*time.Second),

		InitialBalance: getEnv("WALLET_INITIAL_BALANCE", "5000"),
		Currency:       strings.ToUpper(getEnv("WALLET_CURRENCY", "USD")),

		DataBackend:  getEnv("DATA_BACKEND", BackendSQLite),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/wallet.db"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "wallet"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "ledger_snapshots"),

		GoogleSpreadsheetID:      getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleWalletSheet:        getEnv("GOOGLE_WALLET_SHEET_NAME", "Wallet"),
		GoogleTransactionsSheet:  getEnv("GOOGLE_TRANSACTIONS_SHEET_NAME", "Transactions"),
		GoogleServiceAccountJSON: getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", ""),
		GoogleServiceAccountFile: getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", os.Getenv("GOOGLE_APPLICATION_CREDENTIALS")),

		MirrorBackend:      getEnv("MIRROR_BACKEND", BackendSheets),
		MirrorSQLiteDBPath: getEnv("MIRROR_SQLITE_DB_PATH", "./data/wallet-mirror.db"),

		LogLevel:       getEnv("LOG_LEVEL", "info"),
		MetricsEnabled: getEnvBool("METRICS_ENABLED", true),
	}

	return cfg
}

// InitialBalanceMoney parses WALLET_INITIAL_BALANCE, rounding half up to
// cents. Zero is allowed.
func (c *Config) InitialBalanceMoney() (core.Money, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(c.InitialBalance))
	if err != nil {
		return core.Money{}, fmt.Errorf("invalid initial balance '%s': %w", c.InitialBalance, err)
	}
	if d.IsNegative() {
		return core.Money{}, fmt.Errorf("invalid initial balance '%s': must not be negative", c.InitialBalance)
	}
	return core.Money{Cents: d.Shift(2).Round(0).IntPart()}, nil
}

// Validate checks the server configuration and reports every problem at once.
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if _, err := c.InitialBalanceMoney(); err != nil {
		errors = append(errors, err.Error())
	}
	if !core.IsKnownCurrency(c.Currency) {
		errors = append(errors, fmt.Sprintf("unknown currency '%s'", c.Currency))
	}

	errors = append(errors, c.validateBackend("data backend", c.DataBackend, c.SQLiteDBPath)...)

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.RateLimitRPM < 1 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must be at least 1 request per minute", c.RateLimitRPM))
	}
	if c.SummaryCacheTTL < time.Second {
		errors = append(errors, fmt.Sprintf("invalid summary cache TTL %v: must be at least 1 second", c.SummaryCacheTTL))
	}
	if c.ShutdownTimeout < time.Second {
		errors = append(errors, fmt.Sprintf("invalid shutdown timeout %v: must be at least 1 second", c.ShutdownTimeout))
	}

	return joinErrors(errors)
}

// ValidateWorker checks what the mirror worker needs on top of the shared
// settings: a broker and a usable mirror backend.
func (c *Config) ValidateWorker() error {
	var errors []string
	if c.AMQPURL == "" {
		errors = append(errors, "AMQP URL is required by the mirror worker")
	}
	errors = append(errors, c.validateBackend("mirror backend", c.MirrorBackend, c.MirrorSQLiteDBPath)...)
	return joinErrors(errors)
}

func (c *Config) validateBackend(name, backend, sqlitePath string) []string {
	var errors []string
	if !slices.Contains(validBackends, backend) {
		return append(errors, fmt.Sprintf("invalid %s '%s': must be one of %v", name, backend, validBackends))
	}

	switch backend {
	case BackendSQLite:
		if sqlitePath == "" {
			errors = append(errors, fmt.Sprintf("SQLite database path cannot be empty when using sqlite %s", name))
			break
		}
		dir := filepath.Dir(sqlitePath)
		if dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0755); err != nil {
					errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
				}
			}
		}
	case BackendSheets:
		if c.GoogleSpreadsheetID == "" {
			errors = append(errors, fmt.Sprintf("Google Spreadsheet ID is required when using sheets %s", name))
		}
		if c.GoogleWalletSheet == "" || c.GoogleTransactionsSheet == "" {
			errors = append(errors, "Google sheet names cannot be empty")
		}
		hasJSON := c.GoogleServiceAccountJSON != ""
		hasFile := c.GoogleServiceAccountFile != ""
		if !hasJSON && !hasFile {
			errors = append(errors, "either GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE must be provided for sheets "+name)
		}
		if !hasJSON && hasFile {
			if _, err := os.Stat(c.GoogleServiceAccountFile); os.IsNotExist(err) {
				errors = append(errors, fmt.Sprintf("Google service account file does not exist: %s", c.GoogleServiceAccountFile))
			}
		}
	}
	return errors
}

func joinErrors(errors []string) error {
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
