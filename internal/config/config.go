// Package config loads runtime settings from the environment, an optional
// config file and defaults.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Setting keys. Environment variables use the same names.
const (
	KeyDataBackend         = "DATA_BACKEND"
	KeySQLiteDBPath        = "SQLITE_DB_PATH"
	KeyLogLevel            = "LOG_LEVEL"
	KeyLogFormat           = "LOG_FORMAT"
	KeyAMQPURL             = "AMQP_URL"
	KeyAMQPExchange        = "AMQP_EXCHANGE"
	KeyAMQPQueue           = "AMQP_QUEUE"
	KeySpreadsheetID       = "GOOGLE_SPREADSHEET_ID"
	KeySheetName           = "GOOGLE_SHEET_NAME"
	KeyServiceAccountJSON  = "GOOGLE_SERVICE_ACCOUNT_JSON"
	KeyServiceAccountFile  = "GOOGLE_SERVICE_ACCOUNT_FILE"
	KeyUpcomingHorizonDays = "UPCOMING_HORIZON_DAYS"
	KeyProcessOnStart      = "PROCESS_ON_START"
)

type Config struct {
	// Storage
	DataBackend  string
	SQLiteDBPath string

	// Logging
	LogLevel  string
	LogFormat string

	// AMQP, disabled when AMQPURL is empty
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets export
	GoogleSpreadsheetID      string
	GoogleSheetName          string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string

	// Recurring transactions
	UpcomingHorizonDays int
	ProcessOnStart      bool
}

// SetDefaults registers the default value of every setting on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyDataBackend, "sqlite")
	v.SetDefault(KeySQLiteDBPath, "./data/conti.db")
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "text")
	v.SetDefault(KeyAMQPURL, "")
	v.SetDefault(KeyAMQPExchange, "conti")
	v.SetDefault(KeyAMQPQueue, "ledger_events")
	v.SetDefault(KeySpreadsheetID, "")
	v.SetDefault(KeySheetName, "Transactions")
	v.SetDefault(KeyServiceAccountJSON, "")
	v.SetDefault(KeyServiceAccountFile, "")
	v.SetDefault(KeyUpcomingHorizonDays, 30)
	v.SetDefault(KeyProcessOnStart, true)
}

// NewViper returns a viper instance with defaults and environment lookup.
// configFile, when not empty, is read as well; a missing file is an error.
func NewViper(configFile string) (*viper.Viper, error) {
	v := viper.New()
	SetDefaults(v)
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", configFile, err)
		}
	}
	return v, nil
}

// FromViper reads a Config out of v.
func FromViper(v *viper.Viper) *Config {
	return &Config{
		DataBackend:  strings.ToLower(strings.TrimSpace(v.GetString(KeyDataBackend))),
		SQLiteDBPath: strings.TrimSpace(v.GetString(KeySQLiteDBPath)),

		LogLevel:  strings.ToLower(strings.TrimSpace(v.GetString(KeyLogLevel))),
		LogFormat: strings.ToLower(strings.TrimSpace(v.GetString(KeyLogFormat))),

		AMQPURL:      strings.TrimSpace(v.GetString(KeyAMQPURL)),
		AMQPExchange: v.GetString(KeyAMQPExchange),
		AMQPQueue:    v.GetString(KeyAMQPQueue),

		GoogleSpreadsheetID:      strings.TrimSpace(v.GetString(KeySpreadsheetID)),
		GoogleSheetName:          strings.TrimSpace(v.GetString(KeySheetName)),
		GoogleServiceAccountJSON: strings.TrimSpace(v.GetString(KeyServiceAccountJSON)),
		GoogleServiceAccountFile: strings.TrimSpace(v.GetString(KeyServiceAccountFile)),

		UpcomingHorizonDays: v.GetInt(KeyUpcomingHorizonDays),
		ProcessOnStart:      v.GetBool(KeyProcessOnStart),
	}
}

// Load reads the configuration from the environment and defaults.
func Load() *Config {
	v, _ := NewViper("")
	return FromViper(v)
}

// SheetsEnabled reports whether a spreadsheet is configured.
func (c *Config) SheetsEnabled() bool {
	return c.GoogleSpreadsheetID != ""
}

// AMQPEnabled reports whether event publishing is configured.
func (c *Config) AMQPEnabled() bool {
	return c.AMQPURL != ""
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	validBackends := []string{"memory", "sqlite"}
	if !contains(validBackends, c.DataBackend) {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	if c.DataBackend == "sqlite" {
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else {
			dir := filepath.Dir(c.SQLiteDBPath)
			if dir != "." && dir != "" {
				if _, err := os.Stat(dir); os.IsNotExist(err) {
					if err := os.MkdirAll(dir, 0755); err != nil {
						errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
					}
				}
			}
		}
	}

	validLevels := []string{"debug", "info", "warn", "error"}
	if !contains(validLevels, c.LogLevel) {
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of %v", c.LogLevel, validLevels))
	}
	validFormats := []string{"text", "json"}
	if !contains(validFormats, c.LogFormat) {
		errors = append(errors, fmt.Sprintf("invalid log format '%s': must be one of %v", c.LogFormat, validFormats))
	}

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

	if c.SheetsEnabled() {
		if c.GoogleSheetName == "" {
			errors = append(errors, "Google Sheet name is required when a spreadsheet is configured")
		}
		if c.GoogleServiceAccountFile != "" {
			if _, err := os.Stat(c.GoogleServiceAccountFile); os.IsNotExist(err) {
				errors = append(errors, fmt.Sprintf("Google service account file does not exist: %s", c.GoogleServiceAccountFile))
			}
		}
	}

	if c.UpcomingHorizonDays < 1 {
		errors = append(errors, fmt.Sprintf("invalid upcoming horizon %d: must be at least 1 day", c.UpcomingHorizonDays))
	} else if c.UpcomingHorizonDays > 3660 {
		errors = append(errors, fmt.Sprintf("invalid upcoming horizon %d: must be at most 3660 days", c.UpcomingHorizonDays))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
