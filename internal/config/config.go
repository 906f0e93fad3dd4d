package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"registro/internal/core"
)

type Config struct {
	// HTTP Server
	Port string

	// Backend selection
	DataBackend string

	// SQLite (single-tenant local variant)
	SQLiteDBPath string

	// PostgreSQL (multi-tenant with stale-write detection)
	PostgresURL string

	// Google Sheets (shared-store variant)
	GoogleSpreadsheetID       string
	GoogleLedgerSheet         string
	GoogleOwnersSpreadsheetID string
	GoogleOwnersSheet         string

	// AMQP event bus (optional; mirror worker)
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Advisory service (optional)
	OpenAIAPIKey  string
	OpenAIBaseURL string
	OpenAIModel   string

	// Validation rules
	DescriptionRequired bool
	IncomeCategories    []string
	ExpenseCategories   []string
}

func Load() *Config {
	cfg := &Config{
		Port:        getEnv("PORT", "8081"),
		DataBackend: getEnv("DATA_BACKEND", "memory"),

		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/registro.db"),
		PostgresURL:  getEnv("POSTGRES_URL", ""),

		GoogleSpreadsheetID:       getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleLedgerSheet:         getEnv("GOOGLE_LEDGER_SHEET", "Movimientos"),
		GoogleOwnersSpreadsheetID: getEnv("GOOGLE_OWNERS_SPREADSHEET_ID", ""),
		GoogleOwnersSheet:         getEnv("GOOGLE_OWNERS_SHEET", "Usuarios"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "registro"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "mirror_movements"),

		OpenAIAPIKey:  getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL: getEnv("OPENAI_BASE_URL", ""),
		OpenAIModel:   getEnv("OPENAI_MODEL", "gpt-4o-mini"),

		DescriptionRequired: getEnvBool("DESCRIPTION_REQUIRED", false),
		IncomeCategories:    getEnvList("INCOME_CATEGORIES", core.DefaultCatalog().Income),
		ExpenseCategories:   getEnvList("EXPENSE_CATEGORIES", core.DefaultCatalog().Expense),
	}
	return cfg
}

// Rules builds the validation rules from the loaded category lists.
func (c *Config) Rules() core.Rules {
	return core.Rules{
		Catalog: core.Catalog{
			Income:  c.IncomeCategories,
			Expense: c.ExpenseCategories,
		},
		DescriptionRequired: c.DescriptionRequired,
	}
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	// Validate port
	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	validBackends := []string{"memory", "sheets", "sqlite", "postgres"}
	isValidBackend := false
	for _, backend := range validBackends {
		if c.DataBackend == backend {
			isValidBackend = true
			break
		}
	}
	if !isValidBackend {
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

	if c.DataBackend == "postgres" && c.PostgresURL == "" {
		errors = append(errors, "POSTGRES_URL is required when using postgres backend")
	}

	if c.DataBackend == "sheets" {
		if c.GoogleSpreadsheetID == "" {
			errors = append(errors, "Google Spreadsheet ID is required when using sheets backend")
		}
		if c.GoogleLedgerSheet == "" {
			errors = append(errors, "Google ledger sheet name is required when using sheets backend")
		}
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

	if len(c.IncomeCategories) == 0 {
		errors = append(errors, "income category list cannot be empty")
	}
	if len(c.ExpenseCategories) == 0 {
		errors = append(errors, "expense category list cannot be empty")
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
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

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
