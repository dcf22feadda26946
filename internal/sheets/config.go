// Package sheets publishes segmentation results to Google Sheets.
package sheets

import (
	"fmt"
	"os"
	"time"

	"github.com/Veraticus/rfm-segmenter/internal/common"
)

// DefaultSpreadsheetName is used when no name is configured.
const DefaultSpreadsheetName = "RFM Segmentation"

// Tab names written by the Writer.
const (
	CustomersTab = "Customers"
	SummaryTab   = "Summary"
)

// Environment variables consulted by FillFromEnv.
const (
	EnvClientID           = "GOOGLE_SHEETS_CLIENT_ID"
	EnvClientSecret       = "GOOGLE_SHEETS_CLIENT_SECRET"
	EnvRefreshToken       = "GOOGLE_SHEETS_REFRESH_TOKEN"
	EnvServiceAccountPath = "GOOGLE_SHEETS_SERVICE_ACCOUNT_PATH"
	EnvSpreadsheetID      = "GOOGLE_SHEETS_SPREADSHEET_ID"
	EnvSpreadsheetName    = "GOOGLE_SHEETS_SPREADSHEET_NAME"
)

// AuthMethod is how the writer authenticates against the Sheets API.
type AuthMethod string

// Supported authentication methods.
const (
	AuthOAuth          AuthMethod = "oauth"
	AuthServiceAccount AuthMethod = "service_account"
)

// Config holds the configuration for the Google Sheets writer.
type Config struct {
	ClientID           string
	ClientSecret       string
	RefreshToken       string
	ServiceAccountPath string
	SpreadsheetID      string
	SpreadsheetName    string
	TimeZone           string
	BatchSize          int
	RetryAttempts      int
	RetryDelay         time.Duration
	MaxRetryDelay      time.Duration
	EnableFormatting   bool
}

// DefaultConfig returns the writer defaults for a UK retail workbook.
func DefaultConfig() Config {
	return Config{
		SpreadsheetName:  DefaultSpreadsheetName,
		EnableFormatting: true,
		TimeZone:         "Europe/London",
		BatchSize:        1000,
		RetryAttempts:    3,
		RetryDelay:       time.Second,
		MaxRetryDelay:    30 * time.Second,
	}
}

// FillFromEnv sets every unset credential or spreadsheet field from its
// GOOGLE_SHEETS_* variable. The default spreadsheet name counts as unset.
func (c *Config) FillFromEnv() {
	fields := []struct {
		target *string
		env    string
	}{
		{&c.ClientID, EnvClientID},
		{&c.ClientSecret, EnvClientSecret},
		{&c.RefreshToken, EnvRefreshToken},
		{&c.ServiceAccountPath, EnvServiceAccountPath},
		{&c.SpreadsheetID, EnvSpreadsheetID},
	}
	for _, f := range fields {
		if *f.target == "" {
			*f.target = os.Getenv(f.env)
		}
	}

	if c.SpreadsheetName == "" || c.SpreadsheetName == DefaultSpreadsheetName {
		if name := os.Getenv(EnvSpreadsheetName); name != "" {
			c.SpreadsheetName = name
		}
	}
	if c.SpreadsheetName == "" {
		c.SpreadsheetName = DefaultSpreadsheetName
	}
}

// LoadFromEnv fills the config from the environment and requires credentials.
func (c *Config) LoadFromEnv() error {
	c.FillFromEnv()
	_, err := c.Auth()
	return err
}

// Auth reports which authentication method the credentials select.
// Exactly one of a service account key or a complete OAuth2 triple is allowed.
func (c *Config) Auth() (AuthMethod, error) {
	hasOAuth := c.ClientID != "" && c.ClientSecret != "" && c.RefreshToken != ""
	hasServiceAccount := c.ServiceAccountPath != ""

	switch {
	case hasOAuth && hasServiceAccount:
		return "", fmt.Errorf("%w: multiple authentication methods configured; use either OAuth2 or service account", common.ErrInvalidConfig)
	case hasServiceAccount:
		return AuthServiceAccount, nil
	case hasOAuth:
		return AuthOAuth, nil
	default:
		return "", fmt.Errorf("%w: no authentication method configured (set %s or the OAuth2 client variables)",
			common.ErrMissingConfig, EnvServiceAccountPath)
	}
}

// Validate checks credentials and the batching and retry settings.
func (c *Config) Validate() error {
	if _, err := c.Auth(); err != nil {
		return err
	}

	switch {
	case c.BatchSize <= 0:
		return fmt.Errorf("%w: batch size must be positive", common.ErrInvalidConfig)
	case c.RetryAttempts < 0:
		return fmt.Errorf("%w: retry attempts cannot be negative", common.ErrInvalidConfig)
	case c.RetryDelay < 0:
		return fmt.Errorf("%w: retry delay cannot be negative", common.ErrInvalidConfig)
	case c.MaxRetryDelay < 0:
		return fmt.Errorf("%w: max retry delay cannot be negative", common.ErrInvalidConfig)
	}

	return nil
}
