package config

import (
	"github.com/Veraticus/rfm-segmenter/internal/sheets"
	"github.com/spf13/viper"
)

// LoadSheetsConfig builds the Google Sheets writer config. Values under the
// sheets.* keys (config file or RFM_SHEETS_* variables) win over the
// GOOGLE_SHEETS_* variables, which win over the writer defaults.
func LoadSheetsConfig(v *viper.Viper) (*sheets.Config, error) {
	cfg := sheets.DefaultConfig()

	keys := []struct {
		target *string
		key    string
	}{
		{&cfg.ServiceAccountPath, "sheets.service_account_path"},
		{&cfg.ClientID, "sheets.client_id"},
		{&cfg.ClientSecret, "sheets.client_secret"},
		{&cfg.RefreshToken, "sheets.refresh_token"},
		{&cfg.SpreadsheetID, "sheets.spreadsheet_id"},
		{&cfg.SpreadsheetName, "sheets.spreadsheet_name"},
		{&cfg.TimeZone, "sheets.time_zone"},
	}
	for _, k := range keys {
		if s := v.GetString(k.key); s != "" {
			*k.target = s
		}
	}
	if v.IsSet("sheets.enable_formatting") {
		cfg.EnableFormatting = v.GetBool("sheets.enable_formatting")
	}
	if n := v.GetInt("sheets.batch_size"); n != 0 {
		cfg.BatchSize = n
	}
	if d := v.GetDuration("sheets.max_retry_delay"); d != 0 {
		cfg.MaxRetryDelay = d
	}

	cfg.FillFromEnv()
	cfg.ServiceAccountPath = ExpandPath(cfg.ServiceAccountPath)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
