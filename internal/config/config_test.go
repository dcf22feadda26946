package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Veraticus/rfm-segmenter/internal/common"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultPipeline(t *testing.T) {
	cfg := DefaultPipeline()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, time.Date(2011, 12, 11, 0, 0, 0, 0, time.UTC), cfg.ReferenceDate)
	assert.Equal(t, 5, cfg.Bins)
	assert.Equal(t, 1.5, cfg.FenceMultiplier)
	assert.Equal(t, "C", cfg.CancellationMarker)
}

func TestPipeline_Validate(t *testing.T) {
	tests := []struct {
		mutate  func(p *Pipeline)
		name    string
		errMsg  string
		wantErr bool
	}{
		{name: "defaults", mutate: func(_ *Pipeline) {}},
		{name: "zero reference date", mutate: func(p *Pipeline) { p.ReferenceDate = time.Time{} }, wantErr: true, errMsg: "ReferenceDate"},
		{name: "bins other than five", mutate: func(p *Pipeline) { p.Bins = 4 }, wantErr: true, errMsg: "Bins"},
		{name: "non-positive multiplier", mutate: func(p *Pipeline) { p.FenceMultiplier = 0 }, wantErr: true, errMsg: "FenceMultiplier"},
		{name: "quantiles reversed", mutate: func(p *Pipeline) { p.LowerQuantile, p.UpperQuantile = 0.75, 0.25 }, wantErr: true, errMsg: "UpperQuantile"},
		{name: "upper quantile above one", mutate: func(p *Pipeline) { p.UpperQuantile = 1.2 }, wantErr: true, errMsg: "UpperQuantile"},
		{name: "empty marker", mutate: func(p *Pipeline) { p.CancellationMarker = "" }, wantErr: true, errMsg: "CancellationMarker"},
		{name: "wider fences", mutate: func(p *Pipeline) { p.FenceMultiplier = 3; p.LowerQuantile = 0.01; p.UpperQuantile = 0.99 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultPipeline()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, common.ErrInvalidConfig)
				assert.Contains(t, err.Error(), tt.errMsg)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestLoadPipeline(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg, err := LoadPipeline(viper.New())
		require.NoError(t, err)
		assert.Equal(t, DefaultPipeline(), cfg)
	})

	t.Run("from config file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte(`
pipeline:
  reference_date: "2012-01-01"
  fence_multiplier: 3
  cancellation_marker: "X"
`), 0o600))

		v := viper.New()
		v.SetConfigFile(path)
		require.NoError(t, v.ReadInConfig())

		cfg, err := LoadPipeline(v)
		require.NoError(t, err)
		assert.Equal(t, time.Date(2012, 1, 1, 0, 0, 0, 0, time.UTC), cfg.ReferenceDate)
		assert.Equal(t, 3.0, cfg.FenceMultiplier)
		assert.Equal(t, "X", cfg.CancellationMarker)
		assert.Equal(t, 5, cfg.Bins)
	})

	t.Run("bad date", func(t *testing.T) {
		v := viper.New()
		v.Set("pipeline.reference_date", "11/12/2011")
		_, err := LoadPipeline(v)
		assert.ErrorIs(t, err, common.ErrInvalidConfig)
	})

	t.Run("bad bins", func(t *testing.T) {
		v := viper.New()
		v.Set("pipeline.bins", 10)
		_, err := LoadPipeline(v)
		assert.ErrorIs(t, err, common.ErrInvalidConfig)
	})
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate(" 2011-12-11 ")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2011, 12, 11, 0, 0, 0, 0, time.UTC), d)

	_, err = ParseDate("")
	assert.ErrorIs(t, err, common.ErrMissingConfig)

	_, err = ParseDate("2011-13-01")
	assert.Error(t, err)
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	t.Setenv("RFM_TEST_DIR", "/data")

	assert.Equal(t, "", ExpandPath(""))
	assert.Equal(t, filepath.Join(home, "retail.csv"), ExpandPath("~/retail.csv"))
	assert.Equal(t, home, ExpandPath("~"))
	assert.Equal(t, "/data/retail.xlsx", ExpandPath("$RFM_TEST_DIR/retail.xlsx"))
	assert.Equal(t, "relative.csv", ExpandPath("relative.csv"))
}

func TestConfigDir(t *testing.T) {
	t.Setenv("HOME", "/home/analyst")
	dir, err := ConfigDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/home/analyst", ".config", "rfm"), dir)
}

func TestLoadSheetsConfig(t *testing.T) {
	for _, key := range []string{
		"GOOGLE_SHEETS_CLIENT_ID", "GOOGLE_SHEETS_CLIENT_SECRET", "GOOGLE_SHEETS_REFRESH_TOKEN",
		"GOOGLE_SHEETS_SERVICE_ACCOUNT_PATH", "GOOGLE_SHEETS_SPREADSHEET_ID", "GOOGLE_SHEETS_SPREADSHEET_NAME",
	} {
		t.Setenv(key, "")
	}

	t.Run("viper values win", func(t *testing.T) {
		t.Setenv("GOOGLE_SHEETS_SPREADSHEET_ID", "from-env")
		v := viper.New()
		v.Set("sheets.service_account_path", "/keys/sa.json")
		v.Set("sheets.spreadsheet_id", "from-viper")

		cfg, err := LoadSheetsConfig(v)
		require.NoError(t, err)
		assert.Equal(t, "/keys/sa.json", cfg.ServiceAccountPath)
		assert.Equal(t, "from-viper", cfg.SpreadsheetID)
	})

	t.Run("environment fallback", func(t *testing.T) {
		t.Setenv("GOOGLE_SHEETS_CLIENT_ID", "id")
		t.Setenv("GOOGLE_SHEETS_CLIENT_SECRET", "secret")
		t.Setenv("GOOGLE_SHEETS_REFRESH_TOKEN", "token")
		t.Setenv("GOOGLE_SHEETS_SPREADSHEET_NAME", "Segments Q4")

		cfg, err := LoadSheetsConfig(viper.New())
		require.NoError(t, err)
		assert.Equal(t, "id", cfg.ClientID)
		assert.Equal(t, "Segments Q4", cfg.SpreadsheetName)
	})

	t.Run("no credentials", func(t *testing.T) {
		_, err := LoadSheetsConfig(viper.New())
		assert.ErrorIs(t, err, common.ErrMissingConfig)
	})

	t.Run("writer settings", func(t *testing.T) {
		v := viper.New()
		v.Set("sheets.service_account_path", "~/keys/sa.json")
		v.Set("sheets.batch_size", 250)
		v.Set("sheets.enable_formatting", false)

		cfg, err := LoadSheetsConfig(v)
		require.NoError(t, err)
		assert.Equal(t, 250, cfg.BatchSize)
		assert.False(t, cfg.EnableFormatting)
		assert.Equal(t, ExpandPath("~/keys/sa.json"), cfg.ServiceAccountPath)
	})
}
