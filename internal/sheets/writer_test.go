package sheets

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/Veraticus/rfm-segmenter/internal/common"
	"github.com/Veraticus/rfm-segmenter/internal/model"
	"github.com/Veraticus/rfm-segmenter/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"
)

var _ service.ReportWriter = (*Writer)(nil)
var _ service.ReportWriter = (*MockWriter)(nil)

func testResult() *model.Result {
	return &model.Result{
		RunID:         "run-1",
		ReferenceDate: time.Date(2011, 12, 11, 0, 0, 0, 0, time.UTC),
		Customers: []model.ScoredCustomer{
			{
				CustomerRecord: model.CustomerRecord{CustomerID: 12346, Recency: 326, Frequency: 1, Monetary: 310.444},
				RecencyScore:   1, FrequencyScore: 1, MonetaryScore: 4,
				RFScore: "11", Segment: model.SegmentHibernating,
			},
			{
				CustomerRecord: model.CustomerRecord{CustomerID: 12347, Recency: 3, Frequency: 7, Monetary: 4310},
				RecencyScore:   5, FrequencyScore: 5, MonetaryScore: 5,
				RFScore: "55", Segment: model.SegmentChampion,
			},
		},
		Summary: []model.SegmentSummary{
			{Segment: model.SegmentHibernating, Customers: 1, Share: 0.5, MeanRecency: 326, MeanFrequency: 1, MeanMonetary: 310.444, TotalMonetary: 310.444},
			{Segment: model.SegmentChampion, Customers: 1, Share: 0.5, MeanRecency: 3, MeanFrequency: 7, MeanMonetary: 4310, TotalMonetary: 4310},
		},
		Cleaning: model.CleaningReport{RawRows: 40, CleanRows: 30, DroppedNull: 6, DroppedCancelled: 4},
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		errMsg  string
		config  Config
		wantErr bool
	}{
		{
			name: "valid oauth config",
			config: Config{
				ClientID:      "test-client",
				ClientSecret:  "test-secret",
				RefreshToken:  "test-token",
				BatchSize:     100,
				RetryAttempts: 3,
				RetryDelay:    time.Second,
			},
		},
		{
			name: "valid service account config",
			config: Config{
				ServiceAccountPath: "/path/to/key.json",
				BatchSize:          100,
				RetryAttempts:      3,
				RetryDelay:         time.Second,
			},
		},
		{
			name: "missing auth",
			config: Config{
				BatchSize:     100,
				RetryAttempts: 3,
				RetryDelay:    time.Second,
			},
			wantErr: true,
			errMsg:  "no authentication method configured",
		},
		{
			name: "multiple auth methods",
			config: Config{
				ClientID:           "test-client",
				ClientSecret:       "test-secret",
				RefreshToken:       "test-token",
				ServiceAccountPath: "/path/to/key.json",
				BatchSize:          100,
				RetryAttempts:      3,
				RetryDelay:         time.Second,
			},
			wantErr: true,
			errMsg:  "multiple authentication methods configured",
		},
		{
			name: "invalid batch size",
			config: Config{
				ClientID:      "test-client",
				ClientSecret:  "test-secret",
				RefreshToken:  "test-token",
				BatchSize:     0,
				RetryAttempts: 3,
				RetryDelay:    time.Second,
			},
			wantErr: true,
			errMsg:  "batch size must be positive",
		},
		{
			name: "negative retry attempts",
			config: Config{
				ServiceAccountPath: "/path/to/key.json",
				BatchSize:          100,
				RetryAttempts:      -1,
			},
			wantErr: true,
			errMsg:  "retry attempts cannot be negative",
		},
		{
			name: "partial oauth credentials",
			config: Config{
				ClientID:     "test-client",
				RefreshToken: "test-token",
				BatchSize:    100,
			},
			wantErr: true,
			errMsg:  "no authentication method configured",
		},
		{
			name: "zero retries is valid",
			config: Config{
				ServiceAccountPath: "/path/to/key.json",
				BatchSize:          100,
			},
		},
		{
			name: "negative retry delay",
			config: Config{
				ServiceAccountPath: "/path/to/key.json",
				BatchSize:          100,
				RetryDelay:         -time.Second,
			},
			wantErr: true,
			errMsg:  "retry delay cannot be negative",
		},
		{
			name: "negative max retry delay",
			config: Config{
				ServiceAccountPath: "/path/to/key.json",
				BatchSize:          100,
				MaxRetryDelay:      -time.Second,
			},
			wantErr: true,
			errMsg:  "max retry delay cannot be negative",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, DefaultSpreadsheetName, cfg.SpreadsheetName)
	assert.Equal(t, "Europe/London", cfg.TimeZone)
	assert.Equal(t, 1000, cfg.BatchSize)
	assert.Equal(t, 30*time.Second, cfg.MaxRetryDelay)
	assert.True(t, cfg.EnableFormatting)
}

func TestConfig_LoadFromEnv(t *testing.T) {
	t.Setenv("GOOGLE_SHEETS_CLIENT_ID", "")
	t.Setenv("GOOGLE_SHEETS_CLIENT_SECRET", "")
	t.Setenv("GOOGLE_SHEETS_REFRESH_TOKEN", "")
	t.Setenv("GOOGLE_SHEETS_SPREADSHEET_ID", "")
	t.Setenv("GOOGLE_SHEETS_SPREADSHEET_NAME", "")

	t.Run("missing credentials", func(t *testing.T) {
		t.Setenv("GOOGLE_SHEETS_SERVICE_ACCOUNT_PATH", "")
		cfg := DefaultConfig()
		assert.Error(t, cfg.LoadFromEnv())
	})

	t.Run("service account", func(t *testing.T) {
		t.Setenv("GOOGLE_SHEETS_SERVICE_ACCOUNT_PATH", "/keys/sa.json")
		cfg := DefaultConfig()
		require.NoError(t, cfg.LoadFromEnv())
		assert.Equal(t, "/keys/sa.json", cfg.ServiceAccountPath)
		assert.Equal(t, DefaultSpreadsheetName, cfg.SpreadsheetName)
	})

	t.Run("set fields are kept", func(t *testing.T) {
		t.Setenv("GOOGLE_SHEETS_SERVICE_ACCOUNT_PATH", "/keys/env.json")
		t.Setenv("GOOGLE_SHEETS_SPREADSHEET_NAME", "Segments Q4")
		cfg := DefaultConfig()
		cfg.ServiceAccountPath = "/keys/flag.json"
		require.NoError(t, cfg.LoadFromEnv())
		assert.Equal(t, "/keys/flag.json", cfg.ServiceAccountPath)
		assert.Equal(t, "Segments Q4", cfg.SpreadsheetName)
	})
}

func TestConfig_Auth(t *testing.T) {
	method, err := (&Config{ServiceAccountPath: "/keys/sa.json"}).Auth()
	require.NoError(t, err)
	assert.Equal(t, AuthServiceAccount, method)

	method, err = (&Config{ClientID: "id", ClientSecret: "secret", RefreshToken: "token"}).Auth()
	require.NoError(t, err)
	assert.Equal(t, AuthOAuth, method)

	_, err = (&Config{ClientID: "id"}).Auth()
	assert.ErrorIs(t, err, common.ErrMissingConfig)

	_, err = (&Config{ClientID: "id", ClientSecret: "secret", RefreshToken: "token", ServiceAccountPath: "/k"}).Auth()
	assert.ErrorIs(t, err, common.ErrInvalidConfig)
}

func TestNewWriter_InvalidConfig(t *testing.T) {
	_, err := NewWriter(context.Background(), Config{BatchSize: 10}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid config")
}

func TestPrepareCustomerValues(t *testing.T) {
	values := prepareCustomerValues(testResult())

	require.Len(t, values, 5)
	assert.Equal(t, "RFM Segmentation", values[0][0])
	assert.Equal(t, "Reference date Dec 11, 2011", values[0][1])
	assert.Empty(t, values[1])
	assert.Equal(t, customerHeader, values[2])

	assert.Equal(t, []any{int64(12346), 326, 1, 310.44, 1, 1, 4, "11", "Hibernating"}, values[3])
	assert.Equal(t, []any{int64(12347), 3, 7, 4310.0, 5, 5, 5, "55", "Champion"}, values[4])
}

func TestPrepareSummaryValues(t *testing.T) {
	values := prepareSummaryValues(testResult())

	require.Len(t, values, 10)
	assert.Equal(t, []any{"Customers", 2}, values[1])
	assert.Equal(t, []any{"Raw rows", 40}, values[2])
	assert.Equal(t, []any{"Dropped (cancellations)", 4}, values[5])
	assert.Equal(t, summaryHeader, values[7])
	assert.Equal(t, []any{"Hibernating", 1, 50.0, 326.0, 1.0, 310.44, 310.44}, values[8])
	assert.Equal(t, "Champion", values[9][0])
}

func TestNewSummaryRow_Rounding(t *testing.T) {
	row := NewSummaryRow(model.SegmentSummary{
		Segment:       model.SegmentAtRisk,
		Customers:     3,
		Share:         1.0 / 3.0,
		MeanRecency:   100.0 / 3.0,
		MeanFrequency: 7.0 / 3.0,
		MeanMonetary:  1000.0 / 3.0,
		TotalMonetary: 1000,
	})

	assert.Equal(t, "33.3", row.SharePct.String())
	assert.Equal(t, "33.3", row.MeanRecency.String())
	assert.Equal(t, "2.33", row.MeanFrequency.String())
	assert.Equal(t, "333.33", row.MeanMonetary.String())
	assert.Equal(t, "1000", row.TotalMonetary.String())
}

func TestMockWriter(t *testing.T) {
	mock := NewMockWriter()
	result := testResult()

	require.NoError(t, mock.Write(context.Background(), result))
	assert.Equal(t, 1, mock.WriteCallCount)
	assert.Same(t, result, mock.LastResult)
	assert.Len(t, mock.Tab(CustomersTab), 5)
	assert.Equal(t, summaryHeader, mock.Tab(SummaryTab)[7])

	boom := errors.New("quota exceeded")
	mock.SetWriteError(boom)
	assert.ErrorIs(t, mock.Write(context.Background(), result), boom)

	calls := mock.GetWriteCalls()
	require.Len(t, calls, 2)
	assert.NoError(t, calls[0].Error)
	assert.ErrorIs(t, calls[1].Error, boom)

	mock.Reset()
	assert.Zero(t, mock.WriteCallCount)
	assert.Nil(t, mock.LastResult)
	assert.Empty(t, mock.Tab(CustomersTab))
}

func TestClassifyAPIError(t *testing.T) {
	apiErr := func(code int) error {
		return fmt.Errorf("failed to write batch starting at row 1: %w", &googleapi.Error{Code: code, Message: http.StatusText(code)})
	}

	assert.NoError(t, classifyAPIError(nil))

	rateLimited := classifyAPIError(apiErr(http.StatusTooManyRequests))
	assert.ErrorIs(t, rateLimited, common.ErrRateLimit)
	assert.True(t, common.IsRetryable(rateLimited))

	forbidden := classifyAPIError(apiErr(http.StatusForbidden))
	assert.False(t, common.IsRetryable(forbidden))

	var retryErr *common.RetryableError
	assert.False(t, errors.As(classifyAPIError(apiErr(http.StatusServiceUnavailable)), &retryErr))
	assert.False(t, errors.As(classifyAPIError(apiErr(http.StatusRequestTimeout)), &retryErr))

	plain := errors.New("connection reset")
	assert.Equal(t, plain, classifyAPIError(plain))
}

func TestClassifyAPIError_WithRetry(t *testing.T) {
	calls := 0
	err := common.WithRetry(context.Background(), func() error {
		calls++
		return classifyAPIError(&googleapi.Error{Code: http.StatusNotFound})
	}, service.RetryOptions{MaxAttempts: 3, InitialDelay: time.Millisecond})

	require.Error(t, err)
	assert.Equal(t, 1, calls)
}
