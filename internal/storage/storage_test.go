package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/Veraticus/rfm-segmenter/internal/common"
	"github.com/Veraticus/rfm-segmenter/internal/model"
	"github.com/Veraticus/rfm-segmenter/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ service.ResultStore = (*SQLiteStorage)(nil)

func createTestStorage(t *testing.T) *SQLiteStorage {
	t.Helper()

	store, err := NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	require.NoError(t, store.Migrate(context.Background()))
	return store
}

func scored(id int64, r, f int, m float64, rs, fs, ms int) model.ScoredCustomer {
	seg, _ := model.SegmentFor(rs, fs)
	return model.ScoredCustomer{
		CustomerRecord: model.CustomerRecord{CustomerID: id, Recency: r, Frequency: f, Monetary: m},
		RecencyScore:   rs,
		FrequencyScore: fs,
		MonetaryScore:  ms,
		RFScore:        model.RFCode(rs, fs),
		Segment:        seg,
	}
}

func testResult(runID string) *model.Result {
	return &model.Result{
		RunID:         runID,
		SourceFile:    "retail.csv",
		ReferenceDate: time.Date(2011, 12, 11, 0, 0, 0, 0, time.UTC),
		GeneratedAt:   time.Date(2024, 5, 6, 7, 8, 9, 123000000, time.UTC),
		Customers: []model.ScoredCustomer{
			scored(12348, 179, 3, 10.75, 1, 5, 3),
			scored(12346, 1, 2, 15, 5, 3, 5),
			scored(12347, 29, 1, 8.75, 3, 1, 1),
			scored(12349, 18, 1, 1757.55, 4, 1, 5),
		},
		Summary: []model.SegmentSummary{
			{Segment: model.SegmentCantLose, Customers: 1, Share: 0.25, MeanRecency: 179, MeanFrequency: 3, MeanMonetary: 10.75, TotalMonetary: 10.75},
			{Segment: model.SegmentAboutToSleep, Customers: 1, Share: 0.25, MeanRecency: 29, MeanFrequency: 1, MeanMonetary: 8.75, TotalMonetary: 8.75},
			{Segment: model.SegmentPromising, Customers: 1, Share: 0.25, MeanRecency: 18, MeanFrequency: 1, MeanMonetary: 1757.55, TotalMonetary: 1757.55},
			{Segment: model.SegmentPotentialLoyalist, Customers: 1, Share: 0.25, MeanRecency: 1, MeanFrequency: 2, MeanMonetary: 15, TotalMonetary: 15},
		},
		Cleaning: model.CleaningReport{RawRows: 10, CleanRows: 7, DroppedNull: 2, DroppedCancelled: 1},
	}
}

func TestMigrate(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	var version int
	require.NoError(t, store.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version))
	assert.Equal(t, ExpectedSchemaVersion, version)

	// re-running is a no-op
	require.NoError(t, store.Migrate(ctx))

	for _, table := range []string{"runs", "customers", "segment_summaries"} {
		var count int
		err := store.db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&count)
		require.NoError(t, err)
		assert.Equal(t, 1, count, "table %s", table)
	}
}

func TestSaveResult_RoundTrip(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()
	result := testResult("run-1")

	require.NoError(t, store.SaveResult(ctx, result))

	info, err := store.GetRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, "retail.csv", info.SourceFile)
	assert.Equal(t, result.ReferenceDate, info.ReferenceDate)
	assert.True(t, result.GeneratedAt.Equal(info.GeneratedAt))
	assert.Equal(t, 4, info.CustomerCount)
	assert.Equal(t, 7, info.CleanRows)
	assert.Equal(t, 10, info.RawRows)

	customers, err := store.GetCustomersByRun(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, customers, 4)
	assert.Equal(t, int64(12346), customers[0].CustomerID)
	assert.Equal(t, result.Customers[1], customers[0])
	assert.Equal(t, result.Customers[0], customers[2])

	counts, err := store.CountBySegment(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, map[model.Segment]int{
		model.SegmentCantLose:          1,
		model.SegmentAboutToSleep:      1,
		model.SegmentPromising:         1,
		model.SegmentPotentialLoyalist: 1,
	}, counts)

	summaries, err := store.GetSummaries(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, result.Summary, summaries)
}

func TestSaveResult_SeparateRuns(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	require.NoError(t, store.SaveResult(ctx, testResult("run-1")))
	require.NoError(t, store.SaveResult(ctx, testResult("run-2")))

	customers, err := store.GetCustomersByRun(ctx, "run-2")
	require.NoError(t, err)
	assert.Len(t, customers, 4)
}

func TestSaveResult_DuplicateRunRollsBack(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	require.NoError(t, store.SaveResult(ctx, testResult("run-1")))
	assert.Error(t, store.SaveResult(ctx, testResult("run-1")))

	customers, err := store.GetCustomersByRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Len(t, customers, 4)
}

func TestSaveResult_Validation(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	tests := []struct {
		result *model.Result
		wantIs error
		name   string
	}{
		{name: "nil result", result: nil, wantIs: ErrNilParameter},
		{name: "empty run id", result: testResult(" "), wantIs: ErrInvalidRun},
		{
			name: "non-positive monetary",
			result: func() *model.Result {
				r := testResult("run-x")
				r.Customers[0].Monetary = 0
				return r
			}(),
			wantIs: ErrInvalidCustomer,
		},
		{
			name: "score out of range",
			result: func() *model.Result {
				r := testResult("run-y")
				r.Customers[1].MonetaryScore = 6
				return r
			}(),
			wantIs: ErrInvalidCustomer,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, store.SaveResult(ctx, tt.result), tt.wantIs)
		})
	}
}

func TestGetRun_NotFound(t *testing.T) {
	store := createTestStorage(t)

	_, err := store.GetRun(context.Background(), "missing")
	assert.ErrorIs(t, err, common.ErrNotFound)

	_, err = store.GetRun(context.Background(), "")
	assert.ErrorIs(t, err, ErrEmptyString)
}

func TestGetCustomersByRun_Unknown(t *testing.T) {
	store := createTestStorage(t)

	customers, err := store.GetCustomersByRun(context.Background(), "missing")
	require.NoError(t, err)
	assert.Empty(t, customers)
}

func TestNewSQLiteStorage_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "export.db")

	store, err := NewSQLiteStorage(path)
	require.NoError(t, err)
	require.NoError(t, store.Migrate(context.Background()))
	require.NoError(t, store.SaveResult(context.Background(), testResult("run-1")))
	require.NoError(t, store.Close())

	reopened, err := NewSQLiteStorage(path)
	require.NoError(t, err)
	defer func() { _ = reopened.Close() }()
	require.NoError(t, reopened.Migrate(context.Background()))

	info, err := reopened.GetRun(context.Background(), "run-1")
	require.NoError(t, err)
	assert.Equal(t, path, reopened.Path())
	assert.Equal(t, 4, info.CustomerCount)
}

func TestNewSQLiteStorage_EmptyPath(t *testing.T) {
	_, err := NewSQLiteStorage("")
	assert.ErrorIs(t, err, ErrEmptyString)
}
