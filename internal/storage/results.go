package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Veraticus/rfm-segmenter/internal/common"
	"github.com/Veraticus/rfm-segmenter/internal/model"
	"github.com/Veraticus/rfm-segmenter/internal/service"
)

const dateLayout = "2006-01-02"

// SaveResult writes one run with its customers and segment summaries in a
// single transaction.
func (s *SQLiteStorage) SaveResult(ctx context.Context, result *model.Result) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateResult(result); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = s.saveRunTx(ctx, tx, result); err != nil {
		return err
	}
	if err = s.saveCustomersTx(ctx, tx, result.RunID, result.Customers); err != nil {
		return err
	}
	if err = s.saveSummariesTx(ctx, tx, result.RunID, result.Summary); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run %s: %w", result.RunID, err)
	}
	return nil
}

func (s *SQLiteStorage) saveRunTx(ctx context.Context, tx *sql.Tx, result *model.Result) error {
	cleaning := result.Cleaning
	_, err := tx.ExecContext(ctx, `
		INSERT INTO runs (
			id, source_file, reference_date, generated_at,
			raw_rows, clean_rows, dropped_null, dropped_cancelled,
			quantity_low, quantity_high, unit_price_low, unit_price_high,
			customer_count
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		result.RunID, result.SourceFile,
		result.ReferenceDate.Format(dateLayout), result.GeneratedAt.UTC().Format(time.RFC3339Nano),
		cleaning.RawRows, cleaning.CleanRows, cleaning.DroppedNull, cleaning.DroppedCancelled,
		cleaning.QuantityFence.Low, cleaning.QuantityFence.High,
		cleaning.UnitPriceFence.Low, cleaning.UnitPriceFence.High,
		len(result.Customers),
	)
	if err != nil {
		return fmt.Errorf("failed to save run %s: %w", result.RunID, err)
	}
	return nil
}

func (s *SQLiteStorage) saveCustomersTx(ctx context.Context, tx *sql.Tx, runID string, customers []model.ScoredCustomer) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO customers (
			run_id, customer_id, recency, frequency, monetary,
			recency_score, frequency_score, monetary_score, rf_score, segment
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, c := range customers {
		_, err = stmt.ExecContext(ctx,
			runID, c.CustomerID, c.Recency, c.Frequency, c.Monetary,
			c.RecencyScore, c.FrequencyScore, c.MonetaryScore, c.RFScore, string(c.Segment),
		)
		if err != nil {
			return fmt.Errorf("failed to save customer %d: %w", c.CustomerID, err)
		}
	}
	return nil
}

func (s *SQLiteStorage) saveSummariesTx(ctx context.Context, tx *sql.Tx, runID string, summaries []model.SegmentSummary) error {
	for _, sum := range summaries {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO segment_summaries (
				run_id, segment, position, customers, share,
				mean_recency, mean_frequency, mean_monetary, total_monetary
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			runID, string(sum.Segment), sum.Segment.Rank(), sum.Customers, sum.Share,
			sum.MeanRecency, sum.MeanFrequency, sum.MeanMonetary, sum.TotalMonetary,
		)
		if err != nil {
			return fmt.Errorf("failed to save summary for %s: %w", sum.Segment, err)
		}
	}
	return nil
}

// GetRun returns the metadata of one exported run.
func (s *SQLiteStorage) GetRun(ctx context.Context, runID string) (*service.RunInfo, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(runID, "runID"); err != nil {
		return nil, err
	}

	var (
		info          service.RunInfo
		referenceDate string
		generatedAt   string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, source_file, reference_date, generated_at, customer_count, clean_rows, raw_rows
		FROM runs WHERE id = ?`, runID).
		Scan(&info.RunID, &info.SourceFile, &referenceDate, &generatedAt,
			&info.CustomerCount, &info.CleanRows, &info.RawRows)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run %s: %w", runID, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run %s: %w", runID, err)
	}

	if info.ReferenceDate, err = time.Parse(dateLayout, referenceDate); err != nil {
		return nil, fmt.Errorf("failed to parse reference date: %w", err)
	}
	if info.GeneratedAt, err = time.Parse(time.RFC3339Nano, generatedAt); err != nil {
		return nil, fmt.Errorf("failed to parse generation time: %w", err)
	}

	return &info, nil
}

// GetCustomersByRun returns the scored customers of a run ordered by CustomerID.
func (s *SQLiteStorage) GetCustomersByRun(ctx context.Context, runID string) ([]model.ScoredCustomer, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(runID, "runID"); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT customer_id, recency, frequency, monetary,
			recency_score, frequency_score, monetary_score, rf_score, segment
		FROM customers
		WHERE run_id = ?
		ORDER BY customer_id`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query customers: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var customers []model.ScoredCustomer
	for rows.Next() {
		var (
			c       model.ScoredCustomer
			segment string
		)
		if err := rows.Scan(&c.CustomerID, &c.Recency, &c.Frequency, &c.Monetary,
			&c.RecencyScore, &c.FrequencyScore, &c.MonetaryScore, &c.RFScore, &segment); err != nil {
			return nil, fmt.Errorf("failed to scan customer: %w", err)
		}
		c.Segment = model.Segment(segment)
		customers = append(customers, c)
	}

	return customers, rows.Err()
}

// CountBySegment returns how many customers of a run fell into each segment.
func (s *SQLiteStorage) CountBySegment(ctx context.Context, runID string) (map[model.Segment]int, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(runID, "runID"); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT segment, COUNT(*)
		FROM customers
		WHERE run_id = ?
		GROUP BY segment`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to count segments: %w", err)
	}
	defer func() { _ = rows.Close() }()

	counts := make(map[model.Segment]int)
	for rows.Next() {
		var (
			segment string
			count   int
		)
		if err := rows.Scan(&segment, &count); err != nil {
			return nil, fmt.Errorf("failed to scan segment count: %w", err)
		}
		counts[model.Segment(segment)] = count
	}

	return counts, rows.Err()
}

// GetSummaries returns the stored segment summaries of a run in segment order.
func (s *SQLiteStorage) GetSummaries(ctx context.Context, runID string) ([]model.SegmentSummary, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(runID, "runID"); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT segment, customers, share, mean_recency, mean_frequency, mean_monetary, total_monetary
		FROM segment_summaries
		WHERE run_id = ?
		ORDER BY position`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query summaries: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var summaries []model.SegmentSummary
	for rows.Next() {
		var (
			sum     model.SegmentSummary
			segment string
		)
		if err := rows.Scan(&segment, &sum.Customers, &sum.Share,
			&sum.MeanRecency, &sum.MeanFrequency, &sum.MeanMonetary, &sum.TotalMonetary); err != nil {
			return nil, fmt.Errorf("failed to scan summary: %w", err)
		}
		sum.Segment = model.Segment(segment)
		summaries = append(summaries, sum)
	}

	return summaries, rows.Err()
}
