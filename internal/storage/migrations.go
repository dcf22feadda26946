package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// ExpectedSchemaVersion is the latest schema version that the application expects.
// If the database cannot be migrated to this version, it's a fatal error.
const ExpectedSchemaVersion = 2

// Migration represents a database schema migration.
type Migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Runs and scored customers",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS runs (
					id TEXT PRIMARY KEY,
					source_file TEXT NOT NULL DEFAULT '',
					reference_date TEXT NOT NULL,
					generated_at TEXT NOT NULL,
					raw_rows INTEGER NOT NULL,
					clean_rows INTEGER NOT NULL,
					dropped_null INTEGER NOT NULL,
					dropped_cancelled INTEGER NOT NULL,
					quantity_low REAL NOT NULL,
					quantity_high REAL NOT NULL,
					unit_price_low REAL NOT NULL,
					unit_price_high REAL NOT NULL,
					customer_count INTEGER NOT NULL,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,

				`CREATE TABLE IF NOT EXISTS customers (
					run_id TEXT NOT NULL,
					customer_id INTEGER NOT NULL,
					recency INTEGER NOT NULL,
					frequency INTEGER NOT NULL,
					monetary REAL NOT NULL CHECK (monetary > 0),
					recency_score INTEGER NOT NULL CHECK (recency_score BETWEEN 1 AND 5),
					frequency_score INTEGER NOT NULL CHECK (frequency_score BETWEEN 1 AND 5),
					monetary_score INTEGER NOT NULL CHECK (monetary_score BETWEEN 1 AND 5),
					rf_score TEXT NOT NULL,
					segment TEXT NOT NULL,
					PRIMARY KEY (run_id, customer_id),
					FOREIGN KEY (run_id) REFERENCES runs(id) ON DELETE CASCADE
				)`,
				`CREATE INDEX IF NOT EXISTS idx_customers_segment ON customers(run_id, segment)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query: %w", err)
				}
			}
			return nil
		},
	},
	{
		Version:     2,
		Description: "Segment summaries",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`CREATE TABLE IF NOT EXISTS segment_summaries (
				run_id TEXT NOT NULL,
				segment TEXT NOT NULL,
				position INTEGER NOT NULL,
				customers INTEGER NOT NULL,
				share REAL NOT NULL,
				mean_recency REAL NOT NULL,
				mean_frequency REAL NOT NULL,
				mean_monetary REAL NOT NULL,
				total_monetary REAL NOT NULL,
				PRIMARY KEY (run_id, segment),
				FOREIGN KEY (run_id) REFERENCES runs(id) ON DELETE CASCADE
			)`)
			if err != nil {
				return fmt.Errorf("failed to create segment_summaries: %w", err)
			}
			return nil
		},
	},
}

// Migrate applies all pending database migrations.
func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	var currentVersion int
	err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&currentVersion)
	if err != nil {
		return fmt.Errorf("failed to get schema version: %w", err)
	}

	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		tx, txErr := s.db.BeginTx(ctx, nil)
		if txErr != nil {
			return fmt.Errorf("failed to begin transaction: %w", txErr)
		}

		if upErr := migration.Up(tx); upErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", migration.Version, upErr)
		}

		if _, execErr := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", migration.Version)); execErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to update schema version: %w", execErr)
		}

		if commitErr := tx.Commit(); commitErr != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, commitErr)
		}

		slog.Debug("Applied migration",
			"version", migration.Version,
			"description", migration.Description)
	}

	var finalVersion int
	err = s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&finalVersion)
	if err != nil {
		return fmt.Errorf("failed to verify final schema version: %w", err)
	}

	if finalVersion != ExpectedSchemaVersion {
		return fmt.Errorf("database schema version mismatch: expected %d, got %d", ExpectedSchemaVersion, finalVersion)
	}

	return nil
}
