// SQLite store for local development and tests.
//
// Information Hiding:
// - Schema creation encapsulated
// - Single-connection handle so ":memory:" databases survive Connect/Close cycles

package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

// OpenSqlite opens or creates a SQLite database at the given path and ensures
// the surveillance schema exists. Creates parent directories if needed.
func OpenSqlite(path string) (*SQLConnector, error) {
	if path != ":memory:" {
		dir := filepath.Dir(path)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}
	// One connection: every Connect shares the same database, including :memory:.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := CreateSchema(context.Background(), db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return NewSQLConnector(db), nil
}

// NewSqliteInMemory creates an in-memory database (useful for testing).
func NewSqliteInMemory() (*SQLConnector, error) {
	return OpenSqlite(":memory:")
}

// CreateSchema creates the rollup tables populated by the ingestion side.
// Column names match the upstream tables so the same queries run on PostgreSQL.
func CreateSchema(ctx context.Context, db *sql.DB) error {
	schema := `
		CREATE TABLE IF NOT EXISTS openaq_hourly_rollups (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			location_id TEXT NOT NULL,
			zip_code TEXT,
			latitude REAL,
			longitude REAL,
			measurement_date TEXT NOT NULL,
			measurement_hour INTEGER NOT NULL,
			pm25_value REAL,
			pm25_unit TEXT,
			o3_value REAL,
			o3_unit TEXT,
			UNIQUE(location_id, measurement_date, measurement_hour)
		);

		CREATE INDEX IF NOT EXISTS idx_openaq_zip_date
		ON openaq_hourly_rollups(zip_code, measurement_date);

		CREATE TABLE IF NOT EXISTS hospital_capacity_daily_rollups (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			hospital_pk TEXT NOT NULL,
			state TEXT,
			zip_code TEXT,
			collection_date TEXT NOT NULL,
			total_beds INTEGER,
			occupied_beds INTEGER,
			icu_beds INTEGER,
			icu_occupied INTEGER,
			covid_patients INTEGER,
			UNIQUE(hospital_pk, collection_date)
		);

		CREATE INDEX IF NOT EXISTS idx_hospital_zip_date
		ON hospital_capacity_daily_rollups(zip_code, collection_date);

		CREATE TABLE IF NOT EXISTS fluview_weekly_rollups (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			region_code TEXT NOT NULL,
			year INTEGER NOT NULL,
			week_number INTEGER NOT NULL,
			epiweek_start TEXT NOT NULL,
			epiweek_end TEXT NOT NULL,
			wili REAL,
			ili REAL,
			num_providers INTEGER,
			num_patients INTEGER,
			num_ili INTEGER,
			UNIQUE(region_code, year, week_number)
		);

		CREATE TABLE IF NOT EXISTS fda_enforcement_daily_rollups (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			recall_number TEXT NOT NULL UNIQUE,
			report_date TEXT NOT NULL,
			classification TEXT,
			product_description TEXT,
			reason_for_recall TEXT,
			status TEXT,
			state TEXT,
			country TEXT
		);

		CREATE INDEX IF NOT EXISTS idx_fda_report_date
		ON fda_enforcement_daily_rollups(report_date);
	`

	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}
