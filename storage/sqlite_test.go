package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestSqliteSchemaAndSeed(t *testing.T) {
	store, err := NewSqliteInMemory()
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	end := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	if err := Seed(ctx, store.DB(), DemoData(end)); err != nil {
		t.Fatalf("Seed failed: %v", err)
	}
	// Re-seeding replaces rows instead of duplicating them.
	if err := Seed(ctx, store.DB(), DemoData(end)); err != nil {
		t.Fatalf("second Seed failed: %v", err)
	}

	counts := map[string]int{
		"openaq_hourly_rollups":           28,
		"hospital_capacity_daily_rollups": 14,
		"fluview_weekly_rollups":          16,
		"fda_enforcement_daily_rollups":   3,
	}
	for table, want := range counts {
		var got int
		if err := store.DB().QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&got); err != nil {
			t.Fatalf("count %s: %v", table, err)
		}
		if got != want {
			t.Errorf("%s has %d rows, want %d", table, got, want)
		}
	}
}

func TestSqliteConnectSharesMemoryDatabase(t *testing.T) {
	store, err := NewSqliteInMemory()
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	if err := Seed(ctx, store.DB(), DemoData(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))); err != nil {
		t.Fatalf("Seed failed: %v", err)
	}

	for i := 0; i < 3; i++ {
		conn, err := store.Connect(ctx)
		if err != nil {
			t.Fatalf("Connect failed: %v", err)
		}

		rows, err := conn.Query(ctx, "SELECT recall_number FROM fda_enforcement_daily_rollups WHERE report_date >= $1 ORDER BY report_date DESC", "2025-05-20")
		if err != nil {
			t.Fatalf("Query failed: %v", err)
		}
		var got []string
		for rows.Next() {
			var n string
			if err := rows.Scan(&n); err != nil {
				t.Fatalf("Scan failed: %v", err)
			}
			got = append(got, n)
		}
		if err := rows.Close(); err != nil {
			t.Fatalf("rows.Close failed: %v", err)
		}
		if err := conn.Close(); err != nil {
			t.Fatalf("conn.Close failed: %v", err)
		}

		if len(got) != 2 || got[0] != "D-0412-2025" || got[1] != "D-0398-2025" {
			t.Errorf("iteration %d: got %v", i, got)
		}
	}
}

func TestSqliteCreatesDirectory(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "health.db")

	store, err := OpenSqlite(path)
	if err != nil {
		t.Fatalf("OpenSqlite failed: %v", err)
	}
	defer store.Close()

	if _, err := os.Stat(path); err != nil {
		t.Errorf("expected database file at %s: %v", path, err)
	}
	if err := store.Ping(context.Background()); err != nil {
		t.Errorf("Ping failed: %v", err)
	}
}

func TestConnectAfterCloseWrapsErrConnect(t *testing.T) {
	store, err := NewSqliteInMemory()
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}
	store.Close()

	_, err = store.Connect(context.Background())
	if err == nil {
		t.Fatal("expected error after Close")
	}
	if !errors.Is(err, ErrConnect) {
		t.Errorf("expected ErrConnect, got %v", err)
	}
}

func TestOpenUnknownDriver(t *testing.T) {
	if _, _, err := Open("oracle", "system/x@oracle:1521/HEALTHSIGNAL"); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}
