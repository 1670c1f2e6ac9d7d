package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// AirQualityReading is one hourly OpenAQ measurement.
type AirQualityReading struct {
	LocationID string
	ZipCode    string
	Date       string // YYYY-MM-DD
	Hour       int
	PM25       *float64
	O3         *float64
}

// HospitalReport is one hospital's daily capacity snapshot.
type HospitalReport struct {
	HospitalPK    string
	State         string
	ZipCode       string
	Date          string
	TotalBeds     int
	OccupiedBeds  int
	ICUBeds       int
	ICUOccupied   int
	CovidPatients int
}

// FluWeek is one FluView epiweek for a region.
type FluWeek struct {
	RegionCode   string
	Year         int
	WeekNumber   int
	EpiweekStart string
	EpiweekEnd   string
	WILI         *float64
	ILI          *float64
	NumProviders int
	NumPatients  int
	NumILI       int
}

// Recall is one openFDA enforcement report.
type Recall struct {
	RecallNumber       string
	ReportDate         string
	Classification     string
	ProductDescription string
	ReasonForRecall    string
	Status             string
	State              string
	Country            string
}

// SeedData groups rows to load with Seed.
type SeedData struct {
	AirQuality []AirQualityReading
	Hospitals  []HospitalReport
	Flu        []FluWeek
	Recalls    []Recall
}

// Seed inserts rows in a single transaction. Existing rows with the same
// natural key are replaced, so Seed is safe to re-run.
func Seed(ctx context.Context, db *sql.DB, data SeedData) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	// defer tx.Rollback() is safe even after Commit() - it becomes a no-op
	defer func() { _ = tx.Rollback() }()

	for _, r := range data.AirQuality {
		_, err := tx.ExecContext(ctx, `INSERT OR REPLACE INTO openaq_hourly_rollups
			(location_id, zip_code, measurement_date, measurement_hour, pm25_value, pm25_unit, o3_value, o3_unit)
			VALUES (?, ?, ?, ?, ?, 'µg/m³', ?, 'ppm')`,
			r.LocationID, r.ZipCode, r.Date, r.Hour, r.PM25, r.O3)
		if err != nil {
			return fmt.Errorf("failed to insert air quality reading: %w", err)
		}
	}

	for _, h := range data.Hospitals {
		_, err := tx.ExecContext(ctx, `INSERT OR REPLACE INTO hospital_capacity_daily_rollups
			(hospital_pk, state, zip_code, collection_date, total_beds, occupied_beds, icu_beds, icu_occupied, covid_patients)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			h.HospitalPK, h.State, h.ZipCode, h.Date, h.TotalBeds, h.OccupiedBeds, h.ICUBeds, h.ICUOccupied, h.CovidPatients)
		if err != nil {
			return fmt.Errorf("failed to insert hospital report: %w", err)
		}
	}

	for _, f := range data.Flu {
		_, err := tx.ExecContext(ctx, `INSERT OR REPLACE INTO fluview_weekly_rollups
			(region_code, year, week_number, epiweek_start, epiweek_end, wili, ili, num_providers, num_patients, num_ili)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			f.RegionCode, f.Year, f.WeekNumber, f.EpiweekStart, f.EpiweekEnd, f.WILI, f.ILI, f.NumProviders, f.NumPatients, f.NumILI)
		if err != nil {
			return fmt.Errorf("failed to insert flu week: %w", err)
		}
	}

	for _, r := range data.Recalls {
		_, err := tx.ExecContext(ctx, `INSERT OR REPLACE INTO fda_enforcement_daily_rollups
			(recall_number, report_date, classification, product_description, reason_for_recall, status, state, country)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			r.RecallNumber, r.ReportDate, r.Classification, r.ProductDescription, r.ReasonForRecall, r.Status, r.State, r.Country)
		if err != nil {
			return fmt.Errorf("failed to insert recall: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// DemoData builds a small, plausible data set ending at the given day.
// Used by `healthradar init-db --demo` and by tests.
func DemoData(end time.Time) SeedData {
	var data SeedData
	day := func(offset int) string {
		return end.AddDate(0, 0, -offset).Format("2006-01-02")
	}
	f := func(v float64) *float64 { return &v }

	for i := 0; i < 14; i++ {
		for _, hour := range []int{6, 18} {
			data.AirQuality = append(data.AirQuality, AirQualityReading{
				LocationID: "openaq-2178",
				ZipCode:    "90210",
				Date:       day(i),
				Hour:       hour,
				PM25:       f(8.0 + float64(i%5) + float64(hour)/10),
				O3:         f(0.030 + float64(i%3)/1000),
			})
		}
		data.Hospitals = append(data.Hospitals, HospitalReport{
			HospitalPK:    "050625",
			State:         "CA",
			ZipCode:       "90210",
			Date:          day(i),
			TotalBeds:     420,
			OccupiedBeds:  300 + i*3,
			ICUBeds:       48,
			ICUOccupied:   30 + i%6,
			CovidPatients: 12 + i%4,
		})
	}

	for w := 0; w < 16; w++ {
		start := end.AddDate(0, 0, -7*w)
		year, week := start.ISOWeek()
		data.Flu = append(data.Flu, FluWeek{
			RegionCode:   "nat",
			Year:         year,
			WeekNumber:   week,
			EpiweekStart: start.Format("2006-01-02"),
			EpiweekEnd:   start.AddDate(0, 0, 6).Format("2006-01-02"),
			WILI:         f(2.1 + float64(16-w)/10),
			ILI:          f(1.9 + float64(16-w)/10),
			NumProviders: 3100,
			NumPatients:  1_450_000 + w*1000,
			NumILI:       30_000 + w*250,
		})
	}

	data.Recalls = []Recall{
		{RecallNumber: "D-0412-2025", ReportDate: day(2), Classification: "Class II", ProductDescription: "Metformin HCl extended-release tablets, 500 mg", ReasonForRecall: "CGMP deviations: NDMA above acceptable intake limit", Status: "Ongoing", State: "NJ", Country: "United States"},
		{RecallNumber: "D-0398-2025", ReportDate: day(9), Classification: "Class I", ProductDescription: "Heparin sodium injection, 1,000 units/mL", ReasonForRecall: "Lack of assurance of sterility", Status: "Ongoing", State: "IL", Country: "United States"},
		{RecallNumber: "D-0377-2025", ReportDate: day(20), Classification: "Class III", ProductDescription: "Ibuprofen oral suspension, 100 mg/5 mL", ReasonForRecall: "Failed dissolution specifications", Status: "Completed", State: "OH", Country: "United States"},
	}

	return data
}
