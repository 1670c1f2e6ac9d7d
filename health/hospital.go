package health

import (
	"context"
	"time"

	"github.com/richinex/healthradar/storage"
	"github.com/richinex/healthradar/tools"
)

// HospitalRowCap bounds query_hospital_capacity results.
const HospitalRowCap = 30

const hospitalSQL = `
	SELECT
		CAST(collection_date AS TEXT) AS collection_date,
		CAST(SUM(total_beds) AS BIGINT) AS total_beds,
		CAST(SUM(occupied_beds) AS BIGINT) AS occupied_beds,
		CAST(SUM(icu_beds) AS BIGINT) AS icu_beds,
		CAST(SUM(covid_patients) AS BIGINT) AS covid_patients
	FROM hospital_capacity_daily_rollups
	WHERE zip_code = $1
	AND collection_date >= $2
	GROUP BY collection_date
	ORDER BY collection_date DESC
	LIMIT $3`

// HospitalDay sums capacity over every hospital reporting in a ZIP code on one day.
type HospitalDay struct {
	Date          string `json:"date"`
	TotalBeds     int64  `json:"total_beds"`
	OccupiedBeds  int64  `json:"occupied_beds"`
	ICUBeds       int64  `json:"icu_beds"`
	CovidPatients int64  `json:"covid_patients"`
}

// NewHospitalCapacity builds query_hospital_capacity.
func NewHospitalCapacity(deps Deps) *Operation[ZipArgs, HospitalDay] {
	return &Operation[ZipArgs, HospitalDay]{
		meta: tools.ToolMetadata{
			Name: "query_hospital_capacity",
			Description: "Query hospital capacity data (beds, ICU, COVID patients) for a specific ZIP code. " +
				"Input should be 'zip_code,days' where days is optional (default 30).",
			Parameters: zipParameters(),
		},
		source: SourceHospitalCapacity,
		rowCap: HospitalRowCap,
		parse:  ParseZipArgs,
		query:  queryHospitalCapacity,
		deps:   deps.withDefaults(),
	}
}

func queryHospitalCapacity(ctx context.Context, conn storage.Conn, args ZipArgs, now time.Time) ([]HospitalDay, error) {
	rows, err := conn.Query(ctx, hospitalSQL, args.ZipCode, cutoff(now, args.Days), HospitalRowCap)
	if err != nil {
		return nil, err
	}
	return collect(rows, func(r storage.Rows) (HospitalDay, error) {
		var d HospitalDay
		var total, occupied, icu, covid *int64
		if err := r.Scan(&d.Date, &total, &occupied, &icu, &covid); err != nil {
			return d, err
		}
		d.TotalBeds = deref(total)
		d.OccupiedBeds = deref(occupied)
		d.ICUBeds = deref(icu)
		d.CovidPatients = deref(covid)
		return d, nil
	})
}
