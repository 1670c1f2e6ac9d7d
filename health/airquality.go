package health

import (
	"context"
	"time"

	"github.com/richinex/healthradar/storage"
	"github.com/richinex/healthradar/tools"
)

// AirQualityRowCap bounds query_air_quality results.
const AirQualityRowCap = 30

const airQualitySQL = `
	SELECT
		CAST(measurement_date AS TEXT) AS measurement_date,
		CAST(AVG(pm25_value) AS DOUBLE PRECISION) AS avg_pm25,
		CAST(AVG(o3_value) AS DOUBLE PRECISION) AS avg_o3,
		CAST(MAX(pm25_value) AS DOUBLE PRECISION) AS max_pm25,
		CAST(MAX(o3_value) AS DOUBLE PRECISION) AS max_o3
	FROM openaq_hourly_rollups
	WHERE zip_code = $1
	AND measurement_date >= $2
	GROUP BY measurement_date
	ORDER BY measurement_date DESC
	LIMIT $3`

// AirQualityDay is one day of PM2.5 and ozone readings for a ZIP code.
type AirQualityDay struct {
	Date    string   `json:"date"`
	AvgPM25 *float64 `json:"avg_pm25"`
	AvgO3   *float64 `json:"avg_o3"`
	MaxPM25 *float64 `json:"max_pm25"`
	MaxO3   *float64 `json:"max_o3"`
}

// NewAirQuality builds query_air_quality.
func NewAirQuality(deps Deps) *Operation[ZipArgs, AirQualityDay] {
	return &Operation[ZipArgs, AirQualityDay]{
		meta: tools.ToolMetadata{
			Name: "query_air_quality",
			Description: "Query daily air quality (PM2.5 and O3) for a specific ZIP code. " +
				"Input should be 'zip_code,days' where days is optional (default 30).",
			Parameters: zipParameters(),
		},
		source: SourceAirQuality,
		rowCap: AirQualityRowCap,
		parse:  ParseZipArgs,
		query:  queryAirQuality,
		deps:   deps.withDefaults(),
	}
}

func queryAirQuality(ctx context.Context, conn storage.Conn, args ZipArgs, now time.Time) ([]AirQualityDay, error) {
	rows, err := conn.Query(ctx, airQualitySQL, args.ZipCode, cutoff(now, args.Days), AirQualityRowCap)
	if err != nil {
		return nil, err
	}
	return collect(rows, func(r storage.Rows) (AirQualityDay, error) {
		var d AirQualityDay
		err := r.Scan(&d.Date, &d.AvgPM25, &d.AvgO3, &d.MaxPM25, &d.MaxO3)
		return d, err
	})
}

func zipParameters() []tools.ToolParameter {
	return []tools.ToolParameter{
		{Name: "zip_code", ParamType: "string", Description: "5-digit US ZIP code", Required: true},
		{Name: "days", ParamType: "integer", Description: "days to look back, 1-365 (default 30)", Required: false},
	}
}
