package health

import (
	"context"
	"time"

	"github.com/richinex/healthradar/storage"
	"github.com/richinex/healthradar/tools"
)

// FluRowCap bounds query_flu_data results.
const FluRowCap = 12

// NationalRegion is the FluView region code for national aggregates.
const NationalRegion = "nat"

const fluSQL = `
	SELECT
		CAST(epiweek_start AS TEXT) AS epiweek_start,
		wili,
		ili,
		num_patients
	FROM fluview_weekly_rollups
	WHERE region_code = $1
	AND epiweek_start >= $2
	ORDER BY epiweek_start DESC
	LIMIT $3`

// FluWeek is one national influenza-like-illness surveillance week.
type FluWeek struct {
	Week        string   `json:"week"`
	WILI        *float64 `json:"wili"`
	ILI         *float64 `json:"ili"`
	NumPatients int64    `json:"num_patients"`
}

// NewFlu builds query_flu_data.
func NewFlu(deps Deps) *Operation[WeeksArgs, FluWeek] {
	return &Operation[WeeksArgs, FluWeek]{
		meta: tools.ToolMetadata{
			Name: "query_flu_data",
			Description: "Query national flu/influenza data (ILI, WILI). " +
				"Input should be 'weeks' (optional, default 12).",
			Parameters: []tools.ToolParameter{
				{Name: "weeks", ParamType: "integer", Description: "weeks to look back, 1-52 (default 12)", Required: false},
			},
		},
		source: SourceFlu,
		rowCap: FluRowCap,
		parse:  ParseWeeksArgs,
		query:  queryFlu,
		deps:   deps.withDefaults(),
	}
}

func queryFlu(ctx context.Context, conn storage.Conn, args WeeksArgs, now time.Time) ([]FluWeek, error) {
	rows, err := conn.Query(ctx, fluSQL, NationalRegion, cutoff(now, args.Weeks*7), FluRowCap)
	if err != nil {
		return nil, err
	}
	return collect(rows, func(r storage.Rows) (FluWeek, error) {
		var (
			w        FluWeek
			patients *int64
		)
		if err := r.Scan(&w.Week, &w.WILI, &w.ILI, &patients); err != nil {
			return w, err
		}
		w.NumPatients = deref(patients)
		return w, nil
	})
}
