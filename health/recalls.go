package health

import (
	"context"
	"time"

	"github.com/richinex/healthradar/storage"
	"github.com/richinex/healthradar/tools"
)

// RecallRowCap bounds query_fda_enforcements results.
const RecallRowCap = 50

// Text limits applied to recall rows before they reach the model.
const (
	maxProductLen = 100
	maxReasonLen  = 200
)

const recallSQL = `
	SELECT
		CAST(report_date AS TEXT) AS report_date,
		classification,
		product_description,
		reason_for_recall
	FROM fda_enforcement_daily_rollups
	WHERE report_date >= $1
	ORDER BY report_date DESC
	LIMIT $2`

// Enforcement is one FDA drug enforcement report.
type Enforcement struct {
	Date           string  `json:"date"`
	Classification *string `json:"classification"`
	Product        *string `json:"product"`
	Reason         *string `json:"reason"`
}

// NewFDAEnforcements builds query_fda_enforcements.
func NewFDAEnforcements(deps Deps) *Operation[DaysArgs, Enforcement] {
	return &Operation[DaysArgs, Enforcement]{
		meta: tools.ToolMetadata{
			Name: "query_fda_enforcements",
			Description: "Query FDA drug enforcement and recall data. " +
				"Input should be 'days' (optional, default 30).",
			Parameters: []tools.ToolParameter{
				{Name: "days", ParamType: "integer", Description: "days to look back, 1-365 (default 30)", Required: false},
			},
		},
		source: SourceFDAEnforcements,
		rowCap: RecallRowCap,
		parse:  ParseDaysArgs,
		query:  queryEnforcements,
		deps:   deps.withDefaults(),
	}
}

func queryEnforcements(ctx context.Context, conn storage.Conn, args DaysArgs, now time.Time) ([]Enforcement, error) {
	rows, err := conn.Query(ctx, recallSQL, cutoff(now, args.Days), RecallRowCap)
	if err != nil {
		return nil, err
	}
	return collect(rows, func(r storage.Rows) (Enforcement, error) {
		var e Enforcement
		if err := r.Scan(&e.Date, &e.Classification, &e.Product, &e.Reason); err != nil {
			return e, err
		}
		if e.Product != nil {
			p := truncate(*e.Product, maxProductLen)
			e.Product = &p
		}
		if e.Reason != nil {
			s := truncate(*e.Reason, maxReasonLen)
			e.Reason = &s
		}
		return e, nil
	})
}
