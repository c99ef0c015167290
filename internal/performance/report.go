package performance

import (
	"github.com/shopspring/decimal"

	"github.com/victornm/quickcraft/internal/domain"
)

const recentCount = 5

// BuildReport folds a user's records, newest first, into the dashboard
// view: total taken, overall average rounded to the nearest integer, and
// the five most recent records.
func BuildReport(records []domain.PerformanceRecord) *domain.PerformanceReport {
	r := &domain.PerformanceReport{
		TotalQuizzesTaken: len(records),
		Recent:            []domain.PerformanceRecord{},
		All:               records,
	}

	if len(records) == 0 {
		r.All = []domain.PerformanceRecord{}
		return r
	}

	sum := decimal.Zero
	for _, rec := range records {
		sum = sum.Add(decimal.NewFromInt(int64(rec.Score)))
	}
	avg := sum.Div(decimal.NewFromInt(int64(len(records))))
	r.OverallAverage = int(avg.Round(0).IntPart())

	n := recentCount
	if len(records) < n {
		n = len(records)
	}
	r.Recent = records[:n]

	return r
}
