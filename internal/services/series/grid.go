// Package series holds the pure transforms of the liquidity engine: grid
// construction, alignment, normalization, aggregation and derived metrics.
// Nothing here performs I/O; every function returns a new series.
package series

import (
	"fmt"
	"time"

	"GlobalLiquidity/internal/domain/models"
)

// MonthEnd returns the last day of t's month at UTC midnight.
func MonthEnd(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, time.UTC)
}

// BuildGrid returns every month-end date in [now - lookbackYears, now].
// The result only depends on the calendar day of now.
func BuildGrid(lookbackYears int, now time.Time) (models.Grid, error) {
	if lookbackYears <= 0 {
		return nil, fmt.Errorf("grid: lookback years must be positive, got %d", lookbackYears)
	}
	now = now.UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	start := today.AddDate(-lookbackYears, 0, 0)

	grid := make(models.Grid, 0, lookbackYears*12+1)
	for m := MonthEnd(start); !m.After(today); m = MonthEnd(m.AddDate(0, 0, 1)) {
		grid = append(grid, m)
	}
	return grid, nil
}

// Start returns the first instant covered by the grid's first period.
func Start(grid models.Grid) time.Time {
	if len(grid) == 0 {
		return time.Time{}
	}
	first := grid[0]
	return time.Date(first.Year(), first.Month(), 1, 0, 0, 0, 0, time.UTC)
}
