package series

import (
	"sort"
	"time"

	"GlobalLiquidity/internal/domain/models"

	"gonum.org/v1/gonum/stat"
)

// Observations closer than this are treated as finer than the monthly grid.
const subMonthlySpacing = 25 * 24 * time.Hour

// Align projects raw onto grid. Sub-monthly series are first collapsed to
// one arithmetic mean per calendar month; every series is then carried
// forward from its last observation at or before each grid point. Grid
// points before the first observation stay undefined.
func Align(raw models.RawSeries, grid models.Grid, method models.ResampleMethod) models.Series {
	if raw.Empty() || len(grid) == 0 {
		return models.Undefined(len(grid))
	}

	obs := sortedObservations(raw.Observations)
	if method == models.ResampleAuto || method == "" {
		method = DetectMethod(obs)
	}
	if method == models.ResampleMean {
		obs = MonthlyMean(obs)
	}
	return lastAtOrBefore(obs, grid)
}

// DetectMethod picks mean for daily/weekly cadence and last otherwise.
func DetectMethod(obs []models.Observation) models.ResampleMethod {
	if len(obs) < 2 {
		return models.ResampleLast
	}
	gaps := make([]float64, 0, len(obs)-1)
	for i := 1; i < len(obs); i++ {
		gaps = append(gaps, float64(obs[i].Date.Sub(obs[i-1].Date)))
	}
	sort.Float64s(gaps)
	median := stat.Quantile(0.5, stat.Empirical, gaps, nil)
	if time.Duration(median) < subMonthlySpacing {
		return models.ResampleMean
	}
	return models.ResampleLast
}

// MonthlyMean collapses observations into one mean per calendar month,
// dated at the month end.
func MonthlyMean(obs []models.Observation) []models.Observation {
	groups := make(map[time.Time][]float64)
	keys := make([]time.Time, 0)
	for _, o := range obs {
		key := MonthEnd(o.Date.UTC())
		if _, ok := groups[key]; !ok {
			keys = append(keys, key)
		}
		groups[key] = append(groups[key], o.Value)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Before(keys[j]) })

	out := make([]models.Observation, 0, len(keys))
	for _, k := range keys {
		out = append(out, models.Observation{Date: k, Value: stat.Mean(groups[k], nil)})
	}
	return out
}

// lastAtOrBefore assigns each grid point the latest observation dated on or
// before that grid day.
func lastAtOrBefore(obs []models.Observation, grid models.Grid) models.Series {
	out := models.Undefined(len(grid))
	j := 0
	carry := models.None()
	for i, g := range grid {
		cutoff := g.AddDate(0, 0, 1)
		for j < len(obs) && obs[j].Date.Before(cutoff) {
			carry = models.Some(obs[j].Value)
			j++
		}
		out[i] = carry
	}
	return out
}

func sortedObservations(in []models.Observation) []models.Observation {
	obs := make([]models.Observation, len(in))
	copy(obs, in)
	sort.SliceStable(obs, func(i, j int) bool { return obs[i].Date.Before(obs[j].Date) })
	return obs
}
