package series

import (
	"time"

	"GlobalLiquidity/internal/domain/models"
)

// ser builds a series; nil entries are undefined.
func ser(vs ...interface{}) models.Series {
	out := make(models.Series, len(vs))
	for i, v := range vs {
		switch x := v.(type) {
		case nil:
			out[i] = models.None()
		case int:
			out[i] = models.Some(float64(x))
		case float64:
			out[i] = models.Some(x)
		}
	}
	return out
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func obs(points ...interface{}) models.RawSeries {
	raw := models.RawSeries{ID: "TEST"}
	for i := 0; i+1 < len(points); i += 2 {
		var v float64
		switch x := points[i+1].(type) {
		case int:
			v = float64(x)
		case float64:
			v = x
		}
		raw.Observations = append(raw.Observations, models.Observation{Date: points[i].(time.Time), Value: v})
	}
	return raw
}

func blank(grid models.Grid) models.Series { return models.Undefined(len(grid)) }
