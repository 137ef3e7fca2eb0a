package series

import (
	"fmt"

	"GlobalLiquidity/internal/domain/models"
)

// Shift moves values by months grid steps: positive into the future,
// negative into the past. Points shifted in from outside the grid are
// undefined.
func Shift(s models.Series, months int) models.Series {
	out := models.Undefined(len(s))
	for i := range out {
		j := i - months
		if j >= 0 && j < len(s) {
			out[i] = s[j]
		}
	}
	return out
}

// Ratio computes (a / b) / divisor where both inputs are defined and b is
// non-zero, and carries the last computed ratio across the other points.
func Ratio(a, b models.Series, divisor float64) (models.Series, error) {
	if divisor == 0 {
		return nil, fmt.Errorf("ratio: divisor must be non-zero")
	}
	if len(a) != len(b) {
		return nil, fmt.Errorf("ratio: length %d does not match %d", len(a), len(b))
	}

	out := models.Undefined(len(a))
	last := models.None()
	for i := range a {
		if a[i].OK && b[i].OK && b[i].V != 0 {
			last = models.Some(a[i].V / b[i].V / divisor)
		}
		out[i] = last
	}
	return out, nil
}
