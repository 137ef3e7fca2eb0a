package series

import (
	"fmt"

	"GlobalLiquidity/internal/domain/models"
)

// Normalize converts an aligned native series into common units. The scale
// is applied first, then the FX conversion. A point is undefined whenever the
// value or its FX rate is undefined; a missing rate never defaults to 1.
func Normalize(aligned models.Series, scale models.Scale, fx models.Series, op models.FXOp) (models.Series, error) {
	if scale.Den == 0 {
		return nil, fmt.Errorf("normalize: zero scale denominator")
	}
	if op == "" {
		op = models.FXNone
	}
	if op != models.FXNone && len(fx) != len(aligned) {
		return nil, fmt.Errorf("normalize: fx length %d does not match series length %d", len(fx), len(aligned))
	}

	out := models.Undefined(len(aligned))
	for i, v := range aligned {
		if !v.OK {
			continue
		}
		x := scale.Apply(v.V)
		switch op {
		case models.FXNone:
		case models.FXMultiply:
			if !fx[i].OK {
				continue
			}
			x *= fx[i].V
		case models.FXDivide:
			if !fx[i].OK || fx[i].V == 0 {
				continue
			}
			x /= fx[i].V
		default:
			return nil, fmt.Errorf("normalize: unknown fx op %q", op)
		}
		out[i] = models.Some(x)
	}
	return out, nil
}
