package series

import (
	"fmt"

	"GlobalLiquidity/internal/domain/models"
)

// Aggregate sums components point by point. An undefined component
// contributes zero; the sum is undefined only where every component is.
// When the result is undefined everywhere it is returned together with
// models.ErrAllComponentsMissing.
func Aggregate(components ...models.Series) (models.Series, error) {
	if len(components) == 0 {
		return nil, fmt.Errorf("aggregate: no components")
	}
	n := len(components[0])
	for _, c := range components[1:] {
		if len(c) != n {
			return nil, fmt.Errorf("aggregate: component length %d does not match %d", len(c), n)
		}
	}

	out := models.Undefined(n)
	for i := 0; i < n; i++ {
		sum, seen := 0.0, false
		for _, c := range components {
			if c[i].OK {
				sum += c[i].V
				seen = true
			}
		}
		if seen {
			out[i] = models.Some(sum)
		}
	}
	if out.AllUndefined() {
		return out, models.ErrAllComponentsMissing
	}
	return out, nil
}
