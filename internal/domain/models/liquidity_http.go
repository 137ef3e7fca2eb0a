package models

// Requests for liquidity HTTP endpoints. Defined in domain for consistency and reuse.

type LiquidityRequest struct {
	LookbackYears int    `query:"lookback_years" json:"lookback_years" default:"8" validate:"gte=3,lte=15"`
	ShiftMonths   int    `query:"m2_shift_months" json:"m2_shift_months" validate:"gte=-24,lte=24"`
	LogScale      bool   `query:"log_scale" json:"log_scale"` // rendering-only
	Lines         string `query:"lines" json:"lines"`         // rendering-only
}

// Params converts the request into engine parameters.
func (r *LiquidityRequest) Params() Params {
	return Params{LookbackYears: r.LookbackYears, ShiftMonths: r.ShiftMonths}
}
