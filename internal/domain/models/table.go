package models

import "time"

// Column names of a ResultTable.
const (
	ColGlobalM2     = "global_m2"
	ColGlobalAssets = "global_assets"
	ColPrice        = "price"
	ColRatio        = "ratio"
)

// Columns lists the table columns in display order.
var Columns = []string{ColGlobalM2, ColGlobalAssets, ColPrice, ColRatio}

// Params are the invocation parameters that key the result cache.
type Params struct {
	LookbackYears int
	ShiftMonths   int
}

// Validate checks the parameter bounds accepted by the engine.
func (p Params) Validate() error {
	if p.LookbackYears < 3 || p.LookbackYears > 15 {
		return ErrInvalidParams
	}
	if p.ShiftMonths < -24 || p.ShiftMonths > 24 {
		return ErrInvalidParams
	}
	return nil
}

// Row is one month of the result. Undefined values stay explicit gaps.
type Row struct {
	Date         time.Time `json:"date"`
	GlobalM2     Value     `json:"global_m2"`     // USD trillions
	GlobalAssets Value     `json:"global_assets"` // USD trillions
	Price        Value     `json:"price"`         // USD
	Ratio        Value     `json:"ratio"`
}

// Get returns the named column value.
func (r Row) Get(col string) Value {
	switch col {
	case ColGlobalM2:
		return r.GlobalM2
	case ColGlobalAssets:
		return r.GlobalAssets
	case ColPrice:
		return r.Price
	case ColRatio:
		return r.Ratio
	default:
		return None()
	}
}

// ResultTable is the aligned multi-series output consumed read-only by renderers.
type ResultTable struct {
	RunID         string            `json:"run_id"`
	LookbackYears int               `json:"lookback_years"`
	ShiftMonths   int               `json:"shift_months"`
	Divisor       float64           `json:"divisor"`
	ComputedAt    time.Time         `json:"computed_at"`
	Rows          []Row             `json:"rows"`
	Failures      map[string]string `json:"failures,omitempty"` // component id -> cause
	Warnings      []string          `json:"warnings,omitempty"`
}
