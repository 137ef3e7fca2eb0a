package models

import "fmt"

// Metric is the composite a component contributes to.
type Metric string

const (
	MetricM2     Metric = "m2"
	MetricAssets Metric = "assets"
)

// FXOp is how a component is converted to USD with its FX series.
type FXOp string

const (
	FXNone     FXOp = "none"
	FXMultiply FXOp = "multiply" // fx quoted as USD per local unit
	FXDivide   FXOp = "divide"   // fx quoted as local units per USD
)

// ResampleMethod selects how a raw series is collapsed onto the grid.
type ResampleMethod string

const (
	ResampleAuto ResampleMethod = "auto"
	ResampleMean ResampleMethod = "mean"
	ResampleLast ResampleMethod = "last"
)

// Scale is a rational factor Num/Den applied to native values.
type Scale struct {
	Num float64 `yaml:"num" json:"num"`
	Den float64 `yaml:"den" json:"den"`
}

// Per returns the scale 1/den.
func Per(den float64) Scale { return Scale{Num: 1, Den: den} }

// Apply multiplies v by the scale.
func (s Scale) Apply(v float64) float64 { return v * s.Num / s.Den }

// Component is one regional contribution to a composite metric.
type Component struct {
	ID       string         `yaml:"id" json:"id"`
	Name     string         `yaml:"name" json:"name"`
	Metric   Metric         `yaml:"metric" json:"metric"`
	Unit     string         `yaml:"unit" json:"unit"`
	Scale    Scale          `yaml:"scale" json:"scale"`
	FX       string         `yaml:"fx" json:"fx,omitempty"`
	FXOp     FXOp           `yaml:"fx_op" json:"fx_op"`
	Resample ResampleMethod `yaml:"resample" json:"resample"`
}

// Validate checks the component is internally consistent.
func (c Component) Validate() error {
	if c.ID == "" {
		return fmt.Errorf("component id is required")
	}
	if c.Metric != MetricM2 && c.Metric != MetricAssets {
		return fmt.Errorf("component %s: metric must be 'm2' or 'assets', got '%s'", c.ID, c.Metric)
	}
	if c.Scale.Den == 0 || c.Scale.Num == 0 {
		return fmt.Errorf("component %s: scale must be non-zero", c.ID)
	}
	switch c.FXOp {
	case FXNone, "":
		if c.FX != "" {
			return fmt.Errorf("component %s: fx %s given without fx_op", c.ID, c.FX)
		}
	case FXMultiply, FXDivide:
		if c.FX == "" {
			return fmt.Errorf("component %s: fx_op %s requires an fx ticker", c.ID, c.FXOp)
		}
	default:
		return fmt.Errorf("component %s: unknown fx_op '%s'", c.ID, c.FXOp)
	}
	switch c.Resample {
	case ResampleAuto, ResampleMean, ResampleLast, "":
	default:
		return fmt.Errorf("component %s: unknown resample '%s'", c.ID, c.Resample)
	}
	return nil
}
