package config

import (
	"fmt"
	"strings"

	"GlobalLiquidity/internal/domain/models"
)

// DefaultComponents is the built-in regional table. Every composite is
// expressed in USD trillions.
func DefaultComponents() []models.Component {
	return []models.Component{
		{ID: "M2SL", Name: "US M2", Metric: models.MetricM2, Unit: "billions USD",
			Scale: models.Per(1e3), FXOp: models.FXNone, Resample: models.ResampleAuto},
		{ID: "MANMM101EZM189S", Name: "Euro area M2", Metric: models.MetricM2, Unit: "millions EUR",
			Scale: models.Per(1e6), FX: "EURUSD=X", FXOp: models.FXMultiply, Resample: models.ResampleAuto},
		{ID: "MANMM101JPM189S", Name: "Japan M2", Metric: models.MetricM2, Unit: "millions JPY",
			Scale: models.Per(1e6), FX: "JPY=X", FXOp: models.FXDivide, Resample: models.ResampleAuto},
		{ID: "MANMM101CNM189S", Name: "China M2", Metric: models.MetricM2, Unit: "millions CNY",
			Scale: models.Per(1e6), FX: "CNY=X", FXOp: models.FXDivide, Resample: models.ResampleAuto},
		{ID: "WALCL", Name: "Fed total assets", Metric: models.MetricAssets, Unit: "millions USD",
			Scale: models.Per(1e6), FXOp: models.FXNone, Resample: models.ResampleAuto},
		{ID: "ECBASSETSW", Name: "ECB total assets", Metric: models.MetricAssets, Unit: "millions EUR",
			Scale: models.Per(1e6), FX: "EURUSD=X", FXOp: models.FXMultiply, Resample: models.ResampleAuto},
		{ID: "JPNASSETS", Name: "BoJ total assets", Metric: models.MetricAssets, Unit: "100 millions JPY",
			Scale: models.Per(1e4), FX: "JPY=X", FXOp: models.FXDivide, Resample: models.ResampleAuto},
	}
}

// ValidateComponents checks each component and that its FX operation
// matches how the FX ticker is quoted: XXXUSD=X is USD per local unit and
// must multiply, XXX=X is local units per USD and must divide.
func ValidateComponents(cs []models.Component) error {
	if len(cs) == 0 {
		return fmt.Errorf("engine.components cannot be empty")
	}
	seen := make(map[string]bool, len(cs))
	var m2, assets int
	for _, c := range cs {
		if err := c.Validate(); err != nil {
			return err
		}
		if seen[c.ID] {
			return fmt.Errorf("component %s listed twice", c.ID)
		}
		seen[c.ID] = true

		switch c.Metric {
		case models.MetricM2:
			m2++
		case models.MetricAssets:
			assets++
		}

		switch c.FXOp {
		case models.FXMultiply:
			if !QuotedInUSD(c.FX) {
				return fmt.Errorf("component %s: fx %s is not quoted as USD per unit; use fx_op 'divide'", c.ID, c.FX)
			}
		case models.FXDivide:
			if QuotedInUSD(c.FX) {
				return fmt.Errorf("component %s: fx %s is quoted as USD per unit; use fx_op 'multiply'", c.ID, c.FX)
			}
		}
	}
	if m2 == 0 || assets == 0 {
		return fmt.Errorf("engine.components needs at least one 'm2' and one 'assets' component")
	}
	return nil
}

// QuotedInUSD reports whether an FX ticker is quoted as USD per local unit
// (EURUSD=X) rather than local units per USD (JPY=X).
func QuotedInUSD(ticker string) bool {
	pair := strings.TrimSuffix(strings.ToUpper(ticker), "=X")
	return len(pair) == 6 && strings.HasSuffix(pair, "USD")
}
