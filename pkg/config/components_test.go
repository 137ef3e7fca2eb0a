package config

import (
	"testing"

	"GlobalLiquidity/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func componentByID(t *testing.T, id string) models.Component {
	t.Helper()
	for _, c := range DefaultComponents() {
		if c.ID == id {
			return c
		}
	}
	t.Fatalf("component %s not in default table", id)
	return models.Component{}
}

// Each case converts a realistic native reading into USD trillions.
func TestDefaultComponentConversions(t *testing.T) {
	cases := []struct {
		id     string
		native float64
		fx     float64
		want   float64
	}{
		{"M2SL", 21_000, 0, 21},                     // 21,000 bn USD
		{"MANMM101EZM189S", 15_000_000, 1.10, 16.5}, // 15 tn EUR at 1.10 USD/EUR
		{"MANMM101JPM189S", 1_200_000_000, 150, 8},  // 1,200 tn JPY at 150 JPY/USD
		{"MANMM101CNM189S", 290_000_000, 7.25, 40},  // 290 tn CNY at 7.25 CNY/USD
		{"WALCL", 7_000_000, 0, 7},
		{"ECBASSETSW", 6_500_000, 1.10, 7.15},
		{"JPNASSETS", 7_500_000, 150, 5}, // 750 tn JPY in 100m units
	}
	for _, tc := range cases {
		t.Run(tc.id, func(t *testing.T) {
			c := componentByID(t, tc.id)
			x := c.Scale.Apply(tc.native)
			switch c.FXOp {
			case models.FXMultiply:
				x *= tc.fx
			case models.FXDivide:
				x /= tc.fx
			}
			assert.InDelta(t, tc.want, x, 1e-9)
		})
	}
}

func TestDefaultComponentsValid(t *testing.T) {
	require.NoError(t, ValidateComponents(DefaultComponents()))
}

func TestValidateComponentsFXDirection(t *testing.T) {
	cs := DefaultComponents()
	for i := range cs {
		if cs[i].ID == "MANMM101CNM189S" {
			cs[i].FXOp = models.FXMultiply
		}
	}
	assert.Error(t, ValidateComponents(cs))

	cs = DefaultComponents()
	for i := range cs {
		if cs[i].ID == "ECBASSETSW" {
			cs[i].FXOp = models.FXDivide
		}
	}
	assert.Error(t, ValidateComponents(cs))
}

func TestValidateComponentsShape(t *testing.T) {
	assert.Error(t, ValidateComponents(nil))

	onlyM2 := []models.Component{componentByID(t, "M2SL")}
	assert.Error(t, ValidateComponents(onlyM2))

	dup := append(DefaultComponents(), componentByID(t, "WALCL"))
	assert.Error(t, ValidateComponents(dup))

	bad := DefaultComponents()
	bad[0].Scale = models.Scale{Num: 1}
	assert.Error(t, ValidateComponents(bad))
}

func TestQuotedInUSD(t *testing.T) {
	assert.True(t, QuotedInUSD("EURUSD=X"))
	assert.True(t, QuotedInUSD("gbpusd=x"))
	assert.False(t, QuotedInUSD("JPY=X"))
	assert.False(t, QuotedInUSD("CNY=X"))
	assert.False(t, QuotedInUSD("USD=X"))
}
