package goldprice

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bilsan-jewelry/bilsan-commerce-service/internal/models"
)

func TestConverter_Convert(t *testing.T) {
	conv := Converter{USDRate: 3.75, Currency: "SAR"}

	tests := []struct {
		name     string
		spot     float64
		expected map[models.Karat]float64
	}{
		{
			name: "spot 2000 at rate 3.75",
			spot: 2000,
			expected: map[models.Karat]float64{
				models.Karat18: 180.85,
				models.Karat21: 210.99,
				models.Karat24: 241.13,
			},
		},
		{
			name: "spot 1850 at rate 3.75",
			spot: 1850,
			expected: map[models.Karat]float64{
				models.Karat18: 167.28,
				models.Karat21: 195.16,
				models.Karat24: 223.05,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prices := conv.Convert(tt.spot)
			for karat, want := range tt.expected {
				assert.InDelta(t, want, prices[karat], 0.001, "karat %s", karat)
			}
		})
	}
}

func TestConverter_TierOrdering(t *testing.T) {
	conv := Converter{USDRate: 3.75, Currency: "SAR"}

	for _, spot := range []float64{500, 1850, 2000, 2756.4} {
		prices := conv.Convert(spot)
		assert.Less(t, prices[models.Karat18], prices[models.Karat21], "spot %v", spot)
		assert.Less(t, prices[models.Karat21], prices[models.Karat24], "spot %v", spot)
	}
}

func TestConverter_24kEqualsRoundedPerGram(t *testing.T) {
	conv := Converter{USDRate: 3.75, Currency: "SAR"}

	perGram := conv.PerGram(2000)
	prices := conv.Convert(2000)
	assert.Equal(t, round2(perGram), prices[models.Karat24])
}

func TestConverter_RoundingOnlyAtOutput(t *testing.T) {
	conv := Converter{USDRate: 3.75, Currency: "SAR"}

	// The intermediate per-gram value stays unrounded; each tier rounds
	// independently from it.
	perGram := conv.PerGram(1999.99)
	want18 := round2(perGram * 18 / 24)
	assert.Equal(t, want18, conv.TierPrice(perGram, models.Karat18))
}
