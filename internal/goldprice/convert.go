package goldprice

import (
	"math"

	"github.com/bilsan-jewelry/bilsan-commerce-service/internal/models"
)

// GramsPerTroyOunce is the fixed unit conversion for precious metals.
const GramsPerTroyOunce = 31.1035

// Converter turns a USD-per-troy-ounce spot price into per-gram tier prices
// in the target currency. The currency rate is static configuration; there
// is no live FX lookup.
type Converter struct {
	USDRate  float64
	Currency string
}

// PerGram converts a spot price to the unrounded 24k price per gram in the
// target currency. Intermediate values are never rounded.
func (c Converter) PerGram(spotUSDPerOunce float64) float64 {
	return spotUSDPerOunce / GramsPerTroyOunce * c.USDRate
}

// TierPrice derives a tier's per-gram price from the 24k per-gram price:
// perGram * karat/24, rounded half away from zero to 2 decimals. Rounding
// happens only here, at the output stage, so the 24k tier equals the
// rounded per-gram price exactly.
func (c Converter) TierPrice(perGram float64, karat models.Karat) float64 {
	return round2(perGram * float64(karat.Purity()) / 24)
}

// Convert produces the full tier group for one spot observation.
func (c Converter) Convert(spotUSDPerOunce float64) map[models.Karat]float64 {
	perGram := c.PerGram(spotUSDPerOunce)
	prices := make(map[models.Karat]float64, len(models.Karats))
	for _, k := range models.Karats {
		prices[k] = c.TierPrice(perGram, k)
	}
	return prices
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
