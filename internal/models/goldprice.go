package models

import "time"

// Karat is one of the three gold purity tiers tracked as priced SKUs.
type Karat string

const (
	Karat18 Karat = "18k"
	Karat21 Karat = "21k"
	Karat24 Karat = "24k"
)

// Karats lists all tiers in ascending purity order.
var Karats = []Karat{Karat18, Karat21, Karat24}

// Purity returns the karat number (18, 21, 24), or 0 for an unknown tier.
func (k Karat) Purity() int {
	switch k {
	case Karat18:
		return 18
	case Karat21:
		return 21
	case Karat24:
		return 24
	}
	return 0
}

// Valid reports whether k is one of the tracked tiers.
func (k Karat) Valid() bool {
	return k.Purity() != 0
}

// PriceSource tags where a snapshot's value came from.
type PriceSource string

const (
	// PriceSourceLive means the primary feed produced the value.
	PriceSourceLive PriceSource = "live"
	// PriceSourceFallback means a secondary feed produced the value.
	PriceSourceFallback PriceSource = "fallback"
	// PriceSourceManual means an admin entered the value by hand.
	PriceSourceManual PriceSource = "manual"
	// PriceSourceStaleDefault means the configured startup default is still
	// serving because no refresh has succeeded yet.
	PriceSourceStaleDefault PriceSource = "stale-default"
)

// PriceSnapshot is the authoritative per-tier price at a point in time.
// Fetch-driven replacement is atomic across all three tiers.
type PriceSnapshot struct {
	Karat        Karat       `json:"karat"`
	PricePerGram float64     `json:"price_per_gram"`
	Currency     string      `json:"currency"`
	Source       PriceSource `json:"source"`
	ObservedAt   time.Time   `json:"observed_at"`
}

// SnapshotGroup maps every tier to its current snapshot.
type SnapshotGroup map[Karat]PriceSnapshot
