package domain

import "time"

// PriceQuote holds the two market prices a deployment cycle needs:
// the refined asset price and the base currency (SOL) price, both in USD.
type PriceQuote struct {
	AssetPrice float64
	BasePrice  float64
	FetchedAt  time.Time
}

// FreshAt reports whether the quote is still within ttl at the given time.
func (q PriceQuote) FreshAt(now time.Time, ttl time.Duration) bool {
	if q.FetchedAt.IsZero() {
		return false
	}
	return now.Sub(q.FetchedAt) < ttl
}

// Valid reports whether both prices are positive. A zero or negative
// price is treated as a failed fetch, never forwarded downstream.
func (q PriceQuote) Valid() bool {
	return q.AssetPrice > 0 && q.BasePrice > 0
}
