// Package engine implements the arbitrage matching and profit model: it
// pairs semantically similar listings across marketplaces, computes
// fee/shipping-adjusted profit, filters by margin, and ranks the result.
//
// The engine is pure: it performs no I/O, never mutates its inputs, keeps no
// state between calls, and is safe to invoke concurrently. Persistence,
// identity assignment, and transport are the caller's job.
package engine

// SortKey selects the ranking field for analysis results.
type SortKey string

const (
	SortByProfit       SortKey = "profit"        // ranks by NetProfit
	SortByProfitMargin SortKey = "profit_margin" // ranks by ProfitMargin
	SortByROI          SortKey = "roi"           // ranks by ROI
)

// Valid reports whether k is a recognized sort key.
func (k SortKey) Valid() bool {
	switch k {
	case SortByProfit, SortByProfitMargin, SortByROI:
		return true
	}
	return false
}

// Options tunes a single analysis run. The HTTP boundary validates option
// values before they reach the engine; the engine itself only clamps
// SimilarityThreshold into [0,1] and falls back to SortByProfitMargin for an
// empty SortBy, so a zero-value Options is still usable.
type Options struct {
	// MinProfitMargin discards opportunities whose profit margin (percent
	// of sale price) is below this value.
	MinProfitMargin float64

	// ShippingCost is a flat cost applied to every candidate pair in the
	// run. Per-pair shipping estimation is a known limitation.
	ShippingCost float64

	// SortBy picks the ranking field. Descending; ties keep discovery
	// order (source-major, then target order within a source).
	SortBy SortKey

	// SimilarityThreshold is the minimum title similarity in [0,1] for a
	// source/target pair to count as the same item.
	SimilarityThreshold float64
}

// DefaultOptions returns the documented defaults: no margin floor, no
// shipping cost, ranked by profit margin, similarity threshold 0.5.
func DefaultOptions() Options {
	return Options{
		MinProfitMargin:     0,
		ShippingCost:        0,
		SortBy:              SortByProfitMargin,
		SimilarityThreshold: 0.5,
	}
}

func (o Options) normalized() Options {
	if o.SimilarityThreshold < 0 {
		o.SimilarityThreshold = 0
	}
	if o.SimilarityThreshold > 1 {
		o.SimilarityThreshold = 1
	}
	if !o.SortBy.Valid() {
		o.SortBy = SortByProfitMargin
	}
	return o
}
