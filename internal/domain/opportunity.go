package domain

import "time"

// Opportunity is a profitable cross-marketplace pairing: buy SourceListing,
// resell it on TargetListing's marketplace. The engine produces these
// without identity; the service layer assigns ID and DetectedAt when it
// persists a batch.
type Opportunity struct {
	ID                string      `json:"id,omitempty"`
	SourceMarketplace Marketplace `json:"source_marketplace"`
	TargetMarketplace Marketplace `json:"target_marketplace"`
	SourcePrice       float64     `json:"source_price"`
	TargetPrice       float64     `json:"target_price"`
	GrossProfit       float64     `json:"gross_profit"`  // target - source
	Fees              float64     `json:"fees"`          // target marketplace selling fee
	ShippingCost      float64     `json:"shipping_cost"` // flat, per analysis run
	NetProfit         float64     `json:"net_profit"`    // gross - fees - shipping
	ProfitMargin      float64     `json:"profit_margin"` // net / target price, percent
	ROI               float64     `json:"roi"`           // net / source price, percent

	// SourceListing and TargetListing are read-only views of the engine's
	// input collections. The engine never copies or mutates them.
	SourceListing *Listing `json:"source_listing,omitempty"`
	TargetListing *Listing `json:"target_listing,omitempty"`

	DetectedAt time.Time `json:"detected_at,omitempty"`
}
