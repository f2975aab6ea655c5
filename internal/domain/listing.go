package domain

import "time"

// Marketplace identifies one of the supported resale platforms. The set is
// closed: listings arriving with any other value are still stored, but the
// fee schedule treats them as cost-free.
type Marketplace string

const (
	MarketplaceEBay       Marketplace = "EBAY"
	MarketplaceAmazon     Marketplace = "AMAZON"
	MarketplaceFacebook   Marketplace = "FACEBOOK"
	MarketplaceCraigslist Marketplace = "CRAIGSLIST"
	MarketplaceOfferUp    Marketplace = "OFFERUP"
	MarketplaceMercari    Marketplace = "MERCARI"
	MarketplacePoshmark   Marketplace = "POSHMARK"
)

// Marketplaces lists every supported marketplace in a stable order.
var Marketplaces = []Marketplace{
	MarketplaceEBay,
	MarketplaceAmazon,
	MarketplaceFacebook,
	MarketplaceCraigslist,
	MarketplaceOfferUp,
	MarketplaceMercari,
	MarketplacePoshmark,
}

// Valid reports whether m is one of the supported marketplaces.
func (m Marketplace) Valid() bool {
	for _, known := range Marketplaces {
		if m == known {
			return true
		}
	}
	return false
}

// Listing is a normalized listing record scraped from one of the
// marketplaces. The browser extension normalizes raw DOM data into this
// shape before pushing it to the ingest API. Prices are assumed USD; no
// currency conversion happens anywhere in the backend.
type Listing struct {
	Marketplace Marketplace `json:"marketplace"`
	ListingID   string      `json:"listing_id"` // unique within its marketplace
	Title       string      `json:"title"`
	Price       float64     `json:"price"` // asking price, >= 0
	URL         string      `json:"url"`
	Condition   string      `json:"condition,omitempty"`
	Images      []string    `json:"images,omitempty"`
	ScrapedAt   time.Time   `json:"scraped_at"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}
