package engine

import "github.com/flipfinder/flipfinder/internal/domain"

// feeRate is a marketplace selling fee: a percentage of the sale price plus
// a flat component.
type feeRate struct {
	Percent float64
	Flat    float64
}

// feeSchedule is the single source of truth for marketplace selling fees.
// The eBay final-value rate is 13.25%; earlier fee tables carried 13% and
// were reconciled to this one. Local/free marketplaces charge nothing.
var feeSchedule = map[domain.Marketplace]feeRate{
	domain.MarketplaceEBay:       {Percent: 13.25},
	domain.MarketplaceAmazon:     {Percent: 15},
	domain.MarketplaceMercari:    {Percent: 10},
	domain.MarketplacePoshmark:   {Percent: 20},
	domain.MarketplaceFacebook:   {Percent: 0},
	domain.MarketplaceCraigslist: {Percent: 0},
	domain.MarketplaceOfferUp:    {Percent: 0},
}

// MarketplaceFee returns the selling fee charged by the given marketplace on
// a sale at the given price. An unknown marketplace is treated like the
// local/free ones and charges nothing; it is not an error.
func MarketplaceFee(m domain.Marketplace, price float64) float64 {
	rate, ok := feeSchedule[m]
	if !ok {
		return 0
	}
	return price*rate.Percent/100 + rate.Flat
}

// FeeSchedule returns the percentage fee for every supported marketplace,
// for display in the dashboard. The map is a copy; mutating it has no
// effect on fee computation.
func FeeSchedule() map[domain.Marketplace]float64 {
	out := make(map[domain.Marketplace]float64, len(feeSchedule))
	for m, rate := range feeSchedule {
		out[m] = rate.Percent
	}
	return out
}
