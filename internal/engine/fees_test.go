package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/flipfinder/flipfinder/internal/domain"
)

func TestMarketplaceFee(t *testing.T) {
	tests := []struct {
		marketplace domain.Marketplace
		price       float64
		want        float64
	}{
		{domain.MarketplaceEBay, 100, 13.25},
		{domain.MarketplaceEBay, 180, 23.85},
		{domain.MarketplaceAmazon, 100, 15},
		{domain.MarketplaceMercari, 100, 10},
		{domain.MarketplacePoshmark, 100, 20},
		{domain.MarketplaceFacebook, 100, 0},
		{domain.MarketplaceCraigslist, 100, 0},
		{domain.MarketplaceOfferUp, 100, 0},
		{domain.Marketplace("SOMEDAY_APP"), 100, 0}, // unknown: cost-free, not an error
		{domain.MarketplaceEBay, 0, 0},
	}

	for _, tt := range tests {
		t.Run(string(tt.marketplace), func(t *testing.T) {
			assert.InDelta(t, tt.want, MarketplaceFee(tt.marketplace, tt.price), 1e-9)
		})
	}
}

func TestFeeScheduleIsACopy(t *testing.T) {
	schedule := FeeSchedule()
	assert.Len(t, schedule, len(domain.Marketplaces))
	assert.InDelta(t, 13.25, schedule[domain.MarketplaceEBay], 1e-9)

	schedule[domain.MarketplaceEBay] = 99
	assert.InDelta(t, 13.25, MarketplaceFee(domain.MarketplaceEBay, 100), 1e-9)
}
