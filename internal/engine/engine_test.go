package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flipfinder/flipfinder/internal/domain"
)

func listing(m domain.Marketplace, id, title string, price float64) domain.Listing {
	return domain.Listing{Marketplace: m, ListingID: id, Title: title, Price: price}
}

func TestFindOpportunities_SinglePair(t *testing.T) {
	sources := []domain.Listing{
		listing(domain.MarketplaceFacebook, "fb-1", "iPhone 14", 100),
	}
	targets := []domain.Listing{
		listing(domain.MarketplaceEBay, "eb-1", "iPhone 14", 180),
	}

	opps := FindOpportunities(sources, targets, DefaultOptions())
	require.Len(t, opps, 1)

	o := opps[0]
	assert.Equal(t, domain.MarketplaceFacebook, o.SourceMarketplace)
	assert.Equal(t, domain.MarketplaceEBay, o.TargetMarketplace)
	assert.InDelta(t, 80, o.GrossProfit, 1e-9)
	assert.InDelta(t, 23.85, o.Fees, 1e-9) // 180 * 13.25%
	assert.InDelta(t, 0, o.ShippingCost, 1e-9)
	assert.InDelta(t, 56.15, o.NetProfit, 1e-9)
	assert.InDelta(t, 56.15/180*100, o.ProfitMargin, 1e-9)
	assert.InDelta(t, 56.15, o.ROI, 1e-9) // source price 100
	require.NotNil(t, o.SourceListing)
	require.NotNil(t, o.TargetListing)
	assert.Equal(t, "fb-1", o.SourceListing.ListingID)
	assert.Equal(t, "eb-1", o.TargetListing.ListingID)
}

func TestFindOpportunities_ShippingCost(t *testing.T) {
	sources := []domain.Listing{listing(domain.MarketplaceFacebook, "fb-1", "iPhone 14", 100)}
	targets := []domain.Listing{listing(domain.MarketplaceEBay, "eb-1", "iPhone 14", 180)}

	opts := DefaultOptions()
	opts.ShippingCost = 10

	opps := FindOpportunities(sources, targets, opts)
	require.Len(t, opps, 1)
	assert.InDelta(t, 10, opps[0].ShippingCost, 1e-9)
	assert.InDelta(t, 46.15, opps[0].NetProfit, 1e-9) // 80 - 23.85 - 10
	assert.InDelta(t, opps[0].GrossProfit-opps[0].Fees-opps[0].ShippingCost, opps[0].NetProfit, 1e-9)
}

func TestFindOpportunities_MarginThreshold(t *testing.T) {
	sources := []domain.Listing{listing(domain.MarketplaceFacebook, "fb-1", "iPhone 14", 100)}
	targets := []domain.Listing{listing(domain.MarketplaceEBay, "eb-1", "iPhone 14", 105)}

	opts := DefaultOptions()
	opts.MinProfitMargin = 10

	// Net on a 105 sale is 5 - 13.91 < 0; nowhere near a 10% margin.
	assert.Empty(t, FindOpportunities(sources, targets, opts))
}

func TestFindOpportunities_NoGrossProfit(t *testing.T) {
	sources := []domain.Listing{listing(domain.MarketplaceFacebook, "fb-1", "iPhone 14", 100)}
	targets := []domain.Listing{
		listing(domain.MarketplaceEBay, "eb-1", "iPhone 14", 100), // equal: excluded
		listing(domain.MarketplaceEBay, "eb-2", "iPhone 14", 90),  // cheaper: excluded
	}

	assert.Empty(t, FindOpportunities(sources, targets, DefaultOptions()))
}

func TestFindOpportunities_UnmatchedTitles(t *testing.T) {
	sources := []domain.Listing{listing(domain.MarketplaceFacebook, "fb-1", "Vintage Leather Jacket", 40)}
	targets := []domain.Listing{listing(domain.MarketplaceEBay, "eb-1", "Espresso Machine", 200)}

	assert.Empty(t, FindOpportunities(sources, targets, DefaultOptions()))
}

func TestFindOpportunities_EmptyInputs(t *testing.T) {
	targets := []domain.Listing{listing(domain.MarketplaceEBay, "eb-1", "iPhone 14", 180)}

	assert.Empty(t, FindOpportunities(nil, targets, DefaultOptions()))
	assert.Empty(t, FindOpportunities(targets, nil, DefaultOptions()))
	assert.Empty(t, FindOpportunities(nil, nil, DefaultOptions()))
}

func TestFindOpportunities_SortKeys(t *testing.T) {
	// Two disjoint pairs with deliberately opposed rankings:
	//   laptop pair: big absolute profit, low margin/ROI
	//   mug pair:    small absolute profit, high margin/ROI
	sources := []domain.Listing{
		listing(domain.MarketplaceCraigslist, "cl-1", "Gaming Laptop RTX", 900),
		listing(domain.MarketplaceFacebook, "fb-1", "Ceramic Coffee Mug", 2),
	}
	targets := []domain.Listing{
		listing(domain.MarketplaceFacebook, "t-1", "Gaming Laptop RTX", 1000), // net 100, margin 10%, roi ~11%
		listing(domain.MarketplaceOfferUp, "t-2", "Ceramic Coffee Mug", 10),   // net 8, margin 80%, roi 400%
	}

	t.Run("profit_margin", func(t *testing.T) {
		opts := DefaultOptions()
		opps := FindOpportunities(sources, targets, opts)
		require.Len(t, opps, 2)
		assert.Equal(t, "t-2", opps[0].TargetListing.ListingID)
	})

	t.Run("profit", func(t *testing.T) {
		opts := DefaultOptions()
		opts.SortBy = SortByProfit
		opps := FindOpportunities(sources, targets, opts)
		require.Len(t, opps, 2)
		assert.Equal(t, "t-1", opps[0].TargetListing.ListingID)
	})

	t.Run("roi", func(t *testing.T) {
		opts := DefaultOptions()
		opts.SortBy = SortByROI
		opps := FindOpportunities(sources, targets, opts)
		require.Len(t, opps, 2)
		assert.Equal(t, "t-2", opps[0].TargetListing.ListingID)
	})
}

func TestFindOpportunities_StableTies(t *testing.T) {
	// Identical items at identical prices produce equal sort keys; output
	// must keep discovery order: source-major, target order within source.
	sources := []domain.Listing{
		listing(domain.MarketplaceFacebook, "s-1", "Standing Desk Frame", 50),
		listing(domain.MarketplaceCraigslist, "s-2", "Standing Desk Frame", 50),
	}
	targets := []domain.Listing{
		listing(domain.MarketplaceOfferUp, "t-1", "Standing Desk Frame", 120),
		listing(domain.MarketplaceOfferUp, "t-2", "Standing Desk Frame", 120),
	}

	opps := FindOpportunities(sources, targets, DefaultOptions())
	require.Len(t, opps, 4)

	order := make([][2]string, 0, 4)
	for _, o := range opps {
		order = append(order, [2]string{o.SourceListing.ListingID, o.TargetListing.ListingID})
	}
	assert.Equal(t, [][2]string{
		{"s-1", "t-1"}, {"s-1", "t-2"},
		{"s-2", "t-1"}, {"s-2", "t-2"},
	}, order)
}

func TestFindOpportunities_InvariantsHold(t *testing.T) {
	sources := []domain.Listing{
		listing(domain.MarketplaceFacebook, "s-1", "Dyson V11 Vacuum", 150),
		listing(domain.MarketplaceOfferUp, "s-2", "Dyson V11 Vacuum Cordless", 180),
		listing(domain.MarketplaceCraigslist, "s-3", "Dyson V11 Vacuum", 0),
	}
	targets := []domain.Listing{
		listing(domain.MarketplaceEBay, "t-1", "Dyson V11 Vacuum Cordless", 320),
		listing(domain.MarketplacePoshmark, "t-2", "Dyson V11 Vacuum", 260),
		listing(domain.MarketplaceMercari, "t-3", "Dyson V11 Vacuum", 140),
	}

	opts := DefaultOptions()
	opts.MinProfitMargin = 5
	opts.ShippingCost = 12
	opts.SimilarityThreshold = 0.4

	opps := FindOpportunities(sources, targets, opts)
	require.NotEmpty(t, opps)

	for _, o := range opps {
		assert.Greater(t, o.TargetPrice, o.SourcePrice)
		assert.GreaterOrEqual(t, o.ProfitMargin, opts.MinProfitMargin)
		assert.InDelta(t, o.GrossProfit-o.Fees-o.ShippingCost, o.NetProfit, 1e-9)
		if o.SourcePrice > 0 {
			assert.InDelta(t, o.NetProfit/o.SourcePrice*100, o.ROI, 1e-9)
		} else {
			assert.Zero(t, o.ROI)
		}
	}
}

func TestFindOpportunities_ThresholdClamped(t *testing.T) {
	sources := []domain.Listing{listing(domain.MarketplaceFacebook, "s-1", "iPhone 14", 100)}
	targets := []domain.Listing{listing(domain.MarketplaceEBay, "t-1", "iPhone 14", 180)}

	opts := DefaultOptions()
	opts.SimilarityThreshold = 4.2 // out of range: clamped to 1, exact titles still match
	assert.Len(t, FindOpportunities(sources, targets, opts), 1)

	opts.SimilarityThreshold = -3
	assert.Len(t, FindOpportunities(sources, targets, opts), 1)
}

func TestROI(t *testing.T) {
	assert.InDelta(t, 50, ROI(domain.Opportunity{SourcePrice: 100, NetProfit: 50}), 1e-9)
	assert.InDelta(t, 400, ROI(domain.Opportunity{SourcePrice: 2, NetProfit: 8}), 1e-9)
	assert.Zero(t, ROI(domain.Opportunity{SourcePrice: 0, NetProfit: 10}))
}

func TestFilterByMinProfit(t *testing.T) {
	opps := []domain.Opportunity{
		{ID: "a", NetProfit: 5},
		{ID: "b", NetProfit: 25},
		{ID: "c", NetProfit: 25},
		{ID: "d", NetProfit: -3},
	}

	filtered := FilterByMinProfit(opps, 25)
	require.Len(t, filtered, 2)
	assert.Equal(t, "b", filtered[0].ID)
	assert.Equal(t, "c", filtered[1].ID)

	assert.Len(t, FilterByMinProfit(opps, -10), 4)
	assert.Empty(t, FilterByMinProfit(nil, 0))
	// Original slice untouched.
	assert.Len(t, opps, 4)
}
