package engine

import (
	"sort"

	"github.com/flipfinder/flipfinder/internal/domain"
)

// FindOpportunities pairs each source listing (candidate purchase) with the
// target listings (candidate resale venues) that look like the same item,
// computes the fee/shipping-adjusted profit for each pair, drops pairs with
// no gross profit or insufficient margin, and returns the survivors ranked
// descending by opts.SortBy.
//
// The walk is source-major in input order, targets in input order within
// each source; the final sort is stable, so ties keep that discovery order.
// Deterministic for identical inputs and options. Degenerate inputs (empty
// pools, titles that normalize to nothing, zero prices) produce an empty or
// smaller result, never an error.
//
// Cost is O(|sources| x |targets|) similarity comparisons. Analysis batches
// are capped upstream (see config MaxBatchSize), which keeps the quadratic
// cost bounded; marketplace-pair sharding is the natural split if that cap
// ever has to grow.
func FindOpportunities(sources, targets []domain.Listing, opts Options) []domain.Opportunity {
	opts = opts.normalized()

	opportunities := []domain.Opportunity{}
	for i := range sources {
		source := &sources[i]
		srcTokens := normalizeTitle(source.Title)

		for j := range targets {
			target := &targets[j]

			score, ok := jaccard(srcTokens, normalizeTitle(target.Title))
			if !ok || score < opts.SimilarityThreshold {
				continue
			}
			if target.Price <= source.Price {
				continue // no gross profit possible
			}

			grossProfit := target.Price - source.Price
			fees := MarketplaceFee(target.Marketplace, target.Price)
			netProfit := grossProfit - fees - opts.ShippingCost
			profitMargin := netProfit / target.Price * 100
			if profitMargin < opts.MinProfitMargin {
				continue
			}

			var roi float64
			if source.Price > 0 {
				roi = netProfit / source.Price * 100
			}

			opportunities = append(opportunities, domain.Opportunity{
				SourceMarketplace: source.Marketplace,
				TargetMarketplace: target.Marketplace,
				SourcePrice:       source.Price,
				TargetPrice:       target.Price,
				GrossProfit:       grossProfit,
				Fees:              fees,
				ShippingCost:      opts.ShippingCost,
				NetProfit:         netProfit,
				ProfitMargin:      profitMargin,
				ROI:               roi,
				SourceListing:     source,
				TargetListing:     target,
			})
		}
	}

	key := sortField(opts.SortBy)
	sort.SliceStable(opportunities, func(i, j int) bool {
		return key(opportunities[i]) > key(opportunities[j])
	})
	return opportunities
}

// sortField maps a SortKey to the opportunity field it ranks by.
func sortField(k SortKey) func(domain.Opportunity) float64 {
	switch k {
	case SortByProfit:
		return func(o domain.Opportunity) float64 { return o.NetProfit }
	case SortByROI:
		return func(o domain.Opportunity) float64 { return o.ROI }
	default:
		return func(o domain.Opportunity) float64 { return o.ProfitMargin }
	}
}

// ROI recomputes net-profit-over-capital from an opportunity's own fields,
// as a percentage. Useful for opportunities reconstructed or adjusted
// outside the main pipeline. A zero source price yields 0.
func ROI(o domain.Opportunity) float64 {
	if o.SourcePrice == 0 {
		return 0
	}
	return o.NetProfit / o.SourcePrice * 100
}

// FilterByMinProfit retains opportunities with NetProfit >= minProfit. This
// is an absolute-dollar filter, deliberately distinct from the percentage
// MinProfitMargin option. The input slice is not modified.
func FilterByMinProfit(opps []domain.Opportunity, minProfit float64) []domain.Opportunity {
	filtered := make([]domain.Opportunity, 0, len(opps))
	for _, o := range opps {
		if o.NetProfit >= minProfit {
			filtered = append(filtered, o)
		}
	}
	return filtered
}
