// Package service holds the application services that sit between the HTTP
// handlers and the storage layer.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/flipfinder/flipfinder/internal/domain"
)

// ChannelListings is the signal bus channel carrying ingest events.
const ChannelListings = "listings"

// ListingService handles ingest and retrieval of scraped listings.
type ListingService struct {
	listings     domain.ListingStore
	cache        domain.ListingCache
	bus          domain.SignalBus
	logger       *slog.Logger
	maxBatchSize int
}

// NewListingService creates a ListingService. maxBatchSize caps a single
// ingest call; zero or negative disables the cap.
func NewListingService(
	listings domain.ListingStore,
	cache domain.ListingCache,
	bus domain.SignalBus,
	logger *slog.Logger,
	maxBatchSize int,
) *ListingService {
	return &ListingService{
		listings:     listings,
		cache:        cache,
		bus:          bus,
		logger:       logger.With(slog.String("component", "listing_service")),
		maxBatchSize: maxBatchSize,
	}
}

// validateListing rejects listings the engine could never use.
func validateListing(l domain.Listing) error {
	if strings.TrimSpace(l.ListingID) == "" {
		return fmt.Errorf("%w: missing listing_id", domain.ErrInvalidListing)
	}
	if strings.TrimSpace(string(l.Marketplace)) == "" {
		return fmt.Errorf("%w: missing marketplace", domain.ErrInvalidListing)
	}
	if strings.TrimSpace(l.Title) == "" {
		return fmt.Errorf("%w: missing title", domain.ErrInvalidListing)
	}
	if l.Price < 0 {
		return fmt.Errorf("%w: negative price", domain.ErrInvalidListing)
	}
	return nil
}

// Ingest validates and upserts a batch of scraped listings, refreshes the
// cache, and announces the batch on the signal bus. The whole batch is
// rejected when any listing is invalid or the batch exceeds the cap.
func (s *ListingService) Ingest(ctx context.Context, listings []domain.Listing) (int, error) {
	if len(listings) == 0 {
		return 0, nil
	}
	if s.maxBatchSize > 0 && len(listings) > s.maxBatchSize {
		return 0, fmt.Errorf("%w: %d listings exceeds cap of %d",
			domain.ErrBatchTooLarge, len(listings), s.maxBatchSize)
	}

	now := time.Now().UTC()
	for i := range listings {
		if err := validateListing(listings[i]); err != nil {
			return 0, fmt.Errorf("listing_service: ingest item %d: %w", i, err)
		}
		if listings[i].ScrapedAt.IsZero() {
			listings[i].ScrapedAt = now
		}
	}

	if err := s.listings.UpsertBatch(ctx, listings); err != nil {
		return 0, fmt.Errorf("listing_service: ingest: %w", err)
	}

	// Cache writes are best effort; entries expire on their own.
	for _, l := range listings {
		if err := s.cache.Set(ctx, l); err != nil {
			s.logger.WarnContext(ctx, "cache set failed",
				slog.String("marketplace", string(l.Marketplace)),
				slog.String("listing_id", l.ListingID),
				slog.String("error", err.Error()),
			)
		}
	}

	s.publishIngest(ctx, listings)

	s.logger.InfoContext(ctx, "ingested listings", slog.Int("count", len(listings)))
	return len(listings), nil
}

func (s *ListingService) publishIngest(ctx context.Context, listings []domain.Listing) {
	counts := make(map[string]int)
	for _, l := range listings {
		counts[string(l.Marketplace)]++
	}
	payload, err := json.Marshal(map[string]any{
		"type":         "listings_ingested",
		"count":        len(listings),
		"marketplaces": counts,
	})
	if err != nil {
		return
	}
	if err := s.bus.Publish(ctx, ChannelListings, payload); err != nil {
		s.logger.WarnContext(ctx, "publish failed",
			slog.String("channel", ChannelListings),
			slog.String("error", err.Error()),
		)
	}
}

// Get retrieves one listing, checking the cache before the store.
func (s *ListingService) Get(ctx context.Context, marketplace domain.Marketplace, listingID string) (domain.Listing, error) {
	l, err := s.cache.Get(ctx, marketplace, listingID)
	if err == nil {
		return l, nil
	}

	l, err = s.listings.Get(ctx, marketplace, listingID)
	if err != nil {
		return domain.Listing{}, fmt.Errorf("listing_service: get %s/%s: %w", marketplace, listingID, err)
	}

	if cacheErr := s.cache.Set(ctx, l); cacheErr != nil {
		s.logger.WarnContext(ctx, "cache set failed",
			slog.String("marketplace", string(marketplace)),
			slog.String("listing_id", listingID),
			slog.String("error", cacheErr.Error()),
		)
	}
	return l, nil
}

// ListByMarketplace returns listings from one marketplace, newest first.
func (s *ListingService) ListByMarketplace(ctx context.Context, marketplace domain.Marketplace, opts domain.ListOpts) ([]domain.Listing, error) {
	listings, err := s.listings.ListByMarketplace(ctx, marketplace, opts)
	if err != nil {
		return nil, fmt.Errorf("listing_service: list %s: %w", marketplace, err)
	}
	return listings, nil
}

// Delete removes a listing from the store and invalidates its cache entry.
func (s *ListingService) Delete(ctx context.Context, marketplace domain.Marketplace, listingID string) error {
	if err := s.listings.Delete(ctx, marketplace, listingID); err != nil {
		return fmt.Errorf("listing_service: delete %s/%s: %w", marketplace, listingID, err)
	}
	if err := s.cache.Invalidate(ctx, marketplace, listingID); err != nil {
		s.logger.WarnContext(ctx, "cache invalidate failed",
			slog.String("marketplace", string(marketplace)),
			slog.String("listing_id", listingID),
			slog.String("error", err.Error()),
		)
	}
	return nil
}

// Count returns the total number of stored listings.
func (s *ListingService) Count(ctx context.Context) (int64, error) {
	count, err := s.listings.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("listing_service: count: %w", err)
	}
	return count, nil
}
