package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/flipfinder/flipfinder/internal/domain"
)

const listingTTL = 10 * time.Minute

// ListingCache implements domain.ListingCache using plain Redis strings with
// JSON-serialized listing data.
//
// Key schema:
//
//	listing:{marketplace}:{listing_id}
type ListingCache struct {
	rdb *redis.Client
}

var _ domain.ListingCache = (*ListingCache)(nil)

// NewListingCache creates a ListingCache backed by the given Client.
func NewListingCache(c *Client) *ListingCache {
	return &ListingCache{rdb: c.Underlying()}
}

func listingKey(marketplace domain.Marketplace, listingID string) string {
	return "listing:" + string(marketplace) + ":" + listingID
}

// Set stores a listing with a 10-minute TTL. The ingest path refreshes the
// entry on every upsert, so a hot listing never expires while the scraper is
// active.
func (lc *ListingCache) Set(ctx context.Context, l domain.Listing) error {
	data, err := json.Marshal(l)
	if err != nil {
		return fmt.Errorf("redis: marshal listing %s/%s: %w", l.Marketplace, l.ListingID, err)
	}
	if err := lc.rdb.Set(ctx, listingKey(l.Marketplace, l.ListingID), data, listingTTL).Err(); err != nil {
		return fmt.Errorf("redis: set listing %s/%s: %w", l.Marketplace, l.ListingID, err)
	}
	return nil
}

// Get retrieves a cached listing. It returns domain.ErrNotFound when the
// key does not exist or has expired.
func (lc *ListingCache) Get(ctx context.Context, marketplace domain.Marketplace, listingID string) (domain.Listing, error) {
	data, err := lc.rdb.Get(ctx, listingKey(marketplace, listingID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.Listing{}, domain.ErrNotFound
		}
		return domain.Listing{}, fmt.Errorf("redis: get listing %s/%s: %w", marketplace, listingID, err)
	}

	var l domain.Listing
	if err := json.Unmarshal(data, &l); err != nil {
		return domain.Listing{}, fmt.Errorf("redis: unmarshal listing %s/%s: %w", marketplace, listingID, err)
	}
	return l, nil
}

// Invalidate removes a listing from the cache.
func (lc *ListingCache) Invalidate(ctx context.Context, marketplace domain.Marketplace, listingID string) error {
	if err := lc.rdb.Del(ctx, listingKey(marketplace, listingID)).Err(); err != nil {
		return fmt.Errorf("redis: invalidate listing %s/%s: %w", marketplace, listingID, err)
	}
	return nil
}
