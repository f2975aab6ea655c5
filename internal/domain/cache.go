package domain

import (
	"context"
	"time"
)

// ListingCache provides fast lookups for recently scraped listings.
type ListingCache interface {
	Set(ctx context.Context, l Listing) error
	Get(ctx context.Context, marketplace Marketplace, listingID string) (Listing, error)
	Invalidate(ctx context.Context, marketplace Marketplace, listingID string) error
}

// RateLimiter provides distributed rate limiting.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// SignalBus provides pub/sub messaging between backend components and the
// WebSocket hub that feeds the dashboard.
type SignalBus interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
}
