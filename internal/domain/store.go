package domain

import (
	"context"
	"time"
)

// ListOpts provides pagination and filtering for list queries.
type ListOpts struct {
	Limit  int
	Offset int
	Since  *time.Time
	Until  *time.Time
}

// ListingStore persists scraped listings.
type ListingStore interface {
	Upsert(ctx context.Context, l Listing) error
	UpsertBatch(ctx context.Context, listings []Listing) error
	Get(ctx context.Context, marketplace Marketplace, listingID string) (Listing, error)
	ListByMarketplace(ctx context.Context, marketplace Marketplace, opts ListOpts) ([]Listing, error)
	ListByMarketplaces(ctx context.Context, marketplaces []Marketplace, limit int) ([]Listing, error)
	Delete(ctx context.Context, marketplace Marketplace, listingID string) error
	DeleteScrapedBefore(ctx context.Context, before time.Time) (int64, error)
	ListScrapedBefore(ctx context.Context, before time.Time) ([]Listing, error)
	Count(ctx context.Context) (int64, error)
}

// OpportunityStore persists detected arbitrage opportunities.
type OpportunityStore interface {
	InsertBatch(ctx context.Context, opps []Opportunity) error
	GetByID(ctx context.Context, id string) (Opportunity, error)
	ListRecent(ctx context.Context, limit int) ([]Opportunity, error)
	SumNetProfit(ctx context.Context, since time.Time) (float64, error)
	ListDetectedBefore(ctx context.Context, before time.Time) ([]Opportunity, error)
	Count(ctx context.Context) (int64, error)
}

// AuditEntry is a single audit log row.
type AuditEntry struct {
	ID        int64
	Event     string
	Detail    map[string]any
	CreatedAt time.Time
}

// AuditStore persists an append-only audit log.
type AuditStore interface {
	Log(ctx context.Context, event string, detail map[string]any) error
	List(ctx context.Context, opts ListOpts) ([]AuditEntry, error)
}
