package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/flipfinder/flipfinder/internal/domain"
)

// In-memory fakes shared by the service tests.

type fakeListingStore struct {
	mu       sync.Mutex
	listings map[string]domain.Listing
	upserts  int
}

func newFakeListingStore() *fakeListingStore {
	return &fakeListingStore{listings: make(map[string]domain.Listing)}
}

func listingMapKey(m domain.Marketplace, id string) string {
	return string(m) + "/" + id
}

func (f *fakeListingStore) Upsert(_ context.Context, l domain.Listing) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listings[listingMapKey(l.Marketplace, l.ListingID)] = l
	f.upserts++
	return nil
}

func (f *fakeListingStore) UpsertBatch(ctx context.Context, listings []domain.Listing) error {
	for _, l := range listings {
		if err := f.Upsert(ctx, l); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeListingStore) Get(_ context.Context, m domain.Marketplace, id string) (domain.Listing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.listings[listingMapKey(m, id)]
	if !ok {
		return domain.Listing{}, domain.ErrNotFound
	}
	return l, nil
}

func (f *fakeListingStore) ListByMarketplace(_ context.Context, m domain.Marketplace, _ domain.ListOpts) ([]domain.Listing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Listing
	for _, l := range f.listings {
		if l.Marketplace == m {
			out = append(out, l)
		}
	}
	return out, nil
}

func (f *fakeListingStore) ListByMarketplaces(_ context.Context, marketplaces []domain.Marketplace, limit int) ([]domain.Listing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	want := make(map[domain.Marketplace]bool, len(marketplaces))
	for _, m := range marketplaces {
		want[m] = true
	}
	var out []domain.Listing
	for _, l := range f.listings {
		if want[l.Marketplace] {
			out = append(out, l)
		}
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (f *fakeListingStore) Delete(_ context.Context, m domain.Marketplace, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := listingMapKey(m, id)
	if _, ok := f.listings[key]; !ok {
		return domain.ErrNotFound
	}
	delete(f.listings, key)
	return nil
}

func (f *fakeListingStore) DeleteScrapedBefore(_ context.Context, before time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var removed int64
	for k, l := range f.listings {
		if l.ScrapedAt.Before(before) {
			delete(f.listings, k)
			removed++
		}
	}
	return removed, nil
}

func (f *fakeListingStore) ListScrapedBefore(_ context.Context, before time.Time) ([]domain.Listing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Listing
	for _, l := range f.listings {
		if l.ScrapedAt.Before(before) {
			out = append(out, l)
		}
	}
	return out, nil
}

func (f *fakeListingStore) Count(_ context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.listings)), nil
}

type fakeListingCache struct {
	mu      sync.Mutex
	entries map[string]domain.Listing
}

func newFakeListingCache() *fakeListingCache {
	return &fakeListingCache{entries: make(map[string]domain.Listing)}
}

func (f *fakeListingCache) Set(_ context.Context, l domain.Listing) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries[listingMapKey(l.Marketplace, l.ListingID)] = l
	return nil
}

func (f *fakeListingCache) Get(_ context.Context, m domain.Marketplace, id string) (domain.Listing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.entries[listingMapKey(m, id)]
	if !ok {
		return domain.Listing{}, domain.ErrNotFound
	}
	return l, nil
}

func (f *fakeListingCache) Invalidate(_ context.Context, m domain.Marketplace, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.entries, listingMapKey(m, id))
	return nil
}

type fakeSignalBus struct {
	mu       sync.Mutex
	messages map[string][][]byte
}

func newFakeSignalBus() *fakeSignalBus {
	return &fakeSignalBus{messages: make(map[string][][]byte)}
}

func (f *fakeSignalBus) Publish(_ context.Context, channel string, payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages[channel] = append(f.messages[channel], payload)
	return nil
}

func (f *fakeSignalBus) Subscribe(context.Context, string) (<-chan []byte, error) {
	ch := make(chan []byte)
	close(ch)
	return ch, nil
}

func (f *fakeSignalBus) published(channel string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.messages[channel])
}

type fakeOpportunityStore struct {
	mu       sync.Mutex
	inserted []domain.Opportunity
}

func (f *fakeOpportunityStore) InsertBatch(_ context.Context, opps []domain.Opportunity) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inserted = append(f.inserted, opps...)
	return nil
}

func (f *fakeOpportunityStore) GetByID(_ context.Context, id string) (domain.Opportunity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, o := range f.inserted {
		if o.ID == id {
			return o, nil
		}
	}
	return domain.Opportunity{}, domain.ErrNotFound
}

func (f *fakeOpportunityStore) ListRecent(_ context.Context, limit int) ([]domain.Opportunity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := append([]domain.Opportunity(nil), f.inserted...)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeOpportunityStore) SumNetProfit(_ context.Context, since time.Time) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var total float64
	for _, o := range f.inserted {
		if !o.DetectedAt.Before(since) {
			total += o.NetProfit
		}
	}
	return total, nil
}

func (f *fakeOpportunityStore) ListDetectedBefore(_ context.Context, before time.Time) ([]domain.Opportunity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Opportunity
	for _, o := range f.inserted {
		if o.DetectedAt.Before(before) {
			out = append(out, o)
		}
	}
	return out, nil
}

func (f *fakeOpportunityStore) Count(_ context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.inserted)), nil
}

type fakeAuditStore struct {
	mu     sync.Mutex
	events []string
}

func (f *fakeAuditStore) Log(_ context.Context, event string, _ map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
	return nil
}

func (f *fakeAuditStore) List(context.Context, domain.ListOpts) ([]domain.AuditEntry, error) {
	return nil, nil
}

type fakeAlertSink struct {
	mu     sync.Mutex
	titles []string
}

func (f *fakeAlertSink) Notify(_ context.Context, _, title, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.titles = append(f.titles, title)
	return nil
}

func (f *fakeAlertSink) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.titles)
}

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
