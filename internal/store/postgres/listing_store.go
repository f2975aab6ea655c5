package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/flipfinder/flipfinder/internal/domain"
)

// ListingStore implements domain.ListingStore using PostgreSQL.
type ListingStore struct {
	pool *pgxpool.Pool
}

var _ domain.ListingStore = (*ListingStore)(nil)

// NewListingStore creates a ListingStore backed by the given connection pool.
func NewListingStore(pool *pgxpool.Pool) *ListingStore {
	return &ListingStore{pool: pool}
}

const upsertListingQuery = `
	INSERT INTO listings (
		marketplace, listing_id, title, price, url,
		condition, images, scraped_at, created_at, updated_at
	) VALUES (
		$1, $2, $3, $4, $5,
		$6, $7, $8, NOW(), NOW()
	)
	ON CONFLICT (marketplace, listing_id) DO UPDATE SET
		title      = EXCLUDED.title,
		price      = EXCLUDED.price,
		url        = EXCLUDED.url,
		condition  = EXCLUDED.condition,
		images     = EXCLUDED.images,
		scraped_at = EXCLUDED.scraped_at,
		updated_at = NOW()`

func upsertListingArgs(l domain.Listing) ([]any, error) {
	images, err := json.Marshal(l.Images)
	if err != nil {
		return nil, fmt.Errorf("postgres: marshal listing images: %w", err)
	}
	scrapedAt := l.ScrapedAt
	if scrapedAt.IsZero() {
		scrapedAt = time.Now().UTC()
	}
	return []any{
		string(l.Marketplace), l.ListingID, l.Title, l.Price, l.URL,
		l.Condition, images, scrapedAt,
	}, nil
}

// Upsert inserts or refreshes a single listing, keyed by
// (marketplace, listing_id).
func (s *ListingStore) Upsert(ctx context.Context, l domain.Listing) error {
	args, err := upsertListingArgs(l)
	if err != nil {
		return err
	}
	if _, err := s.pool.Exec(ctx, upsertListingQuery, args...); err != nil {
		return fmt.Errorf("postgres: upsert listing %s/%s: %w", l.Marketplace, l.ListingID, err)
	}
	return nil
}

// UpsertBatch inserts or refreshes multiple listings in a single round trip.
func (s *ListingStore) UpsertBatch(ctx context.Context, listings []domain.Listing) error {
	if len(listings) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, l := range listings {
		args, err := upsertListingArgs(l)
		if err != nil {
			return err
		}
		batch.Queue(upsertListingQuery, args...)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for i := range listings {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("postgres: upsert listing batch item %d: %w", i, err)
		}
	}
	return nil
}

const listingCols = `marketplace, listing_id, title, price, url,
	condition, images, scraped_at, created_at, updated_at`

func scanListing(row pgx.Row) (domain.Listing, error) {
	var l domain.Listing
	var marketplace string
	var images []byte
	err := row.Scan(
		&marketplace, &l.ListingID, &l.Title, &l.Price, &l.URL,
		&l.Condition, &images, &l.ScrapedAt, &l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		return domain.Listing{}, err
	}
	l.Marketplace = domain.Marketplace(marketplace)
	if len(images) > 0 {
		if err := json.Unmarshal(images, &l.Images); err != nil {
			return domain.Listing{}, fmt.Errorf("postgres: unmarshal listing images: %w", err)
		}
	}
	return l, nil
}

// Get retrieves one listing by its composite key.
func (s *ListingStore) Get(ctx context.Context, marketplace domain.Marketplace, listingID string) (domain.Listing, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+listingCols+` FROM listings WHERE marketplace = $1 AND listing_id = $2`,
		string(marketplace), listingID)
	l, err := scanListing(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Listing{}, domain.ErrNotFound
		}
		return domain.Listing{}, fmt.Errorf("postgres: get listing %s/%s: %w", marketplace, listingID, err)
	}
	return l, nil
}

func (s *ListingStore) queryListings(ctx context.Context, op, query string, args ...any) ([]domain.Listing, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: %s: %w", op, err)
	}
	defer rows.Close()

	var listings []domain.Listing
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: %s: scan: %w", op, err)
		}
		listings = append(listings, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: %s: rows: %w", op, err)
	}
	return listings, nil
}

// ListByMarketplace returns listings from one marketplace, newest scrape
// first, with pagination and optional scraped_at bounds.
func (s *ListingStore) ListByMarketplace(ctx context.Context, marketplace domain.Marketplace, opts domain.ListOpts) ([]domain.Listing, error) {
	query := `SELECT ` + listingCols + ` FROM listings WHERE marketplace = $1`
	args := []any{string(marketplace)}
	argIdx := 2

	if opts.Since != nil {
		query += fmt.Sprintf(" AND scraped_at >= $%d", argIdx)
		args = append(args, *opts.Since)
		argIdx++
	}
	if opts.Until != nil {
		query += fmt.Sprintf(" AND scraped_at <= $%d", argIdx)
		args = append(args, *opts.Until)
		argIdx++
	}

	query += " ORDER BY scraped_at DESC"

	if opts.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIdx)
		args = append(args, opts.Limit)
		argIdx++
	}
	if opts.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argIdx)
		args = append(args, opts.Offset)
	}

	return s.queryListings(ctx, "list listings by marketplace", query, args...)
}

// ListByMarketplaces returns up to limit listings drawn from any of the
// given marketplaces, newest scrape first. This feeds the analysis pools.
func (s *ListingStore) ListByMarketplaces(ctx context.Context, marketplaces []domain.Marketplace, limit int) ([]domain.Listing, error) {
	if len(marketplaces) == 0 {
		return nil, nil
	}

	names := make([]string, len(marketplaces))
	for i, m := range marketplaces {
		names[i] = string(m)
	}

	query := `SELECT ` + listingCols + ` FROM listings WHERE marketplace = ANY($1) ORDER BY scraped_at DESC`
	args := []any{names}
	if limit > 0 {
		query += " LIMIT $2"
		args = append(args, limit)
	}

	return s.queryListings(ctx, "list listings by marketplaces", query, args...)
}

// Delete removes one listing. Missing rows map to domain.ErrNotFound.
func (s *ListingStore) Delete(ctx context.Context, marketplace domain.Marketplace, listingID string) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM listings WHERE marketplace = $1 AND listing_id = $2`,
		string(marketplace), listingID)
	if err != nil {
		return fmt.Errorf("postgres: delete listing %s/%s: %w", marketplace, listingID, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// DeleteScrapedBefore removes listings whose scraped_at is older than before
// and returns the number of rows removed.
func (s *ListingStore) DeleteScrapedBefore(ctx context.Context, before time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM listings WHERE scraped_at < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("postgres: delete stale listings: %w", err)
	}
	return tag.RowsAffected(), nil
}

// ListScrapedBefore returns listings older than before, oldest first. The
// archiver uses it to export rows before the pruner removes them.
func (s *ListingStore) ListScrapedBefore(ctx context.Context, before time.Time) ([]domain.Listing, error) {
	query := `SELECT ` + listingCols + ` FROM listings WHERE scraped_at < $1 ORDER BY scraped_at ASC`
	return s.queryListings(ctx, "list stale listings", query, before)
}

// Count returns the total number of stored listings.
func (s *ListingStore) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM listings").Scan(&count); err != nil {
		return 0, fmt.Errorf("postgres: count listings: %w", err)
	}
	return count, nil
}
