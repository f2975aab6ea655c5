package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/flipfinder/flipfinder/internal/domain"
)

// OpportunityStore implements domain.OpportunityStore using PostgreSQL. The
// source and target listing references are flattened into columns so an
// opportunity row stays readable after the underlying listings are pruned.
type OpportunityStore struct {
	pool *pgxpool.Pool
}

var _ domain.OpportunityStore = (*OpportunityStore)(nil)

// NewOpportunityStore creates an OpportunityStore backed by the given pool.
func NewOpportunityStore(pool *pgxpool.Pool) *OpportunityStore {
	return &OpportunityStore{pool: pool}
}

const insertOpportunityQuery = `
	INSERT INTO opportunities (
		id, source_marketplace, target_marketplace,
		source_listing_id, target_listing_id,
		source_title, target_title, source_url, target_url,
		source_price, target_price, gross_profit, fees,
		shipping_cost, net_profit, profit_margin, roi, detected_at
	) VALUES (
		$1, $2, $3,
		$4, $5,
		$6, $7, $8, $9,
		$10, $11, $12, $13,
		$14, $15, $16, $17, $18
	)
	ON CONFLICT (id) DO NOTHING`

func insertOpportunityArgs(o domain.Opportunity) []any {
	var srcID, tgtID, srcTitle, tgtTitle, srcURL, tgtURL string
	if o.SourceListing != nil {
		srcID = o.SourceListing.ListingID
		srcTitle = o.SourceListing.Title
		srcURL = o.SourceListing.URL
	}
	if o.TargetListing != nil {
		tgtID = o.TargetListing.ListingID
		tgtTitle = o.TargetListing.Title
		tgtURL = o.TargetListing.URL
	}
	return []any{
		o.ID, string(o.SourceMarketplace), string(o.TargetMarketplace),
		srcID, tgtID,
		srcTitle, tgtTitle, srcURL, tgtURL,
		o.SourcePrice, o.TargetPrice, o.GrossProfit, o.Fees,
		o.ShippingCost, o.NetProfit, o.ProfitMargin, o.ROI, o.DetectedAt,
	}
}

// InsertBatch persists a batch of detected opportunities.
func (s *OpportunityStore) InsertBatch(ctx context.Context, opps []domain.Opportunity) error {
	if len(opps) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, o := range opps {
		batch.Queue(insertOpportunityQuery, insertOpportunityArgs(o)...)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for i := range opps {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("postgres: insert opportunity batch item %d: %w", i, err)
		}
	}
	return nil
}

const opportunityCols = `id, source_marketplace, target_marketplace,
	source_listing_id, target_listing_id,
	source_title, target_title, source_url, target_url,
	source_price, target_price, gross_profit, fees,
	shipping_cost, net_profit, profit_margin, roi, detected_at`

func scanOpportunity(row pgx.Row) (domain.Opportunity, error) {
	var o domain.Opportunity
	var srcMarket, tgtMarket string
	src := &domain.Listing{}
	tgt := &domain.Listing{}
	err := row.Scan(
		&o.ID, &srcMarket, &tgtMarket,
		&src.ListingID, &tgt.ListingID,
		&src.Title, &tgt.Title, &src.URL, &tgt.URL,
		&o.SourcePrice, &o.TargetPrice, &o.GrossProfit, &o.Fees,
		&o.ShippingCost, &o.NetProfit, &o.ProfitMargin, &o.ROI, &o.DetectedAt,
	)
	if err != nil {
		return domain.Opportunity{}, err
	}
	o.SourceMarketplace = domain.Marketplace(srcMarket)
	o.TargetMarketplace = domain.Marketplace(tgtMarket)
	src.Marketplace = o.SourceMarketplace
	src.Price = o.SourcePrice
	tgt.Marketplace = o.TargetMarketplace
	tgt.Price = o.TargetPrice
	o.SourceListing = src
	o.TargetListing = tgt
	return o, nil
}

// GetByID retrieves one opportunity by its UUID.
func (s *OpportunityStore) GetByID(ctx context.Context, id string) (domain.Opportunity, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+opportunityCols+` FROM opportunities WHERE id = $1`, id)
	o, err := scanOpportunity(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Opportunity{}, domain.ErrNotFound
		}
		return domain.Opportunity{}, fmt.Errorf("postgres: get opportunity %s: %w", id, err)
	}
	return o, nil
}

func (s *OpportunityStore) queryOpportunities(ctx context.Context, op, query string, args ...any) ([]domain.Opportunity, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: %s: %w", op, err)
	}
	defer rows.Close()

	var opps []domain.Opportunity
	for rows.Next() {
		o, err := scanOpportunity(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: %s: scan: %w", op, err)
		}
		opps = append(opps, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: %s: rows: %w", op, err)
	}
	return opps, nil
}

// ListRecent returns the most recently detected opportunities.
func (s *OpportunityStore) ListRecent(ctx context.Context, limit int) ([]domain.Opportunity, error) {
	query := `SELECT ` + opportunityCols + ` FROM opportunities ORDER BY detected_at DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT $1"
		args = append(args, limit)
	}
	return s.queryOpportunities(ctx, "list recent opportunities", query, args...)
}

// SumNetProfit totals the net profit of opportunities detected since the
// given time. Feeds the dashboard's headline number.
func (s *OpportunityStore) SumNetProfit(ctx context.Context, since time.Time) (float64, error) {
	var total float64
	err := s.pool.QueryRow(ctx,
		`SELECT COALESCE(SUM(net_profit), 0) FROM opportunities WHERE detected_at >= $1`,
		since).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("postgres: sum net profit: %w", err)
	}
	return total, nil
}

// ListDetectedBefore returns opportunities older than before, oldest first.
func (s *OpportunityStore) ListDetectedBefore(ctx context.Context, before time.Time) ([]domain.Opportunity, error) {
	query := `SELECT ` + opportunityCols + ` FROM opportunities WHERE detected_at < $1 ORDER BY detected_at ASC`
	return s.queryOpportunities(ctx, "list old opportunities", query, before)
}

// Count returns the total number of stored opportunities.
func (s *OpportunityStore) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM opportunities").Scan(&count); err != nil {
		return 0, fmt.Errorf("postgres: count opportunities: %w", err)
	}
	return count, nil
}
