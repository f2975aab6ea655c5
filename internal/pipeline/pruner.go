package pipeline

import (
	"context"
	"log/slog"
	"time"
)

// StaleDeleter is the slice of the listing store the pruner needs.
type StaleDeleter interface {
	DeleteScrapedBefore(ctx context.Context, before time.Time) (int64, error)
}

// Pruner drops listings that have not been re-scraped within the TTL.
// Marketplace listings go stale fast; a week-old price is noise, not data.
type Pruner struct {
	listings StaleDeleter
	ttl      time.Duration
	logger   *slog.Logger
}

// NewPruner creates a Pruner with the given listing TTL.
func NewPruner(listings StaleDeleter, ttl time.Duration, logger *slog.Logger) *Pruner {
	return &Pruner{
		listings: listings,
		ttl:      ttl,
		logger:   logger.With(slog.String("component", "pruner")),
	}
}

// RunLoop prunes once per interval until ctx is cancelled.
func (p *Pruner) RunLoop(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			p.runOnce(ctx)
		}
	}
}

func (p *Pruner) runOnce(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-p.ttl)
	removed, err := p.listings.DeleteScrapedBefore(ctx, cutoff)
	if err != nil {
		p.logger.ErrorContext(ctx, "prune failed", slog.String("error", err.Error()))
		return
	}
	if removed > 0 {
		p.logger.InfoContext(ctx, "pruned stale listings",
			slog.Int64("removed", removed),
			slog.Time("cutoff", cutoff),
		)
	}
}
