package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/flipfinder/flipfinder/internal/domain"
)

// ArchiveRunner exports aged rows to cold storage once a day.
type ArchiveRunner struct {
	archiver      domain.Archiver
	retentionDays int
	hourUTC       int
	logger        *slog.Logger
}

// NewArchiveRunner creates an ArchiveRunner that fires daily at hourUTC and
// archives rows older than retentionDays.
func NewArchiveRunner(archiver domain.Archiver, retentionDays, hourUTC int, logger *slog.Logger) *ArchiveRunner {
	return &ArchiveRunner{
		archiver:      archiver,
		retentionDays: retentionDays,
		hourUTC:       hourUTC,
		logger:        logger.With(slog.String("component", "archive_runner")),
	}
}

// nextRun returns the next occurrence of hourUTC strictly after now.
func (r *ArchiveRunner) nextRun(now time.Time) time.Time {
	now = now.UTC()
	next := time.Date(now.Year(), now.Month(), now.Day(), r.hourUTC, 0, 0, 0, time.UTC)
	if !next.After(now) {
		next = next.Add(24 * time.Hour)
	}
	return next
}

// RunLoop sleeps until the next scheduled hour, archives, and repeats until
// ctx is cancelled.
func (r *ArchiveRunner) RunLoop(ctx context.Context) error {
	for {
		next := r.nextRun(time.Now())
		r.logger.InfoContext(ctx, "next archive run scheduled", slog.Time("at", next))

		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		r.runOnce(ctx)
	}
}

func (r *ArchiveRunner) runOnce(ctx context.Context) {
	cutoff := time.Now().UTC().AddDate(0, 0, -r.retentionDays)

	listings, err := r.archiver.ArchiveListings(ctx, cutoff)
	if err != nil {
		r.logger.ErrorContext(ctx, "archive listings failed", slog.String("error", err.Error()))
	}
	opps, err := r.archiver.ArchiveOpportunities(ctx, cutoff)
	if err != nil {
		r.logger.ErrorContext(ctx, "archive opportunities failed", slog.String("error", err.Error()))
	}

	r.logger.InfoContext(ctx, "archive run complete",
		slog.Int64("listings", listings),
		slog.Int64("opportunities", opps),
		slog.Time("cutoff", cutoff),
	)
}
