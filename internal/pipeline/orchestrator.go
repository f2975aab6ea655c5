package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
)

// Orchestrator runs the background loops together: scheduled analysis,
// stale listing pruning, and daily archival. Any loop that dies with a
// non-context error brings the group down.
type Orchestrator struct {
	analyzer *Analyzer
	pruner   *Pruner
	archiver *ArchiveRunner

	analyzeInterval time.Duration
	pruneInterval   time.Duration

	logger *slog.Logger
}

// NewOrchestrator creates an Orchestrator. archiver may be nil when cold
// storage is not configured.
func NewOrchestrator(
	analyzer *Analyzer,
	pruner *Pruner,
	archiver *ArchiveRunner,
	analyzeInterval time.Duration,
	pruneInterval time.Duration,
	logger *slog.Logger,
) *Orchestrator {
	return &Orchestrator{
		analyzer:        analyzer,
		pruner:          pruner,
		archiver:        archiver,
		analyzeInterval: analyzeInterval,
		pruneInterval:   pruneInterval,
		logger:          logger.With(slog.String("component", "orchestrator")),
	}
}

// Run starts every loop in an errgroup and blocks until ctx is cancelled or
// a loop fails.
func (o *Orchestrator) Run(ctx context.Context) error {
	o.logger.Info("pipeline starting",
		slog.Duration("analyze_interval", o.analyzeInterval),
		slog.Duration("prune_interval", o.pruneInterval),
	)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		err := o.analyzer.RunLoop(ctx, o.analyzeInterval)
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("analyzer: %w", err)
	})

	g.Go(func() error {
		err := o.pruner.RunLoop(ctx, o.pruneInterval)
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("pruner: %w", err)
	})

	if o.archiver != nil {
		g.Go(func() error {
			err := o.archiver.RunLoop(ctx)
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("archive runner: %w", err)
		})
	}

	if err := g.Wait(); err != nil {
		o.logger.Error("pipeline stopped with error", slog.String("error", err.Error()))
		return err
	}

	o.logger.Info("pipeline stopped cleanly")
	return nil
}
