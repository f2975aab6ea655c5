// Package pipeline runs the background loops: periodic analysis, stale
// listing pruning, and cold-storage archival.
package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/flipfinder/flipfinder/internal/service"
)

// ArbRunner is the slice of ArbService the analyzer needs.
type ArbRunner interface {
	Analyze(ctx context.Context, params service.AnalyzeParams) (service.AnalyzeResult, error)
}

// Analyzer re-runs the arbitrage analysis on a fixed interval so fresh
// scrapes turn into opportunities without anyone clicking a button.
type Analyzer struct {
	arb    ArbRunner
	params service.AnalyzeParams
	logger *slog.Logger
}

// NewAnalyzer creates an Analyzer that runs with the given fixed params.
func NewAnalyzer(arb ArbRunner, params service.AnalyzeParams, logger *slog.Logger) *Analyzer {
	return &Analyzer{
		arb:    arb,
		params: params,
		logger: logger.With(slog.String("component", "analyzer")),
	}
}

// RunLoop runs one analysis immediately, then once per interval until ctx
// is cancelled. Individual run failures are logged, not fatal.
func (a *Analyzer) RunLoop(ctx context.Context, interval time.Duration) error {
	a.runOnce(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			a.runOnce(ctx)
		}
	}
}

func (a *Analyzer) runOnce(ctx context.Context) {
	result, err := a.arb.Analyze(ctx, a.params)
	if err != nil {
		a.logger.ErrorContext(ctx, "scheduled analysis failed", slog.String("error", err.Error()))
		return
	}
	a.logger.InfoContext(ctx, "scheduled analysis complete",
		slog.Int("opportunities", len(result.Opportunities)),
		slog.Int("sources", result.SourceCount),
		slog.Int("targets", result.TargetCount),
	)
}
