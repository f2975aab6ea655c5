package app

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/flipfinder/flipfinder/internal/domain"
	"github.com/flipfinder/flipfinder/internal/engine"
	"github.com/flipfinder/flipfinder/internal/pipeline"
	"github.com/flipfinder/flipfinder/internal/server"
	"github.com/flipfinder/flipfinder/internal/server/handler"
	"github.com/flipfinder/flipfinder/internal/server/ws"
	"github.com/flipfinder/flipfinder/internal/service"
)

// services bundles the application services shared by the modes.
type services struct {
	listings *service.ListingService
	arb      *service.ArbService
}

func (a *App) buildServices(deps *Dependencies) *services {
	return &services{
		listings: service.NewListingService(
			deps.ListingStore,
			deps.ListingCache,
			deps.SignalBus,
			a.logger,
			a.cfg.Engine.MaxBatchSize,
		),
		arb: service.NewArbService(
			deps.ListingStore,
			deps.OpportunityStore,
			deps.AuditStore,
			deps.SignalBus,
			deps.Notifier,
			a.logger,
			a.cfg.Engine.MaxBatchSize,
			a.cfg.Engine.AlertMinNetProfit,
		),
	}
}

// engineOptions translates the config's engine section into per-run options.
func (a *App) engineOptions() engine.Options {
	opts := engine.DefaultOptions()
	opts.MinProfitMargin = a.cfg.Engine.MinProfitMargin
	opts.ShippingCost = a.cfg.Engine.ShippingCost
	opts.SimilarityThreshold = a.cfg.Engine.SimilarityThreshold
	if a.cfg.Engine.SortBy != "" {
		opts.SortBy = engine.SortKey(a.cfg.Engine.SortBy)
	}
	return opts
}

func toMarketplaces(names []string) []domain.Marketplace {
	out := make([]domain.Marketplace, len(names))
	for i, n := range names {
		out[i] = domain.Marketplace(n)
	}
	return out
}

func (a *App) analyzeParams() service.AnalyzeParams {
	return service.AnalyzeParams{
		SourceMarketplaces: toMarketplaces(a.cfg.Pipeline.SourceMarketplaces),
		TargetMarketplaces: toMarketplaces(a.cfg.Pipeline.TargetMarketplaces),
		Options:            a.engineOptions(),
	}
}

// runServer starts the WebSocket hub and HTTP server on the errgroup.
func (a *App) runServer(ctx context.Context, g *errgroup.Group, deps *Dependencies, svcs *services) {
	hub := ws.NewHub(deps.SignalBus, a.logger, a.cfg.Mode)

	handlers := server.Handlers{
		Health:   handler.NewHealthHandler(a.logger),
		Listings: handler.NewListingHandler(svcs.listings, a.logger),
		Arb: handler.NewArbHandler(svcs.arb, handler.ArbDefaults{
			Options:            a.engineOptions(),
			SourceMarketplaces: toMarketplaces(a.cfg.Pipeline.SourceMarketplaces),
			TargetMarketplaces: toMarketplaces(a.cfg.Pipeline.TargetMarketplaces),
		}, a.logger),
		Fees:  handler.NewFeesHandler(a.logger),
		Audit: handler.NewAuditHandler(deps.AuditStore, a.logger),
	}

	srv := server.NewServer(server.Config{
		Port:            a.cfg.Server.Port,
		CORSOrigins:     a.cfg.Server.CORSOrigins,
		APIKey:          a.cfg.Server.APIKey,
		RateLimitPerMin: a.cfg.Server.RateLimitPerMin,
	}, handlers, hub, deps.RateLimiter, a.logger)

	g.Go(func() error {
		err := hub.Run(ctx)
		if ctx.Err() != nil {
			return nil
		}
		return err
	})

	g.Go(func() error {
		return srv.Start()
	})

	// Shut the server down when the context is cancelled.
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			a.logger.Error("server shutdown failed", slog.String("error", err.Error()))
		}
		return nil
	})
}

// runPipeline starts the background loops on the errgroup.
func (a *App) runPipeline(ctx context.Context, g *errgroup.Group, deps *Dependencies, svcs *services) {
	analyzer := pipeline.NewAnalyzer(svcs.arb, a.analyzeParams(), a.logger)
	pruner := pipeline.NewPruner(deps.ListingStore, a.cfg.Pipeline.ListingTTL.Duration, a.logger)

	var archiveRunner *pipeline.ArchiveRunner
	if deps.Archiver != nil {
		archiveRunner = pipeline.NewArchiveRunner(
			deps.Archiver,
			a.cfg.Pipeline.ArchiveRetentionDays,
			a.cfg.Pipeline.ArchiveHourUTC,
			a.logger,
		)
	}

	orch := pipeline.NewOrchestrator(
		analyzer,
		pruner,
		archiveRunner,
		a.cfg.Pipeline.AnalyzeInterval.Duration,
		a.cfg.Pipeline.PruneInterval.Duration,
		a.logger,
	)

	g.Go(func() error {
		err := orch.Run(ctx)
		if ctx.Err() != nil {
			return nil
		}
		return err
	})
}

// ServeMode runs only the HTTP API and WebSocket hub. Analysis happens when
// a client posts to the analyze endpoint.
func (a *App) ServeMode(ctx context.Context, deps *Dependencies) error {
	svcs := a.buildServices(deps)

	g, ctx := errgroup.WithContext(ctx)
	a.runServer(ctx, g, deps, svcs)
	return g.Wait()
}

// AnalyzeMode runs only the background pipeline: scheduled analysis,
// pruning, and archival. No API surface.
func (a *App) AnalyzeMode(ctx context.Context, deps *Dependencies) error {
	svcs := a.buildServices(deps)

	g, ctx := errgroup.WithContext(ctx)
	a.runPipeline(ctx, g, deps, svcs)
	return g.Wait()
}

// FullMode runs the API server and the background pipeline together.
func (a *App) FullMode(ctx context.Context, deps *Dependencies) error {
	svcs := a.buildServices(deps)

	g, ctx := errgroup.WithContext(ctx)
	a.runServer(ctx, g, deps, svcs)
	if a.cfg.Pipeline.Enabled {
		a.runPipeline(ctx, g, deps, svcs)
	}
	return g.Wait()
}
