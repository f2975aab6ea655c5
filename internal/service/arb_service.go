package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/flipfinder/flipfinder/internal/domain"
	"github.com/flipfinder/flipfinder/internal/engine"
)

// ChannelOpportunities is the signal bus channel carrying analysis results.
const ChannelOpportunities = "opportunities"

// AlertSink receives operator notifications. *notify.Notifier satisfies it.
type AlertSink interface {
	Notify(ctx context.Context, event, title, message string) error
}

// AnalyzeParams selects the listing pools and per-run engine options for one
// analysis pass.
type AnalyzeParams struct {
	SourceMarketplaces []domain.Marketplace
	TargetMarketplaces []domain.Marketplace
	Options            engine.Options
}

// AnalyzeResult summarizes one analysis pass.
type AnalyzeResult struct {
	Opportunities []domain.Opportunity `json:"opportunities"`
	SourceCount   int                  `json:"source_count"`
	TargetCount   int                  `json:"target_count"`
	Elapsed       time.Duration        `json:"-"`
}

// ArbService runs the arbitrage engine over stored listings and persists
// what it finds.
type ArbService struct {
	listings      domain.ListingStore
	opportunities domain.OpportunityStore
	audit         domain.AuditStore
	bus           domain.SignalBus
	alerts        AlertSink
	logger        *slog.Logger

	maxPoolSize       int
	alertMinNetProfit float64
}

// NewArbService creates an ArbService. maxPoolSize caps each listing pool
// loaded per run; alertMinNetProfit sets the net profit at which a run's
// best find triggers an operator alert (zero disables alerts).
func NewArbService(
	listings domain.ListingStore,
	opportunities domain.OpportunityStore,
	audit domain.AuditStore,
	bus domain.SignalBus,
	alerts AlertSink,
	logger *slog.Logger,
	maxPoolSize int,
	alertMinNetProfit float64,
) *ArbService {
	return &ArbService{
		listings:          listings,
		opportunities:     opportunities,
		audit:             audit,
		bus:               bus,
		alerts:            alerts,
		logger:            logger.With(slog.String("component", "arb_service")),
		maxPoolSize:       maxPoolSize,
		alertMinNetProfit: alertMinNetProfit,
	}
}

// Analyze loads the source and target pools, runs the matcher, persists any
// opportunities found, and fans results out to the bus and alert channels.
func (s *ArbService) Analyze(ctx context.Context, params AnalyzeParams) (AnalyzeResult, error) {
	started := time.Now()

	sources, err := s.listings.ListByMarketplaces(ctx, params.SourceMarketplaces, s.maxPoolSize)
	if err != nil {
		return AnalyzeResult{}, fmt.Errorf("arb_service: load source pool: %w", err)
	}
	targets, err := s.listings.ListByMarketplaces(ctx, params.TargetMarketplaces, s.maxPoolSize)
	if err != nil {
		return AnalyzeResult{}, fmt.Errorf("arb_service: load target pool: %w", err)
	}

	opps := engine.FindOpportunities(sources, targets, params.Options)

	detectedAt := time.Now().UTC()
	for i := range opps {
		opps[i].ID = uuid.Must(uuid.NewRandom()).String()
		opps[i].DetectedAt = detectedAt
	}

	if len(opps) > 0 {
		if err := s.opportunities.InsertBatch(ctx, opps); err != nil {
			return AnalyzeResult{}, fmt.Errorf("arb_service: persist opportunities: %w", err)
		}
	}

	result := AnalyzeResult{
		Opportunities: opps,
		SourceCount:   len(sources),
		TargetCount:   len(targets),
		Elapsed:       time.Since(started),
	}

	s.publishResult(ctx, result)
	s.maybeAlert(ctx, opps)

	if err := s.audit.Log(ctx, "analysis.run", map[string]any{
		"sources":       len(sources),
		"targets":       len(targets),
		"opportunities": len(opps),
		"elapsed_ms":    result.Elapsed.Milliseconds(),
	}); err != nil {
		s.logger.WarnContext(ctx, "audit log failed", slog.String("error", err.Error()))
	}

	s.logger.InfoContext(ctx, "analysis complete",
		slog.Int("sources", len(sources)),
		slog.Int("targets", len(targets)),
		slog.Int("opportunities", len(opps)),
		slog.Duration("elapsed", result.Elapsed),
	)

	return result, nil
}

func (s *ArbService) publishResult(ctx context.Context, result AnalyzeResult) {
	payload, err := json.Marshal(map[string]any{
		"type":          "analysis_done",
		"opportunities": len(result.Opportunities),
		"sources":       result.SourceCount,
		"targets":       result.TargetCount,
	})
	if err != nil {
		return
	}
	if err := s.bus.Publish(ctx, ChannelOpportunities, payload); err != nil {
		s.logger.WarnContext(ctx, "publish failed",
			slog.String("channel", ChannelOpportunities),
			slog.String("error", err.Error()),
		)
	}
}

// maybeAlert notifies operators when the run's best opportunity clears the
// configured net profit bar. Results arrive sorted, but the sort key is
// caller-chosen, so scan for the true maximum.
func (s *ArbService) maybeAlert(ctx context.Context, opps []domain.Opportunity) {
	if s.alerts == nil || s.alertMinNetProfit <= 0 || len(opps) == 0 {
		return
	}

	best := opps[0]
	for _, o := range opps[1:] {
		if o.NetProfit > best.NetProfit {
			best = o
		}
	}
	if best.NetProfit < s.alertMinNetProfit {
		return
	}

	title := fmt.Sprintf("Flip found: $%.2f net", best.NetProfit)
	message := fmt.Sprintf("Buy on %s for $%.2f, resell on %s at $%.2f (margin %.1f%%, ROI %.1f%%)",
		best.SourceMarketplace, best.SourcePrice,
		best.TargetMarketplace, best.TargetPrice,
		best.ProfitMargin, best.ROI,
	)
	if err := s.alerts.Notify(ctx, "opportunity_found", title, message); err != nil {
		s.logger.WarnContext(ctx, "alert failed", slog.String("error", err.Error()))
	}
}

// ListRecent returns the most recently detected opportunities.
func (s *ArbService) ListRecent(ctx context.Context, limit int) ([]domain.Opportunity, error) {
	opps, err := s.opportunities.ListRecent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("arb_service: list recent: %w", err)
	}
	return opps, nil
}

// GetByID retrieves one opportunity.
func (s *ArbService) GetByID(ctx context.Context, id string) (domain.Opportunity, error) {
	o, err := s.opportunities.GetByID(ctx, id)
	if err != nil {
		return domain.Opportunity{}, fmt.Errorf("arb_service: get %s: %w", id, err)
	}
	return o, nil
}

// SumNetProfit totals net profit across opportunities detected since the
// given time.
func (s *ArbService) SumNetProfit(ctx context.Context, since time.Time) (float64, error) {
	total, err := s.opportunities.SumNetProfit(ctx, since)
	if err != nil {
		return 0, fmt.Errorf("arb_service: sum net profit: %w", err)
	}
	return total, nil
}

// Count returns the total number of stored opportunities.
func (s *ArbService) Count(ctx context.Context) (int64, error) {
	count, err := s.opportunities.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("arb_service: count: %w", err)
	}
	return count, nil
}
