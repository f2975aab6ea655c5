package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/flipfinder/flipfinder/internal/domain"
	"github.com/flipfinder/flipfinder/internal/engine"
	"github.com/flipfinder/flipfinder/internal/service"
)

// ArbService defines what the arbitrage handler needs from the service
// layer.
type ArbService interface {
	Analyze(ctx context.Context, params service.AnalyzeParams) (service.AnalyzeResult, error)
	ListRecent(ctx context.Context, limit int) ([]domain.Opportunity, error)
	GetByID(ctx context.Context, id string) (domain.Opportunity, error)
	SumNetProfit(ctx context.Context, since time.Time) (float64, error)
	Count(ctx context.Context) (int64, error)
}

// ArbDefaults supplies the fallback analysis parameters used when a request
// omits them. They come from the engine section of the config file.
type ArbDefaults struct {
	Options            engine.Options
	SourceMarketplaces []domain.Marketplace
	TargetMarketplaces []domain.Marketplace
}

// ArbHandler serves the analysis and opportunity endpoints.
type ArbHandler struct {
	arb      ArbService
	defaults ArbDefaults
	logger   *slog.Logger
}

// NewArbHandler creates an ArbHandler.
func NewArbHandler(arb ArbService, defaults ArbDefaults, logger *slog.Logger) *ArbHandler {
	return &ArbHandler{
		arb:      arb,
		defaults: defaults,
		logger:   logger,
	}
}

// analyzeRequest carries per-run overrides. Every field is optional; omitted
// fields fall back to the configured defaults.
type analyzeRequest struct {
	SourceMarketplaces  []string `json:"source_marketplaces" validate:"omitempty,dive,oneof=EBAY AMAZON FACEBOOK CRAIGSLIST OFFERUP MERCARI POSHMARK"`
	TargetMarketplaces  []string `json:"target_marketplaces" validate:"omitempty,dive,oneof=EBAY AMAZON FACEBOOK CRAIGSLIST OFFERUP MERCARI POSHMARK"`
	MinProfitMargin     *float64 `json:"min_profit_margin" validate:"omitempty,gte=0"`
	ShippingCost        *float64 `json:"shipping_cost" validate:"omitempty,gte=0"`
	SimilarityThreshold *float64 `json:"similarity_threshold" validate:"omitempty,gte=0,lte=1"`
	SortBy              string   `json:"sort_by" validate:"omitempty,oneof=profit profit_margin roi"`
}

type analyzeResponse struct {
	Opportunities []domain.Opportunity `json:"opportunities"`
	SourceCount   int                  `json:"source_count"`
	TargetCount   int                  `json:"target_count"`
	ElapsedMS     int64                `json:"elapsed_ms"`
}

// Analyze runs one analysis pass over the stored listings.
// POST /api/arbitrage/analyze
func (h *ArbHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	params := service.AnalyzeParams{
		SourceMarketplaces: h.defaults.SourceMarketplaces,
		TargetMarketplaces: h.defaults.TargetMarketplaces,
		Options:            h.defaults.Options,
	}

	// An empty body means "run with the defaults".
	if r.ContentLength != 0 {
		var req analyzeRequest
		if err := decodeAndValidate(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid analyze payload: "+err.Error())
			return
		}

		if len(req.SourceMarketplaces) > 0 {
			params.SourceMarketplaces = toMarketplaces(req.SourceMarketplaces)
		}
		if len(req.TargetMarketplaces) > 0 {
			params.TargetMarketplaces = toMarketplaces(req.TargetMarketplaces)
		}
		if req.MinProfitMargin != nil {
			params.Options.MinProfitMargin = *req.MinProfitMargin
		}
		if req.ShippingCost != nil {
			params.Options.ShippingCost = *req.ShippingCost
		}
		if req.SimilarityThreshold != nil {
			params.Options.SimilarityThreshold = *req.SimilarityThreshold
		}
		if req.SortBy != "" {
			params.Options.SortBy = engine.SortKey(req.SortBy)
		}
	}

	result, err := h.arb.Analyze(r.Context(), params)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: analyze failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "analysis failed")
		return
	}

	opps := result.Opportunities
	if opps == nil {
		opps = []domain.Opportunity{}
	}
	writeJSON(w, http.StatusOK, analyzeResponse{
		Opportunities: opps,
		SourceCount:   result.SourceCount,
		TargetCount:   result.TargetCount,
		ElapsedMS:     result.Elapsed.Milliseconds(),
	})
}

func toMarketplaces(names []string) []domain.Marketplace {
	out := make([]domain.Marketplace, len(names))
	for i, n := range names {
		out[i] = domain.Marketplace(n)
	}
	return out
}

type listOpportunitiesResponse struct {
	Opportunities []domain.Opportunity `json:"opportunities"`
	Total         int64                `json:"total"`
	Limit         int                  `json:"limit"`
}

// ListRecent returns the most recently detected opportunities.
// GET /api/arbitrage/opportunities?limit=50
func (h *ArbHandler) ListRecent(w http.ResponseWriter, r *http.Request) {
	opts := parseListOpts(r)

	opps, err := h.arb.ListRecent(r.Context(), opts.Limit)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: list opportunities failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to list opportunities")
		return
	}
	if opps == nil {
		opps = []domain.Opportunity{}
	}

	total, err := h.arb.Count(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: count opportunities failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to count opportunities")
		return
	}

	writeJSON(w, http.StatusOK, listOpportunitiesResponse{
		Opportunities: opps,
		Total:         total,
		Limit:         opts.Limit,
	})
}

// Get returns a single opportunity.
// GET /api/arbitrage/opportunities/{id}
func (h *ArbHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing opportunity id")
		return
	}

	o, err := h.arb.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "opportunity not found")
			return
		}
		h.logger.ErrorContext(r.Context(), "handler: get opportunity failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to get opportunity")
		return
	}

	writeJSON(w, http.StatusOK, o)
}

type summaryResponse struct {
	Since          string  `json:"since"`
	TotalNetProfit float64 `json:"total_net_profit"`
	Opportunities  int64   `json:"opportunities"`
}

// Summary totals net profit over a trailing window.
// GET /api/arbitrage/summary?since=2026-08-01T00:00:00Z
func (h *ArbHandler) Summary(w http.ResponseWriter, r *http.Request) {
	since := time.Now().UTC().Add(-24 * time.Hour)
	if v := r.URL.Query().Get("since"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid since timestamp")
			return
		}
		since = t
	}

	total, err := h.arb.SumNetProfit(r.Context(), since)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: summary failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to build summary")
		return
	}

	count, err := h.arb.Count(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: count opportunities failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to count opportunities")
		return
	}

	writeJSON(w, http.StatusOK, summaryResponse{
		Since:          since.Format(time.RFC3339),
		TotalNetProfit: total,
		Opportunities:  count,
	})
}
