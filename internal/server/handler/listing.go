package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/flipfinder/flipfinder/internal/domain"
)

// ListingService defines what the listing handler needs from the service
// layer.
type ListingService interface {
	Ingest(ctx context.Context, listings []domain.Listing) (int, error)
	Get(ctx context.Context, marketplace domain.Marketplace, listingID string) (domain.Listing, error)
	ListByMarketplace(ctx context.Context, marketplace domain.Marketplace, opts domain.ListOpts) ([]domain.Listing, error)
	Delete(ctx context.Context, marketplace domain.Marketplace, listingID string) error
	Count(ctx context.Context) (int64, error)
}

// ListingHandler serves the listing ingest and query endpoints.
type ListingHandler struct {
	listings ListingService
	logger   *slog.Logger
}

// NewListingHandler creates a ListingHandler.
func NewListingHandler(listings ListingService, logger *slog.Logger) *ListingHandler {
	return &ListingHandler{
		listings: listings,
		logger:   logger,
	}
}

// ingestListing is the wire shape the browser extension pushes.
type ingestListing struct {
	Marketplace string   `json:"marketplace" validate:"required,oneof=EBAY AMAZON FACEBOOK CRAIGSLIST OFFERUP MERCARI POSHMARK"`
	ListingID   string   `json:"listing_id" validate:"required"`
	Title       string   `json:"title" validate:"required"`
	Price       float64  `json:"price" validate:"gte=0"`
	URL         string   `json:"url" validate:"omitempty,url"`
	Condition   string   `json:"condition"`
	Images      []string `json:"images" validate:"omitempty,dive,url"`
	ScrapedAt   string   `json:"scraped_at" validate:"omitempty"`
}

type ingestRequest struct {
	Listings []ingestListing `json:"listings" validate:"required,min=1,max=1000,dive"`
}

type ingestResponse struct {
	Ingested int `json:"ingested"`
}

// Ingest accepts a batch of scraped listings from the extension.
// POST /api/listings/ingest
func (h *ListingHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	var req ingestRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid ingest payload: "+err.Error())
		return
	}

	listings := make([]domain.Listing, 0, len(req.Listings))
	for _, in := range req.Listings {
		l := domain.Listing{
			Marketplace: domain.Marketplace(in.Marketplace),
			ListingID:   in.ListingID,
			Title:       in.Title,
			Price:       in.Price,
			URL:         in.URL,
			Condition:   in.Condition,
			Images:      in.Images,
		}
		if in.ScrapedAt != "" {
			t, err := time.Parse(time.RFC3339, in.ScrapedAt)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid scraped_at: "+in.ScrapedAt)
				return
			}
			l.ScrapedAt = t
		}
		listings = append(listings, l)
	}

	count, err := h.listings.Ingest(r.Context(), listings)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrBatchTooLarge), errors.Is(err, domain.ErrInvalidListing):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			h.logger.ErrorContext(r.Context(), "handler: ingest failed",
				slog.String("error", err.Error()),
			)
			writeError(w, http.StatusInternalServerError, "failed to ingest listings")
		}
		return
	}

	writeJSON(w, http.StatusAccepted, ingestResponse{Ingested: count})
}

type listListingsResponse struct {
	Listings []domain.Listing `json:"listings"`
	Total    int64            `json:"total"`
	Limit    int              `json:"limit"`
	Offset   int              `json:"offset"`
}

// ListByMarketplace returns listings from one marketplace.
// GET /api/listings/{marketplace}?limit=50&offset=0&since=...&until=...
func (h *ListingHandler) ListByMarketplace(w http.ResponseWriter, r *http.Request) {
	marketplace := domain.Marketplace(pathParam(r, "marketplace"))
	if !marketplace.Valid() {
		writeError(w, http.StatusBadRequest, "unknown marketplace")
		return
	}

	opts := parseListOpts(r)

	listings, err := h.listings.ListByMarketplace(r.Context(), marketplace, opts)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: list listings failed",
			slog.String("marketplace", string(marketplace)),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to list listings")
		return
	}

	total, err := h.listings.Count(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: count listings failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to count listings")
		return
	}

	writeJSON(w, http.StatusOK, listListingsResponse{
		Listings: listings,
		Total:    total,
		Limit:    opts.Limit,
		Offset:   opts.Offset,
	})
}

// Get returns a single listing.
// GET /api/listings/{marketplace}/{id}
func (h *ListingHandler) Get(w http.ResponseWriter, r *http.Request) {
	marketplace := domain.Marketplace(pathParam(r, "marketplace"))
	id := pathParam(r, "id")
	if !marketplace.Valid() || id == "" {
		writeError(w, http.StatusBadRequest, "invalid listing reference")
		return
	}

	l, err := h.listings.Get(r.Context(), marketplace, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "listing not found")
			return
		}
		h.logger.ErrorContext(r.Context(), "handler: get listing failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to get listing")
		return
	}

	writeJSON(w, http.StatusOK, l)
}

// Delete removes a listing.
// DELETE /api/listings/{marketplace}/{id}
func (h *ListingHandler) Delete(w http.ResponseWriter, r *http.Request) {
	marketplace := domain.Marketplace(pathParam(r, "marketplace"))
	id := pathParam(r, "id")
	if !marketplace.Valid() || id == "" {
		writeError(w, http.StatusBadRequest, "invalid listing reference")
		return
	}

	if err := h.listings.Delete(r.Context(), marketplace, id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "listing not found")
			return
		}
		h.logger.ErrorContext(r.Context(), "handler: delete listing failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to delete listing")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
