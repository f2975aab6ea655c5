package handler

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flipfinder/flipfinder/internal/domain"
)

type stubListingService struct {
	ingested    []domain.Listing
	ingestErr   error
	getListing  domain.Listing
	getErr      error
	listResult  []domain.Listing
	listErr     error
	deleteErr   error
	total       int64
}

func (s *stubListingService) Ingest(_ context.Context, listings []domain.Listing) (int, error) {
	if s.ingestErr != nil {
		return 0, s.ingestErr
	}
	s.ingested = append(s.ingested, listings...)
	return len(listings), nil
}

func (s *stubListingService) Get(context.Context, domain.Marketplace, string) (domain.Listing, error) {
	return s.getListing, s.getErr
}

func (s *stubListingService) ListByMarketplace(context.Context, domain.Marketplace, domain.ListOpts) ([]domain.Listing, error) {
	return s.listResult, s.listErr
}

func (s *stubListingService) Delete(context.Context, domain.Marketplace, string) error {
	return s.deleteErr
}

func (s *stubListingService) Count(context.Context) (int64, error) {
	return s.total, nil
}

func handlerTestLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestListingHandlerIngest(t *testing.T) {
	t.Run("accepts a valid batch", func(t *testing.T) {
		svc := &stubListingService{}
		h := NewListingHandler(svc, handlerTestLogger())

		body := `{"listings":[
			{"marketplace":"FACEBOOK","listing_id":"fb-1","title":"PS5 Disc Edition","price":300,"scraped_at":"2026-08-20T12:00:00Z"},
			{"marketplace":"EBAY","listing_id":"eb-1","title":"PS5 Disc Edition","price":430}
		]}`
		req := httptest.NewRequest(http.MethodPost, "/api/listings/ingest", strings.NewReader(body))
		rec := httptest.NewRecorder()

		h.Ingest(rec, req)

		assert.Equal(t, http.StatusAccepted, rec.Code)
		assert.JSONEq(t, `{"ingested":2}`, rec.Body.String())
		require.Len(t, svc.ingested, 2)
		assert.False(t, svc.ingested[0].ScrapedAt.IsZero())
		assert.Equal(t, domain.MarketplaceEBay, svc.ingested[1].Marketplace)
	})

	t.Run("rejects bad payloads", func(t *testing.T) {
		cases := []struct {
			name string
			body string
		}{
			{"empty batch", `{"listings":[]}`},
			{"unknown marketplace", `{"listings":[{"marketplace":"GUMTREE","listing_id":"x","title":"y","price":1}]}`},
			{"negative price", `{"listings":[{"marketplace":"EBAY","listing_id":"x","title":"y","price":-1}]}`},
			{"missing title", `{"listings":[{"marketplace":"EBAY","listing_id":"x","price":1}]}`},
			{"bad url", `{"listings":[{"marketplace":"EBAY","listing_id":"x","title":"y","price":1,"url":"not a url"}]}`},
			{"unknown field", `{"listings":[{"marketplace":"EBAY","listing_id":"x","title":"y","price":1,"color":"red"}]}`},
			{"bad scraped_at", `{"listings":[{"marketplace":"EBAY","listing_id":"x","title":"y","price":1,"scraped_at":"yesterday"}]}`},
			{"not json", `listings=1`},
		}

		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				svc := &stubListingService{}
				h := NewListingHandler(svc, handlerTestLogger())

				req := httptest.NewRequest(http.MethodPost, "/api/listings/ingest", strings.NewReader(tc.body))
				rec := httptest.NewRecorder()

				h.Ingest(rec, req)

				assert.Equal(t, http.StatusBadRequest, rec.Code)
				assert.Empty(t, svc.ingested)
			})
		}
	})

	t.Run("maps service rejections to 400", func(t *testing.T) {
		svc := &stubListingService{ingestErr: domain.ErrBatchTooLarge}
		h := NewListingHandler(svc, handlerTestLogger())

		body := `{"listings":[{"marketplace":"EBAY","listing_id":"x","title":"y","price":1}]}`
		req := httptest.NewRequest(http.MethodPost, "/api/listings/ingest", strings.NewReader(body))
		rec := httptest.NewRecorder()

		h.Ingest(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestListingHandlerGet(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		svc := &stubListingService{getListing: domain.Listing{
			Marketplace: domain.MarketplaceEBay,
			ListingID:   "eb-1",
			Title:       "PS5 Disc Edition",
			Price:       430,
		}}
		h := NewListingHandler(svc, handlerTestLogger())

		req := httptest.NewRequest(http.MethodGet, "/api/listings/EBAY/eb-1", nil)
		req.SetPathValue("marketplace", "EBAY")
		req.SetPathValue("id", "eb-1")
		rec := httptest.NewRecorder()

		h.Get(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"eb-1"`)
	})

	t.Run("unknown marketplace", func(t *testing.T) {
		h := NewListingHandler(&stubListingService{}, handlerTestLogger())

		req := httptest.NewRequest(http.MethodGet, "/api/listings/GUMTREE/x", nil)
		req.SetPathValue("marketplace", "GUMTREE")
		req.SetPathValue("id", "x")
		rec := httptest.NewRecorder()

		h.Get(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("not found", func(t *testing.T) {
		svc := &stubListingService{getErr: domain.ErrNotFound}
		h := NewListingHandler(svc, handlerTestLogger())

		req := httptest.NewRequest(http.MethodGet, "/api/listings/EBAY/missing", nil)
		req.SetPathValue("marketplace", "EBAY")
		req.SetPathValue("id", "missing")
		rec := httptest.NewRecorder()

		h.Get(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestListingHandlerListByMarketplace(t *testing.T) {
	svc := &stubListingService{
		listResult: []domain.Listing{
			{Marketplace: domain.MarketplaceEBay, ListingID: "eb-1", Title: "PS5", Price: 430},
		},
		total: 1,
	}
	h := NewListingHandler(svc, handlerTestLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/listings/EBAY?limit=10", nil)
	req.SetPathValue("marketplace", "EBAY")
	rec := httptest.NewRecorder()

	h.ListByMarketplace(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"total":1`)
	assert.Contains(t, rec.Body.String(), `"limit":10`)
}

func TestListingHandlerDelete(t *testing.T) {
	t.Run("deleted", func(t *testing.T) {
		h := NewListingHandler(&stubListingService{}, handlerTestLogger())

		req := httptest.NewRequest(http.MethodDelete, "/api/listings/EBAY/eb-1", nil)
		req.SetPathValue("marketplace", "EBAY")
		req.SetPathValue("id", "eb-1")
		rec := httptest.NewRecorder()

		h.Delete(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("not found", func(t *testing.T) {
		svc := &stubListingService{deleteErr: domain.ErrNotFound}
		h := NewListingHandler(svc, handlerTestLogger())

		req := httptest.NewRequest(http.MethodDelete, "/api/listings/EBAY/missing", nil)
		req.SetPathValue("marketplace", "EBAY")
		req.SetPathValue("id", "missing")
		rec := httptest.NewRecorder()

		h.Delete(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestFeesHandler(t *testing.T) {
	h := NewFeesHandler(handlerTestLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/fees", nil)
	rec := httptest.NewRecorder()

	h.FeeSchedule(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"EBAY":13.25`)
	assert.Contains(t, rec.Body.String(), `"FACEBOOK":0`)
}

func TestHealthHandler(t *testing.T) {
	h := NewHealthHandler(handlerTestLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()

	h.HealthCheck(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}
