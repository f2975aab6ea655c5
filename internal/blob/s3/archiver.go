package s3blob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/flipfinder/flipfinder/internal/domain"
)

// Narrow store views required by the archiver. The Postgres stores satisfy
// these through their existing time-ranged list methods.

// ListingArchiveStore provides read access to stale listings.
type ListingArchiveStore interface {
	ListScrapedBefore(ctx context.Context, before time.Time) ([]domain.Listing, error)
}

// OpportunityArchiveStore provides read access to old opportunities.
type OpportunityArchiveStore interface {
	ListDetectedBefore(ctx context.Context, before time.Time) ([]domain.Opportunity, error)
}

// Archiver implements domain.Archiver: it queries aged rows, serializes
// them to JSONL, and uploads the result to cold storage, with a small
// manifest object next to each export. It never deletes from the primary
// store; the pipeline's pruner does that separately.
type Archiver struct {
	writer        domain.BlobWriter
	listings      ListingArchiveStore
	opportunities OpportunityArchiveStore
	audit         domain.AuditStore
}

var _ domain.Archiver = (*Archiver)(nil)

// NewArchiver creates an Archiver over the given blob writer and stores.
func NewArchiver(
	writer domain.BlobWriter,
	listings ListingArchiveStore,
	opportunities OpportunityArchiveStore,
	audit domain.AuditStore,
) *Archiver {
	return &Archiver{
		writer:        writer,
		listings:      listings,
		opportunities: opportunities,
		audit:         audit,
	}
}

// ArchiveListings exports listings scraped before the cutoff to
// archive/listings/YYYY-MM.jsonl and returns how many rows were exported.
func (a *Archiver) ArchiveListings(ctx context.Context, before time.Time) (int64, error) {
	listings, err := a.listings.ListScrapedBefore(ctx, before)
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive listings query: %w", err)
	}
	return archive(ctx, a, "listings", before, listings)
}

// ArchiveOpportunities exports opportunities detected before the cutoff to
// archive/opportunities/YYYY-MM.jsonl and returns how many rows were
// exported.
func (a *Archiver) ArchiveOpportunities(ctx context.Context, before time.Time) (int64, error) {
	opps, err := a.opportunities.ListDetectedBefore(ctx, before)
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive opportunities query: %w", err)
	}
	return archive(ctx, a, "opportunities", before, opps)
}

func archive[T any](ctx context.Context, a *Archiver, kind string, before time.Time, records []T) (int64, error) {
	if len(records) == 0 {
		return 0, nil
	}

	buf, err := marshalJSONL(records)
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive %s marshal: %w", kind, err)
	}

	path := archivePath(kind, before)
	// Exports can grow past a single-request comfort zone once listings pile
	// up, so always go through the multipart path.
	if err := a.writer.PutMultipart(ctx, path, bytes.NewReader(buf), minPartSize); err != nil {
		return 0, fmt.Errorf("s3blob: archive %s upload: %w", kind, err)
	}

	count := int64(len(records))

	manifest, err := json.Marshal(map[string]any{
		"kind":       kind,
		"path":       path,
		"count":      count,
		"bytes":      len(buf),
		"before":     before.Format(time.RFC3339),
		"written_at": time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return count, fmt.Errorf("s3blob: archive %s manifest marshal: %w", kind, err)
	}
	if err := a.writer.Put(ctx, path+".manifest.json", bytes.NewReader(manifest), "application/json"); err != nil {
		return count, fmt.Errorf("s3blob: archive %s manifest upload: %w", kind, err)
	}

	if err := a.audit.Log(ctx, "archive."+kind, map[string]any{
		"path":   path,
		"count":  count,
		"before": before.Format(time.RFC3339),
	}); err != nil {
		return count, fmt.Errorf("s3blob: archive %s audit log: %w", kind, err)
	}

	return count, nil
}

// archivePath partitions exports by the year-month of the cutoff:
//
//	archive/listings/2026-08.jsonl
//	archive/opportunities/2026-08.jsonl
func archivePath(kind string, before time.Time) string {
	return fmt.Sprintf("archive/%s/%s.jsonl", kind, before.Format("2006-01"))
}

// marshalJSONL serializes records as newline-delimited JSON.
func marshalJSONL[T any](records []T) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	for i, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return nil, fmt.Errorf("jsonl encode record %d: %w", i, err)
		}
	}
	return buf.Bytes(), nil
}
