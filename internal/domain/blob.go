package domain

import (
	"context"
	"io"
	"time"
)

// BlobWriter uploads objects to cold storage.
type BlobWriter interface {
	// Put uploads data in a single request; suitable for small objects.
	Put(ctx context.Context, path string, data io.Reader, contentType string) error
	// PutMultipart uploads data as a concurrent multipart upload, for
	// payloads that may exceed a single-request size.
	PutMultipart(ctx context.Context, path string, data io.Reader, partSize int64) error
}

// Archiver exports aged rows from the primary store to cold storage.
// Deleting the archived rows afterwards is a separate, explicit step.
type Archiver interface {
	ArchiveListings(ctx context.Context, before time.Time) (int64, error)
	ArchiveOpportunities(ctx context.Context, before time.Time) (int64, error)
}
