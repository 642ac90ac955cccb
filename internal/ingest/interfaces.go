package ingest

import (
	"context"
	"time"
)

// Notification event types handed to the Notifier collaborator.
const (
	EventJobExtractionError = "JOB_EXTRACTION_ERROR"
	EventSourceAborted      = "JOB_SOURCE_ABORTED"
)

// JobStore is the sole persistence boundary for companies and postings. The
// pipeline never issues SQL outside an implementation of this interface.
type JobStore interface {
	CompanyIDByName(ctx context.Context, name string) (int64, bool, error)
	CreateCompany(ctx context.Context, company Company) (int64, error)
	CreateJobPosting(ctx context.Context, posting JobPosting, companyID int64, link string) (int64, error)
	DuplicateJobPostings(ctx context.Context) ([]DuplicateGroup, error)
	AllCompanyJobLinks(ctx context.Context) ([]string, error)
	DeleteJobPostings(ctx context.Context, ids []int64) error
}

// Notifier delivers admin alerts on unrecoverable per-link failures.
type Notifier interface {
	Notify(ctx context.Context, event string, actorID string, detail string) error
}

// LinkLedger is the durable set of already-ingested URLs. Membership is
// monotonically non-decreasing: Add is the only mutation and it is called
// once per link, only after that link's extraction fully succeeded.
type LinkLedger interface {
	Has(url string) bool
	Add(url string) error
}

// Fetcher fetches a URL and returns the body plus metadata.
type Fetcher interface {
	Fetch(ctx context.Context, request FetchRequest) (FetchResponse, error)
}

// HeadlessDetector decides whether a static fetch should be retried through
// a rendering browser.
type HeadlessDetector interface {
	ShouldPromote(probe FetchResponse) bool
}

// BlobStore writes raw page snapshots and returns a URI.
type BlobStore interface {
	PutObject(ctx context.Context, path string, contentType string, data []byte) (string, error)
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}

// IDGenerator produces run IDs (UUIDs).
type IDGenerator interface {
	NewID() (string, error)
}
