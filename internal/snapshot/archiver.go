// Package snapshot archives raw page HTML before extraction so failed or
// disputed extractions can be replayed against the content that was actually
// fetched.
package snapshot

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/jobsift/jobsift/internal/hash/sha256"
	"github.com/jobsift/jobsift/internal/ingest"
	"github.com/jobsift/jobsift/internal/urlnorm"
)

// ArchiverConfig controls object naming and metadata.
type ArchiverConfig struct {
	// Prefix is the top-level directory under which snapshots are stored.
	Prefix string
	// ContentType is attached to every stored object.
	ContentType string
}

// Archiver writes one HTML object per fetched page. Archival failures are
// logged and swallowed: a missing snapshot never blocks extraction.
type Archiver struct {
	store  ingest.BlobStore
	cfg    ArchiverConfig
	clock  ingest.Clock
	hasher *sha256.Hasher
	logger *zap.Logger
}

// NewArchiver creates an archiver over the given blob store. A nil store
// disables archival.
func NewArchiver(store ingest.BlobStore, cfg ArchiverConfig, clock ingest.Clock, logger *zap.Logger) *Archiver {
	if cfg.Prefix == "" {
		cfg.Prefix = "snapshots"
	}
	if cfg.ContentType == "" {
		cfg.ContentType = "text/html; charset=utf-8"
	}
	return &Archiver{
		store:  store,
		cfg:    cfg,
		clock:  clock,
		hasher: sha256.New(),
		logger: logger,
	}
}

// Archive stores the page body and returns the snapshot URI. It returns ""
// when archival is disabled or fails.
func (a *Archiver) Archive(ctx context.Context, pageURL string, body []byte) string {
	if a == nil || a.store == nil || len(body) == 0 {
		return ""
	}
	path := a.objectPath(pageURL)
	uri, err := a.store.PutObject(ctx, path, a.cfg.ContentType, body)
	if err != nil {
		a.logger.Warn("snapshot archive failed",
			zap.String("url", pageURL),
			zap.String("path", path),
			zap.Error(err),
		)
		return ""
	}
	return uri
}

// objectPath builds a stable layout: <prefix>/<date>/<host>/<digest>.html.
// The digest covers the full URL so two links on the same host never collide.
func (a *Archiver) objectPath(pageURL string) string {
	host := urlnorm.Host(pageURL)
	if host == "" {
		host = "unknown"
	}
	digest := a.hasher.Hash([]byte(urlnorm.Canonical(pageURL)))
	return fmt.Sprintf("%s/%s/%s/%s.html",
		a.cfg.Prefix, a.clock.Now().Format("2006-01-02"), host, digest[:16])
}
