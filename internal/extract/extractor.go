// Package extract turns a job link into a structured posting by fetching the
// page and asking an LLM backend to read it.
package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/jobsift/jobsift/internal/ingest"
	"github.com/jobsift/jobsift/internal/llm"
	"github.com/jobsift/jobsift/internal/snapshot"
)

// Result is the outcome of one extraction. Skipped means the model judged
// the page out of the target domain; that is a success, not an error.
type Result struct {
	Posting     ingest.JobPosting
	Skipped     bool
	SnapshotURI string
}

// Config tunes the extraction flow.
type Config struct {
	// BaseRetryDelay seeds the backoff schedule when a rate-limit error
	// carries no explicit delay hint.
	BaseRetryDelay time.Duration
	// MaxPromptChars caps the page text handed to the backend.
	MaxPromptChars int
}

// Extractor owns the fetch -> snapshot -> prompt -> decode flow. The backend
// is fixed at construction time; swapping providers means building a new
// Extractor.
type Extractor struct {
	fetcher   ingest.Fetcher
	renderer  ingest.Fetcher
	detector  ingest.HeadlessDetector
	archiver  *snapshot.Archiver
	backend   llm.Backend
	throttler *llm.Throttler
	retry     llm.RetryPolicy
	cfg       Config
	logger    *zap.Logger
}

// New creates an Extractor. renderer and archiver may be nil; headless
// promotion and snapshotting are then disabled.
func New(
	fetcher ingest.Fetcher,
	renderer ingest.Fetcher,
	detector ingest.HeadlessDetector,
	archiver *snapshot.Archiver,
	backend llm.Backend,
	throttler *llm.Throttler,
	retry llm.RetryPolicy,
	cfg Config,
	logger *zap.Logger,
) *Extractor {
	if cfg.BaseRetryDelay <= 0 {
		cfg.BaseRetryDelay = time.Second
	}
	if cfg.MaxPromptChars <= 0 {
		cfg.MaxPromptChars = 24000
	}
	return &Extractor{
		fetcher:   fetcher,
		renderer:  renderer,
		detector:  detector,
		archiver:  archiver,
		backend:   backend,
		throttler: throttler,
		retry:     retry,
		cfg:       cfg,
		logger:    logger,
	}
}

// Backend reports which provider this extractor talks to.
func (e *Extractor) Backend() string {
	return e.backend.Name()
}

// Extract fetches the job page and extracts a posting from it.
func (e *Extractor) Extract(ctx context.Context, link ingest.JobLink, source ingest.Source) (Result, error) {
	resp, err := e.fetchPage(ctx, link)
	if err != nil {
		return Result{}, err
	}

	uri := e.archiver.Archive(ctx, link.URL, resp.Body)

	text, err := PageText(resp.Body, e.cfg.MaxPromptChars)
	if err != nil {
		return Result{}, fmt.Errorf("clean page %s: %w", link.URL, err)
	}
	if text == "" {
		return Result{}, fmt.Errorf("page %s has no visible text", link.URL)
	}

	prompt := BuildPrompt(link, source, text)
	raw, err := e.complete(ctx, prompt)
	if err != nil {
		return Result{}, fmt.Errorf("extract %s: %w", link.URL, err)
	}

	var payload map[string]any
	if err := json.Unmarshal([]byte(llm.StripFences(raw)), &payload); err != nil {
		return Result{}, fmt.Errorf("decode model output for %s: %w", link.URL, err)
	}
	if ingest.Skipped(payload) {
		return Result{Skipped: true, SnapshotURI: uri}, nil
	}

	posting := ingest.NormalizePosting(payload)
	if posting.CompanyName == "" {
		posting.CompanyName = source.CompanyName
	}
	if posting.Title == "" || posting.CompanyName == "" {
		return Result{}, fmt.Errorf("model output for %s is missing title or company", link.URL)
	}
	return Result{Posting: posting, SnapshotURI: uri}, nil
}

// fetchPage fetches over HTTP first and promotes to the headless renderer
// when the response looks like an empty client-side shell.
func (e *Extractor) fetchPage(ctx context.Context, link ingest.JobLink) (ingest.FetchResponse, error) {
	resp, err := e.fetcher.Fetch(ctx, ingest.FetchRequest{URL: link.URL})
	if err != nil {
		return ingest.FetchResponse{}, fmt.Errorf("fetch %s: %w", link.URL, err)
	}
	if resp.StatusCode != 200 {
		return ingest.FetchResponse{}, fmt.Errorf("fetch %s: status %d", link.URL, resp.StatusCode)
	}

	if e.renderer != nil && e.detector != nil && e.detector.ShouldPromote(resp) {
		e.logger.Debug("promoting to headless fetch", zap.String("url", link.URL))
		rendered, err := e.renderer.Fetch(ctx, ingest.FetchRequest{URL: link.URL, UseHeadless: true})
		if err != nil {
			return ingest.FetchResponse{}, fmt.Errorf("render %s: %w", link.URL, err)
		}
		return rendered, nil
	}
	return resp, nil
}

func (e *Extractor) complete(ctx context.Context, prompt string) (string, error) {
	return e.retry.Do(ctx, e.backend.Name(), e.cfg.BaseRetryDelay, e.logger, func() (string, error) {
		if e.throttler != nil {
			if err := e.throttler.Wait(ctx); err != nil {
				return "", err
			}
		}
		return e.backend.Complete(ctx, prompt)
	})
}
