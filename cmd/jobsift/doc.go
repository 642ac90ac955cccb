// Package main hosts the job ingestion service entrypoint.
//
// Architecture overview:
//   - HTTP API: internal/api.Server exposes health, metrics, a synchronous
//     single-URL extraction endpoint, a pipeline trigger that enqueues a full
//     run, and per-run progress lookups. An optional API key guards the /v1
//     routes.
//   - Run queue: triggered runs flow through a bounded in-memory queue drained
//     by a single pipeline worker so at most one run touches the job boards at
//     a time. Context cancellation stops the worker cleanly on shutdown.
//   - Collection: internal/collect walks each configured career page, board,
//     or LinkedIn search with the Colly-based fetcher, paginating until a page
//     yields nothing new. Links already recorded in the append-only ledger or
//     already persisted are skipped before any model call.
//   - Extraction: internal/extract fetches the posting page (promoting to a
//     headless Chromedp fetch when the heuristic detector flags a thin or
//     script-rendered body), archives the raw HTML to the configured blob
//     store (memory/local/GCS), strips the page to text, and asks the
//     configured model backend (Gemini or OpenAI) for a structured posting.
//     Requests are throttled per backend and rate-limit errors are retried
//     with the delay the provider names.
//   - Persistence & fanout: postings land in Postgres (or the in-memory store)
//     keyed by a content signature; after each run, signature duplicates are
//     pruned keeping the oldest row. Extraction failures and aborted sources
//     are published to Pub/Sub when a topic is configured. Progress events are
//     batched through a hub into log, Prometheus, and state sinks.
//   - Configuration & plumbing: Viper populates config from env/files; zap
//     provides structured logging; Prometheus metrics are exported on
//     /metrics. The process reacts to SIGTERM for graceful drain: the HTTP
//     server stops first, then the in-flight run finishes or is cancelled.
//
// Run locally: go run ./cmd/jobsift -config config.yaml (or rely solely on
// JOBSIFT_* env overrides).
package main
