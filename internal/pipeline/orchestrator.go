// Package pipeline drives sources through collection, extraction and
// persistence, and reconciles duplicates afterwards.
package pipeline

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jobsift/jobsift/internal/extract"
	"github.com/jobsift/jobsift/internal/ingest"
	"github.com/jobsift/jobsift/internal/progress"
	"github.com/jobsift/jobsift/internal/urlnorm"
)

// Collector walks one source and returns its job links.
type Collector interface {
	Collect(ctx context.Context, source ingest.Source, known map[string]struct{}) ([]ingest.JobLink, error)
}

// Extractor turns one job link into a posting.
type Extractor interface {
	Extract(ctx context.Context, link ingest.JobLink, source ingest.Source) (extract.Result, error)
}

// LinkedInConfig controls the secondary search phase that runs after the
// configured sources finish.
type LinkedInConfig struct {
	Enabled   bool
	Titles    []string
	SearchURL string
}

// Orchestrator owns one run of the ingestion pipeline. Sources are processed
// strictly one at a time; a failed source aborts itself, never the run.
type Orchestrator struct {
	collector Collector
	extractor Extractor
	store     ingest.JobStore
	ledger    ingest.LinkLedger
	notifier  ingest.Notifier
	emitter   progress.Emitter
	clock     ingest.Clock
	linkedIn  LinkedInConfig
	logger    *zap.Logger
}

// New wires an Orchestrator.
func New(
	collector Collector,
	extractor Extractor,
	store ingest.JobStore,
	ledger ingest.LinkLedger,
	notifier ingest.Notifier,
	emitter progress.Emitter,
	clock ingest.Clock,
	linkedIn LinkedInConfig,
	logger *zap.Logger,
) *Orchestrator {
	return &Orchestrator{
		collector: collector,
		extractor: extractor,
		store:     store,
		ledger:    ledger,
		notifier:  notifier,
		emitter:   emitter,
		clock:     clock,
		linkedIn:  linkedIn,
		logger:    logger,
	}
}

// runStats aggregates counts across one run.
type runStats struct {
	postings int64
	titles   map[string]struct{}
}

// Run processes every source, then the LinkedIn phase, then duplicates.
// Only run-level failures (e.g. the store being unreachable) return an error.
func (o *Orchestrator) Run(ctx context.Context, runID uuid.UUID, sources []ingest.Source) error {
	started := o.clock.Now()
	id := progress.UUIDToBytes(runID)
	o.emit(progress.Event{RunID: id, Stage: progress.StageRunStart, Sources: int64(len(sources))})

	known, err := o.knownLinks(ctx)
	if err != nil {
		o.emit(progress.Event{RunID: id, Stage: progress.StageRunError, Phase: progress.PhaseAborted, Note: err.Error()})
		return err
	}

	stats := &runStats{titles: make(map[string]struct{})}
	for _, source := range sources {
		if err := ctx.Err(); err != nil {
			o.emit(progress.Event{RunID: id, Stage: progress.StageRunError, Phase: progress.PhaseAborted, Note: err.Error()})
			return fmt.Errorf("run canceled: %w", err)
		}
		o.processSource(ctx, id, source, known, stats)
	}

	for _, source := range o.linkedInSources(stats) {
		if err := ctx.Err(); err != nil {
			o.emit(progress.Event{RunID: id, Stage: progress.StageRunError, Phase: progress.PhaseAborted, Note: err.Error()})
			return fmt.Errorf("run canceled: %w", err)
		}
		o.processSource(ctx, id, source, known, stats)
	}

	if removed, err := o.dedupe(ctx, id); err != nil {
		o.logger.Warn("dedup pass failed", zap.Error(err))
	} else if removed > 0 {
		o.logger.Info("removed duplicate postings", zap.Int("count", removed))
	}

	o.emit(progress.Event{
		RunID:    id,
		Stage:    progress.StageRunDone,
		Phase:    progress.PhaseDone,
		Postings: stats.postings,
		Dur:      o.clock.Now().Sub(started),
	})
	return nil
}

// knownLinks loads the canonical links of everything already persisted.
func (o *Orchestrator) knownLinks(ctx context.Context) (map[string]struct{}, error) {
	links, err := o.store.AllCompanyJobLinks(ctx)
	if err != nil {
		return nil, fmt.Errorf("load known links: %w", err)
	}
	known := make(map[string]struct{}, len(links))
	for _, link := range links {
		known[urlnorm.Canonical(link)] = struct{}{}
	}
	return known, nil
}

func (o *Orchestrator) processSource(ctx context.Context, runID [16]byte, source ingest.Source, known map[string]struct{}, stats *runStats) {
	o.emit(progress.Event{RunID: runID, Stage: progress.StageSourceStart, Phase: progress.PhaseCollecting, Source: source.Name})

	links, err := o.collector.Collect(ctx, source, known)
	if err != nil && len(links) == 0 {
		o.logger.Warn("source aborted", zap.String("source", source.Name), zap.Error(err))
		o.emit(progress.Event{RunID: runID, Stage: progress.StageSourceAborted, Phase: progress.PhaseAborted, Source: source.Name, Note: err.Error()})
		o.notify(ctx, ingest.EventSourceAborted, source.Name+": "+err.Error())
		return
	}
	if err != nil {
		// partial collection still yields work; log and carry on
		o.logger.Warn("source collected partially", zap.String("source", source.Name), zap.Error(err))
	}

	o.emit(progress.Event{
		RunID:  runID,
		Stage:  progress.StageSourceLinks,
		Phase:  progress.PhaseClassifying,
		Source: source.Name,
		Links:  int64(len(links)),
	})

	for _, link := range links {
		if ctx.Err() != nil {
			return
		}
		o.processLink(ctx, runID, source, link, known, stats)
	}

	o.emit(progress.Event{
		RunID:  runID,
		Stage:  progress.StageSourceDone,
		Phase:  progress.PhaseDone,
		Source: source.Name,
		Links:  int64(len(links)),
	})
}

func (o *Orchestrator) processLink(ctx context.Context, runID [16]byte, source ingest.Source, link ingest.JobLink, known map[string]struct{}, stats *runStats) {
	started := o.clock.Now()
	canonical := urlnorm.Canonical(link.URL)

	skip := func(note string) {
		o.emit(progress.Event{
			RunID: runID, Stage: progress.StageLinkSkip, Phase: progress.PhaseClassifying,
			Source: source.Name, URL: link.URL, Note: note, Dur: o.clock.Now().Sub(started),
		})
	}

	if o.ledger.Has(canonical) {
		skip("already processed")
		return
	}
	if !link.IsNew {
		// already persisted by an earlier run before the ledger existed
		o.commitLedger(canonical)
		skip("already persisted")
		return
	}
	if !link.IsTechJob {
		o.commitLedger(canonical)
		skip("not a tech job")
		return
	}

	result, err := o.extractor.Extract(ctx, link, source)
	if err != nil {
		o.failLink(ctx, runID, source, link, started, err)
		return
	}
	if result.Skipped {
		o.commitLedger(canonical)
		skip("model skipped: not a software job")
		return
	}

	if err := o.persist(ctx, result.Posting, link.URL); err != nil {
		o.failLink(ctx, runID, source, link, started, err)
		return
	}

	o.commitLedger(canonical)
	known[canonical] = struct{}{}
	stats.postings++
	stats.titles[strings.ToLower(result.Posting.Title)] = struct{}{}
	o.emit(progress.Event{
		RunID: runID, Stage: progress.StageLinkDone, Phase: progress.PhasePersisting,
		Source: source.Name, URL: link.URL, Postings: 1, Dur: o.clock.Now().Sub(started),
	})
}

// failLink reports a permanent per-link failure. The link stays out of the
// ledger so the next run tries it again.
func (o *Orchestrator) failLink(ctx context.Context, runID [16]byte, source ingest.Source, link ingest.JobLink, started time.Time, err error) {
	o.logger.Warn("link failed",
		zap.String("source", source.Name),
		zap.String("url", link.URL),
		zap.Error(err),
	)
	o.emit(progress.Event{
		RunID: runID, Stage: progress.StageLinkError, Phase: progress.PhaseExtracting,
		Source: source.Name, URL: link.URL, Note: err.Error(), Dur: o.clock.Now().Sub(started),
	})
	o.notify(ctx, ingest.EventJobExtractionError, link.URL+": "+err.Error())
}

// persist resolves the company and inserts the posting.
func (o *Orchestrator) persist(ctx context.Context, posting ingest.JobPosting, link string) error {
	companyID, ok, err := o.store.CompanyIDByName(ctx, posting.CompanyName)
	if err != nil {
		return fmt.Errorf("resolve company %q: %w", posting.CompanyName, err)
	}
	if !ok {
		companyID, err = o.store.CreateCompany(ctx, ingest.Company{
			Name: posting.CompanyName,
			Logo: posting.Logo,
		})
		if err != nil {
			return fmt.Errorf("create company %q: %w", posting.CompanyName, err)
		}
	}
	if _, err := o.store.CreateJobPosting(ctx, posting, companyID, link); err != nil {
		return fmt.Errorf("create posting %q: %w", posting.Title, err)
	}
	return nil
}

// linkedInSources expands the configured and observed titles into search
// sources for the secondary phase.
func (o *Orchestrator) linkedInSources(stats *runStats) []ingest.Source {
	if !o.linkedIn.Enabled || o.linkedIn.SearchURL == "" {
		return nil
	}
	seen := make(map[string]struct{})
	var titles []string
	for _, title := range o.linkedIn.Titles {
		key := strings.ToLower(strings.TrimSpace(title))
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		titles = append(titles, strings.TrimSpace(title))
	}
	observed := make([]string, 0, len(stats.titles))
	for title := range stats.titles {
		if _, dup := seen[title]; dup {
			continue
		}
		seen[title] = struct{}{}
		observed = append(observed, title)
	}
	sort.Strings(observed)
	titles = append(titles, observed...)

	sources := make([]ingest.Source, 0, len(titles))
	for _, title := range titles {
		sources = append(sources, ingest.Source{
			Name: "linkedin " + title,
			URL:  fmt.Sprintf(o.linkedIn.SearchURL, url.QueryEscape(title)),
			Kind: ingest.SourceLinkedInSearch,
		})
	}
	return sources
}

// ExtractOne runs a single link through extraction without persisting it.
// Successful extractions are committed to the ledger so a later full run
// does not spend a second model call on the same page.
func (o *Orchestrator) ExtractOne(ctx context.Context, rawURL string) (extract.Result, error) {
	link := ingest.JobLink{URL: rawURL, IsNew: true, IsTechJob: true}
	result, err := o.extractor.Extract(ctx, link, ingest.Source{})
	if err != nil {
		return extract.Result{}, err
	}
	o.commitLedger(urlnorm.Canonical(rawURL))
	return result, nil
}

func (o *Orchestrator) commitLedger(canonical string) {
	if err := o.ledger.Add(canonical); err != nil {
		o.logger.Warn("ledger append failed", zap.String("url", canonical), zap.Error(err))
	}
}

func (o *Orchestrator) notify(ctx context.Context, event string, detail string) {
	if o.notifier == nil {
		return
	}
	if err := o.notifier.Notify(ctx, event, "system", detail); err != nil {
		o.logger.Warn("notify failed", zap.String("event", event), zap.Error(err))
	}
}

func (o *Orchestrator) emit(evt progress.Event) {
	if o.emitter == nil {
		return
	}
	if evt.TS.IsZero() {
		evt.TS = o.clock.Now()
	}
	o.emitter.Emit(evt)
}
