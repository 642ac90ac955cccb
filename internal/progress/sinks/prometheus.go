package sinks

import (
	"context"
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/jobsift/jobsift/internal/progress"
)

// PrometheusSink exports pipeline progress metrics. It owns all collectors
// for runs started/completed/running and per-source link counters.
type PrometheusSink struct {
	runsStarted   prometheus.Counter
	runsCompleted *prometheus.CounterVec
	runsRunning   prometheus.Gauge
	runRuntime    *prometheus.HistogramVec

	sourcesCompleted *prometheus.CounterVec
	linksProcessed   *prometheus.CounterVec
	postingsCreated  prometheus.Counter
	linkDuration     *prometheus.HistogramVec

	tracker *runTracker
}

// NewPrometheusSink registers the collectors against the provided registry.
func NewPrometheusSink(reg prometheus.Registerer) (*PrometheusSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PrometheusSink{
		runsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "jobsift_runs_started_total",
			Help: "Total pipeline runs that have started.",
		}),
		runsCompleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "jobsift_runs_completed_total",
			Help: "Total pipeline runs completed partitioned by result.",
		}, []string{"result"}),
		runsRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "jobsift_runs_running",
			Help: "Current number of running pipeline runs.",
		}),
		runRuntime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "jobsift_run_runtime_seconds",
			Help:    "Wall time per completed pipeline run.",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1200, 3600},
		}, []string{"result"}),
		sourcesCompleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "jobsift_sources_completed_total",
			Help: "Source completions partitioned by result.",
		}, []string{"result"}),
		linksProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "jobsift_links_processed_total",
			Help: "Link completions partitioned by outcome.",
		}, []string{"outcome"}),
		postingsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "jobsift_postings_created_total",
			Help: "Total job postings persisted.",
		}),
		linkDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "jobsift_link_duration_seconds",
			Help:    "End-to-end duration per processed link.",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		}, []string{"outcome"}),
		tracker: newRunTracker(),
	}
	for _, collector := range []prometheus.Collector{
		s.runsStarted,
		s.runsCompleted,
		s.runsRunning,
		s.runRuntime,
		s.sourcesCompleted,
		s.linksProcessed,
		s.postingsCreated,
		s.linkDuration,
	} {
		if err := reg.Register(collector); err != nil {
			return nil, fmt.Errorf("register progress collector: %w", err)
		}
	}
	return s, nil
}

// Consume updates the Prometheus collectors using the provided batch. It is
// safe for concurrent use by multiple goroutines.
func (s *PrometheusSink) Consume(_ context.Context, batch []progress.Event) error {
	for _, evt := range batch {
		s.consumeEvent(evt)
	}
	return nil
}

func (s *PrometheusSink) consumeEvent(evt progress.Event) {
	switch evt.Stage {
	case progress.StageRunStart:
		s.runsStarted.Inc()
		if s.tracker.start(evt.RunID) {
			s.runsRunning.Inc()
		}
	case progress.StageRunDone:
		s.finishRun(evt, "success")
	case progress.StageRunError:
		s.finishRun(evt, "error")
	case progress.StageSourceDone:
		s.sourcesCompleted.WithLabelValues("success").Inc()
	case progress.StageSourceAborted:
		s.sourcesCompleted.WithLabelValues("aborted").Inc()
	case progress.StageLinkDone:
		s.observeLink(evt, "done")
		if evt.Postings > 0 {
			s.postingsCreated.Add(float64(evt.Postings))
		}
	case progress.StageLinkSkip:
		s.observeLink(evt, "skip")
	case progress.StageLinkError:
		s.observeLink(evt, "error")
	}
}

func (s *PrometheusSink) finishRun(evt progress.Event, result string) {
	s.runsCompleted.WithLabelValues(result).Inc()
	if evt.Dur > 0 {
		s.runRuntime.WithLabelValues(result).Observe(evt.Dur.Seconds())
	}
	if s.tracker.complete(evt.RunID) {
		s.runsRunning.Dec()
	}
}

func (s *PrometheusSink) observeLink(evt progress.Event, outcome string) {
	s.linksProcessed.WithLabelValues(outcome).Inc()
	if evt.Dur > 0 {
		s.linkDuration.WithLabelValues(outcome).Observe(evt.Dur.Seconds())
	}
}

// Close implements the Sink interface; it performs no action.
func (s *PrometheusSink) Close(context.Context) error {
	return nil
}

type runTracker struct {
	mu      sync.Mutex
	running map[[16]byte]struct{}
}

func newRunTracker() *runTracker {
	return &runTracker{running: make(map[[16]byte]struct{})}
}

func (t *runTracker) start(id [16]byte) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.running[id]; ok {
		return false
	}
	t.running[id] = struct{}{}
	return true
}

func (t *runTracker) complete(id [16]byte) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.running[id]; !ok {
		return false
	}
	delete(t.running, id)
	return true
}
