package sinks

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jobsift/jobsift/internal/progress"
)

// State is a point-in-time snapshot of a run, served to progress pollers.
type State struct {
	RunID            string    `json:"run_id"`
	Phase            string    `json:"phase"`
	CurrentSource    string    `json:"current_source"`
	TotalSources     int64     `json:"total_sources"`
	ProcessedSources int64     `json:"processed_sources"`
	TotalLinks       int64     `json:"total_links"`
	ProcessedLinks   int64     `json:"processed_links"`
	SkippedLinks     int64     `json:"skipped_links"`
	FailedLinks      int64     `json:"failed_links"`
	Postings         int64     `json:"postings"`
	CurrentAction    string    `json:"current_action"`
	UpdatedAt        time.Time `json:"updated_at"`
	Done             bool      `json:"done"`
	Err              string    `json:"error,omitempty"`

	seenSources int64
}

// StateSink folds the event stream into per-run snapshots so HTTP handlers
// can answer progress queries without touching the pipeline.
type StateSink struct {
	mu   sync.RWMutex
	runs map[[16]byte]*State
}

// NewStateSink creates an empty state sink.
func NewStateSink() *StateSink {
	return &StateSink{runs: make(map[[16]byte]*State)}
}

// Consume folds the batch into run snapshots.
func (s *StateSink) Consume(_ context.Context, batch []progress.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, evt := range batch {
		s.apply(evt)
	}
	return nil
}

func (s *StateSink) apply(evt progress.Event) {
	state, ok := s.runs[evt.RunID]
	if !ok {
		state = &State{RunID: uuid.UUID(evt.RunID).String()}
		s.runs[evt.RunID] = state
	}
	state.UpdatedAt = evt.TS
	if evt.Phase != "" {
		state.Phase = string(evt.Phase)
	}
	switch evt.Stage {
	case progress.StageRunStart:
		state.TotalSources = evt.Sources
		state.CurrentAction = "starting"
	case progress.StageSourceStart:
		state.CurrentSource = evt.Source
		state.CurrentAction = "collecting " + evt.Source
		// LinkedIn expansion adds sources after the run starts.
		state.seenSources++
		if state.seenSources > state.TotalSources {
			state.TotalSources = state.seenSources
		}
	case progress.StageSourceLinks:
		state.TotalLinks += evt.Links
		state.CurrentAction = "classifying " + evt.Source
	case progress.StageSourceDone, progress.StageSourceAborted:
		state.ProcessedSources++
		if evt.Stage == progress.StageSourceAborted {
			state.CurrentAction = "aborted " + evt.Source
		}
	case progress.StageLinkDone:
		state.ProcessedLinks++
		state.Postings += evt.Postings
		state.CurrentAction = "processed " + evt.URL
	case progress.StageLinkSkip:
		state.ProcessedLinks++
		state.SkippedLinks++
		state.CurrentAction = "skipped " + evt.URL
	case progress.StageLinkError:
		state.ProcessedLinks++
		state.FailedLinks++
		state.CurrentAction = "failed " + evt.URL
	case progress.StageRunDone:
		state.Done = true
		state.CurrentAction = "done"
	case progress.StageRunError:
		state.Done = true
		state.Err = evt.Note
		state.CurrentAction = "failed"
	}
}

// Snapshot returns a copy of the state for a run.
func (s *StateSink) Snapshot(runID uuid.UUID) (State, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state, ok := s.runs[progress.UUIDToBytes(runID)]
	if !ok {
		return State{}, false
	}
	return *state, true
}

// Close implements the Sink interface; it performs no action.
func (s *StateSink) Close(context.Context) error {
	return nil
}
