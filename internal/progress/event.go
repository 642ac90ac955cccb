// Package progress defines the event structures emitted by pipeline runs.
package progress

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Stage denotes the type of milestone represented by an Event.
type Stage string

// Supported progress stages.
const (
	StageRunStart      Stage = "RUN_START"
	StageRunDone       Stage = "RUN_DONE"
	StageRunError      Stage = "RUN_ERROR"
	StageSourceStart   Stage = "SOURCE_START"
	StageSourceLinks   Stage = "SOURCE_LINKS"
	StageSourceDone    Stage = "SOURCE_DONE"
	StageSourceAborted Stage = "SOURCE_ABORTED"
	StageLinkDone      Stage = "LINK_DONE"
	StageLinkSkip      Stage = "LINK_SKIP"
	StageLinkError     Stage = "LINK_ERROR"
)

// Phase names the per-source state machine position at emission time.
type Phase string

// Per-source pipeline phases.
const (
	PhaseCollecting  Phase = "COLLECTING"
	PhaseClassifying Phase = "CLASSIFYING"
	PhaseExtracting  Phase = "EXTRACTING"
	PhasePersisting  Phase = "PERSISTING"
	PhaseDeduping    Phase = "DEDUPING"
	PhaseDone        Phase = "DONE"
	PhaseAborted     Phase = "ABORTED"
)

// Event captures a single milestone of pipeline progress.
type Event struct {
	// RunID uniquely identifies a pipeline run using the 16-byte UUID form.
	RunID [16]byte
	// TS is the UTC timestamp recorded by the emitter.
	TS time.Time
	// Stage denotes which lifecycle milestone occurred.
	Stage Stage
	// Phase is the state machine position for source and link events.
	Phase Phase
	// Source names the source being processed, when applicable.
	Source string
	// URL is the job link for link-level events.
	URL string
	// Sources carries the planned source count on run starts.
	Sources int64
	// Links carries the collected link count for source collections and
	// completions.
	Links int64
	// Postings increments by one for each persisted posting.
	Postings int64
	// Dur captures execution latency for link and run completions.
	Dur time.Duration
	// Note lets emitters attach low-volume debug context (e.g. error text).
	Note string
}

// Validate performs coarse validation on Event payloads.
func (e Event) Validate() error {
	if e.RunID == [16]byte{} {
		return errors.New("run id is required")
	}
	if e.TS.IsZero() {
		return errors.New("timestamp is required")
	}
	switch e.Stage {
	case StageRunStart, StageRunDone, StageRunError:
	case StageSourceStart, StageSourceLinks, StageSourceDone, StageSourceAborted:
		if e.Source == "" {
			return errors.New("source events require a source name")
		}
	case StageLinkDone, StageLinkSkip, StageLinkError:
		if e.URL == "" {
			return errors.New("link events require a url")
		}
	default:
		return fmt.Errorf("unknown stage %q", e.Stage)
	}
	if e.Dur < 0 {
		return errors.New("duration must be >= 0")
	}
	return nil
}

// RunUUID converts the binary run ID to uuid.UUID for repositories.
func (e Event) RunUUID() uuid.UUID {
	return uuid.UUID(e.RunID)
}

// UUIDToBytes encodes a uuid.UUID into the Event form.
func UUIDToBytes(id uuid.UUID) [16]byte {
	var dest [16]byte
	copy(dest[:], id[:])
	return dest
}
