package sinks

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/jobsift/jobsift/internal/progress"
)

func TestStateSinkFoldsRunLifecycle(t *testing.T) {
	t.Parallel()

	sink := NewStateSink()
	runUUID := uuid.New()
	runID := progress.UUIDToBytes(runUUID)
	now := time.Now().UTC()

	require.NoError(t, sink.Consume(context.Background(), []progress.Event{
		{RunID: runID, TS: now, Stage: progress.StageRunStart, Sources: 2},
		{RunID: runID, TS: now, Stage: progress.StageSourceStart, Source: "acme careers", Phase: progress.PhaseCollecting},
		{RunID: runID, TS: now, Stage: progress.StageSourceLinks, Source: "acme careers", Links: 3, Phase: progress.PhaseClassifying},
		{RunID: runID, TS: now, Stage: progress.StageLinkDone, URL: "https://acme.com/jobs/1", Postings: 1, Phase: progress.PhasePersisting},
		{RunID: runID, TS: now, Stage: progress.StageLinkSkip, URL: "https://acme.com/jobs/2"},
		{RunID: runID, TS: now, Stage: progress.StageLinkError, URL: "https://acme.com/jobs/3"},
		{RunID: runID, TS: now, Stage: progress.StageSourceDone, Source: "acme careers", Links: 3},
	}))

	state, ok := sink.Snapshot(runUUID)
	require.True(t, ok)
	require.Equal(t, runUUID.String(), state.RunID)
	require.Equal(t, "acme careers", state.CurrentSource)
	require.Equal(t, int64(2), state.TotalSources)
	require.Equal(t, int64(1), state.ProcessedSources)
	require.Equal(t, int64(3), state.TotalLinks)
	require.Equal(t, int64(3), state.ProcessedLinks)
	require.Equal(t, int64(1), state.SkippedLinks)
	require.Equal(t, int64(1), state.FailedLinks)
	require.Equal(t, int64(1), state.Postings)
	require.False(t, state.Done)

	require.NoError(t, sink.Consume(context.Background(), []progress.Event{
		{RunID: runID, TS: now, Stage: progress.StageRunDone, Phase: progress.PhaseDone},
	}))
	state, ok = sink.Snapshot(runUUID)
	require.True(t, ok)
	require.True(t, state.Done)
	require.Equal(t, string(progress.PhaseDone), state.Phase)
	require.Empty(t, state.Err)
}

func TestStateSinkGrowsTotalSourcesPastPlan(t *testing.T) {
	t.Parallel()

	sink := NewStateSink()
	runUUID := uuid.New()
	runID := progress.UUIDToBytes(runUUID)
	now := time.Now().UTC()

	// Search-term expansion starts more sources than the run planned.
	require.NoError(t, sink.Consume(context.Background(), []progress.Event{
		{RunID: runID, TS: now, Stage: progress.StageRunStart, Sources: 1},
		{RunID: runID, TS: now, Stage: progress.StageSourceStart, Source: "acme careers"},
		{RunID: runID, TS: now, Stage: progress.StageSourceDone, Source: "acme careers"},
		{RunID: runID, TS: now, Stage: progress.StageSourceStart, Source: "linkedin software engineer"},
	}))

	state, ok := sink.Snapshot(runUUID)
	require.True(t, ok)
	require.Equal(t, int64(2), state.TotalSources)
}

func TestStateSinkRunError(t *testing.T) {
	t.Parallel()

	sink := NewStateSink()
	runUUID := uuid.New()
	runID := progress.UUIDToBytes(runUUID)

	require.NoError(t, sink.Consume(context.Background(), []progress.Event{
		{RunID: runID, TS: time.Now(), Stage: progress.StageRunError, Note: "store unavailable"},
	}))

	state, ok := sink.Snapshot(runUUID)
	require.True(t, ok)
	require.True(t, state.Done)
	require.Equal(t, "store unavailable", state.Err)
}

func TestStateSinkUnknownRun(t *testing.T) {
	t.Parallel()

	sink := NewStateSink()
	_, ok := sink.Snapshot(uuid.New())
	require.False(t, ok)
}
