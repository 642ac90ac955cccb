package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/jobsift/jobsift/internal/id/uuid"
	"github.com/jobsift/jobsift/internal/ingest"
)

func TestRunnerProcessesQueuedRuns(t *testing.T) {
	t.Parallel()

	source := ingest.Source{Name: "acme careers", URL: "https://acme.com/careers", Kind: ingest.SourceCareerPage}
	collector := &fakeCollector{links: map[string][]ingest.JobLink{
		"acme careers": {
			{URL: "https://acme.com/jobs/1", Title: "Backend Engineer", IsNew: true, IsTechJob: true},
		},
	}}
	extractor := newFakeExtractor()
	extractor.results["https://acme.com/jobs/1"] = posting("Backend Engineer")
	f := newFixture(t, collector, extractor, LinkedInConfig{})

	runner := NewRunner(f.orchestrator, uuid.New(), 2, zaptest.NewLogger(t))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	runner.Start(ctx)

	runID, err := runner.Enqueue([]ingest.Source{source})
	require.NoError(t, err)
	require.NotEqual(t, "00000000-0000-0000-0000-000000000000", runID.String())

	require.Eventually(t, func() bool {
		return f.store.PostingCount() == 1
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	runner.Wait()
}

func TestRunnerRejectsEmptyAndOverflow(t *testing.T) {
	t.Parallel()

	f := newFixture(t, &fakeCollector{}, newFakeExtractor(), LinkedInConfig{})
	runner := NewRunner(f.orchestrator, uuid.New(), 1, zaptest.NewLogger(t))
	// worker not started, so the queue fills up

	_, err := runner.Enqueue(nil)
	require.Error(t, err)

	source := ingest.Source{Name: "acme", URL: "https://acme.com/careers"}
	_, err = runner.Enqueue([]ingest.Source{source})
	require.NoError(t, err)

	_, err = runner.Enqueue([]ingest.Source{source})
	require.ErrorIs(t, err, ErrQueueFull)
}
