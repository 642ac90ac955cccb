package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/jobsift/jobsift/internal/extract"
	"github.com/jobsift/jobsift/internal/ingest"
	"github.com/jobsift/jobsift/internal/pipeline"
	"github.com/jobsift/jobsift/internal/progress/sinks"
)

type stubExtractor struct {
	result extract.Result
	err    error
	urls   []string
}

func (s *stubExtractor) ExtractOne(_ context.Context, rawURL string) (extract.Result, error) {
	s.urls = append(s.urls, rawURL)
	return s.result, s.err
}

type stubQueue struct {
	id      uuid.UUID
	err     error
	sources [][]ingest.Source
}

func (q *stubQueue) Enqueue(sources []ingest.Source) (uuid.UUID, error) {
	q.sources = append(q.sources, sources)
	return q.id, q.err
}

type stubState struct {
	states map[uuid.UUID]sinks.State
}

func (s *stubState) Snapshot(runID uuid.UUID) (sinks.State, bool) {
	state, ok := s.states[runID]
	return state, ok
}

func newTestServer(t *testing.T, extractor *stubExtractor, queue *stubQueue, state *stubState, cfg Config) *Server {
	t.Helper()
	if state == nil {
		state = &stubState{states: map[uuid.UUID]sinks.State{}}
	}
	return NewServer(extractor, queue, state, nil, cfg, zaptest.NewLogger(t))
}

func doJSON(t *testing.T, handler http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoints(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, &stubExtractor{}, &stubQueue{}, nil, Config{})
	require.Equal(t, http.StatusOK, doJSON(t, s.Handler(), http.MethodGet, "/healthz", "").Code)
	require.Equal(t, http.StatusOK, doJSON(t, s.Handler(), http.MethodGet, "/readyz", "").Code)
}

func TestExtractJobDetails(t *testing.T) {
	t.Parallel()

	t.Run("Success", func(t *testing.T) {
		t.Parallel()
		extractor := &stubExtractor{result: extract.Result{
			Posting: ingest.JobPosting{Title: "Backend Engineer", CompanyName: "Acme Corp"},
		}}
		s := newTestServer(t, extractor, &stubQueue{}, nil, Config{})

		rec := doJSON(t, s.Handler(), http.MethodPost, "/v1/extract-job-details",
			`{"url": "https://acme.com/jobs/1"}`)
		require.Equal(t, http.StatusOK, rec.Code)
		require.Contains(t, rec.Body.String(), `"Backend Engineer"`)
		require.Equal(t, []string{"https://acme.com/jobs/1"}, extractor.urls)
	})

	t.Run("Skipped", func(t *testing.T) {
		t.Parallel()
		extractor := &stubExtractor{result: extract.Result{Skipped: true}}
		s := newTestServer(t, extractor, &stubQueue{}, nil, Config{})

		rec := doJSON(t, s.Handler(), http.MethodPost, "/v1/extract-job-details",
			`{"url": "https://acme.com/jobs/2"}`)
		require.Equal(t, http.StatusOK, rec.Code)
		require.Contains(t, rec.Body.String(), `"skipped":true`)
	})

	t.Run("MissingURL", func(t *testing.T) {
		t.Parallel()
		s := newTestServer(t, &stubExtractor{}, &stubQueue{}, nil, Config{})
		rec := doJSON(t, s.Handler(), http.MethodPost, "/v1/extract-job-details", `{}`)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("RelativeURL", func(t *testing.T) {
		t.Parallel()
		s := newTestServer(t, &stubExtractor{}, &stubQueue{}, nil, Config{})
		rec := doJSON(t, s.Handler(), http.MethodPost, "/v1/extract-job-details", `{"url": "/jobs/1"}`)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("ExtractionFailure", func(t *testing.T) {
		t.Parallel()
		extractor := &stubExtractor{err: errors.New("model output truncated")}
		s := newTestServer(t, extractor, &stubQueue{}, nil, Config{})
		rec := doJSON(t, s.Handler(), http.MethodPost, "/v1/extract-job-details",
			`{"url": "https://acme.com/jobs/3"}`)
		require.Equal(t, http.StatusBadGateway, rec.Code)
	})
}

func TestAutoCreateJobPosting(t *testing.T) {
	t.Parallel()

	defaultSources := []ingest.Source{{Name: "acme careers", URL: "https://acme.com/careers", Kind: ingest.SourceCareerPage}}

	t.Run("DefaultSources", func(t *testing.T) {
		t.Parallel()
		queue := &stubQueue{id: uuid.New()}
		s := newTestServer(t, &stubExtractor{}, queue, nil, Config{DefaultSources: defaultSources})

		rec := doJSON(t, s.Handler(), http.MethodPost, "/v1/auto-create-job-posting", "")
		require.Equal(t, http.StatusAccepted, rec.Code)
		require.Contains(t, rec.Body.String(), queue.id.String())
		require.Len(t, queue.sources, 1)
		require.Equal(t, defaultSources, queue.sources[0])
	})

	t.Run("ExplicitSources", func(t *testing.T) {
		t.Parallel()
		queue := &stubQueue{id: uuid.New()}
		s := newTestServer(t, &stubExtractor{}, queue, nil, Config{DefaultSources: defaultSources})

		rec := doJSON(t, s.Handler(), http.MethodPost, "/v1/auto-create-job-posting",
			`{"sources": [{"name": "beta board", "url": "https://boards.greenhouse.io/beta", "kind": "board"}]}`)
		require.Equal(t, http.StatusAccepted, rec.Code)
		require.Len(t, queue.sources, 1)
		require.Equal(t, ingest.SourceBoard, queue.sources[0][0].Kind)
	})

	t.Run("BadKind", func(t *testing.T) {
		t.Parallel()
		queue := &stubQueue{id: uuid.New()}
		s := newTestServer(t, &stubExtractor{}, queue, nil, Config{})
		rec := doJSON(t, s.Handler(), http.MethodPost, "/v1/auto-create-job-posting",
			`{"sources": [{"url": "https://acme.com/careers", "kind": "rss"}]}`)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("NoSources", func(t *testing.T) {
		t.Parallel()
		s := newTestServer(t, &stubExtractor{}, &stubQueue{}, nil, Config{})
		rec := doJSON(t, s.Handler(), http.MethodPost, "/v1/auto-create-job-posting", "")
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("QueueFull", func(t *testing.T) {
		t.Parallel()
		queue := &stubQueue{err: pipeline.ErrQueueFull}
		s := newTestServer(t, &stubExtractor{}, queue, nil, Config{DefaultSources: defaultSources})
		rec := doJSON(t, s.Handler(), http.MethodPost, "/v1/auto-create-job-posting", "")
		require.Equal(t, http.StatusTooManyRequests, rec.Code)
	})
}

func TestRunProgress(t *testing.T) {
	t.Parallel()

	runID := uuid.New()
	state := &stubState{states: map[uuid.UUID]sinks.State{
		runID: {RunID: runID.String(), Phase: "EXTRACTING", ProcessedLinks: 3},
	}}
	s := newTestServer(t, &stubExtractor{}, &stubQueue{}, state, Config{})

	rec := doJSON(t, s.Handler(), http.MethodGet, "/v1/runs/"+runID.String()+"/progress", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"EXTRACTING"`)

	rec = doJSON(t, s.Handler(), http.MethodGet, "/v1/runs/"+uuid.NewString()+"/progress", "")
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, s.Handler(), http.MethodGet, "/v1/runs/not-a-uuid/progress", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAPIKeyMiddleware(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, &stubExtractor{}, &stubQueue{}, nil, Config{
		Auth: AuthConfig{Enabled: true, APIKey: "sekret"},
	})

	rec := doJSON(t, s.Handler(), http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusForbidden, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-API-Key", "sekret")
	ok := httptest.NewRecorder()
	s.Handler().ServeHTTP(ok, req)
	require.Equal(t, http.StatusOK, ok.Code)
}
