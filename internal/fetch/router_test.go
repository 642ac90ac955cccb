package fetch

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jobsift/jobsift/internal/ingest"
)

type countingFetcher struct {
	calls int
	name  string
}

func (f *countingFetcher) Fetch(_ context.Context, request ingest.FetchRequest) (ingest.FetchResponse, error) {
	f.calls++
	return ingest.FetchResponse{URL: request.URL, StatusCode: 200, Body: []byte(f.name)}, nil
}

func TestRouterSendsHeadlessRequestsToRenderer(t *testing.T) {
	t.Parallel()

	static := &countingFetcher{name: "static"}
	headless := &countingFetcher{name: "headless"}
	router := NewRouter(static, headless)

	resp, err := router.Fetch(context.Background(), ingest.FetchRequest{
		URL:         "https://www.linkedin.com/jobs/search?keywords=go",
		UseHeadless: true,
	})
	require.NoError(t, err)
	require.Equal(t, "headless", string(resp.Body))
	require.Equal(t, 0, static.calls)
	require.Equal(t, 1, headless.calls)
}

func TestRouterDefaultsToStatic(t *testing.T) {
	t.Parallel()

	static := &countingFetcher{name: "static"}
	headless := &countingFetcher{name: "headless"}
	router := NewRouter(static, headless)

	resp, err := router.Fetch(context.Background(), ingest.FetchRequest{URL: "https://acme.com/careers"})
	require.NoError(t, err)
	require.Equal(t, "static", string(resp.Body))
	require.Equal(t, 1, static.calls)
	require.Equal(t, 0, headless.calls)
}

func TestRouterFallsBackWhenRendererMissing(t *testing.T) {
	t.Parallel()

	static := &countingFetcher{name: "static"}
	router := NewRouter(static, nil)

	resp, err := router.Fetch(context.Background(), ingest.FetchRequest{
		URL:         "https://www.linkedin.com/jobs/search?keywords=go",
		UseHeadless: true,
	})
	require.NoError(t, err)
	require.Equal(t, "static", string(resp.Body))
	require.Equal(t, 1, static.calls)
}
