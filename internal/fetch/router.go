package fetch

import (
	"context"

	"github.com/jobsift/jobsift/internal/ingest"
)

// Router dispatches fetches between the static client and the headless
// renderer based on FetchRequest.UseHeadless. LinkedIn search pages render
// their job cards client side, so callers that know a page needs a browser
// set the flag and the Router sends it to the renderer.
type Router struct {
	static   ingest.Fetcher
	headless ingest.Fetcher
}

// NewRouter builds a Router. headless may be nil; requests asking for it
// then fall back to the static fetcher.
func NewRouter(static, headless ingest.Fetcher) *Router {
	return &Router{static: static, headless: headless}
}

// Fetch implements ingest.Fetcher.
func (r *Router) Fetch(ctx context.Context, request ingest.FetchRequest) (ingest.FetchResponse, error) {
	if request.UseHeadless && r.headless != nil {
		return r.headless.Fetch(ctx, request)
	}
	return r.static.Fetch(ctx, request)
}
