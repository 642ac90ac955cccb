package collect

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/jobsift/jobsift/internal/ingest"
)

type fakeFetcher struct {
	pages    map[string]string
	statuses map[string]int
	errs     map[string]error
	requests []ingest.FetchRequest
}

func (f *fakeFetcher) Fetch(_ context.Context, request ingest.FetchRequest) (ingest.FetchResponse, error) {
	f.requests = append(f.requests, request)
	if err, ok := f.errs[request.URL]; ok {
		return ingest.FetchResponse{}, err
	}
	status, ok := f.statuses[request.URL]
	if !ok {
		status = 200
	}
	return ingest.FetchResponse{
		URL:        request.URL,
		FinalURL:   request.URL,
		StatusCode: status,
		Body:       []byte(f.pages[request.URL]),
	}, nil
}

func careerPage(links ...string) string {
	body := "<html><body><nav><a href='/careers'>Careers</a></nav><ul>"
	for _, l := range links {
		body += l
	}
	return body + "</ul></body></html>"
}

func anchor(href, title string) string {
	return fmt.Sprintf("<li><a href=%q>%s</a></li>", href, title)
}

func TestCollectCareerPage(t *testing.T) {
	t.Parallel()

	source := ingest.Source{
		Name:        "acme careers",
		URL:         "https://acme.com/careers",
		Kind:        ingest.SourceCareerPage,
		CompanyName: "Acme Corp",
	}
	fetcher := &fakeFetcher{pages: map[string]string{
		"https://acme.com/careers": careerPage(
			anchor("/careers/jobs/1", "Backend Engineer"),
			anchor("https://acme.com/careers/jobs/2", "Office Manager"),
			anchor("https://evil.example.com/jobs/3", "Staff Engineer"),
			anchor("mailto:hr@acme.com", "Contact"),
		),
		"https://acme.com/careers?page=2": careerPage(),
	}}

	collector := New(fetcher, Config{}, zaptest.NewLogger(t))
	links, err := collector.Collect(context.Background(), source, nil)
	require.NoError(t, err)
	require.Len(t, links, 2, "off-host and mailto anchors are dropped")

	require.Equal(t, "https://acme.com/careers/jobs/1", links[0].URL)
	require.Equal(t, "Backend Engineer", links[0].Title)
	require.True(t, links[0].IsTechJob)
	require.True(t, links[0].IsNew)
	require.Equal(t, ingest.ApplyDirect, links[0].Apply)

	require.Equal(t, "Office Manager", links[1].Title)
	require.False(t, links[1].IsTechJob)
}

func TestCollectPaginationStopsOnEmptyPage(t *testing.T) {
	t.Parallel()

	source := ingest.Source{Name: "acme", URL: "https://acme.com/careers", Kind: ingest.SourceCareerPage}
	fetcher := &fakeFetcher{pages: map[string]string{
		"https://acme.com/careers":        careerPage(anchor("/jobs/1", "SWE")),
		"https://acme.com/careers?page=2": careerPage(anchor("/jobs/2", "SRE")),
		// page 3 repeats page 2; no fresh links means stop
		"https://acme.com/careers?page=3": careerPage(anchor("/jobs/2", "SRE")),
		"https://acme.com/careers?page=4": careerPage(anchor("/jobs/99", "Unreachable")),
	}}

	collector := New(fetcher, Config{MaxPages: 10}, zaptest.NewLogger(t))
	links, err := collector.Collect(context.Background(), source, nil)
	require.NoError(t, err)
	require.Len(t, links, 2)
	require.Len(t, fetcher.requests, 3, "walk must stop after the first stale page")
}

func TestCollectHonorsMaxPages(t *testing.T) {
	t.Parallel()

	source := ingest.Source{Name: "acme", URL: "https://acme.com/careers", Kind: ingest.SourceCareerPage}
	fetcher := &fakeFetcher{pages: map[string]string{
		"https://acme.com/careers":        careerPage(anchor("/jobs/1", "SWE 1")),
		"https://acme.com/careers?page=2": careerPage(anchor("/jobs/2", "SWE 2")),
		"https://acme.com/careers?page=3": careerPage(anchor("/jobs/3", "SWE 3")),
	}}

	collector := New(fetcher, Config{MaxPages: 2}, zaptest.NewLogger(t))
	links, err := collector.Collect(context.Background(), source, nil)
	require.NoError(t, err)
	require.Len(t, links, 2)
}

func TestCollectMarksKnownLinks(t *testing.T) {
	t.Parallel()

	source := ingest.Source{Name: "acme", URL: "https://acme.com/careers", Kind: ingest.SourceCareerPage}
	fetcher := &fakeFetcher{pages: map[string]string{
		"https://acme.com/careers": careerPage(
			anchor("/jobs/1", "Backend Engineer"),
			anchor("/jobs/2", "Platform Engineer"),
		),
		"https://acme.com/careers?page=2": careerPage(),
	}}

	known := map[string]struct{}{"https://acme.com/jobs/1": {}}
	collector := New(fetcher, Config{}, zaptest.NewLogger(t))
	links, err := collector.Collect(context.Background(), source, known)
	require.NoError(t, err)
	require.Len(t, links, 2)
	require.False(t, links[0].IsNew)
	require.True(t, links[1].IsNew)
}

func TestCollectReturnsPartialLinksOnError(t *testing.T) {
	t.Parallel()

	source := ingest.Source{Name: "acme", URL: "https://acme.com/careers", Kind: ingest.SourceCareerPage}
	fetcher := &fakeFetcher{
		pages: map[string]string{
			"https://acme.com/careers": careerPage(anchor("/jobs/1", "SWE")),
		},
		statuses: map[string]int{
			"https://acme.com/careers?page=2": 500,
		},
	}

	collector := New(fetcher, Config{}, zaptest.NewLogger(t))
	links, err := collector.Collect(context.Background(), source, nil)
	require.Error(t, err)
	require.Len(t, links, 1)
}

func TestCollectLinkedInCards(t *testing.T) {
	t.Parallel()

	const page = `<html><body>
		<div class="base-card">
			<a class="base-card__full-link" href="https://www.linkedin.com/jobs/view/swe-at-acme-123"></a>
			<h3 class="base-search-card__title"> Software Engineer </h3>
			<span>Easy Apply</span>
		</div>
		<div class="base-card">
			<a class="base-card__full-link" href="https://www.linkedin.com/jobs/view/chef-456"></a>
			<h3 class="base-search-card__title">Head Chef</h3>
		</div>
	</body></html>`

	source := ingest.Source{
		Name: "linkedin software engineer",
		URL:  "https://www.linkedin.com/jobs/search?keywords=software+engineer",
		Kind: ingest.SourceLinkedInSearch,
	}
	fetcher := &fakeFetcher{pages: map[string]string{
		source.URL: page,
		"https://www.linkedin.com/jobs/search?keywords=software+engineer&start=25": "<html><body></body></html>",
	}}

	collector := New(fetcher, Config{}, zaptest.NewLogger(t))
	links, err := collector.Collect(context.Background(), source, nil)
	require.NoError(t, err)
	require.Len(t, links, 2)

	require.Equal(t, "Software Engineer", links[0].Title)
	require.True(t, links[0].IsTechJob)
	require.Equal(t, ingest.ApplyEasy, links[0].Apply)
	require.Equal(t, ingest.ApplyExternal, links[1].Apply)
	require.False(t, links[1].IsTechJob)

	require.True(t, fetcher.requests[0].UseHeadless, "search pages render client side")
}

func TestCollectKeepsHostedBoardHandoffs(t *testing.T) {
	t.Parallel()

	source := ingest.Source{Name: "acme", URL: "https://acme.com/careers", Kind: ingest.SourceCareerPage}
	fetcher := &fakeFetcher{pages: map[string]string{
		"https://acme.com/careers": careerPage(
			anchor("https://jobs.ashbyhq.com/acme/123", "Data Engineer"),
			anchor("https://boards.greenhouse.io/acme/jobs/9", "Platform Engineer"),
			anchor("https://random.example.com/jobs/1", "SWE"),
		),
		"https://acme.com/careers?page=2": careerPage(),
	}}

	collector := New(fetcher, Config{}, zaptest.NewLogger(t))
	links, err := collector.Collect(context.Background(), source, nil)
	require.NoError(t, err)
	require.Len(t, links, 2, "board hosts are kept, unknown off-host anchors dropped")
	require.Equal(t, "https://jobs.ashbyhq.com/acme/123", links[0].URL)
	require.Equal(t, "https://boards.greenhouse.io/acme/jobs/9", links[1].URL)
}

func TestDetectPlatform(t *testing.T) {
	t.Parallel()

	tests := []struct {
		url  string
		want Platform
	}{
		{"https://www.linkedin.com/jobs/search?keywords=go", PlatformLinkedIn},
		{"https://boards.greenhouse.io/acme", PlatformGreenhouse},
		{"https://job-boards.greenhouse.io/acme", PlatformGreenhouse},
		{"https://jobs.lever.co/acme", PlatformLever},
		{"https://jobs.ashbyhq.com/acme", PlatformAshby},
		{"https://acme.com/careers", PlatformGeneric},
	}
	for _, tc := range tests {
		require.Equal(t, tc.want, DetectPlatform(tc.url), tc.url)
	}
}
