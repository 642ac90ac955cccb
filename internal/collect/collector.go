// Package collect walks job sources page by page and harvests posting links.
package collect

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/jobsift/jobsift/internal/classify"
	"github.com/jobsift/jobsift/internal/ingest"
	"github.com/jobsift/jobsift/internal/urlnorm"
)

// linkedInPageSize is how many cards a LinkedIn search page holds; pagination
// advances the start offset in these increments.
const linkedInPageSize = 25

var jobHrefPattern = regexp.MustCompile(`(?i)(job|career|position|opening|vacanc)`)

// Config controls pagination limits for a collector.
type Config struct {
	// MaxPages caps how many pages are walked per source (default 20).
	MaxPages int
}

// Collector fetches source pages and extracts job links. Pagination stops at
// the first page that yields no links the collector has not already seen,
// since list pages past the end typically render an empty shell rather
// than a 404.
type Collector struct {
	fetcher  ingest.Fetcher
	maxPages int
	logger   *zap.Logger
}

// New creates a Collector over the given fetcher.
func New(fetcher ingest.Fetcher, cfg Config, logger *zap.Logger) *Collector {
	maxPages := cfg.MaxPages
	if maxPages <= 0 {
		maxPages = 20
	}
	return &Collector{
		fetcher:  fetcher,
		maxPages: maxPages,
		logger:   logger,
	}
}

// Collect walks the source and returns the harvested links. known holds
// canonical links that already exist downstream; matching links come back
// with IsNew=false so later stages can skip them. On a mid-walk fetch error
// the links gathered so far are returned alongside the error.
func (c *Collector) Collect(ctx context.Context, source ingest.Source, known map[string]struct{}) ([]ingest.JobLink, error) {
	platform := DetectPlatform(source.URL)
	seen := make(map[string]struct{})
	var links []ingest.JobLink

	for page := 1; page <= c.maxPages; page++ {
		target := pageURL(source.URL, platform, page)
		resp, err := c.fetcher.Fetch(ctx, ingest.FetchRequest{
			URL:         target,
			UseHeadless: source.Kind == ingest.SourceLinkedInSearch,
		})
		if err != nil {
			return links, fmt.Errorf("fetch page %d of %s: %w", page, source.Name, err)
		}
		if resp.StatusCode != 200 {
			return links, fmt.Errorf("fetch page %d of %s: status %d", page, source.Name, resp.StatusCode)
		}

		pageLinks, err := c.parsePage(platform, source, target, resp.Body)
		if err != nil {
			return links, fmt.Errorf("parse page %d of %s: %w", page, source.Name, err)
		}

		fresh := 0
		for _, link := range pageLinks {
			canonical := urlnorm.Canonical(link.URL)
			if _, dup := seen[canonical]; dup {
				continue
			}
			seen[canonical] = struct{}{}
			if _, exists := known[canonical]; exists {
				link.IsNew = false
			}
			links = append(links, link)
			fresh++
		}

		c.logger.Debug("collected page",
			zap.String("source", source.Name),
			zap.Int("page", page),
			zap.Int("fresh_links", fresh),
		)
		if fresh == 0 {
			break
		}
	}
	return links, nil
}

func (c *Collector) parsePage(platform Platform, source ingest.Source, pageURL string, body []byte) ([]ingest.JobLink, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	if platform == PlatformLinkedIn {
		return c.parseLinkedIn(doc, pageURL), nil
	}
	return c.parseGeneric(doc, source, pageURL), nil
}

// parseLinkedIn reads search result cards.
func (c *Collector) parseLinkedIn(doc *goquery.Document, pageURL string) []ingest.JobLink {
	var links []ingest.JobLink
	doc.Find("div.base-card").Each(func(_ int, card *goquery.Selection) {
		href, ok := card.Find("a.base-card__full-link").Attr("href")
		if !ok {
			return
		}
		abs := resolveHref(pageURL, href)
		if abs == "" {
			return
		}
		title := collapseSpace(card.Find("h3.base-search-card__title").Text())
		apply := ingest.ApplyExternal
		if strings.Contains(strings.ToLower(card.Text()), "easy apply") {
			apply = ingest.ApplyEasy
		}
		links = append(links, ingest.JobLink{
			URL:       abs,
			Title:     title,
			IsNew:     true,
			IsTechJob: classify.IsTechJob(title),
			Apply:     apply,
		})
	})
	return links
}

// parseGeneric harvests anchors whose href looks like a posting link. Career
// pages and hosted boards share the same shape at this level.
func (c *Collector) parseGeneric(doc *goquery.Document, source ingest.Source, pageURL string) []ingest.JobLink {
	apply := ingest.ApplyDirect
	if source.Kind == ingest.SourceBoard {
		apply = ingest.ApplyExternal
	}

	var links []ingest.JobLink
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" || strings.HasPrefix(href, "#") ||
			strings.HasPrefix(href, "mailto:") || strings.HasPrefix(href, "tel:") ||
			strings.HasPrefix(href, "javascript:") {
			return
		}
		abs := resolveHref(pageURL, href)
		if abs == "" || !jobHrefPattern.MatchString(abs) {
			return
		}
		// A link back to the list page itself is navigation, not a posting.
		if urlnorm.Canonical(abs) == urlnorm.Canonical(source.URL) {
			return
		}
		// Career pages may hand off to a hosted board; keep those, drop
		// everything else pointing off-host.
		if !urlnorm.SameHost(abs, source.URL) && DetectPlatform(abs) == PlatformGeneric {
			return
		}
		title := collapseSpace(a.Text())
		if title == "" {
			title = collapseSpace(a.AttrOr("aria-label", ""))
		}
		links = append(links, ingest.JobLink{
			URL:       abs,
			Title:     title,
			IsNew:     true,
			IsTechJob: classify.IsTechJob(title),
			Apply:     apply,
		})
	})
	return links
}

// pageURL applies the platform's pagination convention. Page 1 is always the
// source URL untouched.
func pageURL(base string, platform Platform, page int) string {
	if page <= 1 {
		return base
	}
	u, err := url.Parse(base)
	if err != nil {
		return base
	}
	q := u.Query()
	if platform == PlatformLinkedIn {
		q.Set("start", strconv.Itoa((page-1)*linkedInPageSize))
	} else {
		q.Set("page", strconv.Itoa(page))
	}
	u.RawQuery = q.Encode()
	return u.String()
}

func resolveHref(pageURL, href string) string {
	base, err := url.Parse(pageURL)
	if err != nil {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	resolved := base.ResolveReference(ref)
	if resolved.Host == "" {
		return ""
	}
	return resolved.String()
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
