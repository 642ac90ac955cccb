// Package fetch acquires pages from job boards and career sites, statically
// via Colly or through a headless browser when markup only exists after
// script execution.
package fetch

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"

	"github.com/jobsift/jobsift/internal/ingest"
)

// Config controls the static fetcher.
type Config struct {
	UserAgent      string
	RequestTimeout time.Duration
	MaxBodyBytes   int
	HostRPS        float64
	HostBurst      int
}

// Client implements ingest.Fetcher using the Colly collector.
type Client struct {
	baseCollector *colly.Collector
	limiter       *HostLimiter
	logger        *zap.Logger
}

// NewClient constructs a configured Colly-based fetcher.
func NewClient(cfg Config, logger *zap.Logger) (*Client, error) {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 20 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	base := colly.NewCollector(colly.UserAgent(cfg.UserAgent))
	base.AllowURLRevisit = true
	if cfg.MaxBodyBytes > 0 {
		base.MaxBodySize = cfg.MaxBodyBytes
	}
	base.WithTransport(&http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		MaxIdleConns:          64,
		MaxIdleConnsPerHost:   8,
		IdleConnTimeout:       30 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: cfg.RequestTimeout,
		ForceAttemptHTTP2:     true,
	})
	base.SetRequestTimeout(cfg.RequestTimeout)

	return &Client{
		baseCollector: base,
		limiter:       NewHostLimiter(cfg.HostRPS, cfg.HostBurst),
		logger:        logger,
	}, nil
}

type fetchResult struct {
	resp ingest.FetchResponse
	err  error
}

// Fetch retrieves a page, honoring the per-host rate limit and the context.
func (c *Client) Fetch(ctx context.Context, request ingest.FetchRequest) (ingest.FetchResponse, error) {
	if err := c.limiter.WaitURL(ctx, request.URL); err != nil {
		return ingest.FetchResponse{}, err
	}

	collector := c.baseCollector.Clone()
	resultCh := make(chan fetchResult, 1)
	var once sync.Once
	send := func(res fetchResult) {
		once.Do(func() {
			resultCh <- res
		})
	}

	collector.OnRequest(func(r *colly.Request) {
		for key, values := range request.Headers {
			for _, v := range values {
				r.Headers.Set(key, v)
			}
		}
	})

	start := time.Now()
	collector.OnResponse(func(r *colly.Response) {
		headers := http.Header{}
		if r.Headers != nil {
			for k, v := range *r.Headers {
				cp := make([]string, len(v))
				copy(cp, v)
				headers[k] = cp
			}
		}
		send(fetchResult{resp: ingest.FetchResponse{
			URL:        request.URL,
			FinalURL:   r.Request.URL.String(),
			StatusCode: r.StatusCode,
			Headers:    headers,
			Body:       append([]byte{}, r.Body...),
			Duration:   time.Since(start),
		}})
	})

	collector.OnError(func(r *colly.Response, err error) {
		if err == nil {
			err = errors.New("unknown colly error")
		}
		// colly reports HTTP error statuses here; keep the status so the
		// caller can tell a 404 board from a transport failure
		var resp ingest.FetchResponse
		if r != nil {
			resp = ingest.FetchResponse{
				URL:        request.URL,
				StatusCode: r.StatusCode,
				Duration:   time.Since(start),
			}
		}
		send(fetchResult{resp: resp, err: err})
	})

	if err := collector.Visit(request.URL); err != nil {
		return ingest.FetchResponse{}, err
	}
	collector.Wait()

	select {
	case res := <-resultCh:
		if err := ctx.Err(); err != nil {
			return ingest.FetchResponse{}, err
		}
		return res.resp, res.err
	default:
		return ingest.FetchResponse{}, errors.New("colly fetch produced no result")
	}
}
