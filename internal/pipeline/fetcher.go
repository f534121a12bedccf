package pipeline

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ppiankov/riskpoint/internal/cache"
	"github.com/ppiankov/riskpoint/internal/model"
	"github.com/ppiankov/riskpoint/internal/observability"
	"github.com/ppiankov/riskpoint/internal/util"
	"github.com/ppiankov/riskpoint/internal/worker"
)

// ErrBlockedByRobots is returned when robots.txt disallows a fetch
var ErrBlockedByRobots = errors.New("blocked by robots.txt")

// Fetcher GETs JSON documents from the feed API and message store
type Fetcher struct {
	httpClient *http.Client
	userAgent  string
	maxBytes   int64
	apiKey     string

	limiter  *worker.Limiter
	robots   *util.RobotsChecker
	cache    cache.Cache
	cacheTTL time.Duration
	metrics  *observability.Metrics
}

// NewFetcher creates a Fetcher from HTTP settings
func NewFetcher(cfg model.HTTPConfig) *Fetcher {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.Proxy = util.NewProxyFunc(cfg.HTTPProxy, cfg.HTTPSProxy, cfg.NoProxy)
	if cfg.InsecureTLS {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // opt-in for self-signed staging APIs
	}

	maxBytes := cfg.MaxBodyBytes
	if maxBytes <= 0 {
		maxBytes = 5_000_000
	}

	return &Fetcher{
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: transport,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("stopped after 3 redirects")
				}
				return nil
			},
		},
		userAgent: cfg.UserAgent,
		maxBytes:  maxBytes,
		cache:     cache.Nop{},
	}
}

// WithAPIKey sets the x-api-key header sent on every request
func (f *Fetcher) WithAPIKey(key string) *Fetcher {
	f.apiKey = key
	return f
}

// WithLimiter rate limits requests per host
func (f *Fetcher) WithLimiter(l *worker.Limiter) *Fetcher {
	f.limiter = l
	return f
}

// WithRobots checks robots.txt before each network fetch
func (f *Fetcher) WithRobots(r *util.RobotsChecker) *Fetcher {
	f.robots = r
	return f
}

// WithCache stores successful bodies in c for ttl
func (f *Fetcher) WithCache(c cache.Cache, ttl time.Duration) *Fetcher {
	if c == nil {
		c = cache.Nop{}
	}
	f.cache = c
	f.cacheTTL = ttl
	return f
}

// WithMetrics records fetch outcomes
func (f *Fetcher) WithMetrics(m *observability.Metrics) *Fetcher {
	f.metrics = m
	return f
}

// Client exposes the configured HTTP client
func (f *Fetcher) Client() *http.Client {
	return f.httpClient
}

// FetchMeta describes the HTTP response a body came from
type FetchMeta struct {
	StatusCode   int
	ContentType  string
	LastModified string
	ETag         string
}

// FetchResult contains a fetched body and metadata
type FetchResult struct {
	Body      []byte
	Meta      FetchMeta
	FinalURL  string
	FromCache bool
}

// Fetch retrieves rawURL, serving from cache when possible
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*FetchResult, error) {
	key := cache.Key("get", rawURL+"\x00"+f.apiKey)
	if body, ok := f.cache.Get(key); ok {
		f.observeCache("hit")
		f.observeFetch("cached")
		return &FetchResult{Body: body, FinalURL: rawURL, FromCache: true}, nil
	}
	f.observeCache("miss")

	result, err := f.fetch(ctx, rawURL)
	if err != nil {
		if errors.Is(err, ErrBlockedByRobots) {
			f.observeFetch("blocked")
		} else {
			f.observeFetch("error")
		}
		return nil, err
	}
	f.observeFetch("success")

	_ = f.cache.Set(key, result.Body, f.cacheTTL)
	return result, nil
}

// Get returns only the body of rawURL
func (f *Fetcher) Get(ctx context.Context, rawURL string) ([]byte, error) {
	result, err := f.Fetch(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	return result.Body, nil
}

func (f *Fetcher) fetch(ctx context.Context, rawURL string) (*FetchResult, error) {
	var crawlDelay time.Duration
	if f.robots != nil {
		allowed, delay, err := f.robots.CanFetch(ctx, rawURL)
		if err != nil {
			return nil, err
		}
		if !allowed {
			return nil, fmt.Errorf("%w: %s", ErrBlockedByRobots, rawURL)
		}
		crawlDelay = delay
	}

	if f.limiter != nil {
		if err := f.limiter.WaitWithDelay(ctx, rawURL, crawlDelay); err != nil {
			return nil, fmt.Errorf("rate limit: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "application/json")
	if f.apiKey != "" {
		req.Header.Set("x-api-key", f.apiKey)
	}

	start := time.Now()
	resp, err := f.httpClient.Do(req)
	if f.metrics != nil {
		f.metrics.FetchDuration.Observe(time.Since(start).Seconds())
	}
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status: %s", resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if int64(len(body)) > f.maxBytes {
		return nil, fmt.Errorf("body exceeds %d bytes", f.maxBytes)
	}

	return &FetchResult{
		Body: body,
		Meta: FetchMeta{
			StatusCode:   resp.StatusCode,
			ContentType:  resp.Header.Get("Content-Type"),
			LastModified: resp.Header.Get("Last-Modified"),
			ETag:         resp.Header.Get("ETag"),
		},
		FinalURL: resp.Request.URL.String(),
	}, nil
}

func (f *Fetcher) observeFetch(outcome string) {
	if f.metrics != nil {
		f.metrics.FetchRequests.WithLabelValues(outcome).Inc()
	}
}

func (f *Fetcher) observeCache(result string) {
	if f.metrics != nil {
		f.metrics.CacheLookups.WithLabelValues(result).Inc()
	}
}
