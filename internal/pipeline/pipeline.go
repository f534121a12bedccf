package pipeline

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/ppiankov/riskpoint/internal/cache"
	"github.com/ppiankov/riskpoint/internal/llm"
	"github.com/ppiankov/riskpoint/internal/message"
	"github.com/ppiankov/riskpoint/internal/model"
	"github.com/ppiankov/riskpoint/internal/observability"
	"github.com/ppiankov/riskpoint/internal/record"
	"github.com/ppiankov/riskpoint/internal/score"
	"github.com/ppiankov/riskpoint/internal/util"
	"github.com/ppiankov/riskpoint/internal/validate"
	"github.com/ppiankov/riskpoint/internal/worker"
)

//go:embed fixtures/api_sample.json
var sampleFeed []byte

var (
	// ErrNotLoaded is returned when the feed has not been loaded yet
	ErrNotLoaded = errors.New("question feed not loaded")

	// ErrIncomplete is returned when questions are unanswered outside debug mode
	ErrIncomplete = errors.New("not all questions answered")

	// ErrInvalidSelection is returned for an option index the question does not have
	ErrInvalidSelection = errors.New("invalid selection")
)

// SampleFeed returns the bundled feed used in mock mode
func SampleFeed() []byte {
	return sampleFeed
}

// Pipeline loads the survey and scores submissions
type Pipeline struct {
	config   *model.Config
	fetcher  *Fetcher
	resolver *message.Resolver
	advisor  *llm.Advisor
	images   score.ImageTable
	logger   *slog.Logger
	metrics  *observability.Metrics
	now      func() time.Time

	mu     sync.RWMutex
	set    *record.Set
	report validate.Report
}

// Option customizes a Pipeline
type Option func(*Pipeline)

// WithLogger sets the logger
func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) { p.logger = l }
}

// WithMetrics records fetch and scoring metrics
func WithMetrics(m *observability.Metrics) Option {
	return func(p *Pipeline) { p.metrics = m }
}

// WithResolver replaces the message resolver built from config
func WithResolver(r *message.Resolver) Option {
	return func(p *Pipeline) { p.resolver = r }
}

// WithAdvisor replaces the advisor built from config
func WithAdvisor(a *llm.Advisor) Option {
	return func(p *Pipeline) { p.advisor = a }
}

// WithImageTable replaces the published category averages
func WithImageTable(t score.ImageTable) Option {
	return func(p *Pipeline) { p.images = t }
}

// WithClock overrides the time source
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

// NewPipeline wires fetchers, cache, message resolver and advisor from cfg
func NewPipeline(cfg *model.Config, opts ...Option) *Pipeline {
	p := &Pipeline{
		config: cfg,
		images: score.DefaultImageTable(),
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}

	limiter := worker.NewLimiter(cfg.RateLimiting.RequestsPerSecond, cfg.RateLimiting.BurstSize)
	store := newCache(cfg.Cache)

	p.fetcher = NewFetcher(cfg.HTTP).
		WithAPIKey(cfg.Feed.APIKey).
		WithLimiter(limiter).
		WithCache(store, cfg.Cache.MemoryTTL).
		WithMetrics(p.metrics)

	if p.resolver == nil {
		p.resolver = message.NewResolver(p.messageSource(limiter, store), p.logger)
	}

	if p.advisor == nil && cfg.LLM.Provider != "" {
		advisor, err := llm.NewAdvisor(llm.ConfigFromModel(cfg.LLM))
		if err != nil {
			p.logger.Warn("advice disabled", "provider", cfg.LLM.Provider, "error", err)
		} else {
			p.advisor = advisor
		}
	}

	return p
}

func newCache(cfg model.CacheConfig) cache.Cache {
	if !cfg.Enabled {
		return cache.Nop{}
	}
	if cfg.Dir == "" {
		return cache.NewMemoryCache(cfg.MemoryTTL, 2*cfg.MemoryTTL)
	}
	return cache.NewLayeredCache(cfg.MemoryTTL, cfg.Dir, cfg.DiskTTL)
}

// messageSource picks the store location: URL, file path or the bundled store
func (p *Pipeline) messageSource(limiter *worker.Limiter, store cache.Cache) message.Source {
	loc := p.config.Messages.URL
	if loc == "" {
		return message.EmbeddedSource{}
	}

	u, err := url.Parse(loc)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return message.FileSource{Path: filepath.Clean(loc)}
	}

	fetcher := NewFetcher(p.config.HTTP).
		WithLimiter(limiter).
		WithCache(store, p.config.Cache.MemoryTTL).
		WithMetrics(p.metrics)
	if p.config.Messages.RespectRobots {
		fetcher.WithRobots(util.NewRobotsChecker(fetcher.Client(), p.config.HTTP.UserAgent, p.config.HTTP.Timeout))
	}
	return message.HTTPSource{URL: loc, Getter: fetcher}
}

// Load fetches and normalizes the question feed, or the bundled sample in mock mode
func (p *Pipeline) Load(ctx context.Context) (*record.Set, error) {
	data := sampleFeed
	if !p.config.Feed.Mock {
		body, err := p.fetcher.Get(ctx, p.config.Feed.URL)
		if err != nil {
			return nil, fmt.Errorf("load feed: %w", err)
		}
		data = body
	}

	set, err := record.Parse(data, p.config.Schema)
	if err != nil {
		return nil, err
	}

	report := validate.NewValidator(p.images).Validate(set)
	for _, issue := range report.Issues {
		p.logger.Warn("feed issue",
			"record", issue.RecordNumber,
			"severity", issue.Severity,
			"code", issue.Code,
			"detail", issue.Message,
		)
	}

	p.logger.Info("feed loaded",
		"mock", p.config.Feed.Mock,
		"records", set.Len(),
		"count", set.Count(),
		"categories", len(set.Categories()),
		"issues", len(report.Issues),
	)

	p.mu.Lock()
	p.set = set
	p.report = report
	p.mu.Unlock()

	return set, nil
}

// Loaded reports whether a feed is available
func (p *Pipeline) Loaded() bool {
	return p.records() != nil
}

// Records returns the loaded record set or nil
func (p *Pipeline) records() *record.Set {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.set
}

// Validation returns the data checks of the last successful Load
func (p *Pipeline) Validation() validate.Report {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.report
}

// Debug reports whether partial answer sets are accepted
func (p *Pipeline) Debug() bool {
	return p.config.Output.Debug
}

// ImagePath prefixes an image name with the configured base path
func (p *Pipeline) ImagePath(name string) string {
	if name == "" {
		return ""
	}
	base := p.config.Images.BasePath
	if base == "" {
		return name
	}
	return strings.TrimSuffix(base, "/") + "/" + name
}
