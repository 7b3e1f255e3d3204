package website

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"
	"go.uber.org/zap"

	"github.com/ppiankov/sponsorgrader/internal/cache"
	"github.com/ppiankov/sponsorgrader/internal/model"
)

const cacheNamespace = "website"

// Snapshotter produces website snapshots. Every failure degrades to "no
// snapshot"; it never returns an error.
type Snapshotter struct {
	fetcher      *Fetcher
	robots       *RobotsChecker
	cache        cache.Cache
	cacheTTL     time.Duration
	excerptChars int
	logger       *zap.Logger
	allowPrivate bool
	now          func() time.Time
}

// Options configures a Snapshotter
type Options struct {
	HTTPClient    *http.Client
	UserAgent     string
	MaxBytes      int64
	Timeout       time.Duration
	RespectRobots bool
	ExcerptChars  int
	Cache         cache.Cache // nil disables caching
	CacheTTL      time.Duration
	Logger        *zap.Logger

	// AllowPrivateHosts lets snapshots reach localhost, private and
	// link-local addresses. Off unless testing against a local server.
	AllowPrivateHosts bool
}

// NewSnapshotter creates a Snapshotter
func NewSnapshotter(opts Options) *Snapshotter {
	client := &http.Client{}
	if opts.HTTPClient != nil {
		*client = *opts.HTTPClient
	}
	if opts.Timeout > 0 {
		client.Timeout = opts.Timeout
	}
	if !opts.AllowPrivateHosts {
		client = publicOnlyClient(client)
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Snapshotter{
		fetcher:      NewFetcher(client, opts.UserAgent, opts.MaxBytes),
		cache:        opts.Cache,
		cacheTTL:     opts.CacheTTL,
		excerptChars: opts.ExcerptChars,
		logger:       logger,
		allowPrivate: opts.AllowPrivateHosts,
		now:          time.Now,
	}
	if opts.RespectRobots {
		s.robots = NewRobotsChecker(client, opts.UserAgent)
	}
	return s
}

// Snapshot returns a snapshot of rawURL, or nil when none could be taken
func (s *Snapshotter) Snapshot(ctx context.Context, rawURL string) *model.WebsiteSnapshot {
	target, err := normalizeURL(rawURL, s.allowPrivate)
	if err != nil {
		s.logger.Debug("skipping website snapshot", zap.String("url", rawURL), zap.Error(err))
		return nil
	}

	key := cache.CacheKey(cacheNamespace, target)
	if snap, ok := cache.GetJSON[model.WebsiteSnapshot](s.cache, key); ok {
		s.logger.Debug("website snapshot cache hit", zap.String("url", target))
		return &snap
	}

	if s.robots != nil && !s.robots.IsAllowed(ctx, target) {
		s.logger.Info("robots.txt disallows website snapshot", zap.String("url", target))
		return nil
	}

	result, err := s.fetcher.Fetch(ctx, target)
	if err != nil {
		s.logger.Info("website snapshot failed", zap.String("url", target), zap.Error(err))
		return nil
	}

	snap := s.build(target, result)
	if snap.IsEmpty() {
		return nil
	}

	if err := cache.SetJSON(s.cache, key, snap, s.cacheTTL); err != nil {
		s.logger.Warn("failed to cache website snapshot", zap.Error(err))
	}
	return snap
}

func (s *Snapshotter) build(target string, result *FetchResult) *model.WebsiteSnapshot {
	snap := &model.WebsiteSnapshot{
		URL:        target,
		FinalURL:   result.FinalURL,
		StatusCode: result.StatusCode,
		FetchedAt:  s.now().UTC(),
	}

	pageURL, _ := url.Parse(result.FinalURL)
	article, err := readability.FromReader(strings.NewReader(result.HTML), pageURL)
	if err == nil {
		snap.Title = collapse(article.Title)
		snap.Excerpt = truncate(collapse(article.TextContent), s.excerptChars)
		snap.Description = collapse(article.Excerpt)
	}

	// Landing pages often defeat readability; fall back to plain markup
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(result.HTML))
	if err != nil {
		return snap
	}
	if snap.Title == "" {
		snap.Title = collapse(doc.Find("title").First().Text())
	}
	if snap.Title == "" {
		if title, ok := doc.Find("meta[property='og:title']").Attr("content"); ok {
			snap.Title = collapse(title)
		}
	}
	if desc, ok := doc.Find("meta[name='description']").Attr("content"); ok && collapse(desc) != "" {
		snap.Description = collapse(desc)
	} else if desc, ok := doc.Find("meta[property='og:description']").Attr("content"); ok && collapse(desc) != "" {
		snap.Description = collapse(desc)
	}
	if snap.Excerpt == "" {
		doc.Find("script, style, noscript, nav, footer").Remove()
		snap.Excerpt = truncate(collapse(doc.Find("body").Text()), s.excerptChars)
	}

	return snap
}

// collapse trims and folds runs of whitespace into single spaces
func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// truncate clips s to at most n runes, ending with an ellipsis when clipped
func truncate(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return strings.TrimSpace(string(runes[:n])) + "…"
}
