package fetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"sync"
	"time"

	"golang.org/x/net/html/charset"
	"golang.org/x/sync/errgroup"

	"github.com/nao1215/sitesift/internal/database"
	"github.com/nao1215/sitesift/internal/model"
	"github.com/nao1215/sitesift/internal/normalize"
)

// maxRedirects caps the redirect chain per request.
const maxRedirects = 10

// Sink consumes fetched pages. The aggregation engine implements it;
// tests substitute recorders.
type Sink interface {
	// Process runs one fetched page through the pipeline.
	Process(pageURL, markup string) (model.PageType, error)

	// RecordFetchError counts a page that could not be retrieved.
	RecordFetchError()

	// RecordRedirect counts a followed redirect.
	RecordRedirect()
}

// Driver traverses a site breadth-first and feeds every HTML page to the
// sink. It owns the traversal concerns: scope, budgets, politeness, and
// the visited set. It never interprets page content beyond pulling out
// links.
//
// Design decision: We fetch in depth waves, running each wave through a
// bounded errgroup, rather than keeping a shared work queue because:
//  1. Breadth-first order falls out of the structure instead of needing
//     per-item depth bookkeeping across workers.
//  2. errgroup.SetLimit bounds concurrency without a hand-rolled pool.
//  3. Wave boundaries are natural cancellation points.
type Driver struct {
	// client performs the HTTP requests. The driver installs its own
	// redirect counter on a shallow copy; the injected client is not
	// mutated and its transport is shared.
	client *http.Client

	// canon reduces URLs to canonical form. It must be the same
	// canonicalizer the engine uses, so both sides agree on identity.
	canon *normalize.Canonicalizer

	// sink receives every fetched page.
	sink Sink

	// logger is used for traversal events.
	logger *slog.Logger

	// maxDepth limits how deep to traverse from the seeds.
	// 0 means only the seeds themselves.
	maxDepth int

	// maxPages limits the number of fetch attempts per run. Attempts,
	// not successes: a site of dead links cannot stretch the run.
	maxPages int

	// delay is the minimum time between requests across all workers.
	delay time.Duration

	// workers is the number of concurrent fetches.
	workers int

	// userAgent is the User-Agent header to send.
	userAgent string

	// headers are extra headers to send with every request.
	headers map[string]string

	// cookie is the Cookie header to send, empty for none.
	cookie string

	// maxBodySize limits the size of response bodies to read.
	maxBodySize int64

	// allowedDomains are the hosts in scope. Empty means the
	// canonicalizer's base host.
	allowedDomains []string

	// denyPatterns are regular expressions; matching URLs are never
	// fetched or followed. Compiled at construction so a broken pattern
	// fails the run before any request is made.
	denyPatterns []string
	deny         []*regexp.Regexp

	// cache, when set, stores fetched pages and serves fresh ones.
	cache *database.PageCache

	// cacheMaxAge treats cached pages younger than this as fresh.
	// Zero disables freshness skipping.
	cacheMaxAge time.Duration

	// fromCache switches Run to offline replay from the cache.
	fromCache bool

	// limiter is the shared politeness gate, nil when delay is zero.
	limiter *time.Ticker

	// mu protects visited, claimed, and edges.
	mu      sync.Mutex
	visited map[string]bool
	claimed int
	edges   map[string][]string
}

// Option configures a Driver.
type Option func(*Driver)

// WithMaxDepth sets the maximum traversal depth.
// 0 = only the seeds, 1 = seeds plus linked pages, etc.
func WithMaxDepth(depth int) Option {
	return func(d *Driver) {
		d.maxDepth = depth
	}
}

// WithMaxPages sets the maximum number of fetch attempts.
func WithMaxPages(maxPages int) Option {
	return func(d *Driver) {
		d.maxPages = maxPages
	}
}

// WithDelay sets the minimum time between requests. The delay is shared
// by all workers, so it bounds the overall request rate.
func WithDelay(delay time.Duration) Option {
	return func(d *Driver) {
		d.delay = delay
	}
}

// WithWorkers sets the number of concurrent fetches.
func WithWorkers(n int) Option {
	return func(d *Driver) {
		if n > 0 {
			d.workers = n
		}
	}
}

// WithUserAgent sets a custom User-Agent header.
func WithUserAgent(ua string) Option {
	return func(d *Driver) {
		d.userAgent = ua
	}
}

// WithHeaders sets extra headers to send with every request.
func WithHeaders(headers map[string]string) Option {
	return func(d *Driver) {
		d.headers = headers
	}
}

// WithCookie sets the Cookie header to send with every request.
// Format: "name=value" or "name1=value1; name2=value2".
func WithCookie(cookie string) Option {
	return func(d *Driver) {
		d.cookie = cookie
	}
}

// WithMaxBodySize sets the maximum response body size.
func WithMaxBodySize(size int64) Option {
	return func(d *Driver) {
		if size > 0 {
			d.maxBodySize = size
		}
	}
}

// WithAllowedDomains sets the hosts in scope. Empty means only the
// canonicalizer's base host.
func WithAllowedDomains(domains []string) Option {
	return func(d *Driver) {
		d.allowedDomains = domains
	}
}

// WithDenyPatterns sets regular expressions for URLs that are never
// fetched or followed.
func WithDenyPatterns(patterns []string) Option {
	return func(d *Driver) {
		d.denyPatterns = patterns
	}
}

// WithLogger sets the logger used for traversal events.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Driver) {
		d.logger = logger
	}
}

// WithCache attaches a page cache. Fetched pages are saved to it, and
// when maxAge is positive, pages cached within maxAge are served from it
// without touching the network.
func WithCache(cache *database.PageCache, maxAge time.Duration) Option {
	return func(d *Driver) {
		d.cache = cache
		d.cacheMaxAge = maxAge
	}
}

// WithReplay switches Run to offline replay: every page in the cache is
// processed and nothing is fetched from the network. Scope and deny
// filters still apply, so a narrowed config replays a narrowed dataset.
func WithReplay(cache *database.PageCache) Option {
	return func(d *Driver) {
		d.cache = cache
		d.fromCache = true
	}
}

// NewDriver creates a Driver over the given HTTP client, canonicalizer,
// and sink. Construction fails when a deny pattern does not compile, so
// no request is ever made under a broken filter.
//
// Design decision: We require an external client because the timeout and
// transport policy belong to the caller, and tests need to point the
// driver at httptest servers.
func NewDriver(client *http.Client, canon *normalize.Canonicalizer, sink Sink, opts ...Option) (*Driver, error) {
	d := &Driver{
		client:      client,
		canon:       canon,
		sink:        sink,
		logger:      slog.Default(),
		maxDepth:    8,
		maxPages:    5000,
		delay:       1 * time.Second,
		workers:     4,
		userAgent:   "sitesift/1.0 (+https://github.com/nao1215/sitesift)",
		maxBodySize: 5 * 1024 * 1024, // 5MB
		visited:     make(map[string]bool),
		edges:       make(map[string][]string),
	}

	for _, opt := range opts {
		opt(d)
	}

	for _, pattern := range d.denyPatterns {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("deny pattern %q does not compile: %w", pattern, err)
		}
		d.deny = append(d.deny, re)
	}

	// Count redirects through a shallow copy so the injected client is
	// not mutated. The transport is shared.
	if client != nil {
		c := *client
		c.CheckRedirect = func(_ *http.Request, via []*http.Request) error {
			d.sink.RecordRedirect()
			if len(via) >= maxRedirects {
				return fmt.Errorf("stopped after %d redirects", maxRedirects)
			}
			return nil
		}
		d.client = &c
	}

	return d, nil
}

// Run traverses the site breadth-first from the seeds, feeding every
// fetched HTML page to the sink. Fetch failures are counted through the
// sink and never abort the run; Run returns an error only for
// cancellation or a broken replay setup. In replay mode the seeds are
// ignored and the cache contents are processed instead.
func (d *Driver) Run(ctx context.Context, seeds []string) error {
	if d.fromCache {
		if d.cache == nil {
			return errors.New("replay requires a page cache")
		}
		return d.replay(ctx)
	}

	if d.delay > 0 {
		d.limiter = time.NewTicker(d.delay)
		defer d.limiter.Stop()
	}

	frontier := make([]string, 0, len(seeds))
	for _, seed := range seeds {
		frontier = append(frontier, d.canon.Canonicalize(seed))
	}

	for depth := 0; depth <= d.maxDepth && len(frontier) > 0; depth++ {
		next, err := d.fetchWave(ctx, frontier)
		if err != nil {
			return err
		}
		frontier = next
	}

	return nil
}

// fetchWave fetches one depth level concurrently and returns the links
// discovered on it, which form the next level.
func (d *Driver) fetchWave(ctx context.Context, urls []string) ([]string, error) {
	var (
		nextMu sync.Mutex
		next   []string
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(d.workers)

	for _, pageURL := range urls {
		// Links were filtered when collected; this re-check also covers
		// seeds, which arrive unfiltered from config.
		if !d.canon.SameHost(pageURL, d.allowedDomains) || d.denied(pageURL) {
			continue
		}
		if !d.claim(pageURL) {
			continue
		}

		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			links, err := d.fetchPage(ctx, pageURL)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				// Counted, not fatal: dead pages are part of real sites.
				d.sink.RecordFetchError()
				d.logger.Warn("fetch failed", "url", pageURL, "error", err)
				return nil
			}

			if len(links) > 0 {
				nextMu.Lock()
				next = append(next, links...)
				nextMu.Unlock()
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return next, nil
}

// fetchPage retrieves one page, feeds it to the sink, and returns its
// in-scope links. The cache short-circuits the network when it holds a
// fresh enough copy.
func (d *Driver) fetchPage(ctx context.Context, pageURL string) ([]string, error) {
	if record := d.fromFreshCache(ctx, pageURL); record != nil {
		return d.processMarkup(record.CanonicalURL, record.Markup), nil
	}

	if err := d.pause(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", d.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")
	for k, v := range d.headers {
		req.Header.Set(k, v)
	}
	if d.cookie != "" {
		req.Header.Set("Cookie", d.cookie)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	// After redirects, the final URL is the page's real identity.
	finalURL := d.canon.Canonicalize(resp.Request.URL.String())
	if finalURL != pageURL {
		d.markVisited(finalURL)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType != "" && !strings.Contains(contentType, "text/html") && !strings.Contains(contentType, "application/xhtml") {
		d.logger.Debug("skipping non-HTML response", "url", finalURL, "content_type", contentType)
		return nil, nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, d.maxBodySize))
	if err != nil {
		return nil, err
	}
	markup := decodeBody(body, contentType)

	links := d.processMarkup(finalURL, markup)

	if d.cache != nil {
		record := &database.PageRecord{
			CanonicalURL: finalURL,
			StatusCode:   resp.StatusCode,
			ContentType:  contentType,
			Markup:       markup,
		}
		record.ComputeHash()
		if err := d.cache.SavePage(ctx, record); err != nil {
			d.logger.Warn("failed to cache page", "url", finalURL, "error", err)
		}
	}

	return links, nil
}

// replay feeds every cached page through the sink without touching the
// network.
func (d *Driver) replay(ctx context.Context) error {
	records, err := d.cache.ListPages(ctx)
	if err != nil {
		return err
	}

	d.logger.Debug("replaying pages from cache", "pages", len(records), "cache", d.cache.Path())

	for _, record := range records {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if !d.canon.SameHost(record.CanonicalURL, d.allowedDomains) || d.denied(record.CanonicalURL) {
			d.logger.Debug("skipping out-of-scope cached page", "url", record.CanonicalURL)
			continue
		}
		if !d.claim(record.CanonicalURL) {
			continue
		}
		d.processMarkup(record.CanonicalURL, record.Markup)
	}

	return nil
}

// processMarkup feeds one page to the sink, records its link edges, and
// returns the in-scope links.
func (d *Driver) processMarkup(canonicalURL, markup string) []string {
	if _, err := d.sink.Process(canonicalURL, markup); err != nil {
		d.logger.Warn("page processing failed", "url", canonicalURL, "error", err)
	}

	links := d.inScopeLinks(canonicalURL, markup)
	if len(links) > 0 {
		d.mu.Lock()
		d.edges[canonicalURL] = links
		d.mu.Unlock()
	}
	return links
}

// inScopeLinks extracts the page's links and keeps the canonicalized
// ones that stay on an allowed host and clear the deny patterns.
func (d *Driver) inScopeLinks(pageURL, markup string) []string {
	seen := make(map[string]bool)
	links := make([]string, 0)
	for _, href := range extractLinks(pageURL, markup) {
		c := d.canon.Canonicalize(href)
		if seen[c] {
			continue
		}
		seen[c] = true

		if !strings.HasPrefix(c, "http://") && !strings.HasPrefix(c, "https://") {
			continue
		}
		if !d.canon.SameHost(c, d.allowedDomains) {
			continue
		}
		if d.denied(c) {
			continue
		}
		links = append(links, c)
	}
	return links
}

// fromFreshCache returns the cached record when freshness skipping is
// enabled and the cache holds a recent enough copy.
func (d *Driver) fromFreshCache(ctx context.Context, canonicalURL string) *database.PageRecord {
	if d.cache == nil || d.cacheMaxAge <= 0 {
		return nil
	}
	fresh, err := d.cache.HasFreshPage(ctx, canonicalURL, d.cacheMaxAge)
	if err != nil || !fresh {
		return nil
	}
	record, err := d.cache.GetPage(ctx, canonicalURL)
	if err != nil || record == nil {
		return nil
	}
	d.logger.Debug("serving page from cache", "url", canonicalURL)
	return record
}

// pause waits for the politeness gate. All workers share one gate, so
// the delay bounds the overall request rate rather than each worker's.
func (d *Driver) pause(ctx context.Context) error {
	if d.limiter == nil {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-d.limiter.C:
		return nil
	}
}

// denied reports whether any deny pattern matches the URL.
func (d *Driver) denied(canonicalURL string) bool {
	for _, re := range d.deny {
		if re.MatchString(canonicalURL) {
			return true
		}
	}
	return false
}

// claim reserves a URL for fetching. It returns false when the URL was
// already visited or the page budget is spent.
func (d *Driver) claim(canonicalURL string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.visited[canonicalURL] || d.claimed >= d.maxPages {
		return false
	}
	d.visited[canonicalURL] = true
	d.claimed++
	return true
}

// markVisited marks a URL as visited without consuming budget. Used for
// redirect targets, whose fetch was already counted under the
// requested URL.
func (d *Driver) markVisited(canonicalURL string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.visited[canonicalURL] = true
}

// Edges returns a copy of the link graph: canonical page URL to the
// in-scope canonical URLs it links to.
func (d *Driver) Edges() map[string][]string {
	d.mu.Lock()
	defer d.mu.Unlock()

	edges := make(map[string][]string, len(d.edges))
	for from, to := range d.edges {
		edges[from] = append([]string(nil), to...)
	}
	return edges
}

// Stats returns current traversal statistics.
func (d *Driver) Stats() DriverStats {
	d.mu.Lock()
	defer d.mu.Unlock()
	return DriverStats{
		PagesClaimed: d.claimed,
		URLsSeen:     len(d.visited),
	}
}

// DriverStats contains traversal statistics.
type DriverStats struct {
	// PagesClaimed is the number of fetch slots consumed, successful
	// or not.
	PagesClaimed int

	// URLsSeen is the number of unique canonical URLs encountered.
	URLsSeen int
}

// decodeBody converts a response body to UTF-8 using the Content-Type
// charset declaration, falling back to charset sniffing, then to the
// raw bytes when decoding fails.
func decodeBody(body []byte, contentType string) string {
	r, err := charset.NewReader(bytes.NewReader(body), contentType)
	if err != nil {
		return string(body)
	}
	decoded, err := io.ReadAll(r)
	if err != nil {
		return string(body)
	}
	return string(decoded)
}
