package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"go.uber.org/ratelimit"
	"resty.dev/v3"

	"taxonomy/builder/internal/config"
	"taxonomy/builder/internal/domain"
	"taxonomy/builder/internal/metrics"
	"taxonomy/builder/internal/proxy"
	"taxonomy/builder/internal/state"
)

const quotaMarker = "Quota Exceeded"

// DirectoryClient fetches live directory pages politely: rate limited,
// retried with backoff, robots-aware and optionally conditional.
type DirectoryClient struct {
	rl            ratelimit.Limiter
	source        config.SourceConfig
	fetchConfig   config.FetchConfig
	proxySupplier proxy.ProxySupplier
	robots        *robotsPolicy
	cache         state.PageCache
	metrics       *metrics.Metrics
	breaker       *circuitBreaker

	// httpClient is replaced, never mutated, when the proxy changes.
	mu         sync.RWMutex
	httpClient *resty.Client
	clients    []*resty.Client
}

type Option func(*DirectoryClient)

func WithProxySupplier(s proxy.ProxySupplier) Option {
	return func(c *DirectoryClient) { c.proxySupplier = s }
}

// WithPageCache enables conditional GET when fetch.use_cache is set.
func WithPageCache(cache state.PageCache) Option {
	return func(c *DirectoryClient) { c.cache = cache }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *DirectoryClient) { c.metrics = m }
}

func NewDirectoryClient(source config.SourceConfig, fetch config.FetchConfig, opts ...Option) *DirectoryClient {
	rps := fetch.RateLimitRPS
	if rps <= 0 {
		rps = 1
	}
	if source.Timeout <= 0 {
		source.Timeout = 30 * time.Second
	}

	c := &DirectoryClient{
		rl:          ratelimit.New(rps),
		source:      source,
		fetchConfig: fetch,
		breaker:     newCircuitBreaker(fetch.CircuitBreakerDelay()),
	}
	for _, opt := range opts {
		opt(c)
	}

	initialProxy := ""
	if c.proxySupplier != nil {
		if initialProxy = c.proxySupplier.Get(); initialProxy != "" {
			log.Infof("🔗 Using initial proxy: %s", initialProxy)
		}
	}
	c.httpClient = c.newHTTPClient(initialProxy)

	if fetch.RespectRobots {
		c.robots = newRobotsPolicy(c.httpClient, source.UserAgent)
	}
	if !fetch.UseCache {
		c.cache = nil
	}

	return c
}

func (c *DirectoryClient) newHTTPClient(proxyURL string) *resty.Client {
	hc := resty.New().
		SetLogger(log.StandardLogger()).
		SetTimeout(c.source.Timeout).
		SetRetryCount(max(c.fetchConfig.MaxRetries, 0)).
		SetRetryWaitTime(time.Millisecond).
		SetRetryMaxWaitTime(max(c.fetchConfig.BackoffMax, time.Millisecond)).
		SetRetryStrategy(c.retryDelay).
		AddRetryConditions(func(resp *resty.Response, _ error) bool {
			return resp != nil && ShouldRetry(resp.StatusCode())
		}).
		AddRetryHooks(func(resp *resty.Response, err error) {
			c.metrics.Fetch(metrics.FetchRetry)
			if resp != nil {
				log.Debugf("🔁 Retrying %s after status %d", resp.Request.URL, resp.StatusCode())
				return
			}
			log.Debugf("🔁 Retrying after error: %v", err)
		}).
		SetHeader("User-Agent", c.source.UserAgent).
		SetHeader("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8").
		SetHeader("Accept-Language", "en-US,en;q=0.5")
	if proxyURL != "" {
		hc.SetProxy(proxyURL)
	}

	c.mu.Lock()
	c.clients = append(c.clients, hc)
	c.mu.Unlock()
	return hc
}

func (c *DirectoryClient) currentClient() *resty.Client {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.httpClient
}

// switchProxy installs a fresh client routed through proxyURL. Requests
// already in flight keep the client they started with.
func (c *DirectoryClient) switchProxy(proxyURL string) *resty.Client {
	hc := c.newHTTPClient(proxyURL)
	c.mu.Lock()
	c.httpClient = hc
	c.mu.Unlock()
	return hc
}

// Close releases idle connections of every client created so far.
func (c *DirectoryClient) Close() error {
	c.mu.Lock()
	clients := c.clients
	c.clients = nil
	c.mu.Unlock()

	var errs []error
	for _, hc := range clients {
		errs = append(errs, hc.Close())
	}
	return errors.Join(errs...)
}

func (c *DirectoryClient) retryDelay(resp *resty.Response, _ error) (time.Duration, error) {
	retry := 0
	if resp != nil && resp.Request != nil {
		retry = resp.Request.Attempt - 1
	}
	// Resty treats a zero delay as "use the max wait".
	return max(NextSleep(retry, c.fetchConfig.BackoffBase, c.fetchConfig.BackoffMax), time.Millisecond), nil
}

func (c *DirectoryClient) Fetch(ctx context.Context, url string) (string, error) {
	if !AllowDomain(url) {
		c.metrics.Fetch(metrics.FetchBlocked)
		return "", fmt.Errorf("%w: %s is not an http(s) URL", ErrDisallowed, url)
	}
	if c.breaker.isOpen() {
		c.metrics.Fetch(metrics.FetchBlocked)
		remaining := c.breaker.remaining().Round(time.Second)
		return "", fmt.Errorf("%w: requests disabled for %v more", ErrCircuitOpen, remaining)
	}
	if c.robots != nil && !c.robots.allowed(ctx, url) {
		c.metrics.Fetch(metrics.FetchBlocked)
		return "", fmt.Errorf("%w: robots.txt forbids %s", ErrDisallowed, url)
	}

	cached, haveCached := c.cachedPage(ctx, url)

	c.rl.Take()

	req := c.currentClient().R().SetContext(ctx)
	if haveCached {
		if cached.ETag != "" {
			req.SetHeader("If-None-Match", cached.ETag)
		}
		if cached.LastModified != "" {
			req.SetHeader("If-Modified-Since", cached.LastModified)
		}
	}

	resp, err := req.Get(url)
	if err != nil {
		c.metrics.Fetch(metrics.FetchError)
		if ctx.Err() != nil {
			return "", fmt.Errorf("request cancelled: %w", ctx.Err())
		}
		return "", fmt.Errorf("failed to fetch %s: %w", url, err)
	}

	if resp.StatusCode() == http.StatusNotModified {
		if !haveCached {
			c.metrics.Fetch(metrics.FetchError)
			return "", fmt.Errorf("%w: %s", ErrNotModified, url)
		}
		c.metrics.Fetch(metrics.FetchNotModified)
		log.Debugf("📦 %s not modified, serving cached copy", url)
		return cached.Body, nil
	}

	if resp.IsError() {
		c.metrics.Fetch(metrics.FetchError)
		if resp.StatusCode() == http.StatusTooManyRequests {
			c.breaker.trigger()
		}
		return "", fmt.Errorf("HTTP error: %d %s", resp.StatusCode(), resp.Status())
	}

	html := resp.String()
	if strings.Contains(html, quotaMarker) {
		retried, ok := c.retryWithNextProxy(ctx, url)
		if !ok {
			c.metrics.Fetch(metrics.FetchError)
			c.breaker.trigger()
			return "", fmt.Errorf("%w: quota exceeded for %s", ErrCircuitOpen, url)
		}
		html = retried
	}

	c.storePage(ctx, url, resp, html)
	c.metrics.Fetch(metrics.FetchOK)
	return html, nil
}

func (c *DirectoryClient) retryWithNextProxy(ctx context.Context, url string) (string, bool) {
	log.Warnf("🚫 Quota exceeded for URL: %s", url)
	if c.proxySupplier == nil {
		return "", false
	}
	next := c.proxySupplier.Get()
	if next == "" {
		return "", false
	}

	log.Infof("🔄 Switching to proxy %s and retrying", next)
	hc := c.switchProxy(next)

	c.rl.Take()
	resp, err := hc.R().SetContext(ctx).Get(url)
	if err != nil || resp.IsError() {
		return "", false
	}
	html := resp.String()
	if strings.Contains(html, quotaMarker) {
		return "", false
	}
	log.Infof("✅ Retry successful with new proxy")
	return html, true
}

func (c *DirectoryClient) cachedPage(ctx context.Context, url string) (domain.CachedPage, bool) {
	if c.cache == nil {
		return domain.CachedPage{}, false
	}
	page, ok, err := c.cache.GetPage(ctx, url)
	if err != nil {
		log.Warnf("⚠️ Page cache lookup failed for %s: %v", url, err)
		return domain.CachedPage{}, false
	}
	return page, ok && page.HasValidators()
}

func (c *DirectoryClient) storePage(ctx context.Context, url string, resp *resty.Response, html string) {
	if c.cache == nil {
		return
	}
	page := domain.CachedPage{
		ETag:         resp.Header().Get("ETag"),
		LastModified: resp.Header().Get("Last-Modified"),
		Body:         html,
	}
	if !page.HasValidators() {
		return
	}
	if err := c.cache.SetPage(ctx, url, page); err != nil {
		log.Warnf("⚠️ Failed to cache %s: %v", url, err)
	}
}
