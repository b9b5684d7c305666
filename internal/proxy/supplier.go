package proxy

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"resty.dev/v3"
)

const maxParallelChecks = 50

// ProxySupplier hands out proxies in round-robin order
type ProxySupplier interface {
	Get() string
	Len() int
}

type proxySupplier struct {
	proxies []string
	current int
	mutex   sync.Mutex
}

// NewStaticSupplier rotates over proxies without checking them.
func NewStaticSupplier(proxies []string) ProxySupplier {
	return &proxySupplier{proxies: append([]string(nil), proxies...)}
}

// NewProxySupplier keeps only the proxies that can reach testURL. Order of
// the surviving proxies follows the input.
func NewProxySupplier(ctx context.Context, proxies []string, testURL string) (ProxySupplier, error) {
	if len(proxies) == 0 {
		return NewStaticSupplier(nil), nil
	}

	log.Infof("🔄 Testing %d proxies in parallel...", len(proxies))

	working := make([]bool, len(proxies))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelChecks)

	for i, proxyURL := range proxies {
		g.Go(func() error {
			if isProxyValid(gctx, proxyURL, testURL) {
				working[i] = true
				log.Infof("✅ Proxy %s is working", proxyURL)
			} else {
				log.Infof("❌ Proxy %s is not working, skipping", proxyURL)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	valid := make([]string, 0, len(proxies))
	for i, ok := range working {
		if ok {
			valid = append(valid, proxies[i])
		}
	}

	log.Infof("✅ ProxySupplier initialized with %d working proxies out of %d tested", len(valid), len(proxies))
	return &proxySupplier{proxies: valid}, nil
}

// Get returns the next proxy URL, or "" when none are available
func (p *proxySupplier) Get() string {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if len(p.proxies) == 0 {
		return ""
	}

	proxy := p.proxies[p.current]
	p.current = (p.current + 1) % len(p.proxies)
	return proxy
}

func (p *proxySupplier) Len() int {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return len(p.proxies)
}

func isProxyValid(ctx context.Context, proxyURL, testURL string) bool {
	client := resty.New().
		SetTimeout(5 * time.Second).
		SetRetryCount(0).
		SetProxy(proxyURL)
	defer client.Close()

	resp, err := client.R().
		SetContext(ctx).
		Get(testURL)
	if err != nil {
		log.Debugf("Proxy test failed for %s: %v", proxyURL, err)
		return false
	}
	if resp.IsError() {
		log.Debugf("Proxy test failed for %s with status: %s", proxyURL, resp.Status())
		return false
	}
	return true
}
