package client

import (
	"context"
	"net/url"
	"strings"
	"sync"

	log "github.com/sirupsen/logrus"
	"github.com/temoto/robotstxt"
	"resty.dev/v3"
)

// AllowDomain reports whether url may be fetched at all: file:// always,
// otherwise http(s) with a host.
func AllowDomain(rawURL string) bool {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return false
	}
	switch strings.ToLower(u.Scheme) {
	case "file":
		return true
	case "http", "https":
		return u.Host != ""
	default:
		return false
	}
}

// robotsPolicy caches robots.txt per origin for the life of the client.
type robotsPolicy struct {
	client *resty.Client
	agent  string

	mu    sync.Mutex
	hosts map[string]*robotstxt.RobotsData
}

func newRobotsPolicy(client *resty.Client, agent string) *robotsPolicy {
	return &robotsPolicy{client: client, agent: agent, hosts: make(map[string]*robotstxt.RobotsData)}
}

func (r *robotsPolicy) allowed(ctx context.Context, rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return true
	}
	data := r.robotsFor(ctx, u.Scheme+"://"+u.Host)

	target := u.EscapedPath()
	if target == "" {
		target = "/"
	}
	if u.RawQuery != "" {
		target += "?" + u.RawQuery
	}
	return data.TestAgent(target, r.agent)
}

func (r *robotsPolicy) robotsFor(ctx context.Context, origin string) *robotstxt.RobotsData {
	r.mu.Lock()
	defer r.mu.Unlock()

	if data, ok := r.hosts[origin]; ok {
		return data
	}

	data := r.fetch(ctx, origin)
	r.hosts[origin] = data
	return data
}

func (r *robotsPolicy) fetch(ctx context.Context, origin string) *robotstxt.RobotsData {
	allowAll, _ := robotstxt.FromStatusAndBytes(404, nil)

	resp, err := r.client.R().
		SetContext(ctx).
		Get(origin + "/robots.txt")
	if err != nil {
		log.Warnf("⚠️ Failed to fetch robots.txt from %s, allowing: %v", origin, err)
		return allowAll
	}

	data, err := robotstxt.FromStatusAndBytes(resp.StatusCode(), resp.Bytes())
	if err != nil {
		log.Warnf("⚠️ Failed to parse robots.txt from %s, allowing: %v", origin, err)
		return allowAll
	}
	return data
}
