package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	ProfileDev  = "dev"
	ProfileCI   = "ci"
	ProfileProd = "prod"
)

var ErrInvalidProfile = errors.New("invalid profile")

// Profile seeds fetch defaults for a runtime environment.
type Profile struct {
	Name          string
	RespectRobots bool
	RateLimitRPS  int
	BackoffMax    time.Duration
	UseCache      bool
}

var profiles = map[string]Profile{
	ProfileDev:  {Name: ProfileDev, RespectRobots: false, RateLimitRPS: 5, BackoffMax: 10 * time.Second, UseCache: false},
	ProfileCI:   {Name: ProfileCI, RespectRobots: true, RateLimitRPS: 2, BackoffMax: 20 * time.Second, UseCache: true},
	ProfileProd: {Name: ProfileProd, RespectRobots: true, RateLimitRPS: 1, BackoffMax: 60 * time.Second, UseCache: true},
}

// ParseProfile resolves a profile name, case-insensitively. Empty means dev.
func ParseProfile(name string) (Profile, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		key = ProfileDev
	}
	p, ok := profiles[key]
	if !ok {
		return Profile{}, fmt.Errorf("%w: %q (want dev, ci or prod)", ErrInvalidProfile, name)
	}
	return p, nil
}

// apply installs the profile as defaults, so file and env values still win.
func (p Profile) apply(v *viper.Viper) {
	v.SetDefault("fetch.respect_robots", p.RespectRobots)
	v.SetDefault("fetch.rate_limit_rps", p.RateLimitRPS)
	v.SetDefault("fetch.backoff_max", p.BackoffMax)
	v.SetDefault("fetch.use_cache", p.UseCache)
}
