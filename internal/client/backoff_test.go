package client_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"taxonomy/builder/internal/client"
)

func TestShouldRetry(t *testing.T) {
	t.Parallel()

	for status, want := range map[int]bool{
		200: false,
		304: false,
		404: false,
		429: true,
		500: true,
		501: true,
		503: true,
		599: true,
		600: false,
	} {
		assert.Equal(t, want, client.ShouldRetry(status), "status %d", status)
	}
}

func TestNextSleep(t *testing.T) {
	t.Parallel()

	base := 100 * time.Millisecond
	limit := time.Second

	for range 200 {
		assert.LessOrEqual(t, client.NextSleep(0, base, limit), base)
		assert.LessOrEqual(t, client.NextSleep(2, base, limit), 4*base)
		d := client.NextSleep(40, base, limit)
		assert.GreaterOrEqual(t, d, time.Duration(0))
		assert.LessOrEqual(t, d, limit)
	}

	assert.Zero(t, client.NextSleep(3, 0, limit))
	assert.Zero(t, client.NextSleep(3, base, 0))
}

func TestAllowDomain(t *testing.T) {
	t.Parallel()

	assert.True(t, client.AllowDomain("https://clutch.co/categories"))
	assert.True(t, client.AllowDomain("http://localhost:8080/x"))
	assert.True(t, client.AllowDomain("file:///tmp/fixture.html"))
	assert.False(t, client.AllowDomain("https:///no-host"))
	assert.False(t, client.AllowDomain("ftp://clutch.co/x"))
	assert.False(t, client.AllowDomain("/relative"))
	assert.False(t, client.AllowDomain("::not a url"))
}
