package client

import (
	"math/rand/v2"
	"net/http"
	"time"
)

// ShouldRetry reports whether a response status is worth retrying.
func ShouldRetry(status int) bool {
	return status == http.StatusTooManyRequests || (status >= 500 && status <= 599)
}

// NextSleep returns a full-jitter exponential delay for the given retry
// (0-based): uniform in [0, min(maxDelay, base*2^retry)].
func NextSleep(retry int, base, maxDelay time.Duration) time.Duration {
	ceiling := backoffCeiling(retry, base, maxDelay)
	if ceiling <= 0 {
		return 0
	}
	return time.Duration(rand.Int64N(int64(ceiling) + 1))
}

func backoffCeiling(retry int, base, maxDelay time.Duration) time.Duration {
	if base <= 0 || maxDelay <= 0 {
		return 0
	}
	if retry < 0 {
		retry = 0
	}
	d := base
	for i := 0; i < retry; i++ {
		if d >= maxDelay/2 {
			return maxDelay
		}
		d *= 2
	}
	return min(d, maxDelay)
}
