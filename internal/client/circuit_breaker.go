package client

import (
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

type circuitBreaker struct {
	mutex     sync.RWMutex
	openUntil time.Time
	delay     time.Duration
	now       func() time.Time
}

func newCircuitBreaker(delay time.Duration) *circuitBreaker {
	return &circuitBreaker{delay: delay, now: time.Now}
}

func (b *circuitBreaker) isOpen() bool {
	b.mutex.RLock()
	now := b.now()
	open := now.Before(b.openUntil)
	triggered := !b.openUntil.IsZero()
	b.mutex.RUnlock()

	if !open && triggered {
		b.mutex.Lock()
		if !b.openUntil.IsZero() && !now.Before(b.openUntil) {
			b.openUntil = time.Time{}
			log.Infof("✅ Circuit breaker closed - requests are allowed again")
		}
		b.mutex.Unlock()
	}
	return open
}

func (b *circuitBreaker) trigger() {
	if b.delay <= 0 {
		return
	}
	b.mutex.Lock()
	defer b.mutex.Unlock()

	b.openUntil = b.now().Add(b.delay)
	log.Warnf("🚫 Circuit breaker opened until %v (%v)", b.openUntil.Format("15:04:05"), b.delay)
}

func (b *circuitBreaker) remaining() time.Duration {
	b.mutex.RLock()
	defer b.mutex.RUnlock()

	if r := b.openUntil.Sub(b.now()); r > 0 {
		return r
	}
	return 0
}
