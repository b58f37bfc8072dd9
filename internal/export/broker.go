// Package export issues and redeems short-lived download tokens for
// report exports. Tokens live in process memory only: a restart
// invalidates every outstanding token, which is acceptable because the
// client re-requests one through the authenticated API.
package export

import (
	"crypto/rand"
	"encoding/base64"
	"sync"
	"time"

	"github.com/ignite/phishsim/internal/pkg/logger"
)

// DefaultTTL is how long an issued token stays redeemable.
const DefaultTTL = 5 * time.Minute

const janitorInterval = time.Minute

// grant is what a token unlocks: one report kind for one resource.
type grant struct {
	Kind       string
	ResourceID string
	ExpiresAt  time.Time
}

// Broker is a single-use token store. Redeem consumes the token no
// matter why it fails, so a captured token cannot be probed against
// other resources.
type Broker struct {
	mu     sync.Mutex
	grants map[string]grant
	ttl    time.Duration
	now    func() time.Time

	stopOnce sync.Once
	stop     chan struct{}
}

// NewBroker creates a broker with the given TTL; ttl <= 0 means DefaultTTL.
func NewBroker(ttl time.Duration) *Broker {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Broker{
		grants: make(map[string]grant),
		ttl:    ttl,
		now:    time.Now,
		stop:   make(chan struct{}),
	}
}

// TTL reports the broker's configured token lifetime.
func (b *Broker) TTL() time.Duration { return b.ttl }

// Issue mints a token authorizing one download of the given report
// kind for the given resource.
func (b *Broker) Issue(kind, resourceID string) string {
	token := newToken()
	b.mu.Lock()
	b.grants[token] = grant{
		Kind:       kind,
		ResourceID: resourceID,
		ExpiresAt:  b.now().Add(b.ttl),
	}
	b.mu.Unlock()
	return token
}

// Redeem consumes the token and reports whether it authorized the
// requested kind and resource. The token is deleted on every path,
// including kind or resource mismatches, so each token settles exactly
// one redemption attempt.
func (b *Broker) Redeem(token, kind, resourceID string) bool {
	b.mu.Lock()
	g, ok := b.grants[token]
	if ok {
		delete(b.grants, token)
	}
	b.mu.Unlock()

	if !ok {
		return false
	}
	if b.now().After(g.ExpiresAt) {
		return false
	}
	return g.Kind == kind && g.ResourceID == resourceID
}

// StartJanitor begins periodic eviction of expired grants. Safe to
// skip in tests; expired tokens are rejected on Redeem regardless.
func (b *Broker) StartJanitor() {
	go func() {
		ticker := time.NewTicker(janitorInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				b.evictExpired()
			case <-b.stop:
				return
			}
		}
	}()
}

// Stop terminates the janitor goroutine.
func (b *Broker) Stop() {
	b.stopOnce.Do(func() { close(b.stop) })
}

func (b *Broker) evictExpired() {
	now := b.now()
	b.mu.Lock()
	evicted := 0
	for token, g := range b.grants {
		if now.After(g.ExpiresAt) {
			delete(b.grants, token)
			evicted++
		}
	}
	remaining := len(b.grants)
	b.mu.Unlock()

	if evicted > 0 {
		logger.Debug("evicted expired export tokens",
			"evicted", evicted, "remaining", remaining)
	}
}

func newToken() string {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		panic("export: crypto/rand unavailable: " + err.Error())
	}
	return base64.RawURLEncoding.EncodeToString(buf)
}
