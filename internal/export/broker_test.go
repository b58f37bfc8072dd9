package export

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIssueRedeemSingleUse(t *testing.T) {
	b := NewBroker(0)

	token := b.Issue("phishing_excel", "c1")
	assert.Len(t, token, 43) // 32 bytes, unpadded url-safe base64

	assert.True(t, b.Redeem(token, "phishing_excel", "c1"))
	assert.False(t, b.Redeem(token, "phishing_excel", "c1"), "token must be single use")
}

func TestRedeemMismatchConsumesToken(t *testing.T) {
	b := NewBroker(0)

	token := b.Issue("phishing_excel", "c1")
	assert.False(t, b.Redeem(token, "phishing_excel", "c2"), "wrong resource")
	assert.False(t, b.Redeem(token, "phishing_excel", "c1"),
		"a failed redemption must still burn the token")

	token = b.Issue("phishing_excel", "c1")
	assert.False(t, b.Redeem(token, "phishing_pdf", "c1"), "wrong kind")
	assert.False(t, b.Redeem(token, "phishing_excel", "c1"))
}

func TestRedeemUnknownToken(t *testing.T) {
	b := NewBroker(0)
	assert.False(t, b.Redeem("not-a-token", "phishing_excel", "c1"))
}

func TestRedeemExpired(t *testing.T) {
	b := NewBroker(time.Minute)
	base := time.Now()
	b.now = func() time.Time { return base }

	token := b.Issue("phishing_excel", "c1")

	b.now = func() time.Time { return base.Add(61 * time.Second) }
	assert.False(t, b.Redeem(token, "phishing_excel", "c1"))
	assert.False(t, b.Redeem(token, "phishing_excel", "c1"))
}

func TestEvictExpired(t *testing.T) {
	b := NewBroker(time.Minute)
	base := time.Now()
	b.now = func() time.Time { return base }

	b.Issue("phishing_excel", "c1")
	b.Issue("phishing_excel", "c2")
	fresh := b.Issue("phishing_excel", "c3")

	b.now = func() time.Time { return base.Add(2 * time.Minute) }
	live := b.Issue("phishing_pdf", "c4")

	b.evictExpired()

	b.mu.Lock()
	remaining := len(b.grants)
	b.mu.Unlock()
	assert.Equal(t, 1, remaining)
	assert.False(t, b.Redeem(fresh, "phishing_excel", "c3"))
	assert.True(t, b.Redeem(live, "phishing_pdf", "c4"))
}

func TestConcurrentRedeemSingleWinner(t *testing.T) {
	b := NewBroker(0)
	token := b.Issue("phishing_excel", "c1")

	const goroutines = 32
	var wg sync.WaitGroup
	var mu sync.Mutex
	wins := 0

	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			if b.Redeem(token, "phishing_excel", "c1") {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, wins, "exactly one concurrent redemption may succeed")
}

func TestTokensAreUnique(t *testing.T) {
	b := NewBroker(0)
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		token := b.Issue("phishing_excel", "c1")
		assert.False(t, seen[token])
		seen[token] = true
	}
}
