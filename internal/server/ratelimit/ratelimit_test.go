package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// fakeClock lets tests advance time by hand.
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestLimiter(t *testing.T, cfg *Config) (*Limiter, *fakeClock) {
	t.Helper()
	l := NewLimiter(cfg)
	t.Cleanup(l.Stop)
	clock := &fakeClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	l.now = clock.now
	return l, clock
}

func TestAllow_ContactBurstThenRefill(t *testing.T) {
	l, clock := newTestLimiter(t, &Config{Enabled: true, DefaultLimit: 100, DefaultWindow: time.Minute, EndpointConfigs: DefaultEndpointConfigs()})

	for i := 0; i < 2; i++ {
		allowed, info := l.Allow("1.2.3.4", "/contact", "POST")
		require.True(t, allowed, "request %d", i)
		assert.Equal(t, 5, info.Limit)
	}

	allowed, info := l.Allow("1.2.3.4", "/contact", "POST")
	assert.False(t, allowed)
	assert.Equal(t, 0, info.Remaining)
	assert.InDelta(t, float64(12*time.Minute), float64(info.RetryAfter), float64(time.Second))

	// Another visitor has their own bucket.
	allowed, _ = l.Allow("5.6.7.8", "/contact", "POST")
	assert.True(t, allowed)

	clock.advance(13 * time.Minute)
	allowed, _ = l.Allow("1.2.3.4", "/contact", "POST")
	assert.True(t, allowed)
}

func TestAllow_PrefixPatternsShareBucket(t *testing.T) {
	cfg := &Config{Enabled: true, DefaultLimit: 100, DefaultWindow: time.Minute, EndpointConfigs: []EndpointConfig{
		{Path: "/admin/", Method: "DELETE", Limit: 2, Window: time.Minute},
	}}
	l, _ := newTestLimiter(t, cfg)

	allowed, _ := l.Allow("c", "/admin/lists/projects/0", "DELETE")
	assert.True(t, allowed)
	allowed, _ = l.Allow("c", "/admin/palettes/Mono", "DELETE")
	assert.True(t, allowed)
	allowed, _ = l.Allow("c", "/admin/draft", "DELETE")
	assert.False(t, allowed)
}

func TestAllow_DefaultLimit(t *testing.T) {
	l, _ := newTestLimiter(t, &Config{Enabled: true, DefaultLimit: 1, DefaultWindow: time.Minute})

	allowed, info := l.Allow("c", "/site", "GET")
	assert.True(t, allowed)
	assert.Equal(t, 1, info.Limit)
	allowed, _ = l.Allow("c", "/site/palette", "GET")
	assert.False(t, allowed, "unmatched paths share the default bucket")
}

func TestAllow_UnlimitedEndpoints(t *testing.T) {
	l, _ := newTestLimiter(t, &Config{Enabled: true, DefaultLimit: 1, DefaultWindow: time.Minute})

	for i := 0; i < 5; i++ {
		allowed, _ := l.Allow("c", "/health", "GET")
		assert.True(t, allowed)
		allowed, _ = l.Allow("c", "/site/events", "GET")
		assert.True(t, allowed)
	}
}

func TestAllow_Lists(t *testing.T) {
	l, _ := newTestLimiter(t, &Config{
		Enabled:       true,
		DefaultLimit:  1,
		DefaultWindow: time.Minute,
		Whitelist:     map[string]bool{"10.0.0.1": true},
		Blacklist:     map[string]bool{"10.0.0.2": true},
	})

	for i := 0; i < 3; i++ {
		allowed, _ := l.Allow("10.0.0.1", "/site", "GET")
		assert.True(t, allowed)
	}
	allowed, _ := l.Allow("10.0.0.2", "/health", "GET")
	assert.False(t, allowed)
}

func TestAllow_Disabled(t *testing.T) {
	l, _ := newTestLimiter(t, &Config{Enabled: false})

	allowed, info := l.Allow("c", "/contact", "POST")
	assert.True(t, allowed)
	assert.Equal(t, 0, info.Limit)
}

func TestCleanup_DropsIdleBuckets(t *testing.T) {
	l, clock := newTestLimiter(t, &Config{Enabled: true, DefaultLimit: 10, DefaultWindow: time.Minute})
	l.Allow("old", "/site", "GET")
	clock.advance(2 * time.Hour)
	l.Allow("new", "/site", "GET")

	l.cleanup()

	l.mu.Lock()
	defer l.mu.Unlock()
	assert.Len(t, l.buckets, 1)
}

func TestMatchEndpoint(t *testing.T) {
	configs := []EndpointConfig{
		{Path: "/admin/", Method: "POST", Limit: 1},
		{Path: "/admin/lists/", Method: "POST", Limit: 2},
		{Path: "/admin/publish", Method: "POST", Limit: 3},
	}

	assert.Equal(t, 3, MatchEndpoint("/admin/publish", "POST", configs).Limit)
	assert.Equal(t, 2, MatchEndpoint("/admin/lists/projects", "POST", configs).Limit, "longest prefix wins")
	assert.Equal(t, 1, MatchEndpoint("/admin/undo", "POST", configs).Limit)
	assert.Nil(t, MatchEndpoint("/admin/undo", "GET", configs))
	assert.Equal(t, 0, MatchEndpoint("/health", "GET", configs).Limit)
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("PORTFOLIO_RATE_LIMIT_DEFAULT_LIMIT", "42")
	t.Setenv("PORTFOLIO_RATE_LIMIT_WHITELIST", " 10.0.0.1, ,10.0.0.2")

	cfg := LoadConfig()
	assert.True(t, cfg.Enabled)
	assert.Equal(t, 42, cfg.DefaultLimit)
	assert.Equal(t, map[string]bool{"10.0.0.1": true, "10.0.0.2": true}, cfg.Whitelist)
	assert.NotEmpty(t, cfg.EndpointConfigs)

	t.Setenv("PORTFOLIO_RATE_LIMIT_ENABLED", "false")
	assert.False(t, LoadConfig().Enabled)
}

func TestStop_Idempotent(t *testing.T) {
	l := NewLimiter(nil)
	l.Stop()
	l.Stop()
}
