package ratelimit

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLimiter_BurstThenReject(t *testing.T) {
	l := New(&Config{RequestsPerSecond: 0.001, Burst: 3})

	for i := 0; i < 3; i++ {
		assert.True(t, l.Allow("a"), "request %d within burst", i)
	}
	assert.False(t, l.Allow("a"))

	s := l.Stats()
	assert.Equal(t, int64(3), s.Allowed)
	assert.Equal(t, int64(1), s.Rejected)
}

func TestLimiter_GlobalSharesBucket(t *testing.T) {
	l := New(&Config{RequestsPerSecond: 0.001, Burst: 1})
	assert.True(t, l.Allow("a"))
	assert.False(t, l.Allow("b"))
}

func TestLimiter_PerHost(t *testing.T) {
	l := New(&Config{RequestsPerSecond: 0.001, Burst: 1, PerHost: true})
	assert.True(t, l.Allow("10.0.0.1"))
	assert.False(t, l.Allow("10.0.0.1"))
	assert.True(t, l.Allow("10.0.0.2"))
	assert.Equal(t, 2, l.Stats().Hosts)
}

func TestLimiter_MaxHostsResetsTable(t *testing.T) {
	l := New(&Config{RequestsPerSecond: 0.001, Burst: 1, PerHost: true, MaxHosts: 2})
	l.Allow("a")
	l.Allow("b")
	l.Allow("c")
	assert.Equal(t, 1, l.Stats().Hosts)
}

func TestLimiter_Disabled(t *testing.T) {
	l := New(&Config{RequestsPerSecond: 0, Burst: 1})
	assert.False(t, l.Enabled())
	for i := 0; i < 1000; i++ {
		assert.True(t, l.Allow("a"))
	}

	var nilLimiter *Limiter
	assert.True(t, nilLimiter.Allow("a"))
	assert.Equal(t, Stats{}, nilLimiter.Stats())
}

func TestLimiter_DefaultConfigIsUnlimited(t *testing.T) {
	l := New(nil)
	assert.False(t, l.Enabled())
	assert.Equal(t, 100, l.config.Burst)
	for i := 0; i < 3*l.config.Burst; i++ {
		assert.True(t, l.Allow("10.0.0.1"))
	}
	assert.Equal(t, Stats{}, l.Stats())
}

func TestLimiter_Concurrent(t *testing.T) {
	l := New(&Config{RequestsPerSecond: 0.001, Burst: 50})
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				l.Allow("x")
			}
		}()
	}
	wg.Wait()
	s := l.Stats()
	assert.Equal(t, int64(200), s.Allowed+s.Rejected)
	assert.Equal(t, int64(50), s.Allowed)
}
