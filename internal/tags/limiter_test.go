package tags

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time           { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func TestLimiterAllow(t *testing.T) {
	c := &clock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	l := NewLimiter(1, 2, time.Minute)
	l.now = c.now

	assert.True(t, l.Allow("g", "u"))
	assert.True(t, l.Allow("g", "u"))
	assert.False(t, l.Allow("g", "u"))
	assert.True(t, l.Allow("g", "other"), "members are limited separately")
	assert.True(t, l.Allow("g2", "u"), "guilds are limited separately")

	c.advance(time.Second)
	assert.True(t, l.Allow("g", "u"))
	assert.False(t, l.Allow("g", "u"))
}

func TestLimiterSweep(t *testing.T) {
	c := &clock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	l := NewLimiter(1, 1, time.Minute)
	l.now = c.now

	l.Allow("g", "old")
	c.advance(45 * time.Second)
	l.Allow("g", "recent")
	c.advance(30 * time.Second)

	assert.Equal(t, 1, l.Sweep())
	assert.Equal(t, 1, l.Len())
}

func TestLimiterCleanerStops(t *testing.T) {
	l := NewLimiter(1, 1, time.Nanosecond)
	l.Allow("g", "u")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- l.RunCleaner(ctx, time.Millisecond) }()

	assert.Eventually(t, func() bool { return l.Len() == 0 }, time.Second, 5*time.Millisecond)
	cancel()
	require.NoError(t, <-done)
}
