package tags

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Limiter throttles tag invocations per guild member.
type Limiter struct {
	mu      sync.Mutex
	members map[string]*limiterEntry
	rate    rate.Limit
	burst   int
	idle    time.Duration
	now     func() time.Time
}

// NewLimiter allows perSecond invocations with the given burst. Members idle
// for longer than idle lose their limiter on the next sweep.
func NewLimiter(perSecond float64, burst int, idle time.Duration) *Limiter {
	return &Limiter{
		members: make(map[string]*limiterEntry),
		rate:    rate.Limit(perSecond),
		burst:   burst,
		idle:    idle,
		now:     time.Now,
	}
}

// Allow reports whether the member may run a tag now.
func (l *Limiter) Allow(guildID, userID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	key := guildID + ":" + userID
	e, ok := l.members[key]
	if !ok {
		e = &limiterEntry{limiter: rate.NewLimiter(l.rate, l.burst)}
		l.members[key] = e
	}
	e.lastSeen = now
	return e.limiter.AllowN(now, 1)
}

// Sweep drops limiters idle since before the cutoff and returns how many
// were removed.
func (l *Limiter) Sweep() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.now().Add(-l.idle)
	removed := 0
	for key, e := range l.members {
		if e.lastSeen.Before(cutoff) {
			delete(l.members, key)
			removed++
		}
	}
	return removed
}

// Len is the number of tracked members.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.members)
}

// RunCleaner sweeps idle limiters every interval until ctx is done.
func (l *Limiter) RunCleaner(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if n := l.Sweep(); n > 0 {
				log.Debug().Int("removed", n).Msg("Swept idle tag limiters")
			}
		}
	}
}
