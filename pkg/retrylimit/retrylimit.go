// Package retrylimit paces and retries Discord REST calls. An
// AdaptiveLimiter slows down after rate-limit or server errors and speeds back
// up after a quiet period; WithRetry retries transient failures with
// exponential backoff and gives up at once on client errors.
//
//	lim := retrylimit.NewAdaptiveLimiter(5, 1, 20, 1, 0.5)
//	err := retrylimit.WithRetryMax(ctx, func() error {
//	    _, err := s.ChannelMessageSend(channelID, "hi")
//	    return err
//	}, lim, 3)
package retrylimit

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"net/http"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// AdaptiveLimiter is a token bucket whose rate drops on failures and climbs
// on success. Safe for concurrent use.
type AdaptiveLimiter struct {
	mu        sync.RWMutex
	limiter   *rate.Limiter
	minLimit  rate.Limit
	maxLimit  rate.Limit
	stepUp    rate.Limit
	stepDown  float64
	lastError time.Time
	cooldown  time.Duration
}

// NewAdaptiveLimiter starts at initial requests per second and stays within
// [min, max]. Success adds stepUp; a failure multiplies the rate by stepDown.
func NewAdaptiveLimiter(initial, min, max rate.Limit, stepUp rate.Limit, stepDown float64) *AdaptiveLimiter {
	if initial < 1 {
		initial = 1
	}
	if min < 1 {
		min = 1
	}
	if max < min {
		max = min
	}
	return &AdaptiveLimiter{
		limiter:  rate.NewLimiter(initial, burstFor(initial)),
		minLimit: min,
		maxLimit: max,
		stepUp:   stepUp,
		stepDown: stepDown,
		cooldown: 10 * time.Second,
	}
}

// Wait blocks until a token is available or ctx is done.
func (a *AdaptiveLimiter) Wait(ctx context.Context) error {
	return a.limiter.Wait(ctx)
}

// Success raises the rate unless a failure happened within the cooldown.
func (a *AdaptiveLimiter) Success() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if time.Since(a.lastError) > a.cooldown {
		a.adjust(a.limiter.Limit() + a.stepUp)
	}
}

// RateLimited lowers the rate after Discord pushed back.
func (a *AdaptiveLimiter) RateLimited() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.lastError = time.Now()
	a.adjust(rate.Limit(float64(a.limiter.Limit()) * a.stepDown))
}

// CurrentLimit returns the current requests per second.
func (a *AdaptiveLimiter) CurrentLimit() float64 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return float64(a.limiter.Limit())
}

func (a *AdaptiveLimiter) adjust(limit rate.Limit) {
	limit = min(max(limit, a.minLimit), a.maxLimit)
	if limit != a.limiter.Limit() {
		a.limiter.SetLimit(limit)
		a.limiter.SetBurst(burstFor(limit))
	}
}

func burstFor(l rate.Limit) int {
	return max(1, int(l))
}

// FatalError stops retries immediately.
type FatalError struct {
	Err error
}

func (f *FatalError) Error() string { return f.Err.Error() }
func (f *FatalError) Unwrap() error { return f.Err }

// HTTPError is implemented by errors that carry a status code.
type HTTPError interface {
	error
	StatusCode() int
}

// StatusCode extracts the HTTP status from a discordgo REST error or any
// HTTPError in the chain. Zero means the error carried no status.
func StatusCode(err error) int {
	var rest *discordgo.RESTError
	if errors.As(err, &rest) && rest.Response != nil {
		return rest.Response.StatusCode
	}
	var he HTTPError
	if errors.As(err, &he) {
		return he.StatusCode()
	}
	return 0
}

// Retryable reports whether err is worth another attempt: rate limits,
// server errors, and transport failures without a status. Other 4xx
// responses (missing permissions, unknown message) are final.
func Retryable(err error) bool {
	var fatal *FatalError
	if errors.As(err, &fatal) {
		return false
	}
	code := StatusCode(err)
	return code == 0 || code == http.StatusTooManyRequests || code >= 500
}

// RetryConfig configures WithRetryConfig.
type RetryConfig struct {
	MaxAttempts    int
	InitialDelay   time.Duration
	MaxDelay       time.Duration
	RateLimitDelay time.Duration
	Multiplier     float64
	Jitter         bool
	OnRetry        func(attempt int, err error)
}

// DefaultRetryConfig suits interactive bot replies: a few quick attempts.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:    3,
		InitialDelay:   250 * time.Millisecond,
		MaxDelay:       5 * time.Second,
		RateLimitDelay: time.Second,
		Multiplier:     2.0,
		Jitter:         true,
	}
}

// WithRetry runs fn with DefaultRetryConfig.
func WithRetry(ctx context.Context, fn func() error, lim *AdaptiveLimiter) error {
	return WithRetryConfig(ctx, fn, lim, DefaultRetryConfig())
}

// WithRetryMax runs fn at most maxAttempts times.
func WithRetryMax(ctx context.Context, fn func() error, lim *AdaptiveLimiter, maxAttempts int) error {
	cfg := DefaultRetryConfig()
	cfg.MaxAttempts = maxAttempts
	return WithRetryConfig(ctx, fn, lim, cfg)
}

// WithRetryConfig runs fn until it succeeds, returns a non-retryable error,
// ctx is done, or the attempts run out. The last error is wrapped in the
// attempts-exhausted error.
func WithRetryConfig(ctx context.Context, fn func() error, lim *AdaptiveLimiter, cfg RetryConfig) error {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}
	delay := cfg.InitialDelay

	var err error
	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if lim != nil {
			if werr := lim.Wait(ctx); werr != nil {
				return werr
			}
		}

		err = fn()
		if err == nil {
			if lim != nil {
				lim.Success()
			}
			if attempt > 1 {
				log.Debug().Int("attempt", attempt).Msg("Discord call succeeded after retry")
			}
			return nil
		}
		if !Retryable(err) {
			return err
		}
		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt, err)
		}
		if attempt == cfg.MaxAttempts {
			break
		}

		wait := delay
		if StatusCode(err) == http.StatusTooManyRequests {
			if lim != nil {
				lim.RateLimited()
			}
			wait = cfg.RateLimitDelay
		} else {
			if lim != nil && StatusCode(err) >= 500 {
				lim.RateLimited()
			}
			if cfg.Jitter {
				wait = addJitter(wait)
			}
			delay = min(time.Duration(float64(delay)*cfg.Multiplier), cfg.MaxDelay)
		}
		log.Warn().Err(err).Int("attempt", attempt).Dur("wait", wait).Msg("Discord call failed, retrying")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}

	return fmt.Errorf("max attempts (%d) exceeded: %w", cfg.MaxAttempts, err)
}

// addJitter adds up to 25% to delay.
func addJitter(delay time.Duration) time.Duration {
	if delay < 4 {
		return delay
	}
	return delay + rand.N(delay/4)
}
