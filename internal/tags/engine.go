// Package tags runs stored tagscript against Discord events: it builds the
// seed variables, bounds each run in time, rate-limits members and turns the
// recorded actions into Discord calls.
package tags

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"server-tags/pkg/tagscript"
	"server-tags/pkg/tagscript/blocks"
)

// ErrTimeout is returned when a run outlives its deadline.
var ErrTimeout = errors.New("tag run timed out")

// Engine holds the interpreters, built once and shared by every run.
type Engine struct {
	Commands  *tagscript.Interpreter
	Greetings *tagscript.Interpreter
}

func NewEngine(limits tagscript.Limits) *Engine {
	return &Engine{
		Commands:  tagscript.New(blocks.Default(), tagscript.WithLimits(limits)),
		Greetings: tagscript.New(blocks.Greeting(), tagscript.WithLimits(limits)),
	}
}

// Runner executes scripts off the caller's goroutine under a deadline.
type Runner struct {
	timeout time.Duration
	opts    []tagscript.ProcessOption
}

func NewRunner(timeout time.Duration, opts ...tagscript.ProcessOption) *Runner {
	return &Runner{timeout: timeout, opts: opts}
}

// Run processes script with interp. A tripped limit is logged and the
// fallback response is returned together with the *tagscript.LimitError. On
// timeout the response carries the fallback body and the error is
// ErrTimeout; the abandoned run is still bounded by the interpreter limits.
func (r *Runner) Run(ctx context.Context, interp *tagscript.Interpreter, script string, seed map[string]tagscript.Adapter) (*tagscript.Response, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	type result struct {
		resp *tagscript.Response
		err  error
	}
	done := make(chan result, 1)
	go func() {
		resp, err := interp.Process(script, seed, r.opts...)
		done <- result{resp: resp, err: err}
	}()

	select {
	case res := <-done:
		if res.err != nil {
			log.Warn().Err(res.err).Int("script_len", len(script)).Msg("Tag run hit a limit")
		}
		return res.resp, res.err
	case <-ctx.Done():
		log.Warn().Dur("timeout", r.timeout).Int("script_len", len(script)).Msg("Tag run timed out")
		return &tagscript.Response{
			Body:      tagscript.FallbackBody,
			Actions:   tagscript.NewActions(),
			Variables: map[string]tagscript.Adapter{},
		}, ErrTimeout
	}
}
