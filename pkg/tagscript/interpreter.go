// Package tagscript implements the block template language used by custom
// commands and greetings: plain text with {declaration(parameter):payload}
// directives resolved against seeded variables and an ordered block list.
package tagscript

import (
	"math/rand/v2"
	"time"

	"github.com/rs/zerolog/log"
)

// Block is one executable unit of the language.
//
// Process returns ok=false to leave the span untouched, ("", true) to delete
// it, and (s, true) to replace it with s.
type Block interface {
	WillAccept(ctx *Context) bool
	Process(ctx *Context) (string, bool)
}

// Limits bounds the work a single Process call may do. Zero disables a limit.
type Limits struct {
	MaxInput  int // bytes of script accepted
	MaxDepth  int // nesting depth of blocks
	MaxBlocks int // number of blocks in the script
	MaxOutput int // bytes of body at any point during the run
}

// DefaultLimits are sized for chat messages.
func DefaultLimits() Limits {
	return Limits{
		MaxInput:  10000,
		MaxDepth:  16,
		MaxBlocks: 500,
		MaxOutput: 20000,
	}
}

// Interpreter resolves scripts against a fixed block list. It holds no
// per-call state and may be shared by many goroutines.
type Interpreter struct {
	blocks []Block
	limits Limits
}

// Option configures an Interpreter.
type Option func(*Interpreter)

// WithLimits overrides DefaultLimits.
func WithLimits(l Limits) Option {
	return func(i *Interpreter) {
		i.limits = l
	}
}

// New builds an interpreter. The order of blocks is the dispatch order.
func New(blocks []Block, opts ...Option) *Interpreter {
	i := &Interpreter{
		blocks: append([]Block(nil), blocks...),
		limits: DefaultLimits(),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Blocks returns a copy of the dispatch list.
func (i *Interpreter) Blocks() []Block {
	return append([]Block(nil), i.blocks...)
}

// Limits returns the configured ceilings.
func (i *Interpreter) Limits() Limits {
	return i.limits
}

type processConfig struct {
	rng *rand.Rand
	now time.Time
}

// ProcessOption tunes a single Process call.
type ProcessOption func(*processConfig)

// WithRandSeed makes unseeded randomness in the run reproducible.
func WithRandSeed(seed uint64) ProcessOption {
	return func(c *processConfig) {
		c.rng = rand.New(rand.NewPCG(seed, seed>>1|1))
	}
}

// WithNow fixes the instant blocks see as "now".
func WithNow(t time.Time) ProcessOption {
	return func(c *processConfig) {
		c.now = t
	}
}

// Process resolves script against the seed variables.
//
// The returned Response is never nil. The error is non-nil only when a limit
// tripped; the body is then FallbackBody and the error is a *LimitError.
func (i *Interpreter) Process(script string, seed map[string]Adapter, opts ...ProcessOption) (*Response, error) {
	cfg := processConfig{now: time.Now()}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.rng == nil {
		cfg.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	resp := newResponse(seed)

	if limit := i.limits.MaxInput; limit > 0 && len(script) > limit {
		return fail(resp, &LimitError{Limit: "input", Max: limit, Got: len(script)})
	}

	spans, depth := scan(script)
	if limit := i.limits.MaxDepth; limit > 0 && depth > limit {
		return fail(resp, &LimitError{Limit: "depth", Max: limit, Got: depth})
	}
	if limit := i.limits.MaxBlocks; limit > 0 && len(spans) > limit {
		return fail(resp, &LimitError{Limit: "blocks", Max: limit, Got: len(spans)})
	}

	text := script
	for n := 0; n < len(spans); n++ {
		sp := spans[n]
		raw := text[sp.Start : sp.End+1]

		verb, ok := ParseVerb(raw)
		if !ok {
			continue
		}

		ctx := &Context{
			Verb:        verb,
			Response:    resp,
			Interpreter: i,
			rng:         cfg.rng,
			now:         cfg.now,
		}
		out, ok := i.solve(ctx)

		if ctx.halted {
			resp.Body = Unescape(ctx.haltBody)
			return resp, nil
		}
		if !ok {
			continue
		}

		text = text[:sp.Start] + out + text[sp.End+1:]
		shift(spans[n+1:], sp, len(out)-len(raw))

		if limit := i.limits.MaxOutput; limit > 0 && len(text) > limit {
			return fail(resp, &LimitError{Limit: "output", Max: limit, Got: len(text)})
		}
	}

	resp.Body = Unescape(text)
	return resp, nil
}

// solve finds the handler for ctx.Verb and runs it. Variables shadow blocks.
// A panicking block or adapter counts as unresolved.
func (i *Interpreter) solve(ctx *Context) (out string, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			log.Warn().
				Str("declaration", ctx.Verb.Declaration).
				Interface("panic", r).
				Msg("tagscript block panicked, leaving span unresolved")
			out, ok = "", false
		}
	}()

	if v, found := ctx.Response.Variables[ctx.Verb.Declaration]; found {
		return v.GetValue(ctx)
	}
	for _, b := range i.blocks {
		if b.WillAccept(ctx) {
			return b.Process(ctx)
		}
	}
	return "", false
}

func fail(resp *Response, err *LimitError) (*Response, error) {
	resp.Body = FallbackBody
	resp.Actions.Reset()
	return resp, err
}
