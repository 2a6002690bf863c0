package tagscript

import (
	"hash/fnv"
	"math/rand/v2"
	"time"
)

// Response is the per-call result of Process. It is created fresh for every
// call and never shared between calls.
type Response struct {
	Body      string
	Actions   *Actions
	Variables map[string]Adapter
}

func newResponse(seed map[string]Adapter) *Response {
	vars := make(map[string]Adapter, len(seed))
	for k, v := range seed {
		if v != nil {
			vars[k] = v
		}
	}
	return &Response{
		Actions:   NewActions(),
		Variables: vars,
	}
}

// Context is what a block sees while one span is being resolved.
type Context struct {
	Verb        Verb
	Response    *Response
	Interpreter *Interpreter

	rng *rand.Rand
	now time.Time

	halted   bool
	haltBody string
}

// Rand returns the call-scoped random source. Blocks must use it (or one
// from SeededRand) instead of the package-level functions so one run can
// never disturb another.
func (c *Context) Rand() *rand.Rand {
	return c.rng
}

// Now is the wall-clock instant the run started at.
func (c *Context) Now() time.Time {
	return c.now
}

// Variable looks up a seeded or assigned variable by exact name.
func (c *Context) Variable(name string) (Adapter, bool) {
	v, ok := c.Response.Variables[name]
	return v, ok
}

// SetVariable binds name for the rest of the run.
func (c *Context) SetVariable(name string, value Adapter) {
	c.Response.Variables[name] = value
}

// Halt stops the run after the current block. Spans not yet resolved are
// dropped and body becomes the whole response body.
func (c *Context) Halt(body string) {
	c.halted = true
	c.haltBody = body
}

// SeededRand returns a deterministic source for a script-supplied seed
// string. The same seed always yields the same sequence.
func SeededRand(seed string) *rand.Rand {
	h := fnv.New64a()
	h.Write([]byte(seed))
	s := h.Sum64()
	return rand.New(rand.NewPCG(s, s^0x9e3779b97f4a7c15))
}
