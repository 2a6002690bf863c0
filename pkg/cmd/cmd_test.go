package cmd

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stub struct {
	name string
	runs int
}

func (s *stub) Name() string        { return s.name }
func (s *stub) Description() string { return "stub " + s.name }
func (s *stub) Run(context.Context, *Invocation) error {
	s.runs++
	return nil
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	r.Register(&stub{name: "zeta"})
	r.Register(&stub{name: "alpha"})
	r.Register(&stub{name: "mid"})

	assert.Nil(t, r.Get("missing"))
	require.NotNil(t, r.Get("mid"))

	var names []string
	for _, c := range r.GetAll() {
		names = append(names, c.Name())
	}
	assert.Equal(t, []string{"alpha", "mid", "zeta"}, names)
}

func TestApplyOrder(t *testing.T) {
	var order []string
	mark := func(tag string) Middleware {
		return func(c Command) Command {
			return Wrap(c, func(ctx context.Context, inv *Invocation) error {
				order = append(order, tag)
				return c.Run(ctx, inv)
			})
		}
	}

	inner := &stub{name: "x"}
	c := Apply(inner, mark("first"), mark("second"))
	require.NoError(t, c.Run(context.Background(), &Invocation{}))

	assert.Equal(t, []string{"second", "first"}, order)
	assert.Equal(t, 1, inner.runs)
	assert.Equal(t, "x", c.Name())
	assert.Equal(t, "stub x", c.Description())
	assert.Same(t, inner, Root(c))
}

func TestWrapShortCircuits(t *testing.T) {
	inner := &stub{name: "guarded"}
	denied := errors.New("denied")
	c := Wrap(inner, func(context.Context, *Invocation) error { return denied })

	assert.ErrorIs(t, c.Run(context.Background(), &Invocation{}), denied)
	assert.Zero(t, inner.runs)

	passthrough := &Wrapped{Inner: inner}
	require.NoError(t, passthrough.Run(context.Background(), &Invocation{}))
	assert.Equal(t, 1, inner.runs)
}
