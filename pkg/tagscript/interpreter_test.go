package tagscript_test

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"server-tags/pkg/tagscript"
	"server-tags/pkg/tagscript/blocks"
)

func process(t *testing.T, script string, seed map[string]tagscript.Adapter, opts ...tagscript.ProcessOption) *tagscript.Response {
	t.Helper()
	resp, err := tagscript.New(blocks.Default()).Process(script, seed, opts...)
	require.NoError(t, err)
	require.NotNil(t, resp)
	return resp
}

func vars(kv ...string) map[string]tagscript.Adapter {
	seed := map[string]tagscript.Adapter{}
	for i := 0; i+1 < len(kv); i += 2 {
		seed[kv[i]] = tagscript.NewStringAdapter(kv[i+1])
	}
	return seed
}

func TestProcessPlainTextIsUnchanged(t *testing.T) {
	for _, s := range []string{"", "hello world", "a } b", "colons: and | pipes"} {
		assert.Equal(t, s, process(t, s, nil).Body)
	}
}

func TestProcessEscapedBracesAreLiteral(t *testing.T) {
	assert.Equal(t, "{test}", process(t, `\{test\}`, nil).Body)
	assert.Equal(t, "{math:1+1}", process(t, `\{math:1+1\}`, nil).Body)
}

func TestProcessNestingOrder(t *testing.T) {
	const script = "{if({a}==1):{if({b}==2):yes|no}|never}"

	tests := []struct {
		a, b string
		want string
	}{
		{"1", "2", "yes"},
		{"1", "3", "no"},
		{"0", "2", "never"},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("a=%s,b=%s", tt.a, tt.b), func(t *testing.T) {
			assert.Equal(t, tt.want, process(t, script, vars("a", tt.a, "b", tt.b)).Body)
		})
	}
}

func TestProcessAssignmentScope(t *testing.T) {
	resp := process(t, "{=(x):5}{x}", nil)
	assert.Equal(t, "5", resp.Body)
	assert.Contains(t, resp.Variables, "x")

	assert.Equal(t, "{x}", process(t, "{x}", nil).Body, "assignments never outlive the call")
}

func TestProcessSeededRandomIsDeterministic(t *testing.T) {
	const script = "{random(seed1):a~b~c~d~e~f~g~h}"
	first := process(t, script, nil).Body
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, process(t, script, nil).Body)
	}
}

func TestProcessRandSeedOption(t *testing.T) {
	const script = "{random:a,b,c,d,e,f,g,h}{range:1-1000}"
	a := process(t, script, nil, tagscript.WithRandSeed(42)).Body
	b := process(t, script, nil, tagscript.WithRandSeed(42)).Body
	assert.Equal(t, a, b)
}

func TestProcessRequireShortCircuits(t *testing.T) {
	author := tagscript.NewAttributeAdapter("bob").WithIdentity("999", "bob", time.Time{})
	seed := map[string]tagscript.Adapter{"author": author}

	resp := process(t, "{require(111):Denied}{react:👍}{=(x):1}after {x}", seed)
	assert.Equal(t, "Denied", resp.Body)
	assert.True(t, resp.Actions.Empty())

	resp = process(t, "{require(999):Denied}ok", seed)
	assert.Equal(t, "ok", resp.Body)
}

func TestProcessDepthLimit(t *testing.T) {
	interp := tagscript.New(blocks.Default(), tagscript.WithLimits(tagscript.Limits{MaxDepth: 3}))

	resp, err := interp.Process("{a{b{c}}}", nil)
	require.NoError(t, err)
	assert.Equal(t, "{a{b{c}}}", resp.Body)

	resp, err = interp.Process("{a{b{c{d}}}}", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, tagscript.ErrLimitExceeded))
	assert.Equal(t, tagscript.FallbackBody, resp.Body)

	var le *tagscript.LimitError
	require.True(t, errors.As(err, &le))
	assert.Equal(t, "depth", le.Limit)
	assert.Equal(t, 3, le.Max)
	assert.Equal(t, 4, le.Got)
}

func TestProcessLimits(t *testing.T) {
	tests := []struct {
		name   string
		limits tagscript.Limits
		script string
		seed   map[string]tagscript.Adapter
		limit  string
	}{
		{
			name:   "input",
			limits: tagscript.Limits{MaxInput: 5},
			script: "too long",
			limit:  "input",
		},
		{
			name:   "blocks",
			limits: tagscript.Limits{MaxBlocks: 2},
			script: "{a}{b}{c}",
			limit:  "blocks",
		},
		{
			name:   "output",
			limits: tagscript.Limits{MaxOutput: 10},
			script: "{x}{x}",
			seed:   vars("x", strings.Repeat("a", 8)),
			limit:  "output",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := tagscript.New(blocks.Default(), tagscript.WithLimits(tt.limits)).Process(tt.script, tt.seed)
			var le *tagscript.LimitError
			require.ErrorAs(t, err, &le)
			assert.Equal(t, tt.limit, le.Limit)
			assert.Equal(t, tagscript.FallbackBody, resp.Body)
		})
	}
}

func TestProcessLimitResetsActions(t *testing.T) {
	interp := tagscript.New(blocks.Default(), tagscript.WithLimits(tagscript.Limits{MaxOutput: 10}))
	resp, err := interp.Process("{react:👍}{x}", vars("x", strings.Repeat("a", 20)))
	require.Error(t, err)
	assert.True(t, resp.Actions.Empty())
}

func TestProcessUnknownDeclarationPassesThrough(t *testing.T) {
	assert.Equal(t, "{notareal:thing}", process(t, "{notareal:thing}", nil).Body)
	assert.Equal(t, "x {} y", process(t, "x {} y", nil).Body)
}

func TestProcessVariablesShadowBlocks(t *testing.T) {
	resp := process(t, "{math:1+1}", vars("math", "shadowed"))
	assert.Equal(t, "shadowed", resp.Body)

	resp = process(t, "{Math:1+1}", vars("math", "shadowed"))
	assert.Equal(t, "2", resp.Body, "variable names are case-sensitive")
}

func TestProcessSubstitutionIsNotRescanned(t *testing.T) {
	resp := process(t, "{x}", vars("x", "{math:1+1}"))
	assert.Equal(t, "{math:1+1}", resp.Body)
}

func TestProcessEscapedAdapterCannotBreakOutOfBlock(t *testing.T) {
	seed := map[string]tagscript.Adapter{"args": tagscript.NewEscapedStringAdapter("a|b")}
	resp := process(t, "{if(1==1):{args}|no}", seed)
	assert.Equal(t, "a|b", resp.Body)
}

func TestProcessBreakHalts(t *testing.T) {
	resp := process(t, "before {break:Stopped} after {=(x):1}", nil)
	assert.Equal(t, "Stopped", resp.Body)
	assert.NotContains(t, resp.Variables, "x")
}

type panicBlock struct{}

func (panicBlock) WillAccept(ctx *tagscript.Context) bool { return ctx.Verb.Name() == "boom" }
func (panicBlock) Process(*tagscript.Context) (string, bool) {
	panic("kaboom")
}

func TestProcessRecoversFromPanickingBlock(t *testing.T) {
	interp := tagscript.New(append([]tagscript.Block{panicBlock{}}, blocks.Default()...))
	resp, err := interp.Process("{boom:x} {math:2*3}", nil)
	require.NoError(t, err)
	assert.Equal(t, "{boom:x} 6", resp.Body)
}

type countingBlock struct {
	name string
}

func (b countingBlock) WillAccept(ctx *tagscript.Context) bool { return ctx.Verb.Name() == "dup" }
func (b countingBlock) Process(*tagscript.Context) (string, bool) {
	return b.name, true
}

func TestProcessFirstAcceptingBlockWins(t *testing.T) {
	interp := tagscript.New([]tagscript.Block{countingBlock{"first"}, countingBlock{"second"}})
	resp, err := interp.Process("{dup}", nil)
	require.NoError(t, err)
	assert.Equal(t, "first", resp.Body)
}

func TestProcessNowOption(t *testing.T) {
	now := time.Date(2024, 3, 9, 14, 5, 0, 0, time.UTC)
	resp := process(t, "{strf:%Y-%m-%d %H:%M}", nil, tagscript.WithNow(now))
	assert.Equal(t, "2024-03-09 14:05", resp.Body)
}

func TestProcessIsSafeForConcurrentUse(t *testing.T) {
	interp := tagscript.New(blocks.Default())

	var wg sync.WaitGroup
	errs := make(chan string, 64)
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			want := fmt.Sprint(n*2) + " STRASSE äö"
			resp, err := interp.Process("{=(v):{n}}{math:{v}*2} {upper:straße} {lower:ÄÖ}", vars("n", fmt.Sprint(n)))
			if err != nil {
				errs <- fmt.Sprintf("run %d: %v", n, err)
				return
			}
			if resp.Body != want {
				errs <- fmt.Sprintf("run %d: got %q", n, resp.Body)
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for e := range errs {
		t.Error(e)
	}
}

func TestNewCopiesBlockList(t *testing.T) {
	list := []tagscript.Block{countingBlock{"a"}}
	interp := tagscript.New(list)
	list[0] = countingBlock{"b"}

	resp, err := interp.Process("{dup}", nil)
	require.NoError(t, err)
	assert.Equal(t, "a", resp.Body)
	assert.Len(t, interp.Blocks(), 1)
	assert.Equal(t, tagscript.DefaultLimits(), interp.Limits())
}
