package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func execute(t *testing.T, stdin string, args ...string) string {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	require.NoError(t, root.Execute())
	return out.String()
}

func TestRunFromStdin(t *testing.T) {
	assert.Equal(t, "257\n", execute(t, "{math:2^8+1}", "run"))
}

func TestRunWithSeedFile(t *testing.T) {
	dir := t.TempDir()
	seed := filepath.Join(dir, "seed.yaml")
	script := filepath.Join(dir, "tag.txt")
	require.NoError(t, os.WriteFile(seed, []byte("user: alice\nargs: one two\n"), 0o644))
	require.NoError(t, os.WriteFile(script, []byte("hi {user}, {args(2)}"), 0o644))

	assert.Equal(t, "hi alice, two\n", execute(t, "", "run", script, "--seed", seed))
}

func TestRunDumpsActions(t *testing.T) {
	out := execute(t, "{react:👍}{dm}{embed(title):Hey}done", "run", "--actions")
	body, dump, ok := strings.Cut(out, "---\n")
	require.True(t, ok, out)
	assert.Equal(t, "done\n", body)

	var got actionsYAML
	require.NoError(t, yaml.Unmarshal([]byte(dump), &got))
	assert.Equal(t, []string{"👍"}, got.React)
	assert.Equal(t, "dm", got.Target)
	require.NotNil(t, got.Embed)
	assert.Equal(t, "Hey", got.Embed.Title)
}

func TestRunGreetingCatalog(t *testing.T) {
	assert.Equal(t, "{delete}ok\n", execute(t, "{delete}ok", "run", "--greeting"))
}

func TestRunIsRepeatableWithRNGSeed(t *testing.T) {
	first := execute(t, "{random:a,b,c,d,e,f}", "run", "--rng-seed", "42")
	for i := 0; i < 3; i++ {
		assert.Equal(t, first, execute(t, "{random:a,b,c,d,e,f}", "run", "--rng-seed", "42"))
	}
}

func TestSpans(t *testing.T) {
	out := execute(t, "{if({x}==1):a|b}", "spans")
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, `4-6 depth=2 {x} decl="x"`, lines[0])
	assert.Equal(t, `0-15 depth=1 {if({x}==1):a|b} decl="if" param="{x}==1" payload="a|b"`, lines[1])
}
