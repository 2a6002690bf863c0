package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"server-tags/pkg/tagscript"
)

func TestParseDefaults(t *testing.T) {
	t.Setenv("DISCORD_TOKEN", "token")

	cfg, err := Parse()
	require.NoError(t, err)
	assert.Equal(t, "token", cfg.DiscordToken)
	assert.Equal(t, "datastore.json", cfg.StoragePath)
	assert.Equal(t, "!", cfg.DefaultPrefix)
	assert.True(t, cfg.InitSlashCommands)
	assert.Equal(t, 2*time.Second, cfg.TagTimeout)
	assert.Equal(t, tagscript.DefaultLimits(), cfg.Limits())
}

func TestParseOverrides(t *testing.T) {
	t.Setenv("DISCORD_TOKEN", "token")
	t.Setenv("STORAGE_PATH", "/data/tags.json")
	t.Setenv("INIT_SLASH_COMMANDS", "false")
	t.Setenv("TAG_MAX_DEPTH", "4")
	t.Setenv("TAG_TIMEOUT", "500ms")
	t.Setenv("TAG_BURST", "0")

	cfg, err := Parse()
	require.NoError(t, err)
	assert.Equal(t, "/data/tags.json", cfg.StoragePath)
	assert.False(t, cfg.InitSlashCommands)
	assert.Equal(t, 4, cfg.Limits().MaxDepth)
	assert.Equal(t, 500*time.Millisecond, cfg.TagTimeout)
	assert.Equal(t, 1, cfg.TagBurst)
}

func TestParseRequiresToken(t *testing.T) {
	t.Setenv("DISCORD_TOKEN", "")
	_, err := Parse()
	assert.Error(t, err)
}

func TestParseRejectsBadTimeout(t *testing.T) {
	t.Setenv("DISCORD_TOKEN", "token")
	t.Setenv("TAG_TIMEOUT", "0s")
	_, err := Parse()
	assert.Error(t, err)
}
