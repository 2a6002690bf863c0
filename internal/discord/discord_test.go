package discord

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"server-tags/internal/command"
	"server-tags/pkg/cmd"
)

const (
	guildID   = "300000000000000003"
	channelID = "600000000000000006"
)

func stateSession(t *testing.T) *discordgo.Session {
	t.Helper()
	alice := &discordgo.User{ID: "100000000000000001", Username: "alice"}
	bob := &discordgo.User{ID: "200000000000000002", Username: "bob"}

	state := discordgo.NewState()
	require.NoError(t, state.GuildAdd(&discordgo.Guild{
		ID:       guildID,
		Name:     "Test Guild",
		Channels: []*discordgo.Channel{{ID: channelID, GuildID: guildID, Name: "general"}},
		Members: []*discordgo.Member{
			{GuildID: guildID, User: alice, Nick: "Ally"},
			{GuildID: guildID, User: bob},
		},
	}))
	return &discordgo.Session{State: state}
}

func TestMessageSeed(t *testing.T) {
	s := stateSession(t)
	m := &discordgo.MessageCreate{Message: &discordgo.Message{
		ID:        "700000000000000007",
		GuildID:   guildID,
		ChannelID: channelID,
		Author:    &discordgo.User{ID: "100000000000000001", Username: "alice"},
		Member:    &discordgo.Member{Nick: "Ally"},
		Mentions:  []*discordgo.User{{ID: "200000000000000002"}},
	}}

	in := MessageSeed(s, m, "?")
	assert.Equal(t, "?", in.Prefix)
	require.NotNil(t, in.Author)
	assert.Equal(t, "alice", in.Author.User.Username)
	assert.Equal(t, "Ally", in.Author.Nick)
	require.NotNil(t, in.Target)
	assert.Equal(t, "bob", in.Target.User.Username)
	assert.Equal(t, "general", in.Channel.Name)
	assert.Equal(t, "Test Guild", in.Guild.Name)
}

func TestHistoryEntry(t *testing.T) {
	at := time.Date(2024, 3, 9, 14, 5, 6, 0, time.FixedZone("X", 3600))
	e := HistoryEntry(channelID, "general", "Test Guild", &discordgo.User{ID: "1", Username: "alice"}, "tag", at)

	assert.Equal(t, "alice", e.Username)
	assert.Equal(t, "tag", e.Command)
	assert.Equal(t, time.UTC, e.Datetime.Location())
	assert.True(t, at.Equal(e.Datetime))
}

func TestIsDeveloper(t *testing.T) {
	assert.True(t, IsDeveloper("1", "1"))
	assert.False(t, IsDeveloper("1", "2"))
	assert.False(t, IsDeveloper("", ""))
}

type slashStub struct {
	def *discordgo.ApplicationCommand
}

func (s *slashStub) Name() string                                   { return s.def.Name }
func (s *slashStub) Description() string                            { return s.def.Description }
func (s *slashStub) Category() string                               { return "Testing" }
func (s *slashStub) UserPermissions() []int64                       { return nil }
func (s *slashStub) Run(any) error                                  { return nil }
func (s *slashStub) SlashDefinition() *discordgo.ApplicationCommand { return s.def }

type plainStub struct{}

func (plainStub) Name() string                               { return "plain" }
func (plainStub) Description() string                        { return "no slash definition" }
func (plainStub) Run(context.Context, *cmd.Invocation) error { return nil }

func TestCommandDefinitions(t *testing.T) {
	wrapped := cmd.Apply(&command.DiscordAdapter{Cmd: &slashStub{def: &discordgo.ApplicationCommand{Name: "x", Description: "d"}}},
		func(c cmd.Command) cmd.Command { return cmd.Wrap(c, c.Run) })

	defs := buildCommandDefinitions([]cmd.Command{wrapped, plainStub{}})
	require.Len(t, defs, 1)
	assert.Equal(t, "x", defs[0].Name)
	assert.Equal(t, discordgo.ChatApplicationCommand, defs[0].Type)
}

func TestHashCommandIgnoresOptionOrder(t *testing.T) {
	a := &discordgo.ApplicationCommand{Name: "tag", Description: "d", Options: []*discordgo.ApplicationCommandOption{
		{Name: "add", Type: discordgo.ApplicationCommandOptionSubCommand},
		{Name: "run", Type: discordgo.ApplicationCommandOptionSubCommand},
	}}
	b := &discordgo.ApplicationCommand{Name: "tag", Description: "d", Options: []*discordgo.ApplicationCommandOption{
		{Name: "run", Type: discordgo.ApplicationCommandOptionSubCommand},
		{Name: "add", Type: discordgo.ApplicationCommandOptionSubCommand},
	}}
	assert.Equal(t, hashCommand(a), hashCommand(b))

	b.Options[0].Description = "changed"
	assert.NotEqual(t, hashCommand(a), hashCommand(b))
}

func TestChangedCommands(t *testing.T) {
	same := &discordgo.ApplicationCommand{Name: "same", Description: "d"}
	edited := &discordgo.ApplicationCommand{Name: "edited", Description: "new"}
	missing := &discordgo.ApplicationCommand{Name: "missing", Description: "d"}

	remote := map[string]*discordgo.ApplicationCommand{
		"same":   {Name: "same"},
		"edited": {Name: "edited"},
	}
	hashes := map[string]string{
		"same":    hashCommand(same),
		"edited":  hashCommand(&discordgo.ApplicationCommand{Name: "edited", Description: "old"}),
		"missing": hashCommand(missing),
	}

	changed := changedCommands([]*discordgo.ApplicationCommand{same, edited, missing}, remote, hashes)
	var names []string
	for _, c := range changed {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"edited", "missing"}, names)
}

func TestCommandHashCache(t *testing.T) {
	old := commandCacheDir
	commandCacheDir = t.TempDir()
	t.Cleanup(func() { commandCacheDir = old })

	assert.Empty(t, loadCommandHashes(guildID))
	saveCommandHashes(guildID, map[string]string{"tag": "abc"})
	assert.Equal(t, map[string]string{"tag": "abc"}, loadCommandHashes(guildID))
}
