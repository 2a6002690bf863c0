package command

import (
	"context"

	"github.com/bwmarrin/discordgo"

	"server-tags/internal/config"
	"server-tags/internal/storage"
	"server-tags/internal/tags"
	"server-tags/pkg/cmd"
)

// SlashInteractionContext is what a slash command receives as Invocation.Data.
type SlashInteractionContext struct {
	Session *discordgo.Session
	Event   *discordgo.InteractionCreate
	Args    []string
	Storage *storage.Storage
	Tags    *tags.Service
	Config  *config.Config
}

// SlashProvider commands are registered with Discord as slash commands.
type SlashProvider interface {
	SlashDefinition() *discordgo.ApplicationCommand
}

// DiscordMeta lets middleware read a command's category and permissions
// without knowing its concrete type.
type DiscordMeta interface {
	Category() string
	UserPermissions() []int64
}

// DiscordCommand is implemented by each command package.
type DiscordCommand interface {
	Name() string
	Description() string
	Category() string
	UserPermissions() []int64
	Run(ctx any) error
}

// DiscordAdapter makes a DiscordCommand a cmd.Command.
type DiscordAdapter struct {
	Cmd DiscordCommand
}

func (a *DiscordAdapter) Name() string             { return a.Cmd.Name() }
func (a *DiscordAdapter) Description() string      { return a.Cmd.Description() }
func (a *DiscordAdapter) Category() string         { return a.Cmd.Category() }
func (a *DiscordAdapter) UserPermissions() []int64 { return a.Cmd.UserPermissions() }

func (a *DiscordAdapter) Run(ctx context.Context, inv *cmd.Invocation) error {
	return a.Cmd.Run(inv.Data)
}

func (a *DiscordAdapter) SlashDefinition() *discordgo.ApplicationCommand {
	if sp, ok := a.Cmd.(SlashProvider); ok {
		return sp.SlashDefinition()
	}
	return nil
}

// RegisterCommand wraps discordCmd with mws and adds it to the default
// registry.
func RegisterCommand(discordCmd DiscordCommand, mws ...cmd.Middleware) {
	cmd.DefaultRegistry.Register(cmd.Apply(&DiscordAdapter{Cmd: discordCmd}, mws...))
}

// Meta returns the DiscordMeta under any middleware, if c has one.
func Meta(c cmd.Command) (DiscordMeta, bool) {
	m, ok := cmd.Root(c).(DiscordMeta)
	return m, ok
}
