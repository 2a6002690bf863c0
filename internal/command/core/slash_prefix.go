package core

import (
	"fmt"

	"github.com/bwmarrin/discordgo"

	"server-tags/internal/command"
	"server-tags/internal/discord"
	"server-tags/internal/middleware"
)

type PrefixCommand struct{}

func (c *PrefixCommand) Name() string        { return "prefix" }
func (c *PrefixCommand) Description() string { return "Show or change the prefix used to run tags" }
func (c *PrefixCommand) Category() string    { return "⚙️ Settings" }
func (c *PrefixCommand) UserPermissions() []int64 {
	return []int64{discordgo.PermissionManageGuild}
}

func (c *PrefixCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "prefix",
				Description: "New prefix, 1-5 characters without spaces",
				MaxLength:   5,
			},
		},
	}
}

func (c *PrefixCommand) Run(ctx any) error {
	slash, ok := ctx.(*command.SlashInteractionContext)
	if !ok {
		return fmt.Errorf("wrong context type %T", ctx)
	}
	s, e := slash.Session, slash.Event

	_, opts := command.Subcommand(e)
	prefix := opts.String("prefix")
	if prefix == "" {
		return discord.RespondNotice(s, e, fmt.Sprintf("Tags run with `%sname`.", slash.Tags.Prefix(e.GuildID)))
	}
	if err := slash.Storage.SetPrefix(e.GuildID, prefix); err != nil {
		return discord.RespondNotice(s, e, fmt.Sprintf("Failed: %v", err))
	}
	return discord.RespondNotice(s, e, fmt.Sprintf("Tags now run with `%sname`.", prefix))
}

func init() {
	command.RegisterCommand(
		&PrefixCommand{},
		middleware.WithGuildOnly(),
		middleware.WithUserPermissionCheck(),
		middleware.WithCommandLogger(),
	)
}
