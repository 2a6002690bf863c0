package greet

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	embed "github.com/clinet/discordgo-embed"

	"server-tags/internal/command"
	"server-tags/internal/discord"
	"server-tags/internal/middleware"
	st "server-tags/internal/storagetypes"
)

type GreetCommand struct{}

func (c *GreetCommand) Name() string        { return "greet" }
func (c *GreetCommand) Description() string { return "Configure welcome and farewell messages" }
func (c *GreetCommand) Category() string    { return "⚙️ Settings" }
func (c *GreetCommand) UserPermissions() []int64 {
	return []int64{discordgo.PermissionManageGuild}
}

func (c *GreetCommand) SlashDefinition() *discordgo.ApplicationCommand {
	kind := &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionString,
		Name:        "kind",
		Description: "Which message",
		Required:    true,
		Choices: []*discordgo.ApplicationCommandOptionChoice{
			{Name: "Welcome", Value: string(st.GreetingWelcome)},
			{Name: "Farewell", Value: string(st.GreetingFarewell)},
		},
	}
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "set",
				Description: "Set the channel and TagScript for a greeting",
				Options: []*discordgo.ApplicationCommandOption{
					kind,
					{
						Type:         discordgo.ApplicationCommandOptionChannel,
						Name:         "channel",
						Description:  "Where to post it",
						Required:     true,
						ChannelTypes: []discordgo.ChannelType{discordgo.ChannelTypeGuildText},
					},
					{
						Type:        discordgo.ApplicationCommandOptionString,
						Name:        "script",
						Description: "TagScript, e.g. Welcome {member(mention)} to {server}!",
						Required:    true,
					},
				},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "clear",
				Description: "Turn a greeting off",
				Options:     []*discordgo.ApplicationCommandOption{kind},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "test",
				Description: "Post a greeting as if you had just joined or left",
				Options:     []*discordgo.ApplicationCommandOption{kind},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "show",
				Description: "Show the configured greetings",
			},
		},
	}
}

func (c *GreetCommand) Run(ctx any) error {
	slash, ok := ctx.(*command.SlashInteractionContext)
	if !ok {
		return fmt.Errorf("wrong context type %T", ctx)
	}
	s, e := slash.Session, slash.Event
	store := slash.Storage
	guildID := e.GuildID

	name, opts := command.Subcommand(e)
	kind := st.GreetingKind(opts.String("kind"))

	switch name {
	case "set":
		channelID := opts.ChannelID("channel")
		if err := store.SetGreeting(guildID, kind, channelID, opts.String("script")); err != nil {
			return discord.RespondNotice(s, e, fmt.Sprintf("Failed: %v", err))
		}
		return discord.RespondNotice(s, e, fmt.Sprintf("The %s message will be posted in <#%s>.", kind, channelID))

	case "clear":
		if err := store.ClearGreeting(guildID, kind); err != nil {
			return discord.RespondNotice(s, e, fmt.Sprintf("Failed: %v", err))
		}
		return discord.RespondNotice(s, e, fmt.Sprintf("The %s message is off.", kind))

	case "test":
		if _, ok, err := store.GetGreeting(guildID, kind); err != nil || !ok {
			return discord.RespondNotice(s, e, fmt.Sprintf("No %s message is configured.", kind))
		}
		if err := discord.RespondDeferred(s, e, true); err != nil {
			return err
		}
		if err := slash.Tags.Greet(context.Background(), s, kind, e.Member, discord.Guild(s, guildID)); err != nil {
			return discord.FollowupNotice(s, e, fmt.Sprintf("Failed: %v", err))
		}
		return discord.FollowupNotice(s, e, "Sent.")

	case "show":
		greetings, err := store.GetGreetings(guildID)
		if err != nil {
			return err
		}
		return discord.RespondEmbedEphemeral(s, e, ShowEmbed(greetings))
	}

	return discord.RespondNotice(s, e, "Unknown subcommand.")
}

// ShowEmbed lists the configured greetings with their raw scripts.
func ShowEmbed(greetings map[st.GreetingKind]st.Greeting) *discordgo.MessageEmbed {
	e := embed.NewEmbed().SetTitle("Greetings").SetColor(discord.EmbedColor)
	for _, kind := range []st.GreetingKind{st.GreetingWelcome, st.GreetingFarewell} {
		g, ok := greetings[kind]
		if !ok || g.Script == "" {
			e.AddField(string(kind), "off")
			continue
		}
		e.AddField(string(kind), fmt.Sprintf("<#%s>\n```\n%s\n```", g.ChannelID, g.Script))
	}
	return e.MessageEmbed
}

func init() {
	command.RegisterCommand(
		&GreetCommand{},
		middleware.WithGuildOnly(),
		middleware.WithUserPermissionCheck(),
		middleware.WithCommandLogger(),
	)
}
