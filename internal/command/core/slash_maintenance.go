package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"server-tags/internal/command"
	"server-tags/internal/discord"
	"server-tags/internal/middleware"
	st "server-tags/internal/storagetypes"
)

const (
	discordMaxMessageLength = 2000
	codeLeftBlockWrapper    = "```md"
	codeRightBlockWrapper   = "```"
)

var maxHistoryLength = discordMaxMessageLength - len(codeLeftBlockWrapper) - len(codeRightBlockWrapper) - 2

type MaintenanceCommand struct{}

func (c *MaintenanceCommand) Name() string        { return "maintenance" }
func (c *MaintenanceCommand) Description() string { return "Bot maintenance commands" }
func (c *MaintenanceCommand) Category() string    { return "🛠️ Maintenance" }
func (c *MaintenanceCommand) UserPermissions() []int64 {
	return []int64{discordgo.PermissionAdministrator}
}

func (c *MaintenanceCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "ping",
				Description: "Check bot latency",
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "download-db",
				Description: "Download this server's stored data as JSON",
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "status",
				Description: "Show tag and greeting statistics",
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "history",
				Description: "Review recently used commands",
			},
		},
	}
}

func (c *MaintenanceCommand) Run(ctx any) error {
	slash, ok := ctx.(*command.SlashInteractionContext)
	if !ok {
		return fmt.Errorf("wrong context type %T", ctx)
	}
	s, e := slash.Session, slash.Event
	store := slash.Storage

	sub, _ := command.Subcommand(e)
	switch sub {
	case "ping":
		return discord.RespondNotice(s, e, fmt.Sprintf("🏓 Pong! %dms", s.HeartbeatLatency().Milliseconds()))

	case "download-db":
		record, err := store.GetGuildRecord(e.GuildID)
		if err != nil {
			return discord.RespondNotice(s, e, fmt.Sprintf("Failed to fetch record: %v", err))
		}
		data, err := json.MarshalIndent(record, "", "  ")
		if err != nil {
			return err
		}
		return s.InteractionRespond(e.Interaction, &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseChannelMessageWithSource,
			Data: &discordgo.InteractionResponseData{
				Flags:  discordgo.MessageFlagsEphemeral,
				Embeds: []*discordgo.MessageEmbed{discord.Notice("Current stored data for this server.")},
				Files: []*discordgo.File{{
					Name:        e.GuildID + "_datastore.json",
					ContentType: "application/json",
					Reader:      bytes.NewReader(data),
				}},
			},
		})

	case "status":
		record, err := store.GetGuildRecord(e.GuildID)
		if err != nil {
			return discord.RespondNotice(s, e, fmt.Sprintf("Failed to fetch record: %v", err))
		}
		return discord.RespondEmbedEphemeral(s, e, &discordgo.MessageEmbed{
			Title:       "📊 Status",
			Description: StatusReport(record, slash.Tags.Prefix(e.GuildID)),
			Color:       discord.EmbedColor,
		})

	case "history":
		records, err := store.GetCommandHistory(e.GuildID)
		if err != nil {
			return discord.RespondNotice(s, e, fmt.Sprintf("Failed to fetch command history: %v", err))
		}
		if len(records) == 0 {
			return discord.RespondNotice(s, e, "No command history yet.")
		}
		return discord.RespondEphemeral(s, e, HistoryTable(records))
	}

	return discord.RespondNotice(s, e, "Unknown subcommand.")
}

// StatusReport summarises what the guild has stored.
func StatusReport(r *st.Record, prefix string) string {
	var uses int64
	top := st.Tag{}
	for _, t := range r.Tags {
		uses += t.Uses
		if top.Name == "" || t.Uses > top.Uses || (t.Uses == top.Uses && t.Name < top.Name) {
			top = t
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Prefix: `%s`\n", prefix)
	fmt.Fprintf(&b, "Tags: %d\n", len(r.Tags))
	fmt.Fprintf(&b, "Tag uses: %d\n", uses)
	if top.Name != "" {
		fmt.Fprintf(&b, "Most used: `%s` (%d)\n", top.Name, top.Uses)
	}
	for _, kind := range []st.GreetingKind{st.GreetingWelcome, st.GreetingFarewell} {
		state := "off"
		if g, ok := r.Greetings[kind]; ok && g.Script != "" {
			state = "<#" + g.ChannelID + ">"
		}
		fmt.Fprintf(&b, "%s: %s\n", strings.ToUpper(string(kind[:1]))+string(kind[1:]), state)
	}
	return strings.TrimSpace(b.String())
}

// HistoryTable renders command history newest first as a fixed-width block.
func HistoryTable(records []st.CommandHistory) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%-19s\t%-15s\t%-12s\t%s\n", "# Datetime", "# Username", "# Channel", "# Command")

	for i := len(records) - 1; i >= 0; i-- {
		r := records[i]
		line := fmt.Sprintf("%-19s\t%-15s\t#%-12s\t/%s\n",
			r.Datetime.Format("2006-01-02 15:04:05"),
			r.Username,
			r.ChannelName,
			r.Command,
		)
		if b.Len()+len(line) > maxHistoryLength {
			break
		}
		b.WriteString(line)
	}
	return codeLeftBlockWrapper + "\n" + b.String() + codeRightBlockWrapper
}

func init() {
	command.RegisterCommand(
		&MaintenanceCommand{},
		middleware.WithGuildOnly(),
		middleware.WithUserPermissionCheck(),
		middleware.WithCommandLogger(),
	)
}
