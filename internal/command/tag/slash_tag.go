package tag

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/bwmarrin/discordgo"
	embed "github.com/clinet/discordgo-embed"

	"server-tags/internal/command"
	"server-tags/internal/discord"
	"server-tags/internal/middleware"
	"server-tags/internal/storage"
	st "server-tags/internal/storagetypes"
	"server-tags/internal/tags"
	"server-tags/pkg/tagscript"
)

// Members holding any of these may change tags they did not write.
var moderatorPermissions = []int64{discordgo.PermissionManageMessages, discordgo.PermissionManageGuild}

type TagCommand struct{}

func (c *TagCommand) Name() string             { return "tag" }
func (c *TagCommand) Description() string      { return "Create, inspect and run custom tags" }
func (c *TagCommand) Category() string         { return "🏷️ Tags" }
func (c *TagCommand) UserPermissions() []int64 { return []int64{} }

func (c *TagCommand) SlashDefinition() *discordgo.ApplicationCommand {
	name := func(desc string) *discordgo.ApplicationCommandOption {
		return &discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "name",
			Description: desc,
			Required:    true,
			MaxLength:   storage.MaxTagNameLength,
		}
	}
	content := &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionString,
		Name:        "content",
		Description: "TagScript body",
		Required:    true,
		MaxLength:   storage.MaxTagContentLength,
	}
	args := &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionString,
		Name:        "args",
		Description: "Arguments available as {args}",
	}

	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
		Options: []*discordgo.ApplicationCommandOption{
			sub("add", "Create a tag", name("Tag name"), content),
			sub("edit", "Change a tag's content", name("Tag name"), content),
			sub("remove", "Delete a tag", name("Tag name")),
			sub("info", "Show who made a tag and how often it ran", name("Tag name")),
			sub("raw", "Show a tag's unprocessed content", name("Tag name")),
			sub("list", "List this server's tags"),
			sub("run", "Run a tag", name("Tag name"), args),
			sub("preview", "Run TagScript without saving it", &discordgo.ApplicationCommandOption{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "script",
				Description: "TagScript to run",
				Required:    true,
			}, args),
		},
	}
}

func sub(name, desc string, opts ...*discordgo.ApplicationCommandOption) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionSubCommand,
		Name:        name,
		Description: desc,
		Options:     opts,
	}
}

func (c *TagCommand) Run(ctx any) error {
	slash, ok := ctx.(*command.SlashInteractionContext)
	if !ok {
		return fmt.Errorf("wrong context type %T", ctx)
	}
	s, e := slash.Session, slash.Event
	store := slash.Storage
	guildID := e.GuildID
	user := command.Invoker(e)

	name, opts := command.Subcommand(e)
	switch name {
	case "add":
		t, err := store.AddTag(guildID, opts.String("name"), opts.String("content"), user.ID)
		if err != nil {
			return discord.RespondNotice(s, e, failure(err))
		}
		return discord.RespondNotice(s, e, fmt.Sprintf("Tag `%s` added.", t.Name))

	case "edit", "remove":
		t, err := store.GetTag(guildID, opts.String("name"))
		if err != nil {
			return discord.RespondNotice(s, e, failure(err))
		}
		if !mayModify(slash, t) {
			return discord.RespondNotice(s, e, "Only the tag's author or a moderator can change it.")
		}
		if name == "remove" {
			if err := store.RemoveTag(guildID, t.Name); err != nil {
				return discord.RespondNotice(s, e, failure(err))
			}
			return discord.RespondNotice(s, e, fmt.Sprintf("Tag `%s` removed.", t.Name))
		}
		if _, err := store.EditTag(guildID, t.Name, opts.String("content")); err != nil {
			return discord.RespondNotice(s, e, failure(err))
		}
		return discord.RespondNotice(s, e, fmt.Sprintf("Tag `%s` updated.", t.Name))

	case "info":
		t, err := store.GetTag(guildID, opts.String("name"))
		if err != nil {
			return discord.RespondNotice(s, e, failure(err))
		}
		return discord.RespondEmbedEphemeral(s, e, InfoEmbed(t))

	case "raw":
		t, err := store.GetTag(guildID, opts.String("name"))
		if err != nil {
			return discord.RespondNotice(s, e, failure(err))
		}
		return discord.RespondEphemeral(s, e, CodeBlock(t.Content))

	case "list":
		list, err := store.ListTags(guildID)
		if err != nil {
			return err
		}
		return discord.RespondEmbedEphemeral(s, e, ListEmbed(list))

	case "run":
		if !slash.Tags.Allow(guildID, user.ID) {
			return discord.RespondNotice(s, e, tags.ErrRateLimited.Error())
		}
		resp, _, err := slash.Tags.Run(context.Background(), guildID, opts.String("name"), opts.String("args"), discord.InteractionSeed(s, e))
		if err != nil && !tags.Recoverable(err) {
			return discord.RespondNotice(s, e, failure(err))
		}
		return respondWithTag(slash, resp)

	case "preview":
		in := discord.InteractionSeed(s, e)
		in.Args = opts.String("args")
		resp, err := slash.Tags.Preview(context.Background(), opts.String("script"), false, in)
		if err != nil && !tags.Recoverable(err) {
			return err
		}
		return discord.RespondEmbedEphemeral(s, e, PreviewEmbed(resp))
	}

	return discord.RespondNotice(s, e, "Unknown subcommand.")
}

// respondWithTag answers the interaction with a tag's output. Redirected
// output goes through the regular delivery path and the interaction gets a
// short acknowledgement.
func respondWithTag(slash *command.SlashInteractionContext, resp *tagscript.Response) error {
	s, e := slash.Session, slash.Event
	a := resp.Actions

	if a.Target == tagscript.TargetDM || (a.Target != "" && a.Target != tagscript.TargetReply) {
		target := tags.Target{GuildID: e.GuildID, ChannelID: e.ChannelID, AuthorID: command.Invoker(e).ID}
		if _, err := slash.Tags.Deliver(context.Background(), s, resp, target); err != nil {
			return discord.RespondNotice(s, e, failure(err))
		}
		return discord.RespondNotice(s, e, "Sent.")
	}
	if a.Silent || (strings.TrimSpace(resp.Body) == "" && a.Embed == nil) {
		return discord.RespondNotice(s, e, "The tag ran without output.")
	}

	data := &discordgo.InteractionResponseData{
		Content: resp.Body,
		AllowedMentions: &discordgo.MessageAllowedMentions{
			Parse: []discordgo.AllowedMentionType{discordgo.AllowedMentionTypeUsers},
		},
	}
	if a.Embed != nil {
		data.Embeds = []*discordgo.MessageEmbed{tags.RenderEmbed(a.Embed)}
	}
	return s.InteractionRespond(e.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: data,
	})
}

func mayModify(slash *command.SlashInteractionContext, t st.Tag) bool {
	m := slash.Event.Member
	if m == nil || m.User == nil {
		return false
	}
	if m.User.ID == t.AuthorID {
		return true
	}
	if slash.Config != nil && discord.IsDeveloper(slash.Config.DeveloperID, m.User.ID) {
		return true
	}
	perms, err := discord.MemberPermissions(slash.Session, m, slash.Event.ChannelID)
	if err != nil {
		return false
	}
	ok, _ := middleware.HasAnyPermission(perms, moderatorPermissions)
	return ok
}

// failure turns a storage or run error into a message for the invoker.
func failure(err error) string {
	switch {
	case errors.Is(err, storage.ErrTagNotFound):
		return "No tag by that name."
	case errors.Is(err, storage.ErrTagExists):
		return "A tag by that name already exists."
	default:
		return fmt.Sprintf("Failed: %v", err)
	}
}

// InfoEmbed describes a tag's metadata.
func InfoEmbed(t st.Tag) *discordgo.MessageEmbed {
	e := embed.NewEmbed().
		SetTitle("Tag: "+t.Name).
		SetColor(discord.EmbedColor).
		AddField("Author", "<@"+t.AuthorID+">").
		AddField("Uses", fmt.Sprint(t.Uses)).
		AddField("Created", fmt.Sprintf("<t:%d:R>", t.CreatedAt.Unix())).
		AddField("Updated", fmt.Sprintf("<t:%d:R>", t.UpdatedAt.Unix())).
		MessageEmbed
	for _, f := range e.Fields {
		f.Inline = true
	}
	return e
}

// ListEmbed lists tag names, stopping before Discord's description limit.
func ListEmbed(list []st.Tag) *discordgo.MessageEmbed {
	e := embed.NewEmbed().SetTitle("Tags").SetColor(discord.EmbedColor)
	if len(list) == 0 {
		return e.SetDescription("This server has no tags yet. Create one with `/tag add`.").MessageEmbed
	}

	var b strings.Builder
	shown := 0
	for _, t := range list {
		item := "`" + t.Name + "`"
		if shown > 0 {
			item = ", " + item
		}
		if b.Len()+len(item) > 2000 {
			break
		}
		b.WriteString(item)
		shown++
	}
	footer := fmt.Sprintf("%d tags", len(list))
	if shown < len(list) {
		footer = fmt.Sprintf("%d of %d tags shown", shown, len(list))
	}
	return e.SetDescription(b.String()).SetFooter(footer).MessageEmbed
}

// PreviewEmbed shows a script's output together with the actions it queued.
func PreviewEmbed(resp *tagscript.Response) *discordgo.MessageEmbed {
	body := resp.Body
	if strings.TrimSpace(body) == "" {
		body = "(no output)"
	}
	e := embed.NewEmbed().SetTitle("Preview").SetColor(discord.EmbedColor).SetDescription(body)

	a := resp.Actions
	if a.Target != "" {
		e.AddField("Redirect", a.Target)
	}
	if len(a.React) > 0 {
		e.AddField("React", strings.Join(a.React, " "))
	}
	if len(a.ReactU) > 0 {
		e.AddField("React to invoker", strings.Join(a.ReactU, " "))
	}
	if len(a.Commands) > 0 {
		e.AddField("Commands", strings.Join(a.Commands, "\n"))
	}
	if a.Silent {
		e.AddField("Silent", "yes")
	}
	if a.Delete {
		e.AddField("Delete invocation", "yes")
	}
	if a.Embed != nil {
		e.AddField("Embed", "yes")
	}
	return e.MessageEmbed
}

// CodeBlock shows s verbatim, defusing any fence inside it.
func CodeBlock(s string) string {
	s = strings.ReplaceAll(s, "```", "`\u200b``")
	if len(s) > 1990 {
		n := 1990
		for n > 0 && !utf8.RuneStart(s[n]) {
			n--
		}
		s = s[:n]
	}
	return "```\n" + s + "\n```"
}

func init() {
	command.RegisterCommand(
		&TagCommand{},
		middleware.WithGuildOnly(),
		middleware.WithUserPermissionCheck(),
		middleware.WithCommandLogger(),
	)
}
