package core

import (
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/bwmarrin/discordgo"

	"server-tags/internal/command"
	"server-tags/internal/discord"
	"server-tags/internal/middleware"
	"server-tags/pkg/cmd"
)

// CategoryOrder orders help sections; unknown categories sort last.
var CategoryOrder = []string{"🏷️ Tags", "⚙️ Settings", "🛠️ Maintenance"}

type HelpCommand struct{}

func (c *HelpCommand) Name() string             { return "help" }
func (c *HelpCommand) Description() string      { return "List commands or learn TagScript" }
func (c *HelpCommand) Category() string         { return "🛠️ Maintenance" }
func (c *HelpCommand) UserPermissions() []int64 { return []int64{} }

func (c *HelpCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "commands",
				Description: "View commands grouped by category",
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "tagscript",
				Description: "TagScript block reference",
			},
		},
	}
}

func (c *HelpCommand) Run(ctx any) error {
	slash, ok := ctx.(*command.SlashInteractionContext)
	if !ok {
		return fmt.Errorf("wrong context type %T", ctx)
	}
	s, e := slash.Session, slash.Event

	title, body := "Commands", BuildHelpByCategory(cmd.DefaultRegistry.GetAll())
	if sub, _ := command.Subcommand(e); sub == "tagscript" {
		title, body = "TagScript", TagScriptReference(slash.Tags.Prefix(e.GuildID))
	}
	return discord.RespondEmbedEphemeral(s, e, &discordgo.MessageEmbed{
		Title:       title,
		Description: body,
		Color:       discord.EmbedColor,
	})
}

// BuildHelpByCategory renders commands under their category headings.
func BuildHelpByCategory(all []cmd.Command) string {
	byCategory := make(map[string][]cmd.Command)
	for _, c := range all {
		cat := "Other"
		if meta, ok := command.Meta(c); ok {
			cat = meta.Category()
		}
		byCategory[cat] = append(byCategory[cat], c)
	}

	cats := make([]string, 0, len(byCategory))
	for cat := range byCategory {
		cats = append(cats, cat)
	}
	weight := func(cat string) int {
		if w := slices.Index(CategoryOrder, cat); w >= 0 {
			return w
		}
		return len(CategoryOrder)
	}
	sort.Slice(cats, func(i, j int) bool {
		if wi, wj := weight(cats[i]), weight(cats[j]); wi != wj {
			return wi < wj
		}
		return cats[i] < cats[j]
	})

	var sb strings.Builder
	for _, cat := range cats {
		fmt.Fprintf(&sb, "**%s**\n", cat)
		for _, c := range byCategory[cat] {
			fmt.Fprintf(&sb, "`/%s` - %s\n", c.Name(), c.Description())
		}
		sb.WriteString("\n")
	}
	return strings.TrimSpace(sb.String())
}

// TagScriptReference is the short block guide shown by /help tagscript.
func TagScriptReference(prefix string) string {
	lines := []string{
		"Run a tag with `" + prefix + "name args`. Blocks look like `{name(parameter):payload}`.",
		"",
		"**Variables** `{args}` `{args(2)}` `{author}` `{author(mention)}` `{target}` `{channel}` `{server}` `{uses}` `{unix}` `{prefix}`",
		"**Assign** `{=(name):value}` then `{name}`",
		"**Logic** `{if(a==b):then|else}` `{any(a==b|c>d):yes|no}` `{all(...):yes|no}` `{break(cond):message}`",
		"**Random** `{random:a,b,c}` `{random:2|likely,1|rare}` `{range:1-10}` `{50:maybe}`",
		"**Math** `{math:2^8+1}`",
		"**Text** `{upper:x}` `{lower:x}` `{replace(a,b):text}` `{substr(1-3):text}` `{urlencode:x}` `{strf:%Y-%m-%d}`",
		"**Guards** `{require(Role):denied}` `{blacklist(#channel):denied}`",
		"**Actions** `{react:👍}` `{reactu:✅}` `{dm}` `{reply}` `{redirect(#channel)}` `{silent}` `{delete}` `{c:other tag}`",
		"**Embeds** `{embed(title):Hi}` `{embed(color):#ff0000}` `{embed(field):Name|Value|true}`",
		"",
		"Escape `{ } ( ) : |` with a backslash.",
	}
	return strings.Join(lines, "\n")
}

func init() {
	command.RegisterCommand(
		&HelpCommand{},
		middleware.WithGuildOnly(),
		middleware.WithCommandLogger(),
	)
}
