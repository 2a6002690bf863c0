package command

import "github.com/bwmarrin/discordgo"

// Options is a slash command's option list keyed by name.
type Options map[string]*discordgo.ApplicationCommandInteractionDataOption

// Subcommand returns the invoked subcommand name and its options. For a
// command without subcommands the name is empty and the top-level options
// are returned.
func Subcommand(e *discordgo.InteractionCreate) (string, Options) {
	data := e.ApplicationCommandData()
	if len(data.Options) == 1 && data.Options[0].Type == discordgo.ApplicationCommandOptionSubCommand {
		sub := data.Options[0]
		return sub.Name, optionMap(sub.Options)
	}
	return "", optionMap(data.Options)
}

func optionMap(opts []*discordgo.ApplicationCommandInteractionDataOption) Options {
	m := make(Options, len(opts))
	for _, o := range opts {
		m[o.Name] = o
	}
	return m
}

// String returns the named string option or "".
func (o Options) String(name string) string {
	if opt, ok := o[name]; ok && opt.Type == discordgo.ApplicationCommandOptionString {
		return opt.StringValue()
	}
	return ""
}

// ChannelID returns the named channel option's id or "".
func (o Options) ChannelID(name string) string {
	if opt, ok := o[name]; ok && opt.Type == discordgo.ApplicationCommandOptionChannel {
		if id, ok := opt.Value.(string); ok {
			return id
		}
	}
	return ""
}

// Invoker returns the user behind an interaction, whether in a guild or a DM.
func Invoker(e *discordgo.InteractionCreate) *discordgo.User {
	if e.Member != nil && e.Member.User != nil {
		return e.Member.User
	}
	if e.User != nil {
		return e.User
	}
	return &discordgo.User{ID: "unknown", Username: "Unknown"}
}
