package discordadapter

import (
	"github.com/bwmarrin/discordgo"

	"server-tags/pkg/tagscript"
)

// SeedInput is everything known about an invocation. Any field may be nil or
// empty; the matching variables are then left out.
type SeedInput struct {
	Author  *discordgo.Member
	User    *discordgo.User // used when Author is nil, e.g. in DMs
	Target  *discordgo.Member
	Channel *discordgo.Channel
	Guild   *discordgo.Guild
	Args    string
	Prefix  string
	Uses    int64
	Unix    int64
}

// Seed builds the variables every tag run starts with. Each adapter is bound
// under both of its names.
func Seed(in SeedInput) map[string]tagscript.Adapter {
	seed := map[string]tagscript.Adapter{}
	bind := func(a tagscript.Adapter, names ...string) {
		for _, n := range names {
			seed[n] = a
		}
	}

	switch {
	case in.Author != nil:
		bind(Member(in.Author, in.Guild), "author", "user")
	case in.User != nil:
		bind(User(in.User), "author", "user")
	}

	switch {
	case in.Target != nil:
		bind(Member(in.Target, in.Guild), "target", "member")
	case in.Author != nil || in.User != nil:
		seed["target"], seed["member"] = seed["author"], seed["author"]
	}

	if in.Channel != nil {
		bind(Channel(in.Channel), "channel")
	}
	if in.Guild != nil {
		bind(Guild(in.Guild), "guild", "server")
	}

	bind(tagscript.NewEscapedStringAdapter(in.Args), "args", "argument")
	bind(tagscript.NewIntAdapter(in.Unix), "unix")
	bind(tagscript.NewIntAdapter(in.Uses), "uses")
	if in.Prefix != "" {
		bind(tagscript.NewStringAdapter(in.Prefix), "prefix")
	}
	return seed
}
