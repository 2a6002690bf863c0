// Package discordadapter exposes discordgo objects to tagscript.
//
// Every adapter is built from data the caller already holds. Nothing here
// calls the Discord API, so a guild adapter only knows the members and
// presences present in the *discordgo.Guild it was given.
package discordadapter

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/bwmarrin/discordgo"

	"server-tags/pkg/tagscript"
)

const avatarSize = "256"

func created(id string) time.Time {
	t, err := discordgo.SnowflakeTimestamp(id)
	if err != nil {
		return time.Time{}
	}
	return t
}

// User wraps a user that may not belong to the guild.
func User(u *discordgo.User) *tagscript.AttributeAdapter {
	a := tagscript.NewAttributeAdapter(u.String()).
		WithIdentity(u.ID, u.Username, created(u.ID))
	userAttributes(a, u)
	return a
}

func userAttributes(a *tagscript.AttributeAdapter, u *discordgo.User) {
	a.Attr("avatar", u.AvatarURL(avatarSize)).
		Attr("discriminator", u.Discriminator).
		Attr("mention", u.Mention()).
		Attr("bot", strconv.FormatBool(u.Bot)).
		EscapedAttr("global_name", u.GlobalName).
		EscapedAttr("nick", displayName(u, "")).
		Attr("color", "#000000").
		Attr("roles", "")
}

// Member wraps a guild member. The guild, when given, resolves role colors
// and names.
func Member(m *discordgo.Member, g *discordgo.Guild) *tagscript.AttributeAdapter {
	u := m.User
	if u == nil {
		u = &discordgo.User{}
	}
	a := tagscript.NewAttributeAdapter(u.String()).
		WithIdentity(u.ID, u.Username, created(u.ID))
	userAttributes(a, u)

	roles := memberRoles(m, g)
	names := make([]string, 0, len(roles))
	for _, r := range roles {
		names = append(names, r.Name)
		a.Identify(r.ID, r.Name)
	}

	a.EscapedAttr("nick", displayName(u, m.Nick)).
		Attr("color", roleColor(roles)).
		EscapedAttr("roles", joinComma(names))
	if !m.JoinedAt.IsZero() {
		a.Attr("joined_at", m.JoinedAt.UTC().Format("2006-01-02 15:04:05"))
	}
	if m.Avatar != "" && g != nil {
		a.Attr("avatar", m.AvatarURL(avatarSize))
	}
	return a
}

func displayName(u *discordgo.User, nick string) string {
	switch {
	case nick != "":
		return nick
	case u.GlobalName != "":
		return u.GlobalName
	}
	return u.Username
}

// memberRoles returns the member's roles known to the guild, highest first.
func memberRoles(m *discordgo.Member, g *discordgo.Guild) []*discordgo.Role {
	if g == nil {
		return nil
	}
	byID := make(map[string]*discordgo.Role, len(g.Roles))
	for _, r := range g.Roles {
		byID[r.ID] = r
	}
	var roles []*discordgo.Role
	for _, id := range m.Roles {
		if r, ok := byID[id]; ok {
			roles = append(roles, r)
		}
	}
	sort.Slice(roles, func(i, j int) bool { return roles[i].Position > roles[j].Position })
	return roles
}

func roleColor(roles []*discordgo.Role) string {
	for _, r := range roles {
		if r.Color != 0 {
			return fmt.Sprintf("#%06x", r.Color)
		}
	}
	return "#000000"
}

// Channel wraps a guild text channel.
func Channel(c *discordgo.Channel) *tagscript.AttributeAdapter {
	return tagscript.NewAttributeAdapter(c.Name).
		WithIdentity(c.ID, c.Name, created(c.ID)).
		Attr("nsfw", strconv.FormatBool(c.NSFW)).
		Attr("mention", c.Mention()).
		EscapedAttr("topic", c.Topic).
		Attr("position", strconv.Itoa(c.Position))
}

// Guild wraps a guild. random, randomonline and randomoffline pick from the
// cached members using the run's random source.
func Guild(g *discordgo.Guild) *tagscript.AttributeAdapter {
	bots, humans := 0, 0
	for _, m := range g.Members {
		if m.User != nil && m.User.Bot {
			bots++
		} else {
			humans++
		}
	}
	count := g.MemberCount
	if count == 0 {
		count = len(g.Members)
	}

	owner := ""
	if g.OwnerID != "" {
		owner = "<@" + g.OwnerID + ">"
	}

	online := map[string]bool{}
	for _, p := range g.Presences {
		if p.User != nil && p.Status != discordgo.StatusOffline && p.Status != "" {
			online[p.User.ID] = true
		}
	}

	return tagscript.NewAttributeAdapter(g.Name).
		WithIdentity(g.ID, g.Name, created(g.ID)).
		Attr("icon", g.IconURL(avatarSize)).
		Attr("member_count", strconv.Itoa(count)).
		Attr("bots", strconv.Itoa(bots)).
		Attr("humans", strconv.Itoa(humans)).
		EscapedAttr("description", g.Description).
		Attr("channels", strconv.Itoa(len(g.Channels))).
		Attr("roles", strconv.Itoa(len(g.Roles))).
		Attr("owner", owner).
		Method("random", func(ctx *tagscript.Context) string {
			return pickMember(ctx, g.Members, func(*discordgo.Member) bool { return true })
		}).
		Method("randomonline", func(ctx *tagscript.Context) string {
			return pickMember(ctx, g.Members, func(m *discordgo.Member) bool { return online[m.User.ID] })
		}).
		Method("randomoffline", func(ctx *tagscript.Context) string {
			return pickMember(ctx, g.Members, func(m *discordgo.Member) bool { return !online[m.User.ID] })
		})
}

func pickMember(ctx *tagscript.Context, members []*discordgo.Member, keep func(*discordgo.Member) bool) string {
	var pool []*discordgo.Member
	for _, m := range members {
		if m.User != nil && keep(m) {
			pool = append(pool, m)
		}
	}
	if len(pool) == 0 {
		return ""
	}
	m := pool[ctx.Rand().IntN(len(pool))]
	return tagscript.Escape(displayName(m.User, m.Nick))
}

func joinComma(items []string) string {
	out := ""
	for i, s := range items {
		if i > 0 {
			out += ", "
		}
		out += s
	}
	return out
}
