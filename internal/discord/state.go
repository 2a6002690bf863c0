package discord

import (
	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"

	"server-tags/pkg/tagscript/discordadapter"
)

// Guild returns the guild from state, falling back to the API. State copies
// carry members and presences; API copies do not.
func Guild(s *discordgo.Session, guildID string) *discordgo.Guild {
	if guildID == "" {
		return nil
	}
	if g, err := s.State.Guild(guildID); err == nil {
		return g
	}
	g, err := s.Guild(guildID)
	if err != nil {
		log.Warn().Err(err).Str("guild_id", guildID).Msg("Failed to fetch guild")
		return nil
	}
	return g
}

// Channel returns the channel from state, falling back to the API and then
// to a bare channel carrying only the id.
func Channel(s *discordgo.Session, channelID string) *discordgo.Channel {
	if c, err := s.State.Channel(channelID); err == nil {
		return c
	}
	if c, err := s.Channel(channelID); err == nil {
		return c
	}
	return &discordgo.Channel{ID: channelID}
}

// MessageSeed describes a prefixed message invocation.
func MessageSeed(s *discordgo.Session, m *discordgo.MessageCreate, prefix string) discordadapter.SeedInput {
	in := discordadapter.SeedInput{
		User:    m.Author,
		Channel: Channel(s, m.ChannelID),
		Guild:   Guild(s, m.GuildID),
		Prefix:  prefix,
	}
	if m.Member != nil {
		member := *m.Member
		member.User = m.Author
		in.Author = &member
	}
	if len(m.Mentions) > 0 && in.Guild != nil {
		if target, err := s.State.Member(m.GuildID, m.Mentions[0].ID); err == nil {
			in.Target = target
		}
	}
	return in
}

// InteractionSeed describes a slash command invocation.
func InteractionSeed(s *discordgo.Session, e *discordgo.InteractionCreate) discordadapter.SeedInput {
	return discordadapter.SeedInput{
		Author:  e.Member,
		User:    e.User,
		Channel: Channel(s, e.ChannelID),
		Guild:   Guild(s, e.GuildID),
	}
}
