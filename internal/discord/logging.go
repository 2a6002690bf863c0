package discord

import (
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"

	"server-tags/internal/storage"
	st "server-tags/internal/storagetypes"
)

// LogCommand records a command execution in the guild's history, resolving
// channel and guild names from state first and the API second.
func LogCommand(s *discordgo.Session, store *storage.Storage, guildID, channelID string, user *discordgo.User, commandName string) error {
	channelName, guildName := resolveNames(s, guildID, channelID)
	return store.AppendCommandHistory(guildID, HistoryEntry(channelID, channelName, guildName, user, commandName, time.Now()))
}

// HistoryEntry builds the stored record of one command execution.
func HistoryEntry(channelID, channelName, guildName string, user *discordgo.User, commandName string, at time.Time) st.CommandHistory {
	return st.CommandHistory{
		ChannelID:   channelID,
		ChannelName: channelName,
		GuildName:   guildName,
		UserID:      user.ID,
		Username:    user.Username,
		Command:     commandName,
		Datetime:    at.UTC(),
	}
}

func resolveNames(s *discordgo.Session, guildID, channelID string) (channelName, guildName string) {
	channel, err := s.State.Channel(channelID)
	if err != nil {
		if channel, err = s.Channel(channelID); err != nil {
			log.Warn().Err(err).Str("channel_id", channelID).Msg("Failed to fetch channel")
		}
	}
	if channel != nil {
		channelName = channel.Name
	}

	guild, err := s.State.Guild(guildID)
	if err != nil {
		if guild, err = s.Guild(guildID); err != nil {
			log.Warn().Err(err).Str("guild_id", guildID).Msg("Failed to fetch guild")
		}
	}
	if guild != nil {
		guildName = guild.Name
	}
	return channelName, guildName
}
