package discord

import (
	"github.com/bwmarrin/discordgo"
)

// IsDeveloper reports whether userID is the configured developer.
func IsDeveloper(developerID, userID string) bool {
	return developerID != "" && developerID == userID
}

// MemberPermissions returns the member's effective permissions in a channel.
// Interaction payloads already carry them; otherwise they are computed from
// state.
func MemberPermissions(s *discordgo.Session, m *discordgo.Member, channelID string) (int64, error) {
	if m.Permissions != 0 {
		return m.Permissions, nil
	}
	return s.UserChannelPermissions(m.User.ID, channelID)
}
