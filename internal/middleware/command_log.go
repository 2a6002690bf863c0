package middleware

import (
	"context"

	"github.com/rs/zerolog/log"

	"server-tags/internal/command"
	"server-tags/internal/discord"
	"server-tags/pkg/cmd"
)

// WithCommandLogger records every slash command in the guild's history and
// logs failures.
func WithCommandLogger() cmd.Middleware {
	return func(c cmd.Command) cmd.Command {
		return cmd.Wrap(c, func(ctx context.Context, inv *cmd.Invocation) error {
			err := c.Run(ctx, inv)

			v, ok := inv.Data.(*command.SlashInteractionContext)
			if !ok {
				return err
			}
			e := v.Event
			user := command.Invoker(e)
			logger := log.With().
				Str("command", c.Name()).
				Str("guild_id", e.GuildID).
				Str("user_id", user.ID).
				Logger()
			if err != nil {
				logger.Error().Err(err).Msg("Command failed")
			} else {
				logger.Debug().Msg("Command ran")
			}

			if e.GuildID != "" && v.Storage != nil {
				if lerr := discord.LogCommand(v.Session, v.Storage, e.GuildID, e.ChannelID, user, c.Name()); lerr != nil {
					logger.Warn().Err(lerr).Msg("Failed to record command history")
				}
			}
			return err
		})
	}
}
