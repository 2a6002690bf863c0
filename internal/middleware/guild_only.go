package middleware

import (
	"context"

	"server-tags/internal/command"
	"server-tags/pkg/cmd"
)

// WithGuildOnly drops invocations that did not come from a guild.
func WithGuildOnly() cmd.Middleware {
	return func(c cmd.Command) cmd.Command {
		return cmd.Wrap(c, func(ctx context.Context, inv *cmd.Invocation) error {
			if v, ok := inv.Data.(*command.SlashInteractionContext); ok && v.Event.GuildID == "" {
				return nil
			}
			return c.Run(ctx, inv)
		})
	}
}
