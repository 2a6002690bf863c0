package middleware

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"server-tags/internal/command"
	"server-tags/internal/discord"
	"server-tags/pkg/cmd"
)

var PermissionNames = map[int64]string{
	discordgo.PermissionKickMembers:            "Kick Members",
	discordgo.PermissionBanMembers:             "Ban Members",
	discordgo.PermissionAdministrator:          "Administrator",
	discordgo.PermissionManageChannels:         "Manage Channels",
	discordgo.PermissionManageGuild:            "Manage Server",
	discordgo.PermissionAddReactions:           "Add Reactions",
	discordgo.PermissionViewAuditLogs:          "View Audit Logs",
	discordgo.PermissionViewChannel:            "View Channel",
	discordgo.PermissionSendMessages:           "Send Messages",
	discordgo.PermissionManageMessages:         "Manage Messages",
	discordgo.PermissionEmbedLinks:             "Embed Links",
	discordgo.PermissionMentionEveryone:        "Mention Everyone",
	discordgo.PermissionManageNicknames:        "Manage Nicknames",
	discordgo.PermissionManageRoles:            "Manage Roles",
	discordgo.PermissionManageWebhooks:         "Manage Webhooks",
	discordgo.PermissionModerateMembers:        "Moderate Members",
	discordgo.PermissionUseApplicationCommands: "Use Application Commands",
}

// WithUserPermissionCheck lets the command run when the member holds any of
// its UserPermissions. Administrators and the developer always pass.
func WithUserPermissionCheck() cmd.Middleware {
	return func(c cmd.Command) cmd.Command {
		return cmd.Wrap(c, func(ctx context.Context, inv *cmd.Invocation) error {
			v, ok := inv.Data.(*command.SlashInteractionContext)
			if !ok {
				return c.Run(ctx, inv)
			}
			m := v.Event.Member
			if v.Event.GuildID == "" || m == nil || m.User == nil {
				return c.Run(ctx, inv)
			}
			meta, ok := command.Meta(c)
			if !ok || len(meta.UserPermissions()) == 0 {
				return c.Run(ctx, inv)
			}
			if v.Config != nil && discord.IsDeveloper(v.Config.DeveloperID, m.User.ID) {
				return c.Run(ctx, inv)
			}

			perms, err := discord.MemberPermissions(v.Session, m, v.Event.ChannelID)
			if err != nil {
				return fmt.Errorf("failed to get user permissions: %w", err)
			}
			if allowed, names := HasAnyPermission(perms, meta.UserPermissions()); !allowed {
				return discord.RespondNotice(v.Session, v.Event, fmt.Sprintf(
					"You need at least one of the following permissions to run this command:\n`%s`",
					strings.Join(names, "`, `"),
				))
			}
			return c.Run(ctx, inv)
		})
	}
}

// HasAnyPermission reports whether perms grants any of required. When it
// does not, the readable names of required are returned.
func HasAnyPermission(perms int64, required []int64) (bool, []string) {
	if perms&discordgo.PermissionAdministrator != 0 {
		return true, nil
	}
	for _, p := range required {
		if perms&p != 0 {
			return true, nil
		}
	}
	names := make([]string, 0, len(required))
	for _, p := range required {
		name := PermissionNames[p]
		if name == "" {
			name = fmt.Sprintf("0x%x", p)
		}
		names = append(names, name)
	}
	return false, names
}
