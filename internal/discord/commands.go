package discord

import (
	"crypto/sha1"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"

	"server-tags/internal/command"
	"server-tags/pkg/cmd"
)

// commandCacheDir holds one hash file per guild.
var commandCacheDir = filepath.Join("data", "commands")

// registerCommands syncs slash commands for a guild with Discord:
// deletes obsolete ones, creates/updates commands whose definition has changed.
func (b *Bot) registerCommands(guildID string) error {
	appID, err := b.appID()
	if err != nil {
		return err
	}

	remote, err := b.dg.ApplicationCommands(appID, guildID)
	if err != nil {
		return fmt.Errorf("failed to list commands: %w", err)
	}
	remoteByName := make(map[string]*discordgo.ApplicationCommand, len(remote))
	for _, c := range remote {
		remoteByName[c.Name] = c
	}

	local := buildCommandDefinitions(cmd.DefaultRegistry.GetAll())
	hashes := loadCommandHashes(guildID)

	b.deleteObsoleteCommands(appID, guildID, remoteByName, local, hashes)
	b.upsertChangedCommands(appID, guildID, remoteByName, local, hashes)

	saveCommandHashes(guildID, hashes)
	return nil
}

// buildCommandDefinitions returns ApplicationCommand definitions for all registered commands.
func buildCommandDefinitions(all []cmd.Command) []*discordgo.ApplicationCommand {
	var defs []*discordgo.ApplicationCommand
	for _, c := range all {
		if def := commandDefinition(c); def != nil {
			defs = append(defs, def)
		}
	}
	return defs
}

// deleteObsoleteCommands removes commands from Discord that are no longer in the local registry.
func (b *Bot) deleteObsoleteCommands(appID, guildID string, remote map[string]*discordgo.ApplicationCommand, local []*discordgo.ApplicationCommand, hashes map[string]string) {
	localNames := make(map[string]struct{}, len(local))
	for _, d := range local {
		localNames[d.Name] = struct{}{}
	}

	for name, rc := range remote {
		if _, exists := localNames[name]; exists {
			continue
		}
		log.Info().Str("guild_id", guildID).Str("command", name).Msg("Deleting obsolete command")
		if err := b.dg.ApplicationCommandDelete(appID, guildID, rc.ID); err != nil {
			log.Error().Err(err).Str("guild_id", guildID).Str("command", name).Msg("Failed to delete command")
			continue
		}
		delete(hashes, name)
	}
}

// upsertChangedCommands creates or updates commands whose hash differs from
// the cached value or that Discord no longer knows about.
func (b *Bot) upsertChangedCommands(appID, guildID string, remote map[string]*discordgo.ApplicationCommand, defs []*discordgo.ApplicationCommand, hashes map[string]string) {
	changed := changedCommands(defs, remote, hashes)
	if len(changed) == 0 {
		return
	}

	log.Info().Str("guild_id", guildID).Int("count", len(changed)).Msg("Registering changed commands")
	for _, d := range changed {
		if _, err := b.dg.ApplicationCommandCreate(appID, guildID, d); err != nil {
			log.Error().Err(err).Str("guild_id", guildID).Str("command", d.Name).Msg("Failed to register command")
			continue
		}
		hashes[d.Name] = hashCommand(d)
		log.Debug().Str("guild_id", guildID).Str("command", d.Name).Msg("Registered command")
		time.Sleep(25 * time.Millisecond) // stay well under Discord's rate limit
	}
}

func changedCommands(defs []*discordgo.ApplicationCommand, remote map[string]*discordgo.ApplicationCommand, hashes map[string]string) []*discordgo.ApplicationCommand {
	var changed []*discordgo.ApplicationCommand
	for _, d := range defs {
		_, known := remote[d.Name]
		if !known || hashes[d.Name] != hashCommand(d) {
			changed = append(changed, d)
		}
	}
	return changed
}

// commandDefinition extracts the ApplicationCommand definition from a registered command,
// walking through middleware wrappers via cmd.Root.
func commandDefinition(c cmd.Command) *discordgo.ApplicationCommand {
	slash, ok := cmd.Root(c).(command.SlashProvider)
	if !ok {
		return nil
	}
	def := slash.SlashDefinition()
	if def == nil {
		return nil
	}
	if def.Type == 0 {
		def.Type = discordgo.ChatApplicationCommand
	}
	return def
}

// appID returns the bot's application ID, fetching from Discord if not cached in State.
func (b *Bot) appID() (string, error) {
	if u := b.dg.State.User; u != nil && u.ID != "" {
		return u.ID, nil
	}
	u, err := b.dg.User("@me")
	if err != nil {
		return "", fmt.Errorf("failed to fetch bot user: %w", err)
	}
	return u.ID, nil
}

// --- Command hash cache ---

func commandHashPath(guildID string) string {
	return filepath.Join(commandCacheDir, guildID+".json")
}

func loadCommandHashes(guildID string) map[string]string {
	out := make(map[string]string)
	if data, err := os.ReadFile(commandHashPath(guildID)); err == nil {
		_ = json.Unmarshal(data, &out)
	}
	return out
}

func saveCommandHashes(guildID string, hashes map[string]string) {
	path := commandHashPath(guildID)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		log.Warn().Err(err).Msg("Failed to create command cache directory")
		return
	}
	data, err := json.MarshalIndent(hashes, "", "  ")
	if err != nil {
		return
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		log.Warn().Err(err).Str("guild_id", guildID).Msg("Failed to save command hashes")
	}
}

// --- Command hashing ---

// hashCommand returns a deterministic SHA-1 of a command's stable fields.
// Used to skip re-registration when nothing has changed.
func hashCommand(c *discordgo.ApplicationCommand) string {
	stable := map[string]any{
		"name":        c.Name,
		"description": c.Description,
		"type":        c.Type,
	}
	if len(c.Options) > 0 {
		stable["options"] = normalizeOptions(c.Options)
	}
	data, _ := json.Marshal(stable)
	sum := sha1.Sum(data)
	return fmt.Sprintf("%x", sum)
}

func normalizeOptions(opts []*discordgo.ApplicationCommandOption) []map[string]any {
	out := make([]map[string]any, len(opts))
	for i, o := range opts {
		entry := map[string]any{
			"name":        o.Name,
			"description": o.Description,
			"type":        o.Type,
			"required":    o.Required,
			"max_length":  o.MaxLength,
		}
		if len(o.ChannelTypes) > 0 {
			entry["channel_types"] = o.ChannelTypes
		}
		if len(o.Choices) > 0 {
			choices := make([]map[string]any, len(o.Choices))
			for j, ch := range o.Choices {
				choices[j] = map[string]any{"name": ch.Name, "value": ch.Value}
			}
			entry["choices"] = choices
		}
		if len(o.Options) > 0 {
			entry["options"] = normalizeOptions(o.Options)
		}
		out[i] = entry
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i]["name"].(string) < out[j]["name"].(string)
	})
	return out
}
