package discord

import (
	"context"
	"errors"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"

	"server-tags/internal/command"
	"server-tags/internal/config"
	"server-tags/internal/storage"
	st "server-tags/internal/storagetypes"
	"server-tags/internal/tags"
	"server-tags/pkg/cmd"
)

// rateLimitedReaction marks a message whose tag was skipped by the
// per-member limiter.
const rateLimitedReaction = "⏳"

// Bot is a Discord bot
type Bot struct {
	dg      *discordgo.Session
	storage *storage.Storage
	tags    *tags.Service
	cfg     *config.Config
	ctx     context.Context
}

// NewBot prepares a bot; nothing connects until Run.
func NewBot(cfg *config.Config, store *storage.Storage, tagsSvc *tags.Service) *Bot {
	return &Bot{
		cfg:     cfg,
		storage: store,
		tags:    tagsSvc,
		ctx:     context.Background(),
	}
}

// Run opens the gateway session and blocks until ctx is done.
func (b *Bot) Run(ctx context.Context) error {
	dg, err := discordgo.New("Bot " + b.cfg.DiscordToken)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}

	b.dg = dg
	b.ctx = ctx

	b.configureIntents()
	dg.AddHandler(b.onReady)
	dg.AddHandler(b.onGuildCreate)
	dg.AddHandler(b.onMessageCreate)
	dg.AddHandler(b.onInteractionCreate)
	dg.AddHandler(b.onGuildMemberAdd)
	dg.AddHandler(b.onGuildMemberRemove)

	if err := dg.Open(); err != nil {
		return fmt.Errorf("failed to open Discord session: %w", err)
	}
	defer dg.Close()

	<-ctx.Done()
	log.Info().Msg("❎ Shutdown signal received. Cleaning up...")
	return nil
}

// configureIntents asks for what tag seeds need: message content for
// prefixed invocations, members and presences for the member adapters and
// greetings.
func (b *Bot) configureIntents() {
	b.dg.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsMessageContent |
		discordgo.IntentsGuildMembers |
		discordgo.IntentsGuildPresences
	b.dg.State.TrackMembers = true
	b.dg.State.TrackPresences = true
}

// onReady is called when the bot is ready
func (b *Bot) onReady(s *discordgo.Session, r *discordgo.Ready) {
	if !b.cfg.InitSlashCommands {
		log.Info().Msg("Registering slash commands skipped")
	} else {
		for _, g := range r.Guilds {
			if err := b.registerCommands(g.ID); err != nil {
				log.Error().Err(err).Str("guild_id", g.ID).Msg("Error registering slash commands")
			}
		}
	}

	log.Info().Str("user", r.User.Username).Int("guilds", len(r.Guilds)).Msg("✅ Discord bot is running")
}

// onGuildCreate is called when the bot joins a guild or the guild becomes
// available after startup.
func (b *Bot) onGuildCreate(s *discordgo.Session, g *discordgo.GuildCreate) {
	log.Info().Str("guild_id", g.ID).Str("guild", g.Name).Msg("Guild available")
	if !b.cfg.InitSlashCommands {
		return
	}
	if err := b.registerCommands(g.ID); err != nil {
		log.Error().Err(err).Str("guild_id", g.ID).Msg("Failed to register commands for guild")
	}
}

// onMessageCreate runs a tag when a guild message starts with the prefix.
func (b *Bot) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot || m.GuildID == "" {
		return
	}

	prefix := b.tags.Prefix(m.GuildID)
	name, args, ok := tags.ParseInvocation(m.Content, prefix)
	if !ok {
		return
	}

	in := MessageSeed(s, m, prefix)
	target := tags.Target{
		GuildID:   m.GuildID,
		ChannelID: m.ChannelID,
		MessageID: m.ID,
		AuthorID:  m.Author.ID,
	}

	err := b.tags.Invoke(b.ctx, s, name, args, target, in)
	switch {
	case err == nil:
	case errors.Is(err, storage.ErrTagNotFound), errors.Is(err, storage.ErrInvalidTagName):
	case errors.Is(err, tags.ErrRateLimited):
		log.Debug().Str("guild_id", m.GuildID).Str("user_id", m.Author.ID).Str("tag", name).Msg("Tag rate limited")
		if err := s.MessageReactionAdd(m.ChannelID, m.ID, rateLimitedReaction); err != nil {
			log.Debug().Err(err).Msg("Failed to mark rate limited message")
		}
	default:
		log.Error().Err(err).Str("guild_id", m.GuildID).Str("tag", name).Msg("Error running tag")
	}
}

// onInteractionCreate dispatches slash commands from the registry.
func (b *Bot) onInteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		log.Debug().Int("type", int(i.Type)).Msg("Ignoring interaction")
		return
	}

	name := i.ApplicationCommandData().Name
	c := cmd.DefaultRegistry.Get(name)
	if c == nil {
		log.Warn().Str("command", name).Msg("Unknown command")
		return
	}

	ctx := &command.SlashInteractionContext{
		Session: s,
		Event:   i,
		Storage: b.storage,
		Tags:    b.tags,
		Config:  b.cfg,
	}
	if err := c.Run(b.ctx, &cmd.Invocation{Data: ctx}); err != nil {
		log.Error().Err(err).Str("command", name).Msg("Error running slash command")
		if rerr := RespondEmbedEphemeral(s, i, Notice(fmt.Sprintf("Error running command: %v", err))); rerr != nil {
			log.Debug().Err(rerr).Msg("Failed to report command error")
		}
	}
}

func (b *Bot) onGuildMemberAdd(s *discordgo.Session, e *discordgo.GuildMemberAdd) {
	b.greet(s, st.GreetingWelcome, e.GuildID, e.Member)
}

func (b *Bot) onGuildMemberRemove(s *discordgo.Session, e *discordgo.GuildMemberRemove) {
	b.greet(s, st.GreetingFarewell, e.GuildID, e.Member)
}

func (b *Bot) greet(s *discordgo.Session, kind st.GreetingKind, guildID string, member *discordgo.Member) {
	if member == nil || member.User == nil || member.User.Bot {
		return
	}
	guild := Guild(s, guildID)
	if guild == nil {
		return
	}
	if err := b.tags.Greet(b.ctx, s, kind, member, guild); err != nil {
		log.Error().Err(err).Str("guild_id", guildID).Str("kind", string(kind)).Msg("Failed to greet member")
	}
}
