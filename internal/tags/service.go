package tags

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"

	"server-tags/internal/storage"
	st "server-tags/internal/storagetypes"
	"server-tags/pkg/tagscript"
	"server-tags/pkg/tagscript/discordadapter"
)

// ErrRateLimited is returned when a member invokes tags too quickly.
var ErrRateLimited = errors.New("slow down: too many tag invocations")

// Service runs stored tags and greetings for the bot.
type Service struct {
	store     *storage.Storage
	engine    *Engine
	runner    *Runner
	limiter   *Limiter
	deliverer *Deliverer
	prefix    string
	now       func() time.Time
}

// Deps are the collaborators of a Service.
type Deps struct {
	Store         *storage.Storage
	Engine        *Engine
	Runner        *Runner
	Limiter       *Limiter
	Deliverer     *Deliverer
	DefaultPrefix string
}

func NewService(d Deps) *Service {
	return &Service{
		store:     d.Store,
		engine:    d.Engine,
		runner:    d.Runner,
		limiter:   d.Limiter,
		deliverer: d.Deliverer,
		prefix:    d.DefaultPrefix,
		now:       time.Now,
	}
}

// Prefix returns the guild's message prefix.
func (s *Service) Prefix(guildID string) string {
	p, err := s.store.GetPrefix(guildID, s.prefix)
	if err != nil {
		log.Error().Err(err).Str("guild_id", guildID).Msg("Failed to read prefix")
		return s.prefix
	}
	return p
}

// ParseInvocation splits "<prefix>name args..." into the tag name and the
// raw argument string.
func ParseInvocation(content, prefix string) (name, args string, ok bool) {
	if prefix == "" || !strings.HasPrefix(content, prefix) {
		return "", "", false
	}
	rest := strings.TrimPrefix(content, prefix)
	name, args = splitCommand(rest)
	return name, args, name != ""
}

func splitCommand(s string) (name, args string) {
	s = strings.TrimSpace(s)
	if i := strings.IndexAny(s, " \t\n"); i >= 0 {
		return strings.ToLower(s[:i]), strings.TrimSpace(s[i+1:])
	}
	return strings.ToLower(s), ""
}

// Run executes the named tag once. It counts the use and fills in the
// args, uses, unix and prefix variables. A limit or timeout error comes with
// a usable fallback response.
func (s *Service) Run(ctx context.Context, guildID, name, args string, in discordadapter.SeedInput) (*tagscript.Response, st.Tag, error) {
	tag, err := s.store.GetTag(guildID, name)
	if err != nil {
		return nil, st.Tag{}, err
	}
	uses, err := s.store.IncrementTagUses(guildID, tag.Name)
	if err != nil {
		return nil, tag, err
	}
	tag.Uses = uses

	in.Args = args
	in.Uses = uses
	in.Unix = s.now().Unix()
	if in.Prefix == "" {
		in.Prefix = s.Prefix(guildID)
	}

	resp, err := s.runner.Run(ctx, s.engine.Commands, tag.Content, discordadapter.Seed(in))
	return resp, tag, err
}

// Preview runs script without storing anything. Greeting previews use the
// greeting block list.
func (s *Service) Preview(ctx context.Context, script string, greeting bool, in discordadapter.SeedInput) (*tagscript.Response, error) {
	interp := s.engine.Commands
	if greeting {
		interp = s.engine.Greetings
	}
	if in.Unix == 0 {
		in.Unix = s.now().Unix()
	}
	return s.runner.Run(ctx, interp, script, discordadapter.Seed(in))
}

// Allow applies the per-member rate limit.
func (s *Service) Allow(guildID, userID string) bool {
	return s.limiter.Allow(guildID, userID)
}

// Invoke runs a tag from a prefixed message and delivers the result,
// followed by any commands the tag queued. Queued commands run one level
// deep: their own queued commands are dropped.
func (s *Service) Invoke(ctx context.Context, sender Sender, name, args string, t Target, in discordadapter.SeedInput) error {
	if !s.Allow(t.GuildID, t.AuthorID) {
		return ErrRateLimited
	}

	resp, _, err := s.Run(ctx, t.GuildID, name, args, in)
	if err != nil && !Recoverable(err) {
		return err
	}
	if _, err := s.deliverer.Deliver(ctx, sender, resp, t); err != nil {
		return err
	}

	follow := t
	follow.MessageID = ""
	for _, cmd := range resp.Actions.Commands {
		fname, fargs := splitCommand(cmd)
		fresp, _, err := s.Run(ctx, t.GuildID, fname, fargs, in)
		if err != nil && !Recoverable(err) {
			log.Warn().Err(err).Str("guild_id", t.GuildID).Str("command", fname).Msg("Skipping queued tag command")
			continue
		}
		if n := len(fresp.Actions.Commands); n > 0 {
			log.Debug().Int("dropped", n).Str("command", fname).Msg("Nested tag commands are not run")
			fresp.Actions.Commands = nil
		}
		if _, err := s.deliverer.Deliver(ctx, sender, fresp, follow); err != nil {
			log.Warn().Err(err).Str("command", fname).Msg("Failed to deliver queued tag command")
		}
	}
	return nil
}

// Greet sends the guild's welcome or farewell message for member, if one is
// configured.
func (s *Service) Greet(ctx context.Context, sender Sender, kind st.GreetingKind, member *discordgo.Member, guild *discordgo.Guild) error {
	if member == nil || member.User == nil || guild == nil {
		return nil
	}
	g, ok, err := s.store.GetGreeting(guild.ID, kind)
	if err != nil {
		return err
	}
	if !ok || g.ChannelID == "" || g.Script == "" {
		return nil
	}

	in := discordadapter.SeedInput{
		Author:  member,
		Target:  member,
		Guild:   guild,
		Channel: findChannel(guild, g.ChannelID),
		Prefix:  s.Prefix(guild.ID),
	}
	resp, err := s.Preview(ctx, g.Script, true, in)
	if err != nil && !Recoverable(err) {
		return err
	}

	_, err = s.deliverer.Deliver(ctx, sender, resp, Target{
		GuildID:   guild.ID,
		ChannelID: g.ChannelID,
		AuthorID:  member.User.ID,
	})
	if err != nil {
		return fmt.Errorf("failed to send %s message: %w", kind, err)
	}
	return nil
}

// Deliver sends resp to t. Slash commands use it for redirected output.
func (s *Service) Deliver(ctx context.Context, sender Sender, resp *tagscript.Response, t Target) (*discordgo.Message, error) {
	return s.deliverer.Deliver(ctx, sender, resp, t)
}

// CleanLimiter sweeps idle member limiters until ctx is done.
func (s *Service) CleanLimiter(ctx context.Context, interval time.Duration) error {
	return s.limiter.RunCleaner(ctx, interval)
}

// Recoverable errors still come with a fallback response worth sending.
func Recoverable(err error) bool {
	return errors.Is(err, tagscript.ErrLimitExceeded) || errors.Is(err, ErrTimeout)
}

func findChannel(g *discordgo.Guild, id string) *discordgo.Channel {
	for _, c := range g.Channels {
		if c.ID == id {
			return c
		}
	}
	return &discordgo.Channel{ID: id}
}
