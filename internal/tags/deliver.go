package tags

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
	embed "github.com/clinet/discordgo-embed"
	"github.com/rs/zerolog/log"

	"server-tags/pkg/retrylimit"
	"server-tags/pkg/tagscript"
)

// Sender is the part of *discordgo.Session used to act on a response.
type Sender interface {
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
	UserChannelCreate(recipientID string, options ...discordgo.RequestOption) (*discordgo.Channel, error)
	MessageReactionAdd(channelID, messageID, emojiID string, options ...discordgo.RequestOption) error
	ChannelMessageDelete(channelID, messageID string, options ...discordgo.RequestOption) error
	Channel(channelID string, options ...discordgo.RequestOption) (*discordgo.Channel, error)
	UserChannelPermissions(userID, channelID string, fetchOptions ...discordgo.RequestOption) (int64, error)
}

// Target is where a tag was invoked.
type Target struct {
	GuildID   string
	ChannelID string
	MessageID string // empty for interactions and greetings
	AuthorID  string
}

// Deliverer turns a response into Discord calls.
type Deliverer struct {
	lim      *retrylimit.AdaptiveLimiter
	attempts int
}

func NewDeliverer(lim *retrylimit.AdaptiveLimiter, attempts int) *Deliverer {
	return &Deliverer{lim: lim, attempts: max(1, attempts)}
}

// Deliver performs the response's actions and sends its message. It returns
// the sent message, or nil when nothing was sent. Reaction and delete
// failures are logged and joined into the error; a failed send is returned
// as is.
func (d *Deliverer) Deliver(ctx context.Context, s Sender, resp *tagscript.Response, t Target) (*discordgo.Message, error) {
	a := resp.Actions
	if a == nil {
		a = tagscript.NewActions()
	}
	var errs []error

	if t.MessageID != "" {
		for _, emoji := range a.ReactU {
			errs = append(errs, d.react(ctx, s, t.ChannelID, t.MessageID, emoji))
		}
	}

	msg, err := d.send(ctx, s, resp.Body, a, t)
	if err != nil {
		return nil, err
	}
	if msg != nil {
		for _, emoji := range a.React {
			errs = append(errs, d.react(ctx, s, msg.ChannelID, msg.ID, emoji))
		}
	}

	if a.Delete && t.MessageID != "" {
		errs = append(errs, d.retry(ctx, func() error {
			return s.ChannelMessageDelete(t.ChannelID, t.MessageID)
		}))
	}

	err = errors.Join(errs...)
	if err != nil {
		log.Warn().Err(err).Str("guild_id", t.GuildID).Str("channel_id", t.ChannelID).Msg("Some tag actions failed")
	}
	return msg, err
}

func (d *Deliverer) send(ctx context.Context, s Sender, body string, a *tagscript.Actions, t Target) (*discordgo.Message, error) {
	if a.Silent || (strings.TrimSpace(body) == "" && a.Embed == nil) {
		return nil, nil
	}

	data := &discordgo.MessageSend{
		Content: body,
		AllowedMentions: &discordgo.MessageAllowedMentions{
			Parse: []discordgo.AllowedMentionType{discordgo.AllowedMentionTypeUsers},
		},
	}
	if a.Embed != nil {
		data.Embeds = []*discordgo.MessageEmbed{RenderEmbed(a.Embed)}
	}

	channelID := t.ChannelID
	switch a.Target {
	case "":
	case tagscript.TargetReply:
		if t.MessageID != "" {
			data.Reference = &discordgo.MessageReference{
				MessageID: t.MessageID,
				ChannelID: t.ChannelID,
				GuildID:   t.GuildID,
			}
		}
	case tagscript.TargetDM:
		var dm *discordgo.Channel
		err := d.retry(ctx, func() (err error) {
			dm, err = s.UserChannelCreate(t.AuthorID)
			return err
		})
		if err != nil {
			return nil, fmt.Errorf("failed to open DM channel: %w", err)
		}
		channelID = dm.ID
	default:
		channelID = d.redirect(s, a.Target, t)
	}

	var msg *discordgo.Message
	err := d.retry(ctx, func() (err error) {
		msg, err = s.ChannelMessageSendComplex(channelID, data)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to send tag response: %w", err)
	}
	return msg, nil
}

// redirect returns channelID when it is a channel of the invoking guild the
// author may post in, and the invoking channel otherwise.
func (d *Deliverer) redirect(s Sender, channelID string, t Target) string {
	ch, err := s.Channel(channelID)
	if err != nil || ch == nil || t.GuildID == "" || ch.GuildID != t.GuildID {
		log.Warn().Err(err).Str("guild_id", t.GuildID).Str("target", channelID).Msg("Redirect outside the invoking guild ignored")
		return t.ChannelID
	}
	perms, err := s.UserChannelPermissions(t.AuthorID, channelID)
	if err != nil || perms&(discordgo.PermissionSendMessages|discordgo.PermissionAdministrator) == 0 {
		log.Warn().Err(err).Str("guild_id", t.GuildID).Str("target", channelID).Str("user_id", t.AuthorID).Msg("Redirect to a channel the author cannot post in ignored")
		return t.ChannelID
	}
	return channelID
}

func (d *Deliverer) react(ctx context.Context, s Sender, channelID, messageID, emoji string) error {
	return d.retry(ctx, func() error {
		return s.MessageReactionAdd(channelID, messageID, ReactionID(emoji))
	})
}

func (d *Deliverer) retry(ctx context.Context, fn func() error) error {
	return retrylimit.WithRetryMax(ctx, fn, d.lim, d.attempts)
}

// ReactionID converts a custom emoji mention like <a:name:id> to the name:id
// form the reactions endpoint expects. Unicode emoji pass through.
func ReactionID(emoji string) string {
	if strings.HasPrefix(emoji, "<") && strings.HasSuffix(emoji, ">") {
		emoji = strings.TrimSuffix(strings.TrimPrefix(emoji, "<"), ">")
		emoji = strings.TrimPrefix(emoji, "a:")
		emoji = strings.TrimPrefix(emoji, ":")
	}
	return emoji
}

// RenderEmbed converts a script-built embed to Discord's type.
func RenderEmbed(e *tagscript.Embed) *discordgo.MessageEmbed {
	out := embed.NewEmbed().
		SetTitle(e.Title).
		SetDescription(e.Description).
		SetColor(e.Color)
	if e.URL != "" {
		out.SetURL(e.URL)
	}
	if e.Footer != nil {
		out.SetFooter(e.Footer.Text, e.Footer.IconURL)
	}
	if e.Image != nil {
		out.SetImage(e.Image.URL)
	}
	if e.Thumbnail != nil {
		out.SetThumbnail(e.Thumbnail.URL)
	}
	if e.Author != nil {
		out.Author = &discordgo.MessageEmbedAuthor{
			Name:    e.Author.Name,
			URL:     e.Author.URL,
			IconURL: e.Author.IconURL,
		}
	}
	for _, f := range e.Fields {
		out.AddField(f.Name, f.Value)
		out.Fields[len(out.Fields)-1].Inline = f.Inline
	}
	out.Timestamp = e.Timestamp
	return out.MessageEmbed
}
