package discord

import (
	"github.com/bwmarrin/discordgo"
	embed "github.com/clinet/discordgo-embed"
)

const EmbedColor = 0x5865f2

// Notice builds the bot's standard single-line embed.
func Notice(text string) *discordgo.MessageEmbed {
	return embed.NewEmbed().SetDescription(text).SetColor(EmbedColor).MessageEmbed
}

// RespondEphemeral sends a message only the invoker can see.
func RespondEphemeral(s *discordgo.Session, i *discordgo.InteractionCreate, content string) error {
	return s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
}

// RespondEmbedEphemeral sends an embed only the invoker can see.
func RespondEmbedEphemeral(s *discordgo.Session, i *discordgo.InteractionCreate, e *discordgo.MessageEmbed) error {
	return s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Flags:  discordgo.MessageFlagsEphemeral,
			Embeds: []*discordgo.MessageEmbed{e},
		},
	})
}

// RespondNotice replies ephemerally with a Notice embed.
func RespondNotice(s *discordgo.Session, i *discordgo.InteractionCreate, text string) error {
	return RespondEmbedEphemeral(s, i, Notice(text))
}

// RespondDeferred acknowledges an interaction so the reply can take longer
// than Discord's three seconds.
func RespondDeferred(s *discordgo.Session, i *discordgo.InteractionCreate, ephemeral bool) error {
	data := &discordgo.InteractionResponseData{}
	if ephemeral {
		data.Flags = discordgo.MessageFlagsEphemeral
	}
	return s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: data,
	})
}

// Followup sends a followup message after RespondDeferred.
func Followup(s *discordgo.Session, i *discordgo.InteractionCreate, params *discordgo.WebhookParams) error {
	_, err := s.FollowupMessageCreate(i.Interaction, true, params)
	return err
}

// FollowupNotice sends a Notice embed as a followup.
func FollowupNotice(s *discordgo.Session, i *discordgo.InteractionCreate, text string) error {
	return Followup(s, i, &discordgo.WebhookParams{Embeds: []*discordgo.MessageEmbed{Notice(text)}})
}
