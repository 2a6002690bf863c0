package tags

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"server-tags/pkg/tagscript"
)

var invoked = Target{GuildID: "g", ChannelID: "c", MessageID: "m", AuthorID: "u"}

func response(body string, edit func(a *tagscript.Actions)) *tagscript.Response {
	a := tagscript.NewActions()
	if edit != nil {
		edit(a)
	}
	return &tagscript.Response{Body: body, Actions: a}
}

func TestDeliverPlain(t *testing.T) {
	f := &fakeSender{}
	msg, err := NewDeliverer(nil, 1).Deliver(context.Background(), f, response("hello", nil), invoked)
	require.NoError(t, err)
	require.NotNil(t, msg)

	require.Len(t, f.sent, 1)
	assert.Equal(t, "c", f.sent[0].ChannelID)
	assert.Equal(t, "hello", f.sent[0].Data.Content)
	assert.Nil(t, f.sent[0].Data.Reference)
	assert.Equal(t, []discordgo.AllowedMentionType{discordgo.AllowedMentionTypeUsers}, f.sent[0].Data.AllowedMentions.Parse)
}

func TestDeliverSkipsEmptyAndSilent(t *testing.T) {
	f := &fakeSender{}
	d := NewDeliverer(nil, 1)

	msg, err := d.Deliver(context.Background(), f, response("  ", nil), invoked)
	require.NoError(t, err)
	assert.Nil(t, msg)

	msg, err = d.Deliver(context.Background(), f, response("quiet", func(a *tagscript.Actions) {
		a.Silent = true
		a.React = []string{"👍"}
		a.ReactU = []string{"✅"}
	}), invoked)
	require.NoError(t, err)
	assert.Nil(t, msg)
	assert.Empty(t, f.sent)
	assert.Equal(t, []reaction{{"c", "m", "✅"}}, f.reactions, "reactions on the invoking message still apply")
}

func TestDeliverTargets(t *testing.T) {
	channels := map[string]*discordgo.Channel{
		"111111111111111111": {ID: "111111111111111111", GuildID: "g"},
		"222222222222222222": {ID: "222222222222222222", GuildID: "other"},
		"333333333333333333": {ID: "333333333333333333", GuildID: "g"},
		"444444444444444444": {ID: "444444444444444444", GuildID: "g"},
	}
	perms := map[string]int64{
		"111111111111111111": discordgo.PermissionViewChannel | discordgo.PermissionSendMessages,
		"222222222222222222": discordgo.PermissionSendMessages,
		"333333333333333333": discordgo.PermissionViewChannel,
		"444444444444444444": discordgo.PermissionAdministrator,
	}

	tests := []struct {
		name    string
		target  string
		channel string
		reply   bool
	}{
		{"reply", tagscript.TargetReply, "c", true},
		{"dm", tagscript.TargetDM, "dm-u", false},
		{"same guild channel", "111111111111111111", "111111111111111111", false},
		{"administrator", "444444444444444444", "444444444444444444", false},
		{"foreign guild channel", "222222222222222222", "c", false},
		{"no send permission", "333333333333333333", "c", false},
		{"unknown channel", "999999999999999999", "c", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &fakeSender{channels: channels, perms: perms}
			_, err := NewDeliverer(nil, 1).Deliver(context.Background(), f, response("x", func(a *tagscript.Actions) {
				a.Target = tt.target
			}), invoked)
			require.NoError(t, err)
			require.Len(t, f.sent, 1)
			assert.Equal(t, tt.channel, f.sent[0].ChannelID)
			if tt.reply {
				require.NotNil(t, f.sent[0].Data.Reference)
				assert.Equal(t, "m", f.sent[0].Data.Reference.MessageID)
			} else {
				assert.Nil(t, f.sent[0].Data.Reference)
			}
		})
	}
}

func TestDeliverReactionsAndDelete(t *testing.T) {
	f := &fakeSender{}
	_, err := NewDeliverer(nil, 1).Deliver(context.Background(), f, response("x", func(a *tagscript.Actions) {
		a.React = []string{"👍", "<:party:111>"}
		a.ReactU = []string{"<a:spin:222>"}
		a.Delete = true
	}), invoked)
	require.NoError(t, err)

	assert.Equal(t, []reaction{
		{"c", "m", "spin:222"},
		{"c", "sent-1", "👍"},
		{"c", "sent-1", "party:111"},
	}, f.reactions)
	assert.Equal(t, []string{"c/m"}, f.deleted)
}

func TestDeliverWithoutInvokingMessage(t *testing.T) {
	f := &fakeSender{}
	target := invoked
	target.MessageID = ""
	_, err := NewDeliverer(nil, 1).Deliver(context.Background(), f, response("x", func(a *tagscript.Actions) {
		a.ReactU = []string{"✅"}
		a.Delete = true
		a.Target = tagscript.TargetReply
	}), target)
	require.NoError(t, err)
	assert.Empty(t, f.reactions)
	assert.Empty(t, f.deleted)
	assert.Nil(t, f.sent[0].Data.Reference)
}

func TestDeliverErrors(t *testing.T) {
	forbidden := &discordgo.RESTError{Response: &http.Response{StatusCode: http.StatusForbidden}}

	f := &fakeSender{sendErr: forbidden}
	_, err := NewDeliverer(nil, 3).Deliver(context.Background(), f, response("x", nil), invoked)
	assert.ErrorIs(t, err, forbidden)

	f = &fakeSender{reactErr: forbidden}
	msg, err := NewDeliverer(nil, 3).Deliver(context.Background(), f, response("x", func(a *tagscript.Actions) {
		a.React = []string{"👍"}
	}), invoked)
	require.NotNil(t, msg, "a failed reaction does not undo the send")
	var rest *discordgo.RESTError
	assert.True(t, errors.As(err, &rest))
}

func TestRenderEmbed(t *testing.T) {
	e := RenderEmbed(&tagscript.Embed{
		Title:       "T",
		Description: "D",
		URL:         "https://x",
		Color:       0xff0000,
		Timestamp:   "2024-03-09T14:05:06Z",
		Footer:      &tagscript.EmbedFooter{Text: "f", IconURL: "https://x/f.png"},
		Image:       &tagscript.EmbedMedia{URL: "https://x/i.png"},
		Thumbnail:   &tagscript.EmbedMedia{URL: "https://x/t.png"},
		Author:      &tagscript.EmbedAuthor{Name: "a", URL: "https://x/a", IconURL: "https://x/a.png"},
		Fields: []*tagscript.EmbedField{
			{Name: "n1", Value: "v1", Inline: true},
			{Name: "n2", Value: "v2"},
		},
	})

	assert.Equal(t, "T", e.Title)
	assert.Equal(t, "D", e.Description)
	assert.Equal(t, "https://x", e.URL)
	assert.Equal(t, 0xff0000, e.Color)
	assert.Equal(t, "2024-03-09T14:05:06Z", e.Timestamp)
	assert.Equal(t, "f", e.Footer.Text)
	assert.Equal(t, "https://x/f.png", e.Footer.IconURL)
	assert.Equal(t, "https://x/i.png", e.Image.URL)
	assert.Equal(t, "https://x/t.png", e.Thumbnail.URL)
	assert.Equal(t, "a", e.Author.Name)
	assert.Equal(t, "https://x/a", e.Author.URL)
	assert.Equal(t, "https://x/a.png", e.Author.IconURL)
	require.Len(t, e.Fields, 2)
	assert.True(t, e.Fields[0].Inline)
	assert.False(t, e.Fields[1].Inline)
}

func TestDeliverEmbedOnly(t *testing.T) {
	f := &fakeSender{}
	_, err := NewDeliverer(nil, 1).Deliver(context.Background(), f, response("", func(a *tagscript.Actions) {
		a.Embed = &tagscript.Embed{Title: "only"}
	}), invoked)
	require.NoError(t, err)
	require.Len(t, f.sent, 1)
	require.Len(t, f.sent[0].Data.Embeds, 1)
	assert.Equal(t, "only", f.sent[0].Data.Embeds[0].Title)
}
