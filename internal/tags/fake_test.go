package tags

import (
	"fmt"
	"sync"

	"github.com/bwmarrin/discordgo"
)

type sent struct {
	ChannelID string
	Data      *discordgo.MessageSend
}

type reaction struct {
	ChannelID, MessageID, Emoji string
}

// fakeSender records the calls a Deliverer makes.
type fakeSender struct {
	mu        sync.Mutex
	sent      []sent
	reactions []reaction
	deleted   []string
	dms       []string
	sendErr   error
	reactErr  error
	channels  map[string]*discordgo.Channel
	perms     map[string]int64 // by channel id
}

func (f *fakeSender) ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return nil, f.sendErr
	}
	f.sent = append(f.sent, sent{ChannelID: channelID, Data: data})
	return &discordgo.Message{ID: fmt.Sprintf("sent-%d", len(f.sent)), ChannelID: channelID}, nil
}

func (f *fakeSender) UserChannelCreate(recipientID string, _ ...discordgo.RequestOption) (*discordgo.Channel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dms = append(f.dms, recipientID)
	return &discordgo.Channel{ID: "dm-" + recipientID}, nil
}

func (f *fakeSender) MessageReactionAdd(channelID, messageID, emojiID string, _ ...discordgo.RequestOption) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.reactErr != nil {
		return f.reactErr
	}
	f.reactions = append(f.reactions, reaction{channelID, messageID, emojiID})
	return nil
}

func (f *fakeSender) ChannelMessageDelete(channelID, messageID string, _ ...discordgo.RequestOption) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, channelID+"/"+messageID)
	return nil
}

func (f *fakeSender) Channel(channelID string, _ ...discordgo.RequestOption) (*discordgo.Channel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch, ok := f.channels[channelID]
	if !ok {
		return nil, fmt.Errorf("unknown channel %s", channelID)
	}
	return ch, nil
}

func (f *fakeSender) UserChannelPermissions(_, channelID string, _ ...discordgo.RequestOption) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.perms[channelID], nil
}

func (f *fakeSender) contents() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.sent))
	for _, s := range f.sent {
		out = append(out, s.Data.Content)
	}
	return out
}
