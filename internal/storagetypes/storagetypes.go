package storagetypes

import (
	"time"
)

type CommandHistory struct {
	ChannelID   string    `json:"channel_id"`
	ChannelName string    `json:"channel_name"`
	GuildName   string    `json:"guild_name"`
	UserID      string    `json:"user_id"`
	Username    string    `json:"username"`
	Command     string    `json:"command"`
	Datetime    time.Time `json:"datetime"`
}

// Tag is a custom command: a tagscript body invoked by name.
type Tag struct {
	Name      string    `json:"name"`
	Content   string    `json:"content"`
	AuthorID  string    `json:"author_id"`
	Uses      int64     `json:"uses"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type GreetingKind string

const (
	GreetingWelcome  GreetingKind = "welcome"
	GreetingFarewell GreetingKind = "farewell"
)

// Greeting is a tagscript body posted when a member joins or leaves.
type Greeting struct {
	ChannelID string    `json:"channel_id"`
	Script    string    `json:"script"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Record struct {
	Prefix          string                    `json:"prefix"`
	Tags            map[string]Tag            `json:"tags"`
	Greetings       map[GreetingKind]Greeting `json:"greetings"`
	CommandsHistory []CommandHistory          `json:"cmd_history"`
}
