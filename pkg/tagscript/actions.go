package tagscript

// Well-known delivery targets for Actions.Target. Any other non-empty value
// is a channel id.
const (
	TargetReply = "reply"
	TargetDM    = "dm"
)

// MaxReactions caps how many emoji a react block may queue.
const MaxReactions = 5

// MaxCommands caps how many follow-up commands one run may queue.
const MaxCommands = 3

// Actions collects side effects recorded while a script runs. The host reads
// it after Process returns; the engine itself never acts on it.
type Actions struct {
	Embed    *Embed
	React    []string // reactions for the produced message
	ReactU   []string // reactions for the invoking message
	Target   string
	Silent   bool
	Delete   bool
	Commands []string

	// Extra holds keys defined by blocks outside this package.
	Extra map[string]any
}

// NewActions returns an empty action set.
func NewActions() *Actions {
	return &Actions{Extra: map[string]any{}}
}

// Set records a block-defined action.
func (a *Actions) Set(key string, value any) {
	if a.Extra == nil {
		a.Extra = map[string]any{}
	}
	a.Extra[key] = value
}

// Get returns a block-defined action.
func (a *Actions) Get(key string) (any, bool) {
	v, ok := a.Extra[key]
	return v, ok
}

// Reset drops every recorded action.
func (a *Actions) Reset() {
	*a = Actions{Extra: map[string]any{}}
}

// Empty reports whether nothing was recorded.
func (a *Actions) Empty() bool {
	return a.Embed == nil && len(a.React) == 0 && len(a.ReactU) == 0 &&
		a.Target == "" && !a.Silent && !a.Delete && len(a.Commands) == 0 && len(a.Extra) == 0
}

// Embed mirrors the subset of Discord's embed object a script can build. The
// JSON tags follow Discord's field names so operators can paste embed JSON.
type Embed struct {
	Title       string        `json:"title,omitempty" yaml:"title,omitempty"`
	Description string        `json:"description,omitempty" yaml:"description,omitempty"`
	URL         string        `json:"url,omitempty" yaml:"url,omitempty"`
	Color       int           `json:"color,omitempty" yaml:"color,omitempty"`
	Timestamp   string        `json:"timestamp,omitempty" yaml:"timestamp,omitempty"`
	Footer      *EmbedFooter  `json:"footer,omitempty" yaml:"footer,omitempty"`
	Image       *EmbedMedia   `json:"image,omitempty" yaml:"image,omitempty"`
	Thumbnail   *EmbedMedia   `json:"thumbnail,omitempty" yaml:"thumbnail,omitempty"`
	Author      *EmbedAuthor  `json:"author,omitempty" yaml:"author,omitempty"`
	Fields      []*EmbedField `json:"fields,omitempty" yaml:"fields,omitempty"`
}

type EmbedFooter struct {
	Text    string `json:"text,omitempty" yaml:"text,omitempty"`
	IconURL string `json:"icon_url,omitempty" yaml:"icon_url,omitempty"`
}

type EmbedMedia struct {
	URL string `json:"url,omitempty" yaml:"url,omitempty"`
}

type EmbedAuthor struct {
	Name    string `json:"name,omitempty" yaml:"name,omitempty"`
	URL     string `json:"url,omitempty" yaml:"url,omitempty"`
	IconURL string `json:"icon_url,omitempty" yaml:"icon_url,omitempty"`
}

type EmbedField struct {
	Name   string `json:"name" yaml:"name"`
	Value  string `json:"value" yaml:"value"`
	Inline bool   `json:"inline,omitempty" yaml:"inline,omitempty"`
}

// MaxEmbedFields is Discord's per-embed field limit.
const MaxEmbedFields = 25
