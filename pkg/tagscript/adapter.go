package tagscript

import (
	"strconv"
	"strings"
	"time"
)

// Adapter exposes a host value to scripts. GetValue sees the whole context so
// it can read the parameter and payload of the verb being resolved; ok=false
// leaves the span unresolved.
type Adapter interface {
	GetValue(ctx *Context) (string, bool)
}

// Identifier is implemented by adapters that stand for an actor or a place
// that access-control blocks can match against (ids, names, role ids...).
type Identifier interface {
	Identifiers() []string
}

// StringAdapter wraps plain text. With a parameter it indexes words:
// {args(2)} is the second word, {args(2+)} the second onwards, {args(+2)}
// the first two. A payload replaces whitespace as the word separator.
type StringAdapter struct {
	value  string
	escape bool
}

func NewStringAdapter(value string) *StringAdapter {
	return &StringAdapter{value: value}
}

// NewEscapedStringAdapter wraps untrusted text; its output is escaped so it
// cannot change the shape of an enclosing block.
func NewEscapedStringAdapter(value string) *StringAdapter {
	return &StringAdapter{value: value, escape: true}
}

func (a *StringAdapter) GetValue(ctx *Context) (string, bool) {
	if !ctx.Verb.HasParameter {
		return a.out(a.value), true
	}

	var words []string
	sep := " "
	if ctx.Verb.HasPayload && ctx.Verb.Payload != "" {
		sep = Unescape(ctx.Verb.Payload)
		words = strings.Split(a.value, sep)
	} else {
		words = strings.Fields(a.value)
	}

	param := strings.TrimSpace(ctx.Verb.Parameter)
	switch {
	case strings.HasSuffix(param, "+"):
		n, err := strconv.Atoi(strings.TrimSuffix(param, "+"))
		if err != nil || n < 1 {
			return "", false
		}
		if n > len(words) {
			return "", true
		}
		return a.out(strings.Join(words[n-1:], sep)), true
	case strings.HasPrefix(param, "+"):
		n, err := strconv.Atoi(strings.TrimPrefix(param, "+"))
		if err != nil || n < 1 {
			return "", false
		}
		if n > len(words) {
			n = len(words)
		}
		return a.out(strings.Join(words[:n], sep)), true
	default:
		n, err := strconv.Atoi(param)
		if err != nil || n < 1 {
			return "", false
		}
		if n > len(words) {
			return "", true
		}
		return a.out(words[n-1]), true
	}
}

func (a *StringAdapter) out(s string) string {
	if a.escape {
		return Escape(s)
	}
	return s
}

// IntAdapter wraps an integer.
type IntAdapter struct {
	value int64
}

func NewIntAdapter(v int64) *IntAdapter {
	return &IntAdapter{value: v}
}

func (a *IntAdapter) GetValue(ctx *Context) (string, bool) {
	if ctx.Verb.HasParameter {
		return "", false
	}
	return strconv.FormatInt(a.value, 10), true
}

// FunctionAdapter computes its value on first use.
type FunctionAdapter struct {
	fn func() string
}

func NewFunctionAdapter(fn func() string) *FunctionAdapter {
	return &FunctionAdapter{fn: fn}
}

func (a *FunctionAdapter) GetValue(ctx *Context) (string, bool) {
	if ctx.Verb.HasParameter || a.fn == nil {
		return "", false
	}
	return a.fn(), true
}

type attribute struct {
	value  string
	escape bool
}

// AttributeAdapter exposes a host object through an explicit table of
// attributes and zero-argument methods. Keys are matched case-insensitively;
// anything not in the tables is unresolved.
type AttributeAdapter struct {
	str        string
	attributes map[string]attribute
	methods    map[string]func(*Context) string
	ids        []string
}

// NewAttributeAdapter starts an adapter whose bare form ({name}) is str.
func NewAttributeAdapter(str string) *AttributeAdapter {
	return &AttributeAdapter{
		str:        str,
		attributes: map[string]attribute{},
		methods:    map[string]func(*Context) string{},
	}
}

// WithIdentity fills the attributes every Discord object shares: id, name,
// created_at and timestamp (unix seconds). The name is escaped.
func (a *AttributeAdapter) WithIdentity(id, name string, created time.Time) *AttributeAdapter {
	a.Attr("id", id)
	a.EscapedAttr("name", name)
	if !created.IsZero() {
		a.Attr("created_at", created.UTC().Format("2006-01-02 15:04:05"))
		a.Attr("timestamp", strconv.FormatInt(created.Unix(), 10))
	}
	a.Identify(id, name)
	return a
}

func (a *AttributeAdapter) Attr(name, value string) *AttributeAdapter {
	a.attributes[strings.ToLower(name)] = attribute{value: value}
	return a
}

// EscapedAttr registers an attribute whose value is user-controlled.
func (a *AttributeAdapter) EscapedAttr(name, value string) *AttributeAdapter {
	a.attributes[strings.ToLower(name)] = attribute{value: value, escape: true}
	return a
}

func (a *AttributeAdapter) Method(name string, fn func(*Context) string) *AttributeAdapter {
	a.methods[strings.ToLower(name)] = fn
	return a
}

// Identify adds values access-control blocks may match this adapter by.
func (a *AttributeAdapter) Identify(ids ...string) *AttributeAdapter {
	for _, id := range ids {
		if id != "" {
			a.ids = append(a.ids, id)
		}
	}
	return a
}

func (a *AttributeAdapter) Identifiers() []string {
	return append([]string(nil), a.ids...)
}

func (a *AttributeAdapter) GetValue(ctx *Context) (string, bool) {
	if !ctx.Verb.HasParameter {
		return Escape(a.str), true
	}
	key := strings.ToLower(strings.TrimSpace(ctx.Verb.Parameter))
	if attr, ok := a.attributes[key]; ok {
		if attr.escape {
			return Escape(attr.value), true
		}
		return attr.value, true
	}
	if fn, ok := a.methods[key]; ok {
		return fn(ctx), true
	}
	return "", false
}
