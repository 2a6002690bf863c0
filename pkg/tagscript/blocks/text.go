package blocks

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ncruces/go-strftime"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"server-tags/pkg/tagscript"
)

// ReplaceBlock replaces every occurrence of one string with another.
//
//	{replace(o,0):foo} -> f00
type ReplaceBlock struct{}

func (ReplaceBlock) WillAccept(ctx *tagscript.Context) bool {
	return matches(ctx, "replace")
}

func (ReplaceBlock) Process(ctx *tagscript.Context) (string, bool) {
	if !ctx.Verb.HasParameter || !ctx.Verb.HasPayload {
		return "", false
	}
	parts := split(ctx.Verb.Parameter, ",", 2)
	if len(parts) != 2 || parts[0] == "" {
		return "", false
	}
	before := tagscript.Unescape(parts[0])
	after := tagscript.Unescape(parts[1])
	return strings.ReplaceAll(ctx.Verb.Payload, before, after), true
}

// ContainsBlock reports whether the parameter is one of the payload's words.
//
//	{contains(b):a b c} -> true
type ContainsBlock struct{}

func (ContainsBlock) WillAccept(ctx *tagscript.Context) bool {
	return matches(ctx, "contains")
}

func (ContainsBlock) Process(ctx *tagscript.Context) (string, bool) {
	if !ctx.Verb.HasParameter || !ctx.Verb.HasPayload {
		return "", false
	}
	return strconv.FormatBool(wordIndex(ctx) >= 0), true
}

// InBlock reports whether the parameter occurs anywhere in the payload.
//
//	{in(ell):hello} -> true
type InBlock struct{}

func (InBlock) WillAccept(ctx *tagscript.Context) bool {
	return matches(ctx, "in")
}

func (InBlock) Process(ctx *tagscript.Context) (string, bool) {
	if !ctx.Verb.HasParameter || !ctx.Verb.HasPayload {
		return "", false
	}
	found := strings.Contains(tagscript.Unescape(ctx.Verb.Payload), tagscript.Unescape(ctx.Verb.Parameter))
	return strconv.FormatBool(found), true
}

// IndexBlock returns the zero-based position of the parameter among the
// payload's words, or -1.
//
//	{index(c):a b c} -> 2
type IndexBlock struct{}

func (IndexBlock) WillAccept(ctx *tagscript.Context) bool {
	return matches(ctx, "index")
}

func (IndexBlock) Process(ctx *tagscript.Context) (string, bool) {
	if !ctx.Verb.HasParameter || !ctx.Verb.HasPayload {
		return "", false
	}
	return strconv.Itoa(wordIndex(ctx)), true
}

func wordIndex(ctx *tagscript.Context) int {
	needle := parameter(ctx)
	for i, w := range strings.Fields(tagscript.Unescape(ctx.Verb.Payload)) {
		if w == needle {
			return i
		}
	}
	return -1
}

// SubstringBlock slices the payload by rune position: "start" or
// "start-end", end exclusive.
//
//	{substr(1-3):hello} -> el
type SubstringBlock struct{}

func (SubstringBlock) WillAccept(ctx *tagscript.Context) bool {
	return matches(ctx, "substr", "substring")
}

func (SubstringBlock) Process(ctx *tagscript.Context) (string, bool) {
	if !ctx.Verb.HasParameter || !ctx.Verb.HasPayload {
		return "", false
	}
	runes := []rune(tagscript.Unescape(ctx.Verb.Payload))

	p := parameter(ctx)
	start, end := 0, len(runes)
	var err error
	if lo, hi, ok := strings.Cut(p, "-"); ok {
		if start, err = strconv.Atoi(strings.TrimSpace(lo)); err != nil {
			return "", false
		}
		if end, err = strconv.Atoi(strings.TrimSpace(hi)); err != nil {
			return "", false
		}
	} else if start, err = strconv.Atoi(p); err != nil {
		return "", false
	}

	start = clamp(start, 0, len(runes))
	end = clamp(end, start, len(runes))
	return tagscript.Escape(string(runes[start:end])), true
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}

// URLEncodeBlock percent-encodes the payload. With a "+" parameter spaces
// become '+' as in a query string.
//
//	{urlencode:hello world} -> hello%20world
type URLEncodeBlock struct{}

func (URLEncodeBlock) WillAccept(ctx *tagscript.Context) bool {
	return matches(ctx, "urlencode")
}

func (URLEncodeBlock) Process(ctx *tagscript.Context) (string, bool) {
	if !ctx.Verb.HasPayload {
		return "", false
	}
	s := tagscript.Unescape(ctx.Verb.Payload)
	if ctx.Verb.HasParameter && parameter(ctx) == "+" {
		return url.QueryEscape(s), true
	}
	return url.PathEscape(s), true
}

// CaseBlock changes the case of its payload.
//
//	{upper:shout} {lower:QUIET}
type CaseBlock struct{}

func (CaseBlock) WillAccept(ctx *tagscript.Context) bool {
	return matches(ctx, "upper", "lower")
}

func (CaseBlock) Process(ctx *tagscript.Context) (string, bool) {
	if !ctx.Verb.HasPayload {
		return "", false
	}
	// A Caser holds state and is not safe to share between runs.
	if ctx.Verb.Name() == "upper" {
		return cases.Upper(language.Und).String(ctx.Verb.Payload), true
	}
	return cases.Lower(language.Und).String(ctx.Verb.Payload), true
}

// StrfBlock formats a time with a strftime pattern. The parameter is a unix
// timestamp or "YYYY-MM-DD HH.MM.SS"; without one the run's "now" is used.
//
//	{strf:%Y-%m-%d}
//	{strf(1700000000):%H:%M}
type StrfBlock struct{}

func (StrfBlock) WillAccept(ctx *tagscript.Context) bool {
	return matches(ctx, "strf")
}

func (StrfBlock) Process(ctx *tagscript.Context) (string, bool) {
	if !ctx.Verb.HasPayload {
		return "", false
	}
	t := ctx.Now()
	if ctx.Verb.HasParameter {
		var ok bool
		if t, ok = parseWhen(parameter(ctx)); !ok {
			return "", false
		}
	}
	return strftime.Format(tagscript.Unescape(ctx.Verb.Payload), t.UTC()), true
}

var strfLayouts = []string{
	"2006-01-02 15.04.05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	time.RFC3339,
}

func parseWhen(s string) (time.Time, bool) {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(n, 0), true
	}
	for _, layout := range strfLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
