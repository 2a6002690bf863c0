package blocks

import (
	"strings"

	"server-tags/pkg/tagscript"
)

// DefaultDenial is the body of a run stopped by require or blacklist without
// a custom message.
const DefaultDenial = "You aren't allowed to use this tag."

// RequireBlock stops the run unless the author or the channel matches one of
// the comma-separated ids or names.
//
//	{require(123456789012345678,Moderator):Mods only!}
type RequireBlock struct{}

func (RequireBlock) WillAccept(ctx *tagscript.Context) bool {
	return matches(ctx, "require", "whitelist")
}

func (RequireBlock) Process(ctx *tagscript.Context) (string, bool) {
	if !ctx.Verb.HasParameter {
		return "", false
	}
	if !identifiedBy(ctx, ctx.Verb.Parameter) {
		deny(ctx)
	}
	return "", true
}

// BlacklistBlock stops the run when the author or the channel matches one of
// the comma-separated ids or names.
//
//	{blacklist(#off-topic):Not here.}
type BlacklistBlock struct{}

func (BlacklistBlock) WillAccept(ctx *tagscript.Context) bool {
	return matches(ctx, "blacklist")
}

func (BlacklistBlock) Process(ctx *tagscript.Context) (string, bool) {
	if !ctx.Verb.HasParameter {
		return "", false
	}
	if identifiedBy(ctx, ctx.Verb.Parameter) {
		deny(ctx)
	}
	return "", true
}

// Seeds consulted by access-control blocks.
var identitySeeds = []string{"author", "user", "channel"}

func identifiedBy(ctx *tagscript.Context, list string) bool {
	known := map[string]struct{}{}
	for _, name := range identitySeeds {
		v, ok := ctx.Variable(name)
		if !ok {
			continue
		}
		if id, ok := v.(tagscript.Identifier); ok {
			for _, s := range id.Identifiers() {
				known[strings.ToLower(s)] = struct{}{}
			}
		}
	}
	for _, item := range split(list, ",", -1) {
		item = strings.ToLower(strings.TrimSpace(tagscript.Unescape(item)))
		item = strings.TrimPrefix(item, "#")
		item = strings.Trim(item, "<@&!#>")
		if item == "" {
			continue
		}
		if _, ok := known[item]; ok {
			return true
		}
	}
	return false
}

func deny(ctx *tagscript.Context) {
	msg := strings.TrimSpace(ctx.Verb.Payload)
	if !ctx.Verb.HasPayload || msg == "" {
		msg = DefaultDenial
	}
	ctx.Response.Actions.Reset()
	ctx.Halt(msg)
}

// BreakBlock ends the run with its payload as the whole body when the
// condition holds. Without a parameter it always breaks.
//
//	{break({args}==):Usage: !tag <name>}
type BreakBlock struct{}

func (BreakBlock) WillAccept(ctx *tagscript.Context) bool {
	return matches(ctx, "break", "short", "shortcircuit")
}

func (BreakBlock) Process(ctx *tagscript.Context) (string, bool) {
	cond := true
	if ctx.Verb.HasParameter {
		var ok bool
		if cond, ok = parseCondition(ctx.Verb.Parameter); !ok {
			return "", false
		}
	}
	if cond {
		ctx.Halt(ctx.Verb.Payload)
	}
	return "", true
}

// StopBlock ends the run immediately with its payload verbatim when the
// required condition holds. Actions recorded so far are kept.
//
//	{stop({uses}>100):This tag is retired.}
type StopBlock struct{}

func (StopBlock) WillAccept(ctx *tagscript.Context) bool {
	return matches(ctx, "stop", "halt", "error")
}

func (StopBlock) Process(ctx *tagscript.Context) (string, bool) {
	if !ctx.Verb.HasParameter {
		return "", false
	}
	cond, ok := parseCondition(ctx.Verb.Parameter)
	if !ok {
		return "", false
	}
	if cond {
		ctx.Halt(ctx.Verb.Payload)
	}
	return "", true
}
