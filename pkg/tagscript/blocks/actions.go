package blocks

import (
	"regexp"
	"strings"

	"server-tags/pkg/tagscript"
)

// ReactBlock queues up to five reactions for the message the tag sends.
//
//	{react:👍 👎}
type ReactBlock struct{}

func (ReactBlock) WillAccept(ctx *tagscript.Context) bool {
	return matches(ctx, "react")
}

func (ReactBlock) Process(ctx *tagscript.Context) (string, bool) {
	emoji, ok := reactions(ctx)
	if !ok {
		return "", false
	}
	ctx.Response.Actions.React = emoji
	return "", true
}

// ReactUBlock queues up to five reactions for the invoking message.
//
//	{reactu:✅}
type ReactUBlock struct{}

func (ReactUBlock) WillAccept(ctx *tagscript.Context) bool {
	return matches(ctx, "reactu")
}

func (ReactUBlock) Process(ctx *tagscript.Context) (string, bool) {
	emoji, ok := reactions(ctx)
	if !ok {
		return "", false
	}
	ctx.Response.Actions.ReactU = emoji
	return "", true
}

func reactions(ctx *tagscript.Context) ([]string, bool) {
	if !ctx.Verb.HasPayload {
		return nil, false
	}
	fields := strings.Fields(tagscript.Unescape(ctx.Verb.Payload))
	if len(fields) == 0 {
		return nil, false
	}
	if len(fields) > tagscript.MaxReactions {
		fields = fields[:tagscript.MaxReactions]
	}
	return fields, true
}

var channelRef = regexp.MustCompile(`^(?:<#)?(\d{15,21})>?$`)

// RedirectBlock changes where the output is delivered.
//
//	{redirect(dm)}  {redirect(reply)}  {redirect(123456789012345678)}
type RedirectBlock struct{}

func (RedirectBlock) WillAccept(ctx *tagscript.Context) bool {
	return matches(ctx, "redirect")
}

func (RedirectBlock) Process(ctx *tagscript.Context) (string, bool) {
	if !ctx.Verb.HasParameter {
		return "", false
	}
	p := strings.ToLower(parameter(ctx))
	switch p {
	case tagscript.TargetDM, tagscript.TargetReply:
		ctx.Response.Actions.Target = p
		return "", true
	}
	if m := channelRef.FindStringSubmatch(p); m != nil {
		ctx.Response.Actions.Target = m[1]
		return "", true
	}
	return "", false
}

// ShortRedirectBlock is the parameterless form of redirect: {dm} or {reply}.
type ShortRedirectBlock struct{}

func (ShortRedirectBlock) WillAccept(ctx *tagscript.Context) bool {
	return matches(ctx, tagscript.TargetDM, tagscript.TargetReply)
}

func (ShortRedirectBlock) Process(ctx *tagscript.Context) (string, bool) {
	ctx.Response.Actions.Target = ctx.Verb.Name()
	return "", true
}

// SilentBlock suppresses the visible reply. It fires once per run.
//
//	{silent}
type SilentBlock struct{}

func (SilentBlock) WillAccept(ctx *tagscript.Context) bool {
	return matches(ctx, "silent", "silence") && !ctx.Response.Actions.Silent
}

func (SilentBlock) Process(ctx *tagscript.Context) (string, bool) {
	ctx.Response.Actions.Silent = true
	return "", true
}

// DeleteBlock asks the host to delete the invoking message. It fires once.
//
//	{delete}
type DeleteBlock struct{}

func (DeleteBlock) WillAccept(ctx *tagscript.Context) bool {
	return matches(ctx, "delete", "del") && !ctx.Response.Actions.Delete
}

func (DeleteBlock) Process(ctx *tagscript.Context) (string, bool) {
	ctx.Response.Actions.Delete = true
	return "", true
}

// CommandBlock queues another command to run after this one.
//
//	{c:othertag some args}
type CommandBlock struct{}

func (CommandBlock) WillAccept(ctx *tagscript.Context) bool {
	return matches(ctx, "command", "c", "cmd")
}

func (CommandBlock) Process(ctx *tagscript.Context) (string, bool) {
	cmd := strings.TrimSpace(tagscript.Unescape(ctx.Verb.Payload))
	if !ctx.Verb.HasPayload || cmd == "" {
		return "", false
	}
	a := ctx.Response.Actions
	if len(a.Commands) < tagscript.MaxCommands {
		a.Commands = append(a.Commands, cmd)
	}
	return "", true
}
