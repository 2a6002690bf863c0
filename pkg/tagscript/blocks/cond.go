package blocks

import "server-tags/pkg/tagscript"

// IfBlock chooses between the halves of its payload.
//
//	{if(<lhs><op><rhs>):<then>|<else>}
type IfBlock struct{}

func (IfBlock) WillAccept(ctx *tagscript.Context) bool {
	return matches(ctx, "if")
}

func (IfBlock) Process(ctx *tagscript.Context) (string, bool) {
	if !ctx.Verb.HasParameter || !ctx.Verb.HasPayload {
		return "", false
	}
	cond, ok := parseCondition(ctx.Verb.Parameter)
	if !ok {
		return "", false
	}
	return branch(ctx.Verb.Payload, cond), true
}

// AnyBlock is true when at least one '|'-separated condition holds.
//
//	{any(<cond>|<cond>...):<then>|<else>}
type AnyBlock struct{}

func (AnyBlock) WillAccept(ctx *tagscript.Context) bool {
	return matches(ctx, "any", "or")
}

func (AnyBlock) Process(ctx *tagscript.Context) (string, bool) {
	results, ok := conditions(ctx)
	if !ok {
		return "", false
	}
	hit := false
	for _, r := range results {
		hit = hit || r
	}
	return branch(ctx.Verb.Payload, hit), true
}

// AllBlock is true when every '|'-separated condition holds.
//
//	{all(<cond>|<cond>...):<then>|<else>}
type AllBlock struct{}

func (AllBlock) WillAccept(ctx *tagscript.Context) bool {
	return matches(ctx, "all", "and")
}

func (AllBlock) Process(ctx *tagscript.Context) (string, bool) {
	results, ok := conditions(ctx)
	if !ok {
		return "", false
	}
	hit := true
	for _, r := range results {
		hit = hit && r
	}
	return branch(ctx.Verb.Payload, hit), true
}

// conditions evaluates every '|'-separated expression of the parameter. One
// malformed expression makes the whole block unresolved.
func conditions(ctx *tagscript.Context) ([]bool, bool) {
	if !ctx.Verb.HasParameter || !ctx.Verb.HasPayload {
		return nil, false
	}
	exprs := split(ctx.Verb.Parameter, "|", -1)
	out := make([]bool, 0, len(exprs))
	for _, e := range exprs {
		r, ok := parseCondition(e)
		if !ok {
			return nil, false
		}
		out = append(out, r)
	}
	return out, true
}
