package blocks

import (
	"strings"

	"server-tags/pkg/tagscript"
)

// AssignmentBlock binds a variable for the rest of the run.
//
//	{=(name):value}
type AssignmentBlock struct{}

func (AssignmentBlock) WillAccept(ctx *tagscript.Context) bool {
	return matches(ctx, "=", "let", "assign")
}

func (AssignmentBlock) Process(ctx *tagscript.Context) (string, bool) {
	if !ctx.Verb.HasParameter {
		return "", false
	}
	name := strings.TrimSpace(ctx.Verb.Parameter)
	if name == "" {
		return "", false
	}
	ctx.SetVariable(name, tagscript.NewStringAdapter(ctx.Verb.Payload))
	return "", true
}

// StrictVariableGetter accepts only declarations naming an existing variable.
type StrictVariableGetter struct{}

func (StrictVariableGetter) WillAccept(ctx *tagscript.Context) bool {
	_, ok := ctx.Variable(ctx.Verb.Declaration)
	return ok
}

func (StrictVariableGetter) Process(ctx *tagscript.Context) (string, bool) {
	v, ok := ctx.Variable(ctx.Verb.Declaration)
	if !ok {
		return "", false
	}
	return v.GetValue(ctx)
}

// LooseVariableGetter accepts every declaration and checks for the variable
// only when processing, so it must come last in a block list.
type LooseVariableGetter struct{}

func (LooseVariableGetter) WillAccept(*tagscript.Context) bool {
	return true
}

func (LooseVariableGetter) Process(ctx *tagscript.Context) (string, bool) {
	v, ok := ctx.Variable(ctx.Verb.Declaration)
	if !ok {
		return "", false
	}
	return v.GetValue(ctx)
}
