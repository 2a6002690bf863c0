// Package blocks is the standard block library for tagscript.
package blocks

import "server-tags/pkg/tagscript"

// Default is the block list for custom commands.
func Default() []tagscript.Block {
	return []tagscript.Block{
		MathBlock{},
		RandomBlock{},
		RangeBlock{},
		FiftyFiftyBlock{},
		IfBlock{},
		AnyBlock{},
		AllBlock{},
		AssignmentBlock{},
		BreakBlock{},
		StopBlock{},
		RequireBlock{},
		BlacklistBlock{},
		RedirectBlock{},
		ShortRedirectBlock{},
		ReactBlock{},
		ReactUBlock{},
		EmbedBlock{},
		SilentBlock{},
		DeleteBlock{},
		CommandBlock{},
		ReplaceBlock{},
		ContainsBlock{},
		InBlock{},
		IndexBlock{},
		StrfBlock{},
		SubstringBlock{},
		URLEncodeBlock{},
		CaseBlock{},
		StrictVariableGetter{},
	}
}

// Greeting is the block list for welcome and farewell messages. There is no
// invoking message to react to, delete or guard, so those blocks are left out.
func Greeting() []tagscript.Block {
	return []tagscript.Block{
		MathBlock{},
		RandomBlock{},
		RangeBlock{},
		FiftyFiftyBlock{},
		IfBlock{},
		AnyBlock{},
		AllBlock{},
		AssignmentBlock{},
		BreakBlock{},
		StopBlock{},
		ReactBlock{},
		EmbedBlock{},
		ReplaceBlock{},
		ContainsBlock{},
		InBlock{},
		IndexBlock{},
		StrfBlock{},
		SubstringBlock{},
		URLEncodeBlock{},
		CaseBlock{},
		StrictVariableGetter{},
	}
}
