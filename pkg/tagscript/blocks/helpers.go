package blocks

import (
	"strconv"
	"strings"

	"server-tags/pkg/tagscript"
)

// matches reports whether the verb's declaration is one of aliases.
func matches(ctx *tagscript.Context, aliases ...string) bool {
	name := ctx.Verb.Name()
	for _, a := range aliases {
		if name == a {
			return true
		}
	}
	return false
}

// split cuts s on sep wherever sep is not escaped and not inside a nested
// {...} or (...). n < 0 means no limit; otherwise at most n parts.
func split(s string, sep string, n int) []string {
	if n == 0 {
		return nil
	}
	var parts []string
	braces, parens := 0, 0
	last := 0
	for i := 0; i < len(s); i++ {
		if n > 0 && len(parts) == n-1 {
			break
		}
		switch s[i] {
		case '\\':
			i++
			continue
		case '{':
			braces++
		case '}':
			if braces > 0 {
				braces--
			}
		case '(':
			parens++
		case ')':
			if parens > 0 {
				parens--
			}
		}
		if braces > 0 || parens > 0 {
			continue
		}
		if strings.HasPrefix(s[i:], sep) {
			parts = append(parts, s[last:i])
			i += len(sep) - 1
			last = i + 1
		}
	}
	return append(parts, s[last:])
}

// indexTop returns the first top-level, unescaped index of sep in s, or -1.
func indexTop(s, sep string) int {
	parts := split(s, sep, 2)
	if len(parts) < 2 {
		return -1
	}
	return len(parts[0])
}

var comparisons = []string{"==", "!=", ">=", "<=", ">", "<"}

// parseCondition evaluates one "lhs OP rhs" expression, or a bare boolean
// word when no operator is present. Sides compare as numbers when both parse
// as numbers and as text otherwise.
func parseCondition(expr string) (result bool, ok bool) {
	for _, op := range comparisons {
		idx := indexTop(expr, op)
		if idx < 0 {
			continue
		}
		lhs := tagscript.Unescape(strings.TrimSpace(expr[:idx]))
		rhs := tagscript.Unescape(strings.TrimSpace(expr[idx+len(op):]))
		return compare(lhs, op, rhs), true
	}
	return parseBool(expr)
}

func compare(lhs, op, rhs string) bool {
	l, lerr := strconv.ParseFloat(lhs, 64)
	r, rerr := strconv.ParseFloat(rhs, 64)
	if lerr == nil && rerr == nil {
		switch op {
		case "==":
			return l == r
		case "!=":
			return l != r
		case ">=":
			return l >= r
		case "<=":
			return l <= r
		case ">":
			return l > r
		case "<":
			return l < r
		}
	}
	switch op {
	case "==":
		return lhs == rhs
	case "!=":
		return lhs != rhs
	case ">=":
		return lhs >= rhs
	case "<=":
		return lhs <= rhs
	case ">":
		return lhs > rhs
	case "<":
		return lhs < rhs
	}
	return false
}

func parseBool(s string) (value bool, ok bool) {
	switch strings.ToLower(strings.TrimSpace(tagscript.Unescape(s))) {
	case "true", "yes", "y", "1", "on", "enable", "enabled":
		return true, true
	case "false", "no", "n", "0", "off", "disable", "disabled":
		return false, true
	}
	return false, false
}

// branch picks the "then" or "else" half of a true|false payload. Without a
// top-level '|' the else half is empty.
func branch(payload string, cond bool) string {
	parts := split(payload, "|", 2)
	if cond {
		return parts[0]
	}
	if len(parts) == 2 {
		return parts[1]
	}
	return ""
}

// parameter returns the trimmed, unescaped parameter.
func parameter(ctx *tagscript.Context) string {
	return strings.TrimSpace(tagscript.Unescape(ctx.Verb.Parameter))
}
