package tagscript

import "strings"

// Span is one matched {...} occurrence in a script. End is the index of the
// closing brace, so the span text is script[Start:End+1].
type Span struct {
	Start int
	End   int
	Depth int
}

// specials lists the characters a backslash can escape.
const specials = "{}():|"

func isSpecial(c byte) bool {
	return strings.IndexByte(specials, c) >= 0
}

// Spans returns the matched spans of script in resolution order: innermost
// first, then left to right. Unmatched braces are literal text and produce no
// span.
func Spans(script string) []Span {
	spans, _ := scan(script)
	return spans
}

// scan walks the script once, pairing braces with a stack. Spans come out in
// closing order, which is exactly innermost-first. It also reports the
// deepest nesting level among matched pairs.
func scan(script string) (spans []Span, maxDepth int) {
	var stack []int
	for i := 0; i < len(script); i++ {
		switch script[i] {
		case '\\':
			if i+1 < len(script) && isSpecial(script[i+1]) {
				i++
			}
		case '{':
			stack = append(stack, i)
		case '}':
			if len(stack) == 0 {
				continue
			}
			start := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			spans = append(spans, Span{Start: start, End: i})
		}
	}

	if len(spans) == 0 {
		return spans, 0
	}

	// Unmatched '{' left on the stack must not inflate the depth of the spans
	// they happen to precede, so depth is measured over matched pairs only.
	marks := make(map[int]int, len(spans)*2)
	for _, s := range spans {
		marks[s.Start] = 1
		marks[s.End] = -1
	}
	depthAt := make(map[int]int, len(spans))
	cur := 0
	for i := 0; i < len(script); i++ {
		switch marks[i] {
		case 1:
			cur++
			depthAt[i] = cur
			if cur > maxDepth {
				maxDepth = cur
			}
		case -1:
			cur--
		}
	}
	for i := range spans {
		spans[i].Depth = depthAt[spans[i].Start]
	}
	return spans, maxDepth
}

// shift moves the coordinates of the spans still waiting to be resolved after
// done's text was replaced by something delta bytes longer (or shorter).
// Waiting spans either enclose done or start after it.
func shift(waiting []Span, done Span, delta int) {
	if delta == 0 {
		return
	}
	for i := range waiting {
		s := &waiting[i]
		switch {
		case s.Start > done.End:
			s.Start += delta
			s.End += delta
		case s.End > done.End:
			s.End += delta
		}
	}
}

// Escape backslash-escapes every character that has a meaning inside a
// block, so the value can be substituted into an enclosing block without
// changing how that block parses.
func Escape(s string) string {
	if !strings.ContainsAny(s, specials) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) + 8)
	for i := 0; i < len(s); i++ {
		if isSpecial(s[i]) {
			b.WriteByte('\\')
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

// Unescape drops the backslash in front of escaped special characters.
func Unescape(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) && isSpecial(s[i+1]) {
			i++
		}
		b.WriteByte(s[i])
	}
	return b.String()
}
