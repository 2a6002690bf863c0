package tagscript

import "strings"

// Verb is the parse of one {declaration(parameter):payload} occurrence.
// Parameter and Payload keep their escape sequences; use Unescape when the
// literal text is needed.
type Verb struct {
	Declaration  string
	Parameter    string
	Payload      string
	HasParameter bool
	HasPayload   bool

	// Raw is the whole matched span, braces included.
	Raw string
}

// Name returns the declaration lowercased, the form blocks match against.
func (v Verb) Name() string {
	return strings.ToLower(v.Declaration)
}

// String rebuilds the block text from the parsed parts.
func (v Verb) String() string {
	var b strings.Builder
	b.WriteByte('{')
	b.WriteString(v.Declaration)
	if v.HasParameter {
		b.WriteByte('(')
		b.WriteString(v.Parameter)
		b.WriteByte(')')
	}
	if v.HasPayload {
		b.WriteByte(':')
		b.WriteString(v.Payload)
	}
	b.WriteByte('}')
	return b.String()
}

// ParseVerb splits a braced span into its declaration, parameter and payload.
// The declaration ends at the first top-level '(' or ':'. The parameter runs to
// the matching ')', and the payload is whatever follows the first top-level
// ':'. Text after the closing ')' that does not start with ':' is dropped.
// Characters inside a nested {...} never delimit anything. The second return
// is false when the span has no usable declaration.
func ParseVerb(span string) (Verb, bool) {
	v := Verb{Raw: span}
	if len(span) < 2 || span[0] != '{' || span[len(span)-1] != '}' {
		return v, false
	}
	body := span[1 : len(span)-1]

	braces, parens := 0, 0
	paramStart := -1

	for i := 0; i < len(body); i++ {
		c := body[i]
		if c == '\\' {
			if i+1 < len(body) && isSpecial(body[i+1]) {
				i++
			}
			continue
		}

		switch c {
		case '{':
			braces++
			continue
		case '}':
			if braces > 0 {
				braces--
			}
			continue
		}
		if braces > 0 {
			continue
		}

		switch c {
		case ':':
			if paramStart < 0 {
				v.Declaration = body[:i]
				v.Payload = body[i+1:]
				v.HasPayload = true
				return v, v.Declaration != ""
			}
		case '(':
			if paramStart < 0 {
				v.Declaration = body[:i]
				paramStart = i + 1
			}
			parens++
		case ')':
			if paramStart < 0 {
				continue
			}
			parens--
			if parens > 0 {
				continue
			}
			v.Parameter = body[paramStart:i]
			v.HasParameter = true
			if rest := body[i+1:]; strings.HasPrefix(rest, ":") {
				v.Payload = rest[1:]
				v.HasPayload = true
			}
			return v, v.Declaration != ""
		}
	}

	// No delimiter closed: an unbalanced '(' makes the whole body the
	// declaration, which no block will recognise.
	v.Declaration = body
	return v, v.Declaration != ""
}
