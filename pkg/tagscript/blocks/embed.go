package blocks

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"server-tags/pkg/tagscript"
)

// EmbedBlock builds the embed attached to the output. The parameter is
// either Discord embed JSON or the name of one attribute to set from the
// payload; repeated blocks add to the same embed.
//
//	{embed({"title":"Hello","color":16711680})}
//	{embed(title):Hello}
//	{embed(field):Name|Value|true}
type EmbedBlock struct{}

func (EmbedBlock) WillAccept(ctx *tagscript.Context) bool {
	return matches(ctx, "embed")
}

func (EmbedBlock) Process(ctx *tagscript.Context) (string, bool) {
	if !ctx.Verb.HasParameter {
		return "", false
	}
	param := strings.TrimSpace(ctx.Verb.Parameter)

	if strings.HasPrefix(param, "{") && strings.HasSuffix(param, "}") {
		var e tagscript.Embed
		if err := json.Unmarshal([]byte(tagscript.Unescape(param)), &e); err != nil {
			return "", false
		}
		if len(e.Fields) > tagscript.MaxEmbedFields {
			e.Fields = e.Fields[:tagscript.MaxEmbedFields]
		}
		ctx.Response.Actions.Embed = &e
		return "", true
	}

	if !ctx.Verb.HasPayload {
		return "", false
	}
	e := ctx.Response.Actions.Embed
	if e == nil {
		e = &tagscript.Embed{}
	}
	if !setEmbedAttribute(e, strings.ToLower(param), ctx.Verb.Payload, ctx.Now()) {
		return "", false
	}
	ctx.Response.Actions.Embed = e
	return "", true
}

func setEmbedAttribute(e *tagscript.Embed, attr, payload string, now time.Time) bool {
	value := strings.TrimSpace(tagscript.Unescape(payload))
	switch attr {
	case "title":
		e.Title = value
	case "description":
		e.Description = value
	case "url":
		e.URL = value
	case "color", "colour":
		c, ok := parseColor(value)
		if !ok {
			return false
		}
		e.Color = c
	case "image":
		e.Image = &tagscript.EmbedMedia{URL: value}
	case "thumbnail":
		e.Thumbnail = &tagscript.EmbedMedia{URL: value}
	case "timestamp":
		ts, ok := parseTimestamp(value, now)
		if !ok {
			return false
		}
		e.Timestamp = ts
	case "footer":
		parts := unescapedParts(payload, 2)
		e.Footer = &tagscript.EmbedFooter{Text: parts[0]}
		if len(parts) == 2 {
			e.Footer.IconURL = parts[1]
		}
	case "author":
		parts := unescapedParts(payload, 3)
		e.Author = &tagscript.EmbedAuthor{Name: parts[0]}
		if len(parts) > 1 {
			e.Author.URL = parts[1]
		}
		if len(parts) > 2 {
			e.Author.IconURL = parts[2]
		}
	case "field":
		parts := unescapedParts(payload, 3)
		if len(parts) < 2 || len(e.Fields) >= tagscript.MaxEmbedFields {
			return false
		}
		f := &tagscript.EmbedField{Name: parts[0], Value: parts[1]}
		if len(parts) == 3 {
			f.Inline, _ = parseBool(parts[2])
		}
		e.Fields = append(e.Fields, f)
	default:
		return false
	}
	return true
}

func unescapedParts(payload string, n int) []string {
	parts := split(payload, "|", n)
	for i, p := range parts {
		parts[i] = strings.TrimSpace(tagscript.Unescape(p))
	}
	return parts
}

func parseColor(s string) (int, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	base := 10
	switch {
	case strings.HasPrefix(s, "#"):
		s, base = s[1:], 16
	case strings.HasPrefix(s, "0x"):
		s, base = s[2:], 16
	}
	n, err := strconv.ParseInt(s, base, 32)
	if err != nil || n < 0 || n > 0xFFFFFF {
		return 0, false
	}
	return int(n), true
}

func parseTimestamp(s string, now time.Time) (string, bool) {
	if strings.EqualFold(s, "now") {
		return now.UTC().Format(time.RFC3339), true
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(n, 0).UTC().Format(time.RFC3339), true
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC().Format(time.RFC3339), true
	}
	return "", false
}
