package blocks

import (
	"math"
	"math/rand/v2"
	"regexp"
	"strconv"
	"strings"

	"server-tags/pkg/tagscript"
)

// rng returns the source a random block should draw from: a deterministic
// one when the script supplied a seed parameter, the run's source otherwise.
func rng(ctx *tagscript.Context) *rand.Rand {
	if ctx.Verb.HasParameter && strings.TrimSpace(ctx.Verb.Parameter) != "" {
		return tagscript.SeededRand(ctx.Verb.Parameter)
	}
	return ctx.Rand()
}

// RandomBlock picks one entry of a '~' or ',' separated list. Entries of the
// form "<weight>|<value>" are weighted.
//
//	{random([seed]):a~b~c}
//	{random:5|common,1|rare}
type RandomBlock struct{}

func (RandomBlock) WillAccept(ctx *tagscript.Context) bool {
	return matches(ctx, "random", "#", "rand")
}

func (RandomBlock) Process(ctx *tagscript.Context) (string, bool) {
	if !ctx.Verb.HasPayload {
		return "", false
	}
	sep := ","
	if indexTop(ctx.Verb.Payload, "~") >= 0 {
		sep = "~"
	}

	type entry struct {
		weight int
		value  string
	}
	var entries []entry
	total := 0
	for _, item := range split(ctx.Verb.Payload, sep, -1) {
		e := entry{weight: 1, value: item}
		if parts := split(item, "|", 2); len(parts) == 2 {
			if w, err := strconv.Atoi(strings.TrimSpace(parts[0])); err == nil && w >= 0 {
				e = entry{weight: w, value: parts[1]}
			}
		}
		entries = append(entries, e)
		total += e.weight
	}
	if total <= 0 {
		return "", false
	}

	pick := rng(ctx).IntN(total)
	for _, e := range entries {
		if pick < e.weight {
			return e.value, true
		}
		pick -= e.weight
	}
	return entries[len(entries)-1].value, true
}

// FiftyFiftyBlock returns its payload half of the time.
//
//	{50:maybe}
type FiftyFiftyBlock struct{}

func (FiftyFiftyBlock) WillAccept(ctx *tagscript.Context) bool {
	return matches(ctx, "50", "5050", "?")
}

func (FiftyFiftyBlock) Process(ctx *tagscript.Context) (string, bool) {
	if !ctx.Verb.HasPayload {
		return "", false
	}
	if rng(ctx).IntN(2) == 0 {
		return ctx.Verb.Payload, true
	}
	return "", true
}

// maxExactInt bounds range so both ends convert to int64 exactly, rangef's
// tenths included.
const maxExactInt = 1 << 53 / 10

var rangePattern = regexp.MustCompile(`^\s*(-?\d+(?:\.\d+)?)\s*-\s*(-?\d+(?:\.\d+)?)\s*$`)

// RangeBlock picks a number in an inclusive range. rangef yields one decimal.
//
//	{range([seed]):1-10}
//	{rangef:0.5-2.5}
type RangeBlock struct{}

func (RangeBlock) WillAccept(ctx *tagscript.Context) bool {
	return matches(ctx, "range", "rangef")
}

func (RangeBlock) Process(ctx *tagscript.Context) (string, bool) {
	if !ctx.Verb.HasPayload {
		return "", false
	}
	m := rangePattern.FindStringSubmatch(tagscript.Unescape(ctx.Verb.Payload))
	if m == nil {
		return "", false
	}
	lower, err1 := strconv.ParseFloat(m[1], 64)
	upper, err2 := strconv.ParseFloat(m[2], 64)
	if err1 != nil || err2 != nil {
		return "", false
	}
	if lower > upper {
		lower, upper = upper, lower
	}
	if lower < -maxExactInt || upper > maxExactInt {
		return "", false
	}
	r := rng(ctx)

	if ctx.Verb.Name() == "rangef" {
		lo, hi := int64(math.Round(lower*10)), int64(math.Round(upper*10))
		v := lo + r.Int64N(hi-lo+1)
		return strconv.FormatFloat(float64(v)/10, 'f', 1, 64), true
	}

	lo, hi := int64(math.Ceil(lower)), int64(math.Floor(upper))
	if lo > hi {
		return "", false
	}
	return strconv.FormatInt(lo+r.Int64N(hi-lo+1), 10), true
}
