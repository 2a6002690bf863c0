package blocks

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"server-tags/pkg/tagscript"
)

// MathBlock evaluates an arithmetic expression.
//
//	{math:2^3^2 - -4}      -> 516
//	{m:round(PI*100)/100}  -> 3.14
//	{math:1/0}             -> Infinity
//	{math:2^10000}         -> ERR
type MathBlock struct{}

func (MathBlock) WillAccept(ctx *tagscript.Context) bool {
	return matches(ctx, "math", "m", "+", "calc")
}

func (MathBlock) Process(ctx *tagscript.Context) (string, bool) {
	if !ctx.Verb.HasPayload {
		return "", false
	}
	v, err := Evaluate(tagscript.Unescape(ctx.Verb.Payload))
	if err != nil {
		return "", false
	}
	return FormatNumber(v), true
}

// FormatNumber renders a math result: integral values without a decimal
// point, infinities as "Infinity" and NaN as "ERR". Evaluate only yields an
// infinity for a zero divisor; overflow comes back as NaN.
func FormatNumber(v float64) string {
	switch {
	case math.IsNaN(v):
		return "ERR"
	case math.IsInf(v, 1):
		return "Infinity"
	case math.IsInf(v, -1):
		return "-Infinity"
	case v == math.Trunc(v) && math.Abs(v) < 1e15:
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(v, 'g', 15, 64)
}

var errSyntax = errors.New("math: syntax error")

var mathToken = regexp.MustCompile(`\s*(\d+(?:\.\d*)?(?:[eE][+-]?\d+)?|\.\d+|[A-Za-z_]+|\*\*|[-+*/%^(),])`)

var constants = map[string]float64{
	"pi":  math.Pi,
	"e":   math.E,
	"phi": math.Phi,
	"tau": 2 * math.Pi,
}

var functions = map[string]func(args []float64) (float64, error){
	"sin":   unary(math.Sin),
	"cos":   unary(math.Cos),
	"tan":   unary(math.Tan),
	"atan":  unary(math.Atan),
	"exp":   unary(math.Exp),
	"abs":   unary(math.Abs),
	"trunc": unary(math.Trunc),
	"round": unary(math.Round),
	"sqrt":  unary(math.Sqrt),
	"floor": unary(math.Floor),
	"sgn": unary(func(x float64) float64 {
		switch {
		case x > 0:
			return 1
		case x < 0:
			return -1
		}
		return 0
	}),
	"fact": unary(factorial),
	"hypot": func(args []float64) (float64, error) {
		if len(args) != 2 {
			return 0, fmt.Errorf("math: hypot takes 2 arguments, got %d", len(args))
		}
		return checked(math.Hypot(args[0], args[1]), args...), nil
	},
}

func unary(fn func(float64) float64) func([]float64) (float64, error) {
	return func(args []float64) (float64, error) {
		if len(args) != 1 {
			return 0, fmt.Errorf("math: function takes 1 argument, got %d", len(args))
		}
		return checked(fn(args[0]), args[0]), nil
	}
}

// checked turns an infinite result of finite operands into NaN so overflow
// renders as ERR. Infinite operands propagate unchanged.
func checked(v float64, operands ...float64) float64 {
	if !math.IsInf(v, 0) {
		return v
	}
	for _, o := range operands {
		if math.IsInf(o, 0) {
			return v
		}
	}
	return math.NaN()
}

// factorial is defined for non-negative integers; 171! overflows float64.
func factorial(x float64) float64 {
	if x < 0 || x != math.Trunc(x) || x > 170 {
		return math.NaN()
	}
	r := 1.0
	for i := 2.0; i <= x; i++ {
		r *= i
	}
	return r
}

// Evaluate parses and computes expr. Precedence, lowest first: + -, then
// * / %, then unary minus, then ^ (right-associative, ** is an alias).
// Division by zero yields an infinity rather than an error; any other
// overflow yields NaN.
func Evaluate(expr string) (float64, error) {
	toks, err := tokenize(expr)
	if err != nil {
		return 0, err
	}
	p := &mathParser{toks: toks}
	v, err := p.expr()
	if err != nil {
		return 0, err
	}
	if p.pos != len(p.toks) {
		return 0, fmt.Errorf("%w: unexpected %q", errSyntax, p.toks[p.pos])
	}
	return v, nil
}

func tokenize(expr string) ([]string, error) {
	var toks []string
	rest := expr
	for strings.TrimSpace(rest) != "" {
		loc := mathToken.FindStringSubmatchIndex(rest)
		if loc == nil || loc[0] != 0 {
			return nil, fmt.Errorf("%w: near %q", errSyntax, strings.TrimSpace(rest))
		}
		toks = append(toks, rest[loc[2]:loc[3]])
		rest = rest[loc[1]:]
	}
	if len(toks) == 0 {
		return nil, fmt.Errorf("%w: empty expression", errSyntax)
	}
	return toks, nil
}

type mathParser struct {
	toks []string
	pos  int
}

func (p *mathParser) peek() string {
	if p.pos < len(p.toks) {
		return p.toks[p.pos]
	}
	return ""
}

func (p *mathParser) next() string {
	t := p.peek()
	p.pos++
	return t
}

func (p *mathParser) expect(tok string) error {
	if got := p.next(); got != tok {
		return fmt.Errorf("%w: expected %q, got %q", errSyntax, tok, got)
	}
	return nil
}

// expr := term (('+' | '-') term)*
func (p *mathParser) expr() (float64, error) {
	v, err := p.term()
	if err != nil {
		return 0, err
	}
	for {
		switch p.peek() {
		case "+":
			p.next()
			r, err := p.term()
			if err != nil {
				return 0, err
			}
			v = checked(v+r, v, r)
		case "-":
			p.next()
			r, err := p.term()
			if err != nil {
				return 0, err
			}
			v = checked(v-r, v, r)
		default:
			return v, nil
		}
	}
}

// term := unary (('*' | '/' | '%') unary)*
func (p *mathParser) term() (float64, error) {
	v, err := p.unary()
	if err != nil {
		return 0, err
	}
	for {
		op := p.peek()
		if op != "*" && op != "/" && op != "%" {
			return v, nil
		}
		p.next()
		r, err := p.unary()
		if err != nil {
			return 0, err
		}
		switch op {
		case "*":
			v = checked(v*r, v, r)
		case "/":
			if r == 0 {
				v /= r
			} else {
				v = checked(v/r, v, r)
			}
		case "%":
			v = math.Mod(v, r)
		}
	}
}

// unary := ('-' | '+') unary | power
func (p *mathParser) unary() (float64, error) {
	switch p.peek() {
	case "-":
		p.next()
		v, err := p.unary()
		return -v, err
	case "+":
		p.next()
		return p.unary()
	}
	return p.power()
}

// power := primary (('^' | '**') unary)?
func (p *mathParser) power() (float64, error) {
	base, err := p.primary()
	if err != nil {
		return 0, err
	}
	if op := p.peek(); op == "^" || op == "**" {
		p.next()
		exp, err := p.unary()
		if err != nil {
			return 0, err
		}
		if base == 0 && exp < 0 {
			return math.Pow(base, exp), nil
		}
		return checked(math.Pow(base, exp), base, exp), nil
	}
	return base, nil
}

// primary := number | constant | function '(' args ')' | '(' expr ')'
func (p *mathParser) primary() (float64, error) {
	tok := p.next()
	switch {
	case tok == "":
		return 0, fmt.Errorf("%w: unexpected end", errSyntax)
	case tok == "(":
		v, err := p.expr()
		if err != nil {
			return 0, err
		}
		return v, p.expect(")")
	case tok[0] >= '0' && tok[0] <= '9' || tok[0] == '.':
		v, err := strconv.ParseFloat(tok, 64)
		if errors.Is(err, strconv.ErrRange) {
			return checked(v), nil
		}
		return v, err
	}

	name := strings.ToLower(tok)
	if fn, ok := functions[name]; ok {
		if err := p.expect("("); err != nil {
			return 0, err
		}
		var args []float64
		for {
			v, err := p.expr()
			if err != nil {
				return 0, err
			}
			args = append(args, v)
			if p.peek() != "," {
				break
			}
			p.next()
		}
		if err := p.expect(")"); err != nil {
			return 0, err
		}
		return fn(args)
	}
	if c, ok := constants[name]; ok {
		return c, nil
	}
	return 0, fmt.Errorf("%w: unknown name %q", errSyntax, tok)
}
