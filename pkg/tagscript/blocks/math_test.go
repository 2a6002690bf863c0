package blocks_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"server-tags/pkg/tagscript/blocks"
)

func TestEvaluate(t *testing.T) {
	tests := []struct {
		expr string
		want float64
	}{
		{"1+2*3", 7},
		{"(1+2)*3", 9},
		{"10-4-3", 3},
		{"2^3^2", 512},
		{"2**3", 8},
		{"-2^2", -4},
		{"2^-1", 0.5},
		{"- -4", 4},
		{"7%4", 3},
		{"8/4/2", 1},
		{"sqrt(16)+abs(-2)", 6},
		{"hypot(3, 4)", 5},
		{"fact(5)", 120},
		{"round(PI*100)/100", 3.14},
		{"floor(2.7)+trunc(-2.7)", 0},
		{"sgn(-3)", -1},
		{"1.5e2", 150},
		{".5+.5", 1},
		{"cos(0)", 1},
		{"sin(PI/2)", 1},
		{"tan(PI/4)", 1},
		{"atan(1)*4", math.Pi},
		{"exp(0)", 1},
		{"exp(1)-E", 0},
		{"TAU/PI", 2},
		{"PHI^2-PHI", 1},
		{"1e-400", 0},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got, err := blocks.Evaluate(tt.expr)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestEvaluateErrors(t *testing.T) {
	for _, expr := range []string{"", "1+", "(1", "foo(1)", "hypot(1)", "1 2", "2 $ 3", "sqrt 4"} {
		_, err := blocks.Evaluate(expr)
		assert.Error(t, err, expr)
	}
}

func TestFormatNumber(t *testing.T) {
	assert.Equal(t, "3", blocks.FormatNumber(3))
	assert.Equal(t, "-12", blocks.FormatNumber(-12))
	assert.Equal(t, "0.5", blocks.FormatNumber(0.5))
	assert.Equal(t, "Infinity", blocks.FormatNumber(math.Inf(1)))
	assert.Equal(t, "-Infinity", blocks.FormatNumber(math.Inf(-1)))
	assert.Equal(t, "ERR", blocks.FormatNumber(math.NaN()))
}

func TestMathBlock(t *testing.T) {
	checkBodies(t, []bodyCase{
		{"{math:2^3^2 - -4}", "516"},
		{"{m:1/0}", "Infinity"},
		{"{+:-1/0}", "-Infinity"},
		{"{calc:0/0}", "ERR"},
		{"{math:fact(-1)}", "ERR"},
		{"{math:0^-1}", "Infinity"},
		{"{math:2^10000}", "ERR"},
		{"{math:fact(171)}", "ERR"},
		{"{math:exp(1000)}", "ERR"},
		{"{math:1e400}", "ERR"},
		{"{math:-1e308*10}", "ERR"},
		{"{math:1e308/1e-10}", "ERR"},
		{"{math:1/0*2}", "Infinity"},
		{"{math:1+}", "{math:1+}"},
		{"{math:{=(x):4}{x}*2}", "8"},
		{"{math}", "{math}"},
	}, nil)
}
