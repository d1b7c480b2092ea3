package solver

import (
	"strings"
	"testing"

	"github.com/floatgauge/floatgauge/expr"
)

func TestBuildScriptSolve(t *testing.T) {
	b := expr.NewBuilder()
	arr := b.Array("x", expr.Width64)
	x := b.Read(arr, b.Constant(0, expr.Width8))
	c := b.Ule(x, b.Constant(3, expr.Width64))

	script := buildScript([]expr.Expr{c}, []*expr.Array{arr}, nil)

	wantLines := []string{
		"(set-option :produce-models true)",
		"(declare-const x Real)",
		"(assert (<= x 3.0))",
		"(check-sat)",
		"(get-value (x))",
		"(get-info :reason-unknown)",
	}
	for _, line := range wantLines {
		if !strings.Contains(script, line) {
			t.Errorf("script is missing %q:\n%s", line, script)
		}
	}
	if strings.Contains(script, "pareto") || strings.Contains(script, "maximize") {
		t.Errorf("plain solve script must not carry optimization directives:\n%s", script)
	}
}

func TestBuildScriptOptimize(t *testing.T) {
	b := expr.NewBuilder()
	ex := b.Array("_unspecified_error_a", expr.Width8)
	ey := b.Array("_unspecified_error_b", expr.Width8)
	rx := b.Read(ex, b.Constant(0, expr.Width8))
	ry := b.Read(ey, b.Constant(0, expr.Width8))
	cs := []expr.Expr{
		b.Ule(rx, b.Constant(3, expr.Width8)),
		b.Ule(ry, b.Constant(5, expr.Width8)),
	}

	script := buildScript(cs, nil, []*expr.Array{ex, ey})

	wantLines := []string{
		"(set-option :opt.priority pareto)",
		"(declare-const _unspecified_error_a Real)",
		"(declare-const _unspecified_error_b Real)",
		"(maximize _unspecified_error_a)",
		"(maximize _unspecified_error_b)",
		"(check-sat)",
		"(get-objectives)",
	}
	for _, line := range wantLines {
		if !strings.Contains(script, line) {
			t.Errorf("script is missing %q:\n%s", line, script)
		}
	}
	// Objectives must come before check-sat.
	if strings.Index(script, "(maximize") > strings.Index(script, "(check-sat)") {
		t.Errorf("maximize directives must precede check-sat:\n%s", script)
	}
}

func TestScriptRealEncoding(t *testing.T) {
	b := expr.NewBuilder()
	a := b.Read(b.Array("a", expr.Width64), b.Constant(0, expr.Width8))
	c := b.Read(b.Array("c", expr.Width64), b.Constant(0, expr.Width8))

	// Both division variants reach real division and extensions collapse.
	e := b.Eq(b.UDiv(b.SExt(b.Read(b.Array("n", expr.Width8), b.Constant(0, expr.Width8)), expr.Width64), a), b.SDiv(c, a))
	script := buildScript([]expr.Expr{e}, nil, nil)

	if !strings.Contains(script, "(assert (= (/ n a) (/ c a)))") {
		t.Errorf("unexpected encoding:\n%s", script)
	}
}

func TestScriptSignedConstants(t *testing.T) {
	b := expr.NewBuilder()
	x := b.Read(b.Array("x", expr.Width8), b.Constant(0, expr.Width8))

	// A folded negative (0 - 1 wraps to 0xff) must emit a negated Real
	// literal, not the raw two's complement magnitude.
	neg := b.Sub(b.Constant(0, expr.Width8), b.Constant(1, expr.Width8))
	script := buildScript([]expr.Expr{b.Ule(neg, x)}, nil, nil)

	if !strings.Contains(script, "(assert (<= (- 1.0) x))") {
		t.Errorf("unexpected encoding:\n%s", script)
	}
	if strings.Contains(script, "255") {
		t.Errorf("raw magnitude leaked into the encoding:\n%s", script)
	}
}

func TestScriptExtractCollapses(t *testing.T) {
	b := expr.NewBuilder()
	x := b.Read(b.Array("x", expr.Width64), b.Constant(0, expr.Width8))
	e := b.Ule(b.Extract(x, expr.Width32), b.Constant(7, expr.Width32))

	script := buildScript([]expr.Expr{e}, nil, nil)
	if !strings.Contains(script, "(assert (<= x 7.0))") {
		t.Errorf("unexpected encoding:\n%s", script)
	}
}

func TestScriptSharedTermsSerializeOnce(t *testing.T) {
	b := expr.NewBuilder()
	x := b.Read(b.Array("x", expr.Width64), b.Constant(0, expr.Width8))
	sum := b.Add(x, x)
	c1 := b.Ule(sum, b.Constant(3, expr.Width64))
	c2 := b.Ult(sum, b.Constant(4, expr.Width64))

	script := buildScript([]expr.Expr{c1, c2}, nil, nil)
	if !strings.Contains(script, "(assert (<= (+ x x) 3.0))") ||
		!strings.Contains(script, "(assert (< (+ x x) 4.0))") {
		t.Errorf("unexpected encoding:\n%s", script)
	}
	if strings.Count(script, "(declare-const x Real)") != 1 {
		t.Errorf("array declared more than once:\n%s", script)
	}
}

func TestSMTSymbolQuoting(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"x", "x"},
		{"_unspecified_error_a", "_unspecified_error_a"},
		{"has space", "|has space|"},
		{"", "||"},
	}
	for _, tt := range tests {
		if got := smtSymbol(tt.in); got != tt.want {
			t.Errorf("smtSymbol(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestBenchmarkScript(t *testing.T) {
	b := expr.NewBuilder()
	x := b.Read(b.Array("x", expr.Width64), b.Constant(0, expr.Width8))
	c := b.Ule(x, b.Constant(3, expr.Width64))
	formula := b.Not(b.Ule(x, b.Constant(4, expr.Width64)))

	script := benchmarkScript([]expr.Expr{c}, formula)

	wantLines := []string{
		"(set-info :status unknown)",
		"(declare-const x Real)",
		"(assert (<= x 3.0))",
		"(assert (not (<= x 4.0)))",
		"(check-sat)",
	}
	for _, line := range wantLines {
		if !strings.Contains(script, line) {
			t.Errorf("benchmark is missing %q:\n%s", line, script)
		}
	}
	if strings.Contains(script, "get-value") || strings.Contains(script, "reason-unknown") {
		t.Errorf("benchmark must not request models:\n%s", script)
	}
}
