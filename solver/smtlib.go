package solver

import (
	"fmt"
	"strings"

	"github.com/floatgauge/floatgauge/expr"
)

// The error calculus is interpreted over the reals: every symbolic array is
// encoded as a single Real constant named by the array, so reads,
// concatenations, extensions and extracts collapse to that constant and both
// division variants become real division. Constants of the arithmetic widths
// are read as two's complement, matching Assignment evaluation. This is the
// same single-numeral-per-array simplification used when decoding models.

// smtPrinter translates expressions to SMT-LIB 2 terms. The cache holds terms
// for the whole request, so DAG nodes shared across constraints serialize
// once; a printer must not outlive its request to keep memory bounded.
type smtPrinter struct {
	cache map[uint64]string
}

func newSMTPrinter() *smtPrinter {
	return &smtPrinter{cache: make(map[uint64]string, 64)}
}

func (p *smtPrinter) term(e expr.Expr) string {
	if s, ok := p.cache[e.ID()]; ok {
		return s
	}
	var s string
	switch e := e.(type) {
	case *expr.ConstantExpr:
		if e.Width() == expr.WidthBool {
			if e.Value == 0 {
				s = "false"
			} else {
				s = "true"
			}
		} else if v := e.Signed(); v < 0 {
			// SMT-LIB has no negative literals; negate the magnitude.
			// uint64(-v) stays correct at the minimum int64.
			s = fmt.Sprintf("(- %d.0)", uint64(-v))
		} else {
			s = fmt.Sprintf("%d.0", v)
		}
	case *expr.ReadExpr:
		s = smtSymbol(e.Array.Name)
	case *expr.ConcatExpr:
		s = p.term(e.MSB)
	case *expr.ZExtExpr:
		s = p.term(e.Src)
	case *expr.SExtExpr:
		s = p.term(e.Src)
	case *expr.ExtractExpr:
		s = p.term(e.Src)
	case *expr.NotExpr:
		s = "(not " + p.term(e.X) + ")"
	case *expr.BinaryExpr:
		s = "(" + smtOp(e.Op) + " " + p.term(e.LHS) + " " + p.term(e.RHS) + ")"
	default:
		panic(fmt.Sprintf("solver: cannot serialize expression type %T", e))
	}
	p.cache[e.ID()] = s
	return s
}

func smtOp(op expr.BinaryOp) string {
	switch op {
	case expr.Add:
		return "+"
	case expr.Sub:
		return "-"
	case expr.Mul:
		return "*"
	case expr.UDiv, expr.SDiv:
		return "/"
	case expr.Eq:
		return "="
	case expr.Ult, expr.Slt:
		return "<"
	case expr.Ule, expr.Sle:
		return "<="
	default:
		panic(fmt.Sprintf("solver: cannot serialize operation %s", op))
	}
}

// smtSymbol quotes a name when it is not a simple SMT-LIB symbol.
func smtSymbol(name string) string {
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '_' || r == '.' || r == '-' || r == '$':
		default:
			return "|" + name + "|"
		}
	}
	if name == "" {
		return "|" + name + "|"
	}
	return name
}

// buildScript emits one complete SMT-LIB session for a request. Declarations
// cover every array referenced by the assertions plus the evaluated and
// maximized arrays.
func buildScript(assertions []expr.Expr, evaluate, maximize []*expr.Array) string {
	p := newSMTPrinter()

	terms := make([]string, 0, len(assertions))
	for _, a := range assertions {
		terms = append(terms, p.term(a))
	}

	var sb strings.Builder
	sb.WriteString("(set-option :produce-models true)\n")
	if len(maximize) > 0 {
		sb.WriteString("(set-option :opt.priority pareto)\n")
	}
	for _, a := range declaredArrays(assertions, evaluate, maximize) {
		fmt.Fprintf(&sb, "(declare-const %s Real)\n", smtSymbol(a.Name))
	}
	for _, t := range terms {
		fmt.Fprintf(&sb, "(assert %s)\n", t)
	}
	for _, a := range maximize {
		fmt.Fprintf(&sb, "(maximize %s)\n", smtSymbol(a.Name))
	}
	sb.WriteString("(check-sat)\n")
	if len(maximize) > 0 {
		sb.WriteString("(get-objectives)\n")
	}
	if len(evaluate) > 0 {
		syms := make([]string, 0, len(evaluate))
		for _, a := range evaluate {
			syms = append(syms, smtSymbol(a.Name))
		}
		fmt.Fprintf(&sb, "(get-value (%s))\n", strings.Join(syms, " "))
	}
	sb.WriteString("(get-info :reason-unknown)\n")
	return sb.String()
}

// declaredArrays merges the arrays of the assertions with the explicitly
// requested ones, deduplicated in first-seen order.
func declaredArrays(assertions []expr.Expr, extra ...[]*expr.Array) []*expr.Array {
	out := expr.ArraysOf(assertions...)
	seen := make(map[*expr.Array]struct{}, len(out))
	for _, a := range out {
		seen[a] = struct{}{}
	}
	for _, arrays := range extra {
		for _, a := range arrays {
			if _, ok := seen[a]; !ok {
				seen[a] = struct{}{}
				out = append(out, a)
			}
		}
	}
	return out
}

// benchmarkScript emits the standalone benchmark form used by ConstraintLog.
func benchmarkScript(assertions []expr.Expr, formula expr.Expr) string {
	p := newSMTPrinter()

	terms := make([]string, 0, len(assertions)+1)
	for _, a := range assertions {
		terms = append(terms, p.term(a))
	}
	terms = append(terms, p.term(formula))

	var sb strings.Builder
	sb.WriteString("; benchmark emitted by floatgauge solver\n")
	sb.WriteString("(set-info :status unknown)\n")
	all := append(append([]expr.Expr{}, assertions...), formula)
	for _, a := range expr.ArraysOf(all...) {
		fmt.Fprintf(&sb, "(declare-const %s Real)\n", smtSymbol(a.Name))
	}
	for _, t := range terms {
		fmt.Fprintf(&sb, "(assert %s)\n", t)
	}
	sb.WriteString("(check-sat)\n")
	return sb.String()
}
