// Package errprop tracks the numeric (rounding/approximation) error of
// program values during symbolic execution.
//
// The ledger keeps a shadow error expression for every tracked value and
// propagates it across arithmetic instructions with first-order relative
// error rules. Error expressions are built from the same IR as ordinary
// values; a constant zero means "no tracked error".
package errprop

import (
	"fmt"
	"io"
	"sort"

	"github.com/floatgauge/floatgauge/expr"
	"github.com/floatgauge/floatgauge/logging"
)

// unspecifiedErrorPrefix names error arrays created for symbolic inputs that
// were never explicitly associated with an error source.
const unspecifiedErrorPrefix = "_unspecified_error_"

// ValueKey identifies a host-program value (an instruction or operand). The
// ledger never inspects it, only keys maps by it, so any comparable value the
// engine uses for identity works. A nil key disables memoization for that
// call.
type ValueKey any

// Opcode classifies the instruction being propagated. Anything outside the
// four arithmetic families takes the default forwarding path.
type Opcode uint8

const (
	OpOther Opcode = iota
	OpAdd
	OpSub
	OpMul
	OpUDiv
	OpSDiv
)

var opcodeNames = [...]string{
	OpOther: "other",
	OpAdd:   "add",
	OpSub:   "sub",
	OpMul:   "mul",
	OpUDiv:  "udiv",
	OpSDiv:  "sdiv",
}

func (op Opcode) String() string {
	if int(op) < len(opcodeNames) {
		return opcodeNames[op]
	}
	return fmt.Sprintf("Opcode<%d>", uint8(op))
}

// Operand pairs an instruction operand's value expression with the engine's
// identity for it.
type Operand struct {
	Key  ValueKey
	Expr expr.Expr
}

// Ledger owns the three error mappings of one analysis session and the bound
// report buffer. It is not safe for concurrent use; the surrounding engine is
// single-threaded.
type Ledger struct {
	b   *expr.Builder
	log logging.Logger

	// valueErrors maps a program value to its error expression. Entries are
	// derived once and then served from the map.
	valueErrors map[ValueKey]expr.Expr
	valueOrder  []ValueKey

	// arrayErrors maps a symbolic input array to its error array, at most
	// one per array, created lazily on first unresolved reference.
	arrayErrors map[*expr.Array]*expr.Array
	arrayOrder  []*expr.Array

	// storedErrors shadows memory at concrete addresses.
	storedErrors map[uint64]expr.Expr

	report Report
}

// NewLedger returns a ledger building error expressions through b. A nil
// logger disables logging.
func NewLedger(b *expr.Builder, log logging.Logger) *Ledger {
	if log == nil {
		log = logging.Noop()
	}
	return &Ledger{
		b:            b,
		log:          log,
		valueErrors:  make(map[ValueKey]expr.Expr),
		arrayErrors:  make(map[*expr.Array]*expr.Array),
		storedErrors: make(map[uint64]expr.Expr),
	}
}

// Report returns the bound assertion report accumulated so far.
func (l *Ledger) Report() *Report { return &l.report }

// zeroError is the identity error value.
func (l *Ledger) zeroError() expr.Expr {
	return l.b.Constant(0, expr.Width8)
}

// GetError resolves the error expression for a program value. A cached entry
// wins; otherwise the error is derived structurally from valueExpr and, when
// key is non-nil, memoized.
//
// Panics on an expression shape outside the documented variants; that path is
// unreachable for well-formed instrumented values.
func (l *Ledger) GetError(key ValueKey, valueExpr expr.Expr) expr.Expr {
	if key != nil {
		if e, ok := l.valueErrors[key]; ok {
			return e
		}
	}
	ret := l.deriveError(valueExpr)
	if key != nil {
		l.setValueError(key, ret)
	}
	return ret
}

func (l *Ledger) deriveError(e expr.Expr) expr.Expr {
	switch e := e.(type) {
	case *expr.ConcatExpr:
		read, ok := e.MSB.(*expr.ReadExpr)
		if !ok {
			panic(fmt.Sprintf("errprop: malformed expression %s", e))
		}
		return l.errorRead(read.Array)
	case *expr.ReadExpr:
		return l.errorRead(e.Array)
	case *expr.SExtExpr:
		// Sign extension of the value does not change its relative error.
		return l.deriveError(e.Src)
	case *expr.BinaryExpr:
		if e.Op == expr.Add {
			// Direct sum of the operand errors. Known approximate path
			// without a width-weighted derivation; kept deliberately.
			return l.b.Add(l.deriveError(e.LHS), l.deriveError(e.RHS))
		}
		panic(fmt.Sprintf("errprop: malformed expression %s", e))
	case *expr.ConstantExpr:
		return l.zeroError()
	default:
		panic(fmt.Sprintf("errprop: malformed expression %s", e))
	}
}

// errorRead returns a read of byte 0 of the error array for the given input
// array, creating the association on first unresolved reference.
func (l *Ledger) errorRead(array *expr.Array) expr.Expr {
	errArray, ok := l.arrayErrors[array]
	if !ok {
		errArray = l.b.Array(unspecifiedErrorPrefix+array.Name, expr.Width8)
		l.arrayErrors[array] = errArray
		l.arrayOrder = append(l.arrayOrder, array)
		l.log.Debugf("created error array %s for %s", errArray.Name, array.Name)
	}
	return l.b.Read(errArray, l.b.Constant(0, expr.Width8))
}

// SetErrorArray associates array with an explicit error array ahead of the
// unspecified-error fallback. Replaces any previous association.
func (l *Ledger) SetErrorArray(array, errArray *expr.Array) {
	if _, ok := l.arrayErrors[array]; !ok {
		l.arrayOrder = append(l.arrayOrder, array)
	}
	l.arrayErrors[array] = errArray
}

// PropagateError derives the error expression of an instruction's result from
// its operands and records it under inst.
//
// Add/Sub use the weighted relative-error formula for a sum, normalized by
// the result only when the result is a known nonzero constant. Mul and both
// divisions add the operands' relative errors. Every other opcode forwards
// the first tracked operand error, or zero.
func (l *Ledger) PropagateError(op Opcode, inst ValueKey, result expr.Expr, operands []Operand) expr.Expr {
	switch op {
	case OpAdd, OpSub:
		lhs, rhs := l.binaryOperands(op, operands)
		lErr := l.align(l.GetError(lhs.Key, lhs.Expr), lhs.Expr.Width())
		rErr := l.align(l.GetError(rhs.Key, rhs.Expr), rhs.Expr.Width())
		sum := l.b.Add(l.b.Mul(lErr, lhs.Expr), l.b.Mul(rErr, rhs.Expr))
		// Normalization needs a concrete nonzero result; otherwise the
		// absolute-weighted sum is retained.
		if c, ok := result.(*expr.ConstantExpr); ok && c.Value != 0 {
			sum = l.b.UDiv(sum, result)
		}
		l.setValueError(inst, sum)
		return sum

	case OpMul, OpUDiv, OpSDiv:
		lhs, rhs := l.binaryOperands(op, operands)
		lErr := l.align(l.GetError(lhs.Key, lhs.Expr), lhs.Expr.Width())
		rErr := l.align(l.GetError(rhs.Key, rhs.Expr), rhs.Expr.Width())
		sum := l.b.Add(lErr, rErr)
		l.setValueError(inst, sum)
		return sum

	default:
		// Forward the error of the first tracked operand.
		errExpr := l.zeroError()
		for _, o := range operands {
			if o.Key == nil {
				continue
			}
			if e, ok := l.valueErrors[o.Key]; ok {
				errExpr = e
				break
			}
		}
		l.setValueError(inst, errExpr)
		return errExpr
	}
}

func (l *Ledger) binaryOperands(op Opcode, operands []Operand) (Operand, Operand) {
	if len(operands) != 2 {
		panic(fmt.Sprintf("errprop: %s propagation requires two operands, got %d", op, len(operands)))
	}
	return operands[0], operands[1]
}

// align matches an error expression to the operand width: zero-extend when
// narrower, truncate when wider. Forwarded errors can be wider than the value
// they now annotate (an error tracked at 64 bits forwarded through a
// truncation onto a 32-bit value), so both directions must be total.
func (l *Ledger) align(e expr.Expr, w expr.Width) expr.Expr {
	switch {
	case e.Width() < w:
		return l.b.ZExt(e, w)
	case e.Width() > w:
		return l.b.Extract(e, w)
	default:
		return e
	}
}

// ExecuteStore shadows a store of errExpr at a concrete address. A nil
// errExpr is a no-op; a symbolic address is a fatal, unsupported condition
// since there is no shadow-memory model for symbolic addresses.
func (l *Ledger) ExecuteStore(address expr.Expr, errExpr expr.Expr) {
	if errExpr == nil {
		return
	}
	c, ok := address.(*expr.ConstantExpr)
	if !ok {
		panic(fmt.Sprintf("errprop: non-constant store address %s", address))
	}
	l.storedErrors[c.Value] = errExpr
}

// ExecuteLoad resolves the error shadowing a concrete address, defaulting to
// zero for never-stored addresses, and records it under key. A symbolic
// address is fatal.
func (l *Ledger) ExecuteLoad(key ValueKey, address expr.Expr) expr.Expr {
	c, ok := address.(*expr.ConstantExpr)
	if !ok {
		panic(fmt.Sprintf("errprop: non-constant load address %s", address))
	}
	errExpr, ok := l.storedErrors[c.Value]
	if !ok {
		errExpr = l.zeroError()
	}
	l.setValueError(key, errExpr)
	return errExpr
}

// OutputErrorBound appends a bound assertion for the error of the
// instruction's first operand to the report, using zero when the operand is
// untracked. loc may be nil.
func (l *Ledger) OutputErrorBound(operand ValueKey, bound float64, loc *Location) {
	e, ok := l.valueErrors[operand]
	if !ok {
		e = l.zeroError()
	}
	errVar := fmt.Sprintf("__error__%d", e.ID())
	l.report.AddBound(errVar, e.String(), bound, loc)
}

func (l *Ledger) setValueError(key ValueKey, e expr.Expr) {
	if key == nil {
		return
	}
	if _, ok := l.valueErrors[key]; !ok {
		l.valueOrder = append(l.valueOrder, key)
	}
	l.valueErrors[key] = e
}

// Dump writes the three maps and the report buffer in a fixed layout, for
// debugging.
func (l *Ledger) Dump(w io.Writer) {
	fmt.Fprintf(w, "Value->Expression:\n")
	for _, key := range l.valueOrder {
		fmt.Fprintf(w, "[%v,%s]\n", key, l.valueErrors[key])
	}

	fmt.Fprintf(w, "Array->Error Array:\n")
	for _, array := range l.arrayOrder {
		fmt.Fprintf(w, "[%s,%s]\n", array.Name, l.arrayErrors[array].Name)
	}

	fmt.Fprintf(w, "Store:\n")
	addrs := make([]uint64, 0, len(l.storedErrors))
	for addr := range l.storedErrors {
		addrs = append(addrs, addr)
	}
	sort.Slice(addrs, func(i, j int) bool { return addrs[i] < addrs[j] })
	for _, addr := range addrs {
		fmt.Fprintf(w, "%d: %s\n", addr, l.storedErrors[addr])
	}

	fmt.Fprintf(w, "Output String:\n")
	fmt.Fprint(w, l.report.String())
}
